// Package catalog holds the wallet application catalog: which wallets exist,
// how to deep-link into them, and which transfer method each one settles on.
//
// A Catalog is immutable once built and is passed explicitly to the
// capability filter and the deep-link resolver.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/paylink/internal/fileutil"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// FileVersion is the catalog file format version written by Save.
const FileVersion = 1

//go:embed default.yaml
var defaultYAML []byte

// File is the on-disk catalog layout.
type File struct {
	Version int          `yaml:"version"`
	Wallets []WalletInfo `yaml:"wallets"`
}

// Catalog is an ordered, read-only set of wallets.
type Catalog struct {
	wallets []WalletInfo
	index   map[WalletAppID]int
}

// New validates wallets and builds a catalog preserving their order.
func New(wallets []WalletInfo) (*Catalog, error) {
	c := &Catalog{
		wallets: slices.Clone(wallets),
		index:   make(map[WalletAppID]int, len(wallets)),
	}

	for i, w := range c.wallets {
		if err := validate.Struct(w); err != nil {
			return nil, plerr.WithDetails(plerr.ErrCatalogInvalid, map[string]string{
				"wallet": walletLabel(w, i),
				"reason": describe(err),
			})
		}
		if _, dup := c.index[w.ID]; dup {
			return nil, plerr.WithDetails(plerr.ErrDuplicateWallet, map[string]string{
				"wallet": string(w.ID),
			})
		}
		c.index[w.ID] = i
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded wallet catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, plerr.WithCause(plerr.ErrCatalogInvalid, err)
	}
	if f.Version > FileVersion {
		return nil, plerr.WithDetails(plerr.ErrCatalogInvalid, map[string]string{
			"version": fmt.Sprintf("%d", f.Version),
			"reason":  "unsupported catalog version",
		})
	}
	return New(f.Wallets)
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: catalog path comes from config or flags
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plerr.WithDetails(plerr.ErrNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	c, err := Parse(data)
	if err != nil {
		return nil, plerr.Wrap(err, "loading %s", filepath.Base(path))
	}
	return c, nil
}

// Marshal encodes the catalog in the on-disk format.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(File{Version: FileVersion, Wallets: c.wallets})
}

// Save writes the catalog to path atomically.
func Save(c *Catalog, path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, data, 0o644) //nolint:gosec // G306: catalog is not secret
}

// Wallets returns a copy of the wallets in catalog order.
func (c *Catalog) Wallets() []WalletInfo {
	return slices.Clone(c.wallets)
}

// Get returns the wallet with the given id.
func (c *Catalog) Get(id WalletAppID) (WalletInfo, bool) {
	i, ok := c.index[id]
	if !ok {
		return WalletInfo{}, false
	}
	return c.wallets[i], true
}

// Len returns the number of wallets.
func (c *Catalog) Len() int {
	return len(c.wallets)
}

// maxSuggestDistance bounds how different a typo may be and still be suggested.
const maxSuggestDistance = 3

// Suggest returns up to three wallet ids closest to id, nearest first.
// Short inputs tolerate fewer edits.
func (c *Catalog) Suggest(id string) []WalletAppID {
	limit := min(maxSuggestDistance, max(1, len(id)/2))

	type candidate struct {
		id   WalletAppID
		dist int
	}

	var found []candidate
	for _, w := range c.wallets {
		d := levenshtein.ComputeDistance(id, string(w.ID))
		if d <= limit {
			found = append(found, candidate{id: w.ID, dist: d})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].dist < found[j].dist })

	out := make([]WalletAppID, 0, 3)
	for _, f := range found {
		if len(out) == 3 {
			break
		}
		out = append(out, f.id)
	}
	return out
}

func walletLabel(w WalletInfo, i int) string {
	if w.ID != "" {
		return string(w.ID)
	}
	return fmt.Sprintf("#%d", i)
}
