package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/output"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var catalogExportForce bool

// catalogCmd is the parent command for wallet catalog operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the wallet catalog",
	Long: `Inspect and manage the wallet catalog.

The catalog lists every wallet app paylink knows, with its deep-link template,
transfer method and callback needs. The built-in catalog is used unless
catalog.file is set in the configuration.`,
}

// catalogListCmd lists the wallets in the active catalog.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the wallets in the active catalog",
	Long:  `List the wallets in the active catalog in catalog order.`,
	Example: `  paylink catalog list
  paylink catalog list -o json`,
	Args: cobra.NoArgs,
	RunE: runCatalogList,
}

// catalogValidateCmd checks a catalog file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a wallet catalog file",
	Long: `Validate a wallet catalog YAML file.

Every wallet needs an id and a name. Wallets without a callback need a deep
link. Invoice callbacks require the Lightning transfer method and URI
callbacks require a transfer method. Wallet ids must be unique.`,
	Example: `  paylink catalog validate ./wallets.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    runCatalogValidate,
}

// catalogExportCmd writes the built-in catalog to a file.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var catalogExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the built-in catalog to a file",
	Long: `Write the built-in wallet catalog to a YAML file as a starting point for
a custom catalog. Point catalog.file at the result to use it.

Existing files are not overwritten unless --force is specified.`,
	Example: `  paylink catalog export ~/.paylink/wallets.yaml
  paylink config set catalog.file ~/.paylink/wallets.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogExport,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.GroupID = groupCatalog
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	catalogExportCmd.Flags().BoolVar(&catalogExportForce, "force", false, "overwrite an existing file")

	enrichParentLong(catalogCmd)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	cat, err := cc.LoadCatalog()
	if err != nil {
		return err
	}
	wallets := cat.Wallets()

	return formatterFor(cmd, cc).Emit(wallets, func(w io.Writer) error {
		return displayCatalogText(w, wallets)
	})
}

func runCatalogValidate(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	path := expandHome(args[0])

	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}

	res := map[string]any{"file": path, "valid": true, "wallets": cat.Len()}
	return formatterFor(cmd, cc).Emit(res, func(w io.Writer) error {
		output.Success(w, "%s is valid (%d wallets)", path, cat.Len())
		return nil
	})
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	path := expandHome(args[0])

	if _, err := os.Stat(path); err == nil && !catalogExportForce {
		return plerr.WithSuggestion(
			plerr.WithDetails(plerr.ErrGeneral, map[string]string{"file": path}),
			fmt.Sprintf("%s already exists. Use --force to overwrite.", path),
		)
	}

	cat := catalog.Default()
	if err := catalog.Save(cat, path); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}

	f := formatterFor(cmd, GetCmdContext(cmd))
	return output.FormatSuccess(cmd.OutOrStdout(), fmt.Sprintf("Wrote %d wallets to %s", cat.Len(), path), f.Format())
}

func displayCatalogText(w io.Writer, wallets []catalog.WalletInfo) error {
	t := output.NewTable("ID", "NAME", "METHOD", "CALLBACK", "FLAGS")
	for _, wallet := range wallets {
		t.AddRow(
			string(wallet.ID),
			wallet.Name,
			valueOr(string(wallet.TransferMethod), "-"),
			valueOr(string(wallet.Callback), "-"),
			walletFlags(wallet),
		)
	}
	if err := t.Render(w); err != nil {
		return err
	}
	outln(w)
	outln(w, strconv.Itoa(len(wallets))+" wallets")
	return nil
}

func walletFlags(w catalog.WalletInfo) string {
	var flags []string
	if w.Recommended {
		flags = append(flags, "recommended")
	}
	if w.SemiCompatible {
		flags = append(flags, "semi")
	}
	if w.Disabled {
		flags = append(flags, "disabled")
	}
	return valueOr(strings.Join(flags, ","), "-")
}
