package cli

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/paylink/internal/capability"
	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/deeplink"
	"github.com/mrz1836/paylink/internal/output"
)

// linkConcurrency bounds parallel callback round-trips for --links.
const linkConcurrency = 4

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	walletsRequest    string
	walletsIdentifier string
	walletsLinks      bool
)

// walletsCmd lists the wallets grouped by compatibility.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var walletsCmd = &cobra.Command{
	Use:   "wallets",
	Short: "List wallets grouped by compatibility with a payment",
	Long: `List the catalog's wallets split into recommended, other and
semi-compatible groups.

With --request, semi-compatible wallets whose payment method is not offered by
the payment link are shown as disabled. Without a request every C2B wallet is
disabled.

--links resolves the deep link of every enabled wallet. Wallets that need a
payment callback are resolved concurrently.`,
	Example: `  paylink wallets
  paylink wallets --request https://pay.example.com/pl?route=shop
  paylink wallets --request ./pay-request.json --identifier "https://pay.example.com/pl?lightning=LNURL1..." --links
  paylink wallets -o json`,
	Args: cobra.NoArgs,
	RunE: runWallets,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(walletsCmd)
	walletsCmd.GroupID = groupPayment

	walletsCmd.Flags().StringVar(&walletsRequest, "request", "", "payment link URL or pay request JSON file")
	walletsCmd.Flags().StringVar(&walletsIdentifier, "identifier", "", "payment identifier carrying the lightning parameter")
	walletsCmd.Flags().BoolVar(&walletsLinks, "links", false, "resolve the deep link of every enabled wallet")
}

type walletsOutput struct {
	capability.Result

	Quote            string                    `json:"quote,omitempty"`
	AvailableMethods []catalog.TransferMethod  `json:"available_methods"`
	Links            map[string]walletLinkInfo `json:"links,omitempty"`
}

type walletLinkInfo struct {
	URI    string          `json:"uri,omitempty"`
	Source deeplink.Source `json:"source,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func runWallets(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	cat, err := cc.LoadCatalog()
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.config().PaymentTimeout()+cc.config().CallbackTimeout())
	defer cancel()

	req, err := cc.PayRequest(ctx, walletsRequest)
	if err != nil {
		return err
	}

	res := walletsOutput{
		Result:           capability.Filter(cat, req),
		AvailableMethods: req.AvailableMethods(),
	}
	if req != nil {
		res.Quote = req.Quote.ID
	}
	if res.AvailableMethods == nil {
		res.AvailableMethods = []catalog.TransferMethod{}
	}

	if walletsLinks {
		pc := deeplink.PaymentContext{Identifier: walletsIdentifier, Request: req}
		res.Links = resolveLinks(ctx, cc.Resolver(cat), res.Enabled(), pc)
	}

	return formatterFor(cmd, cc).Emit(res, func(w io.Writer) error {
		return displayWalletsText(w, res)
	})
}

// resolveLinks resolves every wallet, bounded by linkConcurrency.
// A failed wallet is reported in its entry and does not stop the others.
func resolveLinks(ctx context.Context, r *deeplink.Resolver, wallets []catalog.WalletInfo, pc deeplink.PaymentContext) map[string]walletLinkInfo {
	var (
		mu    sync.Mutex
		links = make(map[string]walletLinkInfo, len(wallets))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(linkConcurrency)
	for _, w := range wallets {
		g.Go(func() error {
			var info walletLinkInfo
			res, ok, err := r.Resolve(gctx, w.ID, pc)
			switch {
			case err != nil:
				info.Error = err.Error()
			case !ok:
				info.Error = "missing payment context"
			default:
				info.URI = res.URI
				info.Source = res.Source
			}

			mu.Lock()
			links[string(w.ID)] = info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return links
}

func displayWalletsText(w io.Writer, res walletsOutput) error {
	if res.Quote != "" {
		out(w, "Quote:   %s\n", res.Quote)
		out(w, "Methods: %s\n\n", joinMethods(res.AvailableMethods))
	}

	sections := []struct {
		title   string
		wallets []catalog.WalletInfo
	}{
		{"Recommended", res.Recommended},
		{"Other", res.Other},
	}
	for _, s := range sections {
		outln(w, s.title+":")
		if len(s.wallets) == 0 {
			outln(w, "  (none)")
			outln(w)
			continue
		}
		t := output.NewTable("ID", "NAME", "METHOD", "LINK")
		for _, wallet := range s.wallets {
			t.AddRow(string(wallet.ID), wallet.Name, valueOr(string(wallet.TransferMethod), "-"), linkCell(res.Links, wallet.ID))
		}
		if err := t.Render(w); err != nil {
			return err
		}
		outln(w)
	}

	outln(w, "Semi-compatible:")
	if len(res.SemiCompatible) == 0 {
		outln(w, "  (none)")
		return nil
	}
	t := output.NewTable("ID", "NAME", "METHOD", "STATUS", "LINK")
	for _, e := range res.SemiCompatible {
		status := "enabled"
		if e.Disabled {
			status = "disabled"
		}
		t.AddRow(string(e.Wallet.ID), e.Wallet.Name, valueOr(string(e.Wallet.TransferMethod), "-"), status, linkCell(res.Links, e.Wallet.ID))
	}
	return t.Render(w)
}

func linkCell(links map[string]walletLinkInfo, id catalog.WalletAppID) string {
	if links == nil {
		return "-"
	}
	info, ok := links[string(id)]
	switch {
	case !ok:
		return "-"
	case info.Error != "":
		return "error: " + info.Error
	default:
		return info.URI
	}
}

func joinMethods(methods []catalog.TransferMethod) string {
	if len(methods) == 0 {
		return "-"
	}
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

