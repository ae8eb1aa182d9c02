package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/deeplink"
	"github.com/mrz1836/paylink/internal/output"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	resolveRequest    string
	resolveIdentifier string
	resolveQR         bool
)

// resolveCmd builds the deep link for one wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var resolveCmd = &cobra.Command{
	Use:   "resolve <wallet-id>",
	Short: "Build the deep link that opens a wallet with the payment",
	Long: `Build the deep link for the given wallet.

Wallets that need a Lightning invoice or a payment URI call the payment
callback named in the pay request (--request). Lightning wallets without a
callback use the "lightning" parameter of the payment identifier
(--identifier). Other wallets use their static link.

EVM payment URIs returned by a callback are decoded and shown with the link.`,
	Example: `  paylink resolve phoenix --identifier "https://pay.example.com/pl?lightning=LNURL1..."
  paylink resolve bitbanana --request https://pay.example.com/pl?route=shop
  paylink resolve metamask --request ./pay-request.json --qr
  paylink resolve binancepay --request https://pay.example.com/pl?route=shop -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.GroupID = groupPayment

	resolveCmd.Flags().StringVar(&resolveRequest, "request", "", "payment link URL or pay request JSON file")
	resolveCmd.Flags().StringVar(&resolveIdentifier, "identifier", "", "payment identifier carrying the lightning parameter")
	resolveCmd.Flags().BoolVar(&resolveQR, "qr", false, "render the deep link as a QR code")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	id := catalog.WalletAppID(args[0])

	cat, err := cc.LoadCatalog()
	if err != nil {
		return err
	}
	if _, ok := cat.Get(id); !ok {
		return walletNotFound(cat, id)
	}

	ctx, cancel := contextWithTimeout(cmd, cc.config().PaymentTimeout()+cc.config().CallbackTimeout())
	defer cancel()

	req, err := cc.PayRequest(ctx, resolveRequest)
	if err != nil {
		return err
	}

	res, ok, err := cc.Resolver(cat).Resolve(ctx, id, deeplink.PaymentContext{
		Identifier: resolveIdentifier,
		Request:    req,
	})
	if err != nil {
		return err
	}
	if !ok {
		return plerr.WithSuggestion(
			plerr.WithDetails(plerr.ErrMissingContext, map[string]string{"wallet": string(id)}),
			"pass --identifier for Lightning wallets or --request for wallets that use a payment callback",
		)
	}

	return formatterFor(cmd, cc).Emit(res, func(w io.Writer) error {
		return displayResolutionText(w, res, resolveQR)
	})
}

func displayResolutionText(w io.Writer, res deeplink.Resolution, qr bool) error {
	t := output.NewTable("FIELD", "VALUE")
	t.SetNoHeader(true)
	t.AddRow("wallet", string(res.WalletID))
	t.AddRow("source", string(res.Source))
	t.AddRow("link", res.URI)
	if res.EVM != nil {
		t.AddRow("chain_id", res.EVM.ChainID)
		t.AddRow("address", valueOr(res.EVM.Address, "-"))
		t.AddRow("amount", valueOr(res.EVM.Amount, "-"))
		if res.EVM.IsTokenTransfer() {
			t.AddRow("token", res.EVM.TokenContractAddress)
		}
	}
	if err := t.Render(w); err != nil {
		return err
	}

	if !qr {
		return nil
	}
	outln(w)
	return output.WriteQR(w, res.URI, output.DefaultQRConfig())
}

// walletNotFound reports an unknown wallet id, suggesting the closest match.
func walletNotFound(c *catalog.Catalog, id catalog.WalletAppID) error {
	err := plerr.WithDetails(plerr.ErrWalletNotFound, map[string]string{"wallet": string(id)})
	if ids := c.Suggest(string(id)); len(ids) > 0 {
		err = plerr.WithSuggestion(err, "did you mean "+string(ids[0])+"?")
	}
	return err
}
