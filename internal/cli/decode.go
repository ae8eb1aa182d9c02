package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/evmuri"
	"github.com/mrz1836/paylink/internal/output"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	decodeChecksum bool
	decodeDecimals int32
)

// decodeCmd decodes an EVM payment URI.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var decodeCmd = &cobra.Command{
	Use:   "decode <uri>",
	Short: "Decode an ethereum: payment URI",
	Long: `Decode a simplified EIP-681 payment URI into its parts.

Native transfers carry the recipient in the URI and the amount in "value".
Token transfers carry the token contract in the URI, the method in the path,
and the recipient and amount in "address" and "uint256".

Addresses are shown as written unless --checksum is given.`,
	Example: `  paylink decode "ethereum:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed@1?value=1000000000000000000"
  paylink decode --checksum "ethereum:0xdac17f958d2ee523a2206206994597c13d831ec7@1/transfer?address=0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed&uint256=500"
  paylink decode -o json "ethereum:0xdAC17F958D2ee523a2206206994597C13D831ec7@1/transfer?address=0x...&uint256=1000000" --decimals 6`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.GroupID = groupPayment

	decodeCmd.Flags().BoolVar(&decodeChecksum, "checksum", false, "normalize addresses to their EIP-55 checksum form")
	decodeCmd.Flags().Int32Var(&decodeDecimals, "decimals", -1, "token decimals used to show a human amount (default: 18 for native transfers)")
}

type decodeResult struct {
	*evmuri.Data
	Kind          string `json:"kind"`
	DisplayAmount string `json:"display_amount,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	raw := args[0]

	data, ok := evmuri.Parse(raw)
	if !ok {
		return plerr.WithSuggestion(
			plerr.WithDetails(plerr.ErrInvalidURI, map[string]string{"uri": raw}),
			"expected ethereum:<address>@<chainId>[/<method>]?<query>",
		)
	}

	if decodeChecksum {
		normalized, err := data.Checksummed()
		if err != nil {
			return err
		}
		data = normalized
	}

	res := decodeResult{Data: data, Kind: "native"}
	if data.IsTokenTransfer() {
		res.Kind = "token"
	}

	decimals := decodeDecimals
	if decimals < 0 && !data.IsTokenTransfer() {
		decimals = evmuri.NativeDecimals
	}
	if decimals >= 0 && data.Amount != "" {
		amount, err := data.AmountDecimal(decimals)
		if err != nil {
			return err
		}
		res.DisplayAmount = amount.String()
	}

	return formatterFor(cmd, cc).Emit(res, func(w io.Writer) error {
		return displayDecodeText(w, res)
	})
}

func displayDecodeText(w io.Writer, res decodeResult) error {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("kind", res.Kind)
	t.AddRow("chain_id", res.ChainID)
	if res.TokenContractAddress != "" {
		t.AddRow("token", res.TokenContractAddress)
		t.AddRow("method", res.Method)
	}
	t.AddRow("address", valueOr(res.Address, "-"))
	t.AddRow("amount", valueOr(res.Amount, "-"))
	if res.DisplayAmount != "" {
		t.AddRow("display_amount", res.DisplayAmount)
	}
	return t.Render(w)
}
