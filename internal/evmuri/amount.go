package evmuri

import (
	"github.com/shopspring/decimal"

	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// NativeDecimals is the number of decimals of ETH and most EVM native coins.
const NativeDecimals = 18

// AmountDecimal converts the integer base-unit amount into a human amount
// with the given number of decimals (18 for native coins, 6 for USDC).
// A missing amount is zero.
func (d *Data) AmountDecimal(decimals int32) (decimal.Decimal, error) {
	if d.Amount == "" {
		return decimal.Zero, nil
	}

	base, err := decimal.NewFromString(d.Amount)
	if err != nil || base.IsNegative() || !base.Equal(base.Truncate(0)) {
		return decimal.Zero, plerr.WithDetails(plerr.ErrInvalidAmount, map[string]string{"amount": d.Amount})
	}
	return base.Shift(-decimals), nil
}
