// Package capability decides which catalog wallets can settle a payment request.
package capability

import (
	"slices"

	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/metrics"
	"github.com/mrz1836/paylink/internal/payment"
)

// Entry is a semi-compatible wallet with its per-request disabled flag.
type Entry struct {
	Wallet   catalog.WalletInfo `json:"wallet"`
	Disabled bool               `json:"disabled"`
}

// Result holds the three disjoint wallet lists shown for a request.
type Result struct {
	Recommended    []catalog.WalletInfo `json:"recommended"`
	Other          []catalog.WalletInfo `json:"other"`
	SemiCompatible []Entry              `json:"semi_compatible"`
}

// Usable reports whether w can be used with the given available methods:
// wallets without a transfer method are generic and always usable.
func Usable(w catalog.WalletInfo, available []catalog.TransferMethod) bool {
	return !w.HasMethod() || slices.Contains(available, w.TransferMethod)
}

// Disabled returns the per-request disabled flag of a semi-compatible wallet.
// Only C2B methods are checked against the request; everything else keeps the
// catalog flag. A nil request disables every C2B wallet.
func Disabled(w catalog.WalletInfo, req *payment.PayRequest) bool {
	if w.TransferMethod.IsC2B() {
		return !Usable(w, req.AvailableMethods())
	}
	return w.Disabled
}

// Filter partitions the catalog for req, which may be nil.
// The catalog is not modified and equal inputs give equal results.
func Filter(c *catalog.Catalog, req *payment.PayRequest) Result {
	metrics.Global.RecordFilter()

	res := Result{
		Recommended:    []catalog.WalletInfo{},
		Other:          []catalog.WalletInfo{},
		SemiCompatible: []Entry{},
	}
	if c == nil {
		return res
	}

	for _, w := range c.Wallets() {
		switch {
		case w.SemiCompatible:
			res.SemiCompatible = append(res.SemiCompatible, Entry{Wallet: w, Disabled: Disabled(w, req)})
		case w.Recommended:
			res.Recommended = append(res.Recommended, w)
		default:
			res.Other = append(res.Other, w)
		}
	}

	// Enabled first; catalog order is kept within each group.
	slices.SortStableFunc(res.SemiCompatible, func(a, b Entry) int {
		switch {
		case a.Disabled == b.Disabled:
			return 0
		case a.Disabled:
			return 1
		default:
			return -1
		}
	})
	return res
}

// Enabled returns every wallet in r that can be selected, in display order.
func (r Result) Enabled() []catalog.WalletInfo {
	out := make([]catalog.WalletInfo, 0, len(r.Recommended)+len(r.Other)+len(r.SemiCompatible))
	out = append(out, r.Recommended...)
	out = append(out, r.Other...)
	for _, e := range r.SemiCompatible {
		if !e.Disabled {
			out = append(out, e.Wallet)
		}
	}
	return out
}
