// Package evmuri decodes the simplified EIP-681 payment URIs produced by
// EVM wallet callbacks:
//
//	ethereum:<recipient>@<chainId>?value=<wei>
//	ethereum:<token>@<chainId>/<method>?address=<recipient>&uint256=<amount>
//
// Parse never validates hex case or checksums; use ChecksumAddress for that.
package evmuri

import (
	"net/url"
	"regexp"
	"strings"
)

// Scheme is the URI scheme handled by this package.
const Scheme = "ethereum"

// Query parameter names.
const (
	ParamValue   = "value"
	ParamAddress = "address"
	ParamUint256 = "uint256"
)

// uriPattern captures target, chain id, optional method and optional query.
var uriPattern = regexp.MustCompile(`^ethereum:([^@/?#\s]+)@([^/?#\s]+)(?:/([^/?#\s]+))?(?:\?([^#\s]*))?$`)

// Data is a decoded payment URI. Empty fields were absent from the URI.
type Data struct {
	Address              string `json:"address,omitempty"`
	ChainID              string `json:"chain_id"`
	Amount               string `json:"amount,omitempty"`
	TokenContractAddress string `json:"token_contract_address,omitempty"`
	Method               string `json:"method,omitempty"`
}

// Parse decodes s. It returns false for anything outside the grammar,
// including an unparsable query string.
func Parse(s string) (*Data, bool) {
	m := uriPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	target, chainID, method, rawQuery := m[1], m[2], m[3], m[4]

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, false
	}

	d := &Data{ChainID: chainID}
	if method != "" {
		d.TokenContractAddress = target
		d.Method = method
		d.Address = query.Get(ParamAddress)
		d.Amount = query.Get(ParamUint256)
		return d, true
	}

	d.Address = target
	d.Amount = query.Get(ParamValue)
	return d, true
}

// IsURI reports whether s uses the ethereum scheme, without checking the rest of the grammar.
func IsURI(s string) bool {
	return strings.HasPrefix(s, Scheme+":")
}

// IsTokenTransfer reports whether d describes a contract call rather than a native transfer.
func (d *Data) IsTokenTransfer() bool {
	return d.Method != ""
}

// String encodes d back into the URI profile accepted by Parse.
func (d *Data) String() string {
	var sb strings.Builder
	sb.WriteString(Scheme)
	sb.WriteByte(':')

	q := url.Values{}
	if d.IsTokenTransfer() {
		sb.WriteString(d.TokenContractAddress)
		sb.WriteByte('@')
		sb.WriteString(d.ChainID)
		sb.WriteByte('/')
		sb.WriteString(d.Method)
		if d.Address != "" {
			q.Set(ParamAddress, d.Address)
		}
		if d.Amount != "" {
			q.Set(ParamUint256, d.Amount)
		}
	} else {
		sb.WriteString(d.Address)
		sb.WriteByte('@')
		sb.WriteString(d.ChainID)
		if d.Amount != "" {
			q.Set(ParamValue, d.Amount)
		}
	}

	if len(q) > 0 {
		sb.WriteByte('?')
		sb.WriteString(q.Encode())
	}
	return sb.String()
}
