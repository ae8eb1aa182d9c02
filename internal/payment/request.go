// Package payment models a quoted payment request and fetches it from a payment link.
package payment

import (
	"encoding/json"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrz1836/paylink/internal/catalog"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// TagPayRequest is the tag carried by every pay request document.
const TagPayRequest = "payRequest"

// lightningParam is the payment identifier query parameter carrying a BOLT11 invoice or LNURL.
const lightningParam = "lightning"

//nolint:gochecknoglobals // validator caches struct metadata
var validate = validator.New(validator.WithRequiredStructEnabled())

// AssetAmount is the amount of one asset payable on a transfer method.
type AssetAmount struct {
	Asset  string `json:"asset" validate:"required"`
	Amount string `json:"amount,omitempty"`
}

// TransferAmount lists what can be paid on one transfer method.
type TransferAmount struct {
	Method    catalog.TransferMethod `json:"method" validate:"required"`
	MinFee    string                 `json:"minFee,omitempty"`
	Assets    []AssetAmount          `json:"assets" validate:"dive"`
	Available bool                   `json:"available"`
}

// Quote is the price-locked part of a pay request.
type Quote struct {
	ID         string    `json:"id" validate:"required"`
	Expiration time.Time `json:"expiration"`
	Payment    string    `json:"payment,omitempty"`
}

// Recipient describes who is being paid.
type Recipient struct {
	Name    string `json:"name,omitempty"`
	Website string `json:"website,omitempty"`
}

// PayRequest is a quoted payment produced by a payment link.
// It is immutable per quote; a new quote replaces the whole value.
type PayRequest struct {
	Tag             string           `json:"tag"`
	Callback        string           `json:"callback" validate:"required,url"`
	Quote           Quote            `json:"quote"`
	RequestedAmount *AssetAmount     `json:"requestedAmount,omitempty"`
	TransferAmounts []TransferAmount `json:"transferAmounts" validate:"dive"`
	DisplayName     string           `json:"displayName,omitempty"`
	Recipient       *Recipient       `json:"recipient,omitempty"`
}

// AvailableMethods returns the methods marked available, in request order, without duplicates.
func (r *PayRequest) AvailableMethods() []catalog.TransferMethod {
	if r == nil {
		return nil
	}
	methods := make([]catalog.TransferMethod, 0, len(r.TransferAmounts))
	for _, ta := range r.TransferAmounts {
		if ta.Available && !slices.Contains(methods, ta.Method) {
			methods = append(methods, ta.Method)
		}
	}
	return methods
}

// TransferAmount returns the first transfer amount for method.
func (r *PayRequest) TransferAmount(method catalog.TransferMethod) (*TransferAmount, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.TransferAmounts {
		if r.TransferAmounts[i].Method == method {
			return &r.TransferAmounts[i], true
		}
	}
	return nil, false
}

// Expired reports whether the quote has expired at now.
// A zero expiration never expires.
func (r *PayRequest) Expired(now time.Time) bool {
	if r == nil || r.Quote.Expiration.IsZero() {
		return false
	}
	return !now.Before(r.Quote.Expiration)
}

// FirstAsset returns the first asset listed for the transfer amount.
func (t *TransferAmount) FirstAsset() (string, bool) {
	if t == nil || len(t.Assets) == 0 {
		return "", false
	}
	return t.Assets[0].Asset, true
}

// Decode parses and validates a pay request document.
func Decode(data []byte) (*PayRequest, error) {
	var req PayRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, plerr.WithCause(plerr.ErrPayRequestInvalid, err)
	}
	if req.Tag != "" && req.Tag != TagPayRequest {
		return nil, plerr.WithDetails(plerr.ErrPayRequestInvalid, map[string]string{
			"tag": req.Tag,
		})
	}
	if err := validate.Struct(req); err != nil {
		return nil, plerr.WithCause(plerr.ErrPayRequestInvalid, err)
	}
	return &req, nil
}

// LoadFile reads a pay request document from disk.
func LoadFile(path string) (*PayRequest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			return nil, plerr.WithDetails(plerr.ErrNotFound, map[string]string{"path": path})
		}
		return nil, err
	}
	return Decode(data)
}

// LightningParam extracts the "lightning" query parameter from a payment identifier
// such as "https://pay.example.com/?lightning=LNURL1..." or "bitcoin:bc1q...?lightning=lnbc...".
func LightningParam(identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false
	}
	u, err := url.Parse(identifier)
	if err != nil {
		return "", false
	}
	v := u.Query().Get(lightningParam)
	return v, v != ""
}
