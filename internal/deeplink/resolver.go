// Package deeplink turns a selected wallet into the URI that opens it with the payment filled in.
//
// Resolution needs at most one network call: wallets configured with a
// callback kind ask the pay request's callback for a payload, every other
// wallet is resolved from the payment identifier or its static template.
// Nothing is cached; each call starts from scratch.
package deeplink

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mrz1836/paylink/internal/callback"
	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/evmuri"
	"github.com/mrz1836/paylink/internal/metrics"
	"github.com/mrz1836/paylink/internal/payment"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// Placeholder is replaced by the payload in deep-link templates.
const Placeholder = "{payload}"

// ErrCallbackPayloadMissing indicates the callback answered without the field the wallet needs.
var ErrCallbackPayloadMissing = &plerr.PaylinkError{
	Code:     "CALLBACK_PAYLOAD_MISSING",
	Message:  "payment callback response lacks the payload this wallet needs",
	ExitCode: plerr.ExitGeneral,
}

// Source tells where the resolved URI came from.
type Source string

// Resolution sources.
const (
	SourceStatic     Source = metrics.SourceStatic
	SourceIdentifier Source = metrics.SourceIdentifier
	SourceCallback   Source = metrics.SourceCallback
)

// PaymentContext is what is known about the payment when a wallet is picked.
type PaymentContext struct {
	// Identifier is the payment identifier URI (LNURL link, BIP21 URI).
	Identifier string
	// Request is the current quoted pay request, if one was fetched.
	Request *payment.PayRequest
}

// Resolution is a resolved deep link.
type Resolution struct {
	WalletID catalog.WalletAppID `json:"wallet_id"`
	URI      string              `json:"uri"`
	Source   Source              `json:"source"`
	EVM      *evmuri.Data        `json:"evm,omitempty"`
}

// Fetcher performs callback requests. *callback.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, req callback.Request) (*callback.Response, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(l *config.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics overrides metrics.Global.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock overrides time.Now for quote expiry checks.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// Resolver resolves wallet deep links against a catalog.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	catalog *catalog.Catalog
	fetcher Fetcher
	logger  *config.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewResolver creates a resolver. f may be nil when no wallet in c needs a callback.
func NewResolver(c *catalog.Catalog, f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: c,
		fetcher: f,
		logger:  config.NullLogger(),
		metrics: metrics.Global,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catalog returns the catalog the resolver reads from.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Resolve returns the deep link for wallet id.
//
// ok is false, with a nil error, when the wallet is unknown or the context
// lacks what the wallet needs; no network call is made in that case.
// Callback failures are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, id catalog.WalletAppID, pc PaymentContext) (Resolution, bool, error) {
	w, found := r.catalog.Get(id)
	if !found {
		r.logger.Debug("deeplink: unknown wallet %q", id)
		r.metrics.RecordResolveMiss()
		return Resolution{}, false, nil
	}

	var (
		res Resolution
		ok  bool
		err error
	)
	if w.NeedsCallback() {
		res, ok, err = r.resolveCallback(ctx, w, pc.Request)
	} else {
		res, ok = resolveLocal(w, pc.Identifier)
	}

	switch {
	case err != nil:
		r.metrics.RecordResolveError()
		r.logger.ErrorAttrs("deeplink resolution failed",
			slog.String("wallet", string(id)),
			slog.String("error", err.Error()),
		)
		return Resolution{}, false, err
	case !ok:
		r.metrics.RecordResolveMiss()
		r.logger.Debug("deeplink: missing payment context for %q", id)
		return Resolution{}, false, nil
	}

	if data, isEVM := evmuri.Parse(res.URI); isEVM {
		res.EVM = data
	}
	r.metrics.RecordResolution(string(res.Source))
	r.logger.DebugAttrs("deeplink resolved",
		slog.String("wallet", string(id)),
		slog.String("source", string(res.Source)),
	)
	return res, true, nil
}

func (r *Resolver) resolveCallback(ctx context.Context, w catalog.WalletInfo, req *payment.PayRequest) (Resolution, bool, error) {
	if req == nil || req.Callback == "" || req.Quote.ID == "" {
		return Resolution{}, false, nil
	}
	ta, found := req.TransferAmount(w.TransferMethod)
	if !found {
		return Resolution{}, false, nil
	}
	if r.fetcher == nil {
		return Resolution{}, false, nil
	}
	if req.Expired(r.now()) {
		return Resolution{}, false, plerr.WithDetails(plerr.ErrQuoteExpired, map[string]string{
			"quote":      req.Quote.ID,
			"expiration": req.Quote.Expiration.Format(time.RFC3339),
		})
	}

	asset := w.Asset
	if asset == "" {
		asset, _ = ta.FirstAsset()
	}

	resp, err := r.fetcher.Fetch(ctx, callback.Request{
		Callback: req.Callback,
		QuoteID:  req.Quote.ID,
		Method:   w.TransferMethod,
		Asset:    asset,
	})
	if err != nil {
		return Resolution{}, false, err
	}

	payload, found := resp.Payload(w.Callback)
	if !found {
		return Resolution{}, false, plerr.WithDetails(ErrCallbackPayloadMissing, map[string]string{
			"wallet": string(w.ID),
			"field":  string(w.Callback),
		})
	}

	return Resolution{
		WalletID: w.ID,
		URI:      Apply(w.DeepLink, payload),
		Source:   SourceCallback,
	}, true, nil
}

func resolveLocal(w catalog.WalletInfo, identifier string) (Resolution, bool) {
	res := Resolution{WalletID: w.ID, URI: w.DeepLink, Source: SourceStatic}

	if w.TransferMethod != catalog.Lightning {
		return res, true
	}
	if strings.TrimSpace(identifier) == "" {
		return Resolution{}, false
	}
	if param, found := payment.LightningParam(identifier); found {
		res.URI = Apply(w.DeepLink, param)
		res.Source = SourceIdentifier
	}
	return res, true
}

// Apply fills template with payload: the Placeholder is replaced when present,
// otherwise payload is appended.
func Apply(template, payload string) string {
	if strings.Contains(template, Placeholder) {
		return strings.ReplaceAll(template, Placeholder, payload)
	}
	return template + payload
}
