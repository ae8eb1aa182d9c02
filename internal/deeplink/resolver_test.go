package deeplink_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/paylink/internal/callback"
	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/deeplink"
	"github.com/mrz1836/paylink/internal/metrics"
	"github.com/mrz1836/paylink/internal/payment"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

const (
	lnurl      = "LNURL1DP68GURN8GHJ7CTSDYHXGENC9EEHW6TNWVHHVVF0D3H82UNV9UCSAXQZE2"
	identifier = "https://pay.example.com/pl/?lightning=" + lnurl
	timeout    = 2 * time.Second
	tick       = 5 * time.Millisecond
	evmURI     = "ethereum:0xdAC17F958D2ee523a2206206994597C13D831ec7@1/transfer?address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed&uint256=13900000"
)

// fakeFetcher records calls and returns a canned response.
type fakeFetcher struct {
	mu    sync.Mutex
	calls []callback.Request
	resp  *callback.Response
	err   error
	// block, when set, holds Fetch until it is closed or ctx ends.
	block chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req callback.Request) (*callback.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeFetcher) Calls() []callback.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]callback.Request(nil), f.calls...)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.WalletInfo{
		{ID: "phoenix", Name: "Phoenix", DeepLink: "phoenix:lightning:", TransferMethod: catalog.Lightning},
		{ID: "templated", Name: "Templated", DeepLink: "tmpl://pay?lnurl={payload}&src=paylink", TransferMethod: catalog.Lightning},
		{ID: "cake", Name: "Cake", DeepLink: "cakewallet:", SemiCompatible: true},
		{ID: "muun", Name: "Muun", DeepLink: "muun:", TransferMethod: catalog.Bitcoin},
		{ID: "bitbanana", Name: "BitBanana", DeepLink: "bitbanana:lightning:", TransferMethod: catalog.Lightning, Callback: catalog.CallbackInvoice, Asset: "BTC"},
		{ID: "metamask", Name: "MetaMask", TransferMethod: catalog.Ethereum, Callback: catalog.CallbackURI},
		{ID: "binancepay", Name: "Binance Pay", TransferMethod: catalog.BinancePay, Callback: catalog.CallbackURI, Asset: "USDT"},
	})
	require.NoError(t, err)
	return c
}

func payRequest() *payment.PayRequest {
	return &payment.PayRequest{
		Tag:      payment.TagPayRequest,
		Callback: "https://pay.example.com/cb/pl_1",
		Quote:    payment.Quote{ID: "q_42", Expiration: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
		TransferAmounts: []payment.TransferAmount{
			{Method: catalog.Lightning, Assets: []payment.AssetAmount{{Asset: "BTC", Amount: "0.0001"}}, Available: true},
			{Method: catalog.Ethereum, Assets: []payment.AssetAmount{{Asset: "USDC"}, {Asset: "USDT"}}, Available: true},
			{Method: catalog.BinancePay, Assets: []payment.AssetAmount{{Asset: "USDT"}}, Available: true},
		},
	}
}

func newResolver(t *testing.T, f deeplink.Fetcher, m *metrics.Metrics) *deeplink.Resolver {
	t.Helper()
	return deeplink.NewResolver(testCatalog(t), f,
		deeplink.WithMetrics(m),
		deeplink.WithClock(func() time.Time { return time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC) }),
	)
}

func TestResolve_UnknownWallet(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	m := &metrics.Metrics{}
	res, ok, err := newResolver(t, f, m).Resolve(context.Background(), "nope", deeplink.PaymentContext{
		Identifier: identifier,
		Request:    payRequest(),
	})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, deeplink.Resolution{}, res)
	assert.Empty(t, f.Calls())
	assert.Equal(t, int64(1), m.Snapshot().ResolveMisses)
}

func TestResolve_LightningFromIdentifier(t *testing.T) {
	t.Parallel()

	r := newResolver(t, &fakeFetcher{}, &metrics.Metrics{})

	res, ok, err := r.Resolve(context.Background(), "phoenix", deeplink.PaymentContext{Identifier: identifier})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "phoenix:lightning:"+lnurl, res.URI)
	assert.Equal(t, deeplink.SourceIdentifier, res.Source)
	assert.Nil(t, res.EVM)

	res, ok, err = r.Resolve(context.Background(), "templated", deeplink.PaymentContext{Identifier: identifier})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tmpl://pay?lnurl="+lnurl+"&src=paylink", res.URI)
}

func TestResolve_LightningWithoutParamKeepsTemplate(t *testing.T) {
	t.Parallel()

	res, ok, err := newResolver(t, nil, &metrics.Metrics{}).Resolve(context.Background(), "phoenix",
		deeplink.PaymentContext{Identifier: "https://pay.example.com/pl/?id=1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "phoenix:lightning:", res.URI)
	assert.Equal(t, deeplink.SourceStatic, res.Source)
}

func TestResolve_LightningMissingIdentifier(t *testing.T) {
	t.Parallel()

	_, ok, err := newResolver(t, nil, &metrics.Metrics{}).Resolve(context.Background(), "phoenix", deeplink.PaymentContext{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_StaticWallets(t *testing.T) {
	t.Parallel()

	r := newResolver(t, nil, &metrics.Metrics{})
	for id, want := range map[catalog.WalletAppID]string{"cake": "cakewallet:", "muun": "muun:"} {
		res, ok, err := r.Resolve(context.Background(), id, deeplink.PaymentContext{Identifier: identifier})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, res.URI)
		assert.Equal(t, deeplink.SourceStatic, res.Source)
	}
}

func TestResolve_CallbackInvoice(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{resp: &callback.Response{PR: "lnbc10u1p3xyz"}}
	m := &metrics.Metrics{}

	res, ok, err := newResolver(t, f, m).Resolve(context.Background(), "bitbanana", deeplink.PaymentContext{
		Identifier: identifier,
		Request:    payRequest(),
	})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "bitbanana:lightning:lnbc10u1p3xyz", res.URI)
	assert.Equal(t, deeplink.SourceCallback, res.Source)
	assert.Equal(t, []callback.Request{{
		Callback: "https://pay.example.com/cb/pl_1",
		QuoteID:  "q_42",
		Method:   catalog.Lightning,
		Asset:    "BTC",
	}}, f.Calls())
	assert.Equal(t, int64(1), m.Snapshot().ResolvedCallback)
}

func TestResolve_CallbackEVMURI(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{resp: &callback.Response{URI: evmURI}}
	res, ok, err := newResolver(t, f, &metrics.Metrics{}).Resolve(context.Background(), "metamask",
		deeplink.PaymentContext{Request: payRequest()})
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, evmURI, res.URI)
	require.NotNil(t, res.EVM)
	assert.Equal(t, "0xdAC17F958D2ee523a2206206994597C13D831ec7", res.EVM.TokenContractAddress)
	assert.Equal(t, "13900000", res.EVM.Amount)

	// No wallet asset: the first asset of the matching transfer amount is requested.
	require.Len(t, f.Calls(), 1)
	assert.Equal(t, "USDC", f.Calls()[0].Asset)
}

func TestResolve_CallbackFailurePropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	f := &fakeFetcher{err: plerr.WithCause(plerr.ErrNetworkError, boom)}
	m := &metrics.Metrics{}

	_, ok, err := newResolver(t, f, m).Resolve(context.Background(), "binancepay",
		deeplink.PaymentContext{Request: payRequest()})
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, plerr.ErrNetworkError)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), m.Snapshot().ResolveErrors)
}

func TestResolve_CallbackPayloadMissing(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{resp: &callback.Response{URI: "binancepay://x"}}
	_, ok, err := newResolver(t, f, &metrics.Metrics{}).Resolve(context.Background(), "bitbanana",
		deeplink.PaymentContext{Request: payRequest()})
	assert.False(t, ok)
	assert.ErrorIs(t, err, deeplink.ErrCallbackPayloadMissing)
}

func TestResolve_CallbackMissingContext(t *testing.T) {
	t.Parallel()

	noQuote := payRequest()
	noQuote.Quote.ID = ""
	noCallback := payRequest()
	noCallback.Callback = ""
	noMethod := payRequest()
	noMethod.TransferAmounts = noMethod.TransferAmounts[:1]

	tests := []struct {
		name string
		id   catalog.WalletAppID
		req  *payment.PayRequest
	}{
		{"no request", "bitbanana", nil},
		{"no quote", "bitbanana", noQuote},
		{"no callback", "metamask", noCallback},
		{"method not offered", "binancepay", noMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeFetcher{resp: &callback.Response{PR: "x", URI: "y"}}
			_, ok, err := newResolver(t, f, &metrics.Metrics{}).Resolve(context.Background(), tt.id,
				deeplink.PaymentContext{Identifier: identifier, Request: tt.req})
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, f.Calls())
		})
	}
}

func TestResolve_NoFetcher(t *testing.T) {
	t.Parallel()

	_, ok, err := newResolver(t, nil, &metrics.Metrics{}).Resolve(context.Background(), "bitbanana",
		deeplink.PaymentContext{Request: payRequest()})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_ExpiredQuote(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{resp: &callback.Response{PR: "lnbc1"}}
	r := deeplink.NewResolver(testCatalog(t), f,
		deeplink.WithMetrics(&metrics.Metrics{}),
		deeplink.WithClock(func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)

	_, ok, err := r.Resolve(context.Background(), "bitbanana", deeplink.PaymentContext{Request: payRequest()})
	assert.False(t, ok)
	assert.ErrorIs(t, err, plerr.ErrQuoteExpired)
	assert.Empty(t, f.Calls())
}

func TestResolve_NoCaching(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{resp: &callback.Response{PR: "lnbc1"}}
	r := newResolver(t, f, &metrics.Metrics{})
	pc := deeplink.PaymentContext{Request: payRequest()}

	for i := 0; i < 3; i++ {
		_, ok, err := r.Resolve(context.Background(), "bitbanana", pc)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Len(t, f.Calls(), 3)
}

func TestResolve_Concurrent(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{resp: &callback.Response{PR: "lnbc1", URI: evmURI}}
	r := newResolver(t, f, &metrics.Metrics{})
	pc := deeplink.PaymentContext{Identifier: identifier, Request: payRequest()}

	ids := []catalog.WalletAppID{"phoenix", "bitbanana", "metamask", "cake", "binancepay"}
	results := make([]deeplink.Resolution, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, ok, err := r.Resolve(context.Background(), id, pc)
			assert.NoError(t, err)
			assert.True(t, ok)
			results[i] = res
		}()
	}
	wg.Wait()

	for i, id := range ids {
		assert.Equal(t, id, results[i].WalletID)
	}
	assert.Len(t, f.Calls(), 3)
}

func TestApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template, payload, want string
	}{
		{"phoenix:lightning:", "lnbc1", "phoenix:lightning:lnbc1"},
		{"app://pay?data={payload}", "abc", "app://pay?data=abc"},
		{"{payload}|{payload}", "x", "x|x"},
		{"", "ethereum:0xabc@1", "ethereum:0xabc@1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deeplink.Apply(tt.template, tt.payload))
	}
}
