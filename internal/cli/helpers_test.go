package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/callback"
	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/output"
	"github.com/mrz1836/paylink/internal/payment"
)

const (
	testLNURL      = "LNURL1DP68GURN8GHJ7CTSDYHXGENC9EEHW6TNWVHHVVF0D3H82UNV9UCSAXQZE2"
	testIdentifier = "https://pay.example.com/pl/?lightning=" + testLNURL
	testInvoice    = "lnbc139u1pjtestinvoice"
	testEVMURI     = "ethereum:0xdAC17F958D2ee523a2206206994597C13D831ec7@1/transfer?address=0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed&uint256=13900000"
	testLink       = "https://pay.example.com/pl?route=shop"
)

// fakeCallbacks records callback requests and returns a canned response.
type fakeCallbacks struct {
	mu    sync.Mutex
	calls []callback.Request
	resp  *callback.Response
	err   error
}

func (f *fakeCallbacks) Fetch(_ context.Context, req callback.Request) (*callback.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func (f *fakeCallbacks) Calls() []callback.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]callback.Request(nil), f.calls...)
}

// fakePayments returns a canned pay request for any link.
type fakePayments struct {
	mu   sync.Mutex
	urls []string
	req  *payment.PayRequest
	err  error
}

func (f *fakePayments) Fetch(_ context.Context, url string) (*payment.PayRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return f.req, f.err
}

func testPayRequest() *payment.PayRequest {
	return &payment.PayRequest{
		Tag:      payment.TagPayRequest,
		Callback: "https://pay.example.com/cb/pl_1",
		Quote:    payment.Quote{ID: "q_42", Expiration: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)},
		TransferAmounts: []payment.TransferAmount{
			{Method: catalog.Lightning, Assets: []payment.AssetAmount{{Asset: "BTC", Amount: "13900"}}, Available: true},
			{Method: catalog.Ethereum, Assets: []payment.AssetAmount{{Asset: "USDT", Amount: "13.9"}}, Available: true},
			{Method: catalog.BinancePay, Assets: []payment.AssetAmount{{Asset: "USDT", Amount: "13.9"}}, Available: true},
		},
	}
}

// newTestContext returns a command context over the built-in catalog with no network access.
func newTestContext(format output.Format) *CommandContext {
	return NewCommandContext(config.Defaults(), config.NullLogger(), output.NewFormatter(format, io.Discard)).
		WithCatalog(catalog.Default()).
		WithCallbacks(&fakeCallbacks{resp: &callback.Response{PR: testInvoice, URI: testEVMURI}}).
		WithPayments(&fakePayments{req: testPayRequest()})
}

// newTestCmd returns a bare command carrying cc whose output is captured.
func newTestCmd(t *testing.T, cc *CommandContext) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	SetCmdContext(cmd, cc)
	return cmd, buf
}
