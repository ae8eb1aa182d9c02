// Package callback fetches wallet-specific payloads from a payment request's callback endpoint.
//
// A callback answers GET {callback}?quote=..&method=..&asset=.. with a JSON
// body carrying either a Lightning invoice ("pr") or a payment URI ("uri").
package callback

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/metrics"
	"github.com/mrz1836/paylink/internal/ratelimit"
	"github.com/mrz1836/paylink/internal/version"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

const (
	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 15 * time.Second

	// maxResponseBody is the maximum response body size to read (1 MB).
	maxResponseBody = 1 << 20
)

// Query parameter names sent to the callback.
const (
	ParamQuote  = "quote"
	ParamMethod = "method"
	ParamAsset  = "asset"
)

// Sentinel errors for callback requests.
var (
	// ErrCallbackStatus indicates the callback returned a non-200 status.
	ErrCallbackStatus = &plerr.PaylinkError{
		Code:     "CALLBACK_STATUS",
		Message:  "payment callback returned an error status",
		ExitCode: plerr.ExitGeneral,
	}

	// ErrCallbackInvalid indicates the callback body could not be decoded.
	ErrCallbackInvalid = &plerr.PaylinkError{
		Code:     "CALLBACK_INVALID",
		Message:  "payment callback returned an invalid response",
		ExitCode: plerr.ExitGeneral,
	}
)

// Request identifies what to ask the callback for.
type Request struct {
	Callback string
	QuoteID  string
	Method   catalog.TransferMethod
	Asset    string
}

// Response is the decoded callback body. At most one field is normally set.
type Response struct {
	PR  string `json:"pr,omitempty"`
	URI string `json:"uri,omitempty"`
}

// Payload returns the field matching kind.
func (r *Response) Payload(kind catalog.CallbackKind) (string, bool) {
	if r == nil {
		return "", false
	}
	switch kind {
	case catalog.CallbackInvoice:
		return r.PR, r.PR != ""
	case catalog.CallbackURI:
		return r.URI, r.URI != ""
	default:
		return "", false
	}
}

// errorBody is the error shape some callbacks use with a 200 status (LNURL style).
type errorBody struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Client performs callback requests.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	maxBody     int64
	metrics     *metrics.Metrics
}

// ClientOptions configures the callback client.
type ClientOptions struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Timeout overrides the default request timeout. Ignored with HTTPClient.
	Timeout time.Duration
	// RateLimiter overrides the default per-host limiter.
	RateLimiter *ratelimit.Limiter
	// MaxResponseBytes caps the body read from the callback.
	MaxResponseBytes int64
	// Metrics overrides metrics.Global.
	Metrics *metrics.Metrics
}

// NewClient creates a callback client.
func NewClient(opts *ClientOptions) *Client {
	timeout := httpTimeout
	if opts != nil && opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		rateLimiter: ratelimit.New(ratelimit.DefaultRatePerSecond, ratelimit.DefaultBurst),
		maxBody:     maxResponseBody,
		metrics:     metrics.Global,
	}

	if opts != nil {
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
		if opts.RateLimiter != nil {
			c.rateLimiter = opts.RateLimiter
		}
		if opts.MaxResponseBytes > 0 {
			c.maxBody = opts.MaxResponseBytes
		}
		if opts.Metrics != nil {
			c.metrics = opts.Metrics
		}
	}
	return c
}

// Fetch performs one callback request. Failures are returned as-is; there is no retry.
func (c *Client) Fetch(ctx context.Context, req Request) (resp *Response, err error) {
	reqURL, err := BuildURL(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { c.metrics.RecordCallback(time.Since(start), err) }()

	if err = c.rateLimiter.WaitURL(ctx, reqURL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	httpResp, err := c.httpClient.Do(httpReq) //nolint:gosec // G107: callback URL comes from the pay request
	if err != nil {
		return nil, plerr.WithCause(plerr.ErrNetworkError, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody))
	if err != nil {
		return nil, plerr.WithCause(plerr.ErrNetworkError, fmt.Errorf("reading response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, plerr.WithDetails(ErrCallbackStatus, map[string]string{
			"status": strconv.Itoa(httpResp.StatusCode),
			"body":   truncateBody(string(body), 512),
		})
	}

	return decode(body)
}

func decode(body []byte) (*Response, error) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return nil, plerr.WithCause(ErrCallbackInvalid, err)
	}
	if eb.Status == "ERROR" {
		return nil, plerr.WithDetails(ErrCallbackStatus, map[string]string{
			"status": eb.Status,
			"reason": eb.Reason,
		})
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, plerr.WithCause(ErrCallbackInvalid, err)
	}
	return &out, nil
}

// BuildURL appends quote, method and asset to the callback URL, keeping any existing query.
func BuildURL(req Request) (string, error) {
	if req.Callback == "" || req.QuoteID == "" {
		return "", plerr.WithDetails(plerr.ErrMissingContext, map[string]string{
			"callback": req.Callback,
			"quote":    req.QuoteID,
		})
	}

	u, err := url.Parse(req.Callback)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", plerr.WithDetails(plerr.ErrInvalidInput, map[string]string{
			"callback": req.Callback,
		})
	}

	q := u.Query()
	q.Set(ParamQuote, req.QuoteID)
	if req.Method != "" {
		q.Set(ParamMethod, string(req.Method))
	}
	if req.Asset != "" {
		q.Set(ParamAsset, req.Asset)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// truncateBody truncates a response body string for error messages.
func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
