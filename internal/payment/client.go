package payment

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/ratelimit"
	"github.com/mrz1836/paylink/internal/retry"
	"github.com/mrz1836/paylink/internal/version"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

const (
	// httpTimeout is the default HTTP request timeout.
	httpTimeout = 15 * time.Second

	// maxResponseBody is the maximum response body size to read (1 MB).
	maxResponseBody = 1 << 20
)

// ErrLinkStatus indicates the payment link answered with a non-200 status.
var ErrLinkStatus = &plerr.PaylinkError{
	Code:     "PAYMENT_LINK_STATUS",
	Message:  "payment link returned an error status",
	ExitCode: plerr.ExitGeneral,
}

// Client fetches pay requests from payment links.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	maxBody     int64
	retry       retry.Config
}

// ClientOptions configures the payment link client.
type ClientOptions struct {
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Timeout overrides the default request timeout. Ignored with HTTPClient.
	Timeout time.Duration
	// RateLimiter overrides the default per-host limiter.
	RateLimiter *ratelimit.Limiter
	// MaxResponseBytes caps the body read from the link.
	MaxResponseBytes int64
	// Retry enables retries on network failures, 429 and 5xx answers.
	// Nil makes a single attempt.
	Retry *retry.Config
}

// NewClient creates a payment link client.
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
		retry:       retry.Config{MaxAttempts: 1},
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
		if opts.Retry != nil {
			c.retry = *opts.Retry
		}
	}
	return c
}

// Fetch retrieves and decodes the pay request served at linkURL.
func (c *Client) Fetch(ctx context.Context, linkURL string) (*PayRequest, error) {
	linkURL = config.SanitizeURL(linkURL)
	if err := config.ValidateURL(linkURL); err != nil || linkURL == "" {
		return nil, plerr.WithDetails(plerr.ErrInvalidInput, map[string]string{
			"url":    linkURL,
			"reason": reason(err, "payment link URL is empty"),
		})
	}

	return retry.Do(ctx, c.retry, func(ctx context.Context) (*PayRequest, error) {
		return c.fetchOnce(ctx, linkURL)
	})
}

func (c *Client) fetchOnce(ctx context.Context, linkURL string) (*PayRequest, error) {
	if err := c.rateLimiter.WaitURL(ctx, linkURL); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, linkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(httpReq) //nolint:gosec // G107: URL validated above
	if err != nil {
		return nil, plerr.WithCause(plerr.ErrNetworkError, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, plerr.WithCause(plerr.ErrNetworkError, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := plerr.WithDetails(ErrLinkStatus, map[string]string{
			"status": strconv.Itoa(resp.StatusCode),
			"body":   truncateBody(string(body), 512),
		})
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, retry.Retryable(statusErr, retry.ParseRetryAfter(resp.Header.Get("Retry-After")))
		}
		return nil, statusErr
	}

	return Decode(body)
}

func reason(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}

// truncateBody truncates a response body string for error messages.
func truncateBody(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
