package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/paylink/internal/retry"
	plerr "github.com/mrz1836/paylink/pkg/errors"
)

func fastRetry(attempts int) *retry.Config {
	return &retry.Config{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "paylink/"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayRequest))
	}))
	defer server.Close()

	client := NewClient(&ClientOptions{HTTPClient: server.Client()})
	req, err := client.Fetch(context.Background(), server.URL+"/v1/paymentLink/payment?route=shop")
	require.NoError(t, err)
	assert.Equal(t, "q_42", req.Quote.ID)
}

func TestClient_Fetch_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(strings.Repeat("x", 2000)))
	}))
	defer server.Close()

	_, err := NewClient(&ClientOptions{HTTPClient: server.Client()}).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkStatus)

	var pe *plerr.PaylinkError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "404", pe.Details["status"])
	assert.Len(t, pe.Details["body"], 515)
}

func TestClient_Fetch_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write([]byte(samplePayRequest))
		}
	}))
	defer server.Close()

	client := NewClient(&ClientOptions{HTTPClient: server.Client(), Retry: fastRetry(3)})
	req, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "q_42", req.Quote.ID)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Fetch_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&ClientOptions{HTTPClient: server.Client(), Retry: fastRetry(2)})
	_, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLinkStatus)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Fetch_ClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	client := NewClient(&ClientOptions{HTTPClient: server.Client(), Retry: fastRetry(3)})
	_, err := client.Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrLinkStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Fetch_InvalidBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag":"payRequest"}`))
	}))
	defer server.Close()

	_, err := NewClient(&ClientOptions{HTTPClient: server.Client()}).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, plerr.ErrPayRequestInvalid)
}

func TestClient_Fetch_BodyLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePayRequest))
	}))
	defer server.Close()

	client := NewClient(&ClientOptions{HTTPClient: server.Client(), MaxResponseBytes: 16})
	_, err := client.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, plerr.ErrPayRequestInvalid)
}

func TestClient_Fetch_RejectsURL(t *testing.T) {
	t.Parallel()

	client := NewClient(nil)
	for _, u := range []string{"", "ftp://pay.example.com", "http://pay.example.com/link"} {
		_, err := client.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, plerr.ErrInvalidInput, u)
	}
}

func TestClient_Fetch_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(&ClientOptions{Timeout: time.Second}).Fetch(context.Background(), url)
	assert.ErrorIs(t, err, plerr.ErrNetworkError)
}

func TestClient_Fetch_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(nil).Fetch(ctx, "https://pay.example.com/link")
	assert.Error(t, err)
}

func TestTruncateBody(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", truncateBody("short", 10))
	assert.Equal(t, "abc...", truncateBody("abcdef", 3))
}
