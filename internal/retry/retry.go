// Package retry runs idempotent operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	plerr "github.com/mrz1836/paylink/pkg/errors"
)

// ErrRetryable marks an error as safe to retry.
var ErrRetryable = &plerr.PaylinkError{
	Code:     "RETRYABLE_ERROR",
	Message:  "retryable error",
	ExitCode: plerr.ExitGeneral,
}

// Config configures retry behavior.
type Config struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// DefaultConfig returns 3 attempts with delays of about 250ms and 500ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// afterError lets an error dictate the wait before the next attempt.
type afterError interface {
	RetryAfter() time.Duration
}

// Do runs operation until it succeeds, returns a non-retryable error,
// or cfg.MaxAttempts is reached. A MaxAttempts below 1 runs once.
func Do[T any](ctx context.Context, cfg Config, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	var err error

	attempts := max(cfg.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = operation(ctx)
		if err == nil {
			return result, nil
		}
		if !IsRetryable(err) {
			return result, err
		}

		// Don't delay after the last attempt
		if attempt == attempts-1 {
			break
		}

		delay := calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)
		var ae afterError
		if errors.As(err, &ae) && ae.RetryAfter() > delay {
			delay = min(ae.RetryAfter(), cfg.MaxDelay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, ctx.Err()
		case <-timer.C:
		}
	}

	if attempts == 1 {
		return result, err
	}
	return result, fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
}

// calculateDelay returns 2^attempt * baseDelay capped at maxDelay, with jitter in [delay/2, delay).
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: Jitter does not require cryptographic randomness
}

// IsRetryable reports whether err should trigger another attempt.
// Caller cancellation is never retried.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrRetryable) || errors.Is(err, plerr.ErrNetworkError)
}

// ParseRetryAfter parses a Retry-After header given in seconds.
// Returns 0 if the header is empty or not a number.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Error wraps err as retryable, optionally asking for a minimum wait.
type Error struct {
	Err   error
	After time.Duration
}

func (e *Error) Error() string { return e.Err.Error() }

// Unwrap exposes both the wrapped error and the retryable marker.
func (e *Error) Unwrap() []error { return []error{e.Err, ErrRetryable} }

// RetryAfter returns the wait requested by the server.
func (e *Error) RetryAfter() time.Duration { return e.After }

// Retryable marks err as retryable. A nil err stays nil.
func Retryable(err error, after time.Duration) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err, After: after}
}
