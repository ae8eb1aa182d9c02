package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome            = "PAYLINK_HOME"
	EnvCatalog         = "PAYLINK_CATALOG"
	EnvCallbackTimeout = "PAYLINK_CALLBACK_TIMEOUT"
	EnvListen          = "PAYLINK_LISTEN"
	EnvTracking        = "PAYLINK_TRACKING"
	EnvOutputFormat    = "PAYLINK_OUTPUT_FORMAT"
	EnvVerbose         = "PAYLINK_VERBOSE"
	EnvLogLevel        = "PAYLINK_LOG_LEVEL"
	EnvNoColor         = "NO_COLOR"
)

// URL validation errors.
var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrInsecureURL = errors.New("insecure URL")
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvCatalog); v != "" {
		cfg.Catalog.File = strings.TrimSpace(v)
	}

	// PAYLINK_CALLBACK_TIMEOUT is in seconds
	if v := os.Getenv(EnvCallbackTimeout); v != "" {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
			cfg.Callback.TimeoutSeconds = secs
		}
	}

	if v := os.Getenv(EnvListen); v != "" {
		cfg.Server.Listen = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvTracking); v != "" {
		cfg.Tracking.Enabled = parseBool(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// Payment links and callback URLs are often pasted from chat apps or QR scanners and
// carry stray whitespace or control characters.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}

// ValidateURL checks that a callback or payment-link URL is safe to fetch.
// Empty values are accepted. Plain http is only allowed for loopback hosts.
func ValidateURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !isLoopback(u.Hostname()) {
			return fmt.Errorf("%w: plain http is only allowed for localhost: %s", ErrInsecureURL, u.Host)
		}
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
