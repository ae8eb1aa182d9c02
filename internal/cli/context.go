package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/paylink/internal/callback"
	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/deeplink"
	"github.com/mrz1836/paylink/internal/output"
	"github.com/mrz1836/paylink/internal/payment"
	"github.com/mrz1836/paylink/internal/ratelimit"
	"github.com/mrz1836/paylink/internal/retry"
)

type cmdContextKey struct{}

// PayRequestFetcher loads a pay request from a payment link URL.
type PayRequestFetcher interface {
	Fetch(ctx context.Context, url string) (*payment.PayRequest, error)
}

// CommandContext holds dependencies for CLI commands.
// Collaborators left nil are built from Cfg on first use.
type CommandContext struct {
	Cfg       *config.Config
	Log       *config.Logger
	Fmt       *output.Formatter
	Catalog   *catalog.Catalog
	Callbacks deeplink.Fetcher
	Payments  PayRequestFetcher
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(cfg *config.Config, log *config.Logger, fmt *output.Formatter) *CommandContext {
	return &CommandContext{
		Cfg: cfg,
		Log: log,
		Fmt: fmt,
	}
}

// WithCatalog sets the wallet catalog.
func (c *CommandContext) WithCatalog(cat *catalog.Catalog) *CommandContext {
	c.Catalog = cat
	return c
}

// WithCallbacks sets the callback fetcher used by the resolver.
func (c *CommandContext) WithCallbacks(f deeplink.Fetcher) *CommandContext {
	c.Callbacks = f
	return c
}

// WithPayments sets the payment link fetcher.
func (c *CommandContext) WithPayments(p PayRequestFetcher) *CommandContext {
	c.Payments = p
	return c
}

func (c *CommandContext) config() *config.Config {
	if c.Cfg == nil {
		c.Cfg = config.Defaults()
	}
	return c.Cfg
}

func (c *CommandContext) logger() *config.Logger {
	if c.Log == nil {
		return config.NullLogger()
	}
	return c.Log
}

// LoadCatalog returns the configured catalog, or the built-in one when no file is set.
func (c *CommandContext) LoadCatalog() (*catalog.Catalog, error) {
	if c.Catalog != nil {
		return c.Catalog, nil
	}
	file := c.config().GetCatalogFile()
	if file == "" {
		c.Catalog = catalog.Default()
		return c.Catalog, nil
	}
	cat, err := catalog.Load(expandHome(file))
	if err != nil {
		return nil, err
	}
	c.Catalog = cat
	return cat, nil
}

// Resolver builds a deep-link resolver over cat.
func (c *CommandContext) Resolver(cat *catalog.Catalog) *deeplink.Resolver {
	if c.Callbacks == nil {
		cb := c.config().Callback
		c.Callbacks = callback.NewClient(&callback.ClientOptions{
			Timeout:          c.config().CallbackTimeout(),
			RateLimiter:      ratelimit.New(cb.RatePerSecond, cb.Burst),
			MaxResponseBytes: cb.MaxResponseBytes,
		})
	}
	return deeplink.NewResolver(cat, c.Callbacks, deeplink.WithLogger(c.logger()))
}

// PaymentClient returns the payment link fetcher.
func (c *CommandContext) PaymentClient() PayRequestFetcher {
	if c.Payments == nil {
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxAttempts = c.config().Payment.RetryAttempts
		c.Payments = payment.NewClient(&payment.ClientOptions{
			Timeout:          c.config().PaymentTimeout(),
			MaxResponseBytes: c.config().Callback.MaxResponseBytes,
			Retry:            &retryCfg,
		})
	}
	return c.Payments
}

// PayRequest loads the pay request named by ref: a payment link URL or a JSON file.
// An empty ref yields no request.
func (c *CommandContext) PayRequest(ctx context.Context, ref string) (*payment.PayRequest, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return nil, nil //nolint:nilnil // no request is a valid state
	case strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "http://"):
		return c.PaymentClient().Fetch(ctx, config.SanitizeURL(ref))
	default:
		return payment.LoadFile(expandHome(ref))
	}
}

// SetCmdContext stores cc in the command's context.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey{}, cc))
}

// GetCmdContext returns the command's CommandContext, falling back to the globals.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(cmdContextKey{}).(*CommandContext); ok && cc != nil {
			return cc
		}
	}
	return NewCommandContext(cfg, logger, formatter)
}
