package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/metrics"
	"github.com/mrz1836/paylink/internal/output"
	"github.com/mrz1836/paylink/internal/server"
	"github.com/mrz1836/paylink/internal/tracking"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var serveListen string

// serveCmd runs the HTTP API.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the paylink HTTP API",
	Long: `Run the paylink HTTP API.

Routes:
  GET /health                  liveness and catalog size
  GET /metrics                 Prometheus metrics
  GET /v1/wallets              wallets grouped for ?request=<payment link>
  GET /v1/wallets/{id}/link    deep link for one wallet
  GET /v1/evm-uri              decode ?uri=<ethereum: URI>

The server stops gracefully on SIGINT or SIGTERM.`,
	Example: `  paylink serve
  paylink serve --listen 0.0.0.0:8402
  PAYLINK_TRACKING=false paylink serve -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.GroupID = groupPayment

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: server.listen from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	c := cc.config()

	level := config.ParseLogLevel(c.GetLoggingLevel())
	console := config.NewConsoleLogger(os.Stderr, level, !output.UseColor(os.Stderr, c.Output.Color))

	srv, err := newServer(cc, prometheus.NewRegistry(), console)
	if err != nil {
		return err
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newServer wires the HTTP server from the command context.
// Metrics are registered on reg, which also backs /metrics.
func newServer(cc *CommandContext, reg *prometheus.Registry, console *slog.Logger) (*server.Server, error) {
	cat, err := cc.LoadCatalog()
	if err != nil {
		return nil, err
	}

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := metrics.Global.Register(reg); err != nil {
		return nil, err
	}
	tracker, err := tracking.New(cc.config().TrackingEnabled(), cc.logger(), reg, metrics.Global)
	if err != nil {
		return nil, err
	}

	listen := serveListen
	if listen == "" {
		listen = cc.config().GetListenAddr()
	}

	return server.New(server.Options{
		Listen:   listen,
		Catalog:  cat,
		Resolver: cc.Resolver(cat),
		Payments: cc.PaymentClient(),
		Tracker:  tracker,
		Gatherer: reg,
		Logger:   cc.logger(),
		Console:  console,
	}), nil
}
