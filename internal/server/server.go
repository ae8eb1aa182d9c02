// Package server exposes wallet filtering, deep-link resolution and EVM URI
// decoding over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mrz1836/paylink/internal/catalog"
	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/deeplink"
	"github.com/mrz1836/paylink/internal/payment"
	"github.com/mrz1836/paylink/internal/tracking"
)

// requestLogFormat is the access log line written to the debug log.
const requestLogFormat = `${time_rfc3339} ${id} ${method} ${uri} ${status} ${latency_human}` + "\n"

// PayRequestFetcher loads a pay request from a payment link. *payment.Client implements it.
type PayRequestFetcher interface {
	Fetch(ctx context.Context, url string) (*payment.PayRequest, error)
}

// Options holds the server's collaborators.
type Options struct {
	Listen   string
	Catalog  *catalog.Catalog
	Resolver *deeplink.Resolver
	Payments PayRequestFetcher
	Tracker  tracking.Tracker
	// Gatherer backs /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer
	Logger   *config.Logger
	// Console receives lifecycle messages. Nil discards them.
	Console *slog.Logger
}

// Server is the HTTP surface.
type Server struct {
	echo     *echo.Echo
	listen   string
	catalog  *catalog.Catalog
	resolver *deeplink.Resolver
	payments PayRequestFetcher
	tracker  tracking.Tracker
	logger   *config.Logger
	console  *slog.Logger
}

// New builds a server and registers its routes.
func New(opts Options) *Server {
	s := &Server{
		echo:     echo.New(),
		listen:   opts.Listen,
		catalog:  opts.Catalog,
		resolver: opts.Resolver,
		payments: opts.Payments,
		tracker:  opts.Tracker,
		logger:   opts.Logger,
		console:  opts.Console,
	}
	if s.listen == "" {
		s.listen = config.DefaultListenAddr
	}
	if s.tracker == nil {
		s.tracker = tracking.Nop{}
	}
	if s.logger == nil {
		s.logger = config.NullLogger()
	}
	if s.console == nil {
		s.console = slog.New(slog.DiscardHandler)
	}
	if s.resolver == nil {
		s.resolver = deeplink.NewResolver(s.catalog, nil, deeplink.WithLogger(s.logger))
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: requestLogFormat,
		Output: s.logger.Writer(config.LogLevelDebug),
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead},
	}))
	e.Use(middleware.Secure())

	e.GET("/health", s.handleHealth)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := e.Group("/v1")
	v1.GET("/wallets", s.handleWallets)
	v1.GET("/wallets/:id/link", s.handleWalletLink)
	v1.GET("/evm-uri", s.handleEVMURI)

	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens and serves until Shutdown is called.
func (s *Server) Start() error {
	s.console.Info("paylink server listening", "listen", s.listen, "wallets", s.catalog.Len())
	err := s.echo.Start(s.listen)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.console.Info("paylink server shutting down")
	return s.echo.Shutdown(ctx)
}

func (s *Server) track(c echo.Context, name, walletID string) {
	s.tracker.Track(c.Request().Context(), tracking.Event{
		Name:      name,
		Path:      c.Path(),
		WalletID:  walletID,
		RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
