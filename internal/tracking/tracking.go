// Package tracking records page views and wallet selections.
//
// Trackers are called explicitly by the routing layer; nothing in the
// filter, resolver or output code emits events on its own.
package tracking

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrz1836/paylink/internal/config"
	"github.com/mrz1836/paylink/internal/metrics"
)

// Event names.
const (
	EventPageView       = "page_view"
	EventWalletSelected = "wallet_selected"
	EventWalletResolved = "wallet_resolved"
)

// Event is one tracked occurrence.
type Event struct {
	Name      string
	Path      string
	WalletID  string
	RequestID string
	At        time.Time
}

// Tracker receives events. Implementations must not block the caller for long.
type Tracker interface {
	Track(ctx context.Context, ev Event)
}

// Nop discards events.
type Nop struct{}

// Track implements Tracker.
func (Nop) Track(context.Context, Event) {}

// LogTracker writes events to the debug log.
type LogTracker struct {
	logger *config.Logger
}

// NewLogTracker creates a tracker writing to logger.
func NewLogTracker(logger *config.Logger) *LogTracker {
	if logger == nil {
		logger = config.NullLogger()
	}
	return &LogTracker{logger: logger}
}

// Track implements Tracker.
func (t *LogTracker) Track(_ context.Context, ev Event) {
	t.logger.DebugAttrs("track",
		slog.String("event", ev.Name),
		slog.String("path", ev.Path),
		slog.String("wallet", ev.WalletID),
		slog.String("request_id", ev.RequestID),
		slog.Time("at", ev.At),
	)
}

// PrometheusTracker counts events by name and path.
type PrometheusTracker struct {
	events *prometheus.CounterVec
	m      *metrics.Metrics
}

// NewPrometheusTracker creates a tracker and registers its counter with reg.
func NewPrometheusTracker(reg prometheus.Registerer, m *metrics.Metrics) (*PrometheusTracker, error) {
	if m == nil {
		m = metrics.Global
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paylink",
		Name:      "tracked_events_total",
		Help:      "Tracked events by name and route.",
	}, []string{"event", "path"})

	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &PrometheusTracker{events: events, m: m}, nil
}

// Track implements Tracker.
func (t *PrometheusTracker) Track(_ context.Context, ev Event) {
	t.events.WithLabelValues(ev.Name, ev.Path).Inc()
	if ev.Name == EventPageView {
		t.m.RecordPageView()
	}
}

// Multi fans an event out to several trackers in order.
type Multi []Tracker

// Track implements Tracker.
func (m Multi) Track(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	for _, t := range m {
		if t != nil {
			t.Track(ctx, ev)
		}
	}
}

// New builds the tracker used by the server: a Nop when disabled,
// otherwise log plus Prometheus tracking.
func New(enabled bool, logger *config.Logger, reg prometheus.Registerer, m *metrics.Metrics) (Tracker, error) {
	if !enabled {
		return Nop{}, nil
	}
	pt, err := NewPrometheusTracker(reg, m)
	if err != nil {
		return nil, err
	}
	return Multi{NewLogTracker(logger), pt}, nil
}
