// Package metrics provides application-level metrics collection.
// Counters are plain atomics so every package can record without wiring;
// Register exposes them to a Prometheus registry for `paylink serve`.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution sources, mirrored from deeplink.Source to keep this package dependency-free.
const (
	SourceStatic     = "static"
	SourceCallback   = "callback"
	SourceIdentifier = "identifier"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Callback metrics
	callbackCallsTotal   atomic.Int64
	callbackErrorsTotal  atomic.Int64
	callbackLatencyNanos atomic.Int64

	// Deep-link resolution metrics
	resolvedStatic     atomic.Int64
	resolvedCallback   atomic.Int64
	resolvedIdentifier atomic.Int64
	resolveMisses      atomic.Int64
	resolveErrors      atomic.Int64

	// Capability filter and page-view metrics
	filterCallsTotal atomic.Int64
	pageViewsTotal   atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordCallback records a wallet callback request with its duration and outcome.
func (m *Metrics) RecordCallback(duration time.Duration, err error) {
	m.callbackCallsTotal.Add(1)
	m.callbackLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.callbackErrorsTotal.Add(1)
	}
}

// RecordResolution records a successful deep-link resolution by source.
func (m *Metrics) RecordResolution(source string) {
	switch source {
	case SourceStatic:
		m.resolvedStatic.Add(1)
	case SourceCallback:
		m.resolvedCallback.Add(1)
	case SourceIdentifier:
		m.resolvedIdentifier.Add(1)
	}
}

// RecordResolveMiss records a resolution that produced no link.
func (m *Metrics) RecordResolveMiss() {
	m.resolveMisses.Add(1)
}

// RecordResolveError records a resolution that failed with an error.
func (m *Metrics) RecordResolveError() {
	m.resolveErrors.Add(1)
}

// RecordFilter records one capability filter evaluation.
func (m *Metrics) RecordFilter() {
	m.filterCallsTotal.Add(1)
}

// RecordPageView records a tracked page view.
func (m *Metrics) RecordPageView() {
	m.pageViewsTotal.Add(1)
}

// Snapshot returns a point-in-time copy of all metrics.
type Snapshot struct {
	CallbackCallsTotal   int64
	CallbackErrorsTotal  int64
	CallbackLatencyNanos int64
	ResolvedStatic       int64
	ResolvedCallback     int64
	ResolvedIdentifier   int64
	ResolveMisses        int64
	ResolveErrors        int64
	FilterCallsTotal     int64
	PageViewsTotal       int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		CallbackCallsTotal:   m.callbackCallsTotal.Load(),
		CallbackErrorsTotal:  m.callbackErrorsTotal.Load(),
		CallbackLatencyNanos: m.callbackLatencyNanos.Load(),
		ResolvedStatic:       m.resolvedStatic.Load(),
		ResolvedCallback:     m.resolvedCallback.Load(),
		ResolvedIdentifier:   m.resolvedIdentifier.Load(),
		ResolveMisses:        m.resolveMisses.Load(),
		ResolveErrors:        m.resolveErrors.Load(),
		FilterCallsTotal:     m.filterCallsTotal.Load(),
		PageViewsTotal:       m.pageViewsTotal.Load(),
	}
}

// ResolutionsTotal returns the number of successful resolutions across all sources.
func (m *Metrics) ResolutionsTotal() int64 {
	return m.resolvedStatic.Load() + m.resolvedCallback.Load() + m.resolvedIdentifier.Load()
}

// CallbackLatencyAvgMs returns the average callback latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) CallbackLatencyAvgMs() float64 {
	calls := m.callbackCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.callbackLatencyNanos.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	for _, c := range m.counters() {
		c.Store(0)
	}
}

func (m *Metrics) counters() []*atomic.Int64 {
	return []*atomic.Int64{
		&m.callbackCallsTotal, &m.callbackErrorsTotal, &m.callbackLatencyNanos,
		&m.resolvedStatic, &m.resolvedCallback, &m.resolvedIdentifier,
		&m.resolveMisses, &m.resolveErrors,
		&m.filterCallsTotal, &m.pageViewsTotal,
	}
}

// Register exposes the counters on reg under the "paylink" namespace.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	counter := func(name, help string, v *atomic.Int64, labels prometheus.Labels) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   "paylink",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(v.Load()) })
	}

	collectors := []prometheus.Collector{
		counter("callback_calls_total", "Wallet callback requests issued.", &m.callbackCallsTotal, nil),
		counter("callback_errors_total", "Wallet callback requests that failed.", &m.callbackErrorsTotal, nil),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "paylink",
			Name:      "callback_latency_avg_ms",
			Help:      "Average wallet callback latency in milliseconds.",
		}, m.CallbackLatencyAvgMs),
		counter("resolutions_total", "Deep links resolved.", &m.resolvedStatic, prometheus.Labels{"source": SourceStatic}),
		counter("resolutions_total", "Deep links resolved.", &m.resolvedCallback, prometheus.Labels{"source": SourceCallback}),
		counter("resolutions_total", "Deep links resolved.", &m.resolvedIdentifier, prometheus.Labels{"source": SourceIdentifier}),
		counter("resolve_misses_total", "Resolutions that produced no link.", &m.resolveMisses, nil),
		counter("resolve_errors_total", "Resolutions that failed.", &m.resolveErrors, nil),
		counter("filter_calls_total", "Capability filter evaluations.", &m.filterCallsTotal, nil),
		counter("page_views_total", "Tracked page views.", &m.pageViewsTotal, nil),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
