package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plerr "github.com/mrz1836/paylink/pkg/errors"
)

func TestMetrics_RecordCallback(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordCallback(100*time.Millisecond, nil)
	m.RecordCallback(50*time.Millisecond, plerr.ErrNetworkError)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.CallbackCallsTotal)
	assert.Equal(t, int64(1), snap.CallbackErrorsTotal)
	assert.InDelta(t, 75.0, m.CallbackLatencyAvgMs(), 0.001)
}

func TestMetrics_CallbackLatencyAvg_NoCalls(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	assert.InDelta(t, 0.0, m.CallbackLatencyAvgMs(), 0.0001)
}

func TestMetrics_RecordResolution(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordResolution(SourceStatic)
	m.RecordResolution(SourceStatic)
	m.RecordResolution(SourceCallback)
	m.RecordResolution(SourceIdentifier)
	m.RecordResolution("unknown")
	m.RecordResolveMiss()
	m.RecordResolveError()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ResolvedStatic)
	assert.Equal(t, int64(1), snap.ResolvedCallback)
	assert.Equal(t, int64(1), snap.ResolvedIdentifier)
	assert.Equal(t, int64(4), m.ResolutionsTotal())
	assert.Equal(t, int64(1), snap.ResolveMisses)
	assert.Equal(t, int64(1), snap.ResolveErrors)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordCallback(time.Millisecond, nil)
	m.RecordFilter()
	m.RecordPageView()
	m.Reset()

	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestMetrics_Register(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	reg := prometheus.NewRegistry()

	require.NoError(t, m.Register(reg))

	m.RecordFilter()
	m.RecordPageView()
	m.RecordPageView()
	m.RecordResolution(SourceCallback)

	expected := `
# HELP paylink_page_views_total Tracked page views.
# TYPE paylink_page_views_total counter
paylink_page_views_total 2
# HELP paylink_resolutions_total Deep links resolved.
# TYPE paylink_resolutions_total counter
paylink_resolutions_total{source="callback"} 1
paylink_resolutions_total{source="identifier"} 0
paylink_resolutions_total{source="static"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"paylink_page_views_total", "paylink_resolutions_total"))
}

func TestMetrics_Register_Twice(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	reg := prometheus.NewRegistry()

	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}

func TestGlobal(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, Global)
}
