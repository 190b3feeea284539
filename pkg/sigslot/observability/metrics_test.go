package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider and restores the
// original provider on cleanup.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(original)
	})

	return reader
}

// collectMetrics reads all recorded metrics from the manual reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findMetric locates a metric by name in the collected resource metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestOtelMetricsRecordEmit(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordEmit(context.Background(), "clicks", 3, 2*time.Millisecond)
	m.RecordEmit(context.Background(), "clicks", 1, time.Millisecond)

	rm := collectMetrics(t, reader)

	emits, ok := findMetric(rm, "sigslot.emits")
	require.True(t, ok, "sigslot.emits not recorded")
	sum, ok := emits.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)

	invoked, ok := findMetric(rm, "sigslot.slots.invoked")
	require.True(t, ok, "sigslot.slots.invoked not recorded")
	invokedSum, ok := invoked.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, invokedSum.DataPoints, 1)
	assert.Equal(t, int64(4), invokedSum.DataPoints[0].Value)

	latency, ok := findMetric(rm, "sigslot.emit.latency_ms")
	require.True(t, ok, "sigslot.emit.latency_ms not recorded")
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestOtelMetricsRecordConnectDisconnect(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordConnect(context.Background(), "clicks", "func")
	m.RecordConnect(context.Background(), "clicks", "method")
	m.RecordDisconnect(context.Background(), "clicks")

	rm := collectMetrics(t, reader)

	connects, ok := findMetric(rm, "sigslot.connects")
	require.True(t, ok)
	connectSum := connects.Data.(metricdata.Sum[int64])
	// One data point per kind attribute.
	assert.Len(t, connectSum.DataPoints, 2)

	disconnects, ok := findMetric(rm, "sigslot.disconnects")
	require.True(t, ok)
	disconnectSum := disconnects.Data.(metricdata.Sum[int64])
	require.Len(t, disconnectSum.DataPoints, 1)
	assert.Equal(t, int64(1), disconnectSum.DataPoints[0].Value)
}

func TestOtelMetricsRecordDeadReceiver(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordDeadReceiver(context.Background(), "clicks")

	rm := collectMetrics(t, reader)
	dead, ok := findMetric(rm, "sigslot.dead_receivers")
	require.True(t, ok)
	deadSum := dead.Data.(metricdata.Sum[int64])
	require.Len(t, deadSum.DataPoints, 1)
	assert.Equal(t, int64(1), deadSum.DataPoints[0].Value)
}

func TestOtelMetricsRecordProviderSwitch(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordProviderSwitch(context.Background(), "width")
	m.RecordProviderSwitch(context.Background(), "width")

	rm := collectMetrics(t, reader)
	switches, ok := findMetric(rm, "sigslot.provider.switches")
	require.True(t, ok)
	switchSum := switches.Data.(metricdata.Sum[int64])
	require.Len(t, switchSum.DataPoints, 1)
	assert.Equal(t, int64(2), switchSum.DataPoints[0].Value)
}

func TestNewMetricsRecorderNeverNil(t *testing.T) {
	setupMetricsTest(t)

	m := NewMetricsRecorder()
	require.NotNil(t, m)
	// Must be callable whatever the backing implementation.
	m.RecordEmit(context.Background(), "x", 0, 0)
}

func TestNoopMetricsIsSafe(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}
	m.RecordEmit(context.Background(), "x", 1, time.Millisecond)
	m.RecordConnect(context.Background(), "x", "func")
	m.RecordDisconnect(context.Background(), "x")
	m.RecordDeadReceiver(context.Background(), "x")
	m.RecordProviderSwitch(context.Background(), "x")
}
