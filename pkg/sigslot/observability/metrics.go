package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records sigslot metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEmit records a dispatch pass with the number of slots invoked.
	RecordEmit(ctx context.Context, signalName string, invoked int, duration time.Duration)

	// RecordConnect records a new slot connection.
	RecordConnect(ctx context.Context, signalName, kind string)

	// RecordDisconnect records a slot disconnection.
	RecordDisconnect(ctx context.Context, signalName string)

	// RecordDeadReceiver records a slot dropped for a dead target.
	RecordDeadReceiver(ctx context.Context, signalName string)

	// RecordProviderSwitch records a change of a property's active provider.
	RecordProviderSwitch(ctx context.Context, propertyName string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	emits            metric.Int64Counter
	emitLatency      metric.Float64Histogram
	slotsInvoked     metric.Int64Counter
	connects         metric.Int64Counter
	disconnects      metric.Int64Counter
	deadReceivers    metric.Int64Counter
	providerSwitches metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("sigslot")

	emits, err := meter.Int64Counter("sigslot.emits",
		metric.WithDescription("Number of dispatch passes"),
	)
	if err != nil {
		return nil, err
	}

	emitLatency, err := meter.Float64Histogram("sigslot.emit.latency_ms",
		metric.WithDescription("Dispatch pass latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	slotsInvoked, err := meter.Int64Counter("sigslot.slots.invoked",
		metric.WithDescription("Number of slot activations"),
	)
	if err != nil {
		return nil, err
	}

	connects, err := meter.Int64Counter("sigslot.connects",
		metric.WithDescription("Number of slot connections"),
	)
	if err != nil {
		return nil, err
	}

	disconnects, err := meter.Int64Counter("sigslot.disconnects",
		metric.WithDescription("Number of slot disconnections"),
	)
	if err != nil {
		return nil, err
	}

	deadReceivers, err := meter.Int64Counter("sigslot.dead_receivers",
		metric.WithDescription("Number of slots dropped for dead targets"),
	)
	if err != nil {
		return nil, err
	}

	providerSwitches, err := meter.Int64Counter("sigslot.provider.switches",
		metric.WithDescription("Number of active provider changes"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		emits:            emits,
		emitLatency:      emitLatency,
		slotsInvoked:     slotsInvoked,
		connects:         connects,
		disconnects:      disconnects,
		deadReceivers:    deadReceivers,
		providerSwitches: providerSwitches,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEmit records a dispatch pass.
func (m *otelMetrics) RecordEmit(ctx context.Context, signalName string, invoked int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("signal", signalName),
	}
	m.emits.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.slotsInvoked.Add(ctx, int64(invoked), metric.WithAttributes(attrs...))
	m.emitLatency.Record(ctx, float64(duration.Microseconds())/1000.0, metric.WithAttributes(attrs...))
}

// RecordConnect records a slot connection.
func (m *otelMetrics) RecordConnect(ctx context.Context, signalName, kind string) {
	m.connects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("signal", signalName),
		attribute.String("kind", kind),
	))
}

// RecordDisconnect records a slot disconnection.
func (m *otelMetrics) RecordDisconnect(ctx context.Context, signalName string) {
	m.disconnects.Add(ctx, 1, metric.WithAttributes(
		attribute.String("signal", signalName),
	))
}

// RecordDeadReceiver records a dropped slot.
func (m *otelMetrics) RecordDeadReceiver(ctx context.Context, signalName string) {
	m.deadReceivers.Add(ctx, 1, metric.WithAttributes(
		attribute.String("signal", signalName),
	))
}

// RecordProviderSwitch records an active provider change.
func (m *otelMetrics) RecordProviderSwitch(ctx context.Context, propertyName string) {
	m.providerSwitches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("property", propertyName),
	))
}
