package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics is a MetricsRecorder that does nothing.
// Use when metrics are disabled to avoid overhead.
type NoopMetrics struct{}

// Compile-time interface check.
var _ MetricsRecorder = NoopMetrics{}

// RecordEmit does nothing.
func (NoopMetrics) RecordEmit(_ context.Context, _ string, _ int, _ time.Duration) {}

// RecordConnect does nothing.
func (NoopMetrics) RecordConnect(_ context.Context, _, _ string) {}

// RecordDisconnect does nothing.
func (NoopMetrics) RecordDisconnect(_ context.Context, _ string) {}

// RecordDeadReceiver does nothing.
func (NoopMetrics) RecordDeadReceiver(_ context.Context, _ string) {}

// RecordProviderSwitch does nothing.
func (NoopMetrics) RecordProviderSwitch(_ context.Context, _ string) {}

// NoopSpanManager is a SpanManager that does nothing.
// Use when tracing is disabled to avoid overhead.
type NoopSpanManager struct{}

// Compile-time interface check.
var _ SpanManager = NoopSpanManager{}

// noopSpan is a span that does nothing.
// We use the OTel noop package for a proper no-op span implementation.
var noopSpan = noop.Span{}

// StartEmitSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartEmitSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartEvaluateSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartEvaluateSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(_ trace.Span, _ error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(_ context.Context, _ string, _ ...attribute.KeyValue) {}
