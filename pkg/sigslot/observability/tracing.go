package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartEmitSpan starts a span covering a full dispatch pass.
	StartEmitSpan(ctx context.Context, signalName string) (context.Context, trace.Span)

	// StartEvaluateSpan starts a span covering a property evaluation.
	StartEvaluateSpan(ctx context.Context, propertyName string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer("sigslot")}
}

// StartEmitSpan starts a span covering a full dispatch pass.
func (m *otelSpanManager) StartEmitSpan(ctx context.Context, signalName string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "sigslot.emit",
		trace.WithAttributes(
			attribute.String("signal", signalName),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartEvaluateSpan starts a span covering a property evaluation.
func (m *otelSpanManager) StartEvaluateSpan(ctx context.Context, propertyName string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "sigslot.property.evaluate",
		trace.WithAttributes(
			attribute.String("property", propertyName),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
