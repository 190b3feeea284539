// Package observability provides production-grade observability features
// for sigslot: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds signal context to a logger.
// Returns a new logger with the signal name attached.
func EnrichLogger(logger *slog.Logger, signalName string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("signal", signalName),
	)
}

// LogConnect logs a new slot connection.
func LogConnect(logger *slog.Logger, signalName, slotID, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("slot connected",
		slog.String("signal", signalName),
		slog.String("slot_id", slotID),
		slog.String("kind", kind),
	)
}

// LogDisconnect logs a slot disconnection.
func LogDisconnect(logger *slog.Logger, signalName, slotID string) {
	if logger == nil {
		return
	}
	logger.Debug("slot disconnected",
		slog.String("signal", signalName),
		slog.String("slot_id", slotID),
	)
}

// LogEmit logs a completed dispatch pass.
func LogEmit(logger *slog.Logger, signalName string, invoked int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("signal emitted",
		slog.String("signal", signalName),
		slog.Int("slots_invoked", invoked),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogDeadReceiver logs a slot dropped because its target no longer resolves.
// This is a recovered condition, not an error surfaced to the emitter.
func LogDeadReceiver(logger *slog.Logger, signalName, slotID string) {
	if logger == nil {
		return
	}
	logger.Warn("dead receiver, slot disconnected",
		slog.String("signal", signalName),
		slog.String("slot_id", slotID),
	)
}

// LogProviderSwitch logs a change of the active property value provider.
func LogProviderSwitch(logger *slog.Logger, propertyName, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("active provider switched",
		slog.String("property", propertyName),
		slog.String("reason", reason),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000.0
	}
}
