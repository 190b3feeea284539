package sigslot

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kestrelworks/sigslot/pkg/sigslot/config"
	"github.com/kestrelworks/sigslot/pkg/sigslot/observability"
)

// settings holds per-signal configuration.
type settings struct {
	name    string
	blocked bool
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

func defaultSettings() settings {
	return settings{
		name:    fmt.Sprintf("signal-%s", uuid.New().String()[:8]),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Signal at construction time.
type Option func(*settings)

// WithName sets the signal's name, used in logs, metrics and spans.
// Default: "signal-" followed by a random suffix.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithBlocked creates the signal in the blocked state; Emit returns 0 until
// Unblock is called.
func WithBlocked() Option {
	return func(s *settings) {
		s.blocked = true
	}
}

// WithLogger sets a structured logger for connection and dispatch events.
// Default: nil (no logging).
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSpans sets the span manager for dispatch tracing.
// Default: observability.NoopSpanManager.
func WithSpans(m observability.SpanManager) Option {
	return func(s *settings) {
		if m != nil {
			s.spans = m
		}
	}
}

// FromConfig applies settings from a loaded configuration.
// See the config package documentation for the recognized keys.
//
// Example:
//
//	cfg, err := config.FromFile("sigslot.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sig := sigslot.New[string](sigslot.FromConfig(cfg))
func FromConfig(cfg config.Config) Option {
	return func(s *settings) {
		s.name = cfg.String("name", s.name)
		s.blocked = cfg.Bool("blocked", s.blocked)
		if cfg.Bool("metrics", false) {
			s.metrics = observability.NewMetricsRecorder()
		}
		if cfg.Bool("tracing", false) {
			s.spans = observability.NewSpanManager()
		}
	}
}
