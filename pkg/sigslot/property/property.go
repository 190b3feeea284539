package property

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/kestrelworks/sigslot/pkg/sigslot"
	"github.com/kestrelworks/sigslot/pkg/sigslot/observability"
)

// Host is the property side of the provider contract: the thing a Value
// attaches to. Implemented by Property and State; not implementable outside
// this package.
type Host[T any] interface {
	// Changed returns the signal that fires whenever the property's
	// resolved value changes.
	Changed() *sigslot.Signal[T]

	attachValue(ctx context.Context, v *Value[T]) bool
	detachValue(ctx context.Context, v *Value[T])
	activateValue(ctx context.Context, v *Value[T])
	deactivateValue(v *Value[T])
	notifySet(ctx context.Context, v *Value[T], value T)
	announce(ctx context.Context, v *Value[T], reason string)
}

// Option configures a property at construction time.
type Option func(*options)

type options struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

func defaultOptions() options {
	return options{
		name:    fmt.Sprintf("property-%s", uuid.New().String()[:8]),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// WithName sets the property's name, used in logs, metrics and the name of
// its changed signal.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a structured logger for provider switches.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSpans sets the span manager for evaluation tracing.
func WithSpans(m observability.SpanManager) Option {
	return func(o *options) {
		if m != nil {
			o.spans = m
		}
	}
}

// core carries what Property and State share: the changed signal and the
// observability hooks.
type core[T any] struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	changed *sigslot.Signal[T]
}

func newCore[T any](opts []Option) core[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return core[T]{
		name:    o.name,
		logger:  o.logger,
		metrics: o.metrics,
		spans:   o.spans,
		changed: sigslot.New[T](
			sigslot.WithName(o.name+".changed"),
			sigslot.WithLogger(o.logger),
		),
	}
}

// Changed returns the property's change-notification signal.
func (c *core[T]) Changed() *sigslot.Signal[T] {
	return c.changed
}

// Name returns the property's name.
func (c *core[T]) Name() string {
	return c.name
}

func (c *core[T]) switched(ctx context.Context, reason string) {
	c.metrics.RecordProviderSwitch(ctx, c.name)
	observability.LogProviderSwitch(c.logger, c.name, reason)
}

// Property owns a stack of value providers, of which exactly one is active
// outside attach/detach transitions. New providers are pushed to the top and
// become active; removing the active provider promotes the last remaining
// one, in insertion order.
type Property[T any] struct {
	core[T]

	mu     sync.Mutex // guards active
	active *Value[T]
	values *Container[*Value[T]]
}

// NewProperty creates a property with def as its default provider. The
// default must have Keep behavior so the property always has a provider to
// collapse back to; anything else is a programming error.
func NewProperty[T any](def *Value[T], opts ...Option) *Property[T] {
	if def == nil {
		panic("sigslot: property requires a default value provider")
	}
	if def.Behavior() != Keep {
		panic("sigslot: property default value provider must have Keep behavior")
	}

	p := &Property[T]{core: newCore[T](opts)}
	p.values = NewContainer[*Value[T]](
		func(v *Value[T]) bool { return v == nil },
		func(v *Value[T]) { v.finalizeDetach() },
	)
	def.Attach(p)
	return p
}

// Get evaluates the active provider and returns the property's resolved
// value.
func (p *Property[T]) Get() T {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active == nil {
		panic("sigslot: property has no active value provider")
	}

	_, span := p.spans.StartEvaluateSpan(context.Background(), p.name)
	result := active.Evaluate()
	p.spans.EndSpanWithError(span, nil)
	return result
}

// Set writes through the property: temporary (Discard) providers are
// removed first, then the value lands in the surviving Keep provider. Both
// the collapse and the write fire the changed signal if they change the
// resolved value.
func (p *Property[T]) Set(ctx context.Context, value T) {
	p.Discard(ctx)

	p.mu.Lock()
	active := p.active
	p.mu.Unlock()
	if active == nil {
		panic("sigslot: property has no active value provider")
	}
	active.set(ctx, value)
}

// AddValue attaches a provider and makes it the active one (top of the
// stack). The changed signal fires with the provider's value.
func (p *Property[T]) AddValue(ctx context.Context, v *Value[T]) {
	if v == nil {
		panic("sigslot: cannot add a nil property value")
	}
	v.attach(ctx, p)
}

// RemoveValue detaches a provider. If it was active, the last remaining
// provider in insertion order is promoted and the changed signal fires with
// the promoted value.
func (p *Property[T]) RemoveValue(ctx context.Context, v *Value[T]) {
	if v == nil {
		panic("sigslot: cannot remove a nil property value")
	}
	if !v.attachedTo(p) {
		panic("sigslot: property value not attached to this property")
	}
	v.detach(ctx)
}

// Discard removes every Discard-behavior provider above the nearest Keep
// provider, making that Keep provider active. Used to implement "setter
// overwrites any temporary binding". Fires the changed signal only if the
// active provider actually changed.
func (p *Property[T]) Discard(ctx context.Context) {
	snapshot := p.values.Snapshot()

	// Peel temporaries off the top of the stack.
	idx := len(snapshot) - 1
	for idx >= 0 && snapshot[idx].Behavior() == Discard {
		idx--
	}
	if idx < 0 {
		panic("sigslot: property has no Keep-behavior value provider")
	}
	removed := snapshot[idx+1:]
	if len(removed) == 0 {
		return
	}
	keeper := snapshot[idx]

	activeRemoved := false
	p.mu.Lock()
	for _, r := range removed {
		if p.active == r {
			p.active = nil
			activeRemoved = true
		}
	}
	p.mu.Unlock()

	for _, r := range removed {
		r.beginDetach()
		p.values.Invalidate(func(entry *Value[T]) bool { return entry == r })
	}

	if activeRemoved {
		p.promote(ctx, keeper, "discarded")
	}
}

// Values returns the attached providers in insertion order.
func (p *Property[T]) Values() []*Value[T] {
	return p.values.Snapshot()
}

// promote makes v the active provider and fires the changed signal.
func (p *Property[T]) promote(ctx context.Context, v *Value[T], reason string) {
	p.mu.Lock()
	p.active = v
	p.mu.Unlock()
	v.markActive()
	p.announce(ctx, v, reason)
}

// attachValue registers a new provider at the top of the stack and makes it
// active; the previous active provider is demoted.
func (p *Property[T]) attachValue(_ context.Context, v *Value[T]) bool {
	p.values.Append(v)

	p.mu.Lock()
	previous := p.active
	p.active = v
	p.mu.Unlock()

	if previous != nil {
		previous.markInactive()
	}
	return true
}

// detachValue tombstones a provider and, if it was active, promotes the
// last remaining one.
func (p *Property[T]) detachValue(ctx context.Context, v *Value[T]) {
	p.mu.Lock()
	wasActive := p.active == v
	if wasActive {
		p.active = nil
	}
	p.mu.Unlock()

	if !p.values.Invalidate(func(entry *Value[T]) bool { return entry == v }) {
		panic("sigslot: property value not attached to this property")
	}

	if !wasActive {
		return
	}
	promoted, ok := p.values.Last(nil)
	if !ok {
		return
	}
	p.promote(ctx, promoted, "promoted")
}

// activateValue swaps the active provider to v.
func (p *Property[T]) activateValue(ctx context.Context, v *Value[T]) {
	p.mu.Lock()
	if p.active == v {
		p.mu.Unlock()
		return
	}
	previous := p.active
	p.active = v
	p.mu.Unlock()

	if previous != nil {
		previous.markInactive()
	}
	v.markActive()
	p.announce(ctx, v, "activated")
}

// deactivateValue demotes the active provider, leaving the property
// transiently without one.
func (p *Property[T]) deactivateValue(v *Value[T]) {
	p.mu.Lock()
	if p.active == v {
		p.active = nil
	}
	p.mu.Unlock()
	v.markInactive()
}

// notifySet republishes a write to the active provider.
func (p *Property[T]) notifySet(ctx context.Context, _ *Value[T], value T) {
	p.changed.Emit(ctx, value)
}

// announce fires the changed signal with v's value and records the switch.
func (p *Property[T]) announce(ctx context.Context, v *Value[T], reason string) {
	p.switched(ctx, reason)
	p.changed.Emit(ctx, v.Evaluate())
}
