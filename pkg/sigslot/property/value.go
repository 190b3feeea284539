package property

import (
	"context"
	"sync"
)

// Status describes where a property value stands in its lifecycle.
type Status int

// Property value statuses.
const (
	// StatusDetached means the value is not attached to any property.
	StatusDetached Status = iota
	// StatusAttaching means the value is registering with a property.
	StatusAttaching
	// StatusActive means the value is the property's active provider.
	StatusActive
	// StatusEvaluating means the active value is inside Evaluate.
	StatusEvaluating
	// StatusDetaching means the value is leaving its property.
	StatusDetaching
	// StatusInactive means the value is attached but not active.
	StatusInactive
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDetached:
		return "detached"
	case StatusAttaching:
		return "attaching"
	case StatusActive:
		return "active"
	case StatusEvaluating:
		return "evaluating"
	case StatusDetaching:
		return "detaching"
	case StatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// WriteBehavior defines what happens to a provider when the owning
// property's setter discards temporary bindings.
type WriteBehavior int

const (
	// Keep providers survive a Discard call.
	Keep WriteBehavior = iota
	// Discard providers are removed by a Discard call, collapsing the
	// property back to the nearest Keep provider.
	Discard
)

// String returns the behavior name.
func (b WriteBehavior) String() string {
	if b == Keep {
		return "keep"
	}
	return "discard"
}

// Source computes a provider's value. Evaluate may recompute on every call;
// nothing is cached. Update stores a written value and reports whether it
// changed.
type Source[T any] interface {
	Evaluate() T
	Update(v T) bool
}

// Stored is a Source holding a plain value.
type Stored[T comparable] struct {
	mu    sync.Mutex
	value T
}

// NewStored creates a stored-value source.
func NewStored[T comparable](initial T) *Stored[T] {
	return &Stored[T]{value: initial}
}

// Evaluate returns the stored value.
func (s *Stored[T]) Evaluate() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Update stores v, reporting whether it differs from the previous value.
func (s *Stored[T]) Update(v T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == v {
		return false
	}
	s.value = v
	return true
}

// SourceFunc adapts an evaluation function to a read-only Source; writes
// are ignored and never report a change.
type SourceFunc[T any] func() T

// Evaluate calls the function.
func (f SourceFunc[T]) Evaluate() T { return f() }

// Update is a no-op.
func (f SourceFunc[T]) Update(T) bool { return false }

// Value is one candidate provider of a property's value. It carries the
// attach/activate status machine; the actual data lives in its Source.
//
// Misusing the lifecycle (attaching an attached value, detaching a detached
// one, evaluating an inactive one) is a caller contract violation and
// panics.
type Value[T any] struct {
	behavior WriteBehavior

	mu     sync.Mutex
	status Status
	host   Host[T]
	source Source[T]
}

// NewValue creates a provider with the given write behavior and source.
func NewValue[T any](behavior WriteBehavior, source Source[T]) *Value[T] {
	if source == nil {
		panic("sigslot: property value requires a source")
	}
	return &Value[T]{behavior: behavior, source: source}
}

// NewStoredValue creates a provider backed by a stored value.
func NewStoredValue[T comparable](behavior WriteBehavior, initial T) *Value[T] {
	return NewValue[T](behavior, NewStored(initial))
}

// Behavior returns the provider's write behavior.
func (v *Value[T]) Behavior() WriteBehavior {
	return v.behavior
}

// Status returns the provider's lifecycle status.
func (v *Value[T]) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// IsActive reports whether this provider currently supplies the property's
// resolved value.
func (v *Value[T]) IsActive() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status == StatusActive || v.status == StatusEvaluating
}

// Attach registers the value with a property. Only legal from the detached
// state. The value becomes the property's active provider if the property
// promotes new providers to the top of its stack.
func (v *Value[T]) Attach(h Host[T]) {
	v.attach(context.Background(), h)
}

func (v *Value[T]) attach(ctx context.Context, h Host[T]) {
	if h == nil {
		panic("sigslot: cannot attach a property value to a nil property")
	}
	v.mu.Lock()
	if v.status != StatusDetached {
		v.mu.Unlock()
		panic("sigslot: property value already attached")
	}
	v.status = StatusAttaching
	v.mu.Unlock()

	becameActive := h.attachValue(ctx, v)

	v.mu.Lock()
	v.host = h
	if becameActive {
		v.status = StatusActive
	} else {
		v.status = StatusInactive
	}
	v.mu.Unlock()

	if becameActive {
		h.announce(ctx, v, "attached")
	}
}

// Detach removes the value from its property. Only legal while attached.
// If the value was active, the property promotes the last remaining
// provider and fires its changed signal with the promoted value.
func (v *Value[T]) Detach() {
	v.detach(context.Background())
}

func (v *Value[T]) detach(ctx context.Context) {
	v.mu.Lock()
	if v.status != StatusActive && v.status != StatusInactive {
		v.mu.Unlock()
		panic("sigslot: detaching a property value that is not attached")
	}
	v.status = StatusDetaching
	h := v.host
	v.mu.Unlock()

	h.detachValue(ctx, v)
}

// attachedTo reports whether the value is attached to the given host.
func (v *Value[T]) attachedTo(h Host[T]) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.host == h
}

// finalizeDetach completes the transition to detached. Called by the
// provider container's invalidator hook, exactly once.
func (v *Value[T]) finalizeDetach() {
	v.mu.Lock()
	v.status = StatusDetached
	v.host = nil
	v.mu.Unlock()
}

// beginDetach marks a value the property is removing on its own initiative
// (Discard). No-op if a Detach is already in flight.
func (v *Value[T]) beginDetach() {
	v.mu.Lock()
	if v.status == StatusActive || v.status == StatusInactive {
		v.status = StatusDetaching
	}
	v.mu.Unlock()
}

// markActive flips an attached value to active. Internal; called by the
// owning property with its active-pointer bookkeeping already done.
func (v *Value[T]) markActive() {
	v.mu.Lock()
	v.status = StatusActive
	v.mu.Unlock()
}

// markInactive flips the active value back to inactive.
func (v *Value[T]) markInactive() {
	v.mu.Lock()
	v.status = StatusInactive
	v.mu.Unlock()
}

// Activate makes this provider the property's active one, demoting the
// current active provider to inactive. Only legal while attached.
func (v *Value[T]) Activate() {
	v.mu.Lock()
	switch v.status {
	case StatusActive, StatusEvaluating:
		v.mu.Unlock()
		return
	case StatusInactive:
	default:
		v.mu.Unlock()
		panic("sigslot: activating a property value that is not attached")
	}
	h := v.host
	v.mu.Unlock()

	h.activateValue(context.Background(), v)
}

// Deactivate demotes the active provider; the property transiently has no
// active provider afterwards. Only legal while active.
func (v *Value[T]) Deactivate() {
	v.mu.Lock()
	if v.status != StatusActive {
		v.mu.Unlock()
		panic("sigslot: deactivating a property value that is not active")
	}
	h := v.host
	v.mu.Unlock()

	h.deactivateValue(v)
}

// Evaluate computes the provider's value. Only legal while active; each
// call may recompute. Avoiding reentrant evaluation is the source's
// responsibility.
func (v *Value[T]) Evaluate() T {
	v.mu.Lock()
	if v.status != StatusActive && v.status != StatusEvaluating {
		v.mu.Unlock()
		panic("sigslot: evaluating a property value that is not active")
	}
	prev := v.status
	v.status = StatusEvaluating
	source := v.source
	v.mu.Unlock()

	result := source.Evaluate()

	v.mu.Lock()
	// Detach during evaluation wins; don't resurrect the status.
	if v.status == StatusEvaluating {
		v.status = prev
	}
	v.mu.Unlock()
	return result
}

// Set writes a value into the provider. If the provider is active and the
// write changed the value, the property's changed signal fires.
func (v *Value[T]) Set(value T) {
	v.set(context.Background(), value)
}

func (v *Value[T]) set(ctx context.Context, value T) {
	v.mu.Lock()
	source := v.source
	h := v.host
	v.mu.Unlock()

	if !source.Update(value) {
		return
	}
	if h != nil && v.IsActive() {
		h.notifySet(ctx, v, value)
	}
}
