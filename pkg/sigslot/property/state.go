package property

import (
	"context"
	"sync"
)

// State is a read-only property with a single value provider. Clients read
// it through Get and observe it through Changed; writes happen through the
// provider handed to NewState, which the owning component keeps private.
type State[T any] struct {
	core[T]

	mu    sync.Mutex
	value *Value[T]
}

// NewState creates a state property around its sole provider. The provider
// is attached and active for the lifetime of the state.
func NewState[T any](value *Value[T], opts ...Option) *State[T] {
	if value == nil {
		panic("sigslot: state property requires a value provider")
	}
	s := &State[T]{core: newCore[T](opts)}
	value.Attach(s)
	return s
}

// Get evaluates the provider and returns the state's value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	value := s.value
	s.mu.Unlock()
	return value.Evaluate()
}

// attachValue adopts the sole provider. A second attach is a programming
// error.
func (s *State[T]) attachValue(_ context.Context, v *Value[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != nil {
		panic("sigslot: state property already has a value provider")
	}
	s.value = v
	return true
}

// detachValue rejects detachment; a state keeps its provider for life.
func (s *State[T]) detachValue(_ context.Context, _ *Value[T]) {
	panic("sigslot: cannot detach the value provider of a state property")
}

// activateValue is a no-op; the sole provider is always active.
func (s *State[T]) activateValue(_ context.Context, _ *Value[T]) {}

// deactivateValue rejects deactivation of the sole provider.
func (s *State[T]) deactivateValue(_ *Value[T]) {
	panic("sigslot: cannot deactivate the value provider of a state property")
}

// notifySet republishes a write to the provider.
func (s *State[T]) notifySet(ctx context.Context, _ *Value[T], value T) {
	s.changed.Emit(ctx, value)
}

// announce fires the changed signal with v's value.
func (s *State[T]) announce(ctx context.Context, v *Value[T], reason string) {
	s.switched(ctx, reason)
	s.changed.Emit(ctx, v.Evaluate())
}
