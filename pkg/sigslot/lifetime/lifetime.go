// Package lifetime provides the two ownership kinds the sigslot boundary
// requires: refcounted shared handles and weak handles that resolve to nil
// once the last shared handle is released.
//
// The handles are deterministic: liveness is decided by explicit Release
// calls, not by the garbage collector. That makes "target died before emit"
// scenarios reproducible in tests.
package lifetime

import "sync"

// cell is the shared control block behind all handles to one value.
type cell[T any] struct {
	mu     sync.Mutex
	strong int
	value  *T
}

// Shared is a refcounted strong handle to a value of type T.
// The zero Shared is dead: Get returns nil and Weak().Lock() fails.
type Shared[T any] struct {
	c *cell[T]
}

// New adopts a value and returns the first strong handle to it.
func New[T any](value *T) Shared[T] {
	return Shared[T]{c: &cell[T]{strong: 1, value: value}}
}

// Get returns the held value, or nil if the handle is dead.
func (s Shared[T]) Get() *T {
	if s.c == nil {
		return nil
	}
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.value
}

// Alive reports whether the handle still holds a live value.
func (s Shared[T]) Alive() bool {
	return s.Get() != nil
}

// Clone returns a new strong handle to the same value.
// Cloning a dead handle returns a dead handle.
func (s Shared[T]) Clone() Shared[T] {
	if s.c == nil {
		return Shared[T]{}
	}
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.value == nil {
		return Shared[T]{}
	}
	s.c.strong++
	return s
}

// Release drops this strong handle. When the last strong handle is
// released the value is dropped and all weak handles stop resolving.
// Releasing a dead handle is a no-op.
func (s Shared[T]) Release() {
	if s.c == nil {
		return
	}
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.value == nil {
		return
	}
	s.c.strong--
	if s.c.strong <= 0 {
		s.c.value = nil
	}
}

// Weak returns a non-owning handle to the same value.
func (s Shared[T]) Weak() Weak[T] {
	return Weak[T]{c: s.c}
}

// Weak is a non-owning handle. It never keeps the value alive.
type Weak[T any] struct {
	c *cell[T]
}

// Lock upgrades the weak handle to a strong one. The returned handle
// must be Released by the caller. Lock fails once the value is dropped.
func (w Weak[T]) Lock() (Shared[T], bool) {
	if w.c == nil {
		return Shared[T]{}, false
	}
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	if w.c.value == nil {
		return Shared[T]{}, false
	}
	w.c.strong++
	return Shared[T]{c: w.c}, true
}

// Alive reports whether the referent has not been dropped yet.
func (w Weak[T]) Alive() bool {
	if w.c == nil {
		return false
	}
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.value != nil
}
