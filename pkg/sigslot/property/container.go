package property

import "sync"

// Container is a reentrancy-safe element container: elements are removed by
// tombstoning in place rather than physically, so a callback running during
// iteration can invalidate any entry without corrupting the indices of
// entries not yet visited.
//
// A null-check predicate identifies tombstoned entries; the invalidator hook
// runs exactly once per entry when it is logically removed. Physical
// compaction happens lazily, at the start of the next top-level iteration,
// never during one.
type Container[T any] struct {
	mu         sync.Mutex
	items      []T
	depth      int // iteration nesting
	dirty      bool
	isNull     func(T) bool
	invalidate func(T)
}

// NewContainer creates a container with the given null predicate and
// invalidator hook. The hook may call back into the container.
func NewContainer[T any](isNull func(T) bool, invalidate func(T)) *Container[T] {
	if isNull == nil {
		panic("sigslot: container requires a null-check predicate")
	}
	return &Container[T]{
		isNull:     isNull,
		invalidate: invalidate,
	}
}

// Append adds an element. Elements appended while an iteration is in
// progress are visited by that iteration.
func (c *Container[T]) Append(v T) {
	c.mu.Lock()
	c.items = append(c.items, v)
	c.mu.Unlock()
}

// Len returns the number of live (non-tombstoned) elements.
func (c *Container[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.items {
		if !c.isNull(v) {
			n++
		}
	}
	return n
}

// Snapshot returns the live elements in insertion order.
func (c *Container[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, 0, len(c.items))
	for _, v := range c.items {
		if !c.isNull(v) {
			out = append(out, v)
		}
	}
	return out
}

// Last returns the last live element matching the predicate, in insertion
// order. A nil predicate matches everything.
func (c *Container[T]) Last(match func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.items) - 1; i >= 0; i-- {
		v := c.items[i]
		if c.isNull(v) {
			continue
		}
		if match == nil || match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// ForEach visits every live element in insertion order. Returning false from
// fn stops the iteration. The container lock is not held while fn runs, so
// fn may append or invalidate freely; entries invalidated before being
// visited are skipped.
func (c *Container[T]) ForEach(fn func(T) bool) {
	c.mu.Lock()
	if c.depth == 0 && c.dirty {
		c.compactLocked()
	}
	c.depth++
	for i := 0; i < len(c.items); i++ {
		v := c.items[i]
		if c.isNull(v) {
			continue
		}
		c.mu.Unlock()
		cont := fn(v)
		c.mu.Lock()
		if !cont {
			break
		}
	}
	c.depth--
	c.mu.Unlock()
}

// Invalidate tombstones the first live element matching the predicate.
// The entry is zeroed in place, then the invalidator hook runs on the
// extracted element, outside the container lock. Returns whether a match
// was found.
func (c *Container[T]) Invalidate(match func(T) bool) bool {
	c.mu.Lock()
	for i, v := range c.items {
		if c.isNull(v) || !match(v) {
			continue
		}
		var zero T
		c.items[i] = zero
		c.dirty = true
		c.mu.Unlock()
		if c.invalidate != nil {
			c.invalidate(v)
		}
		return true
	}
	c.mu.Unlock()
	return false
}

// compactLocked removes tombstones. Caller holds the lock and guarantees no
// iteration is in progress.
func (c *Container[T]) compactLocked() {
	kept := c.items[:0]
	for _, v := range c.items {
		if !c.isNull(v) {
			kept = append(kept, v)
		}
	}
	// Zero the tail so tombstoned references do not pin their referents.
	for i := len(kept); i < len(c.items); i++ {
		var zero T
		c.items[i] = zero
	}
	c.items = kept
	c.dirty = false
}
