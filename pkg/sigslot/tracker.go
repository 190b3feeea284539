package sigslot

import (
	"sync"

	"github.com/kestrelworks/sigslot/pkg/sigslot/lifetime"
)

// Tracker guards the lifetime of an external object a slot depends on.
//
// Retain takes a temporary hold on the tracked object so it cannot be
// destroyed between the liveness check and the slot's activation. Every
// successful Retain must be paired with a Release. Detach tells the tracker
// its slot is going away, so push-based trackers can drop their back
// reference.
type Tracker interface {
	// Retain takes a hold on the tracked object.
	// Returns false if the object can no longer be held.
	Retain() bool

	// Release drops one hold taken by Retain.
	Release()

	// Detach releases the tracker's link to the given slot.
	Detach(s *Slot)
}

// handleTracker tracks an object owned through lifetime handles.
// It holds the object weakly; Retain upgrades to a strong handle for the
// duration of the check or call.
type handleTracker[T any] struct {
	mu   sync.Mutex
	weak lifetime.Weak[T]
	held []lifetime.Shared[T]
}

// TrackShared returns a tracker for a shared-owned object.
// The tracker itself does not keep the object alive.
func TrackShared[T any](h lifetime.Shared[T]) Tracker {
	return &handleTracker[T]{weak: h.Weak()}
}

// TrackWeak returns a tracker for a weak-owned object.
func TrackWeak[T any](w lifetime.Weak[T]) Tracker {
	return &handleTracker[T]{weak: w}
}

func (t *handleTracker[T]) Retain() bool {
	strong, ok := t.weak.Lock()
	if !ok {
		return false
	}
	t.mu.Lock()
	t.held = append(t.held, strong)
	t.mu.Unlock()
	return true
}

func (t *handleTracker[T]) Release() {
	t.mu.Lock()
	n := len(t.held)
	if n == 0 {
		t.mu.Unlock()
		return
	}
	strong := t.held[n-1]
	t.held = t.held[:n-1]
	t.mu.Unlock()
	strong.Release()
}

// Detach is a no-op; handle trackers are pull-based.
func (t *handleTracker[T]) Detach(_ *Slot) {}

// TrackableObject is the explicit attach/detach lifetime contract. Any object
// implementing it can be bound to a connection; the object must disconnect
// all attached slots during its own teardown. This is the only push-based
// tracking path.
type TrackableObject interface {
	// AttachSlot registers a slot with the object.
	AttachSlot(s *Slot)

	// DetachSlot removes a previously attached slot.
	DetachSlot(s *Slot)
}

// Trackable is a ready-made TrackableObject implementation. Embed it in any
// type whose destruction should disconnect its bound slots, and call Close
// from the owner's teardown.
type Trackable struct {
	mu     sync.Mutex
	slots  []*Slot
	closed bool
}

// AttachSlot registers a slot with the trackable.
func (t *Trackable) AttachSlot(s *Slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.slots = append(t.slots, s)
}

// DetachSlot removes a previously attached slot.
func (t *Trackable) DetachSlot(s *Slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, attached := range t.slots {
		if attached == s {
			t.slots = append(t.slots[:i], t.slots[i+1:]...)
			return
		}
	}
}

// Alive reports whether the trackable has not been closed.
func (t *Trackable) Alive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Close disconnects every attached slot. Call it from the owning object's
// teardown; it is idempotent.
func (t *Trackable) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	slots := t.slots
	t.slots = nil
	t.mu.Unlock()

	// Disconnect outside the trackable lock; Slot.Disconnect calls back
	// into DetachSlot.
	for _, s := range slots {
		s.Disconnect()
	}
}

// aliveChecker is implemented by trackable objects that can also be polled
// for liveness (Trackable implements it). Objects without it are push-only.
type aliveChecker interface {
	Alive() bool
}

// trackableTracker adapts a TrackableObject to the Tracker interface.
type trackableTracker struct {
	obj TrackableObject
}

// TrackObject returns a tracker for an object implementing the explicit
// attach/detach contract. The slot is attached to the object when the
// tracker is added via Connection.Bind or Slot.AddTracker.
func TrackObject(obj TrackableObject) Tracker {
	return &trackableTracker{obj: obj}
}

func (t *trackableTracker) Retain() bool {
	if checker, ok := t.obj.(aliveChecker); ok {
		return checker.Alive()
	}
	return true
}

func (t *trackableTracker) Release() {}

func (t *trackableTracker) Detach(s *Slot) {
	t.obj.DetachSlot(s)
}
