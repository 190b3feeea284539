package sigslot

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// slotBehavior is the capability interface implemented by the closed set of
// slot variants: function slots, method slots and signal-forwarding slots.
// Implementations are immutable after construction; an activation in flight
// when the slot disconnects completes against the original callable.
type slotBehavior interface {
	// activate invokes the wrapped callable. arg is the boxed payload.
	// Returning ErrDeadReceiver disconnects the slot.
	activate(inv Invocation, arg any) error

	// valid reports variant-specific liveness, checked after the trackers.
	valid() bool
}

// Slot is a registered, lifetime-tracked callback unit. Slots are created by
// the connect calls on a Signal; client code observes them through
// Connection handles and trackers.
type Slot struct {
	id        uuid.UUID
	connected atomic.Bool // monotonic: true -> false only
	enabled   atomic.Bool

	mu       sync.Mutex
	trackers []Tracker
	behavior slotBehavior
}

func newSlot(behavior slotBehavior) *Slot {
	s := &Slot{
		id:       uuid.New(),
		behavior: behavior,
	}
	s.connected.Store(true)
	s.enabled.Store(true)
	return s
}

// ID returns the slot's identity.
func (s *Slot) ID() uuid.UUID {
	return s.id
}

// IsConnected reports whether the slot is still connected.
// Lock-free; the flag only ever transitions from true to false.
func (s *Slot) IsConnected() bool {
	return s.connected.Load()
}

// IsEnabled reports whether the slot participates in dispatch.
func (s *Slot) IsEnabled() bool {
	return s.enabled.Load()
}

// SetEnabled toggles dispatch participation without disconnecting. A
// disabled slot is skipped by Emit and not counted.
func (s *Slot) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// AddTracker binds a tracker to the slot. Only valid while the slot is
// connected; binding to a disconnected slot is a programming error.
func (s *Slot) AddTracker(tracker Tracker) {
	if !s.IsConnected() {
		panic("sigslot: cannot bind tracker to a disconnected slot")
	}
	s.mu.Lock()
	s.trackers = append(s.trackers, tracker)
	s.mu.Unlock()

	if tt, ok := tracker.(*trackableTracker); ok {
		tt.obj.AttachSlot(s)
	}
}

// IsValid checks every tracker plus the variant-specific liveness. Each
// tracker is retained for the duration of the check so the tracked object
// cannot be destroyed mid-check; all holds are released before returning.
func (s *Slot) IsValid() bool {
	s.mu.Lock()
	trackers := make([]Tracker, len(s.trackers))
	copy(trackers, s.trackers)
	s.mu.Unlock()

	for i, tracker := range trackers {
		if !tracker.Retain() {
			for j := 0; j < i; j++ {
				trackers[j].Release()
			}
			return false
		}
	}
	for _, tracker := range trackers {
		tracker.Release()
	}
	return s.behavior.valid()
}

// Disconnect permanently disconnects the slot. Idempotent, safe to call
// concurrently and safe to call from within the slot's own activation (the
// slot's lock is never held across the user callback).
func (s *Slot) Disconnect() {
	if !s.connected.CompareAndSwap(true, false) {
		return
	}

	s.mu.Lock()
	trackers := s.trackers
	s.trackers = nil
	s.mu.Unlock()

	for _, tracker := range trackers {
		tracker.Detach(s)
	}
}

// retainTrackers holds every tracker for the duration of an activation.
// Returns false (retaining nothing) if any tracked object is gone.
func (s *Slot) retainTrackers() ([]Tracker, bool) {
	s.mu.Lock()
	trackers := make([]Tracker, len(s.trackers))
	copy(trackers, s.trackers)
	s.mu.Unlock()

	for i, tracker := range trackers {
		if !tracker.Retain() {
			for j := 0; j < i; j++ {
				trackers[j].Release()
			}
			return nil, false
		}
	}
	return trackers, true
}

func releaseTrackers(trackers []Tracker) {
	for _, tracker := range trackers {
		tracker.Release()
	}
}
