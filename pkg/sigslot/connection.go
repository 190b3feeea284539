package sigslot

import (
	"github.com/kestrelworks/sigslot/pkg/sigslot/lifetime"
)

// Sender identifies the signal a connection belongs to. It is implemented by
// every Signal instantiation.
type Sender interface {
	// Name returns the signal's name.
	Name() string

	forget(s *Slot)
}

// Connection is a weak, revocable handle to a slot. It never keeps the slot
// alive; once the slot is disconnected or destroyed the connection is
// permanently invalid.
//
// The zero Connection is invalid.
type Connection struct {
	sender Sender
	slot   lifetime.Weak[Slot]
}

// IsValid reports whether the connection still refers to a live, connected
// slot.
func (c Connection) IsValid() bool {
	strong, ok := c.slot.Lock()
	if !ok {
		return false
	}
	defer strong.Release()
	slot := strong.Get()
	return slot != nil && slot.IsConnected()
}

// Get resolves the connection to its slot, or nil if the slot has been
// destroyed.
func (c Connection) Get() *Slot {
	strong, ok := c.slot.Lock()
	if !ok {
		return nil
	}
	defer strong.Release()
	return strong.Get()
}

// Sender returns the signal this connection was created by, or nil for the
// zero connection.
func (c Connection) Sender() Sender {
	return c.sender
}

// Disconnect disconnects the slot and removes it from the sender's registry.
// Subsequent IsValid calls return false. Disconnecting an already invalid
// connection is a no-op.
func (c Connection) Disconnect() {
	strong, ok := c.slot.Lock()
	if !ok {
		return
	}
	slot := strong.Get()
	strong.Release()
	if slot == nil {
		return
	}
	slot.Disconnect()
	if c.sender != nil {
		c.sender.forget(slot)
	}
}

// Bind binds trackable objects to the connection's slot and returns the
// connection for chaining. The slot disconnects as soon as any bound object
// is torn down.
func (c Connection) Bind(objects ...TrackableObject) Connection {
	slot := c.Get()
	if slot == nil {
		panic("sigslot: cannot bind to an invalid connection")
	}
	for _, obj := range objects {
		slot.AddTracker(TrackObject(obj))
	}
	return c
}

// BindShared binds a shared-owned object's lifetime to the connection's
// slot. The slot disconnects once the last strong handle to the object is
// released.
func BindShared[T any](c Connection, h lifetime.Shared[T]) Connection {
	slot := c.Get()
	if slot == nil {
		panic("sigslot: cannot bind to an invalid connection")
	}
	slot.AddTracker(TrackShared(h))
	return c
}

// BindWeak binds a weak-owned object's lifetime to the connection's slot.
func BindWeak[T any](c Connection, w lifetime.Weak[T]) Connection {
	slot := c.Get()
	if slot == nil {
		panic("sigslot: cannot bind to an invalid connection")
	}
	slot.AddTracker(TrackWeak(w))
	return c
}
