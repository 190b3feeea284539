package sigslot

import (
	"context"

	"github.com/kestrelworks/sigslot/pkg/sigslot/lifetime"
)

// Invocation carries the context of an in-flight dispatch into a slot
// callback: the emit context and the connection currently being invoked.
// It is passed explicitly instead of being published through shared state,
// so callbacks can disconnect themselves without global bookkeeping.
type Invocation struct {
	ctx  context.Context
	conn Connection
}

// Context returns the context the emit was called with.
func (in Invocation) Context() context.Context {
	if in.ctx == nil {
		return context.Background()
	}
	return in.ctx
}

// Connection returns the connection being invoked. Disconnecting it from
// inside the callback is well-defined: the current call completes and the
// slot is never invoked again.
func (in Invocation) Connection() Connection {
	return in.conn
}

// funcSlot invokes a plain function.
type funcSlot[T any] struct {
	fn func(Invocation, T)
}

func (s *funcSlot[T]) activate(inv Invocation, arg any) error {
	s.fn(inv, arg.(T))
	return nil
}

func (s *funcSlot[T]) valid() bool { return true }

// methodSlot invokes a method on a possibly-dead target. The target is held
// weakly; a target that no longer resolves at activation time raises the
// dead-receiver condition, which disconnects the slot.
type methodSlot[R any, T any] struct {
	target lifetime.Weak[R]
	method func(*R, T)
}

func (s *methodSlot[R, T]) activate(inv Invocation, arg any) error {
	strong, ok := s.target.Lock()
	if !ok {
		return ErrDeadReceiver
	}
	defer strong.Release()
	receiver := strong.Get()
	if receiver == nil {
		return ErrDeadReceiver
	}
	s.method(receiver, arg.(T))
	return nil
}

func (s *methodSlot[R, T]) valid() bool { return s.target.Alive() }

// signalSlot forwards emission to another signal. The forwarding slot is
// attached to the receiver's lifetime guard, so closing the receiver
// disconnects it.
type signalSlot[T any] struct {
	receiver *Signal[T]
}

func (s *signalSlot[T]) activate(inv Invocation, arg any) error {
	if s.receiver.isClosed() {
		return ErrDeadReceiver
	}
	s.receiver.Emit(inv.Context(), arg.(T))
	return nil
}

func (s *signalSlot[T]) valid() bool {
	return !s.receiver.isClosed()
}
