/*
Package sigslot provides in-process publish/subscribe with lifetime-tracked
callbacks: signals, slots, connections and trackers.

# Overview

sigslot is a Go library for wiring independent components together without
coupling them. A component exposes a Signal; other components connect
callbacks ("slots") to it and receive every emitted value synchronously, in
connection order, on the emitting goroutine. Slots whose owning object has
died are detected and dropped automatically instead of being invoked.

The library provides:
  - Type-safe generic signals (Signal[T])
  - Weak, revocable connection handles
  - Automatic disconnection of dead receivers via trackers
  - Re-entrancy safe dispatch (nested emission is a no-op)
  - OpenTelemetry integration for observability

# Basic Usage

Create a signal, connect slots, emit:

	sig := sigslot.New[string](sigslot.WithName("user.renamed"))

	conn := sig.Connect(func(name string) {
	    fmt.Println("renamed to", name)
	})

	invoked := sig.Emit(ctx, "gopher") // invoked == 1

	conn.Disconnect()

# Lifetime tracking

A connection can be bound to the lifetime of other objects. When any bound
object dies, the slot disconnects instead of firing:

	owner := lifetime.New(&Widget{})
	conn := sigslot.BindShared(sig.Connect(widgetChanged), owner)

	owner.Release()    // widget gone
	sig.Emit(ctx, "x") // slot skipped and disconnected, returns 0

Method connections track their receiver automatically:

	conn := sigslot.ConnectMethod(sig, owner, (*Widget).OnRename)

# Dispatch semantics

Emit is strictly synchronous. The registry is snapshotted before any slot
runs, and no lock is held across a callback, so slots may connect and
disconnect (themselves or each other) freely mid-dispatch. Emitting the same
signal from inside one of its own slots returns 0 and does nothing; there is
no queue.

# Properties

The property subpackage builds a reactive value layer on top of signals: a
stack of interchangeable value providers with exactly one active at a time,
republishing every change of the resolved value through a Changed signal.
See package property.
*/
package sigslot
