package sigslot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/kestrelworks/sigslot/pkg/sigslot/lifetime"
	"github.com/kestrelworks/sigslot/pkg/sigslot/observability"
)

// Void is the payload type for signals that carry no argument.
type Void = struct{}

// Signal is an ordered registry of slots plus synchronous dispatch. Slots
// are invoked in connection order on the emitting goroutine; there is no
// queue, scheduler or internal thread.
//
// The registry holds the only strong references to its slots. Connections
// and trackers hold weak references, so destroying a signal (Close) destroys
// its slots once no activation is in flight.
type Signal[T any] struct {
	settings settings

	mu    sync.Mutex // registry lock
	slots []lifetime.Shared[Slot]
	ids   mapset.Set[uuid.UUID]

	emitting atomic.Bool // reentrancy guard
	blocked  atomic.Bool
	closed   atomic.Bool

	// guard lets other signals track this signal's lifetime when it is
	// connected as a forwarding receiver.
	guard Trackable
}

// New creates a signal carrying payloads of type T.
func New[T any](opts ...Option) *Signal[T] {
	s := &Signal[T]{
		settings: defaultSettings(),
		ids:      mapset.NewSet[uuid.UUID](),
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	s.blocked.Store(s.settings.blocked)
	return s
}

// Name returns the signal's name.
func (s *Signal[T]) Name() string {
	return s.settings.name
}

// Len returns the number of connected slots currently in the registry.
// Entries for already disconnected slots are not counted.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, entry := range s.slots {
		if slot := entry.Get(); slot != nil && slot.IsConnected() {
			n++
		}
	}
	return n
}

// Block suppresses dispatch without disconnecting anyone; Emit returns 0
// while blocked.
func (s *Signal[T]) Block() { s.blocked.Store(true) }

// Unblock re-enables dispatch.
func (s *Signal[T]) Unblock() { s.blocked.Store(false) }

// IsBlocked reports whether dispatch is suppressed.
func (s *Signal[T]) IsBlocked() bool { return s.blocked.Load() }

func (s *Signal[T]) isClosed() bool { return s.closed.Load() }

// Connect registers a plain function and returns its connection.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	if fn == nil {
		panic("sigslot: slot function cannot be nil")
	}
	return s.ConnectInvocation(func(_ Invocation, v T) { fn(v) })
}

// ConnectInvocation registers a function that also receives the invocation
// context: the emit context and the connection currently being invoked.
func (s *Signal[T]) ConnectInvocation(fn func(Invocation, T)) Connection {
	if fn == nil {
		panic("sigslot: slot function cannot be nil")
	}
	return s.addSlot(newSlot(&funcSlot[T]{fn: fn}), "func")
}

// ConnectSignal registers another signal as a forwarding receiver: emitting
// this signal re-emits on the receiver. The forwarding slot tracks the
// receiver's lifetime, so closing the receiver disconnects it.
func (s *Signal[T]) ConnectSignal(receiver *Signal[T]) Connection {
	if receiver == nil {
		panic("sigslot: receiver signal cannot be nil")
	}
	// The tracker goes on before the slot is visible in the registry, so a
	// receiver Close can never slip between registration and tracking.
	slot := newSlot(&signalSlot[T]{receiver: receiver})
	slot.AddTracker(TrackObject(&receiver.guard))
	return s.addSlot(slot, "signal")
}

// ConnectMethod registers a method call on a shared-owned target. The target
// is held weakly; if it dies before an emit, the slot is disconnected
// automatically and the emit's invoked count excludes it.
func ConnectMethod[T any, R any](s *Signal[T], target lifetime.Shared[R], method func(*R, T)) Connection {
	if method == nil {
		panic("sigslot: slot method cannot be nil")
	}
	slot := newSlot(&methodSlot[R, T]{target: target.Weak(), method: method})
	conn := s.addSlot(slot, "method")
	slot.AddTracker(TrackShared(target))
	return conn
}

// addSlot appends a slot to the registry and hands back its connection.
func (s *Signal[T]) addSlot(slot *Slot, kind string) Connection {
	if s.isClosed() {
		panic("sigslot: connect on a closed signal")
	}
	shared := lifetime.New(slot)

	s.mu.Lock()
	if !s.ids.Add(slot.ID()) {
		s.mu.Unlock()
		panic("sigslot: duplicate slot identity in registry")
	}
	s.slots = append(s.slots, shared)
	s.mu.Unlock()

	s.settings.metrics.RecordConnect(context.Background(), s.settings.name, kind)
	observability.LogConnect(s.settings.logger, s.settings.name, slot.ID().String(), kind)

	return Connection{sender: s, slot: shared.Weak()}
}

// forget removes a slot's registry entry. The slot itself is expected to be
// disconnected already.
func (s *Signal[T]) forget(slot *Slot) {
	s.mu.Lock()
	for i, entry := range s.slots {
		if entry.Get() == slot {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			s.ids.Remove(slot.ID())
			s.mu.Unlock()
			entry.Release()
			s.settings.metrics.RecordDisconnect(context.Background(), s.settings.name)
			observability.LogDisconnect(s.settings.logger, s.settings.name, slot.ID().String())
			return
		}
	}
	s.mu.Unlock()
}

// Disconnect resolves a connection and disconnects its slot.
func (s *Signal[T]) Disconnect(conn Connection) {
	slot := conn.Get()
	if slot == nil {
		s.logSlotError("disconnect", uuid.Nil, ErrDanglingConnection)
		return
	}
	slot.Disconnect()
	s.forget(slot)
}

// logSlotError records a recovered per-slot condition. These never surface to
// the caller; they only show up in debug logs.
func (s *Signal[T]) logSlotError(op string, id uuid.UUID, err error) {
	if s.settings.logger == nil {
		return
	}
	serr := &SlotError{SignalName: s.settings.name, SlotID: id, Op: op, Err: err}
	s.settings.logger.Debug("slot skipped", slog.String("reason", serr.Error()))
}

// Emit dispatches value to every connected slot, in connection order, on the
// calling goroutine. It returns the number of slots actually invoked.
//
// Emit returns 0 immediately when the signal is blocked or when a dispatch
// is already in progress on this signal; nested emission is a no-op, never
// queued or deferred.
//
// No slot failure is surfaced to the caller: a dead receiver disconnects
// that slot and reduces the count, nothing more.
func (s *Signal[T]) Emit(ctx context.Context, value T) int {
	if s.blocked.Load() {
		return 0
	}
	if !s.emitting.CompareAndSwap(false, true) {
		return 0
	}
	defer s.emitting.Store(false)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := s.settings.spans.StartEmitSpan(ctx, s.settings.name)
	start := time.Now()

	// Prune dead entries and snapshot the survivors under the registry
	// lock. The lock is released before anything is invoked, so a slot may
	// connect or disconnect freely from inside its own activation.
	s.mu.Lock()
	kept := s.slots[:0]
	for _, entry := range s.slots {
		slot := entry.Get()
		if slot == nil || !slot.IsConnected() {
			if slot != nil {
				s.ids.Remove(slot.ID())
			}
			entry.Release()
			continue
		}
		kept = append(kept, entry)
	}
	s.slots = kept
	snapshot := make([]lifetime.Shared[Slot], 0, len(kept))
	for _, entry := range kept {
		snapshot = append(snapshot, entry.Clone())
	}
	s.mu.Unlock()

	count := 0
	for _, entry := range snapshot {
		slot := entry.Get()
		if slot == nil {
			entry.Release()
			continue
		}

		// Recheck under the slot's own lock, then release it before the
		// callback runs; holding any lock across user code invites
		// deadlock.
		slot.mu.Lock()
		connected := slot.connected.Load()
		slot.mu.Unlock()
		if !connected {
			s.logSlotError("dispatch", slot.ID(), ErrSlotDisconnected)
			entry.Release()
			continue
		}
		if !slot.IsEnabled() {
			entry.Release()
			continue
		}

		trackers, alive := slot.retainTrackers()
		if !alive || !slot.behavior.valid() {
			if alive {
				releaseTrackers(trackers)
			}
			s.dropDeadReceiver(ctx, slot)
			entry.Release()
			continue
		}

		inv := Invocation{ctx: ctx, conn: Connection{sender: s, slot: entry.Weak()}}
		err := slot.behavior.activate(inv, value)
		releaseTrackers(trackers)
		if err != nil {
			if errors.Is(err, ErrDeadReceiver) {
				s.dropDeadReceiver(ctx, slot)
			}
			entry.Release()
			continue
		}

		count++
		entry.Release()
	}

	duration := time.Since(start)
	s.settings.metrics.RecordEmit(ctx, s.settings.name, count, duration)
	observability.LogEmit(s.settings.logger, s.settings.name, count, float64(duration.Microseconds())/1000.0)
	s.settings.spans.EndSpanWithError(span, nil)

	return count
}

// dropDeadReceiver disconnects a slot whose target no longer resolves.
// Recovered locally; the emitting caller only sees a lower count.
func (s *Signal[T]) dropDeadReceiver(ctx context.Context, slot *Slot) {
	slot.Disconnect()
	s.forget(slot)
	s.settings.metrics.RecordDeadReceiver(ctx, s.settings.name)
	observability.LogDeadReceiver(s.settings.logger, s.settings.name, slot.ID().String())
}

// Close drains the registry, disconnecting every slot, and invalidates all
// forwarding connections from other signals. A closed signal rejects new
// connections; Emit on it returns 0.
func (s *Signal[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.Block()

	s.mu.Lock()
	entries := s.slots
	s.slots = nil
	s.ids.Clear()
	s.mu.Unlock()

	for _, entry := range entries {
		if slot := entry.Get(); slot != nil {
			slot.Disconnect()
		}
		entry.Release()
	}

	s.guard.Close()
}
