package sigslot

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelworks/sigslot/pkg/sigslot/lifetime"
)

func TestEmitInvokesInConnectionOrder(t *testing.T) {
	sig := New[Void](WithName("order"))
	defer sig.Close()

	var seq []int
	sig.Connect(func(Void) { seq = append(seq, 1) })
	sig.Connect(func(Void) { seq = append(seq, 2) })
	sig.Connect(func(Void) { seq = append(seq, 3) })

	invoked := sig.Emit(context.Background(), Void{})

	assert.Equal(t, 3, invoked)
	assert.Equal(t, []int{1, 2, 3}, seq)
}

func TestEmitPassesValue(t *testing.T) {
	sig := New[string]()
	defer sig.Close()

	var got string
	sig.Connect(func(v string) { got = v })

	invoked := sig.Emit(context.Background(), "hello")

	assert.Equal(t, 1, invoked)
	assert.Equal(t, "hello", got)
}

func TestEmitWithNoSlots(t *testing.T) {
	sig := New[int]()
	defer sig.Close()

	assert.Equal(t, 0, sig.Emit(context.Background(), 7))
}

func TestNestedEmitReturnsZero(t *testing.T) {
	sig := New[int](WithName("nested"))
	defer sig.Close()

	calls := 0
	var nested int
	sig.Connect(func(v int) {
		calls++
		nested = sig.Emit(context.Background(), v+1)
	})

	invoked := sig.Emit(context.Background(), 1)

	assert.Equal(t, 1, invoked)
	assert.Equal(t, 1, calls, "the nested emit must not re-enter the slot")
	assert.Equal(t, 0, nested)
}

func TestBlockSuppressesDispatch(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	calls := 0
	sig.Connect(func(Void) { calls++ })

	sig.Block()
	assert.True(t, sig.IsBlocked())
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 0, calls)

	sig.Unblock()
	assert.Equal(t, 1, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 1, calls)
}

func TestWithBlockedOption(t *testing.T) {
	sig := New[Void](WithBlocked())
	defer sig.Close()

	require.True(t, sig.IsBlocked())
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
}

func TestDisconnectRemovesSlot(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	calls := 0
	conn := sig.Connect(func(Void) { calls++ })
	require.True(t, conn.IsValid())
	assert.Equal(t, 1, sig.Len())

	conn.Disconnect()
	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, sig.Len())
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 0, calls)
}

func TestDisconnectMidDispatch(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	var seq []string
	var connB Connection
	sig.Connect(func(Void) {
		seq = append(seq, "a")
		connB.Disconnect()
	})
	connB = sig.Connect(func(Void) { seq = append(seq, "b") })
	sig.Connect(func(Void) { seq = append(seq, "c") })

	invoked := sig.Emit(context.Background(), Void{})

	// The second slot was disconnected before its turn came.
	assert.Equal(t, 2, invoked)
	assert.Equal(t, []string{"a", "c"}, seq)
}

func TestSlotDisconnectsItself(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	calls := 0
	sig.ConnectInvocation(func(inv Invocation, _ Void) {
		calls++
		inv.Connection().Disconnect()
	})

	assert.Equal(t, 1, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 1, calls)
}

func TestConnectDuringDispatchNotInvokedThisRound(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	lateCalls := 0
	sig.Connect(func(Void) {
		sig.Connect(func(Void) { lateCalls++ })
	})

	assert.Equal(t, 1, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 0, lateCalls, "slots connected mid-dispatch wait for the next emit")

	assert.Equal(t, 2, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 1, lateCalls)
}

func TestInvocationCarriesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	sig := New[Void]()
	defer sig.Close()

	var got any
	sig.ConnectInvocation(func(inv Invocation, _ Void) {
		got = inv.Context().Value(key{})
	})

	sig.Emit(ctx, Void{})
	assert.Equal(t, "v", got)
}

func TestEmitNilContext(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	var ctx context.Context
	sig.ConnectInvocation(func(inv Invocation, _ Void) {
		ctx = inv.Context()
	})

	sig.Emit(nil, Void{}) //nolint:staticcheck // nil context is part of the contract
	assert.NotNil(t, ctx)
}

type counter struct {
	hits int
}

func (c *counter) bump(delta int) { c.hits += delta }

func TestConnectMethodInvokesReceiver(t *testing.T) {
	sig := New[int]()
	defer sig.Close()

	target := lifetime.New(&counter{})
	defer target.Release()

	ConnectMethod(sig, target, (*counter).bump)

	assert.Equal(t, 1, sig.Emit(context.Background(), 5))
	assert.Equal(t, 5, target.Get().hits)
}

func TestDeadReceiverIsDropped(t *testing.T) {
	sig := New[int]()
	defer sig.Close()

	target := lifetime.New(&counter{})
	conn := ConnectMethod(sig, target, (*counter).bump)

	target.Release()

	// The dead receiver must never surface as an error; it just reduces
	// the count and disconnects.
	assert.Equal(t, 0, sig.Emit(context.Background(), 1))
	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, sig.Len())
}

func TestBindSharedDisconnectsOnRelease(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	owner := lifetime.New(&counter{})
	calls := 0
	conn := BindShared(sig.Connect(func(Void) { calls++ }), owner)

	assert.Equal(t, 1, sig.Emit(context.Background(), Void{}))

	owner.Release()
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
	assert.False(t, conn.IsValid())
	assert.Equal(t, 1, calls)
}

type doc struct {
	Trackable
	title string
}

func TestTrackableCloseDisconnects(t *testing.T) {
	sig := New[string]()
	defer sig.Close()

	d := &doc{}
	conn := sig.Connect(func(title string) { d.title = title }).Bind(d)

	assert.Equal(t, 1, sig.Emit(context.Background(), "draft"))
	assert.Equal(t, "draft", d.title)

	d.Close()
	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, sig.Emit(context.Background(), "final"))
	assert.Equal(t, "draft", d.title)
}

func TestConnectSignalForwards(t *testing.T) {
	source := New[int](WithName("source"))
	defer source.Close()
	receiver := New[int](WithName("receiver"))

	var got int
	receiver.Connect(func(v int) { got = v })
	source.ConnectSignal(receiver)

	assert.Equal(t, 1, source.Emit(context.Background(), 42))
	assert.Equal(t, 42, got)
}

func TestConnectSignalAlreadyClosedReceiver(t *testing.T) {
	source := New[int]()
	defer source.Close()
	receiver := New[int]()
	receiver.Close()

	// The forwarding slot tracks the dead receiver from the start; it is
	// never invoked and drops out at the first dispatch.
	conn := source.ConnectSignal(receiver)
	assert.Equal(t, 0, source.Emit(context.Background(), 1))
	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, source.Len())
}

func TestConnectSignalReceiverClose(t *testing.T) {
	source := New[int]()
	defer source.Close()
	receiver := New[int]()

	conn := source.ConnectSignal(receiver)
	receiver.Close()

	assert.Equal(t, 0, source.Emit(context.Background(), 1))
	assert.False(t, conn.IsValid())
}

func TestSetEnabledSkipsWithoutCounting(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	calls := 0
	conn := sig.Connect(func(Void) { calls++ })
	sig.Connect(func(Void) {})

	conn.Get().SetEnabled(false)
	assert.Equal(t, 1, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 0, calls)
	assert.True(t, conn.IsValid(), "disabled is not disconnected")

	conn.Get().SetEnabled(true)
	assert.Equal(t, 2, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 1, calls)
}

func TestCloseDrainsRegistry(t *testing.T) {
	sig := New[Void]()

	conn := sig.Connect(func(Void) {})
	sig.Close()

	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, sig.Len())
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))

	assert.PanicsWithValue(t, "sigslot: connect on a closed signal", func() {
		sig.Connect(func(Void) {})
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	sig := New[Void]()
	sig.Connect(func(Void) {})
	sig.Close()
	sig.Close()
	assert.Equal(t, 0, sig.Len())
}

func TestConnectNilFuncPanics(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	assert.PanicsWithValue(t, "sigslot: slot function cannot be nil", func() {
		sig.Connect(nil)
	})
	assert.PanicsWithValue(t, "sigslot: slot function cannot be nil", func() {
		sig.ConnectInvocation(nil)
	})
	assert.PanicsWithValue(t, "sigslot: receiver signal cannot be nil", func() {
		sig.ConnectSignal(nil)
	})
}

func TestSignalDisconnectByConnection(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	conn := sig.Connect(func(Void) {})
	sig.Disconnect(conn)

	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, sig.Len())

	// Disconnecting twice is harmless.
	sig.Disconnect(conn)
}

func TestConcurrentEmitSecondCallerGetsZero(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	sig.Connect(func(Void) {
		close(started)
		<-release
	})

	var wg sync.WaitGroup
	wg.Add(1)
	first := 0
	go func() {
		defer wg.Done()
		first = sig.Emit(context.Background(), Void{})
	}()

	<-started
	// A dispatch is in flight on another goroutine; this one must bail out.
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
	close(release)
	wg.Wait()
	assert.Equal(t, 1, first)
}

// gateTracker parks dispatch inside the tracker-retain step so a test can
// interleave other calls between the connected recheck and the activation.
type gateTracker struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateTracker) Retain() bool {
	g.entered <- struct{}{}
	<-g.release
	return true
}

func (g *gateTracker) Release() {}

func (g *gateTracker) Detach(*Slot) {}

func TestDisconnectDuringActivationWindow(t *testing.T) {
	sig := New[Void]()
	defer sig.Close()

	calls := 0
	conn := sig.Connect(func(Void) { calls++ })
	gate := &gateTracker{entered: make(chan struct{}), release: make(chan struct{})}
	conn.Get().AddTracker(gate)

	done := make(chan int)
	go func() { done <- sig.Emit(context.Background(), Void{}) }()

	// Emit has passed the connected recheck and is parked in the tracker.
	<-gate.entered
	conn.Disconnect()
	close(gate.release)

	// The in-flight activation completes against the original callable;
	// the disconnect takes effect from the next dispatch on.
	assert.Equal(t, 1, <-done)
	assert.Equal(t, 1, calls)
	assert.False(t, conn.IsValid())
	assert.Equal(t, 0, sig.Emit(context.Background(), Void{}))
	assert.Equal(t, 1, calls)
}

func TestConcurrentConnectDisconnect(t *testing.T) {
	sig := New[int]()
	defer sig.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				conn := sig.Connect(func(int) {})
				sig.Emit(context.Background(), j)
				conn.Disconnect()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, sig.Len())
}

func TestSignalName(t *testing.T) {
	named := New[Void](WithName("clicks"))
	defer named.Close()
	assert.Equal(t, "clicks", named.Name())

	anon := New[Void]()
	defer anon.Close()
	assert.Contains(t, anon.Name(), "signal-")
}
