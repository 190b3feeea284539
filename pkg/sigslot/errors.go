package sigslot

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for slot activation. None of these ever cross an Emit
// boundary; they steer the dispatch loop and show up only in logs, metrics
// and a reduced invoked count.
var (
	// ErrDeadReceiver indicates a bound target no longer resolves.
	ErrDeadReceiver = errors.New("receiver no longer alive")

	// ErrSlotDisconnected indicates the slot was disconnected between the
	// registry snapshot and its invocation.
	ErrSlotDisconnected = errors.New("slot disconnected")

	// ErrDanglingConnection indicates a connection whose slot has been
	// destroyed.
	ErrDanglingConnection = errors.New("connection references a destroyed slot")
)

// SlotError wraps an activation failure with slot context.
type SlotError struct {
	// SignalName is the name of the signal that dispatched the slot.
	SignalName string
	// SlotID is the identity of the failing slot.
	SlotID uuid.UUID
	// Op is the operation that failed (e.g., "activate").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %s on %s: %s: %v", e.SlotID, e.SignalName, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SlotError) Unwrap() error {
	return e.Err
}
