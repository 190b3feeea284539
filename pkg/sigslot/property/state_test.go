package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateReadsProvider(t *testing.T) {
	v := NewStoredValue(Keep, 10)
	s := NewState(v, WithName("status"))

	assert.Equal(t, "status", s.Name())
	assert.Equal(t, 10, s.Get())
	assert.True(t, v.IsActive())
}

func TestNewStateNilProviderPanics(t *testing.T) {
	assert.PanicsWithValue(t, "sigslot: state property requires a value provider", func() {
		NewState[int](nil)
	})
}

func TestStateWriteThroughProvider(t *testing.T) {
	v := NewStoredValue(Keep, 10)
	s := NewState(v, WithName("status"))

	var changes []int
	s.Changed().Connect(func(val int) { changes = append(changes, val) })

	// Only the provider's holder can write; readers observe via Changed.
	v.Set(20)
	assert.Equal(t, 20, s.Get())
	assert.Equal(t, []int{20}, changes)

	v.Set(20)
	assert.Equal(t, []int{20}, changes, "unchanged writes are silent")
}

func TestStateRejectsSecondProvider(t *testing.T) {
	s := NewState(NewStoredValue(Keep, 1))

	assert.PanicsWithValue(t, "sigslot: state property already has a value provider", func() {
		NewStoredValue(Keep, 2).Attach(s)
	})
}

func TestStateProviderCannotDetach(t *testing.T) {
	v := NewStoredValue(Keep, 1)
	NewState(v)

	assert.PanicsWithValue(t, "sigslot: cannot detach the value provider of a state property", func() {
		v.Detach()
	})
	assert.PanicsWithValue(t, "sigslot: cannot deactivate the value provider of a state property", func() {
		v.Deactivate()
	})
}

func TestStateComputedProvider(t *testing.T) {
	n := 1
	v := NewValue[int](Keep, SourceFunc[int](func() int { return n * 10 }))
	s := NewState(v)

	require.Equal(t, 10, s.Get())
	n = 2
	assert.Equal(t, 20, s.Get())
}
