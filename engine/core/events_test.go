package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusFire(t *testing.T) {
	bus := NewEventBus()

	var got []EventContext
	bus.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) { got = append(got, ctx) })
	bus.Register(EVENT_CODE_KEY_PRESSED, func(ctx EventContext) { got = append(got, ctx) })

	bus.Fire(EventContext{Type: EVENT_CODE_KEY_PRESSED})
	assert.Len(t, got, 2)

	// unrelated codes do not reach the listener
	bus.Fire(EventContext{Type: EVENT_CODE_MOUSE_MOVED})
	assert.Len(t, got, 2)
}

func TestEventBusQueueOrdering(t *testing.T) {
	bus := NewEventBus()

	var order []EventCode
	for _, code := range []EventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED} {
		bus.Register(code, func(ctx EventContext) { order = append(order, ctx.Type) })
	}

	bus.Enqueue(EventContext{Type: EVENT_CODE_KEY_PRESSED})
	bus.Enqueue(EventContext{Type: EVENT_CODE_KEY_RELEASED})
	bus.Enqueue(EventContext{Type: EVENT_CODE_KEY_PRESSED})
	require.Empty(t, order)

	bus.DispatchQueued()
	assert.Equal(t, []EventCode{
		EVENT_CODE_KEY_PRESSED,
		EVENT_CODE_KEY_RELEASED,
		EVENT_CODE_KEY_PRESSED,
	}, order)

	// queue is drained
	bus.DispatchQueued()
	assert.Len(t, order, 3)
}

func TestEventBusOverflowDropsEvent(t *testing.T) {
	bus := NewEventBus()

	count := 0
	bus.Register(EVENT_CODE_MOUSE_MOVED, func(EventContext) { count++ })

	for i := 0; i < eventQueueSize+10; i++ {
		bus.Enqueue(EventContext{Type: EVENT_CODE_MOUSE_MOVED})
	}
	bus.DispatchQueued()
	assert.Equal(t, eventQueueSize, count)
}
