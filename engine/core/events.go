package core

import (
	"github.com/emberforge/ember/engine/containers"
)

type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed.
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released.
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed.
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released.
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved.
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel scrolled.
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Resized/resolution changed from the OS.
	EVENT_CODE_RESIZED EventCode = 0x08

	// The OS requested that a window be closed.
	EVENT_CODE_WINDOW_CLOSED EventCode = 0x09

	// Device-level controller motion, not scoped to any window.
	EVENT_CODE_DEVICE_MOTION EventCode = 0x0A
)

type EventContext struct {
	Type   EventCode
	Window WindowID
	Data   interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
	Pressed bool
}

type MouseEvent struct {
	Button  Button
	Pressed bool
	PosX    float64
	PosY    float64
	ScrollX float64
	ScrollY float64
}

type ControllerEvent struct {
	Joystick int
	Axes     []float32
	Buttons  []bool
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type FnOnEvent func(context EventContext)

const eventQueueSize = 1024

// EventBus routes windowing and input events. One bus exists per engine and
// lives as long as the frame loop; platform callbacks enqueue, the loop
// drains once per frame before driving any window.
type EventBus struct {
	registered map[EventCode][]FnOnEvent
	queue      *containers.RingQueue[EventContext]
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]FnOnEvent),
		queue:      containers.NewRingQueue[EventContext](eventQueueSize),
	}
}

// Register adds a listener for the given code. Listeners are invoked in
// registration order.
func (eb *EventBus) Register(code EventCode, onEvent FnOnEvent) {
	eb.registered[code] = append(eb.registered[code], onEvent)
}

// Fire dispatches the event to every listener immediately.
func (eb *EventBus) Fire(context EventContext) {
	for _, cb := range eb.registered[context.Type] {
		cb(context)
	}
}

// Enqueue defers the event until the next DispatchQueued call. When the
// queue overflows the event is dropped with a warning; the frame loop drains
// every frame, so a full queue means event delivery has stalled entirely.
func (eb *EventBus) Enqueue(context EventContext) {
	if err := eb.queue.Enqueue(context); err != nil {
		LogWarn("event queue full, dropping event code 0x%02X", int(context.Type))
	}
}

// DispatchQueued fires every queued event in arrival order.
func (eb *EventBus) DispatchQueued() {
	for !eb.queue.IsEmpty() {
		context, err := eb.queue.Dequeue()
		if err != nil {
			return
		}
		eb.Fire(context)
	}
}
