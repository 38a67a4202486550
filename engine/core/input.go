package core

import (
	"fmt"
	"sync"
)

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key code definitions. Values follow GLFW key numbering, so the platform
// layer can forward key callbacks without a translation table.
type KeyCode uint16

const (
	KEY_SPACE     KeyCode = 32
	KEY_COMMA     KeyCode = 44
	KEY_MINUS     KeyCode = 45
	KEY_PERIOD    KeyCode = 46
	KEY_SLASH     KeyCode = 47
	KEY_0         KeyCode = 48
	KEY_1         KeyCode = 49
	KEY_2         KeyCode = 50
	KEY_3         KeyCode = 51
	KEY_4         KeyCode = 52
	KEY_5         KeyCode = 53
	KEY_6         KeyCode = 54
	KEY_7         KeyCode = 55
	KEY_8         KeyCode = 56
	KEY_9         KeyCode = 57
	KEY_A         KeyCode = 65
	KEY_B         KeyCode = 66
	KEY_C         KeyCode = 67
	KEY_D         KeyCode = 68
	KEY_E         KeyCode = 69
	KEY_F         KeyCode = 70
	KEY_G         KeyCode = 71
	KEY_H         KeyCode = 72
	KEY_I         KeyCode = 73
	KEY_J         KeyCode = 74
	KEY_K         KeyCode = 75
	KEY_L         KeyCode = 76
	KEY_M         KeyCode = 77
	KEY_N         KeyCode = 78
	KEY_O         KeyCode = 79
	KEY_P         KeyCode = 80
	KEY_Q         KeyCode = 81
	KEY_R         KeyCode = 82
	KEY_S         KeyCode = 83
	KEY_T         KeyCode = 84
	KEY_U         KeyCode = 85
	KEY_V         KeyCode = 86
	KEY_W         KeyCode = 87
	KEY_X         KeyCode = 88
	KEY_Y         KeyCode = 89
	KEY_Z         KeyCode = 90
	KEY_ESCAPE    KeyCode = 256
	KEY_ENTER     KeyCode = 257
	KEY_TAB       KeyCode = 258
	KEY_BACKSPACE KeyCode = 259
	KEY_INSERT    KeyCode = 260
	KEY_DELETE    KeyCode = 261
	KEY_RIGHT     KeyCode = 262
	KEY_LEFT      KeyCode = 263
	KEY_DOWN      KeyCode = 264
	KEY_UP        KeyCode = 265
	KEY_PAGE_UP   KeyCode = 266
	KEY_PAGE_DOWN KeyCode = 267
	KEY_HOME      KeyCode = 268
	KEY_END       KeyCode = 269
	KEY_F1        KeyCode = 290
	KEY_F2        KeyCode = 291
	KEY_F3        KeyCode = 292
	KEY_F4        KeyCode = 293
	KEY_F5        KeyCode = 294
	KEY_F6        KeyCode = 295
	KEY_F7        KeyCode = 296
	KEY_F8        KeyCode = 297
	KEY_F9        KeyCode = 298
	KEY_F10       KeyCode = 299
	KEY_F11       KeyCode = 300
	KEY_F12       KeyCode = 301
	KEY_LSHIFT    KeyCode = 340
	KEY_LCONTROL  KeyCode = 341
	KEY_LALT      KeyCode = 342
	KEY_RSHIFT    KeyCode = 344
	KEY_RCONTROL  KeyCode = 345
	KEY_RALT      KeyCode = 346
	KEYS_MAX_KEYS KeyCode = 349
)

// Keyboard state structure
type KeyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// Mouse state structure
type MouseState struct {
	X       float64
	Y       float64
	Buttons [BUTTON_MAX_BUTTONS]bool
}

type KeyboardHandler func(event KeyEvent)
type MouseHandler func(event MouseEvent)
type ControllerHandler func(event ControllerEvent)

// DeviceSource polls device-level input (joysticks/controllers) that is not
// delivered through window callbacks.
type DeviceSource interface {
	PollControllers() []ControllerEvent
}

// InputRouter owns keyboard/mouse/controller state and dispatches events to
// named handlers. Handler names are derived from content binding names
// (`{name}_keyboard` and so on), so content attached to different windows
// never collides. One router exists per engine.
type InputRouter struct {
	mu sync.RWMutex

	keyboards   map[string]KeyboardHandler
	mice        map[string]MouseHandler
	controllers map[string]ControllerHandler

	// nil means every registered handler is active.
	active map[string]struct{}

	keyboardCurrent  KeyboardState
	keyboardPrevious KeyboardState
	mouseCurrent     MouseState
	mousePrevious    MouseState
}

func NewInputRouter() *InputRouter {
	return &InputRouter{
		keyboards:   make(map[string]KeyboardHandler),
		mice:        make(map[string]MouseHandler),
		controllers: make(map[string]ControllerHandler),
	}
}

func (r *InputRouter) AddKeyboard(name string, handler KeyboardHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.keyboards[name]; exists {
		return fmt.Errorf("keyboard handler %q already registered", name)
	}
	r.keyboards[name] = handler
	return nil
}

func (r *InputRouter) AddMouse(name string, handler MouseHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.mice[name]; exists {
		return fmt.Errorf("mouse handler %q already registered", name)
	}
	r.mice[name] = handler
	return nil
}

func (r *InputRouter) AddController(name string, handler ControllerHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.controllers[name]; exists {
		return fmt.Errorf("controller handler %q already registered", name)
	}
	r.controllers[name] = handler
	return nil
}

// RemoveHandler drops the named handler from all three maps and from the
// active set.
func (r *InputRouter) RemoveHandler(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keyboards, name)
	delete(r.mice, name)
	delete(r.controllers, name)
	delete(r.active, name)
}

// SetActiveHandlers restricts dispatch to the given handler names. An empty
// or nil set activates every registered handler.
func (r *InputRouter) SetActiveHandlers(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(names) == 0 {
		r.active = nil
		return
	}
	r.active = make(map[string]struct{}, len(names))
	for _, n := range names {
		r.active[n] = struct{}{}
	}
}

func (r *InputRouter) isActive(name string) bool {
	if r.active == nil {
		return true
	}
	_, ok := r.active[name]
	return ok
}

// HandlerCount returns how many keyboard, mouse and controller handlers are
// registered.
func (r *InputRouter) HandlerCount() (int, int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keyboards), len(r.mice), len(r.controllers)
}

func (r *InputRouter) HasKeyboard(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keyboards[name]
	return ok
}

func (r *InputRouter) HasMouse(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.mice[name]
	return ok
}

func (r *InputRouter) HasController(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.controllers[name]
	return ok
}

// ProcessKey updates keyboard state and dispatches to active handlers. Only
// state changes are dispatched.
func (r *InputRouter) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		return
	}
	r.mu.Lock()
	if r.keyboardCurrent.Keys[key] == pressed {
		r.mu.Unlock()
		return
	}
	r.keyboardCurrent.Keys[key] = pressed
	handlers := r.activeKeyboards()
	r.mu.Unlock()

	event := KeyEvent{KeyCode: key, Pressed: pressed}
	for _, h := range handlers {
		h(event)
	}
}

func (r *InputRouter) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	r.mu.Lock()
	if r.mouseCurrent.Buttons[button] == pressed {
		r.mu.Unlock()
		return
	}
	r.mouseCurrent.Buttons[button] = pressed
	x, y := r.mouseCurrent.X, r.mouseCurrent.Y
	handlers := r.activeMice()
	r.mu.Unlock()

	event := MouseEvent{Button: button, Pressed: pressed, PosX: x, PosY: y}
	for _, h := range handlers {
		h(event)
	}
}

func (r *InputRouter) ProcessMouseMove(x, y float64) {
	r.mu.Lock()
	if r.mouseCurrent.X == x && r.mouseCurrent.Y == y {
		r.mu.Unlock()
		return
	}
	r.mouseCurrent.X = x
	r.mouseCurrent.Y = y
	handlers := r.activeMice()
	r.mu.Unlock()

	event := MouseEvent{PosX: x, PosY: y}
	for _, h := range handlers {
		h(event)
	}
}

func (r *InputRouter) ProcessMouseWheel(xoff, yoff float64) {
	r.mu.RLock()
	handlers := r.activeMice()
	x, y := r.mouseCurrent.X, r.mouseCurrent.Y
	r.mu.RUnlock()

	event := MouseEvent{PosX: x, PosY: y, ScrollX: xoff, ScrollY: yoff}
	for _, h := range handlers {
		h(event)
	}
}

// Update polls device-level input and copies current states to previous
// states. Called once per frame, after all window events for the frame have
// been processed.
func (r *InputRouter) Update(source DeviceSource) {
	if source != nil {
		events := source.PollControllers()
		if len(events) > 0 {
			r.mu.RLock()
			handlers := r.activeControllers()
			r.mu.RUnlock()
			for _, event := range events {
				for _, h := range handlers {
					h(event)
				}
			}
		}
	}

	r.mu.Lock()
	r.keyboardPrevious = r.keyboardCurrent
	r.mousePrevious = r.mouseCurrent
	r.mu.Unlock()
}

// callers must hold r.mu
func (r *InputRouter) activeKeyboards() []KeyboardHandler {
	out := make([]KeyboardHandler, 0, len(r.keyboards))
	for name, h := range r.keyboards {
		if r.isActive(name) {
			out = append(out, h)
		}
	}
	return out
}

func (r *InputRouter) activeMice() []MouseHandler {
	out := make([]MouseHandler, 0, len(r.mice))
	for name, h := range r.mice {
		if r.isActive(name) {
			out = append(out, h)
		}
	}
	return out
}

func (r *InputRouter) activeControllers() []ControllerHandler {
	out := make([]ControllerHandler, 0, len(r.controllers))
	for name, h := range r.controllers {
		if r.isActive(name) {
			out = append(out, h)
		}
	}
	return out
}

// keyboard queries

func (r *InputRouter) IsKeyDown(key KeyCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return r.keyboardCurrent.Keys[key]
}

func (r *InputRouter) WasKeyDown(key KeyCode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if key >= KEYS_MAX_KEYS {
		return false
	}
	return r.keyboardPrevious.Keys[key]
}

// mouse queries

func (r *InputRouter) IsButtonDown(button Button) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if button >= BUTTON_MAX_BUTTONS {
		return false
	}
	return r.mouseCurrent.Buttons[button]
}

func (r *InputRouter) MousePosition() (float64, float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mouseCurrent.X, r.mouseCurrent.Y
}
