package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/emberforge/ember/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform wraps GLFW startup, window creation and device polling. Window
// events are forwarded to the engine's event bus tagged with the owning
// window's ID.
type Platform struct {
	initialized bool
}

func New() *Platform {
	return &Platform{}
}

func (p *Platform) Startup() error {
	if p.initialized {
		return nil
	}
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	p.initialized = true
	return nil
}

func (p *Platform) Shutdown() {
	if !p.initialized {
		return
	}
	glfw.Terminate()
	p.initialized = false
}

// CreateWindow opens a window with no client API (the GPU context owns the
// surface) and wires its callbacks to the bus.
func (p *Platform) CreateWindow(title string, x, y, width, height uint32, id core.WindowID, bus *core.EventBus) (*glfw.Window, error) {
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	window, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window %q: %w", title, err)
	}

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key < 0 {
			return
		}
		code := core.EVENT_CODE_KEY_PRESSED
		if action == glfw.Release {
			code = core.EVENT_CODE_KEY_RELEASED
		}
		bus.Enqueue(core.EventContext{
			Type:   code,
			Window: id,
			Data: &core.KeyEvent{
				KeyCode: core.KeyCode(key),
				Pressed: action != glfw.Release,
			},
		})
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		code := core.EVENT_CODE_BUTTON_PRESSED
		if action == glfw.Release {
			code = core.EVENT_CODE_BUTTON_RELEASED
		}
		bus.Enqueue(core.EventContext{
			Type:   code,
			Window: id,
			Data: &core.MouseEvent{
				Button:  core.Button(button),
				Pressed: action == glfw.Press,
			},
		})
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		bus.Enqueue(core.EventContext{
			Type:   core.EVENT_CODE_MOUSE_MOVED,
			Window: id,
			Data:   &core.MouseEvent{PosX: xpos, PosY: ypos},
		})
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		bus.Enqueue(core.EventContext{
			Type:   core.EVENT_CODE_MOUSE_WHEEL,
			Window: id,
			Data:   &core.MouseEvent{ScrollX: xoff, ScrollY: yoff},
		})
	})
	window.SetFramebufferSizeCallback(func(w *glfw.Window, fbWidth, fbHeight int) {
		bus.Enqueue(core.EventContext{
			Type:   core.EVENT_CODE_RESIZED,
			Window: id,
			Data: &core.SystemEvent{
				WindowWidth:  uint32(fbWidth),
				WindowHeight: uint32(fbHeight),
			},
		})
	})
	window.SetCloseCallback(func(w *glfw.Window) {
		bus.Enqueue(core.EventContext{
			Type:   core.EVENT_CODE_WINDOW_CLOSED,
			Window: id,
		})
	})

	window.SetPos(int(x), int(y))
	window.Show()

	return window, nil
}

func (p *Platform) PollEvents() {
	glfw.PollEvents()
}

// PollControllers reads every present joystick. Device-level motion is
// global: it is delivered to the input router regardless of window focus.
func (p *Platform) PollControllers() []core.ControllerEvent {
	var events []core.ControllerEvent
	for js := glfw.Joystick1; js <= glfw.JoystickLast; js++ {
		if !js.Present() {
			continue
		}
		axes := js.GetAxes()
		raw := js.GetButtons()
		buttons := make([]bool, len(raw))
		for i, a := range raw {
			buttons[i] = a == glfw.Press
		}
		events = append(events, core.ControllerEvent{
			Joystick: int(js),
			Axes:     axes,
			Buttons:  buttons,
		})
	}
	return events
}

// GetAbsoluteTime returns seconds since GLFW initialization.
func GetAbsoluteTime() float64 {
	return glfw.GetTime()
}
