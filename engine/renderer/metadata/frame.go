package metadata

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/jobs"
)

type CommandType uint8

const (
	// Open a new window with the attached bindings.
	COMMAND_REQUEST_WINDOW CommandType = iota
	// Close the targeted window; targeting the root window quits.
	COMMAND_CLOSE_WINDOW
	// Tear every window down and leave the loop.
	COMMAND_QUIT
	// Change the frame-rate throttle target.
	COMMAND_SET_TARGET_FPS
	// Resize the emitting window's offscreen viewport texture.
	COMMAND_RESIZE_VIEWPORT
)

// Command is one cross-window intent emitted by content. Commands are
// applied strictly after the emitting window's render call returns, in
// emission order; a command never observes partially-updated content state
// for the frame that emitted it.
type Command struct {
	Type CommandType

	// COMMAND_REQUEST_WINDOW
	Window *WindowSpec

	// COMMAND_CLOSE_WINDOW
	Target core.WindowID

	// COMMAND_QUIT, optional
	PreExit func() error

	// COMMAND_SET_TARGET_FPS
	FPS int

	// COMMAND_RESIZE_VIEWPORT
	Width  uint32
	Height uint32
}

type CommandBatch []Command

func RequestWindow(spec *WindowSpec) Command {
	return Command{Type: COMMAND_REQUEST_WINDOW, Window: spec}
}

func CloseWindow(target core.WindowID) Command {
	return Command{Type: COMMAND_CLOSE_WINDOW, Target: target}
}

func Quit(preExit func() error) Command {
	return Command{Type: COMMAND_QUIT, PreExit: preExit}
}

func SetTargetFPS(fps int) Command {
	return Command{Type: COMMAND_SET_TARGET_FPS, FPS: fps}
}

func ResizeViewport(width, height uint32) Command {
	return Command{Type: COMMAND_RESIZE_VIEWPORT, Width: width, Height: height}
}

// WindowSpec describes a window to create, either at startup or through a
// COMMAND_REQUEST_WINDOW command.
type WindowSpec struct {
	Title  string
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32

	Bindings []Binding
	// Name of the binding whose input handlers start active. Empty
	// activates every handler.
	ActiveBinding string
}

// Binding attaches named content to a window. The name seeds the input
// handler names ({name}_keyboard, {name}_mouse, {name}_controller), so it
// must be unique across all live windows.
type Binding struct {
	Name    string
	Content Content
}

// Content is the simulation/scene state driven by one window. It is owned
// exclusively by that window's surface and is moved out of it for the
// duration of its own update/physics/render calls, so a callback may mutate
// the very surface that holds it (through RenderContext) without re-entrant
// state.
type Content interface {
	// Update runs once per frame with the variable frame delta, after all
	// physics steps for the frame. The returned commands are applied after
	// render returns.
	Update(delta float64, ctx *RenderContext) (CommandBatch, error)
	// PhysicsUpdate runs zero or more times per frame with a fixed step,
	// in increasing time order, before Update.
	PhysicsUpdate(step float64, ctx *RenderContext)
	// Render records the content's draw work for the frame.
	Render(ctx *RenderContext) error
	// HandleEvent receives routed window/input events.
	HandleEvent(event core.EventContext)
	// AttachInput tells the content the handler names it was registered
	// under in the input router.
	AttachInput(keyboard, mouse, controller string)
}

// BindGroupLayouts is the immutable set of bind-group layouts shared by the
// render passes that draw into one surface. Built once at surface creation
// and exposed read-only.
type BindGroupLayouts struct {
	Global   *wgpu.BindGroupLayout
	Material *wgpu.BindGroupLayout
	Storage  *wgpu.BindGroupLayout
}

func (l *BindGroupLayouts) Release() {
	if l.Global != nil {
		l.Global.Release()
		l.Global = nil
	}
	if l.Material != nil {
		l.Material.Release()
		l.Material = nil
	}
	if l.Storage != nil {
		l.Storage.Release()
		l.Storage = nil
	}
}

// ViewportResizer lets content resize the offscreen viewport of the surface
// it is currently rendering into.
type ViewportResizer interface {
	ResizeViewportTexture(width, height uint32) error
}

// RenderContext is the handle passed by shared pointer into every content
// callback. The device, queue and layouts are multiply-referenced; the
// context itself is rebuilt when the surface's dependent textures change.
type RenderContext struct {
	Device  *wgpu.Device
	Queue   *wgpu.Queue
	Layouts *BindGroupLayouts
	Window  *glfw.Window

	WindowID core.WindowID

	Jobs      *jobs.Bridge
	Resources *ResourceRegistry

	Viewport ViewportResizer
}

// ResourceRegistry is a string-keyed cache of shared resources (models,
// materials, generated data) owned by the application, not by the process.
// It is reachable from every content callback through the render context.
type ResourceRegistry struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{entries: make(map[string]interface{})}
}

func (rr *ResourceRegistry) Set(key string, value interface{}) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	rr.entries[key] = value
}

func (rr *ResourceRegistry) Get(key string) (interface{}, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	value, ok := rr.entries[key]
	return value, ok
}

func (rr *ResourceRegistry) Delete(key string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.entries, key)
}

func (rr *ResourceRegistry) Len() int {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	return len(rr.entries)
}
