package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/jobs"
	"github.com/emberforge/ember/engine/platform"
	"github.com/emberforge/ember/engine/renderer"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

// OverlayFactory builds the GUI overlay for a newly created window. Nil
// factories produce the null overlay.
type OverlayFactory func() metadata.Overlay

// PostProcessFactory builds the post-process chain for a newly created
// window. Nil factories produce the null chain.
type PostProcessFactory func() metadata.PostProcess

// Engine drives the frame loop across every live window: event polling and
// dispatch, background-task polling, per-window render, command-batch
// processing, throttling and metrics. One engine exists per process and it
// must run on the main thread.
type Engine struct {
	config *ApplicationConfig

	platform  *platform.Platform
	bus       *core.EventBus
	input     *core.InputRouter
	jobs      *jobs.Bridge
	metrics   *core.Metrics
	clock     *core.Clock
	registry  *WindowRegistry
	resources *metadata.ResourceRegistry
	watcher   *configWatcher

	overlayFactory OverlayFactory
	postFactory    PostProcessFactory

	// throttle target, read at the top of every frame so commands emitted
	// mid-frame only affect the following frames
	targetFPS int

	// measured total frame time of the previous frame, in seconds
	frameDelta float64

	shuttingDown bool
	quitRequest  atomic.Bool
}

// New builds an engine from the config and the startup window specs. The
// specs are drained on the first loop iteration; starting Run with zero
// specs is a fatal misconfiguration.
func New(cfg *ApplicationConfig, windows ...*metadata.WindowSpec) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultApplicationConfig()
	}
	core.SetLogLevel(cfg.LogLevel)

	bridge, err := jobs.New(cfg.JobWorkers, cfg.JobQueueSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create job bridge: %w", err)
	}

	e := &Engine{
		config:    cfg,
		platform:  platform.New(),
		bus:       core.NewEventBus(),
		input:     core.NewInputRouter(),
		jobs:      bridge,
		metrics:   core.NewMetrics(),
		clock:     core.NewClock(),
		registry:  NewWindowRegistry(windows...),
		resources: metadata.NewResourceRegistry(),
	}
	e.setTargetFPS(cfg.TargetFPS)
	e.frameDelta = 1.0 / 60.0
	return e, nil
}

// SetOverlayFactory installs the GUI overlay constructor used for every
// window created afterwards. Must be called before Run.
func (e *Engine) SetOverlayFactory(f OverlayFactory) {
	e.overlayFactory = f
}

// SetPostProcessFactory installs the post-process constructor used for every
// window created afterwards. Must be called before Run.
func (e *Engine) SetPostProcessFactory(f PostProcessFactory) {
	e.postFactory = f
}

// WatchConfig reloads the config file on change and applies the runtime
// tunables (log level, target FPS) on the following frame. Best effort: a
// watch failure is logged and the engine runs without it.
func (e *Engine) WatchConfig(path string) {
	watcher, err := newConfigWatcher(path)
	if err != nil {
		core.LogWarn("config watch unavailable: %s", err)
		return
	}
	e.watcher = watcher
}

// RequestQuit asks the loop to shut down at the next frame boundary. Safe to
// call from any goroutine, including signal handlers.
func (e *Engine) RequestQuit() {
	e.quitRequest.Store(true)
}

// Metrics exposes the rolling frame statistics.
func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

// Input exposes the shared input router.
func (e *Engine) Input() *core.InputRouter {
	return e.input
}

// Jobs exposes the background task bridge.
func (e *Engine) Jobs() *jobs.Bridge {
	return e.jobs
}

// Run starts the platform, creates the startup windows and drives the frame
// loop until quit. Blocks the calling goroutine; must run on the main
// thread.
func (e *Engine) Run() error {
	if err := e.platform.Startup(); err != nil {
		return err
	}

	e.registerListeners()

	for _, spec := range e.registry.DrainPending() {
		if err := e.createWindow(spec); err != nil {
			core.LogError("failed to create startup window %q: %s", spec.Title, err)
		}
	}
	if e.registry.Len() == 0 {
		core.LogFatal("no window could be created at startup")
	}

	e.clock.Start()
	core.LogInfo("%s started with %d window(s)", e.config.Name, e.registry.Len())

	for !e.shuttingDown {
		if e.quitRequest.Load() {
			e.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
			break
		}

		frameStart := time.Now()
		budget := e.frameBudget()

		e.platform.PollEvents()
		e.bus.DispatchQueued()
		if e.shuttingDown {
			break
		}

		if e.watcher != nil {
			if cfg := e.watcher.poll(); cfg != nil {
				e.applyRuntimeConfig(cfg)
			}
		}

		e.jobs.Poll()
		e.input.Update(e.platform)

		for _, id := range e.registry.Order() {
			entry, ok := e.registry.Get(id)
			if !ok {
				continue
			}
			if entry.surface.ShouldClose() {
				e.closeWindow(id)
				continue
			}

			batch, err := entry.surface.Render(e.frameDelta)
			if err != nil {
				core.LogError("window %s frame failed: %s", id, err)
			}
			e.processCommands(id, batch)
			if e.shuttingDown {
				break
			}
		}
		if e.shuttingDown {
			break
		}

		if budget > 0 {
			elapsed := time.Since(frameStart)
			if elapsed < budget {
				platform.Sleep(budget - elapsed)
			}
		}

		e.frameDelta = time.Since(frameStart).Seconds()
		e.metrics.Update(e.frameDelta)
		e.jobs.Cleanup()
	}

	e.shutdown()
	return nil
}

func (e *Engine) frameBudget() time.Duration {
	if e.targetFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(e.targetFPS)
}

func (e *Engine) setTargetFPS(fps int) {
	if fps < 1 {
		fps = 1
	}
	e.targetFPS = fps
}

func (e *Engine) applyRuntimeConfig(cfg *ApplicationConfig) {
	core.SetLogLevel(cfg.LogLevel)
	e.setTargetFPS(cfg.TargetFPS)
	core.LogInfo("config reloaded: log level %s, target fps %d", cfg.LogLevel, e.targetFPS)
}

// registerListeners wires the event bus into the input router and the
// window lifecycle.
func (e *Engine) registerListeners() {
	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, func(ctx core.EventContext) {
		e.quit(nil)
	})
	e.bus.Register(core.EVENT_CODE_KEY_PRESSED, func(ctx core.EventContext) {
		if ev, ok := ctx.Data.(*core.KeyEvent); ok {
			e.input.ProcessKey(ev.KeyCode, true)
		}
	})
	e.bus.Register(core.EVENT_CODE_KEY_RELEASED, func(ctx core.EventContext) {
		if ev, ok := ctx.Data.(*core.KeyEvent); ok {
			e.input.ProcessKey(ev.KeyCode, false)
		}
	})
	e.bus.Register(core.EVENT_CODE_BUTTON_PRESSED, func(ctx core.EventContext) {
		if ev, ok := ctx.Data.(*core.MouseEvent); ok {
			e.input.ProcessButton(ev.Button, true)
		}
	})
	e.bus.Register(core.EVENT_CODE_BUTTON_RELEASED, func(ctx core.EventContext) {
		if ev, ok := ctx.Data.(*core.MouseEvent); ok {
			e.input.ProcessButton(ev.Button, false)
		}
	})
	e.bus.Register(core.EVENT_CODE_MOUSE_MOVED, func(ctx core.EventContext) {
		if ev, ok := ctx.Data.(*core.MouseEvent); ok {
			e.input.ProcessMouseMove(ev.PosX, ev.PosY)
		}
	})
	e.bus.Register(core.EVENT_CODE_MOUSE_WHEEL, func(ctx core.EventContext) {
		if ev, ok := ctx.Data.(*core.MouseEvent); ok {
			e.input.ProcessMouseWheel(ev.ScrollX, ev.ScrollY)
		}
	})
	e.bus.Register(core.EVENT_CODE_RESIZED, func(ctx core.EventContext) {
		entry, ok := e.registry.Get(ctx.Window)
		if !ok {
			return
		}
		if ev, ok := ctx.Data.(*core.SystemEvent); ok {
			entry.surface.Resize(ev.WindowWidth, ev.WindowHeight)
		}
	})
	e.bus.Register(core.EVENT_CODE_WINDOW_CLOSED, func(ctx core.EventContext) {
		e.closeWindow(ctx.Window)
	})

	// every window-scoped event also reaches the content bound to that
	// window
	for _, code := range []core.EventCode{
		core.EVENT_CODE_KEY_PRESSED,
		core.EVENT_CODE_KEY_RELEASED,
		core.EVENT_CODE_BUTTON_PRESSED,
		core.EVENT_CODE_BUTTON_RELEASED,
		core.EVENT_CODE_MOUSE_MOVED,
		core.EVENT_CODE_MOUSE_WHEEL,
		core.EVENT_CODE_RESIZED,
	} {
		e.bus.Register(code, e.forwardToContent)
	}
}

func (e *Engine) forwardToContent(ctx core.EventContext) {
	entry, ok := e.registry.Get(ctx.Window)
	if !ok {
		return
	}
	for _, b := range entry.surface.Bindings() {
		b.Content.HandleEvent(ctx)
	}
}

// processCommands applies the batch a window emitted this frame, in emission
// order. Runs strictly after that window's render call returned.
func (e *Engine) processCommands(emitter core.WindowID, batch metadata.CommandBatch) {
	for _, cmd := range batch {
		switch cmd.Type {
		case metadata.COMMAND_REQUEST_WINDOW:
			if cmd.Window == nil {
				core.LogWarn("request-window command without a window spec, ignoring")
				continue
			}
			if err := e.createWindow(cmd.Window); err != nil {
				core.LogError("failed to create window %q: %s", cmd.Window.Title, err)
			}
		case metadata.COMMAND_CLOSE_WINDOW:
			e.closeWindow(cmd.Target)
		case metadata.COMMAND_QUIT:
			e.quit(cmd.PreExit)
		case metadata.COMMAND_SET_TARGET_FPS:
			e.setTargetFPS(cmd.FPS)
		case metadata.COMMAND_RESIZE_VIEWPORT:
			entry, ok := e.registry.Get(emitter)
			if !ok {
				continue
			}
			if err := entry.surface.ResizeViewportTexture(cmd.Width, cmd.Height); err != nil {
				core.LogWarn("viewport resize to %dx%d failed: %s", cmd.Width, cmd.Height, err)
			}
			entry.surface.RefreshContext()
		default:
			core.LogWarn("unknown command type %d, ignoring", cmd.Type)
		}
		if e.shuttingDown {
			return
		}
	}
}

// createWindow opens a native window, brings up its surface and attaches the
// requested content bindings.
func (e *Engine) createWindow(spec *metadata.WindowSpec) error {
	id := core.NewWindowID()

	window, err := e.platform.CreateWindow(spec.Title, spec.X, spec.Y, spec.Width, spec.Height, id, e.bus)
	if err != nil {
		return err
	}

	var overlay metadata.Overlay
	if e.overlayFactory != nil {
		overlay = e.overlayFactory()
	}
	var post metadata.PostProcess
	if e.postFactory != nil {
		post = e.postFactory()
	}

	surface, err := renderer.NewSurface(window, id, e.jobs, e.resources, overlay, post,
		e.config.PhysicsRate, e.config.MaxPhysicsSteps)
	if err != nil {
		return err
	}

	handlerNames, err := e.attachBindings(surface, spec, id)
	if err != nil {
		for _, name := range handlerNames {
			e.input.RemoveHandler(name)
		}
		surface.Cleanup()
		return err
	}

	if err := e.registry.Add(id, surface, handlerNames); err != nil {
		for _, name := range handlerNames {
			e.input.RemoveHandler(name)
		}
		surface.Cleanup()
		return err
	}

	core.LogInfo("window %q opened (%s)", spec.Title, id)
	return nil
}

// attachBindings registers one handler triple per binding under names
// derived from the binding name, tells each content what it was registered
// as, and activates the window's initial binding.
func (e *Engine) attachBindings(surface *renderer.Surface, spec *metadata.WindowSpec, id core.WindowID) ([]string, error) {
	var handlerNames []string
	for _, b := range spec.Bindings {
		content := b.Content
		keyboard := b.Name + "_keyboard"
		mouse := b.Name + "_mouse"
		controller := b.Name + "_controller"

		if err := e.input.AddKeyboard(keyboard, func(ev core.KeyEvent) {
			code := core.EVENT_CODE_KEY_PRESSED
			if !ev.Pressed {
				code = core.EVENT_CODE_KEY_RELEASED
			}
			content.HandleEvent(core.EventContext{Type: code, Window: id, Data: &ev})
		}); err != nil {
			return handlerNames, err
		}
		handlerNames = append(handlerNames, keyboard)

		if err := e.input.AddMouse(mouse, func(ev core.MouseEvent) {
			content.HandleEvent(core.EventContext{Type: mouseEventCode(ev), Window: id, Data: &ev})
		}); err != nil {
			return handlerNames, err
		}
		handlerNames = append(handlerNames, mouse)

		if err := e.input.AddController(controller, func(ev core.ControllerEvent) {
			content.HandleEvent(core.EventContext{Type: core.EVENT_CODE_DEVICE_MOTION, Data: &ev})
		}); err != nil {
			return handlerNames, err
		}
		handlerNames = append(handlerNames, controller)

		content.AttachInput(keyboard, mouse, controller)
	}

	if surface != nil {
		surface.SetBindings(spec.Bindings)
	}

	if spec.ActiveBinding != "" {
		e.input.SetActiveHandlers([]string{
			spec.ActiveBinding + "_keyboard",
			spec.ActiveBinding + "_mouse",
			spec.ActiveBinding + "_controller",
		})
	}
	return handlerNames, nil
}

func mouseEventCode(ev core.MouseEvent) core.EventCode {
	switch {
	case ev.ScrollX != 0 || ev.ScrollY != 0:
		return core.EVENT_CODE_MOUSE_WHEEL
	case ev.Pressed:
		return core.EVENT_CODE_BUTTON_PRESSED
	default:
		return core.EVENT_CODE_MOUSE_MOVED
	}
}

// closeWindow tears down one window. Closing the root window quits the
// application.
func (e *Engine) closeWindow(id core.WindowID) {
	if e.registry.IsRoot(id) {
		e.quit(nil)
		return
	}

	entry, ok := e.registry.Remove(id)
	if !ok {
		return
	}
	for _, name := range entry.handlerNames {
		e.input.RemoveHandler(name)
	}
	if entry.surface != nil {
		entry.surface.Cleanup()
	}
	core.LogInfo("window %s closed", id)
}

// quit runs the optional pre-exit hook and marks the loop for shutdown. The
// actual teardown happens in shutdown, once the loop unwinds.
func (e *Engine) quit(preExit func() error) {
	if e.shuttingDown {
		return
	}
	if preExit != nil {
		if err := preExit(); err != nil {
			core.LogWarn("pre-exit hook failed: %s", err)
		}
	}
	e.shuttingDown = true
}

// shutdown tears down every window in registration order, then the shared
// subsystems.
func (e *Engine) shutdown() {
	e.clock.Update()
	core.LogInfo("shutting down after %.1fs", e.clock.Elapsed())

	for _, id := range e.registry.Order() {
		entry, ok := e.registry.Remove(id)
		if !ok {
			continue
		}
		for _, name := range entry.handlerNames {
			e.input.RemoveHandler(name)
		}
		if entry.surface != nil {
			entry.surface.Cleanup()
		}
	}

	e.jobs.Shutdown()
	if e.watcher != nil {
		e.watcher.close()
	}
	e.platform.Shutdown()
}
