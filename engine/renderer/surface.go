package renderer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/emberforge/ember/engine/core"
	"github.com/emberforge/ember/engine/jobs"
	"github.com/emberforge/ember/engine/renderer/metadata"
)

const maxBindGroups = 4

// formats known to take 4x multisampling on every backend we target
var msaaFormats = map[wgpu.TextureFormat]bool{
	wgpu.TextureFormatBGRA8Unorm:     true,
	wgpu.TextureFormatBGRA8UnormSrgb: true,
	wgpu.TextureFormatRGBA8Unorm:     true,
	wgpu.TextureFormatRGBA8UnormSrgb: true,
}

type surfaceFault int

const (
	faultNone surfaceFault = iota
	faultLost
	faultOutdated
	faultTimeout
	faultOutOfMemory
	faultUnknown
)

// classifySurfaceFault sorts a swapchain acquire error into the recovery
// buckets. Lost and outdated surfaces are recoverable by reconfiguring;
// a timeout just skips the frame; out of memory is fatal for the frame.
func classifySurfaceFault(err error) surfaceFault {
	if err == nil {
		return faultNone
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "lost"):
		return faultLost
	case strings.Contains(msg, "outdated"):
		return faultOutdated
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return faultTimeout
	case strings.Contains(msg, "out of memory") || strings.Contains(msg, "outofmemory"):
		return faultOutOfMemory
	default:
		return faultUnknown
	}
}

// Surface owns everything one window needs to draw: the GPU surface and
// device, the offscreen targets, the bind group layouts, the fixed-step
// physics accumulator and the content bound to the window. All methods must
// be called from the main thread except ResizeViewportTexture, which content
// may call from inside its own callbacks.
type Surface struct {
	window   *glfw.Window
	windowID core.WindowID

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	configMu   sync.RWMutex
	config     *wgpu.SurfaceConfiguration
	configured bool

	depth    *renderTexture
	viewport *renderTexture
	hdr      *renderTexture

	layouts *metadata.BindGroupLayouts
	ctx     *metadata.RenderContext

	overlay metadata.Overlay
	post    metadata.PostProcess

	step     *core.FixedTimestep
	bindings []metadata.Binding

	jobs      *jobs.Bridge
	resources *metadata.ResourceRegistry

	// 4 when the surface format multisamples, 1 otherwise. Cached for the
	// pipeline builders downstream.
	sampleCount uint32

	hasStorageBuffers bool
}

// NewSurface brings up the full GPU stack for one window. Fails with an
// error when the window cannot get a surface or device; the caller decides
// whether that aborts the process or just the window.
func NewSurface(window *glfw.Window, windowID core.WindowID, bridge *jobs.Bridge, resources *metadata.ResourceRegistry,
	overlay metadata.Overlay, post metadata.PostProcess, physicsRate float64, maxPhysicsSteps int) (*Surface, error) {

	s := &Surface{
		window:      window,
		windowID:    windowID,
		overlay:     overlay,
		post:        post,
		step:        core.NewFixedTimestep(physicsRate, maxPhysicsSteps),
		sampleCount: 1,
		jobs:        bridge,
		resources:   resources,
	}
	if s.overlay == nil {
		s.overlay = metadata.NullOverlay{}
	}
	if s.post == nil {
		s.post = metadata.NullPostProcess{}
	}

	s.instance = wgpu.CreateInstance(nil)
	s.surface = s.instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := s.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: s.surface,
	})
	if err != nil {
		s.Cleanup()
		return nil, fmt.Errorf("no compatible adapter for surface: %w", err)
	}
	s.adapter = adapter

	limits := wgpu.DefaultLimits()
	if limits.MaxBindGroups > maxBindGroups {
		limits.MaxBindGroups = maxBindGroups
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "ember device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		s.Cleanup()
		return nil, fmt.Errorf("failed to acquire device: %w", err)
	}
	s.device = device
	s.queue = device.GetQueue()

	supported := adapter.GetLimits()
	s.hasStorageBuffers = supported.Limits.MaxStorageBuffersPerShaderStage > 0
	if !s.hasStorageBuffers {
		core.LogWarn("adapter reports no storage buffers, instanced draws will fall back to uniforms")
	}

	format := s.pickSurfaceFormat()
	if msaaFormats[format] {
		s.sampleCount = 4
	}

	width, height := window.GetFramebufferSize()
	s.config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   s.pickAlphaMode(),
	}
	if width > 0 && height > 0 {
		s.surface.Configure(s.adapter, s.device, s.config)
		s.configured = true
	}

	s.layouts, err = buildBindGroupLayouts(device)
	if err != nil {
		s.Cleanup()
		return nil, err
	}

	if err := s.rebuildTargets(s.config.Width, s.config.Height); err != nil {
		s.Cleanup()
		return nil, err
	}

	s.RefreshContext()

	core.LogInfo("surface ready: %dx%d format %v msaa x%d", width, height, format, s.sampleCount)
	return s, nil
}

// RefreshContext rebuilds the render-context handle passed into content
// callbacks. Called after viewport resizes so content holding the old handle
// across frames cannot observe stale dependent state.
func (s *Surface) RefreshContext() {
	s.ctx = &metadata.RenderContext{
		Device:    s.device,
		Queue:     s.queue,
		Layouts:   s.layouts,
		Window:    s.window,
		WindowID:  s.windowID,
		Jobs:      s.jobs,
		Resources: s.resources,
		Viewport:  s,
	}
}

// pickSurfaceFormat prefers the first sRGB format the surface supports so
// presented colors match the authored values.
func (s *Surface) pickSurfaceFormat() wgpu.TextureFormat {
	caps := s.surface.GetCapabilities(s.adapter)
	for _, f := range caps.Formats {
		if f == wgpu.TextureFormatBGRA8UnormSrgb || f == wgpu.TextureFormatRGBA8UnormSrgb {
			return f
		}
	}
	if len(caps.Formats) > 0 {
		return caps.Formats[0]
	}
	return wgpu.TextureFormatBGRA8UnormSrgb
}

func (s *Surface) pickAlphaMode() wgpu.CompositeAlphaMode {
	caps := s.surface.GetCapabilities(s.adapter)
	if len(caps.AlphaModes) > 0 {
		return caps.AlphaModes[0]
	}
	return wgpu.CompositeAlphaModeAuto
}

// rebuildTargets recreates the depth, viewport and HDR textures at the given
// size and re-registers the viewport view with the overlay.
func (s *Surface) rebuildTargets(width, height uint32) error {
	s.depth.Release()
	s.viewport.Release()
	s.hdr.Release()

	var err error
	s.depth, err = newRenderTexture(s.device, "depth", width, height,
		wgpu.TextureFormatDepth24Plus, wgpu.TextureUsageRenderAttachment)
	if err != nil {
		return err
	}
	s.viewport, err = newRenderTexture(s.device, "viewport", width, height,
		wgpu.TextureFormatRGBA8Unorm, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return err
	}
	s.hdr, err = newRenderTexture(s.device, "hdr", width, height,
		wgpu.TextureFormatRGBA16Float, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return err
	}

	s.overlay.RegisterViewportTexture(s.viewport.View)
	return nil
}

// SetBindings hands the surface its content. Called once by the engine when
// the window is created.
func (s *Surface) SetBindings(bindings []metadata.Binding) {
	s.bindings = bindings
}

func (s *Surface) Bindings() []metadata.Binding {
	return s.bindings
}

func (s *Surface) Context() *metadata.RenderContext {
	return s.ctx
}

func (s *Surface) WindowID() core.WindowID {
	return s.windowID
}

func (s *Surface) Window() *glfw.Window {
	return s.window
}

func (s *Surface) SampleCount() uint32 {
	return s.sampleCount
}

func (s *Surface) HasStorageBuffers() bool {
	return s.hasStorageBuffers
}

func (s *Surface) ShouldClose() bool {
	return s.window != nil && s.window.ShouldClose()
}

// Resize reconfigures the presentable surface and rebuilds every dependent
// texture. Zero dimensions (minimize) are ignored: the configuration and the
// configured state stay exactly as they were.
func (s *Surface) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	if s.surface == nil {
		return
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()

	s.config.Width = width
	s.config.Height = height
	s.surface.Configure(s.adapter, s.device, s.config)
	s.configured = true

	if err := s.rebuildTargets(width, height); err != nil {
		core.LogError("failed to rebuild render targets after resize: %s", err)
	}
}

// ResizeViewportTexture rebuilds only the offscreen viewport chain, leaving
// the presentable surface at the window's size. Content calls this through
// the render context to detach the scene resolution from the window.
func (s *Surface) ResizeViewportTexture(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if s.viewport != nil && s.viewport.Width == width && s.viewport.Height == height {
		return nil
	}

	s.configMu.Lock()
	defer s.configMu.Unlock()
	return s.rebuildTargets(width, height)
}

// Render draws one frame: fixed physics steps, variable update, content
// draws, post process and overlay, then present. Returns the commands the
// content emitted this frame; the caller applies them after this returns.
func (s *Surface) Render(delta float64) (metadata.CommandBatch, error) {
	s.configMu.RLock()
	configured := s.configured
	s.configMu.RUnlock()
	if !configured {
		return nil, nil
	}

	frame, err := s.surface.GetCurrentTexture()
	switch classifySurfaceFault(err) {
	case faultNone:
	case faultLost, faultOutdated:
		core.LogDebug("surface %v, reconfiguring", err)
		s.configMu.Lock()
		s.surface.Configure(s.adapter, s.device, s.config)
		s.configMu.Unlock()
		frame, err = s.surface.GetCurrentTexture()
		if err != nil {
			core.LogWarn("surface still unavailable after reconfigure: %s", err)
			return nil, nil
		}
	case faultTimeout:
		return nil, nil
	case faultOutOfMemory:
		return nil, fmt.Errorf("out of memory acquiring surface texture: %w", err)
	default:
		core.LogWarn("failed to acquire surface texture: %s", err)
		return nil, nil
	}

	view, err := frame.CreateView(nil)
	if err != nil {
		frame.Release()
		return nil, fmt.Errorf("failed to create frame view: %w", err)
	}
	defer func() {
		view.Release()
		frame.Release()
	}()

	if err := s.clearHDR(); err != nil {
		return nil, err
	}

	s.overlay.BeginFrame()

	// Move the content out of the surface for the duration of its own
	// callbacks, so a callback reaching back through the render context
	// never observes itself half-updated.
	bound := s.bindings
	s.bindings = nil

	s.step.Consume(time.Duration(delta*float64(time.Second)), func(step time.Duration) {
		stepSeconds := step.Seconds()
		for _, b := range bound {
			b.Content.PhysicsUpdate(stepSeconds, s.ctx)
		}
	})

	var batch metadata.CommandBatch
	for _, b := range bound {
		commands, err := b.Content.Update(delta, s.ctx)
		if err != nil {
			core.LogError("content %s update failed: %s", b.Name, err)
			continue
		}
		batch = append(batch, commands...)
	}

	for _, b := range bound {
		if err := b.Content.Render(s.ctx); err != nil {
			core.LogError("content %s render failed: %s", b.Name, err)
		}
	}

	s.bindings = bound

	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return batch, fmt.Errorf("failed to create command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "surface clear",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0.015, G: 0.015, B: 0.02, A: 1.0},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.depth.View,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	pass.End()

	s.post.Run(encoder, s.hdr.Texture, s.viewport.Texture)
	s.overlay.EndFrameAndDraw(encoder, view)

	commands, err := encoder.Finish(nil)
	if err != nil {
		return batch, fmt.Errorf("failed to finish command encoder: %w", err)
	}
	defer commands.Release()

	if err := s.submitAndPresent(commands); err != nil {
		return batch, err
	}
	return batch, nil
}

// clearHDR resets the HDR target in its own submission so content draw work
// recorded during Render always lands on a clean target.
func (s *Surface) clearHDR() error {
	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create clear encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "hdr clear",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       s.hdr.View,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	pass.End()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish clear encoder: %w", err)
	}
	defer commands.Release()

	return s.submit(commands)
}

// submit converts a native-layer submission abort, which wgpu reports as a
// panic, into a frame error.
func (s *Surface) submit(commands *wgpu.CommandBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit failed: %v", r)
		}
	}()
	s.queue.Submit(commands)
	return nil
}

// submitAndPresent is the presenting variant of submit.
func (s *Surface) submitAndPresent(commands *wgpu.CommandBuffer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("present failed: %v", r)
		}
	}()
	s.queue.Submit(commands)
	s.surface.Present()
	return nil
}

// Cleanup tears the surface down in dependency order. Safe to call on a
// partially-constructed surface.
func (s *Surface) Cleanup() {
	for _, b := range s.bindings {
		if cleaner, ok := b.Content.(interface{ Cleanup() }); ok {
			cleaner.Cleanup()
		}
	}
	s.bindings = nil

	if s.device != nil {
		s.device.Poll(true, nil)
	}
	if s.overlay != nil {
		s.overlay.Cleanup()
	}
	s.depth.Release()
	s.depth = nil
	s.viewport.Release()
	s.viewport = nil
	s.hdr.Release()
	s.hdr = nil
	if s.layouts != nil {
		s.layouts.Release()
		s.layouts = nil
	}
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	s.queue = nil
	if s.adapter != nil {
		s.adapter.Release()
		s.adapter = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
	if s.instance != nil {
		s.instance.Release()
		s.instance = nil
	}
}
