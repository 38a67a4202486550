package metadata

import "github.com/cogentcore/webgpu/wgpu"

// Overlay is the GUI layer drawn on top of the presentable view. The editor
// GUI implements it; headless and test setups use NullOverlay. The viewport
// texture must be re-registered after every rebuild, since texture views do
// not survive a resize.
type Overlay interface {
	BeginFrame()
	RegisterViewportTexture(view *wgpu.TextureView)
	EndFrameAndDraw(encoder *wgpu.CommandEncoder, target *wgpu.TextureView)
	Cleanup()
}

type NullOverlay struct{}

func (NullOverlay) BeginFrame()                                                  {}
func (NullOverlay) RegisterViewportTexture(view *wgpu.TextureView)               {}
func (NullOverlay) EndFrameAndDraw(e *wgpu.CommandEncoder, t *wgpu.TextureView)  {}
func (NullOverlay) Cleanup()                                                     {}

// PostProcess resolves the HDR render target into the offscreen viewport
// texture. The tonemapping pass implements it; NullPostProcess leaves the
// viewport untouched.
type PostProcess interface {
	Run(encoder *wgpu.CommandEncoder, hdr *wgpu.Texture, viewport *wgpu.Texture)
}

type NullPostProcess struct{}

func (NullPostProcess) Run(e *wgpu.CommandEncoder, hdr *wgpu.Texture, viewport *wgpu.Texture) {}
