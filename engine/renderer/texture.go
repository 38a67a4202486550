package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// renderTexture pairs a texture with its view. Views do not survive a
// rebuild, so consumers holding one must be given the new view after any
// resize.
type renderTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
	Format  wgpu.TextureFormat
}

// newRenderTexture builds a 2D render target. Zero dimensions are clamped to
// one texel so a minimized window still owns valid attachments.
func newRenderTexture(device *wgpu.Device, label string, width, height uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*renderTexture, error) {
	width = clampDim(width)
	height = clampDim(height)

	texture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", label, err)
	}

	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("failed to create view for texture %q: %w", label, err)
	}

	return &renderTexture{
		Texture: texture,
		View:    view,
		Width:   width,
		Height:  height,
		Format:  format,
	}, nil
}

func (t *renderTexture) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

func clampDim(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}
