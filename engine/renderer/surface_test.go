package renderer

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestClassifySurfaceFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want surfaceFault
	}{
		{"nil", nil, faultNone},
		{"lost", errors.New("Surface image is Lost"), faultLost},
		{"outdated", errors.New("surface is Outdated"), faultOutdated},
		{"timeout", errors.New("acquire Timeout"), faultTimeout},
		{"timed out", errors.New("operation timed out waiting for frame"), faultTimeout},
		{"oom", errors.New("Out of Memory"), faultOutOfMemory},
		{"unspecified", errors.New("some driver weirdness"), faultUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySurfaceFault(tt.err))
		})
	}
}

func TestResizeZeroDimensionsIsNoOp(t *testing.T) {
	// a configured surface keeps its configuration through zero-dim resizes
	s := &Surface{
		configured: true,
		config:     &wgpu.SurfaceConfiguration{Width: 800, Height: 600},
	}
	s.Resize(0, 600)
	s.Resize(800, 0)
	assert.True(t, s.configured)
	assert.Equal(t, uint32(800), s.config.Width)
	assert.Equal(t, uint32(600), s.config.Height)

	// and a surface that was never brought up ignores them too
	bare := &Surface{}
	bare.Resize(0, 100)
	assert.False(t, bare.configured)
}

func TestResizeViewportTextureZeroIsNoOp(t *testing.T) {
	s := &Surface{}
	assert.NoError(t, s.ResizeViewportTexture(0, 100))
	assert.NoError(t, s.ResizeViewportTexture(100, 0))
}

func TestResizeViewportTextureIdempotent(t *testing.T) {
	// same dimensions as the live viewport: no rebuild, no device access
	s := &Surface{
		viewport: &renderTexture{Width: 640, Height: 360},
	}
	assert.NoError(t, s.ResizeViewportTexture(640, 360))
	assert.Equal(t, uint32(640), s.viewport.Width)
}

func TestRenderUnconfiguredSurfaceIsNoOp(t *testing.T) {
	s := &Surface{}
	batch, err := s.Render(0.016)
	assert.NoError(t, err)
	assert.Empty(t, batch)
}

func TestSubmitRecoversNativeAbort(t *testing.T) {
	// submitting without a live queue aborts inside the native layer; the
	// wrapper must surface that as an error, not a panic
	s := &Surface{}
	assert.Error(t, s.submit(nil))
	assert.Error(t, s.submitAndPresent(nil))
}

func TestClampDim(t *testing.T) {
	assert.Equal(t, uint32(1), clampDim(0))
	assert.Equal(t, uint32(7), clampDim(7))
}
