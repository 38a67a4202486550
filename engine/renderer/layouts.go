package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/emberforge/ember/engine/renderer/metadata"
)

// buildBindGroupLayouts creates the layout set shared by every render pass
// drawing into one surface. The layouts are immutable for the surface's
// lifetime.
func buildBindGroupLayouts(device *wgpu.Device) (*metadata.BindGroupLayouts, error) {
	global, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "global uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeUniform,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create global bind group layout: %w", err)
	}

	material, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		global.Release()
		return nil, fmt.Errorf("failed to create material bind group layout: %w", err)
	}

	storage, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "instance storage",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type: wgpu.BufferBindingTypeReadOnlyStorage,
				},
			},
		},
	})
	if err != nil {
		global.Release()
		material.Release()
		return nil, fmt.Errorf("failed to create storage bind group layout: %w", err)
	}

	return &metadata.BindGroupLayouts{
		Global:   global,
		Material: material,
		Storage:  storage,
	}, nil
}
