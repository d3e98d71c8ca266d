// Package backend implements graphics.Graphics on WebGPU.
//
// Shader variations are compiled from their WGSL Source and must follow one binding
// convention, shared by every pipeline:
//
//   - @group(0) @binding(0): the parameter block, a uniform struct laid out as described by
//     UniformLayout. Every shader parameter occupies whole vec4 slots.
//   - @group(1) @binding(2u) and @binding(2u+1): texture and sampler of texture unit u.
//     Depth textures are texture_depth_2d with a sampler_comparison, R32F textures are
//     unfilterable and use a non-filtering sampler, every other unit is texture_2d<f32>.
//   - Vertex inputs: @location(0) position, @location(1) normal when the vertex stride is at
//     least 6 floats, @location(2) texcoord when it is at least 8 floats. Instanced draws
//     add the three rows of the 3x4 instance transform at @location(4), (5) and (6).
//
// Variations without Source are placeholders and their draws are skipped.
package backend

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

func logger() *slog.Logger {
	return common.ComponentLogger("backend")
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount is the number of samples of the back buffer. WebGPU guarantees 1 and 4;
// higher counts are adapter dependent.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
	MSAA8x  MSAASampleCount = 8
)

// Backend is a graphics.Graphics drawing into a window surface.
type Backend interface {
	graphics.Graphics

	// Resize reconfigures the surface and the default depth buffer. Sizes below one pixel
	// are ignored, which happens while a window is minimized.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// SetPresentMode changes how frames are presented. Applied at the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees every GPU object the backend owns. The backend must not be used afterwards.
	Release()
}
