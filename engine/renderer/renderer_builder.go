package renderer

import (
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
	"github.com/Carmen-Shannon/oxy-view/engine/profiler"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithSettings replaces the default settings. They are validated by NewRenderer.
//
// Parameters:
//   - s: the renderer settings
//
// Returns:
//   - RendererBuilderOption: a function that applies the settings to a renderer
func WithSettings(s Settings) RendererBuilderOption {
	return func(r *renderer) {
		r.settings = s
	}
}

// WithRenderMode selects forward or deferred rendering on top of the current settings.
//
// Parameters:
//   - mode: the render mode
//
// Returns:
//   - RendererBuilderOption: a function that applies the render mode to a renderer
func WithRenderMode(mode RenderMode) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.RenderMode = mode
	}
}

// WithWorkers sets the number of goroutines updating views in parallel.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count to a renderer
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.settings.Workers = n
	}
}

// WithShaderLoader sets the function resolving shader variation sources. Without a loader
// variations are placeholders identified by name only.
//
// Parameters:
//   - loader: the shader source loader
//
// Returns:
//   - RendererBuilderOption: a function that applies the loader to a renderer
func WithShaderLoader(loader ShaderLoader) RendererBuilderOption {
	return func(r *renderer) {
		r.shaders = newShaderLibrary(loader)
	}
}

// WithDefaultZone replaces the zone used when the camera is inside no scene zone.
//
// Parameters:
//   - z: the default zone
//
// Returns:
//   - RendererBuilderOption: a function that applies the zone to a renderer
func WithDefaultZone(z *drawable.Zone) RendererBuilderOption {
	return func(r *renderer) {
		r.defaultZone = z
	}
}

// WithDefaultMaterial replaces the material used by batches without one.
//
// Parameters:
//   - m: the default material
//
// Returns:
//   - RendererBuilderOption: a function that applies the material to a renderer
func WithDefaultMaterial(m material.Material) RendererBuilderOption {
	return func(r *renderer) {
		r.defaultMaterial = m
	}
}

// WithViewport appends a back buffer viewport.
//
// Parameters:
//   - vp: the viewport
//
// Returns:
//   - RendererBuilderOption: a function that appends the viewport to a renderer
func WithViewport(vp *Viewport) RendererBuilderOption {
	return func(r *renderer) {
		r.viewports = append(r.viewports, vp)
	}
}

// WithProfiler times the view update and render phases into p.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler to a renderer
func WithProfiler(p *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.profiler = p
	}
}
