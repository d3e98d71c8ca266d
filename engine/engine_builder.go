package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-view/engine/profiler"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/window"
)

// EngineBuilderOption is a functional option applied to the engine during construction via NewEngine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the backend presents into. Its resize events resize the
// backend and Run polls its events.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: a function that applies the window to the engine
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRendererOptions passes options to the renderer the engine creates.
//
// Parameters:
//   - options: the renderer options
//
// Returns:
//   - EngineBuilderOption: a function that applies the renderer options to the engine
func WithRendererOptions(options ...renderer.RendererBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, options...)
	}
}

// WithViewport adds a back buffer viewport.
//
// Parameters:
//   - vp: the viewport
//
// Returns:
//   - EngineBuilderOption: a function that adds the viewport to the engine
func WithViewport(vp *renderer.Viewport) EngineBuilderOption {
	return func(e *engine) {
		e.rendererOptions = append(e.rendererOptions, renderer.WithViewport(vp))
	}
}

// WithSettingsFile loads renderer settings from a TOML or YAML file and reloads them while
// Run is active whenever the file changes. It overrides settings given through
// WithRendererOptions.
//
// Parameters:
//   - path: the settings file
//
// Returns:
//   - EngineBuilderOption: a function that applies the settings file to the engine
func WithSettingsFile(path string) EngineBuilderOption {
	return func(e *engine) {
		e.settingsFile = path
	}
}

// WithProfiling enables the frame profiler, logging frame statistics every interval.
//
// Parameters:
//   - interval: the reporting interval, zero for one second
//
// Returns:
//   - EngineBuilderOption: a function that enables profiling on the engine
func WithProfiling(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		var options []profiler.ProfilerBuilderOption
		if interval > 0 {
			options = append(options, profiler.WithUpdateInterval(interval))
		}
		e.profiler = profiler.NewProfiler(options...)
	}
}

// WithTickRate sets the tick rate in ticks per second. Values <= 0 select 60.
//
// Parameters:
//   - fps: ticks per second
//
// Returns:
//   - EngineBuilderOption: a function that applies the tick rate to the engine
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.tickRate = tickInterval(fps)
	}
}

// WithRenderFrameLimit caps the frame rate. 0 uncaps it.
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: a function that applies the frame limit to the engine
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}
