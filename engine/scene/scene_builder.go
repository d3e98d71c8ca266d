package scene

import (
	"github.com/Carmen-Shannon/oxy-view/engine/debug"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/spatial"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithDrawables adds initial drawables to the scene. They are assigned IDs in order and
// inserted into the spatial index once it is created.
//
// Parameters:
//   - drawables: the drawables to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDrawables(drawables ...drawable.Drawable) SceneBuilderOption {
	return func(s *scene) {
		for _, d := range drawables {
			if d == nil {
				continue
			}
			s.registry[s.nextID] = d
			s.nextID++
			if l, ok := d.(light.Light); ok {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithIndex sets the spatial index of the scene. Defaults to a linear index.
//
// Parameters:
//   - index: the spatial index
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithIndex(index spatial.Index) SceneBuilderOption {
	return func(s *scene) {
		s.index = index
	}
}

// WithDebugRenderer attaches a debug line renderer to the scene.
//
// Parameters:
//   - d: the debug renderer
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDebugRenderer(d debug.DebugRenderer) SceneBuilderOption {
	return func(s *scene) {
		s.debug = d
	}
}
