package renderer

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/scene"
)

// Viewport is a scene seen through a camera, drawn into a rectangle of a render target.
//
// Updating a view writes into its camera: the aspect ratio follows the view rectangle
// when the camera's auto aspect ratio is on, and the projection offset is reset. Viewports
// sharing one camera therefore render with the aspect of whichever view updated last;
// give viewports of different shapes their own cameras, or turn auto aspect ratio off.
type Viewport struct {
	Scene  scene.Scene
	Camera camera.Camera
	// Rect is the pixel rectangle within the target; a zero rect covers the whole target.
	Rect common.IntRect
}

// NewViewport creates a viewport.
//
// Parameters:
//   - s: the scene to render
//   - cam: the camera to render it from
//   - rect: the target rectangle, zero for the full target
//
// Returns:
//   - *Viewport: the viewport
func NewViewport(s scene.Scene, cam camera.Camera, rect common.IntRect) *Viewport {
	return &Viewport{Scene: s, Camera: cam, Rect: rect}
}
