package camera

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/chewxy/math32"
)

type CameraBuilderOption func(*cameraImpl)

// WithPosition sets the camera's world position.
//
// Parameters:
//   - x, y, z: world-space position
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = [3]float32{x, y, z}
	}
}

// WithDirection orients the camera to look along a direction.
//
// Parameters:
//   - x, y, z: world-space viewing direction
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's orientation
func WithDirection(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rotation = common.QuatFromLookRotation([3]float32{x, y, z}, [3]float32{0, 1, 0})
	}
}

// WithRotation sets the camera's orientation quaternion.
func WithRotation(q [4]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.rotation = q
	}
}

// WithFov sets the camera's vertical field of view in degrees.
//
// Parameters:
//   - fov: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = common.Clamp(fov, 0, common.MaxFov)
	}
}

// WithAspect sets the camera's aspect ratio (width / height) and disables auto aspect.
//
// Parameters:
//   - aspect: the aspect ratio to set
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
		c.autoAspect = false
	}
}

// WithNear sets the near clipping plane distance.
//
// Parameters:
//   - near: near plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the near plane
func WithNear(near float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = math32.Max(near, common.MinNearClip)
	}
}

// WithFar sets the far clipping plane distance.
//
// Parameters:
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the far plane
func WithFar(far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.far = math32.Max(far, common.MinNearClip)
	}
}

// WithOrthographic switches the camera to an orthographic projection.
//
// Parameters:
//   - size: full vertical extent of the view volume
//
// Returns:
//   - CameraBuilderOption: a function that enables orthographic projection
func WithOrthographic(size float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orthographic = true
		c.orthoSize = size
	}
}

// WithZoom sets the projection zoom factor.
func WithZoom(zoom float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoom = math32.Max(zoom, common.Epsilon)
	}
}

// WithAutoAspect enables or disables taking the aspect ratio from the viewport.
func WithAutoAspect(enable bool) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.autoAspect = enable
	}
}

// WithLodBias sets the LOD bias.
func WithLodBias(bias float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.lodBias = math32.Max(bias, common.Epsilon)
	}
}

// WithViewMask sets the view mask drawables must match.
//
// Parameters:
//   - mask: bitmask tested against each drawable's view mask
//
// Returns:
//   - CameraBuilderOption: a function that sets the view mask
func WithViewMask(mask uint32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewMask = mask
	}
}

// WithViewOverrideFlags sets quality override flags.
func WithViewOverrideFlags(flags ViewOverrideFlags) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.viewOverride = flags
	}
}
