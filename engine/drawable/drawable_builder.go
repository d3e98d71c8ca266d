package drawable

import (
	"github.com/Carmen-Shannon/oxy-view/common"
)

// Option configures drawable state during construction.
type Option func(*Base)

// WithTransform sets the world transform from position, rotation and scale.
//
// Parameters:
//   - position: world position
//   - rotation: orientation quaternion (x, y, z, w)
//   - scale: per-axis scale
//
// Returns:
//   - Option: a function that sets the world transform
func WithTransform(position [3]float32, rotation [4]float32, scale [3]float32) Option {
	return func(b *Base) {
		b.worldTransform = common.ComposeMatrix(position, rotation, scale)
	}
}

// WithPosition sets an unrotated, unscaled world transform at position.
func WithPosition(x, y, z float32) Option {
	return func(b *Base) {
		b.worldTransform = common.ComposeMatrix([3]float32{x, y, z}, common.IdentityQuat, [3]float32{1, 1, 1})
	}
}

// WithBoundingBox sets the local-space bounding box.
func WithBoundingBox(box common.BoundingBox) Option {
	return func(b *Base) {
		b.boundingBox = box
	}
}

// WithDrawDistance sets the maximum view distance; zero means unlimited.
//
// Parameters:
//   - d: the draw distance
//
// Returns:
//   - Option: a function that sets the draw distance
func WithDrawDistance(d float32) Option {
	return func(b *Base) {
		b.drawDistance = d
	}
}

// WithShadowDistance sets the maximum view distance for shadow casting; zero means unlimited.
func WithShadowDistance(d float32) Option {
	return func(b *Base) {
		b.shadowDistance = d
	}
}

// WithLightMask sets the mask matched against light masks.
func WithLightMask(mask uint32) Option {
	return func(b *Base) {
		b.lightMask = mask
	}
}

// WithViewMask sets the mask matched against camera and zone view masks.
func WithViewMask(mask uint32) Option {
	return func(b *Base) {
		b.viewMask = mask
	}
}

// WithCastShadows enables or disables shadow casting.
func WithCastShadows(enable bool) Option {
	return func(b *Base) {
		b.castShadows = enable
	}
}

// WithOccluder marks the drawable as an occluder.
func WithOccluder(enable bool) Option {
	return func(b *Base) {
		b.occluder = enable
	}
}

// WithOccludee sets whether the drawable may be culled by occlusion.
func WithOccludee(enable bool) Option {
	return func(b *Base) {
		b.occludee = enable
	}
}

// WithMaxLights limits per-pixel lights affecting the drawable; zero means unlimited.
//
// Parameters:
//   - n: the maximum light count
//
// Returns:
//   - Option: a function that sets the light limit
func WithMaxLights(n int) Option {
	return func(b *Base) {
		b.maxLights = max(n, 0)
	}
}

// WithLodBias sets the LOD bias.
func WithLodBias(bias float32) Option {
	return func(b *Base) {
		b.lodBias = max(bias, common.Epsilon)
	}
}

// WithEnabled sets whether the drawable takes part in rendering.
func WithEnabled(enabled bool) Option {
	return func(b *Base) {
		b.enabled = enabled
	}
}
