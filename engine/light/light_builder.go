package light

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// LightBuilderOption configures a light in NewLight.
type LightBuilderOption func(*lightImpl)

// WithPosition places a point or spot light in world space. Directional lights ignore it.
//
// Parameters:
//   - x, y, z: world position
//
// Returns:
//   - LightBuilderOption: the option
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = [3]float32{x, y, z}
	}
}

// WithDirection aims a directional or spot light. The vector does not need to be unit length.
//
// Parameters:
//   - x, y, z: direction the light travels in
//
// Returns:
//   - LightBuilderOption: the option
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.direction = normalize3(x, y, z)
	}
}

// WithColor sets the linear RGB light color.
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Color = [3]float32{r, g, b}
	}
}

// WithIntensity scales the light color. Negative values clamp to zero.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Intensity = max(intensity, 0)
	}
}

// WithSpecularIntensity sets the specular highlight multiplier.
func WithSpecularIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.SpecularIntensity = max(intensity, 0)
	}
}

// WithRange sets the distance at which point and spot light attenuation reaches zero.
//
// Parameters:
//   - lightRange: range in world units, clamped to zero or more
//
// Returns:
//   - LightBuilderOption: the option
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Range = max(lightRange, 0)
	}
}

// WithSpotFrustum is an option builder that sets a spot light's field of view and aspect ratio.
//
// Parameters:
//   - fov: vertical field of view in degrees, clamped to (0, MaxFov]
//   - aspect: width to height ratio
//
// Returns:
//   - LightBuilderOption: the option
func WithSpotFrustum(fov, aspect float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.Fov = common.Clamp(fov, common.Epsilon, common.MaxFov)
		l.params.AspectRatio = max(aspect, common.Epsilon)
	}
}

// WithFade sets the distances at which the light and its shadow start fading out. The
// light's draw and shadow distances are where the fades end.
func WithFade(fadeDistance, shadowFadeDistance float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.FadeDistance = max(fadeDistance, 0)
		l.params.ShadowFadeDistance = max(shadowFadeDistance, 0)
	}
}

// WithCastShadows is an option builder that makes the light eligible for shadow maps.
//
// Parameters:
//   - castShadows: whether the light casts shadows
//
// Returns:
//   - LightBuilderOption: a function that applies the option to a lightImpl
func WithCastShadows(castShadows bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.Base.SetCastShadows(castShadows)
	}
}

// WithShadowIntensity sets the shadow darkness, 0 being fully dark.
func WithShadowIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.ShadowIntensity = common.Clamp(intensity, 0, 1)
	}
}

// WithShadowResolution sets the shadow map size as a fraction of the maximum.
func WithShadowResolution(resolution float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.ShadowResolution = common.Clamp(resolution, 0.125, 1)
	}
}

// WithShadowNearFarRatio sets the near clip of spot and point shadow cameras as a
// fraction of the light range.
func WithShadowNearFarRatio(ratio float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.ShadowNearFarRatio = common.Clamp(ratio, 0, 0.5)
	}
}

// WithShadowBias sets the shadow depth bias.
func WithShadowBias(bias BiasParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.ShadowBias = bias
	}
}

// WithShadowCascade sets the cascade layout of a directional light.
//
// Parameters:
//   - cascade: split count, lambda, fade range and shadow range
//
// Returns:
//   - LightBuilderOption: a function that applies the cascade option to a lightImpl
func WithShadowCascade(cascade CascadeParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.ShadowCascade = cascade
	}
}

// WithShadowFocus sets how shadow cameras are fitted to the scene.
func WithShadowFocus(focus FocusParameters) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.ShadowFocus = focus
	}
}

// WithTextures sets the attenuation ramp and spot shape textures.
func WithTextures(ramp, shape graphics.Texture) LightBuilderOption {
	return func(l *lightImpl) {
		l.params.RampTexture = ramp
		l.params.ShapeTexture = shape
	}
}

// WithDrawable applies shared drawable options such as masks and draw distance.
//
// Parameters:
//   - opts: drawable options
//
// Returns:
//   - LightBuilderOption: a function that applies the drawable options to a lightImpl
func WithDrawable(opts ...drawable.Option) LightBuilderOption {
	return func(l *lightImpl) {
		for _, opt := range opts {
			opt(&l.Base)
		}
	}
}
