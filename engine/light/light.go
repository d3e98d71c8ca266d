package light

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. It lights everything in the
	// view and may be split into shadow cascades.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// A shadowed point light is split into six faces.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a frustum from a position along a
	// direction, shaped by its field of view and aspect ratio.
	LightTypeSpot

	// LightTypeSplitPoint tags one face of a split point light. Scene lights never have
	// this type.
	LightTypeSplitPoint
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "Directional"
	case LightTypePoint:
		return "Point"
	case LightTypeSpot:
		return "Spot"
	case LightTypeSplitPoint:
		return "SplitPoint"
	}
	return "Unknown"
}

// Parameters is the copyable description of a light. Split lights carry their own copy
// so one light can be split differently in views that update concurrently.
type Parameters struct {
	Type               LightType
	Color              [3]float32
	Intensity          float32
	SpecularIntensity  float32
	Range              float32
	Fov                float32
	AspectRatio        float32
	FadeDistance       float32
	ShadowFadeDistance float32
	ShadowIntensity    float32
	ShadowResolution   float32
	ShadowNearFarRatio float32
	ShadowBias         BiasParameters
	ShadowCascade      CascadeParameters
	ShadowFocus        FocusParameters
	// RampTexture overrides the renderer's default attenuation ramp.
	RampTexture graphics.Texture
	// ShapeTexture overrides the renderer's default spot shape.
	ShapeTexture graphics.Texture
}

// Brightness returns the intensity scaled by the brightest color channel.
func (p *Parameters) Brightness() float32 {
	return p.Intensity * max(p.Color[0], p.Color[1], p.Color[2])
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	drawable.Base
	params    Parameters
	position  [3]float32
	direction [3]float32
}

// Light defines the interface for a light source in the scene.
//
// Lights are drawables: the spatial index returns them from frustum queries next to
// geometry, and the view processes the visible ones into lit and shadow batches.
// Lights never produce batches of their own.
//
// A light is configured between frames. While views update, it is only read; the view
// copies its Parameters into per-view Split entries.
type Light interface {
	drawable.Drawable

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Parameters returns a copy of the light's shading and shadow parameters.
	//
	// Returns:
	//   - Parameters: the parameter snapshot
	Parameters() Parameters

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the frustum axis. Meaningless for point lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Rotation returns the rotation turning +Z onto the light direction.
	Rotation() [4]float32

	// Color returns the RGB color of the light.
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	Range() float32

	// Fov returns the vertical field of view of a spot light in degrees.
	Fov() float32

	// AspectRatio returns the width to height ratio of a spot light's frustum.
	AspectRatio() float32

	// ShadowIntensity returns the shadow darkness, 0 being fully dark and 1 no shadow.
	ShadowIntensity() float32

	// ShadowResolution returns the shadow map size as a fraction of the maximum.
	ShadowResolution() float32

	// Frustum returns the world-space frustum of a spot light.
	//
	// Returns:
	//   - common.Frustum: the frustum from MinNearClip to the light range
	Frustum() common.Frustum

	// SortKey returns the value the view sorts visible lights by, ascending. Directional
	// lights sort first, brightest first; other lights rank by distance over brightness.
	//
	// Parameters:
	//   - position: the viewer position
	//
	// Returns:
	//   - float32: the sort key
	SortKey(position [3]float32) float32

	// SortKeyForBox returns the value a drawable ranks this light by when limiting its
	// number of lights, ascending. The key grows as attenuation at the box weakens.
	//
	// Parameters:
	//   - box: the drawable's world bounding box
	//
	// Returns:
	//   - float32: the sort key
	SortKeyForBox(box common.BoundingBox) float32

	// NewSplit returns a split covering the whole light, before any cascading.
	//
	// Returns:
	//   - Split: a copy of the light's parameters and transform
	NewSplit() Split

	// SetType changes the kind of light source.
	SetType(lightType LightType)

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	SetRange(lightRange float32)

	// SetFov sets the spot light field of view in degrees, clamped to (0, MaxFov].
	SetFov(fov float32)

	// SetAspectRatio sets the spot light aspect ratio.
	SetAspectRatio(aspect float32)

	// SetShadowIntensity sets the shadow darkness, clamped to [0, 1].
	SetShadowIntensity(intensity float32)

	// SetShadowResolution sets the shadow map size fraction, clamped to [0.125, 1].
	SetShadowResolution(resolution float32)

	// SetShadowBias sets the depth bias used for the shadow map.
	SetShadowBias(bias BiasParameters)

	// SetShadowCascade sets the directional cascade layout.
	SetShadowCascade(cascade CascadeParameters)

	// SetShadowFocus sets the shadow camera focusing behavior.
	SetShadowFocus(focus FocusParameters)

	// SetTextures sets the attenuation ramp and spot shape textures. Nil selects the
	// renderer's defaults.
	SetTextures(ramp, shape graphics.Texture)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type with the given options applied.
//
// Defaults: white color, intensity 1, range 10, fov 30, aspect 1, direction (0, -1, 0),
// no shadow casting, default bias, cascade and focus parameters.
//
// Parameters:
//   - lightType: the kind of light source
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the configured light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		Base: drawable.NewBase(drawable.FlagLight),
		params: Parameters{
			Type:               lightType,
			Color:              [3]float32{1, 1, 1},
			Intensity:          1,
			SpecularIntensity:  1,
			Range:              10,
			Fov:                30,
			AspectRatio:        1,
			ShadowResolution:   1,
			ShadowNearFarRatio: DefaultShadowNearFarRatio,
			ShadowBias:         DefaultBias(),
			ShadowCascade:      DefaultCascade(),
			ShadowFocus:        DefaultFocus(),
		},
		direction: [3]float32{0, -1, 0},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.params.ShadowCascade = l.params.ShadowCascade.validated()
	l.params.ShadowFocus = l.params.ShadowFocus.validated()
	l.updateTransform()
	return l
}

func (l *lightImpl) Type() LightType {
	return l.params.Type
}

func (l *lightImpl) Parameters() Parameters {
	return l.params
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Rotation() [4]float32 {
	return common.QuatFromLookRotation(l.direction, lookUp(l.direction))
}

func (l *lightImpl) Color() [3]float32 {
	return l.params.Color
}

func (l *lightImpl) Intensity() float32 {
	return l.params.Intensity
}

func (l *lightImpl) Range() float32 {
	return l.params.Range
}

func (l *lightImpl) Fov() float32 {
	return l.params.Fov
}

func (l *lightImpl) AspectRatio() float32 {
	return l.params.AspectRatio
}

func (l *lightImpl) ShadowIntensity() float32 {
	return l.params.ShadowIntensity
}

func (l *lightImpl) ShadowResolution() float32 {
	return l.params.ShadowResolution
}

func (l *lightImpl) Frustum() common.Frustum {
	var f common.Frustum
	f.DefinePerspective(l.params.Fov, l.params.AspectRatio, 1, common.MinNearClip, l.params.Range, l.WorldTransform())
	return f
}

func (l *lightImpl) SortKey(position [3]float32) float32 {
	brightness := max(l.params.Brightness(), common.Epsilon)
	if l.params.Type == LightTypeDirectional {
		return -brightness
	}
	distance := max(common.Length3(common.Sub3(l.position, position)), common.MinNearClip)
	return distance / brightness
}

func (l *lightImpl) SortKeyForBox(box common.BoundingBox) float32 {
	brightness := l.params.Brightness()
	if l.params.Type == LightTypeDirectional {
		return 1 / (brightness + common.Epsilon)
	}
	normDist := box.DistanceTo(l.position) / max(l.params.Range, common.Epsilon)
	attenuation := max(1-normDist*normDist, 0)
	return 1 / (brightness*attenuation + common.Epsilon)
}

func (l *lightImpl) NewSplit() Split {
	return Split{
		Parameters:     l.params,
		Original:       l,
		Position:       l.position,
		Rotation:       l.Rotation(),
		LightMask:      l.LightMask(),
		ShadowDistance: l.ShadowDistance(),
		CastShadows:    l.CastShadows(),
		FarSplit:       LargeValue,
		ShadowCamera:   -1,
	}
}

// UpdateDistance measures the distance from the camera to the light position. Directional
// lights are at distance 0.
func (l *lightImpl) UpdateDistance(frame drawable.FrameInfo) drawable.ViewState {
	if frame.Camera == nil || l.params.Type == LightTypeDirectional {
		return drawable.ViewState{}
	}
	d := frame.Camera.Distance(l.position)
	return drawable.ViewState{Distance: d, LodDistance: d}
}

func (l *lightImpl) SetType(lightType LightType) {
	if lightType == LightTypeSplitPoint {
		lightType = LightTypePoint
	}
	l.params.Type = lightType
	l.updateTransform()
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
	l.updateTransform()
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
	l.updateTransform()
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.params.Color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.params.Intensity = max(intensity, 0)
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.params.Range = max(lightRange, 0)
	l.updateTransform()
}

func (l *lightImpl) SetFov(fov float32) {
	l.params.Fov = common.Clamp(fov, common.Epsilon, common.MaxFov)
	l.updateTransform()
}

func (l *lightImpl) SetAspectRatio(aspect float32) {
	l.params.AspectRatio = max(aspect, common.Epsilon)
	l.updateTransform()
}

func (l *lightImpl) SetShadowIntensity(intensity float32) {
	l.params.ShadowIntensity = common.Clamp(intensity, 0, 1)
}

func (l *lightImpl) SetShadowResolution(resolution float32) {
	l.params.ShadowResolution = common.Clamp(resolution, 0.125, 1)
}

func (l *lightImpl) SetShadowBias(bias BiasParameters) {
	l.params.ShadowBias = bias
}

func (l *lightImpl) SetShadowCascade(cascade CascadeParameters) {
	l.params.ShadowCascade = cascade.validated()
}

func (l *lightImpl) SetShadowFocus(focus FocusParameters) {
	l.params.ShadowFocus = focus.validated()
}

func (l *lightImpl) SetTextures(ramp, shape graphics.Texture) {
	l.params.RampTexture = ramp
	l.params.ShapeTexture = shape
}

// updateTransform rebuilds the world transform and the local bounding box for the
// current type, position, direction and range.
func (l *lightImpl) updateTransform() {
	var box common.BoundingBox
	switch l.params.Type {
	case LightTypeDirectional:
		box = common.NewBoundingBox([3]float32{-LargeValue, -LargeValue, -LargeValue}, [3]float32{LargeValue, LargeValue, LargeValue})
	case LightTypeSpot:
		var f common.Frustum
		f.DefinePerspective(l.params.Fov, l.params.AspectRatio, 1, 0, l.params.Range, common.IdentityMatrix())
		box = f.BoundingBox()
	default:
		r := l.params.Range
		box = common.NewBoundingBox([3]float32{-r, -r, -r}, [3]float32{r, r, r})
	}
	l.Base.SetBoundingBox(box)
	l.Base.SetTransform(l.position, l.Rotation(), [3]float32{1, 1, 1})
}

// lookUp picks an up vector that is not parallel to dir.
func lookUp(dir [3]float32) [3]float32 {
	if math32.Abs(dir[1]) > 0.999 {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{0, 1, 0}
}

func normalize3(x, y, z float32) [3]float32 {
	l := math32.Sqrt(x*x + y*y + z*z)
	if l < common.Epsilon {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{x / l, y / l, z / l}
}
