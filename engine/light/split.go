package light

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// pointVolumeScale inflates a point light's range so the tessellated sphere volume
// encloses the true sphere.
const pointVolumeScale float32 = 1.36

const largeEpsilon float32 = 0.00005

// Split is one per-view, per-frame sub-light: a whole light, one directional cascade or
// one face of a point light. A view owns its splits in an arena and refers to shadow
// cameras by index.
type Split struct {
	Parameters

	// Original is the scene light the split was made from.
	Original Light
	Position [3]float32
	Rotation [4]float32
	// Distance is the light's distance from the view camera.
	Distance       float32
	LightMask      uint32
	ShadowDistance float32
	CastShadows    bool

	NearSplit     float32
	FarSplit      float32
	NearFadeRange float32
	FarFadeRange  float32

	// ShadowCamera indexes the view's shadow camera arena, -1 when unshadowed.
	ShadowCamera int
	ShadowMap    graphics.Texture
}

// Direction returns the split's facing direction.
func (s *Split) Direction() [3]float32 {
	return common.QuatRotate(s.Rotation, [3]float32{0, 0, 1})
}

// Transform returns the unscaled world transform of the split.
func (s *Split) Transform() [16]float32 {
	return common.ComposeMatrix(s.Position, s.Rotation, [3]float32{1, 1, 1})
}

// Frustum returns the world-space frustum of a spot light or point light face.
func (s *Split) Frustum() common.Frustum {
	var f common.Frustum
	f.DefinePerspective(s.Fov, s.AspectRatio, 1, common.MinNearClip, s.Range, s.Transform())
	return f
}

// WorldBoundingBox returns the lit volume's bounding box. Directional splits are unbounded.
func (s *Split) WorldBoundingBox() common.BoundingBox {
	switch s.Type {
	case LightTypeDirectional:
		return common.NewBoundingBox([3]float32{-LargeValue, -LargeValue, -LargeValue}, [3]float32{LargeValue, LargeValue, LargeValue})
	case LightTypeSpot, LightTypeSplitPoint:
		return s.Frustum().BoundingBox()
	default:
		r := s.Range
		return common.NewBoundingBox(common.Sub3(s.Position, [3]float32{r, r, r}), common.Add3(s.Position, [3]float32{r, r, r}))
	}
}

// VolumeExtent returns the distance from the light position to the farthest point of its
// volume geometry. A camera closer than this may be inside the volume.
func (s *Split) VolumeExtent() float32 {
	switch s.Type {
	case LightTypePoint:
		return s.Range * pointVolumeScale
	case LightTypeSpot, LightTypeSplitPoint:
		safeRange := s.Range * 1.001
		yScale := math32.Tan(s.Fov*common.DegToRad*0.5) * safeRange
		xScale := s.AspectRatio * yScale
		return math32.Sqrt(xScale*xScale + yScale*yScale + safeRange*safeRange)
	}
	return LargeValue
}

// VolumeTransform returns the model transform of the light's volume geometry. For
// directional splits it is a view-space transform of the far quad and the batch must
// override the view matrix.
func (s *Split) VolumeTransform(cam camera.Camera) [16]float32 {
	switch s.Type {
	case LightTypeDirectional:
		return s.DirLightTransform(cam, false)
	case LightTypeSpot, LightTypeSplitPoint:
		safeRange := s.Range * 1.001
		yScale := math32.Tan(s.Fov*common.DegToRad*0.5) * safeRange
		xScale := s.AspectRatio * yScale
		return common.ComposeMatrix(s.Position, s.Rotation, [3]float32{xScale, yScale, safeRange})
	}
	return common.ComposeMatrix(s.Position, common.IdentityQuat, [3]float32{s.Range, s.Range, s.Range})
}

// DirLightTransform returns the view-space transform of a unit quad placed at the split's
// near or far distance, sized to cover the camera frustum at that depth. The distance is
// kept just inside the camera's clip range.
//
// Parameters:
//   - cam: the view camera
//   - nearQuad: place the quad at the near split instead of the far split
//
// Returns:
//   - [16]float32: the quad transform in view space
func (s *Split) DirLightTransform(cam camera.Camera, nearQuad bool) [16]float32 {
	_, farVector := cam.FrustumSize()
	nearClip := cam.NearClip()
	farClip := cam.FarClip()

	distance := s.FarSplit
	if nearQuad {
		distance = s.NearSplit
	}
	distance = common.Clamp(distance, (1+largeEpsilon)*nearClip, (1-largeEpsilon)*farClip)
	if !cam.Orthographic() {
		ratio := distance / farClip
		farVector[0] *= ratio
		farVector[1] *= ratio
	}
	farVector[2] = distance

	return common.ComposeMatrix([3]float32{0, 0, distance}, common.IdentityQuat, [3]float32{farVector[0], farVector[1], 1})
}

// CoversCamera reports whether the split spans the camera's whole clip range.
func (s *Split) CoversCamera(cam camera.Camera) bool {
	return s.NearSplit <= cam.NearClip() && s.FarSplit >= cam.FarClip()
}

// ShadowParameters returns the shadow intensity vector: darkening amount, intensity after
// distance fade, and the near and far split as fractions of the camera far clip.
func (s *Split) ShadowParameters(cam camera.Camera) [4]float32 {
	intensity := s.ShadowIntensity
	fadeStart := s.ShadowFadeDistance
	fadeEnd := s.ShadowDistance
	if fadeStart > 0 && fadeEnd > 0 && fadeEnd > fadeStart {
		intensity = common.Lerp(intensity, 1, common.Clamp((s.Distance-fadeStart)/(fadeEnd-fadeStart), 0, 1))
	}
	farClip := cam.FarClip()
	return [4]float32{1 - intensity, intensity, s.NearSplit / farClip, s.FarSplit / farClip}
}
