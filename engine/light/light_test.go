package light

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint)

	p := l.Parameters()
	assert.Equal(t, LightTypePoint, l.Type())
	assert.Equal(t, float32(10), p.Range)
	assert.Equal(t, float32(30), p.Fov)
	assert.Equal(t, float32(1), p.AspectRatio)
	assert.Equal(t, float32(1), p.ShadowResolution)
	assert.Equal(t, DefaultCascade(), p.ShadowCascade)
	assert.Equal(t, DefaultFocus(), p.ShadowFocus)
	assert.Equal(t, drawable.FlagLight, l.Core().Flags())
	assert.False(t, l.Core().CastShadows())
}

func TestCascadeIsValidated(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithShadowCascade(CascadeParameters{Splits: 9, Lambda: 2, SplitFadeRange: -1}))

	c := l.Parameters().ShadowCascade
	assert.Equal(t, MaxCascadeSplits, c.Splits)
	assert.Equal(t, float32(1), c.Lambda)
	assert.Equal(t, float32(0), c.SplitFadeRange)
	assert.Equal(t, LargeValue, c.ShadowRange)
}

func TestPointLightBoundingBoxFollowsRange(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(5, 0, 0), WithRange(2))

	box := l.WorldBoundingBox()
	assert.InDelta(t, 3, box.Min[0], 1e-4)
	assert.InDelta(t, 7, box.Max[0], 1e-4)

	l.SetRange(4)
	box = l.WorldBoundingBox()
	assert.InDelta(t, 1, box.Min[0], 1e-4)
	assert.InDelta(t, 9, box.Max[0], 1e-4)
}

func TestSpotLightBoundingBoxCoversFrustum(t *testing.T) {
	l := NewLight(LightTypeSpot, WithDirection(0, 0, 1), WithRange(10), WithSpotFrustum(90, 1))

	box := l.WorldBoundingBox()
	assert.InDelta(t, 10, box.Max[2], 1e-3)
	assert.InDelta(t, 10, box.Max[0], 1e-3)
	assert.Equal(t, common.Inside, l.Frustum().IsInsidePoint([3]float32{0, 0, 5}))
	assert.Equal(t, common.Outside, l.Frustum().IsInsidePoint([3]float32{0, 0, -1}))
}

func TestUpdateDistance(t *testing.T) {
	cam := camera.NewCamera()
	frame := drawable.FrameInfo{Camera: cam}

	dir := NewLight(LightTypeDirectional)
	assert.Equal(t, float32(0), dir.UpdateDistance(frame).Distance)

	point := NewLight(LightTypePoint, WithPosition(0, 3, 4))
	assert.InDelta(t, 5, point.UpdateDistance(frame).Distance, 1e-4)
}

func TestSortKeyOrdersDirectionalFirstThenNearest(t *testing.T) {
	viewer := [3]float32{0, 0, 0}
	sun := NewLight(LightTypeDirectional)
	near := NewLight(LightTypePoint, WithPosition(0, 0, 2))
	far := NewLight(LightTypePoint, WithPosition(0, 0, 20))
	bright := NewLight(LightTypePoint, WithPosition(0, 0, 20), WithIntensity(20))

	assert.Less(t, sun.SortKey(viewer), near.SortKey(viewer))
	assert.Less(t, near.SortKey(viewer), far.SortKey(viewer))
	assert.Less(t, bright.SortKey(viewer), far.SortKey(viewer))
}

func TestSortKeyForBoxPrefersUnattenuated(t *testing.T) {
	box := common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	touching := NewLight(LightTypePoint, WithPosition(2, 0, 0), WithRange(10))
	distant := NewLight(LightTypePoint, WithPosition(9, 0, 0), WithRange(10))

	assert.Less(t, touching.SortKeyForBox(box), distant.SortKeyForBox(box))
}

func TestNewSplitIsIndependentCopy(t *testing.T) {
	l := NewLight(LightTypeSpot, WithPosition(1, 2, 3), WithCastShadows(true), WithRange(7))

	s := l.NewSplit()
	require.Same(t, l, s.Original)
	assert.Equal(t, LightTypeSpot, s.Type)
	assert.Equal(t, [3]float32{1, 2, 3}, s.Position)
	assert.True(t, s.CastShadows)
	assert.Equal(t, -1, s.ShadowCamera)
	assert.Equal(t, LargeValue, s.FarSplit)

	s.Range = 1
	s.Type = LightTypeSplitPoint
	assert.Equal(t, float32(7), l.Range())
	assert.Equal(t, LightTypeSpot, l.Type())
}

func TestSplitVolumeExtent(t *testing.T) {
	point := NewLight(LightTypePoint, WithRange(10)).NewSplit()
	assert.InDelta(t, 13.6, point.VolumeExtent(), 1e-4)

	spot := NewLight(LightTypeSpot, WithRange(10), WithSpotFrustum(90, 1)).NewSplit()
	r := float32(10 * 1.001)
	assert.InDelta(t, math32.Sqrt(3*r*r), spot.VolumeExtent(), 1e-3)

	dir := NewLight(LightTypeDirectional).NewSplit()
	assert.Equal(t, LargeValue, dir.VolumeExtent())
}

func TestDirLightTransformClampsToClipRange(t *testing.T) {
	cam := camera.NewCamera(camera.WithFov(90), camera.WithNear(1), camera.WithFar(100))
	s := NewLight(LightTypeDirectional).NewSplit()

	far := s.DirLightTransform(cam, false)
	assert.InDelta(t, 100*(1-largeEpsilon), far[14], 1e-3)
	assert.InDelta(t, 100*(1-largeEpsilon), far[5], 1e-2)

	s.NearSplit = 10
	near := s.DirLightTransform(cam, true)
	assert.InDelta(t, 10, near[14], 1e-4)
	assert.InDelta(t, 10, near[0], 1e-3)
}

func TestSplitCoversCamera(t *testing.T) {
	cam := camera.NewCamera(camera.WithNear(0.5), camera.WithFar(100))
	s := NewLight(LightTypeDirectional).NewSplit()
	assert.True(t, s.CoversCamera(cam))

	s.NearSplit = 10
	assert.False(t, s.CoversCamera(cam))
}

func TestSplitPointFrustumFacesItsAxis(t *testing.T) {
	s := NewLight(LightTypePoint, WithRange(5)).NewSplit()
	s.Type = LightTypeSplitPoint
	s.Fov = 90
	s.AspectRatio = 1
	s.Rotation = common.QuatFromRotationTo([3]float32{0, 0, 1}, [3]float32{1, 0, 0})

	f := s.Frustum()
	assert.Equal(t, common.Inside, f.IsInsidePoint([3]float32{3, 0, 0}))
	assert.Equal(t, common.Outside, f.IsInsidePoint([3]float32{-3, 0, 0}))
	d := s.Direction()
	assert.InDelta(t, 1, d[0], 1e-5)
}
