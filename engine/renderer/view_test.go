package renderer

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/batch"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
	"github.com/Carmen-Shannon/oxy-view/engine/scene"
)

func cubeGeometry() *graphics.Geometry {
	vertices := []float32{
		-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
		-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
	}
	indices := []uint32{
		0, 1, 2, 2, 3, 0,
		4, 5, 6, 6, 7, 4,
		0, 1, 5, 5, 4, 0,
		2, 3, 7, 7, 6, 2,
		0, 3, 7, 7, 4, 0,
		1, 2, 6, 6, 5, 1,
	}
	return graphics.NewGeometry("Cube", vertices, 3, indices)
}

func newCube(x, y, z float32, opts ...drawable.Option) *drawable.StaticModel {
	m := model.NewModel(model.WithGeometry(cubeGeometry()))
	return drawable.NewStaticModel(m, append([]drawable.Option{drawable.WithPosition(x, y, z)}, opts...)...)
}

func transparentMaterial() material.Material {
	base := material.NewPass(material.PassBase, "Unlit", "Unlit")
	base.BlendMode = graphics.BlendAlpha
	base.DepthWrite = false
	lit := material.NewPass(material.PassLight, "LitSolid", "LitSolid")
	lit.BlendMode = graphics.BlendAddAlpha
	lit.DepthWrite = false
	tech := material.NewTechnique("Alpha", base, lit)
	return material.NewMaterial(material.WithName("Alpha"), material.WithTechnique(tech, material.QualityLow, 0))
}

func newTestRenderer(t *testing.T, mutate func(*Settings)) (*renderer, *graphics.Recorder) {
	t.Helper()
	rec := graphics.NewRecorder(800, 600, graphics.Capabilities{
		SM3:             true,
		Instancing:      true,
		StreamOffset:    true,
		ShadowMapFormat: graphics.FormatDepth32F,
		MaxTextureSize:  4096,
	})
	s := DefaultSettings()
	s.DynamicInstancing = false
	s.MaxOccluderTriangles = 0
	s.Workers = 1
	if mutate != nil {
		mutate(&s)
	}
	r, err := NewRenderer(rec, WithSettings(s))
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r.(*renderer), rec
}

func newTestCamera() camera.Camera {
	return camera.NewCamera(camera.WithPosition(0, 0, -10), camera.WithNear(1), camera.WithFar(100))
}

// updateOne renders a scene through one back buffer viewport and returns its view.
func updateOne(t *testing.T, r *renderer, cam camera.Camera, drawables ...drawable.Drawable) *View {
	t.Helper()
	scn := scene.NewScene("test", scene.WithDrawables(drawables...))
	r.SetViewport(0, NewViewport(scn, cam, common.IntRect{}))
	r.Update(1.0 / 60)
	views := r.Views()
	require.Len(t, views, 1)
	return views[0]
}

func TestOpaqueBatchesFrontToBack(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	v := updateOne(t, r, newTestCamera(), newCube(0, 0, 20), newCube(0, 0, 0))

	all := v.BaseQueue().All()
	require.Len(t, all, 2)
	assert.Less(t, all[0].Distance, all[1].Distance)
	for i := range all {
		assert.True(t, all[i].IsValid())
		assert.True(t, all[i].HasPriority)
	}
	assert.True(t, v.TransparentQueue().IsEmpty())
}

func TestTransparentBatchesBackToFront(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	near := newCube(0, 0, 0)
	far := newCube(0, 0, 20)
	near.SetMaterial(transparentMaterial())
	far.SetMaterial(transparentMaterial())
	v := updateOne(t, r, newTestCamera(), near, far)

	all := v.TransparentQueue().All()
	require.Len(t, all, 2)
	assert.Greater(t, all[0].Distance, all[1].Distance)
	assert.True(t, v.BaseQueue().IsEmpty())
}

func TestDrawDistanceCullsGeometry(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	far := newCube(0, 0, 50, drawable.WithDrawDistance(50))
	near := newCube(0, 0, 0)
	v := updateOne(t, r, newTestCamera(), far, near)

	geometries := v.Geometries()
	require.Len(t, geometries, 1)
	assert.Same(t, near, geometries[0])
}

func TestLowMaterialQualityOverride(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	cam := newTestCamera()
	cam.SetViewOverrideFlags(camera.ViewOverrideLowMaterialQuality | camera.ViewOverrideDisableShadows)

	v := updateOne(t, r, cam, newCube(0, 0, 0))
	assert.Equal(t, material.QualityLow, v.materialQuality)
	assert.False(t, v.drawShadows)
}

func TestOversizedDeferredTargetReportedOnce(t *testing.T) {
	r, rec := newTestRenderer(t, func(s *Settings) { s.RenderMode = RenderModeDeferred })
	tex, err := rec.CreateTexture(graphics.TextureDescriptor{Name: "Big", Width: 1024, Height: 1024, RenderTarget: true})
	require.NoError(t, err)

	vp := NewViewport(scene.NewScene("test"), newTestCamera(), common.IntRect{})
	v := newView(r)
	assert.False(t, v.Define(tex.RenderSurface(), vp))
	assert.False(t, v.Define(tex.RenderSurface(), vp))

	reported := 0
	r.reportedTargets.Range(func(_, _ any) bool {
		reported++
		return true
	})
	assert.Equal(t, 1, reported)
}

func TestDefineClampsViewportRect(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	vp := NewViewport(scene.NewScene("test"), newTestCamera(), common.IntRect{Left: -20, Top: 10, Right: 2000, Bottom: 300})

	v := newView(r)
	require.True(t, v.Define(nil, vp))
	assert.Equal(t, common.IntRect{Left: 0, Top: 10, Right: 800, Bottom: 300}, v.ScreenRect())
}

func splitTestView(t *testing.T, cam camera.Camera) *View {
	t.Helper()
	r, _ := newTestRenderer(t, nil)
	v := newView(r)
	v.camera = cam
	v.settings = r.settings
	return v
}

func TestDirectionalCascadeSplits(t *testing.T) {
	cam := camera.NewCamera(camera.WithNear(1), camera.WithFar(1000))
	v := splitTestView(t, cam)
	l := light.NewLight(light.LightTypeDirectional,
		light.WithCastShadows(true),
		light.WithShadowCascade(light.CascadeParameters{Splits: 4, Lambda: 0.5, SplitFadeRange: 0.1, ShadowRange: light.LargeValue}),
	)

	n := v.splitLight(&lightEntry{light: l})
	require.Equal(t, 4, n)

	assert.InDelta(t, 1, v.splits[0].NearSplit, 1e-4)
	// Halfway between the logarithmic and uniform split at a quarter of the range.
	expected := (math32.Pow(1000, 0.25) + (1 + 999*0.25)) * 0.5
	assert.InDelta(t, expected, v.splits[0].FarSplit, 1e-2)
	assert.InDelta(t, 1000, v.splits[3].FarSplit, 1e-2)
	assert.Zero(t, v.splits[3].FarFadeRange)
	for i := 1; i < n; i++ {
		assert.InDelta(t, v.splits[i-1].FarSplit, v.splits[i].NearSplit, 1e-3)
		assert.True(t, v.splits[i].CastShadows)
	}
}

func TestDirectionalShadowRangeAddsUnshadowedSplit(t *testing.T) {
	cam := camera.NewCamera(camera.WithNear(1), camera.WithFar(1000))
	v := splitTestView(t, cam)
	l := light.NewLight(light.LightTypeDirectional,
		light.WithCastShadows(true),
		light.WithShadowCascade(light.CascadeParameters{Splits: 2, Lambda: 1, SplitFadeRange: 0.1, ShadowRange: 100}),
	)

	n := v.splitLight(&lightEntry{light: l})
	require.Equal(t, 3, n)

	assert.InDelta(t, 100, v.splits[1].FarSplit, 1e-3)
	assert.Positive(t, v.splits[1].FarFadeRange)

	extra := v.splits[2]
	assert.False(t, extra.CastShadows)
	assert.InDelta(t, 100, extra.NearSplit, 1e-3)
	assert.Equal(t, light.LargeValue, extra.FarSplit)
}

func TestPointLightSplitsIntoSixFaces(t *testing.T) {
	v := splitTestView(t, newTestCamera())
	l := light.NewLight(light.LightTypePoint, light.WithCastShadows(true), light.WithRange(5))

	n := v.splitLight(&lightEntry{light: l})
	require.Equal(t, 6, n)
	for i := 0; i < n; i++ {
		s := v.splits[i]
		assert.Equal(t, light.LightTypeSplitPoint, s.Type)
		assert.Equal(t, float32(90), s.Fov)
		assert.Equal(t, float32(1), s.AspectRatio)
		assert.Same(t, l, s.Original)
		dir := s.Direction()
		assert.InDeltaSlice(t, pointFaces[i][:], dir[:], 1e-4)
	}
}

func TestOccludersRankedBySizeAndThreshold(t *testing.T) {
	cam := newTestCamera()
	v := splitTestView(t, cam)
	v.frame = drawable.FrameInfo{Camera: cam}

	small := newCube(5, 0, 10, drawable.WithOccluder(true))
	big := newCube(-5, 0, 10, drawable.WithOccluder(true))
	big.Core().SetTransform([3]float32{-5, 0, 10}, common.IdentityQuat, [3]float32{4, 4, 4})
	tiny := newCube(0, 0, 10, drawable.WithOccluder(true))
	tiny.Core().SetTransform([3]float32{0, 0, 10}, common.IdentityQuat, [3]float32{0.001, 0.001, 0.001})

	occluders := v.updateOccluders([]drawable.Drawable{small, tiny, big}, cam)
	require.Len(t, occluders, 2)
	assert.Same(t, big, occluders[0])
	assert.Same(t, small, occluders[1])
}

func TestShadowMapExhaustionDemotesLight(t *testing.T) {
	r, _ := newTestRenderer(t, func(s *Settings) { s.MaxShadowMaps = 1 })
	spot := func() light.Light {
		return light.NewLight(light.LightTypeSpot,
			light.WithPosition(0, 10, 0),
			light.WithDirection(0, -1, 0),
			light.WithRange(30),
			light.WithSpotFrustum(60, 1),
			light.WithCastShadows(true),
		)
	}
	caster := newCube(0, 0, 0, drawable.WithCastShadows(true))
	v := updateOne(t, r, newTestCamera(), caster, spot(), spot())

	queues := v.LightQueues()
	require.Len(t, queues, 2)
	shadowed := 0
	for _, lq := range queues {
		if lq.ShadowCamera != nil {
			shadowed++
			assert.NotNil(t, lq.Light.ShadowMap)
			assert.Positive(t, lq.ShadowBatches.Len())
		} else {
			assert.Nil(t, lq.Light.ShadowMap)
		}
		assert.Positive(t, lq.LitBatches.Len())
	}
	assert.Equal(t, 1, shadowed)
}

func TestLitBatchesRespectLightMask(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	lit := newCube(0, 0, 0)
	masked := newCube(3, 0, 0, drawable.WithLightMask(0))
	point := light.NewLight(light.LightTypePoint, light.WithPosition(0, 2, 0), light.WithRange(10))
	v := updateOne(t, r, newTestCamera(), lit, masked, point)

	queues := v.LightQueues()
	require.Len(t, queues, 1)
	batches := queues[0].LitBatches.All()
	require.Len(t, batches, 1)
	assert.Equal(t, "LitSolid_Point", batches[0].PixelShader.Name)
	assert.True(t, queues[0].FirstSplit)
	assert.True(t, queues[0].LastSplit)
}

func findDraw(draws []graphics.Command, ps string) int {
	for i, d := range draws {
		if d.State.PixelShader != nil && d.State.PixelShader.Name == ps {
			return i
		}
	}
	return -1
}

func TestForwardRenderSequence(t *testing.T) {
	r, rec := newTestRenderer(t, nil)
	point := light.NewLight(light.LightTypePoint, light.WithPosition(0, 2, 0), light.WithRange(10))
	updateOne(t, r, newTestCamera(), newCube(0, 0, 0), point)

	rec.Reset()
	require.NoError(t, r.Render())

	var clears []graphics.Command
	for _, c := range rec.Commands() {
		if c.Kind == graphics.CommandClear {
			clears = append(clears, c)
		}
	}
	require.NotEmpty(t, clears)
	assert.Equal(t, graphics.ClearColor|graphics.ClearDepth|graphics.ClearStencil, clears[0].ClearFlags)

	draws := rec.Draws()
	base := findDraw(draws, "Unlit")
	lit := findDraw(draws, "LitSolid_Point")
	require.GreaterOrEqual(t, base, 0)
	require.GreaterOrEqual(t, lit, 0)
	assert.Less(t, base, lit)
	assert.Equal(t, graphics.BlendAdd, draws[lit].State.BlendMode)
	assert.True(t, draws[lit].State.ScissorTest)
}

func TestDeferredRenderSequence(t *testing.T) {
	r, rec := newTestRenderer(t, func(s *Settings) { s.RenderMode = RenderModeDeferred })
	point := light.NewLight(light.LightTypePoint, light.WithPosition(0, 2, 0), light.WithRange(10))
	v := updateOne(t, r, newTestCamera(), newCube(0, 0, 0), point)

	assert.Equal(t, 1, v.GBufferQueue().Len())
	require.Len(t, v.NoShadowLights(), 1)

	rec.Reset()
	require.NoError(t, r.Render())

	for _, c := range rec.Commands() {
		if c.Kind == graphics.CommandClear {
			assert.Equal(t, graphics.ClearDepth|graphics.ClearStencil, c.ClearFlags)
			break
		}
	}

	draws := rec.Draws()
	order := []string{"GBuffer", "GBufferFill_Depth", "Ambient_Linear", "DeferredLight_Point"}
	last := -1
	for _, ps := range order {
		i := findDraw(draws, ps)
		require.GreaterOrEqual(t, i, 0, ps)
		assert.Greater(t, i, last, ps)
		last = i
	}

	volume := draws[findDraw(draws, "DeferredLight_Point")]
	assert.Equal(t, graphics.BlendAdd, volume.State.BlendMode)
	assert.False(t, volume.State.DepthWrite)
	assert.NotNil(t, volume.State.Textures[graphics.TUNormalBuffer])
}

func TestDeferredTemporalAAJitters(t *testing.T) {
	r, rec := newTestRenderer(t, func(s *Settings) {
		s.RenderMode = RenderModeDeferred
		s.TemporalAA = true
	})
	cam := newTestCamera()
	updateOne(t, r, cam, newCube(0, 0, 0))

	rec.Reset()
	require.NoError(t, r.Render())

	draws := rec.Draws()
	taa := findDraw(draws, "TemporalAA_Linear")
	require.GreaterOrEqual(t, taa, 0)
	offsets := draws[taa].Params[graphics.PSPSampleOffsets]
	require.Len(t, offsets, 4)
	assert.Equal(t, float32(1), offsets[2])
	assert.True(t, r.views[0].lastViewValid)
	assert.Equal(t, [2]float32{}, cam.ProjectionOffset())
}

func translationOf(b batch.Batch) [3]float32 {
	return common.Translation(b.WorldTransform)
}

func hasBatchAt(batches []batch.Batch, z float32) bool {
	for _, b := range batches {
		if math32.Abs(translationOf(b)[2]-z) < 1e-3 {
			return true
		}
	}
	return false
}

func TestZoneSelection(t *testing.T) {
	around := common.NewBoundingBox([3]float32{-100, -100, -100}, [3]float32{100, 100, 100})
	away := common.NewBoundingBox([3]float32{490, -10, -10}, [3]float32{510, 10, 10})

	type zoneDef struct {
		box      common.BoundingBox
		priority int
	}
	tests := []struct {
		name  string
		zones []zoneDef
		want  int
	}{
		{name: "no zone uses the default", want: -1},
		{name: "highest priority wins", zones: []zoneDef{{around, 1}, {around, 2}}, want: 1},
		{name: "first wins a tie", zones: []zoneDef{{around, 3}, {around, 3}}, want: 0},
		{name: "zone without the camera is ignored", zones: []zoneDef{{around, 1}, {away, 5}}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(t, nil)
			var zones []*drawable.Zone
			drawables := []drawable.Drawable{newCube(0, 0, 0)}
			for _, def := range tt.zones {
				z := drawable.NewZone(def.box)
				z.SetPriority(def.priority)
				zones = append(zones, z)
				drawables = append(drawables, z)
			}

			v := updateOne(t, r, newTestCamera(), drawables...)
			if tt.want < 0 {
				assert.Same(t, r.defaultZone, v.Zone())
				return
			}
			assert.Same(t, zones[tt.want], v.Zone())
		})
	}
}

func TestInvalidProjectionLeavesViewEmpty(t *testing.T) {
	tests := []struct {
		name string
		cam  camera.Camera
	}{
		{name: "far before near", cam: camera.NewCamera(camera.WithNear(10), camera.WithFar(5))},
		{name: "zero ortho size", cam: camera.NewCamera(camera.WithOrthographic(0))},
		{name: "zero aspect", cam: camera.NewCamera(camera.WithAspect(0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, tt.cam.IsProjectionValid())
			r, _ := newTestRenderer(t, nil)
			contents := func() []drawable.Drawable {
				return []drawable.Drawable{
					newCube(0, 0, 0),
					newCube(0, 0, 5, drawable.WithCastShadows(true)),
					light.NewLight(light.LightTypePoint, light.WithPosition(0, 2, 0), light.WithRange(10)),
				}
			}

			// Fill the view first so the empty result comes from the reset.
			v := updateOne(t, r, newTestCamera(), contents()...)
			require.NotEmpty(t, v.Geometries())
			require.NotEmpty(t, v.LightQueues())

			v = updateOne(t, r, tt.cam, contents()...)
			assert.Empty(t, v.Geometries())
			assert.Empty(t, v.Lights())
			assert.Empty(t, v.Occluders())
			assert.Empty(t, v.LightQueues())
			assert.Nil(t, v.OcclusionBuffer())
			assert.True(t, v.BaseQueue().IsEmpty())
			assert.True(t, v.GBufferQueue().IsEmpty())
			assert.True(t, v.ExtraQueue().IsEmpty())
			assert.True(t, v.TransparentQueue().IsEmpty())
			assert.Empty(t, v.NoShadowLights())
		})
	}
}

func TestMaxLightsKeepsStrongestLights(t *testing.T) {
	tests := []struct {
		name      string
		maxLights int
		wantLit   int
	}{
		{name: "limited to one", maxLights: 1, wantLit: 1},
		{name: "limit above light count", maxLights: 3, wantLit: 2},
		{name: "unlimited", maxLights: 0, wantLit: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(t, nil)
			limited := newCube(0, 0, 0, drawable.WithMaxLights(tt.maxLights))
			other := newCube(0, 0, 4)
			above := light.NewLight(light.LightTypePoint, light.WithPosition(0, 3, 0), light.WithRange(10))
			side := light.NewLight(light.LightTypePoint, light.WithPosition(4, 0, 2), light.WithRange(10))
			v := updateOne(t, r, newTestCamera(), limited, other, above, side)

			queues := v.LightQueues()
			require.Len(t, queues, 2)
			lit := 0
			for _, lq := range queues {
				batches := lq.LitBatches.All()
				assert.True(t, hasBatchAt(batches, 4), "unlimited geometry lit by every light")
				if hasBatchAt(batches, 0) {
					lit++
					if tt.maxLights == 1 {
						assert.Same(t, above, lq.Light.Original)
					}
				}
			}
			assert.Equal(t, tt.wantLit, lit)
		})
	}
}

func TestDrawDistanceExcludesGeometryFromEveryPass(t *testing.T) {
	tests := []struct {
		name  string
		light func() light.Light
	}{
		{
			name: "directional",
			light: func() light.Light {
				return light.NewLight(light.LightTypeDirectional, light.WithDirection(0, 0, 1))
			},
		},
		{
			name: "point",
			light: func() light.Light {
				return light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, 50), light.WithRange(20))
			},
		},
		{
			name: "spot",
			light: func() light.Light {
				return light.NewLight(light.LightTypeSpot,
					light.WithPosition(0, 0, 25),
					light.WithDirection(0, 0, 1),
					light.WithRange(40),
					light.WithSpotFrustum(60, 1),
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(t, nil)
			// The camera sits at z=-10, 60 units from the culled cube.
			culled := newCube(0, 0, 50, drawable.WithDrawDistance(50))
			kept := newCube(0, 0, 35, drawable.WithDrawDistance(50))
			v := updateOne(t, r, newTestCamera(), culled, kept, tt.light())

			geometries := v.Geometries()
			require.Len(t, geometries, 1)
			assert.Same(t, kept, geometries[0])
			assert.False(t, hasBatchAt(v.BaseQueue().All(), 50))

			queues := v.LightQueues()
			require.NotEmpty(t, queues)
			for _, lq := range queues {
				batches := lq.LitBatches.All()
				assert.False(t, hasBatchAt(batches, 50))
				assert.True(t, hasBatchAt(batches, 35))
			}
		})
	}
}

func TestCascadedShadowCamerasQuantized(t *testing.T) {
	const quantize float32 = 0.5
	focus := light.FocusParameters{Focus: true, NonUniform: true, QuantizeStep: quantize}
	cascade := light.CascadeParameters{Splits: 4, Lambda: 0.5, SplitFadeRange: 0.1, ShadowRange: light.LargeValue}
	sun := func() light.Light {
		return light.NewLight(light.LightTypeDirectional,
			light.WithDirection(0, -1, 0),
			light.WithCastShadows(true),
			light.WithShadowCascade(cascade),
			light.WithShadowFocus(focus),
		)
	}
	mutate := func(s *Settings) {
		s.MaxShadowCascades = 4
		s.MaxShadowMaps = 4
		s.ShadowQuantizeStep = quantize
		s.ShadowMinView = 0
	}
	newCam := func() camera.Camera {
		return camera.NewCamera(camera.WithNear(1), camera.WithFar(1000))
	}

	t.Run("splits", func(t *testing.T) {
		cam := newCam()
		v := splitTestView(t, cam)
		mutate(&v.settings)

		n := v.splitLight(&lightEntry{light: sun()})
		require.Equal(t, 4, n)
		assert.Equal(t, cam.NearClip(), v.splits[0].NearSplit)
		for i := 1; i < n; i++ {
			assert.Greater(t, v.splits[i].NearSplit, v.splits[i-1].NearSplit)
			assert.InDelta(t, v.splits[i-1].FarSplit, v.splits[i].NearSplit, 1e-3)
		}
		assert.InDelta(t, 1000, v.splits[n-1].FarSplit, 1e-2)
	})

	t.Run("shadow cameras", func(t *testing.T) {
		r, _ := newTestRenderer(t, mutate)
		drawables := []drawable.Drawable{sun()}
		for _, z := range []float32{20, 200, 400, 700} {
			drawables = append(drawables, newCube(0, 0, z, drawable.WithCastShadows(true)))
		}
		v := updateOne(t, r, newCam(), drawables...)

		queues := v.LightQueues()
		require.Len(t, queues, 4)
		shadowed := 0
		for _, lq := range queues {
			if lq.ShadowCamera == nil {
				continue
			}
			shadowed++
			height := lq.ShadowCamera.OrthoSize()
			width := lq.ShadowCamera.AspectRatio() * height
			for _, size := range []float32{width, height} {
				steps := math32.Sqrt(size / quantize)
				assert.GreaterOrEqual(t, steps, float32(1))
				assert.InDelta(t, math32.Round(steps), steps, 1e-3, "size %v is not a squared multiple of the step", size)
			}
		}
		assert.Positive(t, shadowed)
	})
}

func TestOccluderHiddenByEarlierOccluderIsSkipped(t *testing.T) {
	r, _ := newTestRenderer(t, func(s *Settings) { s.MaxOccluderTriangles = 5000 })
	wall := newCube(0, 0, 10, drawable.WithOccluder(true))
	wall.Core().SetTransform([3]float32{0, 0, 10}, common.IdentityQuat, [3]float32{15, 15, 0.5})
	hidden := newCube(0, 0, 40, drawable.WithOccluder(true))
	v := updateOne(t, r, newTestCamera(), wall, hidden)

	occluders := v.Occluders()
	require.Len(t, occluders, 2)
	assert.Same(t, wall, occluders[0])

	buffer := v.OcclusionBuffer()
	require.NotNil(t, buffer)
	assert.Equal(t, 12, buffer.NumTriangles())

	geometries := v.Geometries()
	require.Len(t, geometries, 1)
	assert.Same(t, wall, geometries[0])
}

func TestUpdateWritesViewAspectIntoCamera(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	cam := newTestCamera()
	require.True(t, cam.AutoAspectRatio())

	scn := scene.NewScene("test", scene.WithDrawables(newCube(0, 0, 0)))
	r.SetViewport(0, NewViewport(scn, cam, common.IntRect{Right: 400, Bottom: 600}))
	r.Update(1.0 / 60)
	assert.InDelta(t, 400.0/600.0, cam.AspectRatio(), 1e-6)

	r.SetViewport(0, NewViewport(scn, cam, common.IntRect{}))
	r.Update(1.0 / 60)
	assert.InDelta(t, 800.0/600.0, cam.AspectRatio(), 1e-6)
}
