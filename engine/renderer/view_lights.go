package renderer

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/occlusion"
	"github.com/Carmen-Shannon/oxy-view/engine/spatial"
)

// pointFaces are the view directions of the six shadowed faces of a point light.
var pointFaces = [6][3]float32{
	{1, 0, 0},
	{-1, 0, 0},
	{0, 1, 0},
	{0, -1, 0},
	{0, 0, 1},
	{0, 0, -1},
}

// splitFor returns a per-view copy of a light with its camera distance and default
// textures filled in. Directional copies span the camera clip range.
func (v *View) splitFor(l light.Light, distance float32) light.Split {
	s := l.NewSplit()
	s.Distance = distance
	if s.Type != light.LightTypeDirectional && s.RampTexture == nil {
		s.RampTexture = v.renderer.rampTexture
	}
	if s.Type == light.LightTypeSpot && s.ShapeTexture == nil {
		s.ShapeTexture = v.renderer.spotTexture
	}
	if s.Type == light.LightTypeDirectional {
		s.NearSplit = v.camera.NearClip()
		s.FarSplit = v.camera.FarClip()
	}
	return s
}

// allocSplit stores a copy of s in the split arena and returns it with its arena index.
func (v *View) allocSplit(s light.Split) (*light.Split, int) {
	if v.numSplits == len(v.splitArena) {
		v.splitArena = append(v.splitArena, &light.Split{})
	}
	idx := v.numSplits
	p := v.splitArena[idx]
	*p = s
	v.numSplits++
	return p, idx
}

// setSplit places an arena split in slot j of the working set.
func (v *View) setSplit(j int, s light.Split) *light.Split {
	p, idx := v.allocSplit(s)
	v.splits[j] = p
	v.splitIndices[j] = idx
	return p
}

// originalSplit returns the unsplit copy of a split light, used to light transparent
// geometry once for all faces of a point light.
func (v *View) originalSplit(s *light.Split) *light.Split {
	if p, ok := v.originalSplits[s.Original]; ok {
		return p
	}
	p, _ := v.allocSplit(v.splitFor(s.Original, s.Distance))
	v.originalSplits[s.Original] = p
	return p
}

// shadowCameraOf returns the shadow camera of a split, nil when it has none.
func (v *View) shadowCameraOf(s *light.Split) camera.Camera {
	if s == nil || s.ShadowMap == nil {
		return nil
	}
	return v.ShadowCamera(s.ShadowCamera)
}

// processLight splits a light, assigns shadow maps and finds the geometries it lights and
// the shadow casters of each split. The results are left in the view's working set.
//
// Parameters:
//   - entry: the visible light
//
// Returns:
//   - int: the number of splits in the working set, 0 when the light lights nothing
func (v *View) processLight(entry *lightEntry) int {
	if len(v.geometries) == 0 {
		return 0
	}
	l := entry.light
	core := l.Core()
	shadowed := v.drawShadows && core.CastShadows() && l.ShadowIntensity() < 1 &&
		!core.IsBeyondShadowDistance(entry.distance)

	var n int
	if shadowed {
		n = v.splitLight(entry)
	} else {
		v.setSplit(0, v.splitFor(l, entry.distance))
		n = 1
	}
	if n == 0 {
		return 0
	}

	// A directional light draws its shadow casters into an occlusion buffer of its own
	// before querying them per split.
	var buffer occlusion.OcclusionBuffer
	if shadowed && v.maxOccluderTriangles > 0 && l.Type() == light.LightTypeDirectional {
		buffer = v.shadowOcclusion(entry)
	}

	for j := 0; j < n; j++ {
		v.litGeometries[j] = v.litGeometries[j][:0]
		v.shadowCasters[j] = v.shadowCasters[j][:0]
	}

	numLit, numCasters := 0, 0
	for j := 0; j < n; j++ {
		split := v.splits[j]
		splitShadowed := shadowed && split.CastShadows
		split.ShadowCamera = -1
		split.ShadowMap = nil

		var shadowCam camera.Camera
		if splitShadowed {
			split.ShadowMap = v.renderer.shadowMaps.acquire(v.graphics, v.settings, split.ShadowResolution)
			if split.ShadowMap == nil {
				splitShadowed = false
			} else {
				split.ShadowCamera, shadowCam = v.allocShadowCamera()
				v.setupShadowCamera(split, shadowCam, false)
			}
		}

		var geometryBox, casterBox common.BoundingBox
		switch split.Type {
		case light.LightTypeDirectional:
			nearSplit := split.NearSplit - split.NearFadeRange
			farSplit := split.FarSplit
			if v.sceneViewBox.Min[2] > farSplit || v.sceneViewBox.Max[2] < nearSplit {
				split.ShadowMap = nil
				split.ShadowCamera = -1
				continue
			}
			wholeView := nearSplit <= v.camera.NearClip() && farSplit >= v.camera.FarClip()
			generateBoxes := splitShadowed && split.ShadowFocus.Focus
			var lightView [16]float32
			if generateBoxes {
				lightView = shadowCam.ViewMatrix()
			}
			for gi := range v.geometries {
				g := &v.geometries[gi]
				if !wholeView && (g.minZ > farSplit || g.maxZ < nearSplit) {
					continue
				}
				if g.drawable.Core().LightMask()&split.LightMask == 0 {
					continue
				}
				v.litGeometries[j] = append(v.litGeometries[j], gi)
				if generateBoxes {
					geometryBox.Merge(g.drawable.WorldBoundingBox().Transformed(lightView))
				}
			}
			if splitShadowed && len(v.litGeometries[j]) > 0 {
				q := spatial.FrustumQuery{
					Query:   spatial.Query{TypeMask: drawable.FlagGeometry, ViewMask: v.camera.ViewMask(), ShadowCastersOnly: true},
					Frustum: shadowCam.Frustum(),
				}
				if buffer != nil {
					q.Occlusion = buffer
				}
				v.lightResult = v.index.QueryFrustum(q, v.lightResult[:0])
				v.processLightQuery(j, v.lightResult, &geometryBox, &casterBox, false, true)
			}

		case light.LightTypePoint:
			v.lightResult = v.index.QuerySphere(spatial.SphereQuery{
				Query:  spatial.Query{TypeMask: drawable.FlagGeometry, ViewMask: v.camera.ViewMask()},
				Sphere: common.Sphere{Center: split.Position, Radius: split.Range, Defined: true},
			}, v.lightResult[:0])
			v.processLightQuery(j, v.lightResult, &geometryBox, &casterBox, true, false)

		default:
			v.lightResult = v.index.QueryFrustum(spatial.FrustumQuery{
				Query:   spatial.Query{TypeMask: drawable.FlagGeometry, ViewMask: v.camera.ViewMask()},
				Frustum: split.Frustum(),
			}, v.lightResult[:0])
			v.processLightQuery(j, v.lightResult, &geometryBox, &casterBox, true, splitShadowed)
		}

		if len(v.shadowCasters[j]) == 0 {
			split.ShadowMap = nil
			split.ShadowCamera = -1
		} else {
			v.finalizeShadowCamera(split, shadowCam, geometryBox, casterBox)
		}
		numLit += len(v.litGeometries[j])
		numCasters += len(v.shadowCasters[j])
	}

	if numLit == 0 {
		return 0
	}
	if numCasters > 0 {
		return n
	}

	// Nothing casts a shadow: light every lit geometry once with an unshadowed copy.
	if n > 1 {
		seen := make([]bool, len(v.geometries))
		merged := v.litGeometries[0][:0:0]
		for j := 0; j < n; j++ {
			for _, gi := range v.litGeometries[j] {
				if !seen[gi] {
					seen[gi] = true
					merged = append(merged, gi)
				}
			}
		}
		v.litGeometries[0] = append(v.litGeometries[0][:0], merged...)
	}
	v.setSplit(0, v.splitFor(l, entry.distance))
	return 1
}

// shadowOcclusion rasterizes the shadow occluders of a directional light from the
// viewpoint of a shadow camera spanning the whole view.
func (v *View) shadowOcclusion(entry *lightEntry) occlusion.OcclusionBuffer {
	whole := v.splitFor(entry.light, entry.distance)
	_, cam := v.allocShadowCamera()
	v.setupShadowCamera(&whole, cam, true)

	v.occluderResult = v.index.QueryFrustum(spatial.FrustumQuery{
		Query: spatial.Query{
			TypeMask:          drawable.FlagGeometry,
			ViewMask:          v.camera.ViewMask(),
			OccludersOnly:     true,
			ShadowCastersOnly: true,
		},
		Frustum: cam.Frustum(),
	}, v.occluderResult[:0])

	occluders := v.updateOccluders(v.occluderResult, cam)
	if len(occluders) == 0 {
		return nil
	}
	buffer := v.renderer.occlusionBuffers.acquire(cam, v.settings.OcclusionBufferSize/2, v.maxOccluderTriangles)
	v.drawOccluders(buffer, occluders)
	return buffer
}

// processLightQuery sorts the drawables found for split j into lit geometries and
// shadow casters, growing the focus boxes in light space.
//
// Parameters:
//   - j: the split slot
//   - results: drawables found in the split's volume
//   - geometryBox: accumulates the lit geometries in light view or projection space
//   - casterBox: accumulates the shadow casters in light view or projection space
//   - getLit: collect lit geometries
//   - getCasters: collect shadow casters
func (v *View) processLightQuery(j int, results []drawable.Drawable, geometryBox, casterBox *common.BoundingBox, getLit, getCasters bool) {
	split := v.splits[j]
	shadowCam := v.shadowCameraOf(split)

	var lightView, lightProj [16]float32
	var lightViewFrustum common.Frustum
	var frustumBox common.BoundingBox
	mergeBoxes, projectBoxes := false, false

	if shadowCam != nil {
		mergeBoxes = split.Type != light.LightTypeSplitPoint && split.ShadowFocus.Focus
		projectBoxes = !shadowCam.Orthographic()
		lightView = shadowCam.ViewMatrix()
		lightProj = shadowCam.ProjectionMatrix()

		near, far := v.sceneViewBox.Min[2], v.sceneViewBox.Max[2]
		if split.Type == light.LightTypeDirectional {
			near = max(near, split.NearSplit-split.NearFadeRange)
			far = min(far, split.FarSplit)
		}
		lightViewFrustum = v.camera.SplitFrustum(near, far).Transformed(lightView)
		frustumBox = lightViewFrustum.BoundingBox()

		// A degenerate frustum can not contain anything.
		if lightViewFrustum.Vertices[0] == lightViewFrustum.Vertices[4] {
			getCasters = false
		}
	} else {
		getCasters = false
	}

	for _, d := range results {
		core := d.Core()
		state := d.UpdateDistance(v.frame)
		if core.IsBeyondDrawDistance(state.Distance) || core.LightMask()&split.LightMask == 0 {
			continue
		}
		gi, inView := v.geometryIndex[d]

		boxGenerated := false
		var lightViewBox, lightProjBox common.BoundingBox
		if getLit && inView {
			if mergeBoxes {
				lightViewBox = d.WorldBoundingBox().Transformed(lightView)
				if projectBoxes {
					lightProjBox = lightViewBox.Projected(lightProj)
					geometryBox.Merge(lightProjBox)
				} else {
					geometryBox.Merge(lightViewBox)
				}
				boxGenerated = true
			}
			v.litGeometries[j] = append(v.litGeometries[j], gi)
		}

		if !getCasters || !core.CastShadows() || core.IsBeyondShadowDistance(state.Distance) {
			continue
		}
		if !boxGenerated {
			lightViewBox = d.WorldBoundingBox().Transformed(lightView)
		}
		if !v.isShadowCasterVisible(d, inView, lightViewBox, shadowCam, lightViewFrustum, frustumBox) {
			continue
		}
		if mergeBoxes {
			if projectBoxes {
				if !boxGenerated {
					lightProjBox = lightViewBox.Projected(lightProj)
				}
				casterBox.Merge(lightProjBox)
			} else {
				casterBox.Merge(lightViewBox)
			}
		}
		if inView {
			state = v.geometries[gi].state
		}
		v.shadowCasters[j] = append(v.shadowCasters[j], casterEntry{drawable: d, state: state})
	}
}

// isShadowCasterVisible reports whether a caster's shadow can fall inside the visible
// part of the scene. Casters out of view are extruded away from the light first.
//
// Parameters:
//   - d: the caster
//   - inView: whether the caster itself is visible
//   - lightViewBox: the caster's box in light view space
//   - shadowCam: the split's shadow camera
//   - lightViewFrustum: the visible scene depth range of the view frustum in light view space
//   - frustumBox: the bounding box of lightViewFrustum
//
// Returns:
//   - bool: true when the caster must be drawn into the shadow map
func (v *View) isShadowCasterVisible(d drawable.Drawable, inView bool, lightViewBox common.BoundingBox, shadowCam camera.Camera, lightViewFrustum common.Frustum, frustumBox common.BoundingBox) bool {
	if d.Core().IsOccluder() {
		return true
	}
	if shadowCam.Orthographic() {
		// Extrude towards the light's far end of the visible scene.
		lightViewBox.Max[2] = max(lightViewBox.Max[2], frustumBox.Max[2])
		return lightViewFrustum.IsInsideBoxFast(lightViewBox) != common.Outside
	}
	if inView {
		return true
	}

	center := lightViewBox.Center()
	extrusion := shadowCam.FarClip()
	originalDistance := common.Clamp(common.Length3(center), common.Epsilon, extrusion)
	sizeFactor := extrusion / originalDistance

	newCenter := common.Scale3(common.Normalize3(center), extrusion)
	newHalf := common.Scale3(lightViewBox.Size(), sizeFactor*0.5)
	lightViewBox.Merge(common.NewBoundingBox(common.Sub3(newCenter, newHalf), common.Add3(newCenter, newHalf)))
	return lightViewFrustum.IsInsideBoxFast(lightViewBox) != common.Outside
}

// splitLight divides a shadowed light into the view's working set: cascades for a
// directional light, six faces for a point light, a single copy for a spot light.
//
// Returns:
//   - int: the number of splits
func (v *View) splitLight(entry *lightEntry) int {
	l := entry.light
	base := v.splitFor(l, entry.distance)

	switch l.Type() {
	case light.LightTypeDirectional:
		cascade := base.ShadowCascade
		splits := min(cascade.Splits, v.settings.MaxShadowCascades, light.MaxLightSplits-1)
		if splits < 1 {
			splits = 1
		}
		camNear := v.camera.NearClip()
		camFar := v.camera.FarClip()
		shadowRange := camFar
		if cascade.ShadowRange > 0 {
			shadowRange = min(cascade.ShadowRange, camFar)
		}
		nearClip := max(camNear, common.MinNearClip)
		extra := shadowRange < camFar
		fade := max(cascade.SplitFadeRange, 0.001)

		n := 0
		for i := 0; i < splits; i++ {
			nearSplit := practicalSplit(i, splits, nearClip, shadowRange, cascade.Lambda)
			farSplit := practicalSplit(i+1, splits, nearClip, shadowRange, cascade.Lambda)
			nearFade := nearSplit * fade
			if nearSplit-nearFade > camFar {
				break
			}

			s := v.setSplit(n, base)
			n++
			s.NearSplit = nearSplit
			if i == 0 {
				s.NearSplit = camNear
			}
			s.NearFadeRange = nearFade
			s.FarSplit = farSplit
			s.FarFadeRange = 0
			if i < splits-1 || extra {
				s.FarFadeRange = farSplit * fade
			}

			if extra && i == splits-1 {
				e := v.setSplit(n, base)
				n++
				e.CastShadows = false
				e.NearSplit = farSplit
				e.NearFadeRange = farSplit * fade
				e.FarSplit = light.LargeValue
				e.FarFadeRange = 0
			}
		}
		return n

	case light.LightTypePoint:
		for i, dir := range pointFaces {
			s := v.setSplit(i, base)
			s.Type = light.LightTypeSplitPoint
			s.Fov = 90
			s.AspectRatio = 1
			up := [3]float32{0, 1, 0}
			if math32.Abs(dir[1]) > 0.5 {
				up = [3]float32{0, 0, 1}
			}
			s.Rotation = common.QuatFromLookRotation(dir, up)
		}
		return len(pointFaces)
	}

	v.setSplit(0, base)
	return 1
}

// practicalSplit blends uniform and logarithmic split distances by lambda.
func practicalSplit(i, splits int, near, far, lambda float32) float32 {
	if i == 0 {
		return near
	}
	if i >= splits {
		return far
	}
	f := float32(i) / float32(splits)
	uniform := near + (far-near)*f
	logarithmic := near * math32.Pow(far/near, f)
	return logarithmic*lambda + uniform*(1-lambda)
}
