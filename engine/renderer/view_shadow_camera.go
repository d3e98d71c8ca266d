package renderer

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
)

// allocShadowCamera returns the next free shadow camera of the view with zoom and
// projection offset reset.
func (v *View) allocShadowCamera() (int, camera.Camera) {
	if v.numShadowCameras == len(v.shadowCameras) {
		v.shadowCameras = append(v.shadowCameras, camera.NewCamera(camera.WithAutoAspect(false)))
	}
	idx := v.numShadowCameras
	cam := v.shadowCameras[idx]
	cam.SetZoom(1)
	cam.SetProjectionOffset([2]float32{})
	v.numShadowCameras++
	return idx, cam
}

// focusFor returns the split's focus parameters with the renderer's quantize step and
// minimum view size as floors.
func (v *View) focusFor(s *light.Split) light.FocusParameters {
	focus := s.ShadowFocus
	focus.QuantizeStep = max(focus.QuantizeStep, v.settings.ShadowQuantizeStep, common.Epsilon)
	focus.MinView = max(focus.MinView, v.settings.ShadowMinView)
	return focus
}

// setupShadowCamera places a shadow camera for a split. Directional cameras are
// orthographic, fitted around the split's part of the view frustum; spot and point face
// cameras copy the light's frustum.
//
// Parameters:
//   - s: the split
//   - cam: the shadow camera
//   - shadowOcclusion: the camera renders the light's occlusion buffer, not a shadow map
func (v *View) setupShadowCamera(s *light.Split, cam camera.Camera, shadowOcclusion bool) {
	cam.SetZoom(1)

	switch s.Type {
	case light.LightTypeDirectional:
		focus := v.focusFor(s)
		extrusion := v.camera.FarClip()
		dir := s.Direction()
		cam.SetPosition(common.Sub3(v.camera.Position(), common.Scale3(dir, extrusion)))
		cam.SetRotation(common.QuatFromRotationTo([3]float32{0, 0, 1}, dir))

		sceneMaxZ := v.camera.FarClip()
		if (shadowOcclusion || focus.Focus) && v.sceneViewBox.Defined {
			sceneMaxZ = min(v.sceneViewBox.Max[2], sceneMaxZ)
		}
		lightView := cam.ViewMatrix()
		splitFrustum := v.camera.SplitFrustum(s.NearSplit-s.NearFadeRange, min(s.FarSplit, sceneMaxZ)).Transformed(lightView)

		var shadowBox common.BoundingBox
		if !shadowOcclusion && focus.NonUniform {
			shadowBox = splitFrustum.BoundingBox()
		} else {
			shadowBox = common.SphereFromPoints(splitFrustum.Vertices[:]).BoundingBox()
		}

		cam.SetOrthographic(true)
		cam.SetNearClip(0)
		cam.SetFarClip(shadowBox.Max[2])
		v.quantizeDirShadowCamera(s, cam, shadowBox)

	case light.LightTypeSpot, light.LightTypeSplitPoint:
		cam.SetPosition(s.Position)
		cam.SetRotation(s.Rotation)
		cam.SetOrthographic(false)
		cam.SetFarClip(s.Range)
		cam.SetNearClip(s.ShadowNearFarRatio * s.Range)
		cam.SetFov(s.Fov)
		cam.SetAspectRatio(s.AspectRatio)
	}
}

// finalizeShadowCamera refits a shadow camera once the lit geometries and shadow casters
// are known, then keeps the shadow map border texels out of use.
//
// Parameters:
//   - s: the split
//   - cam: the shadow camera
//   - geometryBox: the lit geometries in light view (directional) or projection (spot) space
//   - casterBox: the shadow casters in the same space
func (v *View) finalizeShadowCamera(s *light.Split, cam camera.Camera, geometryBox, casterBox common.BoundingBox) {
	if cam == nil || s.ShadowMap == nil || !geometryBox.Defined || !casterBox.Defined {
		return
	}
	focus := v.focusFor(s)

	switch s.Type {
	case light.LightTypeDirectional:
		if focus.Focus {
			halfY := cam.OrthoSize() * 0.5
			halfX := cam.AspectRatio() * halfY
			combined := common.NewBoundingBox(
				[3]float32{-halfX, -halfY, -light.LargeValue},
				[3]float32{halfX, halfY, light.LargeValue},
			)
			combined.Intersect(geometryBox)
			combined.Intersect(casterBox)
			v.quantizeDirShadowCamera(s, cam, combined)
		}

	case light.LightTypeSpot:
		if focus.ZoomOut {
			// Zooming out starts only once the camera is outside the cone.
			lightZ := common.TransformPoint(v.camera.ViewMatrix(), s.Position)[2]
			distance := max(lightZ-s.Range, 1)
			lightPixels := float32(v.height) * s.Range * v.camera.Zoom() * 0.5 / distance
			lightPixels = max(lightPixels, light.ShadowMinPixels)
			cam.SetZoom(min(lightPixels/float32(s.ShadowMap.Height()), 1))
		}
		if focus.Focus && cam.Zoom() >= 1 {
			combined := common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
			combined.Intersect(geometryBox)
			combined.Intersect(casterBox)

			viewSize := max(
				math32.Abs(combined.Min[0]), math32.Abs(combined.Max[0]),
				math32.Abs(combined.Min[1]), math32.Abs(combined.Max[1]),
			)
			// Quantization happens in projection space.
			invOrthoSize := 1 / max(cam.OrthoSize(), common.Epsilon)
			quantize := focus.QuantizeStep * invOrthoSize
			minView := focus.MinView * invOrthoSize
			viewSize = max(math32.Ceil(viewSize/quantize)*quantize, minView)
			if viewSize > 0 && viewSize < 1 {
				cam.SetZoom(1 / viewSize)
			}
		}

	case light.LightTypeSplitPoint:
		return
	}

	if cam.Zoom() >= 1 {
		w := float32(s.ShadowMap.Width())
		cam.SetZoom(cam.Zoom() * (w - 2) / w)
	}
}

// quantizeDirShadowCamera sizes a directional shadow camera to a light view space box,
// rounding the size up to reduce swimming, and snaps its position to whole shadow map
// texels.
func (v *View) quantizeDirShadowCamera(s *light.Split, cam camera.Camera, viewBox common.BoundingBox) {
	focus := v.focusFor(s)

	center := [2]float32{(viewBox.Min[0] + viewBox.Max[0]) * 0.5, (viewBox.Min[1] + viewBox.Max[1]) * 0.5}
	size := [2]float32{viewBox.Max[0] - viewBox.Min[0], viewBox.Max[1] - viewBox.Min[1]}

	q := focus.QuantizeStep
	switch {
	case focus.NonUniform:
		for i := range size {
			steps := math32.Ceil(math32.Sqrt(size[i] / q))
			size[i] = max(steps*steps*q, focus.MinView)
		}
	case focus.Focus:
		steps := math32.Ceil(math32.Sqrt(max(size[0], size[1]) / q))
		side := max(steps*steps*q, focus.MinView)
		size = [2]float32{side, side}
	}
	size[0] = max(size[0], common.Epsilon)
	size[1] = max(size[1], common.Epsilon)
	cam.SetOrthoSizeXY(size[0], size[1])

	rot := cam.Rotation()
	pos := common.Add3(cam.Position(), common.QuatRotate(rot, [3]float32{center[0], center[1], 0}))

	if s.ShadowMap != nil && s.ShadowMap.Width() > 2 {
		inv := [4]float32{-rot[0], -rot[1], -rot[2], rot[3]}
		viewPos := common.QuatRotate(inv, pos)
		invActual := 1 / float32(s.ShadowMap.Width()-2)
		texel := [2]float32{size[0] * invActual, size[1] * invActual}
		snap := [3]float32{-math32.Mod(viewPos[0], texel[0]), -math32.Mod(viewPos[1], texel[1]), 0}
		pos = common.Add3(pos, common.QuatRotate(rot, snap))
	}
	cam.SetPosition(pos)
}
