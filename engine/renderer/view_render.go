package renderer

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/batch"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
)

const (
	// stencilAll is the stencil compare and write mask used by every stencil operation.
	stencilAll = ^uint32(0)
	// elapsedTimeWrap keeps the elapsed time shader parameter within float precision.
	elapsedTimeWrap float32 = 4194.304
	fogEpsilon      float32 = 0.00005
)

// Render draws the batches collected by the last Update. Views must be rendered on the
// goroutine that owns the graphics backend.
func (v *View) Render() {
	if v.index == nil || v.camera == nil {
		return
	}
	g := v.graphics

	if v.instancing() && g.Capabilities().StreamOffset {
		v.prepareInstancingBuffer()
	}
	if v.camera.AutoAspectRatio() {
		v.camera.SetAspectRatio(float32(v.width) / float32(v.height))
	}

	g.SetFillMode(graphics.FillSolid)
	g.SetScissorTest(false, common.Rect{}, false)
	v.stencilOff()

	v.calculateShaderParameters()

	if !v.settings.ReuseShadowMaps {
		for _, lq := range v.LightQueues() {
			if lq.Light.ShadowMap != nil && lq.ShadowCamera != nil {
				v.renderShadowMap(lq)
			}
		}
	}

	if v.deferred() {
		v.renderDeferred()
	} else {
		v.renderForward()
	}

	g.SetScissorTest(false, common.Rect{}, false)
	v.stencilOff()
	v.camera.SetProjectionOffset([2]float32{})

	if v.target == nil {
		if dr := v.scene.DebugRenderer(); dr != nil {
			dr.SetView(v.camera)
			dr.Render(g, v.renderer.shaders.vs(shaderDebugLines), v.renderer.shaders.ps(shaderDebugLines))
		}
	}
}

// prepareInstancingBuffer writes the transforms of every instanced group into one
// instance stream so groups draw from offsets into it.
func (v *View) prepareInstancingBuffer() {
	data := v.renderer.instanceData[:0]
	data = v.gBufferQueue.AppendTransforms(data)
	data = v.baseQueue.AppendTransforms(data)
	data = v.extraQueue.AppendTransforms(data)
	for _, lq := range v.LightQueues() {
		data = lq.ShadowBatches.AppendTransforms(data)
		data = lq.LitBatches.AppendTransforms(data)
	}
	v.renderer.instanceData = data
	if len(data) > 0 {
		v.graphics.SetInstanceData(data)
	}
}

// calculateShaderParameters fills the view-wide shader parameters set on every batch.
func (v *View) calculateShaderParameters() {
	cam := v.camera
	zone := v.zone
	farClip := cam.FarClip()
	nearClip := cam.NearClip()

	fogStart := min(zone.FogStart(), farClip)
	fogEnd := min(zone.FogEnd(), farClip)
	if fogStart >= fogEnd*(1-fogEpsilon) {
		fogStart = fogEnd * (1 - fogEpsilon)
	}
	fogRange := max(fogEnd-fogStart, common.Epsilon)
	fogParams := []float32{fogStart / farClip, fogEnd / farClip, farClip / fogRange, 0}
	elapsed := []float32{math32.Mod(v.renderer.elapsedTime, elapsedTimeWrap), 0, 0, 0}

	depthMode := []float32{0, 0, 0, 0}
	if cam.Orthographic() {
		depthMode[0] = 1
		depthMode[2] = 1
	} else {
		depthMode[3] = 1 / farClip
	}

	ambient := zone.AmbientColor()
	fogColor := zone.FogColor()

	clear(v.shaderParams)
	v.shaderParams[graphics.VSPDepthMode] = depthMode
	v.shaderParams[graphics.VSPElapsedTime] = elapsed
	v.shaderParams[graphics.PSPElapsedTime] = elapsed
	v.shaderParams[graphics.PSPAmbientColor] = ambient[:]
	v.shaderParams[graphics.PSPFogColor] = fogColor[:]
	v.shaderParams[graphics.PSPFogParams] = fogParams

	if !v.deferred() {
		return
	}
	_, farVector := cam.FrustumSize()
	gw := float32(v.graphics.Width())
	gh := float32(v.graphics.Height())
	widthRange := 0.5 * float32(v.width) / gw
	heightRange := 0.5 * float32(v.height) / gh
	offsets := []float32{
		(0.5+float32(v.rect.Left))/gw + widthRange,
		(0.5+float32(v.rect.Top))/gh + heightRange,
		widthRange,
		heightRange,
	}

	v.shaderParams[graphics.VSPFrustumSize] = []float32{farVector[0], farVector[1], farVector[2], 0}
	v.shaderParams[graphics.VSPGBufferOffsets] = offsets
	v.shaderParams[graphics.PSPGBufferOffsets] = offsets
	v.shaderParams[graphics.PSPGBufferViewport] = []float32{
		float32(v.rect.Left) / gw, float32(v.rect.Top) / gh,
		float32(v.rect.Right) / gw, float32(v.rect.Bottom) / gh,
	}
	v.shaderParams[graphics.PSPDepthReconstruct] = []float32{
		farClip / (farClip - nearClip),
		-nearClip / (farClip - nearClip),
		0, 0,
	}
}

func (v *View) bindTarget(target graphics.RenderSurface) {
	v.graphics.SetRenderTarget(0, target)
	v.graphics.SetDepthStencil(v.depthStencil)
	v.graphics.SetViewport(v.rect)
}

func (v *View) renderForward() {
	g := v.graphics

	g.SetColorWrite(true)
	v.bindTarget(v.target)
	g.Clear(graphics.ClearColor|graphics.ClearDepth|graphics.ClearStencil, v.zone.FogColor(), 1, 0)
	v.renderBatchQueue(v.baseQueue, false)

	for _, lq := range v.LightQueues() {
		if v.settings.ReuseShadowMaps && lq.Light.ShadowMap != nil && lq.ShadowCamera != nil {
			v.renderShadowMap(lq)
		}
		v.bindTarget(v.target)
		v.renderForwardLightQueue(lq.LitBatches, lq.Light, lq.FirstSplit)
	}

	g.SetScissorTest(false, common.Rect{}, false)
	v.stencilOff()
	v.bindTarget(v.target)

	if !v.extraQueue.IsEmpty() {
		v.renderBatchQueue(v.extraQueue, false)
	}
	if !v.transparentQueue.IsEmpty() {
		v.renderBatchQueue(v.transparentQueue, true)
	}
}

func (v *View) renderDeferred() {
	g := v.graphics
	gb := &v.renderer.gBuffer
	if gb.albedo == nil {
		return
	}

	temporalAA := v.target == nil && v.settings.TemporalAA && gb.screen[0] != nil
	if temporalAA {
		v.jitterCounter++
		if v.jitterCounter > 3 {
			v.jitterCounter = 2
		}
		jitter := [2]float32{-0.25, -0.25}
		if v.jitterCounter&1 != 0 {
			jitter = [2]float32{0.25, 0.25}
		}
		jitter[0] /= float32(v.width)
		jitter[1] /= float32(v.height)
		v.camera.SetProjectionOffset(jitter)
	}

	renderBuffer := v.target
	if temporalAA {
		renderBuffer = gb.screen[v.jitterCounter&1].RenderSurface()
	}

	// G-buffer
	g.SetColorWrite(true)
	g.SetRenderTarget(0, gb.albedo.RenderSurface())
	g.SetRenderTarget(1, gb.normal.RenderSurface())
	g.SetRenderTarget(2, gb.depth.RenderSurface())
	g.SetDepthStencil(v.depthStencil)
	g.SetViewport(v.rect)
	fullClear := g.Capabilities().FullGBufferClear
	if fullClear {
		g.Clear(graphics.ClearColor|graphics.ClearDepth|graphics.ClearStencil, [4]float32{}, 1, 0)
	} else {
		g.Clear(graphics.ClearDepth|graphics.ClearStencil, [4]float32{}, 1, 0)
	}

	v.renderBatchQueue(v.gBufferQueue, false)

	g.SetAlphaTest(false, graphics.CompareAlways, 0)
	g.SetBlendMode(graphics.BlendReplace)

	if !fullClear {
		// Fill the pixels no geometry was rendered into.
		g.SetDepthTest(graphics.CompareLessEqual)
		g.SetDepthWrite(false)
		g.SetRenderTarget(2, nil)
		g.SetRenderTarget(1, gb.depth.RenderSurface())
		v.drawFullScreenQuad(
			v.renderer.shaders.vs(shaderGBufferFill),
			v.renderer.shaders.ps(variationName(shaderGBufferFill, "Depth")),
			false,
			v.shaderParams,
		)
	}

	// Ambient and fog
	g.SetDepthTest(graphics.CompareAlways)
	g.SetRenderTarget(0, renderBuffer)
	g.SetRenderTarget(1, nil)
	g.SetRenderTarget(2, nil)
	g.SetDepthStencil(v.depthStencil)
	g.SetViewport(v.rect)
	g.SetTexture(graphics.TUAlbedoBuffer, gb.albedo)
	g.SetTexture(graphics.TUDepthBuffer, gb.depth)
	v.drawFullScreenQuad(
		v.renderer.shaders.vs(shaderAmbient),
		v.renderer.shaders.ps(variationName(shaderAmbient, "Linear")),
		false,
		v.shaderParams,
	)

	bindGBuffer := func() {
		v.bindTarget(renderBuffer)
		g.SetTexture(graphics.TUAlbedoBuffer, gb.albedo)
		g.SetTexture(graphics.TUNormalBuffer, gb.normal)
		g.SetTexture(graphics.TUDepthBuffer, gb.depth)
	}

	for _, lq := range v.LightQueues() {
		if v.settings.ReuseShadowMaps && lq.Light.ShadowMap != nil && lq.ShadowCamera != nil {
			v.renderShadowMap(lq)
		}
		if len(lq.VolumeBatches) == 0 {
			continue
		}
		bindGBuffer()
		for i := range lq.VolumeBatches {
			b := &lq.VolumeBatches[i]
			v.setupLightBatch(b, lq.FirstSplit)
			b.Draw(g, v.shaderParams)
		}
	}

	if len(v.noShadowLights) > 0 {
		bindGBuffer()
		for i := range v.noShadowLights {
			b := &v.noShadowLights[i]
			v.setupLightBatch(b, false)
			b.Draw(g, v.shaderParams)
		}
	}

	g.SetTexture(graphics.TUAlbedoBuffer, nil)
	g.SetTexture(graphics.TUNormalBuffer, nil)
	g.SetTexture(graphics.TUDepthBuffer, nil)
	v.bindTarget(renderBuffer)
	v.renderBatchQueue(v.baseQueue, true)

	if !v.extraQueue.IsEmpty() {
		v.renderBatchQueue(v.extraQueue, false)
	}
	if !v.transparentQueue.IsEmpty() {
		v.renderBatchQueue(v.transparentQueue, true)
	}

	if temporalAA {
		v.renderTemporalAA()
	}
}

// renderTemporalAA blends the current and previous jittered screen buffers into the
// view's target, reprojecting the history with last frame's camera.
func (v *View) renderTemporalAA() {
	g := v.graphics
	gb := &v.renderer.gBuffer
	cam := v.camera

	weight := float32(0.5)
	if v.jitterCounter < 2 || !v.lastViewValid {
		weight = 1
	}

	vsName := shaderTemporalAA
	psName := shaderTemporalAA
	if cam.Orthographic() {
		vsName = variationName(shaderTemporalAA, "Ortho")
		psName = vsName
	} else {
		psName = variationName(shaderTemporalAA, "Linear")
	}

	g.SetAlphaTest(false, graphics.CompareAlways, 0)
	g.SetBlendMode(graphics.BlendReplace)
	g.SetDepthTest(graphics.CompareAlways)
	g.SetDepthWrite(false)
	v.bindTarget(v.target)

	vs := v.renderer.shaders.vs(vsName)
	ps := v.renderer.shaders.ps(psName)
	g.SetShaders(vs, ps)

	rot := graphics.Matrix3x4(cam.WorldTransform())
	rot[3], rot[7], rot[11] = 0, 0, 0
	pos := cam.Position()
	lastViewProj := common.MulMatrix(cam.BaseProjectionMatrix(), v.lastCameraView)
	g.SetShaderParameter(graphics.VSPCameraRot, rot[:])
	g.SetShaderParameter(graphics.PSPCameraPos, pos[:])
	g.SetShaderParameter(graphics.PSPSampleOffsets, []float32{
		1 / float32(g.Width()), 1 / float32(g.Height()), weight, 1 - weight,
	})
	g.SetShaderParameter(graphics.PSPViewProj, lastViewProj[:])
	g.SetTexture(graphics.TUAlbedoBuffer, gb.screen[v.jitterCounter&1])
	g.SetTexture(graphics.TUNormalBuffer, gb.screen[(v.jitterCounter+1)&1])
	g.SetTexture(graphics.TUDepthBuffer, gb.depth)

	v.drawFullScreenQuad(vs, ps, false, v.shaderParams)

	v.lastCameraView = cam.ViewMatrix()
	v.lastViewValid = true
}

// renderShadowMap renders the shadow casters of a light queue into its split's shadow map.
func (v *View) renderShadowMap(lq *batch.LightQueue) {
	g := v.graphics
	s := lq.Light
	shadowMap := s.ShadowMap

	g.SetColorWrite(false)
	g.SetTexture(graphics.TUShadowMap, nil)
	g.SetRenderTarget(0, v.renderer.shadowMaps.colorSurface(shadowMap))
	g.SetDepthStencil(shadowMap.RenderSurface())
	g.SetViewport(common.IntRect{Right: shadowMap.Width(), Bottom: shadowMap.Height()})
	g.Clear(graphics.ClearDepth, [4]float32{}, 1, 0)

	scale := v.settings.shadowBiasScale()
	g.SetDepthBias(s.ShadowBias.ConstantBias*scale, s.ShadowBias.SlopeScaledBias)

	// Point light faces are rendered continuously across the cube, so only other lights
	// are limited to the zoomed area.
	if s.Type != light.LightTypeSplitPoint {
		w := float32(shadowMap.Width())
		zoom := min(lq.ShadowCamera.Zoom(), (w-2)/w)
		g.SetScissorTest(true, common.Rect{
			Min:     [2]float32{-zoom, -zoom},
			Max:     [2]float32{zoom, zoom},
			Defined: true,
		}, false)
	} else {
		g.SetScissorTest(false, common.Rect{}, false)
	}

	v.renderBatchQueue(lq.ShadowBatches, false)

	g.SetColorWrite(true)
	g.SetDepthBias(0, 0)
	g.SetScissorTest(false, common.Rect{}, false)
}

// renderBatchQueue draws a queue, priority batches first.
//
// Parameters:
//   - q: the queue
//   - useScissor: limit lit batches to their light's screen rectangle
func (v *View) renderBatchQueue(q *batch.Queue, useScissor bool) {
	g := v.graphics
	instancing := v.instancing()

	if useScissor {
		g.SetScissorTest(false, common.Rect{}, false)
	}
	v.stencilOff()

	for _, gr := range q.PriorityGroups() {
		gr.Draw(g, instancing, v.shaderParams)
	}
	for _, b := range q.PriorityBatches() {
		b.Draw(g, v.shaderParams)
	}

	for _, gr := range q.Groups() {
		if useScissor {
			v.scissorByLight(gr.Light)
		}
		gr.Draw(g, instancing, v.shaderParams)
	}
	for _, b := range q.Batches() {
		// The transparent queue keeps priority batches here too.
		if useScissor {
			if b.HasPriority {
				g.SetScissorTest(false, common.Rect{}, false)
			} else {
				v.scissorByLight(b.Light)
			}
		}
		b.Draw(g, v.shaderParams)
	}
}

// renderForwardLightQueue draws the lit batches of one split. Once the priority batches
// are drawn, the rest are limited to the light's scissor rectangle and stencil mask.
func (v *View) renderForwardLightQueue(q *batch.Queue, s *light.Split, firstSplit bool) {
	g := v.graphics
	instancing := v.instancing()

	g.SetScissorTest(false, common.Rect{}, false)
	v.stencilOff()

	for _, gr := range q.PriorityGroups() {
		gr.Draw(g, instancing, v.shaderParams)
	}
	for _, b := range q.PriorityBatches() {
		b.Draw(g, v.shaderParams)
	}

	if s != nil {
		v.scissorByLight(s)
		if v.settings.LightStencilMasking && (s.Type == light.LightTypeSplitPoint || s.Type == light.LightTypeDirectional) {
			v.drawSplitLightToStencil(v.camera, s, firstSplit)
		}
	}

	for _, gr := range q.Groups() {
		gr.Draw(g, instancing, v.shaderParams)
	}
	for _, b := range q.Batches() {
		b.Draw(g, v.shaderParams)
	}
}

func (v *View) scissorByLight(s *light.Split) {
	if s == nil {
		v.graphics.SetScissorTest(false, common.Rect{}, false)
		return
	}
	v.graphics.SetScissorTest(true, v.lightScissor(s), false)
}

func (v *View) stencilOff() {
	v.graphics.SetStencilTest(false, graphics.CompareAlways, graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep, 0, stencilAll, stencilAll)
}

func (v *View) stencil(mode graphics.CompareMode, pass, fail, zFail graphics.StencilOp, ref uint32) {
	v.graphics.SetStencilTest(true, mode, pass, fail, zFail, ref, stencilAll, stencilAll)
}

func (v *View) useStencilShaders() {
	v.graphics.SetShaders(v.renderer.shaders.vs(shaderStencil), v.renderer.shaders.ps(shaderStencil))
}

// clearSplitPointStencil zeroes the stencil under the whole point light before its first
// face is drawn.
func (v *View) clearSplitPointStencil(s *light.Split) {
	v.scissorByLight(v.originalSplit(s))
	v.graphics.Clear(graphics.ClearStencil, [4]float32{}, 1, 0)
	v.graphics.SetScissorTest(false, common.Rect{}, false)
}

// setupLightBatch sets the depth, cull and stencil state for drawing a deferred light
// volume, marking the pixels it may light in the stencil buffer first when that saves
// fill rate.
//
// Parameters:
//   - b: the light volume batch
//   - firstSplit: the batch belongs to the first split of its light
func (v *View) setupLightBatch(b *batch.Batch, firstSplit bool) {
	g := v.graphics
	s := b.Light
	cam := b.Camera

	extent := s.VolumeExtent()
	viewDist := common.Length3(common.Sub3(s.Position, cam.Position()))

	g.SetAlphaTest(false, graphics.CompareAlways, 0)
	g.SetBlendMode(graphics.BlendAdd)
	g.SetDepthWrite(false)

	if s.Type == light.LightTypeDirectional {
		if s.NearSplit <= cam.NearClip() {
			g.SetCullMode(graphics.CullNone)
			g.SetDepthTest(graphics.CompareGreater)
			v.stencilOff()
			return
		}
		proj := cam.BaseProjectionMatrix()
		near := graphics.Matrix3x4(s.DirLightTransform(cam, true))

		g.SetColorWrite(false)
		g.SetCullMode(graphics.CullNone)
		g.SetDepthTest(graphics.CompareLessEqual)
		v.stencil(graphics.CompareAlways, graphics.StencilRef, graphics.StencilZero, graphics.StencilZero, 1)
		v.useStencilShaders()
		g.SetShaderParameter(graphics.VSPViewProj, proj[:])
		g.SetShaderParameter(graphics.VSPModel, near[:])
		g.Draw(b.Geometry)

		g.SetColorWrite(true)
		g.SetDepthTest(graphics.CompareGreater)
		v.stencil(graphics.CompareEqual, graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep, 1)
		return
	}

	viewProj := cam.ViewProjectionMatrix()
	model := graphics.Matrix3x4(s.VolumeTransform(cam))
	inside := viewDist < extent+cam.NearClip()

	if s.Type == light.LightTypeSplitPoint {
		// Faces of a shadowed point light overlap: mask out pixels an earlier face lit.
		if firstSplit {
			v.clearSplitPointStencil(s)
		}
		g.SetColorWrite(false)
		if inside {
			g.SetCullMode(graphics.CullCCW)
			g.SetDepthTest(graphics.CompareGreater)
		} else {
			g.SetCullMode(graphics.CullCW)
			g.SetDepthTest(graphics.CompareLess)
		}
		v.stencil(graphics.CompareEqual, graphics.StencilIncr, graphics.StencilKeep, graphics.StencilKeep, 0)
		v.useStencilShaders()
		g.SetShaderParameter(graphics.VSPViewProj, viewProj[:])
		g.SetShaderParameter(graphics.VSPModel, model[:])
		g.Draw(b.Geometry)

		g.SetColorWrite(true)
		if inside {
			g.SetCullMode(graphics.CullCW)
		} else {
			g.SetCullMode(graphics.CullCCW)
		}
		v.stencil(graphics.CompareEqual, graphics.StencilDecr, graphics.StencilDecr, graphics.StencilKeep, 0)
		return
	}

	switch {
	case inside:
		// The camera is inside the volume: draw back faces with reversed depth test.
		g.SetCullMode(graphics.CullCW)
		g.SetDepthTest(graphics.CompareGreater)
		v.stencilOff()
	case viewDist < cam.FarClip()-extent:
		g.SetColorWrite(false)
		g.SetCullMode(graphics.CullCW)
		g.SetDepthTest(graphics.CompareGreater)
		v.stencil(graphics.CompareAlways, graphics.StencilRef, graphics.StencilZero, graphics.StencilZero, 1)
		v.useStencilShaders()
		g.SetShaderParameter(graphics.VSPViewProj, viewProj[:])
		g.SetShaderParameter(graphics.VSPModel, model[:])
		g.Draw(b.Geometry)

		g.SetColorWrite(true)
		v.stencil(graphics.CompareEqual, graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep, 1)
		g.SetCullMode(graphics.CullCCW)
		g.SetDepthTest(graphics.CompareLess)
	default:
		v.stencilOff()
		g.SetCullMode(graphics.CullCCW)
		g.SetDepthTest(graphics.CompareLess)
	}
}

// drawSplitLightToStencil marks the pixels a forward split light may light: for point
// light faces those no earlier face lit, for directional cascades those within the
// split's depth range.
//
// Parameters:
//   - cam: the view camera
//   - s: the split light
//   - firstSplit: the split is the first of its light
func (v *View) drawSplitLightToStencil(cam camera.Camera, s *light.Split, firstSplit bool) {
	g := v.graphics
	geometries := v.renderer.geometries

	switch s.Type {
	case light.LightTypeSplitPoint:
		if firstSplit {
			v.clearSplitPointStencil(s)
		}
		viewProj := cam.ViewProjectionMatrix()
		model := graphics.Matrix3x4(s.VolumeTransform(cam))
		viewDist := common.Length3(common.Sub3(s.Position, cam.Position()))
		backFaces := viewDist < s.VolumeExtent()+cam.NearClip()

		g.SetAlphaTest(false, graphics.CompareAlways, 0)
		g.SetColorWrite(false)
		g.SetDepthWrite(false)
		if backFaces {
			g.SetCullMode(graphics.CullCW)
			g.SetDepthTest(graphics.CompareGreater)
		} else {
			g.SetCullMode(graphics.CullCCW)
			g.SetDepthTest(graphics.CompareLess)
		}
		v.useStencilShaders()
		g.SetShaderParameter(graphics.VSPModel, model[:])
		g.SetShaderParameter(graphics.VSPViewProj, viewProj[:])

		// Faces where no light was rendered yet.
		v.stencil(graphics.CompareEqual, graphics.StencilIncr, graphics.StencilKeep, graphics.StencilKeep, 0)
		g.Draw(geometries.cone)

		// The other faces free their pixels for the remaining splits.
		if backFaces {
			g.SetCullMode(graphics.CullCCW)
		} else {
			g.SetCullMode(graphics.CullCW)
		}
		v.stencil(graphics.CompareEqual, graphics.StencilDecr, graphics.StencilKeep, graphics.StencilKeep, 1)
		g.Draw(geometries.cone)

		v.stencil(graphics.CompareEqual, graphics.StencilIncr, graphics.StencilKeep, graphics.StencilKeep, 1)
		g.SetColorWrite(true)

	case light.LightTypeDirectional:
		if s.NearSplit <= cam.NearClip() && s.FarSplit >= cam.FarClip() {
			v.stencilOff()
			return
		}
		proj := cam.BaseProjectionMatrix()
		nearPlaneSplit := s.NearSplit <= cam.NearClip()
		model := graphics.Matrix3x4(s.DirLightTransform(cam, !nearPlaneSplit))

		g.SetAlphaTest(false, graphics.CompareAlways, 0)
		g.SetColorWrite(false)
		g.SetDepthWrite(false)
		g.SetCullMode(graphics.CullNone)
		if nearPlaneSplit {
			g.SetDepthTest(graphics.CompareGreater)
		} else {
			g.SetDepthTest(graphics.CompareLess)
		}
		v.useStencilShaders()
		g.SetShaderParameter(graphics.VSPModel, model[:])
		g.SetShaderParameter(graphics.VSPViewProj, proj[:])
		v.stencil(graphics.CompareAlways, graphics.StencilRef, graphics.StencilZero, graphics.StencilZero, 1)
		g.Draw(geometries.quad)

		g.SetColorWrite(true)
		v.stencil(graphics.CompareEqual, graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep, 1)
	}
}

// drawFullScreenQuad draws the directional light quad at the camera's near or far plane
// with the given shaders.
//
// Parameters:
//   - vs: the vertex shader
//   - ps: the pixel shader
//   - nearQuad: place the quad at the near plane instead of the far plane
//   - params: extra shader parameters
func (v *View) drawFullScreenQuad(vs, ps *graphics.ShaderVariation, nearQuad bool, params map[graphics.ShaderParam][]float32) {
	g := v.graphics
	var quad light.Split
	quad.Type = light.LightTypeDirectional
	quad.FarSplit = light.LargeValue

	model := graphics.Matrix3x4(quad.DirLightTransform(v.camera, nearQuad))
	proj := v.camera.BaseProjectionMatrix()

	g.SetCullMode(graphics.CullNone)
	g.SetShaders(vs, ps)
	g.SetShaderParameter(graphics.VSPModel, model[:])
	g.SetShaderParameter(graphics.VSPViewProj, proj[:])
	for param, values := range params {
		g.SetShaderParameter(param, values)
	}
	g.Draw(v.renderer.geometries.quad)
}
