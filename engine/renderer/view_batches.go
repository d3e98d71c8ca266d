package renderer

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/batch"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

// getBatches builds the shadow, lit, light volume, base and transparent batches of the
// visible geometries and sorts every queue.
func (v *View) getBatches() {
	instancing := v.instancing()
	deferred := v.deferred()
	queueIndex := make(map[*light.Split]int)
	var limited []int

	for li := range v.lights {
		entry := &v.lights[li]
		n := v.processLight(entry)
		if n == 0 {
			continue
		}

		firstStored := -1
		for j := 0; j < n; j++ {
			split := v.splits[j]
			lq := v.lightQueueAt(v.numLightQueues, v.splitIndices[j], split, instancing)
			lq.FirstSplit = firstStored < 0

			if lq.ShadowCamera != nil {
				for _, c := range v.shadowCasters[j] {
					v.addShadowBatches(lq, c)
				}
			}

			if len(v.litGeometries[j]) == 0 {
				continue
			}
			store := true
			for _, gi := range v.litGeometries[j] {
				g := &v.geometries[gi]
				if g.drawable.Core().MaxLights() > 0 {
					if len(g.lightQueues) == 0 {
						limited = append(limited, gi)
					}
					g.lightQueues = append(g.lightQueues, v.splitIndices[j])
					continue
				}
				v.addLitBatches(g, entry.light, split, lq)
			}

			if deferred {
				vb := v.lightVolumeBatch(split, lq.ShadowCamera)
				// Split point faces need the stencil handling of shadowed lights.
				if split.ShadowMap != nil || split.Type == light.LightTypeSplitPoint {
					lq.VolumeBatches = append(lq.VolumeBatches, vb)
				} else {
					store = false
					v.noShadowLights = append(v.noShadowLights, vb)
				}
			}

			if store {
				queueIndex[split] = v.numLightQueues
				if firstStored < 0 {
					firstStored = v.numLightQueues
				}
				v.numLightQueues++
			}
		}
		if firstStored >= 0 {
			v.lightQueues[v.numLightQueues-1].LastSplit = true
		}
	}

	for _, gi := range limited {
		g := &v.geometries[gi]
		box := g.drawable.WorldBoundingBox()
		kept := drawable.LimitLights(g.lightQueues, g.drawable.Core().MaxLights(), func(idx int) float32 {
			return v.splitArena[idx].Original.SortKeyForBox(box)
		})
		for _, idx := range kept {
			split := v.splitArena[idx]
			var lq *batch.LightQueue
			if qi, ok := queueIndex[split]; ok {
				lq = v.lightQueues[qi]
			}
			v.addLitBatches(g, split.Original, split, lq)
		}
	}

	v.addBaseBatches()
	v.sortBatches()
}

// lightQueueAt returns the reusable light queue at index i, cleared and bound to a split.
func (v *View) lightQueueAt(i, splitIndex int, split *light.Split, instancing bool) *batch.LightQueue {
	for len(v.lightQueues) <= i {
		v.lightQueues = append(v.lightQueues, batch.NewLightQueue(-1, nil, instancing))
	}
	lq := v.lightQueues[i]
	lq.SplitIndex = splitIndex
	lq.Light = split
	lq.ShadowCamera = v.shadowCameraOf(split)
	lq.ShadowBatches.Clear(instancing)
	lq.LitBatches.Clear(instancing)
	lq.VolumeBatches = lq.VolumeBatches[:0]
	lq.FirstSplit = false
	lq.LastSplit = false
	return lq
}

// materialOrDefault returns m, or the renderer's default material when m is nil.
func (v *View) materialOrDefault(m material.Material) material.Material {
	if m == nil {
		return v.renderer.defaultMaterial
	}
	return m
}

// technique selects the technique of a material for a LOD distance at the view's
// material quality.
func (v *View) technique(m material.Material, lodDistance float32) *material.Technique {
	if m == nil {
		return nil
	}
	return material.SelectTechnique(m.Techniques(), lodDistance, v.materialQuality, v.graphics.Capabilities().SM3)
}

// newBatch fills the common fields of a batch from a source batch.
func newBatch(src drawable.SourceBatch, m material.Material, tech *material.Technique) batch.Batch {
	return batch.Batch{
		Geometry:       src.Geometry,
		Material:       m,
		Technique:      tech,
		WorldTransform: src.WorldTransform,
		GeometryType:   src.GeometryType,
		SkinMatrices:   src.SkinMatrices,
		Distance:       src.Distance,
	}
}

// isOpaque reports whether a technique's ambient pass, if any, replaces the color buffer.
func isOpaque(tech *material.Technique) bool {
	p := tech.Pass(material.PassBase)
	return p == nil || p.BlendMode == graphics.BlendReplace
}

func (v *View) addShadowBatches(lq *batch.LightQueue, c casterEntry) {
	d := c.drawable
	worldPos := d.Core().WorldPosition()
	n := d.NumBatches()
	for i := 0; i < n; i++ {
		src := d.Batch(v.frame, c.state, i)
		if src.Geometry == nil {
			continue
		}
		m := v.materialOrDefault(src.Material)
		tech := v.technique(m, c.state.LodDistance)
		if tech == nil {
			continue
		}
		pass := tech.Pass(material.PassShadow)
		if pass == nil {
			continue
		}

		b := newBatch(src, m, tech)
		b.Pass = pass
		b.Camera = lq.ShadowCamera
		b.Distance = lq.ShadowCamera.Distance(worldPos)
		b.HasPriority = !pass.AlphaTest && !pass.AlphaMask
		v.setBatchShaders(&b, false)
		lq.ShadowBatches.Add(b, false)
	}
}

// addLitBatches adds the batches of a geometry lit by one split. Opaque batches go to the
// split's queue in forward mode or the base queue in deferred mode; transparent batches go
// to the transparent queue.
//
// Parameters:
//   - g: the lit geometry
//   - l: the scene light the split belongs to
//   - split: the split
//   - lq: the split's queue, nil when it was not stored
func (v *View) addLitBatches(g *geometryEntry, l light.Light, split *light.Split, lq *batch.LightQueue) {
	d := g.drawable
	splitPoint := split.Type == light.LightTypeSplitPoint
	allowShadows := !v.settings.ReuseShadowMaps && !splitPoint
	deferred := v.deferred()
	litBase := !deferred && len(v.lights) > 0 && l == v.lights[0].light && split.Type == light.LightTypeDirectional

	shadowCam := v.shadowCameraOf(split)
	n := d.NumBatches()
	for i := 0; i < n; i++ {
		src := d.Batch(v.frame, g.state, i)
		if src.Geometry == nil {
			continue
		}
		m := v.materialOrDefault(src.Material)
		tech := v.technique(m, g.state.LodDistance)
		if tech == nil || (deferred && tech.HasPass(material.PassGBuffer)) {
			continue
		}

		var pass *material.Pass
		priority := false
		if litBase && !g.hasBasePass(i) {
			if pass = tech.Pass(material.PassLitBase); pass != nil {
				priority = true
				g.setBasePass(i, n)
			}
		}
		if pass == nil {
			pass = tech.Pass(material.PassLight)
		}
		if pass == nil {
			continue
		}

		b := newBatch(src, m, tech)
		b.Pass = pass
		b.Camera = v.camera
		b.Distance = g.state.Distance
		b.Light = split
		b.ShadowCamera = shadowCam
		b.HasPriority = priority

		if isOpaque(tech) {
			if !deferred {
				if lq != nil {
					v.setBatchShaders(&b, true)
					lq.LitBatches.Add(b, false)
				}
				continue
			}
			v.setBatchShaders(&b, allowShadows)
			v.baseQueue.Add(b, false)
			continue
		}

		if splitPoint {
			// Light the batch once for all faces, with the unsplit light so the scissor
			// covers the whole sphere.
			key := litTransparencyKey{light: l, drawable: d, batch: i}
			if _, lit := v.litTransparent[key]; lit {
				continue
			}
			v.litTransparent[key] = struct{}{}
			b.Light = v.originalSplit(split)
			b.ShadowCamera = nil
		}
		v.setBatchShaders(&b, allowShadows)
		v.transparentQueue.Add(b, true)
	}
}

// addBaseBatches adds the G-buffer, base, extra and unlit transparent batches of every
// visible geometry, and requests auxiliary views for render target textures.
func (v *View) addBaseBatches() {
	deferred := v.deferred()
	for gi := range v.geometries {
		g := &v.geometries[gi]
		d := g.drawable
		n := d.NumBatches()
		for i := 0; i < n; i++ {
			src := d.Batch(v.frame, g.state, i)
			if src.Geometry == nil {
				continue
			}
			m := v.materialOrDefault(src.Material)
			tech := v.technique(m, g.state.LodDistance)
			if tech == nil {
				continue
			}
			if v.target == nil && src.Material != nil && src.Material.AuxViewFrameNumber() != v.frame.FrameNumber {
				v.checkAuxViews(src.Material)
			}
			if g.hasBasePass(i) {
				continue
			}

			b := newBatch(src, m, tech)
			b.Camera = v.camera
			b.Distance = g.state.Distance

			if deferred {
				if pass := tech.Pass(material.PassGBuffer); pass != nil {
					b.Pass = pass
					b.HasPriority = !pass.AlphaTest && !pass.AlphaMask
					v.setBatchShaders(&b, false)
					v.gBufferQueue.Add(b, false)

					if extra := tech.Pass(material.PassExtra); extra != nil {
						b.Pass = extra
						v.setBatchShaders(&b, false)
						v.baseQueue.Add(b, false)
					}
					continue
				}
			}

			if pass := tech.Pass(material.PassBase); pass != nil {
				b.Pass = pass
				v.setBatchShaders(&b, false)
				if pass.BlendMode == graphics.BlendReplace {
					b.HasPriority = !pass.AlphaTest && !pass.AlphaMask
					v.baseQueue.Add(b, false)
				} else {
					b.HasPriority = true
					v.transparentQueue.Add(b, true)
				}
				continue
			}
			if pass := tech.Pass(material.PassExtra); pass != nil {
				b.Pass = pass
				v.setBatchShaders(&b, false)
				v.extraQueue.Add(b, false)
			}
		}
	}
}

// checkAuxViews queues the viewports of a material's render target textures. Each
// material is checked once per frame across all views.
func (v *View) checkAuxViews(m material.Material) {
	if !m.MarkForAuxView(v.frame.FrameNumber) {
		return
	}
	for _, tex := range m.Textures() {
		if tex == nil {
			continue
		}
		if surface := tex.RenderSurface(); surface != nil {
			v.renderer.addAuxView(surface)
		}
	}
}

// setBatchShaders resolves the shader variations of a batch from its pass, light and
// geometry type.
//
// Parameters:
//   - b: the batch, with pass and light set
//   - allowShadows: whether a shadowed light may use its shadow map
func (v *View) setBatchShaders(b *batch.Batch, allowShadows bool) {
	shaders := v.renderer.shaders
	var lightDefines string
	if b.Light != nil && b.Pass.Type != material.PassShadow {
		lightDefines = lightDefine(b.Light.Type)
		if allowShadows && b.Light.ShadowMap != nil && b.ShadowCamera != nil {
			lightDefines += "Shadow"
		} else {
			b.ShadowCamera = nil
		}
	}

	b.VertexShader = shaders.vs(variationName(b.Pass.VertexShader, lightDefines, geometryDefine(b.GeometryType)))
	b.PixelShader = shaders.ps(variationName(b.Pass.PixelShader, lightDefines))
	b.InstancingShader = nil
	if v.settings.DynamicInstancing && b.GeometryType == drawable.GeometryStatic {
		b.InstancingShader = shaders.vs(variationName(b.Pass.VertexShader, lightDefines, "Instanced"))
	}
}

// lightVolumeBatch builds the deferred light volume draw of a split.
func (v *View) lightVolumeBatch(split *light.Split, shadowCam camera.Camera) batch.Batch {
	defines := lightDefine(split.Type)
	if split.ShadowMap != nil && shadowCam != nil {
		defines += "Shadow"
	} else {
		shadowCam = nil
	}
	if v.camera.Orthographic() {
		defines += "Ortho"
	}
	return batch.Batch{
		Geometry:       v.renderer.geometries.forType(split.Type),
		WorldTransform: split.VolumeTransform(v.camera),
		OverrideView:   split.Type == light.LightTypeDirectional,
		Camera:         v.camera,
		Light:          split,
		ShadowCamera:   shadowCam,
		Distance:       split.Distance,
		VertexShader:   v.renderer.shaders.vs(variationName(shaderDeferredLight, defines)),
		PixelShader:    v.renderer.shaders.ps(variationName(shaderDeferredLight, defines)),
	}
}

// sortBatches orders the opaque queues front to back and the transparent queue back to
// front.
func (v *View) sortBatches() {
	v.gBufferQueue.SortFrontToBack()
	v.baseQueue.SortFrontToBack()
	v.extraQueue.SortFrontToBack()
	v.transparentQueue.SortBackToFront()
	for _, lq := range v.lightQueues[:v.numLightQueues] {
		lq.ShadowBatches.SortFrontToBack()
		lq.LitBatches.SortFrontToBack()
	}
	slices.SortStableFunc(v.noShadowLights, func(a, b batch.Batch) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
}

// lightScissor returns the normalized screen rectangle a split lights, cached per frame.
func (v *View) lightScissor(s *light.Split) common.Rect {
	if r, ok := v.scissorCache[s]; ok {
		return r
	}
	view := v.camera.ViewMatrix()
	proj := v.camera.ProjectionMatrix()

	var box common.BoundingBox
	switch s.Type {
	case light.LightTypePoint:
		box = s.WorldBoundingBox().Transformed(view).Projected(proj)
	case light.LightTypeSpot, light.LightTypeSplitPoint:
		box = s.Frustum().Transformed(view).BoundingBox().Projected(proj)
	default:
		v.scissorCache[s] = common.FullRect
		return common.FullRect
	}

	r := common.Rect{}
	if box.Defined {
		r = common.Rect{
			Min:     [2]float32{box.Min[0], box.Min[1]},
			Max:     [2]float32{box.Max[0], box.Max[1]},
			Defined: true,
		}
		r.Clip(common.FullRect)
	}
	v.scissorCache[s] = r
	return r
}
