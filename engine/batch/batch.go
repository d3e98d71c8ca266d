package batch

import (
	"hash/fnv"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

// Batch is one draw call: geometry drawn with a material pass from a camera, optionally lit
// by one split light. Batches are rebuilt by the view every frame.
type Batch struct {
	Geometry  *graphics.Geometry
	Material  material.Material
	Technique *material.Technique
	Pass      *material.Pass

	VertexShader *graphics.ShaderVariation
	PixelShader  *graphics.ShaderVariation
	// InstancingShader is the vertex shader used when the batch is drawn as part of an
	// instanced group. Nil disables instancing for the batch.
	InstancingShader *graphics.ShaderVariation

	WorldTransform [16]float32
	GeometryType   drawable.GeometryType
	SkinMatrices   []float32

	Camera camera.Camera
	Light  *light.Split
	// ShadowCamera is the camera the light's shadow map was rendered from, nil when unshadowed.
	ShadowCamera camera.Camera

	Distance    float32
	HasPriority bool
	// OverrideView draws the geometry in view space: only the projection is applied.
	OverrideView bool
	SortKey      uint64
}

// IsValid reports whether the batch has everything it needs to be queued.
func (b *Batch) IsValid() bool {
	return b.Geometry != nil && b.Technique != nil && b.Pass != nil
}

// CalculateSortKey derives the state sort key from the light, pass and shaders so batches
// at equal distance are drawn with as few state changes as possible.
func (b *Batch) CalculateSortKey() {
	h := fnv.New32a()
	if b.VertexShader != nil {
		h.Write([]byte(b.VertexShader.Name))
	}
	if b.PixelShader != nil {
		h.Write([]byte(b.PixelShader.Name))
	}
	shaders := uint64(h.Sum32() & 0xffff)

	h.Reset()
	if b.Material != nil {
		h.Write([]byte(b.Material.Name()))
	}
	mat := uint64(h.Sum32() & 0xffff)

	var lightBits uint64
	if b.Light != nil {
		lightBits = 1
		if b.Light.ShadowMap != nil {
			lightBits = 2
		}
	}
	var pass uint64
	if b.Pass != nil {
		pass = uint64(b.Pass.Type) & 0xff
	}
	b.SortKey = lightBits<<48 | pass<<40 | shaders<<16 | mat
}

// Prepare binds the batch's shaders, render state and shader parameters.
//
// Parameters:
//   - g: the graphics backend
//   - shared: view-wide shader parameters applied to every batch
//   - setModel: whether to set the model transform; instanced draws take it from the
//     instance stream instead
func (b *Batch) Prepare(g graphics.Graphics, shared map[graphics.ShaderParam][]float32, setModel bool) {
	vs := b.VertexShader
	if !setModel && b.InstancingShader != nil {
		vs = b.InstancingShader
	}
	g.SetShaders(vs, b.PixelShader)

	for param, values := range shared {
		g.SetShaderParameter(param, values)
	}

	if setModel {
		model := graphics.Matrix3x4(b.WorldTransform)
		g.SetShaderParameter(graphics.VSPModel, model[:])
	}
	if b.GeometryType == drawable.GeometrySkinned && len(b.SkinMatrices) > 0 {
		g.SetShaderParameter(graphics.VSPSkinMatrices, b.SkinMatrices)
	}

	if b.Camera != nil {
		b.setCameraParameters(g)
	}
	if b.Pass != nil {
		b.setPassState(g)
	}
	if b.Material != nil {
		for param, values := range b.Material.ShaderParameters() {
			g.SetShaderParameter(param, values)
		}
		for unit, tex := range b.Material.Textures() {
			g.SetTexture(unit, tex)
		}
	}
	if b.Light != nil {
		b.setLightParameters(g)
	}
}

// Draw prepares the batch and issues its draw call.
func (b *Batch) Draw(g graphics.Graphics, shared map[graphics.ShaderParam][]float32) {
	if b.Geometry.IsEmpty() {
		return
	}
	b.Prepare(g, shared, true)
	g.Draw(b.Geometry)
}

func (b *Batch) setCameraParameters(g graphics.Graphics) {
	pos := b.Camera.Position()
	g.SetShaderParameter(graphics.VSPCameraPos, pos[:])
	rot := graphics.Matrix3x4(b.Camera.WorldTransform())
	g.SetShaderParameter(graphics.VSPCameraRot, rot[:])

	var viewProj [16]float32
	if b.OverrideView {
		viewProj = b.Camera.BaseProjectionMatrix()
	} else {
		viewProj = b.Camera.ViewProjectionMatrix()
	}
	g.SetShaderParameter(graphics.VSPViewProj, viewProj[:])

	right := b.Camera.Right()
	up := b.Camera.Up()
	g.SetShaderParameter(graphics.VSPViewRightVector, right[:])
	g.SetShaderParameter(graphics.VSPViewUpVector, up[:])
}

func (b *Batch) setPassState(g graphics.Graphics) {
	p := b.Pass
	g.SetBlendMode(p.BlendMode)
	g.SetAlphaTest(p.AlphaTest, graphics.CompareGreaterEqual, 0.5)
	g.SetDepthTest(p.DepthTest)
	g.SetDepthWrite(p.DepthWrite)
	cull := graphics.CullCCW
	if b.Material != nil {
		cull = b.Material.CullMode()
		if p.Type == material.PassShadow {
			cull = b.Material.ShadowCullMode()
		}
	}
	g.SetCullMode(cull)
}

func (b *Batch) setLightParameters(g graphics.Graphics) {
	s := b.Light
	brightness := s.Intensity
	color := [4]float32{s.Color[0] * brightness, s.Color[1] * brightness, s.Color[2] * brightness, s.SpecularIntensity}
	g.SetShaderParameter(graphics.PSPLightColor, color[:])
	g.SetShaderParameter(graphics.PSPLightSpecIntensity, []float32{s.SpecularIntensity})

	dir := s.Direction()
	g.SetShaderParameter(graphics.VSPLightDir, dir[:])
	g.SetShaderParameter(graphics.PSPLightDir, dir[:])

	invRange := float32(0)
	if s.Type != light.LightTypeDirectional && s.Range > 0 {
		invRange = 1 / s.Range
	}
	pos := [4]float32{s.Position[0], s.Position[1], s.Position[2], invRange}
	g.SetShaderParameter(graphics.VSPLightPos, pos[:])
	g.SetShaderParameter(graphics.PSPLightPos, pos[:])

	rot := graphics.Matrix3x4(common.InverseMatrix(s.Transform()))
	g.SetShaderParameter(graphics.PSPLightVecRot, rot[:])

	if s.Type == light.LightTypeSpot || s.Type == light.LightTypeSplitPoint {
		spot := SpotProjection(s)
		g.SetShaderParameter(graphics.VSPSpotProj, spot[:])
	}

	if b.Camera != nil {
		far := b.Camera.FarClip()
		splits := [4]float32{
			(s.NearSplit - s.NearFadeRange) / far,
			1 / max(s.NearFadeRange/far, common.Epsilon),
			(s.FarSplit - s.FarFadeRange) / far,
			1 / max(s.FarFadeRange/far, common.Epsilon),
		}
		g.SetShaderParameter(graphics.PSPLightSplits, splits[:])
	}

	g.SetTexture(graphics.TULightRamp, s.RampTexture)
	g.SetTexture(graphics.TULightShape, s.ShapeTexture)

	if s.ShadowMap != nil && b.ShadowCamera != nil {
		shadow := ShadowProjection(b.ShadowCamera, s.ShadowMap)
		g.SetShaderParameter(graphics.VSPShadowProj, shadow[:])
		g.SetShaderParameter(graphics.PSPShadowProjection, shadow[:])
		if b.Camera != nil {
			intensity := s.ShadowParameters(b.Camera)
			g.SetShaderParameter(graphics.PSPShadowIntensity, intensity[:])
		}
		w, h := float32(s.ShadowMap.Width()), float32(s.ShadowMap.Height())
		g.SetShaderParameter(graphics.PSPSampleOffsets, []float32{0.5 / w, 0.5 / h, 0, 0})
		g.SetTexture(graphics.TUShadowMap, s.ShadowMap)
	} else {
		g.SetTexture(graphics.TUShadowMap, nil)
	}
}

// textureAdjust maps normalized device coordinates to texture coordinates, offset by
// half a texel of a width x height texture (no offset when either is zero).
func textureAdjust(width, height int) [16]float32 {
	m := common.IdentityMatrix()
	m[0] = 0.5
	m[5] = -0.5
	m[12] = 0.5
	m[13] = 0.5
	if width > 0 && height > 0 {
		m[12] += 0.5 / float32(width)
		m[13] += 0.5 / float32(height)
	}
	return m
}

// ShadowProjection returns the matrix transforming world positions into shadow map texture
// coordinates and depth.
func ShadowProjection(shadowCamera camera.Camera, shadowMap graphics.Texture) [16]float32 {
	return common.MulMatrix(textureAdjust(shadowMap.Width(), shadowMap.Height()), shadowCamera.ViewProjectionMatrix())
}

// SpotProjection returns the matrix transforming world positions into spot light shape
// texture coordinates.
func SpotProjection(s *light.Split) [16]float32 {
	proj := common.Perspective(s.Fov, s.AspectRatio, 1, common.MinNearClip, max(s.Range, common.MinNearClip*2))
	viewProj := common.MulMatrix(proj, common.InverseMatrix(s.Transform()))
	return common.MulMatrix(textureAdjust(0, 0), viewProj)
}
