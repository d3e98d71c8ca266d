package graphics

import (
	"github.com/Carmen-Shannon/oxy-view/common"
)

// BlendMode selects the color blend equation of the output merger.
type BlendMode int

const (
	BlendReplace BlendMode = iota
	BlendAdd
	BlendMultiply
	BlendAlpha
	BlendAddAlpha
	BlendPremulAlpha
	BlendInvDestAlpha
)

// CompareMode is a depth, stencil or alpha comparison function.
type CompareMode int

const (
	CompareAlways CompareMode = iota
	CompareEqual
	CompareNotEqual
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
)

// CullMode selects which triangle winding is culled. CullCCW culls counter-clockwise
// (back) faces under the engine's clockwise front-face convention.
type CullMode int

const (
	CullNone CullMode = iota
	CullCCW
	CullCW
)

// FillMode selects polygon rasterization.
type FillMode int

const (
	FillSolid FillMode = iota
	FillWireframe
)

// StencilOp is the operation applied to the stencil buffer.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilRef
	StencilIncr
	StencilDecr
)

// ClearFlags selects the buffers affected by Clear.
type ClearFlags uint32

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// PrimitiveType is the topology of a geometry's index data.
type PrimitiveType int

const (
	TriangleList PrimitiveType = iota
	LineList
)

// TextureUnit identifies a texture binding slot.
type TextureUnit int

const (
	TUDiffuse TextureUnit = iota
	TUNormal
	TUSpecular
	TUEmissive
	TUEnvironment
	TULightRamp
	TULightShape
	TUShadowMap
	TUAlbedoBuffer
	TUNormalBuffer
	TUDepthBuffer
	MaxTextureUnits
)

// MaxRenderTargets is the number of simultaneous color targets the pipeline uses.
const MaxRenderTargets = 4

// Capabilities describes optional features of a graphics backend.
type Capabilities struct {
	// SM3 reports support for the high shader model; techniques flagged SM3 are skipped otherwise.
	SM3 bool
	// Instancing reports hardware instancing with a per-instance stream.
	Instancing bool
	// StreamOffset reports that an instanced draw may start at an offset into the instance stream.
	StreamOffset bool
	// FullGBufferClear makes the deferred path clear every G-buffer target instead of
	// relying on the ambient pass to overwrite untouched pixels.
	FullGBufferClear bool
	// ShadowMapFormat is the depth format used for shadow map textures.
	ShadowMapFormat TextureFormat
	// MaxTextureSize is the largest texture dimension the backend accepts.
	MaxTextureSize int
}

// Graphics is the GPU command interface the renderer drives. Implementations keep
// render state between calls; every setter only affects draws issued afterwards.
// Calls are made from a single goroutine.
type Graphics interface {
	// Capabilities returns the feature set of the backend.
	//
	// Returns:
	//   - Capabilities: backend features
	Capabilities() Capabilities

	// Width returns the back buffer width in pixels.
	Width() int

	// Height returns the back buffer height in pixels.
	Height() int

	// BeginFrame prepares the backend for a new frame of commands.
	//
	// Returns:
	//   - error: error if the frame cannot be started (e.g. surface lost)
	BeginFrame() error

	// EndFrame submits recorded work and presents the back buffer.
	EndFrame()

	// CreateTexture allocates a texture, optionally usable as a render surface.
	//
	// Parameters:
	//   - desc: size, format and usage of the texture
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: error if allocation fails
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// SetRenderTarget binds a color render surface. A nil surface at index 0 selects the back buffer.
	SetRenderTarget(index int, surface RenderSurface)

	// SetDepthStencil binds a depth-stencil surface. Nil selects the backend's default depth buffer.
	SetDepthStencil(surface RenderSurface)

	// ResetRenderTargets binds the back buffer and default depth buffer.
	ResetRenderTargets()

	// RenderTarget returns the color surface bound at index, nil for the back buffer.
	RenderTarget(index int) RenderSurface

	// DepthStencil returns the bound depth-stencil surface, nil for the default one.
	DepthStencil() RenderSurface

	// SetViewport sets the pixel viewport within the current render target.
	SetViewport(rect common.IntRect)

	// Viewport returns the current pixel viewport.
	Viewport() common.IntRect

	// Clear clears the selected buffers within the current viewport.
	//
	// Parameters:
	//   - flags: buffers to clear
	//   - color: RGBA clear color
	//   - depth: depth clear value
	//   - stencil: stencil clear value
	Clear(flags ClearFlags, color [4]float32, depth float32, stencil uint32)

	SetBlendMode(mode BlendMode)
	SetAlphaTest(enable bool, mode CompareMode, ref float32)
	SetColorWrite(enable bool)
	SetCullMode(mode CullMode)
	SetDepthBias(constantBias, slopeScaledBias float32)
	SetDepthTest(mode CompareMode)
	SetDepthWrite(enable bool)
	SetFillMode(mode FillMode)

	// SetScissorTest enables the scissor with a rectangle in normalized screen coordinates [-1, 1].
	//
	// Parameters:
	//   - enable: whether the scissor test is on
	//   - rect: normalized rectangle, ignored when disabled
	//   - borderInclusive: expand the pixel rectangle by one pixel on each side
	SetScissorTest(enable bool, rect common.Rect, borderInclusive bool)

	// SetStencilTest configures the stencil test.
	SetStencilTest(enable bool, mode CompareMode, pass, fail, zFail StencilOp, ref, compareMask, writeMask uint32)

	// SetShaders binds a vertex and pixel shader pair.
	SetShaders(vs, ps *ShaderVariation)

	// SetShaderParameter sets a shader constant by symbolic key.
	//
	// Parameters:
	//   - param: the parameter key
	//   - values: packed float data (scalars, vectors, 3x4 or 4x4 column-major matrices)
	SetShaderParameter(param ShaderParam, values []float32)

	// SetTexture binds a texture to a unit. Nil unbinds.
	SetTexture(unit TextureUnit, tex Texture)

	// SetInstanceData uploads per-instance 3x4 transforms (12 floats each) for instanced draws.
	SetInstanceData(data []float32)

	// Draw issues an indexed draw of the geometry's index range.
	Draw(geometry *Geometry)

	// DrawInstanced issues an instanced indexed draw using instance data uploaded with
	// SetInstanceData starting at instance start.
	DrawInstanced(geometry *Geometry, start, count int)
}

// ScissorPixels converts a normalized scissor rectangle into pixels within a viewport.
func ScissorPixels(rect common.Rect, viewport common.IntRect, borderInclusive bool) common.IntRect {
	w := float32(viewport.Width())
	h := float32(viewport.Height())
	expand := 0
	if borderInclusive {
		expand = 1
	}
	r := common.IntRect{
		Left:   viewport.Left + int((rect.Min[0]*0.5+0.5)*w) - expand,
		Top:    viewport.Top + int((-rect.Max[1]*0.5+0.5)*h) - expand,
		Right:  viewport.Left + int((rect.Max[0]*0.5+0.5)*w) + expand,
		Bottom: viewport.Top + int((-rect.Min[1]*0.5+0.5)*h) + expand,
	}
	r.Left = common.Clamp(r.Left, viewport.Left, viewport.Right)
	r.Right = common.Clamp(r.Right, viewport.Left, viewport.Right)
	r.Top = common.Clamp(r.Top, viewport.Top, viewport.Bottom)
	r.Bottom = common.Clamp(r.Bottom, viewport.Top, viewport.Bottom)
	if r.Right <= r.Left {
		r.Right = r.Left + 1
	}
	if r.Bottom <= r.Top {
		r.Bottom = r.Top + 1
	}
	return r
}
