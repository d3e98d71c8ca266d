package backend

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

var presentModes = map[PresentMode]wgpu.PresentMode{
	PresentModeVSync:    wgpu.PresentModeFifo,
	PresentModeUncapped: wgpu.PresentModeImmediate,
}

var compareFunctions = map[graphics.CompareMode]wgpu.CompareFunction{
	graphics.CompareAlways:       wgpu.CompareFunctionAlways,
	graphics.CompareEqual:        wgpu.CompareFunctionEqual,
	graphics.CompareNotEqual:     wgpu.CompareFunctionNotEqual,
	graphics.CompareLess:         wgpu.CompareFunctionLess,
	graphics.CompareLessEqual:    wgpu.CompareFunctionLessEqual,
	graphics.CompareGreater:      wgpu.CompareFunctionGreater,
	graphics.CompareGreaterEqual: wgpu.CompareFunctionGreaterEqual,
}

var stencilOperations = map[graphics.StencilOp]wgpu.StencilOperation{
	graphics.StencilKeep: wgpu.StencilOperationKeep,
	graphics.StencilZero: wgpu.StencilOperationZero,
	graphics.StencilRef:  wgpu.StencilOperationReplace,
	graphics.StencilIncr: wgpu.StencilOperationIncrementClamp,
	graphics.StencilDecr: wgpu.StencilOperationDecrementClamp,
}

// cullModes maps the engine's cull modes under a clockwise front face: CullCCW culls the
// back faces.
var cullModes = map[graphics.CullMode]wgpu.CullMode{
	graphics.CullNone: wgpu.CullModeNone,
	graphics.CullCCW:  wgpu.CullModeBack,
	graphics.CullCW:   wgpu.CullModeFront,
}

var topologies = map[graphics.PrimitiveType]wgpu.PrimitiveTopology{
	graphics.TriangleList: wgpu.PrimitiveTopologyTriangleList,
	graphics.LineList:     wgpu.PrimitiveTopologyLineList,
}

var textureFormats = map[graphics.TextureFormat]wgpu.TextureFormat{
	graphics.FormatRGBA8:           wgpu.TextureFormatRGBA8Unorm,
	graphics.FormatRGBA16F:         wgpu.TextureFormatRGBA16Float,
	graphics.FormatR32F:            wgpu.TextureFormatR32Float,
	graphics.FormatDepth24Stencil8: wgpu.TextureFormatDepth24PlusStencil8,
	graphics.FormatDepth32F:        wgpu.TextureFormatDepth32Float,
}

func blendComponent(src, dst wgpu.BlendFactor, op wgpu.BlendOperation) wgpu.BlendComponent {
	return wgpu.BlendComponent{SrcFactor: src, DstFactor: dst, Operation: op}
}

// blendState returns the blend equation of a mode, nil for BlendReplace.
func blendState(mode graphics.BlendMode) *wgpu.BlendState {
	var c wgpu.BlendComponent
	switch mode {
	case graphics.BlendAdd:
		c = blendComponent(wgpu.BlendFactorOne, wgpu.BlendFactorOne, wgpu.BlendOperationAdd)
	case graphics.BlendMultiply:
		c = blendComponent(wgpu.BlendFactorDst, wgpu.BlendFactorZero, wgpu.BlendOperationAdd)
	case graphics.BlendAlpha:
		c = blendComponent(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOneMinusSrcAlpha, wgpu.BlendOperationAdd)
	case graphics.BlendAddAlpha:
		c = blendComponent(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOne, wgpu.BlendOperationAdd)
	case graphics.BlendPremulAlpha:
		c = blendComponent(wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha, wgpu.BlendOperationAdd)
	case graphics.BlendInvDestAlpha:
		c = blendComponent(wgpu.BlendFactorOneMinusDstAlpha, wgpu.BlendFactorDstAlpha, wgpu.BlendOperationAdd)
	default:
		return nil
	}
	return &wgpu.BlendState{Color: c, Alpha: c}
}

// depthBiasUnits converts a constant bias in normalized depth to the integer units of a
// 24-bit depth buffer.
func depthBiasUnits(constantBias float32) int32 {
	return int32(constantBias * (1 << 24))
}

// textureKind selects the bind group layout entry of a texture unit.
type textureKind uint8

const (
	textureFilterable textureKind = iota
	textureUnfilterable
	textureDepth
)

func kindOf(format graphics.TextureFormat) textureKind {
	switch {
	case format.IsDepth():
		return textureDepth
	case format == graphics.FormatR32F:
		return textureUnfilterable
	}
	return textureFilterable
}

// textureLayoutEntries returns the texture and sampler bindings of one unit.
func textureLayoutEntries(unit int, kind textureKind) [2]wgpu.BindGroupLayoutEntry {
	tex := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(2 * unit),
		Visibility: wgpu.ShaderStageFragment,
		Texture: wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		},
	}
	samp := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(2*unit + 1),
		Visibility: wgpu.ShaderStageFragment,
		Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
	}
	switch kind {
	case textureDepth:
		tex.Texture.SampleType = wgpu.TextureSampleTypeDepth
		samp.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case textureUnfilterable:
		tex.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
		samp.Sampler.Type = wgpu.SamplerBindingTypeNonFiltering
	}
	return [2]wgpu.BindGroupLayoutEntry{tex, samp}
}

// vertexLayouts returns the vertex buffer layouts for a vertex stride in floats, plus the
// instance stream when instanced.
func vertexLayouts(stride int, instanced bool) []wgpu.VertexBufferLayout {
	attrs := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
	}
	if stride >= 6 {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1})
	}
	if stride >= 8 {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2})
	}
	layouts := []wgpu.VertexBufferLayout{{
		ArrayStride: uint64(stride * 4),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}}
	if instanced {
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: instanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 4},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 5},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 6},
			},
		})
	}
	return layouts
}

// instanceStride is the byte size of one 3x4 instance transform.
const instanceStride = 12 * 4
