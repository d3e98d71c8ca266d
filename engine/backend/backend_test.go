package backend

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

func TestUniformLayoutSlotsAreContiguous(t *testing.T) {
	l := DefaultUniformLayout()

	next := 0
	for _, s := range l.Slots() {
		assert.Equal(t, next, s.Offset, "slot %s", s.Param)
		next += s.Slots
	}
	assert.Equal(t, uint64(next*16), l.Size())
	assert.Zero(t, l.AlignedSize()%uniformAlignment)
	assert.GreaterOrEqual(t, l.AlignedSize(), l.Size())

	model, ok := l.Slot(graphics.VSPModel)
	require.True(t, ok)
	assert.Equal(t, 0, model.Offset)
	assert.Equal(t, 3, model.Slots)

	_, ok = l.Slot(graphics.ShaderParam("cUnknown"))
	assert.False(t, ok)
}

func TestUniformLayoutPack(t *testing.T) {
	l := DefaultUniformLayout()
	dst := make([]float32, l.Size()/4)
	for i := range dst {
		dst[i] = -1
	}

	viewProj, _ := l.Slot(graphics.VSPViewProj)
	cameraPos, _ := l.Slot(graphics.VSPCameraPos)

	used := l.Pack(dst, map[graphics.ShaderParam][]float32{
		graphics.VSPCameraPos:           {1, 2, 3},
		graphics.VSPViewProj:            make([]float32, 20),
		graphics.ShaderParam("cMissing"): {9},
	})

	assert.Equal(t, (cameraPos.Offset+1)*4, used)
	assert.Equal(t, []float32{1, 2, 3, 0}, dst[cameraPos.Offset*4:cameraPos.Offset*4+4])
	for _, f := range dst[viewProj.Offset*4 : (viewProj.Offset+4)*4] {
		assert.Zero(t, f)
	}
	assert.Equal(t, float32(-1), dst[0], "untouched slots keep their contents")
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, 256))
	assert.Equal(t, uint64(256), alignUp(1, 256))
	assert.Equal(t, uint64(256), alignUp(256, 256))
	assert.Equal(t, uint64(512), alignUp(257, 256))
}

func TestBlendState(t *testing.T) {
	assert.Nil(t, blendState(graphics.BlendReplace))

	alpha := blendState(graphics.BlendAlpha)
	require.NotNil(t, alpha)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, alpha.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, alpha.Color.DstFactor)

	add := blendState(graphics.BlendAdd)
	require.NotNil(t, add)
	assert.Equal(t, wgpu.BlendFactorOne, add.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, add.Color.DstFactor)
	assert.Equal(t, add.Color, add.Alpha)
}

func TestConversionTablesCoverEveryMode(t *testing.T) {
	for m := graphics.CompareAlways; m <= graphics.CompareGreaterEqual; m++ {
		assert.Contains(t, compareFunctions, m)
	}
	for op := graphics.StencilKeep; op <= graphics.StencilDecr; op++ {
		assert.Contains(t, stencilOperations, op)
	}
	for c := graphics.CullNone; c <= graphics.CullCW; c++ {
		assert.Contains(t, cullModes, c)
	}
	for f := graphics.FormatRGBA8; f <= graphics.FormatDepth32F; f++ {
		assert.Contains(t, textureFormats, f)
	}
	assert.Contains(t, presentModes, PresentModeVSync)
	assert.Contains(t, presentModes, PresentModeUncapped)
}

func TestDepthBiasUnits(t *testing.T) {
	assert.Equal(t, int32(0), depthBiasUnits(0))
	assert.Equal(t, int32(1<<24), depthBiasUnits(1))
	assert.Equal(t, int32(16), depthBiasUnits(1.0/(1<<20)))
}

func TestTextureKinds(t *testing.T) {
	assert.Equal(t, textureFilterable, kindOf(graphics.FormatRGBA8))
	assert.Equal(t, textureFilterable, kindOf(graphics.FormatRGBA16F))
	assert.Equal(t, textureUnfilterable, kindOf(graphics.FormatR32F))
	assert.Equal(t, textureDepth, kindOf(graphics.FormatDepth32F))
	assert.Equal(t, textureDepth, kindOf(graphics.FormatDepth24Stencil8))

	entries := textureLayoutEntries(int(graphics.TUShadowMap), textureDepth)
	assert.Equal(t, uint32(14), entries[0].Binding)
	assert.Equal(t, uint32(15), entries[1].Binding)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, entries[1].Sampler.Type)

	entries = textureLayoutEntries(int(graphics.TUDepthBuffer), textureUnfilterable)
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, entries[1].Sampler.Type)
}

func TestVertexLayouts(t *testing.T) {
	positions := vertexLayouts(3, false)
	require.Len(t, positions, 1)
	assert.Equal(t, uint64(12), positions[0].ArrayStride)
	assert.Len(t, positions[0].Attributes, 1)

	full := vertexLayouts(8, true)
	require.Len(t, full, 2)
	assert.Equal(t, uint64(32), full[0].ArrayStride)
	assert.Len(t, full[0].Attributes, 3)
	assert.Equal(t, wgpu.VertexStepModeInstance, full[1].StepMode)
	assert.Equal(t, uint64(instanceStride), full[1].ArrayStride)
	assert.Equal(t, uint32(6), full[1].Attributes[2].ShaderLocation)
}

func TestClampViewport(t *testing.T) {
	tests := []struct {
		name string
		in   common.IntRect
		want common.IntRect
	}{
		{"inside", common.IntRect{Left: 10, Top: 10, Right: 50, Bottom: 40}, common.IntRect{Left: 10, Top: 10, Right: 50, Bottom: 40}},
		{"overhang", common.IntRect{Left: -5, Top: -5, Right: 200, Bottom: 200}, common.IntRect{Right: 100, Bottom: 80}},
		{"empty", common.IntRect{Left: 30, Top: 30, Right: 30, Bottom: 30}, common.IntRect{Left: 30, Top: 30, Right: 31, Bottom: 31}},
		{"outside", common.IntRect{Left: 500, Top: 500, Right: 600, Bottom: 600}, common.IntRect{Left: 99, Top: 79, Right: 100, Bottom: 80}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampViewport(tt.in, 100, 80))
		})
	}
}

func TestClearShaderWritesEveryTarget(t *testing.T) {
	src := clearShader(3)
	for i := 0; i < 3; i++ {
		assert.Contains(t, src, "@location("+string(rune('0'+i))+")")
	}
	assert.NotContains(t, src, "@location(3)")
	assert.Equal(t, 3, strings.Count(src, "= params.color;"))
}

func TestAppendFloat32s(t *testing.T) {
	b := appendFloat32s(nil, []float32{1, -2.5})
	require.Len(t, b, 8)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])))
	assert.Equal(t, float32(-2.5), math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])))

	idx := appendUint32s(nil, []uint32{7, 1 << 20})
	assert.Equal(t, uint32(1<<20), binary.LittleEndian.Uint32(idx[4:8]))
}

func TestInstanceStreamSlice(t *testing.T) {
	s := instanceStream{}
	_, _, _, ok := s.slice(0, 1)
	assert.False(t, ok, "no upload yet")

	s.buffer = &wgpu.Buffer{}
	s.base = 960
	s.count = 10

	buf, off, size, ok := s.slice(2, 3)
	require.True(t, ok)
	assert.Same(t, s.buffer, buf)
	assert.Equal(t, uint64(960+2*instanceStride), off)
	assert.Equal(t, uint64(3*instanceStride), size)

	_, _, _, ok = s.slice(8, 3)
	assert.False(t, ok)
}

func TestGPUTextureOf(t *testing.T) {
	tex := graphics.NewBaseTexture(graphics.TextureDescriptor{Name: "t", Width: 1, Height: 1})
	assert.Nil(t, gpuTextureOf(tex))

	g := &gpuTexture{format: wgpu.TextureFormatRGBA8Unorm}
	tex.SetHandle(g)
	assert.Same(t, g, gpuTextureOf(tex))
	assert.Nil(t, gpuSurfaceOf(nil))
}

func TestWGSLStructDeclaresEveryParameter(t *testing.T) {
	l := DefaultUniformLayout()
	src := l.WGSLStruct("Params")

	assert.True(t, strings.HasPrefix(src, "struct Params {\n"))
	assert.Contains(t, src, "    cModel: array<vec4<f32>, 3>,\n")
	assert.Contains(t, src, "    cViewProj: mat4x4<f32>,\n")
	assert.Contains(t, src, "    cCameraPos: vec4<f32>,\n")
	assert.Contains(t, src, "    cSkinMatrices: array<vec4<f32>, 192>,\n")
	assert.Equal(t, len(l.Slots()), strings.Count(src, ",\n"))
}
