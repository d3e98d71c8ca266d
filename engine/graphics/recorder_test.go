package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
)

var tri = NewGeometry("tri", []float32{
	0, 0, 0,
	2, 0, 0,
	0, 3, -1,
}, 3, []uint32{0, 1, 2})

func TestNewRecorder(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{})

	st := r.State()
	assert.Equal(t, common.IntRect{Right: 640, Bottom: 480}, st.Viewport)
	assert.Equal(t, CompareLessEqual, st.DepthTest)
	assert.True(t, st.ColorWrite)
	assert.True(t, st.DepthWrite)
	assert.Empty(t, r.Commands())
}

func TestRecorder_RenderTargetViewport(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{})
	tex, err := r.CreateTexture(TextureDescriptor{Name: "rt", Width: 256, Height: 128, RenderTarget: true})
	require.NoError(t, err)
	require.NotNil(t, tex.RenderSurface())

	r.SetRenderTarget(0, tex.RenderSurface())
	assert.Equal(t, common.IntRect{Right: 256, Bottom: 128}, r.Viewport())
	assert.Equal(t, tex.RenderSurface(), r.RenderTarget(0))

	r.ResetRenderTargets()
	assert.Nil(t, r.RenderTarget(0))
	assert.Equal(t, common.IntRect{Right: 640, Bottom: 480}, r.Viewport())

	r.SetRenderTarget(MaxRenderTargets, tex.RenderSurface())
	assert.Nil(t, r.RenderTarget(MaxRenderTargets))
}

func TestRecorder_CreateTexture(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{MaxTextureSize: 1024})

	_, err := r.CreateTexture(TextureDescriptor{Width: 0, Height: 16})
	assert.Error(t, err)

	_, err = r.CreateTexture(TextureDescriptor{Name: "huge", Width: 2048, Height: 16})
	assert.Error(t, err)

	tex, err := r.CreateTexture(TextureDescriptor{Name: "ok", Width: 1024, Height: 1024, Format: FormatDepth32F})
	require.NoError(t, err)
	assert.Equal(t, "ok", tex.Name())
	assert.Equal(t, FormatDepth32F, tex.Format())
}

func TestRecorder_Draw(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{})

	r.Draw(nil)
	r.Draw(&Geometry{})
	assert.Empty(t, r.Commands())

	r.SetShaderParameter(VSPModel, []float32{1, 2, 3})
	r.Draw(tri)
	r.SetShaderParameter(VSPModel, []float32{4, 5, 6})
	r.Draw(tri)

	draws := r.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, []float32{1, 2, 3}, draws[0].Params[VSPModel])
	assert.Equal(t, []float32{4, 5, 6}, draws[1].Params[VSPModel])
	assert.Same(t, tri, draws[0].Geometry)
}

func TestRecorder_ParameterCopied(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{})
	values := []float32{1, 1, 1, 1}

	r.SetShaderParameter(PSPMatDiffColor, values)
	values[0] = 9

	got, ok := r.Parameter(PSPMatDiffColor)
	require.True(t, ok)
	assert.Equal(t, float32(1), got[0])
}

func TestRecorder_DrawInstanced(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{Instancing: true})

	r.SetInstanceData(make([]float32, 36))
	r.DrawInstanced(tri, 0, 0)
	r.DrawInstanced(tri, 1, 2)

	cmds := r.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, CommandInstanceData, cmds[0].Kind)
	assert.Equal(t, 3, cmds[0].InstanceCount)
	assert.Equal(t, CommandDrawInstanced, cmds[1].Kind)
	assert.Equal(t, 1, cmds[1].InstanceStart)
	assert.Equal(t, 2, cmds[1].InstanceCount)
	assert.Len(t, r.InstanceData(), 36)
}

func TestRecorder_StateSnapshot(t *testing.T) {
	r := NewRecorder(640, 480, Capabilities{})

	r.SetBlendMode(BlendAdd)
	r.SetDepthWrite(false)
	r.Draw(tri)
	r.SetBlendMode(BlendReplace)
	r.SetDepthWrite(true)
	r.Draw(tri)

	draws := r.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, BlendAdd, draws[0].State.BlendMode)
	assert.False(t, draws[0].State.DepthWrite)
	assert.Equal(t, BlendReplace, draws[1].State.BlendMode)
	assert.True(t, draws[1].State.DepthWrite)

	r.Reset()
	assert.Empty(t, r.Commands())
	assert.Equal(t, BlendReplace, r.State().BlendMode)
}

func TestScissorPixels(t *testing.T) {
	vp := common.IntRect{Right: 100, Bottom: 100}

	full := ScissorPixels(common.Rect{Min: [2]float32{-1, -1}, Max: [2]float32{1, 1}, Defined: true}, vp, false)
	assert.Equal(t, vp, full)

	quadrant := ScissorPixels(common.Rect{Min: [2]float32{0, 0}, Max: [2]float32{1, 1}, Defined: true}, vp, false)
	assert.Equal(t, common.IntRect{Left: 50, Top: 0, Right: 100, Bottom: 50}, quadrant)

	inclusive := ScissorPixels(common.Rect{Min: [2]float32{0, 0}, Max: [2]float32{1, 1}, Defined: true}, vp, true)
	assert.Equal(t, common.IntRect{Left: 49, Top: 0, Right: 100, Bottom: 51}, inclusive)

	degenerate := ScissorPixels(common.Rect{Min: [2]float32{0.5, 0.5}, Max: [2]float32{0.5, 0.5}, Defined: true}, vp, false)
	assert.Equal(t, 1, degenerate.Width())
	assert.Equal(t, 1, degenerate.Height())
}

func TestMatrix3x4(t *testing.T) {
	m := [16]float32{
		1, 2, 3, 0,
		4, 5, 6, 0,
		7, 8, 9, 0,
		10, 11, 12, 1,
	}
	assert.Equal(t, [12]float32{
		1, 4, 7, 10,
		2, 5, 8, 11,
		3, 6, 9, 12,
	}, Matrix3x4(m))
}

func TestGeometry(t *testing.T) {
	assert.Equal(t, 3, tri.VertexCount())
	assert.Equal(t, 1, tri.TriangleCount())
	assert.False(t, tri.IsEmpty())

	box := tri.BoundingBox()
	assert.True(t, box.Defined)
	assert.Equal(t, [3]float32{0, 0, -1}, box.Min)
	assert.Equal(t, [3]float32{2, 3, 0}, box.Max)

	var nilGeom *Geometry
	assert.True(t, nilGeom.IsEmpty())

	lines := NewGeometry("lines", []float32{0, 0}, 1, []uint32{0, 1})
	assert.Equal(t, 3, lines.VertexStride)
	lines.Primitive = LineList
	assert.Equal(t, 0, lines.TriangleCount())
}

func TestTextureFormat_IsDepth(t *testing.T) {
	assert.True(t, FormatDepth32F.IsDepth())
	assert.True(t, FormatDepth24Stencil8.IsDepth())
	assert.False(t, FormatRGBA8.IsDepth())
	assert.False(t, FormatR32F.IsDepth())
}
