package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

var (
	quad = graphics.NewGeometry("quad", []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
	}, 3, []uint32{0, 1, 2})
	vs     = &graphics.ShaderVariation{Name: "Solid", Type: graphics.ShaderTypeVertex}
	vsInst = &graphics.ShaderVariation{Name: "Solid_Instanced", Type: graphics.ShaderTypeVertex}
	ps     = &graphics.ShaderVariation{Name: "Solid", Type: graphics.ShaderTypePixel}

	basePass = material.NewPass(material.PassBase, "Solid", "Solid")
	solid    = material.NewTechnique("Solid", basePass)
)

func newBatch(mat material.Material, distance float32, priority bool) Batch {
	return Batch{
		Geometry:         quad,
		Material:         mat,
		Technique:        solid,
		Pass:             basePass,
		VertexShader:     vs,
		PixelShader:      ps,
		InstancingShader: vsInst,
		WorldTransform:   common.ComposeMatrix([3]float32{0, 0, distance}, common.IdentityQuat, [3]float32{1, 1, 1}),
		Camera:           camera.NewCamera(),
		Distance:         distance,
		HasPriority:      priority,
	}
}

func distances(batches []*Batch) []float32 {
	out := make([]float32, len(batches))
	for i, b := range batches {
		out[i] = b.Distance
	}
	return out
}

func TestAddDropsIncompleteBatches(t *testing.T) {
	q := NewQueue(false)
	mat := material.NewMaterial()

	noGeometry := newBatch(mat, 1, true)
	noGeometry.Geometry = nil
	noPass := newBatch(mat, 1, true)
	noPass.Pass = nil
	noTechnique := newBatch(mat, 1, true)
	noTechnique.Technique = nil

	assert.False(t, q.Add(noGeometry, false))
	assert.False(t, q.Add(noPass, false))
	assert.False(t, q.Add(noTechnique, false))
	assert.True(t, q.IsEmpty())
}

func TestSortFrontToBack(t *testing.T) {
	q := NewQueue(false)
	mat := material.NewMaterial()
	for _, d := range []float32{5, 1, 9, 3} {
		q.Add(newBatch(mat, d, true), false)
	}
	for _, d := range []float32{7, 2} {
		q.Add(newBatch(mat, d, false), false)
	}

	q.SortFrontToBack()
	assert.Equal(t, []float32{1, 3, 5, 9}, distances(q.PriorityBatches()))
	assert.Equal(t, []float32{2, 7}, distances(q.Batches()))
	assert.Equal(t, 6, q.Len())
}

func TestSortBackToFrontMergesPriority(t *testing.T) {
	q := NewQueue(false)
	mat := material.NewMaterial()
	q.Add(newBatch(mat, 2, true), true)
	q.Add(newBatch(mat, 8, false), true)
	q.Add(newBatch(mat, 5, true), true)

	q.SortBackToFront()
	assert.Empty(t, q.PriorityBatches())
	assert.Equal(t, []float32{8, 5, 2}, distances(q.Batches()))
}

func TestInstancingGroups(t *testing.T) {
	q := NewQueue(true)
	shared := material.NewMaterial(material.WithName("shared"))
	other := material.NewMaterial(material.WithName("other"))

	q.Add(newBatch(shared, 6, true), false)
	q.Add(newBatch(shared, 2, true), false)
	q.Add(newBatch(shared, 4, true), false)
	q.Add(newBatch(other, 1, true), false)

	require.Len(t, q.PriorityGroups(), 2)
	q.SortFrontToBack()

	require.Len(t, q.PriorityGroups(), 1)
	gr := q.PriorityGroups()[0]
	assert.Len(t, gr.Instances, 3)
	assert.Equal(t, float32(2), gr.Distance)
	assert.Equal(t, float32(2), gr.Instances[0].Distance)
	assert.Equal(t, []float32{1}, distances(q.PriorityBatches()))
	assert.Equal(t, 3, q.NumInstances())
}

func TestNoInstancingKeepsBatchesSeparate(t *testing.T) {
	q := NewQueue(true)
	mat := material.NewMaterial()
	q.Add(newBatch(mat, 1, true), true)

	skinned := newBatch(mat, 2, true)
	skinned.GeometryType = drawable.GeometrySkinned
	q.Add(skinned, false)

	assert.Empty(t, q.PriorityGroups())
	assert.Len(t, q.PriorityBatches(), 2)
}

func TestGroupDrawInstanced(t *testing.T) {
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{Instancing: true})
	q := NewQueue(true)
	mat := material.NewMaterial()
	for _, d := range []float32{3, 1, 2} {
		q.Add(newBatch(mat, d, false), false)
	}
	q.SortFrontToBack()

	buf := q.AppendTransforms(nil)
	assert.Len(t, buf, 3*12)
	gr := q.Groups()[0]
	assert.Equal(t, 0, gr.StartIndex)

	gr.Draw(g, true, nil)
	draws := g.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, graphics.CommandDrawInstanced, draws[0].Kind)
	assert.Equal(t, 3, draws[0].InstanceCount)
	assert.Same(t, vsInst, draws[0].State.VertexShader)
}

func TestGroupDrawWithoutInstancingDrawsEachInstance(t *testing.T) {
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{})
	q := NewQueue(true)
	mat := material.NewMaterial()
	q.Add(newBatch(mat, 1, false), false)
	q.Add(newBatch(mat, 2, false), false)
	q.SortFrontToBack()

	q.Groups()[0].Draw(g, false, nil)
	draws := g.Draws()
	require.Len(t, draws, 2)
	for _, d := range draws {
		assert.Equal(t, graphics.CommandDraw, d.Kind)
		assert.Same(t, vs, d.State.VertexShader)
	}
}

func TestGroupUploadsOwnInstancesWithoutBuffer(t *testing.T) {
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{Instancing: true})
	q := NewQueue(true)
	mat := material.NewMaterial()
	q.Add(newBatch(mat, 1, false), false)
	q.Add(newBatch(mat, 2, false), false)
	q.SortFrontToBack()

	q.Groups()[0].Draw(g, true, nil)
	assert.Len(t, g.InstanceData(), 24)
	draws := g.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, 0, draws[0].InstanceStart)
}

func TestBatchDrawSetsStateAndParameters(t *testing.T) {
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{})
	mat := material.NewMaterial(material.WithCullMode(graphics.CullCW, graphics.CullCCW))
	b := newBatch(mat, 4, true)
	pass := *b.Pass
	pass.BlendMode = graphics.BlendAlpha
	pass.DepthWrite = false
	b.Pass = &pass

	b.Draw(g, map[graphics.ShaderParam][]float32{graphics.PSPFogColor: {1, 0, 0, 1}})
	draws := g.Draws()
	require.Len(t, draws, 1)
	st := draws[0].State
	assert.Equal(t, graphics.BlendAlpha, st.BlendMode)
	assert.False(t, st.DepthWrite)
	assert.Equal(t, graphics.CullCW, st.CullMode)
	assert.Equal(t, []float32{1, 0, 0, 1}, draws[0].Params[graphics.PSPFogColor])
	model := draws[0].Params[graphics.VSPModel]
	require.Len(t, model, 12)
	assert.Equal(t, float32(4), model[11])
	assert.Contains(t, draws[0].Params, graphics.VSPViewProj)
}

func TestShadowPassUsesShadowCullMode(t *testing.T) {
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{})
	mat := material.NewMaterial(material.WithCullMode(graphics.CullCCW, graphics.CullNone))
	b := newBatch(mat, 1, true)
	b.Pass = material.NewPass(material.PassShadow, "Shadow", "Shadow")

	b.Draw(g, nil)
	assert.Equal(t, graphics.CullNone, g.Draws()[0].State.CullMode)
}

func TestLitBatchSetsLightParameters(t *testing.T) {
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{})
	l := light.NewLight(light.LightTypePoint, light.WithPosition(1, 2, 3), light.WithRange(4))
	split := l.NewSplit()
	split.ShadowMap = graphics.NewBaseTexture(graphics.TextureDescriptor{Name: "shadow", Width: 512, Height: 512, Format: graphics.FormatDepth32F, RenderTarget: true})

	b := newBatch(material.NewMaterial(), 1, false)
	b.Light = &split
	b.ShadowCamera = camera.NewCamera()
	b.Draw(g, nil)

	params := g.Draws()[0].Params
	assert.Equal(t, []float32{1, 2, 3, 0.25}, params[graphics.PSPLightPos])
	assert.Len(t, params[graphics.PSPShadowProjection], 16)
	assert.Same(t, split.ShadowMap, g.Draws()[0].State.Textures[graphics.TUShadowMap])
}

func TestLightQueueStartsEmpty(t *testing.T) {
	s := light.NewLight(light.LightTypeSpot).NewSplit()
	lq := NewLightQueue(3, &s, true)
	assert.Equal(t, 3, lq.SplitIndex)
	assert.True(t, lq.ShadowBatches.IsEmpty())
	assert.True(t, lq.LitBatches.IsEmpty())
	assert.Empty(t, lq.VolumeBatches)
}
