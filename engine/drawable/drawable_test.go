package drawable

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(name string) *graphics.Geometry {
	return graphics.NewGeometry(name, []float32{
		-1, -1, -1, 1, -1, -1, 1, 1, -1, -1, 1, -1,
		-1, -1, 1, 1, -1, 1, 1, 1, 1, -1, 1, 1,
	}, 3, []uint32{
		0, 2, 1, 0, 3, 2, 4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4, 3, 6, 2, 3, 7, 6,
		0, 4, 7, 0, 7, 3, 1, 2, 6, 1, 6, 5,
	})
}

type recordingTarget struct {
	budget    int
	drawn     int
	cullModes []graphics.CullMode
}

func (r *recordingTarget) SetCullMode(mode graphics.CullMode) {
	r.cullModes = append(r.cullModes, mode)
}

func (r *recordingTarget) Draw(_ [16]float32, g *graphics.Geometry) bool {
	if r.drawn+g.TriangleCount() > r.budget {
		return false
	}
	r.drawn += g.TriangleCount()
	return true
}

func TestStaticModelWorldBoundingBox(t *testing.T) {
	m := model.NewModel(model.WithGeometry(cube("c")))
	s := NewStaticModel(m, WithPosition(10, 0, 0))

	box := s.WorldBoundingBox()
	require.True(t, box.Defined)
	assert.InDeltaSlice(t, []float32{9, -1, -1}, box.Min[:], 1e-5)
	assert.InDeltaSlice(t, []float32{11, 1, 1}, box.Max[:], 1e-5)
	assert.Equal(t, FlagGeometry, s.Flags())
}

func TestStaticModelLodSelection(t *testing.T) {
	near, mid, far := cube("near"), cube("mid"), cube("far")
	mid.LodDistance = 20
	far.LodDistance = 60
	s := NewStaticModel(model.NewModel(model.WithGeometry(near, mid, far)))

	tests := []struct {
		lod  float32
		want *graphics.Geometry
	}{
		{0, near},
		{20, near},
		{21, mid},
		{60, mid},
		{100, far},
	}
	for _, tt := range tests {
		assert.Same(t, tt.want, s.LodGeometry(0, tt.lod), "lod distance %v", tt.lod)
	}
}

func TestStaticModelBatchUsesViewState(t *testing.T) {
	mat := material.NewMaterial(material.WithName("m"))
	s := NewStaticModel(model.NewModel(model.WithGeometry(cube("c"))), WithPosition(0, 0, 30))
	s.SetMaterial(mat)

	cam := camera.NewCamera()
	frame := FrameInfo{Camera: cam}
	state := s.UpdateDistance(frame)
	assert.InDelta(t, 30, state.Distance, 1e-4)

	b := s.Batch(frame, state, 0)
	assert.NotNil(t, b.Geometry)
	assert.Equal(t, mat, b.Material)
	assert.InDelta(t, 30, b.Distance, 1e-4)
	assert.Equal(t, GeometryStatic, b.GeometryType)

	assert.Nil(t, s.Batch(frame, state, 1).Geometry)
}

func TestStaticModelMultiBatchDistance(t *testing.T) {
	left := graphics.NewGeometry("l", []float32{-10, 0, 0, -9, 0, 0, -9, 1, 0}, 3, []uint32{0, 1, 2})
	right := graphics.NewGeometry("r", []float32{9, 0, 0, 10, 0, 0, 10, 1, 0}, 3, []uint32{0, 1, 2})
	s := NewStaticModel(model.NewModel(model.WithGeometry(left), model.WithGeometry(right)))

	frame := FrameInfo{Camera: camera.NewCamera(camera.WithPosition(20, 0, 0))}
	state := s.UpdateDistance(frame)
	assert.Greater(t, s.Batch(frame, state, 0).Distance, s.Batch(frame, state, 1).Distance)
}

func TestStaticModelOcclusion(t *testing.T) {
	noOcclusion := material.NewMaterial(material.WithOcclusion(false))
	s := NewStaticModel(model.NewModel(model.WithGeometry(cube("a")), model.WithGeometry(cube("b"))), WithOccluder(true))
	s.SetBatchMaterial(1, noOcclusion)

	assert.Equal(t, 12, s.NumOccluderTriangles())

	target := &recordingTarget{budget: 100}
	assert.True(t, s.DrawOcclusion(target))
	assert.Equal(t, 12, target.drawn)
	assert.Equal(t, []graphics.CullMode{graphics.CullCCW}, target.cullModes)

	exhausted := &recordingTarget{budget: 5}
	assert.False(t, s.DrawOcclusion(exhausted))
}

func TestDrawDistanceCheck(t *testing.T) {
	s := NewStaticModel(nil, WithDrawDistance(50), WithShadowDistance(20))

	assert.True(t, s.IsBeyondDrawDistance(60))
	assert.False(t, s.IsBeyondDrawDistance(50))
	assert.True(t, s.IsBeyondShadowDistance(30))

	unlimited := NewStaticModel(nil)
	assert.False(t, unlimited.IsBeyondDrawDistance(1e9))
}

func TestZoneIsInside(t *testing.T) {
	z := NewZone(common.NewBoundingBox([3]float32{-5, -5, -5}, [3]float32{5, 5, 5}), WithPosition(100, 0, 0))
	z.SetPriority(3)

	assert.True(t, z.IsInside([3]float32{102, 0, 0}))
	assert.False(t, z.IsInside([3]float32{0, 0, 0}))
	assert.Equal(t, 3, z.Priority())
	assert.Equal(t, FlagZone, z.Flags())
}

func TestAnimatedModelFollowsBones(t *testing.T) {
	skeleton := &model.Skeleton{Bones: []model.Bone{{
		Name:              "root",
		ParentIndex:       -1,
		InverseBindMatrix: common.IdentityMatrix(),
		BoundingBox:       common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}),
	}}}
	a := NewAnimatedModel(model.NewModel(model.WithGeometry(cube("c")), model.WithSkeleton(skeleton)))

	pose := common.ComposeMatrix([3]float32{0, 5, 0}, common.IdentityQuat, [3]float32{1, 1, 1})
	a.SetBonePoses([][16]float32{pose})

	box := a.WorldBoundingBox()
	assert.InDelta(t, 4, box.Min[1], 1e-5)
	assert.InDelta(t, 6, box.Max[1], 1e-5)

	frame := FrameInfo{Camera: camera.NewCamera()}
	b := a.Batch(frame, a.UpdateDistance(frame), 0)
	assert.Equal(t, GeometrySkinned, b.GeometryType)
	assert.Len(t, b.SkinMatrices, 12)
	assert.Equal(t, 0, a.NumOccluderTriangles())
}

func TestLimitLights(t *testing.T) {
	lights := []string{"far", "near", "mid", "near2"}
	keys := map[string]float32{"far": 10, "near": 1, "mid": 5, "near2": 1}

	kept := LimitLights(lights, 2, func(s string) float32 { return keys[s] })
	assert.Equal(t, []string{"near", "near2"}, kept)

	all := LimitLights([]string{"a", "b"}, 0, func(string) float32 { return 0 })
	assert.Len(t, all, 2)
}
