package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/stretchr/testify/assert"
)

func quad(name string, offset float32) *graphics.Geometry {
	return graphics.NewGeometry(name, []float32{
		offset, 0, 0,
		offset + 1, 0, 0,
		offset + 1, 1, 0,
		offset, 1, 0,
	}, 3, []uint32{0, 1, 2, 0, 2, 3})
}

func TestNewModelComputesBounds(t *testing.T) {
	m := NewModel(WithName("pair"), WithGeometry(quad("a", 0)), WithGeometry(quad("b", 4)))

	assert.Equal(t, 2, m.NumGeometries())
	box := m.BoundingBox()
	assert.True(t, box.Defined)
	assert.Equal(t, [3]float32{0, 0, 0}, box.Min)
	assert.Equal(t, [3]float32{5, 1, 0}, box.Max)
	center := m.GeometryCenter(1)
	assert.InDeltaSlice(t, []float32{4.5, 0.5, 0}, center[:], 1e-6)
}

func TestModelLodAccess(t *testing.T) {
	near, far := quad("near", 0), quad("far", 0)
	far.LodDistance = 50
	m := NewModel(WithGeometry(near, far))

	assert.Len(t, m.LodLevels(0), 2)
	assert.Same(t, far, m.Geometry(0, 1))
	assert.Nil(t, m.Geometry(0, 2))
	assert.Nil(t, m.Geometry(3, 0))
	assert.Nil(t, m.LodLevels(-1))
}

func TestModelExplicitBoundingBox(t *testing.T) {
	box := common.NewBoundingBox([3]float32{-10, -10, -10}, [3]float32{10, 10, 10})
	m := NewModel(WithGeometry(quad("a", 0)), WithBoundingBox(box))
	assert.Equal(t, box, m.BoundingBox())
	assert.False(t, m.Skinned())
}

func TestSkeletonBoneIndex(t *testing.T) {
	s := &Skeleton{Bones: []Bone{{Name: "root", ParentIndex: -1}}, BoneNameToIndex: map[string]int32{"root": 0}}
	m := NewModel(WithSkeleton(s))

	assert.True(t, m.Skinned())
	assert.Equal(t, int32(0), m.Skeleton().BoneIndex("root"))
	assert.Equal(t, int32(-1), m.Skeleton().BoneIndex("tail"))
}
