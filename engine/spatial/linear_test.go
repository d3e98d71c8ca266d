package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
)

type box struct {
	drawable.Base
}

func newBox(x, y, z float32, opts ...drawable.Option) *box {
	opts = append([]drawable.Option{
		drawable.WithBoundingBox(common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})),
		drawable.WithPosition(x, y, z),
	}, opts...)
	return &box{Base: drawable.NewBase(drawable.FlagGeometry, opts...)}
}

type hideAll struct{}

func (hideAll) IsVisible(common.BoundingBox) bool { return false }

func allQuery() Query {
	return Query{TypeMask: drawable.FlagAny, ViewMask: ^uint32(0)}
}

func TestInsertRemove(t *testing.T) {
	idx := NewLinearIndex()
	a := newBox(0, 0, 0)

	idx.Insert(a)
	idx.Insert(a)
	assert.Equal(t, 1, idx.Len())

	assert.True(t, idx.Remove(a))
	assert.False(t, idx.Remove(a))
	assert.Equal(t, 0, idx.Len())
}

func TestQueryFrustum(t *testing.T) {
	idx := NewLinearIndex()
	front := newBox(0, 0, 10)
	behind := newBox(0, 0, -10)
	idx.Insert(front)
	idx.Insert(behind)

	cam := camera.NewCamera(camera.WithFar(100))
	got := idx.QueryFrustum(FrustumQuery{Query: allQuery(), Frustum: cam.Frustum()}, nil)

	require.Len(t, got, 1)
	assert.Same(t, front, got[0])
}

func TestQueryFilters(t *testing.T) {
	idx := NewLinearIndex()
	plain := newBox(0, 0, 0)
	occluder := newBox(0, 0, 0, drawable.WithOccluder(true))
	caster := newBox(0, 0, 0, drawable.WithCastShadows(true))
	masked := newBox(0, 0, 0, drawable.WithViewMask(2))
	disabled := newBox(0, 0, 0, drawable.WithEnabled(false))
	for _, d := range []drawable.Drawable{plain, occluder, caster, masked, disabled} {
		idx.Insert(d)
	}
	p := [3]float32{0, 0, 0}

	tests := []struct {
		name  string
		query Query
		want  []drawable.Drawable
	}{
		{"all", allQuery(), []drawable.Drawable{plain, occluder, caster, masked}},
		{"view mask", Query{TypeMask: drawable.FlagAny, ViewMask: 1}, []drawable.Drawable{plain, occluder, caster}},
		{"occluders", Query{TypeMask: drawable.FlagAny, ViewMask: ^uint32(0), OccludersOnly: true}, []drawable.Drawable{occluder}},
		{"casters", Query{TypeMask: drawable.FlagAny, ViewMask: ^uint32(0), ShadowCastersOnly: true}, []drawable.Drawable{caster}},
		{"type", Query{TypeMask: drawable.FlagLight, ViewMask: ^uint32(0)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := idx.QueryPoint(PointQuery{Query: tt.query, Point: p}, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOcclusionSkipsOnlyOccludees(t *testing.T) {
	idx := NewLinearIndex()
	occludee := newBox(0, 0, 0)
	always := newBox(0, 0, 0, drawable.WithOccludee(false))
	idx.Insert(occludee)
	idx.Insert(always)

	q := allQuery()
	q.Occlusion = hideAll{}
	got := idx.QueryBox(BoxQuery{Query: q, Box: common.NewBoundingBox([3]float32{-5, -5, -5}, [3]float32{5, 5, 5})}, nil)

	require.Len(t, got, 1)
	assert.Same(t, always, got[0])
}

func TestQuerySphereAppends(t *testing.T) {
	idx := NewLinearIndex()
	near := newBox(3, 0, 0)
	far := newBox(30, 0, 0)
	idx.Insert(near)
	idx.Insert(far)

	out := []drawable.Drawable{far}
	out = idx.QuerySphere(SphereQuery{Query: allQuery(), Sphere: common.Sphere{Radius: 5, Defined: true}}, out)

	assert.Equal(t, []drawable.Drawable{far, near}, out)
}
