package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrustumPerspectiveContainment(t *testing.T) {
	var f Frustum
	f.DefinePerspective(90, 1, 1, 1, 100, IdentityMatrix())
	require.True(t, f.Defined)

	tests := []struct {
		name string
		box  BoundingBox
		want Intersection
	}{
		{"in front", NewBoundingBox([3]float32{-1, -1, 10}, [3]float32{1, 1, 12}), Inside},
		{"behind", NewBoundingBox([3]float32{-1, -1, -12}, [3]float32{1, 1, -10}), Outside},
		{"beyond far", NewBoundingBox([3]float32{-1, -1, 101}, [3]float32{1, 1, 110}), Outside},
		{"crossing near", NewBoundingBox([3]float32{-1, -1, 0}, [3]float32{1, 1, 2}), Intersects},
		{"off to the side", NewBoundingBox([3]float32{30, -1, 10}, [3]float32{32, 1, 12}), Outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsInsideBox(tt.box))
		})
	}
}

func TestFrustumVerticesFollowNearFar(t *testing.T) {
	var f Frustum
	f.DefinePerspective(90, 2, 1, 1, 10, IdentityMatrix())
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1, f.Vertices[i][2], 1e-5)
		assert.InDelta(t, 10, f.Vertices[i+4][2], 1e-5)
	}
	assert.InDelta(t, 2, f.Vertices[0][0], 1e-5)
	assert.InDelta(t, 1, f.Vertices[0][1], 1e-5)
}

func TestFrustumTransformedMovesWithMatrix(t *testing.T) {
	var f Frustum
	f.DefineOrtho(10, 1, 1, 0, 10, IdentityMatrix())
	moved := f.Transformed(ComposeMatrix([3]float32{100, 0, 0}, IdentityQuat, [3]float32{1, 1, 1}))

	assert.Equal(t, Inside, moved.IsInsidePoint([3]float32{100, 0, 5}))
	assert.Equal(t, Outside, moved.IsInsidePoint([3]float32{0, 0, 5}))
}

func TestBoundingBoxMergeAndIntersect(t *testing.T) {
	var b BoundingBox
	assert.False(t, b.Defined)

	b.MergePoint([3]float32{1, 2, 3})
	b.MergePoint([3]float32{-1, 5, 0})
	assert.True(t, b.Defined)
	assert.Equal(t, [3]float32{-1, 2, 0}, b.Min)
	assert.Equal(t, [3]float32{1, 5, 3}, b.Max)

	b.Intersect(NewBoundingBox([3]float32{0, 0, 0}, [3]float32{10, 3, 1}))
	assert.Equal(t, [3]float32{0, 2, 0}, b.Min)
	assert.Equal(t, [3]float32{1, 3, 1}, b.Max)
}

func TestBoundingBoxTransformedStaysOrdered(t *testing.T) {
	b := NewBoundingBox([3]float32{-1, -2, -3}, [3]float32{1, 2, 3})
	rot := QuatFromAxisAngle([3]float32{0, 1, 0}, 90)
	tb := b.Transformed(ComposeMatrix([3]float32{0, 0, 0}, rot, [3]float32{1, 1, 1}))

	for i := 0; i < 3; i++ {
		assert.LessOrEqual(t, tb.Min[i], tb.Max[i])
	}
	assert.InDelta(t, 3, tb.Max[0], 1e-4)
	assert.InDelta(t, 1, tb.Max[2], 1e-4)
}

func TestQuatFromLookRotationFacesDirection(t *testing.T) {
	dirs := [][3]float32{{1, 0, 0}, {0, 0, -1}, {0, -1, 0}, {0.3, 0.2, 0.9}}
	for _, d := range dirs {
		q := QuatFromLookRotation(d, [3]float32{0, 1, 0})
		got := QuatRotate(q, [3]float32{0, 0, 1})
		want := Normalize3(d)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, want[i], got[i], 1e-4)
		}
	}
}

func TestInverseMatrixRoundTrip(t *testing.T) {
	m := ComposeMatrix([3]float32{3, -2, 7}, QuatFromAxisAngle([3]float32{1, 1, 0}, 33), [3]float32{2, 2, 2})
	p := [3]float32{1, 2, 3}
	back := TransformPoint(InverseMatrix(m), TransformPoint(m, p))
	for i := 0; i < 3; i++ {
		assert.InDelta(t, p[i], back[i], 1e-4)
	}
}
