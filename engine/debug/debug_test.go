package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
)

var red = [4]float32{1, 0, 0, 1}

func TestAddShapes(t *testing.T) {
	d := NewDebugRenderer()

	d.AddLine([3]float32{}, [3]float32{1, 0, 0}, red, true)
	d.AddBoundingBox(common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}), red, false)
	d.AddBoundingBox(common.BoundingBox{}, red, false)
	cam := camera.NewCamera()
	d.AddFrustum(cam.Frustum(), red, true)

	depth, noDepth := d.NumLines()
	assert.Equal(t, 13, depth)
	assert.Equal(t, 12, noDepth)

	d.Clear()
	depth, noDepth = d.NumLines()
	assert.Zero(t, depth)
	assert.Zero(t, noDepth)
}

func TestAddSkeletonSkipsRoot(t *testing.T) {
	d := NewDebugRenderer()
	skel := &model.Skeleton{Bones: []model.Bone{
		{Name: "root", ParentIndex: -1},
		{Name: "spine", ParentIndex: 0},
		{Name: "head", ParentIndex: 1},
	}}
	poses := make([][16]float32, 3)
	for i := range poses {
		poses[i] = common.ComposeMatrix([3]float32{0, float32(i), 0}, common.IdentityQuat, [3]float32{1, 1, 1})
	}

	d.AddSkeleton(skel, poses, red, true)

	depth, _ := d.NumLines()
	assert.Equal(t, 2, depth)
}

func TestIsInsideUsesViewFrustum(t *testing.T) {
	d := NewDebugRenderer()
	behind := common.NewBoundingBox([3]float32{-1, -1, -12}, [3]float32{1, 1, -10})
	assert.True(t, d.IsInside(behind))

	d.SetView(camera.NewCamera())
	assert.False(t, d.IsInside(behind))
	assert.True(t, d.IsInside(common.NewBoundingBox([3]float32{-1, -1, 10}, [3]float32{1, 1, 12})))
}

func TestRenderDrawsBothLists(t *testing.T) {
	d := NewDebugRenderer()
	g := graphics.NewRecorder(64, 64, graphics.Capabilities{})
	vs := &graphics.ShaderVariation{Name: "Basic_VCol", Type: graphics.ShaderTypeVertex}
	ps := &graphics.ShaderVariation{Name: "Basic_VCol", Type: graphics.ShaderTypePixel}

	d.Render(g, vs, ps)
	assert.Empty(t, g.Draws())

	d.AddLine([3]float32{}, [3]float32{1, 0, 0}, red, true)
	d.AddLine([3]float32{}, [3]float32{0, 1, 0}, red, false)
	d.Render(g, vs, ps)

	draws := g.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, graphics.LineList, draws[0].Geometry.Primitive)
	assert.Equal(t, graphics.CompareLessEqual, draws[0].State.DepthTest)
	assert.Equal(t, graphics.CompareAlways, draws[1].State.DepthTest)
	assert.Equal(t, 2, draws[0].Geometry.IndexCount)
	assert.Same(t, vs, draws[0].State.VertexShader)
}
