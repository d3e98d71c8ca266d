package occlusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// wall returns a quad at depth z facing the default camera, wound clockwise on screen.
func wall(z, half float32) *graphics.Geometry {
	return graphics.NewGeometry("wall", []float32{
		-half, -half, z,
		-half, half, z,
		half, half, z,
		half, -half, z,
	}, 3, []uint32{0, 1, 2, 0, 2, 3})
}

func box(minZ, maxZ float32) common.BoundingBox {
	return common.NewBoundingBox([3]float32{-0.5, -0.5, minZ}, [3]float32{0.5, 0.5, maxZ})
}

func newBuffer(t *testing.T) OcclusionBuffer {
	t.Helper()
	b := NewOcclusionBuffer(WithSize(64, 64))
	b.SetView(camera.NewCamera())
	return b
}

func TestWallHidesBoxBehindIt(t *testing.T) {
	b := newBuffer(t)
	assert.True(t, b.Draw(common.IdentityMatrix(), wall(5, 10)))
	assert.Equal(t, 2, b.NumTriangles())
	b.BuildDepthHierarchy()

	assert.False(t, b.IsVisible(box(8, 9)))
	assert.True(t, b.IsVisible(box(2, 3)))
}

func TestDrawnDepthHidesBoxesBeforeHierarchyIsBuilt(t *testing.T) {
	b := newBuffer(t)
	assert.True(t, b.IsVisible(box(8, 9)))

	b.Draw(common.IdentityMatrix(), wall(5, 10))

	assert.False(t, b.IsVisible(box(8, 9)))
	assert.True(t, b.IsVisible(box(2, 3)))
}

func TestBoxCrossingNearPlaneIsVisible(t *testing.T) {
	b := newBuffer(t)
	b.Draw(common.IdentityMatrix(), wall(5, 10))
	b.BuildDepthHierarchy()

	assert.True(t, b.IsVisible(box(-1, 9)))
}

func TestBoxOffScreenIsHidden(t *testing.T) {
	b := newBuffer(t)
	b.BuildDepthHierarchy()

	off := common.NewBoundingBox([3]float32{50, -0.5, 8}, [3]float32{51, 0.5, 9})
	assert.False(t, b.IsVisible(off))
	assert.True(t, b.IsVisible(box(8, 9)))
}

func TestTriangleBudget(t *testing.T) {
	b := newBuffer(t)
	b.SetMaxTriangles(1)

	assert.False(t, b.Draw(common.IdentityMatrix(), wall(5, 10)))
	assert.Equal(t, 1, b.NumTriangles())

	b.Reset()
	assert.Equal(t, 0, b.NumTriangles())
}

func TestCullModeDropsFacingAwayTriangles(t *testing.T) {
	b := newBuffer(t)
	g := wall(5, 10)
	g.Indices = []uint32{0, 2, 1, 0, 3, 2}

	b.Draw(common.IdentityMatrix(), g)
	b.BuildDepthHierarchy()
	assert.True(t, b.IsVisible(box(8, 9)))

	b.Reset()
	b.SetCullMode(graphics.CullNone)
	b.Draw(common.IdentityMatrix(), g)
	b.BuildDepthHierarchy()
	assert.False(t, b.IsVisible(box(8, 9)))
}

func TestDrawHonoursIndexRange(t *testing.T) {
	b := newBuffer(t)
	g := wall(5, 10)
	g.IndexStart = 3
	g.IndexCount = 3

	b.Draw(common.IdentityMatrix(), g)
	assert.Equal(t, 1, b.NumTriangles())
}

func TestTriangleCrossingNearPlaneIsClipped(t *testing.T) {
	b := newBuffer(t)
	b.SetCullMode(graphics.CullNone)
	floor := graphics.NewGeometry("floor", []float32{
		-10, -1, -5,
		10, -1, -5,
		0, -1, 20,
	}, 3, []uint32{0, 1, 2})

	assert.True(t, b.Draw(common.IdentityMatrix(), floor))
	b.BuildDepthHierarchy()
	under := common.NewBoundingBox([3]float32{-0.2, -3, 6}, [3]float32{0.2, -2, 7})
	assert.False(t, b.IsVisible(under))
}

func TestSetSizeResets(t *testing.T) {
	b := newBuffer(t)
	b.Draw(common.IdentityMatrix(), wall(5, 10))
	b.BuildDepthHierarchy()

	b.SetSize(32, 16)
	assert.Equal(t, 32, b.Width())
	assert.Equal(t, 16, b.Height())
	assert.Equal(t, 0, b.NumTriangles())
	assert.True(t, b.IsVisible(box(8, 9)))
}
