package camera

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()

	assert.Equal(t, float32(45), c.Fov())
	assert.Equal(t, float32(0.1), c.NearClip())
	assert.Equal(t, float32(1000), c.FarClip())
	assert.False(t, c.Orthographic())
	assert.True(t, c.AutoAspectRatio())
	assert.Equal(t, ^uint32(0), c.ViewMask())
	assert.True(t, c.IsProjectionValid())
	dir := c.Direction()
	assert.InDeltaSlice(t, []float32{0, 0, 1}, dir[:], 1e-5)
}

func TestOrthographicNearClipIsZero(t *testing.T) {
	c := NewCamera(WithOrthographic(10), WithNear(5))

	assert.Equal(t, float32(0), c.NearClip())
	assert.True(t, c.IsProjectionValid())
}

func TestFovIsClamped(t *testing.T) {
	c := NewCamera(WithFov(500))
	assert.Equal(t, common.MaxFov, c.Fov())
}

func TestViewMatrixMovesPositionToOrigin(t *testing.T) {
	c := NewCamera(WithPosition(3, 4, 5), WithDirection(1, 0, 0))

	p := common.TransformPoint(c.ViewMatrix(), [3]float32{3, 4, 5})
	assert.InDeltaSlice(t, []float32{0, 0, 0}, p[:], 1e-4)

	ahead := common.TransformPoint(c.ViewMatrix(), [3]float32{13, 4, 5})
	assert.InDelta(t, 10, ahead[2], 1e-4)
}

func TestProjectionMapsClipRangeToUnitDepth(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(100))
	vp := c.ViewProjectionMatrix()

	near := common.ProjectPoint(vp, [3]float32{0, 0, 1})
	far := common.ProjectPoint(vp, [3]float32{0, 0, 100})
	assert.InDelta(t, 0, near[2], 1e-4)
	assert.InDelta(t, 1, far[2], 1e-4)
}

func TestFrustumContainsPointsAhead(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, -10))
	f := c.Frustum()

	assert.Equal(t, common.Inside, f.IsInsidePoint([3]float32{0, 0, 0}))
	assert.Equal(t, common.Outside, f.IsInsidePoint([3]float32{0, 0, -20}))
}

func TestSplitFrustumClampsToClipRange(t *testing.T) {
	c := NewCamera(WithNear(1), WithFar(50))
	f := c.ViewSpaceSplitFrustum(0, 500)

	assert.InDelta(t, 1, f.Vertices[0][2], 1e-4)
	assert.InDelta(t, 50, f.Vertices[4][2], 1e-4)
}

func TestDistanceOrthoUsesViewAxis(t *testing.T) {
	persp := NewCamera()
	ortho := NewCamera(WithOrthographic(10))
	p := [3]float32{3, 0, 4}

	assert.InDelta(t, 5, persp.Distance(p), 1e-4)
	assert.InDelta(t, 4, ortho.Distance(p), 1e-4)
}

func TestLodDistance(t *testing.T) {
	c := NewCamera(WithLodBias(2))
	assert.InDelta(t, 10, c.LodDistance(40, 2, 1), 1e-5)

	o := NewCamera(WithOrthographic(8))
	assert.InDelta(t, 4, o.LodDistance(1000, 2, 1), 1e-5)
}

func TestHalfViewSize(t *testing.T) {
	c := NewCamera(WithFov(90))
	assert.InDelta(t, 1, c.HalfViewSize(), 1e-5)

	c.SetZoom(2)
	assert.InDelta(t, 0.5, c.HalfViewSize(), 1e-5)
}

func TestInvalidProjection(t *testing.T) {
	c := NewCamera(WithNear(10), WithFar(5))
	assert.False(t, c.IsProjectionValid())
}

func TestProjectionOffsetShiftsCenter(t *testing.T) {
	c := NewCamera()
	c.SetProjectionOffset([2]float32{0.25, 0})

	p := common.ProjectPoint(c.ViewProjectionMatrix(), [3]float32{0, 0, 10})
	assert.InDelta(t, 0.5, p[0], 1e-4)
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCamera()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.SetPosition([3]float32{float32(i), 0, 0})
			_ = c.Frustum()
			_ = c.ViewProjectionMatrix()
		}(i)
	}
	wg.Wait()
	require.True(t, c.IsProjectionValid())
}
