package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/debug"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/spatial"
)

func unitZone() *drawable.Zone {
	return drawable.NewZone(common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}))
}

func TestAddGetRemove(t *testing.T) {
	s := NewScene("test")
	z := unitZone()
	l := light.NewLight(light.LightTypePoint)

	zid := s.Add(z)
	lid := s.Add(l)
	assert.NotEqual(t, zid, lid)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 2, s.Index().Len())
	assert.Same(t, z, s.Get(zid))
	require.Len(t, s.Lights(), 1)

	s.Remove(lid)
	assert.Empty(t, s.Lights())
	assert.Equal(t, 1, s.Index().Len())
	assert.Nil(t, s.Get(lid))

	s.Remove(lid)
	assert.Equal(t, 1, s.Count())
}

func TestWithDrawablesAreIndexed(t *testing.T) {
	idx := spatial.NewLinearIndex()
	s := NewScene("test", WithIndex(idx), WithDrawables(unitZone(), light.NewLight(light.LightTypeDirectional)))

	assert.Same(t, idx, s.Index())
	assert.Equal(t, 2, idx.Len())
	assert.Len(t, s.Lights(), 1)

	next := s.Add(unitZone())
	assert.Equal(t, uint64(3), next)
}

func TestClear(t *testing.T) {
	s := NewScene("test")
	s.Add(unitZone())
	s.Add(light.NewLight(light.LightTypePoint))

	s.Clear()
	assert.Zero(t, s.Count())
	assert.Zero(t, s.Index().Len())
	assert.Empty(t, s.Lights())
}

func TestFlagsAndTime(t *testing.T) {
	d := debug.NewDebugRenderer()
	s := NewScene("test", WithDebugRenderer(d))
	assert.True(t, s.Active())
	assert.Same(t, d, s.DebugRenderer())

	s.SetAsyncLoading(true)
	assert.True(t, s.AsyncLoading())

	s.Update(0.5)
	s.Update(0.25)
	assert.InDelta(t, 0.75, s.ElapsedTime(), 1e-6)

	s.SetActive(false)
	s.Update(1)
	assert.InDelta(t, 0.75, s.ElapsedTime(), 1e-6)
}
