package engine

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/scene"
)

func newRecorder() *graphics.Recorder {
	return graphics.NewRecorder(640, 480, graphics.Capabilities{
		SM3:             true,
		Instancing:      true,
		StreamOffset:    true,
		ShadowMapFormat: graphics.FormatDepth32F,
		MaxTextureSize:  4096,
	})
}

func testViewport() *renderer.Viewport {
	geo := graphics.NewGeometry("Quad",
		[]float32{-1, -1, 0, 1, -1, 0, 1, 1, 0, -1, 1, 0}, 3,
		[]uint32{0, 1, 2, 2, 3, 0})
	quad := drawable.NewStaticModel(model.NewModel(model.WithGeometry(geo)), drawable.WithPosition(0, 0, 5))
	scn := scene.NewScene("engine test", scene.WithDrawables(quad))
	cam := camera.NewCamera(camera.WithPosition(0, 0, -5), camera.WithNear(0.5), camera.WithFar(50))
	return renderer.NewViewport(scn, cam, common.IntRect{})
}

func countKind(rec *graphics.Recorder, kind graphics.CommandKind) int {
	n := 0
	for _, c := range rec.Commands() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func TestNewEngineRequiresGraphics(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, renderer.ErrNoGraphics)
}

func TestStepRendersFrame(t *testing.T) {
	rec := newRecorder()
	e, err := NewEngine(rec, WithViewport(testViewport()), WithRendererOptions(renderer.WithWorkers(1)))
	require.NoError(t, err)
	defer e.Close()

	var frames int
	e.SetRenderCallback(func(float32) { frames++ })

	require.NoError(t, e.Step(1.0/60))
	assert.Equal(t, 1, frames)
	assert.Equal(t, 1, countKind(rec, graphics.CommandBeginFrame))
	assert.Equal(t, 1, countKind(rec, graphics.CommandEndFrame))
	assert.NotEmpty(t, rec.Draws())
	assert.Len(t, e.Renderer().Views(), 1)
	assert.Nil(t, e.Window())
}

func TestStepFeedsProfiler(t *testing.T) {
	e, err := NewEngine(newRecorder(), WithViewport(testViewport()), WithProfiling(time.Nanosecond))
	require.NoError(t, err)
	defer e.Close()

	require.NotNil(t, e.Profiler())
	require.NoError(t, e.Step(1.0/60))
	time.Sleep(time.Millisecond)
	require.NoError(t, e.Step(1.0/60))

	names := map[string]bool{}
	for _, b := range e.Profiler().LastStats().Blocks {
		names[b.Name] = true
	}
	assert.True(t, names["UpdateViews"] || names["RenderViews"], "blocks: %v", names)
}

func TestRunTicksAndRendersUntilCancelled(t *testing.T) {
	e, err := NewEngine(newRecorder(), WithViewport(testViewport()), WithTickRate(200), WithRenderFrameLimit(200))
	require.NoError(t, err)
	defer e.Close()

	var ticks, frames atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })
	e.SetRenderCallback(func(float32) { frames.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))

	assert.Positive(t, ticks.Load())
	assert.Positive(t, frames.Load())
}

func TestQuitStopsRun(t *testing.T) {
	e, err := NewEngine(newRecorder(), WithRenderFrameLimit(100))
	require.NoError(t, err)
	defer e.Close()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestSettingsFileIsLoadedAndReloaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(path, []byte("draw_shadows = false\nworkers = 1\n"), 0o644))

	e, err := NewEngine(newRecorder(), WithSettingsFile(path), WithRenderFrameLimit(100))
	require.NoError(t, err)
	defer e.Close()

	s := e.Renderer().Settings()
	assert.False(t, s.DrawShadows)
	assert.Equal(t, renderer.DefaultSettings().ShadowMapSize, s.ShadowMapSize, "missing keys keep defaults")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("draw_shadows = true\nshadow_map_size = 512\nworkers = 1\n"), 0o644))

	assert.Eventually(t, func() bool {
		s := e.Renderer().Settings()
		return s.DrawShadows && s.ShadowMapSize == 512
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestInvalidSettingsFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shadow_map_size: -1\n"), 0o644))

	_, err := NewEngine(newRecorder(), WithSettingsFile(path))
	assert.ErrorIs(t, err, renderer.ErrInvalidSettings)
}

func TestTickInterval(t *testing.T) {
	assert.Equal(t, time.Second/60, tickInterval(0))
	assert.Equal(t, 10*time.Millisecond, tickInterval(100))
}
