package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSettings struct {
	Mode    string  `toml:"mode" yaml:"mode"`
	Size    int     `toml:"size" yaml:"size"`
	Step    float32 `toml:"step" yaml:"step"`
	Enabled bool    `toml:"enabled" yaml:"enabled"`
}

func defaults() testSettings {
	return testSettings{Mode: "forward", Size: 1024, Step: 0.5}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"render.toml", FormatTOML, false},
		{"render.TOML", FormatTOML, false},
		{"render.yaml", FormatYAML, false},
		{"dir/render.yml", FormatYAML, false},
		{"render.json", 0, true},
		{"render", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "render.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("mode = \"deferred\"\nenabled = true\n"), 0o644))
	s := defaults()
	require.NoError(t, Load(tomlPath, &s))
	assert.Equal(t, "deferred", s.Mode)
	assert.True(t, s.Enabled)
	assert.Equal(t, 1024, s.Size)

	yamlPath := filepath.Join(dir, "render.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("size: 2048\nstep: 0.25\n"), 0o644))
	y := defaults()
	require.NoError(t, Load(yamlPath, &y))
	assert.Equal(t, 2048, y.Size)
	assert.Equal(t, float32(0.25), y.Step)
	assert.Equal(t, "forward", y.Mode)
}

func TestLoadEmptyYAMLIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))
	s := defaults()
	require.NoError(t, Load(path, &s))
	assert.Equal(t, defaults(), s)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	var s testSettings

	assert.ErrorIs(t, Load(filepath.Join(dir, "render.ini"), &s), ErrUnsupportedFormat)
	assert.ErrorIs(t, Load(filepath.Join(dir, "missing.toml"), &s), os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("mode = = 3"), 0o644))
	assert.Error(t, Load(bad, &s))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := testSettings{Mode: "deferred", Size: 512, Step: 1, Enabled: true}
	for _, name := range []string{"out.toml", "out.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, want))
		var got testSettings
		require.NoError(t, Load(path, &got))
		assert.Equal(t, want, got, name)
	}
}

func TestWatchReportsWritesUntilCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.toml")
	require.NoError(t, os.WriteFile(path, []byte("size = 1\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, path, 10*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("size = 2\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	var s testSettings
	require.NoError(t, Load(path, &s))
	assert.Equal(t, 2, s.Size)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
