package renderer

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
}

func TestSettingsValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"render mode", func(s *Settings) { s.RenderMode = 7 }},
		{"shadow map size not power of two", func(s *Settings) { s.ShadowMapSize = 1000 }},
		{"shadow map size too small", func(s *Settings) { s.ShadowMapSize = 32 }},
		{"no shadow maps", func(s *Settings) { s.MaxShadowMaps = 0 }},
		{"too many cascades", func(s *Settings) { s.MaxShadowCascades = 5 }},
		{"negative quantize step", func(s *Settings) { s.ShadowQuantizeStep = -1 }},
		{"bias sizes inverted", func(s *Settings) { s.ShadowBiasLowSize = 4096 }},
		{"occlusion buffer too small", func(s *Settings) { s.OcclusionBufferSize = 8 }},
		{"no workers", func(s *Settings) { s.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}

func TestShadowBiasScale(t *testing.T) {
	s := DefaultSettings()
	s.ShadowMapSize = 512
	assert.Equal(t, float32(2), s.shadowBiasScale())
	s.ShadowMapSize = 1024
	assert.Equal(t, float32(1), s.shadowBiasScale())
	s.ShadowMapSize = 2048
	assert.Equal(t, float32(0.5), s.shadowBiasScale())
}

func TestShadowMapSizeForResolution(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 1024, s.shadowMapSizeFor(1))
	assert.Equal(t, 512, s.shadowMapSizeFor(0.5))
	assert.Equal(t, 256, s.shadowMapSizeFor(0.25))
	assert.Equal(t, 128, s.shadowMapSizeFor(0.1))
}

func TestRenderModeText(t *testing.T) {
	var m RenderMode
	require.NoError(t, m.UnmarshalText([]byte(" Deferred ")))
	assert.Equal(t, RenderModeDeferred, m)

	text, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "deferred", string(text))

	assert.ErrorIs(t, m.UnmarshalText([]byte("raytraced")), ErrInvalidSettings)
}

func TestSettingsDecodeFromTOMLAndYAML(t *testing.T) {
	tomlDoc := `
render_mode = "deferred"
shadow_map_size = 2048
temporal_aa = true
`
	s := DefaultSettings()
	require.NoError(t, toml.Unmarshal([]byte(tomlDoc), &s))
	assert.Equal(t, RenderModeDeferred, s.RenderMode)
	assert.Equal(t, 2048, s.ShadowMapSize)
	assert.True(t, s.TemporalAA)
	assert.Equal(t, 4, s.Workers)

	yamlDoc := "render_mode: forward\nmax_shadow_maps: 3\n"
	y := DefaultSettings()
	require.NoError(t, yaml.Unmarshal([]byte(yamlDoc), &y))
	assert.Equal(t, RenderModeForward, y.RenderMode)
	assert.Equal(t, 3, y.MaxShadowMaps)
}
