package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

// RenderMode selects the lighting path of every view.
type RenderMode int

const (
	// RenderModeForward draws an ambient base pass followed by one additive pass per light.
	RenderModeForward RenderMode = iota
	// RenderModeDeferred fills a G-buffer and accumulates lights as screen-space volumes.
	RenderModeDeferred
)

func (m RenderMode) String() string {
	switch m {
	case RenderModeForward:
		return "forward"
	case RenderModeDeferred:
		return "deferred"
	}
	return "unknown"
}

// MarshalText encodes the mode by name for TOML and YAML settings files.
func (m RenderMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *RenderMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "forward":
		*m = RenderModeForward
	case "deferred":
		*m = RenderModeDeferred
	default:
		return fmt.Errorf("%w: unknown render mode %q", ErrInvalidSettings, text)
	}
	return nil
}

// Shadow bias scaling applied when rendering shadow maps. Small maps get a larger
// constant bias and large maps a smaller one.
const (
	DefaultShadowBiasLowSize   = 512
	DefaultShadowBiasHighSize  = 2048
	DefaultShadowBiasScaleLow  = 2
	DefaultShadowBiasScaleHigh = 0.5
)

// Settings are the renderer-wide configuration values. They are read by views when they
// are defined each frame, so changes apply from the next frame.
type Settings struct {
	RenderMode      RenderMode `toml:"render_mode" yaml:"render_mode"`
	DrawShadows     bool       `toml:"draw_shadows" yaml:"draw_shadows"`
	MaterialQuality int        `toml:"material_quality" yaml:"material_quality"`

	// ShadowMapSize is the full-resolution shadow map size in pixels.
	ShadowMapSize int `toml:"shadow_map_size" yaml:"shadow_map_size"`
	// MaxShadowMaps limits the shadow maps of each size handed out per frame.
	MaxShadowMaps int `toml:"max_shadow_maps" yaml:"max_shadow_maps"`
	// ReuseShadowMaps renders each shadow map right before its light, so one map per
	// size is enough. Transparent geometry is then lit without shadows.
	ReuseShadowMaps   bool `toml:"reuse_shadow_maps" yaml:"reuse_shadow_maps"`
	MaxShadowCascades int  `toml:"max_shadow_cascades" yaml:"max_shadow_cascades"`
	// ShadowQuantizeStep and ShadowMinView are lower bounds for the per-light focus values.
	ShadowQuantizeStep float32 `toml:"shadow_quantize_step" yaml:"shadow_quantize_step"`
	ShadowMinView      float32 `toml:"shadow_min_view" yaml:"shadow_min_view"`

	ShadowBiasLowSize   int     `toml:"shadow_bias_low_size" yaml:"shadow_bias_low_size"`
	ShadowBiasHighSize  int     `toml:"shadow_bias_high_size" yaml:"shadow_bias_high_size"`
	ShadowBiasScaleLow  float32 `toml:"shadow_bias_scale_low" yaml:"shadow_bias_scale_low"`
	ShadowBiasScaleHigh float32 `toml:"shadow_bias_scale_high" yaml:"shadow_bias_scale_high"`

	// MaxOccluderTriangles is the software occlusion triangle budget; zero disables occlusion.
	MaxOccluderTriangles int `toml:"max_occluder_triangles" yaml:"max_occluder_triangles"`
	// OccluderSizeThreshold is the smallest screen coverage an occluder must have.
	OccluderSizeThreshold float32 `toml:"occluder_size_threshold" yaml:"occluder_size_threshold"`
	OcclusionBufferSize   int     `toml:"occlusion_buffer_size" yaml:"occlusion_buffer_size"`

	DynamicInstancing   bool `toml:"dynamic_instancing" yaml:"dynamic_instancing"`
	LightStencilMasking bool `toml:"light_stencil_masking" yaml:"light_stencil_masking"`
	// TemporalAA jitters the main deferred view and blends it with the previous frame.
	TemporalAA bool `toml:"temporal_aa" yaml:"temporal_aa"`
	// DrawDebugGeometry adds geometry bounds and light volumes to the scene's debug renderer.
	DrawDebugGeometry bool `toml:"draw_debug_geometry" yaml:"draw_debug_geometry"`

	// Workers is the number of goroutines updating views in parallel.
	Workers int `toml:"workers" yaml:"workers"`
}

// DefaultSettings returns forward rendering with shadows, occlusion and instancing enabled.
func DefaultSettings() Settings {
	return Settings{
		RenderMode:            RenderModeForward,
		DrawShadows:           true,
		MaterialQuality:       material.QualityHigh,
		ShadowMapSize:         1024,
		MaxShadowMaps:         1,
		MaxShadowCascades:     light.MaxCascadeSplits,
		ShadowBiasLowSize:     DefaultShadowBiasLowSize,
		ShadowBiasHighSize:    DefaultShadowBiasHighSize,
		ShadowBiasScaleLow:    DefaultShadowBiasScaleLow,
		ShadowBiasScaleHigh:   DefaultShadowBiasScaleHigh,
		MaxOccluderTriangles:  5000,
		OccluderSizeThreshold: 0.025,
		OcclusionBufferSize:   256,
		DynamicInstancing:     true,
		LightStencilMasking:   true,
		Workers:               4,
	}
}

// Validate reports the first out-of-range value.
//
// Returns:
//   - error: an error wrapping ErrInvalidSettings, nil when the settings are usable
func (s Settings) Validate() error {
	switch {
	case s.RenderMode != RenderModeForward && s.RenderMode != RenderModeDeferred:
		return fmt.Errorf("%w: render mode %d", ErrInvalidSettings, s.RenderMode)
	case s.MaterialQuality < material.QualityLow || s.MaterialQuality > material.QualityMax:
		return fmt.Errorf("%w: material quality %d outside [%d, %d]", ErrInvalidSettings, s.MaterialQuality, material.QualityLow, material.QualityMax)
	case s.ShadowMapSize < 64 || s.ShadowMapSize&(s.ShadowMapSize-1) != 0:
		return fmt.Errorf("%w: shadow map size %d must be a power of two of at least 64", ErrInvalidSettings, s.ShadowMapSize)
	case s.MaxShadowMaps < 1:
		return fmt.Errorf("%w: max shadow maps %d", ErrInvalidSettings, s.MaxShadowMaps)
	case s.MaxShadowCascades < 1 || s.MaxShadowCascades > light.MaxCascadeSplits:
		return fmt.Errorf("%w: max shadow cascades %d outside [1, %d]", ErrInvalidSettings, s.MaxShadowCascades, light.MaxCascadeSplits)
	case s.ShadowQuantizeStep < 0 || s.ShadowMinView < 0:
		return fmt.Errorf("%w: negative shadow quantize step or min view", ErrInvalidSettings)
	case s.ShadowBiasScaleLow <= 0 || s.ShadowBiasScaleHigh <= 0:
		return fmt.Errorf("%w: shadow bias scales must be positive", ErrInvalidSettings)
	case s.ShadowBiasLowSize > s.ShadowBiasHighSize:
		return fmt.Errorf("%w: shadow bias low size %d above high size %d", ErrInvalidSettings, s.ShadowBiasLowSize, s.ShadowBiasHighSize)
	case s.MaxOccluderTriangles < 0:
		return fmt.Errorf("%w: max occluder triangles %d", ErrInvalidSettings, s.MaxOccluderTriangles)
	case s.OccluderSizeThreshold < 0:
		return fmt.Errorf("%w: occluder size threshold %g", ErrInvalidSettings, s.OccluderSizeThreshold)
	case s.OcclusionBufferSize < 16:
		return fmt.Errorf("%w: occlusion buffer size %d below 16", ErrInvalidSettings, s.OcclusionBufferSize)
	case s.Workers < 1:
		return fmt.Errorf("%w: workers %d", ErrInvalidSettings, s.Workers)
	}
	return nil
}

// shadowBiasScale returns the constant bias multiplier for the configured shadow map size.
func (s Settings) shadowBiasScale() float32 {
	switch {
	case s.ShadowMapSize <= s.ShadowBiasLowSize:
		return s.ShadowBiasScaleLow
	case s.ShadowMapSize >= s.ShadowBiasHighSize:
		return s.ShadowBiasScaleHigh
	}
	return 1
}

// shadowMapSizeFor maps a light's shadow resolution fraction onto a power-of-two size.
func (s Settings) shadowMapSizeFor(resolution float32) int {
	size := s.ShadowMapSize
	switch {
	case resolution >= 0.75:
	case resolution >= 0.375:
		size /= 2
	case resolution >= 0.1875:
		size /= 4
	default:
		size /= 8
	}
	return max(size, 16)
}
