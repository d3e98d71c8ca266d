package material

import (
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithTechnique appends a technique entry to the material's technique list.
//
// Parameters:
//   - tech: the technique
//   - quality: minimum quality level required to use it
//   - lodDistance: LOD distance from which it is used
//
// Returns:
//   - MaterialBuilderOption: a function that appends the technique entry
func WithTechnique(tech *Technique, quality int, lodDistance float32) MaterialBuilderOption {
	return func(m *material) {
		m.techniques = append(m.techniques, TechniqueEntry{Technique: tech, QualityLevel: quality, LodDistance: lodDistance})
	}
}

// WithDiffuseColor is an option builder that sets the diffuse RGBA color of the material.
//
// Parameters:
//   - color: the diffuse color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse color option to a material
func WithDiffuseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.params[graphics.PSPMatDiffColor] = color[:]
	}
}

// WithTexture is an option builder that binds a texture to a unit.
//
// Parameters:
//   - unit: the texture unit
//   - tex: the texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(unit graphics.TextureUnit, tex graphics.Texture) MaterialBuilderOption {
	return func(m *material) {
		if unit >= 0 && unit < graphics.MaxTextureUnits {
			m.textures[unit] = tex
		}
	}
}

// WithCullMode sets the cull modes for normal and shadow rendering.
func WithCullMode(mode, shadowMode graphics.CullMode) MaterialBuilderOption {
	return func(m *material) {
		m.cullMode = mode
		m.shadowCullMode = shadowMode
	}
}

// WithOcclusion sets whether geometry with this material may occlude.
func WithOcclusion(enable bool) MaterialBuilderOption {
	return func(m *material) {
		m.occlusion = enable
	}
}
