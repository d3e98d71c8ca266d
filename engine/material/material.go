package material

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// material is the implementation of the Material interface.
type material struct {
	mu             *sync.RWMutex
	name           string
	techniques     []TechniqueEntry
	textures       [graphics.MaxTextureUnits]graphics.Texture
	params         map[graphics.ShaderParam][]float32
	cullMode       graphics.CullMode
	shadowCullMode graphics.CullMode
	occlusion      bool
	auxViewFrame   atomic.Uint32
}

// Material defines the interface for a render material: an ordered technique list,
// texture bindings, shader parameters and the cull modes used for drawing.
//
// Techniques are resolved per drawable with SelectTechnique. Materials are shared
// between views that update concurrently; the aux view frame marker is atomic and
// the remaining state is read-mostly behind a mutex.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Techniques returns the technique list, most distant and highest quality first.
	//
	// Returns:
	//   - []TechniqueEntry: the technique entries
	Techniques() []TechniqueEntry

	// SetTechniques replaces the technique list.
	//
	// Parameters:
	//   - entries: technique entries in priority order
	SetTechniques(entries []TechniqueEntry)

	// Technique returns the technique of entry i, or nil when out of range.
	Technique(i int) *Technique

	// Texture returns the texture bound to a unit, or nil.
	//
	// Parameters:
	//   - unit: the texture unit
	//
	// Returns:
	//   - graphics.Texture: the texture, or nil
	Texture(unit graphics.TextureUnit) graphics.Texture

	// Textures returns every non-nil texture with its unit.
	Textures() map[graphics.TextureUnit]graphics.Texture

	// SetTexture binds a texture to a unit.
	//
	// Parameters:
	//   - unit: the texture unit
	//   - tex: the texture, nil to unbind
	SetTexture(unit graphics.TextureUnit, tex graphics.Texture)

	// ShaderParameters returns a copy of the material's shader parameters.
	ShaderParameters() map[graphics.ShaderParam][]float32

	// SetShaderParameter sets a material shader parameter.
	SetShaderParameter(param graphics.ShaderParam, values []float32)

	// CullMode returns the cull mode for normal rendering.
	CullMode() graphics.CullMode

	// ShadowCullMode returns the cull mode for shadow rendering.
	ShadowCullMode() graphics.CullMode

	// Occlusion reports whether geometry using this material may act as an occluder.
	Occlusion() bool

	// AuxViewFrameNumber returns the frame number the material was last checked for
	// auxiliary render targets.
	AuxViewFrameNumber() uint32

	// MarkForAuxView records the frame the material was checked for auxiliary render targets.
	//
	// Parameters:
	//   - frame: current frame number
	//
	// Returns:
	//   - bool: true if this call was the first to mark the frame
	MarkForAuxView(frame uint32) bool
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Defaults: white diffuse color, counter-clockwise culling for both passes, occlusion on.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:             &sync.RWMutex{},
		params:         map[graphics.ShaderParam][]float32{graphics.PSPMatDiffColor: {1, 1, 1, 1}},
		cullMode:       graphics.CullCCW,
		shadowCullMode: graphics.CullCCW,
		occlusion:      true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Techniques() []TechniqueEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.techniques
}

func (m *material) SetTechniques(entries []TechniqueEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.techniques = append([]TechniqueEntry(nil), entries...)
}

func (m *material) Technique(i int) *Technique {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.techniques) {
		return nil
	}
	return m.techniques[i].Technique
}

func (m *material) Texture(unit graphics.TextureUnit) graphics.Texture {
	if unit < 0 || unit >= graphics.MaxTextureUnits {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.textures[unit]
}

func (m *material) Textures() map[graphics.TextureUnit]graphics.Texture {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[graphics.TextureUnit]graphics.Texture)
	for i, t := range m.textures {
		if t != nil {
			out[graphics.TextureUnit(i)] = t
		}
	}
	return out
}

func (m *material) SetTexture(unit graphics.TextureUnit, tex graphics.Texture) {
	if unit < 0 || unit >= graphics.MaxTextureUnits {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textures[unit] = tex
}

func (m *material) ShaderParameters() map[graphics.ShaderParam][]float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[graphics.ShaderParam][]float32, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

func (m *material) SetShaderParameter(param graphics.ShaderParam, values []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[param] = append([]float32(nil), values...)
}

func (m *material) CullMode() graphics.CullMode {
	return m.cullMode
}

func (m *material) ShadowCullMode() graphics.CullMode {
	return m.shadowCullMode
}

func (m *material) Occlusion() bool {
	return m.occlusion
}

func (m *material) AuxViewFrameNumber() uint32 {
	return m.auxViewFrame.Load()
}

func (m *material) MarkForAuxView(frame uint32) bool {
	for {
		old := m.auxViewFrame.Load()
		if old == frame {
			return false
		}
		if m.auxViewFrame.CompareAndSwap(old, frame) {
			return true
		}
	}
}
