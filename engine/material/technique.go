package material

import (
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// PassType names a rendering pass a Technique may provide.
type PassType int

const (
	// PassShadow renders depth into a shadow map.
	PassShadow PassType = iota
	// PassGBuffer fills the deferred G-buffer.
	PassGBuffer
	// PassBase is the forward ambient (unlit) pass, also used for transparent geometry.
	PassBase
	// PassLitBase combines the ambient pass with the first directional light.
	PassLitBase
	// PassLight is the additive per-light pass.
	PassLight
	// PassExtra is a custom pass rendered after the opaque passes.
	PassExtra
	numPassTypes
)

func (p PassType) String() string {
	switch p {
	case PassShadow:
		return "shadow"
	case PassGBuffer:
		return "gbuffer"
	case PassBase:
		return "base"
	case PassLitBase:
		return "litbase"
	case PassLight:
		return "light"
	case PassExtra:
		return "extra"
	}
	return "unknown"
}

// Quality levels compared against TechniqueEntry.QualityLevel.
const (
	QualityLow    = 0
	QualityMedium = 1
	QualityHigh   = 2
	QualityMax    = 15
)

// Pass is one shading configuration of a Technique.
type Pass struct {
	Type       PassType
	BlendMode  graphics.BlendMode
	AlphaTest  bool
	AlphaMask  bool
	DepthTest  graphics.CompareMode
	DepthWrite bool
	// VertexShader and PixelShader are base shader names; the renderer appends
	// variation suffixes (light type, shadows, instancing) to resolve the final variation.
	VertexShader string
	PixelShader  string
}

// NewPass creates a pass with opaque defaults: replace blending, depth test less-equal
// and depth write on.
func NewPass(passType PassType, vs, ps string) *Pass {
	return &Pass{
		Type:         passType,
		BlendMode:    graphics.BlendReplace,
		DepthTest:    graphics.CompareLessEqual,
		DepthWrite:   true,
		VertexShader: vs,
		PixelShader:  ps,
	}
}

// Technique is a named set of passes.
type Technique struct {
	Name string
	// SM3 marks techniques that need shader model 3 class hardware.
	SM3    bool
	passes [numPassTypes]*Pass
}

// NewTechnique creates a technique from a set of passes; later passes of the same type
// replace earlier ones.
func NewTechnique(name string, passes ...*Pass) *Technique {
	t := &Technique{Name: name}
	for _, p := range passes {
		t.SetPass(p)
	}
	return t
}

// SetPass adds or replaces a pass.
func (t *Technique) SetPass(p *Pass) {
	if p == nil || p.Type < 0 || p.Type >= numPassTypes {
		return
	}
	t.passes[p.Type] = p
}

// Pass returns the pass of the given type, or nil.
func (t *Technique) Pass(passType PassType) *Pass {
	if t == nil || passType < 0 || passType >= numPassTypes {
		return nil
	}
	return t.passes[passType]
}

// HasPass reports whether the technique provides a pass of the given type.
func (t *Technique) HasPass(passType PassType) bool {
	return t.Pass(passType) != nil
}

// TechniqueEntry is one technique in a material's list with its selection thresholds.
type TechniqueEntry struct {
	Technique    *Technique
	QualityLevel int
	LodDistance  float32
}

// SelectTechnique picks a technique from entries ordered most distant and highest quality
// first. Entries with no technique, SM3 techniques on hardware without SM3 support and
// entries above the quality level are skipped; the first remaining entry whose LOD
// distance does not exceed lodDistance wins. When none qualifies the last entry's
// technique is returned.
//
// Parameters:
//   - entries: technique list in priority order
//   - lodDistance: LOD distance of the drawable
//   - quality: current material quality level
//   - sm3: whether the backend supports SM3 techniques
//
// Returns:
//   - *Technique: the selected technique, nil when entries is empty
func SelectTechnique(entries []TechniqueEntry, lodDistance float32, quality int, sm3 bool) *Technique {
	if len(entries) == 0 {
		return nil
	}
	for _, entry := range entries {
		tech := entry.Technique
		if tech == nil || (tech.SM3 && !sm3) || quality < entry.QualityLevel {
			continue
		}
		if lodDistance >= entry.LodDistance {
			return tech
		}
	}
	return entries[len(entries)-1].Technique
}
