package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTechniqueFirstMatchWins(t *testing.T) {
	high := NewTechnique("high")
	low := NewTechnique("low")
	entries := []TechniqueEntry{
		{Technique: high, QualityLevel: QualityHigh, LodDistance: 100},
		{Technique: low, QualityLevel: QualityLow, LodDistance: 0},
	}

	got := SelectTechnique(entries, 50, QualityHigh, true)
	assert.Same(t, low, got)
	assert.Same(t, high, SelectTechnique(entries, 150, QualityHigh, true))
}

func TestSelectTechniqueSkipsUnaffordableEntries(t *testing.T) {
	sm3 := NewTechnique("sm3")
	sm3.SM3 = true
	fancy := NewTechnique("fancy")
	basic := NewTechnique("basic")

	tests := []struct {
		name    string
		entries []TechniqueEntry
		quality int
		sm3     bool
		want    *Technique
	}{
		{"nil technique skipped", []TechniqueEntry{{}, {Technique: basic}}, QualityHigh, true, basic},
		{"sm3 without support", []TechniqueEntry{{Technique: sm3}, {Technique: basic}}, QualityHigh, false, basic},
		{"sm3 with support", []TechniqueEntry{{Technique: sm3}, {Technique: basic}}, QualityHigh, true, sm3},
		{"quality too low", []TechniqueEntry{{Technique: fancy, QualityLevel: QualityHigh}, {Technique: basic}}, QualityLow, true, basic},
		{"fallback to last", []TechniqueEntry{{Technique: fancy, LodDistance: 500}, {Technique: basic, LodDistance: 200}}, QualityHigh, true, basic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, SelectTechnique(tt.entries, 10, tt.quality, tt.sm3))
		})
	}
}

func TestSelectTechniqueIsDeterministic(t *testing.T) {
	a, b := NewTechnique("a"), NewTechnique("b")
	entries := []TechniqueEntry{{Technique: a, LodDistance: 20}, {Technique: b}}
	first := SelectTechnique(entries, 30, QualityMedium, false)
	for i := 0; i < 10; i++ {
		assert.Same(t, first, SelectTechnique(entries, 30, QualityMedium, false))
	}
}

func TestSelectTechniqueEmpty(t *testing.T) {
	assert.Nil(t, SelectTechnique(nil, 0, QualityHigh, true))
}

func TestTechniquePasses(t *testing.T) {
	tech := NewTechnique("lit",
		NewPass(PassBase, "Basic", "Basic"),
		NewPass(PassLight, "Lit", "Lit"),
	)

	assert.True(t, tech.HasPass(PassBase))
	assert.False(t, tech.HasPass(PassShadow))
	assert.Equal(t, "Lit", tech.Pass(PassLight).PixelShader)
	assert.Equal(t, graphics.BlendReplace, tech.Pass(PassBase).BlendMode)

	var none *Technique
	assert.Nil(t, none.Pass(PassBase))
}

func TestMaterialAuxViewMarker(t *testing.T) {
	m := NewMaterial(WithName("mirror"))

	require.True(t, m.MarkForAuxView(3))
	assert.False(t, m.MarkForAuxView(3))
	assert.Equal(t, uint32(3), m.AuxViewFrameNumber())
	assert.True(t, m.MarkForAuxView(4))
}

func TestMaterialOptions(t *testing.T) {
	tech := NewTechnique("t")
	tex := graphics.NewBaseTexture(graphics.TextureDescriptor{Name: "diff", Width: 4, Height: 4})
	m := NewMaterial(
		WithTechnique(tech, QualityLow, 0),
		WithDiffuseColor([4]float32{1, 0, 0, 1}),
		WithTexture(graphics.TUDiffuse, tex),
		WithOcclusion(false),
	)

	assert.Same(t, tech, m.Technique(0))
	assert.Nil(t, m.Technique(1))
	assert.Equal(t, []float32{1, 0, 0, 1}, m.ShaderParameters()[graphics.PSPMatDiffColor])
	assert.Len(t, m.Textures(), 1)
	assert.False(t, m.Occlusion())
}
