package renderer

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

const (
	defaultRampSize = 256
	defaultSpotSize = 64
)

// newDefaultZone returns the zone used when the camera is inside no scene zone. It covers
// the whole world with the lowest possible priority.
func newDefaultZone() *drawable.Zone {
	huge := [3]float32{light.LargeValue, light.LargeValue, light.LargeValue}
	z := drawable.NewZone(common.NewBoundingBox(common.Scale3(huge, -1), huge))
	z.SetPriority(-1 << 31)
	return z
}

// newDefaultTechnique returns the technique of the default material: opaque, shadow
// casting, lit per pixel in both render modes.
func newDefaultTechnique() *material.Technique {
	light := material.NewPass(material.PassLight, "LitSolid", "LitSolid")
	light.BlendMode = graphics.BlendAdd
	light.DepthWrite = false

	return material.NewTechnique("NoTexture",
		material.NewPass(material.PassShadow, "Shadow", "Shadow"),
		material.NewPass(material.PassGBuffer, "GBuffer", "GBuffer"),
		material.NewPass(material.PassBase, "Unlit", "Unlit"),
		material.NewPass(material.PassLitBase, "LitSolid_Base", "LitSolid_Base"),
		light,
	)
}

func newDefaultMaterial() material.Material {
	return material.NewMaterial(
		material.WithName("Default"),
		material.WithTechnique(newDefaultTechnique(), material.QualityLow, 0),
	)
}

// gBuffer holds the deferred render targets, sized to the back buffer.
type gBuffer struct {
	albedo graphics.Texture
	normal graphics.Texture
	depth  graphics.Texture
	// screen are the ping-pong targets of temporal antialiasing.
	screen [2]graphics.Texture
}

func (b *gBuffer) matches(width, height int) bool {
	return b.albedo != nil && b.albedo.Width() == width && b.albedo.Height() == height
}

// ensure (re)creates the G-buffer when the back buffer size changed.
//
// Parameters:
//   - g: the graphics backend
//   - width, height: the back buffer size
//   - temporalAA: whether the screen buffers are needed
//
// Returns:
//   - error: the first texture creation failure
func (b *gBuffer) ensure(g graphics.Graphics, width, height int, temporalAA bool) error {
	if !b.matches(width, height) {
		*b = gBuffer{}
		targets := []struct {
			dst    *graphics.Texture
			name   string
			format graphics.TextureFormat
		}{
			{&b.albedo, "GBufferAlbedo", graphics.FormatRGBA8},
			{&b.normal, "GBufferNormal", graphics.FormatRGBA8},
			{&b.depth, "GBufferDepth", graphics.FormatR32F},
		}
		for _, t := range targets {
			tex, err := g.CreateTexture(graphics.TextureDescriptor{
				Name:         t.name,
				Width:        width,
				Height:       height,
				Format:       t.format,
				RenderTarget: true,
			})
			if err != nil {
				*b = gBuffer{}
				return fmt.Errorf("create %s: %w", t.name, err)
			}
			*t.dst = tex
		}
	}
	if !temporalAA || b.screen[0] != nil {
		return nil
	}
	for i := range b.screen {
		tex, err := g.CreateTexture(graphics.TextureDescriptor{
			Name:         fmt.Sprintf("ScreenBuffer_%d", i),
			Width:        width,
			Height:       height,
			Format:       graphics.FormatRGBA16F,
			RenderTarget: true,
		})
		if err != nil {
			b.screen = [2]graphics.Texture{}
			return fmt.Errorf("create screen buffer: %w", err)
		}
		b.screen[i] = tex
	}
	return nil
}

// createDefaultTextures creates the light ramp and spot shape textures assigned to lights
// that have none. Failures are logged and leave the texture nil.
func createDefaultTextures(g graphics.Graphics) (ramp, spot graphics.Texture) {
	var err error
	ramp, err = g.CreateTexture(graphics.TextureDescriptor{
		Name:   "LightRamp",
		Width:  defaultRampSize,
		Height: 1,
		Format: graphics.FormatRGBA8,
		Data:   rampPixels(defaultRampSize),
	})
	if err != nil {
		logger().Warn("default light ramp unavailable", "error", err)
	}
	spot, err = g.CreateTexture(graphics.TextureDescriptor{
		Name:   "LightSpot",
		Width:  defaultSpotSize,
		Height: defaultSpotSize,
		Format: graphics.FormatRGBA8,
		Data:   spotPixels(defaultSpotSize),
	})
	if err != nil {
		logger().Warn("default spot texture unavailable", "error", err)
	}
	return ramp, spot
}

// rampPixels is a quadratic distance attenuation from full intensity at the light to zero
// at its range.
func rampPixels(size int) []byte {
	pixels := make([]byte, size*4)
	for x := 0; x < size; x++ {
		d := float32(x) / float32(size-1)
		v := byte(255 * (1 - d) * (1 - d))
		copy(pixels[x*4:], []byte{v, v, v, 255})
	}
	return pixels
}

// spotPixels is a round spot with a soft edge.
func spotPixels(size int) []byte {
	pixels := make([]byte, size*size*4)
	half := float32(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float32(x) + 0.5 - half) / half
			dy := (float32(y) + 0.5 - half) / half
			d := math32.Sqrt(dx*dx + dy*dy)
			v := byte(255 * common.Clamp(2-2*d, 0, 1))
			copy(pixels[(y*size+x)*4:], []byte{v, v, v, 255})
		}
	}
	return pixels
}
