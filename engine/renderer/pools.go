package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/occlusion"
)

// shadowMap is one pooled depth texture with the color surface it is rendered together with.
type shadowMap struct {
	depth graphics.Texture
	color graphics.RenderSurface
}

// shadowMapPool hands out shadow maps by size. Maps are created lazily, kept across frames
// and reclaimed at the frame boundary. Views update concurrently, so every method locks.
type shadowMapPool struct {
	mu *sync.Mutex

	maps  map[int][]shadowMap
	used  map[int]int
	color map[graphics.Texture]graphics.RenderSurface
}

func newShadowMapPool() *shadowMapPool {
	return &shadowMapPool{
		mu:    &sync.Mutex{},
		maps:  make(map[int][]shadowMap),
		used:  make(map[int]int),
		color: make(map[graphics.Texture]graphics.RenderSurface),
	}
}

// reset returns every map to the pool.
func (p *shadowMapPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.used)
}

// release drops every map, for example after the shadow map size setting changed.
func (p *shadowMapPool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.maps)
	clear(p.used)
	clear(p.color)
}

// acquire returns a shadow map for a light's shadow resolution, nil when the per-size budget
// is spent or the backend cannot create one. With reuse every request of one size gets the
// same map, since each light's map is rendered right before the light.
//
// Parameters:
//   - g: the graphics backend used to create missing maps
//   - settings: the renderer settings in effect for the frame
//   - resolution: the light's shadow resolution fraction
//
// Returns:
//   - graphics.Texture: the shadow map, nil when none is available
func (p *shadowMapPool) acquire(g graphics.Graphics, settings Settings, resolution float32) graphics.Texture {
	size := settings.shadowMapSizeFor(resolution)
	if maxSize := g.Capabilities().MaxTextureSize; maxSize > 0 {
		size = min(size, maxSize)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if settings.ReuseShadowMaps {
		if len(p.maps[size]) > 0 {
			return p.maps[size][0].depth
		}
	} else if p.used[size] < len(p.maps[size]) {
		m := p.maps[size][p.used[size]]
		p.used[size]++
		return m.depth
	}

	if len(p.maps[size]) >= settings.MaxShadowMaps {
		return nil
	}
	m, err := createShadowMap(g, size, len(p.maps[size]))
	if err != nil {
		logger().Warn("shadow map allocation failed", "size", size, "error", err)
		return nil
	}
	p.maps[size] = append(p.maps[size], m)
	p.color[m.depth] = m.color
	if !settings.ReuseShadowMaps {
		p.used[size]++
	}
	return m.depth
}

// colorSurface returns the color surface bound while rendering into a shadow map.
func (p *shadowMapPool) colorSurface(depth graphics.Texture) graphics.RenderSurface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.color[depth]
}

// count returns the number of maps of one size that exist.
func (p *shadowMapPool) count(size int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.maps[size])
}

func createShadowMap(g graphics.Graphics, size, index int) (shadowMap, error) {
	format := g.Capabilities().ShadowMapFormat
	if !format.IsDepth() {
		format = graphics.FormatDepth32F
	}
	depth, err := g.CreateTexture(graphics.TextureDescriptor{
		Name:         fmt.Sprintf("ShadowMap_%d_%d", size, index),
		Width:        size,
		Height:       size,
		Format:       format,
		RenderTarget: true,
	})
	if err != nil {
		return shadowMap{}, fmt.Errorf("create shadow map: %w", err)
	}
	color, err := g.CreateTexture(graphics.TextureDescriptor{
		Name:         fmt.Sprintf("ShadowMapColor_%d_%d", size, index),
		Width:        size,
		Height:       size,
		Format:       graphics.FormatRGBA8,
		RenderTarget: true,
	})
	if err != nil {
		return shadowMap{}, fmt.Errorf("create shadow map color surface: %w", err)
	}
	surface := color.RenderSurface()
	surface.SetLinkedDepthStencil(depth.RenderSurface())
	return shadowMap{depth: depth, color: surface}, nil
}

// occlusionPool hands out software occlusion buffers. A buffer is owned by one view from
// checkout until the next frame boundary.
type occlusionPool struct {
	mu      *sync.Mutex
	buffers []occlusion.OcclusionBuffer
	used    int
}

func newOcclusionPool() *occlusionPool {
	return &occlusionPool{mu: &sync.Mutex{}}
}

func (p *occlusionPool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used = 0
}

// acquire returns a cleared buffer sized for the camera's aspect ratio and set up to
// rasterize from it.
//
// Parameters:
//   - cam: the camera occluders are drawn from
//   - size: buffer width in pixels
//   - maxTriangles: the occluder triangle budget
//
// Returns:
//   - occlusion.OcclusionBuffer: the buffer
func (p *occlusionPool) acquire(cam camera.Camera, size, maxTriangles int) occlusion.OcclusionBuffer {
	p.mu.Lock()
	if p.used == len(p.buffers) {
		p.buffers = append(p.buffers, occlusion.NewOcclusionBuffer())
	}
	buf := p.buffers[p.used]
	p.used++
	p.mu.Unlock()

	aspect := cam.AspectRatio()
	if aspect <= 0 {
		aspect = 1
	}
	width := size
	height := max(int(float32(size)/aspect), 1)
	if buf.Width() != width || buf.Height() != height {
		buf.SetSize(width, height)
	}
	buf.SetView(cam)
	buf.SetMaxTriangles(maxTriangles)
	buf.Reset()
	return buf
}
