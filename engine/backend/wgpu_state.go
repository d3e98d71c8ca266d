package backend

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

func (b *wgpuBackend) resetTargets() {
	b.targets = [graphics.MaxRenderTargets]graphics.RenderSurface{}
	b.depthStencil = nil
	b.viewport = common.IntRect{Right: b.width, Bottom: b.height}
}

// targetSize returns the size of render target 0, the back buffer when unbound.
func (b *wgpuBackend) targetSize() (int, int) {
	if b.targets[0] != nil {
		return b.targets[0].Width(), b.targets[0].Height()
	}
	return b.width, b.height
}

func (b *wgpuBackend) SetRenderTarget(index int, surface graphics.RenderSurface) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= graphics.MaxRenderTargets {
		return
	}
	b.targets[index] = surface
	if index == 0 {
		w, h := b.targetSize()
		b.viewport = common.IntRect{Right: w, Bottom: h}
	}
}

func (b *wgpuBackend) SetDepthStencil(surface graphics.RenderSurface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depthStencil = surface
}

func (b *wgpuBackend) ResetRenderTargets() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetTargets()
}

func (b *wgpuBackend) RenderTarget(index int) graphics.RenderSurface {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= graphics.MaxRenderTargets {
		return nil
	}
	return b.targets[index]
}

func (b *wgpuBackend) DepthStencil() graphics.RenderSurface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.depthStencil
}

func (b *wgpuBackend) SetViewport(rect common.IntRect) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w, h := b.targetSize()
	b.viewport = clampViewport(rect, w, h)
	if b.pass != nil {
		b.applyViewport()
	}
}

// clampViewport keeps rect inside a target of the given size and at least one pixel large.
func clampViewport(rect common.IntRect, width, height int) common.IntRect {
	rect.Left = common.Clamp(rect.Left, 0, width-1)
	rect.Top = common.Clamp(rect.Top, 0, height-1)
	rect.Right = common.Clamp(rect.Right, rect.Left+1, width)
	rect.Bottom = common.Clamp(rect.Bottom, rect.Top+1, height)
	return rect
}

func (b *wgpuBackend) Viewport() common.IntRect {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport
}

func (b *wgpuBackend) SetBlendMode(mode graphics.BlendMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.blend = mode
}

// SetAlphaTest is ignored; WebGPU has no fixed-function alpha test and shaders discard
// themselves.
func (b *wgpuBackend) SetAlphaTest(bool, graphics.CompareMode, float32) {}

func (b *wgpuBackend) SetColorWrite(enable bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.colorWrite = enable
}

func (b *wgpuBackend) SetCullMode(mode graphics.CullMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.cull = mode
}

func (b *wgpuBackend) SetDepthBias(constantBias, slopeScaledBias float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.depthBias = depthBiasUnits(constantBias)
	b.state.slopeBias = slopeScaledBias
}

func (b *wgpuBackend) SetDepthTest(mode graphics.CompareMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.depthTest = mode
}

func (b *wgpuBackend) SetDepthWrite(enable bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.depthWrite = enable
}

// SetFillMode is ignored; WebGPU only rasterizes solid polygons.
func (b *wgpuBackend) SetFillMode(graphics.FillMode) {}

func (b *wgpuBackend) SetScissorTest(enable bool, rect common.Rect, borderInclusive bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scissorEnabled = enable
	b.scissor = rect
	b.scissorBorder = borderInclusive
	if b.pass != nil {
		b.applyScissor()
	}
}

func (b *wgpuBackend) SetStencilTest(enable bool, mode graphics.CompareMode, pass, fail, zFail graphics.StencilOp, ref, compareMask, writeMask uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state.stencil = enable
	if !enable {
		b.state.stencilCompare = graphics.CompareAlways
		b.state.stencilPass, b.state.stencilFail, b.state.stencilZFail = graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep
		return
	}
	b.state.stencilCompare = mode
	b.state.stencilPass, b.state.stencilFail, b.state.stencilZFail = pass, fail, zFail
	b.state.stencilReadMask = compareMask & 0xff
	b.state.stencilWriteMask = writeMask & 0xff
	if ref != b.stencilRef {
		b.stencilRef = ref
		if b.pass != nil {
			b.pass.SetStencilReference(ref)
		}
	}
}

func (b *wgpuBackend) SetShaders(vs, ps *graphics.ShaderVariation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vs, b.ps = vs, ps
}

func (b *wgpuBackend) SetShaderParameter(param graphics.ShaderParam, values []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params[param] = append(b.params[param][:0], values...)
}

func (b *wgpuBackend) SetTexture(unit graphics.TextureUnit, tex graphics.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if unit < 0 || unit >= graphics.MaxTextureUnits {
		return
	}
	b.textures[unit] = tex
}

func (b *wgpuBackend) SetInstanceData(data []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil || len(data) == 0 {
		return
	}
	if err := b.instances.push(b.device, b.queue, data); err != nil {
		logger().Error("upload instance data", "instances", len(data)/12, "error", err)
	}
}

// currentTargets resolves the bound surfaces to attachment views. ok is false when a
// bound surface has no GPU texture.
func (b *wgpuBackend) currentTargets() (t passTargets, ok bool) {
	if b.targets[0] == nil {
		t.colorFormats[0] = b.surfaceFormat
		t.samples = uint32(b.sampleCount)
		if b.msaaTarget != nil {
			t.colors[0] = b.msaaTarget.view
			t.resolve = b.frameView
		} else {
			t.colors[0] = b.frameView
		}
		t.colorCount = 1
		t.width, t.height = b.width, b.height
	} else {
		for i, surface := range b.targets {
			if surface == nil {
				break
			}
			g := gpuSurfaceOf(surface)
			if g == nil {
				return t, false
			}
			t.colors[i] = g.view
			t.colorFormats[i] = g.format
			t.colorCount = i + 1
		}
		t.samples = 1
		t.width, t.height = b.targets[0].Width(), b.targets[0].Height()
	}

	depth := b.depthStencil
	if depth == nil && b.targets[0] != nil {
		depth = b.targets[0].LinkedDepthStencil()
	}
	switch {
	case depth != nil:
		g := gpuSurfaceOf(depth)
		if g == nil {
			return t, false
		}
		t.depth, t.depthFormat = g.view, g.format
	case t.width == b.width && t.height == b.height && t.samples == uint32(b.sampleCount):
		t.depth, t.depthFormat = b.defaultDepth.view, b.defaultDepth.format
	}
	return t, true
}

func hasStencil(format wgpu.TextureFormat) bool {
	return format == wgpu.TextureFormatDepth24PlusStencil8
}

// passClear holds the load operations of a pass that starts with a clear.
type passClear struct {
	flags   graphics.ClearFlags
	color   [4]float32
	depth   float32
	stencil uint32
}

func (b *wgpuBackend) ensurePass() bool {
	t, ok := b.currentTargets()
	if !ok {
		return false
	}
	if b.pass != nil && b.passTargets == t {
		return true
	}
	b.endPass()
	b.beginPass(t, passClear{})
	return true
}

func (b *wgpuBackend) beginPass(t passTargets, clear passClear) {
	colors := make([]wgpu.RenderPassColorAttachment, t.colorCount)
	for i := range colors {
		colors[i] = wgpu.RenderPassColorAttachment{
			View:    t.colors[i],
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}
		if clear.flags&graphics.ClearColor != 0 {
			colors[i].LoadOp = wgpu.LoadOpClear
			colors[i].ClearValue = wgpu.Color{
				R: float64(clear.color[0]),
				G: float64(clear.color[1]),
				B: float64(clear.color[2]),
				A: float64(clear.color[3]),
			}
		}
	}
	colors[0].ResolveTarget = t.resolve

	desc := &wgpu.RenderPassDescriptor{ColorAttachments: colors}
	if t.depth != nil {
		ds := &wgpu.RenderPassDepthStencilAttachment{
			View:         t.depth,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
		if clear.flags&graphics.ClearDepth != 0 {
			ds.DepthLoadOp = wgpu.LoadOpClear
			ds.DepthClearValue = clear.depth
		}
		if hasStencil(t.depthFormat) {
			ds.StencilLoadOp = wgpu.LoadOpLoad
			ds.StencilStoreOp = wgpu.StoreOpStore
			if clear.flags&graphics.ClearStencil != 0 {
				ds.StencilLoadOp = wgpu.LoadOpClear
				ds.StencilClearValue = clear.stencil
			}
		}
		desc.DepthStencilAttachment = ds
	}

	b.pass = b.encoder.BeginRenderPass(desc)
	b.passTargets = t
	b.applyViewport()
	b.applyScissor()
	if hasStencil(t.depthFormat) {
		b.pass.SetStencilReference(b.stencilRef)
	}
}

func (b *wgpuBackend) endPass() {
	if b.pass == nil {
		return
	}
	b.pass.End()
	b.pass.Release()
	b.pass = nil
	b.passTargets = passTargets{}
}

func (b *wgpuBackend) applyViewport() {
	v := clampViewport(b.viewport, b.passTargets.width, b.passTargets.height)
	b.pass.SetViewport(float32(v.Left), float32(v.Top), float32(v.Width()), float32(v.Height()), 0, 1)
}

func (b *wgpuBackend) applyScissor() {
	w, h := b.passTargets.width, b.passTargets.height
	r := common.IntRect{Right: w, Bottom: h}
	if b.scissorEnabled {
		r = clampViewport(graphics.ScissorPixels(b.scissor, b.viewport, b.scissorBorder), w, h)
	}
	b.pass.SetScissorRect(uint32(r.Left), uint32(r.Top), uint32(r.Width()), uint32(r.Height()))
}

func (b *wgpuBackend) Clear(flags graphics.ClearFlags, color [4]float32, depth float32, stencil uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil || flags == 0 {
		return
	}
	t, ok := b.currentTargets()
	if !ok {
		return
	}
	if t.depth == nil {
		flags &^= graphics.ClearDepth | graphics.ClearStencil
	} else if !hasStencil(t.depthFormat) {
		flags &^= graphics.ClearStencil
	}
	if flags == 0 {
		return
	}

	// A clear of the whole target restarts the pass with clearing load operations. Partial
	// clears draw a quad over the viewport.
	if b.viewport == (common.IntRect{Right: t.width, Bottom: t.height}) {
		b.endPass()
		b.beginPass(t, passClear{flags: flags, color: color, depth: depth, stencil: stencil})
		return
	}
	if !b.ensurePass() {
		return
	}
	b.drawClearQuad(flags, color, depth, stencil)
}

func (b *wgpuBackend) Draw(geometry *graphics.Geometry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draw(geometry, 0, 0, false)
}

func (b *wgpuBackend) DrawInstanced(geometry *graphics.Geometry, start, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if count <= 0 {
		return
	}
	b.draw(geometry, start, count, true)
}

func (b *wgpuBackend) draw(geometry *graphics.Geometry, start, count int, instanced bool) {
	if b.encoder == nil || geometry.IsEmpty() {
		return
	}
	if b.vs == nil || b.ps == nil || b.vs.Source == "" || b.ps.Source == "" {
		return
	}
	if !b.ensurePass() {
		return
	}

	textures := b.textureKinds()
	pipeline := b.renderPipeline(geometry, instanced, textures)
	if pipeline == nil {
		return
	}
	buffers, err := b.resources.geometryBuffers(b.device, b.queue, geometry, b.frame)
	if err != nil {
		logger().Error("upload geometry", "geometry", geometry.Name, "error", err)
		return
	}
	offset, err := b.uniforms.push(b.device, b.queue, b.layout, b.params)
	if err != nil {
		logger().Error("upload shader parameters", "error", err)
		return
	}
	textureGroup, err := b.textureBindGroup(textures)
	if err != nil {
		logger().Error("create texture bind group", "error", err)
		return
	}

	b.pass.SetPipeline(pipeline)
	b.pass.SetBindGroup(0, b.uniforms.bindGroup, []uint32{offset})
	b.pass.SetBindGroup(1, textureGroup, nil)
	b.pass.SetVertexBuffer(0, buffers.vertex, 0, wgpu.WholeSize)
	b.pass.SetIndexBuffer(buffers.index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)

	instances := uint32(1)
	if instanced {
		buf, off, size, ok := b.instances.slice(start, count)
		if !ok {
			logger().Warn("instanced draw outside instance data", "geometry", geometry.Name, "start", start, "count", count)
			return
		}
		b.pass.SetVertexBuffer(1, buf, off, size)
		instances = uint32(count)
	}
	b.pass.DrawIndexed(uint32(geometry.IndexCount), instances, uint32(geometry.IndexStart), 0, 0)
}
