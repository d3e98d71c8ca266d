package backend

import (
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// textureLayoutKey is the binding kind of every texture unit.
type textureLayoutKey [graphics.MaxTextureUnits]textureKind

type pipelineKey struct {
	vs, ps       *graphics.ShaderVariation
	colorFormats [graphics.MaxRenderTargets]wgpu.TextureFormat
	colorCount   int
	depthFormat  wgpu.TextureFormat
	samples      uint32
	stride       int
	instanced    bool
	primitive    graphics.PrimitiveType
	textures     textureLayoutKey
	state        renderState
}

type clearKey struct {
	colorFormats [graphics.MaxRenderTargets]wgpu.TextureFormat
	colorCount   int
	depthFormat  wgpu.TextureFormat
	samples      uint32
	flags        graphics.ClearFlags
}

// pipelineCache owns every pipeline object. Failed creations are cached as nil so they are
// reported once.
type pipelineCache struct {
	modules       map[*graphics.ShaderVariation]*wgpu.ShaderModule
	pipelines     map[pipelineKey]*wgpu.RenderPipeline
	clears        map[clearKey]*wgpu.RenderPipeline
	layouts       map[textureLayoutKey]*wgpu.PipelineLayout
	textureGroups map[textureLayoutKey]*wgpu.BindGroupLayout
	uniformGroup  *wgpu.BindGroupLayout
	clearLayout   *wgpu.PipelineLayout
	clearModules  map[int]*wgpu.ShaderModule
}

func (c *pipelineCache) init() {
	c.modules = make(map[*graphics.ShaderVariation]*wgpu.ShaderModule)
	c.pipelines = make(map[pipelineKey]*wgpu.RenderPipeline)
	c.clears = make(map[clearKey]*wgpu.RenderPipeline)
	c.layouts = make(map[textureLayoutKey]*wgpu.PipelineLayout)
	c.textureGroups = make(map[textureLayoutKey]*wgpu.BindGroupLayout)
	c.clearModules = make(map[int]*wgpu.ShaderModule)
}

func (c *pipelineCache) release() {
	for _, p := range c.pipelines {
		if p != nil {
			p.Release()
		}
	}
	for _, p := range c.clears {
		if p != nil {
			p.Release()
		}
	}
	for _, l := range c.layouts {
		l.Release()
	}
	for _, l := range c.textureGroups {
		l.Release()
	}
	for _, m := range c.modules {
		if m != nil {
			m.Release()
		}
	}
	for _, m := range c.clearModules {
		m.Release()
	}
	if c.clearLayout != nil {
		c.clearLayout.Release()
	}
	if c.uniformGroup != nil {
		c.uniformGroup.Release()
	}
	c.init()
	c.clearLayout, c.uniformGroup = nil, nil
}

// createSharedResources creates the parameter block layout and the objects every frame
// relies on.
func (b *wgpuBackend) createSharedResources() error {
	group, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "parameter block",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   0,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("create parameter block layout: %w", err)
	}
	b.pipelines.uniformGroup = group

	b.pipelines.clearLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "clear",
		BindGroupLayouts: []*wgpu.BindGroupLayout{group},
	})
	if err != nil {
		return fmt.Errorf("create clear pipeline layout: %w", err)
	}

	if err := b.uniforms.allocate(b.device, group, b.layout, b.uniforms.initialSize); err != nil {
		return fmt.Errorf("create parameter buffer: %w", err)
	}
	if err := b.resources.createDefaults(b); err != nil {
		return fmt.Errorf("create default textures: %w", err)
	}
	return nil
}

// textureKinds returns the binding kind of every unit for the bound textures. Empty units
// are filterable and get the placeholder texture.
func (b *wgpuBackend) textureKinds() textureLayoutKey {
	var key textureLayoutKey
	for unit, tex := range b.textures {
		if tex != nil {
			key[unit] = kindOf(tex.Format())
		}
	}
	return key
}

func (b *wgpuBackend) textureGroupLayout(key textureLayoutKey) (*wgpu.BindGroupLayout, error) {
	if l, ok := b.pipelines.textureGroups[key]; ok {
		return l, nil
	}
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 2*graphics.MaxTextureUnits)
	for unit, kind := range key {
		e := textureLayoutEntries(unit, kind)
		entries = append(entries, e[0], e[1])
	}
	l, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "textures",
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	b.pipelines.textureGroups[key] = l
	return l, nil
}

func (b *wgpuBackend) pipelineLayout(key textureLayoutKey) (*wgpu.PipelineLayout, error) {
	if l, ok := b.pipelines.layouts[key]; ok {
		return l, nil
	}
	textures, err := b.textureGroupLayout(key)
	if err != nil {
		return nil, err
	}
	l, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "batch",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.pipelines.uniformGroup, textures},
	})
	if err != nil {
		return nil, err
	}
	b.pipelines.layouts[key] = l
	return l, nil
}

func (b *wgpuBackend) shaderModule(v *graphics.ShaderVariation) *wgpu.ShaderModule {
	if m, ok := b.pipelines.modules[v]; ok {
		return m
	}
	m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          v.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: v.Source},
	})
	if err != nil {
		logger().Error("compile shader", "shader", v.Name, "error", err)
		m = nil
	}
	b.pipelines.modules[v] = m
	return m
}

func entryPoint(v *graphics.ShaderVariation) string {
	if v.Type == graphics.ShaderTypeVertex {
		return common.Coalesce(v.EntryPoint, "vs_main")
	}
	return common.Coalesce(v.EntryPoint, "fs_main")
}

func (b *wgpuBackend) renderPipeline(geometry *graphics.Geometry, instanced bool, textures textureLayoutKey) *wgpu.RenderPipeline {
	t := b.passTargets
	state := b.state
	if t.depth == nil {
		state.depthTest, state.depthWrite = graphics.CompareAlways, false
		state.depthBias, state.slopeBias = 0, 0
	}
	if !hasStencil(t.depthFormat) {
		state.stencil = false
	}
	if !state.stencil {
		state.stencilCompare = graphics.CompareAlways
		state.stencilPass, state.stencilFail, state.stencilZFail = graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep
		state.stencilReadMask, state.stencilWriteMask = 0xff, 0xff
	}

	key := pipelineKey{
		vs:           b.vs,
		ps:           b.ps,
		colorFormats: t.colorFormats,
		colorCount:   t.colorCount,
		depthFormat:  t.depthFormat,
		samples:      t.samples,
		stride:       geometry.VertexStride,
		instanced:    instanced,
		primitive:    geometry.Primitive,
		textures:     textures,
		state:        state,
	}
	if p, ok := b.pipelines.pipelines[key]; ok {
		return p
	}

	p, err := b.createRenderPipeline(key)
	if err != nil {
		logger().Error("create pipeline", "vs", key.vs.Name, "ps", key.ps.Name, "error", err)
		p = nil
	}
	b.pipelines.pipelines[key] = p
	return p
}

func (b *wgpuBackend) createRenderPipeline(key pipelineKey) (*wgpu.RenderPipeline, error) {
	vs, ps := b.shaderModule(key.vs), b.shaderModule(key.ps)
	if vs == nil || ps == nil {
		return nil, fmt.Errorf("shader %q or %q did not compile", key.vs.Name, key.ps.Name)
	}
	layout, err := b.pipelineLayout(key.textures)
	if err != nil {
		return nil, err
	}

	writeMask := wgpu.ColorWriteMaskNone
	if key.state.colorWrite {
		writeMask = wgpu.ColorWriteMaskAll
	}
	targets := make([]wgpu.ColorTargetState, key.colorCount)
	for i := range targets {
		targets[i] = wgpu.ColorTargetState{
			Format:    key.colorFormats[i],
			Blend:     blendState(key.state.blend),
			WriteMask: writeMask,
		}
	}

	return b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  key.vs.Name + "/" + key.ps.Name,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: entryPoint(key.vs),
			Buffers:    vertexLayouts(key.stride, key.instanced),
		},
		Fragment: &wgpu.FragmentState{
			Module:     ps,
			EntryPoint: entryPoint(key.ps),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topologies[key.primitive],
			FrontFace: wgpu.FrontFaceCW,
			CullMode:  cullModes[key.state.cull],
		},
		Multisample: wgpu.MultisampleState{
			Count: key.samples,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencilState(key.depthFormat, key.state),
	})
}

func depthStencilState(format wgpu.TextureFormat, s renderState) *wgpu.DepthStencilState {
	if format == wgpu.TextureFormatUndefined {
		return nil
	}
	face := wgpu.StencilFaceState{
		Compare:     compareFunctions[s.stencilCompare],
		FailOp:      stencilOperations[s.stencilFail],
		DepthFailOp: stencilOperations[s.stencilZFail],
		PassOp:      stencilOperations[s.stencilPass],
	}
	ds := &wgpu.DepthStencilState{
		Format:              format,
		DepthWriteEnabled:   s.depthWrite,
		DepthCompare:        compareFunctions[s.depthTest],
		StencilFront:        face,
		StencilBack:         face,
		DepthBias:           s.depthBias,
		DepthBiasSlopeScale: s.slopeBias,
	}
	if hasStencil(format) {
		ds.StencilReadMask = s.stencilReadMask
		ds.StencilWriteMask = s.stencilWriteMask
	}
	return ds
}

// clearShader returns the WGSL of the quad that clears colorCount targets to a color and
// writes a depth value.
func clearShader(colorCount int) string {
	var sb strings.Builder
	sb.WriteString(`struct ClearParams {
    color: vec4<f32>,
    depth: vec4<f32>,
};

@group(0) @binding(0) var<uniform> params: ClearParams;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, params.depth.x, 1.0);
}

struct ClearOutput {
`)
	for i := 0; i < colorCount; i++ {
		fmt.Fprintf(&sb, "    @location(%d) color%d: vec4<f32>,\n", i, i)
	}
	sb.WriteString("};\n\n@fragment\nfn fs_main() -> ClearOutput {\n    var out: ClearOutput;\n")
	for i := 0; i < colorCount; i++ {
		fmt.Fprintf(&sb, "    out.color%d = params.color;\n", i)
	}
	sb.WriteString("    return out;\n}\n")
	return sb.String()
}

func (b *wgpuBackend) clearPipeline(key clearKey) *wgpu.RenderPipeline {
	if p, ok := b.pipelines.clears[key]; ok {
		return p
	}
	p, err := b.createClearPipeline(key)
	if err != nil {
		logger().Error("create clear pipeline", "targets", key.colorCount, "error", err)
		p = nil
	}
	b.pipelines.clears[key] = p
	return p
}

func (b *wgpuBackend) createClearPipeline(key clearKey) (*wgpu.RenderPipeline, error) {
	module, ok := b.pipelines.clearModules[key.colorCount]
	if !ok {
		var err error
		module, err = b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label:          "clear",
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: clearShader(key.colorCount)},
		})
		if err != nil {
			return nil, err
		}
		b.pipelines.clearModules[key.colorCount] = module
	}

	writeMask := wgpu.ColorWriteMaskNone
	if key.flags&graphics.ClearColor != 0 {
		writeMask = wgpu.ColorWriteMaskAll
	}
	targets := make([]wgpu.ColorTargetState, key.colorCount)
	for i := range targets {
		targets[i] = wgpu.ColorTargetState{Format: key.colorFormats[i], WriteMask: writeMask}
	}

	state := renderState{
		depthTest:        graphics.CompareAlways,
		depthWrite:       key.flags&graphics.ClearDepth != 0,
		stencilCompare:   graphics.CompareAlways,
		stencilReadMask:  0xff,
		stencilWriteMask: 0xff,
	}
	if key.flags&graphics.ClearStencil != 0 {
		state.stencilPass = graphics.StencilRef
	}

	return b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "clear",
		Layout: b.pipelines.clearLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: key.samples,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencilState(key.depthFormat, state),
	})
}

// drawClearQuad clears the viewport of the open pass by drawing over it.
func (b *wgpuBackend) drawClearQuad(flags graphics.ClearFlags, color [4]float32, depth float32, stencil uint32) {
	t := b.passTargets
	pipeline := b.clearPipeline(clearKey{
		colorFormats: t.colorFormats,
		colorCount:   t.colorCount,
		depthFormat:  t.depthFormat,
		samples:      t.samples,
		flags:        flags,
	})
	if pipeline == nil {
		return
	}
	offset, err := b.uniforms.pushRaw(b.device, b.queue, b.layout, []float32{
		color[0], color[1], color[2], color[3],
		depth, 0, 0, 0,
	})
	if err != nil {
		logger().Error("upload clear parameters", "error", err)
		return
	}

	b.pass.SetPipeline(pipeline)
	b.pass.SetBindGroup(0, b.uniforms.bindGroup, []uint32{offset})
	if hasStencil(t.depthFormat) {
		b.pass.SetStencilReference(stencil)
	}
	b.pass.Draw(3, 1, 0, 0)
	if hasStencil(t.depthFormat) {
		b.pass.SetStencilReference(b.stencilRef)
	}
}
