package graphics

import (
	"fmt"
	"maps"

	"github.com/Carmen-Shannon/oxy-view/common"
)

// CommandKind identifies a recorded command.
type CommandKind int

const (
	CommandBeginFrame CommandKind = iota
	CommandEndFrame
	CommandClear
	CommandDraw
	CommandDrawInstanced
	CommandInstanceData
)

// State is a snapshot of the render state a Recorder tracks.
type State struct {
	RenderTargets  [MaxRenderTargets]RenderSurface
	DepthStencil   RenderSurface
	Viewport       common.IntRect
	BlendMode      BlendMode
	AlphaTest      bool
	ColorWrite     bool
	CullMode       CullMode
	ConstantBias   float32
	SlopeBias      float32
	DepthTest      CompareMode
	DepthWrite     bool
	FillMode       FillMode
	ScissorTest    bool
	ScissorRect    common.Rect
	StencilTest    bool
	StencilMode    CompareMode
	StencilPass    StencilOp
	StencilFail    StencilOp
	StencilZFail   StencilOp
	StencilRef     uint32
	StencilCompare uint32
	StencilWrite   uint32
	VertexShader   *ShaderVariation
	PixelShader    *ShaderVariation
	Textures       [MaxTextureUnits]Texture
}

// Command is one recorded call with the state in effect when it was issued.
type Command struct {
	Kind          CommandKind
	State         State
	Geometry      *Geometry
	InstanceStart int
	InstanceCount int
	ClearFlags    ClearFlags
	ClearColor    [4]float32
	Params        map[ShaderParam][]float32
}

// Recorder is a headless Graphics backend that records every clear and draw along with
// the state snapshot in effect. It is used for tests and for running the pipeline
// without a GPU.
type Recorder struct {
	caps         Capabilities
	width        int
	height       int
	state        State
	params       map[ShaderParam][]float32
	commands     []Command
	instanceData []float32
	textures     []Texture
}

var _ Graphics = &Recorder{}

// NewRecorder creates a Recorder with the given back buffer size and capabilities.
//
// Parameters:
//   - width, height: back buffer size in pixels
//   - caps: capabilities to report
//
// Returns:
//   - *Recorder: the recorder
func NewRecorder(width, height int, caps Capabilities) *Recorder {
	r := &Recorder{
		caps:   caps,
		width:  width,
		height: height,
		params: make(map[ShaderParam][]float32),
	}
	r.ResetRenderTargets()
	r.state.ColorWrite = true
	r.state.DepthWrite = true
	r.state.DepthTest = CompareLessEqual
	return r
}

// Commands returns every recorded command in order.
func (r *Recorder) Commands() []Command {
	return r.commands
}

// Draws returns the recorded draw and instanced draw commands in order.
func (r *Recorder) Draws() []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Kind == CommandDraw || c.Kind == CommandDrawInstanced {
			out = append(out, c)
		}
	}
	return out
}

// Reset drops recorded commands but keeps the current state.
func (r *Recorder) Reset() {
	r.commands = r.commands[:0]
}

// InstanceData returns the last uploaded instance data.
func (r *Recorder) InstanceData() []float32 {
	return r.instanceData
}

// State returns the current render state.
func (r *Recorder) State() State {
	return r.state
}

// Parameter returns the current value of a shader parameter.
func (r *Recorder) Parameter(p ShaderParam) ([]float32, bool) {
	v, ok := r.params[p]
	return v, ok
}

// SetSize changes the back buffer size.
func (r *Recorder) SetSize(width, height int) {
	r.width, r.height = width, height
}

func (r *Recorder) Capabilities() Capabilities {
	return r.caps
}

func (r *Recorder) Width() int {
	return r.width
}

func (r *Recorder) Height() int {
	return r.height
}

func (r *Recorder) BeginFrame() error {
	r.record(Command{Kind: CommandBeginFrame})
	return nil
}

func (r *Recorder) EndFrame() {
	r.record(Command{Kind: CommandEndFrame})
}

func (r *Recorder) CreateTexture(desc TextureDescriptor) (Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if r.caps.MaxTextureSize > 0 && (desc.Width > r.caps.MaxTextureSize || desc.Height > r.caps.MaxTextureSize) {
		return nil, fmt.Errorf("texture %q exceeds max size %d", desc.Name, r.caps.MaxTextureSize)
	}
	t := NewBaseTexture(desc)
	r.textures = append(r.textures, t)
	return t, nil
}

func (r *Recorder) SetRenderTarget(index int, surface RenderSurface) {
	if index < 0 || index >= MaxRenderTargets {
		return
	}
	r.state.RenderTargets[index] = surface
	if index == 0 {
		r.state.Viewport = common.IntRect{Right: r.targetWidth(), Bottom: r.targetHeight()}
	}
}

func (r *Recorder) SetDepthStencil(surface RenderSurface) {
	r.state.DepthStencil = surface
}

func (r *Recorder) ResetRenderTargets() {
	r.state.RenderTargets = [MaxRenderTargets]RenderSurface{}
	r.state.DepthStencil = nil
	r.state.Viewport = common.IntRect{Right: r.width, Bottom: r.height}
}

func (r *Recorder) RenderTarget(index int) RenderSurface {
	if index < 0 || index >= MaxRenderTargets {
		return nil
	}
	return r.state.RenderTargets[index]
}

func (r *Recorder) DepthStencil() RenderSurface {
	return r.state.DepthStencil
}

func (r *Recorder) SetViewport(rect common.IntRect) {
	r.state.Viewport = rect
}

func (r *Recorder) Viewport() common.IntRect {
	return r.state.Viewport
}

func (r *Recorder) Clear(flags ClearFlags, color [4]float32, depth float32, stencil uint32) {
	r.record(Command{Kind: CommandClear, ClearFlags: flags, ClearColor: color})
}

func (r *Recorder) SetBlendMode(mode BlendMode) {
	r.state.BlendMode = mode
}

func (r *Recorder) SetAlphaTest(enable bool, mode CompareMode, ref float32) {
	r.state.AlphaTest = enable
}

func (r *Recorder) SetColorWrite(enable bool) {
	r.state.ColorWrite = enable
}

func (r *Recorder) SetCullMode(mode CullMode) {
	r.state.CullMode = mode
}

func (r *Recorder) SetDepthBias(constantBias, slopeScaledBias float32) {
	r.state.ConstantBias = constantBias
	r.state.SlopeBias = slopeScaledBias
}

func (r *Recorder) SetDepthTest(mode CompareMode) {
	r.state.DepthTest = mode
}

func (r *Recorder) SetDepthWrite(enable bool) {
	r.state.DepthWrite = enable
}

func (r *Recorder) SetFillMode(mode FillMode) {
	r.state.FillMode = mode
}

func (r *Recorder) SetScissorTest(enable bool, rect common.Rect, borderInclusive bool) {
	r.state.ScissorTest = enable
	if enable {
		r.state.ScissorRect = rect
	}
}

func (r *Recorder) SetStencilTest(enable bool, mode CompareMode, pass, fail, zFail StencilOp, ref, compareMask, writeMask uint32) {
	r.state.StencilTest = enable
	if !enable {
		return
	}
	r.state.StencilMode = mode
	r.state.StencilPass = pass
	r.state.StencilFail = fail
	r.state.StencilZFail = zFail
	r.state.StencilRef = ref
	r.state.StencilCompare = compareMask
	r.state.StencilWrite = writeMask
}

func (r *Recorder) SetShaders(vs, ps *ShaderVariation) {
	r.state.VertexShader = vs
	r.state.PixelShader = ps
}

func (r *Recorder) SetShaderParameter(param ShaderParam, values []float32) {
	r.params[param] = append([]float32(nil), values...)
}

func (r *Recorder) SetTexture(unit TextureUnit, tex Texture) {
	if unit < 0 || unit >= MaxTextureUnits {
		return
	}
	r.state.Textures[unit] = tex
}

func (r *Recorder) SetInstanceData(data []float32) {
	r.instanceData = append(r.instanceData[:0], data...)
	r.record(Command{Kind: CommandInstanceData, InstanceCount: len(data) / 12})
}

func (r *Recorder) Draw(geometry *Geometry) {
	if geometry.IsEmpty() {
		return
	}
	r.record(Command{Kind: CommandDraw, Geometry: geometry, Params: maps.Clone(r.params)})
}

func (r *Recorder) DrawInstanced(geometry *Geometry, start, count int) {
	if geometry.IsEmpty() || count <= 0 {
		return
	}
	r.record(Command{
		Kind:          CommandDrawInstanced,
		Geometry:      geometry,
		InstanceStart: start,
		InstanceCount: count,
		Params:        maps.Clone(r.params),
	})
}

func (r *Recorder) record(c Command) {
	c.State = r.state
	r.commands = append(r.commands, c)
}

func (r *Recorder) targetWidth() int {
	if rt := r.state.RenderTargets[0]; rt != nil {
		return rt.Width()
	}
	return r.width
}

func (r *Recorder) targetHeight() int {
	if rt := r.state.RenderTargets[0]; rt != nil {
		return rt.Height()
	}
	return r.height
}
