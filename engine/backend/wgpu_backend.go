package backend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// evictAfterFrames is how many frames a cached geometry or bind group may go unused
// before it is released.
const evictAfterFrames = 300

var errFrameInFlight = errors.New("previous frame not yet presented")

// gpuTexture is the GPU side of a graphics.BaseTexture.
type gpuTexture struct {
	texture *wgpu.Texture
	// view is the attachment view, sampleView the view bound for sampling. They differ
	// for depth-stencil formats, which are sampled through their depth aspect.
	view       *wgpu.TextureView
	sampleView *wgpu.TextureView
	format     wgpu.TextureFormat
	samples    uint32
}

func (t *gpuTexture) release() {
	if t == nil {
		return
	}
	if t.sampleView != nil && t.sampleView != t.view {
		t.sampleView.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

type handled interface {
	Handle() any
}

func gpuTextureOf(tex graphics.Texture) *gpuTexture {
	h, ok := tex.(handled)
	if !ok {
		return nil
	}
	t, _ := h.Handle().(*gpuTexture)
	return t
}

func gpuSurfaceOf(surface graphics.RenderSurface) *gpuTexture {
	if surface == nil {
		return nil
	}
	return gpuTextureOf(surface.Parent())
}

// renderState is the fixed-function state baked into a pipeline.
type renderState struct {
	blend            graphics.BlendMode
	colorWrite       bool
	cull             graphics.CullMode
	depthTest        graphics.CompareMode
	depthWrite       bool
	depthBias        int32
	slopeBias        float32
	stencil          bool
	stencilCompare   graphics.CompareMode
	stencilPass      graphics.StencilOp
	stencilFail      graphics.StencilOp
	stencilZFail     graphics.StencilOp
	stencilReadMask  uint32
	stencilWriteMask uint32
}

// passTargets identifies the attachments of a render pass. Draws continue the open pass
// while the bound targets resolve to the same value.
type passTargets struct {
	colors        [graphics.MaxRenderTargets]*wgpu.TextureView
	colorFormats  [graphics.MaxRenderTargets]wgpu.TextureFormat
	colorCount    int
	resolve       *wgpu.TextureView
	depth         *wgpu.TextureView
	depthFormat   wgpu.TextureFormat
	samples       uint32
	width, height int
}

type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	alphaMode            wgpu.CompositeAlphaMode
	presentMode          wgpu.PresentMode
	sampleCount          MSAASampleCount
	forceFallbackAdapter bool
	width, height        int
	caps                 graphics.Capabilities

	msaaTarget   *gpuTexture
	defaultDepth *gpuTexture

	frame        uint64
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	passTargets  passTargets

	targets        [graphics.MaxRenderTargets]graphics.RenderSurface
	depthStencil   graphics.RenderSurface
	viewport       common.IntRect
	scissor        common.Rect
	scissorEnabled bool
	scissorBorder  bool
	stencilRef     uint32
	state          renderState
	vs, ps         *graphics.ShaderVariation
	params         map[graphics.ShaderParam][]float32
	textures       [graphics.MaxTextureUnits]graphics.Texture

	layout    *UniformLayout
	uniforms  uniformRing
	instances instanceStream
	resources resourceCache
	pipelines pipelineCache
}

var _ Backend = &wgpuBackend{}

// NewBackend creates a WebGPU backend rendering into the surface described by surfaceDesc.
// The calling goroutine is locked to its OS thread, which must be the one that owns the
// window.
//
// Parameters:
//   - surfaceDesc: the platform surface descriptor of the window
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: variadic list of BackendBuilderOption functions to configure the backend
//
// Returns:
//   - Backend: the configured backend
//   - error: error if no adapter or device is available
func NewBackend(surfaceDesc *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (Backend, error) {
	runtime.LockOSThread()

	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeFifo,
		sampleCount: MSAAOff,
		params:      make(map[graphics.ShaderParam][]float32),
		layout:      DefaultUniformLayout(),
		state: renderState{
			colorWrite:       true,
			cull:             graphics.CullCCW,
			depthTest:        graphics.CompareLessEqual,
			depthWrite:       true,
			stencilReadMask:  0xff,
			stencilWriteMask: 0xff,
		},
	}
	for _, option := range options {
		option(b)
	}
	b.uniforms.initialSize = common.Coalesce(b.uniforms.initialSize, defaultUniformBufferSize)

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDesc)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = adapter

	limits := wgpu.DefaultLimits()
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "oxy-view device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		b.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	b.caps = graphics.Capabilities{
		SM3:              true,
		Instancing:       true,
		StreamOffset:     true,
		FullGBufferClear: true,
		ShadowMapFormat:  graphics.FormatDepth32F,
		MaxTextureSize:   int(limits.MaxTextureDimension2D),
	}

	b.resources.init()
	b.pipelines.init()
	if err := b.createSharedResources(); err != nil {
		b.Release()
		return nil, err
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 {
		b.Release()
		return nil, errors.New("surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]

	if err := b.configure(width, height); err != nil {
		b.Release()
		return nil, err
	}
	b.resetTargets()

	logger().Info("backend ready",
		"width", width,
		"height", height,
		"format", b.surfaceFormat,
		"samples", uint32(b.sampleCount),
	)
	return b, nil
}

// configure (re)creates the swap chain, MSAA target and default depth buffer.
func (b *wgpuBackend) configure(width, height int) error {
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
	b.width, b.height = width, height

	b.msaaTarget.release()
	b.msaaTarget = nil
	samples := uint32(b.sampleCount)
	if samples > 1 {
		t, err := b.createGPUTexture("msaa target", width, height, b.surfaceFormat, samples,
			wgpu.TextureUsageRenderAttachment)
		if err != nil {
			return fmt.Errorf("create msaa target: %w", err)
		}
		b.msaaTarget = t
	}

	b.defaultDepth.release()
	b.defaultDepth = nil
	depth, err := b.createGPUTexture("default depth", width, height, wgpu.TextureFormatDepth24PlusStencil8, samples,
		wgpu.TextureUsageRenderAttachment)
	if err != nil {
		return fmt.Errorf("create default depth: %w", err)
	}
	b.defaultDepth = depth
	return nil
}

func (b *wgpuBackend) createGPUTexture(label string, width, height int, format wgpu.TextureFormat, samples uint32, usage wgpu.TextureUsage) (*gpuTexture, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	t := &gpuTexture{texture: tex, view: view, sampleView: view, format: format, samples: samples}
	if format == wgpu.TextureFormatDepth24PlusStencil8 && usage&wgpu.TextureUsageTextureBinding != 0 {
		t.sampleView, err = tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           label + " depth aspect",
			Format:          format,
			Dimension:       wgpu.TextureViewDimension2D,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 1,
			Aspect:          wgpu.TextureAspectDepthOnly,
		})
		if err != nil {
			t.sampleView = nil
			t.release()
			return nil, err
		}
	}
	return t, nil
}

func (b *wgpuBackend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width < 1 || height < 1 || (width == b.width && height == b.height) {
		return
	}
	if err := b.configure(width, height); err != nil {
		logger().Error("resize failed", "width", width, "height", height, "error", err)
		return
	}
	if b.targets[0] == nil {
		b.viewport = common.IntRect{Right: width, Bottom: height}
	}
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = presentModes[mode]
}

func (b *wgpuBackend) Capabilities() graphics.Capabilities {
	return b.caps
}

func (b *wgpuBackend) Width() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width
}

func (b *wgpuBackend) Height() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.height
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return errFrameInFlight
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("create surface view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("create command encoder: %w", err)
	}

	b.frame++
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.encoder = encoder
	b.uniforms.reset()
	b.instances.reset()
	b.resetTargets()
	return nil
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		return
	}
	b.endPass()

	commands, err := b.encoder.Finish(nil)
	if err != nil {
		logger().Error("finish command encoder", "error", err)
	} else {
		b.queue.Submit(commands)
		commands.Release()
		b.surface.Present()
	}

	b.encoder.Release()
	b.frameView.Release()
	b.frameSurface.Release()
	b.encoder = nil
	b.frameView = nil
	b.frameSurface = nil

	b.uniforms.releaseRetired()
	b.instances.releaseRetired()
	b.resources.evict(b.frame)
}

func (b *wgpuBackend) CreateTexture(desc graphics.TextureDescriptor) (graphics.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if desc.Width > b.caps.MaxTextureSize || desc.Height > b.caps.MaxTextureSize {
		return nil, fmt.Errorf("texture %q exceeds max size %d", desc.Name, b.caps.MaxTextureSize)
	}
	format, ok := textureFormats[desc.Format]
	if !ok {
		return nil, fmt.Errorf("texture %q: unsupported format %d", desc.Name, desc.Format)
	}

	usage := wgpu.TextureUsageTextureBinding
	if desc.RenderTarget {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if len(desc.Data) > 0 {
		usage |= wgpu.TextureUsageCopyDst
	}
	t, err := b.createGPUTexture(desc.Name, desc.Width, desc.Height, format, 1, usage)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Name, err)
	}
	if len(desc.Data) > 0 {
		if desc.Format != graphics.FormatRGBA8 || len(desc.Data) != desc.Width*desc.Height*4 {
			t.release()
			return nil, fmt.Errorf("texture %q: initial data must be %d RGBA8 bytes", desc.Name, desc.Width*desc.Height*4)
		}
		b.writeTexture(t.texture, desc.Width, desc.Height, desc.Data)
	}

	tex := graphics.NewBaseTexture(desc)
	tex.SetHandle(t)
	return tex, nil
}

func (b *wgpuBackend) writeTexture(tex *wgpu.Texture, width, height int, pixels []byte) {
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * 4),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass != nil {
		b.pass.End()
		b.pass.Release()
		b.pass = nil
	}
	if b.encoder != nil {
		b.encoder.Release()
		b.encoder = nil
	}
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}

	b.pipelines.release()
	b.resources.release()
	b.uniforms.release()
	b.instances.release()
	b.msaaTarget.release()
	b.defaultDepth.release()
	b.msaaTarget, b.defaultDepth = nil, nil

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
