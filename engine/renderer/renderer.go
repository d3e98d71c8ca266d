package renderer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/debug"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
	"github.com/Carmen-Shannon/oxy-view/engine/profiler"
)

func logger() *slog.Logger {
	return common.ComponentLogger("renderer")
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	graphics graphics.Graphics
	settings Settings
	pool     worker.DynamicWorkerPool

	shaders          *shaderLibrary
	geometries       lightGeometries
	shadowMaps       *shadowMapPool
	occlusionBuffers *occlusionPool
	gBuffer          gBuffer

	defaultZone     *drawable.Zone
	defaultMaterial material.Material
	rampTexture     graphics.Texture
	spotTexture     graphics.Texture

	viewports        []*Viewport
	surfaceViewports map[graphics.RenderSurface]*Viewport

	views       []*View
	numViews    int
	frameNumber uint32
	elapsedTime float32

	// reportedTargets holds the render targets already reported as larger than the G-buffer.
	reportedTargets sync.Map

	auxMu     *sync.Mutex
	auxQueue  []viewRequest
	auxQueued map[graphics.RenderSurface]struct{}

	instanceData []float32

	profiler *profiler.Profiler
}

// viewRequest is a render target and the viewport to render into it.
type viewRequest struct {
	target   graphics.RenderSurface
	viewport *Viewport
}

// Renderer defines the interface for the view rendering subsystem.
//
// A Renderer owns the resources shared by all views of a frame: shadow maps, occlusion
// buffers, the G-buffer, shader variations, light volumes and the default zone and
// material. Each frame, Update builds one View per viewport (plus the auxiliary views
// render-to-texture materials ask for) and collects their batches in parallel; Render then
// draws every view sequentially on the calling goroutine.
type Renderer interface {
	// Graphics returns the backend the renderer draws with.
	//
	// Returns:
	//   - graphics.Graphics: the graphics backend
	Graphics() graphics.Graphics

	// Settings returns a copy of the settings in effect.
	//
	// Returns:
	//   - Settings: the current settings
	Settings() Settings

	// SetSettings validates and applies new settings. They take effect at the next Update;
	// a change of shadow map size releases the pooled shadow maps.
	//
	// Parameters:
	//   - s: the new settings
	//
	// Returns:
	//   - error: an error wrapping ErrInvalidSettings when s is rejected
	SetSettings(s Settings) error

	// NumViewports returns the number of back buffer viewports.
	NumViewports() int

	// SetNumViewports resizes the back buffer viewport list. New slots are empty.
	//
	// Parameters:
	//   - n: the number of viewports
	SetNumViewports(n int)

	// Viewport returns the back buffer viewport at index i, nil when out of range or unset.
	//
	// Parameters:
	//   - i: the viewport index
	//
	// Returns:
	//   - *Viewport: the viewport
	Viewport(i int) *Viewport

	// SetViewport sets the back buffer viewport at index i, growing the list if needed.
	//
	// Parameters:
	//   - i: the viewport index
	//   - vp: the viewport, nil to clear the slot
	SetViewport(i int, vp *Viewport)

	// SetSurfaceViewport attaches a viewport to a render surface. The surface is rendered
	// as an auxiliary view in frames where a visible material samples its texture.
	//
	// Parameters:
	//   - surface: the render surface of a render target texture
	//   - vp: the viewport, nil to detach
	SetSurfaceViewport(surface graphics.RenderSurface, vp *Viewport)

	// DefaultZone returns the zone used when the camera is inside no scene zone.
	DefaultZone() *drawable.Zone

	// DefaultMaterial returns the material used by batches without one.
	DefaultMaterial() material.Material

	// FrameNumber returns the number of the frame last updated.
	FrameNumber() uint32

	// Update builds and updates the views of a new frame. Views update concurrently on
	// the renderer's worker pool; Update returns once every view is done.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	Update(deltaTime float32)

	// Render draws the views built by the last Update, auxiliary views first.
	//
	// Returns:
	//   - error: an error if the backend cannot begin the frame
	Render() error

	// Views returns the views defined in the last Update in creation order. The slice
	// is only valid until the next Update.
	//
	// Returns:
	//   - []*View: the views
	Views() []*View

	// Close stops the worker pool. The renderer must not be used afterwards.
	Close()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer drawing with the given backend.
// Defaults: DefaultSettings, a default zone covering the world and a default opaque material.
//
// Parameters:
//   - g: the graphics backend, required
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoGraphics when g is nil, or an error wrapping ErrInvalidSettings
func NewRenderer(g graphics.Graphics, options ...RendererBuilderOption) (Renderer, error) {
	if g == nil {
		return nil, ErrNoGraphics
	}
	r := &renderer{
		mu:               &sync.Mutex{},
		graphics:         g,
		settings:         DefaultSettings(),
		geometries:       newLightGeometries(),
		shadowMaps:       newShadowMapPool(),
		occlusionBuffers: newOcclusionPool(),
		surfaceViewports: make(map[graphics.RenderSurface]*Viewport),
		auxMu:            &sync.Mutex{},
		auxQueued:        make(map[graphics.RenderSurface]struct{}),
	}
	for _, opt := range options {
		opt(r)
	}
	if err := r.settings.Validate(); err != nil {
		return nil, err
	}

	if r.shaders == nil {
		r.shaders = newShaderLibrary(nil)
	}
	if r.defaultZone == nil {
		r.defaultZone = newDefaultZone()
	}
	if r.defaultMaterial == nil {
		r.defaultMaterial = newDefaultMaterial()
	}
	r.rampTexture, r.spotTexture = createDefaultTextures(g)
	r.pool = worker.NewDynamicWorkerPool(r.settings.Workers, 256, 1*time.Second)

	logger().Info("renderer created",
		"mode", r.settings.RenderMode.String(),
		"width", g.Width(),
		"height", g.Height(),
		"workers", r.settings.Workers)
	return r, nil
}

func (r *renderer) Graphics() graphics.Graphics {
	return r.graphics
}

func (r *renderer) Settings() Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

func (r *renderer) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ShadowMapSize != r.settings.ShadowMapSize {
		r.shadowMaps.release()
	}
	if extra := s.Workers - r.pool.GetMaxWorkers(); extra > 0 {
		r.pool.IncreaseMaxWorkers(extra)
	}
	if s.RenderMode != r.settings.RenderMode {
		logger().Info("render mode changed", "from", r.settings.RenderMode.String(), "to", s.RenderMode.String())
	}
	r.settings = s
	return nil
}

func (r *renderer) NumViewports() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewports)
}

func (r *renderer) SetNumViewports(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n = max(n, 0)
	if n <= len(r.viewports) {
		clear(r.viewports[n:])
		r.viewports = r.viewports[:n]
		return
	}
	r.viewports = append(r.viewports, make([]*Viewport, n-len(r.viewports))...)
}

func (r *renderer) Viewport(i int) *Viewport {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.viewports) {
		return nil
	}
	return r.viewports[i]
}

func (r *renderer) SetViewport(i int, vp *Viewport) {
	if i < 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i >= len(r.viewports) {
		r.viewports = append(r.viewports, make([]*Viewport, i+1-len(r.viewports))...)
	}
	r.viewports[i] = vp
}

func (r *renderer) SetSurfaceViewport(surface graphics.RenderSurface, vp *Viewport) {
	if surface == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if vp == nil {
		delete(r.surfaceViewports, surface)
		return
	}
	r.surfaceViewports[surface] = vp
}

func (r *renderer) DefaultZone() *drawable.Zone {
	return r.defaultZone
}

func (r *renderer) DefaultMaterial() material.Material {
	return r.defaultMaterial
}

func (r *renderer) FrameNumber() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameNumber
}

func (r *renderer) Update(deltaTime float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frameNumber++
	r.elapsedTime += deltaTime
	r.shadowMaps.reset()
	r.occlusionBuffers.reset()
	r.numViews = 0

	r.auxMu.Lock()
	r.auxQueue = r.auxQueue[:0]
	clear(r.auxQueued)
	r.auxMu.Unlock()

	frame := drawable.FrameInfo{TimeStep: deltaTime, FrameNumber: r.frameNumber}

	var requests []viewRequest
	for _, vp := range r.viewports {
		if vp != nil && vp.Scene != nil && vp.Camera != nil {
			requests = append(requests, viewRequest{viewport: vp})
		}
	}

	defer r.profiler.Block("UpdateViews")()
	for len(requests) > 0 {
		round := make([]*View, 0, len(requests))
		for _, req := range requests {
			v := r.viewAt(r.numViews)
			if !v.Define(req.target, req.viewport) {
				continue
			}
			r.numViews++
			round = append(round, v)
		}
		r.updateViews(round, frame)
		requests = r.takeAuxRequests()
	}

	if r.settings.DrawDebugGeometry {
		r.drawDebugGeometry()
	}
}

// updateViews runs View.Update for every view on the worker pool and waits for all of them.
func (r *renderer) updateViews(views []*View, frame drawable.FrameInfo) {
	if len(views) == 1 {
		views[0].Update(frame)
		return
	}
	wg := sync.WaitGroup{}
	for i, v := range views {
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				v.Update(frame)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// viewAt returns the reusable view at index i, creating it on first use. Views persist
// across frames so per-view state such as the temporal AA history survives.
func (r *renderer) viewAt(i int) *View {
	for len(r.views) <= i {
		r.views = append(r.views, newView(r))
	}
	return r.views[i]
}

// addAuxView queues the viewport attached to a render surface for rendering this frame.
// Called by views while they update; each surface is queued at most once per frame.
func (r *renderer) addAuxView(surface graphics.RenderSurface) {
	vp, ok := r.surfaceViewports[surface]
	if !ok || vp == nil || vp.Scene == nil || vp.Camera == nil {
		return
	}
	r.auxMu.Lock()
	defer r.auxMu.Unlock()
	if _, queued := r.auxQueued[surface]; queued {
		return
	}
	r.auxQueued[surface] = struct{}{}
	r.auxQueue = append(r.auxQueue, viewRequest{target: surface, viewport: vp})
}

func (r *renderer) takeAuxRequests() []viewRequest {
	r.auxMu.Lock()
	defer r.auxMu.Unlock()
	if len(r.auxQueue) == 0 {
		return nil
	}
	requests := append([]viewRequest(nil), r.auxQueue...)
	r.auxQueue = r.auxQueue[:0]
	return requests
}

// reportOversizedTarget logs a render target larger than the G-buffer once.
func (r *renderer) reportOversizedTarget(target graphics.RenderSurface, width, height int) {
	key := any(target)
	if target == nil {
		key = "backbuffer"
	}
	if _, loaded := r.reportedTargets.LoadOrStore(key, struct{}{}); loaded {
		return
	}
	logger().Warn("render target is larger than the G-buffer, can not render",
		"width", width,
		"height", height,
		"gbuffer_width", r.graphics.Width(),
		"gbuffer_height", r.graphics.Height())
}

// drawDebugGeometry adds the visible geometry bounds and light volumes of the main views
// to their scenes' debug renderers.
func (r *renderer) drawDebugGeometry() {
	seen := make(map[debug.DebugRenderer]struct{})
	for _, v := range r.views[:r.numViews] {
		if v.target != nil {
			continue
		}
		dr := v.scene.DebugRenderer()
		if dr == nil {
			continue
		}
		if _, ok := seen[dr]; ok {
			continue
		}
		seen[dr] = struct{}{}

		for _, g := range v.geometries {
			dr.AddBoundingBox(g.drawable.WorldBoundingBox(), [4]float32{0, 1, 0, 1}, true)
		}
		for _, e := range v.lights {
			l := e.light
			switch l.Type() {
			case light.LightTypeSpot:
				dr.AddFrustum(l.Frustum(), [4]float32{1, 1, 0, 1}, true)
			case light.LightTypePoint:
				dr.AddBoundingBox(l.WorldBoundingBox(), [4]float32{1, 1, 0, 1}, true)
			}
		}
	}
}

func (r *renderer) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.graphics.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	if r.settings.RenderMode == RenderModeDeferred {
		if err := r.gBuffer.ensure(r.graphics, r.graphics.Width(), r.graphics.Height(), r.settings.TemporalAA); err != nil {
			logger().Warn("G-buffer unavailable", "error", err)
		}
	}

	endRender := r.profiler.Block("RenderViews")
	// Aux views were created after the views sampling them, so render backwards.
	for i := r.numViews - 1; i >= 0; i-- {
		r.views[i].Render()
	}
	endRender()

	cleared := make(map[debug.DebugRenderer]struct{})
	for _, v := range r.views[:r.numViews] {
		if v.scene == nil {
			continue
		}
		if dr := v.scene.DebugRenderer(); dr != nil {
			if _, ok := cleared[dr]; !ok {
				cleared[dr] = struct{}{}
				dr.Clear()
			}
		}
	}

	r.graphics.EndFrame()
	return nil
}

func (r *renderer) Views() []*View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[:r.numViews]
}

func (r *renderer) Close() {
	r.pool.Stop()
}
