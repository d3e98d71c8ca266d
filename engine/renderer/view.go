package renderer

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/batch"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
	"github.com/Carmen-Shannon/oxy-view/engine/occlusion"
	"github.com/Carmen-Shannon/oxy-view/engine/scene"
	"github.com/Carmen-Shannon/oxy-view/engine/spatial"
)

// geometryEntry is a visible geometry drawable and the values the view computed for it.
type geometryEntry struct {
	drawable drawable.Drawable
	state    drawable.ViewState
	// minZ and maxZ bound the drawable in camera view space.
	minZ, maxZ float32
	// basePass marks source batches already drawn with a lit base pass.
	basePass []bool
	// lightQueues are deferred lit queues of a drawable with a light limit.
	lightQueues []int
}

func (g *geometryEntry) hasBasePass(i int) bool {
	return i < len(g.basePass) && g.basePass[i]
}

func (g *geometryEntry) setBasePass(i, numBatches int) {
	if len(g.basePass) < numBatches {
		g.basePass = make([]bool, numBatches)
	}
	g.basePass[i] = true
}

// lightEntry is a visible light with its camera distance and importance.
type lightEntry struct {
	light    light.Light
	distance float32
	sortKey  float32
}

// casterEntry is a shadow caster and its distance state for the view camera.
type casterEntry struct {
	drawable drawable.Drawable
	state    drawable.ViewState
}

// rankedOccluder is an occluder candidate with its triangles per screen size ratio.
type rankedOccluder struct {
	drawable drawable.Drawable
	key      float32
}

// litTransparencyKey identifies a transparent source batch lit by a point light.
type litTransparencyKey struct {
	light    light.Light
	drawable drawable.Drawable
	batch    int
}

// View renders one scene through one camera into one render target. It is rebuilt every
// frame: Define binds the viewport, Update culls and collects batches, Render draws them.
// A view is reused across frames by its renderer.
type View struct {
	renderer *renderer
	graphics graphics.Graphics

	scene        scene.Scene
	index        spatial.Index
	camera       camera.Camera
	zone         *drawable.Zone
	target       graphics.RenderSurface
	depthStencil graphics.RenderSurface
	rect         common.IntRect
	width        int
	height       int
	frame        drawable.FrameInfo

	settings             Settings
	drawShadows          bool
	materialQuality      int
	maxOccluderTriangles int

	queryResult     []drawable.Drawable
	lightResult     []drawable.Drawable
	occluderResult  []drawable.Drawable
	rankedOccluders []rankedOccluder
	occluders       []drawable.Drawable
	occlusionBuffer occlusion.OcclusionBuffer

	geometries    []geometryEntry
	geometryIndex map[drawable.Drawable]int
	lights        []lightEntry
	sceneBox      common.BoundingBox
	sceneViewBox  common.BoundingBox

	splitArena       []*light.Split
	numSplits        int
	shadowCameras    []camera.Camera
	numShadowCameras int

	splits        [light.MaxLightSplits]*light.Split
	splitIndices  [light.MaxLightSplits]int
	litGeometries [light.MaxLightSplits][]int
	shadowCasters [light.MaxLightSplits][]casterEntry

	lightQueues      []*batch.LightQueue
	numLightQueues   int
	gBufferQueue     *batch.Queue
	baseQueue        *batch.Queue
	extraQueue       *batch.Queue
	transparentQueue *batch.Queue
	noShadowLights   []batch.Batch

	scissorCache     map[*light.Split]common.Rect
	originalSplits   map[light.Light]*light.Split
	litTransparent   map[litTransparencyKey]struct{}
	shaderParams     map[graphics.ShaderParam][]float32
	jitterCounter    int
	lastCameraView   [16]float32
	lastViewValid    bool
}

func newView(r *renderer) *View {
	return &View{
		renderer:         r,
		graphics:         r.graphics,
		geometryIndex:    make(map[drawable.Drawable]int),
		gBufferQueue:     batch.NewQueue(false),
		baseQueue:        batch.NewQueue(false),
		extraQueue:       batch.NewQueue(false),
		transparentQueue: batch.NewQueue(false),
		scissorCache:     make(map[*light.Split]common.Rect),
		originalSplits:   make(map[light.Light]*light.Split),
		litTransparent:   make(map[litTransparencyKey]struct{}),
		shaderParams:     make(map[graphics.ShaderParam][]float32),
	}
}

// Define binds the view to a viewport and render target for the coming frame.
//
// Parameters:
//   - target: the render surface, nil for the back buffer
//   - vp: the viewport to render
//
// Returns:
//   - bool: false when the viewport can not be rendered this frame
func (v *View) Define(target graphics.RenderSurface, vp *Viewport) bool {
	if vp == nil || vp.Scene == nil || vp.Camera == nil || vp.Scene.AsyncLoading() {
		return false
	}
	index := vp.Scene.Index()
	if index == nil {
		return false
	}

	r := v.renderer
	g := v.graphics
	targetWidth, targetHeight := g.Width(), g.Height()
	if target != nil {
		targetWidth, targetHeight = target.Width(), target.Height()
	}
	if targetWidth <= 0 || targetHeight <= 0 {
		return false
	}
	if r.settings.RenderMode == RenderModeDeferred && (targetWidth > g.Width() || targetHeight > g.Height()) {
		r.reportOversizedTarget(target, targetWidth, targetHeight)
		return false
	}

	v.scene = vp.Scene
	v.index = index
	v.camera = vp.Camera
	v.target = target
	v.depthStencil = nil
	if target != nil && r.settings.RenderMode == RenderModeForward {
		v.depthStencil = target.LinkedDepthStencil()
	}
	v.zone = r.defaultZone

	rect := vp.Rect
	if rect.IsZero() {
		rect = common.IntRect{Right: targetWidth, Bottom: targetHeight}
	} else {
		rect.Left = common.Clamp(rect.Left, 0, targetWidth-1)
		rect.Top = common.Clamp(rect.Top, 0, targetHeight-1)
		rect.Right = common.Clamp(rect.Right, rect.Left+1, targetWidth)
		rect.Bottom = common.Clamp(rect.Bottom, rect.Top+1, targetHeight)
	}
	v.rect = rect
	v.width = rect.Width()
	v.height = rect.Height()

	v.settings = r.settings
	flags := v.camera.ViewOverrideFlags()
	v.materialQuality = v.settings.MaterialQuality
	if flags&camera.ViewOverrideLowMaterialQuality != 0 {
		v.materialQuality = material.QualityLow
	}
	v.drawShadows = v.settings.DrawShadows && flags&camera.ViewOverrideDisableShadows == 0
	v.maxOccluderTriangles = v.settings.MaxOccluderTriangles
	if flags&camera.ViewOverrideDisableOcclusion != 0 {
		v.maxOccluderTriangles = 0
	}
	return true
}

// Update culls the scene and collects the view's batches for a frame.
//
// Parameters:
//   - frame: the frame context; the camera and view size are filled in by the view
func (v *View) Update(frame drawable.FrameInfo) {
	v.frame = frame
	v.frame.Camera = v.camera
	v.frame.ViewSize = [2]int{v.width, v.height}
	v.reset()

	if v.camera == nil || !v.camera.IsProjectionValid() {
		return
	}
	if v.camera.AutoAspectRatio() {
		v.camera.SetAspectRatio(float32(v.width) / float32(v.height))
	}
	v.camera.SetProjectionOffset([2]float32{})

	end := v.renderer.profiler.Block("GetDrawables")
	v.getDrawables()
	end()
	end = v.renderer.profiler.Block("GetBatches")
	v.getBatches()
	end()
}

func (v *View) instancing() bool {
	return v.settings.DynamicInstancing && v.graphics.Capabilities().Instancing
}

func (v *View) deferred() bool {
	return v.settings.RenderMode == RenderModeDeferred
}

func (v *View) reset() {
	v.geometries = v.geometries[:0]
	clear(v.geometryIndex)
	v.lights = v.lights[:0]
	v.occluders = v.occluders[:0]
	v.occlusionBuffer = nil
	v.sceneBox.Clear()
	v.sceneViewBox.Clear()
	v.numSplits = 0
	v.numShadowCameras = 0
	v.numLightQueues = 0

	instancing := v.instancing()
	v.gBufferQueue.Clear(instancing)
	v.baseQueue.Clear(instancing)
	v.extraQueue.Clear(instancing)
	v.transparentQueue.Clear(false)
	v.noShadowLights = v.noShadowLights[:0]

	clear(v.scissorCache)
	clear(v.originalSplits)
	clear(v.litTransparent)
	if v.renderer != nil {
		v.zone = v.renderer.defaultZone
	}
}

// getDrawables finds the camera zone, rasterizes occluders and collects the visible
// geometries and lights.
func (v *View) getDrawables() {
	cam := v.camera
	camPos := cam.Position()
	viewMask := cam.ViewMask()

	v.queryResult = v.index.QueryPoint(spatial.PointQuery{
		Query: spatial.Query{TypeMask: drawable.FlagZone, ViewMask: viewMask},
		Point: camPos,
	}, v.queryResult[:0])
	var best *drawable.Zone
	for _, d := range v.queryResult {
		z, ok := d.(*drawable.Zone)
		if !ok || !z.IsInside(camPos) {
			continue
		}
		if best == nil || z.Priority() > best.Priority() {
			best = z
		}
	}
	if best != nil {
		v.zone = best
	}

	if v.maxOccluderTriangles > 0 {
		v.occluderResult = v.index.QueryFrustum(spatial.FrustumQuery{
			Query:   spatial.Query{TypeMask: drawable.FlagGeometry, ViewMask: viewMask, OccludersOnly: true},
			Frustum: cam.Frustum(),
		}, v.occluderResult[:0])
		occluders := v.updateOccluders(v.occluderResult, cam)
		if len(occluders) > 0 {
			v.occlusionBuffer = v.renderer.occlusionBuffers.acquire(cam, v.settings.OcclusionBufferSize, v.maxOccluderTriangles)
			v.drawOccluders(v.occlusionBuffer, occluders)
		}
	}

	q := spatial.FrustumQuery{
		Query:   spatial.Query{TypeMask: drawable.FlagGeometry | drawable.FlagLight, ViewMask: viewMask},
		Frustum: cam.Frustum(),
	}
	if v.occlusionBuffer != nil {
		q.Occlusion = v.occlusionBuffer
	}
	v.queryResult = v.index.QueryFrustum(q, v.queryResult[:0])

	view := cam.ViewMatrix()
	zoneMask := v.zone.ViewMask()
	for _, d := range v.queryResult {
		core := d.Core()
		state := d.UpdateDistance(v.frame)
		if core.IsBeyondDrawDistance(state.Distance) {
			continue
		}

		if l, ok := d.(light.Light); ok {
			params := l.Parameters()
			if core.ViewMask()&zoneMask == 0 || params.Brightness() <= 0 {
				continue
			}
			v.lights = append(v.lights, lightEntry{light: l, distance: state.Distance, sortKey: l.SortKey(camPos)})
			continue
		}
		if core.Flags()&drawable.FlagGeometry == 0 {
			continue
		}

		box := d.WorldBoundingBox()
		viewBox := box.Transformed(view)
		v.sceneBox.Merge(box)
		v.sceneViewBox.Merge(viewBox)
		v.geometryIndex[d] = len(v.geometries)
		v.geometries = append(v.geometries, geometryEntry{
			drawable: d,
			state:    state,
			minZ:     viewBox.Min[2],
			maxZ:     viewBox.Max[2],
		})
	}

	if v.sceneViewBox.Defined {
		v.sceneViewBox.Min[2] = max(v.sceneViewBox.Min[2], cam.NearClip())
		v.sceneViewBox.Max[2] = min(v.sceneViewBox.Max[2], cam.FarClip())
	}

	slices.SortStableFunc(v.lights, func(a, b lightEntry) int {
		return cmp.Compare(a.sortKey, b.sortKey)
	})
}

// updateOccluders drops occluders that are too far or too small on screen and orders the
// rest by triangles per screen size, cheapest first.
//
// Parameters:
//   - candidates: occluders found in the camera frustum
//   - cam: the camera the occlusion buffer is rendered from
//
// Returns:
//   - []drawable.Drawable: the retained occluders in drawing order
func (v *View) updateOccluders(candidates []drawable.Drawable, cam camera.Camera) []drawable.Drawable {
	frame := v.frame
	frame.Camera = cam
	halfViewSize := cam.HalfViewSize()
	invOrthoSize := 1 / max(cam.OrthoSize(), common.Epsilon)

	v.rankedOccluders = v.rankedOccluders[:0]
	for _, d := range candidates {
		state := d.UpdateDistance(frame)
		if d.Core().IsBeyondDrawDistance(state.Distance) {
			continue
		}
		diagonal := common.Length3(d.WorldBoundingBox().Size())
		var compare float32
		if cam.Orthographic() {
			compare = diagonal * invOrthoSize
		} else {
			compare = diagonal * halfViewSize / max(state.Distance, common.Epsilon)
		}
		if compare < v.settings.OccluderSizeThreshold || compare <= 0 {
			continue
		}
		v.rankedOccluders = append(v.rankedOccluders, rankedOccluder{
			drawable: d,
			key:      float32(d.NumOccluderTriangles()) / compare,
		})
	}
	slices.SortStableFunc(v.rankedOccluders, func(a, b rankedOccluder) int {
		return cmp.Compare(a.key, b.key)
	})

	v.occluders = v.occluders[:0]
	for _, o := range v.rankedOccluders {
		v.occluders = append(v.occluders, o.drawable)
	}
	return v.occluders
}

// drawOccluders rasterizes occluders until the triangle budget runs out, skipping those
// hidden by the ones already drawn, then builds the depth hierarchy.
func (v *View) drawOccluders(buffer occlusion.OcclusionBuffer, occluders []drawable.Drawable) {
	for i, d := range occluders {
		if i > 0 && !buffer.IsVisible(d.WorldBoundingBox()) {
			continue
		}
		if !d.DrawOcclusion(buffer) {
			break
		}
	}
	buffer.BuildDepthHierarchy()
}

// Camera returns the view camera.
func (v *View) Camera() camera.Camera {
	return v.camera
}

// Scene returns the rendered scene.
func (v *View) Scene() scene.Scene {
	return v.scene
}

// Zone returns the zone the camera is in.
func (v *View) Zone() *drawable.Zone {
	return v.zone
}

// Target returns the render target, nil for the back buffer.
func (v *View) Target() graphics.RenderSurface {
	return v.target
}

// ScreenRect returns the pixel rectangle the view renders into.
func (v *View) ScreenRect() common.IntRect {
	return v.rect
}

// Geometries returns the visible geometry drawables.
func (v *View) Geometries() []drawable.Drawable {
	out := make([]drawable.Drawable, len(v.geometries))
	for i, g := range v.geometries {
		out[i] = g.drawable
	}
	return out
}

// Lights returns the visible lights, most important first.
func (v *View) Lights() []light.Light {
	out := make([]light.Light, len(v.lights))
	for i, l := range v.lights {
		out[i] = l.light
	}
	return out
}

// Occluders returns the occluders drawn into the occlusion buffer this frame.
func (v *View) Occluders() []drawable.Drawable {
	return v.occluders
}

// OcclusionBuffer returns the view's occlusion buffer, nil when occlusion was not used.
func (v *View) OcclusionBuffer() occlusion.OcclusionBuffer {
	return v.occlusionBuffer
}

// LightQueues returns the per-split light queues.
func (v *View) LightQueues() []*batch.LightQueue {
	return v.lightQueues[:v.numLightQueues]
}

// GBufferQueue returns the deferred G-buffer batches.
func (v *View) GBufferQueue() *batch.Queue { return v.gBufferQueue }

// BaseQueue returns the opaque base pass batches.
func (v *View) BaseQueue() *batch.Queue { return v.baseQueue }

// ExtraQueue returns the batches drawn after the opaque lighting.
func (v *View) ExtraQueue() *batch.Queue { return v.extraQueue }

// TransparentQueue returns the back to front sorted transparent batches.
func (v *View) TransparentQueue() *batch.Queue { return v.transparentQueue }

// NoShadowLights returns the deferred light volumes of unshadowed lights.
func (v *View) NoShadowLights() []batch.Batch { return v.noShadowLights }

// ShadowCamera returns the shadow camera at index i, nil when out of range.
func (v *View) ShadowCamera(i int) camera.Camera {
	if i < 0 || i >= v.numShadowCameras {
		return nil
	}
	return v.shadowCameras[i]
}
