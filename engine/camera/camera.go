package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/chewxy/math32"
)

// ViewOverrideFlags lower the quality of views rendered through a camera.
type ViewOverrideFlags uint32

const (
	// ViewOverrideLowMaterialQuality forces the lowest material quality.
	ViewOverrideLowMaterialQuality ViewOverrideFlags = 1 << iota
	// ViewOverrideDisableShadows disables shadow rendering.
	ViewOverrideDisableShadows
	// ViewOverrideDisableOcclusion disables software occlusion.
	ViewOverrideDisableOcclusion
)

type cameraImpl struct {
	mu *sync.RWMutex

	position [3]float32
	rotation [4]float32

	fov              float32
	aspect           float32
	near             float32
	far              float32
	orthoSize        float32
	orthographic     bool
	zoom             float32
	autoAspect       bool
	lodBias          float32
	viewMask         uint32
	viewOverride     ViewOverrideFlags
	projectionOffset [2]float32
}

// Camera defines a viewpoint: a world position and orientation plus projection settings.
// The camera looks along its local +Z axis; view space is left-handed with +Z forward and
// projections map depth to [0, 1]. Every method is safe for concurrent use, so a camera
// may be shared by views updating in parallel.
type Camera interface {
	// Position returns the world-space position.
	Position() [3]float32

	// Rotation returns the world-space orientation quaternion (x, y, z, w).
	Rotation() [4]float32

	// Direction returns the world-space viewing direction (local +Z).
	Direction() [3]float32

	// Up returns the world-space local +Y axis.
	Up() [3]float32

	// Right returns the world-space local +X axis.
	Right() [3]float32

	// SetPosition moves the camera.
	//
	// Parameters:
	//   - p: world-space position
	SetPosition(p [3]float32)

	// SetRotation sets the orientation quaternion.
	//
	// Parameters:
	//   - q: unit quaternion (x, y, z, w)
	SetRotation(q [4]float32)

	// SetDirection orients the camera to look along dir, keeping world +Y as up where possible.
	//
	// Parameters:
	//   - dir: world-space direction, need not be normalized
	SetDirection(dir [3]float32)

	// LookAt orients the camera towards a world-space point.
	//
	// Parameters:
	//   - target: world-space point to face
	LookAt(target [3]float32)

	// Fov returns the vertical field of view in degrees.
	Fov() float32

	// SetFov sets the vertical field of view in degrees, clamped to (0, 160].
	SetFov(fov float32)

	// AspectRatio returns width / height.
	AspectRatio() float32

	// SetAspectRatio sets width / height.
	SetAspectRatio(aspect float32)

	// NearClip returns the near clip distance; orthographic cameras always report 0.
	NearClip() float32

	// SetNearClip sets the near clip distance, clamped to the engine minimum.
	SetNearClip(near float32)

	// FarClip returns the far clip distance.
	FarClip() float32

	// SetFarClip sets the far clip distance.
	SetFarClip(far float32)

	// OrthoSize returns the full vertical extent of an orthographic projection.
	OrthoSize() float32

	// SetOrthoSize sets the full vertical extent of an orthographic projection.
	SetOrthoSize(size float32)

	// SetOrthoSizeXY sets the orthographic extent from a width and height, updating the aspect ratio.
	SetOrthoSizeXY(width, height float32)

	// Orthographic reports whether the projection is orthographic.
	Orthographic() bool

	// SetOrthographic switches between orthographic and perspective projection.
	SetOrthographic(enable bool)

	// Zoom returns the projection zoom factor.
	Zoom() float32

	// SetZoom sets the projection zoom factor (minimum epsilon).
	SetZoom(zoom float32)

	// AutoAspectRatio reports whether views overwrite the aspect ratio from their viewport.
	AutoAspectRatio() bool

	// SetAutoAspectRatio enables or disables automatic aspect ratio.
	SetAutoAspectRatio(enable bool)

	// LodBias returns the LOD distance bias.
	LodBias() float32

	// SetLodBias sets the LOD distance bias (minimum epsilon).
	SetLodBias(bias float32)

	// ViewMask returns the bitmask drawables must match to be visible through this camera.
	ViewMask() uint32

	// SetViewMask sets the view mask.
	SetViewMask(mask uint32)

	// ViewOverrideFlags returns the quality override flags.
	ViewOverrideFlags() ViewOverrideFlags

	// SetViewOverrideFlags sets the quality override flags.
	SetViewOverrideFlags(flags ViewOverrideFlags)

	// ProjectionOffset returns the sub-pixel projection offset in normalized device units.
	ProjectionOffset() [2]float32

	// SetProjectionOffset shifts the projection, used for temporal anti-aliasing jitter.
	SetProjectionOffset(offset [2]float32)

	// WorldTransform returns the camera's local-to-world transform (no scale).
	WorldTransform() [16]float32

	// ViewMatrix returns the world-to-view transform.
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the projection including zoom and projection offset.
	ProjectionMatrix() [16]float32

	// BaseProjectionMatrix returns the projection without the projection offset, for
	// full screen geometry that must cover the whole viewport.
	BaseProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view.
	ViewProjectionMatrix() [16]float32

	// Frustum returns the world-space view frustum.
	Frustum() common.Frustum

	// SplitFrustum returns a world-space frustum limited to [near, far] along the view axis.
	//
	// Parameters:
	//   - near: split near distance, clamped to the camera near clip
	//   - far: split far distance, clamped to the camera far clip
	//
	// Returns:
	//   - common.Frustum: the split frustum
	SplitFrustum(near, far float32) common.Frustum

	// ViewSpaceFrustum returns the frustum in view space.
	ViewSpaceFrustum() common.Frustum

	// ViewSpaceSplitFrustum returns a split frustum in view space.
	ViewSpaceSplitFrustum(near, far float32) common.Frustum

	// FrustumSize returns the half extents of the near and far planes in view space.
	//
	// Returns:
	//   - near: half width, half height and distance of the near plane
	//   - far: half width, half height and distance of the far plane
	FrustumSize() (near, far [3]float32)

	// HalfViewSize returns half the view height at unit distance (perspective) or half the
	// orthographic height, both divided by zoom.
	HalfViewSize() float32

	// Distance returns the view distance to a world-space point; orthographic cameras
	// measure along the view axis only.
	Distance(p [3]float32) float32

	// LodDistance converts a view distance into a LOD distance.
	//
	// Parameters:
	//   - distance: view distance of the object
	//   - scale: largest world scale of the object
	//   - bias: per-object LOD bias
	//
	// Returns:
	//   - float32: the LOD distance
	LodDistance(distance, scale, bias float32) float32

	// IsProjectionValid reports whether the projection encloses a non-empty volume.
	IsProjectionValid() bool
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera configured with the provided options.
// Defaults: 45 degree fov, aspect 1, near 0.1, far 1000, perspective, zoom 1, lod bias 1,
// view mask all ones, auto aspect ratio on.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.RWMutex{},
		rotation:   common.IdentityQuat,
		fov:        45,
		aspect:     1,
		near:       0.1,
		far:        1000,
		orthoSize:  20,
		zoom:       1,
		autoAspect: true,
		lodBias:    1,
		viewMask:   ^uint32(0),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *cameraImpl) Rotation() [4]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation
}

func (c *cameraImpl) Direction() [3]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return common.QuatRotate(c.rotation, [3]float32{0, 0, 1})
}

func (c *cameraImpl) Up() [3]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return common.QuatRotate(c.rotation, [3]float32{0, 1, 0})
}

func (c *cameraImpl) Right() [3]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return common.QuatRotate(c.rotation, [3]float32{1, 0, 0})
}

func (c *cameraImpl) SetPosition(p [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
}

func (c *cameraImpl) SetRotation(q [4]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = q
}

func (c *cameraImpl) SetDirection(dir [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rotation = common.QuatFromLookRotation(dir, [3]float32{0, 1, 0})
}

func (c *cameraImpl) LookAt(target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dir := common.Sub3(target, c.position)
	if common.Length3(dir) < common.Epsilon {
		return
	}
	c.rotation = common.QuatFromLookRotation(dir, [3]float32{0, 1, 0})
}

func (c *cameraImpl) Fov() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fov
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = common.Clamp(fov, 0, common.MaxFov)
}

func (c *cameraImpl) AspectRatio() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aspect
}

func (c *cameraImpl) SetAspectRatio(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) NearClip() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nearClip()
}

func (c *cameraImpl) SetNearClip(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = math32.Max(near, common.MinNearClip)
}

func (c *cameraImpl) FarClip() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.far
}

func (c *cameraImpl) SetFarClip(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = math32.Max(far, common.MinNearClip)
}

func (c *cameraImpl) OrthoSize() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orthoSize
}

func (c *cameraImpl) SetOrthoSize(size float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = size
}

func (c *cameraImpl) SetOrthoSizeXY(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoSize = height
	if height > 0 {
		c.aspect = width / height
	}
}

func (c *cameraImpl) Orthographic() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.orthographic
}

func (c *cameraImpl) SetOrthographic(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthographic = enable
}

func (c *cameraImpl) Zoom() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.zoom
}

func (c *cameraImpl) SetZoom(zoom float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zoom = math32.Max(zoom, common.Epsilon)
}

func (c *cameraImpl) AutoAspectRatio() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autoAspect
}

func (c *cameraImpl) SetAutoAspectRatio(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAspect = enable
}

func (c *cameraImpl) LodBias() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lodBias
}

func (c *cameraImpl) SetLodBias(bias float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lodBias = math32.Max(bias, common.Epsilon)
}

func (c *cameraImpl) ViewMask() uint32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewMask
}

func (c *cameraImpl) SetViewMask(mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewMask = mask
}

func (c *cameraImpl) ViewOverrideFlags() ViewOverrideFlags {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewOverride
}

func (c *cameraImpl) SetViewOverrideFlags(flags ViewOverrideFlags) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewOverride = flags
}

func (c *cameraImpl) ProjectionOffset() [2]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projectionOffset
}

func (c *cameraImpl) SetProjectionOffset(offset [2]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectionOffset = offset
}

func (c *cameraImpl) WorldTransform() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.worldTransform()
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return common.InverseMatrix(c.worldTransform())
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.projection()
}

func (c *cameraImpl) BaseProjectionMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseProjection()
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return common.MulMatrix(c.projection(), common.InverseMatrix(c.worldTransform()))
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frustum(c.nearClip(), c.far, c.worldTransform())
}

func (c *cameraImpl) SplitFrustum(near, far float32) common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	near, far = c.clampSplit(near, far)
	return c.frustum(near, far, c.worldTransform())
}

func (c *cameraImpl) ViewSpaceFrustum() common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frustum(c.nearClip(), c.far, common.IdentityMatrix())
}

func (c *cameraImpl) ViewSpaceSplitFrustum(near, far float32) common.Frustum {
	c.mu.RLock()
	defer c.mu.RUnlock()
	near, far = c.clampSplit(near, far)
	return c.frustum(near, far, common.IdentityMatrix())
}

func (c *cameraImpl) FrustumSize() (near, far [3]float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	near[2] = c.nearClip()
	far[2] = c.far
	if c.orthographic {
		h := c.orthoSize * 0.5 / c.zoom
		near[1], far[1] = h, h
	} else {
		h := math32.Tan(c.fov*common.DegToRad*0.5) / c.zoom
		near[1] = near[2] * h
		far[1] = far[2] * h
	}
	near[0] = near[1] * c.aspect
	far[0] = far[1] * c.aspect
	return near, far
}

func (c *cameraImpl) HalfViewSize() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.orthographic {
		return c.orthoSize * 0.5 / c.zoom
	}
	return math32.Tan(c.fov*common.DegToRad*0.5) / c.zoom
}

func (c *cameraImpl) Distance(p [3]float32) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.orthographic {
		view := common.InverseMatrix(c.worldTransform())
		return math32.Abs(common.TransformPoint(view, p)[2])
	}
	return common.Length3(common.Sub3(p, c.position))
}

func (c *cameraImpl) LodDistance(distance, scale, bias float32) float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d := math32.Max(c.lodBias*bias*scale*c.zoom, common.Epsilon)
	if c.orthographic {
		return c.orthoSize / d
	}
	return distance / d
}

func (c *cameraImpl) IsProjectionValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.aspect <= 0 {
		return false
	}
	if c.orthographic {
		return c.far > 0 && c.orthoSize > 0
	}
	return c.far > c.nearClip() && c.fov > 0
}

// nearClip returns the effective near clip. Caller must hold the mutex.
func (c *cameraImpl) nearClip() float32 {
	if c.orthographic {
		return 0
	}
	return c.near
}

// clampSplit restricts a split range to the camera clip range. Caller must hold the mutex.
func (c *cameraImpl) clampSplit(near, far float32) (float32, float32) {
	near = math32.Max(near, c.nearClip())
	far = math32.Min(far, c.far)
	if far < near {
		far = near
	}
	return near, far
}

// worldTransform composes position and rotation. Caller must hold the mutex.
func (c *cameraImpl) worldTransform() [16]float32 {
	return common.ComposeMatrix(c.position, c.rotation, [3]float32{1, 1, 1})
}

// baseProjection builds the projection matrix without offset. Caller must hold the mutex.
func (c *cameraImpl) baseProjection() [16]float32 {
	if c.orthographic {
		return common.Orthographic(c.orthoSize, c.aspect, c.zoom, 0, c.far)
	}
	return common.Perspective(c.fov, c.aspect, c.zoom, c.near, c.far)
}

// projection builds the projection matrix. Caller must hold the mutex.
func (c *cameraImpl) projection() [16]float32 {
	p := c.baseProjection()
	if c.projectionOffset != [2]float32{} {
		// offset is applied in clip space, scaled by w for perspective
		if c.orthographic {
			p[12] += c.projectionOffset[0] * 2
			p[13] += c.projectionOffset[1] * 2
		} else {
			p[8] += c.projectionOffset[0] * 2
			p[9] += c.projectionOffset[1] * 2
		}
	}
	return p
}

// frustum builds a frustum in the space given by transform. Caller must hold the mutex.
func (c *cameraImpl) frustum(near, far float32, transform [16]float32) common.Frustum {
	var f common.Frustum
	if c.orthographic {
		f.DefineOrtho(c.orthoSize, c.aspect, c.zoom, near, far, transform)
	} else {
		f.DefinePerspective(c.fov, c.aspect, c.zoom, near, far, transform)
	}
	return f
}
