package drawable

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

// Flags classify drawables for spatial queries.
type Flags uint8

const (
	FlagGeometry Flags = 1 << iota
	FlagLight
	FlagZone

	FlagAny Flags = 0xff
)

// GeometryType tells the renderer how a batch's vertices are transformed.
type GeometryType int

const (
	// GeometryStatic batches use a single world transform and may be instanced.
	GeometryStatic GeometryType = iota
	// GeometrySkinned batches carry skin matrices and are never instanced.
	GeometrySkinned
)

// FrameInfo is the per-view frame context. It is created once per view update and is not
// modified while batches are collected.
type FrameInfo struct {
	Camera      camera.Camera
	TimeStep    float32
	FrameNumber uint32
	ViewSize    [2]int
}

// ViewState holds the values a drawable computes for one view in one frame. Drawables are
// shared by views that update concurrently, so these values are returned to the view
// instead of being stored on the drawable.
type ViewState struct {
	Distance    float32
	LodDistance float32
}

// SourceBatch is one draw unit a drawable provides: geometry, material and transform.
type SourceBatch struct {
	Geometry       *graphics.Geometry
	Material       material.Material
	WorldTransform [16]float32
	Distance       float32
	GeometryType   GeometryType
	// SkinMatrices holds 12 floats (3x4 row-major) per bone for skinned batches.
	SkinMatrices []float32
}

// OcclusionTarget receives occluder triangles.
type OcclusionTarget interface {
	// SetCullMode sets the winding culled for subsequent draws.
	SetCullMode(mode graphics.CullMode)

	// Draw rasterizes a geometry's index range transformed by model.
	// It returns false once the triangle budget is exhausted.
	Draw(model [16]float32, geometry *graphics.Geometry) bool
}

// Drawable is the capability set the view pipeline dispatches on. Implementations embed
// Base for the shared culling state and override the batch and occlusion methods.
type Drawable interface {
	// Core returns the shared drawable state.
	Core() *Base

	// WorldBoundingBox returns the world-space bounding box.
	WorldBoundingBox() common.BoundingBox

	// UpdateDistance computes the view distance and LOD distance for a frame.
	//
	// Parameters:
	//   - frame: the view's frame context
	//
	// Returns:
	//   - ViewState: distance values for this view
	UpdateDistance(frame FrameInfo) ViewState

	// NumBatches returns the number of source batches.
	NumBatches() int

	// Batch returns source batch i for the given view state.
	//
	// Parameters:
	//   - frame: the view's frame context
	//   - state: the values UpdateDistance returned for this view
	//   - i: batch index
	//
	// Returns:
	//   - SourceBatch: the batch; a nil geometry means nothing to draw
	Batch(frame FrameInfo, state ViewState, i int) SourceBatch

	// NumOccluderTriangles returns how many triangles DrawOcclusion would rasterize.
	NumOccluderTriangles() int

	// DrawOcclusion rasterizes occluder geometry.
	//
	// Parameters:
	//   - target: the occlusion buffer
	//
	// Returns:
	//   - bool: false if the target ran out of triangle budget
	DrawOcclusion(target OcclusionTarget) bool
}

// Base is the culling state shared by every drawable. It is configured between frames
// and only read while views update.
type Base struct {
	flags          Flags
	enabled        bool
	worldTransform [16]float32
	boundingBox    common.BoundingBox
	worldBox       common.BoundingBox
	drawDistance   float32
	shadowDistance float32
	lightMask      uint32
	viewMask       uint32
	occluder       bool
	occludee       bool
	castShadows    bool
	maxLights      int
	lodBias        float32
}

var _ Drawable = &Base{}

// NewBase creates drawable state with the given type flags, identity transform and
// all-pass masks.
func NewBase(flags Flags, options ...Option) Base {
	b := Base{
		flags:          flags,
		enabled:        true,
		worldTransform: common.IdentityMatrix(),
		lightMask:      ^uint32(0),
		viewMask:       ^uint32(0),
		occludee:       true,
		lodBias:        1,
	}
	for _, opt := range options {
		opt(&b)
	}
	b.updateWorldBox()
	return b
}

func (b *Base) Core() *Base {
	return b
}

// Flags returns the drawable type flags.
func (b *Base) Flags() Flags {
	return b.flags
}

// Enabled reports whether the drawable takes part in rendering.
func (b *Base) Enabled() bool {
	return b.enabled
}

// SetEnabled enables or disables the drawable; spatial queries skip disabled drawables.
func (b *Base) SetEnabled(enabled bool) {
	b.enabled = enabled
}

// WorldTransform returns the local-to-world transform.
func (b *Base) WorldTransform() [16]float32 {
	return b.worldTransform
}

// WorldPosition returns the translation of the world transform.
func (b *Base) WorldPosition() [3]float32 {
	return common.Translation(b.worldTransform)
}

// SetWorldTransform sets the local-to-world transform and updates the world bounding box.
func (b *Base) SetWorldTransform(m [16]float32) {
	b.worldTransform = m
	b.updateWorldBox()
}

// SetTransform composes the world transform from position, rotation and scale.
func (b *Base) SetTransform(position [3]float32, rotation [4]float32, scale [3]float32) {
	b.SetWorldTransform(common.ComposeMatrix(position, rotation, scale))
}

// BoundingBox returns the local-space bounding box.
func (b *Base) BoundingBox() common.BoundingBox {
	return b.boundingBox
}

// SetBoundingBox sets the local-space bounding box.
func (b *Base) SetBoundingBox(box common.BoundingBox) {
	b.boundingBox = box
	b.updateWorldBox()
}

func (b *Base) WorldBoundingBox() common.BoundingBox {
	return b.worldBox
}

func (b *Base) DrawDistance() float32 { return b.drawDistance }
func (b *Base) SetDrawDistance(d float32) { b.drawDistance = d }
func (b *Base) ShadowDistance() float32 { return b.shadowDistance }
func (b *Base) SetShadowDistance(d float32) { b.shadowDistance = d }
func (b *Base) LightMask() uint32 { return b.lightMask }
func (b *Base) SetLightMask(mask uint32) { b.lightMask = mask }
func (b *Base) ViewMask() uint32 { return b.viewMask }
func (b *Base) SetViewMask(mask uint32) { b.viewMask = mask }
func (b *Base) IsOccluder() bool { return b.occluder }
func (b *Base) SetOccluder(enable bool) { b.occluder = enable }
func (b *Base) IsOccludee() bool { return b.occludee }
func (b *Base) SetOccludee(enable bool) { b.occludee = enable }
func (b *Base) CastShadows() bool { return b.castShadows }
func (b *Base) SetCastShadows(enable bool) { b.castShadows = enable }
func (b *Base) MaxLights() int { return b.maxLights }
func (b *Base) SetMaxLights(n int) { b.maxLights = max(n, 0) }
func (b *Base) LodBias() float32 { return b.lodBias }
func (b *Base) SetLodBias(bias float32) { b.lodBias = max(bias, common.Epsilon) }

// IsBeyondDrawDistance reports whether a non-zero draw distance is exceeded.
func (b *Base) IsBeyondDrawDistance(distance float32) bool {
	return b.drawDistance > 0 && distance > b.drawDistance
}

// IsBeyondShadowDistance reports whether a non-zero shadow distance is exceeded.
func (b *Base) IsBeyondShadowDistance(distance float32) bool {
	return b.shadowDistance > 0 && distance > b.shadowDistance
}

// UpdateDistance measures the distance to the world bounding box center and derives the
// LOD distance from the box's mean extent.
func (b *Base) UpdateDistance(frame FrameInfo) ViewState {
	if frame.Camera == nil {
		return ViewState{}
	}
	center := b.worldBox.Center()
	distance := frame.Camera.Distance(center)
	scale := common.Dot3(b.worldBox.Size(), [3]float32{1.0 / 3, 1.0 / 3, 1.0 / 3})
	return ViewState{
		Distance:    distance,
		LodDistance: frame.Camera.LodDistance(distance, scale, b.lodBias),
	}
}

func (b *Base) NumBatches() int {
	return 0
}

func (b *Base) Batch(FrameInfo, ViewState, int) SourceBatch {
	return SourceBatch{}
}

func (b *Base) NumOccluderTriangles() int {
	return 0
}

func (b *Base) DrawOcclusion(OcclusionTarget) bool {
	return true
}

func (b *Base) updateWorldBox() {
	if !b.boundingBox.Defined {
		b.worldBox = common.BoundingBox{}
		return
	}
	b.worldBox = b.boundingBox.Transformed(b.worldTransform)
}
