package spatial

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
)

// Visibility refines a query with an occlusion test. The occlusion buffer implements it.
type Visibility interface {
	// IsVisible reports whether any part of a world-space box may be visible.
	IsVisible(box common.BoundingBox) bool
}

// Query holds the filters shared by every query shape.
type Query struct {
	// TypeMask selects drawables whose flags intersect it.
	TypeMask drawable.Flags
	// ViewMask selects drawables whose view mask intersects it.
	ViewMask uint32
	// Occlusion, when set, drops occludees that it reports hidden.
	Occlusion Visibility
	// OccludersOnly keeps only drawables flagged as occluders.
	OccludersOnly bool
	// ShadowCastersOnly keeps only drawables that cast shadows.
	ShadowCastersOnly bool
}

// FrustumQuery selects drawables whose world box intersects a frustum.
type FrustumQuery struct {
	Query
	Frustum common.Frustum
}

// SphereQuery selects drawables whose world box intersects a sphere.
type SphereQuery struct {
	Query
	Sphere common.Sphere
}

// PointQuery selects drawables whose world box contains a point.
type PointQuery struct {
	Query
	Point [3]float32
}

// BoxQuery selects drawables whose world box intersects a box.
type BoxQuery struct {
	Query
	Box common.BoundingBox
}

// Index answers containment queries over the drawables of a scene. Query results are
// appended to out, which is returned, so callers can reuse their slices across frames.
// Queries may run concurrently with each other; Insert and Remove happen between frames.
type Index interface {
	// Insert adds a drawable. Inserting a drawable twice has no effect.
	//
	// Parameters:
	//   - d: the drawable to add
	Insert(d drawable.Drawable)

	// Remove removes a drawable.
	//
	// Parameters:
	//   - d: the drawable to remove
	//
	// Returns:
	//   - bool: true if the drawable was present
	Remove(d drawable.Drawable) bool

	// Len returns the number of indexed drawables.
	Len() int

	// QueryFrustum appends the drawables intersecting a frustum.
	//
	// Parameters:
	//   - q: the frustum and filters
	//   - out: destination slice, appended to
	//
	// Returns:
	//   - []drawable.Drawable: out with the matches appended
	QueryFrustum(q FrustumQuery, out []drawable.Drawable) []drawable.Drawable

	// QuerySphere appends the drawables intersecting a sphere.
	QuerySphere(q SphereQuery, out []drawable.Drawable) []drawable.Drawable

	// QueryPoint appends the drawables whose bounding box contains a point.
	QueryPoint(q PointQuery, out []drawable.Drawable) []drawable.Drawable

	// QueryBox appends the drawables intersecting a box.
	QueryBox(q BoxQuery, out []drawable.Drawable) []drawable.Drawable
}

// accepts applies the shared filters to a drawable.
func (q *Query) accepts(d drawable.Drawable) bool {
	b := d.Core()
	if !b.Enabled() || b.Flags()&q.TypeMask == 0 || b.ViewMask()&q.ViewMask == 0 {
		return false
	}
	if q.OccludersOnly && !b.IsOccluder() {
		return false
	}
	if q.ShadowCastersOnly && !b.CastShadows() {
		return false
	}
	return true
}

// visible applies the occlusion test to an occludee.
func (q *Query) visible(d drawable.Drawable, box common.BoundingBox) bool {
	if q.Occlusion == nil || !d.Core().IsOccludee() {
		return true
	}
	return q.Occlusion.IsVisible(box)
}
