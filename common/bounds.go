package common

import (
	"github.com/chewxy/math32"
)

// Intersection classifies how a volume relates to another volume.
type Intersection int

const (
	// Outside means the tested volume lies completely outside.
	Outside Intersection = iota
	// Intersects means the tested volume straddles the boundary.
	Intersects
	// Inside means the tested volume lies completely inside.
	Inside
)

// BoundingBox is an axis-aligned box. A box that has not had any point merged into it
// is undefined; a defined box always has Min <= Max componentwise.
type BoundingBox struct {
	Min     [3]float32
	Max     [3]float32
	Defined bool
}

// NewBoundingBox creates a defined box from two corners in any order.
func NewBoundingBox(a, b [3]float32) BoundingBox {
	return BoundingBox{Min: Min3(a, b), Max: Max3(a, b), Defined: true}
}

// Clear makes the box undefined.
func (b *BoundingBox) Clear() {
	*b = BoundingBox{}
}

// MergePoint grows the box to contain p.
func (b *BoundingBox) MergePoint(p [3]float32) {
	if !b.Defined {
		b.Min, b.Max, b.Defined = p, p, true
		return
	}
	b.Min = Min3(b.Min, p)
	b.Max = Max3(b.Max, p)
}

// Merge grows the box to contain other. Undefined boxes are ignored.
func (b *BoundingBox) Merge(other BoundingBox) {
	if !other.Defined {
		return
	}
	if !b.Defined {
		*b = other
		return
	}
	b.Min = Min3(b.Min, other.Min)
	b.Max = Max3(b.Max, other.Max)
}

// MergePoints grows the box to contain every point in pts.
func (b *BoundingBox) MergePoints(pts [][3]float32) {
	for _, p := range pts {
		b.MergePoint(p)
	}
}

// Intersect clips the box against other. The result stays defined; a disjoint pair
// collapses to a degenerate box on the boundary.
func (b *BoundingBox) Intersect(other BoundingBox) {
	if !other.Defined || !b.Defined {
		return
	}
	b.Min = Max3(b.Min, other.Min)
	b.Max = Min3(b.Max, other.Max)
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			b.Min[i], b.Max[i] = b.Max[i], b.Min[i]
		}
	}
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() [3]float32 {
	return Scale3(Add3(b.Min, b.Max), 0.5)
}

// Size returns the extent of the box along each axis.
func (b BoundingBox) Size() [3]float32 {
	return Sub3(b.Max, b.Min)
}

// HalfSize returns half the extent of the box along each axis.
func (b BoundingBox) HalfSize() [3]float32 {
	return Scale3(b.Size(), 0.5)
}

// Corners returns the eight corners of the box.
func (b BoundingBox) Corners() [8][3]float32 {
	mn, mx := b.Min, b.Max
	return [8][3]float32{
		{mn[0], mn[1], mn[2]},
		{mx[0], mn[1], mn[2]},
		{mn[0], mx[1], mn[2]},
		{mx[0], mx[1], mn[2]},
		{mn[0], mn[1], mx[2]},
		{mx[0], mn[1], mx[2]},
		{mn[0], mx[1], mx[2]},
		{mx[0], mx[1], mx[2]},
	}
}

// Transformed returns the axis-aligned box enclosing this box after an affine transform.
func (b BoundingBox) Transformed(m [16]float32) BoundingBox {
	if !b.Defined {
		return b
	}
	center := TransformPoint(m, b.Center())
	half := b.HalfSize()
	edge := [3]float32{
		math32.Abs(m[0])*half[0] + math32.Abs(m[4])*half[1] + math32.Abs(m[8])*half[2],
		math32.Abs(m[1])*half[0] + math32.Abs(m[5])*half[1] + math32.Abs(m[9])*half[2],
		math32.Abs(m[2])*half[0] + math32.Abs(m[6])*half[1] + math32.Abs(m[10])*half[2],
	}
	return BoundingBox{Min: Sub3(center, edge), Max: Add3(center, edge), Defined: true}
}

// Projected returns the box enclosing the corners of this box projected through a
// projective matrix. Corners behind the projection plane are clamped to the near plane.
func (b BoundingBox) Projected(proj [16]float32) BoundingBox {
	var out BoundingBox
	for _, c := range b.Corners() {
		if c[2] < MinNearClip {
			c[2] = MinNearClip
		}
		out.MergePoint(ProjectPoint(proj, c))
	}
	return out
}

// IsInside tests whether a point lies in the box.
func (b BoundingBox) IsInside(p [3]float32) Intersection {
	if p[0] < b.Min[0] || p[0] > b.Max[0] || p[1] < b.Min[1] || p[1] > b.Max[1] ||
		p[2] < b.Min[2] || p[2] > b.Max[2] {
		return Outside
	}
	return Inside
}

// IsInsideBox tests how other relates to this box.
func (b BoundingBox) IsInsideBox(other BoundingBox) Intersection {
	if other.Max[0] < b.Min[0] || other.Min[0] > b.Max[0] || other.Max[1] < b.Min[1] ||
		other.Min[1] > b.Max[1] || other.Max[2] < b.Min[2] || other.Min[2] > b.Max[2] {
		return Outside
	}
	if other.Min[0] < b.Min[0] || other.Max[0] > b.Max[0] || other.Min[1] < b.Min[1] ||
		other.Max[1] > b.Max[1] || other.Min[2] < b.Min[2] || other.Max[2] > b.Max[2] {
		return Intersects
	}
	return Inside
}

// DistanceTo returns the distance from p to the nearest point of the box, 0 when inside.
func (b BoundingBox) DistanceTo(p [3]float32) float32 {
	var d [3]float32
	for i := 0; i < 3; i++ {
		switch {
		case p[i] < b.Min[i]:
			d[i] = b.Min[i] - p[i]
		case p[i] > b.Max[i]:
			d[i] = p[i] - b.Max[i]
		}
	}
	return Length3(d)
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center  [3]float32
	Radius  float32
	Defined bool
}

// SphereFromBox returns the sphere circumscribing a box.
func SphereFromBox(b BoundingBox) Sphere {
	return Sphere{Center: b.Center(), Radius: Length3(b.HalfSize()), Defined: b.Defined}
}

// MergePoint grows the sphere to contain p, moving the center half the overshoot.
func (s *Sphere) MergePoint(p [3]float32) {
	if !s.Defined {
		s.Center, s.Radius, s.Defined = p, 0, true
		return
	}
	offset := Sub3(p, s.Center)
	dist := Length3(offset)
	if dist <= s.Radius {
		return
	}
	half := (dist - s.Radius) * 0.5
	s.Radius += half
	s.Center = Add3(s.Center, Scale3(offset, half/dist))
}

// SphereFromPoints returns a sphere enclosing every point.
func SphereFromPoints(pts [][3]float32) Sphere {
	var s Sphere
	for _, p := range pts {
		s.MergePoint(p)
	}
	return s
}

// BoundingBox returns the box enclosing the sphere.
func (s Sphere) BoundingBox() BoundingBox {
	if !s.Defined {
		return BoundingBox{}
	}
	r := [3]float32{s.Radius, s.Radius, s.Radius}
	return BoundingBox{Min: Sub3(s.Center, r), Max: Add3(s.Center, r), Defined: true}
}

// IsInsideBox tests how a box relates to the sphere.
func (s Sphere) IsInsideBox(b BoundingBox) Intersection {
	dist := b.DistanceTo(s.Center)
	if dist >= s.Radius {
		return Outside
	}
	r2 := s.Radius * s.Radius
	for _, c := range b.Corners() {
		d := Sub3(c, s.Center)
		if Dot3(d, d) > r2 {
			return Intersects
		}
	}
	return Inside
}

// Rect is a floating point rectangle, typically in normalized screen coordinates [-1, 1].
type Rect struct {
	Min     [2]float32
	Max     [2]float32
	Defined bool
}

// FullRect covers the whole normalized screen.
var FullRect = Rect{Min: [2]float32{-1, -1}, Max: [2]float32{1, 1}, Defined: true}

// MergePoint grows the rectangle to contain p.
func (r *Rect) MergePoint(p [2]float32) {
	if !r.Defined {
		r.Min, r.Max, r.Defined = p, p, true
		return
	}
	r.Min = [2]float32{math32.Min(r.Min[0], p[0]), math32.Min(r.Min[1], p[1])}
	r.Max = [2]float32{math32.Max(r.Max[0], p[0]), math32.Max(r.Max[1], p[1])}
}

// Clip restricts the rectangle to other.
func (r *Rect) Clip(other Rect) {
	r.Min = [2]float32{math32.Max(r.Min[0], other.Min[0]), math32.Max(r.Min[1], other.Min[1])}
	r.Max = [2]float32{math32.Min(r.Max[0], other.Max[0]), math32.Min(r.Max[1], other.Max[1])}
	if r.Min[0] > r.Max[0] || r.Min[1] > r.Max[1] {
		*r = Rect{}
	}
}

// IntRect is a pixel rectangle; Right and Bottom are exclusive.
type IntRect struct {
	Left, Top, Right, Bottom int
}

// Width returns the rectangle width.
func (r IntRect) Width() int { return r.Right - r.Left }

// Height returns the rectangle height.
func (r IntRect) Height() int { return r.Bottom - r.Top }

// IsZero reports whether every edge is zero.
func (r IntRect) IsZero() bool { return r == IntRect{} }
