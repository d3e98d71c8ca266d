package common

import (
	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// PlaneFromPoints defines a plane through three points. The normal follows the
// winding v0 -> v1 -> v2.
func PlaneFromPoints(v0, v1, v2 [3]float32) Plane {
	n := Normalize3(Cross3(Sub3(v1, v0), Sub3(v2, v0)))
	return Plane{Normal: n, Distance: -Dot3(n, v0)}
}

// DistanceTo returns the signed distance from p to the plane.
func (p Plane) DistanceTo(pt [3]float32) float32 {
	return Dot3(p.Normal, pt) + p.Distance
}

// Frustum represents the six planes and eight corner vertices of a view volume.
// Planes are oriented so that positive half-space is inside the frustum.
// Vertices 0-3 lie on the near plane and 4-7 on the far plane.
type Frustum struct {
	Planes   [6]Plane // Near, Left, Right, Up, Down, Far
	Vertices [8][3]float32
	Defined  bool
}

// Frustum plane indices.
const (
	FrustumNear  = 0
	FrustumLeft  = 1
	FrustumRight = 2
	FrustumUp    = 3
	FrustumDown  = 4
	FrustumFar   = 5
)

// DefinePerspective builds a perspective frustum in the space given by transform.
// Near and far are distances along +Z; fov is the vertical field of view in degrees.
//
// Parameters:
//   - fov: vertical field of view in degrees
//   - aspect: width / height
//   - zoom: projection zoom factor
//   - near, far: clip distances
//   - transform: local-to-world transform of the viewer
func (f *Frustum) DefinePerspective(fov, aspect, zoom, near, far float32, transform [16]float32) {
	near = math32.Max(near, 0)
	far = math32.Max(far, near)
	halfViewSize := math32.Tan(fov*DegToRad*0.5) / zoom

	nearY := near * halfViewSize
	nearX := nearY * aspect
	farY := far * halfViewSize
	farX := farY * aspect
	f.defineFromCorners(nearX, nearY, near, farX, farY, far, transform)
}

// DefineOrtho builds an orthographic frustum. orthoSize is the full vertical extent.
func (f *Frustum) DefineOrtho(orthoSize, aspect, zoom, near, far float32, transform [16]float32) {
	near = math32.Max(near, 0)
	far = math32.Max(far, near)
	halfViewSize := orthoSize * 0.5 / zoom

	y := halfViewSize
	x := y * aspect
	f.defineFromCorners(x, y, near, x, y, far, transform)
}

// DefineBox builds a frustum equal to an axis-aligned box transformed by transform.
func (f *Frustum) DefineBox(box BoundingBox, transform [16]float32) {
	mn, mx := box.Min, box.Max
	f.Vertices = [8][3]float32{
		{mx[0], mx[1], mn[2]},
		{mx[0], mn[1], mn[2]},
		{mn[0], mn[1], mn[2]},
		{mn[0], mx[1], mn[2]},
		{mx[0], mx[1], mx[2]},
		{mx[0], mn[1], mx[2]},
		{mn[0], mn[1], mx[2]},
		{mn[0], mx[1], mx[2]},
	}
	for i := range f.Vertices {
		f.Vertices[i] = TransformPoint(transform, f.Vertices[i])
	}
	f.updatePlanes()
}

func (f *Frustum) defineFromCorners(nearX, nearY, near, farX, farY, far float32, transform [16]float32) {
	f.Vertices = [8][3]float32{
		{nearX, nearY, near},
		{nearX, -nearY, near},
		{-nearX, -nearY, near},
		{-nearX, nearY, near},
		{farX, farY, far},
		{farX, -farY, far},
		{-farX, -farY, far},
		{-farX, farY, far},
	}
	for i := range f.Vertices {
		f.Vertices[i] = TransformPoint(transform, f.Vertices[i])
	}
	f.updatePlanes()
}

func (f *Frustum) updatePlanes() {
	v := &f.Vertices
	f.Planes[FrustumNear] = PlaneFromPoints(v[2], v[1], v[0])
	f.Planes[FrustumLeft] = PlaneFromPoints(v[3], v[7], v[6])
	f.Planes[FrustumRight] = PlaneFromPoints(v[1], v[5], v[4])
	f.Planes[FrustumUp] = PlaneFromPoints(v[0], v[4], v[7])
	f.Planes[FrustumDown] = PlaneFromPoints(v[6], v[5], v[1])
	f.Planes[FrustumFar] = PlaneFromPoints(v[5], v[6], v[7])
	f.Defined = true
}

// Transformed returns the frustum moved by an affine transform.
func (f Frustum) Transformed(m [16]float32) Frustum {
	out := Frustum{}
	for i := range f.Vertices {
		out.Vertices[i] = TransformPoint(m, f.Vertices[i])
	}
	out.updatePlanes()
	return out
}

// BoundingBox returns the box enclosing the frustum's vertices.
func (f Frustum) BoundingBox() BoundingBox {
	var b BoundingBox
	b.MergePoints(f.Vertices[:])
	return b
}

// ProjectedBoundingBox returns the box enclosing the frustum's vertices after an
// affine transform, typically into another camera's view space.
func (f Frustum) ProjectedBoundingBox(m [16]float32) BoundingBox {
	var b BoundingBox
	for _, v := range f.Vertices {
		b.MergePoint(TransformPoint(m, v))
	}
	return b
}

// IsInsidePoint tests whether a point lies within the frustum.
func (f Frustum) IsInsidePoint(p [3]float32) Intersection {
	for i := range f.Planes {
		if f.Planes[i].DistanceTo(p) < 0 {
			return Outside
		}
	}
	return Inside
}

// IsInsideSphere tests how a sphere relates to the frustum.
func (f Frustum) IsInsideSphere(s Sphere) Intersection {
	allInside := true
	for i := range f.Planes {
		d := f.Planes[i].DistanceTo(s.Center)
		if d < -s.Radius {
			return Outside
		}
		if d < s.Radius {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// IsInsideBox tests how an axis-aligned box relates to the frustum.
func (f Frustum) IsInsideBox(b BoundingBox) Intersection {
	center := b.Center()
	edge := b.HalfSize()
	allInside := true
	for i := range f.Planes {
		p := &f.Planes[i]
		dist := p.DistanceTo(center)
		absDist := math32.Abs(p.Normal[0])*edge[0] + math32.Abs(p.Normal[1])*edge[1] + math32.Abs(p.Normal[2])*edge[2]
		if dist < -absDist {
			return Outside
		}
		if dist < absDist {
			allInside = false
		}
	}
	if allInside {
		return Inside
	}
	return Intersects
}

// IsInsideBoxFast tests a box against the frustum without distinguishing Inside from
// Intersects; it returns either Outside or Inside.
func (f Frustum) IsInsideBoxFast(b BoundingBox) Intersection {
	center := b.Center()
	edge := b.HalfSize()
	for i := range f.Planes {
		p := &f.Planes[i]
		dist := p.DistanceTo(center)
		absDist := math32.Abs(p.Normal[0])*edge[0] + math32.Abs(p.Normal[1])*edge[1] + math32.Abs(p.Normal[2])*edge[2]
		if dist < -absDist {
			return Outside
		}
	}
	return Inside
}
