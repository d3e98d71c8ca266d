package common

import (
	"github.com/chewxy/math32"
)

// Epsilon is the tolerance used for float comparisons throughout the engine.
const Epsilon float32 = 0.000001

// MinNearClip is the smallest near clip distance a perspective projection may use.
const MinNearClip float32 = 0.01

// MaxFov is the widest field of view, in degrees, a camera or light may use.
const MaxFov float32 = 160

// DegToRad converts an angle in degrees to radians.
const DegToRad = math32.Pi / 180

// Identity resets a 4x4 matrix (flat slice) to the identity matrix.
// The matrix is stored in column-major order.
//
// Parameters:
//   - m: destination slice (must be at least 16 elements)
func Identity(m []float32) {
	for i := range m {
		m[i] = 0
	}
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
}

// IdentityMatrix returns a new 4x4 identity matrix.
func IdentityMatrix() [16]float32 {
	var m [16]float32
	Identity(m[:])
	return m
}

// Mul4 multiplies two 4x4 matrices and stores the result in out.
// All matrices are stored in column-major order.
// Result: out = a * b
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - a: left-hand matrix (16 elements)
//   - b: right-hand matrix (16 elements)
func Mul4(out, a, b []float32) {
	var buf [16]float32
	for i := 0; i < 4; i++ { // column of B
		for j := 0; j < 4; j++ { // row of A
			sum := float32(0)
			for k := 0; k < 4; k++ {
				sum += a[k*4+j] * b[i*4+k]
			}
			buf[i*4+j] = sum
		}
	}
	copy(out, buf[:])
}

// MulMatrix returns a * b for two column-major 4x4 matrices.
func MulMatrix(a, b [16]float32) [16]float32 {
	var out [16]float32
	Mul4(out[:], a[:], b[:])
	return out
}

// Invert4 computes the inverse of a 4x4 column-major matrix using the Laplace
// expansion (cofactor) method. If the matrix is singular (determinant ≈ 0) the
// output is left unchanged and the function returns false.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - m: source matrix (16 elements, column-major)
//
// Returns:
//   - bool: true if the matrix was successfully inverted, false if singular
func Invert4(out, m []float32) bool {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return false
	}

	invDet := 1.0 / det
	var buf [16]float32

	buf[0] = (m[5]*c5 - m[6]*c4 + m[7]*c3) * invDet
	buf[1] = (-m[1]*c5 + m[2]*c4 - m[3]*c3) * invDet
	buf[2] = (m[13]*s5 - m[14]*s4 + m[15]*s3) * invDet
	buf[3] = (-m[9]*s5 + m[10]*s4 - m[11]*s3) * invDet

	buf[4] = (-m[4]*c5 + m[6]*c2 - m[7]*c1) * invDet
	buf[5] = (m[0]*c5 - m[2]*c2 + m[3]*c1) * invDet
	buf[6] = (-m[12]*s5 + m[14]*s2 - m[15]*s1) * invDet
	buf[7] = (m[8]*s5 - m[10]*s2 + m[11]*s1) * invDet

	buf[8] = (m[4]*c4 - m[5]*c2 + m[7]*c0) * invDet
	buf[9] = (-m[0]*c4 + m[1]*c2 - m[3]*c0) * invDet
	buf[10] = (m[12]*s4 - m[13]*s2 + m[15]*s0) * invDet
	buf[11] = (-m[8]*s4 + m[9]*s2 - m[11]*s0) * invDet

	buf[12] = (-m[4]*c3 + m[5]*c1 - m[6]*c0) * invDet
	buf[13] = (m[0]*c3 - m[1]*c1 + m[2]*c0) * invDet
	buf[14] = (-m[12]*s3 + m[13]*s1 - m[14]*s0) * invDet
	buf[15] = (m[8]*s3 - m[9]*s1 + m[10]*s0) * invDet

	copy(out, buf[:])
	return true
}

// InverseMatrix returns the inverse of m, or m unchanged when it is singular.
func InverseMatrix(m [16]float32) [16]float32 {
	out := m
	Invert4(out[:], m[:])
	return out
}

// ComposeMatrix builds a column-major world transform from translation, rotation
// quaternion (x, y, z, w) and scale. The result is T * R * S.
//
// Parameters:
//   - position: translation in world space
//   - rotation: unit quaternion
//   - scale: scale factor along each local axis
//
// Returns:
//   - [16]float32: the composed transform
func ComposeMatrix(position [3]float32, rotation [4]float32, scale [3]float32) [16]float32 {
	r := QuatToMatrix3(rotation)
	return [16]float32{
		r[0] * scale[0], r[1] * scale[0], r[2] * scale[0], 0,
		r[3] * scale[1], r[4] * scale[1], r[5] * scale[1], 0,
		r[6] * scale[2], r[7] * scale[2], r[8] * scale[2], 0,
		position[0], position[1], position[2], 1,
	}
}

// TransformPoint multiplies a point (w = 1) by an affine column-major matrix.
func TransformPoint(m [16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// ProjectPoint multiplies a point by a projective matrix and performs the divide by w.
func ProjectPoint(m [16]float32, p [3]float32) [3]float32 {
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w == 0 {
		w = Epsilon
	}
	inv := 1 / w
	return [3]float32{
		(m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]) * inv,
		(m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]) * inv,
		(m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]) * inv,
	}
}

// TransformVector multiplies a direction (w = 0) by the upper 3x3 of a column-major matrix.
func TransformVector(m [16]float32, v [3]float32) [3]float32 {
	return [3]float32{
		m[0]*v[0] + m[4]*v[1] + m[8]*v[2],
		m[1]*v[0] + m[5]*v[1] + m[9]*v[2],
		m[2]*v[0] + m[6]*v[1] + m[10]*v[2],
	}
}

// Translation returns the translation column of a column-major affine matrix.
func Translation(m [16]float32) [3]float32 {
	return [3]float32{m[12], m[13], m[14]}
}

// MatrixScale returns the length of each basis column of an affine matrix.
func MatrixScale(m [16]float32) [3]float32 {
	return [3]float32{
		Length3([3]float32{m[0], m[1], m[2]}),
		Length3([3]float32{m[4], m[5], m[6]}),
		Length3([3]float32{m[8], m[9], m[10]}),
	}
}

// Perspective creates a left-handed perspective projection with +Z forward and
// WebGPU clip-space depth [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in degrees
//   - aspect: viewport aspect ratio (width/height)
//   - zoom: multiplier applied to the projection scale
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - [16]float32: the projection matrix
func Perspective(fovY, aspect, zoom, near, far float32) [16]float32 {
	var out [16]float32
	h := (1 / math32.Tan(fovY*DegToRad*0.5)) * zoom
	w := h / aspect
	q := far / (far - near)
	out[0] = w
	out[5] = h
	out[10] = q
	out[11] = 1
	out[14] = -q * near
	return out
}

// Orthographic creates a left-handed orthographic projection with +Z forward and
// depth [0, 1] over [near, far]. orthoSize is the full vertical extent of the view.
func Orthographic(orthoSize, aspect, zoom, near, far float32) [16]float32 {
	var out [16]float32
	h := (1 / (orthoSize * 0.5)) * zoom
	w := h / aspect
	q := 1 / (far - near)
	out[0] = w
	out[5] = h
	out[10] = q
	out[14] = -q * near
	out[15] = 1
	return out
}

// Add3 returns a + b.
func Add3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Sub3 returns a - b.
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Scale3 returns v * s.
func Scale3(v [3]float32, s float32) [3]float32 {
	return [3]float32{v[0] * s, v[1] * s, v[2] * s}
}

// Mul3 returns the componentwise product of a and b.
func Mul3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Dot3 returns the dot product of a and b.
func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross3 returns the cross product a x b.
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Length3 returns the Euclidean length of v.
func Length3(v [3]float32) float32 {
	return math32.Sqrt(Dot3(v, v))
}

// Normalize3 returns v scaled to unit length, or v unchanged if it has zero length.
func Normalize3(v [3]float32) [3]float32 {
	l := Length3(v)
	if l < Epsilon {
		return v
	}
	return Scale3(v, 1/l)
}

// Abs3 returns the componentwise absolute value of v.
func Abs3(v [3]float32) [3]float32 {
	return [3]float32{math32.Abs(v[0]), math32.Abs(v[1]), math32.Abs(v[2])}
}

// Min3 returns the componentwise minimum of a and b.
func Min3(a, b [3]float32) [3]float32 {
	return [3]float32{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

// Max3 returns the componentwise maximum of a and b.
func Max3(a, b [3]float32) [3]float32 {
	return [3]float32{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])}
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp restricts v to the range [lo, hi].
func Clamp[T int | int32 | float32](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IdentityQuat is the quaternion with no rotation.
var IdentityQuat = [4]float32{0, 0, 0, 1}

// QuatFromAxisAngle builds a rotation of angle degrees around the given axis.
func QuatFromAxisAngle(axis [3]float32, angle float32) [4]float32 {
	axis = Normalize3(axis)
	half := angle * DegToRad * 0.5
	s := math32.Sin(half)
	return [4]float32{axis[0] * s, axis[1] * s, axis[2] * s, math32.Cos(half)}
}

// QuatFromRotationTo returns the shortest rotation that turns direction from into direction to.
func QuatFromRotationTo(from, to [3]float32) [4]float32 {
	from = Normalize3(from)
	to = Normalize3(to)
	d := Dot3(from, to)
	if d > -1+Epsilon {
		c := Cross3(from, to)
		s := math32.Sqrt((1 + d) * 2)
		inv := 1 / s
		return normalizeQuat([4]float32{c[0] * inv, c[1] * inv, c[2] * inv, s * 0.5})
	}
	axis := Cross3([3]float32{1, 0, 0}, from)
	if Length3(axis) < Epsilon {
		axis = Cross3([3]float32{0, 1, 0}, from)
	}
	return QuatFromAxisAngle(axis, 180)
}

// QuatFromLookRotation returns the rotation whose local +Z faces direction and whose
// local +Y is as close to up as possible.
func QuatFromLookRotation(direction, up [3]float32) [4]float32 {
	forward := Normalize3(direction)
	right := Cross3(up, forward)
	if Length3(right) < Epsilon {
		return QuatFromRotationTo([3]float32{0, 0, 1}, forward)
	}
	right = Normalize3(right)
	realUp := Cross3(forward, right)
	return QuatFromAxes(right, realUp, forward)
}

// QuatFromAxes builds a quaternion from an orthonormal basis given as its x, y and z axes.
func QuatFromAxes(x, y, z [3]float32) [4]float32 {
	// rotation matrix columns are x, y, z
	m00, m01, m02 := x[0], y[0], z[0]
	m10, m11, m12 := x[1], y[1], z[1]
	m20, m21, m22 := x[2], y[2], z[2]
	var q [4]float32
	t := m00 + m11 + m22
	switch {
	case t > 0:
		s := math32.Sqrt(t+1) * 2
		q = [4]float32{(m21 - m12) / s, (m02 - m20) / s, (m10 - m01) / s, 0.25 * s}
	case m00 > m11 && m00 > m22:
		s := math32.Sqrt(1+m00-m11-m22) * 2
		q = [4]float32{0.25 * s, (m01 + m10) / s, (m02 + m20) / s, (m21 - m12) / s}
	case m11 > m22:
		s := math32.Sqrt(1+m11-m00-m22) * 2
		q = [4]float32{(m01 + m10) / s, 0.25 * s, (m12 + m21) / s, (m02 - m20) / s}
	default:
		s := math32.Sqrt(1+m22-m00-m11) * 2
		q = [4]float32{(m02 + m20) / s, (m12 + m21) / s, 0.25 * s, (m10 - m01) / s}
	}
	return normalizeQuat(q)
}

// QuatMul returns the Hamilton product a * b (b applied first).
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] + a[1]*b[3] + a[2]*b[0] - a[0]*b[2],
		a[3]*b[2] + a[2]*b[3] + a[0]*b[1] - a[1]*b[0],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatRotate rotates v by the unit quaternion q.
func QuatRotate(q [4]float32, v [3]float32) [3]float32 {
	u := [3]float32{q[0], q[1], q[2]}
	uv := Cross3(u, v)
	uuv := Cross3(u, uv)
	uv = Scale3(uv, 2*q[3])
	uuv = Scale3(uuv, 2)
	return Add3(v, Add3(uv, uuv))
}

// QuatToMatrix3 returns the rotation matrix of q as 9 floats in column-major order.
func QuatToMatrix3(q [4]float32) [9]float32 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	return [9]float32{
		1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y),
		2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x),
		2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y),
	}
}

func normalizeQuat(q [4]float32) [4]float32 {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < Epsilon {
		return IdentityQuat
	}
	inv := 1 / l
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}
