// Package common contains the math, geometry, pooling and logging helpers shared by the
// engine packages.
package common

import (
	"math"
	"unsafe"
)

// Epsilon is the tolerance used for float32 comparisons across the animation runtime.
const Epsilon float32 = 1e-5

// Lerp linearly interpolates between a and b.
//
// Parameters:
//   - a: value returned at t == 0
//   - b: value returned at t == 1
//   - t: interpolation factor, not clamped
//
// Returns:
//   - float32: a + (b-a)*t
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsClose reports whether a and b differ by at most eps.
func IsClose(a, b, eps float32) bool {
	return Abs(a-b) <= eps
}

// Abs returns the absolute value of v.
func Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// SafeDiv divides a by b and returns fallback when |b| is below Epsilon.
//
// Parameters:
//   - a: dividend
//   - b: divisor
//   - fallback: value returned when the divisor is (near) zero
//
// Returns:
//   - float32: a/b, or fallback
func SafeDiv(a, b, fallback float32) float32 {
	if Abs(b) < Epsilon {
		return fallback
	}
	return a / b
}

// SafeFMod returns the floating-point remainder of x/y, or 0 when y is (near) zero.
func SafeFMod(x, y float32) float32 {
	if Abs(y) < Epsilon {
		return 0
	}
	return float32(math.Mod(float64(x), float64(y)))
}

// Lerp3 linearly interpolates two 3-component vectors.
func Lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{Lerp(a[0], b[0], t), Lerp(a[1], b[1], t), Lerp(a[2], b[2], t)}
}

// QuatIdentity returns the identity quaternion in (x, y, z, w) order.
func QuatIdentity() [4]float32 {
	return [4]float32{0, 0, 0, 1}
}

// QuatDot returns the 4D dot product of two quaternions.
func QuatDot(a, b [4]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

// QuatNormalize returns q scaled to unit length. A zero quaternion yields the identity.
func QuatNormalize(q [4]float32) [4]float32 {
	lenSq := QuatDot(q, q)
	if lenSq < Epsilon*Epsilon {
		return QuatIdentity()
	}
	inv := 1.0 / float32(math.Sqrt(float64(lenSq)))
	return [4]float32{q[0] * inv, q[1] * inv, q[2] * inv, q[3] * inv}
}

// QuatNlerp performs a normalized linear interpolation along the shortest arc.
//
// Parameters:
//   - a: rotation at t == 0 (x, y, z, w)
//   - b: rotation at t == 1 (x, y, z, w)
//   - t: interpolation factor in [0, 1]
//
// Returns:
//   - [4]float32: the normalized blended rotation
func QuatNlerp(a, b [4]float32, t float32) [4]float32 {
	if QuatDot(a, b) < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
	}
	return QuatNormalize([4]float32{
		Lerp(a[0], b[0], t),
		Lerp(a[1], b[1], t),
		Lerp(a[2], b[2], t),
		Lerp(a[3], b[3], t),
	})
}

// QuatSlerp performs a spherical linear interpolation along the shortest arc.
// Falls back to QuatNlerp for nearly parallel inputs.
func QuatSlerp(a, b [4]float32, t float32) [4]float32 {
	cosTheta := QuatDot(a, b)
	if cosTheta < 0 {
		b = [4]float32{-b[0], -b[1], -b[2], -b[3]}
		cosTheta = -cosTheta
	}
	if cosTheta > 1-Epsilon {
		return QuatNlerp(a, b, t)
	}
	theta := math.Acos(float64(cosTheta))
	sinTheta := math.Sin(theta)
	wa := float32(math.Sin((1-float64(t))*theta) / sinTheta)
	wb := float32(math.Sin(float64(t)*theta) / sinTheta)
	return [4]float32{
		a[0]*wa + b[0]*wb,
		a[1]*wa + b[1]*wb,
		a[2]*wa + b[2]*wb,
		a[3]*wa + b[3]*wb,
	}
}

// QuatMul returns the Hamilton product a*b (apply b, then a).
func QuatMul(a, b [4]float32) [4]float32 {
	return [4]float32{
		a[3]*b[0] + a[0]*b[3] + a[1]*b[2] - a[2]*b[1],
		a[3]*b[1] - a[0]*b[2] + a[1]*b[3] + a[2]*b[0],
		a[3]*b[2] + a[0]*b[1] - a[1]*b[0] + a[2]*b[3],
		a[3]*b[3] - a[0]*b[0] - a[1]*b[1] - a[2]*b[2],
	}
}

// QuatConjugate returns the inverse of a unit quaternion.
func QuatConjugate(q [4]float32) [4]float32 {
	return [4]float32{-q[0], -q[1], -q[2], q[3]}
}

// QuatRotate rotates v by the unit quaternion q.
func QuatRotate(q [4]float32, v [3]float32) [3]float32 {
	r := QuatMul(QuatMul(q, [4]float32{v[0], v[1], v[2], 0}), QuatConjugate(q))
	return [3]float32{r[0], r[1], r[2]}
}

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

// ComposeTRS builds a column-major 4x4 matrix from a translation, a unit
// quaternion (x, y, z, w) and a scale, equivalent to T * R * S.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - t: translation
//   - q: rotation quaternion
//   - s: scale
func ComposeTRS(out []float32, t [3]float32, q [4]float32, s [3]float32) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	out[0] = (1 - 2*(yy+zz)) * s[0]
	out[1] = 2 * (xy + wz) * s[0]
	out[2] = 2 * (xz - wy) * s[0]
	out[3] = 0

	out[4] = 2 * (xy - wz) * s[1]
	out[5] = (1 - 2*(xx+zz)) * s[1]
	out[6] = 2 * (yz + wx) * s[1]
	out[7] = 0

	out[8] = 2 * (xz + wy) * s[2]
	out[9] = 2 * (yz - wx) * s[2]
	out[10] = (1 - 2*(xx+yy)) * s[2]
	out[11] = 0

	out[12] = t[0]
	out[13] = t[1]
	out[14] = t[2]
	out[15] = 1
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// The returned slice shares memory with the input and must not be modified.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
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

// TransformPoint multiplies the point p by the column-major matrix m (w = 1).
func TransformPoint(m []float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// InvertAffine inverts a column-major affine 4x4 matrix whose bottom row is (0, 0, 0, 1).
//
// Parameters:
//   - out: destination slice (must be at least 16 elements); may alias m
//   - m: the matrix to invert
//
// Returns:
//   - bool: false when the upper 3x3 block is singular, in which case out is untouched
func InvertAffine(out, m []float32) bool {
	a00, a01, a02 := m[0], m[4], m[8]
	a10, a11, a12 := m[1], m[5], m[9]
	a20, a21, a22 := m[2], m[6], m[10]

	c00 := a11*a22 - a12*a21
	c01 := a12*a20 - a10*a22
	c02 := a10*a21 - a11*a20
	det := a00*c00 + a01*c01 + a02*c02
	if Abs(det) < 1e-12 {
		return false
	}
	inv := 1 / det

	var r [16]float32
	r[0], r[4], r[8] = c00*inv, (a02*a21-a01*a22)*inv, (a01*a12-a02*a11)*inv
	r[1], r[5], r[9] = c01*inv, (a00*a22-a02*a20)*inv, (a02*a10-a00*a12)*inv
	r[2], r[6], r[10] = c02*inv, (a01*a20-a00*a21)*inv, (a00*a11-a01*a10)*inv

	tx, ty, tz := m[12], m[13], m[14]
	r[12] = -(r[0]*tx + r[4]*ty + r[8]*tz)
	r[13] = -(r[1]*tx + r[5]*ty + r[9]*tz)
	r[14] = -(r[2]*tx + r[6]*ty + r[10]*tz)
	r[15] = 1
	copy(out, r[:])
	return true
}
