package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampVecMin raises each component of v to at least min.
func ClampVecMin(v mgl32.Vec3, min float32) mgl32.Vec3 {
	for i := 0; i < 3; i++ {
		if v[i] < min {
			v[i] = min
		}
	}
	return v
}

func MaxComponent(v mgl32.Vec3) float32 {
	m := v.X()
	if v.Y() > m {
		m = v.Y()
	}
	if v.Z() > m {
		m = v.Z()
	}
	return m
}

// EulerToQuat converts Euler angles in degrees to a quaternion using an
// intrinsic XYZ composition (q = Qx * Qy * Qz).
func EulerToQuat(deg mgl32.Vec3) mgl32.Quat {
	rx := mgl32.DegToRad(deg.X())
	ry := mgl32.DegToRad(deg.Y())
	rz := mgl32.DegToRad(deg.Z())
	qx := mgl32.QuatRotate(rx, mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(ry, mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(rz, mgl32.Vec3{0, 0, 1})
	return qx.Mul(qy).Mul(qz).Normalize()
}

// QuatToEuler is the inverse of EulerToQuat, returning degrees. Lossy and
// gimbal-prone near pitch = ±90; callers should not round-trip it per frame.
func QuatToEuler(q mgl32.Quat) mgl32.Vec3 {
	q = q.Normalize()
	w := float64(q.W)
	x := float64(q.X())
	y := float64(q.Y())
	z := float64(q.Z())

	// Rotation matrix elements for R = Rx*Ry*Rz.
	m02 := 2 * (x*z + w*y)
	m12 := 2 * (y*z - w*x)
	m22 := 1 - 2*(x*x+y*y)
	m01 := 2 * (x*y - w*z)
	m00 := 1 - 2*(y*y+z*z)

	var ex, ey, ez float64
	if m02 >= 1-1e-7 {
		ey = math.Pi / 2
		ex = math.Atan2(2*(y*z+w*x), 1-2*(x*x+z*z))
		ez = 0
	} else if m02 <= -1+1e-7 {
		ey = -math.Pi / 2
		ex = math.Atan2(2*(y*z+w*x), 1-2*(x*x+z*z))
		ez = 0
	} else {
		ey = math.Asin(m02)
		ex = math.Atan2(-m12, m22)
		ez = math.Atan2(-m01, m00)
	}

	return mgl32.Vec3{
		mgl32.RadToDeg(float32(ex)),
		mgl32.RadToDeg(float32(ey)),
		mgl32.RadToDeg(float32(ez)),
	}
}
