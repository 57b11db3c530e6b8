package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	UnitX = mgl64.Vec3{1, 0, 0}
	UnitY = mgl64.Vec3{0, 1, 0}
	UnitZ = mgl64.Vec3{0, 0, 1}
)

// Unit returns v normalized, or the zero vector when v has zero length.
func Unit(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// Tangents returns two unit vectors orthogonal to n and to each other.
// A zero n yields the x and y axes.
func Tangents(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if n.LenSqr() == 0 {
		return UnitX, UnitY
	}
	n = Unit(n)
	var t1 mgl64.Vec3
	if math.Abs(n[0]) < 0.9 {
		t1 = n.Cross(UnitX)
	} else {
		t1 = n.Cross(UnitY)
	}
	t1 = Unit(t1)
	return t1, Unit(n.Cross(t1))
}

// Hadamard multiplies a and b component-wise.
func Hadamard(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// IntegrateQuat advances q by angular velocity w (scaled by factor) over dt
// using q' = q + dt/2 * (w,0) * q. The result is not normalized.
func IntegrateQuat(q mgl64.Quat, w, factor mgl64.Vec3, dt float64) mgl64.Quat {
	omega := mgl64.Quat{W: 0, V: Hadamard(w, factor)}
	return q.Add(omega.Mul(q).Scale(0.5 * dt))
}

// NormalizeQuatFast renormalizes q with a first-order approximation,
// good when q is already close to unit length.
func NormalizeQuatFast(q mgl64.Quat) mgl64.Quat {
	f := (3.0 - q.Dot(q)) / 2.0
	if f == 0 {
		return mgl64.QuatIdent()
	}
	return q.Scale(f)
}

// RotationMatrix returns the 3x3 rotation matrix of q.
func RotationMatrix(q mgl64.Quat) mgl64.Mat3 {
	return q.Mat4().Mat3()
}

// WorldInertia returns R * diag(local) * R^T.
func WorldInertia(q mgl64.Quat, local mgl64.Vec3) mgl64.Mat3 {
	r := RotationMatrix(q)
	return r.Mul3(mgl64.Diag3(local)).Mul3(r.Transpose())
}

// PointToLocal maps a world point into the frame at (pos, q).
func PointToLocal(pos mgl64.Vec3, q mgl64.Quat, p mgl64.Vec3) mgl64.Vec3 {
	return q.Conjugate().Rotate(p.Sub(pos))
}

// PointToWorld maps a local point out of the frame at (pos, q).
func PointToWorld(pos mgl64.Vec3, q mgl64.Quat, p mgl64.Vec3) mgl64.Vec3 {
	return q.Rotate(p).Add(pos)
}

func VectorToLocal(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	return q.Conjugate().Rotate(v)
}

func VectorToWorld(q mgl64.Quat, v mgl64.Vec3) mgl64.Vec3 {
	return q.Rotate(v)
}

// ProjectOnPlane removes the component of v along the unit normal n.
func ProjectOnPlane(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// QuatFromAxisAngle builds a rotation of angle radians about axis.
// A zero axis yields the identity.
func QuatFromAxisAngle(axis mgl64.Vec3, angle float64) mgl64.Quat {
	if axis.LenSqr() == 0 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, Unit(axis))
}

// PointInTriangle reports whether p, assumed to lie in the plane of
// triangle abc, is inside it or on its boundary. Winding does not matter.
func PointInTriangle(p, a, b, c mgl64.Vec3) bool {
	v0, v1, v2 := c.Sub(a), b.Sub(a), p.Sub(a)
	dot00, dot01, dot02 := v0.Dot(v0), v0.Dot(v1), v0.Dot(v2)
	dot11, dot12 := v1.Dot(v1), v1.Dot(v2)
	den := dot00*dot11 - dot01*dot01
	if den == 0 {
		return false
	}
	u := (dot11*dot02 - dot01*dot12) / den
	v := (dot00*dot12 - dot01*dot02) / den
	return u >= 0 && v >= 0 && u+v <= 1
}
