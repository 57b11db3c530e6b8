package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// InfiniteAABB spans all of space.
func InfiniteAABB() AABB {
	m := math.MaxFloat64
	return AABB{Min: mgl64.Vec3{-m, -m, -m}, Max: mgl64.Vec3{m, m, m}}
}

// AABBFromPoints returns the smallest box containing every point.
// An empty slice yields the zero box.
func AABBFromPoints(points []mgl64.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box = box.ExtendPoint(p)
	}
	return box
}

func (a AABB) ExtendPoint(p mgl64.Vec3) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], p[i])
		a.Max[i] = math.Max(a.Max[i], p[i])
	}
	return a
}

// Union returns the smallest box containing a and b.
func (a AABB) Union(b AABB) AABB {
	for i := 0; i < 3; i++ {
		a.Min[i] = math.Min(a.Min[i], b.Min[i])
		a.Max[i] = math.Max(a.Max[i], b.Max[i])
	}
	return a
}

// Overlaps reports whether a and b intersect, touching boundaries included.
func (a AABB) Overlaps(b AABB) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1] &&
		a.Min[2] <= b.Max[2] && b.Min[2] <= a.Max[2]
}

func (a AABB) Contains(p mgl64.Vec3) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1] &&
		p[2] >= a.Min[2] && p[2] <= a.Max[2]
}

func (a AABB) Extents() mgl64.Vec3 {
	return a.Max.Sub(a.Min)
}

func (a AABB) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Volume is zero for inverted or degenerate boxes.
func (a AABB) Volume() float64 {
	e := a.Extents()
	if e[0] <= 0 || e[1] <= 0 || e[2] <= 0 {
		return 0
	}
	return e[0] * e[1] * e[2]
}

// OverlapsRay reports whether the segment from..to passes through the box
// (slab test).
func (a AABB) OverlapsRay(from, to mgl64.Vec3) bool {
	dir := to.Sub(from)
	tmin, tmax := 0.0, 1.0
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if from[i] < a.Min[i] || from[i] > a.Max[i] {
				return false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (a.Min[i] - from[i]) * inv
		t2 := (a.Max[i] - from[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}

// Transform returns the world box of a local box posed at (pos, q).
func (a AABB) Transform(pos mgl64.Vec3, q mgl64.Quat) AABB {
	corners := a.corners()
	for i := range corners {
		corners[i] = q.Rotate(corners[i]).Add(pos)
	}
	return AABBFromPoints(corners[:])
}

// ToLocal returns the local box, in the frame at (pos, q), of a world box.
func (a AABB) ToLocal(pos mgl64.Vec3, q mgl64.Quat) AABB {
	inv := q.Conjugate()
	corners := a.corners()
	for i := range corners {
		corners[i] = inv.Rotate(corners[i].Sub(pos))
	}
	return AABBFromPoints(corners[:])
}

func (a AABB) corners() [8]mgl64.Vec3 {
	l, u := a.Min, a.Max
	return [8]mgl64.Vec3{
		{l[0], l[1], l[2]},
		{u[0], l[1], l[2]},
		{u[0], u[1], l[2]},
		{l[0], u[1], l[2]},
		{l[0], l[1], u[2]},
		{u[0], l[1], u[2]},
		{u[0], u[1], u[2]},
		{l[0], u[1], u[2]},
	}
}
