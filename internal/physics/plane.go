package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Plane is the infinite half-space z <= 0 in its local frame; the surface
// normal is local +z.
type Plane struct {
	ShapeBase
}

func NewPlane() *Plane {
	p := &Plane{ShapeBase: newShapeBase()}
	p.UpdateBoundingSphereRadius()
	return p
}

func (p *Plane) Kind() ShapeKind { return KindPlane }

func (p *Plane) UpdateBoundingSphereRadius() { p.BoundingSphereRadius = math.MaxFloat64 }

func (p *Plane) CalculateLocalInertia(float64) mgl64.Vec3 { return mgl64.Vec3{} }

// WorldNormal returns the plane normal for orientation q.
func (p *Plane) WorldNormal(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(dynamo.UnitZ)
}

// CalculateWorldAABB is unbounded except along an axis the normal is exactly
// aligned with.
func (p *Plane) CalculateWorldAABB(pos mgl64.Vec3, q mgl64.Quat) AABB {
	n := p.WorldNormal(q)
	box := InfiniteAABB()
	for i := 0; i < 3; i++ {
		if n[i] == 1 {
			box.Max[i] = pos[i]
		}
		if n[i] == -1 {
			box.Min[i] = pos[i]
		}
	}
	return box
}

func (p *Plane) Volume() float64 { return math.MaxFloat64 }
