package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

type Sphere struct {
	ShapeBase
	Radius float64
}

func NewSphere(radius float64) (*Sphere, error) {
	if radius < 0 || math.IsNaN(radius) {
		return nil, fmt.Errorf("sphere radius %v: %w", radius, dynamo.ErrNegativeRadius)
	}
	s := &Sphere{ShapeBase: newShapeBase(), Radius: radius}
	s.UpdateBoundingSphereRadius()
	return s, nil
}

func (s *Sphere) Kind() ShapeKind { return KindSphere }

func (s *Sphere) UpdateBoundingSphereRadius() { s.BoundingSphereRadius = s.Radius }

func (s *Sphere) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	i := 2.0 * mass * s.Radius * s.Radius / 5.0
	return mgl64.Vec3{i, i, i}
}

func (s *Sphere) CalculateWorldAABB(pos mgl64.Vec3, _ mgl64.Quat) AABB {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB{Min: pos.Sub(r), Max: pos.Add(r)}
}

func (s *Sphere) Volume() float64 {
	return 4.0 * math.Pi * s.Radius * s.Radius * s.Radius / 3.0
}
