package physics

import "github.com/go-gl/mathgl/mgl64"

// Particle is a point shape with no extent and no rotational inertia.
type Particle struct {
	ShapeBase
}

func NewParticle() *Particle {
	return &Particle{ShapeBase: newShapeBase()}
}

func (p *Particle) Kind() ShapeKind { return KindParticle }

func (p *Particle) UpdateBoundingSphereRadius() { p.BoundingSphereRadius = 0 }

func (p *Particle) CalculateLocalInertia(float64) mgl64.Vec3 { return mgl64.Vec3{} }

func (p *Particle) CalculateWorldAABB(pos mgl64.Vec3, _ mgl64.Quat) AABB {
	return AABB{Min: pos, Max: pos}
}

func (p *Particle) Volume() float64 { return 0 }
