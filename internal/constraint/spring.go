package constraint

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Spring is a damped Hooke spring between two body-local anchors. It is
// not a solver constraint: ApplyForce adds forces directly and must run
// every step before integration.
type Spring struct {
	BodyA, BodyB *physics.Body
	RestLength   float64
	Stiffness    float64
	Damping      float64

	LocalAnchorA mgl64.Vec3
	LocalAnchorB mgl64.Vec3
}

// NewSpring returns a spring with rest length 1, stiffness 100 and damping 1.
func NewSpring(a, b *physics.Body) *Spring {
	return &Spring{BodyA: a, BodyB: b, RestLength: 1, Stiffness: 100, Damping: 1}
}

func (s *Spring) SetWorldAnchorA(p mgl64.Vec3) { s.LocalAnchorA = s.BodyA.PointToLocalFrame(p) }
func (s *Spring) SetWorldAnchorB(p mgl64.Vec3) { s.LocalAnchorB = s.BodyB.PointToLocalFrame(p) }

func (s *Spring) WorldAnchorA() mgl64.Vec3 { return s.BodyA.PointToWorldFrame(s.LocalAnchorA) }
func (s *Spring) WorldAnchorB() mgl64.Vec3 { return s.BodyB.PointToWorldFrame(s.LocalAnchorB) }

// ApplyForce adds F = -k(|r| - L) r̂ - d (u·r̂) r̂ to b and its opposite to a,
// where r runs from anchor A to anchor B and u is the anchors' relative
// velocity.
func (s *Spring) ApplyForce() {
	a, b := s.BodyA, s.BodyB
	wa, wb := s.WorldAnchorA(), s.WorldAnchorB()
	ri := wa.Sub(a.Position)
	rj := wb.Sub(b.Position)

	r := wb.Sub(wa)
	length := r.Len()
	dir := dynamo.Unit(r)

	u := b.Velocity.Sub(a.Velocity).
		Add(b.AngularVelocity.Cross(rj)).
		Sub(a.AngularVelocity.Cross(ri))

	f := dir.Mul(-s.Stiffness*(length-s.RestLength) - s.Damping*u.Dot(dir))
	a.ApplyForce(f.Mul(-1), ri)
	b.ApplyForce(f, rj)
}
