package equation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Rotational keeps world axes AxisA (on Bi) and AxisB (on Bj) at most
// MaxAngle apart. With the default π/2 it holds them perpendicular.
type Rotational struct {
	Row
	AxisA, AxisB mgl64.Vec3
	MaxAngle     float64
}

func NewRotational(bi, bj *physics.Body, maxForce float64) *Rotational {
	if maxForce == 0 {
		maxForce = DefaultMaxForce
	}
	return &Rotational{
		Row:      newRow(bi, bj, -maxForce, maxForce),
		AxisA:    dynamo.UnitX,
		AxisB:    dynamo.UnitY,
		MaxAngle: math.Pi / 2,
	}
}

func (r *Rotational) ComputeB(h float64) float64 {
	return angularB(&r.Row, r.AxisA, r.AxisB, r.MaxAngle, h)
}

// Cone keeps AxisB within Angle of AxisA.
type Cone struct {
	Row
	AxisA, AxisB mgl64.Vec3
	Angle        float64
}

func NewCone(bi, bj *physics.Body, maxForce, angle float64) *Cone {
	if maxForce == 0 {
		maxForce = DefaultMaxForce
	}
	return &Cone{
		Row:   newRow(bi, bj, -maxForce, maxForce),
		AxisA: dynamo.UnitX,
		AxisB: dynamo.UnitY,
		Angle: angle,
	}
}

func (c *Cone) ComputeB(h float64) float64 {
	return angularB(&c.Row, c.AxisA, c.AxisB, c.Angle, h)
}

// angularB: g = cos(angle) - ni·nj, G = [0 nj×ni 0 ni×nj].
func angularB(e *Row, ni, nj mgl64.Vec3, angle, h float64) float64 {
	e.GA = Jacobian{Rotational: nj.Cross(ni)}
	e.GB = Jacobian{Rotational: ni.Cross(nj)}
	g := math.Cos(angle) - ni.Dot(nj)
	return -g*e.SpookA - e.ComputeGW()*e.SpookB - h*e.ComputeGiMf()
}

// RotationalMotor drives the relative angular velocity about AxisA/AxisB
// towards TargetVelocity.
type RotationalMotor struct {
	Row
	AxisA, AxisB   mgl64.Vec3
	TargetVelocity float64
}

func NewRotationalMotor(bi, bj *physics.Body, maxForce float64) *RotationalMotor {
	if maxForce == 0 {
		maxForce = DefaultMaxForce
	}
	return &RotationalMotor{Row: newRow(bi, bj, -maxForce, maxForce)}
}

func (m *RotationalMotor) ComputeB(h float64) float64 {
	m.GA = Jacobian{Rotational: m.AxisA}
	m.GB = Jacobian{Rotational: m.AxisB.Mul(-1)}
	gw := m.ComputeGW() - m.TargetVelocity
	return -gw*m.SpookB - h*m.ComputeGiMf()
}
