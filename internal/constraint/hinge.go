package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

// HingeOptions places a hinge. Zero axes default to +x.
type HingeOptions struct {
	PivotA, PivotB mgl64.Vec3
	AxisA, AxisB   mgl64.Vec3
	MaxForce       float64
}

// Hinge lets the bodies rotate relative to each other about one axis only.
// An optional motor drives the relative angular velocity about that axis.
type Hinge struct {
	*Constraint
	AxisA, AxisB mgl64.Vec3
	Motor        *equation.RotationalMotor
}

func NewHinge(a, b *physics.Body, opts HingeOptions) *Hinge {
	maxForce := maxForceOr(opts.MaxForce)
	c := newConstraint(a, b)
	p := newPivots(c, opts.PivotA, opts.PivotB, maxForce)

	h := &Hinge{
		Constraint: c,
		AxisA:      axisOr(opts.AxisA),
		AxisB:      axisOr(opts.AxisB),
		Motor:      equation.NewRotationalMotor(a, b, maxForce),
	}
	r1 := equation.NewRotational(a, b, maxForce)
	r2 := equation.NewRotational(a, b, maxForce)
	h.Motor.Enabled = false
	c.add(r1, r2, h.Motor)

	c.update = func() {
		p.update()
		worldA := a.VectorToWorldFrame(h.AxisA)
		worldB := b.VectorToWorldFrame(h.AxisB)
		r1.AxisA, r2.AxisA = dynamo.Tangents(worldA)
		r1.AxisB, r2.AxisB = worldB, worldB
		if h.Motor.Enabled {
			h.Motor.AxisA, h.Motor.AxisB = worldA, worldB
		}
	}
	return h
}

func (h *Hinge) EnableMotor()  { h.Motor.Enabled = true }
func (h *Hinge) DisableMotor() { h.Motor.Enabled = false }

// SetMotorSpeed sets the target relative angular speed in rad/s.
func (h *Hinge) SetMotorSpeed(speed float64) { h.Motor.TargetVelocity = speed }

func (h *Hinge) SetMotorMaxForce(maxForce float64) {
	h.Motor.MinForce, h.Motor.MaxForce = -maxForce, maxForce
}

// Angle is the rotation of B relative to A about the hinge axis, in
// (-π, π]. It is the twist part of the relative orientation measured
// around AxisA.
func (h *Hinge) Angle() float64 {
	rel := h.BodyA.Quaternion.Conjugate().Mul(h.BodyB.Quaternion)
	axis := h.AxisA.Normalize()
	angle := 2 * math.Atan2(rel.V.Dot(axis), rel.W)
	if angle > math.Pi {
		angle -= 2 * math.Pi
	} else if angle <= -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// ConeTwistOptions places a cone-twist joint. Angle bounds the swing of
// AxisB away from AxisA; TwistAngle bounds rotation about them.
type ConeTwistOptions struct {
	PivotA, PivotB mgl64.Vec3
	AxisA, AxisB   mgl64.Vec3
	MaxForce       float64
	Angle          float64
	TwistAngle     float64
}

// ConeTwist is a ball joint whose swing and twist are limited. Connected
// bodies do not collide by default.
type ConeTwist struct {
	*Constraint
	AxisA, AxisB      mgl64.Vec3
	Angle, TwistAngle float64
	Cone              *equation.Cone
	Twist             *equation.Rotational
}

func NewConeTwist(a, b *physics.Body, opts ConeTwistOptions) *ConeTwist {
	maxForce := maxForceOr(opts.MaxForce)
	c := newConstraint(a, b)
	c.CollideConnected = false
	p := newPivots(c, opts.PivotA, opts.PivotB, maxForce)

	ct := &ConeTwist{
		Constraint: c,
		AxisA:      axisOr(opts.AxisA),
		AxisB:      axisOr(opts.AxisB),
		Angle:      opts.Angle,
		TwistAngle: opts.TwistAngle,
		Cone:       equation.NewCone(a, b, maxForce, opts.Angle),
		Twist:      equation.NewRotational(a, b, maxForce),
	}
	// Both rows only push.
	ct.Cone.MinForce, ct.Cone.MaxForce = -maxForce, 0
	ct.Twist.MinForce, ct.Twist.MaxForce = -maxForce, 0
	c.add(ct.Cone, ct.Twist)

	c.update = func() {
		p.update()
		ct.Cone.AxisA = a.VectorToWorldFrame(ct.AxisA)
		ct.Cone.AxisB = b.VectorToWorldFrame(ct.AxisB)

		ta, _ := dynamo.Tangents(ct.AxisA)
		tb, _ := dynamo.Tangents(ct.AxisB)
		ct.Twist.AxisA = a.VectorToWorldFrame(ta)
		ct.Twist.AxisB = b.VectorToWorldFrame(tb)

		ct.Cone.Angle = ct.Angle
		ct.Twist.MaxAngle = ct.TwistAngle
	}
	return ct
}

func axisOr(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() == 0 {
		return dynamo.UnitX
	}
	return dynamo.Unit(v)
}
