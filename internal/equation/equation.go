package equation

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Default force bounds for bilateral rows.
const (
	DefaultMinForce = -1e6
	DefaultMaxForce = 1e6
)

var nextID atomic.Int64

// Jacobian is one body's block of a constraint row.
type Jacobian struct {
	Spatial    mgl64.Vec3
	Rotational mgl64.Vec3
}

// MultiplyVectors returns Spatial·s + Rotational·r.
func (j Jacobian) MultiplyVectors(s, r mgl64.Vec3) float64 {
	return j.Spatial.Dot(s) + j.Rotational.Dot(r)
}

// Equation is a solvable constraint row.
type Equation interface {
	Base() *Row
	// ComputeB fills the Jacobian and returns the right-hand side for step h.
	ComputeB(h float64) float64
}

// Row carries the state shared by every equation kind.
type Row struct {
	ID       int
	MinForce float64
	MaxForce float64
	Bi, Bj   *physics.Body

	// SPOOK coefficients.
	SpookA, SpookB, SpookEps float64

	GA, GB     Jacobian
	Enabled    bool
	Multiplier float64
}

func newRow(bi, bj *physics.Body, minForce, maxForce float64) Row {
	b := Row{
		ID:       int(nextID.Add(1)),
		MinForce: minForce,
		MaxForce: maxForce,
		Bi:       bi,
		Bj:       bj,
		Enabled:  true,
	}
	b.SetSpookParams(1e7, 4, 1.0/60.0)
	return b
}

func (e *Row) Base() *Row { return e }

// SetSpookParams derives the regularisation from stiffness k, relaxation d
// (in steps) and step h.
func (e *Row) SetSpookParams(stiffness, relaxation, h float64) {
	d, k := relaxation, stiffness
	e.SpookA = 4.0 / (h * (1 + 4*d))
	e.SpookB = (4.0 * d) / (1 + 4*d)
	e.SpookEps = 4.0 / (h * h * k * (1 + 4*d))
}

// ComputeGq is the constraint violation G·q for the spatial part.
func (e *Row) ComputeGq() float64 {
	return e.GA.Spatial.Dot(e.Bi.Position) + e.GB.Spatial.Dot(e.Bj.Position)
}

// ComputeGW is G·W for the current body velocities.
func (e *Row) ComputeGW() float64 {
	return e.GA.MultiplyVectors(e.Bi.Velocity, e.Bi.AngularVelocity) +
		e.GB.MultiplyVectors(e.Bj.Velocity, e.Bj.AngularVelocity)
}

// ComputeGWlambda is G·W over the solver's accumulated velocity deltas.
func (e *Row) ComputeGWlambda() float64 {
	return e.GA.MultiplyVectors(e.Bi.Vlambda, e.Bi.Wlambda) +
		e.GB.MultiplyVectors(e.Bj.Vlambda, e.Bj.Wlambda)
}

// ComputeGiMf is G·M⁻¹·f for the accumulated forces and torques.
func (e *Row) ComputeGiMf() float64 {
	bi, bj := e.Bi, e.Bj
	return e.GA.MultiplyVectors(bi.Force.Mul(bi.InvMassSolve), bi.InvInertiaWorldSolve.Mul3x1(bi.Torque)) +
		e.GB.MultiplyVectors(bj.Force.Mul(bj.InvMassSolve), bj.InvInertiaWorldSolve.Mul3x1(bj.Torque))
}

// ComputeGiMGt is G·M⁻¹·Gᵀ.
func (e *Row) ComputeGiMGt() float64 {
	bi, bj := e.Bi, e.Bj
	r := bi.InvMassSolve + bj.InvMassSolve
	r += bi.InvInertiaWorldSolve.Mul3x1(e.GA.Rotational).Dot(e.GA.Rotational)
	r += bj.InvInertiaWorldSolve.Mul3x1(e.GB.Rotational).Dot(e.GB.Rotational)
	return r
}

// ComputeC is the regularised effective mass denominator.
func (e *Row) ComputeC() float64 {
	return e.ComputeGiMGt() + e.SpookEps
}

// AddToWlambda applies a multiplier increment to both bodies' velocity deltas.
func (e *Row) AddToWlambda(deltaLambda float64) {
	bi, bj := e.Bi, e.Bj
	bi.Vlambda = bi.Vlambda.Add(e.GA.Spatial.Mul(bi.InvMassSolve * deltaLambda))
	bj.Vlambda = bj.Vlambda.Add(e.GB.Spatial.Mul(bj.InvMassSolve * deltaLambda))
	bi.Wlambda = bi.Wlambda.Add(bi.InvInertiaWorldSolve.Mul3x1(e.GA.Rotational).Mul(deltaLambda))
	bj.Wlambda = bj.Wlambda.Add(bj.InvInertiaWorldSolve.Mul3x1(e.GB.Rotational).Mul(deltaLambda))
}
