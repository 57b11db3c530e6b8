package equation

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Friction is a pure velocity row along tangent T bounded by ±slip.
type Friction struct {
	Row
	Ri, Rj mgl64.Vec3
	T      mgl64.Vec3
}

func NewFriction(bi, bj *physics.Body, slip float64) *Friction {
	return &Friction{Row: newRow(bi, bj, -slip, slip)}
}

// Reset rebinds a pooled row.
func (f *Friction) Reset(bi, bj *physics.Body, slip float64) {
	f.Bi, f.Bj = bi, bj
	f.MinForce, f.MaxForce = -slip, slip
	f.Ri, f.Rj, f.T = mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}
	f.Multiplier = 0
	f.Enabled = true
}

func (f *Friction) ComputeB(h float64) float64 {
	rixt := f.Ri.Cross(f.T)
	rjxt := f.Rj.Cross(f.T)
	f.GA = Jacobian{Spatial: f.T.Mul(-1), Rotational: rixt.Mul(-1)}
	f.GB = Jacobian{Spatial: f.T, Rotational: rjxt}
	return -f.ComputeGW()*f.SpookB - h*f.ComputeGiMf()
}
