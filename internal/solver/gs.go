package solver

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// GS is a projected Gauss-Seidel solver. Iteration stops after Iterations
// sweeps or once the summed |Δλ| of a sweep falls below Tolerance.
type GS struct {
	Queue
	Iterations int
	Tolerance  float64

	lambda []float64
	b      []float64
	invC   []float64
}

func NewGS() *GS {
	return &GS{Iterations: 10, Tolerance: 1e-7}
}

func (s *GS) Solve(dt float64, w World) int {
	eqs := s.eqs
	n := len(eqs)
	if n == 0 {
		return 0
	}
	bodies := w.Bodies()
	for _, b := range bodies {
		b.UpdateSolveMassProperties()
	}

	s.lambda = resize(s.lambda, n)
	s.b = resize(s.b, n)
	s.invC = resize(s.invC, n)
	for i, eq := range eqs {
		s.lambda[i] = 0
		s.b[i] = eq.ComputeB(dt)
		s.invC[i] = 1.0 / eq.Base().ComputeC()
	}

	for _, b := range bodies {
		b.Vlambda = mgl64.Vec3{}
		b.Wlambda = mgl64.Vec3{}
	}

	tolSq := s.Tolerance * s.Tolerance
	iter := 0
	for iter = 0; iter < s.Iterations; iter++ {
		total := 0.0
		for j, eq := range eqs {
			c := eq.Base()
			lj := s.lambda[j]
			delta := s.invC[j] * (s.b[j] - c.ComputeGWlambda() - c.SpookEps*lj)
			if lj+delta < c.MinForce {
				delta = c.MinForce - lj
			} else if lj+delta > c.MaxForce {
				delta = c.MaxForce - lj
			}
			s.lambda[j] += delta
			if delta < 0 {
				total -= delta
			} else {
				total += delta
			}
			c.AddToWlambda(delta)
		}
		if total*total < tolSq {
			break
		}
	}

	for _, b := range bodies {
		b.Velocity = b.Velocity.Add(dynamo.Hadamard(b.Vlambda, b.LinearFactor))
		b.AngularVelocity = b.AngularVelocity.Add(dynamo.Hadamard(b.Wlambda, b.AngularFactor))
	}

	invDt := 1.0 / dt
	for i, eq := range eqs {
		eq.Base().Multiplier = s.lambda[i] * invDt
	}
	return iter
}

func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
