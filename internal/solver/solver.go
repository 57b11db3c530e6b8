// Package solver computes constraint impulses for a set of equations with
// projected Gauss-Seidel iteration, optionally split into independent
// islands first.
package solver

import (
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

// World is what a solver needs from the simulation: the bodies whose
// velocities it updates.
type World interface {
	Bodies() []*physics.Body
}

// Solver resolves the queued equations for one step and reports how many
// iterations (or islands) it used.
type Solver interface {
	Solve(dt float64, w World) int
	AddEquation(eq equation.Equation)
	RemoveEquation(eq equation.Equation)
	RemoveAllEquations()
	Equations() []equation.Equation
}

// Queue is an ordered equation queue shared by the solver kinds.
type Queue struct {
	eqs []equation.Equation
}

// AddEquation queues eq if it is enabled.
func (q *Queue) AddEquation(eq equation.Equation) {
	if eq.Base().Enabled {
		q.eqs = append(q.eqs, eq)
	}
}

func (q *Queue) RemoveEquation(eq equation.Equation) {
	for i, e := range q.eqs {
		if e == eq {
			q.eqs = append(q.eqs[:i], q.eqs[i+1:]...)
			return
		}
	}
}

func (q *Queue) RemoveAllEquations() {
	clear(q.eqs)
	q.eqs = q.eqs[:0]
}

func (q *Queue) Equations() []equation.Equation { return q.eqs }

// bodyList adapts a plain slice to World.
type bodyList []*physics.Body

func (b bodyList) Bodies() []*physics.Body { return b }

// Bodies wraps a body slice as a World, for callers outside a full world.
func Bodies(bodies ...*physics.Body) World { return bodyList(bodies) }
