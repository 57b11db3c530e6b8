package metrics

import "github.com/san-kum/rigidsim/internal/world"

// SolverIterations is the mean number of solver iterations per step.
type SolverIterations struct {
	name    string
	sum     int
	samples int
}

func NewSolverIterations() *SolverIterations {
	return &SolverIterations{name: "solver_iterations"}
}

func (s *SolverIterations) Name() string {
	return s.name
}

func (s *SolverIterations) Observe(w *world.World) {
	s.sum += w.SolverIterations()
	s.samples++
}

func (s *SolverIterations) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.samples)
}

func (s *SolverIterations) Reset() {
	s.sum = 0
	s.samples = 0
}
