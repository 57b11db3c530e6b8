package control

import (
	"fmt"

	"github.com/san-kum/rigidsim/internal/dynamo"
)

// PID drives a measured value toward Target.
type PID struct {
	Kp, Ki, Kd float64
	Target     float64

	integral, prevErr float64
	first             bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, Target: target, first: true}
}

// Compute returns the control output for value measured dt after the
// previous call. The first call has no derivative term.
func (p *PID) Compute(value, dt float64) float64 {
	err := p.Target - value

	if p.first || dt <= 0 {
		p.prevErr = err
		p.first = false
		return p.Kp * err
	}

	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err
	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

func (p *PID) Reset() {
	p.integral, p.prevErr, p.first = 0, 0, true
}

// Params lists the gains and target by name.
func (p *PID) Params() map[string]float64 {
	return map[string]float64{"kp": p.Kp, "ki": p.Ki, "kd": p.Kd, "target": p.Target}
}

// Set changes one named parameter between steps.
func (p *PID) Set(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "ki":
		p.Ki = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	default:
		return fmt.Errorf("pid parameter %q: %w", name, dynamo.ErrInvalidConfig)
	}
	return nil
}
