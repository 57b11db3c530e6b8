package control

import (
	"math"

	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/world"
)

// Servo steers a hinge motor so the hinge angle follows the PID target.
// The PID output is the wanted angular speed of B about the axis, clamped
// to MaxSpeed when that is positive.
type Servo struct {
	Hinge    *constraint.Hinge
	PID      *PID
	MaxSpeed float64
}

func NewServo(h *constraint.Hinge, pid *PID, maxSpeed float64) *Servo {
	h.EnableMotor()
	return &Servo{Hinge: h, PID: pid, MaxSpeed: maxSpeed}
}

// Update sets the motor speed from the current angle.
func (s *Servo) Update(dt float64) {
	u := s.PID.Compute(s.Hinge.Angle(), dt)
	if s.MaxSpeed > 0 {
		u = math.Max(-s.MaxSpeed, math.Min(s.MaxSpeed, u))
	}
	// The motor targets the speed of A relative to B.
	s.Hinge.SetMotorSpeed(-u)
}

// Attach updates the servo before every step of w and returns the
// unsubscribe function.
func (s *Servo) Attach(w *world.World) func() {
	return w.Events().On(event.PreStep, func(event.Event) {
		s.Update(w.Dt())
	})
}
