package analysis

import (
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/sim"
)

const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// Speeds below this count as resting.
const restSpeed = 0.05

// Series extracts one position coordinate of a body from each frame.
func Series(frames []sim.Frame, body, axis int) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		if body < len(f.Bodies) {
			out = append(out, f.Bodies[body].Position[axis])
		}
	}
	return out
}

func VelocitySeries(frames []sim.Frame, body, axis int) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		if body < len(f.Bodies) {
			out = append(out, f.Bodies[body].Velocity[axis])
		}
	}
	return out
}

type BodySummary struct {
	Body int
	// RestTime is when the body came to rest for good, or -1 if it never did.
	RestTime  float64
	MaxHeight float64
	MinHeight float64
	// Bounces counts upward reversals of the vertical velocity.
	Bounces   int
	Frequency float64
}

// Summarize reports how one body moved along the up axis.
func Summarize(frames []sim.Frame, body, up int) BodySummary {
	s := BodySummary{Body: body, RestTime: -1}
	if len(frames) == 0 || body >= len(frames[0].Bodies) {
		return s
	}

	s.MaxHeight = frames[0].Bodies[body].Position[up]
	s.MinHeight = s.MaxHeight
	falling := false
	for i, f := range frames {
		b := f.Bodies[body]
		h := b.Position[up]
		s.MaxHeight = max(s.MaxHeight, h)
		s.MinHeight = min(s.MinHeight, h)

		v := b.Velocity[up]
		if v < -restSpeed {
			falling = true
		} else if v > restSpeed && falling {
			s.Bounces++
			falling = false
		}

		resting := b.Sleep == physics.Sleeping || b.Velocity.Len() < restSpeed
		switch {
		case !resting:
			s.RestTime = -1
		case s.RestTime < 0 && i > 0:
			s.RestTime = f.Time
		}
	}

	if len(frames) > 1 {
		dt := frames[1].Time - frames[0].Time
		s.Frequency = DominantFrequency(Series(frames, body, up), dt)
	}
	return s
}
