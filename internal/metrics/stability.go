package metrics

import (
	"math"

	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/world"
)

// MaxPenetration is the deepest overlap seen in any contact, as a positive
// depth.
type MaxPenetration struct {
	name  string
	depth float64
}

func NewMaxPenetration() *MaxPenetration {
	return &MaxPenetration{name: "max_penetration"}
}

func (m *MaxPenetration) Name() string { return m.name }

func (m *MaxPenetration) Observe(w *world.World) {
	for _, c := range w.Contacts {
		if g := c.Penetration(); g < 0 {
			m.depth = math.Max(m.depth, -g)
		}
	}
}

func (m *MaxPenetration) Value() float64 { return m.depth }

func (m *MaxPenetration) Reset() { m.depth = 0 }

// ContactCount is the mean number of contacts per step.
type ContactCount struct {
	name    string
	sum     int
	samples int
}

func NewContactCount() *ContactCount {
	return &ContactCount{name: "contacts"}
}

func (c *ContactCount) Name() string { return c.name }

func (c *ContactCount) Observe(w *world.World) {
	c.sum += len(w.Contacts)
	c.samples++
}

func (c *ContactCount) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return float64(c.sum) / float64(c.samples)
}

func (c *ContactCount) Reset() {
	c.sum = 0
	c.samples = 0
}

// SleepingFraction is the share of dynamic bodies asleep at the last step.
type SleepingFraction struct {
	name     string
	fraction float64
}

func NewSleepingFraction() *SleepingFraction {
	return &SleepingFraction{name: "sleeping"}
}

func (s *SleepingFraction) Name() string { return s.name }

func (s *SleepingFraction) Observe(w *world.World) {
	dynamic, asleep := 0, 0
	for _, b := range w.Bodies() {
		if b.Type != physics.Dynamic {
			continue
		}
		dynamic++
		if b.SleepState == physics.Sleeping {
			asleep++
		}
	}
	if dynamic == 0 {
		s.fraction = 0
		return
	}
	s.fraction = float64(asleep) / float64(dynamic)
}

func (s *SleepingFraction) Value() float64 { return s.fraction }

func (s *SleepingFraction) Reset() { s.fraction = 0 }
