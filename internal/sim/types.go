package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/world"
)

// BodyState is one body's pose and motion at a sample.
type BodyState struct {
	Position        mgl64.Vec3
	Quaternion      mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
	Sleep           physics.SleepState
}

func (s BodyState) IsValid() bool {
	q := s.Quaternion
	return dynamo.IsFinite(s.Position) && dynamo.IsFinite(s.Velocity) &&
		dynamo.IsFinite(s.AngularVelocity) && dynamo.IsFinite(q.V) &&
		!math.IsNaN(q.W) && !math.IsInf(q.W, 0)
}

// Frame is the world state at one sample. Bodies follow world index order.
type Frame struct {
	Time     float64
	Step     int
	Contacts int
	Bodies   []BodyState
}

func (f Frame) Clone() Frame {
	c := f
	c.Bodies = make([]BodyState, len(f.Bodies))
	copy(c.Bodies, f.Bodies)
	return c
}

// Impact is a new contact between two bodies, recorded when it first
// appears.
type Impact struct {
	Time  float64
	BodyA int
	BodyB int
	// Speed is the closing speed along the contact normal.
	Speed float64
}

type Metric interface {
	Name() string
	Observe(w *world.World)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(w *world.World)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(w *world.World)

func (f ObserverFunc) OnStep(w *world.World) { f(w) }

type Config struct {
	Dt       float64
	Duration float64
	// SampleEvery records a frame every n steps; 0 records every step.
	SampleEvery   int
	ValidateState bool
	Seed          int64
}

type Result struct {
	Frames     []Frame
	BodyNames  []string
	Metrics    map[string]float64
	Events     map[string]int
	Impacts    []Impact
	StepsTaken int
}
