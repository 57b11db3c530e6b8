package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/world"
)

// Counted event types; Result.Events is keyed by their names.
var countedEvents = []event.Type{
	event.Collide, event.Impact, event.BeginContact, event.EndContact,
	event.Sleepy, event.Sleep, event.WakeUp,
}

type Simulator struct {
	world     *world.World
	metrics   []Metric
	observers []Observer
	pool      *FramePool
}

func New(w *world.World) *Simulator {
	return &Simulator{
		world:     w,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		pool:      NewFramePool(),
	}
}

func (s *Simulator) World() *world.World    { return s.world }
func (s *Simulator) Pool() *FramePool       { return s.pool }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run steps the world for cfg.Duration and records sampled frames, event
// counts and impacts. On cancellation the partial result is returned with
// the error.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	w := s.world
	steps := int(cfg.Duration/cfg.Dt + 0.5)
	every := max(cfg.SampleEvery, 1)
	result := &Result{
		Frames:    make([]Frame, 0, steps/every+1),
		BodyNames: make([]string, len(w.Bodies())),
		Metrics:   make(map[string]float64),
		Events:    make(map[string]int),
	}
	for i, b := range w.Bodies() {
		result.BodyNames[i] = b.Name
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	offs := s.record(result)
	defer func() {
		for _, off := range offs {
			off()
		}
	}()

	result.Frames = append(result.Frames, s.snapshot())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if err := w.Step(cfg.Dt, 0, 0); err != nil {
			return result, err
		}
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(w)
		}
		for _, obs := range s.observers {
			obs.OnStep(w)
		}

		if cfg.ValidateState {
			if err := s.validateState(); err != nil {
				return result, err
			}
		}
		if (i+1)%every == 0 {
			result.Frames = append(result.Frames, s.snapshot())
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// RunWithCallback steps until the duration ends or callback returns false.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(w *world.World) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	w := s.world
	for w.Time < cfg.Duration {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		if !callback(w) {
			return nil
		}
		if err := w.Step(cfg.Dt, 0, 0); err != nil {
			return err
		}
		if cfg.ValidateState {
			if err := s.validateState(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrInvalidTimestep)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrInvalidConfig)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d: %w", cfg.SampleEvery, dynamo.ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) validateState() error {
	w := s.world
	for _, b := range w.Bodies() {
		st := BodyState{Position: b.Position, Quaternion: b.Quaternion, Velocity: b.Velocity, AngularVelocity: b.AngularVelocity}
		if !st.IsValid() {
			return &dynamo.SimulationError{Step: w.StepNumber, Time: w.Time, Body: b.ID, Wrapped: dynamo.ErrUnstable}
		}
	}
	return nil
}

func (s *Simulator) snapshot() Frame {
	w := s.world
	f := Frame{
		Time:     w.Time,
		Step:     w.StepNumber,
		Contacts: len(w.Contacts),
		Bodies:   s.pool.Get(len(w.Bodies())),
	}
	Capture(w, f.Bodies)
	return f
}

// Capture copies the state of w's bodies into dst, which must be at least
// as long as the body list.
func Capture(w *world.World, dst []BodyState) {
	for i, b := range w.Bodies() {
		dst[i] = BodyState{
			Position:        b.Position,
			Quaternion:      b.Quaternion,
			Velocity:        b.Velocity,
			AngularVelocity: b.AngularVelocity,
			Sleep:           b.SleepState,
		}
	}
}

// record subscribes the event counters and impact log.
func (s *Simulator) record(result *Result) []func() {
	ev := s.world.Events()
	offs := make([]func(), 0, len(countedEvents))
	for _, t := range countedEvents {
		t := t
		name := t.String()
		offs = append(offs, ev.On(t, func(e event.Event) {
			if t == event.Collide && e.Body != e.BodyA {
				return
			}
			result.Events[name]++
			if t == event.Impact && e.Contact != nil {
				speed := math.Abs(e.Contact.ImpactVelocityAlongNormal())
				result.Impacts = append(result.Impacts, Impact{
					Time:  s.world.Time,
					BodyA: e.BodyA.Index,
					BodyB: e.BodyB.Index,
					Speed: speed,
				})
			}
		}))
	}
	return offs
}

// Release returns the frames' body buffers to p. The result must not be
// used afterwards.
func (r *Result) Release(p *FramePool) {
	for i := range r.Frames {
		p.Put(r.Frames[i].Bodies)
		r.Frames[i].Bodies = nil
	}
	r.Frames = nil
}
