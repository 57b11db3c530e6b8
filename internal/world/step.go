package world

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/broadphase"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/physics"
)

// DefaultMaxSubSteps bounds catch-up steps when Step is driven by wall time.
const DefaultMaxSubSteps = 10

// Step advances the world. With sinceLast == 0 it takes exactly one
// internal step of dt. Otherwise sinceLast is added to an accumulator that
// is drained in steps of dt, at most maxSubSteps of them, and the
// interpolated poses are set to the leftover fraction of a step.
func (w *World) Step(dt, sinceLast float64, maxSubSteps int) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("step dt=%v: %w", dt, dynamo.ErrInvalidTimestep)
	}
	if sinceLast < 0 || math.IsNaN(sinceLast) {
		return fmt.Errorf("step sinceLast=%v: %w", sinceLast, dynamo.ErrInvalidTimestep)
	}

	if sinceLast == 0 {
		w.InternalStep(dt)
		for _, b := range w.bodies {
			b.InterpolatedPosition = b.Position
			b.InterpolatedQuaternion = b.Quaternion
		}
		return nil
	}

	if maxSubSteps <= 0 {
		w.logger().Printf("world: maxSubSteps %d, using %d", maxSubSteps, DefaultMaxSubSteps)
		maxSubSteps = DefaultMaxSubSteps
	}
	w.accumulator += sinceLast
	sub := 0
	for w.accumulator >= dt && sub < maxSubSteps {
		w.InternalStep(dt)
		w.accumulator -= dt
		sub++
	}

	t := math.Mod(w.accumulator, dt) / dt
	for _, b := range w.bodies {
		b.InterpolatedPosition = b.PreviousPosition.Add(b.Position.Sub(b.PreviousPosition).Mul(t))
		b.InterpolatedQuaternion = mgl64.QuatSlerp(b.PreviousQuaternion, b.Quaternion, t).Normalize()
	}
	return nil
}

// InternalStep runs one fixed step of the pipeline: gravity, broadphase,
// narrowphase, constraints, solve, damping, integration, sleep and
// contact events, in that order.
func (w *World) InternalStep(dt float64) {
	w.dt = dt
	var t0 time.Time
	tick := func(d *time.Duration) {
		if w.DoProfiling {
			now := time.Now()
			*d = now.Sub(t0)
			t0 = now
		}
	}
	if w.DoProfiling {
		t0 = time.Now()
	}

	for _, b := range w.bodies {
		if b.Type == physics.Dynamic {
			b.Force = b.Force.Add(w.Gravity.Mul(b.Mass))
		}
	}

	if w.Broadphase == nil {
		w.SetBroadphase(broadphase.NewNaive())
	}
	w.p1, w.p2 = w.Broadphase.CollisionPairs(w, w.p1[:0], w.p2[:0])
	w.dropConnectedPairs()
	tick(&w.Profile.Broadphase)

	w.CollisionMatrixTick()

	w.Narrowphase.Release(w.Contacts, w.FrictionEquations)
	w.Contacts, w.FrictionEquations = w.Narrowphase.GetContacts(w.p1, w.p2, w.Contacts[:0], w.FrictionEquations[:0])
	tick(&w.Profile.Narrowphase)

	for _, f := range w.FrictionEquations {
		w.Solver.AddEquation(f)
	}
	for _, c := range w.Contacts {
		bi, bj := c.Bi, c.Bj
		w.Solver.AddEquation(c)

		if wakes(bi, bj) {
			bi.WakeUpAfterNarrowphase = true
		}
		if wakes(bj, bi) {
			bj.WakeUpAfterNarrowphase = true
		}

		w.matrix.Set(bi.Index, bj.Index, true)
		w.touch(c)

		w.bodyOverlaps.Set(bi.ID, bj.ID)
		if c.Si != nil && c.Sj != nil {
			w.shapeOverlaps.Set(c.Si.Base().ID, c.Sj.Base().ID)
		}
	}
	w.emitTouching()
	tick(&w.Profile.MakeContactConstraints)

	for _, b := range w.bodies {
		if b.WakeUpAfterNarrowphase {
			b.WakeUp()
			b.WakeUpAfterNarrowphase = false
		}
	}

	for _, c := range w.constraints {
		c.Update()
		for _, eq := range c.Equations {
			w.Solver.AddEquation(eq)
		}
	}
	w.lastSolverRun = w.Solver.Solve(dt, w)
	w.Solver.RemoveAllEquations()
	tick(&w.Profile.Solve)

	for _, b := range w.bodies {
		if b.Type != physics.Dynamic {
			continue
		}
		ld := math.Pow(1-b.LinearDamping, dt)
		b.Velocity = b.Velocity.Mul(ld)
		ad := math.Pow(1-b.AngularDamping, dt)
		b.AngularVelocity = b.AngularVelocity.Mul(ad)
	}

	for _, s := range w.springs {
		s.ApplyForce()
	}
	w.events.Emit(event.Event{Type: event.PreStep})

	if w.DoProfiling {
		t0 = time.Now()
	}
	normalize := w.StepNumber%(w.QuatNormalizeSkip+1) == 0
	for _, b := range w.bodies {
		b.Integrate(dt, normalize, w.QuatNormalizeFast)
	}
	w.ClearForces()
	w.Broadphase.MarkDirty()
	tick(&w.Profile.Integrate)

	w.Time += dt
	w.StepNumber++
	w.events.Emit(event.Event{Type: event.PostStep})

	if w.AllowSleep {
		for _, b := range w.bodies {
			b.SleepTick(w.Time)
		}
	}

	w.EmitContactEvents()
}

// wakes reports whether a sleeping a should be woken by touching b.
func wakes(a, b *physics.Body) bool {
	if !a.AllowSleep || a.Type != physics.Dynamic || a.SleepState != physics.Sleeping {
		return false
	}
	if b.SleepState != physics.Awake || b.Type == physics.Static {
		return false
	}
	speed2 := b.Velocity.LenSqr() + b.AngularVelocity.LenSqr()
	limit2 := b.SleepSpeedLimit * b.SleepSpeedLimit
	return speed2 >= 2*limit2
}

// dropConnectedPairs removes candidate pairs joined by a constraint that
// disables collision between its bodies.
func (w *World) dropConnectedPairs() {
	for _, c := range w.constraints {
		if c.CollideConnected {
			continue
		}
		for j := len(w.p1) - 1; j >= 0; j-- {
			a, b := w.p1[j], w.p2[j]
			if (c.BodyA == a && c.BodyB == b) || (c.BodyA == b && c.BodyB == a) {
				w.p1 = append(w.p1[:j], w.p1[j+1:]...)
				w.p2 = append(w.p2[:j], w.p2[j+1:]...)
			}
		}
	}
}

// touching is one body pair in contact during the current step.
type touching struct {
	deepest, fastest *equation.Contact
	isNew            bool
}

// touch folds c into the record for its body pair.
func (w *World) touch(c *equation.Contact) {
	i, j := c.Bi.Index, c.Bj.Index
	if i > j {
		i, j = j, i
	}
	key := uint64(i)<<32 | uint64(j)
	if w.pairIndex == nil {
		w.pairIndex = make(map[uint64]int)
	}
	n, ok := w.pairIndex[key]
	if !ok {
		w.pairIndex[key] = len(w.touching)
		w.touching = append(w.touching, touching{
			deepest: c,
			fastest: c,
			isNew:   !w.prevMatrix.Get(c.Bi.Index, c.Bj.Index),
		})
		return
	}
	p := &w.touching[n]
	if c.Penetration() < p.deepest.Penetration() {
		p.deepest = c
	}
	if c.ImpactVelocityAlongNormal() > p.fastest.ImpactVelocityAlongNormal() {
		p.fastest = c
	}
}

// emitTouching fires collide on both bodies of every touching pair, and
// impact for pairs that were apart last step.
func (w *World) emitTouching() {
	for _, p := range w.touching {
		c := p.deepest
		w.events.Emit(event.Event{Type: event.Collide, Body: c.Bi, BodyA: c.Bi, BodyB: c.Bj, Contact: c})
		w.events.Emit(event.Event{Type: event.Collide, Body: c.Bj, BodyA: c.Bi, BodyB: c.Bj, Contact: c})
		if p.isNew {
			f := p.fastest
			w.events.Emit(event.Event{Type: event.Impact, BodyA: f.Bi, BodyB: f.Bj, Contact: f})
		}
	}
	clear(w.touching)
	w.touching = w.touching[:0]
	clear(w.pairIndex)
}

// CollisionMatrixTick makes this step's contact matrix the previous one and
// advances both overlap keepers.
func (w *World) CollisionMatrixTick() {
	w.matrix, w.prevMatrix = w.prevMatrix, w.matrix
	w.matrix.Reset()
	w.bodyOverlaps.Tick()
	w.shapeOverlaps.Tick()
}

// EmitContactEvents compares this step's overlaps with the previous step's
// and emits begin and end events for the difference. Bodies removed since
// the last call still appear in end events.
func (w *World) EmitContactEvents() {
	defer func() {
		clear(w.departed)
		clear(w.departedShapes)
	}()

	hasBegin := w.events.Has(event.BeginContact)
	hasEnd := w.events.Has(event.EndContact)
	if hasBegin || hasEnd {
		w.additions, w.removals = w.bodyOverlaps.Diff(w.additions[:0], w.removals[:0])
		if hasBegin {
			w.emitBodyPairs(event.BeginContact, w.additions)
		}
		if hasEnd {
			w.emitBodyPairs(event.EndContact, w.removals)
		}
	}

	hasBegin = w.events.Has(event.BeginShapeContact)
	hasEnd = w.events.Has(event.EndShapeContact)
	if hasBegin || hasEnd {
		w.additions, w.removals = w.shapeOverlaps.Diff(w.additions[:0], w.removals[:0])
		if hasBegin {
			w.emitShapePairs(event.BeginShapeContact, w.additions)
		}
		if hasEnd {
			w.emitShapePairs(event.EndShapeContact, w.removals)
		}
	}
}

func (w *World) emitBodyPairs(t event.Type, pairs []collision.Pair) {
	for _, p := range pairs {
		a, b := w.bodyOrDeparted(p.A), w.bodyOrDeparted(p.B)
		if a == nil || b == nil {
			continue
		}
		w.events.Emit(event.Event{Type: t, BodyA: a, BodyB: b})
	}
}

func (w *World) emitShapePairs(t event.Type, pairs []collision.Pair) {
	for _, p := range pairs {
		sa, sb := w.shapeOrDeparted(p.A), w.shapeOrDeparted(p.B)
		if sa == nil || sb == nil {
			continue
		}
		w.events.Emit(event.Event{
			Type:   t,
			BodyA:  sa.Base().Body,
			BodyB:  sb.Base().Body,
			ShapeA: sa,
			ShapeB: sb,
		})
	}
}

func (w *World) bodyOrDeparted(id int) *physics.Body {
	if b := w.byID[id]; b != nil {
		return b
	}
	return w.departed[id]
}

func (w *World) shapeOrDeparted(id int) physics.Shape {
	if s := w.GetShapeByID(id); s != nil {
		return s
	}
	return w.departedShapes[id]
}
