// Package world owns the bodies, constraints and collision pipeline and
// advances them in fixed steps.
package world

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/broadphase"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/narrowphase"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/solver"
)

// Profile holds the wall time spent in each phase of the last step.
type Profile struct {
	Solve                  time.Duration
	MakeContactConstraints time.Duration
	Broadphase             time.Duration
	Integrate              time.Duration
	Narrowphase            time.Duration
}

type World struct {
	Gravity    mgl64.Vec3
	AllowSleep bool
	// QuatNormalizeSkip normalizes orientations every skip+1 steps.
	QuatNormalizeSkip int
	QuatNormalizeFast bool

	Time       float64
	StepNumber int

	DefaultMaterial        *physics.Material
	DefaultContactMaterial *physics.ContactMaterial
	ContactMaterials       *physics.ContactMaterialTable

	Broadphase  broadphase.Broadphase
	Solver      solver.Solver
	Narrowphase *narrowphase.Narrowphase

	// Contacts and FrictionEquations are the equations built in the last step.
	Contacts          []*equation.Contact
	FrictionEquations []*equation.Friction

	DoProfiling bool
	Profile     Profile
	// Logger receives step-time notices; nil uses the physics logger.
	Logger *log.Logger

	dt          float64
	accumulator float64

	bodies      []*physics.Body
	byID        map[int]*physics.Body
	shapes      map[int]physics.Shape
	constraints []*constraint.Constraint
	springs     []*constraint.Spring
	events      *event.Dispatcher

	matrix, prevMatrix          *collision.Matrix
	bodyOverlaps, shapeOverlaps *collision.OverlapKeeper

	touching  []touching
	pairIndex map[uint64]int

	// Bodies and shapes removed since the last contact events, kept so
	// their end events can still name them.
	departed       map[int]*physics.Body
	departedShapes map[int]physics.Shape

	p1, p2        []*physics.Body
	additions     []collision.Pair
	removals      []collision.Pair
	queryScratch  []*physics.Body
	lastSolverRun int
}

// New returns an empty world with no gravity, a naive broadphase and a GS
// solver. The default contact material has friction 0.3 and restitution 0.
func New() *World {
	w := &World{
		DefaultMaterial:  physics.NewMaterial("default"),
		ContactMaterials: physics.NewContactMaterialTable(),
		Solver:           solver.NewGS(),
		dt:               -1,
		byID:             make(map[int]*physics.Body),
		shapes:           make(map[int]physics.Shape),
		events:           event.NewDispatcher(),
		matrix:           collision.NewMatrix(),
		prevMatrix:       collision.NewMatrix(),
		bodyOverlaps:     collision.NewOverlapKeeper(),
		shapeOverlaps:    collision.NewOverlapKeeper(),
	}
	w.DefaultContactMaterial = physics.NewContactMaterial(w.DefaultMaterial, w.DefaultMaterial)
	w.DefaultContactMaterial.Friction = 0.3
	w.DefaultContactMaterial.Restitution = 0
	w.Narrowphase = narrowphase.New(contactView{w})
	w.SetBroadphase(broadphase.NewNaive())
	return w
}

// SetBroadphase installs b and points it at this world.
func (w *World) SetBroadphase(b broadphase.Broadphase) {
	w.Broadphase = b
	b.SetWorld(w)
}

func (w *World) Bodies() []*physics.Body { return w.bodies }

// Events is the world's dispatcher. Body handlers registered with OnBody
// are dropped when the body is removed.
func (w *World) Events() *event.Dispatcher { return w.events }

func (w *World) Constraints() []*constraint.Constraint { return w.constraints }

func (w *World) Springs() []*constraint.Spring { return w.springs }

// Dt is the size of the last internal step, or -1 before the first one.
func (w *World) Dt() float64 { return w.dt }

// SolverIterations is what the solver reported in the last step.
func (w *World) SolverIterations() int { return w.lastSolverRun }

func (w *World) logger() *log.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return physics.Logger()
}

// AddBody appends b, assigning its index, and emits AddBody.
func (w *World) AddBody(b *physics.Body) error {
	if _, ok := w.byID[b.ID]; ok {
		return fmt.Errorf("add body %d: %w", b.ID, dynamo.ErrBodyExists)
	}
	b.Index = len(w.bodies)
	w.bodies = append(w.bodies, b)
	w.byID[b.ID] = b
	delete(w.departed, b.ID)
	for _, s := range b.Shapes {
		w.shapes[s.Base().ID] = s
		delete(w.departedShapes, s.Base().ID)
	}
	b.InitPosition = b.Position
	b.InitVelocity = b.Velocity
	b.InitAngularVelocity = b.AngularVelocity
	b.InitQuaternion = b.Quaternion
	b.PreviousPosition, b.InterpolatedPosition = b.Position, b.Position
	b.PreviousQuaternion, b.InterpolatedQuaternion = b.Quaternion, b.Quaternion
	b.OnSleepChange = w.sleepChanged
	w.events.Emit(event.Event{Type: event.AddBody, Body: b})
	return nil
}

// RemoveBody drops b, compacts the remaining indices and emits RemoveBody.
// Contacts b had are reported as ended at the next step.
func (w *World) RemoveBody(b *physics.Body) error {
	if _, ok := w.byID[b.ID]; !ok {
		return fmt.Errorf("remove body %d: %w", b.ID, dynamo.ErrBodyNotFound)
	}
	i := slices.Index(w.bodies, b)
	w.bodies = slices.Delete(w.bodies, i, i+1)
	for j := i; j < len(w.bodies); j++ {
		w.bodies[j].Index = j
	}
	delete(w.byID, b.ID)
	if w.departed == nil {
		w.departed = make(map[int]*physics.Body)
		w.departedShapes = make(map[int]physics.Shape)
	}
	w.departed[b.ID] = b
	for _, s := range b.Shapes {
		delete(w.shapes, s.Base().ID)
		w.departedShapes[s.Base().ID] = s
	}
	b.Index = -1
	b.OnSleepChange = nil
	w.events.Emit(event.Event{Type: event.RemoveBody, Body: b})
	w.events.ForgetBody(b)
	w.Broadphase.MarkDirty()
	return nil
}

func (w *World) GetBodyByID(id int) *physics.Body { return w.byID[id] }

// GetShapeByID finds a shape on any body in the world, or nil.
func (w *World) GetShapeByID(id int) physics.Shape {
	if s, ok := w.shapes[id]; ok && s.Base().Body != nil {
		return s
	}
	// Shapes added to a body after it joined the world.
	for _, b := range w.bodies {
		for _, s := range b.Shapes {
			if s.Base().ID == id {
				w.shapes[id] = s
				return s
			}
		}
	}
	return nil
}

func (w *World) NumObjects() int { return len(w.bodies) }

func (w *World) AddConstraint(c *constraint.Constraint) {
	w.constraints = append(w.constraints, c)
}

func (w *World) RemoveConstraint(c *constraint.Constraint) {
	if i := slices.Index(w.constraints, c); i >= 0 {
		w.constraints = slices.Delete(w.constraints, i, i+1)
	}
}

// AddSpring registers s; its force is applied every step before PreStep.
func (w *World) AddSpring(s *constraint.Spring) {
	w.springs = append(w.springs, s)
}

func (w *World) RemoveSpring(s *constraint.Spring) {
	if i := slices.Index(w.springs, s); i >= 0 {
		w.springs = slices.Delete(w.springs, i, i+1)
	}
}

func (w *World) AddContactMaterial(cm *physics.ContactMaterial) {
	w.ContactMaterials.Add(cm)
}

// GetContactMaterial returns the registered material for m1 and m2, or nil.
func (w *World) GetContactMaterial(m1, m2 *physics.Material) *physics.ContactMaterial {
	return w.ContactMaterials.Get(m1, m2)
}

// ClearForces zeroes the force and torque accumulators of every body.
func (w *World) ClearForces() {
	for _, b := range w.bodies {
		b.Force = mgl64.Vec3{}
		b.Torque = mgl64.Vec3{}
	}
}

func (w *World) sleepChanged(b *physics.Body, to physics.SleepState) {
	t := event.WakeUp
	switch to {
	case physics.Sleepy:
		t = event.Sleepy
	case physics.Sleeping:
		t = event.Sleep
	}
	w.events.Emit(event.Event{Type: t, Body: b})
}

// contactView adapts the world to what the narrowphase reads.
type contactView struct{ w *World }

func (v contactView) Gravity() mgl64.Vec3 { return v.w.Gravity }
func (v contactView) Dt() float64         { return v.w.dt }

func (v contactView) ContactMaterial(a, b *physics.Material) *physics.ContactMaterial {
	return v.w.ContactMaterials.Get(a, b)
}

func (v contactView) DefaultContactMaterial() *physics.ContactMaterial {
	return v.w.DefaultContactMaterial
}

func (v contactView) ShapeOverlaps() *collision.OverlapKeeper { return v.w.shapeOverlaps }
func (v contactView) BodyOverlaps() *collision.OverlapKeeper  { return v.w.bodyOverlaps }
