package physics

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

type BodyType int

const (
	// Dynamic bodies are fully simulated and respond to forces.
	Dynamic BodyType = 1
	// Static bodies never move and behave as if infinitely heavy.
	Static BodyType = 2
	// Kinematic bodies move by their velocity only and ignore forces.
	Kinematic BodyType = 4
)

func (t BodyType) String() string {
	switch t {
	case Dynamic:
		return "dynamic"
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	}
	return "unknown"
}

type SleepState int

const (
	Awake SleepState = iota
	Sleepy
	Sleeping
)

func (s SleepState) String() string {
	switch s {
	case Awake:
		return "awake"
	case Sleepy:
		return "sleepy"
	case Sleeping:
		return "sleeping"
	}
	return "unknown"
}

// SleepListener is told about sleepy, sleep, and wake-up-from-sleep
// transitions. to is the new state.
type SleepListener func(b *Body, to SleepState)

var bodyIDs atomic.Int64

type Body struct {
	ID    int
	Index int
	Name  string

	Type     BodyType
	Mass     float64
	InvMass  float64
	Material *Material

	Position               mgl64.Vec3
	PreviousPosition       mgl64.Vec3
	InterpolatedPosition   mgl64.Vec3
	InitPosition           mgl64.Vec3
	Velocity               mgl64.Vec3
	InitVelocity           mgl64.Vec3
	AngularVelocity        mgl64.Vec3
	InitAngularVelocity    mgl64.Vec3
	Quaternion             mgl64.Quat
	PreviousQuaternion     mgl64.Quat
	InterpolatedQuaternion mgl64.Quat
	InitQuaternion         mgl64.Quat

	Force  mgl64.Vec3
	Torque mgl64.Vec3

	LinearDamping  float64
	AngularDamping float64
	LinearFactor   mgl64.Vec3
	AngularFactor  mgl64.Vec3
	FixedRotation  bool

	Shapes            []Shape
	ShapeOffsets      []mgl64.Vec3
	ShapeOrientations []mgl64.Quat

	Inertia         mgl64.Vec3
	InvInertia      mgl64.Vec3
	InvInertiaWorld mgl64.Mat3

	// Solve-time copies; zero while sleeping or kinematic.
	InvMassSolve         float64
	InvInertiaSolve      mgl64.Vec3
	InvInertiaWorldSolve mgl64.Mat3

	// Velocity corrections accumulated by the solver.
	Vlambda mgl64.Vec3
	Wlambda mgl64.Vec3

	AABB            AABB
	AABBNeedsUpdate bool
	BoundingRadius  float64

	CollisionFilterGroup int
	CollisionFilterMask  int
	CollisionResponse    bool

	AllowSleep             bool
	SleepState             SleepState
	SleepSpeedLimit        float64
	SleepTimeLimit         float64
	TimeLastSleepy         float64
	WakeUpAfterNarrowphase bool

	OnSleepChange SleepListener
}

// NewBody creates a body of the given mass: dynamic when mass > 0, static
// otherwise.
func NewBody(mass float64) (*Body, error) {
	if mass < 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("body mass %v: %w", mass, dynamo.ErrInvalidMass)
	}
	b := &Body{
		ID:                     int(bodyIDs.Add(1) - 1),
		Index:                  -1,
		Mass:                   mass,
		Type:                   Static,
		Quaternion:             mgl64.QuatIdent(),
		PreviousQuaternion:     mgl64.QuatIdent(),
		InterpolatedQuaternion: mgl64.QuatIdent(),
		InitQuaternion:         mgl64.QuatIdent(),
		LinearDamping:          0.01,
		AngularDamping:         0.01,
		LinearFactor:           mgl64.Vec3{1, 1, 1},
		AngularFactor:          mgl64.Vec3{1, 1, 1},
		CollisionFilterGroup:   1,
		CollisionFilterMask:    -1,
		CollisionResponse:      true,
		AllowSleep:             true,
		SleepSpeedLimit:        0.1,
		SleepTimeLimit:         1,
		AABBNeedsUpdate:        true,
	}
	if mass > 0 {
		b.Type = Dynamic
	}
	b.UpdateMassProperties()
	return b, nil
}

// MustBody is NewBody for literal, known-good masses.
func MustBody(mass float64) *Body {
	b, err := NewBody(mass)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Body) String() string {
	if b.Name != "" {
		return fmt.Sprintf("%s#%d", b.Name, b.ID)
	}
	return fmt.Sprintf("body#%d", b.ID)
}

// SetPose moves the body and resets previous and interpolated poses with it.
func (b *Body) SetPose(pos mgl64.Vec3, q mgl64.Quat) {
	b.Position, b.PreviousPosition, b.InterpolatedPosition = pos, pos, pos
	b.Quaternion, b.PreviousQuaternion, b.InterpolatedQuaternion = q, q, q
	b.AABBNeedsUpdate = true
	b.UpdateInertiaWorld(true)
}

func (b *Body) SetType(t BodyType) {
	b.Type = t
	b.UpdateMassProperties()
}

// SetMass changes the mass and recomputes inertia. Non-positive masses are
// only valid for non-dynamic bodies.
func (b *Body) SetMass(mass float64) error {
	if mass < 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return fmt.Errorf("body mass %v: %w", mass, dynamo.ErrInvalidMass)
	}
	b.Mass = mass
	b.UpdateMassProperties()
	return nil
}

func (b *Body) WakeUp() {
	prev := b.SleepState
	b.SleepState = Awake
	b.WakeUpAfterNarrowphase = false
	if prev == Sleeping && b.OnSleepChange != nil {
		b.OnSleepChange(b, Awake)
	}
}

// Sleep puts the body to sleep immediately and zeroes its velocities.
func (b *Body) Sleep() {
	b.SleepState = Sleeping
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.WakeUpAfterNarrowphase = false
}

// SleepTick advances the sleep state machine at simulation time t.
func (b *Body) SleepTick(t float64) {
	if !b.AllowSleep {
		return
	}
	speed2 := b.Velocity.LenSqr() + b.AngularVelocity.LenSqr()
	limit2 := b.SleepSpeedLimit * b.SleepSpeedLimit
	switch {
	case b.SleepState == Awake && speed2 < limit2:
		b.SleepState = Sleepy
		b.TimeLastSleepy = t
		b.notify(Sleepy)
	case b.SleepState == Sleepy && speed2 > limit2:
		b.WakeUp()
	case b.SleepState == Sleepy && t-b.TimeLastSleepy > b.SleepTimeLimit:
		b.Sleep()
		b.notify(Sleeping)
	}
}

func (b *Body) notify(s SleepState) {
	if b.OnSleepChange != nil {
		b.OnSleepChange(b, s)
	}
}

// UpdateSolveMassProperties refreshes the solve-time inverse mass caches.
func (b *Body) UpdateSolveMassProperties() {
	if b.SleepState == Sleeping || b.Type == Kinematic {
		b.InvMassSolve = 0
		b.InvInertiaSolve = mgl64.Vec3{}
		b.InvInertiaWorldSolve = mgl64.Mat3{}
		return
	}
	b.InvMassSolve = b.InvMass
	b.InvInertiaSolve = b.InvInertia
	b.InvInertiaWorldSolve = b.InvInertiaWorld
}

func (b *Body) PointToLocalFrame(p mgl64.Vec3) mgl64.Vec3 {
	return dynamo.PointToLocal(b.Position, b.Quaternion, p)
}

func (b *Body) PointToWorldFrame(p mgl64.Vec3) mgl64.Vec3 {
	return dynamo.PointToWorld(b.Position, b.Quaternion, p)
}

func (b *Body) VectorToLocalFrame(v mgl64.Vec3) mgl64.Vec3 {
	return dynamo.VectorToLocal(b.Quaternion, v)
}

func (b *Body) VectorToWorldFrame(v mgl64.Vec3) mgl64.Vec3 {
	return dynamo.VectorToWorld(b.Quaternion, v)
}

// AddShape attaches s at a local offset and orientation and recomputes the
// mass properties.
func (b *Body) AddShape(s Shape, offset mgl64.Vec3, orientation mgl64.Quat) *Body {
	if orientation == (mgl64.Quat{}) {
		orientation = mgl64.QuatIdent()
	}
	b.Shapes = append(b.Shapes, s)
	b.ShapeOffsets = append(b.ShapeOffsets, offset)
	b.ShapeOrientations = append(b.ShapeOrientations, orientation)
	s.Base().Body = b
	b.UpdateMassProperties()
	b.UpdateBoundingRadius()
	b.AABBNeedsUpdate = true
	return b
}

// RemoveShape detaches s. It reports whether s was attached.
func (b *Body) RemoveShape(s Shape) bool {
	for i, sh := range b.Shapes {
		if sh != s {
			continue
		}
		b.Shapes = append(b.Shapes[:i], b.Shapes[i+1:]...)
		b.ShapeOffsets = append(b.ShapeOffsets[:i], b.ShapeOffsets[i+1:]...)
		b.ShapeOrientations = append(b.ShapeOrientations[:i], b.ShapeOrientations[i+1:]...)
		s.Base().Body = nil
		b.UpdateMassProperties()
		b.UpdateBoundingRadius()
		b.AABBNeedsUpdate = true
		return true
	}
	return false
}

// ShapeWorldPose returns the world position and orientation of shape i.
func (b *Body) ShapeWorldPose(i int) (mgl64.Vec3, mgl64.Quat) {
	pos := b.Position.Add(b.Quaternion.Rotate(b.ShapeOffsets[i]))
	return pos, b.Quaternion.Mul(b.ShapeOrientations[i])
}

func (b *Body) UpdateBoundingRadius() {
	radius := 0.0
	for i, s := range b.Shapes {
		s.UpdateBoundingSphereRadius()
		r := b.ShapeOffsets[i].Len() + s.Base().BoundingSphereRadius
		if r > radius {
			radius = r
		}
	}
	b.BoundingRadius = radius
}

// ComputeAABB refreshes AABB from the shapes' world boxes.
func (b *Body) ComputeAABB() {
	for i, s := range b.Shapes {
		pos, q := b.ShapeWorldPose(i)
		box := s.CalculateWorldAABB(pos, q)
		if i == 0 {
			b.AABB = box
		} else {
			b.AABB = b.AABB.Union(box)
		}
	}
	if len(b.Shapes) == 0 {
		b.AABB = AABB{Min: b.Position, Max: b.Position}
	}
	b.AABBNeedsUpdate = false
}

// UpdateInertiaWorld recomputes InvInertiaWorld. An isotropic inertia is
// rotation invariant and skipped unless force is set.
func (b *Body) UpdateInertiaWorld(force bool) {
	i := b.InvInertia
	if i[0] == i[1] && i[1] == i[2] && !force {
		return
	}
	b.InvInertiaWorld = dynamo.WorldInertia(b.Quaternion, i)
}

// UpdateMassProperties approximates the inertia with the box inertia of the
// body's local bounding box. Non-dynamic bodies get zero inverse mass.
func (b *Body) UpdateMassProperties() {
	b.InvMass = 0
	if b.Mass > 0 && b.Type == Dynamic {
		b.InvMass = 1.0 / b.Mass
	}

	var local AABB
	for i, s := range b.Shapes {
		box := s.CalculateWorldAABB(b.ShapeOffsets[i], b.ShapeOrientations[i])
		if i == 0 {
			local = box
		} else {
			local = local.Union(box)
		}
	}
	he := local.Extents().Mul(0.5)
	for k := range he {
		if math.IsInf(he[k], 0) || math.IsNaN(he[k]) {
			he[k] = 0
		}
	}

	b.Inertia = BoxInertia(he, b.Mass)
	if b.InvMass == 0 {
		b.Inertia = mgl64.Vec3{}
	}
	for k := 0; k < 3; k++ {
		b.InvInertia[k] = 0
		if b.Inertia[k] > 0 && !b.FixedRotation {
			b.InvInertia[k] = 1.0 / b.Inertia[k]
		}
	}
	b.UpdateInertiaWorld(true)
}

// ApplyForce adds force at a point relative to the centre of mass, given in
// world orientation. Only dynamic bodies accumulate forces.
func (b *Body) ApplyForce(force, relativePoint mgl64.Vec3) {
	if b.Type != Dynamic {
		return
	}
	b.Force = b.Force.Add(force)
	b.Torque = b.Torque.Add(relativePoint.Cross(force))
}

func (b *Body) ApplyLocalForce(localForce, localPoint mgl64.Vec3) {
	if b.Type != Dynamic {
		return
	}
	b.ApplyForce(b.VectorToWorldFrame(localForce), b.VectorToWorldFrame(localPoint))
}

// ApplyImpulse changes the velocities immediately, as if impulse were
// applied at relativePoint.
func (b *Body) ApplyImpulse(impulse, relativePoint mgl64.Vec3) {
	if b.Type != Dynamic {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Mul(b.InvMass))
	rot := relativePoint.Cross(impulse)
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld.Mul3x1(rot))
}

func (b *Body) ApplyLocalImpulse(localImpulse, localPoint mgl64.Vec3) {
	if b.Type != Dynamic {
		return
	}
	b.ApplyImpulse(b.VectorToWorldFrame(localImpulse), b.VectorToWorldFrame(localPoint))
}

func (b *Body) GetVelocityAtWorldPoint(p mgl64.Vec3) mgl64.Vec3 {
	r := p.Sub(b.Position)
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

// KineticEnergy is the translational plus rotational energy (body frame).
func (b *Body) KineticEnergy() float64 {
	if b.InvMass == 0 {
		return 0
	}
	w := b.VectorToLocalFrame(b.AngularVelocity)
	rot := 0.5 * (b.Inertia[0]*w[0]*w[0] + b.Inertia[1]*w[1]*w[1] + b.Inertia[2]*w[2]*w[2])
	return 0.5*b.Mass*b.Velocity.LenSqr() + rot
}

// Integrate advances the body by dt with semi-implicit Euler: velocity from
// force first, then position from the new velocity. Static and sleeping
// bodies only record their previous pose.
func (b *Body) Integrate(dt float64, quatNormalize, quatNormalizeFast bool) {
	b.PreviousPosition = b.Position
	b.PreviousQuaternion = b.Quaternion

	if !(b.Type == Dynamic || b.Type == Kinematic) || b.SleepState == Sleeping {
		return
	}

	iMdt := b.InvMass * dt
	b.Velocity = b.Velocity.Add(dynamo.Hadamard(b.Force, b.LinearFactor).Mul(iMdt))
	tau := dynamo.Hadamard(b.Torque, b.AngularFactor)
	b.AngularVelocity = b.AngularVelocity.Add(b.InvInertiaWorld.Mul3x1(tau).Mul(dt))

	b.Position = b.Position.Add(b.Velocity.Mul(dt))
	b.Quaternion = dynamo.IntegrateQuat(b.Quaternion, b.AngularVelocity, b.AngularFactor, dt)
	if quatNormalize {
		if quatNormalizeFast {
			b.Quaternion = dynamo.NormalizeQuatFast(b.Quaternion)
		} else {
			b.Quaternion = b.Quaternion.Normalize()
		}
	}

	b.AABBNeedsUpdate = true
	b.UpdateInertiaWorld(false)
}
