// Package scene describes worlds in YAML and builds them.
package scene

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
	"github.com/san-kum/rigidsim/internal/broadphase"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/constraint"
	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/solver"
	"github.com/san-kum/rigidsim/internal/world"
	"gopkg.in/yaml.v3"
)

type Description struct {
	Name             string                `yaml:"name"`
	Materials        []MaterialDesc        `yaml:"materials,omitempty"`
	ContactMaterials []ContactMaterialDesc `yaml:"contact_materials,omitempty"`
	Bodies           []BodyDesc            `yaml:"bodies"`
	Constraints      []ConstraintDesc      `yaml:"constraints,omitempty"`
	Springs          []SpringDesc          `yaml:"springs,omitempty"`
}

type MaterialDesc struct {
	Name        string   `yaml:"name"`
	Friction    *float64 `yaml:"friction,omitempty"`
	Restitution *float64 `yaml:"restitution,omitempty"`
}

type ContactMaterialDesc struct {
	A           string  `yaml:"a"`
	B           string  `yaml:"b"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// Rotation is an axis-angle orientation. A zero axis means identity.
type Rotation struct {
	Axis  [3]float64 `yaml:"axis"`
	Angle float64    `yaml:"angle"`
}

func (r Rotation) Quat() mgl64.Quat {
	axis := mgl64.Vec3(r.Axis)
	if axis.LenSqr() == 0 || r.Angle == 0 {
		return mgl64.QuatIdent()
	}
	return dynamo.QuatFromAxisAngle(axis, r.Angle)
}

type BodyDesc struct {
	Name string `yaml:"name"`
	// Type is dynamic, static or kinematic. Empty follows the mass.
	Type            string      `yaml:"type,omitempty"`
	Mass            float64     `yaml:"mass"`
	Position        [3]float64  `yaml:"position"`
	Rotation        Rotation    `yaml:"rotation,omitempty"`
	Velocity        [3]float64  `yaml:"velocity,omitempty"`
	AngularVelocity [3]float64  `yaml:"angular_velocity,omitempty"`
	LinearDamping   *float64    `yaml:"linear_damping,omitempty"`
	AngularDamping  *float64    `yaml:"angular_damping,omitempty"`
	LinearFactor    *[3]float64 `yaml:"linear_factor,omitempty"`
	AngularFactor   *[3]float64 `yaml:"angular_factor,omitempty"`
	FixedRotation   bool        `yaml:"fixed_rotation,omitempty"`
	AllowSleep      *bool       `yaml:"allow_sleep,omitempty"`
	SleepSpeedLimit *float64    `yaml:"sleep_speed_limit,omitempty"`
	SleepTimeLimit  *float64    `yaml:"sleep_time_limit,omitempty"`
	Material        string      `yaml:"material,omitempty"`
	CollisionGroup  *int        `yaml:"collision_group,omitempty"`
	CollisionMask   *int        `yaml:"collision_mask,omitempty"`
	Shapes          []ShapeDesc `yaml:"shapes"`
	// Repeat stamps Count copies, each offset by Step from the last.
	Repeat *Repeat `yaml:"repeat,omitempty"`
}

type Repeat struct {
	Count int        `yaml:"count"`
	Step  [3]float64 `yaml:"step"`
}

type ShapeDesc struct {
	// Kind is sphere, plane, box, particle, cylinder, convex, heightfield,
	// trimesh or torus.
	Kind        string     `yaml:"kind"`
	Radius      float64    `yaml:"radius,omitempty"`
	HalfExtents [3]float64 `yaml:"half_extents,omitempty"`

	RadiusTop    float64 `yaml:"radius_top,omitempty"`
	RadiusBottom float64 `yaml:"radius_bottom,omitempty"`
	Height       float64 `yaml:"height,omitempty"`
	Segments     int     `yaml:"segments,omitempty"`

	Vertices [][3]float64 `yaml:"vertices,omitempty"`
	Faces    [][]int      `yaml:"faces,omitempty"`
	Indices  []int        `yaml:"indices,omitempty"`

	Data        [][]float64 `yaml:"data,omitempty"`
	ElementSize float64     `yaml:"element_size,omitempty"`

	Tube            float64 `yaml:"tube,omitempty"`
	TubularSegments int     `yaml:"tubular_segments,omitempty"`

	Offset   [3]float64 `yaml:"offset,omitempty"`
	Rotation Rotation   `yaml:"rotation,omitempty"`
	Material string     `yaml:"material,omitempty"`
}

type ConstraintDesc struct {
	// Kind is point_to_point, distance, lock, hinge or cone_twist.
	Kind             string     `yaml:"kind"`
	A                string     `yaml:"a"`
	B                string     `yaml:"b"`
	PivotA           [3]float64 `yaml:"pivot_a,omitempty"`
	PivotB           [3]float64 `yaml:"pivot_b,omitempty"`
	AxisA            [3]float64 `yaml:"axis_a,omitempty"`
	AxisB            [3]float64 `yaml:"axis_b,omitempty"`
	Distance         float64    `yaml:"distance,omitempty"`
	MaxForce         float64    `yaml:"max_force,omitempty"`
	Angle            float64    `yaml:"angle,omitempty"`
	TwistAngle       float64    `yaml:"twist_angle,omitempty"`
	CollideConnected *bool      `yaml:"collide_connected,omitempty"`
	Motor            *MotorDesc `yaml:"motor,omitempty"`
}

type MotorDesc struct {
	Speed    float64    `yaml:"speed"`
	MaxForce float64    `yaml:"max_force,omitempty"`
	Servo    *ServoDesc `yaml:"servo,omitempty"`
}

// ServoDesc replaces the fixed motor speed with a PID loop holding the
// hinge at Target radians.
type ServoDesc struct {
	Target   float64 `yaml:"target"`
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	MaxSpeed float64 `yaml:"max_speed,omitempty"`
}

type SpringDesc struct {
	A          string     `yaml:"a"`
	B          string     `yaml:"b"`
	RestLength float64    `yaml:"rest_length"`
	Stiffness  float64    `yaml:"stiffness"`
	Damping    float64    `yaml:"damping"`
	AnchorA    [3]float64 `yaml:"anchor_a,omitempty"`
	AnchorB    [3]float64 `yaml:"anchor_b,omitempty"`
}

// Scene is a built world plus name lookups into it.
type Scene struct {
	Name   string
	World  *world.World
	Bodies []*physics.Body
	ByName map[string]*physics.Body
	Hinges []*constraint.Hinge
	Servos []*control.Servo
}

func LoadFile(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return &d, nil
}

func SaveFile(path string, d *Description) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve returns the built-in scene called name, or loads name as a file.
func Resolve(name string) (*Description, error) {
	if d, err := Builtin(name); err == nil {
		return d, nil
	}
	if _, err := os.Stat(name); err != nil {
		return nil, fmt.Errorf("scene %q: %w", name, dynamo.ErrUnknownScene)
	}
	return LoadFile(name)
}

// NewWorld returns an empty world set up from cfg.
func NewWorld(cfg *config.Config) (*world.World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := world.New()
	wc := cfg.World
	w.Gravity = mgl64.Vec3(wc.Gravity)
	w.AllowSleep = wc.AllowSleep
	w.QuatNormalizeSkip = wc.QuatNormalizeSkip
	w.QuatNormalizeFast = wc.QuatNormalizeFast
	w.Narrowphase.EnableFrictionReduction = wc.FrictionReduction

	cm := w.DefaultContactMaterial
	cm.Friction = cfg.Material.Friction
	cm.Restitution = cfg.Material.Restitution
	cm.ContactEquationStiffness = cfg.Material.Stiffness
	cm.ContactEquationRelaxation = cfg.Material.Relaxation
	cm.FrictionEquationStiffness = cfg.Material.Stiffness
	cm.FrictionEquationRelaxation = cfg.Material.Relaxation

	bc := cfg.Broadphase
	var bp broadphase.Broadphase
	switch bc.Kind {
	case "grid":
		g, err := broadphase.NewGrid(mgl64.Vec3(bc.Min), mgl64.Vec3(bc.Max), bc.Cells[0], bc.Cells[1], bc.Cells[2])
		if err != nil {
			return nil, err
		}
		g.UseBoundingBoxes = bc.UseBoundingBoxes
		bp = g
	case "sap":
		s := broadphase.NewSAP(nil)
		s.UseBoundingBoxes = bc.UseBoundingBoxes
		s.Axis = max(bc.Axis, 0)
		bp = s
	default:
		n := broadphase.NewNaive()
		n.UseBoundingBoxes = bc.UseBoundingBoxes
		bp = n
	}
	w.SetBroadphase(bp)

	gs := solver.NewGS()
	gs.Iterations = cfg.Solver.Iterations
	gs.Tolerance = cfg.Solver.Tolerance
	if cfg.Solver.Kind == "split" {
		split := solver.NewSplit(gs)
		split.Iterations = cfg.Solver.Iterations
		split.Tolerance = cfg.Solver.Tolerance
		w.Solver = split
	} else {
		w.Solver = gs
	}
	return w, nil
}

// Build creates a world from cfg and fills it with d's contents.
func Build(d *Description, cfg *config.Config) (*Scene, error) {
	w, err := NewWorld(cfg)
	if err != nil {
		return nil, err
	}
	sc := &Scene{Name: d.Name, World: w, ByName: make(map[string]*physics.Body)}
	if sap, ok := w.Broadphase.(*broadphase.SAP); ok && cfg.Broadphase.Axis < 0 {
		defer sap.AutoDetectAxis()
	}

	materials := map[string]*physics.Material{}
	for _, md := range d.Materials {
		m := physics.NewMaterial(md.Name)
		if md.Friction != nil {
			m.Friction = *md.Friction
		}
		if md.Restitution != nil {
			m.Restitution = *md.Restitution
		}
		materials[md.Name] = m
	}
	lookup := func(name string) (*physics.Material, error) {
		if name == "" {
			return nil, nil
		}
		m, ok := materials[name]
		if !ok {
			return nil, fmt.Errorf("material %q not declared: %w", name, dynamo.ErrInvalidConfig)
		}
		return m, nil
	}
	for _, cd := range d.ContactMaterials {
		a, err := lookup(cd.A)
		if err != nil {
			return nil, err
		}
		b, err := lookup(cd.B)
		if err != nil {
			return nil, err
		}
		cm := physics.NewContactMaterial(a, b)
		cm.Friction, cm.Restitution = cd.Friction, cd.Restitution
		cm.ContactEquationStiffness = cfg.Material.Stiffness
		cm.ContactEquationRelaxation = cfg.Material.Relaxation
		w.AddContactMaterial(cm)
	}

	bodies, err := expand(d.Bodies)
	if err != nil {
		return nil, err
	}
	for _, bd := range bodies {
		b, err := buildBody(bd, lookup)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", bd.Name, err)
		}
		if err := w.AddBody(b); err != nil {
			return nil, err
		}
		sc.Bodies = append(sc.Bodies, b)
		if bd.Name != "" {
			sc.ByName[bd.Name] = b
		}
	}

	for i, cd := range d.Constraints {
		if err := sc.addConstraint(cd); err != nil {
			return nil, fmt.Errorf("constraint %d (%s): %w", i, cd.Kind, err)
		}
	}
	for i, sd := range d.Springs {
		a, b, err := sc.pair(sd.A, sd.B)
		if err != nil {
			return nil, fmt.Errorf("spring %d: %w", i, err)
		}
		s := constraint.NewSpring(a, b)
		s.RestLength, s.Stiffness, s.Damping = sd.RestLength, sd.Stiffness, sd.Damping
		s.LocalAnchorA, s.LocalAnchorB = mgl64.Vec3(sd.AnchorA), mgl64.Vec3(sd.AnchorB)
		w.AddSpring(s)
	}
	return sc, nil
}

// expand replaces bodies carrying a Repeat block by their copies. Copy i
// is named "<name>_<i>".
func expand(bodies []BodyDesc) ([]BodyDesc, error) {
	out := make([]BodyDesc, 0, len(bodies))
	for _, bd := range bodies {
		if bd.Repeat == nil || bd.Repeat.Count <= 1 {
			bd.Repeat = nil
			out = append(out, bd)
			continue
		}
		for i := 0; i < bd.Repeat.Count; i++ {
			var c BodyDesc
			if err := copier.CopyWithOption(&c, &bd, copier.Option{DeepCopy: true}); err != nil {
				return nil, fmt.Errorf("repeat %q: %w", bd.Name, err)
			}
			c.Repeat = nil
			c.Name = fmt.Sprintf("%s_%d", bd.Name, i)
			for k := 0; k < 3; k++ {
				c.Position[k] += float64(i) * bd.Repeat.Step[k]
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func buildBody(bd BodyDesc, lookup func(string) (*physics.Material, error)) (*physics.Body, error) {
	b, err := physics.NewBody(bd.Mass)
	if err != nil {
		return nil, err
	}
	b.Name = bd.Name
	switch bd.Type {
	case "":
	case "dynamic":
		b.SetType(physics.Dynamic)
	case "static":
		b.SetType(physics.Static)
	case "kinematic":
		b.SetType(physics.Kinematic)
	default:
		return nil, fmt.Errorf("body type %q: %w", bd.Type, dynamo.ErrInvalidConfig)
	}

	if b.Material, err = lookup(bd.Material); err != nil {
		return nil, err
	}
	for i, sd := range bd.Shapes {
		s, err := buildShape(sd)
		if err != nil {
			return nil, fmt.Errorf("shape %d (%s): %w", i, sd.Kind, err)
		}
		if s.Base().Material, err = lookup(sd.Material); err != nil {
			return nil, err
		}
		if bd.CollisionGroup != nil {
			s.Base().CollisionFilterGroup = *bd.CollisionGroup
		}
		if bd.CollisionMask != nil {
			s.Base().CollisionFilterMask = *bd.CollisionMask
		}
		b.AddShape(s, mgl64.Vec3(sd.Offset), sd.Rotation.Quat())
	}

	if bd.CollisionGroup != nil {
		b.CollisionFilterGroup = *bd.CollisionGroup
	}
	if bd.CollisionMask != nil {
		b.CollisionFilterMask = *bd.CollisionMask
	}
	if bd.LinearDamping != nil {
		b.LinearDamping = *bd.LinearDamping
	}
	if bd.AngularDamping != nil {
		b.AngularDamping = *bd.AngularDamping
	}
	if bd.LinearFactor != nil {
		b.LinearFactor = mgl64.Vec3(*bd.LinearFactor)
	}
	if bd.AngularFactor != nil {
		b.AngularFactor = mgl64.Vec3(*bd.AngularFactor)
	}
	if bd.AllowSleep != nil {
		b.AllowSleep = *bd.AllowSleep
	}
	if bd.SleepSpeedLimit != nil {
		b.SleepSpeedLimit = *bd.SleepSpeedLimit
	}
	if bd.SleepTimeLimit != nil {
		b.SleepTimeLimit = *bd.SleepTimeLimit
	}
	if bd.FixedRotation {
		b.FixedRotation = true
		b.UpdateMassProperties()
	}

	b.SetPose(mgl64.Vec3(bd.Position), bd.Rotation.Quat())
	b.Velocity = mgl64.Vec3(bd.Velocity)
	b.AngularVelocity = mgl64.Vec3(bd.AngularVelocity)
	return b, nil
}

func buildShape(sd ShapeDesc) (physics.Shape, error) {
	switch sd.Kind {
	case "sphere":
		return physics.NewSphere(sd.Radius)
	case "plane":
		return physics.NewPlane(), nil
	case "box":
		return physics.NewBox(mgl64.Vec3(sd.HalfExtents))
	case "particle":
		return physics.NewParticle(), nil
	case "cylinder":
		return physics.NewCylinder(sd.RadiusTop, sd.RadiusBottom, sd.Height, sd.Segments)
	case "convex":
		return physics.NewConvexPolyhedron(vecs(sd.Vertices), sd.Faces, nil)
	case "heightfield":
		return physics.NewHeightfield(sd.Data, sd.ElementSize)
	case "trimesh":
		return physics.NewTrimesh(vecs(sd.Vertices), sd.Indices)
	case "torus":
		return physics.NewTorus(sd.Radius, sd.Tube, sd.Segments, sd.TubularSegments)
	}
	return nil, fmt.Errorf("shape kind %q: %w", sd.Kind, dynamo.ErrInvalidShape)
}

func vecs(in [][3]float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(in))
	for i, v := range in {
		out[i] = mgl64.Vec3(v)
	}
	return out
}

func (sc *Scene) pair(a, b string) (*physics.Body, *physics.Body, error) {
	ba, ok := sc.ByName[a]
	if !ok {
		return nil, nil, fmt.Errorf("body %q: %w", a, dynamo.ErrBodyNotFound)
	}
	bb, ok := sc.ByName[b]
	if !ok {
		return nil, nil, fmt.Errorf("body %q: %w", b, dynamo.ErrBodyNotFound)
	}
	return ba, bb, nil
}

func (sc *Scene) addConstraint(cd ConstraintDesc) error {
	a, b, err := sc.pair(cd.A, cd.B)
	if err != nil {
		return err
	}
	pa, pb := mgl64.Vec3(cd.PivotA), mgl64.Vec3(cd.PivotB)

	var c *constraint.Constraint
	switch cd.Kind {
	case "point_to_point":
		c = constraint.PointToPoint(a, pa, b, pb, cd.MaxForce)
	case "distance":
		d := cd.Distance
		if d == 0 {
			d = -1
		}
		c = constraint.Distance(a, b, d, cd.MaxForce)
	case "lock":
		c = constraint.Lock(a, b, cd.MaxForce)
	case "hinge":
		h := constraint.NewHinge(a, b, constraint.HingeOptions{
			PivotA: pa, PivotB: pb,
			AxisA: mgl64.Vec3(cd.AxisA), AxisB: mgl64.Vec3(cd.AxisB),
			MaxForce: cd.MaxForce,
		})
		if cd.Motor != nil {
			h.EnableMotor()
			h.SetMotorSpeed(cd.Motor.Speed)
			if cd.Motor.MaxForce > 0 {
				h.SetMotorMaxForce(cd.Motor.MaxForce)
			}
			if sd := cd.Motor.Servo; sd != nil {
				servo := control.NewServo(h, control.NewPID(sd.Kp, sd.Ki, sd.Kd, sd.Target), sd.MaxSpeed)
				servo.Attach(sc.World)
				sc.Servos = append(sc.Servos, servo)
			}
		}
		sc.Hinges = append(sc.Hinges, h)
		c = h.Constraint
	case "cone_twist":
		c = constraint.NewConeTwist(a, b, constraint.ConeTwistOptions{
			PivotA: pa, PivotB: pb,
			AxisA: mgl64.Vec3(cd.AxisA), AxisB: mgl64.Vec3(cd.AxisB),
			MaxForce: cd.MaxForce, Angle: cd.Angle, TwistAngle: cd.TwistAngle,
		}).Constraint
	default:
		return fmt.Errorf("constraint kind %q: %w", cd.Kind, dynamo.ErrInvalidConfig)
	}
	if cd.CollideConnected != nil {
		c.CollideConnected = *cd.CollideConnected
	}
	sc.World.AddConstraint(c)
	return nil
}
