package constraint

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/solver"
)

const dt = 1.0 / 60.0

func ball(t *testing.T, mass float64, pos mgl64.Vec3) *physics.Body {
	t.Helper()
	s, err := physics.NewSphere(0.1)
	if err != nil {
		t.Fatal(err)
	}
	b := physics.MustBody(mass)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

// run steps the bodies with gravity g, solving only the constraint's rows.
// onStep sees the state after every step.
func run(c *Constraint, bodies []*physics.Body, g mgl64.Vec3, steps int, onStep func()) {
	gs := solver.NewGS()
	gs.Iterations = 20
	for i := 0; i < steps; i++ {
		for _, b := range bodies {
			b.ApplyForce(g.Mul(b.Mass), mgl64.Vec3{})
		}
		c.Update()
		for _, eq := range c.Equations {
			gs.AddEquation(eq)
		}
		gs.Solve(dt, solver.Bodies(bodies...))
		gs.RemoveAllEquations()
		for _, b := range bodies {
			b.Integrate(dt, true, false)
			b.Force, b.Torque = mgl64.Vec3{}, mgl64.Vec3{}
		}
		if onStep != nil {
			onStep()
		}
	}
}

var gravity = mgl64.Vec3{0, 0, -9.82}

func TestPointToPoint_HoldsPivots(t *testing.T) {
	anchor := ball(t, 0, mgl64.Vec3{})
	rod := physics.MustBody(1)
	box, err := physics.NewBox(mgl64.Vec3{0.5, 0.05, 0.05})
	if err != nil {
		t.Fatal(err)
	}
	rod.AddShape(box, mgl64.Vec3{}, mgl64.QuatIdent())
	rod.SetPose(mgl64.Vec3{0.5, 0, 0}, mgl64.QuatIdent())
	c := PointToPoint(anchor, mgl64.Vec3{}, rod, mgl64.Vec3{-0.5, 0, 0}, 0)

	if len(c.Equations) != 3 {
		t.Fatalf("rows = %d, want 3", len(c.Equations))
	}
	worst, lowest := 0.0, 0.0
	run(c, []*physics.Body{anchor, rod}, gravity, 120, func() {
		gap := rod.PointToWorldFrame(mgl64.Vec3{-0.5, 0, 0}).Len()
		worst = math.Max(worst, gap)
		lowest = math.Min(lowest, rod.Position[2])
	})
	if worst > 0.05 {
		t.Errorf("pivot gap reached %v, want < 0.05", worst)
	}
	if lowest > -0.4 {
		t.Errorf("rod centre lowest z = %v, want it to swing through the bottom", lowest)
	}
}

func TestDistance_KeepsSeparation(t *testing.T) {
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{2, 0, 0})
	b.Velocity = mgl64.Vec3{1, 0.5, 0}
	c := Distance(a, b, -1, 0)

	run(c, []*physics.Body{a, b}, mgl64.Vec3{}, 90, nil)

	if d := b.Position.Sub(a.Position).Len(); math.Abs(d-2) > 0.05 {
		t.Errorf("distance = %v, want 2", d)
	}
	if a.Velocity[0] <= 0 {
		t.Errorf("a.Velocity = %v, want it dragged along +x", a.Velocity)
	}
}

func TestLock_HoldsPose(t *testing.T) {
	base := ball(t, 0, mgl64.Vec3{})
	arm := ball(t, 1, mgl64.Vec3{0, 0, -1})
	arm.AngularVelocity = mgl64.Vec3{0, 3, 0}
	c := Lock(base, arm, 0)

	if len(c.Equations) != 6 {
		t.Fatalf("rows = %d, want 6", len(c.Equations))
	}
	run(c, []*physics.Body{base, arm}, gravity, 120, nil)

	if !arm.Position.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 0.05) {
		t.Errorf("arm position = %v, want (0,0,-1)", arm.Position)
	}
	q := arm.Quaternion.Normalize()
	if d := math.Abs(q.Dot(mgl64.QuatIdent())); d < 0.99 {
		t.Errorf("arm rotated: q = %v", q)
	}
}

func TestHinge_Motor(t *testing.T) {
	tests := []struct {
		name  string
		motor bool
		want  float64
	}{
		{"motor off", false, 0},
		{"motor on", true, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := ball(t, 0, mgl64.Vec3{})
			wheel := ball(t, 1, mgl64.Vec3{})
			h := NewHinge(frame, wheel, HingeOptions{AxisA: mgl64.Vec3{0, 0, 1}, AxisB: mgl64.Vec3{0, 0, 1}})
			if tt.motor {
				h.EnableMotor()
				h.SetMotorSpeed(2)
			}
			run(h.Constraint, []*physics.Body{frame, wheel}, mgl64.Vec3{}, 60, nil)

			w := wheel.AngularVelocity
			if math.Abs(w[2]-tt.want) > 0.05 {
				t.Errorf("spin = %v, want %v", w[2], tt.want)
			}
			if math.Abs(w[0]) > 1e-6 || math.Abs(w[1]) > 1e-6 {
				t.Errorf("off-axis spin %v", w)
			}
		})
	}
}

func TestHinge_KeepsAxesAligned(t *testing.T) {
	frame := ball(t, 0, mgl64.Vec3{})
	door := ball(t, 1, mgl64.Vec3{1, 0, 0})
	door.AngularVelocity = mgl64.Vec3{2, 0, 1}
	h := NewHinge(frame, door, HingeOptions{
		PivotB: mgl64.Vec3{-1, 0, 0},
		AxisA:  mgl64.Vec3{0, 0, 1},
		AxisB:  mgl64.Vec3{0, 0, 1},
	})
	run(h.Constraint, []*physics.Body{frame, door}, mgl64.Vec3{}, 120, nil)

	axis := door.VectorToWorldFrame(mgl64.Vec3{0, 0, 1})
	if axis[2] < 0.99 {
		t.Errorf("door axis = %v, want close to +z", axis)
	}
}

func TestHinge_Angle(t *testing.T) {
	tests := []struct {
		name string
		turn float64
		want float64
	}{
		{"rest", 0, 0},
		{"quarter", math.Pi / 2, math.Pi / 2},
		{"backwards", -1, -1},
		{"wraps", 1.5 * math.Pi, -math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := ball(t, 0, mgl64.Vec3{})
			wheel := ball(t, 1, mgl64.Vec3{})
			h := NewHinge(frame, wheel, HingeOptions{AxisA: mgl64.Vec3{0, 0, 1}, AxisB: mgl64.Vec3{0, 0, 1}})
			wheel.SetPose(mgl64.Vec3{}, mgl64.QuatRotate(tt.turn, mgl64.Vec3{0, 0, 1}))
			if got := h.Angle(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Angle = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConeTwist_LimitsSwing(t *testing.T) {
	swing := func(angle float64) float64 {
		top := ball(t, 0, mgl64.Vec3{})
		bob := ball(t, 1, mgl64.Vec3{0, 0, -1})
		bob.Velocity = mgl64.Vec3{2, 0, 0}
		down := mgl64.Vec3{0, 0, -1}
		ct := NewConeTwist(top, bob, ConeTwistOptions{
			PivotB: mgl64.Vec3{0, 0, 1},
			AxisA:  down,
			AxisB:  down,
			Angle:  angle,
		})
		worst := 0.0
		run(ct.Constraint, []*physics.Body{top, bob}, gravity, 90, func() {
			cos := bob.VectorToWorldFrame(down).Dot(down)
			worst = math.Max(worst, math.Acos(math.Min(1, cos)))
		})
		return worst
	}

	if free := swing(math.Pi); free < 0.5 {
		t.Fatalf("unlimited swing reached %v, want > 0.5", free)
	}
	if limited := swing(0.3); limited > 0.45 {
		t.Errorf("limited swing reached %v, want about 0.3", limited)
	}
}

func TestSpring_ApplyForce(t *testing.T) {
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{2, 0, 0})
	s := NewSpring(a, b)
	s.Damping = 0

	s.ApplyForce()
	if !a.Force.ApproxEqual(mgl64.Vec3{100, 0, 0}) || !b.Force.ApproxEqual(mgl64.Vec3{-100, 0, 0}) {
		t.Errorf("forces = %v, %v, want ±100 along x", a.Force, b.Force)
	}
	if a.Torque.Len() != 0 || b.Torque.Len() != 0 {
		t.Errorf("centre anchors produced torque %v, %v", a.Torque, b.Torque)
	}

	a.Force, b.Force = mgl64.Vec3{}, mgl64.Vec3{}
	s.SetWorldAnchorB(mgl64.Vec3{2, 1, 0})
	s.ApplyForce()
	if b.Torque.Len() == 0 {
		t.Error("offset anchor produced no torque")
	}
	if got := s.WorldAnchorB(); !got.ApproxEqual(mgl64.Vec3{2, 1, 0}) {
		t.Errorf("WorldAnchorB = %v, want (2,1,0)", got)
	}
}

func TestSpring_Damping(t *testing.T) {
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{1, 0, 0})
	b.Velocity = mgl64.Vec3{1, 0, 0}
	s := NewSpring(a, b)
	s.Damping = 2

	s.ApplyForce()
	if !b.Force.ApproxEqual(mgl64.Vec3{-2, 0, 0}) {
		t.Errorf("damping force = %v, want (-2,0,0)", b.Force)
	}
}

func TestConstraint_Common(t *testing.T) {
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{1, 0, 0})
	a.Sleep()
	b.Sleep()

	c := PointToPoint(a, mgl64.Vec3{}, b, mgl64.Vec3{}, 0)
	if a.SleepState != physics.Awake || b.SleepState != physics.Awake {
		t.Error("constructing a joint should wake both bodies")
	}
	if !c.CollideConnected {
		t.Error("CollideConnected should default to true")
	}
	if ct := NewConeTwist(a, b, ConeTwistOptions{}); ct.CollideConnected {
		t.Error("cone-twist bodies should not collide by default")
	}

	c.Disable()
	for _, eq := range c.Equations {
		if eq.Base().Enabled {
			t.Fatal("Disable left a row enabled")
		}
	}
	c.Enable()
	for _, eq := range c.Equations {
		if !eq.Base().Enabled {
			t.Fatal("Enable left a row disabled")
		}
	}

	other := PointToPoint(a, mgl64.Vec3{}, b, mgl64.Vec3{}, 0)
	if other.ID == c.ID {
		t.Errorf("constraint ids collide: %d", c.ID)
	}
}
