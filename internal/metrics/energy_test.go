package metrics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/world"
)

const dt = 1.0 / 60.0

func ballWorld(t *testing.T, withGround bool) (*world.World, *physics.Body) {
	t.Helper()
	w := world.New()
	w.Gravity = mgl64.Vec3{0, 0, -10}
	if withGround {
		g := physics.MustBody(0)
		g.AddShape(physics.NewPlane(), mgl64.Vec3{}, mgl64.QuatIdent())
		if err := w.AddBody(g); err != nil {
			t.Fatal(err)
		}
	}
	s, err := physics.NewSphere(0.5)
	if err != nil {
		t.Fatal(err)
	}
	b := physics.MustBody(2)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(mgl64.Vec3{0, 0, 3}, mgl64.QuatIdent())
	if err := w.AddBody(b); err != nil {
		t.Fatal(err)
	}
	return w, b
}

func TestKinetic(t *testing.T) {
	s, _ := physics.NewSphere(1)
	b := physics.MustBody(5)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.Velocity = mgl64.Vec3{2, 0, 0}
	b.AngularVelocity = mgl64.Vec3{0, 0, 1}

	// Inertia comes from the 2x2x2 bounding box: I = m(2²+2²)/12.
	want := 0.5*5*4 + 0.5*(5*8.0/12)*1
	if got := Kinetic(b); math.Abs(got-want) > 1e-9 {
		t.Errorf("Kinetic = %v, want %v", got, want)
	}

	static := physics.MustBody(0)
	static.Velocity = mgl64.Vec3{1, 0, 0}
	if got := Kinetic(static); got != 0 {
		t.Errorf("static Kinetic = %v, want 0", got)
	}
}

func TestPotential(t *testing.T) {
	b := physics.MustBody(2)
	b.Position = mgl64.Vec3{0, 0, 3}
	if got := Potential(b, mgl64.Vec3{0, 0, -10}); got != 60 {
		t.Errorf("Potential = %v, want 60", got)
	}
}

func TestKineticEnergy_FreeFall(t *testing.T) {
	w, b := ballWorld(t, false)
	m := NewKineticEnergy()
	for i := 0; i < 30; i++ {
		if err := w.Step(dt, 0, 0); err != nil {
			t.Fatal(err)
		}
		m.Observe(w)
	}
	want := 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	if got := m.Value(); math.Abs(got-want) > 1e-9 {
		t.Errorf("kinetic energy = %v, want %v", got, want)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("Reset kept the value")
	}
}

func TestEnergyDrift_FreeFall(t *testing.T) {
	w, _ := ballWorld(t, false)
	w.AllowSleep = false
	m := NewEnergyDrift()
	m.Observe(w)
	for i := 0; i < 60; i++ {
		if err := w.Step(dt, 0, 0); err != nil {
			t.Fatal(err)
		}
		m.Observe(w)
	}
	// Semi-implicit Euler loses about m g^2 dt t / 2, plus linear damping.
	if got := m.Value(); got <= 0 || got > 0.1 {
		t.Errorf("energy drift = %v, want small and positive", got)
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("Reset kept the drift")
	}
}

func TestEnergyDrift_Landing(t *testing.T) {
	w, _ := ballWorld(t, true)
	m := NewEnergyDrift()
	m.Observe(w)
	for i := 0; i < 120; i++ {
		if err := w.Step(dt, 0, 0); err != nil {
			t.Fatal(err)
		}
		m.Observe(w)
	}
	// An inelastic landing dissipates most of the 50 J above rest height.
	if got := m.Value(); got < 0.5 {
		t.Errorf("energy drift after landing = %v, want at least 0.5", got)
	}
}
