package solver

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

func ball(t testing.TB, mass float64, pos mgl64.Vec3) *physics.Body {
	t.Helper()
	s, err := physics.NewSphere(1)
	if err != nil {
		t.Fatal(err)
	}
	b := physics.MustBody(mass)
	b.AddShape(s, mgl64.Vec3{}, mgl64.Quat{})
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

// touching returns a contact between two unit balls along x.
func touching(bi, bj *physics.Body) *equation.Contact {
	c := equation.NewContact(bi, bj, 0)
	n := bj.Position.Sub(bi.Position).Normalize()
	c.Ni = n
	c.Ri = n
	c.Rj = n.Mul(-1)
	return c
}

func TestGS_NoEquations(t *testing.T) {
	b := ball(t, 1, mgl64.Vec3{})
	b.Velocity = mgl64.Vec3{1, 2, 3}
	s := NewGS()
	if iter := s.Solve(1.0/60, Bodies(b)); iter != 0 {
		t.Errorf("iterations = %d, want 0", iter)
	}
	if b.Velocity != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("velocity changed to %v", b.Velocity)
	}
}

func TestGS_ApproachingBallsSlowDown(t *testing.T) {
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{2, 0, 0})
	a.Velocity = mgl64.Vec3{1, 0, 0}
	b.Velocity = mgl64.Vec3{-1, 0, 0}

	s := NewGS()
	c := touching(a, b)
	s.AddEquation(c)
	iter := s.Solve(1.0/60, Bodies(a, b))
	if iter <= 0 || iter >= s.Iterations {
		t.Errorf("iterations = %d, want early convergence", iter)
	}

	rel := b.Velocity.Sub(a.Velocity).Dot(c.Ni)
	if rel < -0.2 || rel > 0 {
		t.Errorf("relative normal velocity = %v, want close to 0 from below", rel)
	}
	if c.Multiplier <= 0 {
		t.Errorf("multiplier = %v, want a pushing force", c.Multiplier)
	}
	// equal masses share the impulse
	if math.Abs(a.Velocity[0]+b.Velocity[0]) > 1e-12 {
		t.Errorf("velocities %v and %v are not symmetric", a.Velocity, b.Velocity)
	}
}

func TestGS_StaticBodyUnchanged(t *testing.T) {
	ground := ball(t, 0, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{0, 0, 2})
	b.Velocity = mgl64.Vec3{0, 0, -3}

	s := NewGS()
	s.AddEquation(touching(ground, b))
	s.Solve(1.0/60, Bodies(ground, b))
	if ground.Velocity != (mgl64.Vec3{}) || ground.AngularVelocity != (mgl64.Vec3{}) {
		t.Errorf("static body moved: v=%v w=%v", ground.Velocity, ground.AngularVelocity)
	}
	if b.Velocity[2] <= -3 {
		t.Errorf("falling ball not slowed: %v", b.Velocity)
	}
}

func TestGS_LinearFactorMasksResponse(t *testing.T) {
	ground := ball(t, 0, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{0, 0, 2})
	b.Velocity = mgl64.Vec3{0, 0, -3}
	b.LinearFactor = mgl64.Vec3{1, 1, 0}

	s := NewGS()
	s.AddEquation(touching(ground, b))
	s.Solve(1.0/60, Bodies(ground, b))
	if b.Velocity[2] != -3 {
		t.Errorf("masked axis changed: %v", b.Velocity)
	}
}

func TestGS_MultiplierWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const dt = 1.0 / 60
	for trial := 0; trial < 50; trial++ {
		var bodies []*physics.Body
		for i := 0; i < 6; i++ {
			b := ball(t, 0.5+rng.Float64()*3, mgl64.Vec3{rng.Float64() * 4, rng.Float64() * 4, rng.Float64() * 4})
			b.Velocity = mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
			bodies = append(bodies, b)
		}

		s := NewGS()
		s.Iterations = 1 + rng.Intn(20)
		var eqs []*equation.Contact
		for k := 0; k < 10; k++ {
			i, j := rng.Intn(6), rng.Intn(6)
			if i == j {
				continue
			}
			c := touching(bodies[i], bodies[j])
			lo := -rng.Float64() * 5
			c.MinForce = lo
			c.MaxForce = lo + rng.Float64()*10
			eqs = append(eqs, c)
			s.AddEquation(c)
		}
		s.Solve(dt, Bodies(bodies...))

		for _, c := range eqs {
			lambda := c.Multiplier * dt
			if lambda < c.MinForce-1e-9 || lambda > c.MaxForce+1e-9 {
				t.Fatalf("trial %d: lambda %v outside [%v, %v]", trial, lambda, c.MinForce, c.MaxForce)
			}
		}
	}
}

func TestQueue(t *testing.T) {
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{2, 0, 0})
	var q Queue
	c1, c2 := touching(a, b), touching(b, a)
	c2.Enabled = false
	q.AddEquation(c1)
	q.AddEquation(c2)
	if len(q.Equations()) != 1 {
		t.Fatalf("queued %d, want only the enabled row", len(q.Equations()))
	}
	q.RemoveEquation(c1)
	if len(q.Equations()) != 0 {
		t.Errorf("queue not empty after remove")
	}
}

// recorder captures what a Split hands to its sub-solver.
type recorder struct {
	Queue
	islands [][]int
	bodies  [][]*physics.Body
}

func (r *recorder) Solve(dt float64, w World) int {
	var ids []int
	for _, eq := range r.eqs {
		ids = append(ids, eq.Base().ID)
	}
	r.islands = append(r.islands, ids)
	r.bodies = append(r.bodies, append([]*physics.Body(nil), w.Bodies()...))
	return 1
}

func TestSplit_Islands(t *testing.T) {
	ground := ball(t, 0, mgl64.Vec3{0, 0, -10})
	a := ball(t, 1, mgl64.Vec3{})
	b := ball(t, 1, mgl64.Vec3{2, 0, 0})
	c := ball(t, 1, mgl64.Vec3{10, 0, 0})
	d := ball(t, 1, mgl64.Vec3{20, 0, 0})

	rec := &recorder{}
	s := NewSplit(rec)
	e1 := touching(a, b)
	e2 := touching(a, ground)
	e3 := touching(c, ground)
	e4 := touching(b, a)
	for _, e := range []equation.Equation{e1, e2, e3, e4} {
		s.AddEquation(e)
	}

	n := s.Solve(1.0/60, Bodies(ground, a, b, c, d))
	if n != 3 {
		t.Fatalf("islands = %d, want 3 ({a,b}, {c}, {d})", n)
	}
	if got := rec.islands[0]; len(got) != 3 || got[0] != e4.ID || got[1] != e2.ID || got[2] != e1.ID {
		t.Errorf("first island equations = %v, want ids [%d %d %d]", got, e4.ID, e2.ID, e1.ID)
	}
	if got := rec.islands[1]; len(got) != 1 || got[0] != e3.ID {
		t.Errorf("second island equations = %v", got)
	}
	if len(rec.islands[2]) != 0 || len(rec.bodies[2]) != 1 || rec.bodies[2][0] != d {
		t.Errorf("lone body island = %v / %v", rec.islands[2], rec.bodies[2])
	}
	for i, bs := range rec.bodies {
		for _, body := range bs {
			if body == ground {
				t.Errorf("island %d contains the static ground", i)
			}
		}
	}
	if len(rec.Equations()) != 0 {
		t.Error("sub-solver queue not cleared between islands")
	}
}

func TestSplit_MatchesGS(t *testing.T) {
	mk := func() ([]*physics.Body, []*equation.Contact) {
		a := ball(t, 1, mgl64.Vec3{})
		b := ball(t, 2, mgl64.Vec3{2, 0, 0})
		a.Velocity = mgl64.Vec3{2, 0, 0}
		return []*physics.Body{a, b}, []*equation.Contact{touching(a, b)}
	}
	b1, e1 := mk()
	gs := NewGS()
	gs.AddEquation(e1[0])
	gs.Solve(1.0/60, Bodies(b1...))

	b2, e2 := mk()
	sp := NewSplit(nil)
	sp.AddEquation(e2[0])
	sp.Solve(1.0/60, Bodies(b2...))

	for i := range b1 {
		if !b1[i].Velocity.ApproxEqualThreshold(b2[i].Velocity, 1e-12) {
			t.Errorf("body %d: gs %v, split %v", i, b1[i].Velocity, b2[i].Velocity)
		}
	}
}

func BenchmarkGS(b *testing.B) {
	var bodies []*physics.Body
	for i := 0; i < 50; i++ {
		bodies = append(bodies, ball(b, 1, mgl64.Vec3{float64(i) * 1.9, 0, 0}))
	}
	s := NewGS()
	for i := 1; i < len(bodies); i++ {
		s.AddEquation(touching(bodies[i-1], bodies[i]))
	}
	w := Bodies(bodies...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Solve(1.0/60, w)
	}
}
