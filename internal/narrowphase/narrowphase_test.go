package narrowphase

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

type testWorld struct {
	table  *physics.ContactMaterialTable
	def    *physics.ContactMaterial
	shapes *collision.OverlapKeeper
	bodies *collision.OverlapKeeper
}

func newTestWorld() *testWorld {
	m := physics.NewMaterial("default")
	def := physics.NewContactMaterial(m, m)
	def.Restitution = 0
	return &testWorld{
		table:  physics.NewContactMaterialTable(),
		def:    def,
		shapes: collision.NewOverlapKeeper(),
		bodies: collision.NewOverlapKeeper(),
	}
}

func (w *testWorld) Gravity() mgl64.Vec3 { return mgl64.Vec3{0, 0, -10} }
func (w *testWorld) Dt() float64         { return 1.0 / 60.0 }
func (w *testWorld) ContactMaterial(a, b *physics.Material) *physics.ContactMaterial {
	return w.table.Get(a, b)
}
func (w *testWorld) DefaultContactMaterial() *physics.ContactMaterial { return w.def }
func (w *testWorld) ShapeOverlaps() *collision.OverlapKeeper         { return w.shapes }
func (w *testWorld) BodyOverlaps() *collision.OverlapKeeper          { return w.bodies }

func body(t testing.TB, mass float64, pos mgl64.Vec3, s physics.Shape) *physics.Body {
	t.Helper()
	b, err := physics.NewBody(mass)
	if err != nil {
		t.Fatal(err)
	}
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

func sphere(t testing.TB, r float64) *physics.Sphere {
	t.Helper()
	s, err := physics.NewSphere(r)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func box(t testing.TB, he mgl64.Vec3) *physics.Box {
	t.Helper()
	b, err := physics.NewBox(he)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func contactsFor(w World, bi, bj *physics.Body) ([]*equation.Contact, []*equation.Friction) {
	np := New(w)
	return np.GetContacts([]*physics.Body{bi}, []*physics.Body{bj}, nil, nil)
}

func near(a, b mgl64.Vec3) bool { return a.ApproxEqualThreshold(b, 1e-9) }

func TestSphereSphere_ContactIffOverlapping(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w := newTestWorld()
	for i := 0; i < 500; i++ {
		r1 := 0.1 + rng.Float64()
		r2 := 0.1 + rng.Float64()
		dir := mgl64.Vec3{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}.Normalize()
		d := rng.Float64() * 2 * (r1 + r2)
		a := body(t, 1, mgl64.Vec3{}, sphere(t, r1))
		b := body(t, 1, dir.Mul(d), sphere(t, r2))

		contacts, frictions := contactsFor(w, a, b)
		want := d < r1+r2
		if got := len(contacts) == 1; got != want {
			t.Fatalf("r1=%v r2=%v d=%v: %d contacts, want overlap=%v", r1, r2, d, len(contacts), want)
		}
		if !want {
			continue
		}
		c := contacts[0]
		if !c.Ni.ApproxEqualThreshold(dir, 1e-9) {
			t.Errorf("Ni = %v, want %v", c.Ni, dir)
		}
		if g := c.Penetration(); math.Abs(g-(d-r1-r2)) > 1e-9 {
			t.Errorf("penetration = %v, want %v", g, d-r1-r2)
		}
		if len(frictions) != 2 {
			t.Errorf("friction rows = %d, want 2", len(frictions))
		}
	}
}

func TestSpherePlane(t *testing.T) {
	w := newTestWorld()
	ball := body(t, 1, mgl64.Vec3{0, 0, 0.9}, sphere(t, 1))
	ground := body(t, 0, mgl64.Vec3{}, physics.NewPlane())

	for _, order := range []string{"sphere first", "plane first"} {
		t.Run(order, func(t *testing.T) {
			var contacts []*equation.Contact
			if order == "sphere first" {
				contacts, _ = contactsFor(w, ball, ground)
			} else {
				contacts, _ = contactsFor(w, ground, ball)
			}
			if len(contacts) != 1 {
				t.Fatalf("contacts = %d, want 1", len(contacts))
			}
			c := contacts[0]
			if c.Bi != ball || c.Si != ball.Shapes[0] {
				t.Errorf("contact starts at %v, want the sphere body", c.Bi)
			}
			if !near(c.Ni, mgl64.Vec3{0, 0, -1}) {
				t.Errorf("Ni = %v, want (0,0,-1)", c.Ni)
			}
			if g := c.Penetration(); math.Abs(g+0.1) > 1e-9 {
				t.Errorf("penetration = %v, want -0.1", g)
			}
		})
	}

	above := body(t, 1, mgl64.Vec3{0, 0, 1.1}, sphere(t, 1))
	if contacts, _ := contactsFor(w, above, ground); len(contacts) != 0 {
		t.Errorf("sphere above plane: %d contacts, want 0", len(contacts))
	}
}

func TestBoxPlane(t *testing.T) {
	w := newTestWorld()
	cube := body(t, 1, mgl64.Vec3{0, 0, 0.9}, box(t, mgl64.Vec3{1, 1, 1}))
	ground := body(t, 0, mgl64.Vec3{}, physics.NewPlane())

	contacts, frictions := contactsFor(w, ground, cube)
	if len(contacts) != 4 {
		t.Fatalf("contacts = %d, want 4", len(contacts))
	}
	if len(frictions) != 8 {
		t.Errorf("friction rows = %d, want 8", len(frictions))
	}
	for _, c := range contacts {
		if c.Bi != ground || c.Sj != cube.Shapes[0] {
			t.Errorf("contact between %v/%v, want ground/box shape", c.Bi, c.Sj)
		}
		if g := c.Penetration(); math.Abs(g+0.1) > 1e-9 {
			t.Errorf("penetration = %v, want -0.1", g)
		}
	}

	np := New(w)
	np.EnableFrictionReduction = true
	contacts, frictions = np.GetContacts([]*physics.Body{ground}, []*physics.Body{cube}, nil, nil)
	if len(contacts) != 4 || len(frictions) != 2 {
		t.Fatalf("reduced: %d contacts, %d frictions, want 4 and 2", len(contacts), len(frictions))
	}
	for _, f := range frictions {
		if !near(f.Rj, mgl64.Vec3{0, 0, -1}) {
			t.Errorf("averaged Rj = %v, want (0,0,-1)", f.Rj)
		}
		if math.Abs(f.T[2]) > 1e-12 {
			t.Errorf("tangent %v not orthogonal to the plane normal", f.T)
		}
	}
}

func TestBoxBox(t *testing.T) {
	w := newTestWorld()
	a := body(t, 1, mgl64.Vec3{}, box(t, mgl64.Vec3{1, 1, 1}))
	b := body(t, 1, mgl64.Vec3{1.4, 0, 0}, box(t, mgl64.Vec3{0.5, 0.5, 0.5}))

	contacts, _ := contactsFor(w, a, b)
	if len(contacts) != 4 {
		t.Fatalf("contacts = %d, want 4", len(contacts))
	}
	for _, c := range contacts {
		if !near(c.Ni, mgl64.Vec3{1, 0, 0}) {
			t.Errorf("Ni = %v, want (1,0,0)", c.Ni)
		}
		if g := c.Penetration(); math.Abs(g+0.1) > 1e-9 {
			t.Errorf("penetration = %v, want -0.1", g)
		}
		if c.Si != a.Shapes[0] || c.Sj != b.Shapes[0] {
			t.Errorf("contact shapes are not the boxes")
		}
	}

	b.SetPose(mgl64.Vec3{1.6, 0, 0}, mgl64.QuatIdent())
	if contacts, _ := contactsFor(w, a, b); len(contacts) != 0 {
		t.Errorf("separated boxes: %d contacts", len(contacts))
	}
}

func TestKinematicStaticOnlyTracksOverlap(t *testing.T) {
	w := newTestWorld()
	mover := body(t, 1, mgl64.Vec3{}, box(t, mgl64.Vec3{1, 1, 1}))
	mover.SetType(physics.Kinematic)
	wall := body(t, 0, mgl64.Vec3{1.4, 0, 0}, box(t, mgl64.Vec3{0.5, 0.5, 0.5}))

	contacts, frictions := contactsFor(w, mover, wall)
	if len(contacts) != 0 || len(frictions) != 0 {
		t.Fatalf("got %d contacts and %d frictions, want none", len(contacts), len(frictions))
	}
	wantBody := collision.Pair{A: min(mover.ID, wall.ID), B: max(mover.ID, wall.ID)}
	if got := w.bodies.Current(); len(got) != 1 || got[0] != wantBody {
		t.Errorf("body overlaps = %v, want [%v]", got, wantBody)
	}
	if got := w.shapes.Current(); len(got) != 1 {
		t.Errorf("shape overlaps = %v, want one pair", got)
	}
}

func TestSphereBox(t *testing.T) {
	tests := []struct {
		name   string
		center mgl64.Vec3
		wantNi mgl64.Vec3
	}{
		{"face", mgl64.Vec3{0, 0, 1.4}, mgl64.Vec3{0, 0, -1}},
		{"corner", mgl64.Vec3{1.2, 1.2, 1.2}, mgl64.Vec3{-1, -1, -1}.Normalize()},
		{"edge", mgl64.Vec3{1.3, 1.3, 0}, mgl64.Vec3{-1, -1, 0}.Normalize()},
	}
	w := newTestWorld()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ball := body(t, 1, tt.center, sphere(t, 0.5))
			cube := body(t, 1, mgl64.Vec3{}, box(t, mgl64.Vec3{1, 1, 1}))
			contacts, _ := contactsFor(w, cube, ball)
			if len(contacts) != 1 {
				t.Fatalf("contacts = %d, want 1", len(contacts))
			}
			c := contacts[0]
			if c.Bi != ball {
				t.Errorf("contact does not start at the sphere")
			}
			if !c.Ni.ApproxEqualThreshold(tt.wantNi, 1e-9) {
				t.Errorf("Ni = %v, want %v", c.Ni, tt.wantNi)
			}
			if c.Penetration() >= 0 {
				t.Errorf("penetration = %v, want < 0", c.Penetration())
			}
		})
	}
}

func TestSphereConvexFace(t *testing.T) {
	w := newTestWorld()
	verts := []mgl64.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}
	faces := [][]int{{3, 2, 1, 0}, {4, 5, 6, 7}, {5, 4, 0, 1}, {2, 3, 7, 6}, {0, 4, 7, 3}, {1, 2, 6, 5}}
	hull, err := physics.NewConvexPolyhedron(verts, faces, nil)
	if err != nil {
		t.Fatal(err)
	}
	ball := body(t, 1, mgl64.Vec3{0, 0, 1.4}, sphere(t, 0.5))
	solid := body(t, 0, mgl64.Vec3{}, hull)

	contacts, _ := contactsFor(w, ball, solid)
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	c := contacts[0]
	if !near(c.Ni, mgl64.Vec3{0, 0, -1}) {
		t.Errorf("Ni = %v, want (0,0,-1)", c.Ni)
	}
	if !near(c.Rj, mgl64.Vec3{0, 0, 1}) {
		t.Errorf("Rj = %v, want (0,0,1)", c.Rj)
	}
	if g := c.Penetration(); math.Abs(g+0.1) > 1e-9 {
		t.Errorf("penetration = %v, want -0.1", g)
	}
}

func TestParticles(t *testing.T) {
	w := newTestWorld()
	tests := []struct {
		name  string
		other physics.Shape
		pos   mgl64.Vec3
	}{
		{"plane", physics.NewPlane(), mgl64.Vec3{0, 0, -0.1}},
		{"box", box(t, mgl64.Vec3{1, 1, 1}), mgl64.Vec3{0, 0, 0.9}},
		{"sphere", sphere(t, 1), mgl64.Vec3{0, 0, 0.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dot := body(t, 1, tt.pos, physics.NewParticle())
			other := body(t, 0, mgl64.Vec3{}, tt.other)
			contacts, _ := contactsFor(w, other, dot)
			if len(contacts) != 1 {
				t.Fatalf("contacts = %d, want 1", len(contacts))
			}
			c := contacts[0]
			if c.Bi != dot {
				t.Errorf("contact does not start at the particle")
			}
			if !near(c.Ni, mgl64.Vec3{0, 0, -1}) {
				t.Errorf("Ni = %v, want (0,0,-1)", c.Ni)
			}
			if g := c.Penetration(); math.Abs(g+0.1) > 1e-9 {
				t.Errorf("penetration = %v, want -0.1", g)
			}
		})
	}
}

func flatField(t *testing.T, n int) *physics.Heightfield {
	t.Helper()
	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, n)
	}
	hf, err := physics.NewHeightfield(data, 1)
	if err != nil {
		t.Fatal(err)
	}
	return hf
}

func TestSphereHeightfield(t *testing.T) {
	w := newTestWorld()
	hf := flatField(t, 5)
	terrain := body(t, 0, mgl64.Vec3{}, hf)
	ball := body(t, 1, mgl64.Vec3{2.3, 2.3, 0.45}, sphere(t, 0.5))

	contacts, _ := contactsFor(w, terrain, ball)
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	c := contacts[0]
	if c.Sj != hf {
		t.Errorf("contact shape = %v, want the heightfield", c.Sj)
	}
	if !near(c.Ni, mgl64.Vec3{0, 0, -1}) {
		t.Errorf("Ni = %v, want (0,0,-1)", c.Ni)
	}
	if g := c.Penetration(); math.Abs(g+0.05) > 1e-9 {
		t.Errorf("penetration = %v, want -0.05", g)
	}

	ball.SetPose(mgl64.Vec3{2.3, 2.3, 0.6}, mgl64.QuatIdent())
	if contacts, _ := contactsFor(w, terrain, ball); len(contacts) != 0 {
		t.Errorf("sphere above terrain: %d contacts", len(contacts))
	}
}

func TestBoxHeightfield(t *testing.T) {
	w := newTestWorld()
	hf := flatField(t, 5)
	terrain := body(t, 0, mgl64.Vec3{}, hf)
	cube := body(t, 1, mgl64.Vec3{2.6, 2.6, 0.25}, box(t, mgl64.Vec3{0.3, 0.3, 0.3}))

	contacts, _ := contactsFor(w, cube, terrain)
	if len(contacts) == 0 {
		t.Fatal("no contacts between box and terrain")
	}
	for _, c := range contacts {
		if c.Bi != cube || c.Sj != hf {
			t.Errorf("contact between %v and %v, want box and heightfield", c.Si, c.Sj)
		}
		if !c.Ni.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-9) {
			t.Errorf("Ni = %v, want (0,0,-1)", c.Ni)
		}
		if g := c.Penetration(); math.Abs(g+0.05) > 1e-9 {
			t.Errorf("penetration = %v, want -0.05", g)
		}
	}
}

func TestTrimesh(t *testing.T) {
	w := newTestWorld()
	triangle := func(t *testing.T) *physics.Trimesh {
		t.Helper()
		tri, err := physics.NewTrimesh([]mgl64.Vec3{{-5, -5, 0}, {5, -5, 0}, {0, 5, 0}}, []int{0, 1, 2})
		if err != nil {
			t.Fatal(err)
		}
		return tri
	}

	t.Run("sphere on face", func(t *testing.T) {
		mesh := body(t, 0, mgl64.Vec3{}, triangle(t))
		ball := body(t, 1, mgl64.Vec3{0, 0, 0.4}, sphere(t, 0.5))
		contacts, _ := contactsFor(w, mesh, ball)
		if len(contacts) != 1 {
			t.Fatalf("contacts = %d, want 1", len(contacts))
		}
		c := contacts[0]
		if !near(c.Ni, mgl64.Vec3{0, 0, -1}) {
			t.Errorf("Ni = %v, want (0,0,-1)", c.Ni)
		}
		if g := c.Penetration(); math.Abs(g+0.1) > 1e-9 {
			t.Errorf("penetration = %v, want -0.1", g)
		}
	})

	t.Run("mesh below plane", func(t *testing.T) {
		mesh := body(t, 1, mgl64.Vec3{0, 0, -0.1}, triangle(t))
		ground := body(t, 0, mgl64.Vec3{}, physics.NewPlane())
		contacts, _ := contactsFor(w, mesh, ground)
		if len(contacts) != 3 {
			t.Fatalf("contacts = %d, want 3", len(contacts))
		}
		for _, c := range contacts {
			if c.Bi != ground || !near(c.Ni, mgl64.Vec3{0, 0, 1}) {
				t.Errorf("contact from %v with Ni %v, want ground and (0,0,1)", c.Bi, c.Ni)
			}
		}
	})
}

func TestMaterials(t *testing.T) {
	w := newTestWorld()
	ice := physics.NewMaterial("ice")
	rubber := physics.NewMaterial("rubber")
	cm := physics.NewContactMaterial(ice, rubber)
	cm.Friction = 0
	w.table.Add(cm)

	a := body(t, 1, mgl64.Vec3{}, sphere(t, 1))
	b := body(t, 1, mgl64.Vec3{1.5, 0, 0}, sphere(t, 1))
	a.Material, b.Material = ice, rubber

	contacts, frictions := contactsFor(w, a, b)
	if len(contacts) != 1 || len(frictions) != 0 {
		t.Fatalf("frictionless pair: %d contacts, %d frictions", len(contacts), len(frictions))
	}

	ice.Restitution, rubber.Restitution = 0.5, 0.4
	contacts, _ = contactsFor(w, a, b)
	if got := contacts[0].Restitution; math.Abs(got-0.2) > 1e-12 {
		t.Errorf("restitution = %v, want 0.2", got)
	}
}

func TestFilterAndUnsupported(t *testing.T) {
	w := newTestWorld()
	s1, s2 := sphere(t, 1), sphere(t, 1)
	s1.CollisionFilterGroup, s2.CollisionFilterMask = 2, 1
	a := body(t, 1, mgl64.Vec3{}, s1)
	b := body(t, 1, mgl64.Vec3{0.5, 0, 0}, s2)
	if contacts, _ := contactsFor(w, a, b); len(contacts) != 0 {
		t.Errorf("filtered shapes: %d contacts", len(contacts))
	}

	if Supports(physics.KindPlane, physics.KindPlane) {
		t.Error("plane/plane should have no handler")
	}
	p1 := body(t, 0, mgl64.Vec3{}, physics.NewPlane())
	p2 := body(t, 0, mgl64.Vec3{}, physics.NewPlane())
	if contacts, _ := contactsFor(w, p1, p2); len(contacts) != 0 {
		t.Errorf("plane/plane: %d contacts", len(contacts))
	}
}

func TestPoolReuse(t *testing.T) {
	w := newTestWorld()
	np := New(w)
	a := body(t, 1, mgl64.Vec3{}, sphere(t, 1))
	b := body(t, 1, mgl64.Vec3{1.5, 0, 0}, sphere(t, 1))
	p1, p2 := []*physics.Body{a}, []*physics.Body{b}

	contacts, frictions := np.GetContacts(p1, p2, nil, nil)
	first := contacts[0]
	np.Release(contacts, frictions)
	contacts, _ = np.GetContacts(p1, p2, contacts[:0], frictions[:0])
	if contacts[0] != first {
		t.Error("released contact was not reused")
	}
}

func BenchmarkBoxStackContacts(b *testing.B) {
	w := newTestWorld()
	ground := body(b, 0, mgl64.Vec3{}, physics.NewPlane())
	var p1, p2 []*physics.Body
	for i := 0; i < 20; i++ {
		cube := body(b, 1, mgl64.Vec3{float64(i) * 3, 0, 0.45}, box(b, mgl64.Vec3{0.5, 0.5, 0.5}))
		p1 = append(p1, ground)
		p2 = append(p2, cube)
	}
	np := New(w)
	var contacts []*equation.Contact
	var frictions []*equation.Friction
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		np.Release(contacts, frictions)
		contacts, frictions = np.GetContacts(p1, p2, contacts[:0], frictions[:0])
	}
}
