package raycast

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
)

func bodyWith(t *testing.T, s physics.Shape, pos mgl64.Vec3) *physics.Body {
	t.Helper()
	b := physics.MustBody(0)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

func unitSphere(t *testing.T) *physics.Sphere {
	t.Helper()
	s, err := physics.NewSphere(1)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func unitBox(t *testing.T) *physics.Box {
	t.Helper()
	b, err := physics.NewBox(mgl64.Vec3{1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

var (
	left  = mgl64.Vec3{-10, 0, 0}
	right = mgl64.Vec3{10, 0, 0}
)

func TestClosest(t *testing.T) {
	tests := []struct {
		name     string
		shape    func(*testing.T) physics.Shape
		wantFace int
	}{
		{"sphere", func(t *testing.T) physics.Shape { return unitSphere(t) }, -1},
		{"box", func(t *testing.T) physics.Shape { return unitBox(t) }, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.shape(t)
			b := bodyWith(t, s, mgl64.Vec3{})
			r := New(left, right, Closest, DefaultOptions())
			if !r.IntersectBodies([]*physics.Body{b}) {
				t.Fatal("ray missed")
			}
			res := r.Result
			if !res.HitPointWorld.ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9) {
				t.Errorf("HitPointWorld = %v, want (-1,0,0)", res.HitPointWorld)
			}
			if math.Abs(res.Distance-9) > 1e-9 {
				t.Errorf("Distance = %v, want 9", res.Distance)
			}
			if !res.HitNormalWorld.ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9) {
				t.Errorf("HitNormalWorld = %v, want (-1,0,0)", res.HitNormalWorld)
			}
			if res.Body != b || res.Shape != s {
				t.Errorf("hit %v/%v, want the test body and shape", res.Body, res.Shape)
			}
			if res.HitFaceIndex != tt.wantFace {
				t.Errorf("HitFaceIndex = %d, want %d", res.HitFaceIndex, tt.wantFace)
			}
		})
	}
}

func TestModes(t *testing.T) {
	near := bodyWith(t, unitSphere(t), mgl64.Vec3{})
	far := bodyWith(t, unitSphere(t), mgl64.Vec3{5, 0, 0})
	bodies := []*physics.Body{far, near}

	t.Run("closest", func(t *testing.T) {
		r := New(left, right, Closest, DefaultOptions())
		r.IntersectBodies(bodies)
		if r.Result.Body != near {
			t.Errorf("closest hit %v, want the near sphere", r.Result.Body)
		}
	})

	t.Run("any", func(t *testing.T) {
		r := New(left, right, Any, DefaultOptions())
		if !r.IntersectBodies(bodies) {
			t.Fatal("ray missed")
		}
		if r.Result.Body != far {
			t.Errorf("any hit %v, want the first body tested", r.Result.Body)
		}
	})

	t.Run("all", func(t *testing.T) {
		opts := DefaultOptions()
		var hits []float64
		opts.Callback = func(res *Result) { hits = append(hits, res.Distance) }
		r := New(left, right, All, opts)
		r.IntersectBodies(bodies)
		if len(hits) != 4 {
			t.Errorf("hits = %v, want entry and exit of both spheres", hits)
		}
	})

	t.Run("all with abort", func(t *testing.T) {
		opts := DefaultOptions()
		n := 0
		opts.Callback = func(res *Result) {
			n++
			res.Abort()
		}
		New(left, right, All, opts).IntersectBodies(bodies)
		if n != 1 {
			t.Errorf("callbacks = %d, want 1", n)
		}
	})
}

func TestSkipBackfaces(t *testing.T) {
	b := bodyWith(t, unitBox(t), mgl64.Vec3{})
	for _, skip := range []bool{false, true} {
		opts := DefaultOptions()
		opts.SkipBackfaces = skip
		n := 0
		opts.Callback = func(*Result) { n++ }
		New(left, right, All, opts).IntersectBodies([]*physics.Body{b})
		want := 2
		if skip {
			want = 1
		}
		if n != want {
			t.Errorf("SkipBackfaces=%v: %d hits, want %d", skip, n, want)
		}
	}
}

func TestPlane(t *testing.T) {
	ground := bodyWith(t, physics.NewPlane(), mgl64.Vec3{})
	r := New(mgl64.Vec3{1, 2, 5}, mgl64.Vec3{1, 2, -5}, Closest, DefaultOptions())
	if !r.IntersectBodies([]*physics.Body{ground}) {
		t.Fatal("ray missed the plane")
	}
	if !r.Result.HitPointWorld.ApproxEqual(mgl64.Vec3{1, 2, 0}) || !r.Result.HitNormalWorld.ApproxEqual(mgl64.Vec3{0, 0, 1}) {
		t.Errorf("hit %v normal %v", r.Result.HitPointWorld, r.Result.HitNormalWorld)
	}

	above := New(mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 1}, Closest, DefaultOptions())
	if above.IntersectBodies([]*physics.Body{ground}) {
		t.Error("segment above the plane should miss")
	}
}

func TestHeightfield(t *testing.T) {
	data := make([][]float64, 5)
	for i := range data {
		data[i] = make([]float64, 5)
	}
	hf, err := physics.NewHeightfield(data, 1)
	if err != nil {
		t.Fatal(err)
	}
	terrain := bodyWith(t, hf, mgl64.Vec3{})

	r := New(mgl64.Vec3{2.3, 2.3, 5}, mgl64.Vec3{2.3, 2.3, -5}, Closest, DefaultOptions())
	if !r.IntersectBodies([]*physics.Body{terrain}) {
		t.Fatal("ray missed the terrain")
	}
	res := r.Result
	if res.Shape != hf {
		t.Errorf("Shape = %v, want the heightfield", res.Shape)
	}
	if !res.HitPointWorld.ApproxEqualThreshold(mgl64.Vec3{2.3, 2.3, 0}, 1e-9) {
		t.Errorf("HitPointWorld = %v, want (2.3,2.3,0)", res.HitPointWorld)
	}
	if !res.HitNormalWorld.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("HitNormalWorld = %v, want +z", res.HitNormalWorld)
	}
	if math.Abs(res.Distance-5) > 1e-9 {
		t.Errorf("Distance = %v, want 5", res.Distance)
	}
}

func TestTrimesh(t *testing.T) {
	mesh, err := physics.NewTrimesh([]mgl64.Vec3{{-5, -5, 0}, {5, -5, 0}, {0, 5, 0}}, []int{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}
	b := bodyWith(t, mesh, mgl64.Vec3{0, 0, 1})

	r := New(mgl64.Vec3{0, 0, 4}, mgl64.Vec3{0, 0, -2}, Closest, DefaultOptions())
	if !r.IntersectBodies([]*physics.Body{b}) {
		t.Fatal("ray missed the mesh")
	}
	if !r.Result.HitPointWorld.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("HitPointWorld = %v, want (0,0,1)", r.Result.HitPointWorld)
	}
	if r.Result.HitFaceIndex != 0 {
		t.Errorf("HitFaceIndex = %d, want 0", r.Result.HitFaceIndex)
	}

	miss := New(mgl64.Vec3{6, 6, 4}, mgl64.Vec3{6, 6, -2}, Closest, DefaultOptions())
	if miss.IntersectBodies([]*physics.Body{b}) {
		t.Error("ray outside the triangle should miss")
	}
}

func TestFilters(t *testing.T) {
	b := bodyWith(t, unitSphere(t), mgl64.Vec3{})

	opts := DefaultOptions()
	opts.CollisionFilterMask = 2
	if New(left, right, Any, opts).IntersectBodies([]*physics.Body{b}) {
		t.Error("mask 2 should skip a group 1 body")
	}

	b.CollisionResponse = false
	if New(left, right, Any, DefaultOptions()).IntersectBodies([]*physics.Body{b}) {
		t.Error("non-responding body should be skipped")
	}
	opts = DefaultOptions()
	opts.CheckCollisionResponse = false
	if !New(left, right, Any, opts).IntersectBodies([]*physics.Body{b}) {
		t.Error("CheckCollisionResponse=false should hit non-responding bodies")
	}
}

func TestResultReset(t *testing.T) {
	var r Result
	r.HasHit, r.Distance = true, 3
	r.Reset()
	if r.HasHit || r.Distance != -1 || r.HitFaceIndex != -1 {
		t.Errorf("Reset left %+v", r)
	}
}
