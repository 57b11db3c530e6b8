package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestUnit(t *testing.T) {
	if got := Unit(mgl64.Vec3{}); got != (mgl64.Vec3{}) {
		t.Errorf("Unit(0) = %v, want zero", got)
	}
	got := Unit(mgl64.Vec3{3, 0, 4})
	if math.Abs(got.Len()-1) > 1e-12 {
		t.Errorf("len = %v, want 1", got.Len())
	}
}

func TestTangents(t *testing.T) {
	normals := []mgl64.Vec3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, -1},
		{1, 2, 3},
		{0.95, 0.1, 0},
	}
	for _, n := range normals {
		t1, t2 := Tangents(n)
		u := Unit(n)
		if math.Abs(t1.Dot(u)) > 1e-9 || math.Abs(t2.Dot(u)) > 1e-9 || math.Abs(t1.Dot(t2)) > 1e-9 {
			t.Errorf("tangents of %v not orthogonal: %v %v", n, t1, t2)
		}
		if math.Abs(t1.Len()-1) > 1e-9 || math.Abs(t2.Len()-1) > 1e-9 {
			t.Errorf("tangents of %v not unit: %v %v", n, t1, t2)
		}
	}

	t1, t2 := Tangents(mgl64.Vec3{})
	if t1 != UnitX || t2 != UnitY {
		t.Errorf("Tangents(0) = %v %v, want x and y", t1, t2)
	}
}

func TestPointInTriangle(t *testing.T) {
	a, b, c := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 2, 0}
	tests := []struct {
		p    mgl64.Vec3
		want bool
	}{
		{mgl64.Vec3{0.5, 0.5, 0}, true},
		{mgl64.Vec3{1, 1, 0}, true},
		{mgl64.Vec3{0, 0, 0}, true},
		{mgl64.Vec3{1.5, 1.5, 0}, false},
		{mgl64.Vec3{-0.1, 0.5, 0}, false},
	}
	for _, tt := range tests {
		if got := PointInTriangle(tt.p, a, b, c); got != tt.want {
			t.Errorf("PointInTriangle(%v) = %v, want %v", tt.p, got, tt.want)
		}
		if got := PointInTriangle(tt.p, a, c, b); got != tt.want {
			t.Errorf("reversed winding: PointInTriangle(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestIntegrateQuat_ZeroVelocity(t *testing.T) {
	q := mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
	got := IntegrateQuat(q, mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, 0.1)
	if !got.ApproxEqual(q) {
		t.Errorf("IntegrateQuat = %v, want %v", got, q)
	}
}

func TestIntegrateQuat_SpinsAboutZ(t *testing.T) {
	q := mgl64.QuatIdent()
	w := mgl64.Vec3{0, 0, math.Pi}
	dt := 1.0 / 1000
	for i := 0; i < 1000; i++ {
		q = IntegrateQuat(q, w, mgl64.Vec3{1, 1, 1}, dt).Normalize()
	}
	// half a turn about z maps x to -x
	got := q.Rotate(UnitX)
	if math.Abs(got[0]+1) > 1e-2 {
		t.Errorf("rotated x = %v, want ~(-1,0,0)", got)
	}
}

func TestFrames(t *testing.T) {
	pos := mgl64.Vec3{1, 2, 3}
	q := mgl64.QuatRotate(math.Pi/2, UnitZ)
	p := mgl64.Vec3{1, 0, 0}

	w := PointToWorld(pos, q, p)
	if !w.ApproxEqualThreshold(mgl64.Vec3{1, 3, 3}, 1e-12) {
		t.Errorf("PointToWorld = %v, want (1,3,3)", w)
	}
	if back := PointToLocal(pos, q, w); !back.ApproxEqualThreshold(p, 1e-12) {
		t.Errorf("PointToLocal = %v, want %v", back, p)
	}
	if v := VectorToLocal(q, VectorToWorld(q, p)); !v.ApproxEqualThreshold(p, 1e-12) {
		t.Errorf("vector round trip = %v, want %v", v, p)
	}
}

func TestWorldInertia_Identity(t *testing.T) {
	m := WorldInertia(mgl64.QuatIdent(), mgl64.Vec3{1, 2, 3})
	if m.Diag() != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("diag = %v, want (1,2,3)", m.Diag())
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		var sum int64
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt64(&sum, int64(i))
			}
		})
		want := int64(n * (n - 1) / 2)
		if sum != want {
			t.Errorf("n=%d: sum = %d, want %d", n, sum, want)
		}
	}
}

func TestSimulationError_Unwrap(t *testing.T) {
	err := &SimulationError{Step: 3, Time: 0.05, Body: 2, Wrapped: ErrUnstable}
	if !errors.Is(err, ErrUnstable) {
		t.Error("expected errors.Is to see ErrUnstable")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
