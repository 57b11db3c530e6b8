package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// slope returns an n x n field with height x+y at every sample.
func slope(t *testing.T, n int) *Heightfield {
	t.Helper()
	data := make([][]float64, n)
	for x := range data {
		data[x] = make([]float64, n)
		for y := range data[x] {
			data[x][y] = float64(x + y)
		}
	}
	h, err := NewHeightfield(data, 1)
	if err != nil {
		t.Fatalf("NewHeightfield: %v", err)
	}
	return h
}

func TestHeightfield_Invalid(t *testing.T) {
	cases := map[string][][]float64{
		"too small": {{0, 1}},
		"ragged":    {{0, 1}, {0}},
	}
	for name, data := range cases {
		if _, err := NewHeightfield(data, 1); !errors.Is(err, dynamo.ErrInvalidShape) {
			t.Errorf("%s: err = %v, want ErrInvalidShape", name, err)
		}
	}
	if _, err := NewHeightfield([][]float64{{0, 0}, {0, 0}}, 0); !errors.Is(err, dynamo.ErrInvalidShape) {
		t.Errorf("zero element size err = %v", err)
	}
}

func TestHeightfield_MinMax(t *testing.T) {
	h := slope(t, 3)
	if h.MinValue != 0 || h.MaxValue != 4 {
		t.Errorf("min/max = %v/%v, want 0/4", h.MinValue, h.MaxValue)
	}
	if lo, hi := h.GetRectMinMax(0, 0, 1, 1); lo != 0 || hi != 2 {
		t.Errorf("rect min/max = %v/%v, want 0/2", lo, hi)
	}
}

func TestHeightfield_IndexOfPosition(t *testing.T) {
	h := slope(t, 3)
	tests := []struct {
		x, y   float64
		xi, yi int
		ok     bool
	}{
		{0.5, 0.5, 0, 0, true},
		{1.5, 0.2, 1, 0, true},
		{2.5, 0.5, 2, 0, false},
		{-0.1, 0.5, -1, 0, false},
	}
	for _, tt := range tests {
		xi, yi, ok := h.GetIndexOfPosition(tt.x, tt.y, false)
		if xi != tt.xi || yi != tt.yi || ok != tt.ok {
			t.Errorf("GetIndexOfPosition(%v, %v) = %d, %d, %v; want %d, %d, %v",
				tt.x, tt.y, xi, yi, ok, tt.xi, tt.yi, tt.ok)
		}
	}
}

func TestHeightfield_HeightAndNormal(t *testing.T) {
	h := slope(t, 4)
	for _, p := range [][2]float64{{0.5, 0.25}, {1.2, 2.7}, {2.9, 0.1}} {
		got := h.GetHeightAt(p[0], p[1], false)
		if math.Abs(got-(p[0]+p[1])) > 1e-9 {
			t.Errorf("height at %v = %v, want %v", p, got, p[0]+p[1])
		}
	}
	n := h.GetNormalAt(1.2, 2.7, false)
	want := dynamo.Unit(mgl64.Vec3{-1, -1, 1})
	if !n.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("normal = %v, want %v", n, want)
	}
}

func TestHeightfield_PillarGeometry(t *testing.T) {
	h := slope(t, 3)
	p := h.ConvexTrianglePillar(1, 1, false)
	top := p.Convex.Vertices[0].Add(p.Offset)
	if !top.ApproxEqualThreshold(mgl64.Vec3{1, 1, 2}, 1e-9) {
		t.Errorf("pillar top corner = %v, want (1,1,2)", top)
	}
	floor := p.Convex.Vertices[3][2] + p.Offset[2]
	if math.Abs(floor-(h.MinValue-1)) > 1e-9 {
		t.Errorf("pillar floor = %v, want %v", floor, h.MinValue-1)
	}
	if !p.Convex.PointIsInside(mgl64.Vec3{1.1, 1.1, 1}.Sub(p.Offset)) {
		t.Error("point under the surface should be inside the pillar")
	}
}

func TestHeightfield_PillarCache(t *testing.T) {
	h := slope(t, 3)
	first := h.ConvexTrianglePillar(0, 0, false)
	h.ConvexTrianglePillar(0, 0, true)
	h.ConvexTrianglePillar(1, 1, false)
	if n := h.CachedPillars(); n != 3 {
		t.Fatalf("cached = %d, want 3", n)
	}
	if again := h.ConvexTrianglePillar(0, 0, false); again.Convex != first.Convex {
		t.Error("cached pillar was rebuilt")
	}

	// (1,1) is a corner of (1,1,lower), (0,0,upper) and both (0,1) and (1,0) triangles
	h.SetHeightValueAtIndex(1, 1, 5)
	if n := h.CachedPillars(); n != 1 {
		t.Errorf("cached after edit = %d, want 1", n)
	}

	h.CacheEnabled = false
	h.ConvexTrianglePillar(1, 0, true)
	if n := h.CachedPillars(); n != 1 {
		t.Errorf("disabled cache grew to %d", n)
	}
}
