package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Heightfield is a grid of heights along local z. Data[xi][yi] is the height
// at (xi*ElementSize, yi*ElementSize). Each grid cell is split into a lower
// and an upper triangle; collisions use a triangular prism ("pillar") per
// triangle reaching down below MinValue.
type Heightfield struct {
	ShapeBase
	Data         [][]float64
	MinValue     float64
	MaxValue     float64
	ElementSize  float64
	CacheEnabled bool

	pillars map[pillarKey]Pillar
}

// Pillar is a convex prism under one heightfield triangle, with its centre
// in heightfield-local coordinates.
type Pillar struct {
	Convex *ConvexPolyhedron
	Offset mgl64.Vec3
}

type pillarKey struct {
	xi, yi int
	upper  bool
}

// NewHeightfield copies nothing: data is owned by the shape afterwards.
// Rows must all have the same length and there must be at least 2x2 samples.
func NewHeightfield(data [][]float64, elementSize float64) (*Heightfield, error) {
	if len(data) < 2 || len(data[0]) < 2 {
		return nil, fmt.Errorf("heightfield needs at least 2x2 samples: %w", dynamo.ErrInvalidShape)
	}
	for i, row := range data {
		if len(row) != len(data[0]) {
			return nil, fmt.Errorf("heightfield row %d has %d samples, want %d: %w", i, len(row), len(data[0]), dynamo.ErrInvalidShape)
		}
	}
	if elementSize <= 0 {
		return nil, fmt.Errorf("heightfield element size %v: %w", elementSize, dynamo.ErrInvalidShape)
	}

	h := &Heightfield{
		ShapeBase:    newShapeBase(),
		Data:         data,
		ElementSize:  elementSize,
		CacheEnabled: true,
		pillars:      make(map[pillarKey]Pillar),
	}
	h.UpdateMinValue()
	h.UpdateMaxValue()
	h.UpdateBoundingSphereRadius()
	return h, nil
}

func (h *Heightfield) Kind() ShapeKind { return KindHeightfield }

// Update drops every cached pillar; call it after editing Data directly.
func (h *Heightfield) Update() {
	h.pillars = make(map[pillarKey]Pillar)
}

func (h *Heightfield) UpdateMinValue() {
	m := h.Data[0][0]
	for _, row := range h.Data {
		for _, v := range row {
			m = math.Min(m, v)
		}
	}
	h.MinValue = m
}

func (h *Heightfield) UpdateMaxValue() {
	m := h.Data[0][0]
	for _, row := range h.Data {
		for _, v := range row {
			m = math.Max(m, v)
		}
	}
	h.MaxValue = m
}

// SetHeightValueAtIndex writes one sample and invalidates the pillars that
// touch it.
func (h *Heightfield) SetHeightValueAtIndex(xi, yi int, value float64) {
	h.Data[xi][yi] = value
	h.clearPillar(xi, yi, false)
	if xi > 0 {
		h.clearPillar(xi-1, yi, true)
		h.clearPillar(xi-1, yi, false)
	}
	if yi > 0 {
		h.clearPillar(xi, yi-1, true)
		h.clearPillar(xi, yi-1, false)
	}
	if xi > 0 && yi > 0 {
		h.clearPillar(xi-1, yi-1, true)
	}
}

func (h *Heightfield) clearPillar(xi, yi int, upper bool) {
	delete(h.pillars, pillarKey{xi, yi, upper})
}

// CachedPillars reports how many pillars are currently cached.
func (h *Heightfield) CachedPillars() int { return len(h.pillars) }

// GetRectMinMax returns MinValue and the largest sample in the inclusive
// index rectangle.
func (h *Heightfield) GetRectMinMax(iMinX, iMinY, iMaxX, iMaxY int) (min, max float64) {
	max = h.MinValue
	for i := iMinX; i <= iMaxX; i++ {
		for j := iMinY; j <= iMaxY; j++ {
			max = math.Max(max, h.Data[i][j])
		}
	}
	return h.MinValue, max
}

// GetIndexOfPosition returns the cell containing local (x, y). ok is false
// when the point lies outside the grid; with clamp the indices are clamped
// into range first.
func (h *Heightfield) GetIndexOfPosition(x, y float64, clamp bool) (xi, yi int, ok bool) {
	w := h.ElementSize
	xi = int(math.Floor(x / w))
	yi = int(math.Floor(y / w))
	nx, ny := len(h.Data), len(h.Data[0])
	if clamp {
		xi = max(0, min(xi, nx-1))
		yi = max(0, min(yi, ny-1))
	}
	ok = xi >= 0 && yi >= 0 && xi < nx-1 && yi < ny-1
	return xi, yi, ok
}

// GetTriangle returns the corners of the lower or upper triangle of a cell.
func (h *Heightfield) GetTriangle(xi, yi int, upper bool) (a, b, c mgl64.Vec3) {
	d := h.Data
	s := h.ElementSize
	x0, y0 := float64(xi)*s, float64(yi)*s
	x1, y1 := float64(xi+1)*s, float64(yi+1)*s
	if upper {
		return mgl64.Vec3{x1, y1, d[xi+1][yi+1]}, mgl64.Vec3{x0, y1, d[xi][yi+1]}, mgl64.Vec3{x1, y0, d[xi+1][yi]}
	}
	return mgl64.Vec3{x0, y0, d[xi][yi]}, mgl64.Vec3{x1, y0, d[xi+1][yi]}, mgl64.Vec3{x0, y1, d[xi][yi+1]}
}

func (h *Heightfield) cellAt(x, y float64, edgeClamp bool) (xi, yi int) {
	xi, yi, _ = h.GetIndexOfPosition(x, y, edgeClamp)
	if edgeClamp {
		xi = min(len(h.Data)-2, max(0, xi))
		yi = min(len(h.Data[0])-2, max(0, yi))
	}
	return xi, yi
}

// GetTriangleAt returns the triangle under local (x, y) and whether it is
// the upper one.
func (h *Heightfield) GetTriangleAt(x, y float64, edgeClamp bool) (a, b, c mgl64.Vec3, upper bool) {
	xi, yi := h.cellAt(x, y, edgeClamp)
	s := h.ElementSize
	lower2 := sq(x/s-float64(xi)) + sq(y/s-float64(yi))
	upper2 := sq(x/s-float64(xi+1)) + sq(y/s-float64(yi+1))
	upper = lower2 > upper2
	a, b, c = h.GetTriangle(xi, yi, upper)
	return a, b, c, upper
}

// GetNormalAt returns the local normal of the triangle under (x, y).
func (h *Heightfield) GetNormalAt(x, y float64, edgeClamp bool) mgl64.Vec3 {
	a, b, c, _ := h.GetTriangleAt(x, y, edgeClamp)
	return dynamo.Unit(b.Sub(a).Cross(c.Sub(a)))
}

// GetHeightAt interpolates the surface height at local (x, y) with
// barycentric weights over the containing triangle.
func (h *Heightfield) GetHeightAt(x, y float64, edgeClamp bool) float64 {
	a, b, c, _ := h.GetTriangleAt(x, y, edgeClamp)
	w := barycentricWeights(x, y, a, b, c)
	return a[2]*w[0] + b[2]*w[1] + c[2]*w[2]
}

func barycentricWeights(x, y float64, a, b, c mgl64.Vec3) mgl64.Vec3 {
	den := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	wa := ((b[1]-c[1])*(x-c[0]) + (c[0]-b[0])*(y-c[1])) / den
	wb := ((c[1]-a[1])*(x-c[0]) + (a[0]-c[0])*(y-c[1])) / den
	return mgl64.Vec3{wa, wb, 1 - wa - wb}
}

// AABBAtIndex is the local box around the four samples of cell (xi, yi).
func (h *Heightfield) AABBAtIndex(xi, yi int) AABB {
	s := h.ElementSize
	d := h.Data
	x0, y0 := float64(xi)*s, float64(yi)*s
	x1, y1 := x0+s, y0+s
	return AABBFromPoints([]mgl64.Vec3{
		{x0, y0, d[xi][yi]},
		{x1, y0, d[xi+1][yi]},
		{x0, y1, d[xi][yi+1]},
		{x1, y1, d[xi+1][yi+1]},
	})
}

// ConvexTrianglePillar returns the prism under one triangle of cell
// (xi, yi). Results are cached per (xi, yi, upper) when CacheEnabled.
func (h *Heightfield) ConvexTrianglePillar(xi, yi int, upper bool) Pillar {
	key := pillarKey{xi, yi, upper}
	if h.CacheEnabled {
		if p, ok := h.pillars[key]; ok {
			return p
		}
	}

	d := h.Data
	s := h.ElementSize
	hc := (math.Min(math.Min(d[xi][yi], d[xi+1][yi]), math.Min(d[xi][yi+1], d[xi+1][yi+1]))-h.MinValue)/2 + h.MinValue
	// the prism floor sits one unit below the lowest sample
	bottom := h.MinValue - 1 - hc

	var offset mgl64.Vec3
	var verts []mgl64.Vec3
	var faces [][]int
	if !upper {
		offset = mgl64.Vec3{(float64(xi) + 0.25) * s, (float64(yi) + 0.25) * s, hc}
		verts = []mgl64.Vec3{
			{-0.25 * s, -0.25 * s, d[xi][yi] - hc},
			{0.75 * s, -0.25 * s, d[xi+1][yi] - hc},
			{-0.25 * s, 0.75 * s, d[xi][yi+1] - hc},
			{-0.25 * s, -0.25 * s, bottom},
			{0.75 * s, -0.25 * s, bottom},
			{-0.25 * s, 0.75 * s, bottom},
		}
		faces = [][]int{{0, 1, 2}, {5, 4, 3}, {0, 2, 5, 3}, {1, 0, 3, 4}, {4, 5, 2, 1}}
	} else {
		offset = mgl64.Vec3{(float64(xi) + 0.75) * s, (float64(yi) + 0.75) * s, hc}
		verts = []mgl64.Vec3{
			{0.25 * s, 0.25 * s, d[xi+1][yi+1] - hc},
			{-0.75 * s, 0.25 * s, d[xi][yi+1] - hc},
			{0.25 * s, -0.75 * s, d[xi+1][yi] - hc},
			{0.25 * s, 0.25 * s, bottom},
			{-0.75 * s, 0.25 * s, bottom},
			{0.25 * s, -0.75 * s, bottom},
		}
		faces = [][]int{{0, 1, 2}, {5, 4, 3}, {2, 5, 3, 0}, {3, 4, 1, 0}, {1, 4, 5, 2}}
	}

	// geometry is well-formed by construction
	convex, _ := NewConvexPolyhedron(verts, faces, nil)
	p := Pillar{Convex: convex, Offset: offset}
	if h.CacheEnabled {
		h.pillars[key] = p
	}
	return p
}

func (h *Heightfield) CalculateLocalInertia(float64) mgl64.Vec3 { return mgl64.Vec3{} }

func (h *Heightfield) CalculateWorldAABB(mgl64.Vec3, mgl64.Quat) AABB { return InfiniteAABB() }

func (h *Heightfield) Volume() float64 { return math.MaxFloat64 }

func (h *Heightfield) UpdateBoundingSphereRadius() {
	s := h.ElementSize
	h.BoundingSphereRadius = mgl64.Vec3{
		float64(len(h.Data)) * s,
		float64(len(h.Data[0])) * s,
		math.Max(math.Abs(h.MaxValue), math.Abs(h.MinValue)),
	}.Len()
}

func sq(x float64) float64 { return x * x }
