package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Trimesh is an indexed triangle mesh. Vertices are stored unscaled; Scale
// is applied on every lookup.
type Trimesh struct {
	ShapeBase
	Vertices []mgl64.Vec3
	Indices  []int
	Normals  []mgl64.Vec3
	Edges    [][2]int
	Scale    mgl64.Vec3

	aabb      AABB
	triangles []AABB
}

func NewTrimesh(vertices []mgl64.Vec3, indices []int) (*Trimesh, error) {
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, fmt.Errorf("trimesh with %d indices: %w", len(indices), dynamo.ErrInvalidShape)
	}
	for _, i := range indices {
		if i < 0 || i >= len(vertices) {
			return nil, fmt.Errorf("trimesh index %d of %d vertices: %w", i, len(vertices), dynamo.ErrInvalidShape)
		}
	}
	t := &Trimesh{
		ShapeBase: newShapeBase(),
		Vertices:  append([]mgl64.Vec3(nil), vertices...),
		Indices:   append([]int(nil), indices...),
		Scale:     mgl64.Vec3{1, 1, 1},
	}
	t.updateEdges()
	t.UpdateNormals()
	t.updateAABB()
	t.UpdateBoundingSphereRadius()
	return t, nil
}

func (t *Trimesh) Kind() ShapeKind { return KindTrimesh }

func (t *Trimesh) NumTriangles() int { return len(t.Indices) / 3 }

// Vertex returns scaled vertex i.
func (t *Trimesh) Vertex(i int) mgl64.Vec3 {
	return dynamo.Hadamard(t.Vertices[i], t.Scale)
}

func (t *Trimesh) WorldVertex(i int, pos mgl64.Vec3, q mgl64.Quat) mgl64.Vec3 {
	return dynamo.PointToWorld(pos, q, t.Vertex(i))
}

// TriangleVertices returns the scaled corners of triangle i.
func (t *Trimesh) TriangleVertices(i int) (a, b, c mgl64.Vec3) {
	i3 := 3 * i
	return t.Vertex(t.Indices[i3]), t.Vertex(t.Indices[i3+1]), t.Vertex(t.Indices[i3+2])
}

func (t *Trimesh) EdgeVertices(e int) (a, b mgl64.Vec3) {
	return t.Vertex(t.Edges[e][0]), t.Vertex(t.Edges[e][1])
}

func (t *Trimesh) SetScale(scale mgl64.Vec3) {
	t.Scale = scale
	t.UpdateNormals()
	t.updateAABB()
	t.UpdateBoundingSphereRadius()
}

func (t *Trimesh) UpdateNormals() {
	n := t.NumTriangles()
	t.Normals = make([]mgl64.Vec3, n)
	for i := 0; i < n; i++ {
		a, b, c := t.TriangleVertices(i)
		t.Normals[i] = dynamo.Unit(b.Sub(a).Cross(c.Sub(a)))
	}
}

func (t *Trimesh) updateEdges() {
	seen := make(map[[2]int]bool)
	add := func(a, b int) {
		if a > b {
			a, b = b, a
		}
		seen[[2]int{a, b}] = true
	}
	for i := 0; i < t.NumTriangles(); i++ {
		a, b, c := t.Indices[3*i], t.Indices[3*i+1], t.Indices[3*i+2]
		add(a, b)
		add(b, c)
		add(c, a)
	}
	t.Edges = t.Edges[:0]
	for e := range seen {
		t.Edges = append(t.Edges, e)
	}
	sort.Slice(t.Edges, func(i, j int) bool {
		if t.Edges[i][0] != t.Edges[j][0] {
			return t.Edges[i][0] < t.Edges[j][0]
		}
		return t.Edges[i][1] < t.Edges[j][1]
	})
}

func (t *Trimesh) updateAABB() {
	pts := make([]mgl64.Vec3, len(t.Vertices))
	for i := range t.Vertices {
		pts[i] = t.Vertex(i)
	}
	t.aabb = AABBFromPoints(pts)

	t.triangles = make([]AABB, t.NumTriangles())
	for i := range t.triangles {
		a, b, c := t.TriangleVertices(i)
		t.triangles[i] = AABBFromPoints([]mgl64.Vec3{a, b, c})
	}
}

func (t *Trimesh) LocalAABB() AABB { return t.aabb }

// GetTrianglesInAABB returns the indices of triangles whose local boxes
// overlap the local query box, in ascending order.
func (t *Trimesh) GetTrianglesInAABB(box AABB) []int {
	var out []int
	for i, tb := range t.triangles {
		if tb.Overlaps(box) {
			out = append(out, i)
		}
	}
	return out
}

func (t *Trimesh) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return BoxInertia(t.aabb.Extents().Mul(0.5), mass)
}

func (t *Trimesh) UpdateBoundingSphereRadius() {
	max2 := 0.0
	for i := range t.Vertices {
		max2 = math.Max(max2, t.Vertex(i).LenSqr())
	}
	t.BoundingSphereRadius = math.Sqrt(max2)
}

func (t *Trimesh) CalculateWorldAABB(pos mgl64.Vec3, q mgl64.Quat) AABB {
	return t.aabb.Transform(pos, q)
}

func (t *Trimesh) Volume() float64 {
	r := t.BoundingSphereRadius
	return 4.0 * math.Pi * r * r * r / 3.0
}

// NewTorus builds a closed torus mesh around local z.
func NewTorus(radius, tube float64, radialSegments, tubularSegments int) (*Trimesh, error) {
	var verts []mgl64.Vec3
	var indices []int
	arc := 2 * math.Pi
	for j := 0; j <= radialSegments; j++ {
		for i := 0; i <= tubularSegments; i++ {
			u := float64(i) / float64(tubularSegments) * arc
			v := float64(j) / float64(radialSegments) * math.Pi * 2
			verts = append(verts, mgl64.Vec3{
				(radius + tube*math.Cos(v)) * math.Cos(u),
				(radius + tube*math.Cos(v)) * math.Sin(u),
				tube * math.Sin(v),
			})
		}
	}
	for j := 1; j <= radialSegments; j++ {
		for i := 1; i <= tubularSegments; i++ {
			a := (tubularSegments+1)*j + i - 1
			b := (tubularSegments+1)*(j-1) + i - 1
			c := (tubularSegments+1)*(j-1) + i
			d := (tubularSegments+1)*j + i
			indices = append(indices, a, b, d, b, c, d)
		}
	}
	return NewTrimesh(verts, indices)
}
