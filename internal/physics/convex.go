package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// ConvexPolyhedron is a convex hull given by vertices and faces. Face
// vertices are listed counter-clockwise seen from outside, so the right-hand
// normal points out of the hull.
type ConvexPolyhedron struct {
	ShapeBase
	Vertices    []mgl64.Vec3
	Faces       [][]int
	FaceNormals []mgl64.Vec3
	UniqueEdges []mgl64.Vec3
	// UniqueAxes replaces the face normals as SAT candidates when set.
	UniqueAxes []mgl64.Vec3
}

func NewConvexPolyhedron(vertices []mgl64.Vec3, faces [][]int, uniqueAxes []mgl64.Vec3) (*ConvexPolyhedron, error) {
	if len(vertices) == 0 || len(faces) == 0 {
		return nil, fmt.Errorf("convex polyhedron with %d vertices and %d faces: %w",
			len(vertices), len(faces), dynamo.ErrInvalidShape)
	}
	for i, f := range faces {
		if len(f) < 3 {
			return nil, fmt.Errorf("face %d has %d vertices: %w", i, len(f), dynamo.ErrInvalidShape)
		}
		for _, vi := range f {
			if vi < 0 || vi >= len(vertices) {
				return nil, fmt.Errorf("face %d references vertex %d of %d: %w", i, vi, len(vertices), dynamo.ErrInvalidShape)
			}
		}
	}

	c := &ConvexPolyhedron{
		ShapeBase: newShapeBase(),
		Vertices:  vertices,
		Faces:     faces,
	}
	if uniqueAxes != nil {
		c.UniqueAxes = append([]mgl64.Vec3(nil), uniqueAxes...)
	}
	c.computeNormals()
	c.computeEdges()
	c.UpdateBoundingSphereRadius()
	return c, nil
}

func (c *ConvexPolyhedron) Kind() ShapeKind { return KindConvex }

// FaceNormal computes the outward normal of face i from its first three vertices.
func (c *ConvexPolyhedron) FaceNormal(i int) mgl64.Vec3 {
	f := c.Faces[i]
	va, vb, vc := c.Vertices[f[0]], c.Vertices[f[1]], c.Vertices[f[2]]
	return dynamo.Unit(vb.Sub(va).Cross(vc.Sub(vb)))
}

func (c *ConvexPolyhedron) computeNormals() {
	c.FaceNormals = make([]mgl64.Vec3, len(c.Faces))
	for i := range c.Faces {
		n := c.FaceNormal(i)
		c.FaceNormals[i] = n
		if n.Dot(c.Vertices[c.Faces[i][0]]) < 0 {
			warnf("face normal %d = %v looks like it points into the shape; order the face vertices CCW around the normal", i, n)
		}
	}
}

func (c *ConvexPolyhedron) computeEdges() {
	c.UniqueEdges = c.UniqueEdges[:0]
	for _, f := range c.Faces {
		for j := range f {
			k := (j + 1) % len(f)
			edge := dynamo.Unit(c.Vertices[f[j]].Sub(c.Vertices[f[k]]))
			if edge.LenSqr() == 0 {
				continue
			}
			found := false
			for _, e := range c.UniqueEdges {
				if e.ApproxEqualThreshold(edge, 1e-6) || e.ApproxEqualThreshold(edge.Mul(-1), 1e-6) {
					found = true
					break
				}
			}
			if !found {
				c.UniqueEdges = append(c.UniqueEdges, edge)
			}
		}
	}
}

// PlaneConstant returns c such that n·x + c = 0 on face i, in local space.
func (c *ConvexPolyhedron) PlaneConstant(i int) float64 {
	return -c.FaceNormals[i].Dot(c.Vertices[c.Faces[i][0]])
}

func (c *ConvexPolyhedron) UpdateBoundingSphereRadius() {
	max2 := 0.0
	for _, v := range c.Vertices {
		if l := v.LenSqr(); l > max2 {
			max2 = l
		}
	}
	c.BoundingSphereRadius = math.Sqrt(max2)
}

func (c *ConvexPolyhedron) LocalAABB() AABB {
	return AABBFromPoints(c.Vertices)
}

// CalculateLocalInertia approximates the hull by its local bounding box.
func (c *ConvexPolyhedron) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return BoxInertia(c.LocalAABB().Extents().Mul(0.5), mass)
}

func (c *ConvexPolyhedron) CalculateWorldAABB(pos mgl64.Vec3, q mgl64.Quat) AABB {
	return AABBFromPoints(c.WorldVertices(pos, q))
}

// Volume approximates the hull by its bounding sphere.
func (c *ConvexPolyhedron) Volume() float64 {
	r := c.BoundingSphereRadius
	return 4.0 * math.Pi * r * r * r / 3.0
}

func (c *ConvexPolyhedron) WorldVertices(pos mgl64.Vec3, q mgl64.Quat) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(c.Vertices))
	for i, v := range c.Vertices {
		out[i] = q.Rotate(v).Add(pos)
	}
	return out
}

func (c *ConvexPolyhedron) WorldFaceNormals(q mgl64.Quat) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(c.FaceNormals))
	for i, n := range c.FaceNormals {
		out[i] = q.Rotate(n)
	}
	return out
}

// AveragePoint is the mean of the local vertices.
func (c *ConvexPolyhedron) AveragePoint() mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, v := range c.Vertices {
		sum = sum.Add(v)
	}
	return sum.Mul(1 / float64(len(c.Vertices)))
}

// PointIsInside reports whether the local point p lies on the same side of
// every face plane as the vertex average.
func (c *ConvexPolyhedron) PointIsInside(p mgl64.Vec3) bool {
	inside := c.AveragePoint()
	for i, f := range c.Faces {
		n := c.FaceNormals[i]
		v := c.Vertices[f[0]]
		r1 := n.Dot(p.Sub(v))
		r2 := n.Dot(inside.Sub(v))
		if (r1 < 0 && r2 > 0) || (r1 > 0 && r2 < 0) {
			return false
		}
	}
	return true
}

// Project returns the extent of the hull posed at (pos, q) along a world axis.
func (c *ConvexPolyhedron) Project(axis, pos mgl64.Vec3, q mgl64.Quat) (max, min float64) {
	local := q.Conjugate().Rotate(axis)
	add := pos.Dot(axis)
	min = c.Vertices[0].Dot(local)
	max = min
	for _, v := range c.Vertices[1:] {
		d := v.Dot(local)
		if d > max {
			max = d
		}
		if d < min {
			min = d
		}
	}
	return max + add, min + add
}
