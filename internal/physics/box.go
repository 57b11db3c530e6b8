package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// Box is a cuboid given by its half extents. It keeps a convex polyhedron
// twin that the convex collision routines operate on.
type Box struct {
	ShapeBase
	HalfExtents mgl64.Vec3
	Convex      *ConvexPolyhedron
}

func NewBox(halfExtents mgl64.Vec3) (*Box, error) {
	for _, e := range halfExtents {
		if e < 0 {
			return nil, fmt.Errorf("box half extents %v: %w", halfExtents, dynamo.ErrInvalidShape)
		}
	}
	b := &Box{ShapeBase: newShapeBase(), HalfExtents: halfExtents}
	if err := b.UpdateConvexRepresentation(); err != nil {
		return nil, err
	}
	b.UpdateBoundingSphereRadius()
	return b, nil
}

// UpdateConvexRepresentation rebuilds the polyhedron twin after HalfExtents changes.
func (b *Box) UpdateConvexRepresentation() error {
	x, y, z := b.HalfExtents[0], b.HalfExtents[1], b.HalfExtents[2]
	verts := []mgl64.Vec3{
		{-x, -y, -z},
		{x, -y, -z},
		{x, y, -z},
		{-x, y, -z},
		{-x, -y, z},
		{x, -y, z},
		{x, y, z},
		{-x, y, z},
	}
	faces := [][]int{
		{3, 2, 1, 0}, // -z
		{4, 5, 6, 7}, // +z
		{5, 4, 0, 1}, // -y
		{2, 3, 7, 6}, // +y
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
	}
	h, err := NewConvexPolyhedron(verts, faces, nil)
	if err != nil {
		return err
	}
	h.Material = b.Material
	b.Convex = h
	return nil
}

func (b *Box) Kind() ShapeKind { return KindBox }

func (b *Box) UpdateBoundingSphereRadius() { b.BoundingSphereRadius = b.HalfExtents.Len() }

func (b *Box) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	return BoxInertia(b.HalfExtents, mass)
}

// BoxInertia is the diagonal inertia of a solid cuboid with the given half extents.
func BoxInertia(he mgl64.Vec3, mass float64) mgl64.Vec3 {
	x, y, z := 2*he[0], 2*he[1], 2*he[2]
	return mgl64.Vec3{
		mass / 12.0 * (y*y + z*z),
		mass / 12.0 * (x*x + z*z),
		mass / 12.0 * (y*y + x*x),
	}
}

// SideNormals returns the six half-extent vectors (+x, +y, +z, -x, -y, -z)
// rotated by q.
func (b *Box) SideNormals(q mgl64.Quat) [6]mgl64.Vec3 {
	e := b.HalfExtents
	sides := [6]mgl64.Vec3{
		{e[0], 0, 0},
		{0, e[1], 0},
		{0, 0, e[2]},
		{-e[0], 0, 0},
		{0, -e[1], 0},
		{0, 0, -e[2]},
	}
	for i := range sides {
		sides[i] = q.Rotate(sides[i])
	}
	return sides
}

// WorldCorners returns the eight corners posed at (pos, q).
func (b *Box) WorldCorners(pos mgl64.Vec3, q mgl64.Quat) [8]mgl64.Vec3 {
	e := b.HalfExtents
	local := AABB{Min: e.Mul(-1), Max: e}
	corners := local.corners()
	for i := range corners {
		corners[i] = q.Rotate(corners[i]).Add(pos)
	}
	return corners
}

func (b *Box) CalculateWorldAABB(pos mgl64.Vec3, q mgl64.Quat) AABB {
	corners := b.WorldCorners(pos, q)
	return AABBFromPoints(corners[:])
}

func (b *Box) Volume() float64 {
	return 8.0 * b.HalfExtents[0] * b.HalfExtents[1] * b.HalfExtents[2]
}
