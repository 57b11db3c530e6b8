package physics

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeKind tags a shape's geometry. The values are distinct bits so an
// unordered pair of kinds can be folded into a single key with OR.
type ShapeKind int

const (
	KindSphere      ShapeKind = 1
	KindPlane       ShapeKind = 2
	KindBox         ShapeKind = 4
	KindConvex      ShapeKind = 16
	KindHeightfield ShapeKind = 32
	KindParticle    ShapeKind = 64
	KindTrimesh     ShapeKind = 256
)

func (k ShapeKind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindPlane:
		return "plane"
	case KindBox:
		return "box"
	case KindConvex:
		return "convex"
	case KindHeightfield:
		return "heightfield"
	case KindParticle:
		return "particle"
	case KindTrimesh:
		return "trimesh"
	}
	return "unknown"
}

type Shape interface {
	Kind() ShapeKind
	Base() *ShapeBase
	UpdateBoundingSphereRadius()
	CalculateLocalInertia(mass float64) mgl64.Vec3
	CalculateWorldAABB(pos mgl64.Vec3, q mgl64.Quat) AABB
	Volume() float64
}

// ShapeBase holds the fields every shape shares.
type ShapeBase struct {
	ID                   int
	Body                 *Body
	BoundingSphereRadius float64
	CollisionResponse    bool
	CollisionFilterGroup int
	CollisionFilterMask  int
	Material             *Material
}

var shapeIDs atomic.Int64

func newShapeBase() ShapeBase {
	return ShapeBase{
		ID:                   int(shapeIDs.Add(1) - 1),
		CollisionResponse:    true,
		CollisionFilterGroup: 1,
		CollisionFilterMask:  -1,
	}
}

func (s *ShapeBase) Base() *ShapeBase { return s }

// Accepts reports whether the group/mask filters of both shapes admit each other.
func (s *ShapeBase) Accepts(o *ShapeBase) bool {
	return s.CollisionFilterGroup&o.CollisionFilterMask != 0 &&
		o.CollisionFilterGroup&s.CollisionFilterMask != 0
}
