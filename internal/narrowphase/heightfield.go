package narrowphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// cellRange returns the heightfield cells within radius (plus one cell of
// margin) of a local position, clamped to the grid. ok is false when the
// range misses the grid entirely.
func cellRange(hf *physics.Heightfield, local mgl64.Vec3, radius float64) (minX, maxX, minY, maxY int, ok bool) {
	w := hf.ElementSize
	minX = int(math.Floor((local[0]-radius)/w)) - 1
	maxX = int(math.Ceil((local[0]+radius)/w)) + 1
	minY = int(math.Floor((local[1]-radius)/w)) - 1
	maxY = int(math.Ceil((local[1]+radius)/w)) + 1

	nx, ny := len(hf.Data), len(hf.Data[0])
	if maxX < 0 || maxY < 0 || minX > nx || minY > ny {
		return 0, 0, 0, 0, false
	}
	minX = max(0, min(minX, nx-1))
	maxX = max(0, min(maxX, nx-1))
	minY = max(0, min(minY, ny-1))
	maxY = max(0, min(maxY, ny-1))
	return minX, maxX, minY, maxY, true
}

func sphereHeightfield(n *Narrowphase, p *pair) bool {
	sphere := p.si.(*physics.Sphere)
	hf := p.sj.(*physics.Heightfield)
	R := sphere.Radius

	local := dynamo.PointToLocal(p.xj, p.qj, p.xi)
	minX, maxX, minY, maxY, ok := cellRange(hf, local, R)
	if !ok {
		return false
	}
	lo, hi := hf.GetRectMinMax(minX, minY, maxX, maxY)
	if local[2]-R > hi || local[2]+R < lo {
		return false
	}

	found := false
	for i := minX; i < maxX; i++ {
		for j := minY; j < maxY; j++ {
			before := len(n.contacts)
			for _, upper := range [2]bool{false, true} {
				pillar := hf.ConvexTrianglePillar(i, j, upper)
				offset := dynamo.PointToWorld(p.xj, p.qj, pillar.Offset)
				if p.xi.Sub(offset).Len() >= pillar.Convex.BoundingSphereRadius+R {
					continue
				}
				sub := *p
				sub.xj = offset
				if n.sphereHull(&sub, sphere, pillar.Convex) {
					if p.justTest {
						return true
					}
					found = true
				}
			}
			if len(n.contacts)-before > 2 {
				return found
			}
		}
	}
	return found
}

func boxHeightfield(n *Narrowphase, p *pair) bool {
	return n.hullHeightfield(p, p.si.(*physics.Box).Convex)
}

func convexHeightfield(n *Narrowphase, p *pair) bool {
	return n.hullHeightfield(p, p.si.(*physics.ConvexPolyhedron))
}

func (n *Narrowphase) hullHeightfield(p *pair, hull *physics.ConvexPolyhedron) bool {
	hf := p.sj.(*physics.Heightfield)
	radius := hull.BoundingSphereRadius

	local := dynamo.PointToLocal(p.xj, p.qj, p.xi)
	minX, maxX, minY, maxY, ok := cellRange(hf, local, radius)
	if !ok {
		return false
	}
	lo, hi := hf.GetRectMinMax(minX, minY, maxX, maxY)
	if local[2]-radius > hi || local[2]+radius < lo {
		return false
	}

	found := false
	for i := minX; i < maxX; i++ {
		for j := minY; j < maxY; j++ {
			for _, upper := range [2]bool{false, true} {
				pillar := hf.ConvexTrianglePillar(i, j, upper)
				offset := dynamo.PointToWorld(p.xj, p.qj, pillar.Offset)
				if p.xi.Sub(offset).Len() >= pillar.Convex.BoundingSphereRadius+radius {
					continue
				}
				sub := *p
				sub.xj = offset
				if n.hullHull(&sub, hull, pillar.Convex) {
					if p.justTest {
						return true
					}
					found = true
				}
			}
		}
	}
	return found
}
