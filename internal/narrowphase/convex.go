package narrowphase

import (
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Clip depth limits for convex manifolds.
const (
	clipMinDist = -100
	clipMaxDist = 100
)

func planeBox(n *Narrowphase, p *pair) bool {
	return n.planeHull(p, p.sj.(*physics.Box).Convex)
}

func planeConvex(n *Narrowphase, p *pair) bool {
	return n.planeHull(p, p.sj.(*physics.ConvexPolyhedron))
}

// planeHull adds one contact per hull vertex on or below the plane.
func (n *Narrowphase) planeHull(p *pair, hull *physics.ConvexPolyhedron) bool {
	normal := p.qi.Rotate(dynamo.UnitZ)

	count := 0
	for _, v := range hull.Vertices {
		world := p.qj.Rotate(v).Add(p.xj)
		dot := normal.Dot(world.Sub(p.xi))
		if dot > 0 {
			continue
		}
		if p.justTest {
			return true
		}
		c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
		c.Ni = normal
		c.Ri = world.Sub(normal.Mul(dot)).Sub(p.bi.Position)
		c.Rj = world.Sub(p.bj.Position)
		n.addManifoldPoint(c)
		count++
	}
	if n.EnableFrictionReduction && count > 0 {
		n.frictionFromAverage(count)
	}
	return count > 0
}

func boxBox(n *Narrowphase, p *pair) bool {
	return n.hullHull(p, p.si.(*physics.Box).Convex, p.sj.(*physics.Box).Convex)
}

func boxConvex(n *Narrowphase, p *pair) bool {
	return n.hullHull(p, p.si.(*physics.Box).Convex, p.sj.(*physics.ConvexPolyhedron))
}

func convexConvex(n *Narrowphase, p *pair) bool {
	return n.hullHull(p, p.si.(*physics.ConvexPolyhedron), p.sj.(*physics.ConvexPolyhedron))
}

// hullHull runs the separating axis test and turns the clipped manifold
// into contacts with normal along the separating axis.
func (n *Narrowphase) hullHull(p *pair, a, b *physics.ConvexPolyhedron) bool {
	if p.xi.Sub(p.xj).Len() > a.BoundingSphereRadius+b.BoundingSphereRadius {
		return false
	}
	axis, ok := a.FindSeparatingAxis(b, p.xi, p.qi, p.xj, p.qj, nil, nil)
	if !ok {
		return false
	}
	points := a.ClipAgainstHull(p.xi, p.qi, b, p.xj, p.qj, axis, clipMinDist, clipMaxDist)
	if len(points) == 0 {
		return false
	}
	if p.justTest {
		return true
	}

	for _, cp := range points {
		c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
		c.Ni = axis.Mul(-1)
		c.Ri = cp.Point.Sub(cp.Normal.Mul(cp.Depth)).Sub(p.bi.Position)
		c.Rj = cp.Point.Sub(p.bj.Position)
		n.addManifoldPoint(c)
	}
	if n.EnableFrictionReduction {
		n.frictionFromAverage(len(points))
	}
	return true
}
