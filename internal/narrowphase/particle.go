package narrowphase

import (
	"math"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// The particle handlers put the particle body first on the contact.

func planeParticle(n *Narrowphase, p *pair) bool {
	normal := p.qi.Rotate(dynamo.UnitZ)
	dot := normal.Dot(p.xj.Sub(p.xi))
	if dot > 0 {
		return false
	}
	if p.justTest {
		return true
	}
	c := n.newContact(p.bj, p.bi, p.reportJ, p.reportI)
	c.Ni = normal.Mul(-1)
	c.Ri = p.xj.Sub(p.bj.Position)
	c.Rj = p.xj.Sub(normal.Mul(dot)).Sub(p.bi.Position)
	n.add(c)
	return true
}

func sphereParticle(n *Narrowphase, p *pair) bool {
	R := p.si.(*physics.Sphere).Radius
	d := p.xj.Sub(p.xi)
	if d.LenSqr() > R*R {
		return false
	}
	if p.justTest {
		return true
	}
	normal := unit(d)
	c := n.newContact(p.bj, p.bi, p.reportJ, p.reportI)
	c.Ni = normal.Mul(-1)
	c.Ri = p.xj.Sub(p.bj.Position)
	c.Rj = normal.Mul(R).Add(p.xi).Sub(p.bi.Position)
	n.add(c)
	return true
}

func boxParticle(n *Narrowphase, p *pair) bool {
	return n.hullParticle(p, p.si.(*physics.Box).Convex)
}

func convexParticle(n *Narrowphase, p *pair) bool {
	return n.hullParticle(p, p.si.(*physics.ConvexPolyhedron))
}

// hullParticle pushes a particle inside the hull out through the face it
// is closest to.
func (n *Narrowphase) hullParticle(p *pair, hull *physics.ConvexPolyhedron) bool {
	local := dynamo.PointToLocal(p.xi, p.qi, p.xj)
	if !hull.PointIsInside(local) {
		return false
	}

	best := -1
	var minPenetration float64
	faceNormal := dynamo.UnitZ
	for i, face := range hull.Faces {
		normal := p.qi.Rotate(hull.FaceNormals[i])
		v := p.qi.Rotate(hull.Vertices[face[0]]).Add(p.xi)
		penetration := -normal.Dot(p.xj.Sub(v))
		if best < 0 || math.Abs(penetration) < math.Abs(minPenetration) {
			if p.justTest {
				return true
			}
			best, minPenetration, faceNormal = i, penetration, normal
		}
	}
	if best < 0 {
		n.warnf("point found inside convex shape %d but no penetrating face", hull.ID)
		return false
	}

	c := n.newContact(p.bj, p.bi, p.reportJ, p.reportI)
	c.Ni = faceNormal.Mul(-1)
	c.Ri = p.xj.Sub(p.bj.Position)
	c.Rj = faceNormal.Mul(minPenetration).Add(p.xj).Sub(p.bi.Position)
	n.add(c)
	return true
}
