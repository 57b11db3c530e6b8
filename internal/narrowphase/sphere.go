package narrowphase

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

func sphereSphere(n *Narrowphase, p *pair) bool {
	ri := p.si.(*physics.Sphere).Radius
	rj := p.sj.(*physics.Sphere).Radius
	d := p.xj.Sub(p.xi)
	if d.LenSqr() >= (ri+rj)*(ri+rj) {
		return false
	}
	if p.justTest {
		return true
	}

	c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
	c.Ni = unit(d)
	c.Ri = c.Ni.Mul(ri).Add(p.xi).Sub(p.bi.Position)
	c.Rj = c.Ni.Mul(-rj).Add(p.xj).Sub(p.bj.Position)
	n.add(c)
	return true
}

func spherePlane(n *Narrowphase, p *pair) bool {
	r := p.si.(*physics.Sphere).Radius
	ni := p.qj.Rotate(dynamo.UnitZ).Mul(-1)

	planeToSphere := p.xi.Sub(p.xj)
	if -planeToSphere.Dot(ni) > r {
		return false
	}
	if p.justTest {
		return true
	}

	c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
	c.Ni = ni
	c.Ri = ni.Mul(r).Add(p.xi).Sub(p.bi.Position)
	// sphere centre projected on the plane
	c.Rj = planeToSphere.Sub(ni.Mul(ni.Dot(planeToSphere))).Add(p.xj).Sub(p.bj.Position)
	n.add(c)
	return true
}

// sphereBox tries the box faces first, then its corners, then its edges.
// Only the first kind that touches produces a contact.
func sphereBox(n *Narrowphase, p *pair) bool {
	R := p.si.(*physics.Sphere).Radius
	box := p.sj.(*physics.Box)
	boxToSphere := p.xi.Sub(p.xj)
	sides := box.SideNormals(p.qj)

	var (
		hits               int
		best               float64
		sideH              float64
		dot1, dot2         float64
		side, side1, side2 mgl64.Vec3
	)
	for idx := range sides {
		h := sides[idx].Len()
		ns := dynamo.Unit(sides[idx])
		dot := boxToSphere.Dot(ns)
		if dot >= h+R || dot <= 0 {
			continue
		}
		ns1, ns2 := sides[(idx+1)%3], sides[(idx+2)%3]
		h1, h2 := ns1.Len(), ns2.Len()
		ns1, ns2 = dynamo.Unit(ns1), dynamo.Unit(ns2)
		d1, d2 := boxToSphere.Dot(ns1), boxToSphere.Dot(ns2)
		if d1 >= h1 || d1 <= -h1 || d2 >= h2 || d2 <= -h2 {
			continue
		}
		dist := math.Abs(dot - h - R)
		if hits == 0 || dist < best {
			best = dist
			dot1, dot2 = d1, d2
			sideH = h
			side, side1, side2 = ns, ns1, ns2
			hits++
			if p.justTest {
				return true
			}
		}
	}
	if hits > 0 {
		c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
		c.Ni = side.Mul(-1)
		c.Ri = side.Mul(-R).Add(p.xi).Sub(p.bi.Position)
		c.Rj = side.Mul(sideH).Add(side1.Mul(dot1)).Add(side2.Mul(dot2)).Add(p.xj).Sub(p.bj.Position)
		n.add(c)
		return true
	}

	signs := [2]float64{-1, 1}
	for _, sx := range signs {
		for _, sy := range signs {
			for _, sz := range signs {
				corner := sides[0].Mul(sx).Add(sides[1].Mul(sy)).Add(sides[2].Mul(sz))
				toCorner := p.xj.Add(corner).Sub(p.xi)
				if toCorner.LenSqr() >= R*R {
					continue
				}
				if p.justTest {
					return true
				}
				c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
				c.Ni = unit(toCorner)
				c.Ri = c.Ni.Mul(R).Add(p.xi).Sub(p.bi.Position)
				c.Rj = corner.Add(p.xj).Sub(p.bj.Position)
				n.add(c)
				return true
			}
		}
	}

	for j := range sides {
		for k := range sides {
			if j%3 == k%3 {
				continue
			}
			tangent := dynamo.Unit(sides[k].Cross(sides[j]))
			center := sides[j].Add(sides[k])
			along := p.xi.Sub(center).Sub(p.xj).Dot(tangent)
			orthogonal := tangent.Mul(along)

			l := 0
			for l == j%3 || l == k%3 {
				l++
			}

			// centre to edge, in the plane orthogonal to the edge
			dist := p.xi.Sub(orthogonal).Sub(center).Sub(p.xj)
			if math.Abs(along) >= sides[l].Len() || dist.Len() >= R {
				continue
			}
			if p.justTest {
				return true
			}
			c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
			rj := center.Add(orthogonal)
			c.Ni = unit(dist.Mul(-1))
			c.Ri = unit(rj.Add(p.xj).Sub(p.xi)).Mul(R).Add(p.xi).Sub(p.bi.Position)
			c.Rj = rj.Add(p.xj).Sub(p.bj.Position)
			n.add(c)
			return true
		}
	}
	return false
}

func sphereConvex(n *Narrowphase, p *pair) bool {
	return n.sphereHull(p, p.si.(*physics.Sphere), p.sj.(*physics.ConvexPolyhedron))
}

// sphereHull checks hull corners, then faces, then face edges, and stops
// at the first feature the sphere touches.
func (n *Narrowphase) sphereHull(p *pair, sphere *physics.Sphere, hull *physics.ConvexPolyhedron) bool {
	R := sphere.Radius

	for _, v := range hull.Vertices {
		corner := p.qj.Rotate(v).Add(p.xj)
		toCorner := corner.Sub(p.xi)
		if toCorner.LenSqr() >= R*R {
			continue
		}
		if p.justTest {
			return true
		}
		c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
		c.Ni = unit(toCorner)
		c.Ri = c.Ni.Mul(R).Add(p.xi).Sub(p.bi.Position)
		c.Rj = corner.Sub(p.bj.Position)
		n.add(c)
		return true
	}

	for i, face := range hull.Faces {
		normal := p.qj.Rotate(hull.FaceNormals[i])
		point := p.qj.Rotate(hull.Vertices[face[0]]).Add(p.xj)

		// negative when the deepest sphere point is behind the face
		penetration := p.xi.Sub(normal.Mul(R)).Sub(point).Dot(normal)
		if penetration >= 0 || p.xi.Sub(point).Dot(normal) <= 0 {
			continue
		}

		verts := make([]mgl64.Vec3, len(face))
		for j, vi := range face {
			verts[j] = p.qj.Rotate(hull.Vertices[vi]).Add(p.xj)
		}

		if pointInPolygon(verts, normal, p.xi) {
			if p.justTest {
				return true
			}
			c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
			c.Ni = normal.Mul(-1)
			c.Ri = normal.Mul(-R).Add(p.xi).Sub(p.bi.Position)
			c.Rj = p.xi.Sub(normal.Mul(R + penetration)).Sub(p.bj.Position)
			n.add(c)
			return true
		}

		for j := range face {
			v1 := verts[(j+1)%len(face)]
			v2 := verts[(j+2)%len(face)]
			edge := v2.Sub(v1)
			dir := dynamo.Unit(edge)
			dot := p.xi.Sub(v1).Dot(dir)
			onEdge := v1.Add(dir.Mul(dot))
			toEdge := onEdge.Sub(p.xi)
			if dot <= 0 || dot*dot >= edge.LenSqr() || toEdge.LenSqr() >= R*R {
				continue
			}
			if p.justTest {
				return true
			}
			c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
			c.Ni = unit(toEdge)
			c.Ri = c.Ni.Mul(R).Add(p.xi).Sub(p.bi.Position)
			c.Rj = onEdge.Sub(p.bj.Position)
			n.add(c)
			return true
		}
	}
	return false
}

// pointInPolygon reports whether p lies inside the convex polygon verts
// when both are projected along normal.
func pointInPolygon(verts []mgl64.Vec3, normal, p mgl64.Vec3) bool {
	var positive, set bool
	for i, v := range verts {
		edge := verts[(i+1)%len(verts)].Sub(v)
		r := edge.Cross(normal).Dot(p.Sub(v))
		if !set {
			positive, set = r > 0, true
			continue
		}
		if (r > 0) != positive {
			return false
		}
	}
	return true
}
