package narrowphase

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

func planeTrimesh(n *Narrowphase, p *pair) bool {
	mesh := p.sj.(*physics.Trimesh)
	normal := p.qi.Rotate(dynamo.UnitZ)

	found := false
	for i := range mesh.Vertices {
		v := mesh.WorldVertex(i, p.xj, p.qj)
		dot := normal.Dot(v.Sub(p.xi))
		if dot > 0 {
			continue
		}
		if p.justTest {
			return true
		}
		c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
		c.Ni = normal
		c.Ri = v.Sub(normal.Mul(dot)).Sub(p.bi.Position)
		c.Rj = v.Sub(p.bj.Position)
		n.add(c)
		found = true
	}
	return found
}

// sphereTrimesh collides against the vertices, edges, and faces of the
// triangles near the sphere. Every touching feature adds a contact.
func sphereTrimesh(n *Narrowphase, p *pair) bool {
	R := p.si.(*physics.Sphere).Radius
	mesh := p.sj.(*physics.Trimesh)

	local := dynamo.PointToLocal(p.xj, p.qj, p.xi)
	r := mgl64.Vec3{R, R, R}
	triangles := mesh.GetTrianglesInAABB(physics.AABB{Min: local.Sub(r), Max: local.Add(r)})

	found := false
	// local point and direction to contact, both in mesh space
	addLocal := func(point, ni mgl64.Vec3) {
		c := n.newContact(p.bi, p.bj, p.reportI, p.reportJ)
		c.Ni = p.qj.Rotate(ni)
		c.Ri = c.Ni.Mul(R).Add(p.xi).Sub(p.bi.Position)
		c.Rj = dynamo.PointToWorld(p.xj, p.qj, point).Sub(p.bj.Position)
		n.add(c)
		found = true
	}

	for _, t := range triangles {
		for j := 0; j < 3; j++ {
			v := mesh.Vertex(mesh.Indices[3*t+j])
			if v.Sub(local).LenSqr() > R*R {
				continue
			}
			if p.justTest {
				return true
			}
			addLocal(v, unit(v.Sub(local)))
		}
	}

	for _, t := range triangles {
		for j := 0; j < 3; j++ {
			a := mesh.Vertex(mesh.Indices[3*t+j])
			b := mesh.Vertex(mesh.Indices[3*t+(j+1)%3])
			edge := b.Sub(a)
			if local.Sub(a).Dot(edge) <= 0 || local.Sub(b).Dot(edge) >= 0 {
				continue
			}
			dir := dynamo.Unit(edge)
			onEdge := a.Add(dir.Mul(local.Sub(a).Dot(dir)))
			if onEdge.Sub(local).Len() >= R {
				continue
			}
			if p.justTest {
				return true
			}
			addLocal(onEdge, unit(onEdge.Sub(local)))
		}
	}

	for _, t := range triangles {
		a, b, c := mesh.TriangleVertices(t)
		normal := mesh.Normals[t]
		onPlane := local.Sub(normal.Mul(local.Sub(a).Dot(normal)))
		if onPlane.Sub(local).Len() >= R || !dynamo.PointInTriangle(onPlane, a, b, c) {
			continue
		}
		if p.justTest {
			return true
		}
		addLocal(onPlane, unit(onPlane.Sub(local)))
	}
	return found
}
