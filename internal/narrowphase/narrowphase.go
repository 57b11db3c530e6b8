// Package narrowphase turns candidate body pairs into contact and friction
// equations. Each unordered pair of shape kinds has one handler; pairs with
// no handler produce nothing.
package narrowphase

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/collision"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

// World is what contact generation reads from the simulation.
type World interface {
	Gravity() mgl64.Vec3
	// Dt is the step size the generated equations are tuned for.
	Dt() float64
	// ContactMaterial returns the registered material for a pair, or nil.
	ContactMaterial(a, b *physics.Material) *physics.ContactMaterial
	DefaultContactMaterial() *physics.ContactMaterial
	ShapeOverlaps() *collision.OverlapKeeper
	BodyOverlaps() *collision.OverlapKeeper
}

const maxWarnings = 10

// Narrowphase owns the equation pools. Contacts handed out by GetContacts
// stay valid until they are given back with Release.
type Narrowphase struct {
	// EnableFrictionReduction replaces per-point friction in a convex
	// manifold by one averaged pair of friction rows.
	EnableFrictionReduction bool
	// Logger receives geometry warnings; nil uses the physics logger.
	Logger *log.Logger

	world     World
	contacts  []*equation.Contact
	frictions []*equation.Friction

	contactPool  []*equation.Contact
	frictionPool []*equation.Friction

	material *physics.ContactMaterial
	warnings int
}

func New(w World) *Narrowphase {
	return &Narrowphase{world: w}
}

// Release returns last step's equations to the pools.
func (n *Narrowphase) Release(contacts []*equation.Contact, frictions []*equation.Friction) {
	n.contactPool = append(n.contactPool, contacts...)
	n.frictionPool = append(n.frictionPool, frictions...)
}

// pair is one shape pair posed in world space, ordered so that si has the
// lower kind. reportI and reportJ are the shapes recorded on the contacts;
// they differ from si and sj when a box is handled through its polyhedron
// or a heightfield through one of its pillars.
type pair struct {
	si, sj           physics.Shape
	xi, xj           mgl64.Vec3
	qi, qj           mgl64.Quat
	bi, bj           *physics.Body
	reportI, reportJ physics.Shape
	justTest         bool
}

// testOnly reports whether a body pair only needs overlap tracking.
func testOnly(a, b physics.BodyType) bool {
	return (a == physics.Kinematic && b == physics.Static) ||
		(a == physics.Static && b == physics.Kinematic) ||
		(a == physics.Kinematic && b == physics.Kinematic)
}

// GetContacts appends the contacts and friction rows for every body pair
// (p1[k], p2[k]) to result and frictionResult.
func (n *Narrowphase) GetContacts(p1, p2 []*physics.Body, result []*equation.Contact, frictionResult []*equation.Friction) ([]*equation.Contact, []*equation.Friction) {
	n.contacts, n.frictions = result, frictionResult

	for k := range p1 {
		bi, bj := p1[k], p2[k]

		var bodyMaterial *physics.ContactMaterial
		if bi.Material != nil && bj.Material != nil {
			bodyMaterial = n.world.ContactMaterial(bi.Material, bj.Material)
		}
		justTest := testOnly(bi.Type, bj.Type)

		for i, si := range bi.Shapes {
			xi, qi := bi.ShapeWorldPose(i)
			for j, sj := range bj.Shapes {
				xj, qj := bj.ShapeWorldPose(j)
				a, b := si.Base(), sj.Base()
				if !a.Accepts(b) {
					continue
				}
				if xi.Sub(xj).Len() > a.BoundingSphereRadius+b.BoundingSphereRadius {
					continue
				}
				h, ok := handlers[kindsOf(si.Kind(), sj.Kind())]
				if !ok {
					continue
				}
				n.material = n.pickMaterial(si, sj, bodyMaterial)

				p := pair{si: si, sj: sj, xi: xi, xj: xj, qi: qi, qj: qj, bi: bi, bj: bj, reportI: si, reportJ: sj, justTest: justTest}
				if si.Kind() > sj.Kind() {
					p = pair{si: sj, sj: si, xi: xj, xj: xi, qi: qj, qj: qi, bi: bj, bj: bi, reportI: sj, reportJ: si, justTest: justTest}
				}
				if h(n, &p) && justTest {
					n.world.ShapeOverlaps().Set(a.ID, b.ID)
					n.world.BodyOverlaps().Set(bi.ID, bj.ID)
				}
			}
		}
	}

	contacts, frictions := n.contacts, n.frictions
	n.contacts, n.frictions = nil, nil
	return contacts, frictions
}

func (n *Narrowphase) pickMaterial(si, sj physics.Shape, bodyMaterial *physics.ContactMaterial) *physics.ContactMaterial {
	ma, mb := si.Base().Material, sj.Base().Material
	if ma != nil && mb != nil {
		if cm := n.world.ContactMaterial(ma, mb); cm != nil {
			return cm
		}
	}
	if bodyMaterial != nil {
		return bodyMaterial
	}
	return n.world.DefaultContactMaterial()
}

func materialOf(s physics.Shape, b *physics.Body) *physics.Material {
	if m := s.Base().Material; m != nil {
		return m
	}
	return b.Material
}

// newContact takes a row from the pool and configures it from the current
// contact material.
func (n *Narrowphase) newContact(bi, bj *physics.Body, si, sj physics.Shape) *equation.Contact {
	var c *equation.Contact
	if k := len(n.contactPool); k > 0 {
		c = n.contactPool[k-1]
		n.contactPool = n.contactPool[:k-1]
		c.Reset(bi, bj)
	} else {
		c = equation.NewContact(bi, bj, 0)
	}
	c.Si, c.Sj = si, sj
	c.Enabled = bi.CollisionResponse && bj.CollisionResponse &&
		si.Base().CollisionResponse && sj.Base().CollisionResponse

	cm := n.material
	c.Restitution = cm.Restitution
	c.SetSpookParams(cm.ContactEquationStiffness, cm.ContactEquationRelaxation, n.world.Dt())

	ma, mb := materialOf(si, bi), materialOf(sj, bj)
	if ma != nil && mb != nil && ma.Restitution >= 0 && mb.Restitution >= 0 {
		c.Restitution = ma.Restitution * mb.Restitution
	}
	return c
}

func (n *Narrowphase) newFriction(bi, bj *physics.Body, slip float64) *equation.Friction {
	if k := len(n.frictionPool); k > 0 {
		f := n.frictionPool[k-1]
		n.frictionPool = n.frictionPool[:k-1]
		f.Reset(bi, bj, slip)
		return f
	}
	return equation.NewFriction(bi, bj, slip)
}

// add records c together with its two friction rows.
func (n *Narrowphase) add(c *equation.Contact) {
	n.contacts = append(n.contacts, c)
	n.addFriction(c)
}

// addManifoldPoint records one point of a convex manifold; friction is
// deferred to frictionFromAverage when reduction is on.
func (n *Narrowphase) addManifoldPoint(c *equation.Contact) {
	n.contacts = append(n.contacts, c)
	if !n.EnableFrictionReduction {
		n.addFriction(c)
	}
}

// addFriction appends two tangent rows for c. It reports false when the
// effective friction coefficient is not positive.
func (n *Narrowphase) addFriction(c *equation.Contact) bool {
	bi, bj := c.Bi, c.Bj
	mu := n.material.Friction
	ma, mb := materialOf(c.Si, bi), materialOf(c.Sj, bj)
	if ma != nil && mb != nil && ma.Friction >= 0 && mb.Friction >= 0 {
		mu = ma.Friction * mb.Friction
	}
	if mu <= 0 {
		return false
	}

	mug := mu * n.world.Gravity().Len()
	reducedMass := bi.InvMass + bj.InvMass
	if reducedMass > 0 {
		reducedMass = 1 / reducedMass
	}
	slip := mug * reducedMass

	t1, t2 := dynamo.Tangents(c.Ni)
	for _, t := range [2]mgl64.Vec3{t1, t2} {
		f := n.newFriction(bi, bj, slip)
		f.Ri, f.Rj, f.T = c.Ri, c.Rj, t
		f.SetSpookParams(n.material.FrictionEquationStiffness, n.material.FrictionEquationRelaxation, n.world.Dt())
		f.Enabled = c.Enabled
		n.frictions = append(n.frictions, f)
	}
	return true
}

// frictionFromAverage builds one friction pair for the last count contacts,
// placed at their mean contact point with tangents of their mean normal.
func (n *Narrowphase) frictionFromAverage(count int) {
	last := n.contacts[len(n.contacts)-1]
	if !n.addFriction(last) || count == 1 {
		return
	}
	f1 := n.frictions[len(n.frictions)-2]
	f2 := n.frictions[len(n.frictions)-1]

	var normal, ra, rb mgl64.Vec3
	bodyA := last.Bi
	for i := 0; i < count; i++ {
		c := n.contacts[len(n.contacts)-1-i]
		if c.Bi == bodyA {
			normal = normal.Add(c.Ni)
			ra = ra.Add(c.Ri)
			rb = rb.Add(c.Rj)
		} else {
			normal = normal.Sub(c.Ni)
			ra = ra.Add(c.Rj)
			rb = rb.Add(c.Ri)
		}
	}

	inv := 1 / float64(count)
	ra, rb = ra.Mul(inv), rb.Mul(inv)
	f1.Ri, f2.Ri = ra, ra
	f1.Rj, f2.Rj = rb, rb
	f1.T, f2.T = dynamo.Tangents(normal)
}

func (n *Narrowphase) warnf(format string, args ...any) {
	if n.warnings >= maxWarnings {
		return
	}
	n.warnings++
	l := n.Logger
	if l == nil {
		l = physics.Logger()
	}
	l.Printf(format, args...)
}

// unit normalizes v, falling back to +x for the zero vector.
func unit(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() == 0 {
		return dynamo.UnitX
	}
	return dynamo.Unit(v)
}
