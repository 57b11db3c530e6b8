package equation

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Contact is a unilateral non-penetration row. Ni points from Bi towards Bj;
// Ri and Rj are the contact points relative to each body centre in world
// orientation.
type Contact struct {
	Row
	Restitution float64
	Ri, Rj      mgl64.Vec3
	Ni          mgl64.Vec3

	// Si and Sj are the shapes that produced the contact.
	Si, Sj physics.Shape
}

// NewContact returns a row bounded to [0, maxForce]. Pass 0 for the default
// maximum.
func NewContact(bi, bj *physics.Body, maxForce float64) *Contact {
	if maxForce == 0 {
		maxForce = DefaultMaxForce
	}
	return &Contact{Row: newRow(bi, bj, 0, maxForce)}
}

// Reset rebinds a pooled row to a new body pair and clears its geometry.
func (c *Contact) Reset(bi, bj *physics.Body) {
	c.Bi, c.Bj = bi, bj
	c.Si, c.Sj = nil, nil
	c.Ri, c.Rj, c.Ni = mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}
	c.Restitution = 0
	c.Multiplier = 0
	c.Enabled = true
}

func (c *Contact) ComputeB(h float64) float64 {
	bi, bj := c.Bi, c.Bj
	n := c.Ni
	rixn := c.Ri.Cross(n)
	rjxn := c.Rj.Cross(n)

	c.GA = Jacobian{Spatial: n.Mul(-1), Rotational: rixn.Mul(-1)}
	c.GB = Jacobian{Spatial: n, Rotational: rjxn}

	penetration := bj.Position.Add(c.Rj).Sub(bi.Position).Sub(c.Ri)
	g := n.Dot(penetration)

	ePlusOne := c.Restitution + 1
	gw := ePlusOne*bj.Velocity.Dot(n) - ePlusOne*bi.Velocity.Dot(n) +
		bj.AngularVelocity.Dot(rjxn) - bi.AngularVelocity.Dot(rixn)

	return -g*c.SpookA - gw*c.SpookB - h*c.ComputeGiMf()
}

// ImpactVelocityAlongNormal is the relative normal speed at the contact
// point, positive when the bodies approach.
func (c *Contact) ImpactVelocityAlongNormal() float64 {
	xi := c.Bi.Position.Add(c.Ri)
	xj := c.Bj.Position.Add(c.Rj)
	rel := c.Bi.GetVelocityAtWorldPoint(xi).Sub(c.Bj.GetVelocityAtWorldPoint(xj))
	return c.Ni.Dot(rel)
}

// Penetration is the signed gap along Ni; negative means overlap.
func (c *Contact) Penetration() float64 {
	return c.Ni.Dot(c.Bj.Position.Add(c.Rj).Sub(c.Bi.Position).Sub(c.Ri))
}
