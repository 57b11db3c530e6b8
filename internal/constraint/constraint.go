// Package constraint builds joints out of solver equations. A joint owns
// its equations for its whole life; the world calls Update once per step
// before handing them to the solver.
package constraint

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

// DefaultMaxForce bounds joint rows when no force is given.
const DefaultMaxForce = 1e6

var ids atomic.Int64

// Constraint is a set of equations between two bodies plus the function
// that refreshes their geometry from the current body poses.
type Constraint struct {
	ID        int
	BodyA     *physics.Body
	BodyB     *physics.Body
	Equations []equation.Equation

	// CollideConnected lets the two bodies keep colliding with each other.
	CollideConnected bool

	update func()
}

func newConstraint(a, b *physics.Body) *Constraint {
	c := &Constraint{
		ID:               int(ids.Add(1) - 1),
		BodyA:            a,
		BodyB:            b,
		CollideConnected: true,
	}
	if a != nil {
		a.WakeUp()
	}
	if b != nil {
		b.WakeUp()
	}
	return c
}

// Update recomputes the equation axes and anchors.
func (c *Constraint) Update() {
	if c.update != nil {
		c.update()
	}
}

func (c *Constraint) Enable() { c.setEnabled(true) }

func (c *Constraint) Disable() { c.setEnabled(false) }

func (c *Constraint) setEnabled(on bool) {
	for _, eq := range c.Equations {
		eq.Base().Enabled = on
	}
}

func (c *Constraint) add(eqs ...equation.Equation) {
	c.Equations = append(c.Equations, eqs...)
}

func maxForceOr(f float64) float64 {
	if f <= 0 {
		return DefaultMaxForce
	}
	return f
}

// pivots is the point-to-point core shared by most joints: three contact
// rows along the world axes pulling two body-local pivots together.
type pivots struct {
	a, b           *physics.Body
	pivotA, pivotB mgl64.Vec3
	rows           [3]*equation.Contact
}

func newPivots(c *Constraint, pivotA, pivotB mgl64.Vec3, maxForce float64) *pivots {
	p := &pivots{a: c.BodyA, b: c.BodyB, pivotA: pivotA, pivotB: pivotB}
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i := range p.rows {
		row := equation.NewContact(c.BodyA, c.BodyB, maxForce)
		row.MinForce = -maxForce
		row.Ni = axes[i]
		p.rows[i] = row
		c.add(row)
	}
	return p
}

func (p *pivots) update() {
	ri := p.a.Quaternion.Rotate(p.pivotA)
	rj := p.b.Quaternion.Rotate(p.pivotB)
	for _, row := range p.rows {
		row.Ri, row.Rj = ri, rj
	}
}

// PointToPoint joins pivotA on a to pivotB on b, both in body coordinates.
func PointToPoint(a *physics.Body, pivotA mgl64.Vec3, b *physics.Body, pivotB mgl64.Vec3, maxForce float64) *Constraint {
	c := newConstraint(a, b)
	p := newPivots(c, pivotA, pivotB, maxForceOr(maxForce))
	c.update = p.update
	return c
}

// Distance keeps the body centres at a fixed distance. A negative distance
// uses the current separation.
func Distance(a, b *physics.Body, distance, maxForce float64) *Constraint {
	if distance < 0 {
		distance = b.Position.Sub(a.Position).Len()
	}
	maxForce = maxForceOr(maxForce)

	c := newConstraint(a, b)
	row := equation.NewContact(a, b, maxForce)
	row.MinForce = -maxForce
	c.add(row)

	half := distance / 2
	c.update = func() {
		n := b.Position.Sub(a.Position)
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		row.Ni = n
		row.Ri = n.Mul(half)
		row.Rj = n.Mul(-half)
	}
	return c
}

// Lock welds b to a in their current relative pose.
func Lock(a, b *physics.Body, maxForce float64) *Constraint {
	maxForce = maxForceOr(maxForce)
	c := newConstraint(a, b)

	mid := a.Position.Add(b.Position).Mul(0.5)
	p := newPivots(c, a.PointToLocalFrame(mid), b.PointToLocalFrame(mid), maxForce)

	x, y, z := mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, 1}
	// Each row keeps one of a's axes perpendicular to the next of b's.
	pairs := [3][2]mgl64.Vec3{
		{a.VectorToLocalFrame(x), b.VectorToLocalFrame(y)},
		{a.VectorToLocalFrame(y), b.VectorToLocalFrame(z)},
		{a.VectorToLocalFrame(z), b.VectorToLocalFrame(x)},
	}
	var rows [3]*equation.Rotational
	for i := range rows {
		rows[i] = equation.NewRotational(a, b, maxForce)
		c.add(rows[i])
	}

	c.update = func() {
		p.update()
		for i, r := range rows {
			r.AxisA = a.VectorToWorldFrame(pairs[i][0])
			r.AxisB = b.VectorToWorldFrame(pairs[i][1])
		}
	}
	return c
}
