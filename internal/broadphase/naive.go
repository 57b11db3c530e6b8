package broadphase

import "github.com/san-kum/rigidsim/internal/physics"

// Naive tests every body pair.
type Naive struct {
	Base
}

func NewNaive() *Naive { return &Naive{} }

func (n *Naive) CollisionPairs(w World, p1, p2 []*physics.Body) ([]*physics.Body, []*physics.Body) {
	bodies := w.Bodies()
	for i, bi := range bodies {
		for _, bj := range bodies[:i] {
			if NeedBroadphaseCollision(bi, bj) {
				p1, p2 = n.IntersectionTest(bi, bj, p1, p2)
			}
		}
	}
	return p1, p2
}

func (n *Naive) AABBQuery(w World, box physics.AABB, result []*physics.Body) []*physics.Body {
	return linearQuery(w.Bodies(), box, result)
}
