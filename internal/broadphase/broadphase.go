// Package broadphase prunes body pairs that cannot touch before the
// narrowphase runs.
package broadphase

import (
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/physics"
)

// World is the body source a broadphase scans.
type World interface {
	Bodies() []*physics.Body
}

// EventSource is a World that announces body additions and removals.
// Persistent broadphases subscribe to it in SetWorld.
type EventSource interface {
	World
	Events() *event.Dispatcher
}

// Broadphase finds candidate pairs. p1[i] and p2[i] form one pair; the
// slices passed in are reused and returned grown.
type Broadphase interface {
	CollisionPairs(w World, p1, p2 []*physics.Body) ([]*physics.Body, []*physics.Body)
	AABBQuery(w World, box physics.AABB, result []*physics.Body) []*physics.Body
	SetWorld(w World)
	// MarkDirty forces cached orderings to be rebuilt on the next query.
	MarkDirty()
}

// Base holds the pair tests shared by every strategy.
type Base struct {
	// UseBoundingBoxes switches the pair test from bounding spheres to AABBs.
	UseBoundingBoxes bool

	dirty bool
	seen  map[[2]int]int
}

func (b *Base) MarkDirty() { b.dirty = true }

func (b *Base) SetWorld(World) {}

// NeedBroadphaseCollision applies collision filters and skips pairs where
// neither body can move.
func NeedBroadphaseCollision(a, b *physics.Body) bool {
	if a.CollisionFilterGroup&b.CollisionFilterMask == 0 || b.CollisionFilterGroup&a.CollisionFilterMask == 0 {
		return false
	}
	inertA := a.Type == physics.Static || a.SleepState == physics.Sleeping
	inertB := b.Type == physics.Static || b.SleepState == physics.Sleeping
	return !(inertA && inertB)
}

// IntersectionTest appends (a, b) when their bounds intersect.
func (b *Base) IntersectionTest(a, c *physics.Body, p1, p2 []*physics.Body) ([]*physics.Body, []*physics.Body) {
	if b.UseBoundingBoxes {
		if a.AABBNeedsUpdate {
			a.ComputeAABB()
		}
		if c.AABBNeedsUpdate {
			c.ComputeAABB()
		}
		if a.AABB.Overlaps(c.AABB) {
			return append(p1, a), append(p2, c)
		}
		return p1, p2
	}
	r := c.Position.Sub(a.Position)
	sum := a.BoundingRadius + c.BoundingRadius
	if r.LenSqr() < sum*sum {
		return append(p1, a), append(p2, c)
	}
	return p1, p2
}

// MakePairsUnique drops repeated pairs in place, keeping the first
// occurrence of each unordered id pair.
func (b *Base) MakePairsUnique(p1, p2 []*physics.Body) ([]*physics.Body, []*physics.Body) {
	if b.seen == nil {
		b.seen = make(map[[2]int]int)
	}
	clear(b.seen)
	n := 0
	for i := range p1 {
		id1, id2 := p1[i].ID, p2[i].ID
		if id2 < id1 {
			id1, id2 = id2, id1
		}
		k := [2]int{id1, id2}
		if _, dup := b.seen[k]; dup {
			continue
		}
		b.seen[k] = i
		p1[n], p2[n] = p1[i], p2[i]
		n++
	}
	clear(p1[n:])
	clear(p2[n:])
	return p1[:n], p2[:n]
}

// linearQuery is the brute-force AABB query used by strategies without a
// spatial index.
func linearQuery(bodies []*physics.Body, box physics.AABB, result []*physics.Body) []*physics.Body {
	for _, b := range bodies {
		if b.AABBNeedsUpdate {
			b.ComputeAABB()
		}
		if b.AABB.Overlaps(box) {
			result = append(result, b)
		}
	}
	return result
}
