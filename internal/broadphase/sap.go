package broadphase

import (
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/physics"
)

// SAP keeps bodies sorted by AABB lower bound along one axis and sweeps the
// list, stopping a body's scan at the first neighbour whose bounding sphere
// starts past it.
type SAP struct {
	Base
	// Axis is 0, 1 or 2 for x, y or z.
	Axis int

	list []*physics.Body
	offs []func()
}

// NewSAP tracks w's bodies when w is non-nil.
func NewSAP(w World) *SAP {
	s := &SAP{}
	if w != nil {
		s.SetWorld(w)
	}
	return s
}

// SetWorld resets the axis list to w's bodies. When w is an EventSource the
// list follows later additions and removals.
func (s *SAP) SetWorld(w World) {
	for _, off := range s.offs {
		off()
	}
	s.offs = nil
	s.list = append(s.list[:0], w.Bodies()...)
	if src, ok := w.(EventSource); ok {
		ev := src.Events()
		s.offs = append(s.offs,
			ev.On(event.AddBody, func(e event.Event) {
				s.list = append(s.list, e.Body)
				s.dirty = true
			}),
			ev.On(event.RemoveBody, func(e event.Event) {
				for i, b := range s.list {
					if b == e.Body {
						s.list = append(s.list[:i], s.list[i+1:]...)
						break
					}
				}
			}),
		)
	}
	s.dirty = true
}

// Len is the number of tracked bodies.
func (s *SAP) Len() int { return len(s.list) }

func (s *SAP) sortList() {
	for _, b := range s.list {
		if b.AABBNeedsUpdate {
			b.ComputeAABB()
		}
	}
	insertionSort(s.list, s.Axis)
}

func insertionSort(a []*physics.Body, axis int) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for ; j >= 0 && a[j].AABB.Min[axis] > v.AABB.Min[axis]; j-- {
			a[j+1] = a[j]
		}
		a[j+1] = v
	}
}

func checkBounds(bi, bj *physics.Body, axis int) bool {
	return bj.Position[axis]-bj.BoundingRadius < bi.Position[axis]+bi.BoundingRadius
}

func (s *SAP) CollisionPairs(_ World, p1, p2 []*physics.Body) ([]*physics.Body, []*physics.Body) {
	if s.dirty {
		s.sortList()
		s.dirty = false
	}
	for i, bi := range s.list {
		for _, bj := range s.list[i+1:] {
			if !NeedBroadphaseCollision(bi, bj) {
				continue
			}
			if !checkBounds(bi, bj, s.Axis) {
				break
			}
			p1, p2 = s.IntersectionTest(bi, bj, p1, p2)
		}
	}
	return p1, p2
}

// AutoDetectAxis picks the axis along which body centres vary most.
func (s *SAP) AutoDetectAxis() {
	if len(s.list) == 0 {
		return
	}
	var sum, sum2 [3]float64
	for _, b := range s.list {
		for k := 0; k < 3; k++ {
			c := b.Position[k]
			sum[k] += c
			sum2[k] += c * c
		}
	}
	inv := 1 / float64(len(s.list))
	var v [3]float64
	for k := range v {
		v[k] = sum2[k] - sum[k]*sum[k]*inv
	}
	switch {
	case v[0] > v[1] && v[0] > v[2]:
		s.Axis = 0
	case v[0] > v[1]:
		s.Axis = 2
	case v[1] > v[2]:
		s.Axis = 1
	default:
		s.Axis = 2
	}
	s.dirty = true
}

func (s *SAP) AABBQuery(_ World, box physics.AABB, result []*physics.Body) []*physics.Body {
	if s.dirty {
		s.sortList()
		s.dirty = false
	}
	return linearQuery(s.list, box, result)
}
