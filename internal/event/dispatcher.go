package event

import (
	"slices"

	"github.com/san-kum/rigidsim/internal/physics"
)

type entry struct {
	id int
	h  Handler
}

// Dispatcher fans events out to world-wide and per-body handlers. It is not
// safe for concurrent use; handlers run synchronously inside Emit.
type Dispatcher struct {
	next   int
	global map[Type][]entry
	bodies map[int]map[Type][]entry
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		global: make(map[Type][]entry),
		bodies: make(map[int]map[Type][]entry),
	}
}

// On subscribes h to every event of type t. The returned func unsubscribes.
func (d *Dispatcher) On(t Type, h Handler) (off func()) {
	d.next++
	id := d.next
	d.global[t] = append(d.global[t], entry{id, h})
	return func() { d.global[t] = remove(d.global[t], id) }
}

// OnBody subscribes h to events of type t whose Body is b.
func (d *Dispatcher) OnBody(b *physics.Body, t Type, h Handler) (off func()) {
	d.next++
	id := d.next
	m := d.bodies[b.ID]
	if m == nil {
		m = make(map[Type][]entry)
		d.bodies[b.ID] = m
	}
	m[t] = append(m[t], entry{id, h})
	return func() { m[t] = remove(m[t], id) }
}

// Has reports whether any handler listens for t. Emitters use it to skip
// building payloads nobody reads.
func (d *Dispatcher) Has(t Type) bool {
	if len(d.global[t]) > 0 {
		return true
	}
	for _, m := range d.bodies {
		if len(m[t]) > 0 {
			return true
		}
	}
	return false
}

// Emit delivers e to the body handlers of e.Body, then to the global ones.
func (d *Dispatcher) Emit(e Event) {
	if e.Body != nil {
		if m := d.bodies[e.Body.ID]; m != nil {
			for _, en := range slices.Clone(m[e.Type]) {
				en.h(e)
			}
		}
	}
	for _, en := range slices.Clone(d.global[e.Type]) {
		en.h(e)
	}
}

// ForgetBody drops every handler registered for b.
func (d *Dispatcher) ForgetBody(b *physics.Body) {
	delete(d.bodies, b.ID)
}

func remove(es []entry, id int) []entry {
	return slices.DeleteFunc(es, func(e entry) bool { return e.id == id })
}
