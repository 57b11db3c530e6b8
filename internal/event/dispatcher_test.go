package event

import (
	"testing"

	"github.com/san-kum/rigidsim/internal/physics"
)

func TestDispatcher_GlobalAndBody(t *testing.T) {
	d := NewDispatcher()
	a := physics.MustBody(1)
	b := physics.MustBody(1)

	var global, onA int
	d.On(Collide, func(Event) { global++ })
	d.OnBody(a, Collide, func(e Event) {
		if e.Body != a {
			t.Errorf("body handler got %v", e.Body)
		}
		onA++
	})

	d.Emit(Event{Type: Collide, Body: a})
	d.Emit(Event{Type: Collide, Body: b})
	d.Emit(Event{Type: Sleep, Body: a})

	if global != 2 || onA != 1 {
		t.Errorf("global=%d onA=%d, want 2 and 1", global, onA)
	}
}

func TestDispatcher_Off(t *testing.T) {
	d := NewDispatcher()
	n := 0
	off := d.On(PostStep, func(Event) { n++ })
	d.Emit(Event{Type: PostStep})
	off()
	d.Emit(Event{Type: PostStep})
	if n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	if d.Has(PostStep) {
		t.Error("Has reports a removed handler")
	}
}

func TestDispatcher_UnsubscribeDuringEmit(t *testing.T) {
	d := NewDispatcher()
	calls := 0
	var off func()
	off = d.On(PreStep, func(Event) {
		calls++
		off()
	})
	d.On(PreStep, func(Event) { calls++ })
	d.Emit(Event{Type: PreStep})
	d.Emit(Event{Type: PreStep})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDispatcher_ForgetBody(t *testing.T) {
	d := NewDispatcher()
	a := physics.MustBody(1)
	d.OnBody(a, WakeUp, func(Event) { t.Error("forgotten handler ran") })
	if !d.Has(WakeUp) {
		t.Fatal("Has = false for a body handler")
	}
	d.ForgetBody(a)
	d.Emit(Event{Type: WakeUp, Body: a})
}

func TestType_String(t *testing.T) {
	if BeginShapeContact.String() != "beginShapeContact" || Type(99).String() != "unknown" {
		t.Errorf("names: %q %q", BeginShapeContact, Type(99))
	}
}
