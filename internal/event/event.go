// Package event delivers world and body notifications to subscribers.
package event

import (
	"github.com/san-kum/rigidsim/internal/equation"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Type identifies a notification.
type Type int

const (
	// AddBody fires after a body joins the world. Payload: Body.
	AddBody Type = iota
	// RemoveBody fires after a body leaves the world. Payload: Body.
	RemoveBody
	// PreStep fires before forces are integrated.
	PreStep
	// PostStep fires at the end of a step.
	PostStep
	// Collide fires on each body of every touching pair, every step the
	// pair touches. Contact is the pair's deepest point. Payload: Body (the
	// receiver), BodyA/BodyB, Contact.
	Collide
	// Impact fires once per pair on the step it starts touching. Contact is
	// the point with the highest closing speed. Payload: BodyA, BodyB,
	// Contact.
	Impact
	// BeginContact fires when two bodies start touching. Payload: BodyA, BodyB.
	BeginContact
	// EndContact fires when two bodies stop touching. Payload: BodyA, BodyB.
	EndContact
	// BeginShapeContact and EndShapeContact are the per-shape variants.
	// Payload: BodyA, BodyB, ShapeA, ShapeB.
	BeginShapeContact
	EndShapeContact
	// Sleepy, Sleep and WakeUp track the body sleep machine. Payload: Body.
	Sleepy
	Sleep
	WakeUp
)

var typeNames = [...]string{
	AddBody:           "addBody",
	RemoveBody:        "removeBody",
	PreStep:           "preStep",
	PostStep:          "postStep",
	Collide:           "collide",
	Impact:            "impact",
	BeginContact:      "beginContact",
	EndContact:        "endContact",
	BeginShapeContact: "beginShapeContact",
	EndShapeContact:   "endShapeContact",
	Sleepy:            "sleepy",
	Sleep:             "sleep",
	WakeUp:            "wakeup",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Event is one notification. Fields not named by the Type are nil.
type Event struct {
	Type    Type
	Body    *physics.Body
	BodyA   *physics.Body
	BodyB   *physics.Body
	ShapeA  physics.Shape
	ShapeB  physics.Shape
	Contact *equation.Contact
}

type Handler func(Event)
