package world

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/rigidsim/internal/broadphase"
	"github.com/san-kum/rigidsim/internal/event"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/solver"
)

func TestWorldSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "World Suite")
}

func newBox(half float64, mass float64, pos mgl64.Vec3) *physics.Body {
	s, err := physics.NewBox(mgl64.Vec3{half, half, half})
	Expect(err).NotTo(HaveOccurred())
	b := physics.MustBody(mass)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

func newBall(r, mass float64, pos mgl64.Vec3) *physics.Body {
	s, err := physics.NewSphere(r)
	Expect(err).NotTo(HaveOccurred())
	b := physics.MustBody(mass)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

func newGround() *physics.Body {
	b := physics.MustBody(0)
	b.AddShape(physics.NewPlane(), mgl64.Vec3{}, mgl64.QuatIdent())
	return b
}

var _ = Describe("World", func() {
	var w *World

	step := func() {
		Expect(w.Step(dt, 0, 0)).To(Succeed())
	}

	BeforeEach(func() {
		w = New()
		w.Gravity = mgl64.Vec3{0, 0, -10}
		w.AllowSleep = true
		Expect(w.AddBody(newGround())).To(Succeed())
	})

	Describe("a box resting on the ground plane", func() {
		var box *physics.Body

		BeforeEach(func() {
			box = newBox(0.5, 1, mgl64.Vec3{0, 0, 0.5})
			Expect(w.AddBody(box)).To(Succeed())
		})

		It("does not sink through the plane", func() {
			for i := 0; i < 60; i++ {
				step()
				Expect(box.Position[2]-0.5).To(BeNumerically(">=", -0.05))
			}
			Expect(w.Contacts).NotTo(BeEmpty())
		})

		It("eventually falls asleep and reports it", func() {
			var states []event.Type
			for _, t := range []event.Type{event.Sleepy, event.Sleep} {
				w.Events().OnBody(box, t, func(e event.Event) { states = append(states, e.Type) })
			}

			Eventually(func() physics.SleepState {
				step()
				return box.SleepState
			}).WithTimeout(10 * time.Second).WithPolling(time.Microsecond).Should(Equal(physics.Sleeping))

			Expect(states).NotTo(BeEmpty())
			Expect(states[0]).To(Equal(event.Sleepy))
			Expect(states[len(states)-1]).To(Equal(event.Sleep))
			Expect(box.Velocity.Len()).To(BeZero())
		})

		It("is woken by a fast body landing on it", func() {
			for box.SleepState != physics.Sleeping && w.Time < 5 {
				step()
			}
			Expect(box.SleepState).To(Equal(physics.Sleeping))

			woke := false
			w.Events().OnBody(box, event.WakeUp, func(event.Event) { woke = true })
			ball := newBall(0.25, 1, mgl64.Vec3{0, 0, 1.3})
			ball.Velocity = mgl64.Vec3{0, 0, -5}
			Expect(w.AddBody(ball)).To(Succeed())

			for i := 0; i < 10 && !woke; i++ {
				step()
			}
			Expect(woke).To(BeTrue())
		})

		It("behaves the same with every broadphase", func() {
			grid, err := broadphase.NewGrid(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10}, 4, 4, 4)
			Expect(err).NotTo(HaveOccurred())
			for _, bp := range []broadphase.Broadphase{broadphase.NewNaive(), grid, broadphase.NewSAP(nil)} {
				w.SetBroadphase(bp)
				step()
				Expect(w.Contacts).NotTo(BeEmpty())
			}
		})

		It("solves islands with the split solver", func() {
			w.Solver = solver.NewSplit(nil)
			for i := 0; i < 30; i++ {
				step()
			}
			Expect(w.SolverIterations()).To(Equal(1))
			Expect(box.Position[2]).To(BeNumerically("~", 0.5, 0.05))
		})
	})

	Describe("contact events", func() {
		var (
			ball      *physics.Body
			begins    []event.Event
			ends      []event.Event
			shapeEvts []event.Type
		)

		BeforeEach(func() {
			w.AllowSleep = false
			begins, ends, shapeEvts = nil, nil, nil
			ball = newBall(0.5, 1, mgl64.Vec3{0, 0, 0.6})
			Expect(w.AddBody(ball)).To(Succeed())
			w.Events().On(event.BeginContact, func(e event.Event) { begins = append(begins, e) })
			w.Events().On(event.EndContact, func(e event.Event) { ends = append(ends, e) })
			w.Events().On(event.BeginShapeContact, func(e event.Event) { shapeEvts = append(shapeEvts, e.Type) })
			w.Events().On(event.EndShapeContact, func(e event.Event) { shapeEvts = append(shapeEvts, e.Type) })
		})

		It("begins once when the ball lands and ends when it leaves", func() {
			for i := 0; i < 120; i++ {
				step()
			}
			Expect(begins).To(HaveLen(1))
			Expect(ends).To(BeEmpty())
			pair := []*physics.Body{begins[0].BodyA, begins[0].BodyB}
			Expect(pair).To(ContainElement(ball))

			ball.SetPose(mgl64.Vec3{0, 0, 5}, mgl64.QuatIdent())
			ball.Velocity = mgl64.Vec3{}
			step()
			Expect(ends).To(HaveLen(1))
			Expect(shapeEvts).To(Equal([]event.Type{event.BeginShapeContact, event.EndShapeContact}))
		})

		It("fires nothing while the ball is in the air", func() {
			ball.SetPose(mgl64.Vec3{0, 0, 50}, mgl64.QuatIdent())
			for i := 0; i < 10; i++ {
				step()
			}
			Expect(begins).To(BeEmpty())
			Expect(w.Contacts).To(BeEmpty())
		})

		It("runs preStep and postStep once per internal step", func() {
			var pre, post int
			w.Events().On(event.PreStep, func(event.Event) { pre++ })
			w.Events().On(event.PostStep, func(event.Event) { post++ })
			Expect(w.Step(dt, 3*dt+dt/10, 10)).To(Succeed())
			Expect(pre).To(Equal(3))
			Expect(post).To(Equal(3))
		})
	})
})
