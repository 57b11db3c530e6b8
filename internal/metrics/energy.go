package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/world"
)

// Kinetic is the translational plus rotational kinetic energy of b. Static
// and kinematic bodies carry none.
func Kinetic(b *physics.Body) float64 {
	if b.Type != physics.Dynamic {
		return 0
	}
	lin := 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	wl := b.Quaternion.Conjugate().Rotate(b.AngularVelocity)
	rot := 0.5 * (b.Inertia[0]*wl[0]*wl[0] + b.Inertia[1]*wl[1]*wl[1] + b.Inertia[2]*wl[2]*wl[2])
	return lin + rot
}

// Potential is the gravitational energy of b relative to the origin.
func Potential(b *physics.Body, gravity mgl64.Vec3) float64 {
	if b.Type != physics.Dynamic {
		return 0
	}
	return -b.Mass * gravity.Dot(b.Position)
}

func TotalKinetic(w *world.World) float64 {
	var e float64
	for _, b := range w.Bodies() {
		e += Kinetic(b)
	}
	return e
}

func TotalEnergy(w *world.World) float64 {
	var e float64
	for _, b := range w.Bodies() {
		e += Kinetic(b) + Potential(b, w.Gravity)
	}
	return e
}

// KineticEnergy reports the world's kinetic energy at the last observed step.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(w *world.World) {
	k.value = TotalKinetic(w)
}

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() { k.value = 0 }

// EnergyDrift tracks the largest change in total mechanical energy relative
// to the first observation. The change is relative when the initial energy
// is non-zero and absolute otherwise.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(w *world.World) {
	energy := TotalEnergy(w)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	drift := math.Abs(energy - e.initialEnergy)
	if e.initialEnergy != 0 {
		drift /= math.Abs(e.initialEnergy)
	}
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
