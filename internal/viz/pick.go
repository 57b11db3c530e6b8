package viz

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/raycast"
	"github.com/san-kum/rigidsim/internal/world"
)

// Poke casts a ray from -> to and pushes the closest dynamic body hit with an
// impulse of the given strength along the ray. It returns the body, or nil.
func Poke(w *world.World, from, to mgl64.Vec3, strength float64) *physics.Body {
	var res raycast.Result
	if !w.RaycastClosest(from, to, raycast.DefaultOptions(), &res) {
		return nil
	}
	b := res.Body
	if b == nil || b.Type != physics.Dynamic {
		return nil
	}
	dir := to.Sub(from)
	if dir.Len() == 0 {
		return nil
	}
	b.WakeUp()
	b.ApplyImpulse(dir.Normalize().Mul(strength), res.HitPointWorld.Sub(b.Position))
	return b
}

// PokeCenter pokes along the camera's line of sight.
func PokeCenter(w *world.World, cam *Camera, strength float64) *physics.Body {
	eye := cam.Eye()
	far := eye.Add(cam.Target.Sub(eye).Mul(4))
	return Poke(w, eye, far, strength)
}
