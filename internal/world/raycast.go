package world

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/raycast"
)

// RaycastClosest fills result with the hit nearest to from and reports
// whether anything was hit. result may be nil.
func (w *World) RaycastClosest(from, to mgl64.Vec3, opts raycast.Options, result *raycast.Result) bool {
	return w.raycast(from, to, raycast.Closest, opts, result)
}

// RaycastAny stops at the first hit found.
func (w *World) RaycastAny(from, to mgl64.Vec3, opts raycast.Options, result *raycast.Result) bool {
	return w.raycast(from, to, raycast.Any, opts, result)
}

// RaycastAll hands every hit to callback, which may call Abort on the
// result to stop early.
func (w *World) RaycastAll(from, to mgl64.Vec3, opts raycast.Options, callback func(*raycast.Result)) bool {
	opts.Callback = callback
	return w.raycast(from, to, raycast.All, opts, nil)
}

func (w *World) raycast(from, to mgl64.Vec3, mode raycast.Mode, opts raycast.Options, result *raycast.Result) bool {
	r := raycast.New(from, to, mode, opts)
	if result != nil {
		result.Reset()
		r.Result = result
	}
	w.queryScratch = w.Broadphase.AABBQuery(w, r.AABB(), w.queryScratch[:0])
	hit := r.IntersectBodies(w.queryScratch)
	clear(w.queryScratch)
	return hit
}

// BodiesInAABB returns the bodies whose bounds overlap box.
func (w *World) BodiesInAABB(box physics.AABB) []*physics.Body {
	return w.Broadphase.AABBQuery(w, box, nil)
}
