package gui

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/viz"
)

// World space is z-up; raylib is y-up. (x, y, z) maps to (x, z, -y).
func toRL(v mgl64.Vec3) rl.Vector3 {
	return rl.NewVector3(float32(v[0]), float32(v[2]), float32(-v[1]))
}

func fromRL(v rl.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X), float64(-v.Z), float64(v.Y)}
}

func bodyColor(b *physics.Body) rl.Color {
	switch {
	case b.Type != physics.Dynamic:
		return ColStatic
	case b.SleepState == physics.Sleeping:
		return ColAsleep
	case b.SleepState == physics.Sleepy:
		return ColSleepy
	}
	return ColAwake
}

// axisAligned reports whether q leaves the world axes in place, up to sign.
func axisAligned(q mgl64.Quat) bool {
	m := q.Mat4()
	for c := 0; c < 3; c++ {
		big := 0
		for r := 0; r < 3; r++ {
			if math.Abs(m.At(r, c)) > 1-1e-6 {
				big++
			}
		}
		if big != 1 {
			return false
		}
	}
	return true
}

// drawBody draws each shape with the closest raylib primitive and falls back
// to the wireframe outline.
func (a *App) drawBody(b *physics.Body) {
	col := bodyColor(b)
	for i, s := range b.Shapes {
		pos, q := b.ShapeWorldPose(i)
		switch sh := s.(type) {
		case *physics.Sphere:
			rl.DrawSphereWires(toRL(pos), float32(sh.Radius), 8, 12, col)
			continue
		case *physics.Box:
			if axisAligned(q) {
				he := q.Rotate(sh.HalfExtents)
				rl.DrawCubeWires(toRL(pos),
					2*float32(math.Abs(he[0])), 2*float32(math.Abs(he[2])), 2*float32(math.Abs(he[1])), col)
				continue
			}
		case *physics.Plane:
			if pos.Len() < 1e-9 && q.ApproxEqual(mgl64.QuatIdent()) {
				rl.DrawGrid(gridSlices, gridSpacing)
				continue
			}
		case *physics.Particle:
			rl.DrawSphere(toRL(pos), 0.05, col)
			continue
		}
		a.wire.Clear()
		a.wire.AddShape(s, pos, q, false)
		drawWireframe(a.wire, col)
	}
}

func drawWireframe(w *viz.Wireframe, col rl.Color) {
	for _, e := range w.Edges {
		rl.DrawLine3D(toRL(e.Start), toRL(e.End), col)
	}
}

// DrawTelemetry plots the kinetic energy history in the lower left corner.
func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}
	rectX, rectY := 30, 600
	width, height := 400, 60

	lo, hi := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + float32(i)/float32(len(a.Telemetry))*float32(width)
		py := float32(rectY+height) - float32((val-lo)/(hi-lo))*float32(height)
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColAccent)
	a.drawText("KE", rectX, rectY-18, 14, ColTextDim)
}
