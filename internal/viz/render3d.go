package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/world"
)

// Camera orbits a target point with +z up.
type Camera struct {
	Target     mgl64.Vec3
	Yaw, Pitch float64
	Distance   float64
	FOV, Near  float64
}

func NewCamera() *Camera {
	return &Camera{Yaw: -math.Pi / 3, Pitch: 0.35, Distance: 16, FOV: math.Pi / 4, Near: 0.1}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -1.5, 1.5)
}

func (c *Camera) ZoomIn()  { c.Distance = math.Max(1, c.Distance/1.2) }
func (c *Camera) ZoomOut() { c.Distance = math.Min(500, c.Distance*1.2) }

func (c *Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	return c.Target.Add(mgl64.Vec3{
		cp * math.Cos(c.Yaw),
		cp * math.Sin(c.Yaw),
		math.Sin(c.Pitch),
	}.Mul(c.Distance))
}

func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 0, 1})
}

// Project maps a world point onto a sw x sh dot raster. ok is false for
// points behind the near plane.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	return c.project(c.View(), p, sw, sh)
}

func (c *Camera) project(view mgl64.Mat4, p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	v := view.Mul4x1(p.Vec4(1))
	depth := -v[2]
	if depth < c.Near {
		return 0, 0, depth, false
	}
	f := 1 / math.Tan(c.FOV/2)
	half := float64(min(sw, sh)) / 2
	sx := float64(sw)/2 + v[0]*f/depth*half
	sy := float64(sh)/2 - v[1]*f/depth*half
	return int(math.Round(sx)), int(math.Round(sy)), depth, true
}

// Fit centres the camera on the dynamic bodies of w.
func (c *Camera) Fit(w *world.World) {
	var lo, hi mgl64.Vec3
	n := 0
	for _, b := range w.Bodies() {
		if b.Type == physics.Static {
			continue
		}
		if n == 0 {
			lo, hi = b.Position, b.Position
		}
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], b.Position[i])
			hi[i] = math.Max(hi[i], b.Position[i])
		}
		n++
	}
	if n == 0 {
		return
	}
	c.Target = lo.Add(hi).Mul(0.5)
	c.Distance = math.Max(8, 2.5*hi.Sub(lo).Len())
}

type Edge struct {
	Start, End mgl64.Vec3
	Sleeping   bool
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe { return &Wireframe{Edges: make([]Edge, 0, 256)} }

func (w *Wireframe) AddEdge(s, e mgl64.Vec3, sleeping bool) {
	w.Edges = append(w.Edges, Edge{s, e, sleeping})
}

func (w *Wireframe) Clear() { w.Edges = w.Edges[:0] }

// Segment counts for curved outlines.
const (
	circleSegments = 16
	planeHalfSize  = 10.0
	planeStep      = 2.0
)

// AddWorld appends the outline of every shape in w.
func (w *Wireframe) AddWorld(wd *world.World) {
	for _, b := range wd.Bodies() {
		w.AddBody(b)
	}
}

// AddBody appends b's shapes in world space.
func (w *Wireframe) AddBody(b *physics.Body) {
	w.AddBodyPose(b, b.Position, b.Quaternion, b.SleepState == physics.Sleeping)
}

// AddBodyPose appends b's shapes as if b were at the given pose. Replay
// uses it to draw recorded states.
func (w *Wireframe) AddBodyPose(b *physics.Body, bp mgl64.Vec3, bq mgl64.Quat, asleep bool) {
	for i, s := range b.Shapes {
		w.AddShape(s, bp.Add(bq.Rotate(b.ShapeOffsets[i])), bq.Mul(b.ShapeOrientations[i]), asleep)
	}
}

// AddShape appends the outline of s placed at pos with orientation q.
func (w *Wireframe) AddShape(s physics.Shape, pos mgl64.Vec3, q mgl64.Quat, asleep bool) {
	tf := func(v mgl64.Vec3) mgl64.Vec3 { return pos.Add(q.Rotate(v)) }
	add := func(a, c mgl64.Vec3) { w.AddEdge(tf(a), tf(c), asleep) }

	switch sh := s.(type) {
	case *physics.Sphere:
		circle(add, sh.Radius, 0, 1)
		circle(add, sh.Radius, 0, 2)
		circle(add, sh.Radius, 1, 2)
	case *physics.Box:
		boxEdges(add, sh.HalfExtents)
	case *physics.ConvexPolyhedron:
		faceEdges(add, sh.Vertices, sh.Faces)
	case *physics.Plane:
		for t := -planeHalfSize; t <= planeHalfSize; t += planeStep {
			add(mgl64.Vec3{t, -planeHalfSize, 0}, mgl64.Vec3{t, planeHalfSize, 0})
			add(mgl64.Vec3{-planeHalfSize, t, 0}, mgl64.Vec3{planeHalfSize, t, 0})
		}
	case *physics.Heightfield:
		heightfieldEdges(add, sh)
	case *physics.Trimesh:
		trimeshEdges(add, sh)
	case *physics.Particle:
		add(mgl64.Vec3{}, mgl64.Vec3{})
	}
}

func circle(add func(a, b mgl64.Vec3), r float64, u, v int) {
	var prev mgl64.Vec3
	prev[u] = r
	for i := 1; i <= circleSegments; i++ {
		a := 2 * math.Pi * float64(i) / circleSegments
		var p mgl64.Vec3
		p[u], p[v] = r*math.Cos(a), r*math.Sin(a)
		add(prev, p)
		prev = p
	}
}

func boxEdges(add func(a, b mgl64.Vec3), he mgl64.Vec3) {
	var corners [8]mgl64.Vec3
	for i := range corners {
		for k := 0; k < 3; k++ {
			corners[i][k] = he[k]
			if i&(1<<k) == 0 {
				corners[i][k] = -he[k]
			}
		}
	}
	// Corners differing in exactly one bit share an edge.
	for i := 0; i < 8; i++ {
		for k := 0; k < 3; k++ {
			if j := i | 1<<k; j != i {
				add(corners[i], corners[j])
			}
		}
	}
}

func faceEdges(add func(a, b mgl64.Vec3), verts []mgl64.Vec3, faces [][]int) {
	seen := make(map[[2]int]bool)
	for _, f := range faces {
		for i := range f {
			a, b := f[i], f[(i+1)%len(f)]
			key := [2]int{min(a, b), max(a, b)}
			if seen[key] {
				continue
			}
			seen[key] = true
			add(verts[a], verts[b])
		}
	}
}

func heightfieldEdges(add func(a, b mgl64.Vec3), hf *physics.Heightfield) {
	es := hf.ElementSize
	pt := func(i, j int) mgl64.Vec3 {
		return mgl64.Vec3{float64(i) * es, float64(j) * es, hf.Data[i][j]}
	}
	for i := range hf.Data {
		for j := range hf.Data[i] {
			if i+1 < len(hf.Data) {
				add(pt(i, j), pt(i+1, j))
			}
			if j+1 < len(hf.Data[i]) {
				add(pt(i, j), pt(i, j+1))
			}
		}
	}
}

func trimeshEdges(add func(a, b mgl64.Vec3), tm *physics.Trimesh) {
	if len(tm.Edges) > 0 {
		for _, e := range tm.Edges {
			add(tm.Vertices[e[0]], tm.Vertices[e[1]])
		}
		return
	}
	faces := make([][]int, 0, len(tm.Indices)/3)
	for i := 0; i+2 < len(tm.Indices); i += 3 {
		faces = append(faces, tm.Indices[i:i+3])
	}
	faceEdges(add, tm.Vertices, faces)
}

// Render3D projects the wireframe onto the canvas. Sleeping edges are drawn
// dotted.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	view := cam.View()
	cw, ch := c.DotWidth(), c.DotHeight()
	for _, e := range w.Edges {
		x1, y1, _, v1 := cam.project(view, e.Start, cw, ch)
		x2, y2, _, v2 := cam.project(view, e.End, cw, ch)
		if !v1 || !v2 {
			continue
		}
		if e.Sleeping {
			c.Set(x1, y1)
			c.Set((x1+x2)/2, (y1+y2)/2)
			c.Set(x2, y2)
			continue
		}
		c.DrawLine(x1, y1, x2, y2)
	}
}
