// Package raycast intersects line segments with bodies and their shapes.
package raycast

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Mode selects which hits are reported.
type Mode int

const (
	// Closest keeps the hit nearest to From.
	Closest Mode = 1
	// Any stops at the first hit found.
	Any Mode = 2
	// All reports every hit to the callback.
	All Mode = 4
)

func (m Mode) String() string {
	switch m {
	case Closest:
		return "closest"
	case Any:
		return "any"
	case All:
		return "all"
	}
	return "unknown"
}

// Result describes one hit.
type Result struct {
	RayFromWorld   mgl64.Vec3
	RayToWorld     mgl64.Vec3
	HitNormalWorld mgl64.Vec3
	HitPointWorld  mgl64.Vec3
	HasHit         bool
	Shape          physics.Shape
	Body           *physics.Body
	// HitFaceIndex is the convex face or trimesh triangle hit, or -1.
	HitFaceIndex int
	Distance     float64

	shouldStop bool
}

func (r *Result) Reset() {
	*r = Result{HitFaceIndex: -1, Distance: -1}
}

// Abort stops the current query after the callback returns.
func (r *Result) Abort() { r.shouldStop = true }

// Options tune a world query.
type Options struct {
	SkipBackfaces bool
	// Bodies pass when group&bodyMask != 0 and bodyGroup&mask != 0. Zero
	// means every bit.
	CollisionFilterGroup int
	CollisionFilterMask  int
	// CheckCollisionResponse skips bodies and shapes that do not respond
	// to collisions.
	CheckCollisionResponse bool
	// Callback receives each hit in All mode.
	Callback func(*Result)
}

// DefaultOptions hit everything that responds to collisions.
func DefaultOptions() Options {
	return Options{CollisionFilterGroup: -1, CollisionFilterMask: -1, CheckCollisionResponse: true}
}

// Ray is a segment query from From to To.
type Ray struct {
	From, To mgl64.Vec3
	Mode     Mode
	// Precision is the smallest |normal·direction| treated as non-parallel.
	Precision float64
	Options

	Result *Result
	HasHit bool

	direction mgl64.Vec3
}

func New(from, to mgl64.Vec3, mode Mode, opts Options) *Ray {
	if opts.CollisionFilterGroup == 0 {
		opts.CollisionFilterGroup = -1
	}
	if opts.CollisionFilterMask == 0 {
		opts.CollisionFilterMask = -1
	}
	r := &Ray{From: from, To: to, Mode: mode, Precision: 1e-4, Options: opts, Result: &Result{}}
	r.Result.Reset()
	r.updateDirection()
	return r
}

func (r *Ray) updateDirection() {
	r.direction = dynamo.Unit(r.To.Sub(r.From))
}

// AABB is the box spanned by the segment.
func (r *Ray) AABB() physics.AABB {
	return physics.AABBFromPoints([]mgl64.Vec3{r.From, r.To})
}

// IntersectBodies tests the bodies in order and reports whether anything
// was hit.
func (r *Ray) IntersectBodies(bodies []*physics.Body) bool {
	r.updateDirection()
	for _, b := range bodies {
		if r.Result.shouldStop {
			break
		}
		r.IntersectBody(b)
	}
	return r.HasHit
}

func (r *Ray) IntersectBody(b *physics.Body) {
	if r.CheckCollisionResponse && !b.CollisionResponse {
		return
	}
	if r.CollisionFilterGroup&b.CollisionFilterMask == 0 || b.CollisionFilterGroup&r.CollisionFilterMask == 0 {
		return
	}
	for i, s := range b.Shapes {
		if r.CheckCollisionResponse && !s.Base().CollisionResponse {
			continue
		}
		pos, q := b.ShapeWorldPose(i)
		r.intersectShape(s, q, pos, b)
		if r.Result.shouldStop {
			return
		}
	}
}

// distanceToLine is the distance from p to the infinite line through the ray.
func (r *Ray) distanceToLine(p mgl64.Vec3) float64 {
	v := p.Sub(r.From)
	closest := r.From.Add(r.direction.Mul(v.Dot(r.direction)))
	return p.Sub(closest).Len()
}

func (r *Ray) intersectShape(s physics.Shape, q mgl64.Quat, pos mgl64.Vec3, b *physics.Body) {
	if r.distanceToLine(pos) > s.Base().BoundingSphereRadius {
		return
	}
	switch sh := s.(type) {
	case *physics.Sphere:
		r.intersectSphere(sh, pos, b)
	case *physics.Plane:
		r.intersectPlane(sh, q, pos, b)
	case *physics.Box:
		r.intersectConvex(sh.Convex, q, pos, b, sh, nil)
	case *physics.ConvexPolyhedron:
		r.intersectConvex(sh, q, pos, b, sh, nil)
	case *physics.Heightfield:
		r.intersectHeightfield(sh, q, pos, b)
	case *physics.Trimesh:
		r.intersectTrimesh(sh, q, pos, b)
	}
}

func (r *Ray) intersectPlane(p *physics.Plane, q mgl64.Quat, pos mgl64.Vec3, b *physics.Body) {
	normal := q.Rotate(dynamo.UnitZ)
	fromSide := r.From.Sub(pos).Dot(normal)
	toSide := r.To.Sub(pos).Dot(normal)
	if fromSide*toSide > 0 {
		return
	}
	nDotDir := normal.Dot(r.direction)
	if math.Abs(nDotDir) < r.Precision {
		return
	}
	t := -fromSide / nDotDir
	r.report(normal, r.From.Add(r.direction.Mul(t)), p, b, -1)
}

func (r *Ray) intersectSphere(s *physics.Sphere, pos mgl64.Vec3, body *physics.Body) {
	d := r.To.Sub(r.From)
	f := r.From.Sub(pos)
	a := d.Dot(d)
	b := 2 * d.Dot(f)
	c := f.Dot(f) - s.Radius*s.Radius
	delta := b*b - 4*a*c
	if delta < 0 || a == 0 {
		return
	}

	hit := func(t float64) {
		p := r.From.Add(d.Mul(t))
		r.report(dynamo.Unit(p.Sub(pos)), p, s, body, -1)
	}
	if delta == 0 {
		if t := -b / (2 * a); t >= 0 && t <= 1 {
			hit(t)
		}
		return
	}
	root := math.Sqrt(delta)
	if t := (-b - root) / (2 * a); t >= 0 && t <= 1 {
		hit(t)
	}
	if r.Result.shouldStop {
		return
	}
	if t := (-b + root) / (2 * a); t >= 0 && t <= 1 {
		hit(t)
	}
}

// intersectConvex tests the faces in faceList (all faces when nil) and
// reports hits as shape reported.
func (r *Ray) intersectConvex(hull *physics.ConvexPolyhedron, q mgl64.Quat, pos mgl64.Vec3, b *physics.Body, reported physics.Shape, faceList []int) {
	segment := r.To.Sub(r.From).Len()
	n := len(hull.Faces)
	if faceList != nil {
		n = len(faceList)
	}

	for k := 0; k < n && !r.Result.shouldStop; k++ {
		fi := k
		if faceList != nil {
			fi = faceList[k]
		}
		face := hull.Faces[fi]
		normal := q.Rotate(hull.FaceNormals[fi])
		dot := r.direction.Dot(normal)
		if math.Abs(dot) < r.Precision {
			continue
		}

		a := q.Rotate(hull.Vertices[face[0]]).Add(pos)
		t := normal.Dot(a.Sub(r.From)) / dot
		if t < 0 || t > segment {
			continue
		}
		hit := r.From.Add(r.direction.Mul(t))

		for i := 1; i < len(face)-1 && !r.Result.shouldStop; i++ {
			bv := q.Rotate(hull.Vertices[face[i]]).Add(pos)
			cv := q.Rotate(hull.Vertices[face[i+1]]).Add(pos)
			if dynamo.PointInTriangle(hit, a, bv, cv) {
				r.report(normal, hit, reported, b, fi)
				break
			}
		}
	}
}

// topFace is the pillar face holding the surface triangle.
var topFace = []int{0}

func (r *Ray) intersectHeightfield(hf *physics.Heightfield, q mgl64.Quat, pos mgl64.Vec3, b *physics.Body) {
	from := dynamo.PointToLocal(pos, q, r.From)
	to := dynamo.PointToLocal(pos, q, r.To)
	box := physics.AABBFromPoints([]mgl64.Vec3{from, to})

	minX, minY, _ := hf.GetIndexOfPosition(box.Min[0], box.Min[1], true)
	maxX, maxY, _ := hf.GetIndexOfPosition(box.Max[0], box.Max[1], true)
	maxX = min(maxX+1, len(hf.Data)-1)
	maxY = min(maxY+1, len(hf.Data[0])-1)

	for i := minX; i < maxX; i++ {
		for j := minY; j < maxY; j++ {
			if r.Result.shouldStop {
				return
			}
			if !hf.AABBAtIndex(i, j).OverlapsRay(from, to) {
				continue
			}
			for _, upper := range [2]bool{false, true} {
				pillar := hf.ConvexTrianglePillar(i, j, upper)
				offset := dynamo.PointToWorld(pos, q, pillar.Offset)
				r.intersectConvex(pillar.Convex, q, offset, b, hf, topFace)
				if r.Result.shouldStop {
					return
				}
			}
		}
	}
}

func (r *Ray) intersectTrimesh(mesh *physics.Trimesh, q mgl64.Quat, pos mgl64.Vec3, b *physics.Body) {
	from := dynamo.PointToLocal(pos, q, r.From)
	to := dynamo.PointToLocal(pos, q, r.To)
	dir := dynamo.Unit(to.Sub(from))
	segment2 := to.Sub(from).LenSqr()

	for _, tri := range mesh.GetTrianglesInAABB(physics.AABBFromPoints([]mgl64.Vec3{from, to})) {
		if r.Result.shouldStop {
			return
		}
		normal := mesh.Normals[tri]
		dot := dir.Dot(normal)
		if math.Abs(dot) < r.Precision {
			continue
		}
		a, bv, cv := mesh.TriangleVertices(tri)
		t := normal.Dot(a.Sub(from)) / dot
		if t < 0 {
			continue
		}
		hit := from.Add(dir.Mul(t))
		if hit.Sub(from).LenSqr() > segment2 || !dynamo.PointInTriangle(hit, a, bv, cv) {
			continue
		}
		r.report(q.Rotate(normal), dynamo.PointToWorld(pos, q, hit), mesh, b, tri)
	}
}

func (r *Ray) report(normal, point mgl64.Vec3, s physics.Shape, b *physics.Body, face int) {
	if r.SkipBackfaces && normal.Dot(r.direction) > 0 {
		return
	}
	res := r.Result
	distance := point.Sub(r.From).Len()
	set := func() {
		res.RayFromWorld, res.RayToWorld = r.From, r.To
		res.HitNormalWorld, res.HitPointWorld = normal, point
		res.Shape, res.Body = s, b
		res.Distance = distance
		res.HitFaceIndex = face
		res.HasHit = true
		r.HasHit = true
	}

	switch r.Mode {
	case All:
		set()
		if r.Callback != nil {
			r.Callback(res)
		}
	case Closest:
		if !res.HasHit || distance < res.Distance {
			set()
		}
	case Any:
		set()
		res.shouldStop = true
	}
}
