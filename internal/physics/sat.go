package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// ClipPoint is one point of a clipped contact manifold. Depth is negative
// when the point lies behind the reference face.
type ClipPoint struct {
	Point  mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// TestSepAxis projects both hulls on axis. It returns the overlap depth, or
// false when the projections are disjoint.
func (c *ConvexPolyhedron) TestSepAxis(axis mgl64.Vec3, hullB *ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, posB mgl64.Vec3, quatB mgl64.Quat) (float64, bool) {
	maxA, minA := c.Project(axis, posA, quatA)
	maxB, minB := hullB.Project(axis, posB, quatB)
	if maxA < minB || maxB < minA {
		return 0, false
	}
	d0 := maxA - minB
	d1 := maxB - minA
	return math.Min(d0, d1), true
}

// FindSeparatingAxis runs the separating-axis test between this hull at
// (posA, quatA) and hullB at (posB, quatB). Candidates are the face normals
// (or unique axes) of both hulls, then the cross products of their unique
// edges. On overlap it returns the axis of least penetration, oriented to
// point from B towards A. faceListA and faceListB restrict the face normal
// candidates when non-nil.
func (c *ConvexPolyhedron) FindSeparatingAxis(hullB *ConvexPolyhedron, posA mgl64.Vec3, quatA mgl64.Quat, posB mgl64.Vec3, quatB mgl64.Quat, faceListA, faceListB []int) (mgl64.Vec3, bool) {
	dmin := math.MaxFloat64
	var target mgl64.Vec3

	test := func(axis mgl64.Vec3) bool {
		d, ok := c.TestSepAxis(axis, hullB, posA, quatA, posB, quatB)
		if !ok {
			return false
		}
		if d < dmin {
			dmin = d
			target = axis
		}
		return true
	}

	for _, axis := range candidateAxes(c, faceListA) {
		if !test(quatA.Rotate(axis)) {
			return mgl64.Vec3{}, false
		}
	}
	for _, axis := range candidateAxes(hullB, faceListB) {
		if !test(quatB.Rotate(axis)) {
			return mgl64.Vec3{}, false
		}
	}

	for _, ea := range c.UniqueEdges {
		worldA := quatA.Rotate(ea)
		for _, eb := range hullB.UniqueEdges {
			cross := worldA.Cross(quatB.Rotate(eb))
			if cross.LenSqr() < 1e-12 {
				continue
			}
			if !test(dynamo.Unit(cross)) {
				return mgl64.Vec3{}, false
			}
		}
	}

	if posB.Sub(posA).Dot(target) > 0 {
		target = target.Mul(-1)
	}
	return target, true
}

func candidateAxes(h *ConvexPolyhedron, faceList []int) []mgl64.Vec3 {
	if h.UniqueAxes != nil {
		return h.UniqueAxes
	}
	if faceList == nil {
		return h.FaceNormals
	}
	axes := make([]mgl64.Vec3, 0, len(faceList))
	for _, fi := range faceList {
		axes = append(axes, h.FaceNormals[fi])
	}
	return axes
}

// ClipAgainstHull picks the face of hullB most aligned with sepNormal and
// clips it against this hull. sepNormal points from B towards A.
func (c *ConvexPolyhedron) ClipAgainstHull(posA mgl64.Vec3, quatA mgl64.Quat, hullB *ConvexPolyhedron, posB mgl64.Vec3, quatB mgl64.Quat, sepNormal mgl64.Vec3, minDist, maxDist float64) []ClipPoint {
	closestFaceB := -1
	dmax := -math.MaxFloat64
	for i, n := range hullB.FaceNormals {
		d := quatB.Rotate(n).Dot(sepNormal)
		if d > dmax {
			dmax = d
			closestFaceB = i
		}
	}
	if closestFaceB < 0 {
		return nil
	}
	poly := hullB.Faces[closestFaceB]
	worldVertsB := make([]mgl64.Vec3, len(poly))
	for i, vi := range poly {
		worldVertsB[i] = quatB.Rotate(hullB.Vertices[vi]).Add(posB)
	}
	return c.ClipFaceAgainstHull(sepNormal, posA, quatA, worldVertsB, minDist, maxDist)
}

// ConnectedFaces lists the faces sharing at least one vertex with face i.
func (c *ConvexPolyhedron) ConnectedFaces(i int) []int {
	poly := c.Faces[i]
	var out []int
	for fi, f := range c.Faces {
		if fi == i {
			continue
		}
	shared:
		for _, v := range f {
			for _, pv := range poly {
				if v == pv {
					out = append(out, fi)
					break shared
				}
			}
		}
	}
	return out
}

// ClipFaceAgainstHull clips a world-space polygon against the side planes of
// the face of this hull most opposed to sepNormal, then keeps the points
// behind that reference face.
func (c *ConvexPolyhedron) ClipFaceAgainstHull(sepNormal, posA mgl64.Vec3, quatA mgl64.Quat, worldVertsB []mgl64.Vec3, minDist, maxDist float64) []ClipPoint {
	closestFaceA := -1
	dmin := math.MaxFloat64
	for i, n := range c.FaceNormals {
		d := quatA.Rotate(n).Dot(sepNormal)
		if d < dmin {
			dmin = d
			closestFaceA = i
		}
	}
	if closestFaceA < 0 {
		return nil
	}

	verts := worldVertsB
	for _, other := range c.ConnectedFaces(closestFaceA) {
		n := quatA.Rotate(c.FaceNormals[other])
		constant := c.PlaneConstant(other) - n.Dot(posA)
		verts = ClipFaceAgainstPlane(verts, n, constant)
	}

	n := quatA.Rotate(c.FaceNormals[closestFaceA])
	constant := c.PlaneConstant(closestFaceA) - n.Dot(posA)
	var result []ClipPoint
	for _, p := range verts {
		depth := n.Dot(p) + constant
		if depth <= minDist {
			debugf("clamped: depth=%v to minDist=%v", depth, minDist)
			depth = minDist
		}
		if depth <= maxDist && depth <= 0 {
			result = append(result, ClipPoint{Point: p, Normal: n, Depth: depth})
		}
	}
	return result
}

// ClipFaceAgainstPlane is one Sutherland-Hodgman pass. A vertex is kept when
// n·v + constant < 0.
func ClipFaceAgainstPlane(in []mgl64.Vec3, n mgl64.Vec3, constant float64) []mgl64.Vec3 {
	if len(in) < 2 {
		return nil
	}
	out := make([]mgl64.Vec3, 0, len(in)+1)
	first := in[len(in)-1]
	dFirst := n.Dot(first) + constant
	for _, last := range in {
		dLast := n.Dot(last) + constant
		if dFirst < 0 {
			if dLast < 0 {
				out = append(out, last)
			} else {
				out = append(out, lerp(first, last, dFirst/(dFirst-dLast)))
			}
		} else if dLast < 0 {
			out = append(out, lerp(first, last, dFirst/(dFirst-dLast)), last)
		}
		first = last
		dFirst = dLast
	}
	return out
}

func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
