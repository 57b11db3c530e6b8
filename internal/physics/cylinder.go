package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// NewCylinder builds a cylinder along local z as a convex polyhedron with
// segments side faces. Bottom and top vertices are interleaved: 2i is on the
// bottom ring and 2i+1 on the top ring.
func NewCylinder(radiusTop, radiusBottom, height float64, segments int) (*ConvexPolyhedron, error) {
	if radiusTop < 0 || radiusBottom < 0 {
		return nil, fmt.Errorf("cylinder radii %v/%v: %w", radiusTop, radiusBottom, dynamo.ErrNegativeRadius)
	}
	if segments < 3 || height <= 0 {
		return nil, fmt.Errorf("cylinder with %d segments and height %v: %w", segments, height, dynamo.ErrInvalidShape)
	}

	n := segments
	h := height * 0.5
	verts := []mgl64.Vec3{
		{radiusBottom, 0, -h},
		{radiusTop, 0, h},
	}
	bottom := []int{0}
	top := []int{1}
	var faces [][]int
	var axes []mgl64.Vec3

	for i := 0; i < n; i++ {
		theta := 2 * math.Pi / float64(n) * float64(i+1)
		thetaN := 2 * math.Pi / float64(n) * (float64(i) + 0.5)
		if i < n-1 {
			verts = append(verts,
				mgl64.Vec3{radiusBottom * math.Cos(theta), radiusBottom * math.Sin(theta), -h},
				mgl64.Vec3{radiusTop * math.Cos(theta), radiusTop * math.Sin(theta), h},
			)
			bottom = append(bottom, 2*i+2)
			top = append(top, 2*i+3)
			faces = append(faces, []int{2*i + 2, 2*i + 3, 2*i + 1, 2 * i})
		} else {
			faces = append(faces, []int{0, 1, 2*i + 1, 2 * i})
		}
		// opposite side faces share an axis
		if n%2 == 1 || i < n/2 {
			axes = append(axes, mgl64.Vec3{math.Cos(thetaN), math.Sin(thetaN), 0})
		}
	}
	faces = append(faces, top)
	axes = append(axes, dynamo.UnitZ)

	reversed := make([]int, len(bottom))
	for i := range bottom {
		reversed[i] = bottom[len(bottom)-1-i]
	}
	faces = append(faces, reversed)

	return NewConvexPolyhedron(verts, faces, axes)
}
