package broadphase

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
)

// Grid bins bodies into a uniform nx×ny×nz grid over [Min, Max] and only
// tests pairs that share a bin. Bodies outside the extent are clamped into
// the border bins.
type Grid struct {
	Base
	Min, Max   mgl64.Vec3
	Nx, Ny, Nz int

	bins [][]*physics.Body
}

// NewGrid returns ErrInvalidGrid unless every cell count is positive.
func NewGrid(min, max mgl64.Vec3, nx, ny, nz int) (*Grid, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("grid %dx%dx%d: %w", nx, ny, nz, dynamo.ErrInvalidGrid)
	}
	for i := 0; i < 3; i++ {
		if !(max[i] > min[i]) {
			return nil, fmt.Errorf("grid extent %v..%v: %w", min, max, dynamo.ErrInvalidGrid)
		}
	}
	return &Grid{
		Min:  min,
		Max:  max,
		Nx:   nx,
		Ny:   ny,
		Nz:   nz,
		bins: make([][]*physics.Body, nx*ny*nz),
	}, nil
}

// DefaultGrid is a 10×10×10 grid over [-100, 100]³.
func DefaultGrid() *Grid {
	g, _ := NewGrid(mgl64.Vec3{-100, -100, -100}, mgl64.Vec3{100, 100, 100}, 10, 10, 10)
	return g
}

func (g *Grid) CollisionPairs(w World, p1, p2 []*physics.Body) ([]*physics.Body, []*physics.Body) {
	for i := range g.bins {
		g.bins[i] = g.bins[i][:0]
	}

	for _, b := range w.Bodies() {
		switch {
		case len(b.Shapes) == 1 && b.Shapes[0].Kind() == physics.KindSphere:
			pos, _ := b.ShapeWorldPose(0)
			r := b.Shapes[0].(*physics.Sphere).Radius
			g.addBox(pos.Sub(mgl64.Vec3{r, r, r}), pos.Add(mgl64.Vec3{r, r, r}), b)
		case hasPlane(b):
			g.addPlane(b)
		default:
			if b.AABBNeedsUpdate {
				b.ComputeAABB()
			}
			g.addBox(b.AABB.Min, b.AABB.Max, b)
		}
	}

	for _, bin := range g.bins {
		for i := 1; i < len(bin); i++ {
			for j := 0; j < i; j++ {
				if NeedBroadphaseCollision(bin[i], bin[j]) {
					p1, p2 = g.IntersectionTest(bin[i], bin[j], p1, p2)
				}
			}
		}
	}
	return g.MakePairsUnique(p1, p2)
}

func hasPlane(b *physics.Body) bool {
	for _, s := range b.Shapes {
		if s.Kind() == physics.KindPlane {
			return true
		}
	}
	return false
}

func (g *Grid) cellSize() mgl64.Vec3 {
	e := g.Max.Sub(g.Min)
	return mgl64.Vec3{e[0] / float64(g.Nx), e[1] / float64(g.Ny), e[2] / float64(g.Nz)}
}

func (g *Grid) index(x, y, z int) int {
	return x*g.Ny*g.Nz + y*g.Nz + z
}

func clampCell(v, n int) int {
	return max(0, min(v, n-1))
}

func (g *Grid) addBox(lo, hi mgl64.Vec3, b *physics.Body) {
	cs := g.cellSize()
	n := [3]int{g.Nx, g.Ny, g.Nz}
	var c0, c1 [3]int
	for i := 0; i < 3; i++ {
		c0[i] = clampCell(int((lo[i]-g.Min[i])/cs[i]), n[i])
		c1[i] = clampCell(int(math.Ceil((hi[i]-g.Min[i])/cs[i])), n[i])
	}
	for x := c0[0]; x <= c1[0]; x++ {
		for y := c0[1]; y <= c1[1]; y++ {
			for z := c0[2]; z <= c1[2]; z++ {
				idx := g.index(x, y, z)
				g.bins[idx] = append(g.bins[idx], b)
			}
		}
	}
}

// addPlane puts a plane body in every cell whose centre lies below the
// plane or within half a cell diagonal above it.
func (g *Grid) addPlane(b *physics.Body) {
	var pos mgl64.Vec3
	var q mgl64.Quat
	var plane *physics.Plane
	for i, s := range b.Shapes {
		if p, ok := s.(*physics.Plane); ok {
			pos, q = b.ShapeWorldPose(i)
			plane = p
			break
		}
	}
	n := plane.WorldNormal(q)
	cs := g.cellSize()
	binRadius := cs.Len() * 0.5
	for x := 0; x < g.Nx; x++ {
		for y := 0; y < g.Ny; y++ {
			for z := 0; z < g.Nz; z++ {
				centre := g.Min.Add(mgl64.Vec3{
					(float64(x) + 0.5) * cs[0],
					(float64(y) + 0.5) * cs[1],
					(float64(z) + 0.5) * cs[2],
				})
				if centre.Sub(pos).Dot(n) < binRadius {
					idx := g.index(x, y, z)
					g.bins[idx] = append(g.bins[idx], b)
				}
			}
		}
	}
}

func (g *Grid) AABBQuery(w World, box physics.AABB, result []*physics.Body) []*physics.Body {
	return linearQuery(w.Bodies(), box, result)
}
