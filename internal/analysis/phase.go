package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/rigidsim/internal/sim"
)

// PhasePoint is a coordinate and its rate of change at one frame.
type PhasePoint struct {
	X, V float64
}

// PhasePortrait holds position against velocity for one body and axis,
// in frame order.
type PhasePortrait struct {
	Body, Axis int
	Points     []PhasePoint
}

// NewPhasePortrait pairs a body's coordinate with its velocity along axis
// for every frame. A bouncing ball traces nested arcs; a resting one
// collapses to a point. It returns nil for an unknown body or axis.
func NewPhasePortrait(frames []sim.Frame, body, axis int) *PhasePortrait {
	if len(frames) == 0 || body < 0 || body >= len(frames[0].Bodies) || axis < 0 || axis > 2 {
		return nil
	}
	p := &PhasePortrait{Body: body, Axis: axis, Points: make([]PhasePoint, len(frames))}
	for i, f := range frames {
		b := f.Bodies[body]
		p.Points[i] = PhasePoint{X: b.Position[axis], V: b.Velocity[axis]}
	}
	return p
}

// Bounds is the box around every point, grown by 10% on each side. Flat
// extents get unit width.
func (p *PhasePortrait) Bounds() (minX, maxX, minV, maxV float64) {
	minX, minV = math.Inf(1), math.Inf(1)
	maxX, maxV = math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minV, maxV = math.Min(minV, pt.V), math.Max(maxV, pt.V)
	}
	pad := func(lo, hi float64) (float64, float64) {
		r := hi - lo
		if r == 0 {
			r = 1
		}
		return lo - 0.1*r, hi + 0.1*r
	}
	minX, maxX = pad(minX, maxX)
	minV, maxV = pad(minV, maxV)
	return
}

// Glyphs for the first, middle and last third of the run.
var phaseGlyphs = [3]rune{'·', '•', '●'}

// ASCII draws the portrait on a width by height grid, position across and
// velocity up, with the zero axes where they are in view. Later points
// overwrite earlier ones so the settled state stands out.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	minX, maxX, minV, maxV := p.Bounds()
	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(v float64) int { return height - 1 - int((v-minV)/(maxV-minV)*float64(height-1)) }

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	if minV <= 0 && maxV >= 0 {
		r := row(0)
		for c := range grid[r] {
			grid[r][c] = '─'
		}
	}
	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range grid {
			if grid[r][c] == '─' {
				grid[r][c] = '┼'
			} else {
				grid[r][c] = '│'
			}
		}
	}

	n := len(p.Points)
	for i, pt := range p.Points {
		grid[row(pt.V)][col(pt.X)] = phaseGlyphs[min(3*i/n, 2)]
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}
