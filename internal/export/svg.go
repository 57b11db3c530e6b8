package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/viz"
)

// Plane picks the two world axes a trace is projected onto.
type Plane string

const (
	PlaneXZ Plane = "xz"
	PlaneXY Plane = "xy"
	PlaneYZ Plane = "yz"
)

func (p Plane) axes() (int, int, error) {
	switch p {
	case PlaneXZ, "":
		return 0, 2, nil
	case PlaneXY:
		return 0, 1, nil
	case PlaneYZ:
		return 1, 2, nil
	}
	return 0, 0, fmt.Errorf("plane %q: %w", string(p), dynamo.ErrInvalidConfig)
}

var palette = []string{"#7dcfff", "#9ece6a", "#e0af68", "#f7768e", "#bb9af7", "#73daca", "#ff9e64"}

// SVG draws one polyline per selected body through its sampled positions.
// bodies holds frame indices; nil selects every body that moves.
func SVG(frames []sim.Frame, names []string, bodies []int, plane Plane, width, height int) (string, error) {
	u, v, err := plane.axes()
	if err != nil {
		return "", err
	}
	if len(frames) < 2 {
		return "", fmt.Errorf("need at least two frames, got %d: %w", len(frames), dynamo.ErrInvalidConfig)
	}
	if bodies == nil {
		bodies = moving(frames)
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, f := range frames {
		for _, i := range bodies {
			if i < 0 || i >= len(f.Bodies) {
				return "", fmt.Errorf("body index %d: %w", i, dynamo.ErrBodyNotFound)
			}
			p := f.Bodies[i].Position
			minX, maxX = math.Min(minX, p[u]), math.Max(maxX, p[u])
			minY, maxY = math.Min(minY, p[v]), math.Max(maxY, p[v])
		}
	}

	// Equal scale on both axes with 10% padding.
	rangeX, rangeY := math.Max(maxX-minX, 1e-3), math.Max(maxY-minY, 1e-3)
	scale := math.Min(float64(width)/(rangeX*1.2), float64(height)/(rangeY*1.2))
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	px := func(x float64) float64 { return float64(width)/2 + (x-cx)*scale }
	py := func(y float64) float64 { return float64(height)/2 - (y-cy)*scale }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	for k, i := range bodies {
		col := palette[k%len(palette)]
		name := fmt.Sprintf("body%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		fmt.Fprintf(&sb, `<path id=%q fill="none" stroke="%s" stroke-width="1.5" d="`, name, col)
		for j, f := range frames {
			p := f.Bodies[i].Position
			cmd := " L"
			if j == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, px(p[u]), py(p[v]))
		}
		sb.WriteString("\"/>\n")
		last := frames[len(frames)-1].Bodies[i].Position
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, px(last[u]), py(last[v]), col)
	}
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// moving returns the indices of bodies whose position changes across frames.
func moving(frames []sim.Frame) []int {
	first, last := frames[0], frames[len(frames)-1]
	var out []int
	for i := range first.Bodies {
		if i < len(last.Bodies) && first.Bodies[i].Position != last.Bodies[i].Position {
			out = append(out, i)
		}
	}
	return out
}

func WriteSVG(path string, frames []sim.Frame, names []string, bodies []int, plane Plane, width, height int) error {
	s, err := SVG(frames, names, bodies, plane, width, height)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// CanvasToSVG draws each lit braille dot as a circle.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.DotWidth(), canvas.DotHeight()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#7dcfff">
`, width, height, width, height)
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, (float64(x)+0.5)*scale, (float64(y)+0.5)*scale, scale*0.4)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}
