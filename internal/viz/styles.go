package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	canvas, panel, header, label, value lipgloss.Style
	running, paused, help, graph        lipgloss.Style
	awake, asleep, warning, selected    lipgloss.Style
}

// currentStyles derives the view styles from CurrentTheme.
func currentStyles() styles {
	t := CurrentTheme
	return styles{
		canvas: lipgloss.NewStyle().Padding(1, 2).Foreground(t.Text),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(42),
		header:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		running:  lipgloss.NewStyle().Bold(true).Foreground(t.Awake),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		help:     lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
		graph:    lipgloss.NewStyle().Foreground(t.Primary),
		awake:    lipgloss.NewStyle().Foreground(t.Awake),
		asleep:   lipgloss.NewStyle().Foreground(t.Asleep),
		warning:  lipgloss.NewStyle().Foreground(t.Warning),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
	}
}

// ProgressBar renders a fraction in [0,1] as a bar of the given width.
func ProgressBar(fraction float64, width int, fill lipgloss.Style) string {
	filled := int(fraction*float64(width) + 0.5)
	filled = max(0, min(width, filled))
	return fill.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// Sparkline renders the last width values as block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	chars := []rune("▁▂▃▄▅▆▇█")

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(len(chars)-1, idx))])
	}
	return b.String()
}
