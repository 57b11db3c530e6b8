package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Awake   lipgloss.Color
	Asleep  lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeSlate = Theme{
		Name:    "slate",
		Primary: lipgloss.Color("#7dcfff"),
		Accent:  lipgloss.Color("#e0af68"),
		Text:    lipgloss.Color("#c0caf5"),
		Muted:   lipgloss.Color("#565f89"),
		Awake:   lipgloss.Color("#9ece6a"),
		Asleep:  lipgloss.Color("#7aa2f7"),
		Warning: lipgloss.Color("#f7768e"),
	}

	ThemePhosphor = Theme{
		Name:    "phosphor",
		Primary: lipgloss.Color("#00ff00"),
		Accent:  lipgloss.Color("#88ff88"),
		Text:    lipgloss.Color("#00dd00"),
		Muted:   lipgloss.Color("#005500"),
		Awake:   lipgloss.Color("#aaffaa"),
		Asleep:  lipgloss.Color("#007700"),
		Warning: lipgloss.Color("#ffff00"),
	}

	ThemePaper = Theme{
		Name:    "paper",
		Primary: lipgloss.Color("#1f2328"),
		Accent:  lipgloss.Color("#0969da"),
		Text:    lipgloss.Color("#24292f"),
		Muted:   lipgloss.Color("#8c959f"),
		Awake:   lipgloss.Color("#1a7f37"),
		Asleep:  lipgloss.Color("#6e7781"),
		Warning: lipgloss.Color("#cf222e"),
	}

	CurrentTheme = ThemeSlate

	Themes = []Theme{ThemeSlate, ThemePhosphor, ThemePaper}
)

// GetTheme returns a theme by name, falling back to slate.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeSlate
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = ThemeSlate
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
