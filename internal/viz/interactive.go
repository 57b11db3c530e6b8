package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/scene"
)

var sceneInfo = map[string]string{
	"box_on_plane":    "single box settling",
	"sphere_stack":    "stacked spheres",
	"box_stack":       "tower of boxes",
	"pendulum_chain":  "point-to-point links",
	"hinge_motor":     "motorised wheel",
	"servo_arm":       "pid-held arm",
	"terrain":         "heightfield drops",
	"mesh_drop":       "trimesh ring",
	"particles":       "particle rain",
	"kinematic_sweep": "kinematic pusher",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// param is one editable config value on the setup screen.
type param struct {
	name string
	step float64
	get  func(*config.Config) float64
	set  func(*config.Config, float64)
}

var params = []param{
	{"dt", 1.0 / 600,
		func(c *config.Config) float64 { return c.Dt },
		func(c *config.Config, v float64) { c.Dt = v }},
	{"friction", 0.05,
		func(c *config.Config) float64 { return c.Material.Friction },
		func(c *config.Config, v float64) { c.Material.Friction = v }},
	{"restitution", 0.05,
		func(c *config.Config) float64 { return c.Material.Restitution },
		func(c *config.Config, v float64) { c.Material.Restitution = v }},
	{"iterations", 1,
		func(c *config.Config) float64 { return float64(c.Solver.Iterations) },
		func(c *config.Config, v float64) { c.Solver.Iterations = int(v) }},
	{"gravity", 0.5,
		func(c *config.Config) float64 { return c.World.Gravity[2] },
		func(c *config.Config, v float64) { c.World.Gravity[2] = v }},
}

type app struct {
	state, cursor int
	scenes        []string
	selected      string

	cfg         *config.Config
	presets     []string
	preset      int
	paramCursor int
	editing     bool
	editBuf     string
	err         error

	width, height int
	live          Model
}

func NewInteractiveApp() *app {
	return &app{
		state:  stateMenu,
		scenes: scene.Names(),
		width:  80,
		height: 24,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.state == stateSim {
			m.live.resize(msg.Width, msg.Height)
		}
		return m, nil
	default:
		if m.state == stateSim {
			next, cmd := m.live.Update(msg)
			m.live = next.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		if msg.String() == "esc" {
			m.state = stateConfig
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenes)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.scenes[m.cursor]
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
		m.presets = append([]string{"default"}, config.ListPresets(m.selected)...)
		m.preset = 0
		m.applyPreset()
	}
	return m, nil
}

// applyPreset loads the selected preset, or the defaults.
func (m *app) applyPreset() {
	if p := config.GetPreset(m.selected, m.presets[m.preset]); p != nil {
		m.cfg = p
		return
	}
	m.cfg = config.DefaultConfig()
	m.cfg.Scene = m.selected
}

// rows is the preset selector followed by the params.
func (m app) rows() int { return len(params) + 1 }

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				params[m.paramCursor-1].set(m.cfg, v)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 {
				c := s[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += s
				}
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < m.rows()-1 {
			m.paramCursor++
		}
	case "enter", " ":
		if m.paramCursor > 0 {
			p := params[m.paramCursor-1]
			m.editing, m.editBuf = true, strconv.FormatFloat(p.get(m.cfg), 'g', -1, 64)
		}
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(1)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m *app) adjust(dir int) {
	if m.paramCursor == 0 {
		n := len(m.presets)
		m.preset = (m.preset + dir + n) % n
		m.applyPreset()
		return
	}
	p := params[m.paramCursor-1]
	p.set(m.cfg, p.get(m.cfg)+float64(dir)*p.step)
}

// start validates the config and switches to the live view.
func (m app) start() (app, tea.Cmd) {
	cfg := m.cfg.Clone()
	if err := cfg.Validate(); err != nil {
		m.err = err
		return m, nil
	}
	name := m.selected
	build := func() (*scene.Scene, error) {
		d, err := scene.Resolve(name)
		if err != nil {
			return nil, err
		}
		return scene.Build(d, cfg)
	}
	live, err := NewModel(name, build, cfg.Dt)
	if err != nil {
		m.err = err
		return m, nil
	}
	live.resize(m.width, m.height)
	m.live, m.state, m.err = live, stateSim, nil
	return m, live.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

func (m app) title(b *strings.Builder, st styles, head, sub string) {
	b.WriteString("\n\n    " + st.header.Render(head) + "\n")
	b.WriteString("    " + st.help.UnsetMarginTop().Render(sub) + "\n")
	b.WriteString("    " + st.help.UnsetMarginTop().Render("─────────────────────────") + "\n\n")
}

func (m app) hints(b *strings.Builder, st styles, pairs ...string) {
	b.WriteString("\n    ")
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(st.selected.Render(pairs[i]) + st.label.UnsetWidth().Render(" "+pairs[i+1]+"  "))
	}
	b.WriteString("\n")
}

func (m app) viewMenu() string {
	st := currentStyles()
	var b strings.Builder
	m.title(&b, st, "RIGIDSIM", "rigid body simulation")
	for i, name := range m.scenes {
		desc := sceneInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", st.selected.Render("▸"), st.value.Bold(true).Render(fmt.Sprintf("%-16s", name)), st.graph.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", st.label.UnsetWidth().Render(fmt.Sprintf("%-16s", name)), st.label.UnsetWidth().Render(desc)))
		}
	}
	m.hints(&b, st, "j/k", "navigate", "enter", "select", "q", "quit")
	return b.String()
}

func (m app) viewConfig() string {
	st := currentStyles()
	var b strings.Builder
	m.title(&b, st, strings.ToUpper(m.selected), sceneInfo[m.selected])

	line := func(i int, name, val string) {
		if i == m.paramCursor {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", st.selected.Render("▸"), st.value.Bold(true).Render(fmt.Sprintf("%-12s", name)), st.selected.Render(val)))
			return
		}
		b.WriteString(fmt.Sprintf("      %s %s\n", st.label.UnsetWidth().Render(fmt.Sprintf("%-12s", name)), st.value.Render(val)))
	}
	line(0, "preset", fmt.Sprintf("%10s", m.presets[m.preset]))
	for i, p := range params {
		val := fmt.Sprintf("%10.4g", p.get(m.cfg))
		if m.editing && i+1 == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		line(i+1, p.name, val)
	}
	if m.err != nil {
		b.WriteString("\n    " + st.warning.Render(m.err.Error()) + "\n")
	}
	m.hints(&b, st, "j/k", "select", "h/l", "adjust", "enter", "edit", "s", "start", "esc", "back")
	return b.String()
}

func RunInteractive() error {
	_, err := tea.NewProgram(NewInteractiveApp(), tea.WithAltScreen()).Run()
	return err
}
