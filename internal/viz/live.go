package viz

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	defaultWidth    = 72
	defaultHeight   = 22
	panelWidth      = 46
	historyCapacity = 600
	frameRate       = 60
	pokeStrength    = 5.0
	orbitStep       = 0.08
	servoStep       = 0.1
)

type TickMsg time.Time

// Builder creates a fresh scene. Reset calls it again.
type Builder func() (*scene.Scene, error)

type snapshot struct {
	time   float64
	step   int
	bodies []sim.BodyState
}

// Model is the live terminal view of a running world.
type Model struct {
	name     string
	build    Builder
	scene    *scene.Scene
	dt       float64
	substeps int

	width, height int
	canvas        *Canvas
	wire          *Wireframe
	camera        *Camera

	running  bool
	showHelp bool
	energy   []float64
	contacts []float64
	history  []snapshot
	playHead int

	recording bool
	frames    []*image.Paletted
	GIFPath   string

	message string
	err     error
}

// NewModel builds the scene and frames it. Each tick advances the world by
// roughly one display frame of simulated time.
func NewModel(name string, build Builder, dt float64) (Model, error) {
	sc, err := build()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		name:     name,
		build:    build,
		scene:    sc,
		dt:       dt,
		substeps: max(1, int(math.Round(1/(frameRate*dt)))),
		width:    defaultWidth,
		height:   defaultHeight,
		canvas:   NewCanvas(defaultWidth, defaultHeight),
		wire:     NewWireframe(),
		camera:   NewCamera(),
		running:  true,
		energy:   make([]float64, 0, historyCapacity),
		contacts: make([]float64, 0, historyCapacity),
		history:  make([]snapshot, 0, historyCapacity),
		playHead: -1,
		GIFPath:  "rigidsim.gif",
	}
	m.camera.Fit(sc.World)
	return m, nil
}

func (m Model) World() *world.World { return m.scene.World }
func (m Model) Camera() *Camera     { return m.camera }
func (m Model) Running() bool       { return m.running }
func (m Model) Err() error          { return m.err }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".", "n":
			m.running = false
			m.playHead = -1
			m.advance()
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "h", "left":
			m.camera.Orbit(-orbitStep, 0)
		case "l", "right":
			m.camera.Orbit(orbitStep, 0)
		case "k", "up":
			m.camera.Orbit(0, orbitStep)
		case "j", "down":
			m.camera.Orbit(0, -orbitStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.camera.Fit(m.scene.World)
		case "p":
			if b := PokeCenter(m.scene.World, m.camera, pokeStrength); b != nil {
				m.message = "poked " + bodyLabel(b)
			} else {
				m.message = "nothing to poke"
			}
		case "<", ",":
			m.nudgeServos(-servoStep)
		case ">":
			m.nudgeServos(servoStep)
		case "g":
			m.toggleRecording()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.advance()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		if m.recording {
			m.draw()
			m.frames = append(m.frames, CanvasImage(m.canvas, 2))
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) resize(w, h int) {
	cw := max(20, w-panelWidth-4)
	ch := max(8, h-2)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// advance steps the world by one tick and records the history.
func (m *Model) advance() {
	w := m.scene.World
	for i := 0; i < m.substeps; i++ {
		if err := w.Step(m.dt, 0, 0); err != nil {
			m.err = err
			m.running = false
			return
		}
	}
	m.energy = pushCapped(m.energy, metrics.TotalEnergy(w))
	m.contacts = pushCapped(m.contacts, float64(len(w.Contacts)))

	snap := snapshot{time: w.Time, step: w.StepNumber, bodies: make([]sim.BodyState, w.NumObjects())}
	sim.Capture(w, snap.bodies)
	if len(m.history) >= historyCapacity {
		m.history = m.history[1:]
	}
	m.history = append(m.history, snap)
}

func pushCapped(s []float64, v float64) []float64 {
	if len(s) >= historyCapacity {
		s = s[1:]
	}
	return append(s, v)
}

func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead = max(0, m.playHead+dir)
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset rebuilds the scene, keeping the camera.
func (m *Model) reset() {
	sc, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.scene = sc
	m.err = nil
	m.message = ""
	m.energy = m.energy[:0]
	m.contacts = m.contacts[:0]
	m.history = m.history[:0]
	m.playHead = -1
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0, frameRate*10)
		m.message = "recording"
		return
	}
	m.recording = false
	if err := SaveGIF(m.GIFPath, m.frames, 100/frameRate+1); err != nil {
		m.message = "gif: " + err.Error()
	} else {
		m.message = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.GIFPath)
	}
	m.frames = nil
}

// draw renders the current or replayed state into the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	m.wire.Clear()
	bodies := m.scene.World.Bodies()
	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		for i, b := range bodies {
			if i >= len(snap.bodies) {
				break
			}
			st := snap.bodies[i]
			m.wire.AddBodyPose(b, st.Position, st.Quaternion, st.Sleep == physics.Sleeping)
		}
	} else {
		m.wire.AddWorld(m.scene.World)
	}
	Render3D(m.canvas, m.wire, m.camera)
}

func bodyLabel(b *physics.Body) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprintf("body %d", b.ID)
}

func (m Model) status(st styles) string {
	switch {
	case m.err != nil:
		return st.warning.Render("STOPPED")
	case m.playHead >= 0 && m.playHead < len(m.history):
		back := m.history[m.playHead].time - m.history[len(m.history)-1].time
		return st.paused.Render(fmt.Sprintf("REPLAY %.2fs", back))
	case m.running:
		return st.running.Render("RUNNING")
	}
	return st.paused.Render("PAUSED")
}

func (m Model) View() string {
	st := currentStyles()
	m.draw()
	w := m.scene.World

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status(st))
	if m.recording {
		s.WriteString("  " + st.warning.Render("● REC"))
	}
	s.WriteString("\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	t, step := w.Time, w.StepNumber
	if m.playHead >= 0 && m.playHead < len(m.history) {
		t, step = m.history[m.playHead].time, m.history[m.playHead].step
	}
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", t))
	row("Steps", fmt.Sprintf("%d", step))
	row("Bodies", fmt.Sprintf("%d", w.NumObjects()))
	row("Contacts", fmt.Sprintf("%d", len(w.Contacts)))
	row("Iterations", fmt.Sprintf("%d", w.SolverIterations()))
	if len(m.energy) > 0 {
		row("Energy", fmt.Sprintf("%.3f", m.energy[len(m.energy)-1]))
	}
	s.WriteString(st.label.Render("History") + st.graph.Render(Sparkline(m.contacts, 24)) + "\n")

	sleeping, dynamic := 0, 0
	for _, b := range w.Bodies() {
		if b.Type != physics.Dynamic {
			continue
		}
		dynamic++
		if b.SleepState == physics.Sleeping {
			sleeping++
		}
	}
	frac := 0.0
	if dynamic > 0 {
		frac = float64(sleeping) / float64(dynamic)
	}
	s.WriteString(st.label.Render("Sleeping") + ProgressBar(frac, 20, st.asleep) +
		st.value.Render(fmt.Sprintf(" %d/%d", sleeping, dynamic)) + "\n")

	if m.err != nil {
		s.WriteString("\n" + st.warning.Render(m.err.Error()) + "\n")
	} else if m.message != "" {
		s.WriteString("\n" + st.value.Render(m.message) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause .:Step R:Reset Q:Quit\nHJKL:Orbit +-:Zoom F:Fit P:Poke\n[ ]:Replay G:GIF T:Theme ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top,
		st.canvas.Render(m.canvas.String()),
		st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
  Space      pause or resume
  . / n      single step
  r          rebuild the scene
  h j k l    orbit the camera (arrows work too)
  + / -      zoom
  f          fit the camera to the scene
  p          push the body under the view centre
  < / >      turn servo targets down or up
  [ / ]      step back and forward through recent history
  g          start or stop GIF recording
  t          next colour theme
  q          quit
`

// nudgeServos moves every servo target by delta radians.
func (m *Model) nudgeServos(delta float64) {
	if len(m.scene.Servos) == 0 {
		m.message = "no servos"
		return
	}
	for _, s := range m.scene.Servos {
		if err := s.PID.Set("target", s.PID.Target+delta); err != nil {
			m.err = err
			return
		}
	}
	m.message = fmt.Sprintf("servo target %.2f rad", m.scene.Servos[0].PID.Target)
}

// RunLive opens the live view in the alternate screen and blocks until the
// user quits.
func RunLive(name string, build Builder, dt float64) error {
	m, err := NewModel(name, build, dt)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
