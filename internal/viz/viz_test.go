package viz

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/world"
)

func TestCanvas(t *testing.T) {
	c := NewCanvas(10, 5)
	if c.DotWidth() != 20 || c.DotHeight() != 20 {
		t.Fatalf("dots = %dx%d, want 20x20", c.DotWidth(), c.DotHeight())
	}

	c.Set(3, 6)
	if !c.IsSet(3, 6) || c.IsSet(2, 6) {
		t.Error("Set marked the wrong dot")
	}
	c.Unset(3, 6)
	if c.IsSet(3, 6) {
		t.Error("Unset left the dot on")
	}

	c.Set(-1, 0)
	c.Set(20, 0)
	c.Set(0, 20)
	for y := 0; y < c.DotHeight(); y++ {
		for x := 0; x < c.DotWidth(); x++ {
			if c.IsSet(x, y) {
				t.Fatalf("out of range Set lit (%d,%d)", x, y)
			}
		}
	}

	c.DrawLine(0, 0, 9, 0)
	n := 0
	for x := 0; x < c.DotWidth(); x++ {
		if c.IsSet(x, 0) {
			n++
		}
	}
	if n != 10 {
		t.Errorf("horizontal line lit %d dots, want 10", n)
	}

	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("String has %d rows, want 5", len(lines))
	}
	for _, l := range lines {
		if utf8.RuneCountInString(l) != 10 {
			t.Errorf("row %q has %d cells, want 10", l, utf8.RuneCountInString(l))
		}
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("Clear left dots on")
	}
}

func TestCanvas_DrawLineFarAway(t *testing.T) {
	c := NewCanvas(4, 4)
	c.DrawLine(-100000, 0, 100000, 0)
	if c.IsSet(0, 0) {
		t.Error("segment far outside the canvas was drawn")
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	x, y, depth, ok := cam.Project(cam.Target, 100, 80)
	if !ok {
		t.Fatal("target not visible")
	}
	if x != 50 || y != 40 {
		t.Errorf("target projects to (%d,%d), want (50,40)", x, y)
	}
	if math.Abs(depth-cam.Distance) > 1e-9 {
		t.Errorf("depth = %v, want %v", depth, cam.Distance)
	}

	behind := cam.Eye().Add(cam.Eye().Sub(cam.Target))
	if _, _, _, ok := cam.Project(behind, 100, 80); ok {
		t.Error("point behind the camera reported visible")
	}

	above := cam.Target.Add(mgl64.Vec3{0, 0, 1})
	if _, ay, _, _ := cam.Project(above, 100, 80); ay >= 40 {
		t.Errorf("point above the target projects to row %d, want above 40", ay)
	}
}

func TestCameraOrbitAndZoom(t *testing.T) {
	cam := NewCamera()
	cam.Orbit(0, 10)
	if cam.Pitch > 1.5 {
		t.Errorf("pitch = %v, want clamped to 1.5", cam.Pitch)
	}
	d := cam.Distance
	cam.ZoomIn()
	if cam.Distance >= d {
		t.Error("ZoomIn did not move closer")
	}
	cam.ZoomOut()
	if math.Abs(cam.Distance-d) > 1e-9 {
		t.Errorf("ZoomOut distance = %v, want %v", cam.Distance, d)
	}
}

func body(t *testing.T, mass float64, s physics.Shape, pos mgl64.Vec3) *physics.Body {
	t.Helper()
	b := physics.MustBody(mass)
	b.AddShape(s, mgl64.Vec3{}, mgl64.QuatIdent())
	b.SetPose(pos, mgl64.QuatIdent())
	return b
}

func TestWireframe(t *testing.T) {
	box, _ := physics.NewBox(mgl64.Vec3{1, 1, 1})
	sphere, _ := physics.NewSphere(1)

	tests := []struct {
		name  string
		shape physics.Shape
		want  int
	}{
		{"box", box, 12},
		{"sphere", sphere, 3 * circleSegments},
		{"particle", physics.NewParticle(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWireframe()
			w.AddBody(body(t, 1, tt.shape, mgl64.Vec3{}))
			if len(w.Edges) != tt.want {
				t.Errorf("edges = %d, want %d", len(w.Edges), tt.want)
			}
		})
	}

	w := NewWireframe()
	b := body(t, 1, box, mgl64.Vec3{})
	w.AddBodyPose(b, mgl64.Vec3{10, 0, 0}, mgl64.QuatIdent(), true)
	for _, e := range w.Edges {
		if e.Start[0] < 9 || e.End[0] < 9 || !e.Sleeping {
			t.Fatalf("edge %+v not moved to the given pose", e)
		}
	}
	w.Clear()
	if len(w.Edges) != 0 {
		t.Error("Clear kept edges")
	}
}

func TestRender3D(t *testing.T) {
	box, _ := physics.NewBox(mgl64.Vec3{1, 1, 1})
	wd := world.New()
	if err := wd.AddBody(body(t, 1, box, mgl64.Vec3{})); err != nil {
		t.Fatal(err)
	}
	c := NewCanvas(40, 20)
	w := NewWireframe()
	w.AddWorld(wd)
	cam := NewCamera()
	cam.Fit(wd)
	Render3D(c, w, cam)

	lit := 0
	for y := 0; y < c.DotHeight(); y++ {
		for x := 0; x < c.DotWidth(); x++ {
			if c.IsSet(x, y) {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("nothing drawn")
	}

	img := CanvasImage(c, 2)
	if b := img.Bounds(); b.Dx() != 160 || b.Dy() != 160 {
		t.Errorf("image = %v, want 160x160", b)
	}
}

func TestSparklineAndProgressBar(t *testing.T) {
	if s := Sparkline(nil, 5); s != "─────" {
		t.Errorf("empty sparkline = %q", s)
	}
	s := Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, 4)
	if utf8.RuneCountInString(s) != 4 {
		t.Errorf("sparkline %q has %d runes, want 4", s, utf8.RuneCountInString(s))
	}
	if !strings.HasSuffix(s, "█") || !strings.HasPrefix(s, "▁") {
		t.Errorf("sparkline %q should rise from ▁ to █", s)
	}
	if s := Sparkline([]float64{2, 2, 2}, 3); s != "▁▁▁" {
		t.Errorf("flat sparkline = %q", s)
	}

	bar := ProgressBar(0.5, 10, lipgloss.NewStyle())
	if strings.Count(bar, "█") != 5 || strings.Count(bar, "░") != 5 {
		t.Errorf("ProgressBar(0.5) = %q", bar)
	}
	if bar := ProgressBar(2, 4, lipgloss.NewStyle()); strings.Count(bar, "█") != 4 {
		t.Errorf("ProgressBar(2) = %q, want full", bar)
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)
	SetTheme("paper")
	if CurrentTheme.Name != "paper" {
		t.Fatalf("theme = %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "slate" {
		t.Errorf("NextTheme after paper = %s, want slate", CurrentTheme.Name)
	}
	if GetTheme("nope").Name != "slate" {
		t.Error("unknown theme should fall back to slate")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("ThemeNames length mismatch")
	}
}

func TestPoke(t *testing.T) {
	sphere, _ := physics.NewSphere(1)
	wd := world.New()
	ball := body(t, 1, sphere, mgl64.Vec3{})
	wall := body(t, 0, sphere, mgl64.Vec3{0, 10, 0})
	if err := wd.AddBody(ball); err != nil {
		t.Fatal(err)
	}
	if err := wd.AddBody(wall); err != nil {
		t.Fatal(err)
	}

	if got := Poke(wd, mgl64.Vec3{-5, 0, 0}, mgl64.Vec3{5, 0, 0}, 3); got != ball {
		t.Fatalf("Poke hit %v, want the ball", got)
	}
	if v := ball.Velocity; math.Abs(v[0]-3) > 1e-9 || math.Abs(v[1]) > 1e-9 {
		t.Errorf("velocity = %v, want (3,0,0)", v)
	}
	if got := Poke(wd, mgl64.Vec3{-5, 10, 0}, mgl64.Vec3{5, 10, 0}, 3); got != nil {
		t.Errorf("poking a static body returned %v", got)
	}
	if got := Poke(wd, mgl64.Vec3{-5, 50, 0}, mgl64.Vec3{5, 50, 0}, 3); got != nil {
		t.Errorf("miss returned %v", got)
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	build := func() (*scene.Scene, error) {
		d, err := scene.Builtin("box_on_plane")
		if err != nil {
			return nil, err
		}
		return scene.Build(d, cfg)
	}
	m, err := NewModel("box_on_plane", build, cfg.Dt)
	if err != nil {
		t.Fatal(err)
	}
	m.GIFPath = filepath.Join(t.TempDir(), "out.gif")
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_PauseAndStep(t *testing.T) {
	m := newTestModel(t)
	m = update(m, TickMsg{})
	if m.World().StepNumber != 1 {
		t.Fatalf("StepNumber = %d after a tick, want 1", m.World().StepNumber)
	}

	m = update(m, key(" "))
	if m.Running() {
		t.Fatal("space did not pause")
	}
	m = update(m, TickMsg{})
	if m.World().StepNumber != 1 {
		t.Error("paused model stepped on tick")
	}

	m = update(m, key("."))
	if m.World().StepNumber != 2 {
		t.Errorf("single step StepNumber = %d, want 2", m.World().StepNumber)
	}

	if _, cmd := m.Update(key("q")); cmd == nil {
		t.Error("q returned no command")
	}
}

func TestModel_ResetAndReplay(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 3; i++ {
		m = update(m, TickMsg{})
	}
	if len(m.history) != 3 {
		t.Fatalf("history = %d, want 3", len(m.history))
	}

	m = update(m, key("["))
	if m.playHead != 1 || m.Running() {
		t.Errorf("after rewind playHead = %d running = %v", m.playHead, m.Running())
	}
	if !strings.Contains(m.View(), "REPLAY") {
		t.Error("view does not show replay status")
	}
	m = update(m, key("]"))
	m = update(m, key("]"))
	if m.playHead != -1 {
		t.Errorf("playHead = %d after scrubbing past the end, want -1", m.playHead)
	}

	old := m.World()
	m = update(m, key("r"))
	if m.World() == old || m.World().Time != 0 || len(m.history) != 0 {
		t.Error("reset did not rebuild the scene")
	}
}

func TestModel_CameraAndView(t *testing.T) {
	m := newTestModel(t)
	yaw := m.Camera().Yaw
	m = update(m, key("l"))
	if m.Camera().Yaw <= yaw {
		t.Error("l did not orbit")
	}
	m = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.canvas.Width != 120-panelWidth-4 || m.canvas.Height != 38 {
		t.Errorf("canvas = %dx%d after resize", m.canvas.Width, m.canvas.Height)
	}
	m = update(m, TickMsg{})
	m = update(m, TickMsg{})
	v := m.View()
	if !strings.Contains(v, "BOX_ON_PLANE") || !strings.Contains(v, "Contacts") {
		t.Errorf("view missing header or stats:\n%s", v)
	}
}

func TestModel_Recording(t *testing.T) {
	m := newTestModel(t)
	m = update(m, key("g"))
	m = update(m, TickMsg{})
	m = update(m, TickMsg{})
	if len(m.frames) != 2 {
		t.Fatalf("recorded %d frames, want 2", len(m.frames))
	}
	m = update(m, key("g"))
	if m.recording {
		t.Error("g did not stop recording")
	}
	if fi, err := os.Stat(m.GIFPath); err != nil || fi.Size() == 0 {
		t.Errorf("gif not written: %v", err)
	}
}

func TestInteractiveApp(t *testing.T) {
	a := *NewInteractiveApp()
	next, _ := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = next.(app)
	if a.state != stateConfig || a.selected != scene.Names()[0] {
		t.Fatalf("state = %d selected = %q", a.state, a.selected)
	}

	a.paramCursor = 1
	dt := a.cfg.Dt
	next, _ = a.Update(key("l"))
	a = next.(app)
	if a.cfg.Dt <= dt {
		t.Errorf("dt = %v, want increased from %v", a.cfg.Dt, dt)
	}

	next, _ = a.Update(key("s"))
	a = next.(app)
	if a.state != stateSim || a.err != nil {
		t.Fatalf("start failed: state %d err %v", a.state, a.err)
	}
	if !strings.Contains(a.View(), strings.ToUpper(a.selected)) {
		t.Error("live view not shown")
	}

	next, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = next.(app)
	if a.state != stateConfig {
		t.Errorf("esc from sim state = %d, want config", a.state)
	}

	a.paramCursor = 1
	a.cfg.Dt = -1
	next, _ = a.Update(key("s"))
	a = next.(app)
	if a.state != stateConfig || a.err == nil {
		t.Error("invalid dt should keep the config screen with an error")
	}
}

func TestModel_NudgeServos(t *testing.T) {
	m := newTestModel(t)
	m = update(m, key(">"))
	if m.message != "no servos" {
		t.Errorf("message = %q without servos", m.message)
	}

	cfg := config.DefaultConfig()
	build := func() (*scene.Scene, error) {
		d, err := scene.Builtin("servo_arm")
		if err != nil {
			return nil, err
		}
		return scene.Build(d, cfg)
	}
	m, err := NewModel("servo_arm", build, cfg.Dt)
	if err != nil {
		t.Fatal(err)
	}
	start := m.scene.Servos[0].PID.Target
	m = update(m, key(">"))
	m = update(m, key(">"))
	m = update(m, key("<"))
	if got := m.scene.Servos[0].PID.Target; math.Abs(got-(start+servoStep)) > 1e-12 {
		t.Errorf("target = %v, want %v", got, start+servoStep)
	}
}
