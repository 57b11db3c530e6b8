package gui

import (
	"fmt"
	"math"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/rigidsim/internal/audio"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/viz"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColStatic  = rl.NewColor(90, 90, 90, 255)
	ColAwake   = rl.NewColor(158, 206, 106, 255)
	ColSleepy  = rl.NewColor(224, 175, 104, 255)
	ColAsleep  = rl.NewColor(122, 162, 247, 255)
)

const (
	screenW, screenH = 1280, 720
	gridSlices       = 20
	gridSpacing      = 1.0
	pokeStrength     = 5.0
	telemetryLen     = 200
)

type App struct {
	Scenes   []string
	Selected int
	InMenu   bool
	Presets  []string
	Preset   int

	Name      string
	Cfg       *config.Config
	Scene     *scene.Scene
	Camera    *viz.Camera
	Running   bool
	Telemetry []float64
	Font      rl.Font

	Audio  *audio.Processor
	detach func()

	dt      float64
	wire    *viz.Wireframe
	message string
}

func initWindow() {
	rl.InitWindow(screenW, screenH, "rigidsim")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// NewApp opens on the scene menu when startScene is empty.
func NewApp(startScene string, cfg *config.Config, withAudio bool) *App {
	a := &App{
		Scenes:    scene.Names(),
		InMenu:    startScene == "",
		Cfg:       cfg,
		Camera:    viz.NewCamera(),
		Telemetry: make([]float64, 0, telemetryLen),
		Font:      rl.GetFontDefault(),
		wire:      viz.NewWireframe(),
	}
	if withAudio {
		p := audio.NewProcessor()
		if err := p.Start(); err != nil {
			physics.Logger().Printf("audio disabled: %v", err)
		} else {
			a.Audio = p
		}
	}
	if startScene != "" {
		a.load(startScene)
	}
	return a
}

// Run opens a window on one scene and blocks until it is closed.
func Run(sceneName string, cfg *config.Config, withAudio bool) {
	initWindow()
	defer rl.CloseWindow()
	a := NewApp(sceneName, cfg, withAudio)
	defer a.Close()
	a.RunLoop()
}

// RunInteractive starts on the scene menu.
func RunInteractive(withAudio bool) {
	Run("", nil, withAudio)
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) Close() {
	if a.detach != nil {
		a.detach()
	}
	if a.Audio != nil {
		a.Audio.Stop()
	}
}

func (a *App) config(name string) *config.Config {
	if a.Cfg != nil {
		return a.Cfg.Clone()
	}
	if len(a.Presets) > 0 {
		if p := config.GetPreset(name, a.Presets[a.Preset]); p != nil {
			return p
		}
	}
	cfg := config.DefaultConfig()
	cfg.Scene = name
	return cfg
}

// load builds the named scene, keeping the previous one on failure.
func (a *App) load(name string) {
	cfg := a.config(name)
	d, err := scene.Resolve(name)
	if err == nil {
		var sc *scene.Scene
		if sc, err = scene.Build(d, cfg); err == nil {
			if a.detach != nil {
				a.detach()
				a.detach = nil
			}
			a.Name, a.Scene, a.dt = name, sc, cfg.Dt
			a.Camera.Fit(sc.World)
			a.Telemetry = a.Telemetry[:0]
			a.Running, a.InMenu = true, false
			a.message = ""
			if a.Audio != nil {
				a.detach = a.Audio.Attach(sc.World)
			}
			return
		}
	}
	a.message = err.Error()
	if a.Scene == nil {
		a.InMenu = true
	}
}

// Update handles input and steps the world. It returns false to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}
	if a.InMenu {
		a.updateMenu()
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu, a.Running = true, false
		a.Presets, a.Preset = append([]string{"default"}, config.ListPresets(a.Scenes[a.Selected])...), 0
		return true
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.load(a.Name)
	}
	if rl.IsKeyPressed(rl.KeyF) {
		a.Camera.Fit(a.Scene.World)
	}

	a.updateCamera()

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		ray := rl.GetMouseRay(rl.GetMousePosition(), a.rlCamera())
		from := fromRL(ray.Position)
		to := from.Add(fromRL(ray.Direction).Mul(1000))
		if b := viz.Poke(a.Scene.World, from, to, pokeStrength); b != nil {
			a.message = fmt.Sprintf("poked %s", b.Name)
		}
	}

	switch {
	case a.Running:
		a.step(float64(rl.GetFrameTime()))
	case rl.IsKeyPressed(rl.KeyPeriod):
		a.step(0)
	}
	return true
}

// step advances by frame seconds of wall time, or one fixed step when frame
// is zero.
func (a *App) step(frame float64) {
	w := a.Scene.World
	if err := w.Step(a.dt, frame, a.maxSubSteps()); err != nil {
		a.message = err.Error()
		a.Running = false
		return
	}
	a.Telemetry = append(a.Telemetry, metrics.TotalKinetic(w))
	if len(a.Telemetry) > telemetryLen {
		a.Telemetry = a.Telemetry[1:]
	}
}

func (a *App) maxSubSteps() int {
	if a.Cfg != nil {
		return a.Cfg.MaxSubSteps
	}
	return config.DefaultMaxSubSteps
}

func (a *App) updateMenu() {
	n := len(a.Scenes)
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.Selected = (a.Selected + 1) % n
		a.Presets, a.Preset = append([]string{"default"}, config.ListPresets(a.Scenes[a.Selected])...), 0
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.Selected = (a.Selected - 1 + n) % n
		a.Presets, a.Preset = append([]string{"default"}, config.ListPresets(a.Scenes[a.Selected])...), 0
	}
	if len(a.Presets) == 0 {
		a.Presets = append([]string{"default"}, config.ListPresets(a.Scenes[a.Selected])...)
	}
	if rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressed(rl.KeyL) {
		a.Preset = (a.Preset + 1) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressed(rl.KeyH) {
		a.Preset = (a.Preset - 1 + len(a.Presets)) % len(a.Presets)
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		a.load(a.Scenes[a.Selected])
	}
}

func (a *App) updateCamera() {
	dt := float64(rl.GetFrameTime())
	if rl.IsKeyDown(rl.KeyA) || rl.IsKeyDown(rl.KeyLeft) {
		a.Camera.Orbit(-1.5*dt, 0)
	}
	if rl.IsKeyDown(rl.KeyD) || rl.IsKeyDown(rl.KeyRight) {
		a.Camera.Orbit(1.5*dt, 0)
	}
	if rl.IsKeyDown(rl.KeyW) || rl.IsKeyDown(rl.KeyUp) {
		a.Camera.Orbit(0, 1.5*dt)
	}
	if rl.IsKeyDown(rl.KeyS) || rl.IsKeyDown(rl.KeyDown) {
		a.Camera.Orbit(0, -1.5*dt)
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		d := rl.GetMouseDelta()
		a.Camera.Orbit(float64(d.X)*0.005, float64(d.Y)*0.005)
	}
	if wheel := rl.GetMouseWheelMove(); wheel > 0 {
		a.Camera.ZoomIn()
	} else if wheel < 0 {
		a.Camera.ZoomOut()
	}
}

func (a *App) rlCamera() rl.Camera3D {
	return rl.NewCamera3D(toRL(a.Camera.Eye()), toRL(a.Camera.Target), rl.NewVector3(0, 1, 0),
		float32(a.Camera.FOV*180/math.Pi), rl.CameraPerspective)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawSim()
		a.DrawHUD()
	}
	rl.EndDrawing()
}

func (a *App) drawSim() {
	rl.BeginMode3D(a.rlCamera())
	for _, b := range a.Scene.World.Bodies() {
		a.drawBody(b)
	}
	rl.EndMode3D()
}

func (a *App) DrawHUD() {
	w := a.Scene.World
	a.drawText("rigidsim", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Name), 160, 34, 16, ColText)

	status, col := "RUNNING", ColSelect
	if !a.Running {
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	sleeping := 0
	for _, b := range w.Bodies() {
		if b.SleepState == physics.Sleeping {
			sleeping++
		}
	}
	a.drawText(fmt.Sprintf("t %.2fs  step %d  bodies %d  contacts %d  sleeping %d",
		w.Time, w.StepNumber, w.NumObjects(), len(w.Contacts), sleeping), 30, 70, 14, ColText)
	if a.message != "" {
		a.drawText(a.message, 30, 92, 14, ColSleepy)
	}

	a.DrawTelemetry()
	if a.Audio != nil {
		bars := int(math.Min(a.Audio.Level()*20, 20))
		a.drawText(fmt.Sprintf("AUDIO [%-20s]", strings.Repeat("|", bars)), 30, 650, 14, ColAccent)
	}
	a.drawText("[SPACE] PAUSE  [.] STEP  [R] RESET  [F] FIT  [CLICK] POKE  [ESC] MENU  [Q] QUIT", 560, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) drawMenu() {
	a.drawText("rigidsim", 50, 50, 40, ColSelect)
	a.drawText("Select Scene", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Scenes {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
			if len(a.Presets) > 0 {
				a.drawText(fmt.Sprintf("< %s >", a.Presets[a.Preset]), 360, y, 20, ColAccent)
			}
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}
	if a.message != "" {
		a.drawText(a.message, 50, y+20, 14, ColSleepy)
	}
	a.drawText("UP/DOWN: SCENE  LEFT/RIGHT: PRESET  ENTER: RUN  Q: QUIT", 760, 680, 14, ColTextDim)
}
