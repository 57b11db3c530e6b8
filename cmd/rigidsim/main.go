package main

import (
	"fmt"
	"os"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/gui"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	dt          float64
	duration    float64
	seed        int64
	configFile  string
	preset      string
	iterations  int
	tolerance   float64
	friction    float64
	restitution float64
	broadphase  string
	solverKind  string
	sampleEvery int
	noSleep     bool

	bodyName  string
	axisName  string
	planeName string
	width     int
	height    int
	withAudio bool
	parallel  int
	trials    int
	rayFrom   []float64
	rayTo     []float64
	useTUI    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rigidsim",
		Short: "rigid body physics simulator",
		Long:  "rigidsim steps 3D rigid body scenes and records, plots and replays the runs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if useTUI {
				return vizInteractive()
			}
			gui.RunInteractive(withAudio)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rigidsim", "data directory")
	rootCmd.Flags().BoolVar(&useTUI, "tui", false, "use the terminal menu instead of the window")
	rootCmd.Flags().BoolVar(&withAudio, "audio", false, "play impact clicks")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().Float64("perturb", 0, "jitter dynamic bodies by up to this distance")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a body's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "", "body name (default: first moving body)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a run's frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "trace body paths to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringP("out", "o", "trace.svg", "output file")
	exportSVGCmd.Flags().StringVar(&planeName, "plane", "xz", "projection plane: xz, xy or yz")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 600, "image height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "summarize how each body moved",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&bodyName, "body", "", "only this body")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "position against velocity for one body",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&bodyName, "body", "", "body name (default: first moving body)")
	phaseCmd.Flags().StringVar(&axisName, "axis", "z", "axis: x, y or z")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "measure steps per second",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScene,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "step a scene in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui [scene]",
		Short: "step a scene in a window",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGUI,
	}
	addConfigFlags(guiCmd)
	guiCmd.Flags().BoolVar(&withAudio, "audio", false, "play impact clicks")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario.yaml]",
		Short: "run a parameter sweep",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&parallel, "parallel", 4, "worlds stepped at once")

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "rerun a scene from jittered starts",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	addConfigFlags(montecarloCmd)
	montecarloCmd.Flags().Float64("perturb", 0.01, "jitter bound per axis")
	montecarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	montecarloCmd.Flags().IntVar(&parallel, "parallel", 4, "worlds stepped at once")

	divergeCmd := &cobra.Command{
		Use:   "diverge [scene]",
		Short: "measure how fast a nudged run drifts away",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiverge,
	}
	addConfigFlags(divergeCmd)
	divergeCmd.Flags().Float64("perturb", 1e-6, "initial nudge")

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list built-in scenes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scene.Names() {
				fmt.Println(name)
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list available presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scene: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	raycastCmd := &cobra.Command{
		Use:   "raycast [scene]",
		Short: "cast a ray into a scene",
		Args:  cobra.ExactArgs(1),
		RunE:  runRaycast,
	}
	addConfigFlags(raycastCmd)
	raycastCmd.Flags().Float64SliceVar(&rayFrom, "from", []float64{0, 0, 10}, "ray start x,y,z")
	raycastCmd.Flags().Float64SliceVar(&rayTo, "to", []float64{0, 0, -10}, "ray end x,y,z")

	sonifyCmd := &cobra.Command{
		Use:   "sonify [run_id]",
		Short: "render a run's impacts to WAV",
		Args:  cobra.ExactArgs(1),
		RunE:  sonifyRun,
	}
	sonifyCmd.Flags().StringP("out", "o", "impacts.wav", "output file")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, analyzeCmd, phaseCmd,
		benchCmd, liveCmd, guiCmd, sweepCmd, montecarloCmd, divergeCmd, scenesCmd, presetsCmd, raycastCmd, sonifyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&iterations, "iterations", config.DefaultIterations, "solver iterations")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "solver tolerance")
	cmd.Flags().Float64Var(&friction, "friction", config.DefaultFriction, "default contact friction")
	cmd.Flags().Float64Var(&restitution, "restitution", 0, "default contact restitution")
	cmd.Flags().StringVar(&broadphase, "broadphase", "naive", "broadphase: naive, grid or sap")
	cmd.Flags().StringVar(&solverKind, "solver", "gs", "solver: gs or split")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "record every n steps")
	cmd.Flags().BoolVar(&noSleep, "no-sleep", false, "keep every body awake")
}

// loadConfig layers the preset, then the config file, then any flag set on
// the command line over the defaults.
func loadConfig(cmd *cobra.Command, sceneName string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if sceneName != "" {
		cfg.Scene = sceneName
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scene))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if sceneName != "" {
			cfg.Scene = sceneName
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("iterations") {
		cfg.Solver.Iterations = iterations
	}
	if flags.Changed("tolerance") {
		cfg.Solver.Tolerance = tolerance
	}
	if flags.Changed("solver") {
		cfg.Solver.Kind = solverKind
	}
	if flags.Changed("broadphase") {
		cfg.Broadphase.Kind = broadphase
	}
	if flags.Changed("friction") {
		cfg.Material.Friction = friction
	}
	if flags.Changed("restitution") {
		cfg.Material.Restitution = restitution
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if flags.Changed("no-sleep") {
		cfg.World.AllowSleep = !noSleep
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
