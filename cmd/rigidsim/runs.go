package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/analysis"
	"github.com/san-kum/rigidsim/internal/audio"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/export"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	cfg, err := loadConfig(cmd, name)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.NewRegistry().Prepare(cfg)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetFloat64("perturb")
	exp.Perturb(amount)

	fmt.Printf("running %s...\n", cfg.Scene)
	start := time.Now()

	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("frames: %d\n", len(result.Frames))
	fmt.Printf("impacts: %d\n", len(result.Impacts))
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tSTEPS\tBODIES\tIMPACTS")

	for _, run := range runs {
		dur, step := 0.0, 0.0
		if run.Config != nil {
			dur, step = run.Config.Duration, run.Config.Dt
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			dur,
			step,
			run.Steps,
			len(run.Bodies),
			run.Impacts,
		)
	}

	return w.Flush()
}

// loadRun reads a stored run's metadata and frames.
func loadRun(runID string) (*storage.RunMetadata, []sim.Frame, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("run %s has no frames", runID)
	}
	return meta, frames, nil
}

// pickBody resolves a body by name, or returns the first one that moved.
func pickBody(names []string, frames []sim.Frame, name string) (int, error) {
	if name != "" {
		for i, n := range names {
			if n == name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("no body named %q (have %v)", name, names)
	}
	first, last := frames[0], frames[len(frames)-1]
	for i := range first.Bodies {
		if i < len(last.Bodies) && first.Bodies[i].Position != last.Bodies[i].Position {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no body moved")
}

func upAxis(meta *storage.RunMetadata) int {
	if meta.Config == nil {
		return analysis.AxisZ
	}
	g := meta.Config.World.Gravity
	up := analysis.AxisZ
	for i := range g {
		if math.Abs(g[i]) > math.Abs(g[up]) {
			up = i
		}
	}
	return up
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	body, err := pickBody(meta.Bodies, frames, bodyName)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("body: %s\n", meta.Bodies[body])
	fmt.Printf("samples: %d\n\n", len(frames))

	for axis, label := range []string{"x", "y", "z"} {
		graph := asciigraph.Plot(analysis.Series(frames, body, axis),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(label+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	speed := make([]float64, len(frames))
	for i, f := range frames {
		speed[i] = f.Bodies[body].Velocity.Len()
	}
	fmt.Println(asciigraph.Plot(speed,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("speed"),
	))
	return nil
}

// storedResult rebuilds the parts of a result a stored run keeps.
func storedResult(meta *storage.RunMetadata, frames []sim.Frame) (*sim.Result, float64, float64) {
	result := &sim.Result{
		Frames:     frames,
		BodyNames:  meta.Bodies,
		Metrics:    meta.Metrics,
		Events:     meta.Events,
		StepsTaken: meta.Steps,
	}
	step, dur := 0.0, frames[len(frames)-1].Time
	if meta.Config != nil {
		step, dur = meta.Config.Dt, meta.Config.Duration
	}
	return result, step, dur
}

func exportRun(cmd *cobra.Command, args []string) error {
	outFile, _ := cmd.Flags().GetString("out")
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	result, step, dur := storedResult(meta, frames)
	if outFile == "" {
		return storage.EncodeJSON(os.Stdout, meta.Scene, step, dur, result)
	}
	if err := storage.ExportJSON(outFile, meta.Scene, step, dur, result); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	outFile, _ := cmd.Flags().GetString("out")
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.EncodeFramesCSV(os.Stdout, meta.Bodies, frames)
	}
	if err := storage.WriteFramesCSV(outFile, meta.Bodies, frames); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	outFile, _ := cmd.Flags().GetString("out")
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if err := export.WriteSVG(outFile, frames, meta.Bodies, nil, export.Plane(planeName), width, height); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	up := upAxis(meta)

	bodies := make([]int, 0, len(meta.Bodies))
	if bodyName != "" {
		b, err := pickBody(meta.Bodies, frames, bodyName)
		if err != nil {
			return err
		}
		bodies = append(bodies, b)
	} else {
		for i := range meta.Bodies {
			bodies = append(bodies, i)
		}
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMIN\tMAX\tBOUNCES\tREST\tFREQ")
	for _, b := range bodies {
		s := analysis.Summarize(frames, b, up)
		rest := "-"
		if s.RestTime >= 0 {
			rest = fmt.Sprintf("%.2fs", s.RestTime)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%d\t%s\t%.3f hz\n",
			meta.Bodies[b], s.MinHeight, s.MaxHeight, s.Bounces, rest, s.Frequency)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	body, err := pickBody(meta.Bodies, frames, bodyName)
	if err != nil {
		return nil
	}
	ps := analysis.PowerSpectrum(analysis.Series(frames, body, up))
	if len(ps) < 4 {
		return nil
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(ps[1:len(ps)/2],
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+meta.Bodies[body]+" height)"),
	))
	if len(frames) > 1 {
		freq := analysis.DominantFrequency(analysis.Series(frames, body, up), frames[1].Time-frames[0].Time)
		fmt.Printf("\ndominant frequency: %.3f hz\n", freq)
		if freq > 0 {
			fmt.Printf("period: %.3f s\n", 1.0/freq)
		}
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, frames, err := loadRun(args[0])
	if err != nil {
		return err
	}
	body, err := pickBody(meta.Bodies, frames, bodyName)
	if err != nil {
		return err
	}
	axis := strings.Index("xyz", strings.ToLower(axisName))
	if len(axisName) != 1 || axis < 0 {
		return fmt.Errorf("axis %q: want x, y or z", axisName)
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("body: %s, axis: %s\n\n", meta.Bodies[body], axisName)
	fmt.Print(analysis.NewPhasePortrait(frames, body, axis).ASCII(70, 20))
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	desc, err := scene.Resolve(args[0])
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0}
	dts := []float64{1.0 / 30, 1.0 / 60, 1.0 / 120}

	fmt.Printf("benchmarking %s\n\n", args[0])
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, step := range dts {
			cfg := config.DefaultConfig()
			cfg.Scene = args[0]
			cfg.Dt = step
			cfg.Duration = dur
			cfg.Seed = 42

			exp := experiment.New(cfg)
			if err := exp.Setup(desc, nil); err != nil {
				return err
			}

			start := time.Now()
			result, err := exp.Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			steps := result.StepsTaken
			stepsPerSec := float64(steps) / elapsed.Seconds()

			fmt.Fprintf(w, "%.1fs\t%.4fs\t%d\t%v\t%.0f\n",
				dur, step, steps, elapsed, stepsPerSec)
		}
	}

	return w.Flush()
}

// sonifyRun replays the stored config to recover the impacts, which the run
// directory only counts.
func sonifyRun(cmd *cobra.Command, args []string) error {
	outFile, _ := cmd.Flags().GetString("out")
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if meta.Config == nil {
		return fmt.Errorf("run %s has no stored config", meta.ID)
	}

	exp, err := experiment.NewRegistry().Prepare(meta.Config)
	if err != nil {
		return err
	}
	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	if len(result.Impacts) != meta.Impacts {
		fmt.Fprintf(os.Stderr, "warning: replay produced %d impacts, run recorded %d\n", len(result.Impacts), meta.Impacts)
	}
	if len(result.Impacts) == 0 {
		return fmt.Errorf("run %s has no impacts", meta.ID)
	}

	if err := audio.RenderImpacts(result.Impacts, outFile); err != nil {
		return err
	}
	fmt.Printf("wrote %d impacts to %s\n", len(result.Impacts), outFile)
	return nil
}
