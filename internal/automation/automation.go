package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/optim"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Scenario sweeps config parameters over one scene.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Scene       string         `yaml:"scene"`
	Config      *config.Config `yaml:"config"`
	Sweep       []SweepParam   `yaml:"sweep"`
	// Metrics limits the reported metrics; empty means all registered ones.
	Metrics []string `yaml:"metrics"`
}

// SweepParam lists the values one parameter takes. Numeric parameters use
// Values; broadphase and solver use Kinds.
type SweepParam struct {
	Param  string    `yaml:"param"`
	Values []float64 `yaml:"values"`
	Kinds  []string  `yaml:"kinds"`
}

// Sweepable parameter names.
var Params = []string{"iterations", "tolerance", "friction", "restitution", "dt", "broadphase", "solver"}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	if len(s.Sweep) == 0 {
		return fmt.Errorf("no sweep parameters: %w", dynamo.ErrInvalidConfig)
	}
	for _, p := range s.Sweep {
		n := len(p.Values)
		if isKind(p.Param) {
			n = len(p.Kinds)
		}
		if n == 0 {
			return fmt.Errorf("parameter %q has no values: %w", p.Param, dynamo.ErrInvalidConfig)
		}
		if err := apply(config.DefaultConfig(), p, 0); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scenario) base() *config.Config {
	cfg := config.DefaultConfig()
	if s.Config != nil {
		cfg = s.Config.Clone()
	}
	if s.Scene != "" {
		cfg.Scene = s.Scene
	}
	return cfg
}

func isKind(param string) bool {
	return param == "broadphase" || param == "solver"
}

// apply sets p's i-th value on cfg. Kind parameters index into p.Kinds.
func apply(cfg *config.Config, p SweepParam, v float64) error {
	switch p.Param {
	case "iterations":
		cfg.Solver.Iterations = int(v)
	case "tolerance":
		cfg.Solver.Tolerance = v
	case "friction":
		cfg.Material.Friction = v
	case "restitution":
		cfg.Material.Restitution = v
	case "dt":
		cfg.Dt = v
	case "broadphase":
		cfg.Broadphase.Kind = p.Kinds[int(v)]
	case "solver":
		cfg.Solver.Kind = p.Kinds[int(v)]
	default:
		return fmt.Errorf("unknown sweep parameter %q: %w", p.Param, dynamo.ErrInvalidConfig)
	}
	return nil
}

// SweepRow is one grid point with its parameter labels and metrics.
type SweepRow struct {
	Params  map[string]string
	Metrics map[string]float64
	Err     error
}

type SweepTable struct {
	Params  []string
	Metrics []string
	Rows    []SweepRow
}

// Best returns the successful row with the lowest metric value.
func (t *SweepTable) Best(metric string) (SweepRow, bool) {
	best, found := SweepRow{}, false
	for _, r := range t.Rows {
		if r.Err != nil {
			continue
		}
		v, ok := r.Metrics[metric]
		if !ok || (found && v >= best.Metrics[metric]) {
			continue
		}
		best, found = r, true
	}
	return best, found
}

// RunSweep runs every combination of the scenario's parameters with at most
// parallel worlds stepping at once.
func RunSweep(ctx context.Context, sc *Scenario, parallel int) (*SweepTable, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	registry := experiment.NewRegistry()
	metricNames := sc.Metrics
	if len(metricNames) == 0 {
		metricNames = registry.ListMetrics()
	}

	names := make([]string, len(sc.Sweep))
	ranges := make([][]float64, len(sc.Sweep))
	for i, p := range sc.Sweep {
		names[i] = p.Param
		if isKind(p.Param) {
			for k := range p.Kinds {
				ranges[i] = append(ranges[i], float64(k))
			}
		} else {
			ranges[i] = p.Values
		}
	}

	build := func(point map[string]float64) (*experiment.Experiment, error) {
		cfg := sc.base()
		for _, p := range sc.Sweep {
			if err := apply(cfg, p, point[p.Param]); err != nil {
				return nil, err
			}
		}
		desc, err := scene.Resolve(cfg.Scene)
		if err != nil {
			return nil, err
		}
		metrics := make([]sim.Metric, 0, len(metricNames))
		for _, name := range metricNames {
			m, err := registry.GetMetric(name)
			if err != nil {
				return nil, err
			}
			metrics = append(metrics, m)
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(desc, metrics); err != nil {
			return nil, err
		}
		return exp, nil
	}

	trials, err := optim.NewGridSearch(names, ranges).Run(ctx, build, parallel)
	if err != nil {
		return nil, err
	}

	table := &SweepTable{Params: names, Metrics: metricNames, Rows: make([]SweepRow, len(trials))}
	for i, tr := range trials {
		row := SweepRow{Params: make(map[string]string, len(names)), Metrics: tr.Metrics, Err: tr.Err}
		for _, p := range sc.Sweep {
			v := tr.Params[p.Param]
			if isKind(p.Param) {
				row.Params[p.Param] = p.Kinds[int(v)]
			} else {
				row.Params[p.Param] = fmt.Sprintf("%g", v)
			}
		}
		table.Rows[i] = row
	}
	return table, nil
}

// MonteCarloConfig defines Monte Carlo simulation parameters
type MonteCarloConfig struct {
	Config *config.Config
	// Perturbation bounds the per-axis shift of each dynamic body.
	Perturbation float64
	NumTrials    int
	Parallel     int
}

// MonteCarloResult holds the outcome of one perturbed trial.
type MonteCarloResult struct {
	TrialID int
	Seed    int64
	Metrics map[string]float64
	// Stable is false when the run diverged.
	Stable bool
}

// RunMonteCarlo runs the configured scene NumTrials times, each with
// initial positions jittered from its own seed.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("trials %d: %w", cfg.NumTrials, dynamo.ErrInvalidConfig)
	}
	base := cfg.Config
	if base == nil {
		base = config.DefaultConfig()
	}
	seed := base.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	registry := experiment.NewRegistry()
	results := make([]MonteCarloResult, cfg.NumTrials)

	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Parallel > 0 {
		eg.SetLimit(cfg.Parallel)
	}
	for trial := 0; trial < cfg.NumTrials; trial++ {
		trial := trial
		eg.Go(func() error {
			tc := base.Clone()
			tc.Seed = seed + int64(trial)

			exp, err := registry.Prepare(tc)
			if err != nil {
				return fmt.Errorf("trial %d: %w", trial, err)
			}
			exp.Perturb(cfg.Perturbation)

			res := MonteCarloResult{TrialID: trial, Seed: tc.Seed, Stable: true}
			result, err := exp.Run(ctx)
			switch {
			case errors.Is(err, dynamo.ErrUnstable):
				res.Stable = false
			case err != nil:
				return fmt.Errorf("trial %d: %w", trial, err)
			default:
				res.Metrics = result.Metrics
			}
			results[trial] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats counts stable trials and reports the mean and standard
// deviation of metric over them.
func MonteCarloStats(results []MonteCarloResult, metric string) (stableCount, unstableCount int, mean, std float64) {
	vals := make([]float64, 0, len(results))
	for _, r := range results {
		if !r.Stable {
			unstableCount++
			continue
		}
		stableCount++
		if v, ok := r.Metrics[metric]; ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return
	}
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return
}
