package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

// Registry names the metrics an experiment can report.
type Registry struct {
	metrics map[string]func() sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func() sim.Metric),
	}

	r.metrics["kinetic_energy"] = func() sim.Metric { return metrics.NewKineticEnergy() }
	r.metrics["energy_drift"] = func() sim.Metric { return metrics.NewEnergyDrift() }
	r.metrics["max_penetration"] = func() sim.Metric { return metrics.NewMaxPenetration() }
	r.metrics["contacts"] = func() sim.Metric { return metrics.NewContactCount() }
	r.metrics["sleeping"] = func() sim.Metric { return metrics.NewSleepingFraction() }
	r.metrics["solver_iterations"] = func() sim.Metric { return metrics.NewSolverIterations() }

	return r
}

func (r *Registry) GetMetric(name string) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q: %w", name, dynamo.ErrInvalidConfig)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name]())
	}
	return out
}

// Prepare resolves cfg.Scene and sets up an experiment reporting every
// default metric.
func (r *Registry) Prepare(cfg *config.Config) (*Experiment, error) {
	desc, err := scene.Resolve(cfg.Scene)
	if err != nil {
		return nil, err
	}
	exp := New(cfg)
	if err := exp.Setup(desc, r.DefaultMetrics()); err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Scene, err)
	}
	return exp, nil
}
