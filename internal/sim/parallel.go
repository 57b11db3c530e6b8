package sim

import (
	"context"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/world"
)

// Builder creates an independent world for one ensemble member.
type Builder func(seed int64) (*world.World, error)

// Ensemble runs the same scene several times with consecutive seeds, spread
// over dynamo.DefaultWorkers goroutines. Metrics are created per run since
// they hold state.
type Ensemble struct {
	build     Builder
	metrics   func() []Metric
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Builder, metrics func() []Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, metrics: metrics, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	dynamo.ParallelFor(e.numRuns, 1, func(start, end int) {
		for idx := start; idx < end; idx++ {
			results[idx], errs[idx] = e.runOne(ctx, cfg, idx)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (e *Ensemble) runOne(ctx context.Context, cfg Config, idx int) (*Result, error) {
	cfg.Seed = e.seedStart + int64(idx)
	w, err := e.build(cfg.Seed)
	if err != nil {
		return nil, err
	}
	s := New(w)
	if e.metrics != nil {
		for _, m := range e.metrics() {
			s.AddMetric(m)
		}
	}
	return s.Run(ctx, cfg)
}
