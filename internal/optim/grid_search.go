package optim

import (
	"context"
	"math"

	"github.com/san-kum/rigidsim/internal/experiment"
	"golang.org/x/sync/errgroup"
)

// GridSearch evaluates every combination of the given parameter values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.pointsRecursive(0, make(map[string]float64), &out)
	return out
}

func (g *GridSearch) pointsRecursive(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.pointsRecursive(depth+1, newParams, out)
	}
}

// Run evaluates every point with at most parallel experiments in flight.
// A failing trial records its error and does not stop the others; only
// context cancellation aborts the search.
func (g *GridSearch) Run(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	parallel int,
) ([]Trial, error) {
	points := g.Points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		eg.SetLimit(parallel)
	}
	for i, p := range points {
		i, p := i, p
		eg.Go(func() error {
			trials[i].Params = p
			exp, err := buildExperiment(p)
			if err != nil {
				trials[i].Err = err
				return nil
			}
			result, err := exp.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				trials[i].Err = err
				return nil
			}
			trials[i].Metrics = result.Metrics
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return trials, err
	}
	return trials, nil
}

// Search runs the grid and returns the parameters minimising metricName.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
	parallel int,
) (map[string]float64, float64, error) {
	trials, err := g.Run(ctx, buildExperiment, parallel)
	if err != nil {
		return nil, 0, err
	}
	params, best := Best(trials, metricName)
	return params, best, nil
}

// Best picks the successful trial with the lowest value of metricName.
func Best(trials []Trial, metricName string) (map[string]float64, float64) {
	best := math.Inf(1)
	var bestParams map[string]float64
	for _, t := range trials {
		if t.Err != nil {
			continue
		}
		val, ok := t.Metrics[metricName]
		if !ok || val >= best {
			continue
		}
		best = val
		bestParams = make(map[string]float64, len(t.Params))
		for k, v := range t.Params {
			bestParams[k] = v
		}
	}
	return bestParams, best
}
