package experiment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/scene"
	"github.com/san-kum/rigidsim/internal/sim"
)

// Experiment is one configured run of a scene.
type Experiment struct {
	cfg        *config.Config
	scene      *scene.Scene
	simulator  *sim.Simulator
	randSource *rand.Rand
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:        cfg,
		randSource: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Setup builds the scene's world and attaches metrics.
func (e *Experiment) Setup(desc *scene.Description, metrics []sim.Metric) error {
	sc, err := scene.Build(desc, e.cfg)
	if err != nil {
		return err
	}
	e.scene = sc
	e.simulator = sim.New(sc.World)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

// Perturb shifts every dynamic body by a uniform offset in [-amount, amount]
// per axis, drawn from the experiment's seeded source.
func (e *Experiment) Perturb(amount float64) {
	if e.scene == nil || amount <= 0 {
		return
	}
	for _, b := range e.scene.Bodies {
		if b.Type != physics.Dynamic {
			continue
		}
		off := mgl64.Vec3{
			(e.randSource.Float64() - 0.5) * 2 * amount,
			(e.randSource.Float64() - 0.5) * 2 * amount,
			(e.randSource.Float64() - 0.5) * 2 * amount,
		}
		pos := b.Position.Add(off)
		b.SetPose(pos, b.Quaternion)
		b.InitPosition = pos
	}
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.SimConfig())
}

func (e *Experiment) SimConfig() sim.Config {
	return sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		SampleEvery:   e.cfg.SampleEvery,
		ValidateState: true,
		Seed:          e.cfg.Seed,
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Scene() *scene.Scene { return e.scene }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
