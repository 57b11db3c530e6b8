package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/rigidsim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt          = 1.0 / 60.0
	DefaultDuration    = 10.0
	DefaultMaxSubSteps = 10
	DefaultIterations  = 10
	DefaultTolerance   = 1e-7
	DefaultFriction    = 0.3
	DefaultGravity     = -9.82
	DefaultSampleEvery = 1
)

type Config struct {
	Scene       string  `yaml:"scene"`
	Dt          float64 `yaml:"dt"`
	Duration    float64 `yaml:"duration"`
	MaxSubSteps int     `yaml:"max_sub_steps"`
	// SampleEvery records a frame every n steps.
	SampleEvery int   `yaml:"sample_every"`
	Seed        int64 `yaml:"seed"`

	World      WorldConfig      `yaml:"world"`
	Broadphase BroadphaseConfig `yaml:"broadphase"`
	Solver     SolverConfig     `yaml:"solver"`
	Material   MaterialConfig   `yaml:"contact_material"`
}

type WorldConfig struct {
	Gravity           [3]float64 `yaml:"gravity"`
	AllowSleep        bool       `yaml:"allow_sleep"`
	QuatNormalizeSkip int        `yaml:"quat_normalize_skip"`
	QuatNormalizeFast bool       `yaml:"quat_normalize_fast"`
	FrictionReduction bool       `yaml:"friction_reduction"`
}

type BroadphaseConfig struct {
	// Kind is naive, grid or sap.
	Kind             string     `yaml:"kind"`
	UseBoundingBoxes bool       `yaml:"use_bounding_boxes"`
	Min              [3]float64 `yaml:"min"`
	Max              [3]float64 `yaml:"max"`
	Cells            [3]int     `yaml:"cells"`
	// Axis is the SAP sweep axis, or -1 to pick it from body spread.
	Axis int `yaml:"axis"`
}

type SolverConfig struct {
	// Kind is gs or split.
	Kind       string  `yaml:"kind"`
	Iterations int     `yaml:"iterations"`
	Tolerance  float64 `yaml:"tolerance"`
}

// MaterialConfig sets the world's default contact material.
type MaterialConfig struct {
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
	Stiffness   float64 `yaml:"stiffness"`
	Relaxation  float64 `yaml:"relaxation"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:       "box_on_plane",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		MaxSubSteps: DefaultMaxSubSteps,
		SampleEvery: DefaultSampleEvery,
		World: WorldConfig{
			Gravity:    [3]float64{0, 0, DefaultGravity},
			AllowSleep: true,
		},
		Broadphase: BroadphaseConfig{
			Kind:  "naive",
			Min:   [3]float64{-100, -100, -100},
			Max:   [3]float64{100, 100, 100},
			Cells: [3]int{10, 10, 10},
			Axis:  0,
		},
		Solver: SolverConfig{
			Kind:       "gs",
			Iterations: DefaultIterations,
			Tolerance:  DefaultTolerance,
		},
		Material: MaterialConfig{
			Friction:    DefaultFriction,
			Restitution: 0,
			Stiffness:   1e7,
			Relaxation:  3,
		},
	}
}

// Load reads a YAML config. Fields missing from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy; Config holds no references.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt %v: %w", c.Dt, dynamo.ErrInvalidTimestep)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("duration %v must be positive: %w", c.Duration, dynamo.ErrInvalidConfig)
	}
	if c.MaxSubSteps < 1 {
		return fmt.Errorf("max_sub_steps %d must be at least 1: %w", c.MaxSubSteps, dynamo.ErrInvalidConfig)
	}
	if c.SampleEvery < 1 {
		return fmt.Errorf("sample_every %d must be at least 1: %w", c.SampleEvery, dynamo.ErrInvalidConfig)
	}
	if c.World.QuatNormalizeSkip < 0 {
		return fmt.Errorf("quat_normalize_skip %d: %w", c.World.QuatNormalizeSkip, dynamo.ErrInvalidConfig)
	}

	switch c.Broadphase.Kind {
	case "naive", "sap":
	case "grid":
		for i, n := range c.Broadphase.Cells {
			if n <= 0 {
				return fmt.Errorf("grid cells[%d] = %d: %w", i, n, dynamo.ErrInvalidGrid)
			}
			if c.Broadphase.Max[i] <= c.Broadphase.Min[i] {
				return fmt.Errorf("grid extent on axis %d is empty: %w", i, dynamo.ErrInvalidGrid)
			}
		}
	default:
		return fmt.Errorf("broadphase %q: %w", c.Broadphase.Kind, dynamo.ErrInvalidConfig)
	}
	if c.Broadphase.Axis < -1 || c.Broadphase.Axis > 2 {
		return fmt.Errorf("sap axis %d: %w", c.Broadphase.Axis, dynamo.ErrInvalidConfig)
	}

	switch c.Solver.Kind {
	case "gs", "split":
	default:
		return fmt.Errorf("solver %q: %w", c.Solver.Kind, dynamo.ErrInvalidConfig)
	}
	if c.Solver.Iterations < 1 {
		return fmt.Errorf("solver iterations %d: %w", c.Solver.Iterations, dynamo.ErrInvalidConfig)
	}
	if c.Solver.Tolerance < 0 {
		return fmt.Errorf("solver tolerance %v: %w", c.Solver.Tolerance, dynamo.ErrInvalidConfig)
	}

	m := c.Material
	if m.Friction < 0 || m.Restitution < 0 || m.Stiffness <= 0 || m.Relaxation <= 0 {
		return fmt.Errorf("contact material %+v: %w", m, dynamo.ErrInvalidConfig)
	}
	return nil
}

// Steps is the number of fixed steps covering Duration.
func (c *Config) Steps() int {
	return int(math.Round(c.Duration / c.Dt))
}
