package config

import "sort"

// Presets are complete configs keyed by scene, then by preset name.
var Presets = map[string]map[string]*Config{
	"box_on_plane": {
		"rest": preset("box_on_plane", func(c *Config) {
			c.Duration = 5
		}),
		"bouncy": preset("box_on_plane", func(c *Config) {
			c.Material.Restitution = 0.6
			c.World.AllowSleep = false
		}),
		"ice": preset("box_on_plane", func(c *Config) {
			c.Material.Friction = 0
		}),
	},
	"sphere_stack": {
		"default": preset("sphere_stack", nil),
		"precise": preset("sphere_stack", func(c *Config) {
			c.Solver.Iterations = 40
			c.Dt = 1.0 / 120.0
		}),
	},
	"box_stack": {
		"tall": preset("box_stack", func(c *Config) {
			c.Solver.Iterations = 20
			c.Duration = 15
		}),
		"split": preset("box_stack", func(c *Config) {
			c.Solver.Kind = "split"
			c.Broadphase.Kind = "sap"
			c.Broadphase.Axis = 2
		}),
		"reduced_friction": preset("box_stack", func(c *Config) {
			c.World.FrictionReduction = true
		}),
	},
	"pendulum_chain": {
		"swing": preset("pendulum_chain", func(c *Config) {
			c.World.AllowSleep = false
			c.Duration = 20
		}),
		"stiff": preset("pendulum_chain", func(c *Config) {
			c.World.AllowSleep = false
			c.Solver.Iterations = 30
			c.Dt = 1.0 / 120.0
		}),
	},
	"hinge_motor": {
		"spin": preset("hinge_motor", func(c *Config) {
			c.World.AllowSleep = false
			c.World.Gravity = [3]float64{}
		}),
	},
	"terrain": {
		"roll": preset("terrain", func(c *Config) {
			c.Broadphase.Kind = "grid"
			c.Broadphase.Min = [3]float64{-20, -20, -5}
			c.Broadphase.Max = [3]float64{20, 20, 20}
		}),
	},
	"mesh_drop": {
		"default": preset("mesh_drop", nil),
	},
	"particles": {
		"rain": preset("particles", func(c *Config) {
			c.Duration = 5
			c.Material.Restitution = 0.3
		}),
	},
	"kinematic_sweep": {
		"push": preset("kinematic_sweep", func(c *Config) {
			c.World.AllowSleep = false
		}),
	},
}

func preset(scene string, tweak func(*Config)) *Config {
	c := DefaultConfig()
	c.Scene = scene
	if tweak != nil {
		tweak(c)
	}
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, name string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
