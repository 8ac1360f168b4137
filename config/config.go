// Package config provides configuration loading for the fluid experiment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all experiment configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Render    RenderConfig    `yaml:"render"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FluidConfig describes the initial fluid block.
type FluidConfig struct {
	CountX      int     `yaml:"count_x"`
	CountY      int     `yaml:"count_y"`
	Spacing     float64 `yaml:"spacing"` // Initial particle distance, also the kernel smoothing length
	RestDensity float64 `yaml:"rest_density"`
	Stiffness   float64 `yaml:"stiffness"`
	Viscosity   float64 `yaml:"viscosity"`
}

// WallConfig is a rectangular block of boundary particles.
// Offsets are in units of the fluid spacing.
type WallConfig struct {
	Name    string  `yaml:"name"`
	CountX  int     `yaml:"count_x"`
	CountY  int     `yaml:"count_y"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
}

// BoundaryConfig describes the static walls.
type BoundaryConfig struct {
	Viscosity float64      `yaml:"viscosity"`
	Walls     []WallConfig `yaml:"walls"`
}

// TimeStepConfig selects how each step's dt is chosen.
type TimeStepConfig struct {
	Policy string  `yaml:"policy"` // "fixed" or "cfl"
	CFL    float64 `yaml:"cfl"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// PhysicsConfig holds solver settings.
type PhysicsConfig struct {
	GravityX       float64        `yaml:"gravity_x"`
	GravityY       float64        `yaml:"gravity_y"`
	DT             float64        `yaml:"dt"`
	StepsPerUpdate int            `yaml:"steps_per_update"`
	SupportFactor  float64        `yaml:"support_factor"`  // Neighbor radius = factor * spacing
	NeighborSearch string         `yaml:"neighbor_search"` // brute, grid or kdtree
	TimeStep       TimeStepConfig `yaml:"time_step"`
}

// TelemetryConfig holds history and performance logging settings.
type TelemetryConfig struct {
	HistoryParticles []int `yaml:"history_particles"` // Fluid particle indices to record
	MaxSamples       int   `yaml:"max_samples"`       // History ring size, 0 = unbounded
	PerfWindow       int   `yaml:"perf_window"`       // Steps in the rolling perf window
	LogInterval      int   `yaml:"log_interval"`      // Steps between stats log lines
	WindowSteps      int   `yaml:"window_steps"`      // Steps per CSV stats window
}

// RenderConfig holds viewer settings.
type RenderConfig struct {
	ColorBy        string  `yaml:"color_by"`        // none, speed, density, pressure
	ParticleRadius float64 `yaml:"particle_radius"` // Fraction of the fluid spacing
	Margin         float64 `yaml:"margin"`          // World units kept around the scene when fitting the camera
}

// StreamConfig holds websocket streaming settings.
type StreamConfig struct {
	Addr      string `yaml:"addr"`
	FrameRate int    `yaml:"frame_rate"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Support float64 // Physics.SupportFactor * Fluid.Spacing
	Gravity r2.Vec
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file; lists are replaced wholesale.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Support = c.Physics.SupportFactor * c.Fluid.Spacing
	c.Derived.Gravity = r2.Vec{X: c.Physics.GravityX, Y: c.Physics.GravityY}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	positive := func(name string, v float64) error {
		if !(v > 0) || math.IsInf(v, 1) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalid, name, v)
		}
		return nil
	}

	if c.Fluid.CountX < 0 || c.Fluid.CountY < 0 {
		return fmt.Errorf("%w: fluid counts must not be negative", ErrInvalid)
	}
	for _, chk := range []struct {
		name string
		v    float64
	}{
		{"fluid.spacing", c.Fluid.Spacing},
		{"fluid.rest_density", c.Fluid.RestDensity},
		{"physics.dt", c.Physics.DT},
		{"physics.support_factor", c.Physics.SupportFactor},
	} {
		if err := positive(chk.name, chk.v); err != nil {
			return err
		}
	}
	if c.Fluid.Stiffness < 0 || c.Fluid.Viscosity < 0 || c.Boundary.Viscosity < 0 {
		return fmt.Errorf("%w: stiffness and viscosities must not be negative", ErrInvalid)
	}
	for i, w := range c.Boundary.Walls {
		if w.CountX < 0 || w.CountY < 0 {
			return fmt.Errorf("%w: wall %d (%s) has negative counts", ErrInvalid, i, w.Name)
		}
	}
	if c.Physics.StepsPerUpdate < 1 {
		return fmt.Errorf("%w: physics.steps_per_update must be at least 1", ErrInvalid)
	}

	switch c.Physics.NeighborSearch {
	case "brute", "grid", "kdtree":
	default:
		return fmt.Errorf("%w: unknown physics.neighbor_search %q", ErrInvalid, c.Physics.NeighborSearch)
	}

	ts := c.Physics.TimeStep
	switch ts.Policy {
	case "fixed":
	case "cfl":
		if err := positive("physics.time_step.cfl", ts.CFL); err != nil {
			return err
		}
		if err := positive("physics.time_step.min", ts.Min); err != nil {
			return err
		}
		if ts.Max < ts.Min {
			return fmt.Errorf("%w: physics.time_step.max below min", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown physics.time_step.policy %q", ErrInvalid, ts.Policy)
	}

	switch c.Render.ColorBy {
	case "none", "speed", "density", "pressure":
	default:
		return fmt.Errorf("%w: unknown render.color_by %q", ErrInvalid, c.Render.ColorBy)
	}

	if c.Telemetry.MaxSamples < 0 {
		return fmt.Errorf("%w: telemetry.max_samples must not be negative", ErrInvalid)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
