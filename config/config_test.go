package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Fluid.CountX != 10 || cfg.Fluid.CountY != 10 {
		t.Errorf("fluid counts = %dx%d", cfg.Fluid.CountX, cfg.Fluid.CountY)
	}
	if cfg.Fluid.Spacing != 3 || cfg.Fluid.RestDensity != 3e3 || cfg.Fluid.Stiffness != 4e7 {
		t.Errorf("fluid = %+v", cfg.Fluid)
	}
	if cfg.Boundary.Viscosity != 4e-2 || len(cfg.Boundary.Walls) != 3 {
		t.Errorf("boundary = %+v", cfg.Boundary)
	}
	if cfg.Physics.DT != 0.01 || cfg.Physics.StepsPerUpdate != 5 {
		t.Errorf("physics = %+v", cfg.Physics)
	}
	if cfg.Physics.TimeStep.Policy != "fixed" {
		t.Errorf("default time step policy = %q", cfg.Physics.TimeStep.Policy)
	}
	if cfg.Derived.Support != 6 {
		t.Errorf("derived support = %v, want 6", cfg.Derived.Support)
	}
	if cfg.Derived.Gravity.Y != -9.81 || cfg.Derived.Gravity.X != 0 {
		t.Errorf("derived gravity = %v", cfg.Derived.Gravity)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	overlay := `
fluid:
  count_x: 4
  spacing: 0.5
physics:
  neighbor_search: kdtree
boundary:
  walls:
    - name: floor
      count_x: 12
      count_y: 2
      offset_x: -1
      offset_y: -2
`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Fluid.CountX != 4 || cfg.Fluid.CountY != 10 {
		t.Errorf("overlay counts = %dx%d, want 4x10", cfg.Fluid.CountX, cfg.Fluid.CountY)
	}
	if cfg.Fluid.RestDensity != 3e3 {
		t.Errorf("untouched field changed: rest density %v", cfg.Fluid.RestDensity)
	}
	if cfg.Physics.NeighborSearch != "kdtree" {
		t.Errorf("neighbor search = %q", cfg.Physics.NeighborSearch)
	}
	if len(cfg.Boundary.Walls) != 1 || cfg.Boundary.Walls[0].Name != "floor" {
		t.Errorf("walls should be replaced: %+v", cfg.Boundary.Walls)
	}
	if cfg.Derived.Support != 1 {
		t.Errorf("support = %v, want 1", cfg.Derived.Support)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("fluid: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero_spacing", func(c *Config) { c.Fluid.Spacing = 0 }},
		{"negative_count", func(c *Config) { c.Fluid.CountY = -1 }},
		{"zero_rest_density", func(c *Config) { c.Fluid.RestDensity = 0 }},
		{"negative_viscosity", func(c *Config) { c.Boundary.Viscosity = -1 }},
		{"zero_dt", func(c *Config) { c.Physics.DT = 0 }},
		{"no_steps", func(c *Config) { c.Physics.StepsPerUpdate = 0 }},
		{"bad_search", func(c *Config) { c.Physics.NeighborSearch = "octree" }},
		{"bad_policy", func(c *Config) { c.Physics.TimeStep.Policy = "adaptive" }},
		{"cfl_without_number", func(c *Config) {
			c.Physics.TimeStep.Policy = "cfl"
			c.Physics.TimeStep.CFL = 0
		}},
		{"cfl_inverted_bounds", func(c *Config) {
			c.Physics.TimeStep.Policy = "cfl"
			c.Physics.TimeStep.Max = c.Physics.TimeStep.Min / 2
		}},
		{"bad_color", func(c *Config) { c.Render.ColorBy = "vorticity" }},
		{"negative_wall", func(c *Config) { c.Boundary.Walls[0].CountX = -2 }},
	}
	for _, tt := range tests {
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		tt.mutate(cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: err = %v, want ErrInvalid", tt.name, err)
		}
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Fluid.CountX = 7
	cfg.Physics.TimeStep.Policy = "cfl"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Fluid.CountX != 7 || back.Physics.TimeStep.Policy != "cfl" {
		t.Errorf("snapshot did not survive reload: %+v %+v", back.Fluid, back.Physics.TimeStep)
	}
}
