package experiment

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/config"
)

// ErrInvalidParams is wrapped by every parameter validation failure.
var ErrInvalidParams = errors.New("invalid experiment parameters")

// TimeStepPolicy selects how the step length is chosen.
type TimeStepPolicy string

const (
	// PolicyFixed always steps by Params.DT.
	PolicyFixed TimeStepPolicy = "fixed"
	// PolicyCFL asks the simulation for a CFL-limited step every step.
	PolicyCFL TimeStepPolicy = "cfl"
)

// Wall is a rectangular block of boundary particles. Offsets are in units of
// the fluid spacing.
type Wall struct {
	Name           string
	CountX, CountY int
	OffsetX        float64
	OffsetY        float64
}

// Params describes one scene. Reset takes a full Params so that the scene is
// always rebuilt from scratch.
type Params struct {
	CountX, CountY    int
	Spacing           float64
	RestDensity       float64
	Stiffness         float64
	Viscosity         float64
	BoundaryViscosity float64
	Walls             []Wall

	Gravity        r2.Vec
	DT             float64
	StepsPerUpdate int
	SupportFactor  float64 // Neighbor radius in units of spacing

	Policy TimeStepPolicy
	CFL    float64
	MinDT  float64
	MaxDT  float64
}

// ParamsFromConfig extracts scene parameters from a loaded config.
func ParamsFromConfig(cfg *config.Config) Params {
	walls := make([]Wall, len(cfg.Boundary.Walls))
	for i, w := range cfg.Boundary.Walls {
		walls[i] = Wall{
			Name:    w.Name,
			CountX:  w.CountX,
			CountY:  w.CountY,
			OffsetX: w.OffsetX,
			OffsetY: w.OffsetY,
		}
	}
	ts := cfg.Physics.TimeStep
	return Params{
		CountX:            cfg.Fluid.CountX,
		CountY:            cfg.Fluid.CountY,
		Spacing:           cfg.Fluid.Spacing,
		RestDensity:       cfg.Fluid.RestDensity,
		Stiffness:         cfg.Fluid.Stiffness,
		Viscosity:         cfg.Fluid.Viscosity,
		BoundaryViscosity: cfg.Boundary.Viscosity,
		Walls:             walls,
		Gravity:           cfg.Derived.Gravity,
		DT:                cfg.Physics.DT,
		StepsPerUpdate:    cfg.Physics.StepsPerUpdate,
		SupportFactor:     cfg.Physics.SupportFactor,
		Policy:            TimeStepPolicy(ts.Policy),
		CFL:               ts.CFL,
		MinDT:             ts.Min,
		MaxDT:             ts.Max,
	}
}

// Support returns the neighbor search radius.
func (p Params) Support() float64 {
	return p.SupportFactor * p.Spacing
}

// Validate reports the first invalid parameter. Counts, spacing and support
// are checked again by the particle and simulation packages.
func (p Params) Validate() error {
	if p.StepsPerUpdate < 1 {
		return fmt.Errorf("%w: steps per update %d", ErrInvalidParams, p.StepsPerUpdate)
	}
	switch p.Policy {
	case PolicyFixed, "":
		if !(p.DT > 0) || math.IsInf(p.DT, 1) {
			return fmt.Errorf("%w: dt %v", ErrInvalidParams, p.DT)
		}
	case PolicyCFL:
		if !(p.CFL > 0) {
			return fmt.Errorf("%w: cfl number %v", ErrInvalidParams, p.CFL)
		}
	default:
		return fmt.Errorf("%w: unknown time step policy %q", ErrInvalidParams, p.Policy)
	}
	if p.Stiffness < 0 || p.Viscosity < 0 || p.BoundaryViscosity < 0 {
		return fmt.Errorf("%w: stiffness and viscosities must not be negative", ErrInvalidParams)
	}
	return nil
}
