package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/sph2d/particles"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotMismatch is returned when a snapshot cannot be restored.
var ErrSnapshotMismatch = errors.New("snapshot does not match its grid")

// Snapshot holds the complete particle state of a scene between two steps.
type Snapshot struct {
	Version int     `json:"version"`
	Step    int     `json:"step"`
	SimTime float64 `json:"sim_time"`

	Sets []SetState `json:"sets"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SetState holds one particle set: its grid, constants and particles.
type SetState struct {
	CountX      int     `json:"count_x"`
	CountY      int     `json:"count_y"`
	Spacing     float64 `json:"spacing"`
	RestDensity float64 `json:"rest_density"`
	Stiffness   float64 `json:"stiffness"`
	Viscosity   float64 `json:"viscosity"`
	Boundary    bool    `json:"boundary"`

	Particles []ParticleState `json:"particles"`
}

// ParticleState holds the integrated state of one particle.
// Accelerations are recomputed by the next step and are not stored.
type ParticleState struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VelX     float64 `json:"vel_x"`
	VelY     float64 `json:"vel_y"`
	Density  float64 `json:"density"`
	Pressure float64 `json:"pressure"`
}

// NewSnapshot captures the given sets. The sets are copied.
func NewSnapshot(step int, simTime float64, sets []*particles.Set) *Snapshot {
	s := &Snapshot{
		Version: SnapshotVersion,
		Step:    step,
		SimTime: simTime,
		Sets:    make([]SetState, 0, len(sets)),
	}
	for _, set := range sets {
		cx, cy := set.Dims()
		st := SetState{
			CountX:      cx,
			CountY:      cy,
			Spacing:     set.Spacing,
			RestDensity: set.RestDensity,
			Stiffness:   set.Stiffness,
			Viscosity:   set.Viscosity,
			Boundary:    set.IsBoundary(),
			Particles:   make([]ParticleState, set.Len()),
		}
		for i := range set.Particles {
			p := &set.Particles[i]
			st.Particles[i] = ParticleState{
				X:        p.Position.X,
				Y:        p.Position.Y,
				VelX:     p.Velocity.X,
				VelY:     p.Velocity.Y,
				Density:  p.Density,
				Pressure: p.Pressure,
			}
		}
		s.Sets = append(s.Sets, st)
	}
	return s
}

// Restore rebuilds fresh particle sets from the snapshot.
func (s *Snapshot) Restore() ([]*particles.Set, error) {
	sets := make([]*particles.Set, 0, len(s.Sets))
	for i, st := range s.Sets {
		set, err := particles.NewSet(st.CountX, st.CountY, st.Spacing, st.RestDensity, st.Stiffness, st.Viscosity)
		if err != nil {
			return nil, fmt.Errorf("set %d: %w", i, err)
		}
		if set.Len() != len(st.Particles) {
			return nil, fmt.Errorf("%w: set %d has %d particles for a %dx%d grid",
				ErrSnapshotMismatch, i, len(st.Particles), st.CountX, st.CountY)
		}
		for j, ps := range st.Particles {
			p := &set.Particles[j]
			p.Position = r2.Vec{X: ps.X, Y: ps.Y}
			p.Velocity = r2.Vec{X: ps.VelX, Y: ps.VelY}
			p.Density = ps.Density
			p.Pressure = ps.Pressure
		}
		if st.Boundary {
			set.MarkBoundary()
		}
		sets = append(sets, set)
	}
	return sets, nil
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Step)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Step, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}
	return &snapshot, nil
}
