package particles

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewSetGrid(t *testing.T) {
	s, err := NewSet(3, 2, 0.5, 1000, 10, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 6 {
		t.Fatalf("Len = %d, want 6", s.Len())
	}

	// x-major: index = i*countY + j
	want := []r2.Vec{
		{X: 0, Y: 0}, {X: 0, Y: 0.5},
		{X: 0.5, Y: 0}, {X: 0.5, Y: 0.5},
		{X: 1, Y: 0}, {X: 1, Y: 0.5},
	}
	for i, w := range want {
		p := &s.Particles[i]
		if p.Position != w {
			t.Errorf("particle %d at %v, want %v", i, p.Position, w)
		}
		if p.Volume() != 0.25 {
			t.Errorf("particle %d volume = %v, want 0.25", i, p.Volume())
		}
		if p.Mass() != 250 {
			t.Errorf("particle %d mass = %v, want 250", i, p.Mass())
		}
		if p.Density != 1000 {
			t.Errorf("particle %d density = %v, want 1000", i, p.Density)
		}
		if p.Set() != s {
			t.Errorf("particle %d has wrong owning set", i)
		}
		if p.Velocity != (r2.Vec{}) || p.Acceleration != (r2.Vec{}) {
			t.Errorf("particle %d not at rest", i)
		}
	}

	cx, cy := s.Dims()
	if cx != 3 || cy != 2 {
		t.Errorf("Dims = %d,%d", cx, cy)
	}
}

func TestNewSetInvalid(t *testing.T) {
	tests := []struct {
		name     string
		cx, cy   int
		spacing  float64
		wantFail bool
	}{
		{"negative_x", -1, 2, 1, true},
		{"negative_y", 2, -3, 1, true},
		{"zero_spacing", 2, 2, 0, true},
		{"negative_spacing", 2, 2, -1, true},
		{"nan_spacing", 2, 2, math.NaN(), true},
		{"inf_spacing", 2, 2, math.Inf(1), true},
		{"empty", 0, 0, 1, false},
		{"empty_row", 4, 0, 1, false},
	}
	for _, tt := range tests {
		s, err := NewSet(tt.cx, tt.cy, tt.spacing, 1, 1, 1)
		if tt.wantFail {
			if !errors.Is(err, ErrInvalidGrid) {
				t.Errorf("%s: err = %v, want ErrInvalidGrid", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if s.Len() != 0 {
			t.Errorf("%s: Len = %d, want 0", tt.name, s.Len())
		}
	}
}

func TestMassFixedAfterDensityChange(t *testing.T) {
	s, _ := NewSet(1, 1, 2, 3, 0, 0)
	p := &s.Particles[0]
	p.Density = 99
	if p.Mass() != 12 {
		t.Errorf("Mass = %v, want 12", p.Mass())
	}
}

func TestTranslateAll(t *testing.T) {
	s, _ := NewSet(2, 2, 1, 1, 1, 1)
	s.Particles[1].Velocity = r2.Vec{X: 4, Y: 5}
	before := s.Positions()

	s.TranslateAll(-3, 2.5)

	for i := range s.Particles {
		want := r2.Add(before[i], r2.Vec{X: -3, Y: 2.5})
		if s.Particles[i].Position != want {
			t.Errorf("particle %d at %v, want %v", i, s.Particles[i].Position, want)
		}
	}
	if s.Particles[1].Velocity != (r2.Vec{X: 4, Y: 5}) {
		t.Errorf("velocity changed by translation: %v", s.Particles[1].Velocity)
	}
	if s.Particles[0].Mass() != 1 || s.Particles[0].Volume() != 1 {
		t.Error("derived quantities changed by translation")
	}
}

func TestPositionsIsCopy(t *testing.T) {
	s, _ := NewSet(1, 2, 1, 1, 1, 1)
	pos := s.Positions()
	pos[0] = r2.Vec{X: 42}
	if s.Particles[0].Position == pos[0] {
		t.Error("Positions must return a copy")
	}
}

func TestBoundaryOneWay(t *testing.T) {
	s, _ := NewSet(1, 1, 1, 1, 1, 1)
	if s.IsBoundary() {
		t.Fatal("new set must not be boundary")
	}
	s.MarkBoundary()
	s.MarkBoundary()
	if !s.IsBoundary() {
		t.Error("set should be boundary after MarkBoundary")
	}
}

func TestBounds(t *testing.T) {
	empty, _ := NewSet(0, 0, 1, 1, 1, 1)
	if _, _, ok := empty.Bounds(); ok {
		t.Error("empty set should report no bounds")
	}

	s, _ := NewSet(4, 3, 2, 1, 1, 1)
	s.TranslateAll(-1, 1)
	lo, hi, ok := s.Bounds()
	if !ok {
		t.Fatal("expected bounds")
	}
	if lo != (r2.Vec{X: -1, Y: 1}) || hi != (r2.Vec{X: 5, Y: 5}) {
		t.Errorf("bounds = %v..%v", lo, hi)
	}
}

func TestWritePositions(t *testing.T) {
	s, _ := NewSet(2, 1, 1.5, 1, 1, 1)
	var buf bytes.Buffer
	if err := s.WritePositions(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "0 0" || lines[1] != "1.5 0" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestRefLess(t *testing.T) {
	tests := []struct {
		a, b Ref
		want bool
	}{
		{Ref{0, 1}, Ref{0, 2}, true},
		{Ref{0, 9}, Ref{1, 0}, true},
		{Ref{1, 0}, Ref{0, 9}, false},
		{Ref{2, 2}, Ref{2, 2}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%v.Less(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
