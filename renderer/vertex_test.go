package renderer

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/sph2d/particles"
)

func newSet(t *testing.T, nx, ny int) *particles.Set {
	t.Helper()
	s, err := particles.NewSet(nx, ny, 1, 1000, 1, 0)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return s
}

func TestParseChannel(t *testing.T) {
	for _, c := range Channels {
		got, err := ParseChannel(c.String())
		if err != nil || got != c {
			t.Errorf("ParseChannel(%q) = %v, %v", c.String(), got, err)
		}
	}
	if _, err := ParseChannel("vorticity"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
	if ChannelPressure.Next() != ChannelNone {
		t.Errorf("pressure should wrap to none")
	}
}

func TestChannelNext(t *testing.T) {
	tests := []struct {
		in, want Channel
	}{
		{ChannelNone, ChannelSpeed},
		{ChannelDensity, ChannelPressure},
		{ChannelPressure, ChannelNone},
		{Channel(-1), ChannelNone},
		{Channel(-7), ChannelNone},
		{Channel(42), ChannelNone},
	}
	for _, tt := range tests {
		if got := tt.in.Next(); got != tt.want {
			t.Errorf("%v.Next() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVertexDataBoundaryIsBlack(t *testing.T) {
	s := newSet(t, 3, 2)
	s.MarkBoundary()

	vs := VertexData(s, ChannelSpeed, nil)
	if len(vs) != 6 {
		t.Fatalf("got %d vertices, want 6", len(vs))
	}
	for i, v := range vs {
		if v.R != 0 || v.G != 0 || v.B != 0 || v.A != 1 {
			t.Errorf("vertex %d color = (%v %v %v %v), want opaque black", i, v.R, v.G, v.B, v.A)
		}
		p := s.Particles[i].Position
		if v.X != float32(p.X) || v.Y != float32(p.Y) {
			t.Errorf("vertex %d at (%v, %v), particle at %v", i, v.X, v.Y, p)
		}
	}
}

func TestVertexDataFlatFluid(t *testing.T) {
	s := newSet(t, 2, 2)
	for _, v := range VertexData(s, ChannelNone, nil) {
		if v.R != 0.1 || v.G != 0.1 || v.B != 1 || v.A != 1 {
			t.Errorf("fluid color = (%v %v %v %v), want (0.1 0.1 1 1)", v.R, v.G, v.B, v.A)
		}
	}
}

func TestVertexDataSpeedGradient(t *testing.T) {
	s := newSet(t, 3, 1)
	s.Particles[0].Velocity.X = 0
	s.Particles[1].Velocity.X = 1
	s.Particles[2].Velocity.Y = -4

	vs := VertexData(s, ChannelSpeed, nil)

	// Viridis runs from dark purple to bright yellow.
	slow, fast := vs[0], vs[2]
	if !(fast.G > slow.G) || !(fast.R > slow.R) {
		t.Errorf("fastest (%v %v %v) should be brighter than slowest (%v %v %v)",
			fast.R, fast.G, fast.B, slow.R, slow.G, slow.B)
	}
	if !(slow.B > slow.G) {
		t.Errorf("slowest particle should be purple, got (%v %v %v)", slow.R, slow.G, slow.B)
	}
}

func TestVertexDataUniformChannel(t *testing.T) {
	s := newSet(t, 2, 2)
	vs := VertexData(s, ChannelDensity, nil)
	for i := 1; i < len(vs); i++ {
		if vs[i].R != vs[0].R || vs[i].G != vs[0].G || vs[i].B != vs[0].B {
			t.Errorf("uniform density should give one color, vertex %d differs", i)
		}
	}
}

func TestVertexDataNonFinite(t *testing.T) {
	s := newSet(t, 2, 1)
	s.Particles[1].Pressure = math.NaN()

	vs := VertexData(s, ChannelPressure, nil)
	if vs[1] != (Vertex{X: vs[1].X, Y: vs[1].Y, R: 1, G: 0, B: 1, A: 1}) {
		t.Errorf("NaN pressure should be magenta, got %+v", vs[1])
	}
	if vs[0].R == 1 && vs[0].B == 1 {
		t.Errorf("finite particle should not be magenta")
	}
}

func TestVertexDataReusesBuffer(t *testing.T) {
	s := newSet(t, 2, 2)
	buf := make([]Vertex, 0, 16)
	vs := VertexData(s, ChannelNone, buf)
	vs = VertexData(s, ChannelNone, vs)
	if len(vs) != 4 || &vs[0] != &buf[:1][0] {
		t.Errorf("expected the buffer to be reused with 4 vertices, got %d", len(vs))
	}
}

func TestFlatten(t *testing.T) {
	vs := []Vertex{
		{X: 1, Y: 2, R: 0.1, G: 0.2, B: 0.3, A: 1},
		{X: 3, Y: 4, A: 1},
	}
	got := Flatten(vs, nil)
	want := []float32{1, 2, 0.1, 0.2, 0.3, 1, 3, 4, 0, 0, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}
