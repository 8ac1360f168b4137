// Package renderer turns particle sets into drawable vertices and draws them.
package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/mazznoer/colorgrad"

	"github.com/pthm-cable/sph2d/particles"
)

// ErrUnknownChannel is returned by ParseChannel.
var ErrUnknownChannel = errors.New("unknown color channel")

// Channel selects the particle quantity that colors the fluid.
type Channel int

const (
	ChannelNone Channel = iota // Flat blue
	ChannelSpeed
	ChannelDensity
	ChannelPressure
)

// Channels lists every channel in cycling order.
var Channels = []Channel{ChannelNone, ChannelSpeed, ChannelDensity, ChannelPressure}

func (c Channel) String() string {
	switch c {
	case ChannelNone:
		return "none"
	case ChannelSpeed:
		return "speed"
	case ChannelDensity:
		return "density"
	case ChannelPressure:
		return "pressure"
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Next returns the following channel, wrapping around. Out-of-range
// channels restart the cycle at ChannelNone.
func (c Channel) Next() Channel {
	i := int(c) + 1
	if i < 0 || i > len(Channels) {
		return Channels[0]
	}
	return Channels[i%len(Channels)]
}

// ParseChannel maps a config name to a channel.
func ParseChannel(name string) (Channel, error) {
	for _, c := range Channels {
		if c.String() == name {
			return c, nil
		}
	}
	return ChannelNone, fmt.Errorf("%w: %q", ErrUnknownChannel, name)
}

// Vertex is one drawable particle: position followed by RGBA in [0, 1].
type Vertex struct {
	X, Y       float32
	R, G, B, A float32
}

var (
	fluidColor    = Vertex{R: 0.1, G: 0.1, B: 1, A: 1}
	boundaryColor = Vertex{A: 1}
	invalidColor  = Vertex{R: 1, G: 0, B: 1, A: 1}
)

var viridis = colorgrad.Viridis()

// VertexData appends one vertex per particle of set to dst[:0] and returns
// it. Boundary sets are black. Fluid sets are colored by ch, normalised to the
// range of that quantity over the set; non-finite values are magenta.
func VertexData(set *particles.Set, ch Channel, dst []Vertex) []Vertex {
	dst = dst[:0]
	if set.IsBoundary() {
		for i := range set.Particles {
			p := &set.Particles[i]
			v := boundaryColor
			v.X, v.Y = float32(p.Position.X), float32(p.Position.Y)
			dst = append(dst, v)
		}
		return dst
	}

	lo, hi := channelRange(set, ch)
	for i := range set.Particles {
		p := &set.Particles[i]
		v := colorFor(channelValue(p, ch), lo, hi, ch)
		v.X, v.Y = float32(p.Position.X), float32(p.Position.Y)
		dst = append(dst, v)
	}
	return dst
}

// Flatten writes vertices as consecutive (x, y, r, g, b, a) values.
func Flatten(vs []Vertex, dst []float32) []float32 {
	dst = dst[:0]
	for _, v := range vs {
		dst = append(dst, v.X, v.Y, v.R, v.G, v.B, v.A)
	}
	return dst
}

func channelValue(p *particles.Particle, ch Channel) float64 {
	switch ch {
	case ChannelSpeed:
		return math.Hypot(p.Velocity.X, p.Velocity.Y)
	case ChannelDensity:
		return p.Density
	case ChannelPressure:
		return p.Pressure
	}
	return 0
}

// channelRange returns the finite min and max of ch over the set.
func channelRange(set *particles.Set, ch Channel) (lo, hi float64) {
	if ch == ChannelNone {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := range set.Particles {
		v := channelValue(&set.Particles[i], ch)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func colorFor(v, lo, hi float64, ch Channel) Vertex {
	if ch == ChannelNone {
		return fluidColor
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalidColor
	}
	t := 0.0
	if hi > lo {
		t = (v - lo) / (hi - lo)
	}
	r, g, b, _ := viridis.At(t).RGBA()
	return Vertex{
		R: float32(r>>8) / 255,
		G: float32(g>>8) / 255,
		B: float32(b>>8) / 255,
		A: 1,
	}
}
