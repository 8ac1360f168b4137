// Package stream broadcasts rendered frames to websocket viewers.
package stream

import (
	"github.com/pthm-cable/sph2d/particles"
	"github.com/pthm-cable/sph2d/renderer"
)

// Frame is an immutable copy of the drawable scene at one step.
type Frame struct {
	Step    int        `json:"step"`
	Time    float64    `json:"time"`
	Channel string     `json:"channel"`
	Sets    []FrameSet `json:"sets"`
}

// FrameSet holds the vertices of one particle set as consecutive
// (x, y, r, g, b, a) values.
type FrameSet struct {
	Boundary bool      `json:"boundary"`
	Spacing  float64   `json:"spacing"`
	Vertices []float32 `json:"vertices"`
}

// NewFrame captures sets between steps. The frame shares no memory with the sets.
func NewFrame(step int, simTime float64, sets []*particles.Set, ch renderer.Channel) *Frame {
	f := &Frame{
		Step:    step,
		Time:    simTime,
		Channel: ch.String(),
		Sets:    make([]FrameSet, len(sets)),
	}
	var verts []renderer.Vertex
	for i, s := range sets {
		verts = renderer.VertexData(s, ch, verts)
		f.Sets[i] = FrameSet{
			Boundary: s.IsBoundary(),
			Spacing:  s.Spacing,
			Vertices: renderer.Flatten(verts, make([]float32, 0, 6*len(verts))),
		}
	}
	return f
}
