package renderer

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/sph2d/camera"
	"github.com/pthm-cable/sph2d/particles"
)

const (
	upperHalf = '▀'
	lowerHalf = '▄'
)

// TerminalRenderer rasterises particle sets onto a tcell screen. Each cell
// holds two vertical pixels using half-block runes, so the camera viewport is
// cols by 2*rows.
type TerminalRenderer struct {
	Channel Channel

	pixels []tcell.Color
	cols   int
	rows   int
	verts  []Vertex
}

// NewTerminalRenderer creates a renderer for the given channel.
func NewTerminalRenderer(ch Channel) *TerminalRenderer {
	return &TerminalRenderer{Channel: ch}
}

// Viewport returns the camera viewport for a screen of cols by rows cells,
// leaving the last row for the status line.
func Viewport(cols, rows int) (w, h float32) {
	if rows > 1 {
		rows--
	}
	return float32(cols), float32(2 * rows)
}

// Draw rasterises sets through cam and writes status on the last row.
func (r *TerminalRenderer) Draw(screen tcell.Screen, cam *camera.Camera, sets []*particles.Set, status string) {
	cols, rows := screen.Size()
	plotRows := rows
	if plotRows > 1 {
		plotRows--
	}
	r.resize(cols, 2*plotRows)

	for _, s := range sets {
		if s.IsBoundary() {
			r.rasterise(cam, s)
		}
	}
	for _, s := range sets {
		if !s.IsBoundary() {
			r.rasterise(cam, s)
		}
	}

	screen.Clear()
	for y := 0; y < plotRows; y++ {
		for x := 0; x < cols; x++ {
			top := r.pixels[(2*y)*cols+x]
			bottom := r.pixels[(2*y+1)*cols+x]
			switch {
			case top == tcell.ColorDefault && bottom == tcell.ColorDefault:
				continue
			case top == tcell.ColorDefault:
				screen.SetContent(x, y, lowerHalf, nil, tcell.StyleDefault.Foreground(bottom))
			default:
				screen.SetContent(x, y, upperHalf, nil, tcell.StyleDefault.Foreground(top).Background(bottom))
			}
		}
	}
	if rows > plotRows {
		drawText(screen, 0, rows-1, cols, status)
	}
	screen.Show()
}

func (r *TerminalRenderer) resize(cols, rows int) {
	n := cols * rows
	if cap(r.pixels) < n {
		r.pixels = make([]tcell.Color, n)
	}
	r.pixels = r.pixels[:n]
	for i := range r.pixels {
		r.pixels[i] = tcell.ColorDefault
	}
	r.cols, r.rows = cols, rows
}

func (r *TerminalRenderer) rasterise(cam *camera.Camera, s *particles.Set) {
	r.verts = VertexData(s, r.Channel, r.verts)
	for i, v := range r.verts {
		sx, sy := cam.WorldToScreen(s.Particles[i].Position)
		x := int(math.Floor(float64(sx)))
		y := int(math.Floor(float64(sy)))
		if x < 0 || y < 0 || x >= r.cols || y >= r.rows {
			continue
		}
		r.pixels[y*r.cols+x] = terminalColor(v)
	}
}

// Pixel returns the color rasterised at pixel (x, y) by the last Draw.
func (r *TerminalRenderer) Pixel(x, y int) tcell.Color {
	if x < 0 || y < 0 || x >= r.cols || y >= r.rows {
		return tcell.ColorDefault
	}
	return r.pixels[y*r.cols+x]
}

func terminalColor(v Vertex) tcell.Color {
	// Black walls would vanish on a dark terminal.
	if v.R == 0 && v.G == 0 && v.B == 0 {
		return tcell.ColorGray
	}
	return tcell.NewRGBColor(int32(v.R*255), int32(v.G*255), int32(v.B*255))
}

func drawText(screen tcell.Screen, x, y, maxW int, text string) {
	style := tcell.StyleDefault.Reverse(true)
	i := 0
	for _, ch := range text {
		if i >= maxW {
			return
		}
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
