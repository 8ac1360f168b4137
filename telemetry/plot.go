package telemetry

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/pthm-cable/sph2d/kernel"
)

const (
	panelWidth  = 8 * vg.Inch
	panelHeight = 2 * vg.Inch
)

// HistoryPlots builds one panel per recorded field plus the max travelled
// distance, each with one line per tracked particle.
func HistoryPlots(h *History) ([]*plot.Plot, error) {
	times := h.Times()
	tracked := h.Tracked()

	plots := make([]*plot.Plot, 0, len(Fields)+1)
	for _, f := range Fields {
		p := plot.New()
		p.Title.Text = f.String()
		p.X.Label.Text = "t"
		for k, idx := range tracked {
			line, err := plotter.NewLine(xys(times, h.Series(f, k)))
			if err != nil {
				return nil, fmt.Errorf("plotting %s of particle %d: %w", f, idx, err)
			}
			line.Color = plotutil.Color(k)
			p.Add(line)
			if len(tracked) <= 8 {
				p.Legend.Add(fmt.Sprintf("p%d", idx), line)
			}
		}
		plots = append(plots, p)
	}

	p := plot.New()
	p.Title.Text = "max distance per step"
	p.X.Label.Text = "t"
	line, err := plotter.NewLine(xys(times, h.MaxDistance()))
	if err != nil {
		return nil, fmt.Errorf("plotting max distance: %w", err)
	}
	p.Add(line)
	plots = append(plots, p)

	return plots, nil
}

// SaveHistoryPlot stacks the history panels into one PNG.
func SaveHistoryPlot(h *History, path string) error {
	plots, err := HistoryPlots(h)
	if err != nil {
		return err
	}

	img := vgimg.New(panelWidth, panelHeight*vg.Length(len(plots)))
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadY: vg.Points(4)}

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	canvases := plot.Align(grid, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// KernelPlot plots W and dW/dx of a sampled kernel profile.
func KernelPlot(profile kernel.Profile) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "cubic spline kernel"
	p.X.Label.Text = "x"

	w, err := plotter.NewLine(xys(profile.X, profile.W))
	if err != nil {
		return nil, fmt.Errorf("plotting W: %w", err)
	}
	w.Color = plotutil.Color(0)

	dw, err := plotter.NewLine(xys(profile.X, profile.DWdX))
	if err != nil {
		return nil, fmt.Errorf("plotting dW/dx: %w", err)
	}
	dw.Color = plotutil.Color(1)
	dw.Dashes = plotutil.Dashes(1)

	p.Add(plotter.NewGrid(), w, dw)
	p.Legend.Add("W", w)
	p.Legend.Add("dW/dx", dw)
	return p, nil
}

// SaveKernelPlot writes the kernel profile as a PNG.
func SaveKernelPlot(profile kernel.Profile, path string) error {
	p, err := KernelPlot(profile)
	if err != nil {
		return err
	}
	if err := p.Save(panelWidth, 3*panelHeight, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// xys pairs two equal-length series, skipping non-finite values.
func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		if i >= len(y) || !isFinite(r2.Vec{X: x[i], Y: y[i]}) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	return pts
}
