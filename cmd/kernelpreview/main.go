// Kernel preview tool - interactive plot of the cubic spline kernel with sliders.
//
// Usage: go run ./cmd/kernelpreview [-png kernel.png]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/kernel"
	"github.com/pthm-cable/sph2d/telemetry"
	"github.com/pthm-cable/sph2d/ui"
)

const (
	windowWidth  = 1000
	windowHeight = 620
	plotWidth    = 640
	panelWidth   = windowWidth - plotWidth - 30
)

// previewParams holds the sampled kernel settings.
type previewParams struct {
	H       float32
	Range   float32 // Plot x range in units of h
	Samples int
	Spacing float32 // Lattice spacing in units of h
}

func defaultParams() previewParams {
	return previewParams{H: 1, Range: 2.5, Samples: 100, Spacing: 1}
}

func (p previewParams) sample() (kernel.Profile, error) {
	h := float64(p.H)
	r := float64(p.Range) * h
	return kernel.Sample(h, -r, r, p.Samples)
}

func main() {
	pngPath := flag.String("png", "", "Write the default kernel plot to this PNG and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if *pngPath != "" {
		profile, err := defaultParams().sample()
		if err != nil {
			slog.Error("sampling kernel", "error", err)
			os.Exit(1)
		}
		if err := telemetry.SaveKernelPlot(profile, *pngPath); err != nil {
			slog.Error("saving kernel plot", "error", err)
			os.Exit(1)
		}
		slog.Info("kernel plot written", "path", *pngPath)
		return
	}

	rl.InitWindow(windowWidth, windowHeight, "Kernel Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	params := defaultParams()
	graph := ui.NewGraph("W and dW/dx along x")

	var profile kernel.Profile
	var latticeSum float64
	needsResample := true
	status := ""

	for !rl.WindowShouldClose() {
		if needsResample {
			var err error
			profile, err = params.sample()
			if err != nil {
				status = err.Error()
			}
			latticeSum, err = kernel.LatticeSum(float64(params.H), float64(params.Spacing*params.H))
			if err != nil {
				status = err.Error()
			}
			needsResample = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		graph.Draw(
			rl.Rectangle{X: 10, Y: 10, Width: plotWidth, Height: windowHeight - 80},
			profile.X,
			[]ui.Series{
				{Label: "W", Values: profile.W, Color: ui.SeriesColors[0]},
				{Label: "dW/dx", Values: profile.DWdX, Color: ui.SeriesColors[1]},
			},
		)

		statsY := int32(windowHeight - 60)
		rl.DrawText(fmt.Sprintf("alpha: %.5g  W(0): %.5g  support: %.3g", profile.Alpha, 4*profile.Alpha, 2*params.H), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("lattice sum at spacing %.2fh: %.5f", params.Spacing, latticeSum), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(plotWidth + 20)
		panelY := float32(10)

		rl.DrawText("Kernel Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("Smoothing length h", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newH := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.1", "5",
			params.H, 0.1, 5,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.H), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newH != params.H {
			params.H = newH
			needsResample = true
		}
		panelY += 35

		rl.DrawText("Plot range (multiples of h)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newRange := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "8",
			params.Range, 1, 8,
		)
		rl.DrawText(fmt.Sprintf("%.1f", params.Range), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newRange != params.Range {
			params.Range = newRange
			needsResample = true
		}
		panelY += 35

		rl.DrawText("Samples", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSamples := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"10", "1000",
			float32(params.Samples), 10, 1000,
		)
		rl.DrawText(fmt.Sprintf("%d", params.Samples), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int(newSamples) != params.Samples {
			params.Samples = int(newSamples)
			needsResample = true
		}
		panelY += 35

		rl.DrawText("Lattice spacing (multiples of h)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSpacing := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0.25", "2",
			params.Spacing, 0.25, 2,
		)
		rl.DrawText(fmt.Sprintf("%.2f", params.Spacing), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newSpacing != params.Spacing {
			params.Spacing = newSpacing
			needsResample = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaultParams()
			needsResample = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Save PNG") {
			path := fmt.Sprintf("kernel_h%.2f.png", params.H)
			if err := telemetry.SaveKernelPlot(profile, path); err != nil {
				status = err.Error()
			} else {
				status = "saved " + path
			}
		}
		panelY += 45

		if status != "" {
			rl.DrawText(status, int32(panelX), int32(panelY), 14, rl.Gray)
		}

		rl.DrawText("Grid sums near 1 mean the spacing resolves the kernel", int32(panelX), int32(windowHeight-30), 12, rl.Gray)

		rl.EndDrawing()
	}
}
