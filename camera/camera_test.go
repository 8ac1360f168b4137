package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// The default boundary scene: walls span (-9, -9) to (66, 57).
var (
	sceneLo = r2.Vec{X: -9, Y: -9}
	sceneHi = r2.Vec{X: 66, Y: 57}
)

func fitted() *Camera {
	cam := New(1280, 800)
	cam.Fit(sceneLo, sceneHi, 6)
	return cam
}

func TestFit(t *testing.T) {
	cam := fitted()

	// Box with margin is 87 x 78 world units; height limits on 1280x800.
	wantZoom := 800.0 / 78.0
	if math.Abs(cam.Zoom-wantZoom) > 1e-12 {
		t.Errorf("zoom = %v, want %v", cam.Zoom, wantZoom)
	}
	if cam.Center != (r2.Vec{X: 28.5, Y: 24}) {
		t.Errorf("center = %v, want box center (28.5, 24)", cam.Center)
	}

	lo, hi := cam.VisibleWorldBounds()
	if lo.X > sceneLo.X || lo.Y > sceneLo.Y || hi.X < sceneHi.X || hi.Y < sceneHi.Y {
		t.Errorf("visible %v..%v does not contain the scene", lo, hi)
	}
}

func TestFitDegenerateBox(t *testing.T) {
	cam := New(100, 100)
	cam.Fit(r2.Vec{X: 2, Y: 2}, r2.Vec{X: 2, Y: 2}, 0)
	if cam.Zoom != 1 {
		t.Errorf("zoom for a point = %v, want 1", cam.Zoom)
	}
	sx, sy := cam.WorldToScreen(r2.Vec{X: 2, Y: 2})
	if sx != 50 || sy != 50 {
		t.Errorf("point at (%v, %v), want viewport center", sx, sy)
	}
}

func TestWorldToScreenIsYUp(t *testing.T) {
	cam := fitted()

	sx, sy := cam.WorldToScreen(cam.Center)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-400)) > 0.01 {
		t.Errorf("expected screen center (640, 400), got (%f, %f)", sx, sy)
	}

	_, yHigh := cam.WorldToScreen(r2.Vec{X: cam.Center.X, Y: cam.Center.Y + 10})
	_, yLow := cam.WorldToScreen(r2.Vec{X: cam.Center.X, Y: cam.Center.Y - 10})
	if yHigh >= yLow {
		t.Errorf("higher world point drawn lower: %v >= %v", yHigh, yLow)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := fitted()
	cam.ZoomBy(1.7)
	cam.Pan(35, -12)

	testCases := []struct{ sx, sy float32 }{
		{640, 400},
		{100, 100},
		{1200, 700},
	}

	for _, tc := range testCases {
		w := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(w)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, w, sx, sy)
		}
	}
}

func TestPan(t *testing.T) {
	cam := fitted()
	start := cam.Center

	// Dragging by 10 pixels right and down moves the view right and down in the world.
	cam.Pan(10, 10)
	if cam.Center.X <= start.X || cam.Center.Y >= start.Y {
		t.Errorf("center moved from %v to %v", start, cam.Center)
	}
	if math.Abs((cam.Center.X-start.X)*cam.Zoom-10) > 1e-9 {
		t.Errorf("pan of 10 pixels moved %v pixels", (cam.Center.X-start.X)*cam.Zoom)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := fitted()
	fit := cam.Zoom

	cam.SetZoom(fit / 100)
	if cam.Zoom != fit/8 {
		t.Errorf("expected zoom clamped to %v, got %v", fit/8, cam.Zoom)
	}

	cam.SetZoom(fit * 100)
	if cam.Zoom != fit*16 {
		t.Errorf("expected zoom clamped to %v, got %v", fit*16, cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := fitted()

	if !cam.IsVisible(cam.Center, 0) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(r2.Vec{X: 500, Y: 500}, 1) {
		t.Error("far point should not be visible")
	}

	lo, _ := cam.VisibleWorldBounds()
	edge := r2.Vec{X: lo.X - 5, Y: cam.Center.Y}
	if cam.IsVisible(edge, 1) {
		t.Error("point 5 units left of the view should not be visible with radius 1")
	}
	if !cam.IsVisible(edge, 10) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestResizeKeepsView(t *testing.T) {
	cam := fitted()
	cam.ZoomBy(2)
	rel := cam.Zoom / (800.0 / 78.0)

	cam.Resize(640, 800)

	// Width now limits: 640 / 87.
	fit := 640.0 / 87.0
	if math.Abs(cam.Zoom-fit*rel) > 1e-9 {
		t.Errorf("zoom after resize = %v, want %v", cam.Zoom, fit*rel)
	}
}

func TestReset(t *testing.T) {
	cam := fitted()
	want, wantZoom := cam.Center, cam.Zoom

	cam.Pan(300, 300)
	cam.ZoomBy(3)
	cam.Reset()

	if cam.Center != want || cam.Zoom != wantZoom {
		t.Errorf("reset to %v x%v, want %v x%v", cam.Center, cam.Zoom, want, wantZoom)
	}
}
