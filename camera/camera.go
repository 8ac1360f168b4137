// Package camera maps simulation coordinates to a viewport and back.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Camera controls the viewport into the scene. World coordinates are y-up;
// screen coordinates are y-down pixels (or terminal cells).
type Camera struct {
	// Center is the world point at the middle of the viewport
	Center r2.Vec

	// Zoom is screen units per world unit
	Zoom float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Zoom constraints, relative to the fitted zoom
	MinZoom, MaxZoom float64

	// View restored by Reset
	fitCenter r2.Vec
	fitZoom   float64
	fitLo     r2.Vec
	fitHi     r2.Vec
	margin    float64
}

// New creates a camera looking at the unit square.
func New(viewportW, viewportH float32) *Camera {
	c := &Camera{ViewportW: viewportW, ViewportH: viewportH}
	c.Fit(r2.Vec{}, r2.Vec{X: 1, Y: 1}, 0)
	return c
}

// Fit frames the box [lo, hi] plus margin world units on each side and makes
// that the view Reset returns to.
func (c *Camera) Fit(lo, hi r2.Vec, margin float64) {
	c.fitLo, c.fitHi, c.margin = lo, hi, margin

	w := hi.X - lo.X + 2*margin
	h := hi.Y - lo.Y + 2*margin
	zoom := math.Inf(1)
	if w > 0 {
		zoom = float64(c.ViewportW) / w
	}
	if h > 0 {
		zoom = math.Min(zoom, float64(c.ViewportH)/h)
	}
	if math.IsInf(zoom, 1) || !(zoom > 0) {
		zoom = 1
	}

	c.fitCenter = r2.Scale(0.5, r2.Add(lo, hi))
	c.fitZoom = zoom
	c.MinZoom = zoom / 8
	c.MaxZoom = zoom * 16
	c.Reset()
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(p r2.Vec) (sx, sy float32) {
	sx = c.ViewportW/2 + float32((p.X-c.Center.X)*c.Zoom)
	sy = c.ViewportH/2 - float32((p.Y-c.Center.Y)*c.Zoom)
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) r2.Vec {
	dx := float64(sx-c.ViewportW/2) / c.Zoom
	dy := float64(c.ViewportH/2-sy) / c.Zoom
	return r2.Vec{X: c.Center.X + dx, Y: c.Center.Y + dy}
}

// WorldLength converts a world distance to screen units.
func (c *Camera) WorldLength(d float64) float32 {
	return float32(d * c.Zoom)
}

// IsVisible returns true if a circle at p with the given world radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(p r2.Vec, radius float64) bool {
	lo, hi := c.VisibleWorldBounds()
	return p.X >= lo.X-radius && p.X <= hi.X+radius &&
		p.Y >= lo.Y-radius && p.Y <= hi.Y+radius
}

// Resize updates viewport dimensions and refits the last fitted box.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	center, rel := c.Center, c.Zoom/c.fitZoom
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.Fit(c.fitLo, c.fitHi, c.margin)
	c.Center = center
	c.SetZoom(c.fitZoom * rel)
}

// Pan moves the camera by the given delta in screen units.
func (c *Camera) Pan(dx, dy float32) {
	c.Center.X += float64(dx) / c.Zoom
	c.Center.Y -= float64(dy) / c.Zoom
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = math.Max(c.MinZoom, math.Min(zoom, c.MaxZoom))
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the fitted view.
func (c *Camera) Reset() {
	c.Center = c.fitCenter
	c.Zoom = c.fitZoom
}

// VisibleWorldBounds returns the world-coordinate box of the visible area.
func (c *Camera) VisibleWorldBounds() (lo, hi r2.Vec) {
	halfW := float64(c.ViewportW) / (2 * c.Zoom)
	halfH := float64(c.ViewportH) / (2 * c.Zoom)
	lo = r2.Vec{X: c.Center.X - halfW, Y: c.Center.Y - halfH}
	hi = r2.Vec{X: c.Center.X + halfW, Y: c.Center.Y + halfH}
	return lo, hi
}
