package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/telemetry"
	"github.com/pthm-cable/sph2d/ui"
)

// handleInput processes keyboard and mouse input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.pending.TogglePause = true
	}
	if rl.IsKeyPressed(rl.KeyEnter) {
		v.pending.Step = true
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.pending.Reset = true
		v.pending.Params = v.controls.ResetParams(v.exp.Params())
	}
	if rl.IsKeyPressed(rl.KeyC) {
		v.particles.Channel = v.particles.Channel.Next()
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.historyField = nextField(v.historyField)
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		v.saveSnapshot()
	}

	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		v.overlays.HandleKeyPress(key)
	}

	v.handleCameraInput()
	v.handleSelection()
}

// nextField cycles through the recorded history fields.
func nextField(f telemetry.Field) telemetry.Field {
	for i, field := range telemetry.Fields {
		if field == f {
			return telemetry.Fields[(i+1)%len(telemetry.Fields)]
		}
	}
	return telemetry.Fields[0]
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.cam.Resize(w, h)
	v.controls.SetPosition(int32(w)-sidePanelWidth-10, 10)
	v.helpPanel.SetPosition(int32(w)-2*sidePanelWidth-20, 10)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	const panSpeed = 8

	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Pan(0, -panSpeed)
	}

	// Drag with the right or middle button
	if rl.IsMouseButtonDown(rl.MouseButtonRight) || rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && !v.overPanel(rl.GetMousePosition()) {
		mouse := rl.GetMousePosition()
		before := v.cam.ScreenToWorld(mouse.X, mouse.Y)
		v.cam.ZoomBy(1 + float64(wheel)*0.1)
		after := v.cam.ScreenToWorld(mouse.X, mouse.Y)
		v.cam.Center.X += before.X - after.X
		v.cam.Center.Y += before.Y - after.Y
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}

// overPanel reports whether p lies over an open raygui panel.
func (v *Viewer) overPanel(p rl.Vector2) bool {
	if v.overlays.IsEnabled(ui.OverlayControls) {
		rect := rl.Rectangle{
			X:      v.screenWidth - sidePanelWidth - 10,
			Y:      10,
			Width:  sidePanelWidth,
			Height: float32(v.controls.Height()),
		}
		if rl.CheckCollisionPointRec(p, rect) {
			return true
		}
	}
	return false
}
