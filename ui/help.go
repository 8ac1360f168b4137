package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// KeyBinding is a fixed key shown in the help panel.
type KeyBinding struct {
	Key    string
	Action string
}

// DefaultKeyBindings lists the keys handled outside the overlay registry.
var DefaultKeyBindings = []KeyBinding{
	{"Space", "Play / pause"},
	{"Enter", "Single step"},
	{"R", "Reset with panel values"},
	{"C", "Cycle particle color"},
	{"F", "Cycle history field"},
	{"Wheel", "Zoom"},
	{"Drag", "Pan"},
	{"Home", "Fit camera"},
	{"F5", "Save snapshot"},
	{"Esc", "Quit"},
}

// HelpPanel lists key bindings and overlay toggles.
type HelpPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewHelpPanel creates a new help panel.
func NewHelpPanel(x, y, width int32) *HelpPanel {
	return &HelpPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (h *HelpPanel) SetPosition(x, y int32) {
	h.x = x
	h.y = y
}

// Height returns the panel height for the given registry.
func (h *HelpPanel) Height(overlays *OverlayRegistry) int32 {
	t := h.renderer.Theme
	lines := int32(len(DefaultKeyBindings)) + 1
	for _, cat := range overlays.Categories() {
		lines += int32(len(overlays.ByCategory(cat))) + 1
	}
	return lines*t.LineHeight + int32(len(overlays.Categories()))*4 + t.Padding*2 + t.LineHeight
}

// Draw renders the help panel and returns the Y below it.
func (h *HelpPanel) Draw(overlays *OverlayRegistry) int32 {
	r := h.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := h.width - padding*2

	r.DrawPanel(h.x, h.y, h.width, h.Height(overlays))

	y := h.y + padding
	rl.DrawText("Keys", h.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, kb := range DefaultKeyBindings {
		rl.DrawText(kb.Action, h.x+padding+14, y, r.Theme.FontSize, r.Theme.LabelColor)
		drawKeyLabel(h.x+padding, y, inner, kb.Key, r.Theme.FontSize)
		y += lineHeight
	}

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), h.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			h.drawToggle(h.x+padding, y, desc, overlays.IsEnabled(desc.ID), inner)
			y += lineHeight
		}

		y += 4
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (h *HelpPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := h.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		drawKeyLabel(x, y, width, desc.KeyLabel, r.Theme.FontSize)
	}
}

// drawKeyLabel draws [key] right aligned in width.
func drawKeyLabel(x, y, width int32, key string, fontSize int32) {
	keyText := fmt.Sprintf("[%s]", key)
	keyWidth := rl.MeasureText(keyText, fontSize)
	rl.DrawText(keyText, x+width-keyWidth, y, fontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case CategoryPanels:
		return "Panels"
	case CategoryDebug:
		return "Debug"
	default:
		return cat
	}
}
