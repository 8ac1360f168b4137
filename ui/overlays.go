package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Viewer overlays.
const (
	OverlayControls OverlayID = "controls"
	OverlayStats    OverlayID = "stats"
	OverlayPerf     OverlayID = "perf"
	OverlayHistory  OverlayID = "history"
	OverlayDistance OverlayID = "distance"
	OverlaySupport  OverlayID = "support"
	OverlayBounds   OverlayID = "bounds"
	OverlayHelp     OverlayID = "help"
)

// Overlay categories in display order.
const (
	CategoryPanels = "panels"
	CategoryDebug  = "debug"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32  // 0 = no key
	KeyLabel string // Shown in the help panel
	Category string
	Excludes []OverlayID // Switched off when this one is switched on
	Default  bool
}

var defaultOverlays = []OverlayDescriptor{
	{ID: OverlayControls, Name: "Controls", Key: rl.KeyTab, KeyLabel: "Tab", Category: CategoryPanels, Default: true},
	{ID: OverlayStats, Name: "Window stats", Key: rl.KeyS, KeyLabel: "S", Category: CategoryPanels, Excludes: []OverlayID{OverlayPerf}},
	{ID: OverlayPerf, Name: "Step timing", Key: rl.KeyP, KeyLabel: "P", Category: CategoryPanels, Excludes: []OverlayID{OverlayStats}},
	{ID: OverlayHistory, Name: "Particle history", Key: rl.KeyH, KeyLabel: "H", Category: CategoryPanels, Default: true},
	{ID: OverlayDistance, Name: "Max distance", Key: rl.KeyM, KeyLabel: "M", Category: CategoryPanels, Default: true},
	{ID: OverlaySupport, Name: "Support radius", Key: rl.KeyN, KeyLabel: "N", Category: CategoryDebug},
	{ID: OverlayBounds, Name: "Scene bounds", Key: rl.KeyB, KeyLabel: "B", Category: CategoryDebug},
	{ID: OverlayHelp, Name: "Key help", Key: rl.KeyF1, KeyLabel: "F1", Category: CategoryDebug, Default: true},
}

// OverlayRegistry tracks which overlays are switched on.
type OverlayRegistry struct {
	overlays []OverlayDescriptor
	on       map[OverlayID]bool
}

// NewOverlayRegistry creates a registry holding the viewer overlays in
// their default state.
func NewOverlayRegistry() *OverlayRegistry {
	r := &OverlayRegistry{on: make(map[OverlayID]bool)}
	for _, desc := range defaultOverlays {
		r.Register(desc)
	}
	return r
}

// Register adds an overlay.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.overlays = append(r.overlays, desc)
	r.on[desc.ID] = desc.Default
}

func (r *OverlayRegistry) find(id OverlayID) (OverlayDescriptor, bool) {
	for _, desc := range r.overlays {
		if desc.ID == id {
			return desc, true
		}
	}
	return OverlayDescriptor{}, false
}

// Toggle flips an overlay and returns its new state. Unknown IDs stay off.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.find(id); !ok {
		return false
	}
	r.SetEnabled(id, !r.on[id])
	return r.on[id]
}

// SetEnabled switches an overlay, turning off the overlays it excludes.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.find(id)
	if !ok {
		return
	}
	r.on[id] = enabled
	if !enabled {
		return
	}
	for _, other := range desc.Excludes {
		r.on[other] = false
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.on[id]
}

// ByCategory returns the overlays of one category in registration order.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var out []OverlayDescriptor
	for _, desc := range r.overlays {
		if desc.Category == category {
			out = append(out, desc)
		}
	}
	return out
}

// Categories returns the categories in first-seen order.
func (r *OverlayRegistry) Categories() []string {
	var cats []string
	for _, desc := range r.overlays {
		seen := false
		for _, c := range cats {
			seen = seen || c == desc.Category
		}
		if !seen {
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key. It returns the overlay,
// its new state and whether any overlay matched.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.overlays {
		if desc.Key != 0 && desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}
