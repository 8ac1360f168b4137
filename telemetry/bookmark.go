package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkImpact  BookmarkType = "impact"
	BookmarkSplash  BookmarkType = "splash"
	BookmarkLeak    BookmarkType = "leak"
	BookmarkSettled BookmarkType = "settled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        int          `csv:"step"`
	SimTime     float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"sim_time", b.SimTime,
		"description", b.Description,
	)
}

// Thresholds used by the detector.
const (
	impactMinCompression = 0.05 // Peak compression that counts as an impact
	splashFactor         = 2.0  // Peak speed over rolling average
	settleSpeed          = 1e-2 // Peak speed below which the fluid is at rest
	settleWindows        = 5
)

// BookmarkDetector watches successive stats windows for notable moments.
type BookmarkDetector struct {
	recent []float64 // Peak speeds of the last windows, oldest first
	keep   int

	lastEscaped int
	impactSeen  bool
	restWindows int
	settled     bool
}

// NewBookmarkDetector creates a detector that compares against the last
// historySize windows. Sizes below 3 are raised to 3.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	return &BookmarkDetector{keep: max(historySize, 3)}
}

// Check returns the bookmarks triggered by stats, in impact, splash, leak,
// settled order, then adds stats to the history.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var out []Bookmark
	mark := func(typ BookmarkType, format string, args ...any) {
		out = append(out, Bookmark{
			Type:        typ,
			Step:        stats.WindowEndStep,
			SimTime:     stats.SimTime,
			Description: fmt.Sprintf(format, args...),
		})
	}

	if !bd.impactSeen && stats.PeakCompression >= impactMinCompression {
		bd.impactSeen = true
		mark(BookmarkImpact, "Fluid compressed %.1f%% above rest density", stats.PeakCompression*100)
	}

	if avg, ok := bd.averagePeakSpeed(); ok && stats.PeakSpeed > splashFactor*avg {
		mark(BookmarkSplash, "Peak speed %.3g is %.1fx average (%.3g)", stats.PeakSpeed, stats.PeakSpeed/avg, avg)
	}

	if prev := bd.lastEscaped; stats.Escaped > prev {
		mark(BookmarkLeak, "%d fluid particles outside the container (was %d)", stats.Escaped, prev)
	}
	bd.lastEscaped = stats.Escaped

	if stats.Particles > 0 && stats.PeakSpeed < settleSpeed {
		bd.restWindows++
	} else {
		bd.restWindows = 0
	}
	if bd.restWindows == settleWindows && !bd.settled {
		bd.settled = true
		mark(BookmarkSettled, "Fluid at rest for %d windows, kinetic energy %.3g", settleWindows, stats.KineticEnergy)
	}

	bd.recent = append(bd.recent, stats.PeakSpeed)
	if len(bd.recent) > bd.keep {
		bd.recent = bd.recent[1:]
	}
	return out
}

// averagePeakSpeed needs at least three windows of history and a moving fluid.
func (bd *BookmarkDetector) averagePeakSpeed() (float64, bool) {
	if len(bd.recent) < 3 {
		return 0, false
	}
	var sum float64
	for _, v := range bd.recent {
		sum += v
	}
	avg := sum / float64(len(bd.recent))
	return avg, avg > 0
}
