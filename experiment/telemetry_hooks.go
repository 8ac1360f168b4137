package experiment

import (
	"log/slog"

	"github.com/pthm-cable/sph2d/kernel"
	"github.com/pthm-cable/sph2d/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (e *Experiment) flushTelemetry() {
	if !e.collector.ShouldFlush(e.step) {
		return
	}

	stats := e.collector.Flush(e.step, e.time, e.lastDT, e.fluid, e.MeanNeighbors())
	perfStats := e.perf.Stats()

	if e.opts.StatsCallback != nil {
		e.opts.StatsCallback(stats)
	}

	if e.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := e.opts.Output.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := e.opts.Output.WritePerf(perfStats, stats.WindowEndStep); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range e.bookmarks.Check(stats) {
		if e.opts.LogStats {
			bm.LogBookmark()
		}
		if err := e.opts.Output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if e.opts.SnapshotDir != "" {
			e.saveSnapshot(bm)
		}
	}
}

// saveSnapshot writes the current state tagged with a bookmark.
func (e *Experiment) saveSnapshot(bm telemetry.Bookmark) {
	snap := e.Snapshot()
	snap.Bookmark = &bm

	path, err := telemetry.SaveSnapshot(snap, e.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "step", e.step)
}

// KernelProfile samples the scene's kernel over its full support on both sides.
func (e *Experiment) KernelProfile(n int) (kernel.Profile, error) {
	h := e.params.Spacing
	return kernel.Sample(h, -2.5*h, 2.5*h, n)
}
