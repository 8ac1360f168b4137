package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/sph2d/config"
	"github.com/pthm-cable/sph2d/kernel"
	"github.com/pthm-cable/sph2d/particles"
)

// csvLog appends records to one CSV file, writing the header once.
type csvLog struct {
	name          string
	file          *os.File
	headerWritten bool
}

func (l *csvLog) write(records any) error {
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("writing %s: %w", l.name, err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

// OutputManager handles structured experiment output with CSV logging.
// A nil *OutputManager is valid and discards everything.
type OutputManager struct {
	dir       string
	stats     *csvLog
	perf      *csvLog
	bookmarks *csvLog
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.stats, err = om.create("stats.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = om.create("perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.bookmarks, err = om.create("bookmarks.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

func (om *OutputManager) create(name string) (*csvLog, error) {
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog{name: name, file: f}, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return om.stats.write([]WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}
	return om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return om.bookmarks.write([]Bookmark{b})
}

// WriteHistory replaces history.csv with the full recorded history.
func (om *OutputManager) WriteHistory(h *History) error {
	if om == nil || h == nil {
		return nil
	}
	return om.writeFile("history.csv", func(w io.Writer) error {
		return gocsv.Marshal(h.Rows(), w)
	})
}

// WritePositions dumps the positions of a set, one "x y" line per particle.
func (om *OutputManager) WritePositions(name string, set *particles.Set) error {
	if om == nil {
		return nil
	}
	return om.writeFile(name, set.WritePositions)
}

// WritePlots renders the history and kernel profile as PNG files.
func (om *OutputManager) WritePlots(h *History, profile kernel.Profile) error {
	if om == nil {
		return nil
	}
	if h != nil && h.Len() > 0 {
		if err := SaveHistoryPlot(h, filepath.Join(om.dir, "history.png")); err != nil {
			return err
		}
	}
	if len(profile.X) > 0 {
		if err := SaveKernelPlot(profile, filepath.Join(om.dir, "kernel.png")); err != nil {
			return err
		}
	}
	return nil
}

func (om *OutputManager) writeFile(name string, fill func(io.Writer) error) error {
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, l := range []*csvLog{om.stats, om.perf, om.bookmarks} {
		if l == nil {
			continue
		}
		if err := l.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
