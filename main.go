package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph2d/config"
	"github.com/pthm-cable/sph2d/experiment"
	"github.com/pthm-cable/sph2d/renderer"
	"github.com/pthm-cable/sph2d/simulation"
	"github.com/pthm-cable/sph2d/stream"
	"github.com/pthm-cable/sph2d/telemetry"
	"github.com/pthm-cable/sph2d/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	term := flag.Bool("term", false, "Render in the terminal instead of a window")
	serve := flag.Bool("serve", false, "Stream frames over websocket (address from config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	restore := flag.String("restore", "", "Start from a saved snapshot")
	search := flag.String("search", "", "Neighbor search backend: brute, grid or kdtree (empty = use config)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = unlimited)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging). The terminal
	// viewer owns stdout, so its logs go to the output dir or nowhere.
	var logOut io.Writer = os.Stdout
	if *term {
		logOut = io.Discard
		if *outputDir != "" {
			if err := os.MkdirAll(*outputDir, 0755); err == nil {
				if f, err := os.Create(filepath.Join(*outputDir, "run.log")); err == nil {
					defer f.Close()
					logOut = f
				}
			}
		}
	}
	logger := slog.New(slog.NewJSONHandler(logOut, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	backend := cfg.Physics.NeighborSearch
	if *search != "" {
		backend = *search
	}
	ns, err := simulation.SearchByName(backend)
	if err != nil {
		slog.Error("invalid neighbor search", "error", err)
		os.Exit(1)
	}

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output dir", "error", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	exp, err := experiment.New(experiment.ParamsFromConfig(cfg), experiment.Options{
		Search:           ns,
		HistoryParticles: cfg.Telemetry.HistoryParticles,
		MaxSamples:       cfg.Telemetry.MaxSamples,
		PerfWindow:       cfg.Telemetry.PerfWindow,
		WindowSteps:      cfg.Telemetry.WindowSteps,
		LogStats:         *logStats,
		Output:           out,
		SnapshotDir:      *snapshotDir,
	})
	if err != nil {
		slog.Error("failed to build experiment", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			slog.Error("failed to write run artifacts", "error", err)
		}
	}()

	if *restore != "" {
		snap, err := telemetry.LoadSnapshot(*restore)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		if err := exp.Restore(snap); err != nil {
			slog.Error("failed to restore snapshot", "error", err)
			os.Exit(1)
		}
		slog.Info("restored snapshot", "path", *restore, "step", exp.StepCount())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub *stream.Publisher
	if *serve {
		srv := stream.NewServer(stream.DefaultClientBuffer)
		pub = stream.NewPublisher(srv, cfg.Stream.FrameRate)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Stream.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("stream server stopped", "error", err)
			}
		}()
		defer srv.Close()
	}

	switch {
	case *headless:
		ch, err := renderer.ParseChannel(cfg.Render.ColorBy)
		if err != nil {
			slog.Error("invalid color channel", "error", err)
			os.Exit(1)
		}
		runHeadless(ctx, exp, pub, ch, cfg.Telemetry.LogInterval, *maxSteps)
	case *term:
		if err := viewer.RunTerminal(ctx, exp, cfg, pub, *maxSteps); err != nil {
			slog.Error("terminal viewer stopped", "error", err)
		}
	default:
		runWindow(exp, cfg, pub, *snapshotDir, *maxSteps)
	}
}

// runHeadless steps the experiment without graphics until ctx is cancelled
// or maxSteps is reached.
func runHeadless(ctx context.Context, exp *experiment.Experiment, pub *stream.Publisher, ch renderer.Channel, logInterval, maxSteps int) {
	slog.Info("starting headless simulation",
		"fluid", exp.Fluid().Len(),
		"search", exp.Simulation().Search().Name(),
		"max_steps", maxSteps,
		"steps_per_update", exp.Params().StepsPerUpdate,
	)

	nextLog := exp.StepCount() + logInterval
	for ctx.Err() == nil {
		if err := exp.Update(); err != nil {
			slog.Error("simulation failed", "error", err)
			return
		}
		pub.Maybe(exp, ch)

		if logInterval > 0 && exp.StepCount() >= nextLog {
			slog.Info("progress",
				"step", exp.StepCount(),
				"time", exp.Time(),
				"dt", exp.LastDT(),
				"mean_neighbors", exp.MeanNeighbors(),
			)
			nextLog += logInterval
		}
		if maxSteps > 0 && exp.StepCount() >= maxSteps {
			slog.Info("max steps reached", "step", exp.StepCount())
			return
		}
	}
	slog.Info("interrupted", "step", exp.StepCount())
}

// runWindow runs the raylib viewer.
func runWindow(exp *experiment.Experiment, cfg *config.Config, pub *stream.Publisher, snapshotDir string, maxSteps int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "SPH Boundary Experiment")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v, err := viewer.New(exp, cfg, viewer.Options{SnapshotDir: snapshotDir, Publisher: pub})
	if err != nil {
		slog.Error("failed to create viewer", "error", err)
		return
	}
	defer v.Unload()

	for !rl.WindowShouldClose() {
		if err := v.Update(); err != nil {
			slog.Error("simulation failed", "error", err)
			return
		}
		v.Draw()

		if maxSteps > 0 && exp.StepCount() >= maxSteps {
			break
		}
	}
}
