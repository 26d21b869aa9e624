package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/game"
	"github.com/pthm-cable/softies/stream"
	"github.com/pthm-cable/softies/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and final snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	serve := flag.String("serve", "", "Serve the websocket viewer stream on this address (empty = use config)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *serve != "" {
		cfg.Stream.Addr = *serve
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, *headless, int64(*maxTicks)); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts game.Options, headless bool, maxTicks int64) error {
	if !headless {
		// The window has to exist before the viewer reads its size.
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Softies")
		defer rl.CloseWindow()
		rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	}

	g, err := game.New(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Close(); err != nil {
			slog.Error("failed to close output", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	var srv *stream.Server
	if cfg.Stream.Addr != "" {
		srv = stream.New(cfg.Stream, g)
		eg.Go(func() error { return srv.Run(ctx) })
	}

	// The frame loop stays on this goroutine; raylib is bound to the main thread.
	if headless {
		runHeadless(ctx, g, srv, opts, maxTicks)
	} else {
		runGraphical(ctx, g, srv, opts, maxTicks)
	}
	cancel()
	return eg.Wait()
}

func runHeadless(ctx context.Context, g *game.Game, srv *stream.Server, opts game.Options, maxTicks int64) {
	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)
	for ctx.Err() == nil {
		g.UpdateHeadless()
		if srv != nil {
			srv.Publish(g.View())
		}
		if maxTicks > 0 && g.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
	slog.Info("interrupted", "tick", g.Tick())
}

func runGraphical(ctx context.Context, g *game.Game, srv *stream.Server, opts game.Options, maxTicks int64) {
	v := ui.NewViewer(g, opts.Seed, opts.StepsPerUpdate)
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		v.Update()
		v.Draw()
		if srv != nil {
			srv.Publish(g.View())
		}
		if maxTicks > 0 && g.Tick() >= maxTicks {
			break
		}
	}
}
