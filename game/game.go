// Package game runs the frame pipeline that keeps the creature population
// and the physics world in step.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/creatures"
	"github.com/pthm-cable/softies/physics"
	"github.com/pthm-cable/softies/telemetry"
)

// Options configures a Game beyond the YAML configuration.
type Options struct {
	Seed           int64
	LogStats       bool    // log stats and perf windows via slog
	StatsWindowSec float64 // 0 uses telemetry.stats_window
	OutputDir      string  // CSV, config and snapshot output; empty disables
	StepsPerUpdate int     // frames per UpdateHeadless call
	SkipPopulation bool    // start with walls only
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	world   *physics.World
	factory *creatures.Factory
	ids     *creature.IDSource
	walls   []physics.BodyHandle

	// Creature order is spawn order; byID maps identity to index.
	creatures []creature.Creature
	byID      map[creature.ID]int

	wc   creature.WorldContext
	tick int64

	// Per-frame scratch
	snap    *creature.Snapshot
	intents []creature.FeedingIntent
	queues  []creature.CommandQueue
	eaten   map[creature.ID]bool
	view    FrameView

	target targetMailbox

	perf          *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
}

// targetMailbox carries target updates from other goroutines to the
// pipeline, which reads it once per frame.
type targetMailbox struct {
	mu      sync.Mutex
	pending bool
	has     bool
	pos     r2.Vec
}

// New builds the world, its walls and the configured population.
func New(cfg *config.Config, opts Options) (*Game, error) {
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	light, err := creature.ParseLightModel(cfg.World.LightModel)
	if err != nil {
		return nil, fmt.Errorf("world: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	bounds := cfg.Derived.Bounds
	wt := cfg.World.WallThickness
	g := &Game{
		cfg:  cfg,
		opts: opts,
		rng:  rng,
		world: physics.NewWorld(physics.Params{
			Gravity:            cfg.Derived.Gravity,
			SolverIterations:   cfg.Physics.SolverIterations,
			PositionIterations: cfg.Physics.PositionIterations,
			CellSize:           cfg.Physics.GridCellSize,
			Bounds: r2.Box{
				Min: r2.Sub(bounds.Min, r2.Vec{X: wt, Y: wt}),
				Max: r2.Add(bounds.Max, r2.Vec{X: wt, Y: wt}),
			},
		}),
		factory: creatures.NewFactory(cfg, opts.Seed),
		ids:     creature.NewIDSource(rng),
		byID:    make(map[creature.ID]int),
		eaten:   make(map[creature.ID]bool),
		wc: creature.WorldContext{
			Bounds:     bounds,
			Gravity:    cfg.Derived.Gravity,
			SurfaceY:   cfg.World.SurfaceY,
			Light:      light,
			LightDepth: cfg.World.LightDepth,
		},
		perf: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}

	window := opts.StatsWindowSec
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}
	g.collector = telemetry.NewCollector(window, cfg.Physics.DT)

	g.spawnWalls()
	if !opts.SkipPopulation {
		if err := g.spawnInitialPopulation(); err != nil {
			return nil, err
		}
	}

	// Output files are opened last so a failed New leaves nothing open.
	g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		g.outputManager.Close()
		return nil, err
	}
	g.view = g.buildView()
	return g, nil
}

// Close saves a final snapshot when output is enabled and closes output files.
func (g *Game) Close() error {
	if g.outputManager != nil {
		path, err := g.outputManager.WriteSnapshot(g.createSnapshot())
		if err != nil {
			slog.Error("failed to save snapshot", "error", err)
		} else {
			slog.Info("snapshot saved", "path", path, "tick", g.tick)
		}
	}
	return g.outputManager.Close()
}

// SetStatsCallback registers a function called with every flushed window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) { g.statsCallback = fn }

// SetTarget sets the user target position. Safe for concurrent use; the
// change takes effect at the start of the next frame.
func (g *Game) SetTarget(p r2.Vec) {
	g.target.mu.Lock()
	g.target.pending, g.target.has, g.target.pos = true, true, p
	g.target.mu.Unlock()
}

// ClearTarget removes the user target. Safe for concurrent use.
func (g *Game) ClearTarget() {
	g.target.mu.Lock()
	g.target.pending, g.target.has = true, false
	g.target.mu.Unlock()
}

func (g *Game) readTarget() {
	g.target.mu.Lock()
	defer g.target.mu.Unlock()
	if !g.target.pending {
		return
	}
	g.wc.Target, g.wc.HasTarget = g.target.pos, g.target.has
	g.target.pending = false
}

// Tick returns the number of completed frames.
func (g *Game) Tick() int64 { return g.tick }

// Time returns the simulated seconds since start.
func (g *Game) Time() float64 { return g.wc.Time }

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config { return g.cfg }

// World returns the physics world. Callers outside the pipeline must only read it.
func (g *Game) World() *physics.World { return g.world }

// Context returns a copy of the current world context.
func (g *Game) Context() creature.WorldContext { return g.wc }

// Creatures returns the live creatures in spawn order. The slice must not be modified.
func (g *Game) Creatures() []creature.Creature { return g.creatures }

// Creature returns the creature with identity id.
func (g *Game) Creature(id creature.ID) (creature.Creature, bool) {
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return g.creatures[i], true
}

// Perf returns the frame timing collector.
func (g *Game) Perf() *telemetry.PerfCollector { return g.perf }
