package game

import (
	"log/slog"

	"github.com/pthm-cable/softies/telemetry"
)

// flushTelemetry closes the stats window when it is due, then logs and
// writes it.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.wc.Time, g.sampleCreatures())
	perfStats := g.perf.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEnd); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

func (g *Game) sampleCreatures() []telemetry.CreatureSample {
	out := make([]telemetry.CreatureSample, len(g.creatures))
	for i, c := range g.creatures {
		a := c.Attributes()
		out[i] = telemetry.CreatureSample{
			Kind:    c.Kind(),
			State:   c.State(),
			Energy:  a.EnergyFraction(),
			Satiety: a.SatietyFraction(),
		}
	}
	return out
}

// createSnapshot records the last completed frame.
func (g *Game) createSnapshot() *telemetry.Snapshot {
	v := g.view
	s := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		Seed:        g.opts.Seed,
		Tick:        v.Tick,
		SimTime:     v.Time,
		WorldWidth:  g.cfg.World.Width,
		WorldHeight: g.cfg.World.Height,
		Creatures:   make([]telemetry.CreatureState, len(v.Creatures)),
	}
	for i, c := range v.Creatures {
		s.Creatures[i] = telemetry.CreatureState{
			ID:       c.ID.String(),
			Kind:     c.Kind.String(),
			State:    c.State.String(),
			Energy:   c.Attributes.Energy,
			Satiety:  c.Attributes.Satiety,
			Segments: c.Segments,
		}
	}
	return s
}
