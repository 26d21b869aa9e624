// Package telemetry provides frame timing, ecosystem window statistics and
// experiment output files.
package telemetry

import (
	"math"

	"github.com/pthm-cable/softies/creature"
)

// CreatureSample is one creature's state at the end of a window.
type CreatureSample struct {
	Kind    creature.Kind
	State   creature.State
	Energy  float64 // fraction of max
	Satiety float64 // fraction of max
}

// Collector counts events within a stats window and produces WindowStats.
type Collector struct {
	windowTicks int64
	windowStart int64

	meals    int
	respawns int
	despawns int
	failsafe int
}

// NewCollector creates a collector whose windows last windowSec of
// simulation time at dt seconds per tick.
func NewCollector(windowSec, dt float64) *Collector {
	ticks := int64(math.Round(windowSec / dt))
	if ticks < 1 {
		ticks = 1
	}
	return &Collector{windowTicks: ticks}
}

func (c *Collector) RecordMeal()     { c.meals++ }
func (c *Collector) RecordRespawn()  { c.respawns++ }
func (c *Collector) RecordDespawn()  { c.despawns++ }
func (c *Collector) RecordFailsafe() { c.failsafe++ }

// ShouldFlush reports whether the window ending at tick is complete.
func (c *Collector) ShouldFlush(tick int64) bool {
	return tick-c.windowStart >= c.windowTicks
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 { return c.windowTicks }

// Flush closes the window at tick, summarizing the given population, and
// resets the event counters.
func (c *Collector) Flush(tick int64, simTime float64, samples []CreatureSample) WindowStats {
	s := WindowStats{
		WindowStart:         c.windowStart,
		WindowEnd:           tick,
		SimTimeSec:          simTime,
		Meals:               c.meals,
		Respawns:            c.respawns,
		Despawns:            c.despawns,
		FailsafeCorrections: c.failsafe,
	}

	energy := make([]float64, 0, len(samples))
	satiety := make([]float64, 0, len(samples))
	for _, cs := range samples {
		switch cs.Kind {
		case creature.KindSnake:
			s.Snakes++
		case creature.KindPlankton:
			s.Plankton++
		}
		switch cs.State {
		case creature.Wandering:
			s.Wandering++
		case creature.SeekingTarget:
			s.SeekingTarget++
		case creature.SeekingFood:
			s.SeekingFood++
		case creature.Resting:
			s.Resting++
		case creature.Fleeing:
			s.Fleeing++
		case creature.Drifting:
			s.Drifting++
		}
		energy = append(energy, cs.Energy)
		satiety = append(satiety, cs.Satiety)
	}

	e := Describe(energy)
	s.EnergyMean, s.EnergyStd, s.EnergyP10, s.EnergyP50, s.EnergyP90 = e.Mean, e.Std, e.P10, e.P50, e.P90
	h := Describe(satiety)
	s.SatietyMean, s.SatietyStd, s.SatietyP10, s.SatietyP50, s.SatietyP90 = h.Mean, h.Std, h.P10, h.P50, h.P90

	c.windowStart = tick
	c.meals, c.respawns, c.despawns, c.failsafe = 0, 0, 0, 0
	return s
}
