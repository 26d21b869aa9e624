package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/creature"
)

// applyFailsafe moves every creature whose primary body left the world
// bounds back inside. The whole creature is translated so its bodies keep
// their layout, and velocity along each offending axis is zeroed. This is a
// corrective step, not physics.
func (g *Game) applyFailsafe() {
	for _, c := range g.creatures {
		if g.clampCreature(c) {
			g.collector.RecordFailsafe()
		}
	}
}

// clampCreature reports whether c had to be moved.
func (g *Game) clampCreature(c creature.Creature) bool {
	h := c.Handles()
	p := g.world.MustBody(h.Primary()).Position
	b := g.wc.Bounds
	margin := g.cfg.Simulation.FailsafeMargin

	dx := correction(p.X, b.Min.X, b.Max.X, margin)
	dy := correction(p.Y, b.Min.Y, b.Max.Y, margin)
	if dx == 0 && dy == 0 {
		return false
	}

	shift := r2.Vec{X: dx, Y: dy}
	for _, bh := range h.Bodies {
		s := g.world.MustBody(bh)
		g.world.SetTranslation(bh, r2.Add(s.Position, shift))
		v := s.LinearVelocity
		if dx != 0 {
			v.X = 0
		}
		if dy != 0 {
			v.Y = 0
		}
		g.world.SetLinearVelocity(bh, v)
	}
	slog.Debug("failsafe",
		"tick", g.tick,
		"creature", c.ID(),
		"kind", c.Kind(),
		"x", p.X, "y", p.Y,
		"dx", dx, "dy", dy,
	)
	return true
}

// correction returns the shift that brings v back into [lo, hi], landing
// margin inside the violated edge. A margin too wide for the range lands
// in the middle.
func correction(v, lo, hi, margin float64) float64 {
	if v >= lo && v <= hi {
		return 0
	}
	if margin < 0 || 2*margin > hi-lo {
		margin = (hi - lo) / 2
	}
	if v < lo {
		return lo + margin - v
	}
	return hi - margin - v
}
