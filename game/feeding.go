package game

import (
	"log/slog"

	"github.com/pthm-cable/softies/creature"
)

// resolveFeeding applies the frame's feeding intents in the order they were
// recorded. A prey is eaten at most once per frame; intents naming a
// creature that is gone, or already eaten, are dropped.
func (g *Game) resolveFeeding() {
	if len(g.intents) == 0 {
		return
	}
	clear(g.eaten)

	for _, in := range g.intents {
		if in.Predator == in.Prey || g.eaten[in.Prey] || g.eaten[in.Predator] {
			continue
		}
		predator, ok := g.Creature(in.Predator)
		if !ok {
			continue
		}
		prey, ok := g.Creature(in.Prey)
		if !ok {
			continue
		}

		predator.Attributes().GainSatiety(in.Satiety)
		g.eaten[in.Prey] = true
		g.collector.RecordMeal()

		if r, ok := prey.(creature.Respawner); ok {
			r.Respawn(g.world, g.randomPosition(prey.Kind()))
			g.collector.RecordRespawn()
		} else {
			g.Despawn(in.Prey)
			g.collector.RecordDespawn()
		}
		slog.Debug("meal",
			"tick", g.tick,
			"creature", in.Predator,
			"prey", in.Prey,
			"kind", prey.Kind(),
			"satiety", in.Satiety,
		)
	}
}
