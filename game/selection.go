package game

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/physics"
)

// CreatureAt returns the creature whose body is closest to p among those
// with a collider within radius of p. Walls are ignored.
func (g *Game) CreatureAt(p r2.Vec, radius float64) (creature.Creature, bool) {
	var (
		best     creature.Creature
		bestDist = -1.0
	)
	g.world.IntersectionsWithDisc(p, radius, physics.QueryFilter{Groups: physics.AllGroups}, func(h physics.ColliderHandle) bool {
		id, ok := g.world.ColliderUserData(h)
		if !ok || id == creature.WallID {
			return true
		}
		c, ok := g.Creature(id)
		if !ok {
			return true
		}
		bh, ok := g.world.ColliderBody(h)
		if !ok {
			return true
		}
		d := r2.Norm2(r2.Sub(g.world.MustBody(bh).Position, p))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
		return true
	})
	return best, best != nil
}
