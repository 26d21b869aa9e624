package game

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/creatures"
	"github.com/pthm-cable/softies/physics"
)

// spawnMargin keeps fresh creatures this far from the walls.
const spawnMargin = 0.5

// spawnWalls surrounds the world bounds with fixed boxes tagged WallID.
// Floor and ceiling extend past the corners so the walls overlap.
func (g *Game) spawnWalls() {
	b := g.wc.Bounds
	hw, hh := (b.Max.X-b.Min.X)/2, (b.Max.Y-b.Min.Y)/2
	mid := r2.Scale(0.5, r2.Add(b.Min, b.Max))
	wt := g.cfg.World.WallThickness / 2
	if wt <= 0 {
		wt = 0.25
	}

	walls := []struct {
		center r2.Vec
		half   r2.Vec
	}{
		{r2.Vec{X: mid.X, Y: b.Min.Y - wt}, r2.Vec{X: hw + 2*wt, Y: wt}}, // floor
		{r2.Vec{X: mid.X, Y: b.Max.Y + wt}, r2.Vec{X: hw + 2*wt, Y: wt}}, // ceiling
		{r2.Vec{X: b.Min.X - wt, Y: mid.Y}, r2.Vec{X: wt, Y: hh}},        // left
		{r2.Vec{X: b.Max.X + wt, Y: mid.Y}, r2.Vec{X: wt, Y: hh}},        // right
	}
	for _, w := range walls {
		h := g.world.CreateBody(physics.BodyDesc{Kind: components.Fixed, Position: w.center})
		d := physics.Cuboid(w.half.X, w.half.Y)
		d.UserData = creature.WallID
		g.world.CreateCollider(d, h)
		g.walls = append(g.walls, h)
	}
}

// spawnInitialPopulation creates the configured number of each kind at
// random positions.
func (g *Game) spawnInitialPopulation() error {
	for _, kind := range creatures.Kinds() {
		n := g.factory.Count(kind)
		for i := 0; i < n; i++ {
			if _, err := g.Spawn(kind, g.randomPosition(kind)); err != nil {
				return err
			}
		}
		slog.Info("population spawned", "kind", kind, "count", n)
	}
	return nil
}

// Spawn builds a creature of kind and registers it at at.
func (g *Game) Spawn(kind creature.Kind, at r2.Vec) (creature.Creature, error) {
	c, err := g.factory.New(kind)
	if err != nil {
		return nil, fmt.Errorf("spawning %v: %w", kind, err)
	}
	g.add(c, at)
	return c, nil
}

// SetSegments resizes a segmented creature in place, keeping its identity.
// It reports false when id is unknown or its kind has a fixed body. Like
// Step, it must run on the goroutine that steps the game.
func (g *Game) SetSegments(id creature.ID, n int) bool {
	c, ok := g.Creature(id)
	if !ok {
		return false
	}
	s, ok := c.(creature.Segmented)
	if !ok {
		return false
	}
	s.SetSegments(g.world, n)
	g.view = g.buildView()
	slog.Debug("segments changed", "tick", g.tick, "creature", id, "segments", s.SegmentCount())
	return true
}

// add spawns c into the world with a fresh identity and appends it.
func (g *Game) add(c creature.Creature, at r2.Vec) {
	c.Spawn(g.world, g.ids.Next(), at)
	g.byID[c.ID()] = len(g.creatures)
	g.creatures = append(g.creatures, c)
}

// Despawn removes a creature and all of its physics objects. It reports
// whether the creature existed.
func (g *Game) Despawn(id creature.ID) bool {
	i, ok := g.byID[id]
	if !ok {
		return false
	}
	c := g.creatures[i]
	for _, b := range c.Handles().Bodies {
		g.world.RemoveBody(b)
	}
	g.creatures = append(g.creatures[:i], g.creatures[i+1:]...)
	delete(g.byID, id)
	for j := i; j < len(g.creatures); j++ {
		g.byID[g.creatures[j].ID()] = j
	}
	slog.Debug("creature despawned", "tick", g.tick, "creature", id, "kind", c.Kind())
	return true
}

// extent returns how far a kind's bodies trail behind its spawn point
// along -x.
func (g *Game) extent(kind creature.Kind) float64 {
	switch kind {
	case creature.KindSnake:
		return float64(g.cfg.Snake.Segments-1)*g.cfg.Snake.SegmentSpacing + g.cfg.Snake.SegmentRadius
	case creature.KindPlankton:
		return g.cfg.Plankton.BodySpacing + g.cfg.Plankton.BodyRadius
	}
	return 0
}

// randomPosition picks a spawn point that keeps a kind's whole body
// inside the bounds when the world is large enough.
func (g *Game) randomPosition(kind creature.Kind) r2.Vec {
	b := g.wc.Bounds
	minX := b.Min.X + spawnMargin + g.extent(kind)
	maxX := b.Max.X - spawnMargin
	minY, maxY := b.Min.Y+spawnMargin, b.Max.Y-spawnMargin
	return r2.Vec{X: g.uniform(minX, maxX, b.Min.X, b.Max.X), Y: g.uniform(minY, maxY, b.Min.Y, b.Max.Y)}
}

// uniform samples [lo, hi], falling back to the middle of [outerLo,
// outerHi] when the range is empty.
func (g *Game) uniform(lo, hi, outerLo, outerHi float64) float64 {
	if hi <= lo {
		return (outerLo + outerHi) / 2
	}
	return lo + g.rng.Float64()*(hi-lo)
}
