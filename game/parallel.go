package game

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/softies/creature"
)

// parallelDecisions reports whether this frame's decisions run on workers.
// Below the threshold, goroutine overhead outweighs the gain.
func (g *Game) parallelDecisions() bool {
	return g.cfg.Simulation.ParallelDecisions && len(g.creatures) >= g.cfg.Simulation.ParallelThreshold
}

// decideParallel runs decision steps concurrently against the frozen
// snapshot. Each creature writes into its own command queue; the queues are
// then applied in creature order, so the outcome matches decideSerial.
func (g *Game) decideParallel(dt float64) {
	n := len(g.creatures)
	if cap(g.queues) < n {
		g.queues = make([]creature.CommandQueue, n)
	}
	g.queues = g.queues[:n]

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers
	if chunk < 1 {
		chunk = 1
	}
	sense := creature.NewSensor(g.world, g.snap)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		eg.Go(func() error {
			for i := start; i < end; i++ {
				c := g.creatures[i]
				act := creature.NewDeferredActuator(g.world, c.ID(), c.Handles(), &g.queues[i])
				c.UpdateStateAndBehavior(c.ID(), dt, act, g.snap, &g.wc, sense)
			}
			return nil
		})
	}
	// Workers never return errors; a missing own handle panics instead.
	_ = eg.Wait()

	for i := range g.queues {
		g.queues[i].Apply(g.world)
		g.intents = g.queues[i].DrainIntents(g.intents)
	}
}
