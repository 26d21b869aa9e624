package game

import (
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/telemetry"
)

// Step advances the simulation by one frame of dt seconds. dt is clamped
// to physics.max_frame_dt; non-positive values are ignored.
func (g *Game) Step(dt float64) {
	if dt <= 0 {
		return
	}
	if dt > g.cfg.Physics.MaxFrameDT {
		dt = g.cfg.Physics.MaxFrameDT
	}

	g.perf.StartTick()
	g.readTarget()

	g.perf.StartPhase(telemetry.PhasePassive)
	for _, c := range g.creatures {
		c.UpdatePassiveStats(dt)
	}

	g.perf.StartPhase(telemetry.PhaseSnapshot)
	g.snap = creature.Capture(g.world, g.creatures)
	g.world.SyncIndex()

	g.perf.StartPhase(telemetry.PhaseDecision)
	g.intents = g.intents[:0]
	if g.parallelDecisions() {
		g.decideParallel(dt)
	} else {
		g.decideSerial(dt)
	}

	g.perf.StartPhase(telemetry.PhaseFeeding)
	g.resolveFeeding()

	g.perf.StartPhase(telemetry.PhaseForces)
	for _, c := range g.creatures {
		c.ApplyCustomForces(dt, creature.NewActuator(g.world, c.ID(), c.Handles(), nil), &g.wc)
	}

	g.perf.StartPhase(telemetry.PhaseIntegrate)
	sub := g.cfg.Physics.Substeps
	for i := 0; i < sub; i++ {
		g.world.Step(dt / float64(sub))
	}

	g.perf.StartPhase(telemetry.PhaseFailsafe)
	g.applyFailsafe()

	// The frame is complete; the view and telemetry are stamped with it.
	g.tick++
	g.wc.Time += dt

	g.perf.StartPhase(telemetry.PhaseView)
	g.view = g.buildView()

	g.perf.EndTick()
	g.flushTelemetry()
}

// UpdateHeadless runs Options.StepsPerUpdate frames at the fixed physics dt.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.opts.StepsPerUpdate; i++ {
		g.Step(g.cfg.Physics.DT)
	}
}

// decideSerial runs every decision step in creature order with immediate
// actuators.
func (g *Game) decideSerial(dt float64) {
	sense := creature.NewSensor(g.world, g.snap)
	for _, c := range g.creatures {
		act := creature.NewActuator(g.world, c.ID(), c.Handles(), &g.intents)
		c.UpdateStateAndBehavior(c.ID(), dt, act, g.snap, &g.wc, sense)
	}
}
