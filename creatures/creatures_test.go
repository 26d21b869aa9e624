package creatures

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/physics"
)

type harness struct {
	cfg   *config.Config
	world *physics.World
	wc    *creature.WorldContext
	ids   *creature.IDSource
	cs    []creature.Creature
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	bounds := r2.Box{Min: r2.Vec{X: -100, Y: -100}, Max: r2.Vec{X: 100, Y: 100}}
	p := physics.DefaultParams()
	p.Gravity = cfg.Derived.Gravity
	p.Bounds = bounds
	return &harness{
		cfg:   cfg,
		world: physics.NewWorld(p),
		wc: &creature.WorldContext{
			Bounds:     bounds,
			Gravity:    cfg.Derived.Gravity,
			SurfaceY:   cfg.World.SurfaceY,
			Light:      creature.LightDepth,
			LightDepth: cfg.World.LightDepth,
		},
		ids: creature.NewIDSource(rand.New(rand.NewSource(5))),
	}
}

func (h *harness) add(c creature.Creature, at r2.Vec) creature.Creature {
	c.Spawn(h.world, h.ids.Next(), at)
	h.cs = append(h.cs, c)
	return c
}

// step runs one frame of the pipeline and returns the feeding intents.
func (h *harness) step(dt float64) []creature.FeedingIntent {
	var intents []creature.FeedingIntent
	for _, c := range h.cs {
		c.UpdatePassiveStats(dt)
	}
	snap := creature.Capture(h.world, h.cs)
	sense := creature.NewSensor(h.world, snap)
	for _, c := range h.cs {
		act := creature.NewActuator(h.world, c.ID(), c.Handles(), &intents)
		c.UpdateStateAndBehavior(c.ID(), dt, act, snap, h.wc, sense)
	}
	for _, c := range h.cs {
		c.ApplyCustomForces(dt, creature.NewActuator(h.world, c.ID(), c.Handles(), nil), h.wc)
	}
	h.world.Step(dt)
	h.wc.Time += dt
	return intents
}

func TestSnakeJointLimitsScenario(t *testing.T) {
	h := newHarness(t)
	h.cfg.Snake.Segments = 5
	h.cfg.Snake.JointLimitDeg = 30
	snake, err := NewSnake(h.cfg.Snake)
	require.NoError(t, err)
	h.add(snake, r2.Vec{})

	h.wc.Target = r2.Vec{X: 0, Y: 80}
	h.wc.HasTarget = true
	limit := 30 * math.Pi / 180

	for i := 0; i < 1000; i++ {
		h.step(1.0 / 60)
		for j, jh := range snake.Handles().Joints {
			angle, err := h.world.JointAngle(jh)
			require.NoError(t, err)
			require.LessOrEqualf(t, math.Abs(angle), limit+1e-9, "step %d joint %d", i, j)
		}
	}
	assert.Equal(t, creature.SeekingTarget, snake.State())
	assert.Len(t, snake.Handles().Bodies, 5)
	assert.Len(t, snake.Handles().Joints, 4)
}

func TestSnakeMovesTowardTarget(t *testing.T) {
	h := newHarness(t)
	snake, err := NewSnake(h.cfg.Snake)
	require.NoError(t, err)
	h.add(snake, r2.Vec{})
	h.wc.Target = r2.Vec{X: 10}
	h.wc.HasTarget = true

	start := h.world.MustBody(snake.Handles().Primary()).Position
	for i := 0; i < 120; i++ {
		h.step(1.0 / 60)
	}
	end := h.world.MustBody(snake.Handles().Primary()).Position
	assert.Greater(t, end.X-start.X, 0.3)
}

func TestSnakeRestsWhenTired(t *testing.T) {
	h := newHarness(t)
	snake, err := NewSnake(h.cfg.Snake)
	require.NoError(t, err)
	h.add(snake, r2.Vec{})

	snake.Attributes().SetEnergy(snake.Attributes().MaxEnergy() * 0.1)
	h.step(1.0 / 60)
	assert.Equal(t, creature.Resting, snake.State())

	// Still below the wake-up threshold after rising past the tired mark.
	snake.Attributes().SetEnergy(snake.Attributes().MaxEnergy() * 0.3)
	h.step(1.0 / 60)
	assert.Equal(t, creature.Resting, snake.State())

	snake.Attributes().SetEnergy(snake.Attributes().MaxEnergy() * 0.7)
	h.step(1.0 / 60)
	assert.Equal(t, creature.Wandering, snake.State())
}

func TestRestingSnakeStraightens(t *testing.T) {
	h := newHarness(t)
	snake, err := NewSnake(h.cfg.Snake)
	require.NoError(t, err)
	h.add(snake, r2.Vec{})

	dt := 1.0 / 60
	for i := 0; i < 60; i++ {
		h.step(dt)
	}
	bent := false
	for _, j := range snake.Handles().Joints {
		angle, err := h.world.JointAngle(j)
		require.NoError(t, err)
		bent = bent || math.Abs(angle) > 0.1
	}
	require.True(t, bent, "wiggling should bend the chain")

	snake.Attributes().SetEnergy(snake.Attributes().MaxEnergy() * 0.1)
	for i := 0; i < 240; i++ {
		h.step(dt)
	}
	require.Equal(t, creature.Resting, snake.State())

	for _, j := range snake.Handles().Joints {
		m, err := h.world.Motor(j)
		require.NoError(t, err)
		assert.Equal(t, components.MotorPosition, m.Mode)
		assert.Equal(t, 0.0, m.TargetPos)
		assert.Equal(t, h.cfg.Snake.RestStiffness, m.Stiffness)

		angle, err := h.world.JointAngle(j)
		require.NoError(t, err)
		assert.InDelta(t, 0, angle, 0.05)
	}
}

func TestSnakeSetSegments(t *testing.T) {
	h := newHarness(t)
	snake, err := NewSnake(h.cfg.Snake)
	require.NoError(t, err)
	h.add(snake, r2.Vec{})
	id := snake.ID()
	spacing := h.cfg.Snake.SegmentSpacing

	old := snake.Handles()
	snake.SetSegments(h.world, 4)
	assert.Equal(t, 4, snake.SegmentCount())
	assert.Len(t, snake.Handles().Joints, 3)
	assert.Equal(t, 4, h.world.BodyCount())
	_, err = h.world.Body(old.Bodies[4])
	assert.ErrorIs(t, err, physics.ErrStaleHandle)

	snake.SetSegments(h.world, 7)
	require.Equal(t, 7, snake.SegmentCount())
	require.Len(t, snake.Handles().Joints, 6)
	pts := creature.Segments(snake, h.world)
	for i := 1; i < len(pts); i++ {
		assert.InDelta(t, spacing, r2.Norm(r2.Sub(pts[i], pts[i-1])), 1e-9)
	}
	for _, j := range snake.Handles().Joints {
		angle, err := h.world.JointAngle(j)
		require.NoError(t, err)
		assert.InDelta(t, 0, angle, 1e-9)
	}

	for i := 0; i < 60; i++ {
		h.step(1.0 / 60)
	}
	assert.Equal(t, id, snake.ID())

	snake.SetSegments(h.world, 0)
	assert.Equal(t, 1, snake.SegmentCount())
	assert.Empty(t, snake.Handles().Joints)

	snake.SetSegments(h.world, 1000)
	assert.Equal(t, MaxSegments, snake.SegmentCount())
	assert.Equal(t, MaxSegments, h.world.BodyCount())
}

func TestHungrySnakeHuntsPlankton(t *testing.T) {
	h := newHarness(t)
	f := NewFactory(h.cfg, 1)
	sc, err := f.New(creature.KindSnake)
	require.NoError(t, err)
	snake := h.add(sc, r2.Vec{}).(*Snake)
	pc, err := f.New(creature.KindPlankton)
	require.NoError(t, err)
	prey := h.add(pc, r2.Vec{X: 0.25})

	snake.Attributes().SetSatiety(10)
	intents := h.step(1.0 / 60)

	assert.Equal(t, creature.SeekingFood, snake.State())
	require.Len(t, intents, 1)
	assert.Equal(t, snake.ID(), intents[0].Predator)
	assert.Equal(t, prey.ID(), intents[0].Prey)
	assert.Equal(t, h.cfg.Snake.MealSatiety, intents[0].Satiety)
}

func TestPlanktonFleesPredators(t *testing.T) {
	h := newHarness(t)
	f := NewFactory(h.cfg, 1)
	pc, _ := f.New(creature.KindPlankton)
	prey := h.add(pc, r2.Vec{X: 1}).(*Plankton)
	sc, _ := f.New(creature.KindSnake)
	h.add(sc, r2.Vec{})

	h.step(1.0 / 60)
	assert.Equal(t, creature.Fleeing, prey.State())
	v := h.world.MustBody(prey.Handles().Primary()).LinearVelocity
	assert.Greater(t, v.X, 0.0)
}

func TestPlanktonDriftsAndPhotosynthesizes(t *testing.T) {
	h := newHarness(t)
	f := NewFactory(h.cfg, 1)
	pc, _ := f.New(creature.KindPlankton)
	p := h.add(pc, r2.Vec{Y: h.cfg.World.SurfaceY - 0.5}).(*Plankton)
	h.add(mustNew(t, f, creature.KindPlankton), r2.Vec{X: 0.5, Y: h.cfg.World.SurfaceY - 0.5})

	p.Attributes().SetEnergy(1)
	for i := 0; i < 60; i++ {
		h.step(1.0 / 60)
	}
	assert.Equal(t, creature.Drifting, p.State())
	assert.Greater(t, p.Light(), 0.5)
	assert.Greater(t, p.Attributes().Energy(), 1.0)
}

func TestPlanktonRespawn(t *testing.T) {
	h := newHarness(t)
	p := h.add(mustNew(t, NewFactory(h.cfg, 1), creature.KindPlankton), r2.Vec{}).(*Plankton)
	p.Attributes().SetEnergy(0)
	h.world.SetLinearVelocity(p.Handles().Primary(), r2.Vec{X: 3})

	p.Respawn(h.world, r2.Vec{X: 4, Y: 2})

	head := h.world.MustBody(p.Handles().Bodies[0])
	tail := h.world.MustBody(p.Handles().Bodies[1])
	assert.Equal(t, r2.Vec{X: 4, Y: 2}, head.Position)
	assert.InDelta(t, h.cfg.Plankton.BodySpacing, r2.Norm(r2.Sub(head.Position, tail.Position)), 1e-12)
	assert.Equal(t, r2.Vec{}, head.LinearVelocity)
	assert.Equal(t, p.Attributes().MaxEnergy(), p.Attributes().Energy())
}

func TestDrawEmitsShapes(t *testing.T) {
	h := newHarness(t)
	f := NewFactory(h.cfg, 1)
	snake := h.add(mustNew(t, f, creature.KindSnake), r2.Vec{})
	plankton := h.add(mustNew(t, f, creature.KindPlankton), r2.Vec{X: 3})

	var rec creature.Recorder
	snake.Draw(&rec, h.world)
	assert.Equal(t, h.cfg.Snake.Segments, rec.Count(creature.DrawCircle))
	assert.Equal(t, h.cfg.Snake.Segments-1, rec.Count(creature.DrawPolygon))

	rec = creature.Recorder{}
	plankton.Draw(&rec, h.world)
	assert.Equal(t, 2, rec.Count(creature.DrawCircle))
}

func TestFactory(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	f := NewFactory(cfg, 1)

	for _, k := range Kinds() {
		c, err := f.New(k)
		require.NoError(t, err)
		assert.Equal(t, k, c.Kind())
	}
	assert.Equal(t, cfg.Snake.Count, f.Count(creature.KindSnake))

	_, err = f.New(creature.Kind(99))
	assert.Error(t, err)

	cfg.Plankton.Attributes.Diet = "rock"
	_, err = f.New(creature.KindPlankton)
	assert.Error(t, err)
}

func mustNew(t *testing.T, f *Factory, k creature.Kind) creature.Creature {
	t.Helper()
	c, err := f.New(k)
	require.NoError(t, err)
	return c
}
