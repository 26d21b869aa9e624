package creatures

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/physics"
)

const (
	// restedFraction is the energy fraction at which a resting snake gets up.
	restedFraction = 0.6

	// MaxSegments bounds SetSegments.
	MaxSegments = 20
)

var (
	snakeBody    = color.RGBA{R: 90, G: 170, B: 90, A: 255}
	snakeHead    = color.RGBA{R: 60, G: 130, B: 60, A: 255}
	snakeHunting = color.RGBA{R: 200, G: 90, B: 60, A: 255}
	snakeResting = color.RGBA{R: 90, G: 110, B: 170, A: 255}
	snakeSkin    = color.RGBA{R: 120, G: 200, B: 120, A: 160}
)

// Snake is a chain of ball segments joined by limited revolute joints. Joint
// motors drive a travelling wave along the body while the head steers toward
// food, the user's target, or a wandering heading.
type Snake struct {
	cfg   config.SnakeConfig
	limit float64

	id      creature.ID
	attrs   *creature.Attributes
	handles creature.Handles
	state   creature.State

	timer   float64
	phase0  float64
	heading float64
	rng     *rand.Rand
}

// NewSnake builds an unspawned snake.
func NewSnake(cfg config.SnakeConfig) (*Snake, error) {
	attrs, err := creature.NewAttributes(cfg.Attributes)
	if err != nil {
		return nil, err
	}
	cfg.Segments = max(1, min(MaxSegments, cfg.Segments))
	return &Snake{
		cfg:   cfg,
		limit: cfg.JointLimitDeg * math.Pi / 180,
		attrs: attrs,
		state: creature.Wandering,
	}, nil
}

func (s *Snake) ID() creature.ID                  { return s.id }
func (s *Snake) Kind() creature.Kind              { return creature.KindSnake }
func (s *Snake) State() creature.State            { return s.state }
func (s *Snake) Attributes() *creature.Attributes { return s.attrs }
func (s *Snake) Handles() creature.Handles        { return s.handles }
func (s *Snake) Radius() float64                  { return s.cfg.SegmentRadius }

// Spawn lays the segments out along -x from at, head first.
func (s *Snake) Spawn(w *physics.World, id creature.ID, at r2.Vec) {
	s.id = id
	seed := xxhash.Sum64(id[:])
	s.rng = rand.New(rand.NewSource(int64(seed)))
	s.phase0 = float64(seed%3600) / 3600 * 2 * math.Pi
	s.heading = s.rng.Float64() * 2 * math.Pi

	s.handles = creature.Handles{}
	for i := 0; i < s.cfg.Segments; i++ {
		s.addSegment(w, r2.Add(at, r2.Vec{X: -float64(i) * s.cfg.SegmentSpacing}), 0, r2.Vec{})
	}
}

// addSegment appends a body at the tail, jointed to the previous tail.
func (s *Snake) addSegment(w *physics.World, pos r2.Vec, angle float64, vel r2.Vec) {
	b := w.CreateBody(physics.BodyDesc{
		Kind:           components.Dynamic,
		Position:       pos,
		Angle:          angle,
		LinearVelocity: vel,
		LinearDamping:  s.cfg.LinearDamping,
		AngularDamping: s.cfg.AngularDamping,
	})
	d := physics.Ball(s.cfg.SegmentRadius)
	d.Density = s.cfg.Density
	d.Friction = s.cfg.Friction
	d.Restitution = s.cfg.Restitution
	d.UserData = s.id
	w.CreateCollider(d, b)
	s.handles.Bodies = append(s.handles.Bodies, b)

	n := len(s.handles.Bodies)
	if n < 2 {
		return
	}
	spacing := s.cfg.SegmentSpacing
	j := w.CreateJoint(physics.JointDesc{
		BodyA:         s.handles.Bodies[n-2],
		BodyB:         b,
		AnchorA:       r2.Vec{X: -spacing / 2},
		AnchorB:       r2.Vec{X: spacing / 2},
		LimitsEnabled: true,
		Lower:         -s.limit,
		Upper:         s.limit,
		Motor: components.Motor{
			Mode:     components.MotorVelocity,
			MaxForce: s.cfg.MotorMaxForce,
		},
	})
	s.handles.Joints = append(s.handles.Joints, j)
}

// SegmentCount returns the current number of segments.
func (s *Snake) SegmentCount() int { return len(s.handles.Bodies) }

// SetSegments grows or shrinks a spawned snake to n segments, clamped to
// [1, MaxSegments]. New segments extend straight back from the tail; removed
// ones come off the tail. The head and identity are kept.
func (s *Snake) SetSegments(w *physics.World, n int) {
	n = max(1, min(MaxSegments, n))
	for len(s.handles.Bodies) > n {
		last := len(s.handles.Bodies) - 1
		w.RemoveBody(s.handles.Bodies[last])
		s.handles.Bodies = s.handles.Bodies[:last]
		s.handles.Joints = s.handles.Joints[:last-1]
	}
	for len(s.handles.Bodies) < n {
		tail := w.MustBody(s.handles.Bodies[len(s.handles.Bodies)-1])
		pos := r2.Add(tail.Position, physics.Rotate(r2.Vec{X: -s.cfg.SegmentSpacing}, tail.Angle))
		s.addSegment(w, pos, tail.Angle, tail.LinearVelocity)
	}
	s.cfg.Segments = n
}

func (s *Snake) UpdatePassiveStats(dt float64) {
	s.attrs.UpdatePassive(dt, s.state == creature.Resting, 0)
}

func (s *Snake) UpdateStateAndBehavior(id creature.ID, dt float64, act creature.Actuator, snap *creature.Snapshot, wc *creature.WorldContext, sense *creature.Sensor) {
	head := act.Body(0)
	var goal r2.Vec

	switch {
	case s.state == creature.Resting && s.attrs.EnergyFraction() < restedFraction,
		s.attrs.IsTired():
		s.state = creature.Resting
	default:
		prey, found := creature.Info{}, false
		if s.attrs.IsHungry() {
			prey, found = sense.NearestWhere(id, head.Position, s.cfg.SenseRadius, physics.AllGroups, s.attrs.CanEat)
		}
		switch {
		case found:
			s.state = creature.SeekingFood
			goal = prey.Position
			reach := s.cfg.BiteRange + prey.Radius + s.cfg.SegmentRadius
			if r2.Norm(r2.Sub(prey.Position, head.Position)) <= reach {
				act.Eat(prey.ID, s.cfg.MealSatiety)
			}
		case wc.HasTarget:
			s.state = creature.SeekingTarget
			goal = wc.Target
		default:
			s.state = creature.Wandering
			goal = r2.Add(head.Position, s.wander(head.Position, dt, wc))
		}
	}

	// Resting snakes straighten out and hold still.
	if s.state == creature.Resting {
		for j := range s.handles.Joints {
			act.SetMotorPosition(j, 0, s.cfg.RestStiffness, s.cfg.RestDamping, s.cfg.MotorMaxForce)
		}
		return
	}

	s.timer += dt * s.cfg.WiggleSpeed
	n := len(s.handles.Joints)
	for j := 0; j < n; j++ {
		along := 0.0
		if n > 1 {
			along = float64(j) / float64(n-1)
		}
		phase := s.timer + s.phase0 + along*2*math.Pi*s.cfg.WiggleFrequency
		act.SetMotorVelocity(j, math.Sin(phase)*s.cfg.WiggleAmplitude, s.cfg.MotorMaxForce)
	}

	desired := r2.Scale(s.cfg.Speed, physics.SafeUnit(r2.Sub(goal, head.Position)))
	gain := math.Min(1, dt*s.cfg.SteerRate)
	act.ApplyImpulse(0, r2.Scale(head.Mass*gain, r2.Sub(desired, head.LinearVelocity)))
}

// wander random-walks the heading, turning back toward the middle of the
// tank when the head gets close to a wall.
func (s *Snake) wander(pos r2.Vec, dt float64, wc *creature.WorldContext) r2.Vec {
	s.heading += (s.rng.Float64()*2 - 1) * s.cfg.WanderTurnRate * dt

	margin := 1.0
	if pos.X < wc.Bounds.Min.X+margin || pos.X > wc.Bounds.Max.X-margin ||
		pos.Y < wc.Bounds.Min.Y+margin || pos.Y > wc.Bounds.Max.Y-margin {
		mid := r2.Scale(0.5, r2.Add(wc.Bounds.Min, wc.Bounds.Max))
		to := r2.Sub(mid, pos)
		s.heading = math.Atan2(to.Y, to.X)
	}
	return r2.Vec{X: math.Cos(s.heading), Y: math.Sin(s.heading)}
}

// ApplyCustomForces applies anisotropic drag, which resists sideways motion
// more than motion along the body, and buoyancy toward the target depth.
func (s *Snake) ApplyCustomForces(dt float64, act creature.Actuator, wc *creature.WorldContext) {
	n := len(s.handles.Bodies)
	states := make([]physics.BodyState, n)
	for i := range states {
		states[i] = act.Body(i)
	}

	for i, st := range states {
		prev, next := st.Position, st.Position
		if i > 0 {
			prev = states[i-1].Position
		}
		if i < n-1 {
			next = states[i+1].Position
		}
		tangent := physics.SafeUnit(r2.Sub(prev, next))
		if tangent == (r2.Vec{}) {
			tangent = physics.Rotate(r2.Vec{X: 1}, st.Angle)
		}

		v := st.LinearVelocity
		vt := r2.Scale(r2.Dot(v, tangent), tangent)
		vn := r2.Sub(v, vt)
		f := r2.Scale(-1, r2.Add(r2.Scale(s.cfg.TangentDrag, vt), r2.Scale(s.cfg.NormalDrag, vn)))
		f = r2.Add(f, buoyancy(s.cfg.Buoyancy, st, wc))
		act.ApplyForce(i, f)
	}
}

func (s *Snake) Draw(c creature.Canvas, bodies creature.BodyReader) {
	pts := creature.Segments(s, bodies)
	r := s.cfg.SegmentRadius

	creature.DrawSkin(c, pts, r*1.2, snakeSkin)
	for i := 0; i+1 < len(pts); i++ {
		c.Line(pts[i], pts[i+1], r*0.5, snakeBody)
	}
	for i := len(pts) - 1; i >= 1; i-- {
		c.Circle(pts[i], r, snakeBody)
	}

	head := snakeHead
	switch s.state {
	case creature.SeekingFood:
		head = snakeHunting
	case creature.Resting:
		head = snakeResting
	}
	c.Circle(pts[0], r*1.1, head)
}

// buoyancy returns a vertical spring-damper toward the configured depth,
// plus gravity compensation for neutrally buoyant bodies.
func buoyancy(b config.BuoyancyConfig, st physics.BodyState, wc *creature.WorldContext) r2.Vec {
	targetY := wc.SurfaceY - b.TargetDepth
	fy := st.Mass * (b.Stiffness*(targetY-st.Position.Y) - b.Damping*st.LinearVelocity.Y)
	f := r2.Vec{Y: fy}
	if b.Neutral {
		f = r2.Sub(f, r2.Scale(st.Mass, wc.Gravity))
	}
	return f
}
