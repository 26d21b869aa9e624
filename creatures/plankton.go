package creatures

import (
	"image/color"
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/physics"
)

// planktonJointLimit keeps the two bodies loosely aligned.
const planktonJointLimit = math.Pi / 4

// Plankton is a small two-body drifter. It flocks with other plankton,
// flees anything that can eat it, and feeds on light near the surface.
type Plankton struct {
	cfg     config.PlanktonConfig
	current opensimplex.Noise

	id      creature.ID
	attrs   *creature.Attributes
	handles creature.Handles
	state   creature.State
	light   float64
}

// NewPlankton builds an unspawned plankton. current drives the shared ocean
// current field; it may be nil to disable currents.
func NewPlankton(cfg config.PlanktonConfig, current opensimplex.Noise) (*Plankton, error) {
	attrs, err := creature.NewAttributes(cfg.Attributes)
	if err != nil {
		return nil, err
	}
	return &Plankton{cfg: cfg, current: current, attrs: attrs, state: creature.Drifting}, nil
}

func (p *Plankton) ID() creature.ID                  { return p.id }
func (p *Plankton) Kind() creature.Kind              { return creature.KindPlankton }
func (p *Plankton) State() creature.State            { return p.state }
func (p *Plankton) Attributes() *creature.Attributes { return p.attrs }
func (p *Plankton) Handles() creature.Handles        { return p.handles }
func (p *Plankton) Radius() float64                  { return p.cfg.BodyRadius }

// Light returns the light fraction sensed in the last decision step.
func (p *Plankton) Light() float64 { return p.light }

func (p *Plankton) Spawn(w *physics.World, id creature.ID, at r2.Vec) {
	p.id = id
	p.handles = creature.Handles{}
	for i := 0; i < 2; i++ {
		b := w.CreateBody(physics.BodyDesc{
			Kind:          components.Dynamic,
			Position:      r2.Add(at, r2.Vec{X: -float64(i) * p.cfg.BodySpacing}),
			LinearDamping: p.cfg.LinearDamping,
		})
		d := physics.Ball(p.cfg.BodyRadius)
		d.Density = p.cfg.Density
		d.Friction = p.cfg.Friction
		d.Restitution = p.cfg.Restitution
		d.UserData = id
		w.CreateCollider(d, b)
		p.handles.Bodies = append(p.handles.Bodies, b)
	}
	j := w.CreateJoint(physics.JointDesc{
		BodyA:         p.handles.Bodies[0],
		BodyB:         p.handles.Bodies[1],
		AnchorA:       r2.Vec{X: -p.cfg.BodySpacing / 2},
		AnchorB:       r2.Vec{X: p.cfg.BodySpacing / 2},
		LimitsEnabled: true,
		Lower:         -planktonJointLimit,
		Upper:         planktonJointLimit,
	})
	p.handles.Joints = append(p.handles.Joints, j)
}

// Respawn moves the plankton to at with full attributes, as if newly born.
func (p *Plankton) Respawn(w *physics.World, at r2.Vec) {
	for i, b := range p.handles.Bodies {
		w.SetTranslation(b, r2.Add(at, r2.Vec{X: -float64(i) * p.cfg.BodySpacing}))
		w.SetLinearVelocity(b, r2.Vec{})
		w.SetAngularVelocity(b, 0)
	}
	p.attrs.Refill()
	p.state = creature.Drifting
}

func (p *Plankton) UpdatePassiveStats(dt float64) {
	p.attrs.UpdatePassive(dt, false, p.light)
}

func (p *Plankton) UpdateStateAndBehavior(id creature.ID, dt float64, act creature.Actuator, snap *creature.Snapshot, wc *creature.WorldContext, sense *creature.Sensor) {
	body := act.Body(0)
	p.light = wc.LightAt(body.Position)

	if _, ok := snap.Lookup(id); !ok {
		return
	}

	var (
		threat     creature.Info
		threatDist = math.Inf(1)
		separation r2.Vec
		velSum     r2.Vec
		posSum     r2.Vec
		flock      int
	)
	for _, n := range sense.Nearby(id, body.Position, p.cfg.SenseRadius, physics.AllGroups) {
		d := r2.Sub(body.Position, n.Position)
		dist := r2.Norm(d)
		if p.attrs.CanBeEatenBy(n) {
			if dist < threatDist {
				threat, threatDist = n, dist
			}
			continue
		}
		if n.Kind != creature.KindPlankton {
			continue
		}
		flock++
		velSum = r2.Add(velSum, n.Velocity)
		posSum = r2.Add(posSum, n.Position)
		if dist > 0 && dist < p.cfg.SeparationDist {
			separation = r2.Add(separation, r2.Scale(1/dist, physics.SafeUnit(d)))
		}
	}

	if !math.IsInf(threatDist, 1) {
		p.state = creature.Fleeing
		away := physics.SafeUnit(r2.Sub(body.Position, threat.Position))
		act.ApplyImpulse(0, r2.Scale(p.cfg.FleeImpulse, away))
		return
	}

	p.state = creature.Drifting
	if flock == 0 {
		return
	}
	inv := 1 / float64(flock)
	alignment := r2.Sub(r2.Scale(inv, velSum), body.LinearVelocity)
	cohesion := r2.Sub(r2.Scale(inv, posSum), body.Position)
	steer := r2.Add(
		r2.Scale(p.cfg.Separation, separation),
		r2.Add(r2.Scale(p.cfg.Alignment, alignment), r2.Scale(p.cfg.Cohesion, cohesion)),
	)
	steer = r2.Scale(body.Mass*dt, steer)
	if n := r2.Norm(steer); n > p.cfg.MaxSteer && n > 0 {
		steer = r2.Scale(p.cfg.MaxSteer/n, steer)
	}
	act.ApplyImpulse(0, steer)
}

// ApplyCustomForces applies isotropic drag, buoyancy and the ocean current.
func (p *Plankton) ApplyCustomForces(dt float64, act creature.Actuator, wc *creature.WorldContext) {
	for i := range p.handles.Bodies {
		st := act.Body(i)
		f := r2.Scale(-p.cfg.Drag, st.LinearVelocity)
		f = r2.Add(f, buoyancy(p.cfg.Buoyancy, st, wc))
		f = r2.Add(f, r2.Scale(st.Mass, p.currentAt(st.Position, wc.Time)))
		act.ApplyForce(i, f)
	}
}

// currentAt samples the current field as an acceleration.
func (p *Plankton) currentAt(pos r2.Vec, t float64) r2.Vec {
	if p.current == nil || p.cfg.CurrentStrength == 0 {
		return r2.Vec{}
	}
	s := p.cfg.CurrentScale
	angle := p.current.Eval3(pos.X*s, pos.Y*s, t*p.cfg.CurrentSpeed) * 2 * math.Pi
	return r2.Vec{X: math.Cos(angle) * p.cfg.CurrentStrength, Y: math.Sin(angle) * p.cfg.CurrentStrength}
}

func (p *Plankton) Draw(c creature.Canvas, bodies creature.BodyReader) {
	pts := creature.Segments(p, bodies)
	g := uint8(120 + 135*p.attrs.EnergyFraction())
	fill := color.RGBA{R: 60, G: g, B: 140, A: 255}
	if p.state == creature.Fleeing {
		fill = color.RGBA{R: 230, G: 200, B: 80, A: 255}
	}
	c.Line(pts[0], pts[1], p.cfg.BodyRadius, fill)
	for _, pt := range pts {
		c.Circle(pt, p.cfg.BodyRadius, fill)
	}
}
