// Package physics is a small 2D rigid-body world with ball and box colliders,
// revolute joints with limits and motors, and a uniform-grid spatial index.
//
// Bodies, colliders and joints live in an ark ECS world. Callers hold typed
// handles wrapping ecs.Entity, so a handle to a removed object is detected as
// stale instead of aliasing a recycled slot.
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
)

// ErrStaleHandle is returned when a handle no longer refers to a live object.
var ErrStaleHandle = errors.New("physics: stale handle")

// BodyHandle refers to a rigid body. The zero value is invalid.
type BodyHandle struct{ e ecs.Entity }

// ColliderHandle refers to a collider. The zero value is invalid.
type ColliderHandle struct{ e ecs.Entity }

// JointHandle refers to a joint. The zero value is invalid.
type JointHandle struct{ e ecs.Entity }

func (h BodyHandle) String() string     { return fmt.Sprintf("body#%d", h.e.ID()) }
func (h ColliderHandle) String() string { return fmt.Sprintf("collider#%d", h.e.ID()) }
func (h JointHandle) String() string    { return fmt.Sprintf("joint#%d", h.e.ID()) }

// Params configures a World.
type Params struct {
	Gravity            r2.Vec
	SolverIterations   int
	PositionIterations int
	CellSize           float64 // spatial grid cell size
	Bounds             r2.Box  // region covered by the spatial grid
}

// DefaultParams returns parameters for a 20x16 m aquarium under earth gravity.
func DefaultParams() Params {
	return Params{
		Gravity:            r2.Vec{Y: -9.81},
		SolverIterations:   8,
		PositionIterations: 3,
		CellSize:           1,
		Bounds:             r2.Box{Min: r2.Vec{X: -10, Y: -8}, Max: r2.Vec{X: 10, Y: 8}},
	}
}

// World owns every body, collider and joint. It is not safe for concurrent
// mutation; concurrent reads are safe once SyncIndex has been called.
type World struct {
	ecs    *ecs.World
	params Params

	bodyMapper *ecs.Map5[
		components.Transform,
		components.Velocity,
		components.Body,
		components.Forces,
		components.Attachments,
	]
	bodyFilter *ecs.Filter4[
		components.Transform,
		components.Velocity,
		components.Body,
		components.Forces,
	]

	transformMap *ecs.Map1[components.Transform]
	velocityMap  *ecs.Map1[components.Velocity]
	bodyMap      *ecs.Map1[components.Body]
	forcesMap    *ecs.Map1[components.Forces]
	attachMap    *ecs.Map1[components.Attachments]
	colliderMap  *ecs.Map1[components.Collider]
	jointMap     *ecs.Map1[components.Joint]

	// Creation-ordered lists. Joint order is the solver order, which makes
	// limit projection exact for parent-before-child chains.
	colliders []ecs.Entity
	joints    []ecs.Entity

	grid       *SpatialGrid
	indexDirty bool
	contacts   []contact
}

// NewWorld creates an empty physics world.
func NewWorld(p Params) *World {
	if p.SolverIterations < 1 {
		p.SolverIterations = 1
	}
	if p.CellSize <= 0 {
		p.CellSize = 1
	}
	w := ecs.NewWorld()
	return &World{
		ecs:    w,
		params: p,
		bodyMapper: ecs.NewMap5[
			components.Transform,
			components.Velocity,
			components.Body,
			components.Forces,
			components.Attachments,
		](w),
		bodyFilter: ecs.NewFilter4[
			components.Transform,
			components.Velocity,
			components.Body,
			components.Forces,
		](w),
		transformMap: ecs.NewMap1[components.Transform](w),
		velocityMap:  ecs.NewMap1[components.Velocity](w),
		bodyMap:      ecs.NewMap1[components.Body](w),
		forcesMap:    ecs.NewMap1[components.Forces](w),
		attachMap:    ecs.NewMap1[components.Attachments](w),
		colliderMap:  ecs.NewMap1[components.Collider](w),
		jointMap:     ecs.NewMap1[components.Joint](w),
		grid:         NewSpatialGrid(p.Bounds, p.CellSize),
	}
}

// Params returns the world's parameters.
func (w *World) Params() Params { return w.params }

// BodyDesc describes a body to create.
type BodyDesc struct {
	Kind           components.BodyKind
	Position       r2.Vec
	Angle          float64
	LinearVelocity r2.Vec
	LinearDamping  float64
	AngularDamping float64
	IgnoreGravity  bool
}

// CreateBody registers a new rigid body. Dynamic bodies without colliders
// get unit mass and inertia.
func (w *World) CreateBody(d BodyDesc) BodyHandle {
	tr := components.Transform{Pos: d.Position, Angle: d.Angle}
	vel := components.Velocity{Linear: d.LinearVelocity}
	body := components.Body{
		Kind:           d.Kind,
		LinearDamping:  d.LinearDamping,
		AngularDamping: d.AngularDamping,
		IgnoreGravity:  d.IgnoreGravity,
	}
	setMass(&body, 0, 0)
	e := w.bodyMapper.NewEntity(&tr, &vel, &body, &components.Forces{}, &components.Attachments{})
	return BodyHandle{e}
}

// ColliderDesc describes a collider to attach to a body.
type ColliderDesc struct {
	Shape       components.ShapeKind
	Radius      float64
	HalfExtents r2.Vec
	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool
	Groups      InteractionGroups
	UserData    uuid.UUID
}

// Ball returns a ball collider description with common defaults.
func Ball(radius float64) ColliderDesc {
	return ColliderDesc{Shape: components.Ball, Radius: radius, Density: 1, Friction: 0.5, Groups: AllGroups}
}

// Cuboid returns a box collider description with common defaults.
func Cuboid(hx, hy float64) ColliderDesc {
	return ColliderDesc{Shape: components.Box, HalfExtents: r2.Vec{X: hx, Y: hy}, Density: 1, Friction: 0.5, Groups: AllGroups}
}

// CreateCollider attaches a collider to parent and updates its mass.
func (w *World) CreateCollider(d ColliderDesc, parent BodyHandle) ColliderHandle {
	w.mustAlive(parent.e, "collider parent")
	groups := d.Groups.normalize()
	col := components.Collider{
		Parent:      parent.e,
		Shape:       d.Shape,
		Radius:      d.Radius,
		HalfExtents: d.HalfExtents,
		Density:     d.Density,
		Friction:    d.Friction,
		Restitution: d.Restitution,
		Sensor:      d.Sensor,
		Memberships: groups.Memberships,
		Filter:      groups.Filter,
		UserData:    d.UserData,
	}
	e := w.colliderMap.NewEntity(&col)
	w.colliders = append(w.colliders, e)

	att := w.attachMap.Get(parent.e)
	att.Colliders = append(att.Colliders, e)
	w.recomputeMass(parent.e)
	w.indexDirty = true
	return ColliderHandle{e}
}

// JointDesc describes a revolute joint between two bodies.
type JointDesc struct {
	BodyA, BodyB    BodyHandle
	AnchorA         r2.Vec
	AnchorB         r2.Vec
	LimitsEnabled   bool
	Lower, Upper    float64
	ContactsEnabled bool
	Motor           components.Motor
}

// CreateJoint connects two bodies. The current relative rotation becomes the
// joint's zero angle.
func (w *World) CreateJoint(d JointDesc) JointHandle {
	w.mustAlive(d.BodyA.e, "joint body A")
	w.mustAlive(d.BodyB.e, "joint body B")
	j := components.Joint{
		BodyA:           d.BodyA.e,
		BodyB:           d.BodyB.e,
		AnchorA:         d.AnchorA,
		AnchorB:         d.AnchorB,
		RefAngle:        w.transformMap.Get(d.BodyB.e).Angle - w.transformMap.Get(d.BodyA.e).Angle,
		LimitsEnabled:   d.LimitsEnabled,
		Lower:           d.Lower,
		Upper:           d.Upper,
		ContactsEnabled: d.ContactsEnabled,
		Motor:           d.Motor,
	}
	e := w.jointMap.NewEntity(&j)
	w.joints = append(w.joints, e)

	for _, b := range []ecs.Entity{d.BodyA.e, d.BodyB.e} {
		att := w.attachMap.Get(b)
		att.Joints = append(att.Joints, e)
	}
	return JointHandle{e}
}

// RemoveJoint deletes a joint. Removing a stale joint is a no-op.
func (w *World) RemoveJoint(h JointHandle) {
	if !w.ecs.Alive(h.e) {
		return
	}
	j := w.jointMap.Get(h.e)
	for _, b := range []ecs.Entity{j.BodyA, j.BodyB} {
		if w.ecs.Alive(b) {
			att := w.attachMap.Get(b)
			att.Joints = removeEntity(att.Joints, h.e)
		}
	}
	w.joints = removeEntity(w.joints, h.e)
	w.ecs.RemoveEntity(h.e)
}

// RemoveCollider detaches and deletes a collider. Removing a stale collider is a no-op.
func (w *World) RemoveCollider(h ColliderHandle) {
	if !w.ecs.Alive(h.e) {
		return
	}
	parent := w.colliderMap.Get(h.e).Parent
	w.colliders = removeEntity(w.colliders, h.e)
	w.ecs.RemoveEntity(h.e)
	if w.ecs.Alive(parent) {
		att := w.attachMap.Get(parent)
		att.Colliders = removeEntity(att.Colliders, h.e)
		w.recomputeMass(parent)
	}
	w.indexDirty = true
}

// RemoveBody deletes a body together with its colliders and joints.
func (w *World) RemoveBody(h BodyHandle) {
	if !w.ecs.Alive(h.e) {
		return
	}
	att := w.attachMap.Get(h.e)
	joints := append([]ecs.Entity(nil), att.Joints...)
	colliders := append([]ecs.Entity(nil), att.Colliders...)
	for _, j := range joints {
		w.RemoveJoint(JointHandle{j})
	}
	for _, c := range colliders {
		w.RemoveCollider(ColliderHandle{c})
	}
	w.ecs.RemoveEntity(h.e)
	w.indexDirty = true
}

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	n := 0
	q := w.bodyFilter.Query()
	for q.Next() {
		n++
	}
	return n
}

// JointCount returns the number of live joints.
func (w *World) JointCount() int { return len(w.joints) }

// ColliderCount returns the number of live colliders.
func (w *World) ColliderCount() int { return len(w.colliders) }

// BodyState is a value copy of a body's kinematic state.
type BodyState struct {
	Kind            components.BodyKind
	Position        r2.Vec
	Angle           float64
	LinearVelocity  r2.Vec
	AngularVelocity float64
	Mass            float64
	Inertia         float64
}

// Contains reports whether h refers to a live body.
func (w *World) Contains(h BodyHandle) bool { return w.ecs.Alive(h.e) }

// Body returns the current state of a body.
func (w *World) Body(h BodyHandle) (BodyState, error) {
	if !w.ecs.Alive(h.e) {
		return BodyState{}, fmt.Errorf("%v: %w", h, ErrStaleHandle)
	}
	tr := w.transformMap.Get(h.e)
	vel := w.velocityMap.Get(h.e)
	b := w.bodyMap.Get(h.e)
	return BodyState{
		Kind:            b.Kind,
		Position:        tr.Pos,
		Angle:           tr.Angle,
		LinearVelocity:  vel.Linear,
		AngularVelocity: vel.Angular,
		Mass:            b.Mass,
		Inertia:         b.Inertia,
	}, nil
}

// MustBody is like Body but panics on a stale handle. Use it for handles the
// caller owns, where a missing body is a broken invariant.
func (w *World) MustBody(h BodyHandle) BodyState {
	s, err := w.Body(h)
	if err != nil {
		panic(err)
	}
	return s
}

// SetTranslation teleports a body. The spatial index is refreshed lazily.
func (w *World) SetTranslation(h BodyHandle, pos r2.Vec) {
	w.transformMap.Get(w.mustAlive(h.e, "set translation")).Pos = pos
	w.indexDirty = true
}

// SetLinearVelocity overrides a body's linear velocity.
func (w *World) SetLinearVelocity(h BodyHandle, v r2.Vec) {
	w.velocityMap.Get(w.mustAlive(h.e, "set linear velocity")).Linear = v
}

// SetAngularVelocity overrides a body's angular velocity.
func (w *World) SetAngularVelocity(h BodyHandle, av float64) {
	w.velocityMap.Get(w.mustAlive(h.e, "set angular velocity")).Angular = av
}

// ApplyForce adds a force through the body's center for the next step.
func (w *World) ApplyForce(h BodyHandle, f r2.Vec) {
	fo := w.forcesMap.Get(w.mustAlive(h.e, "apply force"))
	fo.Force = r2.Add(fo.Force, f)
}

// ApplyForceAtPoint adds a force at a world point, producing torque.
func (w *World) ApplyForceAtPoint(h BodyHandle, f, point r2.Vec) {
	e := w.mustAlive(h.e, "apply force at point")
	fo := w.forcesMap.Get(e)
	fo.Force = r2.Add(fo.Force, f)
	fo.Torque += r2.Cross(r2.Sub(point, w.transformMap.Get(e).Pos), f)
}

// ApplyTorque adds a torque for the next step.
func (w *World) ApplyTorque(h BodyHandle, t float64) {
	w.forcesMap.Get(w.mustAlive(h.e, "apply torque")).Torque += t
}

// ApplyImpulse changes a dynamic body's velocity immediately.
func (w *World) ApplyImpulse(h BodyHandle, j r2.Vec) {
	e := w.mustAlive(h.e, "apply impulse")
	b := w.bodyMap.Get(e)
	vel := w.velocityMap.Get(e)
	vel.Linear = r2.Add(vel.Linear, r2.Scale(b.InvMass, j))
}

// SetMotorVelocity drives a joint toward a relative angular velocity with a
// bounded torque. Setting the same target twice is the same as setting it once.
func (w *World) SetMotorVelocity(h JointHandle, targetVel, maxForce float64) {
	j := w.jointMap.Get(w.mustAlive(h.e, "set motor velocity"))
	j.Motor.Mode = components.MotorVelocity
	j.Motor.TargetVel = targetVel
	j.Motor.MaxForce = maxForce
}

// SetMotorPosition drives a joint toward a relative angle like a damped spring.
func (w *World) SetMotorPosition(h JointHandle, target, stiffness, damping, maxForce float64) {
	j := w.jointMap.Get(w.mustAlive(h.e, "set motor position"))
	j.Motor.Mode = components.MotorPosition
	j.Motor.TargetPos = target
	j.Motor.Stiffness = stiffness
	j.Motor.Damping = damping
	j.Motor.MaxForce = maxForce
}

// Motor returns a copy of a joint's motor command.
func (w *World) Motor(h JointHandle) (components.Motor, error) {
	if !w.ecs.Alive(h.e) {
		return components.Motor{}, fmt.Errorf("%v: %w", h, ErrStaleHandle)
	}
	return w.jointMap.Get(h.e).Motor, nil
}

// JointAngle returns the joint's current relative angle, wrapped to [-pi, pi].
func (w *World) JointAngle(h JointHandle) (float64, error) {
	if !w.ecs.Alive(h.e) {
		return 0, fmt.Errorf("%v: %w", h, ErrStaleHandle)
	}
	return w.jointAngle(w.jointMap.Get(h.e)), nil
}

// JointLimits returns a joint's limits and whether they are enabled.
func (w *World) JointLimits(h JointHandle) (lower, upper float64, enabled bool) {
	j := w.jointMap.Get(w.mustAlive(h.e, "joint limits"))
	return j.Lower, j.Upper, j.LimitsEnabled
}

// ColliderUserData returns the identity stored on a collider.
func (w *World) ColliderUserData(h ColliderHandle) (uuid.UUID, bool) {
	if !w.ecs.Alive(h.e) {
		return uuid.Nil, false
	}
	return w.colliderMap.Get(h.e).UserData, true
}

// ColliderBody returns the body a collider is attached to.
func (w *World) ColliderBody(h ColliderHandle) (BodyHandle, bool) {
	if !w.ecs.Alive(h.e) {
		return BodyHandle{}, false
	}
	return BodyHandle{w.colliderMap.Get(h.e).Parent}, true
}

// Colliders returns the colliders attached to a body.
func (w *World) Colliders(h BodyHandle) []ColliderHandle {
	att := w.attachMap.Get(w.mustAlive(h.e, "colliders"))
	out := make([]ColliderHandle, len(att.Colliders))
	for i, c := range att.Colliders {
		out[i] = ColliderHandle{c}
	}
	return out
}

// FixedBoxes calls fn for every box collider on a fixed body, with its
// world-space center, angle and half extents. Used to draw walls.
func (w *World) FixedBoxes(fn func(center r2.Vec, angle float64, half r2.Vec)) {
	for _, c := range w.colliders {
		col := w.colliderMap.Get(c)
		if col.Shape != components.Box || w.bodyMap.Get(col.Parent).Kind != components.Fixed {
			continue
		}
		tr := w.transformMap.Get(col.Parent)
		fn(tr.Pos, tr.Angle, col.HalfExtents)
	}
}

func (w *World) mustAlive(e ecs.Entity, op string) ecs.Entity {
	if !w.ecs.Alive(e) {
		panic(fmt.Errorf("%s on entity %d: %w", op, e.ID(), ErrStaleHandle))
	}
	return e
}

func (w *World) jointAngle(j *components.Joint) float64 {
	a := w.transformMap.Get(j.BodyA).Angle
	b := w.transformMap.Get(j.BodyB).Angle
	return wrapAngle(b - a - j.RefAngle)
}

// recomputeMass sums the mass properties of all colliders on a body.
func (w *World) recomputeMass(e ecs.Entity) {
	var mass, inertia float64
	for _, c := range w.attachMap.Get(e).Colliders {
		col := w.colliderMap.Get(c)
		if col.Sensor {
			continue
		}
		m, i := shapeMass(col)
		mass += m
		inertia += i
	}
	setMass(w.bodyMap.Get(e), mass, inertia)
}

func shapeMass(c *components.Collider) (mass, inertia float64) {
	switch c.Shape {
	case components.Ball:
		mass = c.Density * math.Pi * c.Radius * c.Radius
		inertia = 0.5 * mass * c.Radius * c.Radius
	case components.Box:
		wd, ht := 2*c.HalfExtents.X, 2*c.HalfExtents.Y
		mass = c.Density * wd * ht
		inertia = mass * (wd*wd + ht*ht) / 12
	}
	return mass, inertia
}

func setMass(b *components.Body, mass, inertia float64) {
	if b.Kind == components.Fixed {
		b.Mass, b.InvMass, b.Inertia, b.InvInertia = 0, 0, 0, 0
		return
	}
	if mass <= 0 {
		mass = 1
	}
	if inertia <= 0 {
		inertia = 1
	}
	b.Mass, b.InvMass = mass, 1/mass
	b.Inertia, b.InvInertia = inertia, 1/inertia
}

func removeEntity(list []ecs.Entity, e ecs.Entity) []ecs.Entity {
	for i, x := range list {
		if x == e {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
