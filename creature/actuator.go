package creature

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/physics"
)

// Actuator is a creature's only write path into the physics world. Bodies
// and joints are addressed by index into the creature's own Handles, so a
// creature cannot reach anything it does not own; an index outside its
// handles panics.
type Actuator interface {
	Body(i int) physics.BodyState
	JointAngle(j int) float64

	SetLinearVelocity(i int, v r2.Vec)
	SetAngularVelocity(i int, av float64)
	ApplyForce(i int, f r2.Vec)
	ApplyForceAtPoint(i int, f, point r2.Vec)
	ApplyImpulse(i int, impulse r2.Vec)
	ApplyTorque(i int, torque float64)
	SetMotorVelocity(j int, target, maxForce float64)
	SetMotorPosition(j int, target, stiffness, damping, maxForce float64)

	// Eat records an intent to eat prey, resolved after all decisions.
	Eat(prey ID, satiety float64)
}

// FeedingIntent is a predator's request to eat a prey this frame.
type FeedingIntent struct {
	Predator ID
	Prey     ID
	Satiety  float64
}

type commandOp uint8

const (
	opSetLinearVelocity commandOp = iota
	opSetAngularVelocity
	opApplyForce
	opApplyForceAtPoint
	opApplyImpulse
	opApplyTorque
	opSetMotorVelocity
	opSetMotorPosition
)

// Command is a deferred physics write.
type Command struct {
	op     commandOp
	body   physics.BodyHandle
	joint  physics.JointHandle
	vec    r2.Vec
	point  r2.Vec
	scalar float64
	limit  float64

	stiffness, damping float64
}

func (c Command) apply(w *physics.World) {
	switch c.op {
	case opSetLinearVelocity:
		w.SetLinearVelocity(c.body, c.vec)
	case opSetAngularVelocity:
		w.SetAngularVelocity(c.body, c.scalar)
	case opApplyForce:
		w.ApplyForce(c.body, c.vec)
	case opApplyForceAtPoint:
		w.ApplyForceAtPoint(c.body, c.vec, c.point)
	case opApplyImpulse:
		w.ApplyImpulse(c.body, c.vec)
	case opApplyTorque:
		w.ApplyTorque(c.body, c.scalar)
	case opSetMotorVelocity:
		w.SetMotorVelocity(c.joint, c.scalar, c.limit)
	case opSetMotorPosition:
		w.SetMotorPosition(c.joint, c.scalar, c.stiffness, c.damping, c.limit)
	}
}

// CommandQueue collects one creature's deferred writes and feeding intents.
// It is not safe for concurrent use; give each concurrent decision its own.
type CommandQueue struct {
	commands []Command
	intents  []FeedingIntent
}

// Len returns the number of queued physics commands.
func (q *CommandQueue) Len() int { return len(q.commands) }

// Apply replays the queued commands against w in order and clears them.
func (q *CommandQueue) Apply(w *physics.World) {
	for _, c := range q.commands {
		c.apply(w)
	}
	q.commands = q.commands[:0]
}

// DrainIntents appends queued feeding intents to dst and clears them.
func (q *CommandQueue) DrainIntents(dst []FeedingIntent) []FeedingIntent {
	dst = append(dst, q.intents...)
	q.intents = q.intents[:0]
	return dst
}

// actuator implements Actuator. With a nil queue writes go straight to the
// world; otherwise they are recorded.
type actuator struct {
	world   *physics.World
	id      ID
	handles Handles
	queue   *CommandQueue
	intents *[]FeedingIntent
}

// NewActuator returns an actuator that writes to w immediately. Feeding
// intents are appended to intents.
func NewActuator(w *physics.World, id ID, h Handles, intents *[]FeedingIntent) Actuator {
	return &actuator{world: w, id: id, handles: h, intents: intents}
}

// NewDeferredActuator returns an actuator that reads from w but records all
// writes into q. Reads never observe the recorded writes.
func NewDeferredActuator(w *physics.World, id ID, h Handles, q *CommandQueue) Actuator {
	return &actuator{world: w, id: id, handles: h, queue: q}
}

func (a *actuator) body(i int) physics.BodyHandle {
	if i < 0 || i >= len(a.handles.Bodies) {
		panic(fmt.Sprintf("creature %s: body index %d not owned (has %d)", a.id, i, len(a.handles.Bodies)))
	}
	return a.handles.Bodies[i]
}

func (a *actuator) joint(j int) physics.JointHandle {
	if j < 0 || j >= len(a.handles.Joints) {
		panic(fmt.Sprintf("creature %s: joint index %d not owned (has %d)", a.id, j, len(a.handles.Joints)))
	}
	return a.handles.Joints[j]
}

func (a *actuator) Body(i int) physics.BodyState {
	return mustBody(a.world, a.id, a.body(i))
}

func (a *actuator) JointAngle(j int) float64 {
	angle, err := a.world.JointAngle(a.joint(j))
	if err != nil {
		panic(fmt.Errorf("creature %s: own %w", a.id, err))
	}
	return angle
}

func (a *actuator) do(c Command) {
	if a.queue != nil {
		a.queue.commands = append(a.queue.commands, c)
		return
	}
	c.apply(a.world)
}

func (a *actuator) SetLinearVelocity(i int, v r2.Vec) {
	a.do(Command{op: opSetLinearVelocity, body: a.body(i), vec: v})
}

func (a *actuator) SetAngularVelocity(i int, av float64) {
	a.do(Command{op: opSetAngularVelocity, body: a.body(i), scalar: av})
}

func (a *actuator) ApplyForce(i int, f r2.Vec) {
	a.do(Command{op: opApplyForce, body: a.body(i), vec: f})
}

func (a *actuator) ApplyForceAtPoint(i int, f, point r2.Vec) {
	a.do(Command{op: opApplyForceAtPoint, body: a.body(i), vec: f, point: point})
}

func (a *actuator) ApplyImpulse(i int, impulse r2.Vec) {
	a.do(Command{op: opApplyImpulse, body: a.body(i), vec: impulse})
}

func (a *actuator) ApplyTorque(i int, torque float64) {
	a.do(Command{op: opApplyTorque, body: a.body(i), scalar: torque})
}

func (a *actuator) SetMotorVelocity(j int, target, maxForce float64) {
	a.do(Command{op: opSetMotorVelocity, joint: a.joint(j), scalar: target, limit: maxForce})
}

func (a *actuator) SetMotorPosition(j int, target, stiffness, damping, maxForce float64) {
	a.do(Command{op: opSetMotorPosition, joint: a.joint(j), scalar: target, limit: maxForce, stiffness: stiffness, damping: damping})
}

func (a *actuator) Eat(prey ID, satiety float64) {
	in := FeedingIntent{Predator: a.id, Prey: prey, Satiety: satiety}
	switch {
	case a.queue != nil:
		a.queue.intents = append(a.queue.intents, in)
	case a.intents != nil:
		*a.intents = append(*a.intents, in)
	}
}
