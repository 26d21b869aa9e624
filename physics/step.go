package physics

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
)

const (
	// jointBaumgarte is the fraction of joint drift removed per position iteration.
	jointBaumgarte = 0.8
	// limitBaumgarte scales the velocity bias that pushes a violated limit back.
	limitBaumgarte = 0.2
)

// solverBody caches pointers into body storage for one step.
type solverBody struct {
	tr   *components.Transform
	vel  *components.Velocity
	invM float64
	invI float64
}

func (w *World) solverBody(e ecs.Entity) solverBody {
	b := w.bodyMap.Get(e)
	return solverBody{
		tr:   w.transformMap.Get(e),
		vel:  w.velocityMap.Get(e),
		invM: b.InvMass,
		invI: b.InvInertia,
	}
}

// jointState is per-step solver state for one joint.
type jointState struct {
	j        *components.Joint
	a, b     solverBody
	rA, rB   r2.Vec
	angle    float64 // joint angle at the start of the step
	angMass  float64 // 1 / (invIA + invIB)
	motorAcc float64
	lowerAcc float64
	upperAcc float64
}

// Step advances the world by dt seconds.
func (w *World) Step(dt float64) {
	if dt <= 0 {
		return
	}
	w.integrateVelocities(dt)

	w.SyncIndex()
	w.collectContacts()

	joints := w.prepareJoints()
	w.prepareContacts()

	for i := 0; i < w.params.SolverIterations; i++ {
		for k := range joints {
			w.solveJointVelocity(&joints[k], dt)
		}
		for k := range w.contacts {
			w.solveContactVelocity(&w.contacts[k])
		}
	}

	w.integratePositions(dt)

	for i := 0; i < w.params.PositionIterations; i++ {
		for k := range joints {
			solveJointPosition(&joints[k])
		}
		for k := range w.contacts {
			w.solveContactPosition(&w.contacts[k])
		}
	}

	for k := range joints {
		projectLimits(&joints[k])
	}

	w.clearForces()
	w.rebuildIndex()
}

func (w *World) integrateVelocities(dt float64) {
	g := w.params.Gravity
	q := w.bodyFilter.Query()
	for q.Next() {
		_, vel, body, f := q.Get()
		if body.Kind != components.Dynamic {
			continue
		}
		acc := r2.Scale(body.InvMass, f.Force)
		if !body.IgnoreGravity {
			acc = r2.Add(acc, g)
		}
		vel.Linear = r2.Add(vel.Linear, r2.Scale(dt, acc))
		vel.Angular += f.Torque * body.InvInertia * dt

		vel.Linear = r2.Scale(1/(1+dt*body.LinearDamping), vel.Linear)
		vel.Angular /= 1 + dt*body.AngularDamping
	}
}

func (w *World) integratePositions(dt float64) {
	q := w.bodyFilter.Query()
	for q.Next() {
		tr, vel, body, _ := q.Get()
		if body.Kind != components.Dynamic {
			continue
		}
		tr.Pos = r2.Add(tr.Pos, r2.Scale(dt, vel.Linear))
		tr.Angle += vel.Angular * dt
	}
}

func (w *World) clearForces() {
	q := w.bodyFilter.Query()
	for q.Next() {
		_, _, _, f := q.Get()
		*f = components.Forces{}
	}
}

func (w *World) prepareJoints() []jointState {
	out := make([]jointState, 0, len(w.joints))
	for _, e := range w.joints {
		j := w.jointMap.Get(e)
		js := jointState{
			j:     j,
			a:     w.solverBody(j.BodyA),
			b:     w.solverBody(j.BodyB),
			angle: w.jointAngle(j),
		}
		js.rA = Rotate(j.AnchorA, js.a.tr.Angle)
		js.rB = Rotate(j.AnchorB, js.b.tr.Angle)
		if k := js.a.invI + js.b.invI; k > 0 {
			js.angMass = 1 / k
		}
		out = append(out, js)
	}
	return out
}

func (w *World) solveJointVelocity(js *jointState, dt float64) {
	a, b := js.a, js.b
	m := &js.j.Motor

	// Motor
	if m.Mode != components.MotorOff && js.angMass > 0 {
		target := m.TargetVel
		if m.Mode == components.MotorPosition {
			if denom := m.Damping + dt*m.Stiffness; denom > 0 {
				target = m.Stiffness * wrapAngle(m.TargetPos-js.angle) / denom
			} else {
				target = 0
			}
		}
		wrel := b.vel.Angular - a.vel.Angular
		impulse := js.angMass * (target - wrel)
		maxImpulse := m.MaxForce * dt
		old := js.motorAcc
		js.motorAcc = clamp(old+impulse, -maxImpulse, maxImpulse)
		impulse = js.motorAcc - old
		a.vel.Angular -= a.invI * impulse
		b.vel.Angular += b.invI * impulse
	}

	// Limits
	if js.j.LimitsEnabled && js.angMass > 0 {
		{
			c := js.angle - js.j.Lower
			bias := limitBias(c, dt)
			cdot := b.vel.Angular - a.vel.Angular
			impulse := -js.angMass * (cdot + bias)
			old := js.lowerAcc
			js.lowerAcc = math.Max(old+impulse, 0)
			impulse = js.lowerAcc - old
			a.vel.Angular -= a.invI * impulse
			b.vel.Angular += b.invI * impulse
		}
		{
			c := js.j.Upper - js.angle
			bias := limitBias(c, dt)
			cdot := a.vel.Angular - b.vel.Angular
			impulse := -js.angMass * (cdot + bias)
			old := js.upperAcc
			js.upperAcc = math.Max(old+impulse, 0)
			impulse = js.upperAcc - old
			a.vel.Angular += a.invI * impulse
			b.vel.Angular -= b.invI * impulse
		}
	}

	// Point constraint
	rA, rB := js.rA, js.rB
	cdot := r2.Sub(
		r2.Add(b.vel.Linear, crossSV(b.vel.Angular, rB)),
		r2.Add(a.vel.Linear, crossSV(a.vel.Angular, rA)),
	)
	impulse, ok := solvePoint(a, b, rA, rB, r2.Scale(-1, cdot))
	if !ok {
		return
	}
	applyImpulse(a, b, rA, rB, impulse)
}

// limitBias allows a satisfied limit to be approached exactly within one
// step and pushes a violated one back gradually.
func limitBias(c, dt float64) float64 {
	if c > 0 {
		return c / dt
	}
	return limitBaumgarte * c / dt
}

// solvePoint solves K*impulse = rhs for a point-to-point constraint.
func solvePoint(a, b solverBody, rA, rB, rhs r2.Vec) (r2.Vec, bool) {
	mSum := a.invM + b.invM
	k11 := mSum + a.invI*rA.Y*rA.Y + b.invI*rB.Y*rB.Y
	k12 := -a.invI*rA.X*rA.Y - b.invI*rB.X*rB.Y
	k22 := mSum + a.invI*rA.X*rA.X + b.invI*rB.X*rB.X
	det := k11*k22 - k12*k12
	if math.Abs(det) < 1e-12 {
		return r2.Vec{}, false
	}
	inv := 1 / det
	return r2.Vec{
		X: inv * (k22*rhs.X - k12*rhs.Y),
		Y: inv * (k11*rhs.Y - k12*rhs.X),
	}, true
}

func applyImpulse(a, b solverBody, rA, rB, p r2.Vec) {
	a.vel.Linear = r2.Sub(a.vel.Linear, r2.Scale(a.invM, p))
	a.vel.Angular -= a.invI * r2.Cross(rA, p)
	b.vel.Linear = r2.Add(b.vel.Linear, r2.Scale(b.invM, p))
	b.vel.Angular += b.invI * r2.Cross(rB, p)
}

func solveJointPosition(js *jointState) {
	a, b := js.a, js.b
	rA := Rotate(js.j.AnchorA, a.tr.Angle)
	rB := Rotate(js.j.AnchorB, b.tr.Angle)
	c := r2.Sub(r2.Add(b.tr.Pos, rB), r2.Add(a.tr.Pos, rA))
	p, ok := solvePoint(a, b, rA, rB, r2.Scale(-jointBaumgarte, c))
	if !ok {
		return
	}
	a.tr.Pos = r2.Sub(a.tr.Pos, r2.Scale(a.invM, p))
	a.tr.Angle -= a.invI * r2.Cross(rA, p)
	b.tr.Pos = r2.Add(b.tr.Pos, r2.Scale(b.invM, p))
	b.tr.Angle += b.invI * r2.Cross(rB, p)
}

// projectLimits clamps a joint's angle into its limits by rotating body B
// about the joint anchor, and removes relative angular velocity that would
// carry it further out. Joints are projected in creation order, so a chain
// built parent-first ends every step with all limits satisfied.
func projectLimits(js *jointState) {
	j := js.j
	if !j.LimitsEnabled {
		return
	}
	a, b := js.a, js.b
	angle := wrapAngle(b.tr.Angle - a.tr.Angle - j.RefAngle)

	var correction float64
	switch {
	case angle > j.Upper:
		correction = j.Upper - angle
		if b.vel.Angular > a.vel.Angular {
			b.vel.Angular = a.vel.Angular
		}
	case angle < j.Lower:
		correction = j.Lower - angle
		if b.vel.Angular < a.vel.Angular {
			b.vel.Angular = a.vel.Angular
		}
	default:
		return
	}

	if b.invM == 0 && b.invI == 0 {
		return
	}
	anchor := r2.Add(b.tr.Pos, Rotate(j.AnchorB, b.tr.Angle))
	b.tr.Angle += correction
	b.tr.Pos = r2.Sub(anchor, Rotate(j.AnchorB, b.tr.Angle))
}

func (w *World) prepareContacts() {
	for i := range w.contacts {
		c := &w.contacts[i]
		a, b := w.solverBody(c.bodyA), w.solverBody(c.bodyB)
		rA := r2.Sub(c.m.Point, a.tr.Pos)
		rB := r2.Sub(c.m.Point, b.tr.Pos)
		vrel := relativeVelocity(a, b, rA, rB)
		vn := r2.Dot(vrel, c.m.Normal)
		if vn < -restitutionThreshold {
			c.bounce = -c.restitution * vn
		}
	}
}

func relativeVelocity(a, b solverBody, rA, rB r2.Vec) r2.Vec {
	return r2.Sub(
		r2.Add(b.vel.Linear, crossSV(b.vel.Angular, rB)),
		r2.Add(a.vel.Linear, crossSV(a.vel.Angular, rA)),
	)
}

func effectiveMass(a, b solverBody, rA, rB, dir r2.Vec) float64 {
	ca, cb := r2.Cross(rA, dir), r2.Cross(rB, dir)
	k := a.invM + b.invM + a.invI*ca*ca + b.invI*cb*cb
	if k <= 0 {
		return 0
	}
	return 1 / k
}

func (w *World) solveContactVelocity(c *contact) {
	a, b := w.solverBody(c.bodyA), w.solverBody(c.bodyB)
	n := c.m.Normal
	rA := r2.Sub(c.m.Point, a.tr.Pos)
	rB := r2.Sub(c.m.Point, b.tr.Pos)

	// Normal
	mn := effectiveMass(a, b, rA, rB, n)
	if mn == 0 {
		return
	}
	vn := r2.Dot(relativeVelocity(a, b, rA, rB), n)
	impulse := mn * (c.bounce - vn)
	old := c.normalImpulse
	c.normalImpulse = math.Max(old+impulse, 0)
	impulse = c.normalImpulse - old
	applyImpulse(a, b, rA, rB, r2.Scale(impulse, n))

	// Friction
	t := Perp(n)
	mt := effectiveMass(a, b, rA, rB, t)
	if mt == 0 {
		return
	}
	vt := r2.Dot(relativeVelocity(a, b, rA, rB), t)
	impulse = -mt * vt
	maxF := c.friction * c.normalImpulse
	old = c.tangentImpulse
	c.tangentImpulse = clamp(old+impulse, -maxF, maxF)
	impulse = c.tangentImpulse - old
	applyImpulse(a, b, rA, rB, r2.Scale(impulse, t))
}

func (w *World) solveContactPosition(c *contact) {
	ca, cb := w.colliderMap.Get(c.colA), w.colliderMap.Get(c.colB)
	a, b := w.solverBody(c.bodyA), w.solverBody(c.bodyB)
	m, ok := collide(ca, cb, a.tr, b.tr)
	if !ok || m.Depth <= linearSlop {
		return
	}
	rA := r2.Sub(m.Point, a.tr.Pos)
	rB := r2.Sub(m.Point, b.tr.Pos)
	mn := effectiveMass(a, b, rA, rB, m.Normal)
	if mn == 0 {
		return
	}
	p := r2.Scale(mn*contactBaumgarte*(m.Depth-linearSlop), m.Normal)
	a.tr.Pos = r2.Sub(a.tr.Pos, r2.Scale(a.invM, p))
	a.tr.Angle -= a.invI * r2.Cross(rA, p)
	b.tr.Pos = r2.Add(b.tr.Pos, r2.Scale(b.invM, p))
	b.tr.Angle += b.invI * r2.Cross(rB, p)
}
