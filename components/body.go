// Package components defines the ECS components backing the physics world's
// body, collider and joint stores.
package components

import (
	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// BodyKind selects how a body takes part in the simulation.
type BodyKind uint8

const (
	Dynamic BodyKind = iota // moved by forces, contacts and joints
	Fixed                   // never moves (walls)
)

// Body holds mass properties and damping of a rigid body.
// Mass and inertia are recomputed whenever a collider is attached or removed.
type Body struct {
	Kind           BodyKind
	Mass           float64
	InvMass        float64
	Inertia        float64
	InvInertia     float64
	LinearDamping  float64
	AngularDamping float64
	IgnoreGravity  bool
}

// Attachments lists the colliders and joints referencing a body so that
// removing the body can cascade.
type Attachments struct {
	Colliders []ecs.Entity
	Joints    []ecs.Entity
}

// ShapeKind identifies a collider's geometry.
type ShapeKind uint8

const (
	Ball ShapeKind = iota
	Box
)

// Collider is a shape attached to a body, centered on the body origin.
type Collider struct {
	Parent      ecs.Entity
	Shape       ShapeKind
	Radius      float64 // Ball
	HalfExtents r2.Vec  // Box, in the body's local frame
	Density     float64
	Friction    float64
	Restitution float64
	Sensor      bool // reported by queries, never generates contact response
	Memberships uint32
	Filter      uint32
	UserData    uuid.UUID // opaque owner identity
}

// MotorMode selects what a joint motor drives toward.
type MotorMode uint8

const (
	MotorOff MotorMode = iota
	MotorVelocity
	MotorPosition
)

// Motor drives the relative rotation of a revolute joint.
type Motor struct {
	Mode      MotorMode
	TargetVel float64 // rad/s, MotorVelocity
	TargetPos float64 // rad, MotorPosition
	Stiffness float64 // MotorPosition
	Damping   float64 // MotorPosition
	MaxForce  float64 // torque bound; impulse per step is MaxForce*dt
}

// Joint is a revolute joint pinning AnchorA on BodyA to AnchorB on BodyB.
// The joint angle is (angleB - angleA - RefAngle).
type Joint struct {
	BodyA, BodyB    ecs.Entity
	AnchorA         r2.Vec // local to BodyA
	AnchorB         r2.Vec // local to BodyB
	RefAngle        float64
	LimitsEnabled   bool
	Lower, Upper    float64
	ContactsEnabled bool
	Motor           Motor
}
