package components

import "gonum.org/v1/gonum/spatial/r2"

// Transform is a rigid body's pose in world space.
type Transform struct {
	Pos   r2.Vec
	Angle float64 // radians, counter-clockwise, not wrapped
}

// Velocity represents a rigid body's linear and angular velocity.
type Velocity struct {
	Linear  r2.Vec
	Angular float64 // radians per second
}

// Forces accumulates external force and torque until the next physics step.
type Forces struct {
	Force  r2.Vec
	Torque float64
}
