package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Rotate rotates v counter-clockwise by angle radians.
func Rotate(v r2.Vec, angle float64) r2.Vec {
	s, c := math.Sincos(angle)
	return r2.Vec{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// Perp returns v rotated by +90 degrees.
func Perp(v r2.Vec) r2.Vec { return r2.Vec{X: -v.Y, Y: v.X} }

// SafeUnit returns the unit vector along v, or the zero vector when v is
// too short to have a direction.
func SafeUnit(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n < 1e-12 {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}

// crossSV returns s x v for a scalar angular velocity s.
func crossSV(s float64, v r2.Vec) r2.Vec { return r2.Vec{X: -s * v.Y, Y: s * v.X} }

// wrapAngle maps a to [-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
