package physics

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
)

const (
	// linearSlop is the penetration tolerated before position correction.
	linearSlop = 0.005
	// contactBaumgarte is the fraction of penetration removed per position iteration.
	contactBaumgarte = 0.2
	// restitutionThreshold is the approach speed below which contacts do not bounce.
	restitutionThreshold = 1.0
)

// manifold is a single-point contact. Normal points from shape A to shape B.
type manifold struct {
	Normal r2.Vec
	Point  r2.Vec
	Depth  float64
}

// contact is a manifold between two colliders plus solver state.
type contact struct {
	colA, colB   ecs.Entity
	bodyA, bodyB ecs.Entity
	m            manifold

	friction    float64
	restitution float64
	bounce      float64 // target separating velocity

	normalImpulse  float64
	tangentImpulse float64
}

// collide runs the narrow phase for two colliders. Box-box pairs are not
// supported; boxes are only used for fixed walls.
func collide(a, b *components.Collider, ta, tb *components.Transform) (manifold, bool) {
	switch {
	case a.Shape == components.Ball && b.Shape == components.Ball:
		return collideBalls(ta.Pos, a.Radius, tb.Pos, b.Radius)
	case a.Shape == components.Box && b.Shape == components.Ball:
		return collideBoxBall(ta, a.HalfExtents, tb.Pos, b.Radius)
	case a.Shape == components.Ball && b.Shape == components.Box:
		m, ok := collideBoxBall(tb, b.HalfExtents, ta.Pos, a.Radius)
		m.Normal = r2.Scale(-1, m.Normal)
		return m, ok
	}
	return manifold{}, false
}

func collideBalls(pa r2.Vec, ra float64, pb r2.Vec, rb float64) (manifold, bool) {
	d := r2.Sub(pb, pa)
	dist2 := r2.Norm2(d)
	rr := ra + rb
	if dist2 > rr*rr {
		return manifold{}, false
	}
	dist := math.Sqrt(dist2)
	n := r2.Vec{Y: 1}
	if dist > 1e-12 {
		n = r2.Scale(1/dist, d)
	}
	depth := rr - dist
	return manifold{
		Normal: n,
		Point:  r2.Add(pa, r2.Scale(ra-depth/2, n)),
		Depth:  depth,
	}, true
}

// collideBoxBall returns a manifold whose normal points from the box to the ball.
func collideBoxBall(box *components.Transform, half r2.Vec, c r2.Vec, r float64) (manifold, bool) {
	local := Rotate(r2.Sub(c, box.Pos), -box.Angle)
	closest := r2.Vec{
		X: clamp(local.X, -half.X, half.X),
		Y: clamp(local.Y, -half.Y, half.Y),
	}

	var n r2.Vec
	var depth float64
	if closest == local {
		// Center inside the box: push out through the nearest face.
		dx := half.X - math.Abs(local.X)
		dy := half.Y - math.Abs(local.Y)
		if dx < dy {
			n = r2.Vec{X: math.Copysign(1, local.X)}
			closest.X = math.Copysign(half.X, local.X)
			depth = r + dx
		} else {
			n = r2.Vec{Y: math.Copysign(1, local.Y)}
			closest.Y = math.Copysign(half.Y, local.Y)
			depth = r + dy
		}
	} else {
		d := r2.Sub(local, closest)
		dist2 := r2.Norm2(d)
		if dist2 > r*r {
			return manifold{}, false
		}
		dist := math.Sqrt(dist2)
		n = r2.Scale(1/dist, d)
		depth = r - dist
	}

	return manifold{
		Normal: Rotate(n, box.Angle),
		Point:  r2.Add(box.Pos, Rotate(closest, box.Angle)),
		Depth:  depth,
	}, true
}

// collectContacts runs the broad and narrow phase over the spatial index.
func (w *World) collectContacts() {
	w.contacts = w.contacts[:0]
	w.grid.Pairs(func(ea, eb ecs.Entity) {
		a, b := w.colliderMap.Get(ea), w.colliderMap.Get(eb)
		if !w.shouldCollide(a, b) {
			return
		}
		// Keep a deterministic orientation so the solver order does not
		// depend on grid traversal.
		if eb.ID() < ea.ID() {
			ea, eb = eb, ea
			a, b = b, a
		}
		m, ok := collide(a, b, w.transformMap.Get(a.Parent), w.transformMap.Get(b.Parent))
		if !ok {
			return
		}
		w.contacts = append(w.contacts, contact{
			colA:        ea,
			colB:        eb,
			bodyA:       a.Parent,
			bodyB:       b.Parent,
			m:           m,
			friction:    math.Sqrt(a.Friction * b.Friction),
			restitution: math.Max(a.Restitution, b.Restitution),
		})
	})
}

func (w *World) shouldCollide(a, b *components.Collider) bool {
	if a.Parent == b.Parent || a.Sensor || b.Sensor {
		return false
	}
	ga := InteractionGroups{Memberships: a.Memberships, Filter: a.Filter}
	gb := InteractionGroups{Memberships: b.Memberships, Filter: b.Filter}
	if !ga.Test(gb) {
		return false
	}
	if w.bodyMap.Get(a.Parent).InvMass == 0 && w.bodyMap.Get(b.Parent).InvMass == 0 {
		return false
	}
	for _, j := range w.attachMap.Get(a.Parent).Joints {
		jt := w.jointMap.Get(j)
		if jt.ContactsEnabled {
			continue
		}
		if (jt.BodyA == a.Parent && jt.BodyB == b.Parent) || (jt.BodyA == b.Parent && jt.BodyB == a.Parent) {
			return false
		}
	}
	return true
}
