package physics

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
)

// InteractionGroups decides which colliders may interact. Two groups interact
// when each one's memberships intersect the other's filter. The zero value
// behaves like AllGroups.
type InteractionGroups struct {
	Memberships uint32
	Filter      uint32
}

// AllGroups is a member of every group and interacts with every group.
var AllGroups = InteractionGroups{Memberships: math.MaxUint32, Filter: math.MaxUint32}

func (g InteractionGroups) normalize() InteractionGroups {
	if g.Memberships == 0 && g.Filter == 0 {
		return AllGroups
	}
	return g
}

// Test reports whether g and other may interact.
func (g InteractionGroups) Test(other InteractionGroups) bool {
	g, other = g.normalize(), other.normalize()
	return g.Memberships&other.Filter != 0 && other.Memberships&g.Filter != 0
}

// QueryFilter narrows spatial queries.
type QueryFilter struct {
	Groups         InteractionGroups
	ExcludeSensors bool
	// Predicate, when set, must return true for a collider to be reported.
	Predicate func(ColliderHandle) bool
}

// SyncIndex rebuilds the spatial index if bodies or colliders changed since
// the last build. Call it before issuing queries from several goroutines.
func (w *World) SyncIndex() {
	if w.indexDirty {
		w.rebuildIndex()
	}
}

func (w *World) rebuildIndex() {
	w.grid.Clear()
	for _, c := range w.colliders {
		w.grid.Insert(c, w.colliderAABB(w.colliderMap.Get(c)))
	}
	w.indexDirty = false
}

// CollidersWithCenterIn calls fn for every collider whose center (its body's
// position) lies within radius of center. Returning false from fn stops the
// query.
func (w *World) CollidersWithCenterIn(center r2.Vec, radius float64, f QueryFilter, fn func(ColliderHandle) bool) {
	w.SyncIndex()
	box := r2.Box{
		Min: r2.Vec{X: center.X - radius, Y: center.Y - radius},
		Max: r2.Vec{X: center.X + radius, Y: center.Y + radius},
	}
	r2max := radius * radius
	stopped := false
	w.grid.Query(box, func(e ecs.Entity, _ r2.Box) {
		if stopped {
			return
		}
		col := w.colliderMap.Get(e)
		if !w.accept(e, col, f) {
			return
		}
		p := w.transformMap.Get(col.Parent).Pos
		if r2.Norm2(r2.Sub(p, center)) > r2max {
			return
		}
		if !fn(ColliderHandle{e}) {
			stopped = true
		}
	})
}

// IntersectionsWithDisc calls fn for every collider whose shape overlaps the
// disc. Returning false from fn stops the query.
func (w *World) IntersectionsWithDisc(center r2.Vec, radius float64, f QueryFilter, fn func(ColliderHandle) bool) {
	w.SyncIndex()
	box := r2.Box{
		Min: r2.Vec{X: center.X - radius, Y: center.Y - radius},
		Max: r2.Vec{X: center.X + radius, Y: center.Y + radius},
	}
	stopped := false
	w.grid.Query(box, func(e ecs.Entity, _ r2.Box) {
		if stopped {
			return
		}
		col := w.colliderMap.Get(e)
		if !w.accept(e, col, f) {
			return
		}
		tr := w.transformMap.Get(col.Parent)
		if !discOverlaps(col, tr, center, radius) {
			return
		}
		if !fn(ColliderHandle{e}) {
			stopped = true
		}
	})
}

func (w *World) accept(e ecs.Entity, col *components.Collider, f QueryFilter) bool {
	if f.ExcludeSensors && col.Sensor {
		return false
	}
	if !f.Groups.Test(InteractionGroups{Memberships: col.Memberships, Filter: col.Filter}) {
		return false
	}
	if f.Predicate != nil && !f.Predicate(ColliderHandle{e}) {
		return false
	}
	return true
}

func discOverlaps(col *components.Collider, tr *components.Transform, center r2.Vec, radius float64) bool {
	switch col.Shape {
	case components.Ball:
		rr := radius + col.Radius
		return r2.Norm2(r2.Sub(tr.Pos, center)) <= rr*rr
	case components.Box:
		local := Rotate(r2.Sub(center, tr.Pos), -tr.Angle)
		closest := r2.Vec{
			X: clamp(local.X, -col.HalfExtents.X, col.HalfExtents.X),
			Y: clamp(local.Y, -col.HalfExtents.Y, col.HalfExtents.Y),
		}
		return r2.Norm2(r2.Sub(local, closest)) <= radius*radius
	}
	return false
}

// colliderAABB returns the world-space bounding box of a collider.
func (w *World) colliderAABB(col *components.Collider) r2.Box {
	tr := w.transformMap.Get(col.Parent)
	var ext r2.Vec
	switch col.Shape {
	case components.Ball:
		ext = r2.Vec{X: col.Radius, Y: col.Radius}
	case components.Box:
		s, c := math.Sincos(tr.Angle)
		s, c = math.Abs(s), math.Abs(c)
		ext = r2.Vec{
			X: c*col.HalfExtents.X + s*col.HalfExtents.Y,
			Y: s*col.HalfExtents.X + c*col.HalfExtents.Y,
		}
	}
	return r2.Box{Min: r2.Sub(tr.Pos, ext), Max: r2.Add(tr.Pos, ext)}
}
