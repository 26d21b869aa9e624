package physics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
)

func collect(w *World, query func(r2.Vec, float64, QueryFilter, func(ColliderHandle) bool), center r2.Vec, radius float64, f QueryFilter) []uuid.UUID {
	var ids []uuid.UUID
	query(center, radius, f, func(h ColliderHandle) bool {
		id, _ := w.ColliderUserData(h)
		ids = append(ids, id)
		return true
	})
	return ids
}

func TestCenterQueryUsesCollidersCenters(t *testing.T) {
	w := newTestWorld()
	near, far := uuid.New(), uuid.New()
	addBall(w, r2.Vec{X: 1}, 0.5, near)
	addBall(w, r2.Vec{X: 2.2}, 0.5, far)

	// The far ball's shape reaches x = 1.7 but its center is 2.2 away.
	got := collect(w, w.CollidersWithCenterIn, r2.Vec{}, 2, QueryFilter{})
	assert.ElementsMatch(t, []uuid.UUID{near}, got)

	got = collect(w, w.IntersectionsWithDisc, r2.Vec{}, 2, QueryFilter{})
	assert.ElementsMatch(t, []uuid.UUID{near, far}, got)
}

func TestCenterQueryBoundaryIsInclusive(t *testing.T) {
	w := newTestWorld()
	id := uuid.New()
	addBall(w, r2.Vec{X: 3}, 0.1, id)

	assert.Equal(t, []uuid.UUID{id}, collect(w, w.CollidersWithCenterIn, r2.Vec{}, 3, QueryFilter{}))
}

func TestQueryReportsLargeCollidersOnce(t *testing.T) {
	w := newTestWorld()
	id := uuid.New()
	wall := w.CreateBody(BodyDesc{Kind: components.Fixed})
	d := Cuboid(6, 0.25)
	d.UserData = id
	w.CreateCollider(d, wall)

	got := collect(w, w.IntersectionsWithDisc, r2.Vec{X: 0, Y: 0.5}, 3, QueryFilter{})
	assert.Equal(t, []uuid.UUID{id}, got)
}

func TestQueryFilters(t *testing.T) {
	w := newTestWorld()
	a, b, sensor := uuid.New(), uuid.New(), uuid.New()
	addBall(w, r2.Vec{X: 0.5}, 0.1, a)

	bb := w.CreateBody(BodyDesc{Kind: components.Dynamic, Position: r2.Vec{X: -0.5}})
	d := Ball(0.1)
	d.UserData = b
	d.Groups = InteractionGroups{Memberships: 1 << 2, Filter: 1 << 2}
	w.CreateCollider(d, bb)

	sb := w.CreateBody(BodyDesc{Kind: components.Dynamic, Position: r2.Vec{Y: 0.5}})
	d = Ball(0.1)
	d.UserData = sensor
	d.Sensor = true
	w.CreateCollider(d, sb)

	all := collect(w, w.CollidersWithCenterIn, r2.Vec{}, 1, QueryFilter{})
	assert.ElementsMatch(t, []uuid.UUID{a, b, sensor}, all)

	noSensors := collect(w, w.CollidersWithCenterIn, r2.Vec{}, 1, QueryFilter{ExcludeSensors: true})
	assert.ElementsMatch(t, []uuid.UUID{a, b}, noSensors)

	group1 := collect(w, w.CollidersWithCenterIn, r2.Vec{}, 1, QueryFilter{
		Groups: InteractionGroups{Memberships: 1, Filter: 1},
	})
	assert.ElementsMatch(t, []uuid.UUID{a, sensor}, group1)

	notA := collect(w, w.CollidersWithCenterIn, r2.Vec{}, 1, QueryFilter{
		Predicate: func(h ColliderHandle) bool {
			id, _ := w.ColliderUserData(h)
			return id != a
		},
	})
	assert.ElementsMatch(t, []uuid.UUID{b, sensor}, notA)
}

func TestQueryStopsWhenCallbackReturnsFalse(t *testing.T) {
	w := newTestWorld()
	for i := 0; i < 5; i++ {
		addBall(w, r2.Vec{X: float64(i) * 0.1}, 0.05, uuid.New())
	}
	n := 0
	w.CollidersWithCenterIn(r2.Vec{}, 2, QueryFilter{}, func(ColliderHandle) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestIndexFollowsTeleports(t *testing.T) {
	w := newTestWorld()
	id := uuid.New()
	b, _ := addBall(w, r2.Vec{X: -5}, 0.1, id)
	w.SetTranslation(b, r2.Vec{X: 5})

	assert.Empty(t, collect(w, w.CollidersWithCenterIn, r2.Vec{X: -5}, 1, QueryFilter{}))
	assert.Equal(t, []uuid.UUID{id}, collect(w, w.CollidersWithCenterIn, r2.Vec{X: 5}, 1, QueryFilter{}))
}

func TestInteractionGroups(t *testing.T) {
	tests := []struct {
		name string
		a, b InteractionGroups
		want bool
	}{
		{"zero matches all", InteractionGroups{}, InteractionGroups{Memberships: 4, Filter: 4}, true},
		{"disjoint", InteractionGroups{Memberships: 1, Filter: 1}, InteractionGroups{Memberships: 2, Filter: 2}, false},
		{"one way", InteractionGroups{Memberships: 1, Filter: 2}, InteractionGroups{Memberships: 2, Filter: 2}, false},
		{"mutual", InteractionGroups{Memberships: 1, Filter: 2}, InteractionGroups{Memberships: 2, Filter: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Test(tt.b))
			assert.Equal(t, tt.want, tt.b.Test(tt.a))
		})
	}
}

func TestSpatialGridPairsOnce(t *testing.T) {
	g := NewSpatialGrid(r2.Box{Min: r2.Vec{X: -2, Y: -2}, Max: r2.Vec{X: 2, Y: 2}}, 0.5)
	w := newTestWorld()
	_, ca := addBall(w, r2.Vec{}, 1, uuid.Nil)
	_, cb := addBall(w, r2.Vec{X: 0.5}, 1, uuid.Nil)
	g.Insert(ca.e, r2.Box{Min: r2.Vec{X: -1, Y: -1}, Max: r2.Vec{X: 1, Y: 1}})
	g.Insert(cb.e, r2.Box{Min: r2.Vec{X: -0.5, Y: -1}, Max: r2.Vec{X: 1.5, Y: 1}})

	n := 0
	g.Pairs(func(_, _ ecs.Entity) { n++ })
	assert.Equal(t, 1, n)
}
