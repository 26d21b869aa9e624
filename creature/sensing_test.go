package creature

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/components"
	"github.com/pthm-cable/softies/config"
	"github.com/pthm-cable/softies/physics"
)

// blob is a minimal two-body creature used to exercise the shared machinery.
type blob struct {
	id      ID
	attrs   *Attributes
	handles Handles
	state   State
	seen    []Info
}

func newBlob() *blob {
	a, _ := NewAttributes(config.AttributesConfig{MaxEnergy: 10, MaxSatiety: 10, Diet: "omnivore", Size: 1})
	return &blob{attrs: a}
}

func (b *blob) ID() ID                  { return b.id }
func (b *blob) Kind() Kind              { return KindPlankton }
func (b *blob) State() State            { return b.state }
func (b *blob) Attributes() *Attributes { return b.attrs }
func (b *blob) Handles() Handles        { return b.handles }
func (b *blob) Radius() float64         { return 0.1 }

func (b *blob) Spawn(w *physics.World, id ID, at r2.Vec) {
	b.id = id
	for i := 0; i < 2; i++ {
		body := w.CreateBody(physics.BodyDesc{Kind: components.Dynamic, Position: r2.Add(at, r2.Vec{X: float64(i) * 0.3})})
		d := physics.Ball(0.1)
		d.UserData = id
		w.CreateCollider(d, body)
		b.handles.Bodies = append(b.handles.Bodies, body)
	}
}

func (b *blob) UpdatePassiveStats(dt float64) { b.attrs.UpdatePassive(dt, false, 0) }

func (b *blob) UpdateStateAndBehavior(id ID, dt float64, act Actuator, snap *Snapshot, wc *WorldContext, sense *Sensor) {
	b.seen = sense.Nearby(id, act.Body(0).Position, 100, physics.AllGroups)
}

func (b *blob) ApplyCustomForces(dt float64, act Actuator, wc *WorldContext) {}

func (b *blob) Draw(c Canvas, bodies BodyReader) {
	for _, p := range Segments(b, bodies) {
		c.Circle(p, 0.1, colorWhite)
	}
}

func spawnBlobs(t *testing.T, w *physics.World, at ...r2.Vec) ([]Creature, *IDSource) {
	t.Helper()
	ids := NewIDSource(rand.New(rand.NewSource(1)))
	cs := make([]Creature, len(at))
	for i, p := range at {
		b := newBlob()
		b.Spawn(w, ids.Next(), p)
		cs[i] = b
	}
	return cs, ids
}

func noGravityWorld() *physics.World {
	p := physics.DefaultParams()
	p.Gravity = r2.Vec{}
	p.Bounds = r2.Box{Min: r2.Vec{X: -20, Y: -20}, Max: r2.Vec{X: 20, Y: 20}}
	return physics.NewWorld(p)
}

func idsOf(infos []Info) []ID {
	out := make([]ID, len(infos))
	for i, in := range infos {
		out[i] = in.ID
	}
	return out
}

func TestSensingTwoCreaturesScenario(t *testing.T) {
	w := noGravityWorld()
	cs, _ := spawnBlobs(t, w, r2.Vec{X: -5}, r2.Vec{X: 5})
	sense := NewSensor(w, Capture(w, cs))
	a, b := cs[0], cs[1]
	pa := w.MustBody(a.Handles().Primary()).Position
	pb := w.MustBody(b.Handles().Primary()).Position

	assert.Empty(t, sense.Nearby(a.ID(), pa, 5, physics.AllGroups))
	assert.Empty(t, sense.Nearby(b.ID(), pb, 5, physics.AllGroups))

	assert.Equal(t, []ID{b.ID()}, idsOf(sense.Nearby(a.ID(), pa, 11, physics.AllGroups)))
	assert.Equal(t, []ID{a.ID()}, idsOf(sense.Nearby(b.ID(), pb, 11, physics.AllGroups)))
}

func TestSensingExcludesSelfAndWalls(t *testing.T) {
	w := noGravityWorld()
	wall := w.CreateBody(physics.BodyDesc{Kind: components.Fixed, Position: r2.Vec{Y: -1}})
	d := physics.Cuboid(10, 0.5)
	d.UserData = WallID
	w.CreateCollider(d, wall)
	// An untagged obstacle is ignored as well.
	rock := w.CreateBody(physics.BodyDesc{Kind: components.Fixed, Position: r2.Vec{X: 1}})
	w.CreateCollider(physics.Ball(0.2), rock)

	cs, _ := spawnBlobs(t, w, r2.Vec{}, r2.Vec{X: 2})
	sense := NewSensor(w, Capture(w, cs))

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		center := r2.Vec{X: rng.Float64()*20 - 10, Y: rng.Float64()*20 - 10}
		radius := rng.Float64() * 30
		for _, in := range sense.Nearby(cs[0].ID(), center, radius, physics.AllGroups) {
			require.NotEqual(t, cs[0].ID(), in.ID)
			require.NotEqual(t, WallID, in.ID)
			require.NotEqual(t, NilID, in.ID)
		}
	}
}

func TestSensingMatchesPrimaryCenters(t *testing.T) {
	w := noGravityWorld()
	rng := rand.New(rand.NewSource(11))
	var at []r2.Vec
	for i := 0; i < 40; i++ {
		at = append(at, r2.Vec{X: rng.Float64()*30 - 15, Y: rng.Float64()*30 - 15})
	}
	cs, _ := spawnBlobs(t, w, at...)
	snap := Capture(w, cs)
	sense := NewSensor(w, snap)
	self := cs[0].ID()

	for i := 0; i < 200; i++ {
		center := r2.Vec{X: rng.Float64()*30 - 15, Y: rng.Float64()*30 - 15}
		radius := rng.Float64() * 10

		var want []ID
		for j := 0; j < snap.Len(); j++ {
			in := snap.At(j)
			if in.ID != self && r2.Norm(r2.Sub(in.Position, center)) <= radius {
				want = append(want, in.ID)
			}
		}
		got := idsOf(sense.Nearby(self, center, radius, physics.AllGroups))
		require.ElementsMatch(t, want, got, "center %v radius %f", center, radius)
	}
}

func TestSensingDropsUnknownIdentities(t *testing.T) {
	w := noGravityWorld()
	cs, _ := spawnBlobs(t, w, r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: -1})

	// The third creature is missing from the snapshot, as if removed this frame.
	snap := Capture(w, cs[:2])
	sense := NewSensor(w, snap)

	got := sense.Nearby(cs[0].ID(), r2.Vec{}, 5, physics.AllGroups)
	assert.Equal(t, []ID{cs[1].ID()}, idsOf(got))
}

func TestNearestWhere(t *testing.T) {
	w := noGravityWorld()
	cs, _ := spawnBlobs(t, w, r2.Vec{}, r2.Vec{X: 1}, r2.Vec{X: -3})
	sense := NewSensor(w, Capture(w, cs))

	in, ok := sense.Nearest(cs[0].ID(), r2.Vec{}, 5, physics.AllGroups)
	require.True(t, ok)
	assert.Equal(t, cs[1].ID(), in.ID)

	in, ok = sense.NearestWhere(cs[0].ID(), r2.Vec{}, 5, physics.AllGroups, func(in Info) bool { return in.ID != cs[1].ID() })
	require.True(t, ok)
	assert.Equal(t, cs[2].ID(), in.ID)

	_, ok = sense.Nearest(cs[0].ID(), r2.Vec{}, 0.5, physics.AllGroups)
	assert.False(t, ok)
}
