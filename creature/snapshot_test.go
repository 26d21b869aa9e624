package creature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSnapshotIsolation(t *testing.T) {
	w := noGravityWorld()
	cs, _ := spawnBlobs(t, w, r2.Vec{}, r2.Vec{X: 1})
	a, b := cs[0].(*blob), cs[1].(*blob)

	snap := Capture(w, cs)
	sense := NewSensor(w, snap)
	wc := &WorldContext{}

	// B's decision runs first and changes its own attributes and velocity.
	actB := NewActuator(w, b.ID(), b.Handles(), nil)
	b.UpdateStateAndBehavior(b.ID(), 0.1, actB, snap, wc, sense)
	b.Attributes().SetEnergy(1)
	actB.SetLinearVelocity(0, r2.Vec{X: 9})

	actA := NewActuator(w, a.ID(), a.Handles(), nil)
	a.UpdateStateAndBehavior(a.ID(), 0.1, actA, snap, wc, sense)

	require.Len(t, a.seen, 1)
	assert.Equal(t, b.ID(), a.seen[0].ID)
	assert.Equal(t, 1.0, a.seen[0].EnergyFrac)
	assert.Equal(t, r2.Vec{}, a.seen[0].Velocity)
	assert.Equal(t, 10.0, a.Attributes().Energy())
}

func TestSnapshotLookup(t *testing.T) {
	w := noGravityWorld()
	cs, ids := spawnBlobs(t, w, r2.Vec{X: 2, Y: 3})
	snap := Capture(w, cs)

	in, ok := snap.Lookup(cs[0].ID())
	require.True(t, ok)
	assert.Equal(t, r2.Vec{X: 2, Y: 3}, in.Position)
	assert.Equal(t, KindPlankton, in.Kind)
	assert.Equal(t, 0.1, in.Radius)

	_, ok = snap.Lookup(ids.Next())
	assert.False(t, ok)
}

func TestSkinOutline(t *testing.T) {
	centers := []r2.Vec{{X: 0}, {X: -1}, {X: -2}}
	out := SkinOutline(centers, 0.5)
	require.Len(t, out, 6)
	// Head to tail along +y, then back along -y.
	assert.InDelta(t, 0.5, out[0].Y, 1e-12)
	assert.InDelta(t, -2, out[2].X, 1e-12)
	assert.InDelta(t, -0.5, out[3].Y, 1e-12)
	assert.InDelta(t, 0, out[5].X, 1e-12)

	var rec Recorder
	DrawSkin(&rec, centers, 0.5, colorWhite)
	assert.Equal(t, 2, rec.Count(DrawPolygon))
}

func TestLightAt(t *testing.T) {
	wc := &WorldContext{SurfaceY: 8, Light: LightDepth, LightDepth: 4}
	assert.Equal(t, 1.0, wc.LightAt(r2.Vec{Y: 9}))
	assert.InDelta(t, 0.36787944, wc.LightAt(r2.Vec{Y: 4}), 1e-6)

	wc.Light = LightNone
	assert.Equal(t, 0.0, wc.LightAt(r2.Vec{Y: 9}))
}
