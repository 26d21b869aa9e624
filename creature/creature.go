// Package creature defines the contract shared by every creature kind and
// the per-frame vocabulary around it: attributes, snapshots, sensing and the
// actuator through which a creature touches its own physics bodies.
package creature

import (
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/physics"
)

// ID identifies a creature for the lifetime of a simulation. It is stored in
// the user-data slot of every collider the creature owns.
type ID = uuid.UUID

// NilID marks colliders that belong to no creature.
var NilID = uuid.Nil

// WallID is the reserved identity of boundary wall colliders.
var WallID = uuid.MustParse("ffffffff-ffff-ffff-ffff-ffffffffffff")

// IDSource issues creature identities from a random stream. Seeding the
// stream makes identities reproducible.
type IDSource struct {
	r    io.Reader
	used map[ID]struct{}
}

// NewIDSource creates a source reading from r.
func NewIDSource(r io.Reader) *IDSource {
	return &IDSource{r: r, used: make(map[ID]struct{})}
}

// Next returns a fresh identity, never the nil or wall identity and never
// one issued before.
func (s *IDSource) Next() ID {
	for {
		id, err := uuid.NewRandomFromReader(s.r)
		if err != nil {
			panic(fmt.Errorf("creature: reading identity entropy: %w", err))
		}
		if id == NilID || id == WallID {
			continue
		}
		if _, dup := s.used[id]; dup {
			continue
		}
		s.used[id] = struct{}{}
		return id
	}
}

// Handles are the physics objects a creature owns exclusively. Bodies[0] is
// the primary body.
type Handles struct {
	Bodies []physics.BodyHandle
	Joints []physics.JointHandle
}

// Primary returns the primary body.
func (h Handles) Primary() physics.BodyHandle { return h.Bodies[0] }

// LightModel selects how ambient light reaches creatures.
type LightModel uint8

const (
	// LightDepth decays light exponentially below the surface.
	LightDepth LightModel = iota
	// LightNone disables light.
	LightNone
)

// ParseLightModel parses a light model name.
func ParseLightModel(s string) (LightModel, error) {
	switch s {
	case "", "depth":
		return LightDepth, nil
	case "none":
		return LightNone, nil
	}
	return 0, fmt.Errorf("unknown light model %q", s)
}

// WorldContext holds read-only environment parameters for one frame.
type WorldContext struct {
	Bounds     r2.Box
	Gravity    r2.Vec
	SurfaceY   float64
	Time       float64 // simulated seconds since start
	Target     r2.Vec
	HasTarget  bool
	Light      LightModel
	LightDepth float64
}

// Depth returns how far below the water surface p is.
func (wc *WorldContext) Depth(p r2.Vec) float64 { return wc.SurfaceY - p.Y }

// LightAt returns the light fraction in [0, 1] at p.
func (wc *WorldContext) LightAt(p r2.Vec) float64 {
	if wc.Light == LightNone || wc.LightDepth <= 0 {
		return 0
	}
	d := wc.Depth(p)
	if d <= 0 {
		return 1
	}
	return math.Exp(-d / wc.LightDepth)
}

// Creature is implemented by every creature kind. The orchestrator calls
// the per-frame methods in declaration order, each with access only to the
// creature's own state and bodies.
type Creature interface {
	ID() ID
	Kind() Kind
	State() State
	Attributes() *Attributes
	Handles() Handles
	// Radius is the primary body's radius.
	Radius() float64

	// Spawn registers the creature's bodies, colliders and joints with w,
	// tagging every collider with id.
	Spawn(w *physics.World, id ID, at r2.Vec)

	// UpdatePassiveStats advances attributes without touching physics.
	UpdatePassiveStats(dt float64)

	// UpdateStateAndBehavior is the decision step. It sees the frozen
	// snapshot and may only act through act.
	UpdateStateAndBehavior(id ID, dt float64, act Actuator, snap *Snapshot, wc *WorldContext, sense *Sensor)

	// ApplyCustomForces adds drag, buoyancy and similar continuous forces.
	ApplyCustomForces(dt float64, act Actuator, wc *WorldContext)

	// Draw emits drawing commands. It never mutates simulation state.
	Draw(c Canvas, bodies BodyReader)
}

// Respawner is implemented by kinds that come back after being eaten.
type Respawner interface {
	Respawn(w *physics.World, at r2.Vec)
}

// Segmented is implemented by kinds whose segment count can change after
// spawning.
type Segmented interface {
	SegmentCount() int
	SetSegments(w *physics.World, n int)
}

// Segments returns the positions of c's bodies in order.
func Segments(c Creature, r BodyReader) []r2.Vec {
	h := c.Handles()
	out := make([]r2.Vec, len(h.Bodies))
	for i, b := range h.Bodies {
		out[i] = mustBody(r, c.ID(), b).Position
	}
	return out
}

func mustBody(r BodyReader, id ID, h physics.BodyHandle) physics.BodyState {
	s, err := r.Body(h)
	if err != nil {
		panic(fmt.Errorf("creature %s: own %w", id, err))
	}
	return s
}
