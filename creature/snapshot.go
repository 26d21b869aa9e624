package creature

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/physics"
)

// Info is a value copy of another creature's state, valid for one frame.
type Info struct {
	ID         ID
	Kind       Kind
	Position   r2.Vec
	Velocity   r2.Vec
	Radius     float64
	Size       float64
	Diet       Diet
	SelfTags   []string
	PreyTags   []string
	EnergyFrac float64
}

// CanEat reports whether the creature described by in would eat other.
func (in Info) CanEat(other Info) bool {
	return canEat(in.Diet, in.Size, in.PreyTags, other)
}

// BodyReader reads physics body state. *physics.World implements it.
type BodyReader interface {
	Body(h physics.BodyHandle) (physics.BodyState, error)
}

// InfoOf describes c from its primary body. A missing primary body is a
// broken invariant and panics.
func InfoOf(c Creature, r BodyReader) Info {
	a := c.Attributes()
	s := mustBody(r, c.ID(), c.Handles().Primary())
	return Info{
		ID:         c.ID(),
		Kind:       c.Kind(),
		Position:   s.Position,
		Velocity:   s.LinearVelocity,
		Radius:     c.Radius(),
		Size:       a.Size(),
		Diet:       a.Diet(),
		SelfTags:   append([]string(nil), a.SelfTags()...),
		PreyTags:   append([]string(nil), a.PreyTags()...),
		EnergyFrac: a.EnergyFraction(),
	}
}

// Snapshot is the frozen per-frame view of every creature.
type Snapshot struct {
	infos []Info
	index map[ID]int
}

// NewSnapshot indexes infos by identity. The snapshot takes ownership of the slice.
func NewSnapshot(infos []Info) *Snapshot {
	index := make(map[ID]int, len(infos))
	for i, in := range infos {
		index[in.ID] = i
	}
	return &Snapshot{infos: infos, index: index}
}

// Capture builds a snapshot from every creature's primary body.
func Capture(r BodyReader, cs []Creature) *Snapshot {
	infos := make([]Info, len(cs))
	for i, c := range cs {
		infos[i] = InfoOf(c, r)
	}
	return NewSnapshot(infos)
}

// Lookup returns the info recorded for id.
func (s *Snapshot) Lookup(id ID) (Info, bool) {
	i, ok := s.index[id]
	if !ok {
		return Info{}, false
	}
	return s.infos[i], true
}

// Len returns the number of creatures in the snapshot.
func (s *Snapshot) Len() int { return len(s.infos) }

// At returns the i-th info in creature order.
func (s *Snapshot) At(i int) Info { return s.infos[i] }
