package creature

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/physics"
)

// senseTolerance absorbs floating-point error at the radius boundary.
const senseTolerance = 1e-9

// Sensor answers "who is near me" for one frame by querying the physics
// spatial index and resolving hits against the frame snapshot. It never
// hands out references to other creatures. A Sensor may be shared by
// concurrent decision steps once the world's index is synced.
type Sensor struct {
	world *physics.World
	snap  *Snapshot
}

// NewSensor creates a sensor over w and the frame snapshot.
func NewSensor(w *physics.World, snap *Snapshot) *Sensor {
	return &Sensor{world: w, snap: snap}
}

// Nearby returns the creatures whose primary position lies within radius of
// center, excluding self and wall colliders. Identities missing from the
// snapshot are dropped. The result is unordered.
func (s *Sensor) Nearby(self ID, center r2.Vec, radius float64, groups physics.InteractionGroups) []Info {
	if radius < 0 {
		return nil
	}
	filter := physics.QueryFilter{
		Groups:         groups,
		ExcludeSensors: true,
		Predicate: func(h physics.ColliderHandle) bool {
			id, ok := s.world.ColliderUserData(h)
			return ok && id != self && id != WallID && id != NilID
		},
	}

	var out []Info
	seen := make(map[ID]struct{})
	r2max := (radius + senseTolerance) * (radius + senseTolerance)
	s.world.CollidersWithCenterIn(center, radius+senseTolerance, filter, func(h physics.ColliderHandle) bool {
		id, _ := s.world.ColliderUserData(h)
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}

		info, ok := s.snap.Lookup(id)
		if !ok {
			return true
		}
		// Only the primary body's position counts.
		if r2.Norm2(r2.Sub(info.Position, center)) > r2max {
			return true
		}
		out = append(out, info)
		return true
	})
	return out
}

// Nearest returns the closest creature within radius of center.
func (s *Sensor) Nearest(self ID, center r2.Vec, radius float64, groups physics.InteractionGroups) (Info, bool) {
	return s.NearestWhere(self, center, radius, groups, nil)
}

// NearestWhere returns the closest creature within radius of center that
// satisfies pred. A nil pred accepts everything. Ties keep the first found.
func (s *Sensor) NearestWhere(self ID, center r2.Vec, radius float64, groups physics.InteractionGroups, pred func(Info) bool) (Info, bool) {
	var best Info
	bestDist := -1.0
	for _, in := range s.Nearby(self, center, radius, groups) {
		if pred != nil && !pred(in) {
			continue
		}
		d := r2.Norm2(r2.Sub(in.Position, center))
		if bestDist < 0 || d < bestDist {
			best, bestDist = in, d
		}
	}
	return best, bestDist >= 0
}

// Snapshot returns the frame snapshot the sensor resolves against.
func (s *Sensor) Snapshot() *Snapshot { return s.snap }
