package game

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/creature"
)

// skinScale widens the skin outline relative to the primary radius.
const skinScale = 1.2

// FrameView is the read-only state of one frame for renderers and the
// stream. It shares no memory with the simulation.
type FrameView struct {
	Tick      int64          `json:"tick"`
	Time      float64        `json:"time"`
	Bounds    [4]float64     `json:"bounds"` // min x, min y, max x, max y
	SurfaceY  float64        `json:"surface_y"`
	Target    *[2]float64    `json:"target,omitempty"`
	Creatures []CreatureView `json:"creatures"`
}

// CreatureView describes one creature.
type CreatureView struct {
	ID         creature.ID             `json:"id"`
	Kind       creature.Kind           `json:"kind"`
	State      creature.State          `json:"state"`
	Attributes creature.AttributesView `json:"attributes"`
	Radius     float64                 `json:"radius"`
	Segments   [][2]float64            `json:"segments"`
	Skin       [][2]float64            `json:"skin"`
}

// View returns the state as of the last completed frame.
func (g *Game) View() FrameView { return g.view }

func (g *Game) buildView() FrameView {
	b := g.wc.Bounds
	v := FrameView{
		Tick:      g.tick,
		Time:      g.wc.Time,
		Bounds:    [4]float64{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y},
		SurfaceY:  g.wc.SurfaceY,
		Creatures: make([]CreatureView, len(g.creatures)),
	}
	if g.wc.HasTarget {
		v.Target = &[2]float64{g.wc.Target.X, g.wc.Target.Y}
	}
	for i, c := range g.creatures {
		segs := creature.Segments(c, g.world)
		v.Creatures[i] = CreatureView{
			ID:         c.ID(),
			Kind:       c.Kind(),
			State:      c.State(),
			Attributes: c.Attributes().View(),
			Radius:     c.Radius(),
			Segments:   points(segs),
			Skin:       points(creature.SkinOutline(segs, c.Radius()*skinScale)),
		}
	}
	return v
}

func points(vs []r2.Vec) [][2]float64 {
	out := make([][2]float64, len(vs))
	for i, p := range vs {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}
