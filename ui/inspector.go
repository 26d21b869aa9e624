package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/game"
)

const segmentButtonH = 22

// Inspector renders the selected creature panel.
type Inspector struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	ins := &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
	ins.sections = ins.creatureSections()
	return ins
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

func view(data any) *game.CreatureView { return data.(*game.CreatureView) }

func (ins *Inspector) creatureSections() []SectionDescriptor {
	r := ins.renderer
	return []SectionDescriptor{
		{
			Title: "Creature",
			Fields: []FieldDescriptor{
				{Label: "ID", Widget: WidgetText, TextGetter: func(d any) string { return view(d).ID.String()[:8] }},
				{Label: "Kind", Widget: WidgetText, TextGetter: func(d any) string { return view(d).Kind.String() }},
				{Label: "State", Widget: WidgetText, TextGetter: func(d any) string { return view(d).State.String() }},
				{Label: "Diet", Widget: WidgetText, TextGetter: func(d any) string { return view(d).Attributes.Diet }},
				{Label: "Size", Widget: WidgetText, Format: "%.2f", Getter: func(d any) float64 { return view(d).Attributes.Size }},
				{Label: "Segments", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float64 { return float64(len(view(d).Segments)) }},
			},
		},
		{
			Title: "Attributes",
			Fields: []FieldDescriptor{
				{
					Label:  "Energy",
					Widget: WidgetBar,
					Getter: func(d any) float64 { return ratio(view(d).Attributes.Energy, view(d).Attributes.MaxEnergy) },
					Color: func(d any) rl.Color {
						return r.LevelColor(ratio(view(d).Attributes.Energy, view(d).Attributes.MaxEnergy))
					},
				},
				{
					Label:  "Satiety",
					Widget: WidgetBar,
					Getter: func(d any) float64 { return ratio(view(d).Attributes.Satiety, view(d).Attributes.MaxSatiety) },
					Color: func(d any) rl.Color {
						return r.LevelColor(ratio(view(d).Attributes.Satiety, view(d).Attributes.MaxSatiety))
					},
				},
				{
					Label:  "",
					Widget: WidgetText,
					TextGetter: func(d any) string {
						a := view(d).Attributes
						return fmt.Sprintf("%.1f/%.0f  %.1f/%.0f", a.Energy, a.MaxEnergy, a.Satiety, a.MaxSatiety)
					},
				},
			},
		},
		{
			Title: "Position",
			Fields: []FieldDescriptor{
				{Label: "Head", Widget: WidgetText, TextGetter: func(d any) string {
					p := view(d).Segments[0]
					return fmt.Sprintf("(%.2f, %.2f)", p[0], p[1])
				}},
			},
			Visible: func(d any) bool { return len(view(d).Segments) > 0 },
		},
	}
}

// Draw renders the inspector panel for cv. For snakes it adds segment
// buttons and returns the requested change in segment count.
func (ins *Inspector) Draw(cv *game.CreatureView) int {
	r := ins.renderer
	padding := r.Theme.Padding
	resizable := cv.Kind == creature.KindSnake

	height := padding * 2
	for _, sd := range ins.sections {
		height += r.SectionHeight(sd, cv)
	}
	if resizable {
		height += segmentButtonH + padding
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	for _, sd := range ins.sections {
		y = r.DrawSection(ins.x+padding, y, sd, cv, ins.width-padding*2)
	}
	if !resizable {
		return 0
	}

	x := float32(ins.x + padding)
	half := float32(ins.width-padding*2-6) / 2
	delta := 0
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: segmentButtonH}, "Segments -") {
		delta--
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: float32(y), Width: half, Height: segmentButtonH}, "Segments +") {
		delta++
	}
	return delta
}

func ratio(v, hi float64) float64 {
	if hi <= 0 {
		return 0
	}
	return v / hi
}
