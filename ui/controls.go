package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// MaxSteps bounds the steps-per-frame slider.
const MaxSteps = 10

// ControlState is what the controls panel displays.
type ControlState struct {
	Paused    bool
	Steps     int
	HasTarget bool
}

// ControlActions reports what the user clicked this frame.
type ControlActions struct {
	TogglePause bool
	StepOnce    bool
	ClearTarget bool
	ResetCamera bool
	Steps       int
}

// ControlsPanel renders the right-side raygui panel with simulation
// buttons, the steps slider and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	height   int32
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point is over the visible panel, so
// clicks there are not forwarded to the world.
func (c *ControlsPanel) Contains(p rl.Vector2) bool {
	if !c.visible {
		return false
	}
	return rl.CheckCollisionPointRec(p, rl.NewRectangle(float32(c.x), float32(c.y), float32(c.width), float32(c.height)))
}

// Draw renders the panel and returns the actions taken.
func (c *ControlsPanel) Draw(state ControlState, overlays *OverlayRegistry) ControlActions {
	actions := ControlActions{Steps: state.Steps}
	if !c.visible {
		return actions
	}

	r := c.renderer
	padding := r.Theme.Padding
	lh := r.Theme.LineHeight
	itemH := float32(22)

	rows := len(overlays.All()) + len(overlays.Categories())
	c.height = padding*3 + lh + 4*int32(itemH+6) + int32(rows)*(lh+8)
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	inner := float32(c.width - padding*2)
	half := (inner - 6) / 2

	rl.DrawText("Simulation", int32(x), int32(y), 16, rl.White)
	y += float32(lh) + 4

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: itemH}, toggleText(state.Paused, "Resume", "Pause")) {
		actions.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: itemH}, "Step") {
		actions.StepOnce = true
	}
	y += itemH + 6

	steps := gui.SliderBar(
		rl.Rectangle{X: x + 40, Y: y, Width: inner - 80, Height: itemH},
		"Steps", fmt.Sprintf("%dx", state.Steps),
		float32(state.Steps), 1, MaxSteps,
	)
	actions.Steps = int(math.Round(float64(steps)))
	y += itemH + 6

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: itemH}, "Clear Target") && state.HasTarget {
		actions.ClearTarget = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 6, Y: y, Width: half, Height: itemH}, "Reset View") {
		actions.ResetCamera = true
	}
	y += itemH + 6

	for _, cat := range overlays.Categories() {
		rl.DrawText(categoryLabel(cat), int32(x), int32(y+4), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += float32(lh + 8)
		for _, desc := range overlays.ByCategory(cat) {
			label := fmt.Sprintf("%s [%s]: %s", desc.Name, desc.KeyLabel, toggleText(overlays.IsEnabled(desc.ID), "on", "off"))
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: float32(lh + 4)}, label) {
				overlays.Toggle(desc.ID)
			}
			y += float32(lh + 8)
		}
	}
	return actions
}

func toggleText(on bool, ifOn, ifOff string) string {
	if on {
		return ifOn
	}
	return ifOff
}

func categoryLabel(cat string) string {
	switch cat {
	case "world":
		return "World"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
