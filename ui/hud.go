package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/softies/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Snakes    int
	Plankton  int
	Tick      int64
	SimTime   float64
	Steps     int
	FPS       int32
	Paused    bool
	HasTarget bool
	Target    [2]float64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(fmt.Sprintf("Snakes: %d | Plankton: %d", data.Snakes, data.Plankton), 10, 35, 16, rl.LightGray)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | Steps: %dx | FPS: %d", data.Tick, data.SimTime, data.Steps, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	if data.HasTarget {
		status += fmt.Sprintf(" | Target (%.1f, %.1f)", data.Target[0], data.Target[1])
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, legend string) {
	rl.DrawText(legend, 10, screenHeight-25, 14, rl.Gray)
}

// StatsPanel shows the last completed ecosystem stats window.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel and returns the Y below it.
func (p *StatsPanel) Draw(s telemetry.WindowStats) int32 {
	r := p.renderer
	padding := r.Theme.Padding
	lh := r.Theme.LineHeight
	w := p.width - padding*2

	r.DrawPanel(p.x, p.y, p.width, lh*10+padding*2)
	x, y := p.x+padding, p.y+padding

	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Window ending tick %d", s.WindowEnd))
	y = r.DrawLabelValue(x, y, "Meals", fmt.Sprintf("%d", s.Meals))
	y = r.DrawLabelValue(x, y, "Respawns", fmt.Sprintf("%d", s.Respawns))
	y = r.DrawLabelValue(x, y, "Failsafe", fmt.Sprintf("%d", s.FailsafeCorrections))
	y = r.DrawLabelValue(x, y, "Seeking", fmt.Sprintf("%d food, %d target", s.SeekingFood, s.SeekingTarget))
	y = r.DrawLabelValue(x, y, "Other", fmt.Sprintf("%d wander, %d rest, %d flee", s.Wandering, s.Resting, s.Fleeing))
	y = r.DrawBar(x, y, "Energy", s.EnergyMean, r.LevelColor(s.EnergyMean), w)
	y = r.DrawBar(x, y, "Satiety", s.SatietyMean, r.LevelColor(s.SatietyMean), w)
	return y + padding
}

// PerfPanel renders per-phase frame timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{renderer: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(s telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	lh := r.Theme.LineHeight

	r.DrawPanel(p.x, p.y, p.width, lh*int32(len(telemetry.Phases)+2)+padding*2)
	x, y := p.x+padding, p.y+padding

	y = r.DrawSectionHeader(x, y, fmt.Sprintf("Tick %s avg, %.0f/s", s.AvgTickDuration, s.TicksPerSecond))
	for _, phase := range telemetry.Phases {
		pct := s.PhasePct[phase]
		col := rl.LightGray
		if pct > 40 {
			col = rl.Red
		} else if pct > 20 {
			col = rl.Orange
		}
		rl.DrawText(phase, x, y, r.Theme.FontSize, r.Theme.LabelColor)
		rl.DrawText(fmt.Sprintf("%5.1f%%  %s", pct, s.PhaseAvg[phase]), x+r.Theme.LabelWidth, y, r.Theme.FontSize, col)
		y += lh
	}
}
