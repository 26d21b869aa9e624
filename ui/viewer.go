package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/camera"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/game"
	"github.com/pthm-cable/softies/renderer"
	"github.com/pthm-cable/softies/telemetry"
)

const (
	title         = "Softies"
	panelWidth    = 230
	selectRadius  = 0.3 // meters
	keyPanSpeed   = 8.0 // pixels per frame at zoom 1
	wheelZoomStep = 0.1
	legend        = "Space pause | ,/. steps | N step | LMB target | RMB select | [/] segments | MMB drag pan | wheel zoom | Home reset | Tab panel | F11 fullscreen"
)

// Viewer runs the interactive window around a Game: it advances the
// simulation with the frame time, handles input and draws the scene.
type Viewer struct {
	game   *game.Game
	cam    *camera.Camera
	canvas *renderer.Canvas
	tank   *renderer.Tank

	overlays  *OverlayRegistry
	controls  *ControlsPanel
	hud       *HUD
	stats     *StatsPanel
	perf      *PerfPanel
	inspector *Inspector

	paused bool
	steps  int

	selected    creature.ID
	hasSelected bool

	lastStats telemetry.WindowStats
	hasStats  bool

	screenW, screenH int32
}

// NewViewer creates a viewer for g. The raylib window must already be open.
func NewViewer(g *game.Game, seed int64, steps int) *Viewer {
	cfg := g.Config()
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	cam := camera.New(float64(w), float64(h), cfg.Screen.PixelsPerMeter, cfg.Derived.Bounds)

	v := &Viewer{
		game:      g,
		cam:       cam,
		canvas:    renderer.NewCanvas(cam),
		tank:      renderer.NewTank(seed),
		overlays:  NewOverlayRegistry(),
		controls:  NewControlsPanel(w-panelWidth-10, 10, panelWidth),
		hud:       NewHUD(),
		stats:     NewStatsPanel(10, 100, panelWidth),
		perf:      NewPerfPanel(10, 290, panelWidth),
		inspector: NewInspector(w-panelWidth-10, h-220, panelWidth),
		steps:     max(1, min(MaxSteps, steps)),
		screenW:   w,
		screenH:   h,
	}
	g.SetStatsCallback(func(s telemetry.WindowStats) {
		v.lastStats, v.hasStats = s, true
	})
	return v
}

// Update handles input and advances the simulation by one rendered frame.
func (v *Viewer) Update() {
	v.handleResize()
	v.handleInput()

	if !v.paused {
		dt := float64(rl.GetFrameTime())
		for i := 0; i < v.steps; i++ {
			v.game.Step(dt)
		}
	}
	v.game.Perf().RecordFrame()
}

func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h
	v.cam.Resize(float64(w), float64(h))
	v.controls.SetPosition(w-panelWidth-10, 10)
	v.inspector.SetPosition(w-panelWidth-10, h-220)
}

func (v *Viewer) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyComma) && v.steps > 1 {
		v.steps--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.steps < MaxSteps {
		v.steps++
	}
	if rl.IsKeyPressed(rl.KeyN) && v.paused {
		v.game.Step(v.game.Config().Physics.DT)
	}
	if v.hasSelected && (rl.IsKeyPressed(rl.KeyLeftBracket) || rl.IsKeyPressed(rl.KeyRightBracket)) {
		if c, ok := v.game.Creature(v.selected); ok {
			if s, ok := c.(creature.Segmented); ok {
				d := 1
				if rl.IsKeyPressed(rl.KeyLeftBracket) {
					d = -1
				}
				v.game.SetSegments(v.selected, s.SegmentCount()+d)
			}
		}
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.controls.Toggle()
	}
	v.overlays.HandleKeys()
	v.handleCameraInput()

	mouse := rl.GetMousePosition()
	if v.controls.Contains(mouse) {
		return
	}
	world := v.cam.ScreenToWorld(float64(mouse.X), float64(mouse.Y))
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		v.game.SetTarget(world)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		c, ok := v.game.CreatureAt(world, selectRadius)
		v.hasSelected = ok
		if ok {
			v.selected = c.ID()
		}
	}
}

func (v *Viewer) handleCameraInput() {
	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Pan(keyPanSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Pan(-keyPanSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Pan(0, keyPanSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Pan(0, -keyPanSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-float64(d.X), -float64(d.Y))
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		v.cam.ZoomAt(1+float64(wheel)*wheelZoomStep, float64(m.X), float64(m.Y))
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.SetZoom(v.cam.Zoom * 1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.SetZoom(v.cam.Zoom * 0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}

// Draw renders one frame.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(rl.Black)

	wc := v.game.Context()
	v.tank.DrawWater(v.cam, &wc)

	v.canvas.Skin = v.overlays.IsEnabled(OverlaySkin)
	world := v.game.World()
	for _, c := range v.game.Creatures() {
		c.Draw(v.canvas, world)
	}
	v.tank.DrawWalls(v.cam, world)

	if wc.HasTarget && v.overlays.IsEnabled(OverlayTarget) {
		v.canvas.Marker(wc.Target, 10, renderer.Highlight)
	}
	selected := v.drawSelection()

	v.drawPanels(selected)
}

// drawSelection outlines the selected creature and returns its view. The
// selection is dropped once the creature is gone.
func (v *Viewer) drawSelection() *game.CreatureView {
	if !v.hasSelected {
		return nil
	}
	c, ok := v.game.Creature(v.selected)
	if !ok {
		v.hasSelected = false
		return nil
	}

	view := v.game.View()
	var cv *game.CreatureView
	for i := range view.Creatures {
		if view.Creatures[i].ID == v.selected {
			cv = &view.Creatures[i]
			break
		}
	}
	if cv == nil || len(cv.Segments) == 0 {
		return nil
	}

	head := r2.Vec{X: cv.Segments[0][0], Y: cv.Segments[0][1]}
	v.canvas.Ring(head, c.Radius()*2.5, renderer.Highlight)
	if v.overlays.IsEnabled(OverlaySenseRange) {
		if r := v.senseRadius(c.Kind()); r > 0 {
			v.canvas.Ring(head, r, renderer.Highlight)
		}
	}
	return cv
}

func (v *Viewer) senseRadius(k creature.Kind) float64 {
	cfg := v.game.Config()
	switch k {
	case creature.KindSnake:
		return cfg.Snake.SenseRadius
	case creature.KindPlankton:
		return cfg.Plankton.SenseRadius
	}
	return 0
}

func (v *Viewer) drawPanels(selected *game.CreatureView) {
	view := v.game.View()
	data := HUDData{
		Title:   title,
		Tick:    view.Tick,
		SimTime: view.Time,
		Steps:   v.steps,
		FPS:     rl.GetFPS(),
		Paused:  v.paused,
	}
	for _, c := range view.Creatures {
		switch c.Kind {
		case creature.KindSnake:
			data.Snakes++
		case creature.KindPlankton:
			data.Plankton++
		}
	}
	if view.Target != nil {
		data.HasTarget, data.Target = true, *view.Target
	}
	v.hud.Draw(data)

	y := int32(100)
	if v.hasStats && v.overlays.IsEnabled(OverlayStats) {
		v.stats.SetPosition(10, y)
		y = v.stats.Draw(v.lastStats) + 10
	}
	if v.overlays.IsEnabled(OverlayPerf) {
		v.perf.SetPosition(10, y)
		v.perf.Draw(v.game.Perf().Stats())
	}
	if selected != nil {
		if d := v.inspector.Draw(selected); d != 0 {
			v.game.SetSegments(selected.ID, len(selected.Segments)+d)
		}
	}
	if v.overlays.IsEnabled(OverlayLegend) {
		v.hud.DrawControls(v.screenH, legend)
	}

	actions := v.controls.Draw(ControlState{Paused: v.paused, Steps: v.steps, HasTarget: data.HasTarget}, v.overlays)
	v.apply(actions)
}

func (v *Viewer) apply(a ControlActions) {
	if a.TogglePause {
		v.paused = !v.paused
	}
	if a.StepOnce {
		v.paused = true
		v.game.Step(v.game.Config().Physics.DT)
	}
	if a.ClearTarget {
		v.game.ClearTarget()
	}
	if a.ResetCamera {
		v.cam.Reset()
	}
	v.steps = max(1, min(MaxSteps, a.Steps))
}
