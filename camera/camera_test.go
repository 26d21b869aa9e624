package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

var tank = r2.Box{Min: r2.Vec{X: -10, Y: -8}, Max: r2.Vec{X: 10, Y: 8}}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNew(t *testing.T) {
	cam := New(1000, 800, 50, tank)

	// Should be centered on world
	if cam.Position != (r2.Vec{}) {
		t.Errorf("expected camera at origin, got %v", cam.Position)
	}
	if cam.Zoom != 1 {
		t.Errorf("expected zoom 1, got %f", cam.Zoom)
	}
}

func TestWorldToScreenFlipsY(t *testing.T) {
	cam := New(1000, 800, 50, tank)

	sx, sy := cam.WorldToScreen(r2.Vec{})
	if !near(sx, 500) || !near(sy, 400) {
		t.Errorf("expected screen center (500, 400), got (%f, %f)", sx, sy)
	}

	// Top-left corner of the tank is the top-left of the screen.
	sx, sy = cam.WorldToScreen(r2.Vec{X: -10, Y: 8})
	if !near(sx, 0) || !near(sy, 0) {
		t.Errorf("expected (0, 0), got (%f, %f)", sx, sy)
	}

	_, above := cam.WorldToScreen(r2.Vec{Y: 1})
	if above >= 400 {
		t.Errorf("higher world y should be higher on screen, got sy=%f", above)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1000, 800, 50, tank)
	cam.SetZoom(2.5)
	cam.Pan(120, -40)

	testCases := []struct{ sx, sy float64 }{
		{500, 400},
		{100, 100},
		{950, 700},
	}
	for _, tc := range testCases {
		p := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(p)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, p, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1000, 800, 50, tank)

	// 50 px is one meter at zoom 1; dragging down moves the view up.
	cam.Pan(50, 100)
	if !near(cam.Position.X, 1) || !near(cam.Position.Y, -2) {
		t.Errorf("expected (1, -2), got %v", cam.Position)
	}

	cam.Pan(-1e6, 1e6)
	if cam.Position.X != tank.Min.X || cam.Position.Y != tank.Min.Y {
		t.Errorf("expected clamp to %v, got %v", tank.Min, cam.Position)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1000, 800, 50, tank)

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	cam := New(1000, 800, 50, tank)
	before := cam.ScreenToWorld(700, 300)

	cam.ZoomAt(2, 700, 300)

	if cam.Zoom != 2 {
		t.Fatalf("expected zoom 2, got %f", cam.Zoom)
	}
	after := cam.ScreenToWorld(700, 300)
	if !near(before.X, after.X) || !near(before.Y, after.Y) {
		t.Errorf("anchor moved from %v to %v", before, after)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1000, 800, 50, tank)
	cam.SetZoom(2) // visible range is (-5, -4) to (5, 4)

	if !cam.IsVisible(r2.Vec{}, 0.1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(r2.Vec{X: 8, Y: 7}, 0.1) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(r2.Vec{X: 5.5}, 1) {
		t.Error("edge point with large radius should be visible")
	}
}

func TestReset(t *testing.T) {
	cam := New(1000, 800, 50, tank)
	cam.Position = r2.Vec{X: 5, Y: 5}
	cam.Zoom = 2.5

	cam.Reset()

	if cam.Position != (r2.Vec{}) {
		t.Errorf("expected origin, got %v", cam.Position)
	}
	if cam.Zoom != 1 {
		t.Errorf("expected zoom 1, got %f", cam.Zoom)
	}
}
