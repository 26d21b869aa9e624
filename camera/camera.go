// Package camera maps between world meters (y up) and screen pixels (y down)
// for a bounded tank.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Camera looks at a bounded world region. Position is the world point shown
// at the viewport center.
type Camera struct {
	Position r2.Vec
	Zoom     float64 // multiplier on PixelsPerMeter

	PixelsPerMeter float64
	ViewportW      float64
	ViewportH      float64
	World          r2.Box

	MinZoom float64
	MaxZoom float64
}

// New creates a camera centered on world at zoom 1.
func New(viewportW, viewportH, pixelsPerMeter float64, world r2.Box) *Camera {
	c := &Camera{
		Zoom:           1,
		PixelsPerMeter: pixelsPerMeter,
		ViewportW:      viewportW,
		ViewportH:      viewportH,
		World:          world,
		MinZoom:        0.25,
		MaxZoom:        8,
	}
	c.Reset()
	return c
}

// Scale returns pixels per meter at the current zoom.
func (c *Camera) Scale() float64 { return c.PixelsPerMeter * c.Zoom }

// WorldToScreen converts a world point to screen pixels.
func (c *Camera) WorldToScreen(p r2.Vec) (sx, sy float64) {
	s := c.Scale()
	return (p.X-c.Position.X)*s + c.ViewportW/2, c.ViewportH/2 - (p.Y-c.Position.Y)*s
}

// ScreenToWorld converts screen pixels to a world point.
func (c *Camera) ScreenToWorld(sx, sy float64) r2.Vec {
	s := c.Scale()
	return r2.Vec{
		X: (sx-c.ViewportW/2)/s + c.Position.X,
		Y: (c.ViewportH/2-sy)/s + c.Position.Y,
	}
}

// Length converts a world distance to pixels.
func (c *Camera) Length(meters float64) float64 { return meters * c.Scale() }

// VisibleWorldBounds returns the world region covered by the viewport.
func (c *Camera) VisibleWorldBounds() r2.Box {
	hw := c.ViewportW / 2 / c.Scale()
	hh := c.ViewportH / 2 / c.Scale()
	return r2.Box{
		Min: r2.Vec{X: c.Position.X - hw, Y: c.Position.Y - hh},
		Max: r2.Vec{X: c.Position.X + hw, Y: c.Position.Y + hh},
	}
}

// IsVisible reports whether a disc of radius r at p overlaps the viewport.
func (c *Camera) IsVisible(p r2.Vec, r float64) bool {
	v := c.VisibleWorldBounds()
	return p.X+r >= v.Min.X && p.X-r <= v.Max.X && p.Y+r >= v.Min.Y && p.Y-r <= v.Max.Y
}

// Resize updates the viewport after a window resize.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.clampPosition()
}

// Pan moves the camera by a screen-space delta in pixels.
func (c *Camera) Pan(dx, dy float64) {
	s := c.Scale()
	c.Position.X += dx / s
	c.Position.Y -= dy / s
	c.clampPosition()
}

// SetZoom sets the zoom level, clamped to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(z float64) {
	c.Zoom = clamp(z, c.MinZoom, c.MaxZoom)
	c.clampPosition()
}

// ZoomAt multiplies the zoom by factor, keeping the world point under the
// screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	anchor := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	after := c.ScreenToWorld(sx, sy)
	c.Position = r2.Add(c.Position, r2.Sub(anchor, after))
	c.clampPosition()
}

// Reset centers the camera on the world at zoom 1.
func (c *Camera) Reset() {
	c.Zoom = 1
	c.Position = r2.Scale(0.5, r2.Add(c.World.Min, c.World.Max))
}

// clampPosition keeps the center inside the world so the tank never leaves
// the screen entirely.
func (c *Camera) clampPosition() {
	c.Position.X = clamp(c.Position.X, c.World.Min.X, c.World.Max.X)
	c.Position.Y = clamp(c.Position.Y, c.World.Min.Y, c.World.Max.Y)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
