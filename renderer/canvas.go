// Package renderer draws the tank and its creatures with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/camera"
)

// Canvas implements creature.Canvas on top of raylib, converting world
// coordinates through a camera.
type Canvas struct {
	cam *camera.Camera

	// Skin enables Polygon calls. Creatures draw their skin with polygons,
	// so turning it off leaves the bare segments.
	Skin bool
}

// NewCanvas creates a canvas drawing through cam.
func NewCanvas(cam *camera.Camera) *Canvas {
	return &Canvas{cam: cam, Skin: true}
}

func (c *Canvas) vec(p r2.Vec) rl.Vector2 {
	x, y := c.cam.WorldToScreen(p)
	return rl.NewVector2(float32(x), float32(y))
}

func rgba(c color.RGBA) rl.Color {
	return rl.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (c *Canvas) Circle(center r2.Vec, radius float64, fill color.RGBA) {
	if !c.cam.IsVisible(center, radius) {
		return
	}
	rl.DrawCircleV(c.vec(center), float32(c.cam.Length(radius)), rgba(fill))
}

func (c *Canvas) Line(a, b r2.Vec, width float64, stroke color.RGBA) {
	w := float32(c.cam.Length(width))
	if w < 1 {
		w = 1
	}
	rl.DrawLineEx(c.vec(a), c.vec(b), w, rgba(stroke))
}

// Polygon fills a convex polygon as a triangle fan.
func (c *Canvas) Polygon(points []r2.Vec, fill color.RGBA) {
	if !c.Skin || len(points) < 3 {
		return
	}
	col := rgba(fill)
	p0 := c.vec(points[0])
	for i := 1; i+1 < len(points); i++ {
		p1, p2 := c.vec(points[i]), c.vec(points[i+1])
		// raylib only fills counter-clockwise triangles as seen on screen.
		if cross(p0, p1, p2) > 0 {
			p1, p2 = p2, p1
		}
		rl.DrawTriangle(p0, p1, p2, col)
	}
}

func cross(a, b, c rl.Vector2) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// Ring outlines a circle, used for selection and sensing overlays.
func (c *Canvas) Ring(center r2.Vec, radius float64, stroke color.RGBA) {
	x, y := c.cam.WorldToScreen(center)
	rl.DrawCircleLines(int32(x), int32(y), float32(c.cam.Length(radius)), rgba(stroke))
}

// Marker draws a cross with a ring at p, sized in pixels.
func (c *Canvas) Marker(p r2.Vec, size float32, stroke color.RGBA) {
	v := c.vec(p)
	col := rgba(stroke)
	rl.DrawLineEx(rl.NewVector2(v.X-size, v.Y), rl.NewVector2(v.X+size, v.Y), 2, col)
	rl.DrawLineEx(rl.NewVector2(v.X, v.Y-size), rl.NewVector2(v.X, v.Y+size), 2, col)
	rl.DrawCircleLines(int32(v.X), int32(v.Y), size*0.7, col)
}
