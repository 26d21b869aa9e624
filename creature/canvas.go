package creature

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/physics"
)

// Canvas receives drawing commands in world coordinates.
type Canvas interface {
	Circle(center r2.Vec, radius float64, fill color.RGBA)
	Line(a, b r2.Vec, width float64, stroke color.RGBA)
	// Polygon fills a convex polygon.
	Polygon(points []r2.Vec, fill color.RGBA)
}

// DrawKind identifies a recorded draw call.
type DrawKind uint8

const (
	DrawCircle DrawKind = iota
	DrawLine
	DrawPolygon
)

// DrawCall is one recorded Canvas call.
type DrawCall struct {
	Kind   DrawKind
	Points []r2.Vec
	Radius float64
	Width  float64
	Color  color.RGBA
}

// Recorder is a Canvas that keeps every call, for headless use.
type Recorder struct {
	Calls []DrawCall
}

func (r *Recorder) Circle(center r2.Vec, radius float64, fill color.RGBA) {
	r.Calls = append(r.Calls, DrawCall{Kind: DrawCircle, Points: []r2.Vec{center}, Radius: radius, Color: fill})
}

func (r *Recorder) Line(a, b r2.Vec, width float64, stroke color.RGBA) {
	r.Calls = append(r.Calls, DrawCall{Kind: DrawLine, Points: []r2.Vec{a, b}, Width: width, Color: stroke})
}

func (r *Recorder) Polygon(points []r2.Vec, fill color.RGBA) {
	r.Calls = append(r.Calls, DrawCall{Kind: DrawPolygon, Points: append([]r2.Vec(nil), points...), Color: fill})
}

// Count returns how many calls of kind k were recorded.
func (r *Recorder) Count(k DrawKind) int {
	n := 0
	for _, c := range r.Calls {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// SkinSides returns points offset by halfWidth to the left and right of a
// chain of segment centers, using the direction between neighbors as the
// local tangent.
func SkinSides(centers []r2.Vec, halfWidth float64) (left, right []r2.Vec) {
	n := len(centers)
	left = make([]r2.Vec, n)
	right = make([]r2.Vec, n)
	for i, c := range centers {
		prev, next := c, c
		if i > 0 {
			prev = centers[i-1]
		}
		if i < n-1 {
			next = centers[i+1]
		}
		tangent := physics.SafeUnit(r2.Sub(prev, next))
		normal := r2.Scale(halfWidth, physics.Perp(tangent))
		left[i] = r2.Add(c, normal)
		right[i] = r2.Sub(c, normal)
	}
	return left, right
}

// SkinOutline returns a closed outline around a chain: the left side from
// head to tail followed by the right side from tail to head.
func SkinOutline(centers []r2.Vec, halfWidth float64) []r2.Vec {
	left, right := SkinSides(centers, halfWidth)
	out := make([]r2.Vec, 0, 2*len(centers))
	out = append(out, left...)
	for i := len(right) - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	return out
}

// DrawSkin fills the chain's skin as one quad per link.
func DrawSkin(c Canvas, centers []r2.Vec, halfWidth float64, fill color.RGBA) {
	left, right := SkinSides(centers, halfWidth)
	for i := 0; i+1 < len(centers); i++ {
		c.Polygon([]r2.Vec{left[i], left[i+1], right[i+1], right[i]}, fill)
	}
}
