package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/softies/camera"
	"github.com/pthm-cable/softies/creature"
	"github.com/pthm-cable/softies/physics"
)

// Highlight is the outline color for selected creatures.
var Highlight = color.RGBA{R: 255, G: 240, B: 120, A: 255}

var (
	airColor     = rl.Color{R: 28, G: 34, B: 48, A: 255}
	shallowColor = rl.Color{R: 40, G: 120, B: 170, A: 255}
	deepColor    = rl.Color{R: 6, G: 18, B: 40, A: 255}
	surfaceColor = rl.Color{R: 170, G: 220, B: 240, A: 200}
	wallColor    = rl.Color{R: 90, G: 84, B: 76, A: 255}
	wallEdge     = rl.Color{R: 130, G: 122, B: 110, A: 255}
)

const (
	waterBands    = 32
	surfacePoints = 64
	waveAmplitude = 0.04 // meters
	waveScale     = 0.6
	waveSpeed     = 0.8
)

// Tank draws the water column, the animated surface line and the walls.
type Tank struct {
	noise opensimplex.Noise
}

// NewTank creates a tank renderer; seed drives the surface ripple.
func NewTank(seed int64) *Tank {
	return &Tank{noise: opensimplex.New(seed)}
}

// DrawWater fills the tank with a depth-shaded water column. Band colors
// follow the light model so the shading matches what plankton see.
func (t *Tank) DrawWater(cam *camera.Camera, wc *creature.WorldContext) {
	b := wc.Bounds
	surface := math.Min(wc.SurfaceY, b.Max.Y)

	if surface < b.Max.Y {
		fillRect(cam, r2.Box{Min: r2.Vec{X: b.Min.X, Y: surface}, Max: b.Max}, airColor)
	}

	h := (surface - b.Min.Y) / waterBands
	for i := 0; i < waterBands; i++ {
		top := surface - float64(i)*h
		light := wc.LightAt(r2.Vec{Y: top - h/2})
		if wc.Light == creature.LightNone {
			light = 1 - float64(i)/waterBands
		}
		col := lerpColor(deepColor, shallowColor, light)
		fillRect(cam, r2.Box{Min: r2.Vec{X: b.Min.X, Y: top - h}, Max: r2.Vec{X: b.Max.X, Y: top}}, col)
	}

	if wc.SurfaceY <= b.Max.Y && wc.SurfaceY >= b.Min.Y {
		t.drawSurface(cam, b, wc.SurfaceY, wc.Time)
	}
}

func (t *Tank) drawSurface(cam *camera.Camera, b r2.Box, y, time float64) {
	step := (b.Max.X - b.Min.X) / (surfacePoints - 1)
	var prev rl.Vector2
	for i := 0; i < surfacePoints; i++ {
		x := b.Min.X + float64(i)*step
		dy := t.noise.Eval2(x*waveScale, time*waveSpeed) * waveAmplitude
		sx, sy := cam.WorldToScreen(r2.Vec{X: x, Y: y + dy})
		p := rl.NewVector2(float32(sx), float32(sy))
		if i > 0 {
			rl.DrawLineEx(prev, p, 2, surfaceColor)
		}
		prev = p
	}
}

// DrawWalls draws every fixed box in the world.
func (t *Tank) DrawWalls(cam *camera.Camera, w *physics.World) {
	w.FixedBoxes(func(center r2.Vec, angle float64, half r2.Vec) {
		sx, sy := cam.WorldToScreen(center)
		wpx := float32(cam.Length(2 * half.X))
		hpx := float32(cam.Length(2 * half.Y))
		rec := rl.NewRectangle(float32(sx), float32(sy), wpx, hpx)
		origin := rl.NewVector2(wpx/2, hpx/2)
		// Screen y points down, so world rotations flip sign.
		rot := float32(-angle * 180 / math.Pi)
		rl.DrawRectanglePro(rec, origin, rot, wallColor)
		if angle == 0 {
			rl.DrawRectangleLinesEx(rl.NewRectangle(float32(sx)-wpx/2, float32(sy)-hpx/2, wpx, hpx), 1, wallEdge)
		}
	})
}

func fillRect(cam *camera.Camera, box r2.Box, col rl.Color) {
	x0, y0 := cam.WorldToScreen(r2.Vec{X: box.Min.X, Y: box.Max.Y})
	x1, y1 := cam.WorldToScreen(r2.Vec{X: box.Max.X, Y: box.Min.Y})
	rl.DrawRectangleRec(rl.NewRectangle(float32(x0), float32(y0), float32(x1-x0)+1, float32(y1-y0)+1), col)
}

func lerpColor(a, b rl.Color, t float64) rl.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t) }
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
