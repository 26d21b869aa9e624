package physics

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// gridEntry is an indexed collider with its world-space bounding box.
type gridEntry struct {
	E   ecs.Entity
	Box r2.Box
}

// SpatialGrid is a uniform grid over a bounded region. Each entry is stored
// in every cell its bounding box overlaps; positions outside the region are
// clamped to the border cells.
type SpatialGrid struct {
	origin   r2.Vec
	cellSize float64
	cols     int
	rows     int
	entries  []gridEntry
	cells    [][]int32 // indices into entries
}

// NewSpatialGrid creates a spatial grid covering bounds.
func NewSpatialGrid(bounds r2.Box, cellSize float64) *SpatialGrid {
	size := r2.Sub(bounds.Max, bounds.Min)
	cols := int(size.X/cellSize) + 1
	rows := int(size.Y/cellSize) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8)
	}

	return &SpatialGrid{
		origin:   bounds.Min,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entries from the grid.
func (g *SpatialGrid) Clear() {
	g.entries = g.entries[:0]
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Len returns the number of indexed entries.
func (g *SpatialGrid) Len() int { return len(g.entries) }

// Insert adds an entity covering box.
func (g *SpatialGrid) Insert(e ecs.Entity, box r2.Box) {
	idx := int32(len(g.entries))
	g.entries = append(g.entries, gridEntry{E: e, Box: box})

	c0, r0 := g.cell(box.Min)
	c1, r1 := g.cell(box.Max)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			i := r*g.cols + c
			g.cells[i] = append(g.cells[i], idx)
		}
	}
}

// Query calls fn once for every entry whose box overlaps box.
// Safe for concurrent use while the grid is not being modified.
func (g *SpatialGrid) Query(box r2.Box, fn func(e ecs.Entity, entryBox r2.Box)) {
	c0, r0 := g.cell(box.Min)
	c1, r1 := g.cell(box.Max)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, idx := range g.cells[r*g.cols+c] {
				en := g.entries[idx]
				if !overlaps(box, en.Box) {
					continue
				}
				// Report from the cell holding the overlap's min corner only.
				oc, or := g.cell(r2.Vec{X: math.Max(box.Min.X, en.Box.Min.X), Y: math.Max(box.Min.Y, en.Box.Min.Y)})
				if oc != c || or != r {
					continue
				}
				fn(en.E, en.Box)
			}
		}
	}
}

// Pairs calls fn once for every pair of entries with overlapping boxes.
func (g *SpatialGrid) Pairs(fn func(a, b ecs.Entity)) {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := g.cells[r*g.cols+c]
			for i := 0; i < len(cell); i++ {
				ea := g.entries[cell[i]]
				for j := i + 1; j < len(cell); j++ {
					eb := g.entries[cell[j]]
					if !overlaps(ea.Box, eb.Box) {
						continue
					}
					oc, or := g.cell(r2.Vec{X: math.Max(ea.Box.Min.X, eb.Box.Min.X), Y: math.Max(ea.Box.Min.Y, eb.Box.Min.Y)})
					if oc != c || or != r {
						continue
					}
					fn(ea.E, eb.E)
				}
			}
		}
	}
}

// cell returns the clamped column and row for a world position.
func (g *SpatialGrid) cell(p r2.Vec) (col, row int) {
	col = int(math.Floor((p.X - g.origin.X) / g.cellSize))
	row = int(math.Floor((p.Y - g.origin.Y) / g.cellSize))

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

func overlaps(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}
