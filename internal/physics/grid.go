package physics

import "math"

// SpatialGrid is a uniform grid for broad-phase queries over a bounded area.
// Bodies are inserted by center position and index, then nearby bodies can be
// queried via a 3x3 neighborhood lookup.
//
// Cell size must be >= the largest body extent so that any two overlapping
// bodies are found within the 3x3 neighborhood. Positions outside the area are
// clamped into the edge cells.
type SpatialGrid struct {
	origin      Vec2
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)
	cols        int
	rows        int
	cells       []gridCell
}

// gridCell stores the indices of bodies that fall within a grid cell.
// The slice is reused between frames (reset to [:0]) to avoid allocations.
type gridCell struct {
	items []int
}

// NewSpatialGrid creates a grid covering area with the given cell size.
func NewSpatialGrid(area Rect, cellSize float64) *SpatialGrid {
	g := &SpatialGrid{}
	g.Reset(area, cellSize)
	return g
}

// Reset re-dimensions the grid, reusing cell storage when the cell count is unchanged.
func (g *SpatialGrid) Reset(area Rect, cellSize float64) {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(math.Ceil((area.MaxX - area.MinX) / cellSize))
	rows := int(math.Ceil((area.MaxY - area.MinY) / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g.origin = Vec2{area.MinX, area.MinY}
	g.cellSize = cellSize
	g.invCellSize = 1.0 / cellSize
	if cols*rows != len(g.cells) {
		g.cells = make([]gridCell, cols*rows)
	}
	g.cols = cols
	g.rows = rows
	g.Clear()
}

// CellSize returns the current cell size.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Clear removes all items from the grid without deallocating cell memory.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].items = g.cells[i].items[:0]
	}
}

// Insert adds an item (identified by index) at the given position.
func (g *SpatialGrid) Insert(p Vec2, index int) {
	col, row := g.posToCell(p)
	idx := row*g.cols + col
	g.cells[idx].items = append(g.cells[idx].items, index)
}

// QueryAround calls fn for each item index in the 3x3 cell neighborhood
// around p. Cells past the grid edge are skipped.
// If fn returns true, iteration stops early (useful for "find first" queries).
func (g *SpatialGrid) QueryAround(p Vec2, fn func(index int) bool) {
	col, row := g.posToCell(p)

	for r := row - 1; r <= row+1; r++ {
		if r < 0 || r >= g.rows {
			continue
		}
		rowOffset := r * g.cols
		for c := col - 1; c <= col+1; c++ {
			if c < 0 || c >= g.cols {
				continue
			}
			for _, itemIdx := range g.cells[rowOffset+c].items {
				if fn(itemIdx) {
					return
				}
			}
		}
	}
}

// posToCell converts a position to grid cell coordinates.
// Clamps to valid range so off-area bodies land in the edge cells.
func (g *SpatialGrid) posToCell(p Vec2) (col, row int) {
	col = int(math.Floor((p.X - g.origin.X) * g.invCellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}

	row = int(math.Floor((p.Y - g.origin.Y) * g.invCellSize))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return col, row
}
