// Package layout assigns dialogue nodes to non-overlapping cells of the editor canvas.
package layout

import (
	"errors"
	"math"

	"github.com/google/uuid"
)

// ErrGridExhausted is returned when no free cell is left and the grid may not grow.
var ErrGridExhausted = errors.New("layout grid exhausted")

type Cell struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Placement pairs a node with the cell it occupies.
type Placement struct {
	NodeID uuid.UUID
	Cell   Cell
}

type Config struct {
	Columns    int
	Rows       int
	MaxRows    int
	Margin     int
	CellWidth  float64
	CellHeight float64
}

// Grid tracks cell occupancy for one scenario. It is not safe for concurrent
// use; callers build one per request from persisted cells.
type Grid struct {
	cols, rows int
	maxRows    int
	margin     int
	cellW      float64
	cellH      float64

	byNode map[uuid.UUID]Cell
	byCell map[Cell]uuid.UUID
}

func New(cfg Config) *Grid {
	g := &Grid{
		cols:    max(cfg.Columns, 1),
		rows:    max(cfg.Rows, 1),
		maxRows: cfg.MaxRows,
		margin:  max(cfg.Margin, 0),
		cellW:   cfg.CellWidth,
		cellH:   cfg.CellHeight,
		byNode:  make(map[uuid.UUID]Cell),
		byCell:  make(map[Cell]uuid.UUID),
	}
	if g.maxRows < g.rows {
		g.maxRows = g.rows
	}
	if g.cellW <= 0 {
		g.cellW = 1
	}
	if g.cellH <= 0 {
		g.cellH = 1
	}
	return g
}

// Size returns the current column and row counts.
func (g *Grid) Size() (cols, rows int) { return g.cols, g.rows }

// Len returns the number of occupied cells.
func (g *Grid) Len() int { return len(g.byNode) }

// CellOf returns the cell a node occupies.
func (g *Grid) CellOf(nodeID uuid.UUID) (Cell, bool) {
	c, ok := g.byNode[nodeID]
	return c, ok
}

// Occupant returns the node in c, if any.
func (g *Grid) Occupant(c Cell) (uuid.UUID, bool) {
	id, ok := g.byCell[c]
	return id, ok
}

// Load rebuilds occupancy from persisted placements. The grid first grows to fit
// them; placements that collide with an earlier one are moved to the nearest
// free cell and returned so the caller can persist the fix.
func (g *Grid) Load(ps []Placement) ([]Placement, error) {
	cells := make([]Cell, 0, len(ps))
	for _, p := range ps {
		cells = append(cells, p.Cell)
	}
	g.ResizeToFit(cells)

	var moved []Placement
	for _, p := range ps {
		got, err := g.Place(p.NodeID, p.Cell)
		if err != nil {
			return moved, err
		}
		if got != p.Cell {
			moved = append(moved, Placement{NodeID: p.NodeID, Cell: got})
		}
	}
	return moved, nil
}

// Place puts nodeID in preferred if it is free, otherwise in the nearest free
// cell. A node that is already placed is moved and its old cell released.
func (g *Grid) Place(nodeID uuid.UUID, preferred Cell) (Cell, error) {
	preferred = g.clamp(preferred)

	old, placed := g.byNode[nodeID]
	if placed {
		if old == preferred {
			return old, nil
		}
		g.Release(nodeID)
	}

	for {
		if c, ok := g.nearestFree(preferred); ok {
			g.occupy(nodeID, c)
			return c, nil
		}
		if g.rows >= g.maxRows {
			break
		}
		g.rows++
	}

	if placed {
		g.occupy(nodeID, old)
	}
	return Cell{}, ErrGridExhausted
}

// Release frees the cell held by nodeID. It reports whether the node was placed.
func (g *Grid) Release(nodeID uuid.UUID) bool {
	c, ok := g.byNode[nodeID]
	if !ok {
		return false
	}
	delete(g.byNode, nodeID)
	delete(g.byCell, c)
	return true
}

// ResizeToFit grows the grid so every cell plus the margin fits. Rows stop at
// the configured maximum. The grid never shrinks. It reports whether the size changed.
func (g *Grid) ResizeToFit(cells []Cell) bool {
	cols, rows := g.cols, g.rows
	for _, c := range cells {
		if c.Col < 0 || c.Row < 0 {
			continue
		}
		cols = max(cols, c.Col+1+g.margin)
		rows = max(rows, c.Row+1+g.margin)
	}
	rows = min(rows, g.maxRows)
	changed := cols != g.cols || rows != g.rows
	g.cols, g.rows = cols, rows
	return changed
}

// CellAt converts a canvas position in pixels to the cell containing it.
func (g *Grid) CellAt(x, y float64) Cell {
	return Cell{
		Col: max(int(math.Floor(x/g.cellW)), 0),
		Row: max(int(math.Floor(y/g.cellH)), 0),
	}
}

// Position returns the top-left pixel of c.
func (g *Grid) Position(c Cell) (x, y float64) {
	return float64(c.Col) * g.cellW, float64(c.Row) * g.cellH
}

func (g *Grid) occupy(nodeID uuid.UUID, c Cell) {
	g.byNode[nodeID] = c
	g.byCell[c] = nodeID
}

func (g *Grid) inside(c Cell) bool {
	return c.Col >= 0 && c.Col < g.cols && c.Row >= 0 && c.Row < g.rows
}

func (g *Grid) free(c Cell) bool {
	_, taken := g.byCell[c]
	return g.inside(c) && !taken
}

func (g *Grid) clamp(c Cell) Cell {
	c.Col = min(max(c.Col, 0), g.cols-1)
	c.Row = min(max(c.Row, 0), g.rows-1)
	return c
}

// nearestFree searches rings of growing Chebyshev distance around origin.
func (g *Grid) nearestFree(origin Cell) (Cell, bool) {
	if g.free(origin) {
		return origin, true
	}
	maxRing := max(g.cols, g.rows)
	for r := 1; r <= maxRing; r++ {
		var (
			best  Cell
			found bool
		)
		for _, c := range ring(origin, r) {
			if !g.free(c) {
				continue
			}
			if !found || closer(origin, c, best) {
				best, found = c, true
			}
		}
		if found {
			return best, true
		}
	}
	return Cell{}, false
}

// ring lists the cells at Chebyshev distance r from o.
func ring(o Cell, r int) []Cell {
	out := make([]Cell, 0, 8*r)
	for dx := -r; dx <= r; dx++ {
		out = append(out, Cell{o.Col + dx, o.Row - r}, Cell{o.Col + dx, o.Row + r})
	}
	for dy := -r + 1; dy <= r-1; dy++ {
		out = append(out, Cell{o.Col - r, o.Row + dy}, Cell{o.Col + r, o.Row + dy})
	}
	return out
}

// closer orders candidates by euclidean distance, then compass direction
// clockwise from east, then row and column.
func closer(o, a, b Cell) bool {
	da, db := dist2(o, a), dist2(o, b)
	if da != db {
		return da < db
	}
	ra, rb := direction(o, a), direction(o, b)
	if ra != rb {
		return ra < rb
	}
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}

func dist2(o, c Cell) int {
	dx, dy := c.Col-o.Col, c.Row-o.Row
	return dx*dx + dy*dy
}

// direction ranks E, SE, S, SW, W, NW, N, NE. Rows grow southwards.
func direction(o, c Cell) int {
	sx, sy := sign(c.Col-o.Col), sign(c.Row-o.Row)
	switch {
	case sx > 0 && sy == 0:
		return 0
	case sx > 0 && sy > 0:
		return 1
	case sx == 0 && sy > 0:
		return 2
	case sx < 0 && sy > 0:
		return 3
	case sx < 0 && sy == 0:
		return 4
	case sx < 0 && sy < 0:
		return 5
	case sx == 0 && sy < 0:
		return 6
	default:
		return 7
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
