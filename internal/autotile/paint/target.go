package paint

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
)

// TargetCell is one cell of a paint target and the slots painted on it
type TargetCell struct {
	Coord core.Coordinate
	Slots terrain.SlotMask
}

// PaintTarget is the region being painted and the anchor terrain painted on it
type PaintTarget struct {
	Terrain terrain.TerrainID
	cells   map[core.Coordinate]terrain.SlotMask
}

func newTarget(t terrain.TerrainID) PaintTarget {
	return PaintTarget{Terrain: t, cells: make(map[core.Coordinate]terrain.SlotMask)}
}

func (pt *PaintTarget) add(c core.Coordinate, slots terrain.SlotMask) {
	pt.cells[c] |= slots
}

// Len returns the number of distinct cells touched
func (pt PaintTarget) Len() int { return len(pt.cells) }

// Cells returns the target cells in row-major order
func (pt PaintTarget) Cells() []TargetCell {
	set := make(core.CoordinateSet, len(pt.cells))
	for c := range pt.cells {
		set.Add(c)
	}
	sorted := set.Sorted()
	out := make([]TargetCell, len(sorted))
	for i, c := range sorted {
		out[i] = TargetCell{Coord: c, Slots: pt.cells[c]}
	}
	return out
}

// clip drops cells outside the grid and slots the set type does not use
func (pt PaintTarget) clip(g *core.TileGrid, active terrain.SlotMask) []TargetCell {
	cells := pt.Cells()
	out := cells[:0]
	for _, tc := range cells {
		tc.Slots &= active
		if tc.Slots == 0 || !g.Contains(tc.Coord) {
			continue
		}
		out = append(out, tc)
	}
	return out
}

// CellTarget paints every slot of one cell
func CellTarget(x, y int, t terrain.TerrainID) PaintTarget {
	pt := newTarget(t)
	pt.add(core.NewCoordinate(x, y), terrain.AllSlots)
	return pt
}

// CellsTarget paints every slot of each listed cell
func CellsTarget(cells []core.Coordinate, t terrain.TerrainID) PaintTarget {
	pt := newTarget(t)
	for _, c := range cells {
		pt.add(c, terrain.AllSlots)
	}
	return pt
}

// RectTarget paints every slot of the cells between two corners, inclusive
func RectTarget(x0, y0, x1, y1 int, t terrain.TerrainID) PaintTarget {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	pt := newTarget(t)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			pt.add(core.NewCoordinate(x, y), terrain.AllSlots)
		}
	}
	return pt
}

// LineTarget paints every slot of the cells on a straight line between two
// cells, as produced by dragging the brush.
func LineTarget(from, to core.Coordinate, t terrain.TerrainID) PaintTarget {
	pt := newTarget(t)
	for _, c := range lineCells(from, to) {
		pt.add(c, terrain.AllSlots)
	}
	return pt
}

// VertexTarget paints the grid vertex at the top-left corner of cell (x, y),
// which is a corner of up to four cells.
func VertexTarget(x, y int, t terrain.TerrainID) PaintTarget {
	pt := newTarget(t)
	addVertex(&pt, x, y)
	return pt
}

func addVertex(pt *PaintTarget, x, y int) {
	pt.add(core.NewCoordinate(x, y), slot(core.NorthWest))
	pt.add(core.NewCoordinate(x-1, y), slot(core.NorthEast))
	pt.add(core.NewCoordinate(x, y-1), slot(core.SouthWest))
	pt.add(core.NewCoordinate(x-1, y-1), slot(core.SouthEast))
}

// HorizontalEdgeTarget paints the top side of cell (x, y), shared with the
// cell above. Corner sets paint the two corners at its ends.
func HorizontalEdgeTarget(x, y int, t terrain.TerrainID) PaintTarget {
	pt := newTarget(t)
	pt.add(core.NewCoordinate(x, y), slot(core.North)|slot(core.NorthEast)|slot(core.NorthWest))
	pt.add(core.NewCoordinate(x, y-1), slot(core.South)|slot(core.SouthEast)|slot(core.SouthWest))
	return pt
}

// VerticalEdgeTarget paints the left side of cell (x, y), shared with the
// cell to its left. Corner sets paint the two corners at its ends.
func VerticalEdgeTarget(x, y int, t terrain.TerrainID) PaintTarget {
	pt := newTarget(t)
	pt.add(core.NewCoordinate(x, y), slot(core.West)|slot(core.NorthWest)|slot(core.SouthWest))
	pt.add(core.NewCoordinate(x-1, y), slot(core.East)|slot(core.NorthEast)|slot(core.SouthEast))
	return pt
}

func slot(d core.Direction) terrain.SlotMask {
	return terrain.SlotMask(0).With(d)
}

// lineCells walks Bresenham's line from a to b inclusive
func lineCells(a, b core.Coordinate) []core.Coordinate {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	out := []core.Coordinate{a}
	for cur := a; cur != b; {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			cur.X += sx
		}
		if e2 <= dx {
			err += dx
			cur.Y += sy
		}
		out = append(out, cur)
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
