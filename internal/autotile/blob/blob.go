// Package blob implements the legacy single-terrain 47-tile autotile format.
// A cell's variant depends only on which of its 8 neighbours belong to the
// same autotile; there is no terrain set, propagation or corrections pass.
package blob

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

// Mask is an 8-bit neighbour presence mask
type Mask uint8

const (
	N Mask = 1 << iota
	NE
	E
	SE
	S
	SW
	W
	NW
)

// VariantCount is the number of distinct optimized masks
const VariantCount = 47

// variantMasks lists the optimized masks in tilesheet order; variant i is
// drawn by tile BaseTile+i.
var variantMasks = [VariantCount]Mask{
	28, 124, 112, 16, 247, 223, 125, 31, 255, 241, 17, 253,
	127, 95, 7, 199, 193, 1, 117, 87, 245, 4, 68, 64,
	0, 213, 93, 215, 23, 209, 116, 92, 20, 84, 80, 29,
	113, 197, 71, 21, 85, 81, 221, 119, 5, 69, 65,
}

var maskToVariant = func() [256]int {
	var lookup [256]int
	for i := range lookup {
		lookup[i] = -1
	}
	for idx, m := range variantMasks {
		lookup[m] = idx
	}
	return lookup
}()

// maskBit maps a direction to its mask bit
func maskBit(d core.Direction) Mask {
	return 1 << uint(d)
}

// Has reports whether the neighbour in direction d is present
func (m Mask) Has(d core.Direction) bool {
	return m&maskBit(d) != 0
}

// OptimizeBitmask drops corner bits whose two adjacent sides are not both
// present, reducing 256 raw masks to the 47 drawable variants.
func OptimizeBitmask(m Mask) Mask {
	out := m & (N | E | S | W)
	for _, d := range []core.Direction{core.NorthEast, core.SouthEast, core.SouthWest, core.NorthWest} {
		if m.Has(d) && m.Has(d.Rotate(-1)) && m.Has(d.Rotate(1)) {
			out |= maskBit(d)
		}
	}
	return out
}

// VariantIndex returns the variant drawn for a mask, optimizing it first
func VariantIndex(m Mask) int {
	return maskToVariant[OptimizeBitmask(m)]
}

// VariantMask returns the optimized mask drawn by variant i
func VariantMask(i int) (Mask, bool) {
	if i < 0 || i >= VariantCount {
		return 0, false
	}
	return variantMasks[i], true
}

// Autotile describes where the 47 variants of one autotile live in a tileset.
// Variants are BaseTile+i unless Tiles holds an explicit 47-entry mapping;
// negative entries in Tiles fall back to BaseTile+i.
type Autotile struct {
	BaseTile int   `yaml:"base_tile" json:"base_tile"`
	Tiles    []int `yaml:"tiles,omitempty" json:"tiles,omitempty"`
}

// TileFor returns the tile drawn for a raw or optimized mask
func (a Autotile) TileFor(m Mask) int {
	idx := VariantIndex(m)
	if idx < 0 {
		return a.BaseTile
	}
	if len(a.Tiles) == VariantCount && a.Tiles[idx] >= 0 {
		return a.Tiles[idx]
	}
	return a.BaseTile + idx
}

// Owns reports whether tile is one of this autotile's variants
func (a Autotile) Owns(tile int) bool {
	if tile == core.EmptyTile {
		return false
	}
	if len(a.Tiles) == VariantCount {
		for i, t := range a.Tiles {
			if t == tile || (t < 0 && tile == a.BaseTile+i) {
				return true
			}
		}
		return false
	}
	return tile >= a.BaseTile && tile < a.BaseTile+VariantCount
}

// CalculateBitmask samples the 8 neighbours of (x, y) and sets a bit for
// each one holding a tile of the autotile. Cells outside the grid count as
// absent. The result is raw; see OptimizeBitmask.
func CalculateBitmask(g *core.TileGrid, a Autotile, x, y int) Mask {
	var m Mask
	c := core.NewCoordinate(x, y)
	for d := core.North; d < core.DirectionCount; d++ {
		if tile, ok := g.At(c.Move(d)); ok && a.Owns(tile) {
			m |= maskBit(d)
		}
	}
	return m
}

// PaintAutotile places the autotile at (x, y) and redraws it and its
// neighbours. Returns the changed cells in row-major order.
func PaintAutotile(g *core.TileGrid, a Autotile, x, y int) []core.Coordinate {
	if !g.InBounds(x, y) {
		return nil
	}
	prev := snapshot(g, x, y)
	g.Set(x, y, a.TileFor(0))
	refresh(g, a, x, y)
	return diff(g, prev)
}

// EraseAutotile empties (x, y) and redraws the autotile cells around it.
// Cells of other tiles are left untouched.
func EraseAutotile(g *core.TileGrid, a Autotile, x, y int) []core.Coordinate {
	if !g.InBounds(x, y) {
		return nil
	}
	prev := snapshot(g, x, y)
	g.Set(x, y, core.EmptyTile)
	refresh(g, a, x, y)
	return diff(g, prev)
}

// UpdateRegion redraws every autotile cell in the inclusive rectangle
func UpdateRegion(g *core.TileGrid, a Autotile, x0, y0, x1, y1 int) []core.Coordinate {
	var changed []core.Coordinate
	for y := max(y0, 0); y <= min(y1, g.H-1); y++ {
		for x := max(x0, 0); x <= min(x1, g.W-1); x++ {
			if recompute(g, a, x, y) {
				changed = append(changed, core.NewCoordinate(x, y))
			}
		}
	}
	return changed
}

func recompute(g *core.TileGrid, a Autotile, x, y int) bool {
	tile, ok := g.Get(x, y)
	if !ok || !a.Owns(tile) {
		return false
	}
	next := a.TileFor(CalculateBitmask(g, a, x, y))
	if next == tile {
		return false
	}
	g.Set(x, y, next)
	return true
}

// refresh redraws the 3x3 block centred on (x, y)
func refresh(g *core.TileGrid, a Autotile, x, y int) {
	for yy := y - 1; yy <= y+1; yy++ {
		for xx := x - 1; xx <= x+1; xx++ {
			recompute(g, a, xx, yy)
		}
	}
}

type cellState struct {
	coord core.Coordinate
	tile  int
}

func snapshot(g *core.TileGrid, x, y int) []cellState {
	var out []cellState
	for yy := y - 1; yy <= y+1; yy++ {
		for xx := x - 1; xx <= x+1; xx++ {
			if tile, ok := g.Get(xx, yy); ok {
				out = append(out, cellState{coord: core.NewCoordinate(xx, yy), tile: tile})
			}
		}
	}
	return out
}

func diff(g *core.TileGrid, prev []cellState) []core.Coordinate {
	var changed []core.Coordinate
	for _, s := range prev {
		if tile, _ := g.At(s.coord); tile != s.tile {
			changed = append(changed, s.coord)
		}
	}
	return changed
}
