package core

import "strings"

// EmptyTile marks a cell with no tile placed
const EmptyTile = -1

// TileGrid is a caller-owned tile index buffer.
// T holds one tile index per cell (EmptyTile for none), length = W*H, row-major.
// Paint operations mutate T in place and never retain it after returning.
type TileGrid struct {
	W, H int
	T    []int
}

// NewTileGrid allocates an empty grid
func NewTileGrid(w, h int) *TileGrid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	g := &TileGrid{W: w, H: h, T: make([]int, w*h)}
	for i := range g.T {
		g.T[i] = EmptyTile
	}
	return g
}

// WrapTileGrid wraps an existing buffer without copying it.
// Returns ErrBufferSize when len(buf) != w*h.
func WrapTileGrid(w, h int, buf []int) (*TileGrid, error) {
	if w < 0 || h < 0 || len(buf) != w*h {
		return nil, WrapGridError(w, h, len(buf), ErrBufferSize)
	}
	return &TileGrid{W: w, H: h, T: buf}, nil
}

func (g *TileGrid) Idx(x, y int) int      { return y*g.W + x }
func (g *TileGrid) XY(idx int) (int, int) { return idx % g.W, idx / g.W }

// InBounds checks if coordinates are within grid boundaries
func (g *TileGrid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// Contains checks if a coordinate is within grid boundaries
func (g *TileGrid) Contains(c Coordinate) bool {
	return g.InBounds(c.X, c.Y)
}

// Get returns the tile at x,y. The second result is false when the
// position is outside the grid or the cell is empty.
func (g *TileGrid) Get(x, y int) (int, bool) {
	if !g.InBounds(x, y) {
		return EmptyTile, false
	}
	t := g.T[g.Idx(x, y)]
	return t, t != EmptyTile
}

// At is Get for a Coordinate
func (g *TileGrid) At(c Coordinate) (int, bool) {
	return g.Get(c.X, c.Y)
}

// Set writes a tile index. Out of range positions are ignored.
func (g *TileGrid) Set(x, y, tile int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	if tile < 0 {
		tile = EmptyTile
	}
	g.T[g.Idx(x, y)] = tile
	return true
}

// Clone returns a deep copy of the grid
func (g *TileGrid) Clone() *TileGrid {
	c := &TileGrid{W: g.W, H: g.H, T: make([]int, len(g.T))}
	copy(c.T, g.T)
	return c
}

// Equal reports whether two grids hold the same dimensions and tiles
func (g *TileGrid) Equal(other *TileGrid) bool {
	if other == nil || g.W != other.W || g.H != other.H || len(g.T) != len(other.T) {
		return false
	}
	for i := range g.T {
		if g.T[i] != other.T[i] {
			return false
		}
	}
	return true
}

// String renders the grid for debugging, one row per line
func (g *TileGrid) String() string {
	var sb strings.Builder
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			t := g.T[g.Idx(x, y)]
			if t == EmptyTile {
				sb.WriteString("  .")
				continue
			}
			sb.WriteString(IntToStringFixedWidth(t, 3))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
