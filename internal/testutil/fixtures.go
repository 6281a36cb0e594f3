package testutil

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
)

const (
	Grass terrain.TerrainID = 0
	Dirt  terrain.TerrainID = 1
	Road  terrain.TerrainID = 1
)

// GrassVariantTile is a second all-grass tile in TransitionCornerSet
const GrassVariantTile = 16

// GrassDirtCornerSet has tile 0 all grass and tile 1 all dirt, no transitions
func GrassDirtCornerSet() *terrain.TerrainSet {
	s := terrain.NewTerrainSet("Ground", "overworld", terrain.Corner)
	s.AddTerrain("Grass", "#00ff00")
	s.AddTerrain("Dirt", "#8b4513")
	s.FillTile(0, Grass)
	s.FillTile(1, Dirt)
	return s
}

// TransitionCornerSet holds every grass/dirt corner combination. Tile i has
// dirt on corner c when bit c of i is set (corners ordered TopRight,
// BottomRight, BottomLeft, TopLeft), so 0 is all grass and 15 all dirt.
// Tile 16 is an extra all-grass variant.
func TransitionCornerSet() *terrain.TerrainSet {
	s := terrain.NewTerrainSet("Ground", "overworld", terrain.Corner)
	s.AddTerrain("Grass", "#00ff00")
	s.AddTerrain("Dirt", "#8b4513")
	for i := 0; i < 16; i++ {
		for c := terrain.TopRight; c <= terrain.TopLeft; c++ {
			t := Grass
			if i&(1<<uint(c)) != 0 {
				t = Dirt
			}
			s.SetTileCorner(i, c, t)
		}
	}
	s.FillTile(GrassVariantTile, Grass)
	return s
}

// CornerTile returns the TransitionCornerSet tile with dirt on the given corners
func CornerTile(dirt ...terrain.CornerPos) int {
	idx := 0
	for _, c := range dirt {
		idx |= 1 << uint(c)
	}
	return idx
}

// RoadEdgeSet holds every grass/road side combination. Tile i has road on
// side e when bit e of i is set (sides ordered Top, Right, Bottom, Left).
func RoadEdgeSet() *terrain.TerrainSet {
	s := terrain.NewTerrainSet("Roads", "overworld", terrain.Edge)
	s.AddTerrain("Grass", "#00ff00")
	s.AddTerrain("Road", "#999999")
	for i := 0; i < 16; i++ {
		for e := terrain.Top; e <= terrain.Left; e++ {
			t := Grass
			if i&(1<<uint(e)) != 0 {
				t = Road
			}
			s.SetTileEdge(i, e, t)
		}
	}
	return s
}

// MixedTile returns the GrassDirtMixedSet tile with dirt on the given slots
func MixedTile(dirt ...core.Direction) int {
	idx := 0
	for _, d := range dirt {
		idx |= 1 << uint(d)
	}
	return idx
}

// GrassDirtMixedSet holds every grass/dirt combination of the eight slots.
// Tile i has dirt on slot d when bit d of i is set, so 0 is all grass and
// 255 all dirt.
func GrassDirtMixedSet() *terrain.TerrainSet {
	s := terrain.NewTerrainSet("Cliffs", "overworld", terrain.Mixed)
	s.AddTerrain("Grass", "#00ff00")
	s.AddTerrain("Dirt", "#8b4513")
	for i := 0; i < 256; i++ {
		w := terrain.EmptyWangId()
		for d := core.North; d < core.DirectionCount; d++ {
			w[d] = Grass
			if i&(1<<uint(d)) != 0 {
				w[d] = Dirt
			}
		}
		s.SetTileWangId(i, w)
	}
	return s
}

// GridFromRows builds a grid from rows of tile indices; -1 is empty
func GridFromRows(rows [][]int) *core.TileGrid {
	h := len(rows)
	w := 0
	if h > 0 {
		w = len(rows[0])
	}
	g := core.NewTileGrid(w, h)
	for y, row := range rows {
		for x, tile := range row {
			g.Set(x, y, tile)
		}
	}
	return g
}

// FilledGrid returns a w x h grid with every cell set to tile
func FilledGrid(w, h, tile int) *core.TileGrid {
	g := core.NewTileGrid(w, h)
	for i := range g.T {
		g.T[i] = tile
	}
	return g
}
