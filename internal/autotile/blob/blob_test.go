package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

const base = 100

func variantTile(t *testing.T, m Mask) int {
	t.Helper()
	idx := VariantIndex(m)
	require.GreaterOrEqual(t, idx, 0, "mask %d has no variant", m)
	return base + idx
}

func TestVariantTable(t *testing.T) {
	seen := map[Mask]bool{}
	for i := 0; i < VariantCount; i++ {
		m, ok := VariantMask(i)
		require.True(t, ok)
		assert.False(t, seen[m], "duplicate mask %d", m)
		seen[m] = true
		assert.Equal(t, m, OptimizeBitmask(m), "variant %d mask is already optimized", i)
		assert.Equal(t, i, VariantIndex(m))
	}

	_, ok := VariantMask(VariantCount)
	assert.False(t, ok)
	_, ok = VariantMask(-1)
	assert.False(t, ok)
}

func TestOptimizeBitmask(t *testing.T) {
	tests := []struct {
		name string
		in   Mask
		want Mask
	}{
		{"isolated", 0, 0},
		{"lone corner dropped", NE, 0},
		{"corner with one side dropped", N | NE, N},
		{"corner with both sides kept", N | NE | E, N | NE | E},
		{"all neighbours", 0xFF, 0xFF},
		{"sides only", N | E | S | W, N | E | S | W},
		{"all corners no sides", NE | SE | SW | NW, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OptimizeBitmask(tt.in))
		})
	}

	for raw := 0; raw < 256; raw++ {
		assert.GreaterOrEqual(t, VariantIndex(Mask(raw)), 0, "raw mask %d", raw)
	}
}

func TestCalculateBitmask(t *testing.T) {
	a := Autotile{BaseTile: base}
	g := core.NewTileGrid(3, 3)
	g.Set(1, 0, base)    // N
	g.Set(2, 0, base+8)  // NE
	g.Set(0, 1, 999)     // W, foreign tile
	g.Set(2, 2, base+46) // SE

	m := CalculateBitmask(g, a, 1, 1)
	assert.Equal(t, N|NE|SE, m)
	assert.Equal(t, N, OptimizeBitmask(m))

	assert.Equal(t, E, CalculateBitmask(g, a, 0, 0), "grid edge and foreign tiles count as absent")
}

func TestPaintAutotile(t *testing.T) {
	a := Autotile{BaseTile: base}

	t.Run("single tile", func(t *testing.T) {
		g := core.NewTileGrid(3, 3)
		changed := PaintAutotile(g, a, 1, 1)
		assert.Equal(t, []core.Coordinate{{X: 1, Y: 1}}, changed)
		tile, _ := g.Get(1, 1)
		assert.Equal(t, variantTile(t, 0), tile)
	})

	t.Run("neighbour redraws", func(t *testing.T) {
		g := core.NewTileGrid(4, 3)
		PaintAutotile(g, a, 1, 1)
		changed := PaintAutotile(g, a, 2, 1)
		assert.Equal(t, []core.Coordinate{{X: 1, Y: 1}, {X: 2, Y: 1}}, changed)

		left, _ := g.Get(1, 1)
		right, _ := g.Get(2, 1)
		assert.Equal(t, variantTile(t, E), left)
		assert.Equal(t, variantTile(t, W), right)
	})

	t.Run("filled block", func(t *testing.T) {
		g := core.NewTileGrid(3, 3)
		for y := 0; y < 3; y++ {
			for x := 0; x < 3; x++ {
				PaintAutotile(g, a, x, y)
			}
		}
		center, _ := g.Get(1, 1)
		corner, _ := g.Get(0, 0)
		top, _ := g.Get(1, 0)
		assert.Equal(t, variantTile(t, 0xFF), center)
		assert.Equal(t, variantTile(t, E|SE|S), corner)
		assert.Equal(t, variantTile(t, E|SE|S|SW|W), top)
	})

	t.Run("foreign tiles untouched", func(t *testing.T) {
		g := core.NewTileGrid(3, 1)
		g.Set(0, 0, 7)
		changed := PaintAutotile(g, a, 1, 0)
		assert.Equal(t, []core.Coordinate{{X: 1, Y: 0}}, changed)
		tile, _ := g.Get(0, 0)
		assert.Equal(t, 7, tile)
	})

	t.Run("out of bounds", func(t *testing.T) {
		g := core.NewTileGrid(2, 2)
		assert.Nil(t, PaintAutotile(g, a, 5, 5))
		assert.Nil(t, EraseAutotile(g, a, -1, 0))
	})
}

func TestEraseAutotile(t *testing.T) {
	a := Autotile{BaseTile: base}
	g := core.NewTileGrid(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			PaintAutotile(g, a, x, y)
		}
	}

	changed := EraseAutotile(g, a, 1, 1)
	assert.Len(t, changed, 9)

	center, _ := g.Get(1, 1)
	assert.Equal(t, core.EmptyTile, center)
	corner, _ := g.Get(0, 0)
	assert.Equal(t, variantTile(t, E|S), corner)
	top, _ := g.Get(1, 0)
	assert.Equal(t, variantTile(t, E|W), top)
}

func TestAutotile_ExplicitTiles(t *testing.T) {
	tiles := make([]int, VariantCount)
	for i := range tiles {
		tiles[i] = 500 + 2*i
	}
	tiles[VariantIndex(0)] = -1
	a := Autotile{BaseTile: base, Tiles: tiles}

	assert.Equal(t, 500+2*VariantIndex(0xFF), a.TileFor(0xFF))
	assert.Equal(t, base+VariantIndex(0), a.TileFor(0), "negative entry falls back to the base layout")
	assert.True(t, a.Owns(500))
	assert.True(t, a.Owns(base+VariantIndex(0)))
	assert.False(t, a.Owns(501))
	assert.False(t, a.Owns(base+1))
	assert.False(t, a.Owns(core.EmptyTile))

	g := core.NewTileGrid(2, 1)
	PaintAutotile(g, a, 0, 0)
	PaintAutotile(g, a, 1, 0)
	left, _ := g.Get(0, 0)
	assert.Equal(t, a.TileFor(E), left)
}

func TestUpdateRegion(t *testing.T) {
	a := Autotile{BaseTile: base}
	// Raw placement with every cell on the isolated variant
	g := core.NewTileGrid(3, 2)
	for i := range g.T {
		g.T[i] = a.TileFor(0)
	}
	g.Set(2, 1, core.EmptyTile)

	changed := UpdateRegion(g, a, -5, -5, 10, 10)
	assert.Len(t, changed, 5)

	tile, _ := g.Get(0, 0)
	assert.Equal(t, variantTile(t, E|SE|S), tile)
	tile, _ = g.Get(2, 0)
	assert.Equal(t, variantTile(t, W), tile, "SW corner dropped without the south side")

	assert.Empty(t, UpdateRegion(g, a, 0, 0, 2, 1), "second pass is stable")
}
