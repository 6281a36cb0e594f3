package testutil

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// seam pairs a slot of a cell with the slot of the neighbour at offset
// (dx, dy) that covers the same point or side
type seam struct {
	dx, dy     int
	own, other core.Direction
}

// East, south and both southern diagonals visit every shared boundary once
var seams = []seam{
	{1, 0, core.East, core.West},
	{1, 0, core.NorthEast, core.NorthWest},
	{1, 0, core.SouthEast, core.SouthWest},
	{0, 1, core.South, core.North},
	{0, 1, core.SouthEast, core.NorthEast},
	{0, 1, core.SouthWest, core.NorthWest},
	{1, 1, core.SouthEast, core.NorthWest},
	{-1, 1, core.SouthWest, core.NorthEast},
}

// AssertSeamless fails for every pair of neighbouring cells whose tiles
// disagree on a shared active slot. Empty cells, tiles without terrain
// data and unset slots are skipped.
func AssertSeamless(t *testing.T, s *terrain.TerrainSet, g *core.TileGrid) bool {
	t.Helper()
	active := s.ActiveSlots()
	ok := true
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			own, found := cellWangId(s, g, x, y)
			if !found {
				continue
			}
			for _, sm := range seams {
				if !active.Has(sm.own) {
					continue
				}
				other, found := cellWangId(s, g, x+sm.dx, y+sm.dy)
				if !found {
					continue
				}
				a, b := own.Get(sm.own), other.Get(sm.other)
				if a.IsSet() && b.IsSet() && a != b {
					ok = assert.Failf(t, "seam mismatch",
						"(%d,%d) %s=%d but (%d,%d) %s=%d",
						x, y, sm.own, a, x+sm.dx, y+sm.dy, sm.other, b) && ok
				}
			}
		}
	}
	return ok
}

func cellWangId(s *terrain.TerrainSet, g *core.TileGrid, x, y int) (terrain.WangId, bool) {
	tile, ok := g.Get(x, y)
	if !ok || tile == core.EmptyTile {
		return terrain.WangId{}, false
	}
	return s.TileWangId(tile)
}
