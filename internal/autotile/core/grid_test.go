package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileGrid(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"small grid", 3, 3},
		{"rectangular grid", 10, 4},
		{"minimum grid", 1, 1},
		{"degenerate grid", 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewTileGrid(tt.width, tt.height)

			assert.Equal(t, tt.width, g.W)
			assert.Equal(t, tt.height, g.H)
			assert.Len(t, g.T, tt.width*tt.height)
			for i, tile := range g.T {
				assert.Equal(t, EmptyTile, tile, "cell %d should be empty", i)
			}
		})
	}
}

func TestWrapTileGrid(t *testing.T) {
	buf := []int{0, 1, 2, 3, 4, 5}

	g, err := WrapTileGrid(3, 2, buf)
	require.NoError(t, err)
	g.Set(0, 0, 9)
	assert.Equal(t, 9, buf[0], "wrapped grid must share the caller's buffer")

	_, err = WrapTileGrid(4, 2, buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBufferSize))
	assert.Equal(t, "grid 4x2 (buffer 6): buffer length does not match grid dimensions", err.Error())
}

func TestTileGrid_GetSet(t *testing.T) {
	g := NewTileGrid(3, 3)

	_, ok := g.Get(1, 1)
	assert.False(t, ok, "empty cell reports not present")

	assert.True(t, g.Set(1, 1, 4))
	tile, ok := g.Get(1, 1)
	assert.True(t, ok)
	assert.Equal(t, 4, tile)

	assert.False(t, g.Set(3, 0, 1), "out of range set is ignored")
	assert.False(t, g.Set(-1, 0, 1))
	_, ok = g.Get(-1, 0)
	assert.False(t, ok)

	g.Set(1, 1, -7)
	tile, ok = g.At(NewCoordinate(1, 1))
	assert.False(t, ok, "negative tiles normalise to empty")
	assert.Equal(t, EmptyTile, tile)
}

func TestTileGrid_CloneEqual(t *testing.T) {
	g := NewTileGrid(2, 2)
	g.Set(0, 0, 1)

	c := g.Clone()
	assert.True(t, g.Equal(c))

	c.Set(1, 1, 2)
	assert.False(t, g.Equal(c))
	assert.False(t, g.Equal(nil))
	assert.False(t, g.Equal(NewTileGrid(1, 4)))
}

func TestTileGrid_String(t *testing.T) {
	g := NewTileGrid(2, 1)
	g.Set(1, 0, 12)
	assert.Equal(t, "  .  12\n", g.String())
}

func TestCoordinateSet_Sorted(t *testing.T) {
	s := CoordinateSet{}
	s.Add(NewCoordinate(2, 1))
	s.Add(NewCoordinate(0, 1))
	s.Add(NewCoordinate(5, 0))
	s.Add(NewCoordinate(0, 1))

	assert.True(t, s.Has(NewCoordinate(5, 0)))
	assert.Equal(t, []Coordinate{{5, 0}, {0, 1}, {2, 1}}, s.Sorted())
}

func TestWrapErrors(t *testing.T) {
	assert.Nil(t, WrapCellError(NewCoordinate(1, 2), "paint", nil))
	assert.Nil(t, WrapTerrainError("Ground", 1, nil))

	err := WrapCellError(NewCoordinate(1, 2), "paint", ErrNoCandidate)
	assert.Equal(t, "cell (1,2) paint: no tile satisfies the constraints", err.Error())
	assert.True(t, errors.Is(err, ErrNoCandidate))

	err = WrapTerrainError("Ground", 3, ErrUnknownTerrain)
	assert.Equal(t, `terrain set "Ground" terrain 3: unknown terrain`, err.Error())

	err = WrapTerrainError("Ground", -1, ErrNilTerrainSet)
	assert.Equal(t, `terrain set "Ground": terrain set is nil`, err.Error())
}
