package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/paint"
	"github.com/mitchelldurbincs/terrainfill/internal/testutil"
	"github.com/mitchelldurbincs/terrainfill/internal/tiled"
)

func uniform(n int, gid uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = gid
	}
	return out
}

// writeLevel writes a 3x3 map with an all-grass "ground" layer and an
// empty "walls" layer, plus its external tileset
func writeLevel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	ts := &tiled.Tileset{Name: "overworld", TileWidth: 16, TileHeight: 16, TileCount: 200, Columns: 20}
	require.NoError(t, ts.PutTerrainSet(testutil.TransitionCornerSet()))
	require.NoError(t, tiled.SaveTileset(filepath.Join(dir, "overworld.tsj"), ts))

	ground := tiled.Layer{ID: 1, Name: "ground", Type: "tilelayer", Width: 3, Height: 3, Visible: true, Opacity: 1}
	require.NoError(t, ground.SetGIDs(uniform(9, 1)))
	walls := tiled.Layer{ID: 2, Name: "walls", Type: "tilelayer", Width: 3, Height: 3, Visible: true, Opacity: 1}
	require.NoError(t, walls.SetGIDs(uniform(9, 0)))

	m := &tiled.Map{
		Orientation: "orthogonal",
		Width:       3,
		Height:      3,
		TileWidth:   16,
		TileHeight:  16,
		Layers:      []tiled.Layer{ground, walls},
		Tilesets:    []tiled.Tileset{{FirstGID: 1, Source: "overworld.tsj"}},
	}
	path := filepath.Join(dir, "level.tmj")
	require.NoError(t, tiled.SaveMap(path, m))
	return path
}

func layerGIDs(t *testing.T, path, layer string) []uint32 {
	t.Helper()
	m, err := tiled.LoadMap(path)
	require.NoError(t, err)
	l, err := m.Layer(layer)
	require.NoError(t, err)
	gids, err := l.GIDs()
	require.NoError(t, err)
	return gids
}

func TestRunPaint(t *testing.T) {
	path := writeLevel(t)
	out := filepath.Join(filepath.Dir(path), "painted.tmj")

	err := runPaint(context.Background(), []string{
		"-map", path, "-out", out, "-layer", "ground",
		"-wangset", "Ground", "-terrain", "Dirt", "-x", "1", "-y", "1", "-seed", "1",
	})
	require.NoError(t, err)

	// local tile ids plus firstgid
	assert.Equal(t, []uint32{3, 7, 5, 4, 16, 13, 2, 10, 9}, layerGIDs(t, out, "ground"))
	assert.Equal(t, uniform(9, 1), layerGIDs(t, path, "ground"), "input map is untouched when -out is set")
}

func TestLoadReportsChanges(t *testing.T) {
	path := writeLevel(t)

	lv, err := load(context.Background(), &mapFlags{mapPath: path, layer: "ground", seed: 1}, "")
	require.NoError(t, err)

	_, err = lv.session.Paint("ground", "Ground", paint.CellTarget(1, 1, testutil.Dirt))
	require.NoError(t, err)
	_, err = lv.session.Preview("ground", "Ground", paint.CellTarget(0, 0, testutil.Dirt))
	require.NoError(t, err)
	_, err = lv.session.Paint("ground", "Ground", paint.CellTarget(1, 1, testutil.Dirt))
	require.NoError(t, err)

	assert.Equal(t, 2, lv.report.operations, "previews are not reported")
	assert.Equal(t, 9, lv.report.changed(), "cells are counted once")
	assert.Zero(t, lv.report.unresolved)
}

func TestLoadRejectsDanglingSnapshot(t *testing.T) {
	path := writeLevel(t)
	snap := filepath.Join(filepath.Dir(path), "terrains.yaml")
	require.NoError(t, os.WriteFile(snap, []byte(`
terrain_sets:
  - name: Ground
    type: corner
    terrains:
      - name: Grass
    tiles:
      3:
        corners: [7, 7, 7, 7]
        edges: [-1, -1, -1, -1]
`), 0o644))

	err := runPaint(context.Background(), []string{
		"-map", path, "-layer", "ground", "-terrains", snap, "-wangset", "Ground", "-terrain", "Grass",
	})
	assert.ErrorIs(t, err, core.ErrUnknownTerrain)
}

func TestRunPaintErrors(t *testing.T) {
	path := writeLevel(t)

	testCases := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"Unknown terrain", []string{"-map", path, "-layer", "ground", "-wangset", "Ground", "-terrain", "Lava"}, core.ErrUnknownTerrain},
		{"Unknown wang set", []string{"-map", path, "-layer", "ground", "-wangset", "Water", "-terrain", "Dirt"}, core.ErrUnknownTerrainSet},
		{"Unknown target", []string{"-map", path, "-layer", "ground", "-wangset", "Ground", "-terrain", "Dirt", "-target", "blob"}, core.ErrInvalidTarget},
		{"Unknown layer", []string{"-map", path, "-layer", "sky", "-wangset", "Ground", "-terrain", "Dirt"}, tiled.ErrLayerNotFound},
		{"Missing map", []string{"-map", filepath.Join(t.TempDir(), "none.tmj"), "-layer", "ground", "-wangset", "Ground", "-terrain", "Dirt"}, os.ErrNotExist},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := runPaint(context.Background(), tc.args)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	assert.Error(t, runPaint(context.Background(), []string{"-layer", "ground"}), "missing -map")
}

func TestRunPreviewWritesNothing(t *testing.T) {
	path := writeLevel(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = runPreview(context.Background(), []string{
		"-map", path, "-layer", "ground", "-wangset", "Ground", "-terrain", "Dirt", "-target", "vertex", "-x", "1", "-y", "1",
	})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRunBlob(t *testing.T) {
	path := writeLevel(t)

	require.NoError(t, runBlob(context.Background(), []string{"-map", path, "-layer", "walls", "-base", "100", "-x", "1", "-y", "1"}))
	gids := layerGIDs(t, path, "walls")
	// an isolated cell is variant 24
	assert.Equal(t, uint32(1+100+24), gids[4])

	require.NoError(t, runBlob(context.Background(), []string{"-map", path, "-layer", "walls", "-base", "100", "-x", "1", "-y", "1", "-erase"}))
	assert.Equal(t, uniform(9, 0), layerGIDs(t, path, "walls"))
}

func TestRunAutomap(t *testing.T) {
	path := writeLevel(t)
	rules := filepath.Join(filepath.Dir(path), "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte(`
name: flood
mode: until_stable
rules:
  - name: grass-to-dirt
    match:
      - tiles: [0]
    output:
      terrain:
        set: Ground
        terrain: Dirt
`), 0o644))

	require.NoError(t, runAutomap(context.Background(), []string{"-map", path, "-layer", "ground", "-rules", rules, "-mode", "once"}))
	assert.Equal(t, uniform(9, 16), layerGIDs(t, path, "ground"))

	err := runAutomap(context.Background(), []string{"-map", path, "-layer", "ground"})
	assert.Error(t, err, "missing -rules")
}
