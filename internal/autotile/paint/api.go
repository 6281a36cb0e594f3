package paint

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/wang"
)

// UpdateTileWithNeighbors re-picks the tile at (x, y) so it agrees with the
// tiles currently around it, keeping its own terrain where neighbours say
// nothing. Empty cells and tiles outside the set are left alone, as are
// cells whose neighbours disagree. Reports whether the cell changed.
func (p *Painter) UpdateTileWithNeighbors(g *core.TileGrid, x, y int, rng wang.Rand) (Change, bool, error) {
	if err := p.validate(g, PaintTarget{}); err != nil {
		return Change{}, false, err
	}
	c := core.NewCoordinate(x, y)
	current, ok := g.At(c)
	if !ok {
		return Change{}, false, nil
	}
	own, inSet := p.matcher.Signature(current)
	if !inSet {
		return Change{}, false, nil
	}

	around, conflicts := p.matcher.NeighborSignature(g, c, nil)
	if conflicts != 0 {
		p.logger.Debug().Str("cell", c.String()).Msg("Neighbours disagree, tile left unchanged")
		return Change{}, false, nil
	}
	if own.Matches(around, p.matcher.Active()) {
		return Change{}, false, nil
	}

	cons := wang.NewConstraint()
	cons.Current = current
	cons.Hard = around
	cons.Soft = own
	cand, ok := p.matcher.Best(cons, rng)
	if !ok || cand.Tile == current {
		return Change{}, false, nil
	}
	g.Set(x, y, cand.Tile)
	return Change{Coord: c, Previous: current, Tile: cand.Tile, Correction: true}, true, nil
}

// FillRegion paints terrain t over every listed cell. It is idempotent on a
// consistent neighbourhood, which the automap engine relies on.
func (p *Painter) FillRegion(g *core.TileGrid, cells []core.Coordinate, t terrain.TerrainID, rng wang.Rand) (Result, error) {
	return p.Paint(g, CellsTarget(cells, t), rng)
}

// The functions below are the entry points used by the editor and the
// automap engine. Each builds a Painter with DefaultOptions; callers painting
// repeatedly with one set should keep their own Painter.

// PaintTerrain paints terrain t over the whole cell (x, y)
func PaintTerrain(g *core.TileGrid, set *terrain.TerrainSet, x, y int, t terrain.TerrainID, rng wang.Rand) (Result, error) {
	return PaintTerrainAtTarget(g, set, CellTarget(x, y, t), rng)
}

// PaintTerrainAtTarget paints an arbitrary target
func PaintTerrainAtTarget(g *core.TileGrid, set *terrain.TerrainSet, target PaintTarget, rng wang.Rand) (Result, error) {
	p, err := NewPainter(set, DefaultOptions())
	if err != nil {
		return Result{}, err
	}
	return p.Paint(g, target, rng)
}

// PaintTerrainHorizontalEdge paints the top side of cell (x, y)
func PaintTerrainHorizontalEdge(g *core.TileGrid, set *terrain.TerrainSet, x, y int, t terrain.TerrainID, rng wang.Rand) (Result, error) {
	return PaintTerrainAtTarget(g, set, HorizontalEdgeTarget(x, y, t), rng)
}

// PaintTerrainVerticalEdge paints the left side of cell (x, y)
func PaintTerrainVerticalEdge(g *core.TileGrid, set *terrain.TerrainSet, x, y int, t terrain.TerrainID, rng wang.Rand) (Result, error) {
	return PaintTerrainAtTarget(g, set, VerticalEdgeTarget(x, y, t), rng)
}

// PreviewTerrainAtTarget reports what PaintTerrainAtTarget would change
// without mutating the grid
func PreviewTerrainAtTarget(g *core.TileGrid, set *terrain.TerrainSet, target PaintTarget, rng wang.Rand) (Result, error) {
	p, err := NewPainter(set, DefaultOptions())
	if err != nil {
		return Result{}, err
	}
	return p.Preview(g, target, rng)
}

// UpdateTileWithNeighbors re-picks one tile against its current neighbours
func UpdateTileWithNeighbors(g *core.TileGrid, set *terrain.TerrainSet, x, y int, rng wang.Rand) (bool, error) {
	p, err := NewPainter(set, DefaultOptions())
	if err != nil {
		return false, err
	}
	_, changed, err := p.UpdateTileWithNeighbors(g, x, y, rng)
	return changed, err
}

// FillRegion paints terrain t over every listed cell
func FillRegion(g *core.TileGrid, set *terrain.TerrainSet, cells []core.Coordinate, t terrain.TerrainID, rng wang.Rand) (Result, error) {
	p, err := NewPainter(set, DefaultOptions())
	if err != nil {
		return Result{}, err
	}
	return p.FillRegion(g, cells, t, rng)
}
