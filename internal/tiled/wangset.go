package tiled

import (
	"fmt"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
)

// TerrainSet converts a wang set to a terrain set. tileCount bounds the
// tile ids of the owning tileset; 0 leaves them unbounded.
func (ws *WangSet) TerrainSet(tilesetName string, tileCount int) (*terrain.TerrainSet, error) {
	typ, err := terrain.ParseTerrainSetType(ws.Type)
	if err != nil {
		return nil, fmt.Errorf("wang set %s: %w", ws.Name, err)
	}

	s := terrain.NewTerrainSet(ws.Name, tilesetName, typ)
	s.TileCount = tileCount
	for _, c := range ws.Colors {
		id := s.AddTerrain(c.Name, c.Color)
		s.UpdateTerrain(id, terrain.Terrain{Name: c.Name, Color: c.Color, Tile: c.Tile})
	}

	for _, wt := range ws.WangTiles {
		if tileCount > 0 && (wt.TileID < 0 || wt.TileID >= tileCount) {
			return nil, fmt.Errorf("wang set %s: tile %d: %w", ws.Name, wt.TileID, core.ErrOutOfBounds)
		}
		for _, v := range wt.WangID {
			if v < 0 || v > len(ws.Colors) {
				return nil, core.WrapTerrainError(ws.Name, v, core.ErrUnknownTerrain)
			}
		}
		w := terrain.WangIdFromTiled(wt.WangID)
		if w.Masked(s.ActiveSlots()).Known() == 0 {
			continue
		}
		if !s.SetTileWangId(wt.TileID, w) {
			return nil, fmt.Errorf("wang set %s: tile %d: %w", ws.Name, wt.TileID, core.ErrOutOfBounds)
		}
	}
	return s, nil
}

// WangSetFromTerrainSet converts a terrain set back to a wang set. Tiles
// are written in ascending id order.
func WangSetFromTerrainSet(s *terrain.TerrainSet) (WangSet, error) {
	if s == nil {
		return WangSet{}, core.ErrNilTerrainSet
	}
	ws := WangSet{
		Name:      s.Name,
		Type:      s.Type.String(),
		Tile:      core.EmptyTile,
		Colors:    make([]WangColor, 0, len(s.Terrains)),
		WangTiles: make([]WangTile, 0, len(s.Tiles)),
	}
	for _, t := range s.Terrains {
		ws.Colors = append(ws.Colors, WangColor{
			Name:        t.Name,
			Color:       t.Color,
			Tile:        t.Tile,
			Probability: 1,
		})
	}
	for _, id := range s.TileIDs() {
		w, _ := s.TileWangId(id)
		if w.Known() == 0 {
			continue
		}
		ws.WangTiles = append(ws.WangTiles, WangTile{TileID: id, WangID: w.ToTiled()})
	}
	return ws, nil
}

// FindWangSet returns the named wang set of a tileset
func (ts *Tileset) FindWangSet(name string) (*WangSet, error) {
	for i := range ts.WangSets {
		if ts.WangSets[i].Name == name {
			return &ts.WangSets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in tileset %q", ErrWangSetNotFound, name, ts.Name)
}

// TerrainSets converts every wang set of the tileset
func (ts *Tileset) TerrainSets() ([]*terrain.TerrainSet, error) {
	out := make([]*terrain.TerrainSet, 0, len(ts.WangSets))
	for i := range ts.WangSets {
		s, err := ts.WangSets[i].TerrainSet(ts.Name, ts.TileCount)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// PutTerrainSet replaces the wang set with the terrain set's name, or
// appends it when the tileset has none by that name
func (ts *Tileset) PutTerrainSet(s *terrain.TerrainSet) error {
	ws, err := WangSetFromTerrainSet(s)
	if err != nil {
		return err
	}
	for i := range ts.WangSets {
		if ts.WangSets[i].Name == ws.Name {
			ws.Tile = ts.WangSets[i].Tile
			ws.Properties = ts.WangSets[i].Properties
			ts.WangSets[i] = ws
			return nil
		}
	}
	ts.WangSets = append(ts.WangSets, ws)
	return nil
}
