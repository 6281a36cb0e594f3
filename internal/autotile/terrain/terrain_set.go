package terrain

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

// TerrainSet is a named collection of terrains plus the per-tile terrain
// assignments of one tileset. Terrain identity is positional: removing or
// moving a terrain rewrites every tile reference to keep them consistent.
//
// Lookups and mutations with an out-of-range tile or terrain are no-ops
// reporting false, so partially authored sets are always usable.
type TerrainSet struct {
	ID        string                  `yaml:"id"`
	Name      string                  `yaml:"name"`
	TilesetID string                  `yaml:"tileset"`
	Type      TerrainSetType          `yaml:"type"`
	Terrains  []Terrain               `yaml:"terrains"`
	Tiles     map[int]TileTerrainData `yaml:"tiles"`
	// TileCount bounds valid tile indices; 0 leaves them unbounded
	TileCount int `yaml:"tile_count,omitempty"`
}

// NewTerrainSet creates an empty terrain set for a tileset
func NewTerrainSet(name, tilesetID string, typ TerrainSetType) *TerrainSet {
	return &TerrainSet{
		ID:        uuid.New().String(),
		Name:      name,
		TilesetID: tilesetID,
		Type:      typ,
		Tiles:     make(map[int]TileTerrainData),
	}
}

// ActiveSlots returns the Wang id slots used by this set's type
func (s *TerrainSet) ActiveSlots() SlotMask {
	return s.Type.ActiveSlots()
}

// HasTerrain reports whether id names a terrain of this set
func (s *TerrainSet) HasTerrain(id TerrainID) bool {
	return id >= 0 && int(id) < len(s.Terrains)
}

// Terrain returns the terrain with the given id
func (s *TerrainSet) Terrain(id TerrainID) (Terrain, bool) {
	if !s.HasTerrain(id) {
		return Terrain{}, false
	}
	return s.Terrains[id], true
}

// TerrainByName returns the id of the first terrain with the given name
func (s *TerrainSet) TerrainByName(name string) (TerrainID, bool) {
	for i, t := range s.Terrains {
		if t.Name == name {
			return TerrainID(i), true
		}
	}
	return NoTerrain, false
}

// AddTerrain appends a terrain and returns its id
func (s *TerrainSet) AddTerrain(name, color string) TerrainID {
	s.Terrains = append(s.Terrains, Terrain{Name: name, Color: color, Tile: core.EmptyTile})
	return TerrainID(len(s.Terrains) - 1)
}

// UpdateTerrain replaces the name, color and representative tile of a terrain
func (s *TerrainSet) UpdateTerrain(id TerrainID, t Terrain) bool {
	if !s.HasTerrain(id) {
		return false
	}
	s.Terrains[id] = t
	return true
}

// RemoveTerrain deletes terrain k. Tile slots referencing k are cleared and
// slots referencing a higher id shift down by one.
func (s *TerrainSet) RemoveTerrain(k TerrainID) bool {
	if !s.HasTerrain(k) {
		return false
	}
	s.Terrains = append(s.Terrains[:k], s.Terrains[k+1:]...)
	s.remapTiles(func(t TerrainID) TerrainID {
		switch {
		case t == k:
			return NoTerrain
		case t > k:
			return t - 1
		default:
			return t
		}
	})
	return true
}

// MoveTerrain moves terrain from to position to, shifting the terrains in
// between and rewriting tile references to match.
func (s *TerrainSet) MoveTerrain(from, to TerrainID) bool {
	if !s.HasTerrain(from) || !s.HasTerrain(to) {
		return false
	}
	if from == to {
		return true
	}
	moved := s.Terrains[from]
	if from < to {
		copy(s.Terrains[from:to], s.Terrains[from+1:to+1])
	} else {
		copy(s.Terrains[to+1:from+1], s.Terrains[to:from])
	}
	s.Terrains[to] = moved

	s.remapTiles(func(t TerrainID) TerrainID {
		switch {
		case t == from:
			return to
		case from < to && t > from && t <= to:
			return t - 1
		case from > to && t >= to && t < from:
			return t + 1
		default:
			return t
		}
	})
	return true
}

func (s *TerrainSet) remapTiles(fn func(TerrainID) TerrainID) {
	for tile, data := range s.Tiles {
		data.remap(fn)
		if data.IsEmpty() {
			delete(s.Tiles, tile)
			continue
		}
		s.Tiles[tile] = data
	}
}

func (s *TerrainSet) validTile(tile int) bool {
	return tile >= 0 && (s.TileCount <= 0 || tile < s.TileCount)
}

// validAssignment accepts NoTerrain (clearing) or an existing terrain
func (s *TerrainSet) validAssignment(t TerrainID) bool {
	return t == NoTerrain || s.HasTerrain(t)
}

func (s *TerrainSet) update(tile int, fn func(*TileTerrainData)) {
	if s.Tiles == nil {
		s.Tiles = make(map[int]TileTerrainData)
	}
	data, ok := s.Tiles[tile]
	if !ok {
		data = NewTileTerrainData()
	}
	fn(&data)
	if data.IsEmpty() {
		delete(s.Tiles, tile)
		return
	}
	s.Tiles[tile] = data
}

// SetTileCorner assigns a corner of a tile; NoTerrain clears it
func (s *TerrainSet) SetTileCorner(tile int, c CornerPos, t TerrainID) bool {
	if !s.validTile(tile) || !c.valid() || !s.validAssignment(t) {
		return false
	}
	s.update(tile, func(d *TileTerrainData) { d.Corners[c] = t })
	return true
}

// SetTileEdge assigns a side of a tile; NoTerrain clears it
func (s *TerrainSet) SetTileEdge(tile int, e EdgePos, t TerrainID) bool {
	if !s.validTile(tile) || !e.valid() || !s.validAssignment(t) {
		return false
	}
	s.update(tile, func(d *TileTerrainData) { d.Edges[e] = t })
	return true
}

// SetTileWangId assigns every slot of a tile from a signature. Slots outside
// the set's active slots are dropped.
func (s *TerrainSet) SetTileWangId(tile int, w WangId) bool {
	if !s.validTile(tile) {
		return false
	}
	w = w.Masked(s.ActiveSlots())
	for _, t := range w {
		if !s.validAssignment(t) {
			return false
		}
	}
	s.update(tile, func(d *TileTerrainData) { *d = TileTerrainDataFromWangId(w) })
	return true
}

// FillTile assigns t to every active slot of a tile
func (s *TerrainSet) FillTile(tile int, t TerrainID) bool {
	if !s.HasTerrain(t) {
		return false
	}
	return s.SetTileWangId(tile, UniformWangId(t, s.ActiveSlots()))
}

// ClearTile removes all terrain data from a tile
func (s *TerrainSet) ClearTile(tile int) bool {
	if _, ok := s.Tiles[tile]; !ok {
		return false
	}
	delete(s.Tiles, tile)
	return true
}

// TileCorner returns the terrain of a tile corner
func (s *TerrainSet) TileCorner(tile int, c CornerPos) (TerrainID, bool) {
	data, ok := s.Tiles[tile]
	if !ok || !c.valid() {
		return NoTerrain, false
	}
	t := data.Corners[c]
	return t, t.IsSet()
}

// TileEdge returns the terrain of a tile side
func (s *TerrainSet) TileEdge(tile int, e EdgePos) (TerrainID, bool) {
	data, ok := s.Tiles[tile]
	if !ok || !e.valid() {
		return NoTerrain, false
	}
	t := data.Edges[e]
	return t, t.IsSet()
}

// TileData returns the raw record of a tile
func (s *TerrainSet) TileData(tile int) (TileTerrainData, bool) {
	data, ok := s.Tiles[tile]
	return data, ok
}

// TileWangId returns a tile's signature restricted to the active slots
func (s *TerrainSet) TileWangId(tile int) (WangId, bool) {
	data, ok := s.Tiles[tile]
	if !ok {
		return EmptyWangId(), false
	}
	return data.WangId().Masked(s.ActiveSlots()), true
}

// Constraints returns which active slots of a tile are set, and to what
func (s *TerrainSet) Constraints(tile int) (TileConstraints, bool) {
	w, ok := s.TileWangId(tile)
	if !ok {
		return TileConstraints{}, false
	}
	return TileConstraints{Wang: w, Active: s.ActiveSlots()}, true
}

// SetType changes the set type and clears slots the new type does not use
func (s *TerrainSet) SetType(typ TerrainSetType) {
	s.Type = typ
	active := typ.ActiveSlots()
	for tile, data := range s.Tiles {
		w := data.WangId().Masked(active)
		if w.Known() == 0 {
			delete(s.Tiles, tile)
			continue
		}
		s.Tiles[tile] = TileTerrainDataFromWangId(w)
	}
}

// Validate checks that every tile index is within TileCount and that every
// assigned slot names a terrain of the set
func (s *TerrainSet) Validate() error {
	for _, tile := range s.TileIDs() {
		if !s.validTile(tile) {
			return core.WrapTerrainError(s.Name, -1, fmt.Errorf("tile %d: %w", tile, core.ErrOutOfBounds))
		}
		for _, t := range s.Tiles[tile].WangId() {
			if t != NoTerrain && !s.HasTerrain(t) {
				return fmt.Errorf("tile %d: %w", tile, core.WrapTerrainError(s.Name, int(t), core.ErrUnknownTerrain))
			}
		}
	}
	return nil
}

// TileIDs returns every tile carrying terrain data, ascending
func (s *TerrainSet) TileIDs() []int {
	ids := make([]int, 0, len(s.Tiles))
	for id := range s.Tiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clone returns a deep copy
func (s *TerrainSet) Clone() *TerrainSet {
	c := *s
	c.Terrains = append([]Terrain(nil), s.Terrains...)
	c.Tiles = make(map[int]TileTerrainData, len(s.Tiles))
	for k, v := range s.Tiles {
		c.Tiles[k] = v
	}
	return &c
}
