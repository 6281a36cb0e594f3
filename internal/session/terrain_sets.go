package session

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/events"
)

// AddTerrainSet registers a terrain set, replacing one with the same name
func (s *Session) AddTerrainSet(ts *terrain.TerrainSet) error {
	if ts == nil {
		return core.ErrNilTerrainSet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[ts.Name] = ts
	delete(s.painters, ts.Name)
	return nil
}

// TerrainSet returns a copy of a registered terrain set
func (s *Session) TerrainSet(name string) (*terrain.TerrainSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, err := s.terrainSet(name)
	if err != nil {
		return nil, err
	}
	return ts.Clone(), nil
}

// TerrainSets returns copies of every terrain set ordered by name
func (s *Session) TerrainSets() []*terrain.TerrainSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*terrain.TerrainSet, 0, len(s.sets))
	for _, ts := range s.sets {
		out = append(out, ts.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Session) terrainSet(name string) (*terrain.TerrainSet, error) {
	ts, ok := s.sets[name]
	if !ok {
		return nil, core.WrapTerrainError(name, -1, core.ErrUnknownTerrainSet)
	}
	return ts, nil
}

// editSet runs fn on a set under the lock, drops its cached painter and
// publishes the change when fn reports success
func (s *Session) editSet(name string, change events.TerrainSetChange, fn func(*terrain.TerrainSet) (terrain.TerrainID, bool)) (terrain.TerrainID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, err := s.terrainSet(name)
	if err != nil {
		return terrain.NoTerrain, err
	}
	id, ok := fn(ts)
	if !ok {
		return terrain.NoTerrain, core.WrapTerrainError(name, int(id), core.ErrUnknownTerrain)
	}
	delete(s.painters, name)
	s.logger.Debug().Str("terrain_set", name).Str("change", string(change)).Int("terrain", int(id)).Msg("Terrain set edited")
	s.publish(events.NewTerrainSetChangedEvent(s.id, name, change, int(id)))
	return id, nil
}

// AddTerrain appends a terrain to a set and returns its id
func (s *Session) AddTerrain(set, name, color string) (terrain.TerrainID, error) {
	return s.editSet(set, events.TerrainAdded, func(ts *terrain.TerrainSet) (terrain.TerrainID, bool) {
		return ts.AddTerrain(name, color), true
	})
}

// RemoveTerrain deletes a terrain; tile references are cleared or shifted
func (s *Session) RemoveTerrain(set string, id terrain.TerrainID) error {
	_, err := s.editSet(set, events.TerrainRemoved, func(ts *terrain.TerrainSet) (terrain.TerrainID, bool) {
		return id, ts.RemoveTerrain(id)
	})
	return err
}

// MoveTerrain reorders a terrain; tile references follow it
func (s *Session) MoveTerrain(set string, from, to terrain.TerrainID) error {
	_, err := s.editSet(set, events.TerrainMoved, func(ts *terrain.TerrainSet) (terrain.TerrainID, bool) {
		return to, ts.MoveTerrain(from, to)
	})
	return err
}

// SetTileWangId assigns the terrain signature of a tile
func (s *Session) SetTileWangId(set string, tile int, w terrain.WangId) error {
	_, err := s.editSet(set, events.TileAssigned, func(ts *terrain.TerrainSet) (terrain.TerrainID, bool) {
		if !ts.SetTileWangId(tile, w) {
			return terrain.NoTerrain, false
		}
		return terrain.NoTerrain, true
	})
	if err != nil {
		return fmt.Errorf("tile %d: %w", tile, err)
	}
	return nil
}

// snapshot is the YAML document written by SaveTerrainSets
type snapshot struct {
	Session     string                `yaml:"session"`
	TerrainSets []*terrain.TerrainSet `yaml:"terrain_sets"`
}

// SaveTerrainSets writes every terrain set as YAML
func (s *Session) SaveTerrainSets(w io.Writer) error {
	doc := snapshot{Session: s.id, TerrainSets: s.TerrainSets()}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("session: encode terrain sets: %w", err)
	}
	return enc.Close()
}

// LoadTerrainSets reads terrain sets written by SaveTerrainSets and
// registers them, replacing sets with the same names. Nothing is registered
// unless every set validates.
func (s *Session) LoadTerrainSets(r io.Reader) (int, error) {
	var doc snapshot
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("session: decode terrain sets: %w", err)
	}
	for _, ts := range doc.TerrainSets {
		if ts == nil {
			return 0, core.ErrNilTerrainSet
		}
		if ts.Tiles == nil {
			ts.Tiles = make(map[int]terrain.TileTerrainData)
		}
		if err := ts.Validate(); err != nil {
			return 0, fmt.Errorf("session: load terrain sets: %w", err)
		}
	}
	for _, ts := range doc.TerrainSets {
		if err := s.AddTerrainSet(ts); err != nil {
			return 0, err
		}
	}
	s.logger.Info().Int("terrain_sets", len(doc.TerrainSets)).Msg("Terrain sets loaded")
	return len(doc.TerrainSets), nil
}
