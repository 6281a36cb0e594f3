package tiled

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadMap reads a JSON map and resolves its external tilesets relative to
// the map's directory
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tiled: read map: %w", err)
	}
	m, err := ParseMap(data)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for i := range m.Tilesets {
		if err := m.Tilesets[i].Resolve(dir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ParseMap decodes a JSON map without resolving external tilesets
func ParseMap(data []byte) (*Map, error) {
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("tiled: unmarshal map: %w", err)
	}
	return &m, nil
}

// SaveMap writes m as indented JSON. External tilesets are written as
// references; use SaveTileset to persist their content.
func SaveMap(path string, m *Map) error {
	out := *m
	out.Tilesets = make([]Tileset, len(m.Tilesets))
	for i, ts := range m.Tilesets {
		if ts.Source != "" {
			ts = Tileset{FirstGID: ts.FirstGID, Source: ts.Source}
		}
		out.Tilesets[i] = ts
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("tiled: marshal map: %w", err)
	}
	return writeFile(path, data)
}

// LoadTileset reads a standalone JSON tileset
func LoadTileset(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tiled: read tileset: %w", err)
	}
	var ts Tileset
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("tiled: unmarshal tileset %s: %w", path, err)
	}
	return &ts, nil
}

// SaveTileset writes a standalone JSON tileset. Map-only fields are omitted.
func SaveTileset(path string, ts *Tileset) error {
	out := *ts
	out.FirstGID = 0
	out.Source = ""
	if out.Type == "" {
		out.Type = "tileset"
	}
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("tiled: marshal tileset: %w", err)
	}
	return writeFile(path, data)
}

// Resolve loads the content of an external tileset reference, keeping its
// FirstGID and Source. Embedded tilesets are left as they are.
func (ts *Tileset) Resolve(dir string) error {
	if ts.Source == "" {
		return nil
	}
	path := ts.Source
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	ext, err := LoadTileset(path)
	if err != nil {
		return err
	}
	firstGID, source := ts.FirstGID, ts.Source
	*ts = *ext
	ts.FirstGID = firstGID
	ts.Source = source
	return nil
}

// writeFile replaces path atomically via a temp file in the same directory
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("tiled: write %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("tiled: write %s: %w", path, err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("tiled: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tiled: write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("tiled: write %s: %w", path, err)
	}
	return nil
}
