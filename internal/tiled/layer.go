package tiled

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

// GID flag bits
const (
	FlipHorizontal uint32 = 1 << 31
	FlipVertical   uint32 = 1 << 30
	FlipDiagonal   uint32 = 1 << 29
	RotateHex120   uint32 = 1 << 28

	gidMask = ^(FlipHorizontal | FlipVertical | FlipDiagonal | RotateHex120)
)

// LayerGrid is a tile layer decoded against one tileset. Cells holding
// tiles of another tileset read as core.EmptyTile and keep their original
// GID on Encode unless overwritten.
type LayerGrid struct {
	*core.TileGrid
	FirstGID  int
	TileCount int

	raw     []uint32
	decoded []int
}

// Layer returns the named tile layer, searching group layers depth first
func (m *Map) Layer(name string) (*Layer, error) {
	if l := findLayer(m.Layers, name); l != nil {
		if l.Type != "tilelayer" {
			return nil, fmt.Errorf("%w: %q is %s", ErrNotTileLayer, name, l.Type)
		}
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, name)
}

func findLayer(layers []Layer, name string) *Layer {
	for i := range layers {
		if layers[i].Name == name {
			return &layers[i]
		}
		if l := findLayer(layers[i].Layers, name); l != nil {
			return l
		}
	}
	return nil
}

// GIDs decodes the layer data to raw GIDs, flag bits included
func (l *Layer) GIDs() ([]uint32, error) {
	if l.Type != "tilelayer" {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotTileLayer, l.Name, l.Type)
	}
	if l.Compression != "" {
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedEncoding, l.Compression)
	}

	var gids []uint32
	switch l.Encoding {
	case "", "csv":
		if err := json.Unmarshal(l.Data, &gids); err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
	case "base64":
		var s string
		if err := json.Unmarshal(l.Data, &s); err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
		if len(b)%4 != 0 {
			return nil, fmt.Errorf("layer %s: %d bytes: %w", l.Name, len(b), core.ErrBufferSize)
		}
		gids = make([]uint32, len(b)/4)
		if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, gids); err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, l.Encoding)
	}

	if len(gids) != l.Width*l.Height {
		return nil, fmt.Errorf("layer %s: %w", l.Name, core.WrapGridError(l.Width, l.Height, len(gids), core.ErrBufferSize))
	}
	return gids, nil
}

// SetGIDs stores raw GIDs in the layer's current encoding
func (l *Layer) SetGIDs(gids []uint32) error {
	if len(gids) != l.Width*l.Height {
		return core.WrapGridError(l.Width, l.Height, len(gids), core.ErrBufferSize)
	}
	if l.Compression != "" {
		return fmt.Errorf("%w: compression %q", ErrUnsupportedEncoding, l.Compression)
	}

	var data []byte
	var err error
	switch l.Encoding {
	case "", "csv":
		data, err = json.Marshal(gids)
	case "base64":
		var buf bytes.Buffer
		if err = binary.Write(&buf, binary.LittleEndian, gids); err != nil {
			return err
		}
		data, err = json.Marshal(base64.StdEncoding.EncodeToString(buf.Bytes()))
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, l.Encoding)
	}
	if err != nil {
		return err
	}
	l.Data = data
	return nil
}

// DecodeLayer reads a tile layer as local tile ids of the tileset starting
// at firstGID. Flip flags are dropped from the grid but kept for cells that
// are not rewritten.
func DecodeLayer(l *Layer, firstGID, tileCount int) (*LayerGrid, error) {
	gids, err := l.GIDs()
	if err != nil {
		return nil, err
	}
	g := core.NewTileGrid(l.Width, l.Height)
	for i, gid := range gids {
		g.T[i] = localTile(gid, firstGID, tileCount)
	}
	return &LayerGrid{
		TileGrid:  g,
		FirstGID:  firstGID,
		TileCount: tileCount,
		raw:       gids,
		decoded:   append([]int(nil), g.T...),
	}, nil
}

func localTile(gid uint32, firstGID, tileCount int) int {
	id := int(gid & gidMask)
	if id == 0 || id < firstGID || (tileCount > 0 && id >= firstGID+tileCount) {
		return core.EmptyTile
	}
	return id - firstGID
}

// GIDs encodes the grid back to raw GIDs
func (lg *LayerGrid) GIDs() []uint32 {
	out := make([]uint32, len(lg.T))
	for i, t := range lg.T {
		switch {
		case i < len(lg.decoded) && t == lg.decoded[i]:
			out[i] = lg.raw[i]
		case t == core.EmptyTile:
			out[i] = 0
		default:
			out[i] = uint32(lg.FirstGID + t)
		}
	}
	return out
}

// Encode writes the grid into l
func (lg *LayerGrid) Encode(l *Layer) error {
	if l.Width != lg.W || l.Height != lg.H {
		return core.WrapGridError(l.Width, l.Height, len(lg.T), core.ErrBufferSize)
	}
	return l.SetGIDs(lg.GIDs())
}

// DecodeTileLayer finds the named layer and decodes it against the named
// tileset of the map
func (m *Map) DecodeTileLayer(layer, tileset string) (*LayerGrid, error) {
	l, err := m.Layer(layer)
	if err != nil {
		return nil, err
	}
	ts, err := m.Tileset(tileset)
	if err != nil {
		return nil, err
	}
	return DecodeLayer(l, ts.FirstGID, m.TileRange(ts))
}

// TileRange returns how many GIDs from ts.FirstGID belong to ts. Without a
// tilecount the range ends at the next tileset's firstgid; 0 means unbounded.
func (m *Map) TileRange(ts *Tileset) int {
	if ts.TileCount > 0 {
		return ts.TileCount
	}
	next := 0
	for i := range m.Tilesets {
		first := m.Tilesets[i].FirstGID
		if first > ts.FirstGID && (next == 0 || first < next) {
			next = first
		}
	}
	if next == 0 {
		return 0
	}
	return next - ts.FirstGID
}

// Tileset returns the named tileset of the map
func (m *Map) Tileset(name string) (*Tileset, error) {
	for i := range m.Tilesets {
		if m.Tilesets[i].Name == name {
			return &m.Tilesets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTilesetNotFound, name)
}
