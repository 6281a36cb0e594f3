package terrain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

// TerrainSetType decides which Wang id slots a set's tiles carry
type TerrainSetType int

const (
	// Corner sets constrain the four tile corners
	Corner TerrainSetType = iota
	// Edge sets constrain the four tile sides
	Edge
	// Mixed sets constrain both corners and sides
	Mixed
)

// ActiveSlots returns the Wang id slots meaningful for the set type
func (t TerrainSetType) ActiveSlots() SlotMask {
	switch t {
	case Corner:
		return CornerSlots
	case Edge:
		return EdgeSlots
	case Mixed:
		return AllSlots
	default:
		return 0
	}
}

func (t TerrainSetType) String() string {
	switch t {
	case Corner:
		return "corner"
	case Edge:
		return "edge"
	case Mixed:
		return "mixed"
	default:
		return fmt.Sprintf("TerrainSetType(%d)", int(t))
	}
}

// ParseTerrainSetType parses the names used by Tiled ("corner", "edge", "mixed")
func ParseTerrainSetType(s string) (TerrainSetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "corner":
		return Corner, nil
	case "edge":
		return Edge, nil
	case "mixed":
		return Mixed, nil
	default:
		return Corner, fmt.Errorf("unknown terrain set type %q", s)
	}
}

func (t TerrainSetType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TerrainSetType) UnmarshalText(b []byte) error {
	parsed, err := ParseTerrainSetType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Terrain is one terrain type within a set. Its id is its position in the set.
type Terrain struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
	// Tile is a representative tile for UI swatches, core.EmptyTile if none
	Tile int `yaml:"tile"`
}

// CornerPos names a tile corner
type CornerPos int

const (
	TopRight CornerPos = iota
	BottomRight
	BottomLeft
	TopLeft
)

// Direction returns the Wang id slot of the corner
func (c CornerPos) Direction() core.Direction {
	return core.Direction(2*int(c) + 1)
}

func (c CornerPos) valid() bool { return c >= TopRight && c <= TopLeft }

// EdgePos names a tile side
type EdgePos int

const (
	Top EdgePos = iota
	Right
	Bottom
	Left
)

// Direction returns the Wang id slot of the side
func (e EdgePos) Direction() core.Direction {
	return core.Direction(2 * int(e))
}

func (e EdgePos) valid() bool { return e >= Top && e <= Left }

// TileTerrainData holds the terrain assignment of one physical tile.
// Corners are ordered TopRight, BottomRight, BottomLeft, TopLeft;
// Edges are ordered Top, Right, Bottom, Left. Unset slots hold NoTerrain.
type TileTerrainData struct {
	Corners [4]TerrainID `yaml:"corners"`
	Edges   [4]TerrainID `yaml:"edges"`
}

// NewTileTerrainData returns a record with every slot unset
func NewTileTerrainData() TileTerrainData {
	return TileTerrainData{
		Corners: [4]TerrainID{NoTerrain, NoTerrain, NoTerrain, NoTerrain},
		Edges:   [4]TerrainID{NoTerrain, NoTerrain, NoTerrain, NoTerrain},
	}
}

// TileTerrainDataFromWangId spreads a signature into corner and edge slots
func TileTerrainDataFromWangId(w WangId) TileTerrainData {
	d := NewTileTerrainData()
	for i := range d.Corners {
		d.Corners[i] = w[CornerPos(i).Direction()]
	}
	for i := range d.Edges {
		d.Edges[i] = w[EdgePos(i).Direction()]
	}
	return d
}

// WangId returns the tile's full eight-slot signature
func (d TileTerrainData) WangId() WangId {
	w := EmptyWangId()
	for i, t := range d.Corners {
		w[CornerPos(i).Direction()] = t
	}
	for i, t := range d.Edges {
		w[EdgePos(i).Direction()] = t
	}
	return w
}

// IsEmpty reports whether no slot is assigned
func (d TileTerrainData) IsEmpty() bool {
	return d.WangId().Known() == 0
}

// remap rewrites every assigned slot through fn; fn returns NoTerrain to clear
func (d *TileTerrainData) remap(fn func(TerrainID) TerrainID) {
	for i, t := range d.Corners {
		if t.IsSet() {
			d.Corners[i] = fn(t)
		}
	}
	for i, t := range d.Edges {
		if t.IsSet() {
			d.Edges[i] = fn(t)
		}
	}
}

// TileConstraints describes which slots of a tile are constrained, and to what,
// restricted to the slots active for the owning set's type.
type TileConstraints struct {
	Wang   WangId
	Active SlotMask
}

// Corner returns the corner's terrain and whether it is set
func (tc TileConstraints) Corner(c CornerPos) (TerrainID, bool) {
	return tc.slot(c.Direction())
}

// Edge returns the side's terrain and whether it is set
func (tc TileConstraints) Edge(e EdgePos) (TerrainID, bool) {
	return tc.slot(e.Direction())
}

func (tc TileConstraints) slot(d core.Direction) (TerrainID, bool) {
	if !tc.Active.Has(d) {
		return NoTerrain, false
	}
	t := tc.Wang.Get(d)
	return t, t.IsSet()
}

// IsComplete reports whether every active slot is set
func (tc TileConstraints) IsComplete() bool {
	return tc.Wang.Wildcards(tc.Active) == 0
}

// Terrains returns the distinct terrains referenced, ascending
func (tc TileConstraints) Terrains() []TerrainID {
	seen := make(map[TerrainID]bool, core.DirectionCount)
	var out []TerrainID
	for d := core.North; d < core.DirectionCount; d++ {
		t, ok := tc.slot(d)
		if !ok || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
