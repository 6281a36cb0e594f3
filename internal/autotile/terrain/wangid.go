package terrain

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

// TerrainID is the positional index of a terrain within its set
type TerrainID int

// NoTerrain marks an unset slot. It matches any terrain.
const NoTerrain TerrainID = -1

// IsSet reports whether the id names a concrete terrain
func (id TerrainID) IsSet() bool { return id >= 0 }

// SlotMask selects a subset of the eight Wang id slots, bit i = core.Direction(i)
type SlotMask uint8

const (
	CornerSlots SlotMask = 1<<core.NorthEast | 1<<core.SouthEast | 1<<core.SouthWest | 1<<core.NorthWest
	EdgeSlots   SlotMask = 1<<core.North | 1<<core.East | 1<<core.South | 1<<core.West
	AllSlots    SlotMask = CornerSlots | EdgeSlots
)

// Has reports whether the slot for direction d is selected
func (m SlotMask) Has(d core.Direction) bool {
	return d >= 0 && d < core.DirectionCount && m&(1<<uint(d)) != 0
}

// With returns the mask with slot d selected
func (m SlotMask) With(d core.Direction) SlotMask { return m | 1<<uint(d) }

// Count returns the number of selected slots
func (m SlotMask) Count() int {
	n := 0
	for d := core.North; d < core.DirectionCount; d++ {
		if m.Has(d) {
			n++
		}
	}
	return n
}

// WangId is the eight-direction terrain signature of a tile or cell,
// indexed by core.Direction (N, NE, E, SE, S, SW, W, NW).
type WangId [core.DirectionCount]TerrainID

// EmptyWangId returns a signature with every slot unset
func EmptyWangId() WangId {
	var w WangId
	for i := range w {
		w[i] = NoTerrain
	}
	return w
}

// UniformWangId returns a signature with the masked slots set to t and the rest unset
func UniformWangId(t TerrainID, mask SlotMask) WangId {
	w := EmptyWangId()
	for d := core.North; d < core.DirectionCount; d++ {
		if mask.Has(d) {
			w[d] = t
		}
	}
	return w
}

// Get returns the terrain at direction d
func (w WangId) Get(d core.Direction) TerrainID {
	if d < 0 || d >= core.DirectionCount {
		return NoTerrain
	}
	return w[d]
}

// With returns a copy with slot d set to t
func (w WangId) With(d core.Direction, t TerrainID) WangId {
	if d >= 0 && d < core.DirectionCount {
		w[d] = t
	}
	return w
}

// Masked returns a copy with every slot outside mask unset
func (w WangId) Masked(mask SlotMask) WangId {
	for d := core.North; d < core.DirectionCount; d++ {
		if !mask.Has(d) {
			w[d] = NoTerrain
		}
	}
	return w
}

// Known returns the mask of slots holding a concrete terrain
func (w WangId) Known() SlotMask {
	var m SlotMask
	for d := core.North; d < core.DirectionCount; d++ {
		if w[d].IsSet() {
			m = m.With(d)
		}
	}
	return m
}

// Wildcards counts unset slots within mask
func (w WangId) Wildcards(mask SlotMask) int {
	return mask.Count() - (w.Known() & mask).Count()
}

// Matches reports whether w and other agree on every masked slot.
// An unset slot on either side never mismatches.
func (w WangId) Matches(other WangId, mask SlotMask) bool {
	for d := core.North; d < core.DirectionCount; d++ {
		if !mask.Has(d) {
			continue
		}
		if w[d].IsSet() && other[d].IsSet() && w[d] != other[d] {
			return false
		}
	}
	return true
}

// HasTerrain reports whether any masked slot holds t
func (w WangId) HasTerrain(t TerrainID, mask SlotMask) bool {
	for d := core.North; d < core.DirectionCount; d++ {
		if mask.Has(d) && w[d] == t {
			return true
		}
	}
	return false
}

// ToTiled converts to the Tiled "wangid" array form: 0 is unset, color ids start at 1
func (w WangId) ToTiled() [core.DirectionCount]int {
	var out [core.DirectionCount]int
	for i, t := range w {
		if t.IsSet() {
			out[i] = int(t) + 1
		}
	}
	return out
}

// WangIdFromTiled converts a Tiled "wangid" array back to a WangId
func WangIdFromTiled(ids [core.DirectionCount]int) WangId {
	w := EmptyWangId()
	for i, v := range ids {
		if v > 0 {
			w[i] = TerrainID(v - 1)
		}
	}
	return w
}

func (w WangId) String() string {
	parts := make([]string, core.DirectionCount)
	for d := core.North; d < core.DirectionCount; d++ {
		if w[d].IsSet() {
			parts[d] = fmt.Sprintf("%s=%d", d, w[d])
		} else {
			parts[d] = fmt.Sprintf("%s=*", d)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
