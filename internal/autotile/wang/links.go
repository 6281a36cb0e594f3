package wang

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
)

// link says that slot From of a cell and slot To of the neighbour in
// direction Dir describe the same edge or corner of the map.
type link struct {
	From core.Direction
	Dir  core.Direction
	To   core.Direction
}

// links lists every shared slot between a cell and its eight neighbours.
// A side is shared with one neighbour; a corner with three.
var links = buildLinks()

// slotLinks indexes links by the owning slot
var slotLinks = indexLinks(links)

func buildLinks() []link {
	var out []link
	for s := core.North; s < core.DirectionCount; s++ {
		if !s.IsCorner() {
			out = append(out, link{From: s, Dir: s, To: s.Opposite()})
			continue
		}
		// The corner toward s is also touched by the side neighbours on either
		// side of it, each seeing it as the corner one quarter turn away.
		out = append(out,
			link{From: s, Dir: s.Rotate(-1), To: s.Rotate(2)},
			link{From: s, Dir: s, To: s.Opposite()},
			link{From: s, Dir: s.Rotate(1), To: s.Rotate(-2)},
		)
	}
	return out
}

func indexLinks(ls []link) [core.DirectionCount][]link {
	var idx [core.DirectionCount][]link
	for _, l := range ls {
		idx[l.From] = append(idx[l.From], l)
	}
	return idx
}

// Requirement is a set of slot values a neighbour must carry
type Requirement struct {
	Neighbor core.Coordinate
	Slot     core.Direction
	Terrain  terrain.TerrainID
}

// Propagate lists the slot values the neighbours of c must carry once a tile
// with signature w sits at c. Only slots in active are considered.
func Propagate(c core.Coordinate, w terrain.WangId, active terrain.SlotMask) []Requirement {
	var out []Requirement
	for _, l := range links {
		if !active.Has(l.From) || !w[l.From].IsSet() {
			continue
		}
		out = append(out, Requirement{
			Neighbor: c.Move(l.Dir),
			Slot:     l.To,
			Terrain:  w[l.From],
		})
	}
	return out
}
