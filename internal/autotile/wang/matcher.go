// Package wang computes and compares Wang id signatures and picks the tile
// of a terrain set that best satisfies a cell's constraints.
package wang

import (
	"sort"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
)

// Rand is the caller-supplied source for breaking exact ties.
// *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Constraint is what a cell requires and prefers during a fill pass
type Constraint struct {
	// Hard slots must be matched exactly by a candidate's concrete slots
	Hard terrain.WangId
	// Soft slots only rank candidates that already satisfy Hard
	Soft terrain.WangId
	// Current is the tile already at the cell; it wins exact ties
	Current int
}

// NewConstraint returns a constraint with no requirements
func NewConstraint() Constraint {
	return Constraint{
		Hard:    terrain.EmptyWangId(),
		Soft:    terrain.EmptyWangId(),
		Current: core.EmptyTile,
	}
}

// Require sets a hard slot. It reports false, leaving the slot untouched,
// when the slot already requires a different terrain.
func (c *Constraint) Require(d core.Direction, t terrain.TerrainID) bool {
	prev := c.Hard.Get(d)
	if prev.IsSet() && prev != t {
		return false
	}
	c.Hard = c.Hard.With(d, t)
	return true
}

// Prefer sets a soft slot unless one is already set
func (c *Constraint) Prefer(d core.Direction, t terrain.TerrainID) {
	if !t.IsSet() || c.Soft.Get(d).IsSet() {
		return
	}
	c.Soft = c.Soft.With(d, t)
}

// Candidate is an eligible tile with its ranking inputs
type Candidate struct {
	Tile      int
	Wang      terrain.WangId
	Wildcards int
	SoftScore int
}

type libraryTile struct {
	tile int
	wang terrain.WangId
}

// Matcher holds the precomputed signatures of every tile in a terrain set
type Matcher struct {
	set    *terrain.TerrainSet
	active terrain.SlotMask
	tiles  []libraryTile
	byTile map[int]terrain.WangId
}

// NewMatcher indexes the tiles of a terrain set. Rebuild it after the set
// is edited.
func NewMatcher(set *terrain.TerrainSet) *Matcher {
	m := &Matcher{
		set:    set,
		active: set.ActiveSlots(),
		byTile: make(map[int]terrain.WangId, len(set.Tiles)),
	}
	for _, id := range set.TileIDs() {
		w, _ := set.TileWangId(id)
		if w.Known() == 0 {
			continue
		}
		m.tiles = append(m.tiles, libraryTile{tile: id, wang: w})
		m.byTile[id] = w
	}
	return m
}

// Set returns the indexed terrain set
func (m *Matcher) Set() *terrain.TerrainSet { return m.set }

// Active returns the slots meaningful for the set type
func (m *Matcher) Active() terrain.SlotMask { return m.active }

// Len returns the number of tiles carrying terrain data
func (m *Matcher) Len() int { return len(m.tiles) }

// Signature returns the signature of a tile, false if it has no terrain data
func (m *Matcher) Signature(tile int) (terrain.WangId, bool) {
	w, ok := m.byTile[tile]
	if !ok {
		return terrain.EmptyWangId(), false
	}
	return w, true
}

// CellSignature returns the signature of the tile placed at c.
// Empty cells, cells outside the grid and tiles without terrain data yield
// an all-wildcard signature.
func (m *Matcher) CellSignature(g *core.TileGrid, c core.Coordinate) (terrain.WangId, bool) {
	tile, ok := g.At(c)
	if !ok {
		return terrain.EmptyWangId(), false
	}
	return m.Signature(tile)
}

// NeighborSignature derives the signature cell c would need to agree with the
// tiles around it. Neighbours for which include returns false, and
// neighbours outside the grid, are wildcards. The returned mask flags slots
// where neighbours disagree; those slots are left unset.
func (m *Matcher) NeighborSignature(g *core.TileGrid, c core.Coordinate, include func(core.Coordinate) bool) (terrain.WangId, terrain.SlotMask) {
	out := terrain.EmptyWangId()
	var conflicts terrain.SlotMask
	for s := core.North; s < core.DirectionCount; s++ {
		if !m.active.Has(s) {
			continue
		}
		for _, l := range slotLinks[s] {
			n := c.Move(l.Dir)
			if include != nil && !include(n) {
				continue
			}
			w, ok := m.CellSignature(g, n)
			if !ok || !w[l.To].IsSet() {
				continue
			}
			switch {
			case !out[s].IsSet():
				out[s] = w[l.To]
			case out[s] != w[l.To]:
				conflicts = conflicts.With(s)
			}
		}
	}
	for s := core.North; s < core.DirectionCount; s++ {
		if conflicts.Has(s) {
			out[s] = terrain.NoTerrain
		}
	}
	return out, conflicts
}

// Eligible returns every tile satisfying the hard slots of c, best first.
func (m *Matcher) Eligible(c Constraint) []Candidate {
	var out []Candidate
	for _, lt := range m.tiles {
		if !c.Hard.Matches(lt.wang, m.active) {
			continue
		}
		out = append(out, m.candidate(lt, c))
	}
	sortCandidates(out, c.Current)
	return out
}

// Best picks the best tile for c. Exact ties keep c.Current when it is among
// them, otherwise rng chooses; a nil rng takes the lowest tile index.
func (m *Matcher) Best(c Constraint, rng Rand) (Candidate, bool) {
	eligible := m.Eligible(c)
	if len(eligible) == 0 {
		return Candidate{}, false
	}
	ties := 1
	for ties < len(eligible) && sameRank(eligible[0], eligible[ties]) {
		ties++
	}
	if ties == 1 || eligible[0].Tile == c.Current || rng == nil {
		return eligible[0], true
	}
	return eligible[rng.Intn(ties)], true
}

func (m *Matcher) candidate(lt libraryTile, c Constraint) Candidate {
	soft := 0
	for d := core.North; d < core.DirectionCount; d++ {
		if m.active.Has(d) && c.Soft[d].IsSet() && lt.wang[d] == c.Soft[d] {
			soft++
		}
	}
	return Candidate{
		Tile:      lt.tile,
		Wang:      lt.wang,
		Wildcards: lt.wang.Wildcards(m.active),
		SoftScore: soft,
	}
}

func sameRank(a, b Candidate) bool {
	return a.Wildcards == b.Wildcards && a.SoftScore == b.SoftScore
}

// sortCandidates orders by specificity, then soft score, then the current
// tile, then tile index.
func sortCandidates(cs []Candidate, current int) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Wildcards != b.Wildcards {
			return a.Wildcards < b.Wildcards
		}
		if a.SoftScore != b.SoftScore {
			return a.SoftScore > b.SoftScore
		}
		if (a.Tile == current) != (b.Tile == current) {
			return a.Tile == current
		}
		return a.Tile < b.Tile
	})
}
