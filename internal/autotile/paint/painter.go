// Package paint drives the Wang engine over a paint target: it builds
// constraints, places tiles while propagating hard constraints, then
// corrects the ring of cells around the target once.
package paint

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/wang"
)

// Options tune a Painter
type Options struct {
	// CorrectionsEnabled runs the boundary pass after placement
	CorrectionsEnabled bool
	// MaxTargetCells rejects larger targets; 0 means unlimited
	MaxTargetCells int
	Logger         *zerolog.Logger
}

// DefaultOptions returns the options used by the package-level functions
func DefaultOptions() Options {
	return Options{CorrectionsEnabled: true}
}

// Change records one cell rewritten by a paint call
type Change struct {
	Coord    core.Coordinate
	Previous int
	Tile     int
	// Correction marks cells outside the target rewritten by the boundary pass
	Correction bool
}

// Result is the outcome of a paint call
type Result struct {
	// Changes lists rewritten cells in row-major order
	Changes []Change
	// Unresolved lists target cells left as they were because no tile
	// satisfied their hard constraints
	Unresolved []core.Coordinate
}

// Changed returns the coordinates of every rewritten cell
func (r Result) Changed() []core.Coordinate {
	out := make([]core.Coordinate, len(r.Changes))
	for i, c := range r.Changes {
		out[i] = c.Coord
	}
	return out
}

// Empty reports whether nothing changed
func (r Result) Empty() bool { return len(r.Changes) == 0 }

// Painter paints one terrain set. It keeps no grid state between calls;
// callers must not run two calls on the same grid at once.
type Painter struct {
	set     *terrain.TerrainSet
	matcher *wang.Matcher
	opts    Options
	logger  zerolog.Logger
}

// NewPainter indexes a terrain set for painting
func NewPainter(set *terrain.TerrainSet, opts Options) (*Painter, error) {
	if set == nil {
		return nil, core.ErrNilTerrainSet
	}
	logger := log.With().Str("component", "painter").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Painter{
		set:     set,
		matcher: wang.NewMatcher(set),
		opts:    opts,
		logger:  logger.With().Str("terrain_set", set.Name).Logger(),
	}, nil
}

// Set returns the painted terrain set
func (p *Painter) Set() *terrain.TerrainSet { return p.set }

// Matcher returns the tile index used for matching
func (p *Painter) Matcher() *wang.Matcher { return p.matcher }

// Paint applies a target to the grid in place
func (p *Painter) Paint(g *core.TileGrid, target PaintTarget, rng wang.Rand) (Result, error) {
	res, err := p.plan(g, target, rng)
	if err != nil {
		return Result{}, err
	}
	for _, ch := range res.Changes {
		g.Set(ch.Coord.X, ch.Coord.Y, ch.Tile)
	}
	return res, nil
}

// Preview computes what Paint would do without touching the grid
func (p *Painter) Preview(g *core.TileGrid, target PaintTarget, rng wang.Rand) (Result, error) {
	return p.plan(g, target, rng)
}

// cellInfo is the per-cell state of one fill pass
type cellInfo struct {
	coord   core.Coordinate
	current int
	// signature of the current tile, wildcards if it has no terrain data
	currentWang terrain.WangId
	inSet       bool
	targeted    bool
	painted     terrain.SlotMask
	constraint  wang.Constraint
	// required collects hard slots propagated onto a boundary cell
	required terrain.WangId
	// conflicts flags slots where placed tiles disagree
	conflicts terrain.SlotMask
	resolved  bool
	tile      int
}

func (p *Painter) validate(g *core.TileGrid, target PaintTarget) error {
	if g == nil || len(g.T) != g.W*g.H {
		w, h, n := 0, 0, 0
		if g != nil {
			w, h, n = g.W, g.H, len(g.T)
		}
		return core.WrapGridError(w, h, n, core.ErrBufferSize)
	}
	if p.opts.MaxTargetCells > 0 && target.Len() > p.opts.MaxTargetCells {
		return fmt.Errorf("%d cells exceeds limit %d: %w", target.Len(), p.opts.MaxTargetCells, core.ErrInvalidTarget)
	}
	return nil
}

// plan runs the three phases against a read-only grid and returns the
// changes to apply. Unknown anchor terrains paint nothing.
func (p *Painter) plan(g *core.TileGrid, target PaintTarget, rng wang.Rand) (Result, error) {
	if err := p.validate(g, target); err != nil {
		return Result{}, err
	}
	var res Result
	if !p.set.HasTerrain(target.Terrain) {
		p.logger.Debug().Int("terrain", int(target.Terrain)).Msg("Unknown terrain, nothing painted")
		return res, nil
	}
	active := p.matcher.Active()
	cells := target.clip(g, active)
	if len(cells) == 0 {
		return res, nil
	}

	infos, order, boundary := p.buildConstraints(g, cells, target.Terrain)

	// Place + propagate, row-major over the target
	for _, c := range order {
		info := infos[c]
		cand, ok := p.matcher.Best(info.constraint, rng)
		if !ok {
			res.Unresolved = append(res.Unresolved, c)
			p.logger.Debug().
				Str("cell", c.String()).
				Str("hard", info.constraint.Hard.String()).
				Msg("No tile satisfies target cell")
			continue
		}
		info.resolved = true
		info.tile = cand.Tile
		p.propagate(infos, c, cand.Wang, active)
	}

	// Corrections: one visit per boundary cell, never further out
	var corrections []*cellInfo
	if p.opts.CorrectionsEnabled {
		for _, c := range boundary {
			info := infos[c]
			if p.correct(info, rng) {
				corrections = append(corrections, info)
			}
		}
	}

	changed := make(core.CoordinateSet)
	for _, c := range order {
		if info := infos[c]; info.resolved && info.tile != info.current {
			changed.Add(c)
		}
	}
	for _, info := range corrections {
		changed.Add(info.coord)
	}
	for _, c := range changed.Sorted() {
		info := infos[c]
		res.Changes = append(res.Changes, Change{
			Coord:      c,
			Previous:   info.current,
			Tile:       info.tile,
			Correction: !info.targeted,
		})
	}
	return res, nil
}

// buildConstraints creates cell state for the target and the ring around
// it. Painted slots are hard; the previous terrain of the cell and of its
// untouched neighbours is soft.
func (p *Painter) buildConstraints(g *core.TileGrid, cells []TargetCell, anchor terrain.TerrainID) (map[core.Coordinate]*cellInfo, []core.Coordinate, []core.Coordinate) {
	infos := make(map[core.Coordinate]*cellInfo, len(cells)*3)
	order := make([]core.Coordinate, 0, len(cells))
	get := func(c core.Coordinate) *cellInfo {
		if info, ok := infos[c]; ok {
			return info
		}
		current, _ := g.At(c)
		w, inSet := p.matcher.CellSignature(g, c)
		info := &cellInfo{
			coord:       c,
			current:     current,
			currentWang: w,
			inSet:       inSet,
			constraint:  wang.NewConstraint(),
			required:    terrain.EmptyWangId(),
			tile:        current,
		}
		infos[c] = info
		return info
	}

	for _, tc := range cells {
		info := get(tc.Coord)
		info.targeted = true
		info.painted = tc.Slots
		order = append(order, tc.Coord)
	}

	boundarySet := make(core.CoordinateSet)
	for _, c := range order {
		for _, n := range c.ValidNeighbors(g.W, g.H) {
			if info := get(n); !info.targeted {
				boundarySet.Add(n)
			}
		}
	}

	outside := func(c core.Coordinate) bool {
		info, ok := infos[c]
		return !ok || !info.targeted
	}
	active := p.matcher.Active()
	for _, c := range order {
		info := infos[c]
		info.constraint.Current = info.current
		around, _ := p.matcher.NeighborSignature(g, c, outside)
		for d := core.North; d < core.DirectionCount; d++ {
			if !active.Has(d) {
				continue
			}
			if info.painted.Has(d) {
				info.constraint.Require(d, anchor)
				continue
			}
			info.constraint.Prefer(d, around[d])
			info.constraint.Prefer(d, info.currentWang[d])
		}
	}
	return infos, order, boundarySet.Sorted()
}

// propagate turns a placed tile's slots into hard constraints on its
// neighbours: unprocessed target cells get them on unpainted slots,
// boundary cells collect them for the corrections pass.
func (p *Painter) propagate(infos map[core.Coordinate]*cellInfo, c core.Coordinate, w terrain.WangId, active terrain.SlotMask) {
	for _, req := range wang.Propagate(c, w, active) {
		n, ok := infos[req.Neighbor]
		if !ok {
			continue
		}
		if n.targeted {
			if n.resolved || n.painted.Has(req.Slot) {
				continue
			}
			if !n.constraint.Require(req.Slot, req.Terrain) {
				n.conflicts = n.conflicts.With(req.Slot)
			}
			continue
		}
		prev := n.required[req.Slot]
		switch {
		case !prev.IsSet():
			n.required[req.Slot] = req.Terrain
		case prev != req.Terrain:
			n.conflicts = n.conflicts.With(req.Slot)
		}
	}
}

// correct re-resolves a boundary cell whose tile violates the slots
// propagated onto it. The cell keeps its own terrain on every other slot,
// so cells further out stay consistent. Reports whether the tile changed.
func (p *Painter) correct(info *cellInfo, rng wang.Rand) bool {
	if !info.inSet || info.required.Known() == 0 {
		return false
	}
	active := p.matcher.Active()
	if info.currentWang.Matches(info.required, active) {
		return false
	}
	if info.conflicts != 0 {
		p.logger.Debug().Str("cell", info.coord.String()).Msg("Placed neighbours disagree, boundary cell left unchanged")
		return false
	}

	c := wang.NewConstraint()
	c.Current = info.current
	for d := core.North; d < core.DirectionCount; d++ {
		if !active.Has(d) {
			continue
		}
		if info.required[d].IsSet() {
			c.Require(d, info.required[d])
			continue
		}
		if info.currentWang[d].IsSet() {
			c.Require(d, info.currentWang[d])
		}
		c.Prefer(d, info.currentWang[d])
	}

	cand, ok := p.matcher.Best(c, rng)
	if !ok || cand.Tile == info.current {
		p.logger.Debug().
			Str("cell", info.coord.String()).
			Str("required", info.required.String()).
			Msg("No transition tile, boundary cell left unchanged")
		return false
	}
	info.tile = cand.Tile
	info.resolved = true
	return true
}
