package automap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/paint"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/wang"
)

// Options tune an Engine
type Options struct {
	// MaxIterations caps UntilStable; 0 or anything above
	// UntilStableMaxIterations uses UntilStableMaxIterations
	MaxIterations int
	// Paint configures terrain outputs
	Paint  paint.Options
	Logger *zerolog.Logger
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		MaxIterations: UntilStableMaxIterations,
		Paint:         paint.DefaultOptions(),
	}
}

// Result is the outcome of Apply
type Result struct {
	Passes int
	// Changed lists cells that differ from the input grid, row-major
	Changed []core.Coordinate
	// Stable is set when the last pass changed nothing
	Stable bool
}

// compiledRule is a rule with its terrain output resolved
type compiledRule struct {
	Rule
	painter *paint.Painter
	terrain terrain.TerrainID
}

// Engine applies one rule set. Like the painter it keeps no grid state;
// callers serialize Apply calls on the same grid.
type Engine struct {
	name          string
	mode          ApplyMode
	rules         []compiledRule
	maxIterations int
	logger        zerolog.Logger
}

// NewEngine validates a rule set and resolves its terrain outputs against
// the given terrain sets, looked up by name.
func NewEngine(rs *RuleSet, sets []*terrain.TerrainSet, opts Options) (*Engine, error) {
	if rs == nil {
		return nil, fmt.Errorf("nil rule set: %w", ErrInvalidRule)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "automap").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Paint.Logger == nil {
		opts.Paint.Logger = &logger
	}

	byName := make(map[string]*terrain.TerrainSet, len(sets))
	for _, s := range sets {
		if s != nil {
			byName[s.Name] = s
		}
	}
	painters := make(map[string]*paint.Painter)

	e := &Engine{
		name:          rs.Name,
		mode:          rs.Mode,
		maxIterations: clampIterations(opts.MaxIterations),
		logger:        logger.With().Str("rule_set", rs.Name).Logger(),
	}
	for _, r := range rs.Rules {
		cr := compiledRule{Rule: r, terrain: terrain.NoTerrain}
		if ref := r.Output.Terrain; ref != nil {
			set, ok := byName[ref.Set]
			if !ok {
				return nil, core.WrapTerrainError(ref.Set, -1, core.ErrUnknownTerrainSet)
			}
			id, ok := set.TerrainByName(ref.Terrain)
			if !ok {
				return nil, fmt.Errorf("rule %s: %w", r.Name, core.WrapTerrainError(ref.Set, -1, fmt.Errorf("%w %q", core.ErrUnknownTerrain, ref.Terrain)))
			}
			p, ok := painters[ref.Set]
			if !ok {
				var err error
				if p, err = paint.NewPainter(set, opts.Paint); err != nil {
					return nil, err
				}
				painters[ref.Set] = p
			}
			cr.painter = p
			cr.terrain = id
		}
		e.rules = append(e.rules, cr)
	}
	return e, nil
}

func clampIterations(n int) int {
	if n <= 0 || n > UntilStableMaxIterations {
		return UntilStableMaxIterations
	}
	return n
}

// Mode returns the apply mode of the rule set
func (e *Engine) Mode() ApplyMode { return e.mode }

// SetMode overrides the rule set's apply mode
func (e *Engine) SetMode(m ApplyMode) { e.mode = m }

// Apply runs the rule set over g in place. Every pass matches rules
// against the grid as it was when the pass began; rules write in order, so
// later rules win on a shared cell. With a nil rng every matched cell is
// written with its first output alternative.
//
// Reaching the iteration cap is not an error: the grid holds the state of
// the final pass and Result.Stable is false.
func (e *Engine) Apply(ctx context.Context, g *core.TileGrid, rng wang.Rand) (Result, error) {
	if g == nil || len(g.T) != g.W*g.H {
		w, h, n := 0, 0, 0
		if g != nil {
			w, h, n = g.W, g.H, len(g.T)
		}
		return Result{}, core.WrapGridError(w, h, n, core.ErrBufferSize)
	}

	passes := 1
	if e.mode == UntilStable {
		passes = e.maxIterations
	}

	initial := g.Clone()
	var res Result
	for res.Passes < passes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		changed, err := e.pass(g, rng)
		res.Passes++
		if err != nil {
			return res, fmt.Errorf("pass %d: %w", res.Passes, err)
		}
		e.logger.Debug().Int("pass", res.Passes).Int("changed", changed).Msg("Automap pass complete")
		if changed == 0 {
			res.Stable = true
			break
		}
	}

	for i := range g.T {
		if g.T[i] != initial.T[i] {
			x, y := g.XY(i)
			res.Changed = append(res.Changed, core.NewCoordinate(x, y))
		}
	}
	if e.mode == UntilStable && !res.Stable {
		e.logger.Warn().Int("passes", res.Passes).Msg("Automap did not converge, stopped at iteration cap")
	}
	return res, nil
}

// pass applies every rule once and returns the number of cells changed
func (e *Engine) pass(g *core.TileGrid, rng wang.Rand) (int, error) {
	snapshot := g.Clone()
	for _, r := range e.rules {
		cells := r.matches(snapshot)
		if r.Chance > 0 && r.Chance < 100 && rng != nil {
			kept := cells[:0]
			for _, c := range cells {
				if rng.Intn(100) < r.Chance {
					kept = append(kept, c)
				}
			}
			cells = kept
		}
		if len(cells) == 0 {
			continue
		}

		if r.painter != nil {
			if _, err := r.painter.FillRegion(g, cells, r.terrain, rng); err != nil {
				return 0, fmt.Errorf("rule %s: %w", r.Name, err)
			}
			continue
		}
		for _, c := range cells {
			g.Set(c.X, c.Y, pickTile(r.Output.Tiles, rng))
		}
	}

	changed := 0
	for i := range g.T {
		if g.T[i] != snapshot.T[i] {
			changed++
		}
	}
	return changed, nil
}

// matches returns the anchor cells where every matcher holds, row-major
func (r compiledRule) matches(g *core.TileGrid) []core.Coordinate {
	var out []core.Coordinate
	for y := 0; y < g.H; y++ {
		for x := 0; x < g.W; x++ {
			if r.matchAt(g, x, y) {
				out = append(out, core.NewCoordinate(x, y))
			}
		}
	}
	return out
}

func (r compiledRule) matchAt(g *core.TileGrid, x, y int) bool {
	for _, m := range r.Match {
		tile, ok := g.Get(x+m.DX, y+m.DY)
		if !ok {
			tile = core.EmptyTile
		}
		if m.test(tile) == m.Negate {
			return false
		}
	}
	return true
}

func (m CellMatcher) test(tile int) bool {
	if tile == core.EmptyTile {
		return m.Empty
	}
	if len(m.Tiles) == 0 {
		return !m.Empty
	}
	for _, t := range m.Tiles {
		if t == tile {
			return true
		}
	}
	return false
}

// pickTile chooses an alternative by weight; weight 0 counts as 1
func pickTile(alts []WeightedTile, rng wang.Rand) int {
	if len(alts) == 1 || rng == nil {
		return alts[0].Tile
	}
	total := 0
	for _, a := range alts {
		total += max(a.Weight, 1)
	}
	n := rng.Intn(total)
	for _, a := range alts {
		n -= max(a.Weight, 1)
		if n < 0 {
			return a.Tile
		}
	}
	return alts[len(alts)-1].Tile
}
