package automap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/testutil"
)

const sampleRules = `
name: overworld
mode: until_stable
rules:
  - name: flowers
    chance: 30
    match:
      - {tiles: [0]}
      - {dy: -1, tiles: [0, 16]}
    output:
      tiles:
        - {tile: 16, weight: 3}
        - {tile: 0}
  - name: dirt under rocks
    match:
      - {tiles: [40]}
      - {dx: 1, empty: true, negate: true}
    output:
      terrain: {set: Ground, terrain: Dirt}
`

// seqRand answers Intn from a fixed sequence, cycling
type seqRand struct {
	seq   []int
	calls int
}

func (r *seqRand) Intn(n int) int {
	v := r.seq[r.calls%len(r.seq)] % n
	r.calls++
	return v
}

func newEngine(t *testing.T, rs *RuleSet, opts Options) *Engine {
	t.Helper()
	logger := testutil.NopLogger()
	opts.Logger = &logger
	set := testutil.TransitionCornerSet()
	e, err := NewEngine(rs, []*terrain.TerrainSet{set}, opts)
	require.NoError(t, err)
	return e
}

func tileRule(name string, match []CellMatcher, tiles ...int) Rule {
	r := Rule{Name: name, Match: match}
	for _, tile := range tiles {
		r.Output.Tiles = append(r.Output.Tiles, WeightedTile{Tile: tile, Weight: 1})
	}
	return r
}

func TestParseRuleSet(t *testing.T) {
	rs, err := ParseRuleSet([]byte(sampleRules))
	require.NoError(t, err)

	assert.Equal(t, "overworld", rs.Name)
	assert.Equal(t, UntilStable, rs.Mode)
	require.Len(t, rs.Rules, 2)

	flowers := rs.Rules[0]
	assert.Equal(t, 30, flowers.Chance)
	assert.Equal(t, -1, flowers.Match[1].DY)
	assert.Equal(t, []WeightedTile{{Tile: 16, Weight: 3}, {Tile: 0}}, flowers.Output.Tiles)

	rocks := rs.Rules[1]
	require.NotNil(t, rocks.Output.Terrain)
	assert.Equal(t, TerrainRef{Set: "Ground", Terrain: "Dirt"}, *rocks.Output.Terrain)
	assert.True(t, rocks.Match[1].Negate)
	assert.True(t, rocks.Match[1].Empty)
}

func TestParseRuleSet_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no rules", "name: empty\nrules: []\n"},
		{"no matchers", "rules:\n  - name: r\n    output: {tiles: [{tile: 1}]}\n"},
		{"no output", "rules:\n  - name: r\n    match: [{tiles: [0]}]\n"},
		{"both outputs", "rules:\n  - name: r\n    match: [{tiles: [0]}]\n    output: {tiles: [{tile: 1}], terrain: {set: a, terrain: b}}\n"},
		{"chance over 100", "rules:\n  - name: r\n    chance: 150\n    match: [{tiles: [0]}]\n    output: {tiles: [{tile: 1}]}\n"},
		{"negative weight", "rules:\n  - name: r\n    match: [{tiles: [0]}]\n    output: {tiles: [{tile: 1, weight: -2}]}\n"},
		{"incomplete terrain", "rules:\n  - name: r\n    match: [{tiles: [0]}]\n    output: {terrain: {set: a}}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(tt.yaml))
			assert.True(t, errors.Is(err, ErrInvalidRule), "got %v", err)
		})
	}

	t.Run("bad mode", func(t *testing.T) {
		_, err := ParseRuleSet([]byte("mode: sometimes\nrules: []\n"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseRuleSet([]byte("rules: [\n"))
		assert.Error(t, err)
	})
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRules), 0644))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.Len(t, rs.Rules, 2)

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestApplyMode(t *testing.T) {
	for _, m := range []ApplyMode{Once, UntilStable} {
		text, err := m.MarshalText()
		require.NoError(t, err)
		var back ApplyMode
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, m, back)
	}
	assert.Equal(t, "ApplyMode(7)", ApplyMode(7).String())
}

func TestNewEngine_UnknownTerrain(t *testing.T) {
	set := testutil.TransitionCornerSet()
	rule := Rule{Name: "r", Match: []CellMatcher{{Tiles: []int{0}}}}

	rule.Output.Terrain = &TerrainRef{Set: "Caves", Terrain: "Dirt"}
	_, err := NewEngine(&RuleSet{Rules: []Rule{rule}}, []*terrain.TerrainSet{set}, DefaultOptions())
	assert.True(t, errors.Is(err, core.ErrUnknownTerrainSet))

	rule.Output.Terrain = &TerrainRef{Set: "Ground", Terrain: "Lava"}
	_, err = NewEngine(&RuleSet{Rules: []Rule{rule}}, []*terrain.TerrainSet{set}, DefaultOptions())
	assert.True(t, errors.Is(err, core.ErrUnknownTerrain))

	_, err = NewEngine(nil, nil, DefaultOptions())
	assert.True(t, errors.Is(err, ErrInvalidRule))
}

func TestApply_Once(t *testing.T) {
	// Replace grass below a rock (tile 40) with tile 5
	rs := &RuleSet{Mode: Once, Rules: []Rule{
		tileRule("under rock", []CellMatcher{{Tiles: []int{0}}, {DY: -1, Tiles: []int{40}}}, 5),
	}}
	e := newEngine(t, rs, DefaultOptions())

	g := testutil.GridFromRows([][]int{
		{40, 0, 40},
		{0, 0, 0},
		{0, 0, -1},
	})
	res, err := e.Apply(context.Background(), g, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Passes)
	assert.False(t, res.Stable)
	assert.Equal(t, []core.Coordinate{{X: 0, Y: 1}, {X: 2, Y: 1}}, res.Changed)
	assert.Equal(t, []int{40, 0, 40, 5, 0, 5, 0, 0, core.EmptyTile}, g.T)
}

func TestApply_UntilStableConverges(t *testing.T) {
	// Tile 1 grows right into empty cells, one cell per pass
	grow := tileRule("grow", []CellMatcher{{Empty: true}, {DX: -1, Tiles: []int{1}}}, 1)
	e := newEngine(t, &RuleSet{Mode: UntilStable, Rules: []Rule{grow}}, DefaultOptions())

	g := testutil.GridFromRows([][]int{{1, -1, -1, -1, -1}})
	res, err := e.Apply(context.Background(), g, nil)
	require.NoError(t, err)

	assert.True(t, res.Stable)
	assert.Equal(t, 5, res.Passes, "four growing passes and one quiet pass")
	assert.Equal(t, []int{1, 1, 1, 1, 1}, g.T)
	assert.Len(t, res.Changed, 4)
}

func TestApply_FlipFlopStopsAtCap(t *testing.T) {
	// Both rules read the pass snapshot, so the cell toggles every pass
	rs := &RuleSet{Mode: UntilStable, Rules: []Rule{
		tileRule("to one", []CellMatcher{{Tiles: []int{0}}}, 1),
		tileRule("to zero", []CellMatcher{{Tiles: []int{1}}}, 0),
	}}
	e := newEngine(t, rs, DefaultOptions())

	g := testutil.GridFromRows([][]int{{0}})
	res, err := e.Apply(context.Background(), g, nil)
	require.NoError(t, err)

	assert.Equal(t, UntilStableMaxIterations, res.Passes)
	assert.False(t, res.Stable)
	assert.Equal(t, []int{0}, g.T, "an even number of flips ends where it started")
	assert.Empty(t, res.Changed)
}

func TestApply_ProbabilisticFlipStopsAtCap(t *testing.T) {
	flip := tileRule("coin", []CellMatcher{{Tiles: []int{0, 1}}}, 0, 1)
	e := newEngine(t, &RuleSet{Mode: UntilStable, Rules: []Rule{flip}}, DefaultOptions())

	rng := &seqRand{seq: []int{1, 0}}
	g := testutil.GridFromRows([][]int{{0}})
	res, err := e.Apply(context.Background(), g, rng)
	require.NoError(t, err)

	assert.Equal(t, 100, res.Passes)
	assert.Equal(t, 100, rng.calls)
	assert.False(t, res.Stable)
	assert.Equal(t, []int{0}, g.T, "state of the final pass")
}

func TestApply_MaxIterations(t *testing.T) {
	rs := &RuleSet{Mode: UntilStable, Rules: []Rule{
		tileRule("to one", []CellMatcher{{Tiles: []int{0}}}, 1),
		tileRule("to zero", []CellMatcher{{Tiles: []int{1}}}, 0),
	}}

	tests := []struct {
		name string
		max  int
		want int
	}{
		{"configured", 3, 3},
		{"zero uses cap", 0, UntilStableMaxIterations},
		{"above cap clamped", 500, UntilStableMaxIterations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxIterations = tt.max
			e := newEngine(t, rs, opts)
			res, err := e.Apply(context.Background(), testutil.GridFromRows([][]int{{0}}), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Passes)
		})
	}

	t.Run("mode override", func(t *testing.T) {
		e := newEngine(t, rs, DefaultOptions())
		e.SetMode(Once)
		assert.Equal(t, Once, e.Mode())
		res, err := e.Apply(context.Background(), testutil.GridFromRows([][]int{{0}}), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Passes)
	})
}

func TestApply_TerrainOutput(t *testing.T) {
	// A marker tile outside the terrain set becomes dirt painted through
	// the Wang engine, with the grass around it corrected.
	rule := Rule{
		Name:   "marker to dirt",
		Match:  []CellMatcher{{Tiles: []int{99}}},
		Output: Output{Terrain: &TerrainRef{Set: "Ground", Terrain: "Dirt"}},
	}
	e := newEngine(t, &RuleSet{Mode: UntilStable, Rules: []Rule{rule}}, DefaultOptions())

	g := testutil.FilledGrid(5, 5, 0)
	g.Set(2, 2, 99)
	res, err := e.Apply(context.Background(), g, testutil.NewTestRNG(1))
	require.NoError(t, err)

	assert.True(t, res.Stable)
	assert.Equal(t, 2, res.Passes)
	assert.Len(t, res.Changed, 9)
	center, _ := g.Get(2, 2)
	assert.Equal(t, 15, center)
	corner, _ := g.Get(1, 1)
	assert.Equal(t, testutil.CornerTile(terrain.BottomRight), corner)
}

func TestApply_Chance(t *testing.T) {
	rule := tileRule("maybe", []CellMatcher{{Tiles: []int{0}}}, 7)
	rule.Chance = 50

	tests := []struct {
		name  string
		roll  int
		wants int
	}{
		{"roll under chance writes", 10, 7},
		{"roll over chance skips", 90, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, &RuleSet{Mode: Once, Rules: []Rule{rule}}, DefaultOptions())
			g := testutil.FilledGrid(2, 2, 0)
			_, err := e.Apply(context.Background(), g, &seqRand{seq: []int{tt.roll}})
			require.NoError(t, err)
			assert.Equal(t, []int{tt.wants, tt.wants, tt.wants, tt.wants}, g.T)
		})
	}
}

func TestApply_Errors(t *testing.T) {
	e := newEngine(t, &RuleSet{Rules: []Rule{tileRule("r", []CellMatcher{{}}, 1)}}, DefaultOptions())

	_, err := e.Apply(context.Background(), &core.TileGrid{W: 2, H: 2, T: []int{0}}, nil)
	assert.True(t, errors.Is(err, core.ErrBufferSize))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Apply(ctx, testutil.FilledGrid(2, 2, 0), nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPickTile(t *testing.T) {
	alts := []WeightedTile{{Tile: 3, Weight: 1}, {Tile: 4, Weight: 2}, {Tile: 5}}
	assert.Equal(t, 3, pickTile(alts, nil))
	assert.Equal(t, 3, pickTile(alts, &seqRand{seq: []int{0}}))
	assert.Equal(t, 4, pickTile(alts, &seqRand{seq: []int{1}}))
	assert.Equal(t, 4, pickTile(alts, &seqRand{seq: []int{2}}))
	assert.Equal(t, 5, pickTile(alts, &seqRand{seq: []int{3}}), "zero weight counts as one")
}
