package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/terrainfill/internal/automap"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/blob"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/paint"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/config"
	"github.com/mitchelldurbincs/terrainfill/internal/events"
	"github.com/mitchelldurbincs/terrainfill/internal/events/subscribers"
	"github.com/mitchelldurbincs/terrainfill/internal/session"
	"github.com/mitchelldurbincs/terrainfill/internal/tiled"
)

// mapFlags are shared by every command
type mapFlags struct {
	mapPath  string
	out      string
	layer    string
	tileset  string
	terrains string
	seed     int64
}

func (f *mapFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.mapPath, "map", "", "Tiled JSON map to edit (required)")
	fs.StringVar(&f.out, "out", "", "Output map path (empty to overwrite -map)")
	fs.StringVar(&f.layer, "layer", "", "Tile layer name (required)")
	fs.StringVar(&f.tileset, "tileset", "", "Tileset name (empty to use the map's first tileset)")
	fs.StringVar(&f.terrains, "terrains", "", "YAML terrain set snapshot overriding the tileset's wang sets")
	fs.Int64Var(&f.seed, "seed", 0, "Tie-break seed (0 to use config default)")
}

func (f *mapFlags) validate() error {
	if f.mapPath == "" || f.layer == "" {
		return fmt.Errorf("-map and -layer are required")
	}
	return nil
}

// level is a loaded map with its edited layer registered in a session
type level struct {
	m       *tiled.Map
	grid    *tiled.LayerGrid
	session *session.Session
	rules   *automap.RuleSet
	report  *changeReport
}

// load reads the map, the optional terrain snapshot and the optional rule
// file concurrently, then builds a session around the edited layer
func load(ctx context.Context, f *mapFlags, rulesPath string) (*level, error) {
	var (
		m     *tiled.Map
		rules *automap.RuleSet
		snap  []byte
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = tiled.LoadMap(f.mapPath)
		return err
	})
	if f.terrains != "" {
		g.Go(func() error {
			var err error
			snap, err = os.ReadFile(f.terrains)
			return err
		})
	}
	if rulesPath != "" {
		g.Go(func() error {
			var err error
			rules, err = automap.LoadRuleSet(rulesPath)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ts, err := pickTileset(m, f.tileset)
	if err != nil {
		return nil, err
	}
	l, err := m.Layer(f.layer)
	if err != nil {
		return nil, err
	}
	grid, err := tiled.DecodeLayer(l, ts.FirstGID, m.TileRange(ts))
	if err != nil {
		return nil, err
	}

	cfg := config.Get()
	opts := session.OptionsFromConfig(cfg)
	if f.seed != 0 {
		opts.Seed = f.seed
	}
	bus := events.NewEventBus()
	logSub := subscribers.NewLoggerSubscriber("cli-logger", log.Logger, zerolog.InfoLevel)
	// preview prints its own output
	logSub.SetEventFilter([]string{
		events.TypePaintApplied,
		events.TypeAutotilePainted,
		events.TypeAutomapCompleted,
		events.TypeTerrainSetChanged,
	})
	logSub.SetDevMode(zerolog.GlobalLevel() <= zerolog.DebugLevel)
	bus.Subscribe(logSub)
	report, err := newChangeReport(bus)
	if err != nil {
		return nil, err
	}
	opts.Bus = bus

	s := session.New(opts)
	if err := s.AddLayer(f.layer, grid.TileGrid); err != nil {
		return nil, err
	}
	sets, err := ts.TerrainSets()
	if err != nil {
		return nil, err
	}
	for _, set := range sets {
		if err := s.AddTerrainSet(set); err != nil {
			return nil, err
		}
	}
	if snap != nil {
		if _, err := s.LoadTerrainSets(bytes.NewReader(snap)); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("map", f.mapPath).
		Str("layer", f.layer).
		Str("tileset", ts.Name).
		Int("terrain_sets", len(s.TerrainSets())).
		Msg("Level loaded")
	return &level{m: m, grid: grid, session: s, rules: rules, report: report}, nil
}

func pickTileset(m *tiled.Map, name string) (*tiled.Tileset, error) {
	if name != "" {
		return m.Tileset(name)
	}
	if len(m.Tilesets) == 0 {
		return nil, tiled.ErrTilesetNotFound
	}
	return &m.Tilesets[0], nil
}

// save copies the session's layer back into the map and writes it
func (lv *level) save(f *mapFlags) error {
	g, err := lv.session.Layer(f.layer)
	if err != nil {
		return err
	}
	lv.grid.TileGrid = g
	l, err := lv.m.Layer(f.layer)
	if err != nil {
		return err
	}
	if err := lv.grid.Encode(l); err != nil {
		return err
	}
	out := f.out
	if out == "" {
		out = f.mapPath
	}
	if err := tiled.SaveMap(out, lv.m); err != nil {
		return err
	}
	log.Info().
		Str("path", out).
		Int("operations", lv.report.operations).
		Int("cells_changed", lv.report.changed()).
		Int("unresolved", lv.report.unresolved).
		Msg("Map written")
	return nil
}

// paintFlags select the terrain and the paint target
type paintFlags struct {
	mapFlags
	wangSet string
	terrain string
	target  string
	x, y    int
	x1, y1  int
}

func parsePaintFlags(name string, args []string) (*paintFlags, error) {
	f := &paintFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	f.register(fs)
	fs.StringVar(&f.wangSet, "wangset", "", "Wang set name (required)")
	fs.StringVar(&f.terrain, "terrain", "", "Terrain (color) name to paint (required)")
	fs.StringVar(&f.target, "target", "cell", "Target: cell, rect, line, vertex, hedge, vedge")
	fs.IntVar(&f.x, "x", 0, "Target column")
	fs.IntVar(&f.y, "y", 0, "Target row")
	fs.IntVar(&f.x1, "x1", -1, "Second column for rect and line (-1 to use -x)")
	fs.IntVar(&f.y1, "y1", -1, "Second row for rect and line (-1 to use -y)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	if f.wangSet == "" || f.terrain == "" {
		return nil, fmt.Errorf("-wangset and -terrain are required")
	}
	if f.x1 < 0 {
		f.x1 = f.x
	}
	if f.y1 < 0 {
		f.y1 = f.y
	}
	return f, nil
}

func buildTarget(f *paintFlags, t terrain.TerrainID) (paint.PaintTarget, error) {
	switch strings.ToLower(f.target) {
	case "cell":
		return paint.CellTarget(f.x, f.y, t), nil
	case "rect":
		return paint.RectTarget(f.x, f.y, f.x1, f.y1, t), nil
	case "line":
		return paint.LineTarget(core.NewCoordinate(f.x, f.y), core.NewCoordinate(f.x1, f.y1), t), nil
	case "vertex":
		return paint.VertexTarget(f.x, f.y, t), nil
	case "hedge":
		return paint.HorizontalEdgeTarget(f.x, f.y, t), nil
	case "vedge":
		return paint.VerticalEdgeTarget(f.x, f.y, t), nil
	default:
		return paint.PaintTarget{}, fmt.Errorf("%w: %q", core.ErrInvalidTarget, f.target)
	}
}

// resolvePaint loads the level and builds the requested target
func resolvePaint(ctx context.Context, name string, args []string) (*paintFlags, *level, paint.PaintTarget, error) {
	f, err := parsePaintFlags(name, args)
	if err != nil {
		return nil, nil, paint.PaintTarget{}, err
	}
	lv, err := load(ctx, &f.mapFlags, "")
	if err != nil {
		return nil, nil, paint.PaintTarget{}, err
	}
	set, err := lv.session.TerrainSet(f.wangSet)
	if err != nil {
		return nil, nil, paint.PaintTarget{}, err
	}
	id, ok := set.TerrainByName(f.terrain)
	if !ok {
		return nil, nil, paint.PaintTarget{}, core.WrapTerrainError(f.wangSet, -1, fmt.Errorf("%w %q", core.ErrUnknownTerrain, f.terrain))
	}
	target, err := buildTarget(f, id)
	if err != nil {
		return nil, nil, paint.PaintTarget{}, err
	}
	return f, lv, target, nil
}

func runPaint(ctx context.Context, args []string) error {
	f, lv, target, err := resolvePaint(ctx, "paint", args)
	if err != nil {
		return err
	}
	res, err := lv.session.Paint(f.layer, f.wangSet, target)
	if err != nil {
		return err
	}
	for _, c := range res.Unresolved {
		log.Warn().Int("x", c.X).Int("y", c.Y).Msg("No tile fits, cell left unchanged")
	}
	return lv.save(&f.mapFlags)
}

func runPreview(ctx context.Context, args []string) error {
	f, lv, target, err := resolvePaint(ctx, "preview", args)
	if err != nil {
		return err
	}
	res, err := lv.session.Preview(f.layer, f.wangSet, target)
	if err != nil {
		return err
	}
	for _, ch := range res.Changes {
		fmt.Printf("%d,%d\t%d -> %d\n", ch.Coord.X, ch.Coord.Y, ch.Previous, ch.Tile)
	}
	return nil
}

func runBlob(ctx context.Context, args []string) error {
	f := &mapFlags{}
	var a blob.Autotile
	var x, y int
	var erase bool
	fs := flag.NewFlagSet("blob", flag.ContinueOnError)
	f.register(fs)
	fs.IntVar(&a.BaseTile, "base", 0, "Local id of the autotile's first variant")
	fs.IntVar(&x, "x", 0, "Cell column")
	fs.IntVar(&y, "y", 0, "Cell row")
	fs.BoolVar(&erase, "erase", false, "Erase instead of paint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}

	lv, err := load(ctx, f, "")
	if err != nil {
		return err
	}
	if erase {
		_, err = lv.session.EraseAutotile(f.layer, a, x, y)
	} else {
		_, err = lv.session.PaintAutotile(f.layer, a, x, y)
	}
	if err != nil {
		return err
	}
	return lv.save(f)
}

func runAutomap(ctx context.Context, args []string) error {
	f := &mapFlags{}
	var rulesPath, mode string
	fs := flag.NewFlagSet("automap", flag.ContinueOnError)
	f.register(fs)
	fs.StringVar(&rulesPath, "rules", "", "YAML rule set (required)")
	fs.StringVar(&mode, "mode", "", "Apply mode: once, until_stable (empty to use config or rule file)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}
	if rulesPath == "" {
		return fmt.Errorf("-rules is required")
	}

	lv, err := load(ctx, f, rulesPath)
	if err != nil {
		return err
	}

	cfg := config.Get()
	opts := automap.DefaultOptions()
	opts.MaxIterations = cfg.Automap.MaxIterations
	opts.Paint = session.OptionsFromConfig(cfg).Paint
	e, err := automap.NewEngine(lv.rules, lv.session.TerrainSets(), opts)
	if err != nil {
		return err
	}
	if mode == "" {
		mode = cfg.Automap.Mode
	}
	if mode != "" {
		m, err := automap.ParseApplyMode(mode)
		if err != nil {
			return err
		}
		e.SetMode(m)
	}

	res, err := lv.session.ApplyAutomap(ctx, f.layer, e, lv.rules.Name)
	if err != nil {
		return err
	}
	if !res.Stable && e.Mode() == automap.UntilStable {
		log.Warn().Int("passes", res.Passes).Msg("Rules did not settle, result is the last pass")
	}
	return lv.save(f)
}
