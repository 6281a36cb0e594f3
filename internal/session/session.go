// Package session owns the tile layers and terrain sets of one level being
// edited. Every mutation goes through the session lock, publishes an event
// and records undo history.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/terrainfill/internal/automap"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/blob"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/paint"
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/terrain"
	"github.com/mitchelldurbincs/terrainfill/internal/config"
	"github.com/mitchelldurbincs/terrainfill/internal/events"
)

var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrLayerExists   = errors.New("layer already exists")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// DefaultUndoDepth is used when Options.UndoDepth is 0
const DefaultUndoDepth = 64

// Options configure a Session
type Options struct {
	Paint paint.Options
	// Seed for tie-breaking; 0 seeds from the clock
	Seed      int64
	UndoDepth int
	// Bus receives session events; nil disables publishing
	Bus    events.Publisher
	Logger *zerolog.Logger
}

// OptionsFromConfig maps configuration onto session options
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		Paint: paint.Options{
			CorrectionsEnabled: c.Paint.CorrectionsEnabled,
			MaxTargetCells:     c.Paint.MaxTargetCells,
		},
		Seed:      c.Paint.Seed,
		UndoDepth: c.Session.UndoDepth,
	}
}

// undoEntry restores the previous tiles of one operation
type undoEntry struct {
	operationID string
	layer       string
	cells       []paint.Change
}

// Session is a single-writer editing context for one level
type Session struct {
	id string

	mu       sync.Mutex
	layers   map[string]*core.TileGrid
	sets     map[string]*terrain.TerrainSet
	painters map[string]*paint.Painter
	rng      *rand.Rand
	history  []undoEntry

	opts   Options
	bus    events.Publisher
	logger zerolog.Logger
}

// New creates an empty session
func New(opts Options) *Session {
	if opts.UndoDepth <= 0 {
		opts.UndoDepth = DefaultUndoDepth
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	id := uuid.New().String()
	logger := log.With().Str("component", "session").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("session_id", id).Logger()
	if opts.Paint.Logger == nil {
		opts.Paint.Logger = &logger
	}

	return &Session{
		id:       id,
		layers:   make(map[string]*core.TileGrid),
		sets:     make(map[string]*terrain.TerrainSet),
		painters: make(map[string]*paint.Painter),
		rng:      rand.New(rand.NewSource(seed)),
		opts:     opts,
		bus:      opts.Bus,
		logger:   logger,
	}
}

// ID returns the session id carried on every event
func (s *Session) ID() string { return s.id }

func (s *Session) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// AddLayer adds a tile layer. The session takes ownership of g.
func (s *Session) AddLayer(name string, g *core.TileGrid) error {
	if g == nil || len(g.T) != g.W*g.H {
		w, h, n := 0, 0, 0
		if g != nil {
			w, h, n = g.W, g.H, len(g.T)
		}
		return core.WrapGridError(w, h, n, core.ErrBufferSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[name]; ok {
		return fmt.Errorf("%w: %q", ErrLayerExists, name)
	}
	s.layers[name] = g
	s.logger.Debug().Str("layer", name).Int("width", g.W).Int("height", g.H).Msg("Layer added")
	return nil
}

// Layer returns a copy of a tile layer
func (s *Session) Layer(name string) (*core.TileGrid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.layer(name)
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// LayerNames returns layer names in ascending order
func (s *Session) LayerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.layers))
	for n := range s.layers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Session) layer(name string) (*core.TileGrid, error) {
	g, ok := s.layers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	return g, nil
}

// painter returns the cached painter of a set, rebuilding it after edits
func (s *Session) painter(set string) (*paint.Painter, error) {
	if p, ok := s.painters[set]; ok {
		return p, nil
	}
	ts, ok := s.sets[set]
	if !ok {
		return nil, core.WrapTerrainError(set, -1, core.ErrUnknownTerrainSet)
	}
	p, err := paint.NewPainter(ts, s.opts.Paint)
	if err != nil {
		return nil, err
	}
	s.painters[set] = p
	return p, nil
}

// record pushes an undo entry, dropping the oldest beyond the undo depth
func (s *Session) record(opID, layer string, changes []paint.Change) {
	if len(changes) == 0 {
		return
	}
	s.history = append(s.history, undoEntry{operationID: opID, layer: layer, cells: changes})
	if over := len(s.history) - s.opts.UndoDepth; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}

// Paint applies a terrain target to a layer
func (s *Session) Paint(layer, set string, target paint.PaintTarget) (paint.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.layer(layer)
	if err != nil {
		return paint.Result{}, err
	}
	p, err := s.painter(set)
	if err != nil {
		return paint.Result{}, err
	}
	res, err := p.Paint(g, target, s.rng)
	if err != nil {
		return paint.Result{}, err
	}

	opID := uuid.New().String()
	s.record(opID, layer, res.Changes)
	corrections := 0
	for _, c := range res.Changes {
		if c.Correction {
			corrections++
		}
	}
	s.publish(events.NewPaintAppliedEvent(s.id, opID, layer, set, int(target.Terrain), res.Changed(), corrections, len(res.Unresolved)))
	return res, nil
}

// Preview computes a paint without applying it
func (s *Session) Preview(layer, set string, target paint.PaintTarget) (paint.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.layer(layer)
	if err != nil {
		return paint.Result{}, err
	}
	p, err := s.painter(set)
	if err != nil {
		return paint.Result{}, err
	}
	res, err := p.Preview(g, target, s.rng)
	if err != nil {
		return paint.Result{}, err
	}
	s.publish(events.NewPaintPreviewedEvent(s.id, layer, set, int(target.Terrain), res.Changed()))
	return res, nil
}

// FillCells paints terrain t over a list of cells
func (s *Session) FillCells(layer, set string, cells []core.Coordinate, t terrain.TerrainID) (paint.Result, error) {
	return s.Paint(layer, set, paint.CellsTarget(cells, t))
}

// UpdateTile re-picks one tile to agree with its neighbours
func (s *Session) UpdateTile(layer, set string, x, y int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.layer(layer)
	if err != nil {
		return false, err
	}
	p, err := s.painter(set)
	if err != nil {
		return false, err
	}
	ch, changed, err := p.UpdateTileWithNeighbors(g, x, y, s.rng)
	if err != nil || !changed {
		return false, err
	}
	opID := uuid.New().String()
	s.record(opID, layer, []paint.Change{ch})
	s.publish(events.NewPaintAppliedEvent(s.id, opID, layer, set, int(terrain.NoTerrain), []core.Coordinate{ch.Coord}, 1, 0))
	return true, nil
}

// PaintAutotile places a blob autotile cell and refreshes its neighbours
func (s *Session) PaintAutotile(layer string, a blob.Autotile, x, y int) ([]core.Coordinate, error) {
	return s.autotile(layer, a, x, y, false)
}

// EraseAutotile clears a blob autotile cell and refreshes its neighbours
func (s *Session) EraseAutotile(layer string, a blob.Autotile, x, y int) ([]core.Coordinate, error) {
	return s.autotile(layer, a, x, y, true)
}

func (s *Session) autotile(layer string, a blob.Autotile, x, y int, erase bool) ([]core.Coordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.layer(layer)
	if err != nil {
		return nil, err
	}
	before := g.Clone()
	var changed []core.Coordinate
	if erase {
		changed = blob.EraseAutotile(g, a, x, y)
	} else {
		changed = blob.PaintAutotile(g, a, x, y)
	}

	opID := uuid.New().String()
	s.record(opID, layer, changesFrom(before, g, changed))
	s.publish(events.NewAutotilePaintedEvent(s.id, opID, layer, core.NewCoordinate(x, y), erase, changed))
	return changed, nil
}

// ApplyAutomap runs a rule set engine over a layer
func (s *Session) ApplyAutomap(ctx context.Context, layer string, e *automap.Engine, ruleSet string) (automap.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.layer(layer)
	if err != nil {
		return automap.Result{}, err
	}
	before := g.Clone()
	res, err := e.Apply(ctx, g, s.rng)
	if err != nil {
		// a canceled run leaves finished passes applied; keep them undoable
		if changes := changesFrom(before, g, nil); len(changes) > 0 {
			s.record(uuid.New().String(), layer, changes)
		}
		return res, err
	}

	opID := uuid.New().String()
	s.record(opID, layer, changesFrom(before, g, res.Changed))
	s.publish(events.NewAutomapCompletedEvent(s.id, opID, layer, ruleSet, res.Passes, res.Stable, len(res.Changed)))
	return res, nil
}

// changesFrom diffs two grids over the given cells, or over every cell
// when cells is nil
func changesFrom(before, after *core.TileGrid, cells []core.Coordinate) []paint.Change {
	var out []paint.Change
	add := func(i int) {
		if before.T[i] != after.T[i] {
			x, y := after.XY(i)
			out = append(out, paint.Change{Coord: core.NewCoordinate(x, y), Previous: before.T[i], Tile: after.T[i]})
		}
	}
	if cells == nil {
		for i := range after.T {
			add(i)
		}
		return out
	}
	for _, c := range cells {
		add(after.Idx(c.X, c.Y))
	}
	return out
}

// Undo reverts the most recent recorded operation
func (s *Session) Undo() ([]core.Coordinate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return nil, ErrNothingToUndo
	}
	entry := s.history[len(s.history)-1]
	s.history = s.history[:len(s.history)-1]

	g, err := s.layer(entry.layer)
	if err != nil {
		return nil, err
	}
	restored := make([]core.Coordinate, 0, len(entry.cells))
	for i := len(entry.cells) - 1; i >= 0; i-- {
		ch := entry.cells[i]
		g.Set(ch.Coord.X, ch.Coord.Y, ch.Previous)
		restored = append(restored, ch.Coord)
	}
	s.publish(events.NewUndoAppliedEvent(s.id, entry.operationID, entry.layer, len(restored)))
	return restored, nil
}

// UndoDepth returns the number of operations that can be undone
func (s *Session) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
