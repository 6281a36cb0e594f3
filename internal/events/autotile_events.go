package events

import (
	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
)

// Event type constants
const (
	TypePaintApplied      = "paint.applied"
	TypePaintPreviewed    = "paint.previewed"
	TypeAutotilePainted   = "autotile.painted"
	TypeAutomapCompleted  = "automap.completed"
	TypeTerrainSetChanged = "terrainset.changed"
	TypeUndoApplied       = "undo.applied"
)

var knownTypes = map[string]bool{
	TypePaintApplied:      true,
	TypePaintPreviewed:    true,
	TypeAutotilePainted:   true,
	TypeAutomapCompleted:  true,
	TypeTerrainSetChanged: true,
	TypeUndoApplied:       true,
}

// IsKnownType reports whether t is one of the event types published here
func IsKnownType(t string) bool {
	return knownTypes[t]
}

// PaintAppliedEvent is published after a terrain paint is committed
type PaintAppliedEvent struct {
	BaseEvent
	OperationID string
	Layer       string
	TerrainSet  string
	Terrain     int
	Changed     []core.Coordinate
	Corrections int
	Unresolved  int
}

// NewPaintAppliedEvent creates a new PaintAppliedEvent
func NewPaintAppliedEvent(sessionID, operationID, layer, terrainSet string, terrain int, changed []core.Coordinate, corrections, unresolved int) *PaintAppliedEvent {
	return &PaintAppliedEvent{
		BaseEvent:   newBase(TypePaintApplied, sessionID),
		OperationID: operationID,
		Layer:       layer,
		TerrainSet:  terrainSet,
		Terrain:     terrain,
		Changed:     changed,
		Corrections: corrections,
		Unresolved:  unresolved,
	}
}

// PaintPreviewedEvent is published for a hover preview; the grid is untouched
type PaintPreviewedEvent struct {
	BaseEvent
	Layer      string
	TerrainSet string
	Terrain    int
	Changed    []core.Coordinate
}

// NewPaintPreviewedEvent creates a new PaintPreviewedEvent
func NewPaintPreviewedEvent(sessionID, layer, terrainSet string, terrain int, changed []core.Coordinate) *PaintPreviewedEvent {
	return &PaintPreviewedEvent{
		BaseEvent:  newBase(TypePaintPreviewed, sessionID),
		Layer:      layer,
		TerrainSet: terrainSet,
		Terrain:    terrain,
		Changed:    changed,
	}
}

// AutotilePaintedEvent is published after a legacy blob paint or erase
type AutotilePaintedEvent struct {
	BaseEvent
	OperationID string
	Layer       string
	Cell        core.Coordinate
	Erase       bool
	Changed     []core.Coordinate
}

// NewAutotilePaintedEvent creates a new AutotilePaintedEvent
func NewAutotilePaintedEvent(sessionID, operationID, layer string, cell core.Coordinate, erase bool, changed []core.Coordinate) *AutotilePaintedEvent {
	return &AutotilePaintedEvent{
		BaseEvent:   newBase(TypeAutotilePainted, sessionID),
		OperationID: operationID,
		Layer:       layer,
		Cell:        cell,
		Erase:       erase,
		Changed:     changed,
	}
}

// AutomapCompletedEvent is published after a rule set is applied
type AutomapCompletedEvent struct {
	BaseEvent
	OperationID string
	Layer       string
	RuleSet     string
	Passes      int
	Stable      bool
	Changed     int
}

// NewAutomapCompletedEvent creates a new AutomapCompletedEvent
func NewAutomapCompletedEvent(sessionID, operationID, layer, ruleSet string, passes int, stable bool, changed int) *AutomapCompletedEvent {
	return &AutomapCompletedEvent{
		BaseEvent:   newBase(TypeAutomapCompleted, sessionID),
		OperationID: operationID,
		Layer:       layer,
		RuleSet:     ruleSet,
		Passes:      passes,
		Stable:      stable,
		Changed:     changed,
	}
}

// TerrainSetChange names a structural edit of a terrain set
type TerrainSetChange string

const (
	TerrainAdded   TerrainSetChange = "terrain_added"
	TerrainRemoved TerrainSetChange = "terrain_removed"
	TerrainMoved   TerrainSetChange = "terrain_moved"
	TileAssigned   TerrainSetChange = "tile_assigned"
)

// TerrainSetChangedEvent is published after a terrain set is edited
type TerrainSetChangedEvent struct {
	BaseEvent
	TerrainSet string
	Change     TerrainSetChange
	Terrain    int
}

// NewTerrainSetChangedEvent creates a new TerrainSetChangedEvent
func NewTerrainSetChangedEvent(sessionID, terrainSet string, change TerrainSetChange, terrain int) *TerrainSetChangedEvent {
	return &TerrainSetChangedEvent{
		BaseEvent:  newBase(TypeTerrainSetChanged, sessionID),
		TerrainSet: terrainSet,
		Change:     change,
		Terrain:    terrain,
	}
}

// UndoAppliedEvent is published after an operation is undone
type UndoAppliedEvent struct {
	BaseEvent
	OperationID string
	Layer       string
	Cells       int
}

// NewUndoAppliedEvent creates a new UndoAppliedEvent
func NewUndoAppliedEvent(sessionID, operationID, layer string, cells int) *UndoAppliedEvent {
	return &UndoAppliedEvent{
		BaseEvent:   newBase(TypeUndoApplied, sessionID),
		OperationID: operationID,
		Layer:       layer,
		Cells:       cells,
	}
}
