package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/terrainfill/internal/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("session_id", event.SessionID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	switch e := event.(type) {
	case *events.PaintAppliedEvent:
		logEvent.
			Str("operation_id", e.OperationID).
			Str("layer", e.Layer).
			Str("terrain_set", e.TerrainSet).
			Int("terrain", e.Terrain).
			Int("changed", len(e.Changed)).
			Int("corrections", e.Corrections).
			Int("unresolved", e.Unresolved)

	case *events.PaintPreviewedEvent:
		logEvent.
			Str("layer", e.Layer).
			Str("terrain_set", e.TerrainSet).
			Int("terrain", e.Terrain).
			Int("changed", len(e.Changed))

	case *events.AutotilePaintedEvent:
		logEvent.
			Str("operation_id", e.OperationID).
			Str("layer", e.Layer).
			Int("x", e.Cell.X).
			Int("y", e.Cell.Y).
			Bool("erase", e.Erase).
			Int("changed", len(e.Changed))

	case *events.AutomapCompletedEvent:
		logEvent.
			Str("operation_id", e.OperationID).
			Str("layer", e.Layer).
			Str("rule_set", e.RuleSet).
			Int("passes", e.Passes).
			Bool("stable", e.Stable).
			Int("changed", e.Changed)

	case *events.TerrainSetChangedEvent:
		logEvent.
			Str("terrain_set", e.TerrainSet).
			Str("change", string(e.Change)).
			Int("terrain", e.Terrain)

	case *events.UndoAppliedEvent:
		logEvent.
			Str("operation_id", e.OperationID).
			Str("layer", e.Layer).
			Int("cells", e.Cells)
	}

	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Editor event")
}
