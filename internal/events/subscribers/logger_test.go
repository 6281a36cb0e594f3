package subscribers_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/terrainfill/internal/autotile/core"
	"github.com/mitchelldurbincs/terrainfill/internal/events"
	"github.com/mitchelldurbincs/terrainfill/internal/events/subscribers"
)

func base(eventType string) events.BaseEvent {
	return events.BaseEvent{EventType: eventType, Time: time.Now(), Session: "session-1"}
}

func TestLoggerSubscriber(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Timestamp().Logger()

	logSub := subscribers.NewLoggerSubscriber("test-logger", logger, zerolog.InfoLevel)

	assert.Equal(t, "test-logger", logSub.ID())
	assert.True(t, logSub.InterestedIn(events.TypePaintApplied))
	assert.True(t, logSub.InterestedIn("any.event.type"))
}

func TestLoggerSubscriberEventLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logSub := subscribers.NewLoggerSubscriber("event-logger", logger, zerolog.InfoLevel)

	testCases := []struct {
		name  string
		event events.Event
		check func(t *testing.T, logLine map[string]interface{})
	}{
		{
			name: "PaintAppliedEvent",
			event: &events.PaintAppliedEvent{
				BaseEvent:   base(events.TypePaintApplied),
				OperationID: "op-1",
				Layer:       "ground",
				TerrainSet:  "Ground",
				Terrain:     1,
				Changed:     []core.Coordinate{{X: 1, Y: 1}, {X: 2, Y: 1}},
				Corrections: 1,
			},
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "op-1", logLine["operation_id"])
				assert.Equal(t, "Ground", logLine["terrain_set"])
				assert.Equal(t, float64(2), logLine["changed"])
				assert.Equal(t, float64(1), logLine["corrections"])
				assert.Equal(t, float64(0), logLine["unresolved"])
			},
		},
		{
			name: "AutotilePaintedEvent",
			event: &events.AutotilePaintedEvent{
				BaseEvent: base(events.TypeAutotilePainted),
				Layer:     "walls",
				Cell:      core.NewCoordinate(4, 7),
				Erase:     true,
			},
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, float64(4), logLine["x"])
				assert.Equal(t, float64(7), logLine["y"])
				assert.Equal(t, true, logLine["erase"])
			},
		},
		{
			name: "AutomapCompletedEvent",
			event: &events.AutomapCompletedEvent{
				BaseEvent: base(events.TypeAutomapCompleted),
				RuleSet:   "overworld",
				Passes:    100,
				Stable:    false,
				Changed:   3,
			},
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "overworld", logLine["rule_set"])
				assert.Equal(t, float64(100), logLine["passes"])
				assert.Equal(t, false, logLine["stable"])
			},
		},
		{
			name: "TerrainSetChangedEvent",
			event: &events.TerrainSetChangedEvent{
				BaseEvent:  base(events.TypeTerrainSetChanged),
				TerrainSet: "Ground",
				Change:     events.TerrainMoved,
				Terrain:    2,
			},
			check: func(t *testing.T, logLine map[string]interface{}) {
				assert.Equal(t, "terrain_moved", logLine["change"])
				assert.Equal(t, float64(2), logLine["terrain"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf.Reset()
			logSub.HandleEvent(tc.event)

			logOutput := buf.String()
			require.NotEmpty(t, logOutput, "Log output should not be empty")

			var logLine map[string]interface{}
			err := json.Unmarshal([]byte(logOutput), &logLine)
			require.NoError(t, err, "Should be able to parse log output as JSON")

			assert.Equal(t, "info", logLine["level"])
			assert.Equal(t, "Editor event", logLine["message"])
			assert.Equal(t, tc.event.Type(), logLine["event_type"])
			assert.Equal(t, "session-1", logLine["session_id"])

			tc.check(t, logLine)
		})
	}
}

func TestLoggerSubscriberWithFilter(t *testing.T) {
	logSub := subscribers.NewLoggerSubscriber("filtered-logger", zerolog.Nop(), zerolog.InfoLevel)
	logSub.SetEventFilter([]string{events.TypePaintApplied, events.TypeUndoApplied})

	assert.True(t, logSub.InterestedIn(events.TypePaintApplied))
	assert.True(t, logSub.InterestedIn(events.TypeUndoApplied))
	assert.False(t, logSub.InterestedIn(events.TypePaintPreviewed))

	logSub.SetEventFilter(nil)
	assert.True(t, logSub.InterestedIn(events.TypePaintPreviewed))
}

func TestLoggerSubscriberLogLevels(t *testing.T) {
	testCases := []struct {
		name     string
		logLevel zerolog.Level
		expected string
	}{
		{"Debug", zerolog.DebugLevel, "debug"},
		{"Info", zerolog.InfoLevel, "info"},
		{"Warn", zerolog.WarnLevel, "warn"},
		{"Error", zerolog.ErrorLevel, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			logSub := subscribers.NewLoggerSubscriber("level-logger", logger, tc.logLevel)
			logSub.HandleEvent(events.NewUndoAppliedEvent("s", "op", "ground", 3))

			var logLine map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))
			assert.Equal(t, tc.expected, logLine["level"])
		})
	}
}

func TestLoggerSubscriberDevelopmentMode(t *testing.T) {
	var buf bytes.Buffer
	logSub := subscribers.NewLoggerSubscriber("dev-logger", zerolog.New(&buf), zerolog.InfoLevel)
	logSub.SetDevMode(true)

	logSub.HandleEvent(events.NewPaintPreviewedEvent("dev-session", "ground", "Ground", 0, []core.Coordinate{{X: 3, Y: 2}}))

	var logLine map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logLine))

	eventData, ok := logLine["event_data"]
	require.True(t, ok, "event_data should be present")
	raw, err := json.Marshal(eventData)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "paint.previewed")
	assert.Contains(t, string(raw), "TerrainSet")
}
