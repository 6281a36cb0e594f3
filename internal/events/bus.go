package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrUnknownEventType = errors.New("unknown event type")

// receiver is one delivery target resolved for a single Publish call
type receiver struct {
	name   string
	handle EventHandler
}

// EventBus delivers editor events synchronously. Subscribers filter events
// themselves; function handlers are bound to known event types.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	handlers    map[string][]EventHandler
	logger      zerolog.Logger
}

// NewEventBus creates a new event bus instance
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
		logger:   log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe adds a subscriber. A subscriber with the same ID is replaced in
// place, keeping its delivery position.
func (eb *EventBus) Subscribe(s Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for i, existing := range eb.subscribers {
		if existing.ID() == s.ID() {
			eb.subscribers[i] = s
			return
		}
	}
	eb.subscribers = append(eb.subscribers, s)
	eb.logger.Debug().Str("subscriber_id", s.ID()).Msg("Subscriber added to event bus")
}

// SubscribeFunc binds handler to each of the given event types. Nothing is
// bound if any type is unknown.
func (eb *EventBus) SubscribeFunc(handler EventHandler, eventTypes ...string) error {
	for _, t := range eventTypes {
		if !IsKnownType(t) {
			return fmt.Errorf("%w %q", ErrUnknownEventType, t)
		}
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	for _, t := range eventTypes {
		eb.handlers[t] = append(eb.handlers[t], handler)
	}
	eb.logger.Debug().Strs("event_types", eventTypes).Msg("Function handler added to event bus")
	return nil
}

// Publish delivers an event to interested subscribers, then to the handlers
// bound to its type, in registration order. Receivers run outside the lock
// and may publish or subscribe themselves.
func (eb *EventBus) Publish(event Event) {
	eventType := event.Type()

	eb.mu.RLock()
	receivers := make([]receiver, 0, len(eb.subscribers)+len(eb.handlers[eventType]))
	for _, s := range eb.subscribers {
		if s.InterestedIn(eventType) {
			receivers = append(receivers, receiver{name: s.ID(), handle: s.HandleEvent})
		}
	}
	for i, h := range eb.handlers[eventType] {
		receivers = append(receivers, receiver{name: fmt.Sprintf("%s#%d", eventType, i), handle: h})
	}
	eb.mu.RUnlock()

	eb.logger.Debug().
		Str("event_type", eventType).
		Str("session_id", event.SessionID()).
		Int("receivers", len(receivers)).
		Msg("Publishing event")

	for _, r := range receivers {
		eb.deliver(r, event)
	}
}

// deliver runs one receiver; a panic is logged and does not reach the others
func (eb *EventBus) deliver(r receiver, event Event) {
	defer func() {
		if p := recover(); p != nil {
			eb.logger.Error().
				Str("receiver", r.name).
				Str("event_type", event.Type()).
				Interface("panic", p).
				Msg("Event receiver panicked")
		}
	}()
	r.handle(event)
}
