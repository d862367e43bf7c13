// Package events provides the in-process pub/sub bus linking the evaluation
// engine to optional collaborators. The engine functions correctly with no
// bus attached (direct call mode).
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType represents different event types
type EventType string

const (
	StrategyEvaluationRequested EventType = "STRATEGY_EVALUATION_REQUESTED"
	StrategyEvaluated           EventType = "STRATEGY_EVALUATED"
	AllocationProduced          EventType = "PORTFOLIO_ALLOCATION_PRODUCED"
	EvaluationFailed            EventType = "STRATEGY_EVALUATION_FAILED"
)

// Event represents a system event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Bus is a synchronous in-process event bus. Handlers run on the publisher's
// goroutine, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]func(data any)
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]func(data any)),
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType EventType, handler func(data any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish emits an event to every subscribed handler.
func (b *Bus) Publish(eventType EventType, data any) {
	b.mu.RLock()
	handlers := b.handlers[eventType]
	b.mu.RUnlock()

	b.log.Debug().
		Str("event_type", string(eventType)).
		Int("handlers", len(handlers)).
		Msg("Event published")

	for _, handler := range handlers {
		handler(data)
	}
}
