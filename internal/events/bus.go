// Package events is an in-process publish/subscribe bus for run progress and state
// changes.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler receives published events. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(event *Event)

// SubscriptionID identifies a subscription for Unsubscribe.
type SubscriptionID uint64

// Bus dispatches events to subscribers by type.
type Bus struct {
	mu       sync.RWMutex
	next     SubscriptionID
	handlers map[EventType]map[SubscriptionID]Handler
	now      func() time.Time
	log      zerolog.Logger
}

// NewBus creates an event bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType]map[SubscriptionID]Handler),
		now:      time.Now,
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers handler for events of type t.
func (b *Bus) Subscribe(t EventType, handler Handler) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	if b.handlers[t] == nil {
		b.handlers[t] = make(map[SubscriptionID]Handler)
	}
	b.handlers[t][b.next] = handler
	return b.next
}

// SubscribeMany registers handler for several event types and returns one id per type.
func (b *Bus) SubscribeMany(types []EventType, handler Handler) []SubscriptionID {
	ids := make([]SubscriptionID, 0, len(types))
	for _, t := range types {
		ids = append(ids, b.Subscribe(t, handler))
	}
	return ids
}

// Unsubscribe removes subscriptions. Unknown ids are ignored.
func (b *Bus) Unsubscribe(ids ...SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, id := range ids {
		for t, hs := range b.handlers {
			if _, ok := hs[id]; ok {
				delete(hs, id)
				if len(hs) == 0 {
					delete(b.handlers, t)
				}
				break
			}
		}
	}
}

// Emit publishes data as an event from module.
func (b *Bus) Emit(module string, data EventData) {
	b.Publish(&Event{
		Type:      data.EventType(),
		Timestamp: b.now(),
		Module:    module,
		Data:      data,
	})
}

// Publish delivers event to every subscriber of its type. A panicking handler is logged
// and does not affect the others.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		b.dispatch(h, event)
	}
}

func (b *Bus) dispatch(h Handler, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Msg("Event handler panicked")
		}
	}()
	h(event)
}
