package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription represents a live event subscription. Holding the returned
// subscription is the only way to unsubscribe; gesture instances that
// subscribe for the duration of a drag must unsubscribe on release.
type Subscription struct {
	ID      string
	Filter  Filter
	Handler Handler
	Created time.Time

	bus *Bus
}

// Unsubscribe removes the subscription from its bus. Safe to call more
// than once.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.remove(s.ID)
	}
}

// Bus is a synchronous event dispatcher. All mutation in the control happens
// on the input-handling path, so events are delivered inline to every
// matching handler before Publish returns; there is no queue to reorder
// intents behind state reads.
type Bus struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	stats         Stats
}

// NewBus creates a new event bus instance
func NewBus() *Bus {
	return &Bus{
		subscriptions: make(map[string]*Subscription),
		stats: Stats{
			EventsByType: make(map[EventType]int64),
		},
	}
}

// Subscribe registers a handler for the event types in filter
func (b *Bus) Subscribe(filter Filter, handler Handler) *Subscription {
	sub := &Subscription{
		ID:      uuid.New().String(),
		Filter:  filter,
		Handler: handler,
		Created: time.Now(),
		bus:     b,
	}

	b.mu.Lock()
	b.subscriptions[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// SubscribeTypes registers a handler for an explicit list of event types
func (b *Bus) SubscribeTypes(handler Handler, types ...EventType) *Subscription {
	return b.Subscribe(Filter{Types: types}, handler)
}

// Publish delivers the event synchronously to every matching subscription
func (b *Bus) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		if sub.Filter.Matches(event) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range matched {
		sub.Handler(event)
	}

	b.mu.Lock()
	b.stats.TotalEvents++
	b.stats.EventsByType[event.Type]++
	b.mu.Unlock()
}

// Stats returns a snapshot of dispatch statistics
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	byType := make(map[EventType]int64, len(b.stats.EventsByType))
	for k, v := range b.stats.EventsByType {
		byType[k] = v
	}
	return Stats{
		TotalEvents:         b.stats.TotalEvents,
		EventsByType:        byType,
		ActiveSubscriptions: len(b.subscriptions),
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	delete(b.subscriptions, id)
	b.mu.Unlock()
}
