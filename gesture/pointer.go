// Package gesture turns raw pointer input over the timeline into scrub,
// preview and tap intents.
package gesture

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PointerKind distinguishes the phases of a pointer contact
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is one sample from the host's shared input stream
type PointerEvent struct {
	Kind  PointerKind
	X     float64
	Y     float64
	Touch bool
	Time  time.Time
}

// PointerHandler consumes pointer events
type PointerHandler func(event PointerEvent)

// PointerSubscription is an explicit handle on the shared input stream.
// Gesture instances subscribe while active and must unsubscribe when the
// gesture ends; there is no ambient listener state.
type PointerSubscription struct {
	ID      string
	Handler PointerHandler

	bus *PointerBus
}

// Unsubscribe detaches the handler from the stream. Safe to call more
// than once.
func (s *PointerSubscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.remove(s.ID)
	}
}

// PointerBus is the process-wide pointer input stream. The host forwards
// document-level pointer events into Dispatch; active gestures observe
// moves and releases here even when the pointer leaves the element the
// gesture started on.
type PointerBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*PointerSubscription
}

// NewPointerBus creates an empty pointer bus
func NewPointerBus() *PointerBus {
	return &PointerBus{
		subscriptions: make(map[string]*PointerSubscription),
	}
}

// Subscribe attaches a handler to the stream
func (b *PointerBus) Subscribe(handler PointerHandler) *PointerSubscription {
	sub := &PointerSubscription{
		ID:      uuid.New().String(),
		Handler: handler,
		bus:     b,
	}

	b.mu.Lock()
	b.subscriptions[sub.ID] = sub
	b.mu.Unlock()
	return sub
}

// Dispatch delivers event synchronously to every subscriber
func (b *PointerBus) Dispatch(event PointerEvent) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.RLock()
	subs := make([]*PointerSubscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Handler(event)
	}
}

// Active returns the number of live subscriptions
func (b *PointerBus) Active() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

func (b *PointerBus) remove(id string) {
	b.mu.Lock()
	delete(b.subscriptions, id)
	b.mu.Unlock()
}
