// Package eventbus implements the typed publish/subscribe bus the
// Orchestrator uses to notify observers of state changes, interactions, and
// progress without coupling it to any particular adapter.
//
// # Concurrency
//
// Bus is safe for concurrent use. Publish dispatches to subscribers
// synchronously and in subscription order, so a run's events are strictly
// ordered from the perspective of any single subscriber.
//
// Observers must not panic; the Bus does not recover a subscriber's panic
// on its behalf.
package eventbus

import "sync"

// Event names the kind of notification carried by Publish.
type Event string

const (
	StateChange         Event = "state:change"
	InteractionRequest  Event = "interaction:request"
	InteractionResponse Event = "interaction:response"
	Progress            Event = "progress"
	Info                Event = "info"
	Error               Event = "error"
	Complete            Event = "complete"
)

// Handler receives a published payload. The concrete type of payload is
// documented per Event by the publisher (Orchestrator).
type Handler func(payload any)

// Bus is a typed, in-process publish/subscribe bus.
type Bus struct {
	mu   sync.RWMutex
	subs map[Event][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[Event][]Handler)}
}

// On subscribes handler to event. Returns an unsubscribe function.
func (b *Bus) On(event Event, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[event] = append(b.subs[event], handler)
	idx := len(b.subs[event]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.subs[event]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}
}

// Publish dispatches payload to every handler subscribed to event, in
// subscription order, on the calling goroutine.
func (b *Bus) Publish(event Event, payload any) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[event]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if h != nil {
			h(payload)
		}
	}
}
