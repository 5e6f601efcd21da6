// Package events provides a thread-safe observer registry for engine events.
// Emission order is preserved per event name; no ordering is guaranteed across
// different event names.
package events

import (
	"sync"
)

// Engine event names published by the runtime and planner.
const (
	StatusChanged      = "status_changed"
	IterationStart     = "iteration_start"
	IterationEnd       = "iteration_end"
	StreamChunk        = "stream_chunk"
	ApprovalRequested  = "approval_requested"
	CircuitStateChange = "circuit_state_change"
	Complete           = "complete"
	Error              = "error"
)

// Handler receives the payload of one emitted event.
type Handler func(payload any)

// Subscription identifies one registered handler for later removal.
type Subscription struct {
	event string
	id    int
}

// Emitter is an explicit observer registry: subscribers are invoked
// synchronously and in subscription order, which preserves per-event emission
// ordering without a delivery goroutine.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string][]entry
}

type entry struct {
	id int
	fn Handler
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		handlers: make(map[string][]entry),
	}
}

// Subscribe registers a handler for the named event.
func (e *Emitter) Subscribe(event string, fn Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	e.handlers[event] = append(e.handlers[event], entry{id: e.nextID, fn: fn})
	return Subscription{event: event, id: e.nextID}
}

// Unsubscribe removes a previously registered handler. Safe to call more than
// once.
func (e *Emitter) Unsubscribe(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := e.handlers[sub.event]
	for i := range entries {
		if entries[i].id == sub.id {
			e.handlers[sub.event] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Emit invokes every handler subscribed to the event, in subscription order.
// Handlers run on the emitting goroutine; slow handlers slow the emitter.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.RLock()
	entries := make([]entry, len(e.handlers[event]))
	copy(entries, e.handlers[event])
	e.mu.RUnlock()

	for i := range entries {
		entries[i].fn(payload)
	}
}
