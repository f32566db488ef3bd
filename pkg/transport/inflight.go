package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks in-flight generate requests for explicit
// cancellation. It maps request IDs to their cancel functions, allowing
// a DELETE request to stop a generation that is still running or waiting
// out a retry backoff.
//
// An ID identifies at most one running request. All methods are safe for
// concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[string]context.CancelFunc
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[string]context.CancelFunc),
	}
}

// Register adds an in-flight request to the registry. It returns false,
// leaving the registry untouched, when id already belongs to a running
// request.
func (r *InFlightRegistry) Register(id string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = cancel
	return true
}

// Cancel cancels an in-flight request by calling its cancel function.
// Returns true if the request was found and cancelled, false if the ID
// was not registered (either already completed or never existed).
func (r *InFlightRegistry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cancel, ok := r.entries[id]
	if !ok {
		return false
	}
	cancel()
	delete(r.entries, id)
	return true
}

// CancelAll cancels every registered request and empties the registry.
// It returns the number of requests cancelled.
func (r *InFlightRegistry) CancelAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	for id, cancel := range r.entries {
		cancel()
		delete(r.entries, id)
	}
	return n
}

// Remove removes a request from the registry without cancelling it.
// Called when a generation completes normally.
func (r *InFlightRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Len returns the number of registered requests.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
