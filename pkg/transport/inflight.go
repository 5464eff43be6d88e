package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks in-flight chat acquisitions for explicit
// cancellation. It maps request IDs to their cancel functions and to the
// caller that started them, so a DELETE request can only stop a fallback
// chain its own caller is running.
//
// All methods are safe for concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[string]inflightEntry
}

type inflightEntry struct {
	owner  string
	cancel context.CancelFunc
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[string]inflightEntry),
	}
}

// Register adds an in-flight request owned by owner. It reports false,
// and registers nothing, when the ID is already taken by another live
// request.
func (r *InFlightRegistry) Register(id, owner string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return false
	}
	r.entries[id] = inflightEntry{owner: owner, cancel: cancel}
	return true
}

// Cancel cancels the request registered under id when owner started it.
// It returns false when the ID is unknown, already completed, or owned
// by someone else; the last case is indistinguishable from the first to
// the caller.
func (r *InFlightRegistry) Cancel(id, owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.owner != owner {
		return false
	}
	e.cancel()
	delete(r.entries, id)
	return true
}

// Remove removes a request from the registry without cancelling it.
// Called when an acquisition completes normally.
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
