package core

import "sync"

// Registry tracks the set of currently open connections. It exists only for
// fan-out; nothing in it is persisted. All mutation happens on the hub's
// dispatch loop, the mutex makes iteration safe for out-of-loop readers.
type Registry struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[*Conn]struct{}),
	}
}

// Add inserts a connection. Returns true if newly added.
func (r *Registry) Add(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[c]; exists {
		return false
	}
	r.conns[c] = struct{}{}
	return true
}

// Remove deletes a connection. Returns true if removed.
func (r *Registry) Remove(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[c]; !exists {
		return false
	}
	delete(r.conns, c)
	return true
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Broadcast delivers an event to every registered connection. Deliveries are
// failure-isolated: a connection with a full buffer is skipped rather than
// stalling the rest. Returns how many connections were skipped.
func (r *Registry) Broadcast(ev *Event) (dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for conn := range r.conns {
		if !conn.trySend(ev) {
			dropped++
		}
	}
	return dropped
}
