package interview

import (
	"sync"

	"github.com/google/uuid"
)

// Registry owns the set of live sessions, keyed by connection identity. It
// is the sole point of shared mutable state; all business logic stays in the
// orchestrator, the registry only stores.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Create registers a fresh session under a new connection id.
func (r *Registry) Create() *Session {
	return r.CreateWithID(uuid.NewString())
}

// CreateWithID registers a fresh session under the caller's connection id,
// replacing any previous session for that id.
func (r *Registry) CreateWithID(id string) *Session {
	s := NewSession(id)
	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s
}

// Get looks up a live session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove discards a session. Removing an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
