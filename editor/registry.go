package editor

import "sync"

// Registry keeps the open sessions of a server. Calls on one session are
// serialized; different sessions proceed in parallel.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu sync.Mutex
	s  *Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// Open registers s under its ID.
func (r *Registry) Open(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &entry{s: s}
}

// Do runs fn with exclusive access to the session with id.
func (r *Registry) Do(id string, fn func(*Session) error) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.s)
}

// Close forgets the session with id and reports whether it was open.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
