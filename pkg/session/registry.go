package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleTTL is how long an untouched session stays in a registry.
const DefaultIdleTTL = 2 * time.Hour

// Registry keeps sessions by ID. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	s    *Session
	seen time.Time
}

// NewRegistry creates a registry that evicts sessions idle for longer than
// ttl during Cleanup. A ttl of zero selects DefaultIdleTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &Registry{sessions: make(map[uuid.UUID]*entry), ttl: ttl, now: time.Now}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = &entry{s: s, seen: r.now()}
}

// Get returns a session and marks it as used.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, classify(ErrNotFound)
	}
	e.seen = r.now()
	return e.s, nil
}

// Lookup parses id and returns the session.
func (r *Registry) Lookup(id string) (*Session, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, classify(ErrNotFound)
	}
	return r.Get(u)
}

// Delete removes a session.
func (r *Registry) Delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns summaries of all sessions.
func (r *Registry) List() []Info {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, e := range r.sessions {
		sessions = append(sessions, e.s)
	}
	r.mu.RUnlock()

	out := make([]Info, len(sessions))
	for i, s := range sessions {
		out[i] = s.Info()
	}
	return out
}

// Cleanup removes idle sessions and returns how many were removed.
func (r *Registry) Cleanup(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	n := 0
	for id, e := range r.sessions {
		if e.seen.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run calls Cleanup periodically until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Cleanup(ctx)
		}
	}
}
