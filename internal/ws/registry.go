package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sparrowchat/sparrow/internal/observability"
)

// Registry maps each user to at most one live session. It is owned by the
// server process with an explicit lifecycle: created at startup, drained
// by CloseAll at shutdown, and mutated only through Add/Remove.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onChange func()
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// SetOnChange registers a callback fired after every mutation, outside
// the registry lock. The presence broadcaster hangs off this.
func (r *Registry) SetOnChange(fn func()) {
	r.onChange = fn
}

// Add registers a session for its user. Last connect wins: any prior
// session for the same user is closed and replaced.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	old := r.sessions[s.UserID]
	r.sessions[s.UserID] = s
	r.mu.Unlock()

	if old != nil {
		observability.GetLogger(context.Background()).Info("registry: replacing existing connection",
			zap.String("user_id", s.UserID),
			zap.String("old_sid", old.ID),
			zap.String("new_sid", s.ID))

		// Closed outside the lock: CloseWithReason writes a control frame
		// and a stalled peer must not stall the whole registry. The old
		// session's read loop calls Remove later, which the ID guard
		// there ignores.
		old.CloseWithReason(4000, "session_replaced")
	}

	r.notify()
}

// Remove unregisters a session only if it is still the one stored for
// the user, reporting whether it did. A stale disconnect racing a newer
// connect must not evict the replacement, and its caller must not tear
// down shared per-user state either.
func (r *Registry) Remove(s *Session) bool {
	r.mu.Lock()

	current, ok := r.sessions[s.UserID]
	if !ok || current.ID != s.ID {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.UserID)
	r.mu.Unlock()

	r.notify()
	return true
}

// Lookup returns the live session for a user, or nil if offline.
func (r *Registry) Lookup(userID string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[userID]
}

// OnlineUsers returns the ids of every connected user.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		users = append(users, id)
	}
	return users
}

// Sessions returns every live session.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		s.Close()
	}
	r.sessions = make(map[string]*Session)
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}
