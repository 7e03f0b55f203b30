package ragchat

import (
	"sync"
)

// Turn is a single question/answer exchange kept in conversation memory.
type Turn struct {
	Question string
	Answer   string
}

// session holds the in-memory conversation window for one user. Access is
// serialised so concurrent chat requests by the same user cannot interleave
// their history.
type session struct {
	sync.Mutex
	turns []Turn
	limit int
}

func (s *session) History() []Turn {
	history := make([]Turn, len(s.turns))
	copy(history, s.turns)
	return history
}

func (s *session) Append(turn Turn) {
	s.turns = append(s.turns, turn)
	if s.limit > 0 && len(s.turns) > s.limit {
		s.turns = s.turns[len(s.turns)-s.limit:]
	}
}

// sessionRegistry keeps per-user sessions, created lazily on first use.
type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	limit    int
}

func newSessionRegistry(limit int) *sessionRegistry {
	return &sessionRegistry{
		sessions: map[string]*session{},
		limit:    limit,
	}
}

func (r *sessionRegistry) Get(userID string) *session {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s = &session{limit: r.limit}
	r.sessions[userID] = s
	return s
}
