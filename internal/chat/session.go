package chat

import (
	"sync"
	"time"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"github.com/google/uuid"
)

// Session is one conversation's history.
type Session struct {
	ID string

	mu       sync.RWMutex
	turns    []agent.Message
	lastUsed time.Time
}

// NewSession returns an empty session with a random ID.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), lastUsed: time.Now()}
}

// Append adds a turn.
func (s *Session) Append(role agent.Role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, agent.Message{Role: role, Content: content})
	s.lastUsed = time.Now()
}

// Messages returns a copy of the history.
func (s *Session) Messages() []agent.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]agent.Message, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Clear drops the history.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
	s.lastUsed = time.Now()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastUsed)
}

// SessionStore keeps sessions in memory, keyed by ID.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// idleTTL evicts sessions unused for longer; zero keeps them forever.
	idleTTL time.Duration
}

// NewSessionStore returns an empty store.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session), idleTTL: idleTTL}
}

// Get returns the session for id, creating a new one when id is unknown or
// empty. The returned session's ID may differ from id.
func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictLocked(time.Now())

	if s, ok := st.sessions[id]; ok && id != "" {
		return s
	}
	s := NewSession()
	st.sessions[s.ID] = s
	return s
}

// Lookup returns the session for id without creating one.
func (st *SessionStore) Lookup(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Delete removes a session.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) evictLocked(now time.Time) {
	if st.idleTTL <= 0 {
		return
	}
	for id, s := range st.sessions {
		if s.idleSince(now) > st.idleTTL {
			delete(st.sessions, id)
		}
	}
}
