package memory

import (
	"sync"

	"quizmaster/internal/quiz"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// It holds at most one live session.
type SessionStore struct {
	mu      sync.RWMutex
	current *quiz.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Current() (*quiz.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

func (s *SessionStore) Replace(session *quiz.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session
}

func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
