package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizmaster/internal/quiz"
)

// LiveSessionKey marks that a quiz is being taken; its value is the question set id.
const LiveSessionKey = "quiz:session:live"

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// The session itself stays in process so transitions never round-trip. Redis
// carries LiveSessionKey as an informational marker for other tools; its ttl is
// refreshed on access, and Current never consults it.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu      sync.RWMutex
	current *quiz.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Current() (*quiz.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	// best-effort refresh
	_ = s.client.Expire(context.Background(), LiveSessionKey, s.ttl).Err()
	return s.current, true
}

func (s *SessionStore) Replace(session *quiz.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session
	_ = s.client.Set(context.Background(), LiveSessionKey, session.QuestionSet().ID, s.ttl).Err()
}

func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	_ = s.client.Del(context.Background(), LiveSessionKey).Err()
}
