package service

import (
	"sync"
	"time"
)

// DefaultEndedTTL is how long a finished quiz is remembered for a key.
const DefaultEndedTTL = 30 * time.Minute

// SessionStore keeps at most one session per key. It only guards the map itself;
// per-key serialization is the Engine's job.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[SessionKey]*QuizSession
	ended     map[SessionKey]time.Time
	endedTTL  time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type StoreOption func(*SessionStore)

// WithEndedTTL bounds how long ended markers are kept.
func WithEndedTTL(ttl time.Duration) StoreOption {
	return func(s *SessionStore) {
		if ttl > 0 {
			s.endedTTL = ttl
		}
	}
}

func NewSessionStore(opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		sessions: make(map[SessionKey]*QuizSession),
		ended:    make(map[SessionKey]time.Time),
		endedTTL: DefaultEndedTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

// Put replaces whatever is stored for the key.
func (s *SessionStore) Put(key SessionKey, session *QuizSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[key] = session
	delete(s.ended, key)
}

func (s *SessionStore) Get(key SessionKey) (*QuizSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[key]
	return session, ok
}

// Delete removes the session and any ended marker. It reports whether a session existed.
func (s *SessionStore) Delete(key SessionKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[key]
	delete(s.sessions, key)
	delete(s.ended, key)
	return ok
}

// MarkEnded removes an exhausted session and remembers that the key finished a quiz.
// Expired markers of other keys are swept at most once per TTL.
func (s *SessionStore) MarkEnded(key SessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	delete(s.sessions, key)
	s.ended[key] = now

	if now.Sub(s.lastSweep) < s.endedTTL {
		return
	}
	for k, at := range s.ended {
		if now.Sub(at) >= s.endedTTL {
			delete(s.ended, k)
		}
	}
	s.lastSweep = now
}

// Ended reports whether the key finished a quiz within the TTL.
func (s *SessionStore) Ended(key SessionKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at, ok := s.ended[key]
	return ok && s.now().Sub(at) < s.endedTTL
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

func (s *SessionStore) endedLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ended)
}
