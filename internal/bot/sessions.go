package bot

import (
	"sync"

	"github.com/m3rciful/restobot/internal/flow"
)

// Sessions keeps one conversation session per user in memory. Sessions do not
// survive a restart; the workflow simply begins from idle again.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[int64]flow.Session
	locks    map[int64]*sync.Mutex
}

// NewSessions constructs an empty in-memory session store.
func NewSessions() *Sessions {
	return &Sessions{
		sessions: make(map[int64]flow.Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Get returns the session for userID, or a fresh idle session if none exists.
func (s *Sessions) Get(userID int64) flow.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	return flow.NewSession()
}

// Put stores the session for userID.
func (s *Sessions) Put(userID int64, sess flow.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

// Reset drops the stored session so the user starts from idle.
func (s *Sessions) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Lock returns the per-user mutex used to serialize event handling. Events
// from different users proceed concurrently; two events from the same user
// never interleave.
func (s *Sessions) Lock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}
