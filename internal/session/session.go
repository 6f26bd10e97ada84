package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/knowledge-engine/bookrec/internal/metrics"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Session is the per-user display state. ShowRandom stays on until the user
// toggles it off, like a sticky button.
type Session struct {
	ID            uuid.UUID `json:"id" yaml:"id"`
	ShowRandom    bool      `json:"show_random" yaml:"show_random"`
	RandomLimit   int       `json:"random_limit" yaml:"random_limit"`
	SelectedGenre string    `json:"selected_genre,omitempty" yaml:"selected_genre,omitempty"`
	SelectedTitle string    `json:"selected_title,omitempty" yaml:"selected_title,omitempty"`
	LastQuery     string    `json:"last_query,omitempty" yaml:"last_query,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	LastSeen      time.Time `json:"last_seen" yaml:"last_seen"`
}

// New returns a fresh session.
func New(randomLimit int) *Session {
	now := time.Now()
	return &Session{
		ID:          uuid.New(),
		RandomLimit: randomLimit,
		CreatedAt:   now,
		LastSeen:    now,
	}
}

// Store keeps sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		now:      time.Now,
	}
}

// Create adds a new session and returns a copy of it.
func (s *Store) Create(randomLimit int) Session {
	sess := New(randomLimit)
	sess.CreatedAt = s.now()
	sess.LastSeen = sess.CreatedAt

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	return *sess
}

// Get returns a copy of the session and marks it as seen.
func (s *Store) Get(id uuid.UUID) (Session, error) {
	return s.Update(id, func(*Session) {})
}

// Update applies fn to the session under the store lock and returns a copy
// of the result.
func (s *Store) Update(id uuid.UUID, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	fn(sess)
	sess.LastSeen = s.now()
	return *sess, nil
}

// ToggleRandom flips the sticky random flag.
func (s *Store) ToggleRandom(id uuid.UUID) (Session, error) {
	return s.Update(id, func(sess *Session) {
		sess.ShowRandom = !sess.ShowRandom
	})
}

// Delete removes a session.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	metrics.SessionsActive.Set(float64(n))
}

// Expire drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (s *Store) Expire(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}
