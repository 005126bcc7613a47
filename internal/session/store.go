package session

import (
	"context"
	"sync"
	"time"

	"github.com/pavelc4/clipnova-tg-bot/internal/apperr"
	"github.com/pavelc4/clipnova-tg-bot/pkg/logger"
)

// Store holds at most one live session per user. Sessions handed out by
// Get are shared; callers mutate them only through Update and Transition.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
		now:      time.Now,
	}
}

// Put installs s as the user's session, replacing any previous one.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	st.sessions[s.UserID] = s
}

func (st *Store) Get(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[userID]
	return s, ok
}

// Delete removes the user's session and reports whether one existed.
func (st *Store) Delete(userID int64) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.sessions[userID]
	delete(st.sessions, userID)
	return ok
}

// Release removes s only if it is still the user's current session. A
// session replaced by a newer link is left alone.
func (st *Store) Release(s *Session) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.sessions[s.UserID] != s {
		return false
	}
	delete(st.sessions, s.UserID)
	return true
}

// Current reports whether s is still the user's live session.
func (st *Store) Current(s *Session) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[s.UserID] == s
}

// Update runs fn on the user's session under the store lock.
func (st *Store) Update(userID int64, fn func(s *Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[userID]
	if !ok {
		return nil, apperr.New(apperr.KindSessionExpired, "update", nil)
	}
	if err := fn(s); err != nil {
		return s, err
	}
	s.UpdatedAt = st.now()
	return s, nil
}

// Transition moves the user's session from one stage to another. It fails
// with KindSessionExpired when there is no session and KindBusy when the
// session is in a different stage.
func (st *Store) Transition(userID int64, from, to Stage) (*Session, error) {
	return st.Update(userID, func(s *Session) error {
		if s.Stage != from {
			if s.Stage == Downloading {
				return apperr.New(apperr.KindBusy, "transition", nil)
			}
			return apperr.New(apperr.KindSessionExpired, "transition", nil)
		}
		s.Stage = to
		return nil
	})
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Evict drops sessions idle for longer than ttl. Downloading sessions are
// never evicted; the download owns them until it finishes.
func (st *Store) Evict(ttl time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-ttl)
	evicted := 0
	for id, s := range st.sessions {
		if s.Stage == Downloading || s.UpdatedAt.After(cutoff) {
			continue
		}
		delete(st.sessions, id)
		evicted++
	}
	return evicted
}

// RunEviction calls Evict every ttl/2 until ctx is done.
func (st *Store) RunEviction(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Evict(ttl); n > 0 {
				logger.Info("Evicted idle sessions", "count", n, "remaining", st.Len())
			}
		}
	}
}
