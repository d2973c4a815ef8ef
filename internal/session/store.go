// Package session holds the process-wide authenticated-user state with
// explicit expiry. Two checks guard authenticated actions:
//
//   - Local expiry is deterministic and authoritative: it is evaluated
//     synchronously (no suspension) before any authenticated action, and an
//     expired session is treated as absent. No remote call is made for an
//     expired session.
//   - Remote validation is advisory: only a definitive unauthorized response
//     clears the session; connectivity errors leave it untouched. Fail open
//     on the remote check, fail closed on the local clock.
//
// Sessions are never silently refreshed.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/averios/go-style-studio/internal/domain"
)

// ErrUnauthorized is the definitive remote-invalidation signal. Validator
// implementations return it (possibly wrapped) only when the backend
// explicitly rejected the token, never for transport failures.
var ErrUnauthorized = errors.New("session unauthorized")

// Validator checks a token against the backend.
type Validator interface {
	Validate(ctx context.Context, token string) error
}

// Store is the single process-wide session slot. It is safe for concurrent
// use.
type Store struct {
	validator Validator
	ttl       time.Duration
	now       func() time.Time

	mu  sync.Mutex
	cur *domain.SessionState
}

// NewStore constructs a Store with the given fixed TTL. validator may be nil
// when no remote validation backend is configured.
func NewStore(validator Validator, ttl time.Duration) *Store {
	return &Store{validator: validator, ttl: ttl, now: time.Now}
}

// Establish creates the session on successful login, replacing any previous
// one. ExpiresAt is IssuedAt plus the fixed TTL.
func (s *Store) Establish(token, userID, displayName, avatarRef string) domain.SessionState {
	issued := s.now().UTC()
	st := domain.SessionState{
		Token:       token,
		UserID:      userID,
		DisplayName: displayName,
		AvatarRef:   avatarRef,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(s.ttl),
	}

	s.mu.Lock()
	s.cur = &st
	s.mu.Unlock()
	return st
}

// Current returns the session if present and not locally expired. An expired
// session is treated as absent (and dropped from the slot).
func (s *Store) Current() (domain.SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return domain.SessionState{}, false
	}
	if s.cur.ExpiredAt(s.now()) {
		s.cur = nil
		return domain.SessionState{}, false
	}
	return *s.cur, true
}

// Expire clears the slot if the session is past local expiry and reports
// whether the trip happened on this call. Callers use the report to run the
// forced sign-out composite exactly once.
func (s *Store) Expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil || !s.cur.ExpiredAt(s.now()) {
		return false
	}
	s.cur = nil
	return true
}

// ValidateRemote performs the best-effort backend check of an unexpired
// session. Only ErrUnauthorized clears the slot (and is returned); any other
// validator error leaves the session untouched and is returned for logging.
// A locally absent or expired session is a no-op.
func (s *Store) ValidateRemote(ctx context.Context) error {
	st, ok := s.Current()
	if !ok || s.validator == nil {
		return nil
	}
	err := s.validator.Validate(ctx, st.Token)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnauthorized) {
		s.Clear()
		return ErrUnauthorized
	}
	// Connectivity or server error: not an invalidation.
	return err
}

// Clear destroys the session. Used by logout and confirmed invalidation.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
}
