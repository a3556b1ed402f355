// Package session owns the persisted authentication state of the client.
//
// Every command invocation is a fresh process; the only thing that makes the
// user "logged in" across invocations is the state kept here. The store is
// the single piece of code allowed to touch the underlying records — all
// other packages go through its operations.
package session

import (
	"errors"
	"fmt"

	"github.com/licomnaklavy/edu-platform/internal/domain"
	"github.com/licomnaklavy/edu-platform/internal/storage/local"
)

// Backend is the durable key/value storage behind the store. The production
// implementation is storage/local.Store; tests inject an in-memory one.
type Backend interface {
	Save(collection, id string, data any) error
	Load(collection, id string, data any) error
	Delete(collection, id string) error
}

// ErrBackendNotFound is the sentinel the backend must return for missing
// records. It aliases local.ErrNotFound so the file store satisfies Backend
// without an adapter.
var ErrBackendNotFound = local.ErrNotFound

const (
	collection = "session"

	recordToken = "token"
	recordUser  = "user"
	recordFlag  = "logged_in"
)

// Store is the single source of truth for session validity.
//
// The session is valid only when the logged-in flag, the token and the cached
// user are all present. The three records are written separately on purpose:
// any partially written or corrupted state fails closed and reads as
// "not logged in".
type Store struct {
	backend Backend
}

// NewStore creates a session store on top of a storage backend
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// ReadToken returns the persisted bearer token, if any. The token is opaque;
// no format validation is performed.
func (s *Store) ReadToken() (string, bool) {
	var token string
	if err := s.backend.Load(collection, recordToken, &token); err != nil {
		return "", false
	}
	if token == "" {
		return "", false
	}
	return token, true
}

// ReadUser returns the cached user snapshot, if any
func (s *Store) ReadUser() (*domain.User, bool) {
	var user domain.User
	if err := s.backend.Load(collection, recordUser, &user); err != nil {
		return nil, false
	}
	return &user, true
}

// WriteSession persists a freshly authenticated session: token, user and the
// logged-in flag, in that order. The flag is written last so that a session
// interrupted mid-write never reads as valid.
func (s *Store) WriteSession(token string, user *domain.User) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if user == nil {
		return errors.New("nil session user")
	}

	if err := s.backend.Save(collection, recordToken, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.backend.Save(collection, recordUser, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	if err := s.backend.Save(collection, recordFlag, true); err != nil {
		return fmt.Errorf("persist login flag: %w", err)
	}
	return nil
}

// UpdateUser overwrites the cached user snapshot without touching the token
// or the logged-in flag. Used after profile edits and identity
// re-verification.
func (s *Store) UpdateUser(user *domain.User) error {
	if user == nil {
		return errors.New("nil session user")
	}
	if err := s.backend.Save(collection, recordUser, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

// IsValid reports whether the session grants access: flag set AND token
// present AND user present. Any other combination — stale token without a
// flag, flag without a user — is treated as not logged in.
func (s *Store) IsValid() bool {
	var flag bool
	if err := s.backend.Load(collection, recordFlag, &flag); err != nil || !flag {
		return false
	}
	if _, ok := s.ReadToken(); !ok {
		return false
	}
	if _, ok := s.ReadUser(); !ok {
		return false
	}
	return true
}

// Clear removes the token, the user and the flag together. Idempotent: it is
// safe to call on an already cleared (or never written) session, and safe to
// call concurrently from several in-flight requests that all hit a 401.
func (s *Store) Clear() error {
	var firstErr error
	for _, id := range []string{recordFlag, recordToken, recordUser} {
		if err := s.backend.Delete(collection, id); err != nil && !errors.Is(err, ErrBackendNotFound) {
			if firstErr == nil {
				firstErr = fmt.Errorf("clear session record %s: %w", id, err)
			}
		}
	}
	return firstErr
}
