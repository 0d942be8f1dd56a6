// ABOUTME: Session store holding the bearer token and the signed-in user
// ABOUTME: Writes through to durable storage and notifies subscribers on change

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Role is the privilege level the server assigned to an account
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a role the server issues
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the identity record returned by the server at login
type User struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// ErrEmptyToken is returned by Set when asked to store a blank token
var ErrEmptyToken = errors.New("session token is empty")

// Store is the current authentication state. It is constructed once at
// startup, restored from storage, and passed to the API client, the access
// guard, and the UI.
type Store struct {
	storage Storage

	mu        sync.RWMutex
	token     string
	user      *User
	restored  bool
	listeners []func()
}

// New creates an empty, not yet restored store over storage
func New(storage Storage) *Store {
	return &Store{storage: storage}
}

// Restore loads the persisted token and user. A user record that cannot be
// parsed wipes storage and leaves the session empty. The token is not
// validated here; the first API call discovers whether it still works.
func (s *Store) Restore() error {
	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		slog.Warn("Session storage unreadable, starting signed out", "error", err)
		s.reset()
		return s.storage.Remove(TokenKey, UserKey)
	}

	rawUser, hasUser, err := s.storage.Get(UserKey)
	if err != nil {
		return fmt.Errorf("failed to read session user: %w", err)
	}

	var user *User
	if hasUser && rawUser != "" {
		var u User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			slog.Warn("Persisted session user is corrupt, clearing session", "error", err)
			s.reset()
			return s.storage.Remove(TokenKey, UserKey)
		}
		user = &u
	}

	s.mu.Lock()
	if hasToken && token != "" {
		s.token = token
		s.user = user
	} else {
		s.token = ""
		s.user = nil
	}
	s.restored = true
	s.mu.Unlock()

	slog.Debug("Session restored", "authenticated", s.IsAuthenticated())
	s.notify()
	return nil
}

// Set stores a new token and user and persists both. If the user cannot be
// written the previous token is put back, so storage never pairs the new
// token with a stale user.
func (s *Store) Set(token string, user *User) error {
	if token == "" {
		return ErrEmptyToken
	}

	var raw []byte
	if user != nil {
		var err error
		if raw, err = json.Marshal(user); err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
	}

	prevToken, hadToken, _ := s.storage.Get(TokenKey)
	if err := s.storage.Set(TokenKey, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	var userErr error
	if user != nil {
		userErr = s.storage.Set(UserKey, string(raw))
	} else {
		userErr = s.storage.Remove(UserKey)
	}
	if userErr != nil {
		s.restoreToken(prevToken, hadToken)
		return fmt.Errorf("failed to persist user: %w", userErr)
	}

	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	s.restored = true
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Store) restoreToken(prev string, had bool) {
	var err error
	if had {
		err = s.storage.Set(TokenKey, prev)
	} else {
		err = s.storage.Remove(TokenKey)
	}
	if err != nil {
		slog.Warn("Failed to roll back session token", "error", err)
	}
}

// Clear drops the token and user from memory and storage. The in-memory
// state is cleared even when storage fails.
func (s *Store) Clear() error {
	s.reset()
	err := s.storage.Remove(TokenKey, UserKey)
	s.notify()
	if err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

func (s *Store) reset() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.restored = true
	s.mu.Unlock()
}

// OnChange registers fn to run after every Restore, Set, and Clear
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// Token returns the bearer token, or "" when signed out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Role returns the server-assigned role. A session without a user record, or
// with a role the client does not recognize, gets the least privileged role.
func (s *Store) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || !s.user.Role.Valid() {
		return RoleUser
	}
	return s.user.Role
}

// Restored reports whether Restore (or any mutation) has run
func (s *Store) Restored() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.restored
}

// IsAuthenticated is true exactly when a token is present
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// IsAdmin is true when the server assigned the admin role
func (s *Store) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role() == RoleAdmin
}

// ExpiresAt returns the token expiry from its claims, if it has one
func (s *Store) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	c, err := ParseClaims(token)
	if err != nil || c.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}
