package auth

import (
	"fmt"
	"sync"
)

// Tokens is the access/refresh pair issued by the API.
// The zero value means "not authenticated".
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// IsZero reports whether no token is held.
func (t Tokens) IsZero() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Complete reports whether both tokens are present.
func (t Tokens) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// Session is the in-process view of the persisted token pair.
// Every mutation replaces both tokens or clears both, and is written
// through to the underlying Store before it becomes visible.
type Session struct {
	mu      sync.Mutex
	store   Store
	current Tokens
	loaded  bool
}

// NewSession creates a session backed by store. The stored pair is
// loaded on first use.
func NewSession(store Store) *Session {
	return &Session{store: store}
}

func (s *Session) load() error {
	if s.loaded {
		return nil
	}
	tokens, err := s.store.Load()
	if err != nil {
		return err
	}
	s.current = tokens
	s.loaded = true
	return nil
}

// Current returns the token pair currently held.
func (s *Session) Current() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return Tokens{}, err
	}
	return s.current, nil
}

// Replace stores a new pair. Both tokens must be present.
func (s *Session) Replace(tokens Tokens) error {
	if !tokens.Complete() {
		return fmt.Errorf("incomplete token pair")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(tokens); err != nil {
		return err
	}
	s.current = tokens
	s.loaded = true
	return nil
}

// CompareAndSwap replaces the pair only if the session still holds old.
// It returns false without touching storage when the session has moved on.
func (s *Session) CompareAndSwap(old, tokens Tokens) (bool, error) {
	if !tokens.Complete() {
		return false, fmt.Errorf("incomplete token pair")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return false, err
	}
	if s.current != old {
		return false, nil
	}
	if err := s.store.Save(tokens); err != nil {
		return false, err
	}
	s.current = tokens
	return true, nil
}

// Clear drops both tokens.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(); err != nil {
		return err
	}
	s.current = Tokens{}
	s.loaded = true
	return nil
}
