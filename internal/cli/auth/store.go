package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	service = "pcadmin-cli"
)

// Store persists a token pair. Implementations must write both tokens
// as a single unit. The interface lets tests swap out the keyring.
type Store interface {
	Load() (Tokens, error)
	Save(tokens Tokens) error
	Clear() error
}

// KeyringStore keeps the session for one environment in the OS
// keychain/credential manager
type KeyringStore struct {
	environment string
}

// NewKeyringStore returns a store for the given environment alias or URL
func NewKeyringStore(environment string) *KeyringStore {
	return &KeyringStore{environment: environment}
}

// getKeyringKey returns a unique key for storing sessions per environment
func (k *KeyringStore) getKeyringKey() string {
	return fmt.Sprintf("session-%s", k.environment)
}

// Load retrieves the session; a missing entry is an empty session
func (k *KeyringStore) Load() (Tokens, error) {
	raw, err := keyring.Get(service, k.getKeyringKey())
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Tokens{}, nil
		}
		return Tokens{}, fmt.Errorf("failed to load session: %w", err)
	}

	var tokens Tokens
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		// A corrupt entry is treated as logged out rather than fatal
		return Tokens{}, nil
	}
	if !tokens.Complete() {
		return Tokens{}, nil
	}
	return tokens, nil
}

// Save persists both tokens in one keychain entry
func (k *KeyringStore) Save(tokens Tokens) error {
	data, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := keyring.Set(service, k.getKeyringKey(), string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the session from the keychain
func (k *KeyringStore) Clear() error {
	if err := keyring.Delete(service, k.getKeyringKey()); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in process memory only
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
	saves  int
}

// NewMemoryStore returns a store seeded with tokens
func NewMemoryStore(tokens Tokens) *MemoryStore {
	return &MemoryStore{tokens: tokens}
}

func (m *MemoryStore) Load() (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *MemoryStore) Save(tokens Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	m.saves++
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	return nil
}

// Saves returns how many times a pair was written
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
