package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

var pair = Tokens{AccessToken: "access-1", RefreshToken: "refresh-1"}

type failingStore struct{ MemoryStore }

func (f *failingStore) Save(Tokens) error { return errors.New("keychain locked") }

func TestSession_LoadsStoredPairLazily(t *testing.T) {
	store := NewMemoryStore(pair)
	session := NewSession(store)

	got, err := session.Current()
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestSession_ReplaceRejectsIncompletePair(t *testing.T) {
	store := NewMemoryStore(pair)
	session := NewSession(store)

	err := session.Replace(Tokens{AccessToken: "only-access"})
	require.Error(t, err)

	got, _ := session.Current()
	assert.Equal(t, pair, got, "session must not be half-updated")
	assert.Equal(t, 0, store.Saves())
}

func TestSession_CompareAndSwap(t *testing.T) {
	store := NewMemoryStore(pair)
	session := NewSession(store)
	next := Tokens{AccessToken: "access-2", RefreshToken: "refresh-2"}

	swapped, err := session.CompareAndSwap(pair, next)
	require.NoError(t, err)
	assert.True(t, swapped)

	stale := Tokens{AccessToken: "access-3", RefreshToken: "refresh-3"}
	swapped, err = session.CompareAndSwap(pair, stale)
	require.NoError(t, err)
	assert.False(t, swapped, "swap from a superseded pair must be refused")

	got, _ := session.Current()
	assert.Equal(t, next, got)
	persisted, _ := store.Load()
	assert.Equal(t, next, persisted)
}

func TestSession_StoreFailureLeavesPairUntouched(t *testing.T) {
	store := &failingStore{MemoryStore: MemoryStore{tokens: pair}}
	session := NewSession(store)

	err := session.Replace(Tokens{AccessToken: "a", RefreshToken: "r"})
	require.Error(t, err)

	got, err := session.Current()
	require.NoError(t, err)
	assert.Equal(t, pair, got)
}

func TestSession_Clear(t *testing.T) {
	store := NewMemoryStore(pair)
	session := NewSession(store)

	require.NoError(t, session.Clear())

	got, _ := session.Current()
	assert.True(t, got.IsZero())
	persisted, _ := store.Load()
	assert.True(t, persisted.IsZero())
}

func TestKeyringStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	store := NewKeyringStore("staging")

	empty, err := store.Load()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	require.NoError(t, store.Save(pair))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, pair, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is not an error")
	got, err = store.Load()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestKeyringStore_EnvironmentsAreIsolated(t *testing.T) {
	keyring.MockInit()
	production := NewKeyringStore("production")
	staging := NewKeyringStore("staging")

	require.NoError(t, production.Save(pair))

	got, err := staging.Load()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestKeyringStore_CorruptEntryIsLoggedOut(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(service, "session-broken", "{not json"))

	got, err := NewKeyringStore("broken").Load()
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}
