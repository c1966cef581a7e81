package storage

import (
	"log/slog"
	"testing"

	"chat-client/domain"
	"chat-client/errors"

	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *CredentialStore {
	t.Helper()
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCredentialStore(db, slog.Default())
}

func identity() domain.Identity {
	return domain.Identity{
		UserID:      "alice",
		DisplayName: "Alice",
		Credentials: domain.Credentials{Username: "alice", Password: "s3cret"},
	}
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	store := newStore(t)

	// Given a saved session
	require.NoError(t, store.SaveSession(identity()))

	// When it is loaded back
	loaded, err := store.LoadSession()

	// Then the identity survives the seal round trip
	require.NoError(t, err)
	require.Equal(t, identity(), loaded)
}

func TestCredentialStore_Empty(t *testing.T) {
	store := newStore(t)

	_, err := store.LoadSession()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	_, err = store.LoadToken()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestCredentialStore_ClearSession(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.SaveSession(identity()))
	require.NoError(t, store.SaveToken("some.jwt.token"))

	require.NoError(t, store.ClearSession())

	_, err := store.LoadSession()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
	_, err = store.LoadToken()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestCredentialStore_SealKeyStable(t *testing.T) {
	store := newStore(t)

	// The seal key is per installation and must not change between calls,
	// otherwise stored credentials and restore tokens become unreadable.
	first, err := store.SealKey()
	require.NoError(t, err)
	second, err := store.SealKey()
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, 32)
}

func TestCredentialStore_TokenRoundTrip(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.SaveToken("header.payload.signature"))

	token, err := store.LoadToken()
	require.NoError(t, err)
	require.Equal(t, "header.payload.signature", token)
}
