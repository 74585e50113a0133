package consumer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewSession(t *testing.T) {
	session, err := NewSession("sub-1", "alice@example.com", "Alice", time.Hour)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "sub-1", session.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	other, err := NewSession("sub-1", "alice@example.com", "Alice", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, other.ID)
}

func Test_MemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	session, err := NewSession("sub-1", "alice@example.com", "Alice", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, session))

	found, err := store.Find(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Find(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func Test_MemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	session, err := NewSession("sub-1", "alice@example.com", "Alice", -time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, session))

	_, err = store.Find(ctx, session.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func Test_MemorySessionStore_Unknown(t *testing.T) {
	_, err := NewMemorySessionStore().Find(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}
