package application

import (
	"testing"
	"time"

	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreExpiresSessions(t *testing.T) {
	store := NewSessionStore(time.Hour)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sess, err := store.Create(domain.User{Username: "alice", Role: domain.RoleMechanic})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)
	assert.False(t, sess.IsManager())

	now = now.Add(59 * time.Minute)
	_, err = store.Get(sess.Token)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStoreTokensAreUniqueAndHashed(t *testing.T) {
	store := NewSessionStore(0)

	a, err := store.Create(domain.User{Username: "a", Role: domain.RoleManager})
	require.NoError(t, err)
	b, err := store.Create(domain.User{Username: "b", Role: domain.RoleManager})
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)

	store.mu.Lock()
	_, plainKey := store.sessions[a.Token]
	_, hashedKey := store.sessions[hashToken(a.Token)]
	store.mu.Unlock()
	assert.False(t, plainKey)
	assert.True(t, hashedKey)

	store.Delete(a.Token)
	_, err = store.Get(a.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = store.Get(b.Token)
	assert.NoError(t, err)

	_, err = store.Get("")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
