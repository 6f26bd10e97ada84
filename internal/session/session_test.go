package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knowledge-engine/bookrec/internal/session"
)

func TestStore_CreateGet(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(10)

	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.False(t, sess.ShowRandom)
	assert.Equal(t, 10, sess.RandomLimit)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(uuid.New())
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStore_ToggleRandomIsSticky(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(10)

	on, err := store.ToggleRandom(sess.ID)
	require.NoError(t, err)
	assert.True(t, on.ShowRandom)

	// Unrelated updates leave the flag alone.
	got, err := store.Update(sess.ID, func(s *session.Session) { s.LastQuery = "dune" })
	require.NoError(t, err)
	assert.True(t, got.ShowRandom)
	assert.Equal(t, "dune", got.LastQuery)

	off, err := store.ToggleRandom(sess.ID)
	require.NoError(t, err)
	assert.False(t, off.ShowRandom)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(10)
	sess.SelectedGenre = "changed"

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SelectedGenre)
}

func TestStore_Expire(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := session.NewStore()
	store.SetClock(func() time.Time { return now })

	old := store.Create(5)
	now = now.Add(20 * time.Minute)
	fresh := store.Create(5)
	now = now.Add(15 * time.Minute)

	assert.Equal(t, 1, store.Expire(30*time.Minute))
	_, err := store.Get(old.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestStore_Delete(t *testing.T) {
	store := session.NewStore()
	sess := store.Create(5)
	store.Delete(sess.ID)
	assert.Equal(t, 0, store.Len())
}
