package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba/internal/learning"
	"kotoba/internal/models"
)

func newSession(id string, lastActive time.Time) *learning.Session {
	return &learning.Session{
		ID:         id,
		UserID:     1,
		SetID:      1,
		Words:      []models.VocabularyWord{{ID: 1, Kana: "みず", Meaning: "water"}},
		Options:    []string{"water"},
		State:      learning.StateAnswering,
		StartTime:  lastActive,
		LastActive: lastActive,
	}
}

func TestMemoryStoreHandsOutCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	s := newSession("a", now)
	require.NoError(t, store.Save(ctx, s))
	s.SessionPoints = 99

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, got.SessionPoints, "saved value must not follow caller mutations")

	got.Options[0] = "fire"
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "water", again.Options[0])
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newSession("a", time.Now())))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePurgeIdle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, newSession("old", now.Add(-3*time.Hour))))
	require.NoError(t, store.Save(ctx, newSession("fresh", now.Add(-time.Minute))))

	removed, err := store.PurgeIdle(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestRedisStoreNeedsAddress(t *testing.T) {
	_, err := NewRedisStore("  ", time.Hour, nil)
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "kotoba:learning:abc", sessionKey("abc"))
}
