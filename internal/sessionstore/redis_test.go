package sessionstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(mr.Addr(), ttl, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	s := newSession("r1", now)
	s.CorrectAnswers = 1
	s.TotalAttempts = 1
	s.SessionPoints = learning.PointsPerCorrect
	s.State = learning.StateRevealed
	s.SelectedOption = "water"
	s.LastCorrect = true
	require.NoError(t, store.Save(ctx, s))

	assert.True(t, mr.Exists(sessionKey("r1")))
	assert.Equal(t, time.Hour, mr.TTL(sessionKey("r1")))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newSession("r1", time.Now())))
	require.NoError(t, store.Delete(ctx, "r1"))
	require.NoError(t, store.Delete(ctx, "r1"))

	_, err := store.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreExpiresIdleSessions(t *testing.T) {
	store, mr := newRedisStore(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newSession("r1", time.Now())))
	mr.FastForward(11 * time.Minute)

	_, err := store.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := store.PurgeIdle(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(addr, time.Hour, logger.NewNop())
	assert.Error(t, err)
}
