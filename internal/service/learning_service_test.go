package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/sessionstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingWords struct{}

func (failingWords) GetSetWords(context.Context, int64, int64) ([]models.VocabularyWord, error) {
	return nil, errors.New("storage unavailable")
}

type countingWriter struct {
	calls int
	err   error
}

func (w *countingWriter) AppendHistory(_ context.Context, _ *models.LearningSessionHistory) error {
	w.calls++
	return w.err
}

type learningEnv struct {
	*testEnv
	store   *sessionstore.MemoryStore
	clock   *fakeClock
	service *LearningService
}

func newLearningEnv(t *testing.T, words WordSource, writer learning.HistoryWriter) *learningEnv {
	t.Helper()
	env := newTestEnv(t)
	if words == nil {
		words = env.sets
	}
	if writer == nil {
		writer = env.history
	}

	le := &learningEnv{
		testEnv: env,
		store:   sessionstore.NewMemoryStore(),
		clock:   &fakeClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)},
	}
	le.service = NewLearningService(LearningServiceConfig{
		Words:     words,
		History:   env.history,
		Store:     le.store,
		Persister: learning.NewPersister(writer, logger.NewNop()),
		Shuffler:  rand.New(rand.NewSource(7)),
		IdleTTL:   time.Hour,
		Now:       le.clock.Now,
		Log:       logger.NewNop(),
	})
	return le
}

func TestStartSessionEmptySet(t *testing.T) {
	writer := &countingWriter{}
	env := newLearningEnv(t, nil, writer)
	ctx := context.Background()
	user := env.user(t, "learner@example.com")
	set := env.setWithWords(t, user.ID, 0)

	_, err := env.service.StartSession(ctx, user.ID, set.ID)
	assert.ErrorIs(t, err, ErrNoVocabulary)
	assert.Zero(t, env.store.Len())
	assert.Zero(t, writer.calls, "empty sessions are never persisted")
}

func TestStartSessionFetchFailure(t *testing.T) {
	env := newLearningEnv(t, failingWords{}, nil)
	_, err := env.service.StartSession(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNoVocabulary)
	assert.Zero(t, env.store.Len())
}

func TestStartSessionOtherUsersSet(t *testing.T) {
	env := newLearningEnv(t, nil, nil)
	owner := env.user(t, "owner@example.com")
	stranger := env.user(t, "stranger@example.com")
	set := env.setWithWords(t, owner.ID, 5)

	_, err := env.service.StartSession(context.Background(), stranger.ID, set.ID)
	assert.ErrorIs(t, err, ErrNoVocabulary)
}

func TestFullSessionAllCorrect(t *testing.T) {
	env := newLearningEnv(t, nil, nil)
	ctx := context.Background()
	user := env.user(t, "learner@example.com")
	set := env.setWithWords(t, user.ID, 12)

	session, err := env.service.StartSession(ctx, user.ID, set.ID)
	require.NoError(t, err)
	require.Len(t, session.Words, learning.MaxSessionWords)

	var summary *learning.Summary
	for summary == nil {
		env.clock.Advance(4 * time.Second)
		current, err := env.service.GetSession(ctx, user.ID, session.ID)
		require.NoError(t, err)

		_, correct, err := env.service.Answer(ctx, user.ID, session.ID, current.CurrentWord().Meaning)
		require.NoError(t, err)
		assert.True(t, correct)

		_, summary, err = env.service.Next(ctx, user.ID, session.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, 100, summary.Points)
	assert.Equal(t, 100.0, summary.Accuracy)
	assert.Equal(t, 10, summary.WordsLearned)
	assert.Equal(t, 40, summary.TimeSpent)
	assert.True(t, summary.Persisted)

	_, err = env.service.GetSession(ctx, user.ID, session.ID)
	assert.ErrorIs(t, err, ErrLearningSessionNotFound, "finished sessions leave the store")

	history, err := env.service.History(ctx, user.ID, set.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10, history[0].WordsLearned)
	assert.Equal(t, 100, history[0].Points)

	stats, err := env.service.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
}

func TestPersistFailureStillSummarises(t *testing.T) {
	writer := &countingWriter{err: errors.New("write rejected")}
	env := newLearningEnv(t, nil, writer)
	ctx := context.Background()
	user := env.user(t, "learner@example.com")
	set := env.setWithWords(t, user.ID, 1)

	session, err := env.service.StartSession(ctx, user.ID, set.ID)
	require.NoError(t, err)
	require.Equal(t, []string{session.Words[0].Meaning}, session.Options)

	_, _, err = env.service.Answer(ctx, user.ID, session.ID, session.Words[0].Meaning)
	require.NoError(t, err)
	_, summary, err := env.service.Next(ctx, user.ID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 10, summary.Points)
	assert.Equal(t, 100.0, summary.Accuracy)
	assert.False(t, summary.Persisted)
	assert.Equal(t, 1, writer.calls)
}

func TestSessionStateErrors(t *testing.T) {
	env := newLearningEnv(t, nil, nil)
	ctx := context.Background()
	user := env.user(t, "learner@example.com")
	stranger := env.user(t, "stranger@example.com")
	set := env.setWithWords(t, user.ID, 3)

	session, err := env.service.StartSession(ctx, user.ID, set.ID)
	require.NoError(t, err)

	_, _, err = env.service.Next(ctx, user.ID, session.ID)
	assert.ErrorIs(t, err, learning.ErrNotRevealed)

	_, _, err = env.service.Answer(ctx, stranger.ID, session.ID, session.Options[0])
	assert.ErrorIs(t, err, ErrLearningSessionNotFound)

	_, _, err = env.service.Answer(ctx, user.ID, session.ID, session.Options[0])
	require.NoError(t, err)
	_, _, err = env.service.Answer(ctx, user.ID, session.ID, session.Options[0])
	assert.ErrorIs(t, err, learning.ErrNotAnswering)

	assert.ErrorIs(t, env.service.Abandon(ctx, stranger.ID, session.ID), ErrLearningSessionNotFound)
	require.NoError(t, env.service.Abandon(ctx, user.ID, session.ID))
	_, err = env.service.GetSession(ctx, user.ID, session.ID)
	assert.ErrorIs(t, err, ErrLearningSessionNotFound)
}

func TestPurgeIdle(t *testing.T) {
	env := newLearningEnv(t, nil, nil)
	ctx := context.Background()
	user := env.user(t, "learner@example.com")
	set := env.setWithWords(t, user.ID, 3)

	_, err := env.service.StartSession(ctx, user.ID, set.ID)
	require.NoError(t, err)

	removed, err := env.service.PurgeIdle(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	env.clock.Advance(2 * time.Hour)
	removed, err = env.service.PurgeIdle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

type undeletableStore struct {
	*sessionstore.MemoryStore
}

func (undeletableStore) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestFinishedSessionWrittenOnceWhenDeleteFails(t *testing.T) {
	writer := &countingWriter{}
	env := newLearningEnv(t, nil, writer)
	env.service = NewLearningService(LearningServiceConfig{
		Words:     env.sets,
		History:   env.history,
		Store:     undeletableStore{env.store},
		Persister: learning.NewPersister(writer, logger.NewNop()),
		Shuffler:  rand.New(rand.NewSource(7)),
		IdleTTL:   time.Hour,
		Now:       env.clock.Now,
		Log:       logger.NewNop(),
	})
	ctx := context.Background()
	user := env.user(t, "learner@example.com")
	set := env.setWithWords(t, user.ID, 1)

	session, err := env.service.StartSession(ctx, user.ID, set.ID)
	require.NoError(t, err)
	_, _, err = env.service.Answer(ctx, user.ID, session.ID, session.Words[0].Meaning)
	require.NoError(t, err)

	_, summary, err := env.service.Next(ctx, user.ID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Persisted)

	_, summary, err = env.service.Next(ctx, user.ID, session.ID)
	assert.ErrorIs(t, err, learning.ErrNotRevealed)
	assert.Nil(t, summary)
	assert.Equal(t, 1, writer.calls)

	stored, err := env.store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.Finished())
	assert.True(t, stored.PersistAttempted)
}
