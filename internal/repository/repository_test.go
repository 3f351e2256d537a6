package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba/internal/database/dbtest"
	"kotoba/internal/models"
)

func TestCreateUserFirstIsAdmin(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.CreateUser(ctx, "first@example.com", "hash", "First")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin)

	second, err := repo.CreateUser(ctx, "second@example.com", "hash", "Second")
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)

	got, err := repo.GetUserByEmail(ctx, "second@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	assert.False(t, got.IsAdmin)

	missing, err := repo.GetUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	users, err := repo.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestLinkOAuthProvider(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "oauth@example.com", "", "OAuth")
	require.NoError(t, err)

	require.NoError(t, repo.LinkOAuthProvider(ctx, user.ID, "google", "sub-1"))
	assert.ErrorIs(t, repo.LinkOAuthProvider(ctx, user.ID, "google", "sub-2"), ErrOAuthAlreadyLinked)

	got, err := repo.GetUserByOAuth(ctx, "google", "sub-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
}

func TestSessionsAndResetTokens(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user, err := repo.CreateUser(ctx, "s@example.com", "hash", "Sessions")
	require.NoError(t, err)

	_, err = repo.CreateSession(ctx, "live", user.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = repo.CreateSession(ctx, "stale", user.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	removed, err := repo.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	live, err := repo.GetSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, live)
	assert.Equal(t, user.ID, live.UserID)

	stale, err := repo.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	require.NoError(t, repo.CreatePasswordResetToken(ctx, "tok", user.ID, time.Now().Add(time.Hour)))
	require.NoError(t, repo.MarkPasswordResetTokenAsUsed(ctx, "tok"))
	token, err := repo.GetPasswordResetToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.True(t, token.Used)

	removed, err = repo.DeleteExpiredPasswordResetTokens(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func newSet(t *testing.T, repo *SetRepository, userID int64) *models.VocabularySet {
	t.Helper()
	set, err := repo.CreateSet(context.Background(), userID, "JLPT N5", "basics")
	require.NoError(t, err)
	return set
}

func word(kanji, kana, meaning string) models.VocabularyWord {
	return models.VocabularyWord{Kanji: kanji, Kana: kana, Meaning: meaning, Difficulty: 50}
}

func TestWordCounterFollowsInsertsAndDeletes(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepository(db)
	repo := NewSetRepository(db)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, "c@example.com", "hash", "Counter")
	require.NoError(t, err)
	set := newSet(t, repo, user.ID)

	cat, err := repo.AddWord(ctx, set.ID, word("猫", "ねこ", "cat"))
	require.NoError(t, err)
	n, err := repo.AddWords(ctx, set.ID, []models.VocabularyWord{word("犬", "いぬ", "dog"), word("鳥", "とり", "bird")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetSetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalWords)

	deleted, err := repo.DeleteWord(ctx, set.ID, cat.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteWord(ctx, set.ID, cat.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete must not touch the counter")

	got, err = repo.GetSetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalWords)
}

func TestRecount(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepository(db)
	repo := NewSetRepository(db)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, "r@example.com", "hash", "Recount")
	require.NoError(t, err)
	set := newSet(t, repo, user.ID)
	other := newSet(t, repo, user.ID)

	_, err = repo.AddWord(ctx, set.ID, word("水", "みず", "water"))
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "UPDATE vocabulary_sets SET total_words = 42 WHERE id = ?", set.ID)
	require.NoError(t, err)

	repaired, err := repo.RecountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	_, err = db.ExecContext(ctx, "UPDATE vocabulary_sets SET total_words = 7 WHERE id = ?", other.ID)
	require.NoError(t, err)
	total, err := repo.RecountSet(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	got, err := repo.GetSetByID(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalWords)
}

func TestGetSetWordsChecksOwner(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepository(db)
	repo := NewSetRepository(db)
	ctx := context.Background()

	owner, err := users.CreateUser(ctx, "owner@example.com", "hash", "Owner")
	require.NoError(t, err)
	stranger, err := users.CreateUser(ctx, "stranger@example.com", "hash", "Stranger")
	require.NoError(t, err)
	set := newSet(t, repo, owner.ID)
	_, err = repo.AddWord(ctx, set.ID, word("山", "やま", "mountain"))
	require.NoError(t, err)

	words, err := repo.GetSetWords(ctx, owner.ID, set.ID)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "mountain", words[0].Meaning)

	words, err = repo.GetSetWords(ctx, stranger.ID, set.ID)
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestHistoryAppendListAndStats(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepository(db)
	sets := NewSetRepository(db)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, "h@example.com", "hash", "History")
	require.NoError(t, err)
	set := newSet(t, sets, user.ID)

	empty, err := repo.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Sessions)
	assert.Zero(t, empty.AverageAccuracy)

	base := time.Now().Add(-time.Hour)
	for i, acc := range []float64{100, 50} {
		record := &models.LearningSessionHistory{
			UserID:       user.ID,
			SetID:        set.ID,
			WordsLearned: 2,
			Points:       int(acc / 5),
			Accuracy:     acc,
			TimeSpent:    30,
			Date:         base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.AppendHistory(ctx, record))
		assert.Positive(t, record.ID)
	}

	entries, err := repo.ListHistory(ctx, user.ID, 0, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 50.0, entries[0].Accuracy, "newest first")
	assert.Equal(t, "JLPT N5", entries[0].SetName)

	stats, err := repo.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 30, stats.TotalPoints)
	assert.Equal(t, 4, stats.WordsLearned)
	assert.InDelta(t, 75.0, stats.AverageAccuracy, 0.001)
	assert.Equal(t, 60, stats.TimeSpent)
}

func TestHistorySurvivesSetDeletion(t *testing.T) {
	db := dbtest.New(t)
	users := NewUserRepository(db)
	sets := NewSetRepository(db)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, "keep@example.com", "hash", "Keeper")
	require.NoError(t, err)
	set := newSet(t, sets, user.ID)

	require.NoError(t, repo.AppendHistory(ctx, &models.LearningSessionHistory{
		UserID: user.ID, SetID: set.ID, WordsLearned: 3, Points: 20, Accuracy: 66.7, TimeSpent: 15, Date: time.Now(),
	}))
	require.NoError(t, sets.DeleteSet(ctx, set.ID))

	entries, err := repo.ListHistory(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].SetID)
	assert.Empty(t, entries[0].SetName)
	assert.Equal(t, 20, entries[0].Points)

	stats, err := repo.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 20, stats.TotalPoints)
}
