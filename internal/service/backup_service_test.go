package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba/internal/database/dbtest"
	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	src := newTestEnv(t)
	ctx := context.Background()

	user := src.user(t, "backup@example.com")
	set := src.setWithWords(t, user.ID, 4)
	require.NoError(t, src.history.AppendHistory(ctx, &models.LearningSessionHistory{
		UserID: user.ID, SetID: set.ID, WordsLearned: 4, Points: 30, Accuracy: 75, TimeSpent: 42, Date: time.Now(),
	}))

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(src.db, logger.NewNop()).ExportToWriter(ctx, &buf))

	dst := dbtest.New(t)
	restore := NewBackupService(dst, logger.NewNop())
	backup, err := restore.ImportFromReader(ctx, &buf)
	require.NoError(t, err)
	assert.Len(t, backup.Words, 4)

	sets := repository.NewSetRepository(dst)
	restored, err := sets.GetSetByID(ctx, set.ID)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, 4, restored.TotalWords)

	stats, err := repository.NewHistoryRepository(dst).Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stats.TotalPoints)

	// new rows continue after the imported IDs
	next, err := sets.CreateSet(ctx, user.ID, "After import", "")
	require.NoError(t, err)
	assert.Greater(t, next.ID, set.ID)

	require.NoError(t, restore.Clear(ctx))
	users, err := repository.NewUserRepository(dst).GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	db := dbtest.New(t)
	_, err := NewBackupService(db, logger.NewNop()).ImportFromReader(context.Background(), bytes.NewBufferString(`{"version":"9"}`))
	assert.Error(t, err)
}
