package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kotoba/internal/database"
	"kotoba/internal/database/dbtest"
	"kotoba/internal/logger"
	"kotoba/internal/models"
	"kotoba/internal/repository"
	"kotoba/internal/security"
)

type fakeMailer struct {
	mu        sync.Mutex
	welcomed  []string
	resetTo   []string
	lastToken string
	sendErr   error
	disabled  bool
}

func (m *fakeMailer) IsEnabled() bool { return !m.disabled }

func (m *fakeMailer) SendWelcomeEmail(_ context.Context, toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomed = append(m.welcomed, toEmail)
	return m.sendErr
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, toEmail, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTo = append(m.resetTo, toEmail)
	m.lastToken = token
	return m.sendErr
}

type testEnv struct {
	db      *database.DB
	users   *repository.UserRepository
	sets    *repository.SetRepository
	history *repository.HistoryRepository
	mailer  *fakeMailer
	auth    *AuthService
	setSvc  *SetService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	log := logger.NewNop()

	env := &testEnv{
		db:      db,
		users:   repository.NewUserRepository(db),
		sets:    repository.NewSetRepository(db),
		history: repository.NewHistoryRepository(db),
		mailer:  &fakeMailer{},
	}
	env.auth = NewAuthService(env.users, env.mailer, security.NewTokenIssuer("test-secret-0123456789"), time.Hour, log)
	env.setSvc = NewSetService(env.sets, log)
	return env
}

func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.CreateUser(context.Background(), email, "", "Test User")
	require.NoError(t, err)
	return u
}

func (e *testEnv) setWithWords(t *testing.T, userID int64, n int) *models.VocabularySet {
	t.Helper()
	ctx := context.Background()
	set, err := e.sets.CreateSet(ctx, userID, "Set", "")
	require.NoError(t, err)

	words := make([]models.VocabularyWord, n)
	for i := range words {
		words[i] = models.VocabularyWord{
			Kana:       string(rune('あ' + i)),
			Meaning:    "meaning " + string(rune('a'+i)),
			Difficulty: 50,
		}
	}
	if n > 0 {
		_, err = e.sets.AddWords(ctx, set.ID, words)
		require.NoError(t, err)
	}
	return set
}
