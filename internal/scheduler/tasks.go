package scheduler

import (
	"context"
	"time"

	"kotoba/internal/security"
	"kotoba/internal/service"
)

// DefaultTasks returns the standard housekeeping jobs for the server
func DefaultTasks(auth *service.AuthService, learning *service.LearningService, limiter *security.RateLimiter) []Task {
	tasks := []Task{
		{
			Name:     "expired-auth-sessions",
			Interval: time.Hour,
			Run:      auth.CleanupExpiredSessions,
		},
		{
			Name:     "expired-reset-tokens",
			Interval: time.Hour,
			Run:      auth.CleanupExpiredPasswordResetTokens,
		},
		{
			Name:     "idle-learning-sessions",
			Interval: 10 * time.Minute,
			Run: func(ctx context.Context) (int64, error) {
				n, err := learning.PurgeIdle(ctx)
				return int64(n), err
			},
		},
	}
	if limiter != nil {
		tasks = append(tasks, Task{
			Name:     "rate-limit-buckets",
			Interval: 5 * time.Minute,
			Run: func(context.Context) (int64, error) {
				return int64(limiter.Cleanup()), nil
			},
		})
	}
	return tasks
}
