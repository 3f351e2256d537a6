// Package sessionstore keeps in-flight learning sessions between requests.
package sessionstore

import (
	"context"
	"errors"
	"time"

	"kotoba/internal/learning"
)

// ErrNotFound is returned when no session is stored under an ID
var ErrNotFound = errors.New("learning session not found")

// Store holds in-flight learning sessions. Implementations hand out copies:
// mutating a returned session has no effect until it is saved again.
type Store interface {
	Save(ctx context.Context, s *learning.Session) error
	Get(ctx context.Context, id string) (*learning.Session, error)
	Delete(ctx context.Context, id string) error
	// PurgeIdle removes sessions not active since before and returns how
	// many were removed.
	PurgeIdle(ctx context.Context, before time.Time) (int, error)
}
