package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
)

const keyPrefix = "kotoba:learning:"

// RedisStore keeps sessions in Redis as JSON. Every save refreshes the key's
// TTL, so idle sessions expire on their own.
type RedisStore struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisStore connects to Redis at addr and verifies the connection
func NewRedisStore(addr string, ttl time.Duration, log *logger.Logger) (*RedisStore, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		log: log.With("component", "RedisSessionStore"),
	}, nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func (r *RedisStore) Save(ctx context.Context, s *learning.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*learning.Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s learning.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeIdle is a no-op: Redis expires idle sessions through the key TTL
func (r *RedisStore) PurgeIdle(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close releases the Redis connection pool
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
