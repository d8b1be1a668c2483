package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/quiz"
)

// RedisSessionStore keeps session snapshots as JSON strings with a sliding TTL,
// so several server instances can serve the same session.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

// Get returns the snapshot stored under id and refreshes its TTL.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (quiz.Snapshot, error) {
	key := config.CacheKey.QuizSessionKey(id)

	var raw string
	var err error
	if s.ttl > 0 {
		raw, err = s.rdb.GetEx(ctx, key, s.ttl).Result()
	} else {
		raw, err = s.rdb.Get(ctx, key).Result()
	}
	if errors.Is(err, redis.Nil) {
		return quiz.Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return quiz.Snapshot{}, fmt.Errorf("get session %s: %w", id, err)
	}

	var snap quiz.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return quiz.Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// Save stores snap under id.
func (s *RedisSessionStore) Save(ctx context.Context, id string, snap quiz.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.QuizSessionKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", id, err)
	}
	return nil
}

// Delete removes id.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, config.CacheKey.QuizSessionKey(id)).Err()
}
