package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/model"
)

// JudgmentPublisher forwards judged answers to the audit log.
type JudgmentPublisher interface {
	Publish(ctx context.Context, event model.JudgmentEvent) error
}

// RedisJudgmentPublisher pushes judgment events onto the persist queue
// consumed by worker.JudgmentWorker.
type RedisJudgmentPublisher struct {
	rdb *redis.Client
}

// NewRedisJudgmentPublisher creates a RedisJudgmentPublisher.
func NewRedisJudgmentPublisher(rdb *redis.Client) *RedisJudgmentPublisher {
	return &RedisJudgmentPublisher{rdb: rdb}
}

// Publish enqueues event.
func (p *RedisJudgmentPublisher) Publish(ctx context.Context, event model.JudgmentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode judgment: %w", err)
	}
	return p.rdb.RPush(ctx, config.WorkerKey.PersistJudgmentsQueue, payload).Err()
}
