package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizrunner/internal/config"
	"github.com/stemsi/quizrunner/internal/model"
)

const (
	JudgmentBatchSize    = 50
	JudgmentBatchTimeout = 2 * time.Second
	JudgmentPollTimeout  = 1 * time.Second
)

// JudgmentWriter persists judgment events.
type JudgmentWriter interface {
	InsertBatch(ctx context.Context, events []model.JudgmentEvent) error
	Insert(ctx context.Context, event model.JudgmentEvent) error
}

// JudgmentWorker drains the judgment queue into PostgreSQL in batches.
type JudgmentWorker struct {
	writer JudgmentWriter
	rdb    *redis.Client
	queue  string
	log    zerolog.Logger
}

func NewJudgmentWorker(writer JudgmentWriter, rdb *redis.Client, log zerolog.Logger) *JudgmentWorker {
	return &JudgmentWorker{
		writer: writer,
		rdb:    rdb,
		queue:  config.WorkerKey.PersistJudgmentsQueue,
		log:    log.With().Str("component", "judgment_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled, then flushes what it already popped.
func (w *JudgmentWorker) Start(ctx context.Context) {
	w.log.Info().Msg("JudgmentWorker started")

	batch := make([]model.JudgmentEvent, 0, JudgmentBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= JudgmentBatchSize || time.Since(lastFlush) >= JudgmentBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, JudgmentPollTimeout, w.queue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			event, ok := w.decode(item[1])
			if !ok {
				continue
			}
			batch = append(batch, event)
		}
	}
}

func (w *JudgmentWorker) decode(raw string) (model.JudgmentEvent, bool) {
	var event model.JudgmentEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return event, false
	}
	return event, true
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

// flushSafe writes batch in one statement. When that fails each event is
// retried on its own so one bad row cannot sink the rest; rows that still
// fail go back on the queue.
func (w *JudgmentWorker) flushSafe(ctx context.Context, batch []model.JudgmentEvent) {
	if len(batch) == 0 {
		return
	}

	err := w.writer.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Judgments persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk judgment insert failed, using fallback")

	for _, event := range batch {
		if err := w.writer.Insert(ctx, event); err != nil {
			w.log.Error().Err(err).Str("session_id", event.SessionID.String()).Msg("Insert failed, requeueing")
			w.requeue(ctx, event)
		}
	}
}

func (w *JudgmentWorker) requeue(ctx context.Context, event model.JudgmentEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := w.rdb.RPush(ctx, w.queue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("session_id", event.SessionID.String()).Msg("Requeue failed, judgment dropped")
	}
}
