package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/metrics"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// SubmissionWriter is the durable store the worker flushes into.
type SubmissionWriter interface {
	Upsert(ctx context.Context, s *model.Submission) error
}

// SubmissionSource is the Redis buffer holding submissions not yet flushed.
type SubmissionSource interface {
	Get(ctx context.Context, id uuid.UUID) (model.Submission, bool, error)
	Forget(ctx context.Context, id uuid.UUID) error
}

// SubmissionWorker consumes persist_submissions_queue and UPSERTs each
// buffered submission into PostgreSQL.
type SubmissionWorker struct {
	rdb     *redis.Client
	source  SubmissionSource
	store   SubmissionWriter
	metrics *metrics.Metrics
	log     zerolog.Logger

	retryDelay time.Duration
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(rdb *redis.Client, source SubmissionSource, store SubmissionWriter, m *metrics.Metrics, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		rdb:        rdb,
		source:     source,
		store:      store,
		metrics:    m,
		log:        log.With().Str("component", "submission_worker").Logger(),
		retryDelay: 5 * time.Second,
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SubmissionWorker) processNext(ctx context.Context) {
	queue := config.WorkerKey.PersistSubmissionsQueue

	result, err := w.rdb.BLPop(ctx, time.Second, queue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	if n, err := w.rdb.LLen(ctx, queue).Result(); err == nil {
		w.metrics.SetSubmissionQueueLength(n)
	}

	if err := w.flush(ctx, result[1]); err != nil {
		w.metrics.SubmissionPersisted(false)
		w.log.Error().Err(err).
			Str("submission_id", result[1]).
			Msg("Persist error, retrying in 5s")
		w.rdb.RPush(ctx, queue, result[1])
		select {
		case <-ctx.Done():
		case <-time.After(w.retryDelay):
		}
		return
	}
	w.metrics.SubmissionPersisted(true)
}

// flush moves one buffered submission into the store. A queued id whose
// buffered copy is gone was already flushed and is skipped.
func (w *SubmissionWorker) flush(ctx context.Context, raw string) error {
	id, err := uuid.Parse(raw)
	if err != nil {
		w.log.Error().Err(err).Str("value", raw).Msg("Dropping malformed queue entry")
		return nil
	}

	sub, ok, err := w.source.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := w.store.Upsert(ctx, &sub); err != nil {
		return err
	}
	if err := w.source.Forget(ctx, id); err != nil {
		w.log.Warn().Err(err).Str("submission_id", raw).Msg("Failed to forget flushed submission")
	}
	return nil
}

// drain processes all remaining items in the queue before shutdown.
func (w *SubmissionWorker) drain(ctx context.Context) {
	queue := config.WorkerKey.PersistSubmissionsQueue
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, queue).Result()
		if err != nil {
			break
		}

		if err := w.flush(ctx, result); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, queue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
