package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// pendingTTL bounds how long an unflushed submission stays readable from
// Redis. The worker normally flushes within seconds.
const pendingTTL = 24 * time.Hour

// SubmissionBuffer is the Redis fast lane for new submissions: the full
// submission is stored under its own key and its id is queued for the
// persistence worker.
type SubmissionBuffer struct {
	rdb *redis.Client
}

func NewSubmissionBuffer(rdb *redis.Client) *SubmissionBuffer {
	return &SubmissionBuffer{rdb: rdb}
}

// Push stores s and enqueues it in one transaction.
func (b *SubmissionBuffer) Push(ctx context.Context, s model.Submission) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := b.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SubmissionKey(s.ID.String()), raw, pendingTTL)
	pipe.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, s.ID.String())
	_, err = pipe.Exec(ctx)
	return err
}

// Get returns a submission that has not been flushed yet.
func (b *SubmissionBuffer) Get(ctx context.Context, id uuid.UUID) (model.Submission, bool, error) {
	raw, err := b.rdb.Get(ctx, config.CacheKey.SubmissionKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Submission{}, false, nil
	}
	if err != nil {
		return model.Submission{}, false, err
	}

	var s model.Submission
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Submission{}, false, err
	}
	return s, true, nil
}

// Forget drops the buffered copy once it is durable in Postgres.
func (b *SubmissionBuffer) Forget(ctx context.Context, id uuid.UUID) error {
	return b.rdb.Del(ctx, config.CacheKey.SubmissionKey(id.String())).Err()
}
