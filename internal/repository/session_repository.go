package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// SessionRepository stores builder session snapshots.
type SessionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (model.BuilderSession, bool, error)
	Set(ctx context.Context, s model.BuilderSession) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RedisSessionRepository keeps each session as a JSON value that expires
// after ttl without activity.
type RedisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ SessionRepository = (*RedisSessionRepository)(nil)

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) Get(ctx context.Context, id uuid.UUID) (model.BuilderSession, bool, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.BuilderSessionKey(id.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.BuilderSession{}, false, nil
	}
	if err != nil {
		return model.BuilderSession{}, false, err
	}

	var s model.BuilderSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.BuilderSession{}, false, err
	}
	return s, true, nil
}

func (r *RedisSessionRepository) Set(ctx context.Context, s model.BuilderSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, config.CacheKey.BuilderSessionKey(s.ID.String()), raw, r.ttl).Err()
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.rdb.Del(ctx, config.CacheKey.BuilderSessionKey(id.String())).Err()
}

// MemorySessionRepository is the in-process variant used by tests.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID][]byte
}

var _ SessionRepository = (*MemorySessionRepository)(nil)

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[uuid.UUID][]byte)}
}

func (r *MemorySessionRepository) Get(_ context.Context, id uuid.UUID) (model.BuilderSession, bool, error) {
	r.mu.RLock()
	raw, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return model.BuilderSession{}, false, nil
	}

	var s model.BuilderSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.BuilderSession{}, false, err
	}
	return s, true, nil
}

// Set stores the encoded session so callers never share memory with it.
func (r *MemorySessionRepository) Set(_ context.Context, s model.BuilderSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.sessions[s.ID] = raw
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}
