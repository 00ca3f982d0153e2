package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// RedisFormRepository stores the collection as a single JSON document
// under one key.
type RedisFormRepository struct {
	rdb *redis.Client
}

var _ FormRepository = (*RedisFormRepository)(nil)

// NewRedisFormRepository creates a new RedisFormRepository.
func NewRedisFormRepository(rdb *redis.Client) *RedisFormRepository {
	return &RedisFormRepository{rdb: rdb}
}

// LoadAll returns an empty collection when the key does not exist yet.
func (r *RedisFormRepository) LoadAll(ctx context.Context) ([]model.Form, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.FormsKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.Form{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load forms: %w", err)
	}

	var forms []model.Form
	if err := json.Unmarshal(raw, &forms); err != nil {
		return nil, fmt.Errorf("decode forms: %w", err)
	}
	if forms == nil {
		forms = []model.Form{}
	}
	return forms, nil
}

func (r *RedisFormRepository) SaveAll(ctx context.Context, forms []model.Form) error {
	if forms == nil {
		forms = []model.Form{}
	}
	raw, err := json.Marshal(forms)
	if err != nil {
		return fmt.Errorf("encode forms: %w", err)
	}
	if err := r.rdb.Set(ctx, config.CacheKey.FormsKey(), raw, 0).Err(); err != nil {
		return fmt.Errorf("save forms: %w", err)
	}
	return nil
}
