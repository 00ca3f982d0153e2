package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/formcraft-backend/internal/config"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// EventPublisher fans builder state changes out to connected editors.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.BuilderEvent) error
}

// RedisEventPublisher publishes on the session's Redis Pub/Sub channel, so
// any instance holding the editor's WebSocket can forward it.
type RedisEventPublisher struct {
	rdb *redis.Client
}

func NewRedisEventPublisher(rdb *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{rdb: rdb}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, ev model.BuilderEvent) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, config.CacheKey.BuilderEventsChannel(ev.SessionID.String()), raw).Err()
}
