package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Redis stores values as plain strings with an expiry.
type Redis struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedis creates a Redis-backed store. ttl <= 0 keeps values without expiry.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if client == nil {
		panic("kvstore: redis client cannot be nil")
	}
	return &Redis{
		redis:  client,
		tracer: otel.Tracer("geecurly.internal.kvstore"),
		ttl:    ttl,
	}
}

func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.tracer.Start(ctx, "kvstore.set")
	defer span.End()

	if err := s.redis.Set(ctx, key, value, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("kvstore: set %s: %w", key, err)
	}
	return nil
}

func (s *Redis) Remove(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "kvstore.remove")
	defer span.End()

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("kvstore: remove %s: %w", key, err)
	}
	return nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "kvstore.get")
	defer span.End()

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return data, nil
}
