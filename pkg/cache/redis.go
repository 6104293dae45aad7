package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/foodifind/foodifind/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
)

const defaultRedisTTL = 15 * time.Minute

// Redis is an optional shared cache backend for running several instances
// against one store. Entries carry a TTL, unlike the memory backend.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisOption func(*Redis)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		r.ttl = ttl
	}
}

func NewRedis(addr string, opts ...RedisOption) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	r := &Redis{
		client: client,
		ttl:    defaultRedisTTL,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Ping tests the connection
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return goerr.Wrap(err, "redis ping failed")
	}
	return nil
}

// Close closes the underlying connection
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, key string) (*model.DiscoveryResult, error) {
	raw, err := r.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get cache entry", goerr.V("key", key))
	}

	var result model.DiscoveryResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal cache entry", goerr.V("key", key))
	}
	return &result, nil
}

func (r *Redis) Set(ctx context.Context, key string, result *model.DiscoveryResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal cache entry", goerr.V("key", key))
	}

	if err := r.client.Set(ctx, redisKey(key), raw, r.ttl).Err(); err != nil {
		return goerr.Wrap(err, "failed to set cache entry", goerr.V("key", key))
	}
	return nil
}

func redisKey(key string) string {
	return "foodifind:discovery:" + key
}
