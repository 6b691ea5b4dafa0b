package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store against Redis. Values are stored as JSON,
// so Get returns json.RawMessage; callers recover concrete types through
// As. Expiry is delegated to Redis TTLs, which means ClearExpired has
// nothing to sweep. Hit/miss counters are process-local.
type RedisStore struct {
	client       *redis.Client
	enabled      bool
	defaultTTL   time.Duration
	categoryTTLs map[string]time.Duration

	mu      sync.Mutex
	metrics *Metrics
	flight  flightGroup
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, opts Options) (*RedisStore, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(parsed)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}

	return &RedisStore{
		client:       client,
		enabled:      opts.Enabled,
		defaultTTL:   opts.DefaultTTL,
		categoryTTLs: opts.CategoryTTLs,
		metrics:      newMetrics(),
		flight:       newFlightGroup(),
	}, nil
}

// NewRedisStoreWithClient wraps an existing client. Tests use this with
// miniredis.
func NewRedisStoreWithClient(client *redis.Client, opts Options) *RedisStore {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	return &RedisStore{
		client:       client,
		enabled:      opts.Enabled,
		defaultTTL:   opts.DefaultTTL,
		categoryTTLs: opts.CategoryTTLs,
		metrics:      newMetrics(),
		flight:       newFlightGroup(),
	}
}

// Get returns the stored JSON for key as json.RawMessage.
func (s *RedisStore) Get(ctx context.Context, key string) (interface{}, bool) {
	data, err := s.client.Get(ctx, key).Bytes()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.metrics.recordMiss()
		return nil, false
	}
	s.metrics.recordHit()
	return json.RawMessage(data), true
}

// Set stores the JSON encoding of value under key with the resolved TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, category string) bool {
	if !s.enabled {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false
	}

	if ttl <= 0 {
		if t, ok := s.categoryTTLs[category]; ok && category != "" {
			ttl = t
		} else {
			ttl = s.defaultTTL
		}
	}

	return s.client.Set(ctx, key, data, ttl).Err() == nil
}

// GetOrCompute coalesces concurrent misses within this process. Misses
// in other processes may still duplicate work; cross-process coalescing
// is out of scope.
func (s *RedisStore) GetOrCompute(ctx context.Context, key, category string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := s.Get(ctx, key); ok {
		return v, nil
	}
	return s.flight.do(key, func() (interface{}, error) {
		if v, ok := s.Get(ctx, key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, v, 0, category)
		return v, nil
	})
}

// ClearExpired is a no-op: Redis removes expired keys itself.
func (s *RedisStore) ClearExpired(ctx context.Context) int {
	return 0
}

// Stats returns process-local counters plus the current keyspace size.
func (s *RedisStore) Stats(ctx context.Context) Stats {
	size, _ := s.client.DBSize(ctx).Result()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics.snapshot(int(size), 0)
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// As recovers a concrete type from a cached value: a direct type
// assertion for the in-memory store, a JSON decode for the Redis store.
func As[T any](v interface{}) (T, bool) {
	if typed, ok := v.(T); ok {
		return typed, true
	}
	if raw, ok := v.(json.RawMessage); ok {
		var typed T
		if err := json.Unmarshal(raw, &typed); err == nil {
			return typed, true
		}
	}
	var zero T
	return zero, false
}
