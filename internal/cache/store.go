// Package cache implements the TTL cache that keeps the validation
// pipeline from repeating expensive network work: a thread-safe
// in-memory store with per-category TTL overrides, size-bounded
// eviction and hit/miss/eviction metrics, plus a Redis-backed variant
// with the same contract for deployments that already run Redis.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the contract the validation engine consumes. Both the
// in-memory MemoryStore and the RedisStore satisfy it.
type Store interface {
	// Get returns the live value for key, or false when absent or expired.
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores value under key. TTL resolution: explicit ttl > registered
	// category default > store-wide default. Returns false when the store
	// is disabled or the write failed.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration, category string) bool

	// GetOrCompute returns the cached value for key, or runs compute and
	// caches its result. Concurrent callers for the same key run compute
	// at most once.
	GetOrCompute(ctx context.Context, key, category string, compute func() (interface{}, error)) (interface{}, error)

	// ClearExpired removes every expired entry and returns the count removed.
	ClearExpired(ctx context.Context) int

	// Stats returns a snapshot of cache metrics.
	Stats(ctx context.Context) Stats
}

// Options configures a MemoryStore.
type Options struct {
	Enabled       bool
	DefaultTTL    time.Duration
	MaxSize       int
	EvictionSlack int
	CategoryTTLs  map[string]time.Duration
}

type entry struct {
	value    interface{}
	expires  time.Time
	category string
}

// MemoryStore is a thread-safe in-memory TTL cache. All reads and map
// mutations happen under one exclusive critical section; operations are
// O(1) amortized so the coarse lock stays cheap.
type MemoryStore struct {
	mu      sync.Mutex
	opts    Options
	store   map[string]entry
	metrics *Metrics
	flight  flightGroup
}

// NewMemoryStore creates an in-memory store. Zero option fields get the
// documented defaults (1h TTL, 10k entries, slack 100).
func NewMemoryStore(opts Options) *MemoryStore {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Hour
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 10000
	}
	if opts.EvictionSlack <= 0 {
		opts.EvictionSlack = 100
	}
	return &MemoryStore{
		opts:    opts,
		store:   make(map[string]entry),
		metrics: newMetrics(),
		flight:  newFlightGroup(),
	}
}

// Get returns the value for key if present and not expired. An entry
// observed past its expiry is treated as absent and deleted on the spot
// (lazy expiry), in addition to the periodic sweep.
func (s *MemoryStore) Get(_ context.Context, key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.store[key]; ok {
		if time.Now().Before(e.expires) {
			s.metrics.recordHit()
			return e.value, true
		}
		delete(s.store, key)
		s.metrics.recordEviction()
	}

	s.metrics.recordMiss()
	return nil, false
}

// Set stores value under key with the resolved TTL. When the store is at
// or above MaxSize it first sweeps expired entries, then if still at the
// limit drops the soonest-to-expire entries down to MaxSize−slack so that
// inserts near the boundary don't evict on every call.
func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration, category string) bool {
	if !s.opts.Enabled {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.store) >= s.opts.MaxSize {
		s.evictLocked()
	}

	s.store[key] = entry{
		value:    value,
		expires:  time.Now().Add(s.resolveTTL(ttl, category)),
		category: category,
	}
	return true
}

// GetOrCompute coalesces concurrent misses: the first caller for a key
// runs compute while later callers for the same key wait for its result
// instead of redoing the full check pipeline.
func (s *MemoryStore) GetOrCompute(ctx context.Context, key, category string, compute func() (interface{}, error)) (interface{}, error) {
	if v, ok := s.Get(ctx, key); ok {
		return v, nil
	}
	return s.flight.do(key, func() (interface{}, error) {
		// Re-check: an earlier flight may have populated the key while
		// this caller was acquiring the slot.
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

// ClearExpired removes all expired entries and returns the count removed.
func (s *MemoryStore) ClearExpired(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range s.store {
		if !now.Before(e.expires) {
			delete(s.store, key)
			s.metrics.recordEviction()
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of metrics and current size.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics.snapshot(len(s.store), s.opts.MaxSize)
}

// StartSweeper runs ClearExpired on the given interval until ctx is done.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.ClearExpired(ctx)
			}
		}
	}()
}

func (s *MemoryStore) resolveTTL(ttl time.Duration, category string) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if category != "" {
		if t, ok := s.opts.CategoryTTLs[category]; ok {
			return t
		}
	}
	return s.opts.DefaultTTL
}

// evictLocked runs the two-stage eviction: expired entries first, then
// soonest-to-expire entries until the store holds MaxSize−slack.
// Caller must hold s.mu.
func (s *MemoryStore) evictLocked() {
	now := time.Now()
	for key, e := range s.store {
		if !now.Before(e.expires) {
			delete(s.store, key)
			s.metrics.recordEviction()
		}
	}

	if len(s.store) < s.opts.MaxSize {
		return
	}

	type keyed struct {
		key     string
		expires time.Time
	}
	ordered := make([]keyed, 0, len(s.store))
	for key, e := range s.store {
		ordered = append(ordered, keyed{key, e.expires})
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].expires.Before(ordered[j].expires)
	})

	target := s.opts.MaxSize - s.opts.EvictionSlack
	if target < 0 {
		target = 0
	}
	for _, k := range ordered {
		if len(s.store) <= target {
			break
		}
		delete(s.store, k.key)
		s.metrics.recordEviction()
	}
}
