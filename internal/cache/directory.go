// Package cache keeps a short-lived copy of the public professional listing.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
)

const (
	activeDirectoryKey     = "directory:active:v1"
	directoryGenerationKey = "directory:active:gen"
)

// ErrStale is returned by Set when an invalidation happened after the
// listing's generation was read. The listing is not stored.
var ErrStale = errors.New("directory listing is stale")

// DirectoryCache stores the active professional listing.
//
// Every invalidation bumps a generation counter. Readers take the generation
// before querying the store and hand it to Set, so a listing read before an
// invalidation is never stored after it.
type DirectoryCache interface {
	// Get reports a miss with ok=false. Errors mean the cache is unusable,
	// callers should fall back to the store.
	Get(ctx context.Context) (pros []domain.Professional, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, generation int64, pros []domain.Professional) error
	Invalidate(ctx context.Context) error
}

// RedisDirectoryCache is a DirectoryCache backed by a single Redis key.
type RedisDirectoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDirectoryCache builds the cache. A non-positive ttl disables caching.
func NewRedisDirectoryCache(client *redis.Client, ttl time.Duration) DirectoryCache {
	if client == nil || ttl <= 0 {
		return Noop{}
	}
	return &RedisDirectoryCache{client: client, ttl: ttl}
}

func (c *RedisDirectoryCache) Get(ctx context.Context) ([]domain.Professional, bool, error) {
	raw, err := c.client.Get(ctx, activeDirectoryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var pros []domain.Professional
	if err := json.Unmarshal(raw, &pros); err != nil {
		return nil, false, err
	}
	return pros, true, nil
}

func (c *RedisDirectoryCache) Generation(ctx context.Context) (int64, error) {
	return readGeneration(ctx, c.client)
}

// Set stores redacted copies only. The generation check and the write run in
// one WATCH transaction, so a concurrent Invalidate aborts the write.
func (c *RedisDirectoryCache) Set(ctx context.Context, generation int64, pros []domain.Professional) error {
	raw, err := json.Marshal(redact(pros))
	if err != nil {
		return err
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, activeDirectoryKey, raw, c.ttl)
			return nil
		})
		return err
	}, directoryGenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

// Invalidate bumps the generation and drops the listing atomically.
func (c *RedisDirectoryCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, directoryGenerationKey)
		pipe.Del(ctx, activeDirectoryKey)
		return nil
	})
	return err
}

func readGeneration(ctx context.Context, c redis.Cmdable) (int64, error) {
	gen, err := c.Get(ctx, directoryGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func redact(pros []domain.Professional) []domain.Professional {
	redacted := make([]domain.Professional, len(pros))
	for i, p := range pros {
		redacted[i] = p.Redacted()
	}
	return redacted
}

// MemoryDirectoryCache is a single-process DirectoryCache with the same
// generation rules as the Redis one.
type MemoryDirectoryCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	generation int64
	pros       []domain.Professional
	expires    time.Time
}

// NewMemoryDirectoryCache builds an in-process cache holding listings for ttl.
func NewMemoryDirectoryCache(ttl time.Duration) *MemoryDirectoryCache {
	return &MemoryDirectoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryDirectoryCache) Get(context.Context) ([]domain.Professional, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pros == nil || !c.now().Before(c.expires) {
		return nil, false, nil
	}
	return append([]domain.Professional(nil), c.pros...), true, nil
}

func (c *MemoryDirectoryCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *MemoryDirectoryCache) Set(_ context.Context, generation int64, pros []domain.Professional) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return ErrStale
	}
	c.pros = redact(pros)
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryDirectoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.pros = nil
	return nil
}

// Noop never caches.
type Noop struct{}

func (Noop) Get(context.Context) ([]domain.Professional, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context) (int64, error)                { return 0, nil }
func (Noop) Set(context.Context, int64, []domain.Professional) error  { return nil }
func (Noop) Invalidate(context.Context) error                         { return nil }

// RegisterInvalidation drops the cached listing whenever a directory or
// ledger event is published. Failures are logged; the TTL bounds staleness.
func RegisterInvalidation(dispatcher events.Dispatcher, cache DirectoryCache, logger *zap.Logger) {
	if dispatcher == nil || cache == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	events.SubscribeAll(dispatcher, events.AllEventTypes, func(ctx context.Context, event events.Event) error {
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("directory cache invalidation failed",
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
		return nil
	})
}
