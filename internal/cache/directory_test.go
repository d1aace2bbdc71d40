package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fgtintas/referral-service/internal/domain"
	"github.com/fgtintas/referral-service/internal/events"
)

type countingCache struct {
	Noop
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

func TestNewRedisDirectoryCacheDisabled(t *testing.T) {
	assert.IsType(t, Noop{}, NewRedisDirectoryCache(nil, time.Minute))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()
	assert.IsType(t, Noop{}, NewRedisDirectoryCache(client, 0))
}

func TestUnreachableRedisReportsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedisDirectoryCache(client, time.Minute)

	_, ok, err := c.Get(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
	_, err = c.Generation(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), 0, []domain.Professional{{ID: "p1", PasswordHash: "secret"}}))
	assert.Error(t, c.Invalidate(context.Background()))
}

func TestMemoryCacheStoresRedactedListing(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryDirectoryCache(time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, gen, []domain.Professional{{ID: "p1", PasswordHash: "secret"}}))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].PasswordHash)
}

func TestMemoryCacheRejectsListingReadBeforeInvalidation(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryDirectoryCache(time.Minute)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	err = c.Set(ctx, gen, []domain.Professional{{ID: "p1"}})
	assert.ErrorIs(t, err, ErrStale)
	_, ok, _ := c.Get(ctx)
	assert.False(t, ok)

	fresh, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, fresh)
	assert.NoError(t, c.Set(ctx, fresh, []domain.Professional{{ID: "p2"}}))
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryDirectoryCache(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, 0, []domain.Professional{{ID: "p1"}}))
	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx)
	assert.True(t, ok)
	now = now.Add(time.Second)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestRegisterInvalidation(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	c := &countingCache{}
	RegisterInvalidation(dispatcher, c, zap.NewNop())

	for _, et := range events.AllEventTypes {
		require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: et}))
	}
	assert.Equal(t, len(events.AllEventTypes), c.invalidations)
}
