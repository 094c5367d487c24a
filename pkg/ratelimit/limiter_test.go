package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(clock *fakeClock) (*Limiter, *MemoryStore) {
	store := NewMemoryStoreWithClock(clock.Now)
	limiter := NewLimiter(store, DefaultConfig())
	limiter.now = clock.Now
	return limiter, store
}

func TestSixthRequestInWindowIsRejected(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d should be allowed", i)
		assert.Equal(t, int64(i), d.Count)
		assert.Equal(t, 5-i, d.Remaining)
		clock.Advance(time.Minute)
	}

	d, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(6), d.Count)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, "rl:contact:203.0.113.7", d.Key)
	// Window opened at 12:00, five minutes have passed
	assert.Equal(t, clock.Now().Add(10*time.Minute), d.ResetAt)
}

func TestCounterResetsAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := limiter.Allow(ctx, "198.51.100.1")
		require.NoError(t, err)
	}

	clock.Advance(15 * time.Minute)

	d, err := limiter.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count, "first request of a new window")
}

func TestIdentitiesAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	limiter, _ := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, _ = limiter.Allow(ctx, "a")
	}
	d, err := limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestConcurrentIncrementsAreCounted(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), Config{Limit: 5, Window: time.Minute})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Allow(ctx, "burst")
			if err == nil && d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

type failingStore struct {
	incrErr   error
	expireErr error
}

func (f failingStore) Increment(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	return 1, nil
}

func (f failingStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return f.expireErr
}

func (f failingStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

func TestStoreFailuresAreUnavailable(t *testing.T) {
	ctx := context.Background()

	t.Run("increment", func(t *testing.T) {
		limiter := NewLimiter(failingStore{incrErr: errors.New("connection refused")}, DefaultConfig())
		d, err := limiter.Allow(ctx, "x")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, d.Allowed)
	})

	t.Run("expire", func(t *testing.T) {
		limiter := NewLimiter(failingStore{expireErr: errors.New("timeout")}, DefaultConfig())
		d, err := limiter.Allow(ctx, "x")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, d.Allowed)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		client := goredis.NewClient(&goredis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer client.Close()

		limiter := NewLimiter(NewRedisStore(client), Config{StoreTimeout: time.Second})
		_, err := limiter.Allow(ctx, "x")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

// expireFailsOnce wraps a MemoryStore and fails its first Expire call
type expireFailsOnce struct {
	*MemoryStore
	failed bool
}

func (s *expireFailsOnce) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if !s.failed {
		s.failed = true
		return errors.New("i/o timeout")
	}
	return s.MemoryStore.Expire(ctx, key, ttl)
}

func TestFailedExpireDoesNotLockClientOut(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := &expireFailsOnce{MemoryStore: NewMemoryStoreWithClock(clock.Now)}
	limiter := NewLimiter(store, DefaultConfig())
	limiter.now = clock.Now
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "203.0.113.7")
	require.ErrorIs(t, err, ErrUnavailable)

	ttl, err := store.TTL(ctx, "rl:contact:203.0.113.7")
	require.NoError(t, err)
	assert.Less(t, ttl, time.Duration(0), "counter left without expiry")

	// The next request restores the expiry
	d, err := limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Count)
	assert.Equal(t, clock.Now().Add(15*time.Minute), d.ResetAt)

	for i := 0; i < 5; i++ {
		_, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
	}
	d, err = limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	clock.Advance(15 * time.Minute)

	d, err = limiter.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count, "fresh window after the restored expiry")
}

func TestTTLFailureIsUnavailable(t *testing.T) {
	limiter := NewLimiter(ttlFailingStore{}, DefaultConfig())
	_, err := limiter.Allow(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

type ttlFailingStore struct{}

func (ttlFailingStore) Increment(ctx context.Context, key string) (int64, error) { return 3, nil }

func (ttlFailingStore) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (ttlFailingStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, errors.New("connection reset")
}

func TestNewLimiterDefaults(t *testing.T) {
	cfg := NewLimiter(NewMemoryStore(), Config{}).Config()
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("k%d", i)
		_, _ = store.Increment(ctx, key)
		_ = store.Expire(ctx, key, time.Minute)
	}
	assert.Equal(t, 3, store.Len())

	clock.Advance(2 * time.Minute)
	store.Sweep()
	assert.Equal(t, 0, store.Len())
}
