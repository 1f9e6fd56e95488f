package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agritraceio/agritrace-backend/pkg/config"
)

type fakeStore struct {
	counts  map[string]int64
	expires map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeStore) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeStore) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestFixedWindowAllow(t *testing.T) {
	store := newFakeStore()
	client := &Client{store: store}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "submit:farmer-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, int64(i+1), count)
	}

	allowed, count, err := client.FixedWindowAllow(ctx, "submit:farmer-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(4), count)

	// TTL is stamped only on the first increment.
	assert.Equal(t, time.Minute, store.expires["at:rate_limit:submit:farmer-1"])
}

func TestKeyNamespacing(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "at:rate_limit:submit:ip:10.0.0.1", client.RateLimitKey("submit:ip:10.0.0.1"))
	assert.Equal(t, "at:counter:ingest_batches", client.CounterKey("ingest_batches"))
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:  "localhost:6379",
		DB:       2,
		PoolSize: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://:secret@redis.internal:6380/1"})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", opts.Addr)
	assert.Equal(t, 1, opts.DB)
	assert.Equal(t, "secret", opts.Password)

	_, err = optionsFromConfig(config.RedisConfig{URL: "::bad::"})
	require.Error(t, err)
}
