package cache

import (
	"context"
	"testing"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(maxSize int, ttl time.Duration) *config.Config {
	cfg := config.Default()
	cfg.Cache.MaxSize = maxSize
	cfg.Cache.TTL = ttl
	cfg.Cache.CleanupInterval = 0
	return cfg
}

func TestManagerGetSet(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "search", "rice,egg")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "search", "rice,egg", `{"total_count":1}`))
	got, err := m.Get(ctx, "search", "rice,egg")
	require.NoError(t, err)
	assert.Equal(t, `{"total_count":1}`, got)

	// 不同命名空間互不影響
	_, err = m.Get(ctx, "other", "rice,egg")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(2), stats["misses"])
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(testConfig(10, time.Millisecond))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "search", "k", "v"))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "search", "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m := NewManager(testConfig(2, time.Minute))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "search", "a", "1"))
	require.NoError(t, m.Set(ctx, "search", "b", "2"))
	_, err := m.Get(ctx, "search", "a")
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "search", "c", "3"))

	_, err = m.Get(ctx, "search", "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = m.Get(ctx, "search", "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "search", "c")
	assert.NoError(t, err)
}

func TestManagerPurgeNamespace(t *testing.T) {
	m := NewManager(testConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "search", "a", "1"))
	require.NoError(t, m.Set(ctx, "search", "b", "2"))
	require.NoError(t, m.Set(ctx, "detail", "a", "3"))

	Purge(ctx, m, "search")

	_, err := m.Get(ctx, "search", "a")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	got, err := m.Get(ctx, "detail", "a")
	require.NoError(t, err)
	assert.Equal(t, "3", got)

	// nil 快取安全
	Purge(ctx, nil, "search")
}

func TestNewRespectsConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	c, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.Cache.Enabled = true
	cfg.Cache.Backend = "memory"
	c, err = New(cfg)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.NoError(t, c.Close())

	cfg.Cache.Backend = "redis"
	cfg.Cache.RedisAddr = "127.0.0.1:1"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestRedisKeyLayout(t *testing.T) {
	s := newServiceWithClient(nil, &config.CacheConfig{})
	key := s.generateKey("search", "rice")
	assert.Equal(t, redisKeyPrefix+"search:"+hashString("rice"), key)
}
