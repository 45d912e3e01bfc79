package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"allergy-menu-guard/internal/infrastructure/config"
	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(maxSize int, ttl time.Duration) *config.Config {
	return &config.Config{Cache: config.CacheConfig{
		Enabled: true,
		Backend: "memory",
		MaxSize: maxSize,
		TTL:     ttl,
	}}
}

func TestManager_GetSet(t *testing.T) {
	m := NewManager(memoryConfig(10, time.Minute))
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.True(t, errors.Is(err, common.ErrCacheMiss))

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
}

func TestManager_Expiry(t *testing.T) {
	m := NewManager(memoryConfig(10, time.Millisecond))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v"))
	time.Sleep(5 * time.Millisecond)

	_, err := m.Get(ctx, "k")
	assert.True(t, errors.Is(err, common.ErrCacheMiss))
}

func TestManager_EvictsLeastUsed(t *testing.T) {
	m := NewManager(memoryConfig(2, time.Minute))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, _ = m.Get(ctx, "a")

	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err := m.Get(ctx, "b")
	assert.True(t, errors.Is(err, common.ErrCacheMiss))
	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestManager_OverwriteAtCapacity(t *testing.T) {
	m := NewManager(memoryConfig(1, time.Minute))
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "a", "2"))
	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
}

func TestNew(t *testing.T) {
	c, err := New(&config.Config{Cache: config.CacheConfig{Enabled: false}})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = New(memoryConfig(1, time.Minute))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "memory", c.GetStats()["backend"])
	require.NoError(t, c.Close())

	_, err = New(&config.Config{Cache: config.CacheConfig{Enabled: true, Backend: "memcached"}})
	assert.Error(t, err)
}

func TestNewService_Unreachable(t *testing.T) {
	_, err := NewService(&config.CacheConfig{RedisAddr: "127.0.0.1:1", TTL: time.Minute})
	assert.Error(t, err)
}
