package cache

import (
	"context"
	"testing"
	"time"

	"nutrition-lookup/internal/core/nutrition"
	"nutrition-lookup/internal/infrastructure/config"
	"nutrition-lookup/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Driver:  "memory",
		MaxSize: 3,
		TTL:     time.Hour,
		APITTL:  time.Minute,
		Version: "test",
	}
}

func TestManager_GetSet(t *testing.T) {
	m := NewManager(testCacheConfig())
	defer m.Close()
	ctx := context.Background()

	_, ok := m.Get(ctx, "k", nutrition.NamespaceNutrition)
	assert.False(t, ok)

	value := []byte(`{"confidence":0.9}`)
	require.NoError(t, m.Set(ctx, "k", value, nutrition.NamespaceNutrition))
	value[0] = 'x'

	got, ok := m.Get(ctx, "k", nutrition.NamespaceNutrition)
	require.True(t, ok)
	assert.Equal(t, `{"confidence":0.9}`, string(got))

	_, ok = m.Get(ctx, "k", nutrition.NamespaceBarcode)
	assert.False(t, ok, "namespaces are isolated")

	stats := m.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(2), stats["misses"])
}

func TestManager_NamespaceTTL(t *testing.T) {
	m := NewManager(testCacheConfig())
	defer m.Close()
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "lookup", []byte("a"), nutrition.NamespaceNutrition))
	require.NoError(t, m.Set(ctx, "raw", []byte("b"), nutrition.NamespaceProviderAPI))

	now = now.Add(2 * time.Minute)

	_, ok := m.Get(ctx, "raw", nutrition.NamespaceProviderAPI)
	assert.False(t, ok, "provider responses use the shorter api ttl")
	_, ok = m.Get(ctx, "lookup", nutrition.NamespaceNutrition)
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = m.Get(ctx, "lookup", nutrition.NamespaceNutrition)
	assert.False(t, ok)
}

func TestManager_EvictsLeastUsed(t *testing.T) {
	m := NewManager(testCacheConfig())
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), nutrition.NamespaceNutrition))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), nutrition.NamespaceNutrition))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), nutrition.NamespaceNutrition))

	_, _ = m.Get(ctx, "a", nutrition.NamespaceNutrition)
	_, _ = m.Get(ctx, "c", nutrition.NamespaceNutrition)

	require.NoError(t, m.Set(ctx, "d", []byte("4"), nutrition.NamespaceNutrition))

	_, ok := m.Get(ctx, "b", nutrition.NamespaceNutrition)
	assert.False(t, ok)
	_, ok = m.Get(ctx, "d", nutrition.NamespaceNutrition)
	assert.True(t, ok)
	assert.Equal(t, 3, m.GetStats()["size"])
}

func TestManager_OverwriteDoesNotEvict(t *testing.T) {
	m := NewManager(testCacheConfig())
	defer m.Close()
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, m.Set(ctx, k, []byte(k), nutrition.NamespaceNutrition))
	}
	require.NoError(t, m.Set(ctx, "a", []byte("updated"), nutrition.NamespaceNutrition))

	for _, k := range []string{"b", "c"} {
		_, ok := m.Get(ctx, k, nutrition.NamespaceNutrition)
		assert.True(t, ok, k)
	}
	got, _ := m.Get(ctx, "a", nutrition.NamespaceNutrition)
	assert.Equal(t, "updated", string(got))
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	cfg := testCacheConfig()
	cfg.CleanupInterval = 10 * time.Millisecond
	m := NewManager(cfg)

	require.NoError(t, m.Set(context.Background(), "a", []byte("1"), nutrition.NamespaceNutrition))
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())

	_, ok := m.Get(context.Background(), "a", nutrition.NamespaceNutrition)
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	store, err := New(config.CacheConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, Disabled{}, store)
	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), nutrition.NamespaceNutrition))
	_, ok := store.Get(context.Background(), "k", nutrition.NamespaceNutrition)
	assert.False(t, ok)

	store, err = New(testCacheConfig())
	require.NoError(t, err)
	assert.IsType(t, &Manager{}, store)
	_ = store.Close()

	_, err = New(config.CacheConfig{Driver: "memcached"})
	assert.Error(t, err)

	_, err = New(config.CacheConfig{Driver: "redis", RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestTTLFor(t *testing.T) {
	cfg := testCacheConfig()
	assert.Equal(t, time.Minute, TTLFor(cfg, nutrition.NamespaceProviderAPI))
	assert.Equal(t, time.Hour, TTLFor(cfg, nutrition.NamespaceBarcode))

	cfg.APITTL = 0
	assert.Equal(t, time.Hour, TTLFor(cfg, nutrition.NamespaceProviderAPI))
}

func TestSetFullCacheReturnsError(t *testing.T) {
	m := NewManager(config.CacheConfig{MaxSize: 0, TTL: time.Hour})
	defer m.Close()

	err := m.Set(context.Background(), "a", []byte("1"), nutrition.NamespaceNutrition)
	assert.ErrorIs(t, err, common.ErrCacheFull)
}
