package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsStableAcrossParamOrder(t *testing.T) {
	a := Key{Page: "ventas", Source: "sql:SELECT 1", Params: map[string]string{"from": "2024-01-01", "to": "2024-01-31"}}
	b := Key{Page: "Ventas ", Source: "sql:SELECT 1", Params: map[string]string{"to": "2024-01-31", "from": "2024-01-01"}}

	assert.Equal(t, a.String(), b.String())
	assert.True(t, strings.HasPrefix(a.String(), "dataset:ventas:"))
}

func TestKeyDiffersBySourceAndParams(t *testing.T) {
	base := Key{Page: "ventas", Source: "sql:SELECT 1"}

	other := base
	other.Source = "sql:SELECT 2"
	assert.NotEqual(t, base.String(), other.String())

	withParams := base
	withParams.Params = map[string]string{"limit": "10"}
	assert.NotEqual(t, base.String(), withParams.String())
}

func TestMemoryDatasetCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryDatasetCache(4, time.Minute)

	ventas := Key{Page: "ventas", Source: "sql:a"}
	clientes := Key{Page: "clientes", Source: "sql:b"}
	ds := &domain.Dataset{Page: "ventas", Records: []domain.SaleRecord{{Brand: "Nike"}}}

	_, ok, err := c.Get(ctx, ventas)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, ventas, ds))
	require.NoError(t, c.Set(ctx, clientes, &domain.Dataset{Page: "clientes"}))

	got, ok, err := c.Get(ctx, ventas)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, ds, got)

	require.NoError(t, c.Invalidate(ctx, "ventas"))
	_, ok, _ = c.Get(ctx, ventas)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, clientes)
	assert.True(t, ok)

	require.NoError(t, c.InvalidateAll(ctx))
	_, ok, _ = c.Get(ctx, clientes)
	assert.False(t, ok)
}

func TestMemoryDatasetCacheExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryDatasetCache(4, 20*time.Millisecond)
	key := Key{Page: "ventas", Source: "sql:a"}

	require.NoError(t, c.Set(ctx, key, &domain.Dataset{}))
	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, key)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNoopDatasetCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopDatasetCache()
	key := Key{Page: "ventas"}

	require.NoError(t, c.Set(ctx, key, &domain.Dataset{}))
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewDatasetCacheBackends(t *testing.T) {
	c, err := NewDatasetCache(config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	assert.IsType(t, &noopDatasetCache{}, c)

	c, err = NewDatasetCache(config.CacheConfig{Backend: "Memory", DatasetTTLSeconds: 600})
	require.NoError(t, err)
	assert.IsType(t, &memoryDatasetCache{}, c)

	_, err = NewDatasetCache(config.CacheConfig{Backend: "memcached"})
	assert.Error(t, err)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:pw@localhost:6379/3"})
	require.NoError(t, err)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	assert.Error(t, err)
}
