package cache

import (
	"context"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemoryEntries = 64

type memoryDatasetCache struct {
	lru *expirable.LRU[string, *domain.Dataset]
}

// NewMemoryDatasetCache keeps up to size datasets in process for ttl.
// Datasets are shared, not copied: callers must treat them as read-only.
func NewMemoryDatasetCache(size int, ttl time.Duration) DatasetCache {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	if ttl <= 0 {
		ttl = defaultDatasetTTL
	}
	return &memoryDatasetCache{lru: expirable.NewLRU[string, *domain.Dataset](size, nil, ttl)}
}

func (c *memoryDatasetCache) Get(ctx context.Context, key Key) (*domain.Dataset, bool, error) {
	ds, ok := c.lru.Get(key.String())
	return ds, ok, nil
}

func (c *memoryDatasetCache) Set(ctx context.Context, key Key, ds *domain.Dataset) error {
	c.lru.Add(key.String(), ds)
	return nil
}

func (c *memoryDatasetCache) Invalidate(ctx context.Context, page string) error {
	prefix := pagePrefix(page)
	for _, k := range c.lru.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lru.Remove(k)
		}
	}
	return nil
}

func (c *memoryDatasetCache) InvalidateAll(ctx context.Context) error {
	c.lru.Purge()
	return nil
}
