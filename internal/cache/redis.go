package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
	"github.com/redis/go-redis/v9"
)

const datasetScanBatchSize = 100

type redisDatasetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDatasetCache(cfg config.CacheConfig) (DatasetCache, error) {
	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDatasetCache{
		client: client,
		ttl:    datasetTTL(cfg),
	}, nil
}

func (c *redisDatasetCache) Get(ctx context.Context, key Key) (*domain.Dataset, bool, error) {
	payload, err := c.client.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var ds domain.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, false, fmt.Errorf("decode dataset cache: %w", err)
	}

	return &ds, true, nil
}

func (c *redisDatasetCache) Set(ctx context.Context, key Key, ds *domain.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode dataset cache: %w", err)
	}

	if err := c.client.Set(ctx, key.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisDatasetCache) Invalidate(ctx context.Context, page string) error {
	return deleteKeysWithPrefix(ctx, c.client, pagePrefix(page), datasetScanBatchSize)
}

func (c *redisDatasetCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, datasetKeyPrefix+":", datasetScanBatchSize)
}
