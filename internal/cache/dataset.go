package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

const (
	datasetKeyPrefix  = "dataset"
	defaultDatasetTTL = 10 * time.Minute
)

// Backends accepted by CACHE_BACKEND.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// DatasetCache stores base datasets keyed by page, source identity and load
// parameters. Entries expire after the configured TTL.
type DatasetCache interface {
	Get(ctx context.Context, key Key) (*domain.Dataset, bool, error)
	Set(ctx context.Context, key Key, ds *domain.Dataset) error
	Invalidate(ctx context.Context, page string) error
	InvalidateAll(ctx context.Context) error
}

// Key identifies a cached dataset.
type Key struct {
	Page   string
	Source string
	Params map[string]string
}

// String renders the storage key. The page stays readable so entries can be
// dropped per page; the rest is hashed.
func (k Key) String() string {
	return pagePrefix(k.Page) + keyHash(k)
}

func pagePrefix(page string) string {
	return fmt.Sprintf("%s:%s:", datasetKeyPrefix, strings.ToLower(strings.TrimSpace(page)))
}

func keyHash(k Key) string {
	parts := []string{"source=" + strings.TrimSpace(k.Source)}
	for name, value := range k.Params {
		parts = append(parts, strings.ToLower(strings.TrimSpace(name))+"="+strings.TrimSpace(value))
	}
	sort.Strings(parts)

	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewDatasetCache builds the backend selected in configuration.
func NewDatasetCache(cfg config.CacheConfig) (DatasetCache, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return NewNoopDatasetCache(), nil
	case BackendMemory:
		return NewMemoryDatasetCache(cfg.MemorySize, datasetTTL(cfg)), nil
	case BackendRedis:
		return NewRedisDatasetCache(cfg)
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

func datasetTTL(cfg config.CacheConfig) time.Duration {
	ttl := time.Duration(cfg.DatasetTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultDatasetTTL
	}
	return ttl
}

type noopDatasetCache struct{}

func NewNoopDatasetCache() DatasetCache {
	return &noopDatasetCache{}
}

func (n *noopDatasetCache) Get(ctx context.Context, key Key) (*domain.Dataset, bool, error) {
	return nil, false, nil
}

func (n *noopDatasetCache) Set(ctx context.Context, key Key, ds *domain.Dataset) error {
	return nil
}

func (n *noopDatasetCache) Invalidate(ctx context.Context, page string) error {
	return nil
}

func (n *noopDatasetCache) InvalidateAll(ctx context.Context) error {
	return nil
}
