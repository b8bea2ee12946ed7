package main

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MetadataCache is a read-through cache of raw upstream JSON keyed by
// request path. Two eviction forces act on every entry: LRU once the
// capacity bound is hit, and a fixed TTL regardless of access recency.
// Expired entries are treated as absent.
//
// Concurrent misses on one key collapse into a single upstream call whose
// result all waiters share; a failed fetch leaves no entry behind.
type MetadataCache struct {
	lru      *expirable.LRU[string, []byte]
	group    singleflight.Group
	upstream *UpstreamClient
	log      *zap.Logger
}

func NewMetadataCache(upstream *UpstreamClient, size int, ttl time.Duration, log *zap.Logger) *MetadataCache {
	return &MetadataCache{
		lru:      expirable.NewLRU[string, []byte](size, nil, ttl),
		upstream: upstream,
		log:      log,
	}
}

// GetOrFetch returns the cached body for path, fetching and storing it on a
// miss. The stored value is replaced on refresh, never mutated in place.
func (c *MetadataCache) GetOrFetch(ctx context.Context, path string) ([]byte, error) {
	if data, ok := c.lru.Get(path); ok {
		metadataCacheHits.Inc()
		return data, nil
	}
	metadataCacheMisses.Inc()

	v, err, shared := c.group.Do(path, func() (interface{}, error) {
		// A concurrent flight may have populated the entry while this
		// caller was queueing on the group.
		if data, ok := c.lru.Get(path); ok {
			return data, nil
		}
		data, err := c.upstream.FetchJSON(ctx, path)
		if err != nil {
			return nil, err
		}
		c.lru.Add(path, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("collapsed concurrent fetch", zap.String("path", path))
	}
	return v.([]byte), nil
}

// Len reports the number of live entries.
func (c *MetadataCache) Len() int {
	return c.lru.Len()
}
