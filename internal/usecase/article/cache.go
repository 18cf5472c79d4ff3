package article

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"newsportal/internal/domain/entity"
	"newsportal/internal/observability/metrics"
)

// DefaultCacheSize is the number of query results kept when no size is configured.
const DefaultCacheSize = 1024

const maxCacheSize = 1 << 20

// Cache memoizes query results per channel generation. Invalidate moves a
// channel to a new generation, so results computed before an ingestion run
// in this process are never served after it. Runs in another process are
// picked up once entries expire. Concurrent identical misses share one load.
type Cache struct {
	entries *expirable.LRU[string, any]
	group   singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCache creates a cache holding up to size results that never expire.
func NewCache(size int) (*Cache, error) {
	return NewCacheWithTTL(size, 0)
}

// NewCacheWithTTL creates a cache whose entries expire after ttl.
// A ttl of zero or less disables expiry.
func NewCacheWithTTL(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if size > maxCacheSize {
		return nil, fmt.Errorf("create query cache: size %d exceeds %d", size, maxCacheSize)
	}
	return &Cache{
		entries:     expirable.NewLRU[string, any](size, nil, ttl),
		generations: make(map[string]uint64),
	}, nil
}

// Invalidate drops every cached result of the channel.
func (c *Cache) Invalidate(channelID string) {
	c.mu.Lock()
	c.generations[channelID]++
	c.mu.Unlock()
}

// Len returns the number of cached results, including stale generations not yet evicted.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func (c *Cache) generation(channelID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[channelID]
}

// cached returns the value for key, loading it with fn on a miss. copyFn is
// applied to every value handed out so callers never share cached data.
// A nil cache always calls fn.
func cached[T any](c *Cache, channelID, key string, fn func() (T, error), copyFn func(T) T) (T, error) {
	if c == nil {
		return fn()
	}

	fullKey := fmt.Sprintf("%s\x00%d\x00%s", channelID, c.generation(channelID), key)
	if v, ok := c.entries.Get(fullKey); ok {
		metrics.RecordQueryCache(true)
		return copyFn(v.(T)), nil
	}
	metrics.RecordQueryCache(false)

	v, err, _ := c.group.Do(fullKey, func() (any, error) {
		res, err := fn()
		if err != nil {
			return nil, err
		}
		c.entries.Add(fullKey, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return copyFn(v.(T)), nil
}

func cloneArticles(in []*entity.Article) []*entity.Article {
	out := make([]*entity.Article, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

func cloneArticle(a *entity.Article) *entity.Article {
	return a.Clone()
}

func cloneCategories(in []CategoryCount) []CategoryCount {
	return slices.Clone(in)
}
