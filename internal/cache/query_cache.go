package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"mysql-mcp-gateway/internal/metrics"
)

const (
	// DefaultQueryCacheSize bounds the number of cached result sets.
	DefaultQueryCacheSize = 100
	// DefaultQueryTTL is how long a cached result set is served.
	DefaultQueryTTL = 5 * time.Minute
)

// QueryCache maps a query cache key to a serialized result set. Capacity
// overflow evicts the least recently used entry; TTL expiry is checked on read.
type QueryCache struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, Entry[string]]
	capacity int
	ttl      time.Duration
	now      func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

// QueryCacheStats describes the query cache for get_cache_stats
type QueryCacheStats struct {
	Size       int    `json:"size"`
	MaxSize    int    `json:"max_size"`
	TTLSeconds int64  `json:"ttl"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
}

// NewQueryCache creates an empty cache. Non-positive arguments fall back to defaults.
func NewQueryCache(capacity int, ttl time.Duration, opts ...Option) (*QueryCache, error) {
	if capacity <= 0 {
		capacity = DefaultQueryCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}

	entries, err := lru.New[string, Entry[string]](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}

	o := buildOptions(opts)
	return &QueryCache{
		entries:  entries,
		capacity: capacity,
		ttl:      ttl,
		now:      o.now,
	}, nil
}

// Get returns the cached value and marks it most recently used. Expired
// entries are removed and reported as a miss.
func (c *QueryCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if ok && entry.Expired(c.now()) {
		c.entries.Remove(key)
		metrics.UpdateCacheEntries("query", c.entries.Len())
		ok = false
	}

	if ok {
		c.hits++
	} else {
		c.misses++
	}
	metrics.RecordCacheLookup("query", ok)

	if !ok {
		return "", false
	}
	return entry.Value, true
}

// Set stores value under key, replacing any previous entry.
func (c *QueryCache) Set(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.entries.Add(key, NewEntry(value, c.ttl, c.now())); evicted {
		c.evictions++
		metrics.RecordCacheEviction("query")
	}
	metrics.UpdateCacheEntries("query", c.entries.Len())
}

// contains reports whether key is present and unexpired without touching recency.
func (c *QueryCache) contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Peek(key)
	return ok && !entry.Expired(c.now())
}

// keys returns the stored keys from least to most recently used.
func (c *QueryCache) keys() []string {
	return c.entries.Keys()
}

// size returns the number of stored entries, including expired ones not yet read.
func (c *QueryCache) size() int {
	return c.entries.Len()
}

// Purge drops every entry and returns how many were stored. Counters are kept.
func (c *QueryCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.entries.Len()
	c.entries.Purge()
	metrics.UpdateCacheEntries("query", 0)
	return n
}

// Stats returns occupancy and counters
func (c *QueryCache) Stats() QueryCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return QueryCacheStats{
		Size:       c.entries.Len(),
		MaxSize:    c.capacity,
		TTLSeconds: int64(c.ttl / time.Second),
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}
