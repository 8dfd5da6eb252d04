package cache

import (
	"sync"
	"time"

	"mysql-mcp-gateway/internal/metrics"
)

// DefaultSchemaTTL is how long a schema is trusted without a staleness check.
const DefaultSchemaTTL = time.Hour

// FreshnessFlag is a single-entry cache. While set and unexpired the
// persisted schema file is known fresh and the staleness check is skipped.
type FreshnessFlag struct {
	mu    sync.Mutex
	entry *Entry[bool]
	ttl   time.Duration
	now   func() time.Time
}

// FlagStats describes the freshness flag for get_cache_stats
type FlagStats struct {
	Size       int   `json:"size"`
	MaxSize    int   `json:"max_size"`
	TTLSeconds int64 `json:"ttl"`
}

// NewFreshnessFlag creates an unset flag
func NewFreshnessFlag(ttl time.Duration, opts ...Option) *FreshnessFlag {
	if ttl <= 0 {
		ttl = DefaultSchemaTTL
	}
	o := buildOptions(opts)

	return &FreshnessFlag{
		ttl: ttl,
		now: o.now,
	}
}

// Set marks the schema fresh as of now.
func (f *FreshnessFlag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := NewEntry(true, f.ttl, f.now())
	f.entry = &e
}

// IsSet reports whether the flag is present and unexpired. An expired
// entry is dropped on the way out.
func (f *FreshnessFlag) IsSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	fresh := f.entry != nil && !f.entry.Expired(f.now())
	if !fresh {
		f.entry = nil
	}
	metrics.RecordCacheLookup("schema", fresh)
	return fresh
}

// Clear forgets the flag.
func (f *FreshnessFlag) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entry = nil
}

// Stats returns the flag occupancy. An expired but unread entry still counts.
func (f *FreshnessFlag) Stats() FlagStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	size := 0
	if f.entry != nil {
		size = 1
	}
	return FlagStats{
		Size:       size,
		MaxSize:    1,
		TTLSeconds: int64(f.ttl / time.Second),
	}
}
