// Package cache holds the in-process caches that sit in front of schema
// generation and query execution. Expiry is lazy: entries are checked against
// their TTL when read and there is no background sweeper.
package cache

import "time"

// Entry is a cached value stamped with its insertion time.
type Entry[V any] struct {
	Value      V
	InsertedAt time.Time
	TTL        time.Duration
}

// NewEntry creates an entry inserted at now
func NewEntry[V any](value V, ttl time.Duration, now time.Time) Entry[V] {
	return Entry[V]{
		Value:      value,
		InsertedAt: now,
		TTL:        ttl,
	}
}

// Expired reports whether the entry must be treated as absent at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) >= e.TTL
}

// Option configures a cache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
