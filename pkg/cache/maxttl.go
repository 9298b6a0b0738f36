package cache

import (
	"context"
	"time"
)

// MaxTTL caps the expiry of every entry written through it. Entries
// written with a longer or non-expiring ttl get max instead.
type MaxTTL struct {
	Cache
	max time.Duration
}

// NewMaxTTL wraps c. A non-positive max returns c unchanged.
func NewMaxTTL(c Cache, max time.Duration) Cache {
	if max <= 0 {
		return c
	}
	return &MaxTTL{Cache: c, max: max}
}

// Set implements Cache.
func (m *MaxTTL) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > m.max {
		ttl = m.max
	}
	return m.Cache.Set(ctx, key, data, ttl)
}
