// Package cache stores computed layouts and rendered artifacts.
//
// Laying out a diagram is the expensive step of a render, and the result
// depends only on the graph, the viewport size and the layout options. The
// layout adapter hashes those inputs into a key and keeps the positioned
// result here, so re-rendering the same definitions with a different scale
// or highlight skips the layout engine entirely.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [MemoryCache]: a bounded LRU, for a single server process
//   - [RedisCache]: shared between server instances
//   - [NullCache]: caching disabled
//
// All backends treat a missing or expired entry as a miss (ok == false,
// err == nil). Errors are reserved for storage failures.
//
// # Keys
//
// A [Keyer] builds keys from content hashes. [ScopedKeyer] prefixes every
// key, which lets several tenants or tools share one Redis database.
package cache

import (
	"context"
	"time"
)

// Default TTLs.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored data and whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}
