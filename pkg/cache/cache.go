// Package cache provides explicit, caller-owned caches for blocks of commit
// records.
//
// Reading a large repository log is the slowest step of opening a session,
// so the CLI and the server keep previously read record blocks in a cache.
// There is no process-wide cache state: the owner of a session constructs a
// [Cache], wraps it in a [RecordCache] and passes it down explicitly.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry under a directory (CLI default)
//   - [SQLiteCache]: a single SQLite database under a directory
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: document store with a TTL index
//
// # Keys
//
// Keys are produced by a [Keyer]. [DefaultKeyer] digests the source name and
// window into fixed-length keys that every backend accepts; [ScopedKeyer]
// puts a namespace in front of them.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss as (nil, false, nil); an error is returned only when
// the backend failed.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
