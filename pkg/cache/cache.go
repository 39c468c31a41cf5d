// Package cache provides the byte-level caches used for catalog responses
// and card images.
//
// # Backends
//
//   - [FileCache]: sharded JSON files on disk, used by the CLI
//   - [SQLiteCache]: a single database file, for hosts that dislike many small files
//   - [RedisCache]: shared cache for multi-instance HTTP servers
//   - [NullCache]: caching disabled
//
// All backends store opaque bytes with an optional TTL. Keys are produced
// by a [Keyer] so that every caller agrees on the key layout:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.CardKey("m10", "146", "")
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache closed")

// Cache stores opaque byte values by key.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// itself failed. A ttl of zero stores the value without expiration.
// Implementations are safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything. It backs --no-cache and
// backend = "none".
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
