// Package repository holds the process-wide cache of loaded sources.
//
// Entries are keyed by source identity (see FileKey and HistoryKey) and
// populated at most once per key until invalidated. Concurrent callers
// asking for the same missing key share a single load. Failed loads are
// never cached.
package repository

import (
	"context"
	"fmt"
	"time"
)

// Loader produces the value for a key on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// Entry is a cached value plus the time it was stored.
type Entry[V any] struct {
	Key      string
	Value    V
	LoadedAt time.Time
}

// Store provides read-through access to cached source loads.
type Store[V any] interface {
	// GetOrLoad returns the cached value for key, calling load on a miss.
	// The boolean reports whether the value came from the cache.
	GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, bool, error)

	// Peek returns the cached entry without loading.
	// Returns ErrNotFound if the key is not cached.
	Peek(key string) (Entry[V], error)

	// Invalidate drops key; the next GetOrLoad reloads it.
	Invalidate(key string) bool

	// InvalidateAll drops every entry.
	InvalidateAll() int

	// Keys returns the cached keys in sorted order.
	Keys() []string

	// Len returns the number of cached entries.
	Len() int
}

// FileKey is the cache key of a snapshot file.
func FileKey(path string) string {
	return "file:" + path
}

// HistoryKey is the cache key of a historical timeline request.
func HistoryKey(baseURL, lastDays string) string {
	return fmt.Sprintf("%s?lastdays=%s", baseURL, lastDays)
}
