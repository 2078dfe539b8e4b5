package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/covidboard/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Cache is an in-memory Store. Loads for the same key are coalesced
// through a singleflight group.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[V]
	// gen is bumped by every invalidation; a load that started under an
	// older generation does not publish its result.
	gen   uint64
	group singleflight.Group

	opts options

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store[int] = (*Cache[int])(nil)

// NewCache constructs an empty cache and starts its metrics updater.
// The updater stops when ctx is done or Close is called.
func NewCache[V any](ctx context.Context, opts ...Option) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]Entry[V]),
		opts: options{
			name:                  "default",
			metricsUpdateInterval: 5 * time.Second,
			now:                   time.Now,
		},
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}

	c.startMetricsUpdater(ctx)
	return c
}

type result[V any] struct {
	value  V
	cached bool
}

// GetOrLoad implements Store.GetOrLoad.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, bool, error) {
	var zero V
	if key == "" {
		return zero, false, ErrEmptyKey
	}
	if load == nil {
		return zero, false, ErrNilLoader
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		metrics.RecordCacheHit(c.opts.name)
		return e.Value, true, nil
	}
	metrics.RecordCacheMiss(c.opts.name)

	// The shared load must outlive any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another flight may have filled the key while we waited.
		c.mu.RLock()
		if e, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return result[V]{value: e.Value, cached: true}, nil
		}
		c.mu.RUnlock()

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.entries[key] = Entry[V]{Key: key, Value: v, LoadedAt: c.opts.now()}
		}
		c.mu.Unlock()
		return result[V]{value: v}, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		r := res.Val.(result[V])
		return r.value, r.cached, nil
	}
}

// Peek implements Store.Peek.
func (c *Cache[V]) Peek(key string) (Entry[V], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry[V]{}, ErrNotFound
	}
	return e, nil
}

// Invalidate implements Store.Invalidate.
func (c *Cache[V]) Invalidate(key string) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.gen++
	c.mu.Unlock()

	c.group.Forget(key)
	if ok {
		metrics.RecordCacheInvalidation(c.opts.name)
	}
	return ok
}

// InvalidateAll implements Store.InvalidateAll.
func (c *Cache[V]) InvalidateAll() int {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = make(map[string]Entry[V])
	c.gen++
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
		metrics.RecordCacheInvalidation(c.opts.name)
	}
	return len(keys)
}

// Keys implements Store.Keys.
func (c *Cache[V]) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Len implements Store.Len.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the metrics updater.
func (c *Cache[V]) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
	return nil
}

// startMetricsUpdater publishes the entry count at the configured interval.
func (c *Cache[V]) startMetricsUpdater(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.opts.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateCacheEntries(c.opts.name, c.Len())
			}
		}
	}()
}
