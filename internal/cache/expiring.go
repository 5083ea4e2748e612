package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// ExpiringName is the label of ExpiringBackend.
const ExpiringName = "expiring"

// ExpiringBackend is a size-bounded cache built on ristretto. Every value is
// wrapped in an Entry carrying its own TTL, so keys can expire at different
// times. Ristretto's admission and eviction policy may drop an entry before
// its TTL runs out; callers see that as an ordinary miss.
type ExpiringBackend struct {
	cache *ristretto.Cache
	now   Clock
	rec   *recorder
}

var _ Backend = (*ExpiringBackend)(nil)

// NewExpiring creates an ExpiringBackend holding at most opts.MaxEntries items.
func NewExpiring(opts Options) (*ExpiringBackend, error) {
	maxEntries := int64(opts.maxEntries())
	rec := newRecorder(ExpiringName)

	// NumCounters should be ~10x the number of entries for optimal performance
	numCounters := maxEntries * 10
	if numCounters < 1000 {
		numCounters = 1000
	}

	config := &ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxEntries, // Every entry costs 1, so MaxCost is the entry bound
		BufferItems: 64,         // Number of keys per Get buffer
		Metrics:     true,
		// Without this ristretto adds its own per-item overhead to the cost.
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item) {
			rec.evicted("policy", 1)
		},
		OnReject: func(item *ristretto.Item) {
			rec.evicted("rejected", 1)
		},
	}

	cache, err := ristretto.NewCache(config)
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	return &ExpiringBackend{
		cache: cache,
		now:   opts.clock(),
		rec:   rec,
	}, nil
}

func (c *ExpiringBackend) Name() string { return ExpiringName }

// lookup returns the live entry for key and invalidates the slot when the
// stored entry has expired or has an unexpected type.
func (c *ExpiringBackend) lookup(key string) (*Entry, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}

	e, ok := val.(*Entry)
	if !ok {
		// Invalid item type, delete it
		c.cache.Del(key)
		return nil, false
	}

	if e.Expired(c.now()) {
		c.cache.Del(key)
		c.rec.evicted("expired", 1)
		return nil, false
	}
	return e, true
}

// Get retrieves a value from the cache by key.
func (c *ExpiringBackend) Get(ctx context.Context, key string) (value string, ok bool) {
	defer c.rec.recoverFault(ctx, "get", key)
	if key == "" {
		c.rec.miss()
		return "", false
	}
	e, found := c.lookup(key)
	if !found {
		c.rec.miss()
		return "", false
	}
	c.rec.hit()
	return e.Payload, true
}

// Set stores value under key with its own TTL.
func (c *ExpiringBackend) Set(ctx context.Context, key, value string, ttlSeconds int) (ok bool) {
	defer c.rec.recoverFault(ctx, "set", key)
	if reason, valid := validate(key, value, ttlSeconds); !valid {
		c.rec.reject("set", key, reason)
		return false
	}

	ttl := ttlDuration(ttlSeconds)
	// Ristretto's own TTL bounds how long a never-read entry stays resident.
	if !c.cache.SetWithTTL(key, newEntry(value, c.now(), ttl), 1, ttl) {
		c.rec.reject("set", key, "dropped by admission buffer")
		return false
	}

	// Wait for value to pass through buffers (recommended by ristretto docs)
	c.cache.Wait()
	c.rec.stored()
	return true
}

func (c *ExpiringBackend) Exists(ctx context.Context, key string) (ok bool) {
	defer c.rec.recoverFault(ctx, "exists", key)
	if key == "" {
		return false
	}
	_, found := c.lookup(key)
	return found
}

func (c *ExpiringBackend) Delete(ctx context.Context, key string) (removed bool) {
	defer c.rec.recoverFault(ctx, "delete", key)
	if key == "" {
		c.rec.deleted(false)
		return false
	}
	_, removed = c.lookup(key)
	c.cache.Del(key)
	c.rec.deleted(removed)
	return removed
}

func (c *ExpiringBackend) IncrementBy(context.Context, string, int64, int) (int64, error) {
	return 0, unsupported(ExpiringName, "IncrementBy")
}

// Stats returns cache statistics. Items is approximate: ristretto applies
// writes and evictions asynchronously.
func (c *ExpiringBackend) Stats() Stats {
	m := c.cache.Metrics
	items := int64(m.KeysAdded()) - int64(m.KeysEvicted()) - int64(c.rec.deletes.Load())
	if items < 0 {
		items = 0
	}
	return c.rec.snapshot(items)
}

// Close closes the cache and releases resources.
func (c *ExpiringBackend) Close() error {
	c.cache.Close()
	return nil
}
