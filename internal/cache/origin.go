package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// OriginName is the label of OriginBackend.
const OriginName = "origin"

// OriginBackend is a bounded LRU whose entries expire after fixed,
// process-wide access and write windows. The per-call TTL passed to Set is
// validated and then ignored.
type OriginBackend struct {
	cache        *lru.Cache[string, *originItem]
	now          Clock
	rec          *recorder
	accessWindow time.Duration
	writeWindow  time.Duration
}

// originItem records when the value was written and last read.
type originItem struct {
	value      string
	writtenAt  time.Time
	lastAccess atomic.Int64 // unix nanos
}

var _ Backend = (*OriginBackend)(nil)

// NewOrigin creates an OriginBackend holding at most opts.MaxEntries items.
func NewOrigin(opts Options) (*OriginBackend, error) {
	b := &OriginBackend{
		now:          opts.clock(),
		rec:          newRecorder(OriginName),
		accessWindow: opts.accessExpiry(),
		writeWindow:  opts.writeExpiry(),
	}
	c, err := lru.New[string, *originItem](opts.maxEntries())
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	b.cache = c
	return b, nil
}

func (b *OriginBackend) Name() string { return OriginName }

func (b *OriginBackend) expired(it *originItem, now time.Time) bool {
	if now.Sub(it.writtenAt) > b.writeWindow {
		return true
	}
	return now.Sub(time.Unix(0, it.lastAccess.Load())) > b.accessWindow
}

// lookup returns the live item for key, refreshing its access time. Expired
// items are removed from the LRU.
func (b *OriginBackend) lookup(key string, touch bool) (*originItem, bool) {
	it, ok := b.cache.Peek(key)
	if !ok {
		return nil, false
	}
	now := b.now()
	if b.expired(it, now) {
		if b.cache.Remove(key) {
			b.rec.evicted("expired", 1)
		}
		return nil, false
	}
	if touch {
		// Get moves the key to the front of the LRU.
		b.cache.Get(key)
		it.lastAccess.Store(now.UnixNano())
	}
	return it, true
}

func (b *OriginBackend) Get(ctx context.Context, key string) (value string, ok bool) {
	defer b.rec.recoverFault(ctx, "get", key)
	if key == "" {
		b.rec.miss()
		return "", false
	}
	it, found := b.lookup(key, true)
	if !found {
		b.rec.miss()
		return "", false
	}
	b.rec.hit()
	return it.value, true
}

// Set stores value under key. ttlSeconds must be valid but does not affect
// expiry, which is governed by the access and write windows.
func (b *OriginBackend) Set(ctx context.Context, key, value string, ttlSeconds int) (ok bool) {
	defer b.rec.recoverFault(ctx, "set", key)
	if reason, valid := validate(key, value, ttlSeconds); !valid {
		b.rec.reject("set", key, reason)
		return false
	}
	now := b.now()
	it := &originItem{value: value, writtenAt: now}
	it.lastAccess.Store(now.UnixNano())
	if b.cache.Add(key, it) {
		b.rec.evicted("capacity", 1)
	}
	b.rec.stored()
	return true
}

func (b *OriginBackend) Exists(ctx context.Context, key string) (ok bool) {
	defer b.rec.recoverFault(ctx, "exists", key)
	if key == "" {
		return false
	}
	_, found := b.lookup(key, false)
	return found
}

func (b *OriginBackend) Delete(ctx context.Context, key string) (removed bool) {
	defer b.rec.recoverFault(ctx, "delete", key)
	if key == "" {
		b.rec.deleted(false)
		return false
	}
	_, removed = b.lookup(key, false)
	if removed {
		b.cache.Remove(key)
	}
	b.rec.deleted(removed)
	return removed
}

func (b *OriginBackend) IncrementBy(context.Context, string, int64, int) (int64, error) {
	return 0, unsupported(OriginName, "IncrementBy")
}

func (b *OriginBackend) Stats() Stats {
	return b.rec.snapshot(int64(b.cache.Len()))
}

func (b *OriginBackend) Close() error {
	b.cache.Purge()
	return nil
}
