package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// LocalName is the label of LocalBackend.
const LocalName = "local"

// LocalBackend is an in-process concurrent map of Entry values with a TTL per
// key. Expired entries are removed by the read that finds them and by a
// background Sweeper. The map has no capacity bound of its own.
//
// IncrementBy is not supported: payloads are opaque strings and the map has
// no atomic counter representation.
type LocalBackend struct {
	entries *xsync.MapOf[string, *Entry]
	now     Clock
	rec     *recorder
	sweeper *Sweeper
}

var _ Backend = (*LocalBackend)(nil)

// NewLocal creates a LocalBackend and starts its sweeper.
func NewLocal(opts Options) *LocalBackend {
	b := &LocalBackend{
		entries: xsync.NewMapOf[string, *Entry](),
		now:     opts.clock(),
		rec:     newRecorder(LocalName),
	}
	b.sweeper = NewSweeper(b.entries, opts.sweepInterval(), b.now, b.rec)
	b.sweeper.Start()
	return b
}

func (b *LocalBackend) Name() string { return LocalName }

// Get returns the live value for key, removing it first if it has expired.
func (b *LocalBackend) Get(_ context.Context, key string) (string, bool) {
	if key == "" {
		b.rec.miss()
		return "", false
	}
	e, ok := b.entries.Load(key)
	if !ok {
		b.rec.miss()
		return "", false
	}
	if now := b.now(); e.Expired(now) {
		if deleteIfExpired(b.entries, key, now) {
			b.rec.evicted("expired", 1)
		}
		b.rec.miss()
		return "", false
	}
	b.rec.hit()
	return e.Payload, true
}

// Set replaces the entry for key. Last writer wins.
func (b *LocalBackend) Set(_ context.Context, key, value string, ttlSeconds int) bool {
	if reason, ok := validate(key, value, ttlSeconds); !ok {
		b.rec.reject("set", key, reason)
		return false
	}
	b.entries.Store(key, newEntry(value, b.now(), ttlDuration(ttlSeconds)))
	b.rec.stored()
	return true
}

func (b *LocalBackend) Exists(_ context.Context, key string) bool {
	if key == "" {
		return false
	}
	e, ok := b.entries.Load(key)
	if !ok {
		return false
	}
	if now := b.now(); e.Expired(now) {
		if deleteIfExpired(b.entries, key, now) {
			b.rec.evicted("expired", 1)
		}
		return false
	}
	return true
}

// Delete removes key. An entry that had already expired is removed too but
// reported as absent.
func (b *LocalBackend) Delete(_ context.Context, key string) bool {
	if key == "" {
		b.rec.deleted(false)
		return false
	}
	now := b.now()
	removed := false
	b.entries.Compute(key, func(old *Entry, loaded bool) (*Entry, bool) {
		if loaded {
			removed = !old.Expired(now)
		}
		return old, true
	})
	b.rec.deleted(removed)
	return removed
}

func (b *LocalBackend) IncrementBy(context.Context, string, int64, int) (int64, error) {
	return 0, unsupported(LocalName, "IncrementBy")
}

// Len returns the number of stored entries, including expired entries that
// have not been reclaimed yet.
func (b *LocalBackend) Len() int {
	return b.entries.Size()
}

// SweepOnce runs one reclamation cycle synchronously and returns the number
// of entries removed.
func (b *LocalBackend) SweepOnce() int {
	return b.sweeper.SweepOnce()
}

func (b *LocalBackend) Stats() Stats {
	return b.rec.snapshot(int64(b.entries.Size()))
}

// Close stops the sweeper. The map stays readable.
func (b *LocalBackend) Close() error {
	b.sweeper.Stop()
	return nil
}

// deleteIfExpired removes key only if the value currently stored is expired
// at now, so a fresh write racing with the check is kept.
func deleteIfExpired(m *xsync.MapOf[string, *Entry], key string, now time.Time) bool {
	removed := false
	m.Compute(key, func(old *Entry, loaded bool) (*Entry, bool) {
		if !loaded {
			return old, true
		}
		if old.Expired(now) {
			removed = true
			return old, true
		}
		return old, false
	})
	return removed
}
