package cache

import (
	"context"
	"time"
)

// MaxTTLSeconds is the longest TTL any backend accepts (31 days).
const MaxTTLSeconds = 60 * 60 * 24 * 31

// Backend defines the storage contract shared by every cache strategy.
//
// Operations never fail for ordinary runtime conditions: empty arguments,
// expired keys and store outages all degrade to a miss, false or 0.
// IncrementBy is the one operation that returns an error, and only on
// backends that have no atomic counter.
type Backend interface {
	// Name returns the backend label used in logs and metrics.
	Name() string

	// Get returns the live value for key.
	// Absent and expired keys are both reported as a miss.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key for ttlSeconds, replacing any prior entry.
	// It returns false without side effects when key or value is empty
	// or ttlSeconds is outside (0, MaxTTLSeconds].
	Set(ctx context.Context, key, value string, ttlSeconds int) bool

	// Exists reports whether a live value is stored under key.
	Exists(ctx context.Context, key string) bool

	// Delete removes key and reports whether an entry was removed.
	Delete(ctx context.Context, key string) bool

	// IncrementBy atomically adds step to the counter under key and
	// (re)sets its TTL, returning the new value.
	IncrementBy(ctx context.Context, key string, step int64, ttlSeconds int) (int64, error)

	// Stats returns a snapshot of the backend counters.
	Stats() Stats

	// Close releases background work owned by the backend.
	Close() error
}

// Stats represents cache statistics.
type Stats struct {
	Backend   string `json:"backend"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Sets      uint64 `json:"sets"`
	Rejected  uint64 `json:"rejected"`  // Sets refused by validation or admission
	Deletes   uint64 `json:"deletes"`
	Evictions uint64 `json:"evictions"` // Entries removed by expiry, sweep or capacity
	Faults    uint64 `json:"faults"`    // Backend execution faults converted to sentinels
	Items     int64  `json:"items"`     // Current number of items, -1 when unknown
}

// Clock returns the current time. Backends take one so tests can simulate time.
type Clock func() time.Time

func ttlDuration(ttlSeconds int) time.Duration {
	return time.Duration(ttlSeconds) * time.Second
}

// validate applies the Set preconditions shared by every backend and returns
// a short reason when the write must be rejected.
func validate(key, value string, ttlSeconds int) (string, bool) {
	switch {
	case key == "":
		return "empty key", false
	case value == "":
		return "empty value", false
	case ttlSeconds <= 0:
		return "ttl too small", false
	case ttlSeconds > MaxTTLSeconds:
		return "ttl too large", false
	}
	return "", true
}

func validTTL(ttlSeconds int) bool {
	return ttlSeconds > 0 && ttlSeconds <= MaxTTLSeconds
}
