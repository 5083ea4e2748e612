package cache

import "time"

// Entry is an immutable cached record. A new Entry is built for every write.
type Entry struct {
	Payload   string
	CreatedAt time.Time
	TTL       time.Duration
}

func newEntry(payload string, createdAt time.Time, ttl time.Duration) *Entry {
	return &Entry{Payload: payload, CreatedAt: createdAt, TTL: ttl}
}

// Expired reports whether the entry is past its TTL at now.
// A nil or empty entry is treated as expired.
func (e *Entry) Expired(now time.Time) bool {
	if e == nil || e.Payload == "" || e.TTL <= 0 {
		return true
	}
	return now.Sub(e.CreatedAt) > e.TTL
}

// Remaining returns the time left before the entry expires, or 0.
func (e *Entry) Remaining(now time.Time) time.Duration {
	if e.Expired(now) {
		return 0
	}
	return e.TTL - now.Sub(e.CreatedAt)
}
