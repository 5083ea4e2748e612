package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/onnwee/simplecache/internal/metrics"
)

// Sweeper periodically scans a LocalBackend map and removes expired entries,
// so keys written once and never read again do not pin memory.
//
// The scan relies on the map's weakly consistent Range: entries added or
// removed mid-scan may or may not be visited. Removal re-checks expiry on the
// value present at delete time.
type Sweeper struct {
	entries  *xsync.MapOf[string, *Entry]
	interval time.Duration
	now      Clock
	rec      *recorder
	log      *slog.Logger
	enabled  bool

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

// NewSweeper builds a sweeper over entries. A nil map disables it; the owning
// backend then relies on lazy removal only.
func NewSweeper(entries *xsync.MapOf[string, *Entry], interval time.Duration, now Clock, rec *recorder) *Sweeper {
	if rec == nil {
		rec = newRecorder(LocalName)
	}
	if now == nil {
		now = time.Now
	}
	s := &Sweeper{
		entries:  entries,
		interval: interval,
		now:      now,
		rec:      rec,
		log:      rec.log.With("task", "sweeper"),
		enabled:  entries != nil && interval > 0,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if !s.enabled {
		s.log.Error("reclamation sweeper disabled, expired entries are removed on read only",
			"has_map", entries != nil, "interval", interval)
	}
	return s
}

// Enabled reports whether the sweeper is wired to a map.
func (s *Sweeper) Enabled() bool { return s.enabled }

// Start launches the background loop. It is a no-op when disabled or
// already started.
func (s *Sweeper) Start() {
	if !s.enabled {
		return
	}
	s.startOnce.Do(func() {
		s.started = true
		s.log.Info("reclamation sweeper started", "interval", s.interval)
		go s.run()
	})
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce()
		case <-s.stop:
			return
		}
	}
}

// Stop ends the background loop and waits for an in-flight sweep to finish.
// Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.startOnce.Do(func() {})
		if s.started {
			<-s.done
		}
	})
}

// SweepOnce performs one full scan and returns the number of removed entries.
func (s *Sweeper) SweepOnce() int {
	if !s.enabled {
		return 0
	}
	start := time.Now()
	now := s.now()
	removed := 0
	s.entries.Range(func(key string, e *Entry) bool {
		if s.sweepEntry(key, e, now) {
			removed++
		}
		return true
	})

	s.rec.evicted("swept", removed)
	metrics.CacheSweepDuration.Observe(time.Since(start).Seconds())
	metrics.CacheSweepRemoved.Add(float64(removed))
	s.log.Info("sweep finished", "removed", removed, "remaining", s.entries.Size(), "took", time.Since(start))
	return removed
}

// sweepEntry handles a single key. A panic here skips the key, not the scan.
func (s *Sweeper) sweepEntry(key string, e *Entry, now time.Time) (removed bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sweep step failed", "key", key, "panic", r)
			removed = false
		}
	}()
	if key == "" {
		s.log.Warn("empty key found in cache map")
	}
	if !e.Expired(now) {
		return false
	}
	return deleteIfExpired(s.entries, key, now)
}
