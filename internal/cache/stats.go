package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/onnwee/simplecache/internal/errorreporting"
	"github.com/onnwee/simplecache/internal/logger"
	"github.com/onnwee/simplecache/internal/metrics"
)

// recorder keeps the per-backend counters and fans them out to prometheus.
// Faults are also logged (rate limited) and reported to sentry.
type recorder struct {
	backend  string
	log      *slog.Logger
	faultLog *rate.Limiter

	hits      atomic.Uint64
	misses    atomic.Uint64
	sets      atomic.Uint64
	rejected  atomic.Uint64
	deletes   atomic.Uint64
	evictions atomic.Uint64
	faults    atomic.Uint64
}

func newRecorder(backend string) *recorder {
	return &recorder{
		backend:  backend,
		log:      logger.WithBackend(backend),
		faultLog: rate.NewLimiter(rate.Every(100*time.Millisecond), 20),
	}
}

func (r *recorder) hit() {
	r.hits.Add(1)
	metrics.CacheRequests.WithLabelValues(r.backend, "get", "hit").Inc()
}

func (r *recorder) miss() {
	r.misses.Add(1)
	metrics.CacheRequests.WithLabelValues(r.backend, "get", "miss").Inc()
}

func (r *recorder) stored() {
	r.sets.Add(1)
	metrics.CacheRequests.WithLabelValues(r.backend, "set", "ok").Inc()
}

func (r *recorder) reject(op, key, reason string) {
	r.rejected.Add(1)
	metrics.CacheRequests.WithLabelValues(r.backend, op, "rejected").Inc()
	r.log.Warn("cache write rejected", "op", op, "key", key, "reason", reason)
}

func (r *recorder) deleted(removed bool) {
	result := "absent"
	if removed {
		r.deletes.Add(1)
		result = "ok"
	}
	metrics.CacheRequests.WithLabelValues(r.backend, "delete", result).Inc()
}

func (r *recorder) evicted(reason string, n int) {
	if n <= 0 {
		return
	}
	r.evictions.Add(uint64(n))
	metrics.CacheEvictions.WithLabelValues(r.backend, reason).Add(float64(n))
}

func (r *recorder) fault(ctx context.Context, op, key string, err error) {
	r.faults.Add(1)
	metrics.CacheFaults.WithLabelValues(r.backend, op).Inc()
	errorreporting.CaptureBackendFault(err, r.backend, op)
	if r.faultLog.Allow() {
		r.log.ErrorContext(ctx, "cache backend fault", "op", op, "key", key, "error", err)
	}
}

func (r *recorder) snapshot(items int64) Stats {
	metrics.CacheItems.WithLabelValues(r.backend).Set(float64(items))
	return Stats{
		Backend:   r.backend,
		Hits:      r.hits.Load(),
		Misses:    r.misses.Load(),
		Sets:      r.sets.Load(),
		Rejected:  r.rejected.Load(),
		Deletes:   r.deletes.Load(),
		Evictions: r.evictions.Load(),
		Faults:    r.faults.Load(),
		Items:     items,
	}
}

// recoverFault must be deferred directly by a backend operation. It turns a
// panic inside the storage library into a recorded fault; the operation then
// returns whatever its named results hold, which is the miss result.
func (r *recorder) recoverFault(ctx context.Context, op, key string) {
	if p := recover(); p != nil {
		r.fault(ctx, op, key, fmt.Errorf("panic in %s: %v", op, p))
	}
}
