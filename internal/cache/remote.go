package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/onnwee/simplecache/internal/circuitbreaker"
	"github.com/onnwee/simplecache/internal/metrics"
	"github.com/onnwee/simplecache/internal/tracing"
)

// RemoteName is the label of RemoteBackend.
const RemoteName = "remote"

// RemoteClient is the subset of the go-redis command set used by
// RemoteBackend. *redis.Client, *redis.ClusterClient and
// redis.UniversalClient all satisfy it.
type RemoteClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
}

var (
	_ RemoteClient = (*redis.Client)(nil)
	_ RemoteClient = redis.UniversalClient(nil)
)

// RemoteBackend stores entries in a redis-compatible key-value store and
// relies on its native TTL and INCRBY.
//
// Store errors never reach the caller: they are logged, reported and turned
// into a miss, false or 0. While disabled, or while the optional breaker is
// open, no command is sent.
type RemoteBackend struct {
	client   RemoteClient
	breaker  *circuitbreaker.CircuitBreaker
	disabled atomic.Bool
	rec      *recorder
}

var _ Backend = (*RemoteBackend)(nil)

// NewRemote wraps client. A nil client is a configuration error.
func NewRemote(client RemoteClient, opts Options) (*RemoteBackend, error) {
	if client == nil {
		return nil, &Error{Code: CodeInitialParam, Message: "remote store client handle is required"}
	}
	b := &RemoteBackend{
		client:  client,
		breaker: opts.Breaker,
		rec:     newRecorder(RemoteName),
	}
	b.disabled.Store(opts.RemoteDisabled)
	return b, nil
}

func (b *RemoteBackend) Name() string { return RemoteName }

// SetDisabled turns the backend into a no-op (or back).
func (b *RemoteBackend) SetDisabled(disabled bool) {
	if b.disabled.Swap(disabled) != disabled {
		b.rec.log.Warn("remote cache backend toggled", "disabled", disabled)
	}
}

// Disabled reports whether the backend is currently a no-op.
func (b *RemoteBackend) Disabled() bool { return b.disabled.Load() }

// do runs one store round trip inside a span and through the breaker.
func (b *RemoteBackend) do(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.StartSpan(ctx, "cache.remote."+op,
		attribute.String("cache.backend", RemoteName),
		attribute.String("cache.key", key),
	)
	defer span.End()

	start := time.Now()
	call := func() error { return fn(ctx) }
	var err error
	if b.breaker != nil {
		err = b.breaker.Call(call)
	} else {
		err = call()
	}
	metrics.RemoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// failed records err unless it is the breaker short-circuiting, which is
// expected while the store is known to be down.
func (b *RemoteBackend) failed(ctx context.Context, op, key string, err error) {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		metrics.CacheRequests.WithLabelValues(RemoteName, op, "short_circuit").Inc()
		return
	}
	b.rec.fault(ctx, op, key, err)
}

func (b *RemoteBackend) Get(ctx context.Context, key string) (value string, ok bool) {
	defer b.rec.recoverFault(ctx, "get", key)
	if key == "" || b.disabled.Load() {
		b.rec.miss()
		return "", false
	}
	err := b.do(ctx, "get", key, func(ctx context.Context) error {
		v, err := b.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		value, ok = v, true
		return nil
	})
	if err != nil {
		b.failed(ctx, "get", key, err)
		value, ok = "", false
	}
	if !ok || value == "" {
		b.rec.miss()
		return "", false
	}
	b.rec.hit()
	return value, true
}

// Set writes value with its expiry in a single SET EX command.
func (b *RemoteBackend) Set(ctx context.Context, key, value string, ttlSeconds int) (ok bool) {
	defer b.rec.recoverFault(ctx, "set", key)
	if reason, valid := validate(key, value, ttlSeconds); !valid {
		b.rec.reject("set", key, reason)
		return false
	}
	if b.disabled.Load() {
		return false
	}
	err := b.do(ctx, "set", key, func(ctx context.Context) error {
		return b.client.Set(ctx, key, value, ttlDuration(ttlSeconds)).Err()
	})
	if err != nil {
		b.failed(ctx, "set", key, err)
		return false
	}
	b.rec.stored()
	return true
}

func (b *RemoteBackend) Exists(ctx context.Context, key string) (ok bool) {
	defer b.rec.recoverFault(ctx, "exists", key)
	if key == "" || b.disabled.Load() {
		return false
	}
	var n int64
	err := b.do(ctx, "exists", key, func(ctx context.Context) error {
		var err error
		n, err = b.client.Exists(ctx, key).Result()
		return err
	})
	if err != nil {
		b.failed(ctx, "exists", key, err)
		return false
	}
	return n > 0
}

func (b *RemoteBackend) Delete(ctx context.Context, key string) (removed bool) {
	defer b.rec.recoverFault(ctx, "delete", key)
	if key == "" || b.disabled.Load() {
		b.rec.deleted(false)
		return false
	}
	var n int64
	err := b.do(ctx, "delete", key, func(ctx context.Context) error {
		var err error
		n, err = b.client.Del(ctx, key).Result()
		return err
	})
	if err != nil {
		b.failed(ctx, "delete", key, err)
		return false
	}
	b.rec.deleted(n > 0)
	return n > 0
}

// IncrementBy runs INCRBY then EXPIRE. The two commands are not atomic; a
// failure between them leaves the counter with its previous expiry.
// Invalid arguments, a disabled backend and store errors before the
// increment all return 0 with a nil error.
func (b *RemoteBackend) IncrementBy(ctx context.Context, key string, step int64, ttlSeconds int) (n int64, err error) {
	defer b.rec.recoverFault(ctx, "incr", key)
	if key == "" {
		b.rec.reject("incr", key, "empty key")
		return 0, nil
	}
	if !validTTL(ttlSeconds) {
		b.rec.reject("incr", key, "ttl out of range")
		return 0, nil
	}
	if b.disabled.Load() {
		return 0, nil
	}

	incremented := false
	callErr := b.do(ctx, "incr", key, func(ctx context.Context) error {
		v, err := b.client.IncrBy(ctx, key, step).Result()
		if err != nil {
			return err
		}
		n, incremented = v, true
		return b.client.Expire(ctx, key, ttlDuration(ttlSeconds)).Err()
	})
	if callErr != nil {
		b.failed(ctx, "incr", key, callErr)
		if !incremented {
			return 0, nil
		}
	}
	metrics.CacheRequests.WithLabelValues(RemoteName, "incr", "ok").Inc()
	return n, nil
}

// Ping checks that the store answers.
func (b *RemoteBackend) Ping(ctx context.Context) error {
	return probe(ctx, b.client, 0)
}

// Stats reports the local counters; the store's item count is not queried.
func (b *RemoteBackend) Stats() Stats {
	return b.rec.snapshot(-1)
}

// Close is a no-op: the client handle belongs to the caller.
func (b *RemoteBackend) Close() error {
	return nil
}

// probe issues a PING with an optional timeout. A panicking client, such as
// a typed nil pointer, is reported as an error.
func probe(ctx context.Context, client RemoteClient, timeout time.Duration) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &Error{Code: CodeInitialParam, Message: "remote store client handle is unusable"}
		}
	}()
	if client == nil {
		return &Error{Code: CodeInitialParam, Message: "remote store client handle is required"}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return client.Ping(ctx).Err()
}
