package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/onnwee/simplecache/internal/logger"
	"github.com/onnwee/simplecache/internal/metrics"
)

// Selector owns the single backend used for the lifetime of the process.
// The first Select constructs it; every later call returns the same instance.
type Selector struct {
	mu      sync.Mutex
	current atomic.Pointer[selection]
}

// selection is published as one value so the lock-free path never sees a
// backend without its configuration, or a half torn-down selector.
type selection struct {
	backend Backend
	chosen  fingerprint
}

// fingerprint is the comparable part of Options, used to detect a second
// Select asking for a different configuration.
type fingerprint struct {
	strategy  Strategy
	hasRemote bool
	disabled  bool
	entries   int
	access    int
	write     int
	sweep     int
}

func fingerprintOf(o Options) fingerprint {
	return fingerprint{
		strategy:  o.Strategy,
		hasRemote: o.Remote != nil,
		disabled:  o.RemoteDisabled,
		entries:   o.MaxEntries,
		access:    o.AccessExpirySeconds,
		write:     o.WriteExpirySeconds,
		sweep:     o.SweepIntervalSeconds,
	}
}

// NewSelector returns a selector with no backend chosen yet.
func NewSelector() *Selector {
	return &Selector{}
}

// Select returns the process backend, building it from opts on first use.
// Later calls never swap the backend, so in-flight entries are kept; a call
// with a different configuration only logs a warning.
func (s *Selector) Select(ctx context.Context, opts Options) Backend {
	if sel := s.current.Load(); sel != nil {
		sel.warnIfChanged(opts)
		return sel.backend
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sel := s.current.Load(); sel != nil {
		sel.warnIfChanged(opts)
		return sel.backend
	}

	sel := &selection{backend: NewBackend(ctx, opts), chosen: fingerprintOf(opts)}
	s.current.Store(sel)
	metrics.CacheBackendSelected.WithLabelValues(sel.backend.Name()).Set(1)
	logger.WithComponent("cache.selector").Info("cache backend selected", "backend", sel.backend.Name())
	return sel.backend
}

// Backend returns the selected backend, selecting the default one if
// nothing has been selected yet.
func (s *Selector) Backend(ctx context.Context) Backend {
	return s.Select(ctx, Options{Strategy: StrategyBoundedTTL})
}

func (sel *selection) warnIfChanged(opts Options) {
	if fingerprintOf(opts) == sel.chosen {
		return
	}
	logger.WithComponent("cache.selector").Warn("cache backend already selected, ignoring new configuration",
		"backend", sel.backend.Name(), "requested_strategy", opts.Strategy.String())
}

// Close tears the selected backend down. A later Select builds a new one.
// A Select racing with Close may still return the old backend, which keeps
// serving reads after Close.
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.current.Swap(nil)
	if sel == nil {
		return nil
	}
	err := sel.backend.Close()
	metrics.CacheBackendSelected.WithLabelValues(sel.backend.Name()).Set(0)
	return err
}

// NewBackend constructs a backend according to the selection policy:
//
//  1. an in-process strategy picks ExpiringBackend, OriginBackend or LocalBackend;
//  2. otherwise a usable remote client picks RemoteBackend, an unusable one
//     degrades to LocalBackend;
//  3. otherwise LocalBackend.
//
// It never fails: construction errors degrade to LocalBackend with a log.
func NewBackend(ctx context.Context, opts Options) Backend {
	log := logger.WithComponent("cache.selector")

	switch opts.Strategy {
	case StrategyEvictingDifferentiatedTTL:
		b, err := NewExpiring(opts)
		if err != nil {
			log.Error("expiring backend unavailable, using local backend", "error", err)
			return NewLocal(opts)
		}
		return b
	case StrategyEvictingFixedWindow:
		b, err := NewOrigin(opts)
		if err != nil {
			log.Error("origin backend unavailable, using local backend", "error", err)
			return NewLocal(opts)
		}
		return b
	case StrategyBoundedTTL:
		return NewLocal(opts)
	case StrategyNone:
	default:
		log.Warn("unknown cache strategy, ignoring", "strategy", int(opts.Strategy))
	}

	if opts.Remote != nil {
		b, err := newUsableRemote(ctx, opts)
		if err != nil {
			log.Error("remote cache store unusable, degrading to local backend", "error", err)
			return NewLocal(opts)
		}
		return b
	}

	log.Info("no cache strategy configured, using default local backend")
	return NewLocal(opts)
}

func newUsableRemote(ctx context.Context, opts Options) (*RemoteBackend, error) {
	// A disabled backend must not touch the network, so it is not probed.
	if !opts.RemoteDisabled {
		if err := probe(ctx, opts.Remote, opts.probeTimeout()); err != nil {
			return nil, err
		}
	}
	return NewRemote(opts.Remote, opts)
}
