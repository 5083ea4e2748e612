package cache

import (
	"strings"
	"time"

	"github.com/onnwee/simplecache/internal/circuitbreaker"
	"github.com/onnwee/simplecache/internal/logger"
)

// Defaults applied when an option is missing or invalid.
const (
	DefaultMaxEntries           = 100000
	DefaultAccessExpirySeconds  = 600
	DefaultWriteExpirySeconds   = 600
	DefaultSweepIntervalSeconds = 3600
)

// Strategy names the in-process backend requested by configuration.
type Strategy int

const (
	// StrategyNone requests no in-process strategy; the remote store is tried.
	StrategyNone Strategy = iota
	// StrategyBoundedTTL selects LocalBackend.
	StrategyBoundedTTL
	// StrategyEvictingDifferentiatedTTL selects ExpiringBackend.
	StrategyEvictingDifferentiatedTTL
	// StrategyEvictingFixedWindow selects OriginBackend.
	StrategyEvictingFixedWindow
)

func (s Strategy) String() string {
	switch s {
	case StrategyNone:
		return "none"
	case StrategyBoundedTTL:
		return "boundedTTL"
	case StrategyEvictingDifferentiatedTTL:
		return "evictingDifferentiatedTTL"
	case StrategyEvictingFixedWindow:
		return "evictingFixedWindow"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configuration string onto a Strategy.
// Matching ignores case, '-' and '_'. Unknown values log a warning and
// yield StrategyNone.
func ParseStrategy(s string) Strategy {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "").Replace(norm)
	switch norm {
	case "", "none":
		return StrategyNone
	case "boundedttl", "local":
		return StrategyBoundedTTL
	case "evictingdifferentiatedttl", "expiring":
		return StrategyEvictingDifferentiatedTTL
	case "evictingfixedwindow", "origin":
		return StrategyEvictingFixedWindow
	}
	logger.WithComponent("cache").Warn("unrecognized local cache strategy, using none", "value", s)
	return StrategyNone
}

// Options configures backend construction.
// Zero or negative numeric fields fall back to the defaults above.
type Options struct {
	Strategy Strategy

	// Remote is the client handle for RemoteBackend. When nil, or when it
	// does not answer a PING, the selector degrades to LocalBackend.
	Remote         RemoteClient
	RemoteDisabled bool
	// Breaker optionally short-circuits RemoteBackend after repeated faults.
	Breaker *circuitbreaker.CircuitBreaker
	// ProbeTimeout bounds the PING issued while selecting the remote store.
	ProbeTimeout time.Duration

	MaxEntries           int
	AccessExpirySeconds  int
	WriteExpirySeconds   int
	SweepIntervalSeconds int

	// Clock overrides time.Now, for tests.
	Clock Clock
}

func (o Options) clock() Clock {
	if o.Clock == nil {
		return time.Now
	}
	return o.Clock
}

func (o Options) maxEntries() int {
	return positiveOr("max_entries", o.MaxEntries, DefaultMaxEntries)
}

func (o Options) accessExpiry() time.Duration {
	return ttlDuration(positiveOr("access_expiry_seconds", o.AccessExpirySeconds, DefaultAccessExpirySeconds))
}

func (o Options) writeExpiry() time.Duration {
	return ttlDuration(positiveOr("write_expiry_seconds", o.WriteExpirySeconds, DefaultWriteExpirySeconds))
}

func (o Options) sweepInterval() time.Duration {
	return ttlDuration(positiveOr("sweep_interval_seconds", o.SweepIntervalSeconds, DefaultSweepIntervalSeconds))
}

func (o Options) probeTimeout() time.Duration {
	if o.ProbeTimeout <= 0 {
		return 2 * time.Second
	}
	return o.ProbeTimeout
}

// positiveOr treats zero as unset and warns on negative values.
func positiveOr(name string, v, def int) int {
	if v > 0 {
		return v
	}
	if v == 0 {
		return def
	}
	logger.WithComponent("cache").Warn("invalid cache option, using default",
		"option", name, "value", v, "default", def)
	return def
}
