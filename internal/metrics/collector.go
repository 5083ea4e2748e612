package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/onnwee/simplecache/internal/logger"
)

// Sampler refreshes one set of gauges from a live component.
type Sampler func(ctx context.Context) error

// Collector periodically runs samplers so gauges stay current between
// requests (cache item counts, for example).
type Collector struct {
	samplers map[string]Sampler
	names    []string
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(interval time.Duration, samplers map[string]Sampler) *Collector {
	names := make([]string, 0, len(samplers))
	for name := range samplers {
		names = append(names, name)
	}
	sort.Strings(names)
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		samplers: samplers,
		names:    names,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Collect initial metrics
	c.collectMetrics(ctx)

	for {
		select {
		case <-ticker.C:
			c.collectMetrics(ctx)
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the metrics collector
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// collectMetrics runs every sampler once, in name order.
func (c *Collector) collectMetrics(ctx context.Context) {
	for _, name := range c.names {
		if err := c.samplers[name](ctx); err != nil {
			logger.WarnContext(ctx, "metrics collection failed", "collector", name, "error", err)
			MetricsCollectionErrors.WithLabelValues(name).Inc()
		}
	}
}
