package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onnwee/simplecache/internal/api"
	"github.com/onnwee/simplecache/internal/cache"
	"github.com/onnwee/simplecache/internal/circuitbreaker"
	"github.com/onnwee/simplecache/internal/config"
	"github.com/onnwee/simplecache/internal/logger"
	"github.com/onnwee/simplecache/internal/metrics"
	"github.com/onnwee/simplecache/internal/secrets"
)

// Server owns the selected cache backend and the admin HTTP surface around it.
type Server struct {
	cfg       *config.Config
	remote    redis.UniversalClient
	selector  *cache.Selector
	backend   cache.Backend
	collector *metrics.Collector
	http      *http.Server
}

// NewRemoteClient builds the remote store client from configuration, or
// returns nil when no store is configured. REDIS_URL wins over REDIS_ADDRS.
func NewRemoteClient(cfg *config.Config) (redis.UniversalClient, error) {
	switch {
	case cfg.RedisURL != "":
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opt.DialTimeout = cfg.RedisDialTimeout
		logger.Info("remote store configured", "url", secrets.MaskURL(cfg.RedisURL))
		return redis.NewClient(opt), nil
	case len(cfg.RedisAddrs) > 0:
		logger.Info("remote store configured", "addrs", cfg.RedisAddrs, "password", secrets.Mask(cfg.RedisPassword))
		return redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:       cfg.RedisAddrs,
			Password:    cfg.RedisPassword,
			DialTimeout: cfg.RedisDialTimeout,
		}), nil
	default:
		return nil, nil
	}
}

// CacheOptions maps configuration onto backend options. A nil client leaves
// Options.Remote unset so the selector never sees a typed nil.
func CacheOptions(cfg *config.Config, client cache.RemoteClient) cache.Options {
	opts := cache.Options{
		Strategy:             cache.ParseStrategy(cfg.CacheStrategy),
		RemoteDisabled:       cfg.RemoteDisabled,
		ProbeTimeout:         cfg.RedisDialTimeout,
		MaxEntries:           cfg.CacheMaxEntries,
		AccessExpirySeconds:  cfg.CacheAccessExpirySec,
		WriteExpirySeconds:   cfg.CacheWriteExpirySec,
		SweepIntervalSeconds: cfg.CacheSweepInterval,
	}
	if client != nil {
		opts.Remote = client
		opts.Breaker = circuitbreaker.New(circuitbreaker.Config{
			Name:             "cache.remote",
			FailureThreshold: cfg.BreakerFailures,
			Timeout:          cfg.BreakerCooldown,
		})
	}
	return opts
}

// New selects the cache backend and prepares the HTTP server. Nothing is
// served until Run or Serve is called.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	client, err := NewRemoteClient(cfg)
	if err != nil {
		return nil, err
	}

	selector := cache.NewSelector()
	backend := selector.Select(ctx, CacheOptions(cfg, client))

	collector := metrics.NewCollector(cfg.MetricsInterval, map[string]metrics.Sampler{
		"cache": func(context.Context) error {
			// Stats refreshes the item gauge as a side effect.
			backend.Stats()
			return nil
		},
	})

	return &Server{
		cfg:       cfg,
		remote:    client,
		selector:  selector,
		backend:   backend,
		collector: collector,
		http: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(backend),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
	}, nil
}

// Backend returns the selected cache backend.
func (s *Server) Backend() cache.Backend { return s.backend }

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down the HTTP server and
// releases the cache.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.collector.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "addr", ln.Addr().String(), "backend", s.backend.Name())
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down admin API")
	case serveErr = <-errCh:
		logger.Error("admin API stopped", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Shutdown stops the HTTP server, the collector and the cache backend, and
// closes the remote client.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	s.collector.Stop()
	if err := s.selector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache backend: %w", err))
	}
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close remote client: %w", err))
		}
	}
	return errors.Join(errs...)
}
