package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/onnwee/simplecache/internal/cache"
	"github.com/onnwee/simplecache/internal/logger"
)

// pinger is implemented by backends that talk to an external store.
type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness and the selected backend. A backend that fails
// its ping is reported as degraded with 503.
func Health(b cache.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string]string{"status": "ok", "backend": b.Name()}
		if p, ok := b.(pinger); ok {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				logger.WarnContext(r.Context(), "health check ping failed", "backend", b.Name(), "error", err)
				out["status"] = "degraded"
				writeJSON(w, http.StatusServiceUnavailable, out)
				return
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}
