package handlers

import (
	"net/http"

	"github.com/onnwee/simplecache/internal/apierr"
	"github.com/onnwee/simplecache/internal/cache"
	"github.com/onnwee/simplecache/internal/logger"
)

// sweepable is implemented by backends with a reclamation sweeper.
type sweepable interface {
	SweepOnce() int
}

// CacheAdminHandler handles cache administration endpoints.
type CacheAdminHandler struct {
	backend cache.Backend
}

// NewCacheAdminHandler creates a new cache admin handler.
func NewCacheAdminHandler(b cache.Backend) *CacheAdminHandler {
	return &CacheAdminHandler{backend: b}
}

// GetCacheStats returns current cache statistics.
// GET /api/admin/cache/stats
func (h *CacheAdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backend.Stats())
}

// Sweep runs one reclamation pass immediately.
// POST /api/admin/cache/sweep
func (h *CacheAdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	s, ok := h.backend.(sweepable)
	if !ok {
		apierr.WriteErrorWithContext(w, r, apierr.CacheUnsupported(h.backend.Name(), "sweep"))
		return
	}
	removed := s.SweepOnce()
	logger.InfoContext(r.Context(), "manual cache sweep", "removed", removed)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backend": h.backend.Name(),
		"removed": removed,
	})
}
