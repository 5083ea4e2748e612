package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/onnwee/simplecache/internal/apierr"
	"github.com/onnwee/simplecache/internal/cache"
	"github.com/onnwee/simplecache/internal/logger"
)

// MaxValueBytes bounds the body of a PUT.
const MaxValueBytes int64 = 1 << 20

// CacheHandler exposes single-key operations on the selected backend.
type CacheHandler struct {
	backend cache.Backend
}

// NewCacheHandler creates a new cache handler.
func NewCacheHandler(b cache.Backend) *CacheHandler {
	return &CacheHandler{backend: b}
}

type entryResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type counterResponse struct {
	Key   string `json:"key"`
	Value int64  `json:"value"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// intParam reads a required (def == nil) or optional integer query parameter.
func intParam(r *http.Request, name string, def *int64) (int64, *apierr.Error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if def == nil {
			return 0, apierr.ValidationInvalidValue(name, "Missing required parameter: "+name)
		}
		return *def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apierr.ValidationInvalidValue(name, "Parameter "+name+" must be an integer")
	}
	return v, nil
}

// ttlParam reads the required ttl in seconds.
func ttlParam(r *http.Request) (int, *apierr.Error) {
	v, apiErr := intParam(r, "ttl", nil)
	if apiErr != nil {
		return 0, apiErr
	}
	if v < 1 || v > int64(cache.MaxTTLSeconds) {
		return 0, apierr.ValidationInvalidValue("ttl", "ttl must be between 1 and "+strconv.Itoa(cache.MaxTTLSeconds)+" seconds")
	}
	return int(v), nil
}

// Get returns the live value for a key.
// GET /api/cache/{key}
func (h *CacheHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	value, ok := h.backend.Get(r.Context(), key)
	if !ok {
		apierr.WriteErrorWithContext(w, r, apierr.CacheKeyNotFound(key))
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{Key: key, Value: value})
}

// Exists reports liveness without a body.
// HEAD /api/cache/{key}
func (h *CacheHandler) Exists(w http.ResponseWriter, r *http.Request) {
	if h.backend.Exists(r.Context(), mux.Vars(r)["key"]) {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

// Put stores the request body under key.
// PUT /api/cache/{key}?ttl=N
func (h *CacheHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	ttl, apiErr := ttlParam(r)
	if apiErr != nil {
		apierr.WriteErrorWithContext(w, r, apiErr)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxValueBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierr.WriteErrorWithContext(w, r, apierr.ValidationBodyTooLarge(MaxValueBytes))
			return
		}
		logger.WarnContext(r.Context(), "failed to read cache value", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("body", "Unreadable request body"))
		return
	}

	if !h.backend.Set(r.Context(), key, string(body), ttl) {
		apierr.WriteErrorWithContext(w, r, apierr.CacheRejected(""))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a key.
// DELETE /api/cache/{key}
func (h *CacheHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if !h.backend.Delete(r.Context(), key) {
		apierr.WriteErrorWithContext(w, r, apierr.CacheKeyNotFound(key))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Increment adds step to a counter and refreshes its TTL.
// POST /api/cache/{key}/incr?step=N&ttl=N
func (h *CacheHandler) Increment(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	one := int64(1)
	step, apiErr := intParam(r, "step", &one)
	if apiErr != nil {
		apierr.WriteErrorWithContext(w, r, apiErr)
		return
	}
	ttl, apiErr := ttlParam(r)
	if apiErr != nil {
		apierr.WriteErrorWithContext(w, r, apiErr)
		return
	}

	n, err := h.backend.IncrementBy(r.Context(), key, step, ttl)
	if err != nil {
		if errors.Is(err, cache.ErrUnsupportedOperation) {
			apierr.WriteErrorWithContext(w, r, apierr.CacheUnsupported(h.backend.Name(), "incr"))
			return
		}
		logger.ErrorContext(r.Context(), "increment failed", "error", err, "backend", h.backend.Name())
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
		return
	}
	writeJSON(w, http.StatusOK, counterResponse{Key: key, Value: n})
}
