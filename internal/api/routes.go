package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/simplecache/internal/api/handlers"
	"github.com/onnwee/simplecache/internal/cache"
	"github.com/onnwee/simplecache/internal/middleware"
)

// NewRouter wires the admin surface around the selected backend.
func NewRouter(b cache.Backend) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.RecoverWithSentry, middleware.Instrument)

	r.HandleFunc("/health", handlers.Health(b)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Routes hang off the root router so a method mismatch answers 405;
	// mux subrouters report it as 404.
	entries := handlers.NewCacheHandler(b)
	r.HandleFunc("/api/cache/{key}", entries.Get).Methods(http.MethodGet)
	r.HandleFunc("/api/cache/{key}", entries.Exists).Methods(http.MethodHead)
	r.HandleFunc("/api/cache/{key}", entries.Put).Methods(http.MethodPut)
	r.HandleFunc("/api/cache/{key}", entries.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/api/cache/{key}/incr", entries.Increment).Methods(http.MethodPost)

	admin := handlers.NewCacheAdminHandler(b)
	r.HandleFunc("/api/admin/cache/stats", admin.GetCacheStats).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/cache/sweep", admin.Sweep).Methods(http.MethodPost)

	return r
}
