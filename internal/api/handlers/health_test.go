package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/simplecache/internal/cache"
)

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	b := cache.NewLocal(cache.Options{})
	defer b.Close()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	Health(b)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", out["status"])
	}
	if out["backend"] != cache.LocalName {
		t.Fatalf("expected backend %s, got %v", cache.LocalName, out["backend"])
	}
}

func TestHealthDegradedRemote(t *testing.T) {
	store := cache.NewMockStore()
	b, err := cache.NewRemote(store, cache.Options{})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	store.FailWith(errors.New("connection refused"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	Health(b)(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if out := decodeBody(t, rr); out["status"] != "degraded" {
		t.Fatalf("expected status degraded, got %v", out["status"])
	}
}
