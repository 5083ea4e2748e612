package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/onnwee/simplecache/internal/apierr"
	"github.com/onnwee/simplecache/internal/cache"
)

func keyRequest(method, target, key, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return mux.SetURLVars(req, map[string]string{"key": key})
}

func TestCacheHandlerPutGetDelete(t *testing.T) {
	b := cache.NewLocal(cache.Options{})
	defer b.Close()
	h := NewCacheHandler(b)

	rr := httptest.NewRecorder()
	h.Put(rr, keyRequest(http.MethodPut, "/api/cache/greeting?ttl=60", "greeting", "hello"))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("put: expected 204, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Get(rr, keyRequest(http.MethodGet, "/api/cache/greeting", "greeting", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	if out := decodeBody(t, rr); out["value"] != "hello" {
		t.Fatalf("get: expected hello, got %v", out["value"])
	}

	rr = httptest.NewRecorder()
	h.Exists(rr, keyRequest(http.MethodHead, "/api/cache/greeting", "greeting", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("head: expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Delete(rr, keyRequest(http.MethodDelete, "/api/cache/greeting", "greeting", ""))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Delete(rr, keyRequest(http.MethodDelete, "/api/cache/greeting", "greeting", ""))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, keyRequest(http.MethodGet, "/api/cache/greeting", "greeting", ""))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rr.Code)
	}
	errBody, _ := decodeBody(t, rr)["error"].(map[string]interface{})
	if errBody["code"] != string(apierr.ErrCacheKeyNotFound) {
		t.Fatalf("expected %s, got %v", apierr.ErrCacheKeyNotFound, errBody["code"])
	}
}

func TestCacheHandlerPutValidation(t *testing.T) {
	b := cache.NewLocal(cache.Options{})
	defer b.Close()
	h := NewCacheHandler(b)

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"missing ttl", "/api/cache/k", "v", http.StatusBadRequest},
		{"non-integer ttl", "/api/cache/k?ttl=soon", "v", http.StatusBadRequest},
		{"zero ttl", "/api/cache/k?ttl=0", "v", http.StatusBadRequest},
		{"ttl too large", "/api/cache/k?ttl=2678401", "v", http.StatusBadRequest},
		{"empty value", "/api/cache/k?ttl=10", "", http.StatusBadRequest},
		{"body too large", "/api/cache/k?ttl=10", strings.Repeat("x", int(MaxValueBytes)+1), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Put(rr, keyRequest(http.MethodPut, tt.target, "k", tt.body))
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}
	if b.Exists(context.Background(), "k") {
		t.Fatal("rejected writes must not store anything")
	}
}

func TestCacheHandlerIncrement(t *testing.T) {
	local := cache.NewLocal(cache.Options{})
	defer local.Close()

	rr := httptest.NewRecorder()
	NewCacheHandler(local).Increment(rr, keyRequest(http.MethodPost, "/api/cache/hits/incr?ttl=60", "hits", ""))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("local increment: expected 501, got %d", rr.Code)
	}

	remote, err := cache.NewRemote(cache.NewMockStore(), cache.Options{})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	h := NewCacheHandler(remote)

	rr = httptest.NewRecorder()
	h.Increment(rr, keyRequest(http.MethodPost, "/api/cache/hits/incr?ttl=60", "hits", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("increment: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.Increment(rr, keyRequest(http.MethodPost, "/api/cache/hits/incr?step=5&ttl=60", "hits", ""))
	if out := decodeBody(t, rr); out["value"] != float64(6) {
		t.Fatalf("expected 6, got %v", out["value"])
	}

	rr = httptest.NewRecorder()
	h.Increment(rr, keyRequest(http.MethodPost, "/api/cache/hits/incr?step=x&ttl=60", "hits", ""))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad step: expected 400, got %d", rr.Code)
	}
}

func TestCacheAdminSweep(t *testing.T) {
	local := cache.NewLocal(cache.Options{})
	defer local.Close()

	rr := httptest.NewRecorder()
	NewCacheAdminHandler(local).Sweep(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/sweep", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if out := decodeBody(t, rr); out["removed"] != float64(0) {
		t.Fatalf("expected nothing removed, got %v", out["removed"])
	}

	remote, err := cache.NewRemote(cache.NewMockStore(), cache.Options{})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	rr = httptest.NewRecorder()
	NewCacheAdminHandler(remote).Sweep(rr, httptest.NewRequest(http.MethodPost, "/api/admin/cache/sweep", nil))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rr.Code)
	}
}
