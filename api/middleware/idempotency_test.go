package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestIdempotentRouteSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		ok      bool
	}{
		{"transaction create", http.MethodPost, "/api/v1/transactions", true},
		{"transaction create nested mount", http.MethodPost, "/api/v1/transactions/", true},
		{"rule create", http.MethodPost, "/api/v1/pricing/rules", true},
		{"transaction read", http.MethodGet, "/api/v1/transactions", false},
		{"health", http.MethodGet, "/health/live", false},
	}

	for _, tt := range tests {
		_, ok := idempotentRoutes[tt.method+" "+normalizePattern(tt.pattern)]
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/transactions", "/api/v1/transactions", strings.NewReader(`{"intent":"sale"}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	body := `{"intent":"sale","lines":[{"product_name":"cola","quantity":"1"}]}`

	first := httptest.NewRecorder()
	req := requestWithPattern(http.MethodPost, "/api/v1/transactions", "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(first, req)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", first.Code)
	}

	second := httptest.NewRecorder()
	replay := requestWithPattern(http.MethodPost, "/api/v1/transactions", "/api/v1/transactions", strings.NewReader(body))
	replay.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(second, replay)

	if calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical replayed body")
	}
	if ct := second.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected replayed content type, got %q", ct)
	}
}

func TestIdempotencyMiddlewareRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	first := httptest.NewRecorder()
	req := requestWithPattern(http.MethodPost, "/api/v1/transactions", "/api/v1/transactions", strings.NewReader(`{"a":1}`))
	req.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(first, req)

	second := httptest.NewRecorder()
	conflicting := requestWithPattern(http.MethodPost, "/api/v1/transactions", "/api/v1/transactions", strings.NewReader(`{"a":2}`))
	conflicting.Header.Set("Idempotency-Key", "abc")
	mw(handler).ServeHTTP(second, conflicting)

	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 on key reuse, got %d", second.Code)
	}
}

func TestIdempotencyMiddlewareSkipsUnmatchedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		req := requestWithPattern(http.MethodGet, "/api/v1/transactions", "/api/v1/transactions", nil)
		mw(handler).ServeHTTP(resp, req)
	}

	if calls != 2 {
		t.Fatalf("expected handler to run every time on non-idempotent route, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected no records stored, got %d", len(store.data))
	}
}
