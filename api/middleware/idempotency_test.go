package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"order create", http.MethodPost, "/api/v1/orders", criticalIdempotencyTTL, true},
		{"order delete", http.MethodDelete, "/api/v1/orders/8f14e45f-ceea-4e47-9a8c-000000000000", criticalIdempotencyTTL, true},
		{"order update", http.MethodPut, "/api/v1/orders/8f14e45f-ceea-4e47-9a8c-000000000000", defaultIdempotencyTTL, true},
		{"order list", http.MethodGet, "/api/v1/orders", 0, false},
		{"stats", http.MethodGet, "/api/v1/orders/stats/summary", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"data":{"call":%d}}`, calls)
	}))

	body := `{"items":[{"product_name":"Mug","quantity":1,"unit_price":"12.00"}]}`
	makeRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	first := makeRequest()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}
	second := makeRequest()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("handler must run once, ran %d times", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay must return the stored body: %q vs %q", first.Body.String(), second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	if resp := send(`{"a":1}`); resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if resp := send(`{"a":2}`); resp.Code != http.StatusConflict {
		t.Fatalf("reused key with different body must 409, got %d", resp.Code)
	}
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d", resp.Code)
	}
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("unguarded routes must always hit the handler, got %d calls", calls)
	}
}
