package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"railbook/pkg/client"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/logger"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

// ──────────────────────────────────────────────────────────────
// Webhook signature
// ──────────────────────────────────────────────────────────────

func TestWebhookSignatureVerification(t *testing.T) {
	const secret = "s3cret"
	body := `{"capacity":40}`

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid prefixed", "sha256=" + client.Sign([]byte(body), secret), http.StatusOK},
		{"valid bare", client.Sign([]byte(body), secret), http.StatusOK},
		{"uppercase hex", "sha256=" + strings.ToUpper(client.Sign([]byte(body), secret)), http.StatusOK},
		{"wrong secret", "sha256=" + client.Sign([]byte(body), "other"), http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				seen = string(b)
			})
			h := WebhookSignatureVerification(secret, logger.Discard())(next)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/vehicles/id/X", strings.NewReader(body))
			if tt.header != "" {
				req.Header.Set(SignatureHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && seen != body {
				t.Errorf("downstream body = %q, want %q", seen, body)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := decodeError(t, rec).Code; got != apperrors.CodeUnauthorized {
					t.Errorf("code = %s", got)
				}
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────
// Rate limiting
// ──────────────────────────────────────────────────────────────

func TestRequesterRateLimiter_Allow(t *testing.T) {
	rl := NewRequesterRateLimiter(2, time.Minute, logger.Discard())
	defer rl.Stop()

	now := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("alice"); !ok {
			t.Fatalf("request %d rejected", i)
		}
	}
	ok, wait := rl.Allow("alice")
	if ok {
		t.Fatal("third request allowed")
	}
	if wait != time.Minute {
		t.Errorf("retry after = %v, want 1m", wait)
	}
	if ok, _ := rl.Allow("bob"); !ok {
		t.Error("other requester should not share the window")
	}

	now = now.Add(time.Minute)
	if ok, _ := rl.Allow("alice"); !ok {
		t.Error("window should have slid")
	}
}

func TestRequesterRateLimit_Rejects(t *testing.T) {
	rl := NewRequesterRateLimiter(1, time.Minute, logger.Discard())
	defer rl.Stop()
	h := RequesterRateLimit(rl)(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req.Header.Set(RequesterHeader, "alice")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send(); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

// ──────────────────────────────────────────────────────────────
// Idempotency
// ──────────────────────────────────────────────────────────────

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte{byte('0' + n)})
	})
	h := Idempotency(store, logger.Discard())(next)

	send := func(requester string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{}"))
		req.Header.Set(RequesterHeader, requester)
		req.Header.Set(IdempotencyHeader, "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("alice")
	second := send("alice")
	if calls.Load() != 1 {
		t.Fatalf("handler ran %d times", calls.Load())
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("replay = %d %q, want %d %q", second.Code, second.Body.String(), first.Code, first.Body.String())
	}
	if second.Header().Get("Idempotent-Replay") != "true" {
		t.Error("replay header not set")
	}

	send("bob")
	if calls.Load() != 2 {
		t.Error("key must be scoped per requester")
	}
}

func TestIdempotency_FailuresAreNotCached(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusConflict)
	})
	h := Idempotency(store, logger.Discard())(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req.Header.Set(IdempotencyHeader, "k1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls.Load() != 2 {
		t.Errorf("handler ran %d times, want 2", calls.Load())
	}
}

func TestIdempotency_InFlightDuplicateConflicts(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	if _, reserved := store.Reserve("alice|POST|/api/v1/bookings|k1"); !reserved {
		t.Fatal("first reservation failed")
	}

	h := Idempotency(store, logger.Discard())(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
	req.Header.Set(RequesterHeader, "alice")
	req.Header.Set(IdempotencyHeader, "k1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	store.Release("alice|POST|/api/v1/bookings|k1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("after release status = %d", rec.Code)
	}
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()
	now := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Reserve("k")
	store.Complete("k", &CachedResponse{StatusCode: http.StatusCreated})
	if cached, _ := store.Reserve("k"); cached == nil {
		t.Fatal("expected cached response")
	}

	now = now.Add(2 * time.Minute)
	if _, reserved := store.Reserve("k"); !reserved {
		t.Error("expired entry should be reservable")
	}
}

// ──────────────────────────────────────────────────────────────
// Content type, size, recovery, timeout, logging
// ──────────────────────────────────────────────────────────────

func TestContentTypeValidation(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json", http.MethodPost, "{}", "application/json; charset=utf-8", http.StatusOK},
		{"form", http.MethodPost, "a=b", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"empty body", http.MethodPost, "", "", http.StatusOK},
		{"get", http.MethodGet, "", "text/plain", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := ContentTypeValidation(logger.Discard())(okHandler())
			req := httptest.NewRequest(tt.method, "/api/v1/bookings", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})
	h := MaxRequestSize(4)(next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("too long")))
	if readErr == nil {
		t.Error("expected read past the limit to fail")
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != apperrors.CodeInternal {
		t.Errorf("code = %s", got)
	}
}

func TestRequestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
	})
	h := RequestTimeout(10*time.Millisecond, logger.Discard())(slow)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFrom(r)
	})
	h := RequestLogging(logger.Discard())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())
	req.Header.Set(RequestIDHeader, "gw-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "gw-123" || rec.Header().Get(RequestIDHeader) != "gw-123" {
		t.Errorf("request id = %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(seen) != 36 {
		t.Errorf("generated id = %q, want uuid", seen)
	}
}
