package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/GridPay/server/internal/errors"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestClientLimiterRejects(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Close()

	handler := ClientLimiter(l, nil)(okHandler())

	req := httptest.NewRequest("GET", "/api/sheets?sheetId=abc", nil)
	req.Header.Set("X-Wallet", "erd1example")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response missing Retry-After header")
	}

	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse 429 body: %v", err)
	}
	if resp.Error.Code != apperrors.ErrCodeRateLimited {
		t.Errorf("code = %s, want %s", resp.Error.Code, apperrors.ErrCodeRateLimited)
	}
	if !resp.Error.Retryable {
		t.Error("rate limit response should be marked retryable")
	}
}

func TestClientLimiterKeysByWalletOverIP(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Close()

	handler := ClientLimiter(l, nil)(okHandler())

	// Same IP, different wallets: independent quotas.
	for _, wallet := range []string{"erd1aaa", "erd1bbb"} {
		req := httptest.NewRequest("GET", "/api/sheets", nil)
		req.RemoteAddr = "10.0.0.1:4444"
		req.Header.Set("X-Wallet", wallet)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("wallet %s: got %d, want 200", wallet, rec.Code)
		}
	}
}

func TestClientLimiterSharesBucketAcrossHeaderAndQuery(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Close()

	handler := ClientLimiter(l, nil)(okHandler())

	// Same wallet via header, then via query parameter: one quota.
	req := httptest.NewRequest("GET", "/api/sheets", nil)
	req.Header.Set("X-Wallet", "erd1same")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("header request: got %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/sheets?egldAddress=erd1same", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("query request with same wallet: got %d, want 429", rec.Code)
	}
}

func TestClientLimiterFallsBackToIP(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	defer l.Close()

	handler := ClientLimiter(l, nil)(okHandler())

	req := httptest.NewRequest("GET", "/api/sheets", nil)
	req.RemoteAddr = "10.0.0.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request from same IP: got %d, want 429", rec.Code)
	}
}

func TestExtractClientID(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*http.Request)
		want  string
	}{
		{"wallet header", func(r *http.Request) { r.Header.Set("X-Wallet", "erd1abc") }, "wallet:erd1abc"},
		{"wallet query", func(r *http.Request) { r.URL.RawQuery = "egldAddress=erd1xyz" }, "wallet:erd1xyz"},
		{"header wins over query", func(r *http.Request) {
			r.Header.Set("X-Wallet", "erd1abc")
			r.URL.RawQuery = "egldAddress=erd1xyz"
		}, "wallet:erd1abc"},
		{"ip fallback", func(r *http.Request) { r.RemoteAddr = "192.0.2.7:999" }, "ip:192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			if got := extractClientID(req); got != tt.want {
				t.Errorf("extractClientID = %q, want %q", got, tt.want)
			}
		})
	}
}
