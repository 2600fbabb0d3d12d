package multiversx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{APIURL: srv.URL, ChainID: "D", Timeout: 2 * time.Second}, nil, nil)
	return client, srv
}

func TestTransactionStatusMapping(t *testing.T) {
	tests := []struct {
		apiStatus string
		want      TxStatus
	}{
		{"success", StatusSuccess},
		{"pending", StatusPending},
		{"fail", StatusFailed},
		{"invalid", StatusFailed},
		{"something-new", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.apiStatus, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"status":"` + tt.apiStatus + `"}`))
			}))

			status, err := client.TransactionStatus(context.Background(), "abc123")
			if err != nil {
				t.Fatalf("TransactionStatus: %v", err)
			}
			if status != tt.want {
				t.Errorf("status = %s, want %s", status, tt.want)
			}
		})
	}
}

func TestTransactionStatusNotIndexedIsTransient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	status, err := client.TransactionStatus(context.Background(), "deadbeef")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if status != StatusUnknown {
		t.Errorf("status = %s, want %s", status, StatusUnknown)
	}
}

func TestTransactionStatusServerErrorIsTransient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.TransactionStatus(context.Background(), "abc")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestTransactionStatusTimeout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	client.http.Timeout = 20 * time.Millisecond

	status, err := client.TransactionStatus(context.Background(), "slow")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if status != StatusUnknown {
		t.Errorf("status = %s, want %s", status, StatusUnknown)
	}
}

func TestAccount(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/erd1test" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":"erd1test","balance":"1000000000000000000","nonce":7}`))
	}))

	account, err := client.Account(context.Background(), "erd1test")
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if account.Balance != "1000000000000000000" || account.Nonce != 7 {
		t.Errorf("unexpected account %+v", account)
	}
}

func TestAccountNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.Account(context.Background(), "erd1missing")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}
