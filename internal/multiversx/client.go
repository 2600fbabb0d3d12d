package multiversx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/GridPay/server/internal/circuitbreaker"
	"github.com/GridPay/server/internal/httputil"
	"github.com/GridPay/server/internal/metrics"
)

// TxStatus is the status of an on-chain transaction as reported by the
// network API.
type TxStatus string

const (
	StatusPending TxStatus = "pending"
	StatusSuccess TxStatus = "success"
	StatusFailed  TxStatus = "failed"
	StatusUnknown TxStatus = "unknown"
)

var (
	// ErrUnavailable indicates the network API could not give an answer
	// (timeout, network failure, 5xx, or unindexed transaction). Callers
	// should retry later; it never justifies a terminal state transition.
	ErrUnavailable = errors.New("multiversx: network api unavailable")

	// ErrAccountNotFound indicates the account does not exist on chain.
	ErrAccountNotFound = errors.New("multiversx: account not found")
)

// Account is the subset of on-chain account state the server needs.
type Account struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// Client is a thin REST client for the MultiversX network API. The network
// exposes plain JSON over HTTP (e.g. https://devnet-api.multiversx.com), so
// no SDK is involved; every call is bounded by the configured timeout.
type Client struct {
	baseURL   string
	chainID   string
	http      *http.Client
	breakers  *circuitbreaker.Manager
	collector *metrics.Metrics
}

// Config holds MultiversX network API settings.
type Config struct {
	APIURL  string
	ChainID string
	Timeout time.Duration
}

// NewClient creates a network API client.
func NewClient(cfg Config, breakers *circuitbreaker.Manager, collector *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   cfg.APIURL,
		chainID:   cfg.ChainID,
		http:      httputil.NewClient(timeout),
		breakers:  breakers,
		collector: collector,
	}
}

// ChainID returns the configured chain identifier ("1" mainnet, "D" devnet).
func (c *Client) ChainID() string { return c.chainID }

// TransactionStatus queries the status oracle for txHash.
//
// An unreachable API, a 5xx, or a transaction the API has not indexed yet
// all yield StatusUnknown together with ErrUnavailable. StatusUnknown is
// deliberately not conflated with StatusFailed: a transient lookup failure
// must not move a payment to a terminal state.
func (c *Client) TransactionStatus(ctx context.Context, txHash string) (TxStatus, error) {
	start := time.Now()

	var payload struct {
		Status string `json:"status"`
	}
	err := c.getJSON(ctx, circuitbreaker.ServiceMultiversXAPI, "/transactions/"+url.PathEscape(txHash)+"?fields=status", &payload)
	if err != nil {
		c.collector.ObserveOracleCall("unavailable", time.Since(start))
		return StatusUnknown, err
	}

	status := mapTxStatus(payload.Status)
	c.collector.ObserveOracleCall(string(status), time.Since(start))
	return status, nil
}

// Account fetches on-chain account state for address.
func (c *Client) Account(ctx context.Context, address string) (Account, error) {
	var account Account
	err := c.getJSON(ctx, circuitbreaker.ServiceMultiversXAPI, "/accounts/"+url.PathEscape(address), &account)
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// mapTxStatus maps network API status strings onto TxStatus. The API
// reports "fail" or "invalid" for transactions that executed and failed.
func mapTxStatus(s string) TxStatus {
	switch s {
	case "success":
		return StatusSuccess
	case "pending":
		return StatusPending
	case "fail", "invalid":
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// getJSON performs a GET against the network API through the circuit
// breaker and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, service circuitbreaker.ServiceType, path string, out any) error {
	result, err := c.breakers.Execute(service, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
			}
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			// Accounts: genuinely missing. Transactions: possibly not
			// indexed yet, which the caller treats as transient.
			return nil, notFoundError(path)
		default:
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
	})
	if err != nil {
		if !errors.Is(err, ErrUnavailable) && !errors.Is(err, ErrAccountNotFound) {
			// Breaker-open and transport errors are transient by nature.
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}

	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// notFoundError distinguishes account lookups from transaction lookups; an
// unindexed transaction is a transient condition, a missing account is not.
func notFoundError(path string) error {
	if len(path) >= len("/accounts/") && path[:len("/accounts/")] == "/accounts/" {
		return ErrAccountNotFound
	}
	return fmt.Errorf("%w: transaction not indexed", ErrUnavailable)
}
