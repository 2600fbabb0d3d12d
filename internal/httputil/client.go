// Package httputil provides shared HTTP client construction.
package httputil

import (
	"net/http"
	"time"
)

// NewClient creates an HTTP client with the given timeout and transport
// settings tuned for repeated requests to the same upstream hosts. Both
// the MultiversX network API and outbound JSON calls reuse connections
// instead of re-dialing per request.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
