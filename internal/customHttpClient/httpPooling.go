package customHttpClient

import (
	"net/http"
	"time"

	"github.com/docharvest/gateway/internal/config"
)

// Shared transport so the fetcher and backend clients reuse connections
// instead of each opening their own pools.
var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
