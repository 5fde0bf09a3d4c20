package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused across all pooled clients so the chat and
// embedding endpoints keep warm connections between pipeline runs. Every
// ask issues at least one embedding call and one or two chat calls against
// the same host, so per-host idle capacity matters more than total.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client with the given overall request
// timeout that shares the process-wide connection pool. The chat endpoint
// returns headers only after generation finishes, so the per-request
// timeout is the sole guard against a stalled completion.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
