package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns a client for upstream AI and asset calls. timeout 0
// means no overall deadline; callers then rely on the request context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(),
	}
}

// NewTransport is the pooled transport shared by the upstream clients. It
// honours the proxy environment variables.
func NewTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	return t
}

// WrapTransport wraps the client's transport, e.g. with request logging.
func WrapTransport(c *http.Client, wrap func(http.RoundTripper) http.RoundTripper) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone := *c
	clone.Transport = wrap(base)
	return &clone
}
