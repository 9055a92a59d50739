// Package http builds the outbound client used to reach the persistence API.
// Credentials and the caller's request id are added by the transport, so
// call sites only describe the request itself.
package http

import (
	"net/http"
	"time"

	"coach-hub/internal/common/logging"
)

// RequestIDHeader carries the inbound request id to the persistence API.
const RequestIDHeader = "X-Request-ID"

// ClientConfig configures NewAPIClient.
type ClientConfig struct {
	Timeout time.Duration
	// APIKey is sent both as the apikey header and as a bearer token.
	APIKey    string
	UserAgent string
	// MaxIdleConnsPerHost sizes the pool to the single upstream host.
	MaxIdleConnsPerHost int
	// Transport replaces the pooled transport, mostly for tests.
	Transport http.RoundTripper
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             15 * time.Second,
		UserAgent:           "coach-hub",
		MaxIdleConnsPerHost: 16,
	}
}

// NewAPIClient returns a client whose requests carry the API credentials.
// Zero fields of cfg take their defaults.
func NewAPIClient(cfg ClientConfig) *http.Client {
	defaults := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = defaults.MaxIdleConnsPerHost
	}

	base := cfg.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        cfg.MaxIdleConnsPerHost * 2,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &http.Client{
		Timeout: cfg.Timeout,
		Transport: &apiTransport{
			base:      base,
			apiKey:    cfg.APIKey,
			userAgent: cfg.UserAgent,
		},
	}
}

type apiTransport struct {
	base      http.RoundTripper
	apiKey    string
	userAgent string
}

// RoundTrip adds headers to a clone; the caller's request is not mutated.
func (t *apiTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if t.apiKey != "" {
		out.Header.Set("apikey", t.apiKey)
		if out.Header.Get("Authorization") == "" {
			out.Header.Set("Authorization", "Bearer "+t.apiKey)
		}
	}
	if out.Header.Get("User-Agent") == "" {
		out.Header.Set("User-Agent", t.userAgent)
	}
	if id := logging.RequestIDFromContext(req.Context()); id != "" && out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, id)
	}
	return t.base.RoundTrip(out)
}
