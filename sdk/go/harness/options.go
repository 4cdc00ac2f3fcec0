package harness

import "net/http"

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL string
	httpc   *http.Client
}

// WithBaseURL sets the control server address, e.g. "http://127.0.0.1:7171".
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client, e.g. with test transports or
// tighter timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpc = hc }
}
