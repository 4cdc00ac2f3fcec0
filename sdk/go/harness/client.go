package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is where a locally hosted harness listens by default.
const DefaultBaseURL = "http://127.0.0.1:7171"

// Client talks to one silo host's control server.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client with the given options.
func New(opts ...Option) *Client {
	cfg := clientConfig{
		baseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.baseURL, "/"),
		httpc:   cfg.httpc,
	}
}

// Enable arms message loss toward endpoint ("host:port") at percent.
func (c *Client) Enable(ctx context.Context, endpoint string, percent float64) error {
	body := map[string]any{"endpoint": endpoint, "percent": percent}
	return c.do(ctx, http.MethodPost, "/v1/faults", body, nil)
}

// DisableAll disarms every endpoint and removes the drop predicate.
func (c *Client) DisableAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/v1/faults", nil, nil)
}

// Faults returns the currently armed endpoints and their percentages.
func (c *Client) Faults(ctx context.Context) (map[string]float64, error) {
	var resp struct {
		Faults map[string]float64 `json:"faults"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/faults", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Faults, nil
}

// QueryDirectory returns every ordinary directory entry whose grain type
// name contains substr. Empty substr matches all ordinary entries.
func (c *Client) QueryDirectory(ctx context.Context, substr string) (map[string]DirectoryEntry, error) {
	var resp struct {
		Entries map[string]DirectoryEntry `json:"entries"`
	}
	path := "/v1/directory?type=" + url.QueryEscape(substr)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Provider resolves a named provider through the boundary guard. Missing
// providers return ErrNotFound; boundary-unsafe providers return a
// *BoundaryError.
func (c *Client) Provider(ctx context.Context, kind, name string) (*ProviderRef, error) {
	var ref ProviderRef
	path := fmt.Sprintf("/v1/providers/%s/%s", url.PathEscape(kind), url.PathEscape(name))
	if err := c.do(ctx, http.MethodGet, path, nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// Status returns the harness host's control-plane status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("harness: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("harness: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("harness: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("harness: decode response: %w", err)
	}
	return nil
}

// decodeError maps an error response body to a typed error. A body that
// names a refused type and role is a boundary violation.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var be BoundaryError
	if err := json.Unmarshal(data, &be); err == nil && be.TypeName != "" {
		return &be
	}
	var generic struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &generic); err == nil && generic.Error != "" {
		return fmt.Errorf("harness: server error (%d): %s", resp.StatusCode, generic.Error)
	}
	return fmt.Errorf("harness: server error (%d)", resp.StatusCode)
}
