// Package media queries stock-media providers and normalizes their
// responses into models.MediaResult records.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Corphon/VisualMediaTool/internal/models"
)

// DefaultLimit is the per-provider result count when the caller passes <= 0.
const DefaultLimit = 12

// Provider is one stock-media backend.
type Provider interface {
	Name() string
	Enabled() bool
	Search(ctx context.Context, query string, limit int, kind models.MediaKind) ([]models.MediaResult, error)
}

// StatusError is a non-2xx answer from a provider API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Provider, e.Code, e.Body)
}

// Temporary reports whether a retry could succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Option configures a provider client.
type Option func(*client)

// WithBaseURL points the client at another API root (tests, proxies).
func WithBaseURL(base string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

type client struct {
	name    string
	apiKey  string
	baseURL string
	http    *http.Client
}

func newClient(name, apiKey, baseURL string, opts []Option) client {
	c := client{
		name:    name,
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c *client) Name() string  { return c.name }
func (c *client) Enabled() bool { return c.apiKey != "" }

// getJSON issues a GET and decodes a JSON body into out.
func (c *client) getJSON(ctx context.Context, path string, params url.Values, headers map[string]string, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Provider: c.name, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
