// Package xapi is a small client for the X (Twitter) v2 REST API covering
// user lookup, tweet lookup, recent search, user timelines and posting.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mudler/x-mcp/internal/oauth"
)

const (
	DefaultBaseURL = "https://api.twitter.com/2"
	DefaultTimeout = 30 * time.Second

	MinResults     = 1
	MaxResults     = 100
	DefaultResults = 10

	maxBodyBytes = 4 << 20
)

// Client issues requests to the X API. It is safe for concurrent use; the
// underlying http.Client pools connections across calls.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	auth     Authorizer
	readOnly bool
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. to point at a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout bounds every call
// unless WithTimeout is also given.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout sets the per-call timeout. The HTTP client passed to
// WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithReadOnly makes write operations fail with ErrReadOnly whatever the
// authorizer allows.
func WithReadOnly(readOnly bool) Option {
	return func(c *Client) {
		c.readOnly = readOnly
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New returns a Client that authenticates with auth.
func New(auth Authorizer, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		auth:    auth,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// UserContext reports whether requests are signed on behalf of a user.
func (c *Client) UserContext() bool {
	return c.auth.UserContext()
}

// CanWrite reports whether write operations are allowed.
func (c *Client) CanWrite() bool {
	return !c.readOnly && c.auth.UserContext()
}

// ValidateMaxResults checks n against [MinResults, MaxResults].
func ValidateMaxResults(n int) error {
	if n < MinResults || n > MaxResults {
		return &ValidationError{
			Field:  "max_results",
			Reason: fmt.Sprintf("must be between %d and %d (got %d)", MinResults, MaxResults, n),
		}
	}
	return nil
}

func requireNonEmpty(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", &ValidationError{Field: field, Reason: "is required"}
	}
	return v, nil
}

// do performs one request and decodes a 2xx JSON body into out. It returns
// the response status so callers can attribute partial errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = encodeQuery(query)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// JSON bodies are not form parameters, so only the query is signed.
	if err := c.auth.Authorize(req, query); err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("x api request failed", "method", method, "path", path, "error", err)
		return 0, transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Debug("x api request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	if err != nil {
		te := transportError(fmt.Errorf("read response: %w", err))
		te.StatusCode = resp.StatusCode
		return resp.StatusCode, te
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, errorFromResponse(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &TransportError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return resp.StatusCode, nil
}

// encodeQuery renders the query with RFC 3986 escaping so the wire form
// matches what was signed.
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range q[k] {
			parts = append(parts, oauth.PercentEncode(k)+"="+oauth.PercentEncode(v))
		}
	}
	return strings.Join(parts, "&")
}
