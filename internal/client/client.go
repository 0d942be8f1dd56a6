// ABOUTME: HTTP client for the Keep Notes API
// ABOUTME: Attaches the bearer token, enforces the timeout, and clears the session on 401

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/markalston/keepnotes/internal/session"
)

// APIPrefix is prepended to every API path
const APIPrefix = "/api/v1"

// DefaultTimeout bounds each request unless overridden
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 4 << 20

// Client is the single entry point to the backend. Every request goes
// through Do, which applies the session and the unauthorized policy.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	session        *session.Store
	onUnauthorized func()
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUnauthorizedHandler sets the hook that runs after a 401 cleared the
// session, typically navigation to the login entry point. Only requests that
// carried a bearer token trigger it: an anonymous 401, such as a rejected
// login, leaves the session alone and never calls the hook.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// New creates an API client for baseURL. store may be nil for calls that
// never need credentials.
func New(baseURL string, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		session: store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address without the API prefix
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the store the client reads its token from
func (c *Client) Session() *session.Store {
	return c.session
}

// SetUnauthorizedHandler replaces the 401 hook. Call it before issuing
// requests from other goroutines. Like WithUnauthorizedHandler, the hook only
// runs for requests that carried a token.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.onUnauthorized = fn
}

// errorBody covers the error shapes the backend and proxies emit
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// Do sends method path with in as the JSON body (nil for none) and decodes
// a 2xx response into out (nil to discard). There is no retry.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	return c.do(ctx, method, c.baseURL+APIPrefix+path, path, in, out)
}

func (c *Client) do(ctx context.Context, method, url, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	authed := false
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authed = true
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := c.handleRequestError(ctx, err)
		slog.Debug("API request failed", "method", method, "path", path, "request_id", requestID, "error", netErr)
		return netErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.handleRequestError(ctx, err)
	}

	slog.Debug("API request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.handleErrorResponse(resp.StatusCode, raw)
		apiErr.Method = method
		apiErr.Path = path
		// A 401 to an anonymous request (a bad password at login) is a
		// rejected credential, not an expired session.
		if resp.StatusCode == http.StatusUnauthorized && authed {
			c.handleUnauthorized(apiErr)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleUnauthorized applies the global 401 policy: clear the session, then
// navigate, then let the caller see the error
func (c *Client) handleUnauthorized(apiErr *APIError) {
	slog.Warn("Backend rejected credentials, clearing session", "method", apiErr.Method, "path", apiErr.Path)
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			slog.Error("Failed to clear session after 401", "error", err)
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

// handleRequestError converts transport failures into a NetworkError
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	ne := &NetworkError{BaseURL: c.baseURL, Err: err}
	if errors.Is(ctx.Err(), context.Canceled) {
		ne.Canceled = true
		return ne
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		ne.Timeout = true
		return ne
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		ne.Timeout = true
	}
	return ne
}

// handleErrorResponse parses API error bodies, falling back to the status text
func (c *Client) handleErrorResponse(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		apiErr.Message = detailMessage(eb.Detail)
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = eb.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// detailMessage reads FastAPI's detail, which is a string for HTTPException
// and a list of {loc, msg} objects for request validation failures
func detailMessage(detail json.RawMessage) string {
	if len(detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(detail, &s); err == nil {
		return s
	}
	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// HealthResponse is the backend root banner
type HealthResponse struct {
	Message string `json:"message"`
}

// Health calls GET / on the backend, outside the API prefix
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/", "/", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
