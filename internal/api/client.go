// ABOUTME: HTTP transport for the registrar API with bearer auth and error normalization
// ABOUTME: Reads the session token at request time and maps failures into apierr types

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/registrar/internal/apierr"
)

// defaultErrorMessage is used when a failed response has no "error" field
// and the caller supplied no operation-specific fallback.
const defaultErrorMessage = "Request failed"

// TokenSource supplies the current bearer token. An empty string means no
// session exists and the request is sent without credentials.
type TokenSource interface {
	Token() string
}

// Client issues requests against the registrar REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// NewClient creates a client for the given base URL (e.g. http://localhost:5000/api).
// Pass nil logger for default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("component", "api"),
	}
}

// SetTokenSource configures where the bearer token is read from.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetHTTPClient replaces the underlying HTTP client (used by tests).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.http = hc
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes a single API request.
type call struct {
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

// errorBody is the failure envelope returned by the backend.
type errorBody struct {
	Error string `json:"error"`
}

// do executes the call and decodes a successful JSON response into out.
// out may be nil when the response body is not needed.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	op := cl.method + " " + cl.path

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &apierr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierr.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &apierr.APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(data, cl.fallback),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apierr.NetworkError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// errorMessage extracts the server-provided error text, falling back to
// the operation-specific message when the body carries none.
func errorMessage(data []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if fallback != "" {
		return fallback
	}
	return defaultErrorMessage
}
