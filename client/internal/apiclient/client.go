package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Sentinel errors matched by *APIError.
var (
	ErrNotFound = errors.New("apiclient: not found")
	ErrInvalid  = errors.New("apiclient: invalid request")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Field      string // set for validation errors
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("server returned %d: %s (field %s)", e.StatusCode, e.Message, e.Field)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Is matches ErrNotFound for 404 and ErrInvalid for 400.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrInvalid:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// Client talks to one resultcard server.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.doJSON(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in NewUser) (User, error) {
	var out User
	err := c.doJSON(ctx, http.MethodPost, "/users", in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, p UserPatch) (User, error) {
	var out User
	err := c.doJSON(ctx, http.MethodPut, "/users/"+url.PathEscape(id), p, &out)
	return out, err
}

// DeleteUser deletes a user and returns the server's confirmation message.
func (c *Client) DeleteUser(ctx context.Context, id string) (string, error) {
	var out messageResponse
	err := c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, &out)
	return out.Message, err
}

// ListResults returns all result cards, newest first.
func (c *Client) ListResults(ctx context.Context) ([]Result, error) {
	var out []Result
	err := c.doJSON(ctx, http.MethodGet, "/results", nil, &out)
	return out, err
}

func (c *Client) CreateResult(ctx context.Context, in NewResult) (Result, error) {
	var out Result
	err := c.doJSON(ctx, http.MethodPost, "/results", in, &out)
	return out, err
}

// DownloadPDF streams the rendered card for result id into w.
func (c *Client) DownloadPDF(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/results/"+url.PathEscape(id)+"/pdf", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("apiclient: download pdf: %w", err)
	}
	return n, nil
}

// --- internal ---------------------------------------------------------------

// doJSON sends in (if non-nil) as JSON and decodes a 2xx body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("apiclient: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: %s %s: decode response: %w", method, path, err)
	}
	return nil
}

// do sends one request. Non-2xx responses are returned as *APIError with the
// body already consumed.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	slog.Debug("apiclient: request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var er errorResponse
	if b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); json.Unmarshal(b, &er) == nil && er.Error != "" {
		apiErr.Message, apiErr.Field = er.Error, er.Field
	}
	return nil, apiErr
}
