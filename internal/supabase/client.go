// Package supabase is a small typed client for the hosted backend: the
// GoTrue-style auth endpoints under /auth/v1 and the PostgREST-style data
// endpoints under /rest/v1.
//
// Every request carries the project's anon key in the `apikey` header and a
// bearer token, which is the signed-in user's access token when one travels
// in the context (WithAccessToken) and the anon key otherwise.  Responses
// are decoded into explicit types at this boundary; backend failures come
// back as *APIError.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options configures a Client.
type Options struct {
	URL     string        // project URL, e.g. https://abc.supabase.co
	AnonKey string        // public anon key
	Timeout time.Duration // per-request timeout; 0 means 10s
	HTTP    *http.Client  // optional; overrides Timeout
}

// Client is safe for concurrent use.
type Client struct {
	base    *url.URL
	anonKey string
	http    *http.Client
}

// ErrNotConfigured is returned by every call when the project URL is empty.
var ErrNotConfigured = errors.New("supabase: backend url not configured")

// New returns a Client.  A blank URL is accepted so the app can start and
// report the misconfiguration on first use.
func New(opts Options) (*Client, error) {
	c := &Client{anonKey: opts.AnonKey, http: opts.HTTP}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if strings.TrimSpace(opts.URL) != "" {
		u, err := url.Parse(strings.TrimRight(opts.URL, "/"))
		if err != nil {
			return nil, fmt.Errorf("supabase: parse url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("supabase: url %q must be absolute", opts.URL)
		}
		c.base = u
	}
	return c, nil
}

// URL returns the configured project URL or "".
func (c *Client) URL() string {
	if c.base == nil {
		return ""
	}
	return c.base.String()
}

// AnonKey returns the configured anon key.
func (c *Client) AnonKey() string { return c.anonKey }

type tokenKey struct{}

// WithAccessToken attaches a user access token to ctx.  REST calls made with
// this context run under that user's row-level security policies.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken.
func AccessToken(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok && t != ""
}

// request describes one backend call.
type request struct {
	method  string
	path    string // relative to the project URL, e.g. /auth/v1/user
	query   url.Values
	token   string // explicit bearer; falls back to ctx token, then anon key
	body    any
	headers map[string]string
}

// do executes req and decodes a 2xx JSON body into out (when non-nil).  The
// raw response is returned so callers can read headers such as
// Content-Range.
func (c *Client) do(ctx context.Context, req request, out any) (*http.Response, error) {
	if c.base == nil {
		return nil, ErrNotConfigured
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	hr.Header.Set("apikey", c.anonKey)
	hr.Header.Set("Accept", "application/json")
	if req.body != nil {
		hr.Header.Set("Content-Type", "application/json")
	}
	bearer := req.token
	if bearer == "" {
		bearer, _ = AccessToken(ctx)
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	if bearer != "" {
		hr.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range req.headers {
		hr.Header.Set(k, v)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp, fmt.Errorf("supabase: read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return resp, decodeError(resp.StatusCode, raw)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp, fmt.Errorf("supabase: decode %s: %w", req.path, err)
		}
	}
	return resp, nil
}
