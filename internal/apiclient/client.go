// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient is the typed client of the careers and leads backend.
// It attaches the session's bearer token to admin calls, turns a 401 into
// a forced sign-out, retries idempotent reads and falls back to static data
// for the public listings.
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

	"github.com/cenkalti/backoff/v4"

	"github.com/olegiv/vetpl-go/internal/metrics"
)

// DefaultBaseURL is the backend used when none is configured.
const DefaultBaseURL = "http://localhost:8000/api/v1"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// TokenSource returns the bearer token of the current request's session.
type TokenSource func(ctx context.Context) (string, bool)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	// TokenSource supplies the bearer token for authenticated calls.
	TokenSource TokenSource
	// OnUnauthorized runs when an authenticated call gets a 401.
	OnUnauthorized func(ctx context.Context)
	// MaxRetries bounds retries of GET requests. Writes are never retried.
	MaxRetries    int
	RetryInterval time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Fallback      *Fallback
	UserAgent     string
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	base           *url.URL
	http           *http.Client
	timeout        time.Duration
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	maxRetries     int
	retryInterval  time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	fallback       *Fallback
	userAgent      string
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", raw)
	}

	c := &Client{
		base:           base,
		http:           opts.HTTPClient,
		timeout:        opts.Timeout,
		tokens:         opts.TokenSource,
		onUnauthorized: opts.OnUnauthorized,
		maxRetries:     opts.MaxRetries,
		retryInterval:  opts.RetryInterval,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		fallback:       opts.Fallback,
		userAgent:      opts.UserAgent,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.retryInterval <= 0 {
		c.retryInterval = 200 * time.Millisecond
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.fallback == nil {
		c.fallback = DefaultFallback()
	}
	if c.userAgent == "" {
		c.userAgent = "vetpl-go"
	}
	return c, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// call describes one request. body builds a fresh reader per attempt.
type call struct {
	endpoint string
	method   string
	path     string
	query    url.Values
	body     func() (io.Reader, string, error)
	authed   bool
}

func jsonBody(v any) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// Call performs an arbitrary JSON request against the backend. in may be nil.
// It is the seam used by identity providers living outside this package.
func (c *Client) Call(ctx context.Context, method, path string, in, out any, authed bool) error {
	cl := call{endpoint: endpointName(path), method: method, path: path, authed: authed}
	if in != nil {
		cl.body = jsonBody(in)
	}
	return c.do(ctx, cl, out)
}

func endpointName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, "_")
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	attempt := func() error {
		return c.once(ctx, cl, out)
	}

	if cl.method != http.MethodGet || c.maxRetries == 0 {
		return attempt()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 3 * c.timeout

	tries := 0
	return backoff.Retry(func() error {
		err := attempt()
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsClientError() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		tries++
		if tries > c.maxRetries {
			return backoff.Permanent(err)
		}
		c.logger.Warn("backend read failed, retrying",
			"endpoint", cl.endpoint,
			"retry", tries,
			"error", err)
		return err
	}, backoff.WithContext(b, ctx))
}

func (c *Client) once(ctx context.Context, cl call, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path = u.Path + "/" + strings.TrimLeft(cl.path, "/")
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	var contentType string
	if cl.body != nil {
		var err error
		if body, contentType, err = cl.body(); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cl.authed && c.tokens != nil {
		if token, ok := c.tokens(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(cl.endpoint, 0, time.Since(start))
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, cl.method, cl.path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.ObserveAPI(cl.endpoint, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, data)
		if resp.StatusCode == http.StatusUnauthorized && cl.authed {
			c.logger.Warn("backend rejected session token", "endpoint", cl.endpoint)
			if c.onUnauthorized != nil {
				c.onUnauthorized(ctx)
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", cl.endpoint, err)
	}
	return nil
}
