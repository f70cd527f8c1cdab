// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api is the HTTP client for the École des Génies REST API.
// Every call is a single request/response cycle; nothing is retried.
package api

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

const (
	// DefaultTimeout bounds every API request when no client is supplied.
	DefaultTimeout = 15 * time.Second
	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Recorder receives one observation per API call.
type Recorder interface {
	ObserveAPICall(operation string, status int, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveAPICall(string, int, time.Duration) {}

// Client calls the remote API.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	// streamClient serves downloads. Its deadline covers the response
	// headers only, so a large file is not cut off mid-body.
	streamClient *http.Client
	recorder     Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.streamClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
		c.streamClient = newStreamClient(d)
	}
}

func newStreamClient(headerTimeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: tr}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("API base URL must use http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("API base URL must have a host")
	}

	c := &Client{
		baseURL:      u,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		streamClient: newStreamClient(DefaultTimeout),
		recorder:     noopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Error is a non-2xx API response.
type Error struct {
	Operation  string
	StatusCode int
	// Detail is the server-provided message, empty when none was sent.
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api %s: status %d: %s", e.Operation, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("api %s: status %d", e.Operation, e.StatusCode)
}

// Detail returns the server-provided message carried by err, or "".
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 API response, meaning the
// token is missing, invalid or expired.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 API response.
func IsForbidden(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// request describes one API call.
type request struct {
	operation   string
	method      string
	path        string
	query       url.Values
	token       string
	body        io.Reader
	contentType string
	accept      string
	// stream marks a response whose body is handed to the caller.
	stream      bool
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return bytes.NewReader(b), nil
}

// send performs the request and returns the response for any 2xx status.
// Non-2xx responses are drained, closed and converted into *Error.
func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}
	return c.sendURL(ctx, req, u.String())
}

func (c *Client) sendURL(ctx context.Context, req request, target string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, req.body)
	if err != nil {
		return nil, fmt.Errorf("api %s: building request: %w", req.operation, err)
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	hc := c.httpClient
	if req.stream {
		hc = c.streamClient
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		c.recorder.ObserveAPICall(req.operation, 0, time.Since(start))
		return nil, fmt.Errorf("api %s: %w", req.operation, err)
	}
	c.recorder.ObserveAPICall(req.operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		return nil, &Error{
			Operation:  req.operation,
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}
	return resp, nil
}

// do performs the request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api %s: decoding response: %w", req.operation, err)
	}
	return nil
}

// readDetail extracts the "detail" field of an error payload. The API sends
// either a string or a list of validation errors with "msg" fields.
func readDetail(r io.Reader) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&payload); err != nil {
		return ""
	}
	if len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
