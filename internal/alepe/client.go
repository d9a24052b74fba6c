// Copyright (c) 2026 The alepe-mcp Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package alepe contains the client of the ALEPE open data API.
package alepe

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
	"runtime/trace"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/dadosabertos/alepe-mcp/internal/catalog"
	"github.com/dadosabertos/alepe-mcp/internal/chttp"
	"github.com/dadosabertos/alepe-mcp/internal/network"
	"github.com/dadosabertos/alepe-mcp/internal/primitive"
	"github.com/dadosabertos/alepe-mcp/internal/request"
	"github.com/dadosabertos/alepe-mcp/logger"
)

// Defaults.
const (
	DefaultBaseURL    = "https://dadosabertos.alepe.pe.gov.br/api/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultRateLimit  = 60 // requests per minute
	DefaultUserAgent  = "MCP-ALEPE/0.1.0 (Data Access Tool)"
)

// Client is the client of the upstream API.  It is safe for concurrent use,
// all callers share the rate limiter.
type Client struct {
	cl       *http.Client
	lim      *network.Limiter
	cat      *catalog.Catalog
	baseURL  string
	attempts int
	delay    time.Duration
	lg       *slog.Logger

	fetches  primitive.Counter
	failures primitive.Counter
	waits    primitive.Counter
}

// Option is the functional option for the Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		if cl != nil {
			c.cl = cl
		}
	}
}

// WithLimiter sets the rate limiter.
func WithLimiter(l *network.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.lim = l
		}
	}
}

// WithRetry sets the number of attempts and the base retry delay.
// Non-positive attempts leave the default.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		c.delay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(lg *slog.Logger) Option {
	return func(c *Client) {
		if lg != nil {
			c.lg = lg
		}
	}
}

// WithCatalog sets the catalog reported by the health check.
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *Client) {
		if cat != nil {
			c.cat = cat
		}
	}
}

// New creates the Client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	lim, err := network.NewLimiter(DefaultRateLimit)
	if err != nil {
		return nil, err
	}
	c := &Client{
		cl:       chttp.New(DefaultUserAgent, DefaultTimeout),
		lim:      lim,
		cat:      catalog.Default(),
		baseURL:  strings.TrimRight(baseURL, "/"),
		attempts: DefaultMaxRetries,
		delay:    DefaultRetryDelay,
		lg:       logger.Default,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the URL of the resource for the request.
func (c *Client) URL(r *request.Request) string {
	return c.url(r.Dataset(), request.Build(r))
}

func (c *Client) url(dataset string, q request.Query) string {
	u := c.baseURL + "/" + url.PathEscape(dataset)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Fetch fetches the resource for the validated request.  It takes one token
// from the rate limiter, and retries the transport failures and the
// non-successful responses.  The returned error is always *FetchError.
func (c *Client) Fetch(ctx context.Context, r *request.Request) (*Result, error) {
	ctx, task := trace.NewTask(ctx, "Fetch")
	defer task.End()

	start := time.Now()
	res := &Result{
		Dataset:   r.Dataset(),
		Format:    r.Format(),
		Filters:   r.Applied(),
		Query:     request.Build(r),
		RequestID: uuid.NewString(),
	}
	lg := c.lg.With("dataset", res.Dataset, "request_id", res.RequestID)
	c.fetches.Inc()

	body, err := c.get(ctx, lg, c.url(res.Dataset, res.Query))
	if err != nil {
		c.failures.Inc()
		ferr := classify(res.Dataset, err)
		lg.ErrorContext(ctx, "fetch failed", "error", ferr, "duration", time.Since(start))
		return nil, ferr
	}

	res.Bytes = len(body)
	switch res.Format {
	case request.FormatCSV:
		res.Text = string(body)
	default:
		data, err := decodeJSON(body)
		if err != nil {
			c.failures.Inc()
			lg.ErrorContext(ctx, "malformed response", "error", err, "size", humanize.Bytes(uint64(len(body))))
			return nil, &FetchError{Kind: ErrMalformedResponse, Dataset: res.Dataset, Err: err}
		}
		res.Data = data
	}
	res.Duration = time.Since(start)

	args := []any{"format", res.Format, "size", humanize.Bytes(uint64(res.Bytes)), "duration", res.Duration}
	if n, ok := res.Items(); ok {
		args = append(args, "items", n)
	}
	if n, ok := res.Lines(); ok {
		args = append(args, "lines", n)
	}
	lg.InfoContext(ctx, "fetched", args...)
	return res, nil
}

// get performs the rate limited GET request with retries and returns the
// response body.
func (c *Client) get(ctx context.Context, lg *slog.Logger, u string) ([]byte, error) {
	waited, err := c.lim.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if waited > 0 {
		c.waits.Inc()
		lg.DebugContext(ctx, "rate limited", "waited", waited)
	}

	var (
		body    []byte
		attempt int
	)
	ctx = logger.NewContext(ctx, lg)
	err = network.WithRetry(ctx, c.attempts, c.delay, func(ctx context.Context) error {
		attempt++
		lg.DebugContext(ctx, "GET", "url", u, "attempt", attempt)
		b, err := c.do(ctx, u)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// do executes a single attempt.
func (c *Client) do(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, network.NewStatusError(resp.StatusCode, body)
	}
	return body, nil
}

// classify converts the error of the retry loop into *FetchError.
func classify(dataset string, err error) *FetchError {
	var se *network.StatusError
	if errors.As(err, &se) {
		return &FetchError{Kind: ErrUpstreamError, Dataset: dataset, Code: se.Code, Body: se.Body, Err: err}
	}
	return &FetchError{Kind: ErrUpstreamUnavailable, Dataset: dataset, Err: err}
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid data after the JSON document")
	}
	return v, nil
}

// Stats are the counters of the client.
type Stats struct {
	Fetches     int64 `json:"fetches"`
	Failures    int64 `json:"failures"`
	RateWaits   int64 `json:"rate_limit_waits"`
	RateLimit   int   `json:"rate_limit_per_minute"`
	TokensAvail int   `json:"tokens_available"`
}

// Stats returns the current statistics.
func (c *Client) Stats() Stats {
	return Stats{
		Fetches:     c.fetches.N(),
		Failures:    c.failures.N(),
		RateWaits:   c.waits.N(),
		RateLimit:   c.lim.PerMinute(),
		TokensAvail: int(c.lim.Available()),
	}
}
