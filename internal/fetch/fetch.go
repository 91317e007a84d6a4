// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package fetch is the outbound HTTP collaborator used by the aggregator,
// the reachability checker and the Xtream client.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/chouftv/internal/metrics"
	"github.com/ManuGH/chouftv/internal/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// DefaultMaxBodyBytes caps a fetched body.
const DefaultMaxBodyBytes = 32 << 20

var (
	// ErrStatus is returned by Get for non-2xx responses.
	ErrStatus = errors.New("fetch: unexpected status")
	// ErrBodyTooLarge is returned when a body exceeds the configured cap.
	ErrBodyTooLarge = errors.New("fetch: response body too large")
)

// Response is a fully read upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   string
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Fetcher retrieves a URL and returns its status and body. Transport errors
// are returned as errors; any HTTP status is a successful fetch.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error)
}

type requestOptions struct {
	timeout time.Duration
	method  string
	query   url.Values
	header  http.Header
}

// Option customises a single fetch.
type Option func(*requestOptions)

// WithTimeout bounds this fetch, overriding the client default.
func WithTimeout(d time.Duration) Option {
	return func(o *requestOptions) { o.timeout = d }
}

// WithMethod sets the request method (GET by default).
func WithMethod(method string) Option {
	return func(o *requestOptions) { o.method = method }
}

// WithQuery merges values into the URL query string.
func WithQuery(v url.Values) Option {
	return func(o *requestOptions) { o.query = v }
}

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// Config configures a Client.
type Config struct {
	Timeout       time.Duration
	MaxBodyBytes  int64
	ProxyURL      string
	RatePerSecond float64
	UserAgent     string

	// BreakerThreshold consecutive transport failures to one host open its
	// circuit for BreakerReset. Zero disables the breakers.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// Client is the default Fetcher.
type Client struct {
	http      *http.Client
	timeout   time.Duration
	maxBody   int64
	limiter   *rate.Limiter
	userAgent string
	breakers  *resilience.Group
}

// New creates a Client. A proxy URL with the socks5 scheme dials through
// x/net/proxy; http and https proxies use the standard transport proxy.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "chouftv/1.0"
	}

	tr, err := newTransport(cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(tr,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "fetch " + r.Method + " " + r.URL.Host
				}),
			),
		},
		timeout:   cfg.Timeout,
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
	}
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if cfg.BreakerThreshold > 0 {
		c.breakers = resilience.NewGroup(cfg.BreakerThreshold, cfg.BreakerReset)
	}
	return c, nil
}

func newTransport(proxyURL string) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	if proxyURL == "" {
		return tr, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid proxy url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		tr.Proxy = http.ProxyURL(u)
	default:
		p, err := proxy.FromURL(u, dialer)
		if err != nil {
			return nil, fmt.Errorf("fetch: proxy setup: %w", err)
		}
		cd, ok := p.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("fetch: proxy %q does not support context dialing", u.Scheme)
		}
		tr.DialContext = cd.DialContext
	}
	return tr, nil
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	o := requestOptions{timeout: c.timeout, method: http.MethodGet}
	for _, opt := range opts {
		opt(&o)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch: rate limit wait: %w", err)
		}
	}

	target, err := withQuery(rawURL, o.query)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, o.method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, vs := range o.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	var breaker *resilience.CircuitBreaker
	if c.breakers != nil {
		breaker = c.breakers.Get(req.URL.Host)
		if err := breaker.Allow(); err != nil {
			metrics.ObserveFetch("circuit_open", 0)
			return nil, fmt.Errorf("fetch %s: %w", redact(req.URL), err)
		}
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		// A caller hanging up says nothing about the host.
		if breaker != nil && !errors.Is(err, context.Canceled) {
			breaker.RecordFailure()
		}
		metrics.ObserveFetch(transportOutcome(err), time.Since(start))
		// *url.Error repeats the full URL, query credentials included.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("fetch %s: %w", redact(req.URL), err)
	}
	defer func() { _ = res.Body.Close() }()
	if breaker != nil {
		breaker.RecordSuccess()
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		metrics.ObserveFetch(transportOutcome(err), time.Since(start))
		return nil, fmt.Errorf("fetch %s: read body: %w", redact(req.URL), err)
	}
	if int64(len(body)) > c.maxBody {
		metrics.ObserveFetch("too_large", time.Since(start))
		return nil, fmt.Errorf("fetch %s: %w", redact(req.URL), ErrBodyTooLarge)
	}

	outcome := "ok"
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		outcome = "status"
	}
	metrics.ObserveFetch(outcome, time.Since(start))

	return &Response{Status: res.StatusCode, Header: res.Header, Body: string(body)}, nil
}

// Get fetches rawURL and fails with ErrStatus on a non-2xx response.
func Get(ctx context.Context, f Fetcher, rawURL string, opts ...Option) (*Response, error) {
	res, err := f.Fetch(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return res, fmt.Errorf("%w: %d", ErrStatus, res.Status)
	}
	return res, nil
}

// Get is a convenience wrapper around the package-level Get.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	return Get(ctx, c, rawURL, opts...)
}

func withQuery(rawURL string, q url.Values) (string, error) {
	if len(q) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch: invalid url: %w", err)
	}
	merged := u.Query()
	for k, vs := range q {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}

func transportOutcome(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return "timeout"
	}
	return "transport"
}

// redact strips credentials and query strings so Xtream passwords never
// reach logs or error messages.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.User = nil
	c.RawQuery = ""
	return c.String()
}
