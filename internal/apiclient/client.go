// Package apiclient is a typed REST client for the marketplace API.
// It caps concurrency, retries transient failures with backoff, refreshes
// the session once on 401 and reports every failure as an *APIError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/destinpq/groow-sub007/internal/envelope"
)

// Client talks to one marketplace API
type Client struct {
	cfg     Config
	baseURL *url.URL
	http    *http.Client
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	tokens  TokenStore
	logger  *zap.Logger

	refreshMu sync.Mutex

	Auth       *AuthService
	FlashSales *FlashSaleService
	Deals      *DealService
	Shipping   *ShippingService
	Support    *SupportService
	Orders     *OrderService
	Alerts     *AlertService
	IoT        *IoTAnalyticsService
}

// Option customizes a Client
type Option func(*Client)

// WithTokenStore shares a token store between clients
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// WithLogger sets the logger used for retries and refreshes
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for cfg
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: base URL %q needs a scheme and host", cfg.BaseURL)
	}
	cfg.applyDefaults()
	if cfg.APIPrefix != "" {
		cfg.APIPrefix = "/" + strings.Trim(cfg.APIPrefix, "/")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: cfg.MaxConcurrent,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	c := &Client{
		cfg:     cfg,
		baseURL: base,
		http:    httpClient,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		tokens:  NewMemoryTokenStore(),
		logger:  zap.NewNop(),
	}
	if cfg.RateLimit > 0 {
		burst := int(math.Ceil(cfg.RateLimit))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{c: c}
	c.FlashSales = &FlashSaleService{c: c}
	c.Deals = &DealService{c: c}
	c.Shipping = &ShippingService{c: c}
	c.Support = &SupportService{c: c}
	c.Orders = &OrderService{c: c}
	c.Alerts = &AlertService{c: c}
	c.IoT = &IoTAnalyticsService{c: c}
	return c, nil
}

// Tokens returns the store holding the session tokens
func (c *Client) Tokens() TokenStore {
	return c.tokens
}

// Request is one API call. Path is relative to the API prefix.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
	// NoAuth sends no bearer token and skips the refresh-on-401 flow
	NoAuth bool
}

// Response is a completed API call
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	Attempts   int
}

// Do executes req. A non-2xx answer yields both the response and an
// *APIError; a transport failure yields a nil response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	sentToken := c.tokens.AccessToken()
	resp, err := c.doWithRetry(ctx, req, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.NoAuth {
		if c.refresh(ctx, sentToken) {
			retried, err := c.doWithRetry(ctx, req, payload)
			if err != nil {
				return nil, err
			}
			resp = retried
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Clear()
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, newAPIError(resp)
	}
	return resp, nil
}

// HealthCheck returns nil when GET /health answers 2xx
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/health", NoAuth: true})
	return err
}

func (c *Client) doWithRetry(ctx context.Context, req Request, payload []byte) (*Response, error) {
	maxRetries := c.cfg.Retry.MaxRetries
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Debug("Retrying request",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.send(ctx, req, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt < maxRetries {
				continue
			}
			c.logger.Warn("Request failed", zap.String("path", req.Path), zap.Error(err))
			return nil, networkError(err)
		}
		resp.Attempts = attempt + 1

		if retryableStatus(resp.StatusCode) && attempt < maxRetries {
			continue
		}
		return resp, nil
	}
}

func (c *Client) send(ctx context.Context, req Request, payload []byte) (*Response, error) {
	u := c.url(req.Path, req.Query)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	if payload != nil && req.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if !req.NoAuth {
		if token := c.tokens.AccessToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       raw,
		Duration:   time.Since(start),
	}, nil
}

// refresh exchanges the refresh token once. sentToken is the access token
// the failed request carried; if another caller already replaced it, the
// request is simply replayed.
func (c *Client) refresh(ctx context.Context, sentToken string) bool {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.AccessToken(); current != "" && current != sentToken {
		return true
	}
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		return false
	}

	payload, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
	resp, err := c.doWithRetry(ctx, Request{Method: http.MethodPost, Path: "/auth/refresh", NoAuth: true}, payload)
	if err != nil || resp.StatusCode >= http.StatusBadRequest {
		c.logger.Info("Token refresh failed", zap.Error(err))
		return false
	}
	access, refreshed, err := envelope.DecodeToken(resp.Body)
	if err != nil || access == "" {
		return false
	}
	c.tokens.SetTokens(access, refreshed)
	c.logger.Debug("Token refreshed")
	return true
}

func (c *Client) url(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + c.cfg.APIPrefix + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// backoff is the exponential delay before attempt, with +/-25% jitter
func (c *Client) backoff(attempt int) time.Duration {
	r := c.cfg.Retry
	delay := float64(r.InitialDelay) * math.Pow(r.Multiplier, float64(attempt-1))
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}
	jitter := delay * 0.25
	delay += (rand.Float64()*2 - 1) * jitter
	return time.Duration(delay)
}

func retryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.([]byte); ok {
		return raw, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return payload, nil
}

// ListParams are the query parameters shared by list endpoints
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	// Filters holds endpoint-specific parameters such as status
	Filters map[string]string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", fmt.Sprint(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", fmt.Sprint(p.Limit))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	for k, v := range p.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func getValue[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	return call[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

func call[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var zero T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}
	out, err := envelope.Decode[T](resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}

func getPage[T any](ctx context.Context, c *Client, path string, params ListParams) (envelope.Page[T], error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: params.values()})
	if err != nil {
		return envelope.Page[T]{Items: []T{}}, err
	}
	page, err := envelope.DecodeList[T](resp.Body, envelope.WithPage(params.Page), envelope.WithLimit(params.Limit))
	if err != nil {
		return page, fmt.Errorf("GET %s: %w", path, err)
	}
	return page, nil
}

func getItems[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	page, err := envelope.DecodeList[T](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return page.Items, nil
}

func send[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	return call[T](ctx, c, Request{Method: method, Path: path, Body: body})
}

func sendNoContent(ctx context.Context, c *Client, method, path string, body any) error {
	_, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	return err
}
