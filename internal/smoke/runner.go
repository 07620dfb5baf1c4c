package smoke

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
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/destinpq/groow-sub007/internal/envelope"
)

// Outcome classifies a single endpoint check.
type Outcome string

const (
	OutcomePassed     Outcome = "passed"
	OutcomeExpected   Outcome = "expected"
	OutcomeAcceptable Outcome = "acceptable"
	OutcomeUnexpected Outcome = "unexpected"
	OutcomeFailed     Outcome = "failed"
	OutcomeError      Outcome = "error"
	OutcomeSkipped    Outcome = "skipped"
)

// Success reports whether the outcome counts as a pass.
func (o Outcome) Success() bool {
	switch o {
	case OutcomePassed, OutcomeExpected, OutcomeAcceptable:
		return true
	}
	return false
}

// Classify judges a status code under mode. The message is empty on success.
func Classify(mode Mode, status, expected int) (Outcome, string) {
	is2xx := status >= 200 && status < 300

	if mode == ModeRealBackend {
		switch {
		case is2xx, expected != 0 && status == expected:
			return OutcomePassed, ""
		case status == http.StatusUnauthorized:
			return OutcomeExpected, ""
		case status == http.StatusNotFound:
			return OutcomeAcceptable, ""
		default:
			return OutcomeUnexpected, fmt.Sprintf("Unexpected status %d", status)
		}
	}

	if expected != 0 {
		if status == expected {
			return OutcomePassed, ""
		}
		return OutcomeFailed, fmt.Sprintf("Expected %d, got %d", expected, status)
	}
	if is2xx {
		return OutcomePassed, ""
	}
	return OutcomeFailed, fmt.Sprintf("Expected 2xx, got %d", status)
}

// Result is the record of one endpoint check.
type Result struct {
	Endpoint       string `json:"endpoint"`
	Method         string `json:"method"`
	StatusCode     int    `json:"statusCode"`
	ExpectedStatus int    `json:"expectedStatus"`
	// ResponseTime is in milliseconds
	ResponseTime int64     `json:"responseTime"`
	Success      bool      `json:"success"`
	Outcome      Outcome   `json:"outcome"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Category     string    `json:"category"`
	RequiresAuth bool      `json:"requiresAuth"`
	Suite        string    `json:"suite"`
	Description  string    `json:"description,omitempty"`
}

// Config configures a Runner.
type Config struct {
	// BaseURL is prefixed to every suite path, e.g. http://host/api/v1
	BaseURL string
	// Timeout bounds each request. Default: 10s
	Timeout time.Duration
	// Workers caps concurrent requests. Default: 4
	Workers int
	// Token is sent as a bearer token to endpoints that require auth.
	Token string

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *Metrics
	Faker      *BodyFaker
	Now        func() time.Time
}

// Runner executes suites.
//
// Thread Safety: Run may be called concurrently; the token is guarded.
type Runner struct {
	base    *url.URL
	config  Config
	client  *http.Client
	logger  *zap.Logger
	faker   *BodyFaker
	now     func() time.Time
	tokenMu sync.RWMutex
	token   string
}

// NewRunner validates cfg and applies defaults.
func NewRunner(cfg Config) (*Runner, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("smoke: invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	r := &Runner{
		base:   base,
		config: cfg,
		client: cfg.HTTPClient,
		logger: cfg.Logger,
		faker:  cfg.Faker,
		now:    cfg.Now,
		token:  cfg.Token,
	}
	if r.client == nil {
		r.client = &http.Client{}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.faker == nil {
		r.faker = NewBodyFaker(0)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Token returns the bearer token in use.
func (r *Runner) Token() string {
	r.tokenMu.RLock()
	defer r.tokenMu.RUnlock()
	return r.token
}

// SetToken replaces the bearer token.
func (r *Runner) SetToken(token string) {
	r.tokenMu.Lock()
	r.token = token
	r.tokenMu.Unlock()
}

// Login posts credentials to /auth/login and keeps the returned access
// token for later requests.
func (r *Runner) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", errors.New("smoke: login credentials are empty")
	}
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpointURL("/auth/login"), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("smoke: login request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("smoke: reading login response: %w", err)
	}

	doc, _ := envelope.Parse(raw)
	token := envelope.ExtractToken(doc)
	if resp.StatusCode != http.StatusOK || token == "" {
		msg := envelope.ErrorMessage(doc)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("smoke: login failed with status %d: %s", resp.StatusCode, msg)
	}
	r.SetToken(token)
	r.logger.Info("Logged in for smoke run", zap.String("email", email))
	return token, nil
}

type job struct {
	suite    *Suite
	endpoint Endpoint
}

// Run checks every endpoint of every suite. Requests run on a bounded worker
// pool; results keep declaration order. Endpoints not started before ctx
// ends are reported as skipped.
func (r *Runner) Run(ctx context.Context, suites ...*Suite) *Summary {
	start := r.now()

	var jobs []job
	for _, s := range suites {
		for _, ep := range s.Endpoints {
			jobs = append(jobs, job{suite: s, endpoint: ep})
		}
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(r.config.Workers)
	for i, j := range jobs {
		if ctx.Err() != nil {
			results[i] = r.skipped(j)
			r.config.Metrics.Observe(results[i])
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = r.skipped(j)
			} else {
				results[i] = r.check(ctx, j)
			}
			r.config.Metrics.Observe(results[i])
			return nil
		})
	}
	_ = g.Wait()

	return Summarize(results, start, r.now())
}

func (r *Runner) skipped(j job) Result {
	res := r.baseResult(j)
	res.Outcome = OutcomeSkipped
	res.Error = "run cancelled"
	res.Timestamp = r.now()
	return res
}

func (r *Runner) baseResult(j job) Result {
	return Result{
		Endpoint:       ResolvePath(j.endpoint.Path),
		Method:         j.endpoint.Method,
		ExpectedStatus: j.endpoint.ExpectedStatus,
		Category:       j.suite.CategoryOf(j.endpoint),
		RequiresAuth:   j.suite.AuthRequired(j.endpoint),
		Suite:          j.suite.Name,
		Description:    j.endpoint.Description,
	}
}

func (r *Runner) check(ctx context.Context, j job) Result {
	res := r.baseResult(j)
	logger := r.logger.With(
		zap.String("method", res.Method),
		zap.String("endpoint", res.Endpoint),
		zap.String("category", res.Category),
	)

	status, elapsed, err := r.do(ctx, j, res)
	res.Timestamp = r.now()
	res.ResponseTime = elapsed.Milliseconds()
	if err != nil {
		res.Outcome = OutcomeError
		res.Error = err.Error()
		logger.Warn("Smoke request failed", zap.Error(err))
		return res
	}

	res.StatusCode = status
	res.Outcome, res.Error = Classify(j.suite.Mode, status, j.endpoint.ExpectedStatus)
	res.Success = res.Outcome.Success()

	switch res.Outcome {
	case OutcomeUnexpected:
		logger.Warn("Unexpected", zap.Int("status", status))
	case OutcomeFailed:
		logger.Warn("Smoke check failed", zap.Int("status", status), zap.String("error", res.Error))
	case OutcomeExpected, OutcomeAcceptable:
		logger.Info("Tolerated status", zap.Int("status", status), zap.String("outcome", string(res.Outcome)))
	default:
		logger.Debug("Smoke check passed", zap.Int("status", status), zap.Int64("response_time_ms", res.ResponseTime))
	}
	return res
}

func (r *Runner) do(ctx context.Context, j job, res Result) (int, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var body io.Reader
	if j.endpoint.Body != nil {
		payload, err := json.Marshal(r.faker.Fill(j.endpoint.Body))
		if err != nil {
			return 0, 0, fmt.Errorf("encoding body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, res.Method, r.endpointURL(res.Endpoint), body)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := r.Token(); res.RequiresAuth && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, time.Since(started), err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	_ = resp.Body.Close()
	return resp.StatusCode, time.Since(started), nil
}

func (r *Runner) endpointURL(path string) string {
	return r.base.String() + path
}
