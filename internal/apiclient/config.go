package apiclient

import (
	"net/http"
	"time"
)

// Config configures a Client
type Config struct {
	// BaseURL is the server root, e.g. https://groow-api.destinpq.com
	BaseURL string
	// APIPrefix is prepended to every path, e.g. /api/v1
	APIPrefix string
	Timeout   time.Duration
	// MaxConcurrent caps in-flight requests; callers beyond it wait their turn
	MaxConcurrent int
	// RateLimit is the sustained requests per second; zero disables it
	RateLimit float64
	// Retry nil means DefaultRetryConfig. A non-nil config is taken as given,
	// so &RetryConfig{} disables retries; zero delays still get defaults.
	Retry     *RetryConfig
	UserAgent string
	// HTTPClient overrides the transport; Timeout is ignored when set
	HTTPClient *http.Client
}

// RetryConfig configures exponential backoff between attempts
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry policy
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// DefaultConfig returns a config for baseURL with every default applied
func DefaultConfig(baseURL string) Config {
	cfg := Config{BaseURL: baseURL}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 10
	}
	retry := DefaultRetryConfig()
	if c.Retry != nil {
		retry = *c.Retry
	}
	retry.MaxRetries = max(retry.MaxRetries, 0)
	if retry.InitialDelay <= 0 {
		retry.InitialDelay = time.Second
	}
	if retry.MaxDelay < retry.InitialDelay {
		retry.MaxDelay = retry.InitialDelay
	}
	if retry.Multiplier < 1 {
		retry.Multiplier = 2.0
	}
	c.Retry = &retry
	if c.UserAgent == "" {
		c.UserAgent = "groow-apiclient/1.0"
	}
}
