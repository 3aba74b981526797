package dataflows

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/dyike/CortexSI/pkg/errors"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ClientConfig configures the HTTP side of every source client
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	// BaseURL overrides the public endpoint, e.g. for an httptest server
	BaseURL string
	Retry   *RetryConfig
}

// DefaultClientConfig returns a 15s timeout, a browser user agent and the
// default retry policy
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:   15 * time.Second,
		UserAgent: defaultUserAgent,
		Retry:     DefaultRetryConfig(),
	}
}

func (c ClientConfig) withDefaults(baseURL string) ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.Retry == nil {
		c.Retry = DefaultRetryConfig()
	}
	return c
}

func newRestyClient(cfg ClientConfig) *resty.Client {
	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")
	return client
}

// checkStatus maps non-2xx responses onto the source error taxonomy
func checkStatus(resp *resty.Response, what string) error {
	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrRateLimited, "%s: HTTP %d", what, code)
	case code == http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s: HTTP %d", what, code)
	case code < 200 || code >= 300:
		return errors.Wrapf(errors.ErrSourceUnavailable, "%s: HTTP %d", what, code)
	}
	return nil
}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns sensible retry defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
	}
}

// NoRetry disables retries.
func NoRetry() *RetryConfig {
	return &RetryConfig{}
}

// WithRetry executes fn with exponential backoff. Parse and not-found errors
// are returned immediately since repeating the request cannot fix them.
func WithRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	delay := config.BaseDelay
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return errors.Wrap(ctx.Err(), "retry aborted")
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * config.Multiplier)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, errors.ErrParse) || errors.Is(err, errors.ErrNotFound) || ctx.Err() != nil {
			return err
		}
	}

	if config.MaxRetries == 0 {
		return lastErr
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// NewIntervalLimiter allows one request per interval with no burst. A
// non-positive interval disables limiting.
func NewIntervalLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
