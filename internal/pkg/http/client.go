package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/circuitbreaker"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	nrpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/newrelic"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/retry"
)

// HTTPError is a non-2xx response from an upstream
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Client calls one upstream service through a circuit breaker and exponential retry.
// 5xx responses and transport errors are retried; 4xx responses are not.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string

	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
}

// NewClient creates a resilient client for the upstream named name
func NewClient(name, baseURL string, cfg models.UpstreamConfig, log *logger.ZapLogger, onStateChange func(string, circuitbreaker.State, circuitbreaker.State)) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cbCfg := circuitbreaker.DefaultConfig(name)
	if cfg.FailureThreshold > 0 {
		cbCfg.FailureThreshold = cfg.FailureThreshold
	}
	if cfg.OpenTimeout > 0 {
		cbCfg.Timeout = cfg.OpenTimeout
	}
	cbCfg.OnStateChange = onStateChange
	// client errors say nothing about upstream health
	cbCfg.IsFailure = func(err error) bool {
		if err == nil {
			return false
		}
		if he, ok := asHTTPError(err); ok {
			return he.StatusCode >= 500
		}
		return true
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxRetries = cfg.MaxRetries

	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Headers:    map[string]string{},
		breaker:    circuitbreaker.New(cbCfg, log),
		retrier:    retry.New(retryCfg, log),
	}
}

// GetJSON issues GET BaseURL+path and decodes a 2xx JSON body into out.
// Failures are wrapped with models.ErrUpstreamUnavailable except 4xx responses.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Execute(ctx, func(ctx context.Context) error {
			return c.getOnce(ctx, c.BaseURL+path, out)
		})
	})
	if err == nil {
		return nil
	}
	if he, ok := asHTTPError(err); ok && he.StatusCode < 500 {
		return fmt.Errorf("%w: %v", models.ErrInvalidRequest, err)
	}
	return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
}

func (c *Client) getOnce(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := nrpkg.InstrumentHTTPRequest(ctx, req, func() (*http.Response, error) {
		return c.HTTPClient.Do(req)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		he := &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
		if resp.StatusCode < 500 {
			return retry.Permanent(he)
		}
		return he
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Breaker exposes the circuit breaker, for health reporting
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

func asHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
