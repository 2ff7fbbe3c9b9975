package address

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 5 * time.Second

// maxResponseBytes caps how much of a provider response is read into memory.
const maxResponseBytes = 1 << 20

// ClientConfig holds the transport settings shared by every adapter.
type ClientConfig struct {
	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing calls to stay under provider
	// quotas. Zero disables throttling.
	RequestsPerSecond float64

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client
}

// client performs provider HTTP calls and classifies transport failures.
type client struct {
	provider string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter

	// authRetryable controls whether 401/403 responses fall through to the
	// next provider.
	authRetryable bool
}

func newClient(provider string, cfg ClientConfig, authRetryable bool) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &client{
		provider:      provider,
		http:          httpClient,
		timeout:       timeout,
		limiter:       limiter,
		authRetryable: authRetryable,
	}
}

// do sends the request and returns the response body for 2xx/3xx statuses.
// Every other outcome is returned as a classified ProviderError.
func (c *client) do(ctx context.Context, req *http.Request) ([]byte, *ProviderError) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.transportError(err)
		}
	}

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, unavailable(c.provider, resp.StatusCode)
	case resp.StatusCode >= 400:
		auth := resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden
		return nil, rejected(c.provider, resp.StatusCode, auth && c.authRetryable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(err)
	}
	return body, nil
}

func (c *client) transportError(err error) *ProviderError {
	if isTimeout(err) {
		return retryable(c.provider, fmt.Sprintf("%s timeout", displayName(c.provider)), err)
	}
	return retryable(c.provider, fmt.Sprintf("%s request error", displayName(c.provider)), err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// missingCredentials is returned before any request is made so the verifier
// still records an attempt for the unconfigured provider.
func missingCredentials(provider, message string) Outcome {
	return Failure(retryable(provider, message, nil))
}
