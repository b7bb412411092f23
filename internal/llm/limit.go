package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedClient wraps a Client with a token-bucket limiter so batch
// evaluation runs stay under the provider's request quota.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimitedClient caps the client at requestsPerSecond with the given
// burst. Non-positive burst defaults to 1.
func NewRateLimitedClient(inner Client, requestsPerSecond float64, burst int) *RateLimitedClient {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the inner provider name.
func (c *RateLimitedClient) Name() string {
	return c.inner.Name()
}

// Complete waits for rate-limit clearance, then delegates.
func (c *RateLimitedClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return c.inner.Complete(ctx, req)
}
