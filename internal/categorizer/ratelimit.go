package categorizer

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedClassifier spaces calls to an ExternalClassifier.
type RateLimitedClassifier struct {
	inner   ExternalClassifier
	limiter *rate.Limiter
}

// NewRateLimitedClassifier allows requestsPerMinute calls per minute, with
// no burst. A non-positive rate disables limiting.
func NewRateLimitedClassifier(inner ExternalClassifier, requestsPerMinute int) *RateLimitedClassifier {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
	}
	return &RateLimitedClassifier{inner: inner, limiter: rate.NewLimiter(limit, 1)}
}

func (c *RateLimitedClassifier) ClassifyExternal(ctx context.Context, description, vendor string, categories []string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return c.inner.ClassifyExternal(ctx, description, vendor, categories)
}
