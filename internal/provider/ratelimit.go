package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"huddle/internal/domain"
)

// newLimiter builds a token bucket holding burst tokens that refills at
// perMinute. Non-positive arguments select 30 per minute and a burst of 10.
func newLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

// RateLimited throttles Complete calls of the wrapped client.
type RateLimited struct {
	domain.LLMClient
	limiter *rate.Limiter
}

// WithRateLimit wraps client so it issues at most perMinute completions per minute.
// The burst equals perMinute/6, at least 1.
func WithRateLimit(client domain.LLMClient, perMinute int) *RateLimited {
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{LLMClient: client, limiter: newLimiter(perMinute, burst)}
}

func (r *RateLimited) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := r.LLMClient.Ready(); err != nil {
		return "", err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return "", asProviderError(r.Name(), err)
	}
	return r.LLMClient.Complete(ctx, req)
}
