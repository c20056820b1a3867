package provider

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"huddle/internal/domain"
	"huddle/internal/logging"
)

// Retrying re-issues completions that failed with a retryable provider error
// (transport failure, 429, 5xx). Caller and configuration errors are returned
// at once.
type Retrying struct {
	domain.LLMClient
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// WithRetry wraps client with up to maxRetries extra attempts. maxRetries <= 0
// returns client unchanged.
func WithRetry(client domain.LLMClient, maxRetries int, logger *slog.Logger) domain.LLMClient {
	if maxRetries <= 0 {
		return client
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Retrying{LLMClient: client, maxRetries: maxRetries, baseDelay: time.Second, logger: logger}
}

func (r *Retrying) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff with jitter to prevent thundering herd.
			base := time.Duration(attempt*attempt) * r.baseDelay
			jitter := time.Duration(rand.Int64N(int64(base/2 + 1)))
			backoff := base + jitter
			r.logger.Warn("retrying completion", "provider", r.Name(), "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return "", asProviderError(r.Name(), ctx.Err())
			case <-time.After(backoff):
			}
		}

		text, err := r.LLMClient.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var pe *domain.ProviderError
		if !errors.As(err, &pe) || !pe.Retryable() || ctx.Err() != nil {
			return "", err
		}
	}

	return "", lastErr
}
