package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"huddle/internal/domain"
	"huddle/internal/logging"
)

// FailoverClient tries multiple clients in order, falling back to the next
// one when the current fails.
type FailoverClient struct {
	clients []domain.LLMClient
	logger  *slog.Logger
}

// NewFailoverClient creates a failover chain from the given clients.
// At least one client is required.
func NewFailoverClient(clients []domain.LLMClient, logger *slog.Logger) *FailoverClient {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FailoverClient{
		clients: clients,
		logger:  logger,
	}
}

func (fc *FailoverClient) Name() string {
	names := make([]string, len(fc.clients))
	for i, c := range fc.clients {
		names[i] = c.Name()
	}
	return "failover(" + strings.Join(names, "→") + ")"
}

// Ready succeeds when at least one member is usable. Otherwise it returns the
// first member's configuration error.
func (fc *FailoverClient) Ready() error {
	var first error
	for _, c := range fc.clients {
		err := c.Ready()
		if err == nil {
			return nil
		}
		if first == nil {
			first = err
		}
	}
	if first == nil {
		return &domain.ConfigurationError{Msg: "no provider configured"}
	}
	return first
}

// Complete tries each ready client in order and returns the first success.
// Context cancellation stops the chain.
func (fc *FailoverClient) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := fc.Ready(); err != nil {
		return "", err
	}
	var lastErr error
	for i, c := range fc.clients {
		if c.Ready() != nil {
			continue
		}
		text, err := c.Complete(ctx, req)
		if err == nil {
			if i > 0 {
				fc.logger.Info("failover: used fallback provider",
					"provider", c.Name(),
					"attempt", i+1,
				)
			}
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		fc.logger.Warn("failover: provider failed, trying next",
			"provider", c.Name(),
			"attempt", i+1,
			"error", err,
		)
	}

	var pe *domain.ProviderError
	if errors.As(lastErr, &pe) {
		return "", lastErr
	}
	return "", asProviderError(fc.Name(), fmt.Errorf("all providers in failover chain failed: %w", lastErr))
}
