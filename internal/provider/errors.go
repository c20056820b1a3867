package provider

import (
	"context"
	"errors"
	"fmt"

	"huddle/internal/domain"
)

// missingCredential is the Ready error for a client constructed without a key.
func missingCredential(display string) error {
	return &domain.ConfigurationError{
		Msg: fmt.Sprintf("%s API key not configured", display),
		Err: domain.ErrMissingCredential,
	}
}

// asProviderError wraps transport and SDK failures so callers see one error type.
func asProviderError(name string, err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ProviderError{Provider: name, Msg: "request timed out", Err: err}
	}
	return &domain.ProviderError{Provider: name, Err: err}
}

func emptyCompletion(name string) error {
	return &domain.ProviderError{Provider: name, Msg: "no content generated", Err: domain.ErrEmptyCompletion}
}
