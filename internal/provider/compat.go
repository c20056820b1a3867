package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"huddle/internal/domain"
)

// placeholderKey is sent when a local server needs no credential; the SDK
// always sets an Authorization header.
const placeholderKey = "not-needed"

// Compat implements domain.LLMClient for any OpenAI-compatible chat
// completions endpoint (Ollama, LM Studio, vLLM). It drives the OpenAI SDK
// against apiBase, so only the base URL is required.
type Compat struct {
	*OpenAI
	apiBase string
}

type CompatConfig struct {
	Name    string
	APIKey  string // optional; local servers usually need none
	APIBase string
	Model   string
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

func NewCompat(cfg CompatConfig) *Compat {
	if cfg.Name == "" {
		cfg.Name = "compat"
	}
	if cfg.Client == nil {
		cfg.Client = SharedHTTPClient(cfg.Timeout)
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = placeholderKey
	}
	base := strings.TrimSpace(cfg.APIBase)
	return &Compat{
		OpenAI: NewOpenAI(OpenAIConfig{
			Name:    cfg.Name,
			APIKey:  key,
			APIBase: base,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Client:  cfg.Client,
			Logger:  cfg.Logger,
		}),
		apiBase: base,
	}
}

// Ready ignores the key: without apiBase the SDK would fall back to api.openai.com.
func (c *Compat) Ready() error {
	if c.apiBase == "" {
		return &domain.ConfigurationError{Msg: fmt.Sprintf("%s: apiBase not configured", c.Name())}
	}
	return nil
}

func (c *Compat) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := c.Ready(); err != nil {
		return "", err
	}
	return c.OpenAI.Complete(ctx, req)
}
