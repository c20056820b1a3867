package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"huddle/internal/config"
	"huddle/internal/domain"
	"huddle/internal/logging"
)

// ClientConstructor creates a client from a config entry.
type ClientConstructor func(name string, pc config.ProviderConfig, httpClient *http.Client, logger *slog.Logger) domain.LLMClient

// Factory creates and caches LLM clients from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	httpClient   *http.Client
	constructors map[string]ClientConstructor
	cache        map[string]domain.LLMClient
	mu           sync.RWMutex
}

// NewFactory creates a client factory with the built-in kinds registered.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = logging.Discard()
	}
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		httpClient:   SharedHTTPClient(0),
		constructors: make(map[string]ClientConstructor),
		cache:        make(map[string]domain.LLMClient),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) the constructor for a provider kind.
func (f *Factory) RegisterConstructor(kind string, ctor ClientConstructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[kind] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors[config.KindOpenAI] = func(name string, pc config.ProviderConfig, hc *http.Client, logger *slog.Logger) domain.LLMClient {
		return NewOpenAI(OpenAIConfig{
			Name: name, APIKey: pc.Credential(), APIBase: pc.APIBase, Model: pc.DefaultModel,
			Timeout: pc.Timeout(), Client: hc, Logger: logger,
		})
	}
	f.constructors[config.KindGemini] = func(name string, pc config.ProviderConfig, hc *http.Client, logger *slog.Logger) domain.LLMClient {
		return NewGemini(GeminiConfig{
			Name: name, APIKey: pc.Credential(), APIBase: pc.APIBase, Model: pc.DefaultModel,
			Timeout: pc.Timeout(), Client: hc, Logger: logger,
		})
	}
	f.constructors[config.KindCompat] = func(name string, pc config.ProviderConfig, hc *http.Client, logger *slog.Logger) domain.LLMClient {
		return NewCompat(CompatConfig{
			Name: name, APIKey: pc.Credential(), APIBase: pc.APIBase, Model: pc.DefaultModel,
			Timeout: pc.Timeout(), Client: hc, Logger: logger,
		})
	}
}

// Get returns the client with the given name, or the default if name is empty.
// Created clients are cached so the same instance is reused across calls.
func (f *Factory) Get(name string) (domain.LLMClient, error) {
	if name == "" {
		name = f.cfg.General.DefaultProvider
	}

	// Fast path: read lock.
	f.mu.RLock()
	if cached, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	// Slow path: write lock with double-check.
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.cache[name]; ok {
		return cached, nil
	}

	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("unknown provider: %s", name)}
	}
	if !pc.Enabled {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("provider %s is disabled", name)}
	}
	ctor, found := f.constructors[pc.Kind]
	if !found {
		return nil, &domain.ConfigurationError{Msg: fmt.Sprintf("provider %s: no constructor for kind %q", name, pc.Kind)}
	}

	client := ctor(name, pc, f.httpClient, f.logger.With("provider", name))
	if pc.RateLimitPerMin > 0 {
		client = WithRateLimit(client, pc.RateLimitPerMin)
	}
	f.cache[name] = client
	return client, nil
}

// Client returns the client the agents should use: the failover chain when one
// is configured, otherwise the default provider. Retries are applied on top
// according to agents.maxRetries.
func (f *Factory) Client() (domain.LLMClient, error) {
	var client domain.LLMClient
	if chain := f.cfg.General.FailoverChain; len(chain) > 0 {
		members := make([]domain.LLMClient, 0, len(chain))
		for _, name := range chain {
			c, err := f.Get(name)
			if err != nil {
				f.logger.Warn("failover: skipping provider", "provider", name, "error", err)
				continue
			}
			members = append(members, c)
		}
		if len(members) == 0 {
			return nil, &domain.ConfigurationError{Msg: "no enabled provider in failover chain"}
		}
		client = NewFailoverClient(members, f.logger)
	} else {
		c, err := f.Get("")
		if err != nil {
			return nil, err
		}
		client = c
	}
	return WithRetry(client, f.cfg.Agents.MaxRetries, f.logger), nil
}

// unavailable stands in for a provider that could not be built, so requests
// fail with the configuration error instead of a nil client.
type unavailable struct {
	name string
	err  error
}

// Unavailable returns a client that is never ready and reports err.
func Unavailable(name string, err error) domain.LLMClient {
	return &unavailable{name: name, err: err}
}

func (u *unavailable) Name() string { return u.name }
func (u *unavailable) Ready() error { return u.err }

func (u *unavailable) Complete(context.Context, domain.CompletionRequest) (string, error) {
	return "", u.err
}
