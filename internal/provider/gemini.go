package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"huddle/internal/domain"
	"huddle/internal/logging"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini implements domain.LLMClient on the Gemini API through google.golang.org/genai.
// The SDK client is created on first use because construction needs a key.
type Gemini struct {
	name    string
	apiKey  string
	apiBase string
	model   string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger

	mu     sync.Mutex
	client *genai.Client
}

type GeminiConfig struct {
	Name    string
	APIKey  string
	APIBase string
	Model   string
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Name == "" {
		cfg.Name = "gemini"
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Gemini{
		name:    cfg.Name,
		apiKey:  cfg.APIKey,
		apiBase: cfg.APIBase,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		http:    cfg.Client,
		logger:  cfg.Logger,
	}
}

func (g *Gemini) Name() string { return g.name }

func (g *Gemini) Ready() error {
	if strings.TrimSpace(g.apiKey) == "" {
		return missingCredential("Gemini")
	}
	return nil
}

func (g *Gemini) sdk(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	cc := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.http,
	}
	if g.apiBase != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.apiBase}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, &domain.ConfigurationError{Msg: "creating Gemini client: " + err.Error(), Err: err}
	}
	g.client = client
	return client, nil
}

func (g *Gemini) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := g.Ready(); err != nil {
		return "", err
	}
	client, err := g.sdk(ctx)
	if err != nil {
		return "", err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = g.model
	}

	temp := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(req.MaxTokens),
	}
	contents := []*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}

	res, err := client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &domain.ProviderError{
				Provider:   g.name,
				StatusCode: apiErr.Code,
				Msg:        apiErr.Message,
				Err:        err,
			}
		}
		return "", asProviderError(g.name, err)
	}

	text := res.Text()
	if text == "" {
		return "", emptyCompletion(g.name)
	}
	return text, nil
}
