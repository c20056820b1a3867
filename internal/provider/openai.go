package provider

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	osdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"huddle/internal/domain"
	"huddle/internal/logging"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI implements domain.LLMClient on the official SDK's chat completions API.
type OpenAI struct {
	name   string
	apiKey string
	model  string
	client osdk.Client
	logger *slog.Logger
}

type OpenAIConfig struct {
	Name    string
	APIKey  string
	APIBase string
	Model   string
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

// NewOpenAI never fails: a missing key is reported by Ready so the request,
// not the process, gets the configuration error.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}

	// Retries are owned by the caller's policy, so the SDK makes one attempt.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(cfg.APIBase); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.Client != nil {
		opts = append(opts, option.WithHTTPClient(cfg.Client))
	}

	return &OpenAI{
		name:   cfg.Name,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		client: osdk.NewClient(opts...),
		logger: cfg.Logger,
	}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Ready() error {
	if strings.TrimSpace(o.apiKey) == "" {
		return missingCredential("OpenAI")
	}
	return nil
}

func (o *OpenAI) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := o.Ready(); err != nil {
		return "", err
	}
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := osdk.ChatCompletionNewParams{
		Model: osdk.ChatModel(model),
		Messages: []osdk.ChatCompletionMessageParamUnion{
			osdk.SystemMessage(req.SystemPrompt),
			osdk.UserMessage(req.UserPrompt),
		},
		Temperature: osdk.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = osdk.Int(int64(req.MaxTokens))
	}

	startedAt := time.Now()
	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Debug("provider request failed", "provider", o.name,
			"duration_ms", time.Since(startedAt).Milliseconds(), "error", err)
		var apiErr *osdk.Error
		if errors.As(err, &apiErr) {
			return "", &domain.ProviderError{
				Provider:   o.name,
				StatusCode: apiErr.StatusCode,
				Msg:        apiErr.Message,
				Err:        err,
			}
		}
		return "", asProviderError(o.name, err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", emptyCompletion(o.name)
	}
	o.logger.Debug("provider request completed", "provider", o.name,
		"duration_ms", time.Since(startedAt).Milliseconds())
	return completion.Choices[0].Message.Content, nil
}
