package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"huddle/internal/config"
	"huddle/internal/domain"
	"huddle/internal/logging"
	"huddle/internal/metrics"
)

// Caller-facing validation messages.
const (
	msgQueryRequired  = "Query is required"
	msgThreadRequired = "threadMessages array is required"
	msgPromptRequired = "prompt (message string) is required"
	msgNotesRequired  = "threadMessages (non-empty array) is required"
)

// RouterConfig wires a Router.
type RouterConfig struct {
	LLM    domain.LLMClient
	Store  domain.OrgStore
	Agents config.AgentsConfig
	Logger *slog.Logger
}

// Router is the single entry point for agent requests. It runs
// validate → gather → build → complete → normalize and always returns an envelope.
type Router struct {
	llm        domain.LLMClient
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Router{
		llm:        cfg.LLM,
		aggregator: NewAggregator(cfg.Store, cfg.Agents, logger),
		logger:     logger,
	}
}

// Validate checks that req carries the fields its kind requires.
func Validate(req domain.AgentRequest) error {
	switch req.Kind {
	case domain.KindOrgBrain:
		if strings.TrimSpace(req.Query) == "" {
			return domain.Callerf(msgQueryRequired)
		}
	case domain.KindReplySuggestion:
		if len(req.ThreadMessages) == 0 {
			return domain.Callerf(msgThreadRequired)
		}
	case domain.KindToneAnalysis:
		// Any non-empty draft is scored, including one that is only whitespace.
		if req.Query == "" {
			return domain.Callerf(msgPromptRequired)
		}
	case domain.KindMeetingNotes:
		if len(req.ThreadMessages) == 0 {
			return domain.Callerf(msgNotesRequired)
		}
	default:
		return domain.Callerf("unknown agent %q", req.Kind)
	}
	return nil
}

// Dispatch runs one agent request. Faults never escape: every failure,
// including a panic downstream, is reported through the envelope.
func (r *Router) Dispatch(ctx context.Context, req domain.AgentRequest) (env domain.Envelope) {
	start := time.Now()
	logger := r.logger.With("agent", req.Kind)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("agent panicked", "panic", rec)
			env = domain.Fail(fmt.Errorf("internal error: %v", rec))
		}
		outcome := outcomeOf(env.Err)
		metrics.AgentRequest(string(req.Kind), outcome)
		logger.Info("agent dispatched", "outcome", outcome, "duration", time.Since(start).Round(time.Millisecond))
	}()

	if err := Validate(req); err != nil {
		return domain.Fail(err)
	}
	if r.llm == nil {
		return domain.Fail(&domain.ConfigurationError{Msg: "no LLM provider configured", Err: domain.ErrMissingCredential})
	}
	// Fail fast on missing credentials before touching the store or the network.
	if err := r.llm.Ready(); err != nil {
		logger.Warn("provider not ready", "provider", r.llm.Name(), "err", err)
		return domain.Fail(err)
	}

	oc, err := r.aggregator.Gather(ctx, req.Kind)
	if err != nil {
		logger.Error("context aggregation failed", "err", err)
		return domain.Fail(err)
	}

	prompt := BuildPrompt(req, oc)
	logger.Debug("prompt built",
		"system", logging.Truncate(prompt.System, 300),
		"user", logging.Truncate(prompt.User, 200),
	)

	callStart := time.Now()
	raw, err := r.llm.Complete(ctx, prompt.Request())
	metrics.LLMRequestsTotal.Inc()
	metrics.ObserveLLMLatency(r.llm.Name(), time.Since(callStart))
	if err != nil {
		metrics.ProviderError(r.llm.Name())
		logger.Error("completion failed", "provider", r.llm.Name(), "err", err)
		return domain.Fail(err)
	}
	logger.Debug("completion received", "raw", logging.Truncate(raw, 500))

	n := Normalize(req, oc, raw)
	if n.Degraded {
		metrics.ParseDegraded(string(req.Kind))
		logger.Warn("provider output normalized by fallback", "strategy", n.Strategy)
	}
	return domain.Succeed(n.Result)
}

func outcomeOf(err error) string {
	var (
		callerErr   *domain.CallerError
		cfgErr      *domain.ConfigurationError
		providerErr *domain.ProviderError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &callerErr):
		return "caller_error"
	case errors.As(err, &cfgErr):
		return "config_error"
	case errors.As(err, &providerErr):
		return "provider_error"
	case errors.Is(err, domain.ErrAggregation):
		return "aggregation_error"
	default:
		return "error"
	}
}
