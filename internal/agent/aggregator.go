package agent

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"huddle/internal/config"
	"huddle/internal/domain"
	"huddle/internal/logging"
)

// Limits caps one kind's context slice. Zero means unbounded.
type Limits struct {
	Messages  int
	Documents int
}

// Aggregator gathers a fresh organizational snapshot per request. Nothing is cached.
type Aggregator struct {
	store  domain.OrgStore
	limits map[domain.AgentKind]Limits
	logger *slog.Logger
}

func NewAggregator(store domain.OrgStore, cfg config.AgentsConfig, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{
		store: store,
		limits: map[domain.AgentKind]Limits{
			domain.KindOrgBrain:        {Messages: cfg.OrgBrainMessageLimit, Documents: cfg.OrgBrainDocumentLimit},
			domain.KindReplySuggestion: {Messages: cfg.ReplyMessageLimit, Documents: cfg.ReplyDocumentLimit},
		},
		logger: logger,
	}
}

// LimitsFor reports the caps applied to kind.
func (a *Aggregator) LimitsFor(kind domain.AgentKind) Limits {
	return a.limits[kind]
}

// Gather reads public channels, their recent messages and pinned documents for
// kinds grounded in organizational data; other kinds get an empty snapshot.
// Any failed read fails the whole gather.
func (a *Aggregator) Gather(ctx context.Context, kind domain.AgentKind) (domain.OrganizationalContext, error) {
	var oc domain.OrganizationalContext
	if !kind.NeedsContext() {
		return oc, nil
	}
	if a.store == nil {
		return oc, fmt.Errorf("%w: no organizational store configured", domain.ErrAggregation)
	}
	limits := a.limits[kind]

	g, gctx := errgroup.WithContext(ctx)

	// Messages depend on the channel ids; documents are independent.
	g.Go(func() error {
		channels, err := a.store.PublicChannels(gctx)
		if err != nil {
			return fmt.Errorf("%w: channels: %w", domain.ErrAggregation, err)
		}
		ids := make([]string, len(channels))
		for i, c := range channels {
			ids[i] = c.ID
		}
		msgs, err := a.store.RecentMessages(gctx, ids, limits.Messages)
		if err != nil {
			return fmt.Errorf("%w: messages: %w", domain.ErrAggregation, err)
		}
		oc.Channels = channels
		oc.Messages = msgs
		return nil
	})
	g.Go(func() error {
		docs, err := a.store.PinnedDocuments(gctx, limits.Documents)
		if err != nil {
			return fmt.Errorf("%w: documents: %w", domain.ErrAggregation, err)
		}
		oc.Documents = docs
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.OrganizationalContext{}, err
	}

	// Guard against stores that ignore the cap.
	if limits.Messages > 0 && len(oc.Messages) > limits.Messages {
		oc.Messages = oc.Messages[:limits.Messages]
	}
	if limits.Documents > 0 && len(oc.Documents) > limits.Documents {
		oc.Documents = oc.Documents[:limits.Documents]
	}

	a.logger.Debug("context gathered",
		"agent", kind,
		"channels", len(oc.Channels),
		"messages", len(oc.Messages),
		"documents", len(oc.Documents),
	)
	return oc, nil
}
