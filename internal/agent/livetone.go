package agent

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"huddle/internal/debounce"
	"huddle/internal/domain"
	"huddle/internal/logging"
	"huddle/internal/metrics"
)

// Dispatcher runs one agent request. *Router implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req domain.AgentRequest) domain.Envelope
}

// ToneUpdate is a tone result for one draft, delivered only while it is still current.
type ToneUpdate struct {
	Draft    string               `json:"draft"`
	Seq      uint64               `json:"seq"`
	Text     string               `json:"text"`
	Analysis *domain.ToneAnalysis `json:"analysis,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// LiveTone analyzes drafts while they are typed. Each draft key is debounced
// independently; superseded calls keep running but their results are dropped
// unless they still match the draft's current text.
type LiveTone struct {
	ctx        context.Context
	dispatcher Dispatcher
	debouncer  *debounce.Debouncer
	emit       func(ToneUpdate)
	logger     *slog.Logger

	mu       sync.Mutex
	guards   map[string]*debounce.Guard
	inflight sync.WaitGroup
}

// NewLiveTone creates a session. ctx bounds every call made by the session,
// emit receives accepted results and must be safe for concurrent use.
func NewLiveTone(ctx context.Context, d Dispatcher, quiet time.Duration, emit func(ToneUpdate), logger *slog.Logger) *LiveTone {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LiveTone{
		ctx:        ctx,
		dispatcher: d,
		debouncer:  debounce.New(quiet),
		emit:       emit,
		logger:     logger,
		guards:     make(map[string]*debounce.Guard),
	}
}

func (l *LiveTone) guard(draft string) *debounce.Guard {
	l.mu.Lock()
	defer l.mu.Unlock()
	g, ok := l.guards[draft]
	if !ok {
		g = &debounce.Guard{}
		l.guards[draft] = g
	}
	return g
}

// Update records new text for draft and restarts its quiet interval.
// Blank text cancels any pending analysis.
func (l *LiveTone) Update(draft, text string) {
	g := l.guard(draft)
	g.SetText(text)
	if strings.TrimSpace(text) == "" {
		l.debouncer.Cancel(draft)
		return
	}
	l.debouncer.Schedule(draft, func() { l.analyze(draft, text, g) })
}

func (l *LiveTone) analyze(draft, text string, g *debounce.Guard) {
	ticket := g.Issue(text)
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		env := l.dispatcher.Dispatch(l.ctx, domain.AgentRequest{Kind: domain.KindToneAnalysis, Query: text})

		update := ToneUpdate{Draft: draft, Seq: ticket.Seq, Text: text}
		if env.Success {
			if res, ok := env.Data.(domain.ToneAnalysis); ok {
				update.Analysis = &res
			}
		} else {
			update.Error = env.Error
		}

		if !g.Apply(ticket, func() { l.emit(update) }) {
			metrics.StaleToneResults.Inc()
			l.logger.Debug("stale tone result dropped", "draft", draft, "seq", ticket.Seq)
		}
	}()
}

// Close cancels pending analyses and waits for in-flight calls to finish.
func (l *LiveTone) Close() {
	l.debouncer.Stop()
	l.inflight.Wait()
}
