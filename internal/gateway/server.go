// Package gateway exposes the agent router over HTTP and the live tone stream
// over WebSocket.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"huddle/internal/agent"
	"huddle/internal/config"
	"huddle/internal/logging"
	"huddle/internal/metrics"
)

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config wires a Server.
type Config struct {
	Server       config.ServerConfig
	Metrics      config.MetricsConfig
	ToneDebounce time.Duration
	Dispatcher   agent.Dispatcher
	Checks       map[string]HealthCheck
	Version      string
	Logger       *slog.Logger
}

// Server serves the agent endpoints.
type Server struct {
	cfg        Config
	dispatcher agent.Dispatcher
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.ToneDebounce <= 0 {
		cfg.ToneDebounce = 500 * time.Millisecond
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /functions/ask-org-brain", s.handleOrgBrain)
	mux.HandleFunc("POST /functions/auto-reply-composer", s.handleReplySuggestion)
	mux.HandleFunc("POST /functions/tone-impact-meter", s.handleToneAnalysis)
	mux.HandleFunc("POST /functions/meeting-notes-gen", s.handleMeetingNotes)
	mux.HandleFunc("POST /api/agents", s.handleDispatch)
	mux.HandleFunc("GET /ws/tone", s.handleToneStream)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.cfg.Metrics.Enabled {
		endpoint := s.cfg.Metrics.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		mux.Handle("GET "+endpoint, metrics.Collector.Handler())
	}

	// Outermost first: ids, then logging, then panics, then CORS.
	var h http.Handler = mux
	h = s.cors(h)
	h = s.recoverer(h)
	h = s.logRequests(h)
	h = requestID(h)
	return h
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	sc := s.cfg.Server
	s.httpServer = &http.Server{
		Addr:              sc.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(sc.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(sc.WriteTimeoutSeconds) * time.Second, // allow time for LLM response
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("gateway started", "addr", "http://"+sc.Addr(), "metrics", s.cfg.Metrics.Enabled)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop closes the listener immediately.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}
