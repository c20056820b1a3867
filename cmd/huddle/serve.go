package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"huddle/internal/agent"
	"huddle/internal/config"
	"huddle/internal/domain"
	"huddle/internal/gateway"
	"huddle/internal/provider"
	"huddle/internal/store"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the agent gateway (HTTP + WebSocket)",
		Long:  "Serves the agent endpoints and the live tone stream. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

// buildRouter opens the store and wires the provider chain into a router.
// A provider that cannot be built does not stop startup: every request then
// fails with the configuration error until the config is fixed.
func buildRouter(cfg *config.Config) (*agent.Router, *store.SQLiteStore, domain.LLMClient, error) {
	st, err := store.NewSQLiteStore(cfg.Store.DBPath, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("store: %w", err)
	}

	client, err := provider.NewFactory(cfg, logger).Client()
	if err != nil {
		logger.Warn("no usable LLM provider", "err", err)
		client = provider.Unavailable(cfg.General.DefaultProvider, err)
	} else if err := client.Ready(); err != nil {
		logger.Warn("provider not ready", "provider", client.Name(), "err", err)
	}

	router := agent.NewRouter(agent.RouterConfig{
		LLM:    client,
		Store:  st,
		Agents: cfg.Agents,
		Logger: logger,
	})
	return router, st, client, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, closeLog, err := loadRuntime()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, st, client, err := buildRouter(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := gateway.New(gateway.Config{
		Server:       cfg.Server,
		Metrics:      cfg.Metrics,
		ToneDebounce: cfg.Agents.ToneDebounce(),
		Dispatcher:   router,
		Checks: map[string]gateway.HealthCheck{
			"store": st.Ping,
			"provider": func(context.Context) error {
				return client.Ready()
			},
		},
		Version: version,
		Logger:  logger,
	})

	logger.Info("huddle started. Press Ctrl+C to stop.", "addr", cfg.Server.Addr(), "provider", client.Name())
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
