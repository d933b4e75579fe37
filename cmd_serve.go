package main

import (
	"context"
	"fmt"

	"triage_server/internal/bootstrap"
	"triage_server/pkg/logger"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAPI(cmd.Context())
	},
}

func runAPI(ctx context.Context) error {
	app, err := bootstrap.NewAPI(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}

	// Graceful shutdown with timeout
	go func() {
		<-ctx.Done()

		logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.WithError(err).Error("API server forced to shutdown")
			return
		}
		logger.Info("API server shutdown completed")
	}()

	addr := ":" + cfg.Port
	logger.Info("Starting API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("API server error: %w", err)
	}
	return nil
}
