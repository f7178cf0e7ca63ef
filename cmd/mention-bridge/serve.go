package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qj0r9j0vc2/mention-bridge/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, err := app.New(configPath)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Start(ctx)
	if err := application.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
