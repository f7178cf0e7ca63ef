package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qj0r9j0vc2/mention-bridge/internal/app"
	"github.com/qj0r9j0vc2/mention-bridge/internal/domain/repository"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
)

var moderateCmd = &cobra.Command{
	Use:   "moderate <text>",
	Short: "Check text against the configured moderation gate",
	Long: `Runs the moderation gate selected by moderation.source against the given
text and prints "allowed" or "rejected". Exits non-zero when the gate cannot
reach its word list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runModerate,
}

func runModerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Read(configPath)
	if err != nil {
		return err
	}

	var repo repository.PatternRepository
	store, err := app.OpenPatternStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Closer.Close()
		repo = store.Repo
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	moderator, err := app.NewModerator(cfg, repo, logger)
	if err != nil {
		return err
	}

	disallowed, err := moderator.IsDisallowed(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("moderation check failed: %w", err)
	}

	if disallowed {
		fmt.Fprintln(cmd.OutOrStdout(), "rejected")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "allowed")
	}
	return nil
}
