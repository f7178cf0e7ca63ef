package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qj0r9j0vc2/mention-bridge/internal/app"
	"github.com/qj0r9j0vc2/mention-bridge/internal/infrastructure/config"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage the moderation patterns stored in SQLite or MySQL",
	Long: `Manage the moderation word list held in the database selected by
moderation.source (sqlite or mysql). Each pattern is a case-insensitive
regular expression.

Available subcommands:
  list   - Print every stored pattern
  add    - Store a new pattern
  remove - Delete a stored pattern`,
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every stored pattern",
	Args:  cobra.NoArgs,
	RunE:  runPatternsList,
}

var patternsAddCmd = &cobra.Command{
	Use:   "add <pattern>",
	Short: "Store a new pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsAdd,
}

var patternsRemoveCmd = &cobra.Command{
	Use:   "remove <pattern>",
	Short: "Delete a stored pattern",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatternsRemove,
}

func init() {
	patternsCmd.AddCommand(patternsListCmd, patternsAddCmd, patternsRemoveCmd)
}

// openStore opens the pattern database named by the configuration.
func openStore(cmd *cobra.Command) (*app.PatternStore, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}

	store, err := app.OpenPatternStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("moderation.source must be sqlite or mysql to manage patterns")
	}
	return store, nil
}

func runPatternsList(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Closer.Close()

	patterns, err := store.Repo.ListPatterns(cmd.Context())
	if err != nil {
		return err
	}
	for _, p := range patterns {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}

func runPatternsAdd(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Closer.Close()

	if err := store.Repo.AddPattern(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("adding pattern: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", args[0])
	return nil
}

func runPatternsRemove(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Closer.Close()

	if err := store.Repo.RemovePattern(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("removing pattern: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", args[0])
	return nil
}
