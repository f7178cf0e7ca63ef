package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qj0r9j0vc2/mention-bridge/internal/app"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "mention-bridge",
	Short: "Answer Slack app mentions with an LLM completion service",
	Long: `mention-bridge receives Slack app_mention events, screens the text with a
moderation gate, turns the thread into a conversation, asks a completion
service for an answer and posts it back into the thread.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), app.Version)
	},
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML configuration file (env CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd, moderateCmd, patternsCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
