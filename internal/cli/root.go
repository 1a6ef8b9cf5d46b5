// Package cli implements the feedbackwall command line: the HTTP server, the
// migration runner and a few commands for poking at a running wall.
package cli

import (
	"context"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/config"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "feedbackwall",
		Short:         "Mini product feedback wall",
		Long:          "Submit feedback, vote on it and watch the ranking update live.\nConfiguration is read from the environment and an optional .env file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newWatchCommand(),
		newVoteCommand(),
		newSubmitCommand(),
		newVersionCommand(),
	)

	return root
}

// Execute runs the root command with args taken from os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig reads configuration and installs the global logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}
