package cli

import (
	"errors"
	"fmt"

	"github.com/Ibeandyson/mini-product-feedback-wall/internal/adapter/postgres"
	"github.com/Ibeandyson/mini-product-feedback-wall/internal/platform/config"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Backend != config.BackendPostgres {
				return errors.New("migrate requires BACKEND=postgres")
			}

			ctx := cmd.Context()
			pool, err := postgres.Connect(ctx, cfg.DatabaseURL, nil)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer pool.Close()

			if !statusOnly {
				if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
					return err
				}
			}

			current, latest, err := postgres.SchemaVersion(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d of %d\n", current, latest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "print the schema version without migrating")
	return cmd
}
