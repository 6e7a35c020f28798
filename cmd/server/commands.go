package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tripwise/tripwise/internal/config"
	"github.com/tripwise/tripwise/internal/storage"
)

func newMigrateCmd(loadConfig func() (*config.Config, error), log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := storage.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			applied, err := storage.RunMigrations(cmd.Context(), pool, cfg.MigrationsDir)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			log.Info("migrations applied", "files", applied)
			return nil
		},
	}
}

// newCheckPricesCmd runs one price check outside the scheduler.
// Queued alerts are delivered by the next mail flush of a running server.
func newCheckPricesCmd(loadConfig func() (*config.Config, error), log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "check-prices",
		Short: "Run a single price check over all watched trips",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := storage.Connect(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			repo := storage.NewRepository(pool)
			_, searcher := newProvider(cfg)

			summary, err := newMonitor(cfg, repo, searcher, log).Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("price check: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "trips=%d checked=%d invalid=%d failed=%d notified=%d\n",
				summary.Trips, summary.Checked, summary.Invalid, summary.Failed, summary.Notified)
			return err
		},
	}
}
