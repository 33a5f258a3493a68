package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockledger/internal/infrastructure/storage/migrations"
)

func newMigrateCmd() *cobra.Command {
	var (
		down    int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Applies all pending migrations. With --down N, rolls back the last N migrations instead.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if down > 0 {
				if err := migrations.Down(cfg.DatabaseURL, log.Desugar(), down); err != nil {
					return fmt.Errorf("rollback migrations: %w", err)
				}
				return nil
			}

			if err := migrations.Up(cfg.DatabaseURL, log.Desugar(), verbose); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "number of migrations to roll back")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every migration step")
	return cmd
}
