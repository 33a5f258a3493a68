// Package main is the entry point for the stock ledger API server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockledger/internal/config"
	"stockledger/pkg/logger"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "stockledger",
		Short:        "Warehouse stock ledger service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger.
func bootstrap() (config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return cfg, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, log, nil
}
