package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tabinfer/internal/config"
	"tabinfer/internal/infer"
	"tabinfer/internal/store"
	"tabinfer/internal/task"
)

func newRootCommand(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tabinfer",
		Short:         "Streaming column type inference for tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newInferCommand(cfg))
	rootCmd.AddCommand(newIngestCommand(cfg))
	rootCmd.AddCommand(newManageCommand(cfg))
	rootCmd.AddCommand(newPreferCommand(cfg))
	rootCmd.AddCommand(newSchemaCommand(cfg))

	return rootCmd
}

// openStore connects to the dataset repository. Store-backed commands need
// DATABASE_URL; the file-based infer command does not.
func openStore(ctx context.Context, cfg *config.Config) (*store.Postgres, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set; this command needs the dataset repository")
	}
	repo, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureTables(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// newManagerFor builds a task manager over an open repository.
func newManagerFor(cfg *config.Config, repo *store.Postgres) (*task.Manager, error) {
	engine, err := infer.NewEngine(infer.Config{
		Workers:            cfg.Workers.PoolSize,
		Tolerance:          cfg.Inference.Tolerance,
		ExceptionSampleCap: cfg.Inference.ExceptionSamples,
	})
	if err != nil {
		return nil, err
	}
	return task.NewManager(task.WrapStore(repo), engine, task.Config{
		BatchSize:   cfg.Inference.BatchSize,
		CacheRows:   cfg.Inference.CacheRows,
		MaxScans:    cfg.Workers.MaxScans,
		MaxWaitTime: cfg.Workers.MaxWaitTime,
		ScanTimeout: cfg.Workers.ScanTimeout,
	}), nil
}

// hintsFromFlags merges config defaults with per-command overrides.
func hintsFromFlags(cfg *config.Config, naValues []string, maxCategories int) infer.Hints {
	hints := infer.Hints{
		NAValues:      cfg.Inference.NAValues,
		MaxCategories: cfg.Inference.MaxCategories,
	}
	if len(naValues) > 0 {
		hints.NAValues = naValues
	}
	if maxCategories > 0 {
		hints.MaxCategories = maxCategories
	}
	return hints
}
