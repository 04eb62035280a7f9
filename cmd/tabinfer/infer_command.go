package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tabinfer/internal/config"
	"tabinfer/internal/infer"
	"tabinfer/internal/source"
)

func newInferCommand(cfg *config.Config) *cobra.Command {
	var (
		naValues      []string
		maxCategories int
		tolerance     float64
		batchSize     int
		asJSON        bool
		showSamples   bool
	)

	cmd := &cobra.Command{
		Use:   "infer <file.csv>",
		Short: "Scan a CSV file and report the inferred column types",
		Long: `Scan a CSV file in streaming batches, evaluating every column against all
candidate types at once, and report the best fit per column together with
match, exception, and missing counts.

Exceptions never abort the scan; pass --samples to list the recorded
offending cells per column.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()

			var totalBytes int64
			if info, err := f.Stat(); err == nil {
				totalBytes = info.Size()
			}

			if batchSize <= 0 {
				batchSize = cfg.Inference.BatchSize
			}
			src, err := source.NewCSVSource(f, batchSize, totalBytes)
			if err != nil {
				return err
			}

			if tolerance < 0 {
				tolerance = cfg.Inference.Tolerance
			}
			engine, err := infer.NewEngine(infer.Config{
				Workers:            cfg.Workers.PoolSize,
				Tolerance:          tolerance,
				ExceptionSampleCap: cfg.Inference.ExceptionSamples,
			})
			if err != nil {
				return err
			}

			hints := hintsFromFlags(cfg, naValues, maxCategories)
			di, err := engine.Infer(cmd.Context(), src, hints)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, di)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderInference(di))
			if showSamples {
				fmt.Fprint(cmd.OutOrStdout(), renderExceptions(di))
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&naValues, "na", nil, "Values treated as missing (defaults from config)")
	cmd.Flags().IntVar(&maxCategories, "max-categories", 0, "Distinct-value cap for the category type")
	cmd.Flags().Float64Var(&tolerance, "tolerance", -1, "Accepted exception ratio per candidate (0 to 1)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per scan batch")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full inference result as JSON")
	cmd.Flags().BoolVar(&showSamples, "samples", false, "List recorded exception samples per column")

	return cmd
}
