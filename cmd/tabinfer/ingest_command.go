package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tabinfer/internal/config"
	"tabinfer/internal/source"
)

func newIngestCommand(cfg *config.Config) *cobra.Command {
	var (
		naValues      []string
		maxCategories int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <dataset-id> <file.csv>",
		Short: "Load a CSV into the repository and infer its schema",
		Long: `Stream a CSV file into the dataset repository, inferring column types as
the rows load. The schema document is updated after every batch, so the
dataset is inspectable while the load is still running, and the stored rows
can be re-scanned later with different hints via "manage rerun".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasetID := args[0]

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()

			var totalBytes int64
			if info, err := f.Stat(); err == nil {
				totalBytes = info.Size()
			}
			src, err := source.NewCSVSource(f, cfg.Inference.BatchSize, totalBytes)
			if err != nil {
				return err
			}

			repo, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			mgr, err := newManagerFor(cfg, repo)
			if err != nil {
				return err
			}

			hints := hintsFromFlags(cfg, naValues, maxCategories)
			di, err := mgr.Ingest(cmd.Context(), datasetID, src, hints)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, di)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderInference(di))
			if di.Meta.Partial {
				fmt.Fprintln(cmd.OutOrStdout(), "scan interrupted: stored result is partial")
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&naValues, "na", nil, "Values treated as missing (defaults from config)")
	cmd.Flags().IntVar(&maxCategories, "max-categories", 0, "Distinct-value cap for the category type")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full inference result as JSON")

	return cmd
}
