package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tabinfer/internal/config"
	"tabinfer/internal/infer"
	"tabinfer/internal/task"
)

func newManageCommand(cfg *config.Config) *cobra.Command {
	var (
		naValues      []string
		maxCategories int
		column        string
		threshold     int64
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "manage <dataset-id> <rerun|reset|set_threshold>",
		Short: "Apply a management command to a stored dataset",
		Long: `Apply one management command to a dataset in the repository:

  rerun          Re-scan the stored rows. --na and --max-categories replace
                 the stored hints; user preferences are re-validated against
                 the fresh statistics automatically.
  reset          Clear the accumulated inference state. Hints and stored rows
                 are kept.
  set_threshold  Change the exception threshold of a column's preferred type
                 and re-reconcile without rescanning (needs --column).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := task.Request{
				DatasetID: args[0],
				Command:   task.Command(args[1]),
				Column:    column,
				Threshold: threshold,
			}
			if req.Command == task.CommandSetThreshold && column == "" {
				return fmt.Errorf("set_threshold needs --column")
			}
			if req.Command == task.CommandRerun && (len(naValues) > 0 || maxCategories > 0) {
				hints := hintsFromFlags(cfg, naValues, maxCategories)
				req.Hints = &hints
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

			schema, err := mgr.Manage(cmd.Context(), req)
			if err != nil {
				return err
			}
			if schema == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "dataset %s reset\n", req.DatasetID)
				return nil
			}
			return printSchema(cmd, schema, asJSON)
		},
	}

	cmd.Flags().StringSliceVar(&naValues, "na", nil, "Values treated as missing (rerun only)")
	cmd.Flags().IntVar(&maxCategories, "max-categories", 0, "Distinct-value cap for the category type (rerun only)")
	cmd.Flags().StringVar(&column, "column", "", "Column whose preference to update (set_threshold)")
	cmd.Flags().Int64Var(&threshold, "threshold", 0, "New exception threshold (set_threshold)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the effective schema as JSON")

	return cmd
}

func printSchema(cmd *cobra.Command, schema *infer.EffectiveSchema, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd, schema)
	}
	fmt.Fprint(cmd.OutOrStdout(), renderSchema(schema))
	return nil
}
