package main

import (
	"github.com/spf13/cobra"

	"tabinfer/internal/config"
	"tabinfer/internal/infer"
)

func newPreferCommand(cfg *config.Config) *cobra.Command {
	var (
		threshold int64
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "prefer <dataset-id> <column> <type>",
		Short: "Set a preferred type for a column",
		Long: `Store a preferred type for one column. The preference applies whenever the
column's exception count for that type is within --threshold; otherwise the
automated best fit is used and the schema carries a warning. Preferences
survive re-inference and are re-validated against fresh statistics
automatically.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			mgr, err := newManagerFor(cfg, repo)
			if err != nil {
				return err
			}

			setting := infer.PreferredTypeSetting{
				DatasetID: args[0],
				Column:    args[1],
				Kind:      infer.Kind(args[2]),
				Threshold: threshold,
			}
			if err := mgr.SetPreference(cmd.Context(), setting); err != nil {
				return err
			}

			schema, err := mgr.Schema(cmd.Context(), setting.DatasetID)
			if err != nil {
				return err
			}
			return printSchema(cmd, schema, asJSON)
		},
	}

	cmd.Flags().Int64Var(&threshold, "threshold", 0, "Exceptions the preference may carry before it is rejected")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the effective schema as JSON")

	return cmd
}

func newSchemaCommand(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schema <dataset-id>",
		Short: "Show a dataset's effective schema",
		Long: `Reconcile the dataset's stored inference result with its current preferred
types and print the effective per-column schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			mgr, err := newManagerFor(cfg, repo)
			if err != nil {
				return err
			}

			schema, err := mgr.Schema(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printSchema(cmd, schema, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the effective schema as JSON")

	return cmd
}
