package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/internal/pipeline"
)

func (a *app) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Re-run the validation gate over the persisted silver and gold layers",
		Long: "Reload silver and gold from the data directory and evaluate every\n" +
			"validation rule. Nothing is written. Exit status is 1 when a rule fails.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.pipelineConfig()
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(cfg, nil, a.logger)
			report, err := runner.Revalidate(cmd.Context())
			if err != nil {
				return fmt.Errorf("revalidate: %w", err)
			}
			if a.flags.jsonMode {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), report.Summary())
			}
			return report.Err()
		},
	}
}
