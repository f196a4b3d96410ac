package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/internal/pipeline"
	"github.com/mesh-intelligence/strata/pkg/sqlite"
	"github.com/mesh-intelligence/strata/pkg/types"
)

// runSummary is the --json output of run.
type runSummary struct {
	RunID      string            `json:"run_id"`
	Status     string            `json:"status"`
	Published  []string          `json:"published"`
	Warnings   []string          `json:"warnings"`
	Violations []types.Violation `json:"violations,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMS int64             `json:"duration_ms"`
}

func (a *app) newRunCmd() *cobra.Command {
	var workers int
	var metricsFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline from bronze to the catalog",
		Long: "Conform the bronze extract into silver, build gold, validate and publish.\n" +
			"Gold and the catalog are replaced only when validation passes.\n" +
			"Exit status is 1 for data errors and 2 for system errors.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.pipelineConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if metricsFile != "" {
				cfg.MetricsFile = metricsFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			catalog, err := sqlite.Open(cfg, a.logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer catalog.Detach()

			runner := pipeline.NewRunner(cfg, catalog, a.logger)
			result, runErr := runner.Run(cmd.Context())
			if result == nil {
				return runErr
			}
			if err := a.printRun(cmd.OutOrStdout(), result, runErr); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent pipeline nodes (0: unbounded)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file")
	return cmd
}

func (a *app) printRun(w io.Writer, res *pipeline.RunResult, runErr error) error {
	if a.flags.jsonMode {
		s := runSummary{
			RunID:      res.RunID,
			Status:     "succeeded",
			Published:  res.Published,
			Warnings:   res.Warnings(),
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Report != nil {
			s.Violations = res.Report.Violations
		}
		if runErr != nil {
			s.Status = "failed"
			s.Error = runErr.Error()
		}
		return writeJSON(w, s)
	}

	for _, warning := range res.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	if res.Report != nil {
		fmt.Fprint(w, res.Report.Summary())
	}
	if runErr != nil {
		var verr *types.ValidationError
		if !errors.As(runErr, &verr) {
			fmt.Fprintf(w, "run %s failed: %v\n", res.RunID, runErr)
		} else {
			fmt.Fprintf(w, "run %s failed validation; gold and catalog unchanged\n", res.RunID)
		}
		return nil
	}
	fmt.Fprintf(w, "run %s published %d table(s) in %s\n", res.RunID, len(res.Published), res.Duration.Round(time.Millisecond))
	return nil
}
