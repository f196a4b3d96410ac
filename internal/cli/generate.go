package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/strata/internal/synth"
	"github.com/mesh-intelligence/strata/pkg/types"
)

func (a *app) newGenerateCmd() *cobra.Command {
	opts := synth.DefaultOptions()
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a deterministic synthetic bronze extract",
		Long: "Generate one CSV per bronze entity. The same seed and sizes always\n" +
			"produce identical files. --dirty-ratio injects rows that conformance\n" +
			"drops or repairs.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			if out == "" {
				cfg, err := a.pipelineConfig()
				if err != nil {
					return err
				}
				out = cfg.BronzeDir
			}
			if err := synth.Generate(out, opts); err != nil {
				return err
			}
			a.logger.Info("bronze generated", zap.String("dir", out), zap.Uint64("seed", opts.Seed))
			if a.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"dir":      out,
					"seed":     opts.Seed,
					"entities": types.Entities,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bronze files to %s (seed %d)\n", len(types.Entities), out, opts.Seed)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "", "output directory (default: the configured bronze dir)")
	f.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	f.IntVar(&opts.Customers, "customers", opts.Customers, "number of customers")
	f.IntVar(&opts.Products, "products", opts.Products, "number of products")
	f.IntVar(&opts.Orders, "orders", opts.Orders, "number of orders")
	f.IntVar(&opts.MaxLines, "max-lines", opts.MaxLines, "maximum lines per order")
	f.IntVar(&opts.Movements, "movements", opts.Movements, "number of inventory movements")
	f.IntVar(&opts.Readings, "readings", opts.Readings, "number of sensor readings")
	f.IntVar(&opts.Machines, "machines", opts.Machines, "number of machines")
	f.IntVar(&opts.DowntimeEvents, "downtime-events", opts.DowntimeEvents, "number of downtime events")
	f.Float64Var(&opts.DirtyRatio, "dirty-ratio", opts.DirtyRatio, "share of rows carrying a repairable defect")
	return cmd
}
