package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/strata/pkg/sqlite"
)

func (a *app) newTablesCmd() *cobra.Command {
	var runs bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the tables published in the catalog",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.pipelineConfig()
			if err != nil {
				return err
			}
			catalog, err := sqlite.Open(cfg, a.logger)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer catalog.Detach()

			out := cmd.OutOrStdout()
			if runs {
				history, err := catalog.Runs(cmd.Context())
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return writeJSON(out, history)
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RUN\tPUBLISHED\tTABLES\tROWS")
				for _, r := range history {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.RunID, r.PublishedAt, r.Tables, r.Rows)
				}
				return tw.Flush()
			}

			tables, err := catalog.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return writeJSON(out, tables)
			}
			if len(tables) == 0 {
				fmt.Fprintln(out, "no tables published")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TABLE\tROWS\tRUN\tCOLUMNS")
			for _, t := range tables {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t.Name, t.Rows, t.RunID, strings.Join(t.Columns, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&runs, "runs", false, "list the publish history instead")
	return cmd
}
