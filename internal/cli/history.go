package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := c.newHistory(ctx)
			defer store.Close()

			recs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				printInfo("No runs recorded")
				return nil
			}

			rows := make([][]string, len(recs))
			for i, r := range recs {
				dir := r.OutputDir
				if dir == "" {
					dir = "-"
				}
				rows[i] = []string{
					r.Started.Local().Format("2006-01-02 15:04"),
					strconv.Itoa(r.Total),
					strconv.Itoa(r.Succeeded),
					strconv.Itoa(r.Failed),
					r.Duration().Round(time.Millisecond).String(),
					dir,
				}
			}
			printTable([]string{"Started", "Tasks", "OK", "Failed", "Took", "Output"}, rows, func(row, col int) bool {
				return col == 3 && recs[row].Failed > 0
			})

			for _, r := range recs {
				for _, f := range r.Failures {
					printDetail("%s %s: %s", r.Started.Local().Format("15:04"), baseName(f.ImagePath), f.Message)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show (0 for all)")
	return cmd
}
