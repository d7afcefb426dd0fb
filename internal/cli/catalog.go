package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scalebar/pkg/magnification"
)

func (c *CLI) catalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the calibrated magnifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			def := magnification.Default()
			all := magnification.All()
			rows := make([][]string, len(all))
			for i, o := range all {
				rows[i] = []string{
					o.DisplayText(),
					strconv.FormatFloat(o.PixelsPerUnit, 'f', -1, 64),
					fmt.Sprintf("%.2f", o.PixelLength()),
					o.Label(),
					fmt.Sprintf("%.1f", o.BarLength()),
				}
			}
			printTable([]string{"Mag", "px/unit", "px per 100 nm", "Bar", "Bar px"}, rows, func(row, _ int) bool {
				return all[row].Ratio == def.Ratio
			})
			printDetail("Default: %s", def.DisplayText())
			return nil
		},
	}
}
