package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsim/grid"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the grid levels around a price",
	Long: `Grid prints the geometric ladder of levels built around an anchor
price, one level per line, lowest first. The anchor is marked with '*'.

Example:
  gridsim grid --price 100 --step 0.02 --levels 5`,
	Args: cobra.NoArgs,
	RunE: runGrid,
}

var (
	gridPrice  float64
	gridStep   float64
	gridLevels int
)

func init() {
	rootCmd.AddCommand(gridCmd)

	gridCmd.Flags().Float64VarP(&gridPrice, "price", "p", 0, "anchor price (required)")
	gridCmd.Flags().Float64VarP(&gridStep, "step", "s", 0.02, "grid step ratio")
	gridCmd.Flags().IntVarP(&gridLevels, "levels", "l", 5, "levels on each side")
	gridCmd.MarkFlagRequired("price")
}

func runGrid(cmd *cobra.Command, args []string) error {
	g, err := grid.Build(gridPrice, gridStep, gridLevels)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, lv := range g.Levels() {
		mark := " "
		if i == g.AnchorIndex() {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %4d  %.6f\n", mark, i-g.AnchorIndex(), lv)
	}
	return nil
}
