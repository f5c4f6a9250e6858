package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the gridsim CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "gridsim version %s\n", version)
		fmt.Fprintln(out, "A margin grid-trading simulator")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
