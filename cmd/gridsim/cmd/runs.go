package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsim/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query journaled runs",
	Long: `Query and display runs recorded in a SQLite journal.

Subcommands:
  list  - List every run, best final wallet first
  show  - Show one run with its fills

Examples:
  gridsim runs list --db runs.sqlite
  gridsim runs show 01HV6R1Z8K7Y4B5C9D0E2F3G4H --org run.org`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journaled runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run and its fills",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var (
	runsDBPath string
	runsOrg    string
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVar(&runsDBPath, "db", "./gridsim.sqlite", "path to SQLite journal DB")
	runsShowCmd.Flags().StringVar(&runsOrg, "org", "", "write the run as Org-mode to this path")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}
	journal.PrintSweep(cmd.OutOrStdout(), runs)
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	ctx := context.Background()
	run, err := j.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	fills, err := j.ListFills(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("list fills: %w", err)
	}

	out := cmd.OutOrStdout()
	journal.PrintRun(out, run)
	if len(fills) > 0 {
		fmt.Fprintln(out, "Fills")
		fmt.Fprintln(out, "--------------------------------------------------")
		for _, f := range fills {
			fmt.Fprintf(out, "%5d  tick %-8d %-4s %12.6f  qty %.8f  amount %.4f\n",
				f.Seq, f.Tick, f.Side, f.Price, f.Qty, f.Amount)
		}
	}

	if runsOrg != "" {
		if err := journal.WriteRunOrg(runsOrg, run); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
	}
	return nil
}
