package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/gridsim/backtest"
	"github.com/rustyeddy/gridsim/journal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one grid simulation over a price CSV",
	Long: `Run replays a kline CSV through a long/short grid trader on a margin
account and prints the result.

Each tick the account is valued at the tick's price before the trader acts,
so the wallet timeline shows equity ahead of that tick's own orders.
Data files ending in .gz, .xz or .lzma are decompressed while reading.

Example:
  gridsim run --data data/BTCUSDT-1m-2021.csv --step 0.02 --ratio 0.01
  gridsim run -c sim.yaml --journal sqlite --db runs.sqlite --org run.org`,
	RunE: runRun,
}

var (
	runData        string
	runColumn      int
	runBase        float64
	runStep        float64
	runRatio       float64
	runLevels      int
	runMaxLeverage float64
	runFee         float64
	runOrg         string
	runTimelines   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runData, "data", "d", "", "price CSV (defaults to data.path from config)")
	runCmd.Flags().IntVar(&runColumn, "column", backtest.DefaultCloseColumn, "zero-based price column")
	runCmd.Flags().Float64Var(&runBase, "base", 1000, "initial base currency")
	runCmd.Flags().Float64VarP(&runStep, "step", "s", 0.02, "grid step ratio (0.02 = 2%)")
	runCmd.Flags().Float64VarP(&runRatio, "ratio", "r", 0.01, "order size as a fraction of equity")
	runCmd.Flags().IntVar(&runLevels, "levels", 100, "grid levels on each side")
	runCmd.Flags().Float64Var(&runMaxLeverage, "max-leverage", 3, "leverage ceiling")
	runCmd.Flags().Float64Var(&runFee, "fee", 0, "fee rate per fill")
	runCmd.Flags().StringVar(&runOrg, "org", "", "also write an Org-mode summary to this path")
	runCmd.Flags().BoolVar(&runTimelines, "timelines", false, "print price/wallet/borrowed per tick")
	bindJournalFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = runData
	}
	if flags.Changed("column") {
		cfg.Data.Column = runColumn
	}
	if flags.Changed("base") {
		cfg.Account.InitialBase = runBase
	}
	if flags.Changed("step") {
		cfg.Strategy.Step = runStep
	}
	if flags.Changed("ratio") {
		cfg.Strategy.OrderPairSizeRatio = runRatio
	}
	if flags.Changed("levels") {
		cfg.Strategy.Levels = runLevels
	}
	if flags.Changed("max-leverage") {
		cfg.Account.MaxLeverage = runMaxLeverage
	}
	if flags.Changed("fee") {
		cfg.Account.FeeRate = runFee
	}
	applyJournalFlags(cmd, &cfg.Journal)

	if cfg.Data.Path == "" {
		return fmt.Errorf("no price data: pass --data or set data.path")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	feed, err := backtest.OpenCSVCloseFeed(cfg.Data.Path, cfg.Data.Column)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := &backtest.Runner{
		Params:      paramsFromConfig(),
		Dataset:     filepath.Base(cfg.Data.Path),
		Logger:      logger,
		Journal:     j,
		RecordTicks: cfg.Journal.RecordTicks,
	}
	res, runErr := r.Run(ctx, feed)
	if res == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	if runTimelines {
		fmt.Fprintf(out, "%-8s %14s %14s %14s\n", "tick", "price", "wallet", "borrowed")
		for i := range res.Prices {
			fmt.Fprintf(out, "%-8d %14.6f %14.4f %14.4f\n", i, res.Prices[i], res.Wallet[i], res.Borrowed[i])
		}
		fmt.Fprintln(out)
	}

	rec := res.Record()
	journal.PrintRun(out, rec)
	if res.Trader != nil {
		fmt.Fprintln(out, res.Trader)
	}

	if runOrg != "" {
		if err := journal.WriteRunOrg(runOrg, rec); err != nil {
			return fmt.Errorf("write org: %w", err)
		}
		fmt.Fprintf(out, "Org Report:    %s\n", runOrg)
	}
	return runErr
}

func paramsFromConfig() backtest.Params {
	return backtest.Params{
		InitialBase:        cfg.Account.InitialBase,
		Step:               cfg.Strategy.Step,
		OrderPairSizeRatio: cfg.Strategy.OrderPairSizeRatio,
		MaxLeverage:        cfg.Account.MaxLeverage,
		FeeRate:            cfg.Account.FeeRate,
		Levels:             cfg.Strategy.Levels,
	}
}
