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
	"github.com/rustyeddy/gridsim/sweep"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a random step/ratio population over a price CSV",
	Long: `Sweep samples a population of grid step and order ratio pairs from a
seeded random source, runs each one on its own account, and reports every
outcome plus the best final wallet. A failing candidate is reported and
does not stop the sweep.

Example:
  gridsim sweep --data data/BTCUSDT-1m-2021.csv --n 50 --seed 1
  gridsim sweep -d prices.csv --n 200 --metric wallet --bins 10`,
	RunE: runSweep,
}

var (
	swData    string
	swN       int
	swSeed    int64
	swStepLo  float64
	swStepHi  float64
	swRatioLo float64
	swRatioHi float64
	swWorkers int
	swBins    int
	swMetric  string
)

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&swData, "data", "d", "", "price CSV (defaults to data.path from config)")
	sweepCmd.Flags().IntVarP(&swN, "n", "n", 50, "population size")
	sweepCmd.Flags().Int64Var(&swSeed, "seed", 1, "random seed")
	sweepCmd.Flags().Float64Var(&swStepLo, "step-lo", 0.0035, "lowest step sampled")
	sweepCmd.Flags().Float64Var(&swStepHi, "step-hi", 0.01, "step upper bound (exclusive)")
	sweepCmd.Flags().Float64Var(&swRatioLo, "ratio-lo", 0.001, "lowest ratio sampled")
	sweepCmd.Flags().Float64Var(&swRatioHi, "ratio-hi", 0.1, "ratio upper bound (exclusive)")
	sweepCmd.Flags().IntVarP(&swWorkers, "workers", "w", 0, "parallel runs (0 = one per CPU)")
	sweepCmd.Flags().IntVar(&swBins, "bins", 10, "histogram bins per axis (0 disables)")
	sweepCmd.Flags().StringVar(&swMetric, "metric", "wallet", "histogram metric: count, wallet, borrow or trades")
	bindJournalFlags(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = swData
	}
	if flags.Changed("n") {
		cfg.Sweep.N = swN
	}
	if flags.Changed("seed") {
		cfg.Sweep.Seed = swSeed
	}
	if flags.Changed("step-lo") {
		cfg.Sweep.StepLo = swStepLo
	}
	if flags.Changed("step-hi") {
		cfg.Sweep.StepHi = swStepHi
	}
	if flags.Changed("ratio-lo") {
		cfg.Sweep.RatioLo = swRatioLo
	}
	if flags.Changed("ratio-hi") {
		cfg.Sweep.RatioHi = swRatioHi
	}
	if flags.Changed("workers") {
		cfg.Sweep.Workers = swWorkers
	}
	applyJournalFlags(cmd, &cfg.Journal)

	if cfg.Data.Path == "" {
		return fmt.Errorf("no price data: pass --data or set data.path")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	metric, err := sweep.ParseMetric(swMetric)
	if err != nil {
		return err
	}

	feed, err := backtest.OpenCSVCloseFeed(cfg.Data.Path, cfg.Data.Column)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	prices, err := backtest.ReadPrices(feed)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}

	bounds := sweep.Bounds{
		StepLo:  cfg.Sweep.StepLo,
		StepHi:  cfg.Sweep.StepHi,
		RatioLo: cfg.Sweep.RatioLo,
		RatioHi: cfg.Sweep.RatioHi,
	}
	cands, err := sweep.Population(sweep.NewRand(cfg.Sweep.Seed), cfg.Sweep.N, bounds)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sw := &sweep.Sweep{
		Base:        paramsFromConfig(),
		Dataset:     filepath.Base(cfg.Data.Path),
		Workers:     cfg.Sweep.Workers,
		Logger:      logger,
		Journal:     j,
		RecordTicks: cfg.Journal.RecordTicks,
	}
	rep, err := sw.Run(ctx, prices, cands)
	if rep == nil {
		return err
	}

	out := cmd.OutOrStdout()
	journal.PrintSweep(out, rep.Records())
	fmt.Fprintln(out)

	if swBins > 0 {
		if h, herr := sweep.Histogram2D(rep.Outcomes, swBins, metric); herr == nil {
			h.Print(out)
			fmt.Fprintln(out)
		}
	}

	best, ok := rep.BestOutcome()
	if !ok {
		fmt.Fprintln(out, "no candidate finished successfully")
		return err
	}
	fmt.Fprintf(out, "Best candidate #%d\n", best.Index)
	journal.PrintRun(out, best.Result.Record())
	if best.Result.Trader != nil {
		fmt.Fprintln(out, best.Result.Trader)
	}
	return err
}
