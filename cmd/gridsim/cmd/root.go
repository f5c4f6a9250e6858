package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/gridsim/config"
	"github.com/rustyeddy/gridsim/journal"
	"github.com/rustyeddy/gridsim/logging"
)

var rootCmd = &cobra.Command{
	Use:   "gridsim",
	Short: "A margin grid-trading simulator",
	Long: `Gridsim replays a price series against a long/short grid trader that
trades on a leveraged margin account.

It provides tools for:
  - Running a single simulation over a kline CSV
  - Sweeping random step/ratio populations and ranking them
  - Inspecting grids and journaled runs
  - Serving simulations over HTTP

Complete documentation is available at https://github.com/rustyeddy/gridsim`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	cfgPath  string
	envFile  string
	logLevel string
	logDev   bool

	cfg    *config.Config
	logger *zap.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with GRIDSIM_* overrides")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logDev, "log-dev", false, "human-readable development logging")
}

// setup loads config (file, then .env/environment, then flags) and builds
// the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgPath != "" {
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logDev {
		cfg.Log.Development = true
	}

	logger, err = logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return err
	}
	return nil
}

// openJournal opens the journal named by the config. The caller closes it.
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(jc.Dir)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	}
	return nil, fmt.Errorf("unknown journal type %q", jc.Type)
}

// bindJournalFlags registers the journal flags shared by run and sweep.
func bindJournalFlags(c *cobra.Command) {
	c.Flags().StringP("journal", "j", "", "journal type: none, csv or sqlite")
	c.Flags().String("journal-dir", "", "csv journal directory")
	c.Flags().String("db", "", "sqlite journal path")
	c.Flags().Bool("record-ticks", false, "journal every tick, not just runs and fills")
}

func applyJournalFlags(c *cobra.Command, jc *config.JournalConfig) {
	if c.Flags().Changed("journal") {
		jc.Type, _ = c.Flags().GetString("journal")
	}
	if c.Flags().Changed("journal-dir") {
		jc.Dir, _ = c.Flags().GetString("journal-dir")
	}
	if c.Flags().Changed("db") {
		jc.DBPath, _ = c.Flags().GetString("db")
	}
	if c.Flags().Changed("record-ticks") {
		jc.RecordTicks, _ = c.Flags().GetBool("record-ticks")
	}
}
