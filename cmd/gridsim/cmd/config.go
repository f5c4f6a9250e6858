package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/gridsim/config"
	"github.com/rustyeddy/gridsim/grid"
	"github.com/rustyeddy/gridsim/strategy"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write, check or print gridsim configuration",
	Long: `Settings are layered: defaults, then the --config file, then GRIDSIM_*
variables from the environment or the --env dotenv file, then flags.

  gridsim config init sim.yaml       write the defaults
  gridsim config validate sim.yaml   load a file and show its grid
  gridsim config show                print the effective settings`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write the default settings to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Load a file and report what it would simulate",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configValidateCmd, configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := "gridsim.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if !configForce {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}
	if err := config.Default().SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	c, err := config.LoadFromFile(args[0])
	if err != nil {
		return err
	}

	// Build a grid at a unit price so step/levels combinations that
	// underflow are caught here rather than at the first tick.
	levels := c.Strategy.Levels
	if levels == 0 {
		levels = strategy.DefaultLevels
	}
	g, err := grid.Build(1, c.Strategy.Step, levels)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok\n", args[0])
	fmt.Fprintf(out, "  account   %.2f base, leverage <= %.2f, fee %.4f%%\n",
		c.Account.InitialBase, c.Account.MaxLeverage, c.Account.FeeRate*100)
	fmt.Fprintf(out, "  grid      %d levels, %.4fx .. %.4fx of the first price\n",
		g.Len(), g.Bottom(), g.Top())
	fmt.Fprintf(out, "  orders    %.4f%% of equity per level\n", c.Strategy.OrderPairSizeRatio*100)
	fmt.Fprintf(out, "  journal   %s\n", c.Journal.Type)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
