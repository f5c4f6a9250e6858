package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/gridsim/grid"
)

// Config represents the complete simulator configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Sweep    SweepConfig    `json:"sweep" yaml:"sweep"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// AccountConfig contains margin account parameters
type AccountConfig struct {
	InitialBase float64 `json:"initial_base" yaml:"initial_base"`
	MaxLeverage float64 `json:"max_leverage" yaml:"max_leverage"`
	FeeRate     float64 `json:"fee_rate,omitempty" yaml:"fee_rate,omitempty"`
}

// StrategyConfig contains grid parameters
type StrategyConfig struct {
	Step               float64 `json:"step" yaml:"step"`
	OrderPairSizeRatio float64 `json:"order_pair_size_ratio" yaml:"order_pair_size_ratio"`
	Levels             int     `json:"levels" yaml:"levels"`
}

// SweepConfig bounds the random parameter population
type SweepConfig struct {
	N       int     `json:"n" yaml:"n"`
	Seed    int64   `json:"seed" yaml:"seed"`
	StepLo  float64 `json:"step_lo" yaml:"step_lo"`
	StepHi  float64 `json:"step_hi" yaml:"step_hi"`
	RatioLo float64 `json:"ratio_lo" yaml:"ratio_lo"`
	RatioHi float64 `json:"ratio_hi" yaml:"ratio_hi"`
	Workers int     `json:"workers" yaml:"workers"`
}

// DataConfig points at a kline CSV
type DataConfig struct {
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	Column int    `json:"column" yaml:"column"` // zero-based close column
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Dir         string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RecordTicks bool   `json:"record_ticks" yaml:"record_ticks"`
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

type ServerConfig struct {
	Addr        string   `json:"addr" yaml:"addr"`
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML for .yaml/.yml, JSON otherwise)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.InitialBase <= 0 {
		return fmt.Errorf("account.initial_base must be positive")
	}
	if c.Account.MaxLeverage < 0 {
		return fmt.Errorf("account.max_leverage must not be negative")
	}
	if c.Account.FeeRate < 0 || c.Account.FeeRate >= 1 {
		return fmt.Errorf("account.fee_rate must be in [0,1)")
	}
	if c.Strategy.Step <= 0 {
		return fmt.Errorf("strategy.step must be positive")
	}
	if c.Strategy.OrderPairSizeRatio <= 0 || c.Strategy.OrderPairSizeRatio > 1 {
		return fmt.Errorf("strategy.order_pair_size_ratio must be in (0,1]")
	}
	if c.Strategy.Levels < 0 || c.Strategy.Levels > grid.MaxLevels {
		return fmt.Errorf("strategy.levels must be in [0, %d]", grid.MaxLevels)
	}
	if c.Sweep.N < 0 {
		return fmt.Errorf("sweep.n must not be negative")
	}
	if c.Sweep.StepLo <= 0 || c.Sweep.StepHi <= c.Sweep.StepLo {
		return fmt.Errorf("sweep step range must satisfy 0 < step_lo < step_hi")
	}
	if c.Sweep.RatioLo <= 0 || c.Sweep.RatioHi <= c.Sweep.RatioLo || c.Sweep.RatioHi > 1 {
		return fmt.Errorf("sweep ratio range must satisfy 0 < ratio_lo < ratio_hi <= 1")
	}
	if c.Data.Column < 0 {
		return fmt.Errorf("data.column must not be negative")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialBase: 1000,
			MaxLeverage: 3,
		},
		Strategy: StrategyConfig{
			Step:               0.02,
			OrderPairSizeRatio: 0.01,
			Levels:             100,
		},
		Sweep: SweepConfig{
			N:       50,
			Seed:    1,
			StepLo:  0.0035,
			StepHi:  0.01,
			RatioLo: 0.001,
			RatioHi: 0.1,
		},
		Data: DataConfig{
			Column: 4,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// ApplyEnv loads the given .env files (".env" when none are named) into the
// process environment and overrides fields from GRIDSIM_* variables. Missing
// files are ignored.
func (c *Config) ApplyEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	floats := map[string]*float64{
		"GRIDSIM_INITIAL_BASE":  &c.Account.InitialBase,
		"GRIDSIM_MAX_LEVERAGE":  &c.Account.MaxLeverage,
		"GRIDSIM_FEE_RATE":      &c.Account.FeeRate,
		"GRIDSIM_STEP":          &c.Strategy.Step,
		"GRIDSIM_RATIO":         &c.Strategy.OrderPairSizeRatio,
		"GRIDSIM_SWEEP_STEP_LO": &c.Sweep.StepLo,
		"GRIDSIM_SWEEP_STEP_HI": &c.Sweep.StepHi,
	}
	for key, dst := range floats {
		if v, ok := os.LookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"GRIDSIM_LEVELS":        &c.Strategy.Levels,
		"GRIDSIM_SWEEP_N":       &c.Sweep.N,
		"GRIDSIM_SWEEP_WORKERS": &c.Sweep.Workers,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok {
			i, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = i
		}
	}

	if v, ok := os.LookupEnv("GRIDSIM_SWEEP_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GRIDSIM_SWEEP_SEED: %w", err)
		}
		c.Sweep.Seed = seed
	}

	strs := map[string]*string{
		"GRIDSIM_DATA":        &c.Data.Path,
		"GRIDSIM_JOURNAL":     &c.Journal.Type,
		"GRIDSIM_JOURNAL_DIR": &c.Journal.Dir,
		"GRIDSIM_JOURNAL_DB":  &c.Journal.DBPath,
		"GRIDSIM_LOG_LEVEL":   &c.Log.Level,
		"GRIDSIM_SERVER_ADDR": &c.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	return nil
}
