package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, 1000.0, cfg.Account.InitialBase)
	assert.Equal(t, 3.0, cfg.Account.MaxLeverage)
	assert.Equal(t, 0.02, cfg.Strategy.Step)
	assert.Equal(t, 100, cfg.Strategy.Levels)
	assert.Equal(t, 4, cfg.Data.Column)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "zero initial base",
			mutate:  func(c *Config) { c.Account.InitialBase = 0 },
			wantErr: true,
			errMsg:  "account.initial_base must be positive",
		},
		{
			name:    "negative leverage",
			mutate:  func(c *Config) { c.Account.MaxLeverage = -1 },
			wantErr: true,
			errMsg:  "account.max_leverage",
		},
		{
			name:    "fee rate of one",
			mutate:  func(c *Config) { c.Account.FeeRate = 1 },
			wantErr: true,
			errMsg:  "account.fee_rate",
		},
		{
			name:    "zero step",
			mutate:  func(c *Config) { c.Strategy.Step = 0 },
			wantErr: true,
			errMsg:  "strategy.step must be positive",
		},
		{
			name:    "ratio above one",
			mutate:  func(c *Config) { c.Strategy.OrderPairSizeRatio = 1.5 },
			wantErr: true,
			errMsg:  "strategy.order_pair_size_ratio",
		},
		{
			name:   "ratio of exactly one",
			mutate: func(c *Config) { c.Strategy.OrderPairSizeRatio = 1 },
		},
		{
			name:    "too many levels",
			mutate:  func(c *Config) { c.Strategy.Levels = 1_000_000_000 },
			wantErr: true,
			errMsg:  "strategy.levels must be in",
		},
		{
			name:    "inverted sweep step range",
			mutate:  func(c *Config) { c.Sweep.StepLo, c.Sweep.StepHi = 0.01, 0.001 },
			wantErr: true,
			errMsg:  "sweep step range",
		},
		{
			name:    "sweep ratio above one",
			mutate:  func(c *Config) { c.Sweep.RatioHi = 2 },
			wantErr: true,
			errMsg:  "sweep ratio range",
		},
		{
			name:    "unknown journal",
			mutate:  func(c *Config) { c.Journal.Type = "mongo" },
			wantErr: true,
			errMsg:  "journal.type",
		},
		{
			name:    "csv without dir",
			mutate:  func(c *Config) { c.Journal.Type = "csv" },
			wantErr: true,
			errMsg:  "journal dir required",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Journal.Type = "sqlite" },
			wantErr: true,
			errMsg:  "journal db_path required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Strategy.Step = 0.0035
			cfg.Journal = JournalConfig{Type: "sqlite", DBPath: "runs.db", RecordTicks: true}
			path := filepath.Join(tmpDir, "test"+tt.ext)

			require.NoError(t, cfg.SaveToFile(path))

			_, err := os.Stat(path)
			require.NoError(t, err)

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy:\n  step: 0.005\n  order_pair_size_ratio: 0.05\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.005, cfg.Strategy.Step)
	assert.Equal(t, 0.05, cfg.Strategy.OrderPairSizeRatio)
	assert.Equal(t, 1000.0, cfg.Account.InitialBase)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  initial_base: -5\n"), 0644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GRIDSIM_STEP=0.004\nGRIDSIM_JOURNAL=csv\n"), 0644))

	t.Setenv("GRIDSIM_LEVELS", "25")
	t.Setenv("GRIDSIM_SWEEP_SEED", "42")
	// process environment wins over the file
	t.Setenv("GRIDSIM_JOURNAL", "sqlite")
	t.Cleanup(func() { os.Unsetenv("GRIDSIM_STEP") })

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envFile, filepath.Join(dir, "missing.env")))

	assert.Equal(t, 0.004, cfg.Strategy.Step)
	assert.Equal(t, 25, cfg.Strategy.Levels)
	assert.Equal(t, int64(42), cfg.Sweep.Seed)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestApplyEnvBadNumber(t *testing.T) {
	t.Setenv("GRIDSIM_INITIAL_BASE", "lots")

	cfg := Default()
	err := cfg.ApplyEnv(filepath.Join(t.TempDir(), "none.env"))
	assert.ErrorContains(t, err, "GRIDSIM_INITIAL_BASE")
}
