package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, "100000", cfg.Account.Balances["USD"])
	assert.Equal(t, []string{"GBP/USD"}, cfg.Simulation.Pairs)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing currency",
			mutate:  func(c *Config) { c.Account.Currency = "" },
			wantErr: true,
			errMsg:  "account.currency is required",
		},
		{
			name:    "no pairs",
			mutate:  func(c *Config) { c.Simulation.Pairs = nil },
			wantErr: true,
			errMsg:  "simulation.pairs is required",
		},
		{
			name:    "bad pair",
			mutate:  func(c *Config) { c.Simulation.Pairs = []string{"GBPUSD"} },
			wantErr: true,
			errMsg:  "simulation.pairs",
		},
		{
			name:    "bad bar duration",
			mutate:  func(c *Config) { c.Simulation.BarDuration = "soon" },
			wantErr: true,
			errMsg:  "simulation.bar_duration",
		},
		{
			name:    "bad refresh interval",
			mutate:  func(c *Config) { c.Simulation.RefreshInterval = "later" },
			wantErr: true,
			errMsg:  "simulation.refresh_interval",
		},
		{
			name:    "unknown feed type",
			mutate:  func(c *Config) { c.Feed.Type = "parquet" },
			wantErr: true,
			errMsg:  "feed.type must be 'csv' or 'sqlite'",
		},
		{
			name:    "missing feed path",
			mutate:  func(c *Config) { c.Feed.Path = "" },
			wantErr: true,
			errMsg:  "feed.path is required",
		},
		{
			name:    "csv journal without files",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "csv"} },
			wantErr: true,
			errMsg:  "fills_file and equity_file required",
		},
		{
			name:    "sqlite journal without db path",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} },
			wantErr: true,
			errMsg:  "db_path required",
		},
		{
			name:    "journal disabled",
			mutate:  func(c *Config) { c.Journal = JournalConfig{} },
			wantErr: false,
		},
		{
			name:    "unknown journal type",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "kafka"} },
			wantErr: true,
			errMsg:  "journal.type must be 'csv' or 'sqlite'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
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
			path := filepath.Join(tmpDir, "test"+tt.ext)

			// Save
			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			// Verify file exists
			_, err = os.Stat(path)
			require.NoError(t, err)

			// Load
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			// Compare
			assert.Equal(t, cfg.Account.Currency, loaded.Account.Currency)
			assert.Equal(t, cfg.Account.Balances, loaded.Account.Balances)
			assert.Equal(t, cfg.Simulation.Pairs, loaded.Simulation.Pairs)
			assert.Equal(t, cfg.Feed, loaded.Feed)
		})
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestDurationDefaults(t *testing.T) {
	var sim SimulationConfig

	d, err := sim.BarDurationOrDefault()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	d, err = sim.RefreshIntervalOrDefault()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	sim.BarDuration = "5m"
	sim.RefreshInterval = "1m"

	d, err = sim.BarDurationOrDefault()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	d, err = sim.RefreshIntervalOrDefault()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}
