package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/papertrade/market"
	"gopkg.in/yaml.v3"
)

// Config represents the complete simulation configuration
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Feed       FeedConfig       `json:"feed" yaml:"feed"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Currency   string            `json:"currency" yaml:"currency"`
	Balances   map[string]string `json:"balances" yaml:"balances"`
	FeePercent string            `json:"fee_percent,omitempty" yaml:"fee_percent,omitempty"`
	Notional   []string          `json:"notional_assets,omitempty" yaml:"notional_assets,omitempty"`
}

// SimulationConfig contains simulation parameters
type SimulationConfig struct {
	Pairs           []string `json:"pairs" yaml:"pairs"`
	BarDuration     string   `json:"bar_duration,omitempty" yaml:"bar_duration,omitempty"`
	RefreshInterval string   `json:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"`
	Start           string   `json:"start,omitempty" yaml:"start,omitempty"`
	End             string   `json:"end,omitempty" yaml:"end,omitempty"`
}

// BarDurationOrDefault converts bar_duration to time.Duration
func (s SimulationConfig) BarDurationOrDefault() (time.Duration, error) {
	if s.BarDuration == "" {
		return time.Minute, nil
	}
	return time.ParseDuration(s.BarDuration)
}

// RefreshIntervalOrDefault converts refresh_interval to time.Duration
func (s SimulationConfig) RefreshIntervalOrDefault() (time.Duration, error) {
	if s.RefreshInterval == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(s.RefreshInterval)
}

// ParsedPairs parses the configured pair strings
func (s SimulationConfig) ParsedPairs() ([]market.AssetPair, error) {
	pairs := make([]market.AssetPair, 0, len(s.Pairs))
	for _, raw := range s.Pairs {
		p, err := market.ParsePair(raw)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// FeedConfig describes where historical bars come from
type FeedConfig struct {
	Type string `json:"type" yaml:"type"` // "csv" or "sqlite"
	Path string `json:"path" yaml:"path"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty"` // "csv", "sqlite" or empty to disable
	FillsFile  string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
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
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if len(c.Simulation.Pairs) == 0 {
		return fmt.Errorf("simulation.pairs is required")
	}
	if _, err := c.Simulation.ParsedPairs(); err != nil {
		return fmt.Errorf("simulation.pairs: %w", err)
	}
	if _, err := c.Simulation.BarDurationOrDefault(); err != nil {
		return fmt.Errorf("simulation.bar_duration: %w", err)
	}
	if _, err := c.Simulation.RefreshIntervalOrDefault(); err != nil {
		return fmt.Errorf("simulation.refresh_interval: %w", err)
	}
	if c.Feed.Type != "csv" && c.Feed.Type != "sqlite" {
		return fmt.Errorf("feed.type must be 'csv' or 'sqlite'")
	}
	if c.Feed.Path == "" {
		return fmt.Errorf("feed.path is required")
	}
	switch c.Journal.Type {
	case "":
		// journaling disabled
	case "csv":
		if c.Journal.FillsFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal fills_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Currency: "USD",
			Balances: map[string]string{"USD": "100000"},
		},
		Simulation: SimulationConfig{
			Pairs:           []string{"GBP/USD"},
			BarDuration:     "1m",
			RefreshInterval: "30s",
		},
		Feed: FeedConfig{
			Type: "csv",
			Path: "./bars.csv",
		},
		Journal: JournalConfig{
			Type:       "csv",
			FillsFile:  "./fills.csv",
			EquityFile: "./equity.csv",
		},
	}
}
