package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/backtester/strategies"
	"gopkg.in/yaml.v3"
)

// Config represents the complete backtest configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig contains simulated account parameters
type AccountConfig struct {
	Cash       float64 `json:"cash" yaml:"cash"`
	Commission float64 `json:"commission" yaml:"commission"`
}

// StrategyConfig names the strategy and carries its parameters
type StrategyConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Params strategies.Params `json:"params" yaml:"params"`
}

// DataConfig maps instruments to their bar files
type DataConfig struct {
	// CSV maps an instrument symbol to a Yahoo-format CSV path.
	// Files ending in .gz, .xz or .lzma are decompressed on read.
	CSV map[string]string `json:"csv" yaml:"csv"`

	// FillOnOpen fills orders at the next bar's open instead of its
	// adjusted close.
	FillOnOpen bool `json:"fill_on_open,omitempty" yaml:"fill_on_open,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
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

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
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
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if c.Account.Commission < 0 || c.Account.Commission >= 1 {
		return fmt.Errorf("account.commission must be in [0,1)")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	// The factory is the authority on names, aliases and per-strategy
	// parameter requirements.
	if _, err := strategies.New(c.Strategy.Name, c.Strategy.Params); err != nil {
		return err
	}
	if c.Strategy.Params.Buffer < 0 || c.Strategy.Params.Buffer > 1 {
		return fmt.Errorf("strategy.params.buffer must be between 0 and 1")
	}
	if len(c.Data.CSV) == 0 {
		return fmt.Errorf("data.csv needs at least one instrument")
	}
	if _, ok := c.Data.CSV[c.Strategy.Params.Instrument]; !ok {
		return fmt.Errorf("no data file for instrument %s", c.Strategy.Params.Instrument)
	}
	if filter := c.Strategy.Params.Filter; filter != "" {
		if _, ok := c.Data.CSV[filter]; !ok {
			return fmt.Errorf("no data file for filter instrument %s", filter)
		}
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
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
			Cash:       10000,
			Commission: 0.001,
		},
		Strategy: StrategyConfig{
			Name: "buy-hold",
			Params: strategies.Params{
				Buffer: strategies.DefaultBuffer,
			},
		},
		Journal: JournalConfig{
			Type: "none",
		},
	}
}
