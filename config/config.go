// Package config loads and validates the file-based configuration used by
// the command hosts. The engine packages never read files or environment
// variables; everything they need arrives as plain structs built from here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tradekit/riskledger/market"
	"github.com/tradekit/riskledger/risk"
)

// Config is the complete host configuration.
type Config struct {
	Account     AccountConfig      `json:"account" yaml:"account"`
	Risk        risk.Config        `json:"risk" yaml:"risk"`
	Instruments []InstrumentConfig `json:"instruments,omitempty" yaml:"instruments,omitempty"`
	Journal     JournalConfig      `json:"journal" yaml:"journal"`
	Backtest    BacktestConfig     `json:"backtest,omitempty" yaml:"backtest,omitempty"`
}

// AccountConfig identifies the account and seeds its balance.
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// InstrumentConfig overrides or extends the built-in instrument catalog.
type InstrumentConfig struct {
	Name            string  `json:"name" yaml:"name"`
	BaseCurrency    string  `json:"base_currency,omitempty" yaml:"base_currency,omitempty"`
	QuoteCurrency   string  `json:"quote_currency,omitempty" yaml:"quote_currency,omitempty"`
	PipLocation     int     `json:"pip_location" yaml:"pip_location"`
	PipValue        float64 `json:"pip_value" yaml:"pip_value"`
	ContractSize    float64 `json:"contract_size" yaml:"contract_size"`
	MarginRate      float64 `json:"margin_rate" yaml:"margin_rate"`
	MinTradeLots    float64 `json:"min_trade_lots" yaml:"min_trade_lots"`
	DefaultStopPips float64 `json:"default_stop_pips" yaml:"default_stop_pips"`
}

// JournalConfig selects where closed trades and equity samples go.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// BacktestConfig points a replay at its dataset and signal files.
type BacktestConfig struct {
	BarsFile    string `json:"bars_file,omitempty" yaml:"bars_file,omitempty"`
	SignalsFile string `json:"signals_file,omitempty" yaml:"signals_file,omitempty"`

	// Optional RFC3339 bounds applied to the bar feed, [from, to).
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`

	CloseEnd      bool    `json:"close_end" yaml:"close_end"`
	Annualization float64 `json:"annualization,omitempty" yaml:"annualization,omitempty"`

	StateIn  string `json:"state_in,omitempty" yaml:"state_in,omitempty"`
	StateOut string `json:"state_out,omitempty" yaml:"state_out,omitempty"`
}

// ParseRange returns the configured [from, to) bounds; zero times mean
// unbounded.
func (b BacktestConfig) ParseRange() (from, to time.Time, err error) {
	if b.From != "" {
		from, err = time.Parse(time.RFC3339, b.From)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtest.from: %w", err)
		}
	}
	if b.To != "" {
		to, err = time.Parse(time.RFC3339, b.To)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("backtest.to: %w", err)
		}
	}
	return from, to, nil
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON, then normalizes and validates it.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration, YAML or JSON by extension.
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

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Normalize fills derived fields: the risk section's balance defaults to the
// account balance, and an unset journal type means "none".
func (c *Config) Normalize() {
	if c.Risk.Balance == 0 {
		c.Risk.Balance = c.Account.Balance
	}
	if c.Journal.Type == "" {
		c.Journal.Type = "none"
	}
}

// Validate checks the configuration as a whole.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}

	for i, m := range c.Instruments {
		if m.Name == "" {
			return fmt.Errorf("instruments[%d].name is required", i)
		}
		if m.PipValue <= 0 {
			return fmt.Errorf("instrument %s: pip_value must be positive", m.Name)
		}
		if m.ContractSize <= 0 {
			return fmt.Errorf("instrument %s: contract_size must be positive", m.Name)
		}
		if m.MarginRate <= 0 || m.MarginRate > 1 {
			return fmt.Errorf("instrument %s: margin_rate must be in (0, 1]", m.Name)
		}
	}

	switch c.Journal.Type {
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}

	if _, _, err := c.Backtest.ParseRange(); err != nil {
		return err
	}
	if c.Backtest.Annualization < 0 {
		return fmt.Errorf("backtest.annualization must not be negative")
	}

	return nil
}

// Catalog builds the instrument catalog: the built-in majors plus any
// configured overrides and additions.
func (c *Config) Catalog() *market.Catalog {
	cat := market.DefaultCatalog()
	for _, m := range c.Instruments {
		cat.Add(market.InstrumentMeta{
			Name:            m.Name,
			BaseCurrency:    m.BaseCurrency,
			QuoteCurrency:   m.QuoteCurrency,
			PipLocation:     m.PipLocation,
			PipValue:        m.PipValue,
			ContractSize:    m.ContractSize,
			MarginRate:      m.MarginRate,
			MinTradeLots:    m.MinTradeLots,
			DefaultStopPips: m.DefaultStopPips,
		})
	}
	return cat
}

// Default returns a configuration with sensible defaults: a 10k USD account
// risking 2% per trade on the built-in majors, journaling to CSV.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "ACC-001",
			Currency: "USD",
			Balance:  10000,
		},
		Risk: risk.DefaultConfig(10000),
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Backtest: BacktestConfig{
			CloseEnd:      true,
			Annualization: 252,
		},
	}
}
