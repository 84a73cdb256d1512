package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradekit/riskledger/config"
	"github.com/tradekit/riskledger/internal/logging"
	"github.com/tradekit/riskledger/journal"
)

var rootCmd = &cobra.Command{
	Use:   "riskledger",
	Short: "Risk-managed position accounting and backtest replay",
	Long: `Riskledger is a position and risk accounting engine with a backtest host.

It provides tools for:
  - Risk-based position sizing under a per-trade risk budget
  - Admission gating: daily loss, drawdown, position and trade limits
  - Stop-loss/take-profit exit scanning
  - Balance, equity, peak and drawdown accounting
  - Replaying historical bars and signals into performance statistics
  - Journaling closed trades and equity curves to SQLite or CSV`,
}

var (
	cfgFile  string
	logLevel string
	logJSON  bool
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "structured JSON logs instead of console output")
}

// loadConfig returns the configuration from --config, or the defaults when
// no file was given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

func newLogger() (*zap.Logger, error) {
	return logging.New(logJSON, logLevel)
}

// openJournal builds the journal backend the config asks for.
func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.EquityFile)
	default:
		return journal.Discard{}, nil
	}
}
