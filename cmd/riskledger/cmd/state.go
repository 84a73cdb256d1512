package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradekit/riskledger/ledger"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or initialize ledger state snapshots",
	Long: `Work with the JSON snapshots the backtest host saves and restores.

Subcommands:
  show - Print a snapshot's account figures and open positions
  init - Write a fresh snapshot seeded from the configuration

Examples:
  riskledger state show -f ledger.json
  riskledger state init -o ledger.json`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a snapshot's account figures and open positions",
	RunE:  runStateShow,
}

var stateInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a fresh snapshot seeded from the configuration",
	RunE:  runStateInit,
}

var (
	stateShowPath string
	stateInitPath string
)

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateInitCmd)

	stateShowCmd.Flags().StringVarP(&stateShowPath, "file", "f", "", "path to state snapshot (required)")
	stateShowCmd.MarkFlagRequired("file")
	stateInitCmd.Flags().StringVarP(&stateInitPath, "output", "o", "ledger.json", "output snapshot path")
}

func runStateShow(cmd *cobra.Command, args []string) error {
	s, err := ledger.LoadState(stateShowPath)
	if err != nil {
		return err
	}

	fmt.Printf("Saved:         %s\n", s.SavedAt)
	fmt.Printf("Balance:       %.2f\n", s.Balance)
	fmt.Printf("Peak Equity:   %.2f\n", s.PeakEquity)
	fmt.Printf("Max Drawdown:  %.2f\n", s.MaxDrawdown)
	fmt.Printf("Realized P/L:  %.2f\n", s.TotalRealizedPL)
	fmt.Printf("Day:           %s (%d trades, %.2f realized)\n", s.Day, s.DailyTrades, s.DailyRealizedPL)
	fmt.Printf("Positions:     %d\n", len(s.Positions))
	for _, p := range s.Positions {
		fmt.Printf("  %s  %-9s %-5s %.2f lots @ %.5f  stop %.5f  take %.5f\n",
			p.ID, p.Instrument, p.Side, p.Lots, p.EntryPrice, p.StopLoss, p.TakeProfit)
	}
	return nil
}

func runStateInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	led := ledger.New(cfg.Risk, cfg.Catalog(), nil)
	if err := ledger.SaveState(stateInitPath, led.ExportState()); err != nil {
		return err
	}

	fmt.Printf("✓ Created state snapshot: %s (balance %.2f)\n", stateInitPath, cfg.Risk.Balance)
	return nil
}
