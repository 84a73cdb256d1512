package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradekit/riskledger/backtest"
	"github.com/tradekit/riskledger/config"
	"github.com/tradekit/riskledger/ledger"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a bar dataset and signals through the risk ledger",
	Long: `Backtest replays historical bars through the accounting engine: per bar it
marks open positions to market, closes positions whose stop or take-profit
triggered, then sizes and admits entries from the signal file.

Example:
  riskledger backtest --bars data/eurusd_h1.csv --signals data/signals.csv --db run.sqlite`,
	RunE: runBacktest,
}

var (
	btBarsPath    string
	btSignalsPath string
	btDBPath      string
	btBalance     float64
	btCloseEnd    bool
	btAnnualize   float64
	btStateIn     string
	btStateOut    string
	btFrom        string
	btTo          string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "t", "", "path to bar CSV (time,instrument,open,high,low,close)")
	backtestCmd.Flags().StringVarP(&btSignalsPath, "signals", "s", "", "path to signal CSV (time,instrument,side,stop_loss,take_profit[,confidence])")
	backtestCmd.Flags().StringVarP(&btDBPath, "db", "d", "", "journal to this SQLite DB (overrides config)")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "starting account balance (overrides config)")
	backtestCmd.Flags().BoolVar(&btCloseEnd, "close-end", true, "close all open positions at end of replay")
	backtestCmd.Flags().Float64Var(&btAnnualize, "annualization", 0, "Sharpe/Sortino annualization factor (default 252)")
	backtestCmd.Flags().StringVar(&btStateIn, "state-in", "", "restore ledger state from this snapshot before the run")
	backtestCmd.Flags().StringVar(&btStateOut, "state-out", "", "save ledger state to this snapshot after the run")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "only bars at or after this RFC3339 time")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "only bars before this RFC3339 time")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if btBarsPath != "" {
		cfg.Backtest.BarsFile = btBarsPath
	}
	if btSignalsPath != "" {
		cfg.Backtest.SignalsFile = btSignalsPath
	}
	if btDBPath != "" {
		cfg.Journal = config.JournalConfig{Type: "sqlite", DBPath: btDBPath}
	}
	if btBalance > 0 {
		cfg.Account.Balance = btBalance
		cfg.Risk.Balance = btBalance
	}
	if cmd.Flags().Changed("close-end") {
		cfg.Backtest.CloseEnd = btCloseEnd
	}
	if btAnnualize > 0 {
		cfg.Backtest.Annualization = btAnnualize
	}
	if btStateIn != "" {
		cfg.Backtest.StateIn = btStateIn
	}
	if btStateOut != "" {
		cfg.Backtest.StateOut = btStateOut
	}
	if btFrom != "" {
		cfg.Backtest.From = btFrom
	}
	if btTo != "" {
		cfg.Backtest.To = btTo
	}

	if cfg.Backtest.BarsFile == "" {
		return fmt.Errorf("no bar dataset: pass --bars or set backtest.bars_file in the config")
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	led := ledger.New(cfg.Risk, cfg.Catalog(), j)

	if cfg.Backtest.StateIn != "" {
		snap, err := ledger.LoadState(cfg.Backtest.StateIn)
		if err != nil {
			return err
		}
		if err := led.Restore(snap); err != nil {
			return err
		}
		log.Info("state restored",
			zap.String("path", cfg.Backtest.StateIn),
			zap.Float64("balance", led.Balance()),
			zap.Int("positions", led.PositionCount()),
		)
	}

	from, to, err := cfg.Backtest.ParseRange()
	if err != nil {
		return err
	}

	feed, err := backtest.NewCSVBarFeed(cfg.Backtest.BarsFile, from, to)
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}

	var signals backtest.SignalFunc
	if cfg.Backtest.SignalsFile != "" {
		sigs, err := backtest.LoadCSVSignals(cfg.Backtest.SignalsFile)
		if err != nil {
			return fmt.Errorf("load signals: %w", err)
		}
		log.Info("signals loaded",
			zap.String("path", cfg.Backtest.SignalsFile),
			zap.Int("count", len(sigs)),
		)
		signals = backtest.NewReplay(sigs).Func()
	}

	runner := &backtest.Runner{
		Ledger:  led,
		Feed:    feed,
		Signals: signals,
		Journal: j,
		Log:     log,
		Options: backtest.Options{
			CloseEnd:      cfg.Backtest.CloseEnd,
			Annualization: cfg.Backtest.Annualization,
		},
	}

	res, err := runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	res.Print(os.Stdout)

	if cfg.Backtest.StateOut != "" {
		if err := ledger.SaveState(cfg.Backtest.StateOut, led.ExportState()); err != nil {
			return err
		}
		fmt.Printf("State saved: %s\n", cfg.Backtest.StateOut)
	}

	return nil
}
