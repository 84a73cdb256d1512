package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradekit/riskledger/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query trade journal data",
	Long: `Query and display trade journal records from a SQLite database.

Subcommands:
  trade  - Get details of a specific trade by position id
  today  - List trades closed today
  day    - List trades closed on a specific day
  stats  - Aggregate win/loss statistics over all recorded trades

Examples:
  riskledger journal trade <position-id>
  riskledger journal today
  riskledger journal day 2026-08-21
  riskledger journal stats`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <position-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades closed today",
	Args:  cobra.NoArgs,
	RunE:  runJournalToday,
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades closed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDay,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics over all recorded trades",
	Args:  cobra.NoArgs,
	RunE:  runJournalStats,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)
	journalCmd.AddCommand(journalStatsCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./riskledger.sqlite", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.Trade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	fmt.Println(journal.FormatTradeOrg(rec))
	return nil
}

func runJournalToday(cmd *cobra.Command, args []string) error {
	loc := time.Local
	return listDay(time.Now().In(loc).Format("2006-01-02"), loc)
}

func runJournalDay(cmd *cobra.Command, args []string) error {
	return listDay(args[0], time.Local)
}

func listDay(day string, loc *time.Location) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	start, end, err := dayBounds(loc, day)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	recs, err := j.TradesClosedBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	if len(recs) == 0 {
		fmt.Printf("No trades closed on %s\n", day)
		return nil
	}

	fmt.Println(journal.FormatTradesOrg(recs))
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	s, err := j.Stats()
	if err != nil {
		return fmt.Errorf("query stats: %w", err)
	}

	fmt.Printf("Trades:        %d\n", s.Trades)
	fmt.Printf("Wins:          %d\n", s.Wins)
	fmt.Printf("Losses:        %d\n", s.Losses)
	fmt.Printf("Win Rate:      %.2f%%\n", s.WinRate*100)
	fmt.Printf("Gross Profit:  %.2f\n", s.GrossProfit)
	fmt.Printf("Gross Loss:    %.2f\n", s.GrossLoss)
	fmt.Printf("Net P/L:       %.2f\n", s.NetPL)
	if s.ProfitFactor > 0 {
		fmt.Printf("Profit Factor: %.2f\n", s.ProfitFactor)
	}
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := start.Add(24 * time.Hour)
	return start, end, nil
}
