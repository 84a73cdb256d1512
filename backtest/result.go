package backtest

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/tradekit/riskledger/ledger"
)

// Result is the summary of one replay.
type Result struct {
	Start time.Time
	End   time.Time
	Bars  int

	StartBalance float64
	EndBalance   float64
	EndEquity    float64
	OpenAtEnd    int

	// Signals refused at admission, tallied by reason.
	Skipped map[ledger.Reason]int

	Stats Stats
}

// Print writes a human-readable report.
func (r Result) Print(w io.Writer) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Stats.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Stats.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Stats.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.Stats.WinRate*100)
	if r.Stats.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.Stats.ProfitFactor)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.EndBalance)
	fmt.Fprintf(w, "End Equity:    %.2f\n", r.EndEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.Stats.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Stats.ReturnPct)
	if r.OpenAtEnd > 0 {
		fmt.Fprintf(w, "Still Open:    %d\n", r.OpenAtEnd)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Risk")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Max Drawdown:  %.2f (%.2f%%)\n", r.Stats.MaxDrawdown, r.Stats.MaxDrawdownPct)
	if r.Stats.MaxDrawdownDuration > 0 {
		fmt.Fprintf(w, "DD Duration:   %s\n", r.Stats.MaxDrawdownDuration)
	}
	if r.Stats.Sharpe != 0 {
		fmt.Fprintf(w, "Sharpe:        %.2f\n", r.Stats.Sharpe)
	}
	if r.Stats.Sortino != 0 {
		fmt.Fprintf(w, "Sortino:       %.2f\n", r.Stats.Sortino)
	}
	if r.Stats.Calmar != 0 {
		fmt.Fprintf(w, "Calmar:        %.2f\n", r.Stats.Calmar)
	}

	if len(r.Skipped) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Refused Signals")
		fmt.Fprintln(w, "--------------------------------------------------")
		reasons := make([]string, 0, len(r.Skipped))
		for reason := range r.Skipped {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(w, "%-22s %d\n", reason+":", r.Skipped[ledger.Reason(reason)])
		}
	}

	fmt.Fprintln(w)
}
