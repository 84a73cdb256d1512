package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradekit/riskledger/journal"
	"github.com/tradekit/riskledger/ledger"
	"github.com/tradekit/riskledger/risk"
)

// Options controls how the runner behaves around the core replay loop.
type Options struct {
	// Close everything still open when the dataset ends, at the last marked
	// price. Reason defaults to EndOfReplay.
	CloseEnd    bool
	CloseReason string

	// Annualization factor for Sharpe/Sortino. 0 means 252.
	Annualization float64
}

// Runner replays a bar feed through a ledger. Per bar it marks to market,
// closes triggered exits, then admits and sizes entries from the signal
// hook. Exits always run before entries within a bar, so an instrument freed
// by an exit and the margin it released are visible to the same bar's
// admission checks.
type Runner struct {
	Ledger  *ledger.Ledger
	Feed    BarFeed
	Signals SignalFunc      // nil replays without entries
	Journal journal.Journal // optional equity sink, one point per bar
	Log     *zap.Logger     // nil means silent
	Options Options
}

// Run executes the replay to the end of the feed and returns the run
// summary. The feed is closed on the way out. Errors from the ledger or the
// dataset abort the run; admission refusals do not, they are tallied in
// Result.Skipped.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Ledger == nil {
		return Result{}, fmt.Errorf("backtest: Ledger is required")
	}
	if r.Feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	defer r.Feed.Close()

	l := r.Ledger
	startBalance := l.Balance()

	var (
		start, end time.Time
		bars       int
		trades     []ledger.ClosedTrade
		equity     []EquitySample
		skipped    = make(map[ledger.Reason]int)
	)

	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		b, ok, err := r.Feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}
		bars++

		if start.IsZero() || b.Time.Before(start) {
			start = b.Time
		}
		if end.IsZero() || b.Time.After(end) {
			end = b.Time
		}

		l.MarkToMarket(map[string]float64{b.Instrument: b.Close})

		for _, e := range l.ScanExits() {
			rec, err := l.Close(e.PositionID, e.Price, e.Reason)
			if err != nil {
				return Result{}, fmt.Errorf("backtest close: %w", err)
			}
			trades = append(trades, rec)
			log.Debug("exit",
				zap.String("position", rec.PositionID),
				zap.String("instrument", rec.Instrument),
				zap.String("reason", rec.Reason),
				zap.Float64("pl", rec.RealizedPL),
			)
		}

		if r.Signals != nil {
			for _, sig := range r.Signals(b) {
				if err := r.enter(log, b, sig, skipped); err != nil {
					return Result{}, err
				}
			}
		}

		acct := l.Account()
		equity = append(equity, EquitySample{Time: b.Time, Equity: acct.Equity})
		if r.Journal != nil {
			if err := r.Journal.RecordEquity(journal.EquityPoint{
				Time:       b.Time,
				Balance:    acct.Balance,
				Equity:     acct.Equity,
				MarginUsed: acct.MarginUsed,
				FreeMargin: acct.FreeMargin,
				Drawdown:   acct.PeakEquity - acct.Equity,
			}); err != nil {
				return Result{}, fmt.Errorf("record equity: %w", err)
			}
		}
	}

	if r.Options.CloseEnd {
		reason := r.Options.CloseReason
		if reason == "" {
			reason = ledger.CloseEndOfReplay
		}
		for _, p := range l.Positions() {
			rec, err := l.Close(p.ID, p.CurrentPrice, reason)
			if err != nil {
				return Result{}, fmt.Errorf("backtest close: %w", err)
			}
			trades = append(trades, rec)
		}
	}

	return Result{
		Start:        start,
		End:          end,
		Bars:         bars,
		StartBalance: startBalance,
		EndBalance:   l.Balance(),
		EndEquity:    l.Equity(),
		OpenAtEnd:    l.PositionCount(),
		Skipped:      skipped,
		Stats:        ComputeStats(trades, equity, startBalance, r.Options.Annualization),
	}, nil
}

// enter runs one signal through the sizing and admission pipeline at the
// bar's close price.
func (r *Runner) enter(log *zap.Logger, b Bar, sig Signal, skipped map[ledger.Reason]int) error {
	l := r.Ledger
	cfg := l.Config()
	cat := l.Catalog()
	meta := cat.Meta(sig.Instrument)

	entry := b.Close

	sz := risk.Size(risk.SizeInputs{
		Balance:             l.Balance(),
		RiskPct:             cfg.MaxRiskPerTrade,
		EntryPrice:          entry,
		StopPrice:           sig.StopLoss,
		PipLocation:         meta.PipLocation,
		PipValue:            meta.PipValue,
		MinLots:             cfg.MinLots,
		MaxLots:             cfg.MaxLots,
		DefaultStopDistance: cat.StopDistance(sig.Instrument, entry),
	})

	margin := l.PlannedMargin(sig.Instrument, sz.Lots, entry)
	ok, reason := l.CanOpen(sig.Instrument, margin)
	if !ok {
		skipped[reason]++
		log.Debug("signal refused",
			zap.String("instrument", sig.Instrument),
			zap.String("reason", string(reason)),
		)
		return nil
	}

	id, err := l.Open(sig.Instrument, sig.Side, entry, sz.Lots, sig.StopLoss, sig.TakeProfit)
	if err != nil {
		return fmt.Errorf("backtest open %s: %w", sig.Instrument, err)
	}

	log.Info("open",
		zap.String("position", id),
		zap.String("instrument", sig.Instrument),
		zap.String("side", sig.Side.String()),
		zap.Float64("entry", entry),
		zap.Float64("lots", sz.Lots),
		zap.Float64("risk", sz.RiskAmount),
	)
	return nil
}
