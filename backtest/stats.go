package backtest

import (
	"math"
	"time"

	"github.com/tradekit/riskledger/ledger"
)

// DefaultAnnualization is the factor applied to per-bar return moments when
// none is configured. 252 treats one bar as one trading day.
const DefaultAnnualization = 252

// EquitySample is one point of a run's equity curve.
type EquitySample struct {
	Time   time.Time
	Equity float64
}

// Stats are the aggregate performance figures of one replay. Ratios that
// have no defined value for the sample (no losses, flat returns) are 0.
type Stats struct {
	Trades  int
	Wins    int
	Losses  int
	WinRate float64 // fraction of trades with positive P/L

	GrossProfit  float64
	GrossLoss    float64 // reported positive
	NetPL        float64
	ProfitFactor float64
	ReturnPct    float64

	MaxDrawdown         float64
	MaxDrawdownPct      float64
	MaxDrawdownDuration time.Duration

	Sharpe  float64
	Sortino float64
	Calmar  float64
}

// ComputeStats derives the run figures from the closed trades and the
// per-bar equity curve. Sharpe and Sortino come from simple per-sample
// equity returns scaled by sqrt(annualization); drawdown duration is the
// longest contiguous stretch the curve spent below its running peak.
func ComputeStats(trades []ledger.ClosedTrade, equity []EquitySample, startBalance, annualization float64) Stats {
	if annualization <= 0 {
		annualization = DefaultAnnualization
	}

	var s Stats

	s.Trades = len(trades)
	for _, t := range trades {
		switch {
		case t.RealizedPL > 0:
			s.Wins++
			s.GrossProfit += t.RealizedPL
		case t.RealizedPL < 0:
			s.Losses++
			s.GrossLoss += -t.RealizedPL
		}
		s.NetPL += t.RealizedPL
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	if startBalance > 0 {
		s.ReturnPct = s.NetPL / startBalance * 100
	}

	if len(equity) > 0 {
		s.MaxDrawdown, s.MaxDrawdownPct, s.MaxDrawdownDuration = drawdownStats(equity)
		s.Sharpe, s.Sortino = returnRatios(equity, annualization)
		s.Calmar = calmar(equity, s.MaxDrawdownPct)
	}

	return s
}

func drawdownStats(equity []EquitySample) (maxDD, maxDDPct float64, maxDur time.Duration) {
	peak := equity[0].Equity

	var (
		inDD    bool
		ddStart time.Time
	)
	endSpell := func(at time.Time) {
		if !inDD {
			return
		}
		if d := at.Sub(ddStart); d > maxDur {
			maxDur = d
		}
		inDD = false
	}

	for _, s := range equity[1:] {
		if s.Equity >= peak {
			endSpell(s.Time)
			if s.Equity > peak {
				peak = s.Equity
			}
			continue
		}

		if !inDD {
			inDD = true
			ddStart = s.Time
		}
		if dd := peak - s.Equity; dd > maxDD {
			maxDD = dd
			if peak > 0 {
				maxDDPct = dd / peak * 100
			}
		}
	}
	endSpell(equity[len(equity)-1].Time)

	return maxDD, maxDDPct, maxDur
}

func returnRatios(equity []EquitySample, annualization float64) (sharpe, sortino float64) {
	var rets []float64
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		rets = append(rets, (equity[i].Equity-prev)/prev)
	}
	if len(rets) == 0 {
		return 0, 0
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance, downside float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
		if r < 0 {
			downside += r * r
		}
	}
	variance /= float64(len(rets))
	downside /= float64(len(rets))

	scale := math.Sqrt(annualization)
	if std := math.Sqrt(variance); std > 0 {
		sharpe = mean / std * scale
	}
	if dd := math.Sqrt(downside); dd > 0 {
		sortino = mean / dd * scale
	}
	return sharpe, sortino
}

func calmar(equity []EquitySample, maxDDPct float64) float64 {
	if maxDDPct <= 0 || len(equity) < 2 {
		return 0
	}
	first, last := equity[0], equity[len(equity)-1]
	if first.Equity <= 0 || last.Equity <= 0 {
		return 0
	}
	years := last.Time.Sub(first.Time).Hours() / (24 * 365.25)
	if years <= 0 {
		return 0
	}
	cagr := math.Pow(last.Equity/first.Equity, 1/years) - 1
	return cagr / (maxDDPct / 100)
}
