package risk

import (
	"math"

	"github.com/tradekit/riskledger/market"
)

// SizeInputs feed one position-sizing calculation. StopPrice of 0 means the
// signal carried no stop; DefaultStopDistance (price units) is used instead.
type SizeInputs struct {
	Balance    float64
	RiskPct    float64 // 0.02
	EntryPrice float64
	StopPrice  float64

	PipLocation int
	PipValue    float64 // account currency per pip per lot

	MinLots float64
	MaxLots float64

	DefaultStopDistance float64
}

type SizeResult struct {
	Lots       float64
	StopPips   float64
	RiskAmount float64
	Clamped    bool
}

// Size computes the lot size that puts RiskPct of Balance at risk between
// entry and stop. Size is inversely proportional to the stop distance: a
// wider stop buys fewer lots for the same account risk. The result is clamped
// to [MinLots, MaxLots]; a degenerate stop distance falls back to MinLots.
func Size(in SizeInputs) SizeResult {
	riskAmount := in.Balance * in.RiskPct

	dist := math.Abs(in.EntryPrice - in.StopPrice)
	if in.StopPrice <= 0 {
		dist = in.DefaultStopDistance
	}
	if dist <= 0 {
		return SizeResult{Lots: in.MinLots, RiskAmount: riskAmount, Clamped: true}
	}

	pip := market.PipSize(in.PipLocation)
	stopPips := dist / pip

	lots := riskAmount / (stopPips * in.PipValue)

	clamped := false
	if lots < in.MinLots {
		lots = in.MinLots
		clamped = true
	}
	if in.MaxLots > 0 && lots > in.MaxLots {
		lots = in.MaxLots
		clamped = true
	}

	return SizeResult{
		Lots:       lots,
		StopPips:   stopPips,
		RiskAmount: riskAmount,
		Clamped:    clamped,
	}
}
