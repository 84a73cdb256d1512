package ledger

import "time"

// Side: +1 long, -1 short.
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "flat"
}

// ParseSide accepts the spellings used in signal files and snapshots.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "long", "LONG", "buy", "BUY", "+1", "1":
		return Long, true
	case "short", "SHORT", "sell", "SELL", "-1":
		return Short, true
	}
	return 0, false
}

// Position is one open trade. It is owned by a Ledger: created by Open,
// repriced in place by MarkToMarket, removed by Close. StopLoss/TakeProfit
// of 0 mean "not set".
type Position struct {
	ID         string
	Instrument string
	Side       Side

	EntryPrice   float64
	CurrentPrice float64
	Lots         float64

	StopLoss   float64
	TakeProfit float64

	OpenedAt     time.Time
	UnrealizedPL float64
}

// MarkToMarket reprices the position and recomputes its unrealized P/L:
// side-signed price delta times lots times contract size. Inputs are
// validated by the ledger before they reach here.
func (p *Position) MarkToMarket(price, contractSize float64) {
	p.CurrentPrice = price
	p.UnrealizedPL = pl(p.Side, p.EntryPrice, price, p.Lots, contractSize)
}

// pl is the single signed P/L formula shared by mark-to-market and close.
// Long profits when price rises above entry, short when it falls below.
func pl(side Side, entry, price, lots, contractSize float64) float64 {
	return float64(side) * (price - entry) * lots * contractSize
}
