package ledger

import "time"

// Close reasons recorded on ClosedTrade. Plain strings so hosts can add
// their own without touching the engine.
const (
	CloseStopLoss    = "StopLoss"
	CloseTakeProfit  = "TakeProfit"
	CloseSignal      = "Signal"
	CloseManual      = "ManualClose"
	CloseEndOfReplay = "EndOfReplay"
)

// ClosedTrade is the immutable record produced by Close. The open Position it
// came from is gone by the time the caller sees this.
type ClosedTrade struct {
	PositionID string
	Instrument string
	Side       Side
	Lots       float64

	EntryPrice float64
	ExitPrice  float64

	OpenedAt time.Time
	ClosedAt time.Time

	RealizedPL float64
	Reason     string
}

// Duration is the position's time in market.
func (t ClosedTrade) Duration() time.Duration {
	return t.ClosedAt.Sub(t.OpenedAt)
}

// Win reports whether the trade realized a profit.
func (t ClosedTrade) Win() bool {
	return t.RealizedPL > 0
}
