package journal

import "time"

// TradeRecord is one closed trade as persisted. Field-for-field it mirrors
// ledger.ClosedTrade; the journal keeps its own struct so storage columns
// never leak into the accounting types.
type TradeRecord struct {
	PositionID string
	Instrument string
	Side       string
	Lots       float64
	EntryPrice float64
	ExitPrice  float64
	OpenedAt   time.Time
	ClosedAt   time.Time
	RealizedPL float64
	Reason     string
}

// EquityPoint is one sample of the account timeline.
type EquityPoint struct {
	Time       time.Time
	Balance    float64
	Equity     float64
	MarginUsed float64
	FreeMargin float64
	Drawdown   float64
}

// Journal is the trade-history collaborator: the ledger hands it every closed
// trade, hosts hand it equity samples. Implementations decide the medium.
type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	Close() error
}

// Discard is a Journal that drops everything. Useful for dry runs and for
// ledgers whose host does its own persistence.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error  { return nil }
func (Discard) RecordEquity(EquityPoint) error { return nil }
func (Discard) Close() error                   { return nil }
