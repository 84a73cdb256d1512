package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tradekit/riskledger/internal/id"
	"github.com/tradekit/riskledger/journal"
	"github.com/tradekit/riskledger/market"
	"github.com/tradekit/riskledger/risk"
)

// Ledger owns one account's open positions and running totals: realized
// balance, marked equity, the equity high-water mark, max drawdown, and the
// daily counters behind the admission limits. Construct one Ledger per
// account and serialize access to it; the internal mutex makes each call
// atomic but sequences of calls are the caller's to order.
//
// Balance moves only inside Close, by exactly the realized P/L of the closed
// position. Peak equity and max drawdown never decrease.
type Ledger struct {
	mu sync.Mutex

	cfg     risk.Config
	catalog *market.Catalog
	journal journal.Journal

	balance         float64
	equity          float64
	peakEquity      float64
	maxDrawdown     float64
	totalRealizedPL float64

	positions map[string]*Position

	day             string // UTC date of the current daily window
	dailyTradeCount int
	dailyRealizedPL float64

	now func() time.Time
}

// New seeds a ledger from the risk config's balance. A nil catalog gets the
// default majors; a nil journal discards records.
func New(cfg risk.Config, cat *market.Catalog, j journal.Journal) *Ledger {
	if cat == nil {
		cat = market.DefaultCatalog()
	}
	if j == nil {
		j = journal.Discard{}
	}
	l := &Ledger{
		cfg:        cfg,
		catalog:    cat,
		journal:    j,
		balance:    cfg.Balance,
		equity:     cfg.Balance,
		peakEquity: cfg.Balance,
		positions:  make(map[string]*Position),
		now:        time.Now,
	}
	l.day = dayOf(l.now())
	return l
}

// SetClock overrides the ledger's time source. Tests use this to drive the
// daily rollover without waiting for midnight.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now != nil {
		l.now = now
	}
}

func dayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// resetDailyLocked is the lazy daily rollover: the first operation that
// observes a new UTC date zeroes the daily counters. Idempotent; there is no
// timer.
func (l *Ledger) resetDailyLocked() {
	today := dayOf(l.now())
	if today == l.day {
		return
	}
	l.day = today
	l.dailyTradeCount = 0
	l.dailyRealizedPL = 0
}

// CanOpen decides whether a new position on instrument may open, given the
// margin it would reserve. Checks run in fixed precedence and the first
// failure wins:
//
//	daily loss -> drawdown -> position count -> daily trades ->
//	duplicate instrument -> free margin
//
// CanOpen never mutates position state; pairing it with Open is the caller's
// protocol, which keeps dry-run evaluation possible.
func (l *Ledger) CanOpen(instrument string, proposedMargin float64) (bool, Reason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetDailyLocked()

	if l.cfg.MaxDailyLoss > 0 && l.dailyRealizedPL <= -l.cfg.MaxDailyLoss {
		return false, ReasonDailyLossLimit
	}
	if l.cfg.MaxDrawdown > 0 && l.maxDrawdown >= l.cfg.MaxDrawdown {
		return false, ReasonDrawdownLimit
	}
	if l.cfg.MaxPositions > 0 && len(l.positions) >= l.cfg.MaxPositions {
		return false, ReasonPositionLimit
	}
	if l.cfg.MaxDailyTrades > 0 && l.dailyTradeCount >= l.cfg.MaxDailyTrades {
		return false, ReasonDailyTradeLimit
	}
	if l.openOnLocked(instrument) != nil {
		return false, ReasonDuplicateInstrument
	}
	if proposedMargin > l.freeMarginLocked() {
		return false, ReasonInsufficientMargin
	}
	return true, ReasonAllowed
}

func (l *Ledger) openOnLocked(instrument string) *Position {
	for _, p := range l.positions {
		if p.Instrument == instrument {
			return p
		}
	}
	return nil
}

// Open creates a position and returns its id. It validates only its own
// inputs; admission is CanOpen's job and Open deliberately does not repeat
// it, so the decision and the effect stay separable.
func (l *Ledger) Open(instrument string, side Side, entryPrice, lots, stopLoss, takeProfit float64) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.resetDailyLocked()

	if lots <= 0 {
		return "", fmt.Errorf("open %s: %w (got %v)", instrument, ErrInvalidSize, lots)
	}
	if entryPrice <= 0 {
		return "", fmt.Errorf("open %s: %w (got %v)", instrument, ErrInvalidPrice, entryPrice)
	}

	p := &Position{
		ID:           id.New(),
		Instrument:   instrument,
		Side:         side,
		EntryPrice:   entryPrice,
		CurrentPrice: entryPrice,
		Lots:         lots,
		StopLoss:     stopLoss,
		TakeProfit:   takeProfit,
		OpenedAt:     l.now(),
	}

	l.positions[p.ID] = p
	l.dailyTradeCount++

	return p.ID, nil
}

// MarkToMarket reprices every open position whose instrument appears in
// prices, then refreshes equity and the peak/drawdown pair. The two updates
// are mutually exclusive per call: a tick that sets a new peak cannot also
// widen max drawdown.
func (l *Ledger) MarkToMarket(prices map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.positions {
		px, ok := prices[p.Instrument]
		if !ok {
			continue
		}
		p.MarkToMarket(px, l.catalog.Meta(p.Instrument).ContractSize)
	}

	l.recomputeEquityLocked()

	if l.equity > l.peakEquity {
		l.peakEquity = l.equity
	} else if dd := l.peakEquity - l.equity; dd > l.maxDrawdown {
		l.maxDrawdown = dd
	}
}

// Close realizes a position at exitPrice, removes it, and returns the
// immutable record. Balance, total and daily realized P/L move here and only
// here. The record also goes to the journal; a journal failure is reported
// alongside the record and never unwinds the accounting.
func (l *Ledger) Close(positionID string, exitPrice float64, reason string) (ClosedTrade, error) {
	if reason == "" {
		reason = CloseManual
	}

	l.mu.Lock()

	l.resetDailyLocked()

	p, ok := l.positions[positionID]
	if !ok {
		l.mu.Unlock()
		return ClosedTrade{}, fmt.Errorf("close %q: %w", positionID, ErrPositionNotFound)
	}

	realized := pl(p.Side, p.EntryPrice, exitPrice, p.Lots, l.catalog.Meta(p.Instrument).ContractSize)

	l.balance += realized
	l.totalRealizedPL += realized
	l.dailyRealizedPL += realized

	delete(l.positions, positionID)
	l.recomputeEquityLocked()

	rec := ClosedTrade{
		PositionID: p.ID,
		Instrument: p.Instrument,
		Side:       p.Side,
		Lots:       p.Lots,
		EntryPrice: p.EntryPrice,
		ExitPrice:  exitPrice,
		OpenedAt:   p.OpenedAt,
		ClosedAt:   l.now(),
		RealizedPL: realized,
		Reason:     reason,
	}

	j := l.journal
	l.mu.Unlock()

	if err := j.RecordTrade(journal.TradeRecord{
		PositionID: rec.PositionID,
		Instrument: rec.Instrument,
		Side:       rec.Side.String(),
		Lots:       rec.Lots,
		EntryPrice: rec.EntryPrice,
		ExitPrice:  rec.ExitPrice,
		OpenedAt:   rec.OpenedAt,
		ClosedAt:   rec.ClosedAt,
		RealizedPL: rec.RealizedPL,
		Reason:     rec.Reason,
	}); err != nil {
		return rec, fmt.Errorf("record trade %s: %w", rec.PositionID, err)
	}

	return rec, nil
}

func (l *Ledger) recomputeEquityLocked() {
	eq := l.balance
	for _, p := range l.positions {
		eq += p.UnrealizedPL
	}
	l.equity = eq
}

func (l *Ledger) marginUsedLocked() float64 {
	var used float64
	for _, p := range l.positions {
		meta := l.catalog.Meta(p.Instrument)
		used += p.Lots * meta.ContractSize * p.EntryPrice * meta.MarginRate
	}
	return used
}

func (l *Ledger) freeMarginLocked() float64 {
	return l.equity - l.marginUsedLocked()
}

// PlannedMargin is the margin a prospective position would reserve, for
// feeding CanOpen before any position exists.
func (l *Ledger) PlannedMargin(instrument string, lots, entryPrice float64) float64 {
	meta := l.catalog.Meta(instrument)
	return lots * meta.ContractSize * entryPrice * meta.MarginRate
}

func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.equity
}

func (l *Ledger) PeakEquity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peakEquity
}

func (l *Ledger) MaxDrawdown() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxDrawdown
}

func (l *Ledger) TotalRealizedPL() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalRealizedPL
}

func (l *Ledger) MarginUsed() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.marginUsedLocked()
}

func (l *Ledger) FreeMargin() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.freeMarginLocked()
}

func (l *Ledger) PositionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.positions)
}

// Position returns a copy of one open position.
func (l *Ledger) Position(positionID string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.positions[positionID]
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// Positions returns copies of all open positions sorted by id. Ids are
// ULIDs, so the sort order is open order, which keeps replay deterministic.
func (l *Ledger) Positions() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Daily returns the current window's trade count and realized P/L.
func (l *Ledger) Daily() (trades int, realizedPL float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetDailyLocked()
	return l.dailyTradeCount, l.dailyRealizedPL
}

func (l *Ledger) Config() risk.Config {
	return l.cfg
}

// Catalog exposes the instrument metadata the ledger prices against, so
// hosts size and margin with the same numbers the ledger settles with.
func (l *Ledger) Catalog() *market.Catalog {
	return l.catalog
}

// AccountState is an atomic read of the ledger's headline numbers.
type AccountState struct {
	Balance         float64
	Equity          float64
	PeakEquity      float64
	MaxDrawdown     float64
	MarginUsed      float64
	FreeMargin      float64
	OpenPositions   int
	DailyTrades     int
	DailyRealizedPL float64
	TotalRealizedPL float64
}

func (l *Ledger) Account() AccountState {
	l.mu.Lock()
	defer l.mu.Unlock()
	used := l.marginUsedLocked()
	return AccountState{
		Balance:         l.balance,
		Equity:          l.equity,
		PeakEquity:      l.peakEquity,
		MaxDrawdown:     l.maxDrawdown,
		MarginUsed:      used,
		FreeMargin:      l.equity - used,
		OpenPositions:   len(l.positions),
		DailyTrades:     l.dailyTradeCount,
		DailyRealizedPL: l.dailyRealizedPL,
		TotalRealizedPL: l.totalRealizedPL,
	}
}
