package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradekit/riskledger/journal"
	"github.com/tradekit/riskledger/market"
	"github.com/tradekit/riskledger/risk"
)

type testJournal struct {
	trades []journal.TradeRecord
	equity []journal.EquityPoint
	closed bool
}

func (j *testJournal) RecordTrade(rec journal.TradeRecord) error {
	j.trades = append(j.trades, rec)
	return nil
}

func (j *testJournal) RecordEquity(rec journal.EquityPoint) error {
	j.equity = append(j.equity, rec)
	return nil
}

func (j *testJournal) Close() error {
	j.closed = true
	return nil
}

type failingJournal struct{ testJournal }

func (j *failingJournal) RecordTrade(journal.TradeRecord) error {
	return errors.New("disk full")
}

func newTestLedger(t *testing.T) (*Ledger, *testJournal) {
	t.Helper()
	j := &testJournal{}
	return New(risk.DefaultConfig(10000), market.DefaultCatalog(), j), j
}

func open(t *testing.T, l *Ledger, instrument string, side Side, entry, lots, stop, take float64) string {
	t.Helper()
	id, err := l.Open(instrument, side, entry, lots, stop, take)
	require.NoError(t, err)
	return id
}

func TestOpenValidation(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	_, err := l.Open("EUR_USD", Long, 1.1000, 0, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = l.Open("EUR_USD", Long, 1.1000, -0.5, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = l.Open("EUR_USD", Long, 0, 0.4, 0, 0)
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Equal(t, 0, l.PositionCount())
	trades, _ := l.Daily()
	assert.Equal(t, 0, trades)
}

func TestOpenCloseRoundTrip(t *testing.T) {
	t.Parallel()

	l, j := newTestLedger(t)

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.4, 1.0950, 1.1100)

	p, ok := l.Position(id)
	require.True(t, ok)
	assert.Equal(t, "EUR_USD", p.Instrument)
	assert.InDelta(t, 1.1000, p.CurrentPrice, 1e-9) // current starts at entry
	assert.InDelta(t, 0.0, p.UnrealizedPL, 1e-9)

	rec, err := l.Close(id, 1.1100, CloseTakeProfit)
	require.NoError(t, err)

	// +100 pips on 0.4 lots of a 100k contract
	assert.InDelta(t, 400.0, rec.RealizedPL, 1e-6)
	assert.Equal(t, CloseTakeProfit, rec.Reason)
	assert.Equal(t, Long, rec.Side)
	assert.True(t, rec.Win())

	assert.InDelta(t, 10400.0, l.Balance(), 1e-6)
	assert.InDelta(t, 10400.0, l.Equity(), 1e-6)
	assert.InDelta(t, 400.0, l.TotalRealizedPL(), 1e-6)
	assert.Equal(t, 0, l.PositionCount())

	require.Len(t, j.trades, 1)
	assert.Equal(t, id, j.trades[0].PositionID)
	assert.Equal(t, "long", j.trades[0].Side)
	assert.InDelta(t, 400.0, j.trades[0].RealizedPL, 1e-6)
}

func TestShortRealizedPL(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	id := open(t, l, "USD_JPY", Short, 150.00, 0.2, 150.50, 149.00)

	rec, err := l.Close(id, 149.00, CloseTakeProfit)
	require.NoError(t, err)

	// short profits as price falls: (150.00-149.00) * 0.2 * 100k
	assert.InDelta(t, 20000.0, rec.RealizedPL, 1e-6)
	assert.InDelta(t, 30000.0, l.Balance(), 1e-6)
}

func TestBalanceConservation(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)
	start := l.Balance()

	var realized float64
	steps := []struct {
		instrument string
		side       Side
		entry      float64
		exit       float64
		lots       float64
	}{
		{"EUR_USD", Long, 1.1000, 1.1050, 0.3},
		{"GBP_USD", Short, 1.2500, 1.2550, 0.2},
		{"EUR_USD", Long, 1.1040, 1.0990, 0.5},
		{"USD_JPY", Short, 150.00, 148.75, 0.1},
	}

	for _, s := range steps {
		id := open(t, l, s.instrument, s.side, s.entry, s.lots, 0, 0)
		rec, err := l.Close(id, s.exit, CloseSignal)
		require.NoError(t, err)
		realized += rec.RealizedPL
	}

	assert.InDelta(t, start+realized, l.Balance(), 1e-6)
	assert.InDelta(t, realized, l.TotalRealizedPL(), 1e-6)
}

func TestCloseUnknownPosition(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	_, err := l.Close("01JUNKID", 1.1000, CloseManual)
	assert.ErrorIs(t, err, ErrPositionNotFound)

	// double close
	id := open(t, l, "EUR_USD", Long, 1.1000, 0.1, 0, 0)
	_, err = l.Close(id, 1.1000, CloseManual)
	require.NoError(t, err)
	_, err = l.Close(id, 1.1000, CloseManual)
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestCloseDefaultsReason(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.1, 0, 0)
	rec, err := l.Close(id, 1.1000, "")
	require.NoError(t, err)
	assert.Equal(t, CloseManual, rec.Reason)
}

func TestJournalFailureKeepsAccounting(t *testing.T) {
	t.Parallel()

	j := &failingJournal{}
	l := New(risk.DefaultConfig(10000), market.DefaultCatalog(), j)

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.4, 0, 0)

	rec, err := l.Close(id, 1.1100, CloseManual)
	assert.Error(t, err)

	// the close itself stands: record returned, balance moved, position gone
	assert.InDelta(t, 400.0, rec.RealizedPL, 1e-6)
	assert.InDelta(t, 10400.0, l.Balance(), 1e-6)
	assert.Equal(t, 0, l.PositionCount())
}

func TestMarkToMarketEquity(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	open(t, l, "EUR_USD", Long, 1.1000, 0.4, 0, 0)
	open(t, l, "GBP_USD", Short, 1.2500, 0.2, 0, 0)

	l.MarkToMarket(map[string]float64{
		"EUR_USD": 1.1050, // +200
		"GBP_USD": 1.2450, // +100
	})

	assert.InDelta(t, 10300.0, l.Equity(), 1e-6)
	assert.InDelta(t, 10000.0, l.Balance(), 1e-6) // balance untouched by marks

	// unknown instruments in the map are ignored, missing ones keep their price
	l.MarkToMarket(map[string]float64{"USD_JPY": 150.0})
	assert.InDelta(t, 10300.0, l.Equity(), 1e-6)
}

func TestPeakAndDrawdown(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	open(t, l, "EUR_USD", Long, 1.1000, 1.0, 0, 0)

	// equity 10000 -> 9000 -> 9500: the dip sets the drawdown, the partial
	// recovery must not shrink it, and the peak stays where it was.
	l.MarkToMarket(map[string]float64{"EUR_USD": 1.0900})
	assert.InDelta(t, 9000.0, l.Equity(), 1e-6)
	assert.InDelta(t, 10000.0, l.PeakEquity(), 1e-6)
	assert.InDelta(t, 1000.0, l.MaxDrawdown(), 1e-6)

	l.MarkToMarket(map[string]float64{"EUR_USD": 1.0950})
	assert.InDelta(t, 9500.0, l.Equity(), 1e-6)
	assert.InDelta(t, 10000.0, l.PeakEquity(), 1e-6)
	assert.InDelta(t, 1000.0, l.MaxDrawdown(), 1e-6)

	// new high moves the peak and leaves the drawdown alone
	l.MarkToMarket(map[string]float64{"EUR_USD": 1.1150})
	assert.InDelta(t, 11500.0, l.PeakEquity(), 1e-6)
	assert.InDelta(t, 1000.0, l.MaxDrawdown(), 1e-6)

	// a dip smaller than the worst one changes nothing
	l.MarkToMarket(map[string]float64{"EUR_USD": 1.1100})
	assert.InDelta(t, 11500.0, l.PeakEquity(), 1e-6)
	assert.InDelta(t, 1000.0, l.MaxDrawdown(), 1e-6)
}

func TestPeakAndDrawdownMonotonic(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)
	open(t, l, "EUR_USD", Long, 1.1000, 1.0, 0, 0)

	prices := []float64{1.1030, 1.0910, 1.1120, 1.0840, 1.1200, 1.0990, 1.1310}
	lastPeak, lastDD := l.PeakEquity(), l.MaxDrawdown()
	for _, px := range prices {
		l.MarkToMarket(map[string]float64{"EUR_USD": px})
		peak, dd := l.PeakEquity(), l.MaxDrawdown()
		assert.GreaterOrEqual(t, peak, lastPeak)
		assert.GreaterOrEqual(t, dd, lastDD)
		lastPeak, lastDD = peak, dd
	}
}

func TestMarginAccounting(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	assert.InDelta(t, 0.0, l.MarginUsed(), 1e-9)
	assert.InDelta(t, 10000.0, l.FreeMargin(), 1e-6)

	// 0.4 lots x 100k x 1.1000 x 2% margin rate
	open(t, l, "EUR_USD", Long, 1.1000, 0.4, 0, 0)
	assert.InDelta(t, 880.0, l.MarginUsed(), 1e-6)
	assert.InDelta(t, 9120.0, l.FreeMargin(), 1e-6)

	assert.InDelta(t, 880.0, l.PlannedMargin("EUR_USD", 0.4, 1.1000), 1e-6)

	acct := l.Account()
	assert.InDelta(t, 880.0, acct.MarginUsed, 1e-6)
	assert.InDelta(t, acct.Equity-acct.MarginUsed, acct.FreeMargin, 1e-9)
	assert.Equal(t, 1, acct.OpenPositions)
}

func TestCanOpenAllowed(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	ok, reason := l.CanOpen("EUR_USD", 880)
	assert.True(t, ok)
	assert.Equal(t, ReasonAllowed, reason)
}

func TestCanOpenPrecedence(t *testing.T) {
	t.Parallel()

	// Both the daily loss limit and the position limit are breached; the
	// daily loss must win because it is checked first.
	cfg := risk.DefaultConfig(10000)
	cfg.MaxPositions = 1
	cfg.MaxDailyLoss = 500
	l := New(cfg, market.DefaultCatalog(), nil)

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.4, 0, 0)
	_, err := l.Close(id, 1.0800, CloseStopLoss) // realized -800
	require.NoError(t, err)

	open(t, l, "GBP_USD", Long, 1.2500, 0.1, 0, 0) // fills the position limit

	ok, reason := l.CanOpen("USD_JPY", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonDailyLossLimit, reason)
}

func TestCanOpenDrawdownLimit(t *testing.T) {
	t.Parallel()

	cfg := risk.DefaultConfig(10000)
	cfg.MaxDrawdown = 2000
	l := New(cfg, market.DefaultCatalog(), nil)

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.4, 0, 0)
	l.MarkToMarket(map[string]float64{"EUR_USD": 1.0500}) // equity 8000, dd 2000

	ok, reason := l.CanOpen("GBP_USD", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonDrawdownLimit, reason)

	// max drawdown never decreases, so the gate stays shut even after the
	// losing position is gone
	_, err := l.Close(id, 1.0500, CloseStopLoss)
	require.NoError(t, err)
	ok, reason = l.CanOpen("GBP_USD", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonDrawdownLimit, reason)
}

func TestCanOpenPositionLimit(t *testing.T) {
	t.Parallel()

	cfg := risk.DefaultConfig(10000)
	cfg.MaxPositions = 1
	l := New(cfg, market.DefaultCatalog(), nil)

	open(t, l, "EUR_USD", Long, 1.1000, 0.1, 0, 0)

	ok, reason := l.CanOpen("GBP_USD", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonPositionLimit, reason)
}

func TestCanOpenDailyTradeLimit(t *testing.T) {
	t.Parallel()

	cfg := risk.DefaultConfig(10000)
	cfg.MaxDailyTrades = 2
	l := New(cfg, market.DefaultCatalog(), nil)

	for i := 0; i < 2; i++ {
		id := open(t, l, "EUR_USD", Long, 1.1000, 0.1, 0, 0)
		_, err := l.Close(id, 1.1000, CloseManual) // flat, no daily loss
		require.NoError(t, err)
	}

	ok, reason := l.CanOpen("EUR_USD", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonDailyTradeLimit, reason)
}

func TestCanOpenDuplicateInstrument(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.1, 0, 0)

	ok, reason := l.CanOpen("EUR_USD", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonDuplicateInstrument, reason)

	// a different instrument is fine
	ok, _ = l.CanOpen("GBP_USD", 10)
	assert.True(t, ok)

	// and the same one again once the position is closed
	_, err := l.Close(id, 1.1000, CloseManual)
	require.NoError(t, err)
	ok, _ = l.CanOpen("EUR_USD", 10)
	assert.True(t, ok)
}

func TestCanOpenInsufficientMargin(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	ok, reason := l.CanOpen("EUR_USD", 10001)
	assert.False(t, ok)
	assert.Equal(t, ReasonInsufficientMargin, reason)

	ok, _ = l.CanOpen("EUR_USD", 9999)
	assert.True(t, ok)
}

func TestCanOpenZeroLimitsUnlimited(t *testing.T) {
	t.Parallel()

	cfg := risk.Config{Balance: 1000, MaxRiskPerTrade: 0.02, MinLots: 0.01, MaxLots: 1}
	l := New(cfg, market.DefaultCatalog(), nil)

	instruments := []string{"AAA_USD", "BBB_USD", "CCC_USD", "DDD_USD", "EEE_USD"}
	for _, inst := range instruments {
		ok, reason := l.CanOpen(inst, 1)
		require.True(t, ok, "reason %s", reason)
		open(t, l, inst, Long, 100, 0.1, 0, 0)
	}
	assert.Equal(t, len(instruments), l.PositionCount())
}

func TestDailyReset(t *testing.T) {
	t.Parallel()

	cfg := risk.DefaultConfig(10000)
	cfg.MaxDailyLoss = 500
	l := New(cfg, market.DefaultCatalog(), nil)

	day1 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := day1
	l.SetClock(func() time.Time { return now })

	id := open(t, l, "EUR_USD", Long, 1.1000, 0.4, 0, 0)
	_, err := l.Close(id, 1.0800, CloseStopLoss) // -800 on the day
	require.NoError(t, err)

	trades, realized := l.Daily()
	assert.Equal(t, 1, trades)
	assert.InDelta(t, -800.0, realized, 1e-6)

	ok, reason := l.CanOpen("EUR_USD", 10)
	assert.False(t, ok)
	assert.Equal(t, ReasonDailyLossLimit, reason)

	// crossing midnight UTC clears the day's counters on the next call
	now = day1.Add(24 * time.Hour)

	ok, reason = l.CanOpen("EUR_USD", 10)
	assert.True(t, ok, "reason %s", reason)

	trades, realized = l.Daily()
	assert.Equal(t, 0, trades)
	assert.InDelta(t, 0.0, realized, 1e-9)

	// lifetime totals survive the rollover
	assert.InDelta(t, -800.0, l.TotalRealizedPL(), 1e-6)
	assert.InDelta(t, 9200.0, l.Balance(), 1e-6)
}

func TestPositionsSortedCopies(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	id1 := open(t, l, "EUR_USD", Long, 1.1000, 0.1, 0, 0)
	id2 := open(t, l, "GBP_USD", Short, 1.2500, 0.1, 0, 0)
	id3 := open(t, l, "USD_JPY", Long, 150.00, 0.1, 0, 0)

	ps := l.Positions()
	require.Len(t, ps, 3)
	assert.Equal(t, []string{id1, id2, id3}, []string{ps[0].ID, ps[1].ID, ps[2].ID})

	// mutating the copies must not touch the ledger
	ps[0].Lots = 99
	p, ok := l.Position(id1)
	require.True(t, ok)
	assert.InDelta(t, 0.1, p.Lots, 1e-9)
}
