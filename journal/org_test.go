package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	out := FormatTradeOrg(TradeRecord{
		PositionID: "01HXYZABCDEF",
		Instrument: "EUR_USD",
		Side:       "long",
		Lots:       0.4,
		EntryPrice: 1.1,
		ExitPrice:  1.11,
		OpenedAt:   time.Date(2026, 3, 2, 13, 30, 0, 0, time.UTC),
		ClosedAt:   time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC),
		RealizedPL: 400,
		Reason:     "TakeProfit",
	})

	assert.True(t, strings.HasPrefix(out, "** Trade: EUR_USD long (01HXYZAB)"), out)
	assert.Contains(t, out, ":POSITION_ID: 01HXYZABCDEF")
	assert.Contains(t, out, ":LOTS: 0.40")
	assert.Contains(t, out, ":ENTRY_PRICE: 1.10000")
	assert.Contains(t, out, ":EXIT_PRICE: 1.11000")
	assert.Contains(t, out, ":OPENED_AT: 2026-03-02T13:30:00Z")
	assert.Contains(t, out, ":REALIZED_PL: 400.00")
	assert.Contains(t, out, ":REASON: TakeProfit")
	assert.Contains(t, out, "*** Thesis")
	assert.Contains(t, out, "*** Review")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatTradesOrg(nil))

	two := FormatTradesOrg([]TradeRecord{
		{PositionID: "01AAA", Instrument: "EUR_USD", Side: "long"},
		{PositionID: "01BBB", Instrument: "USD_JPY", Side: "short"},
	})
	assert.Equal(t, 2, strings.Count(two, "** Trade:"))
}

func TestShortID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "01HXYZAB", shortID("01HXYZABCDEF"))
	assert.Equal(t, "short", shortID("short"))
}
