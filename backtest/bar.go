// Package backtest replays historical bars through a ledger, sizing entries
// from signals and closing positions as their levels trigger, then reports
// the run's performance statistics.
package backtest

import "time"

// Bar is one OHLC row of the replay dataset. The runner marks positions at
// the bar close; the full candle is carried so feeds stay lossless.
type Bar struct {
	Time       time.Time
	Instrument string
	Open       float64
	High       float64
	Low        float64
	Close      float64
}
