package ledger

import "sort"

// Exit names a position due to close, the price to close it at, and why.
// Scanning proposes exits; Close executes them.
type Exit struct {
	PositionID string
	Instrument string
	Price      float64
	Reason     string
}

// ScanExits checks every open position's current price against its stop-loss
// and take-profit and returns the positions whose levels have been reached.
// Prices are whatever the last MarkToMarket left behind, so callers mark
// first, scan second. Per position the stop is checked before the take. A
// zero level is unarmed.
//
// The scan reads only; nothing closes until the caller acts on the result.
// Results come back sorted by position id, which for ULIDs is open order,
// keeping replay deterministic.
func (l *Ledger) ScanExits() []Exit {
	l.mu.Lock()
	defer l.mu.Unlock()

	var exits []Exit
	for _, p := range l.positions {
		if reason, hit := exitFor(p); hit {
			exits = append(exits, Exit{
				PositionID: p.ID,
				Instrument: p.Instrument,
				Price:      p.CurrentPrice,
				Reason:     reason,
			})
		}
	}
	sort.Slice(exits, func(i, j int) bool { return exits[i].PositionID < exits[j].PositionID })
	return exits
}

// exitFor applies the level checks for one position. Long stops trigger at
// or below the stop and takes at or above the take; shorts mirror both
// comparisons.
func exitFor(p *Position) (string, bool) {
	px := p.CurrentPrice
	switch p.Side {
	case Long:
		if p.StopLoss > 0 && px <= p.StopLoss {
			return CloseStopLoss, true
		}
		if p.TakeProfit > 0 && px >= p.TakeProfit {
			return CloseTakeProfit, true
		}
	case Short:
		if p.StopLoss > 0 && px >= p.StopLoss {
			return CloseStopLoss, true
		}
		if p.TakeProfit > 0 && px <= p.TakeProfit {
			return CloseTakeProfit, true
		}
	}
	return "", false
}
