package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PositionState is the serialized form of an open position. Side travels as
// a string so snapshots stay readable and diffable.
type PositionState struct {
	ID           string    `json:"id"`
	Instrument   string    `json:"instrument"`
	Side         string    `json:"side"`
	EntryPrice   float64   `json:"entry_price"`
	CurrentPrice float64   `json:"current_price"`
	Lots         float64   `json:"lots"`
	StopLoss     float64   `json:"stop_loss,omitempty"`
	TakeProfit   float64   `json:"take_profit,omitempty"`
	OpenedAt     time.Time `json:"opened_at"`
}

// Snapshot is everything needed to resume an account: balance, the
// peak/drawdown pair, the daily window, and the open positions. Equity and
// unrealized P/L are derived and deliberately absent; Restore recomputes
// them.
type Snapshot struct {
	SavedAt         time.Time       `json:"saved_at"`
	Balance         float64         `json:"balance"`
	PeakEquity      float64         `json:"peak_equity"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	TotalRealizedPL float64         `json:"total_realized_pl"`
	Day             string          `json:"day,omitempty"`
	DailyTrades     int             `json:"daily_trades"`
	DailyRealizedPL float64         `json:"daily_realized_pl"`
	Positions       []PositionState `json:"positions"`
}

// ExportState captures the ledger for persistence. Positions come out in id
// order.
func (l *Ledger) ExportState() Snapshot {
	ps := l.Positions()

	l.mu.Lock()
	defer l.mu.Unlock()

	s := Snapshot{
		SavedAt:         l.now(),
		Balance:         l.balance,
		PeakEquity:      l.peakEquity,
		MaxDrawdown:     l.maxDrawdown,
		TotalRealizedPL: l.totalRealizedPL,
		Day:             l.day,
		DailyTrades:     l.dailyTradeCount,
		DailyRealizedPL: l.dailyRealizedPL,
		Positions:       make([]PositionState, 0, len(ps)),
	}
	for _, p := range ps {
		s.Positions = append(s.Positions, PositionState{
			ID:           p.ID,
			Instrument:   p.Instrument,
			Side:         p.Side.String(),
			EntryPrice:   p.EntryPrice,
			CurrentPrice: p.CurrentPrice,
			Lots:         p.Lots,
			StopLoss:     p.StopLoss,
			TakeProfit:   p.TakeProfit,
			OpenedAt:     p.OpenedAt,
		})
	}
	return s
}

// Restore replaces the ledger's state with the snapshot's. The snapshot is
// validated first and a failed Restore leaves the ledger untouched. Equity
// and per-position unrealized P/L are recomputed from the restored prices
// rather than trusted from disk.
func (l *Ledger) Restore(s Snapshot) error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make(map[string]*Position, len(s.Positions))
	for _, ps := range s.Positions {
		side, _ := ParseSide(ps.Side)
		p := &Position{
			ID:           ps.ID,
			Instrument:   ps.Instrument,
			Side:         side,
			EntryPrice:   ps.EntryPrice,
			CurrentPrice: ps.CurrentPrice,
			Lots:         ps.Lots,
			StopLoss:     ps.StopLoss,
			TakeProfit:   ps.TakeProfit,
			OpenedAt:     ps.OpenedAt,
		}
		if p.CurrentPrice <= 0 {
			p.CurrentPrice = p.EntryPrice
		}
		p.MarkToMarket(p.CurrentPrice, l.catalog.Meta(p.Instrument).ContractSize)
		positions[p.ID] = p
	}

	l.balance = s.Balance
	l.peakEquity = s.PeakEquity
	l.maxDrawdown = s.MaxDrawdown
	l.totalRealizedPL = s.TotalRealizedPL
	l.dailyTradeCount = s.DailyTrades
	l.dailyRealizedPL = s.DailyRealizedPL
	l.day = s.Day
	if l.day == "" {
		l.day = dayOf(l.now())
	}
	l.positions = positions
	l.recomputeEquityLocked()

	return nil
}

func (s Snapshot) validate() error {
	if s.PeakEquity < 0 {
		return fmt.Errorf("peak equity %v is negative", s.PeakEquity)
	}
	if s.MaxDrawdown < 0 {
		return fmt.Errorf("max drawdown %v is negative", s.MaxDrawdown)
	}
	if s.DailyTrades < 0 {
		return fmt.Errorf("daily trade count %d is negative", s.DailyTrades)
	}
	if s.Day != "" {
		if _, err := time.Parse("2006-01-02", s.Day); err != nil {
			return fmt.Errorf("day %q: want YYYY-MM-DD", s.Day)
		}
	}

	ids := make(map[string]bool, len(s.Positions))
	instruments := make(map[string]bool, len(s.Positions))
	for i, p := range s.Positions {
		if p.ID == "" {
			return fmt.Errorf("position %d: empty id", i)
		}
		if ids[p.ID] {
			return fmt.Errorf("position %d: duplicate id %s", i, p.ID)
		}
		ids[p.ID] = true
		if p.Instrument == "" {
			return fmt.Errorf("position %s: empty instrument", p.ID)
		}
		if instruments[p.Instrument] {
			return fmt.Errorf("position %s: second open position on %s", p.ID, p.Instrument)
		}
		instruments[p.Instrument] = true
		if _, ok := ParseSide(p.Side); !ok {
			return fmt.Errorf("position %s: bad side %q", p.ID, p.Side)
		}
		if p.EntryPrice <= 0 {
			return fmt.Errorf("position %s: entry price %v", p.ID, p.EntryPrice)
		}
		if p.Lots <= 0 {
			return fmt.Errorf("position %s: lots %v", p.ID, p.Lots)
		}
	}
	return nil
}

// SaveState writes a snapshot as indented JSON.
func SaveState(path string, s Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// LoadState reads a snapshot written by SaveState.
func LoadState(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read state: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse state %s: %w", path, err)
	}
	return s, nil
}
