package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// Trade returns a single record by position id.
func (j *SQLite) Trade(positionID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT position_id, instrument, side, lots, entry_price, exit_price, opened_at, closed_at, realized_pl, reason
		FROM trades
		WHERE position_id = ?`, positionID)

	var rec TradeRecord
	err := row.Scan(
		&rec.PositionID,
		&rec.Instrument,
		&rec.Side,
		&rec.Lots,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenedAt,
		&rec.ClosedAt,
		&rec.RealizedPL,
		&rec.Reason,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", positionID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// Trades returns every record in close order.
func (j *SQLite) Trades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT position_id, instrument, side, lots, entry_price, exit_price, opened_at, closed_at, realized_pl, reason
		FROM trades
		ORDER BY closed_at ASC, position_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

// TradesClosedBetween returns trades whose close time is within [start, end).
func (j *SQLite) TradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT position_id, instrument, side, lots, entry_price, exit_price, opened_at, closed_at, realized_pl, reason
		FROM trades
		WHERE closed_at >= ? AND closed_at < ?
		ORDER BY closed_at ASC, position_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrades(rows)
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.PositionID,
			&rec.Instrument,
			&rec.Side,
			&rec.Lots,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.OpenedAt,
			&rec.ClosedAt,
			&rec.RealizedPL,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EquityBetween returns equity samples within [start, end) in time order.
func (j *SQLite) EquityBetween(start, end time.Time) ([]EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT time, balance, equity, margin_used, free_margin, drawdown
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var e EquityPoint
		if err := rows.Scan(
			&e.Time,
			&e.Balance,
			&e.Equity,
			&e.MarginUsed,
			&e.FreeMargin,
			&e.Drawdown,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TradeStats are the aggregate figures the journal can answer directly from
// SQL. A profit factor of 0 means the sample had no losing trades.
type TradeStats struct {
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	NetPL        float64
	ProfitFactor float64
}

// Stats aggregates over every recorded trade.
func (j *SQLite) Stats() (TradeStats, error) {
	row := j.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN realized_pl > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN realized_pl < 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN realized_pl > 0 THEN realized_pl ELSE 0 END), 0),
			COALESCE(-SUM(CASE WHEN realized_pl < 0 THEN realized_pl ELSE 0 END), 0),
			COALESCE(SUM(realized_pl), 0)
		FROM trades`)

	var s TradeStats
	if err := row.Scan(&s.Trades, &s.Wins, &s.Losses, &s.GrossProfit, &s.GrossLoss, &s.NetPL); err != nil {
		return TradeStats{}, err
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}
	return s, nil
}
