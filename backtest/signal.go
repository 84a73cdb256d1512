package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tradekit/riskledger/ledger"
)

// Signal is an entry request from a signal source: what to trade, which way,
// and the suggested levels. Confidence is opaque to the engine; it is
// carried for the caller's own filtering and plays no part in admission or
// sizing.
type Signal struct {
	Time       time.Time
	Instrument string
	Side       ledger.Side
	StopLoss   float64
	TakeProfit float64
	Confidence float64
}

// SignalFunc is the runner's entry hook, called once per bar after exits
// have been processed. Returning nil means no entries this bar.
type SignalFunc func(Bar) []Signal

// Replay feeds a pre-recorded signal list into a run: each signal fires on
// the first bar of its instrument at or after the signal's timestamp, and
// fires once.
type Replay struct {
	pending []Signal
}

func NewReplay(signals []Signal) *Replay {
	s := make([]Signal, len(signals))
	copy(s, signals)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
	return &Replay{pending: s}
}

func (r *Replay) Func() SignalFunc {
	return func(b Bar) []Signal {
		var due []Signal
		keep := r.pending[:0]
		for _, s := range r.pending {
			if s.Instrument == b.Instrument && !s.Time.After(b.Time) {
				due = append(due, s)
			} else {
				keep = append(keep, s)
			}
		}
		r.pending = keep
		return due
	}
}

// Pending returns how many signals have not fired yet.
func (r *Replay) Pending() int {
	return len(r.pending)
}

// LoadCSVSignals reads signal rows:
//
//	time,instrument,side,stop_loss,take_profit[,confidence]
//
// where time is RFC3339 or "2006-01-02 15:04:05" (UTC) and side is
// long/short (buy/sell also accepted). A header row is allowed; empty and
// short rows are skipped.
func LoadCSVSignals(path string) ([]Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var (
		out      []Signal
		sawFirst bool
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		s, ok, err := parseSignalRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, s)
	}
}

func parseSignalRow(row []string) (Signal, bool, error) {
	// Need at least: time,instrument,side,stop_loss,take_profit
	if len(row) < 5 {
		return Signal{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Signal{}, false, nil
	}
	t, err := parseTime(ts)
	if err != nil {
		return Signal{}, false, fmt.Errorf("bad time %q: %w", ts, err)
	}

	inst := strings.TrimSpace(row[1])
	if inst == "" {
		return Signal{}, false, nil
	}

	side, ok := ledger.ParseSide(strings.TrimSpace(row[2]))
	if !ok {
		return Signal{}, false, fmt.Errorf("bad side %q", row[2])
	}

	stop, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return Signal{}, false, fmt.Errorf("bad stop_loss %q: %w", row[3], err)
	}
	take, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil {
		return Signal{}, false, fmt.Errorf("bad take_profit %q: %w", row[4], err)
	}

	var conf float64
	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		conf, err = strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return Signal{}, false, fmt.Errorf("bad confidence %q: %w", row[5], err)
		}
	}

	return Signal{
		Time:       t,
		Instrument: inst,
		Side:       side,
		StopLoss:   stop,
		TakeProfit: take,
		Confidence: conf,
	}, true, nil
}
