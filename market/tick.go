package market

import (
	"errors"
	"sync"
	"time"
)

// Tick is one bid/ask quote for an instrument.
type Tick struct {
	Instrument string
	Time       time.Time
	Bid        float64
	Ask        float64
}

func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

var ErrNoTick = errors.New("no tick for instrument")

// TickStore holds the latest tick per instrument. Hosts that drive the engine
// from a live or replayed feed keep their most recent quotes here.
type TickStore struct {
	mu    sync.RWMutex
	ticks map[string]Tick
}

func NewTickStore() *TickStore {
	return &TickStore{ticks: make(map[string]Tick)}
}

func (s *TickStore) Set(t Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[t.Instrument] = t
}

func (s *TickStore) Get(instrument string) (Tick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.ticks[instrument]
	if !ok {
		return Tick{}, ErrNoTick
	}
	return t, nil
}

// Mids returns instrument -> mid price for every stored tick, in the shape
// the ledger's mark-to-market expects.
func (s *TickStore) Mids() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.ticks))
	for name, t := range s.ticks {
		out[name] = t.Mid()
	}
	return out
}
