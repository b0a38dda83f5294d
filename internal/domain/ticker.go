package domain

import (
	"fmt"
	"strconv"
)

// TickerEntry is the raw per-pair value of a REST ticker snapshot.
// Kraken encodes numbers as strings inside positional arrays.
type TickerEntry struct {
	PairID string
	Close  []string // c: [price, lot volume]
	Volume []string // v: [today, last 24 hours]
}

// LastPrice returns the last trade price, c[0].
func (e TickerEntry) LastPrice() (float64, error) {
	return parseAt(e.Close, 0, "c")
}

// BaseVolume24h returns the rolling 24h volume in base currency, v[1].
func (e TickerEntry) BaseVolume24h() (float64, error) {
	return parseAt(e.Volume, 1, "v")
}

func parseAt(values []string, idx int, field string) (float64, error) {
	if idx >= len(values) {
		return 0, fmt.Errorf("%s[%d]: %w", field, idx, ErrFieldMissing)
	}
	v, err := strconv.ParseFloat(values[idx], 64)
	if err != nil {
		return 0, fmt.Errorf("%s[%d]=%q: %w", field, idx, values[idx], ErrFieldInvalid)
	}
	return v, nil
}

// TickerSnapshot maps pair ID to its ticker entry, preserving insertion order.
// It is populated once per run and treated as read-only afterwards.
type TickerSnapshot struct {
	order   []string
	entries map[string]TickerEntry
}

// NewTickerSnapshot creates an empty snapshot.
func NewTickerSnapshot() *TickerSnapshot {
	return &TickerSnapshot{entries: make(map[string]TickerEntry)}
}

// Add inserts an entry. Re-adding an existing ID replaces the value in place.
func (s *TickerSnapshot) Add(e TickerEntry) {
	if _, ok := s.entries[e.PairID]; !ok {
		s.order = append(s.order, e.PairID)
	}
	s.entries[e.PairID] = e
}

// Get returns the entry for a pair ID.
func (s *TickerSnapshot) Get(pairID string) (TickerEntry, bool) {
	e, ok := s.entries[pairID]
	return e, ok
}

// Entries returns all entries in insertion order.
func (s *TickerSnapshot) Entries() []TickerEntry {
	out := make([]TickerEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Len returns the number of entries.
func (s *TickerSnapshot) Len() int {
	return len(s.order)
}
