package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

// TickerRecordStore is an in-memory implementation of storage.TickerRecordStore.
type TickerRecordStore struct {
	mu      sync.RWMutex
	records []*domain.LiveTickerRecord // insertion order
	bulks   int
}

// NewTickerRecordStore creates a new in-memory ticker record store.
func NewTickerRecordStore() *TickerRecordStore {
	return &TickerRecordStore{}
}

// InsertBulk appends records atomically. Fails entire batch on any invalid record.
func (s *TickerRecordStore) InsertBulk(_ context.Context, records []*domain.LiveTickerRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.ValidateTickerRecords(records); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		copy := *r
		s.records = append(s.records, &copy)
	}
	s.bulks++
	return nil
}

// GetBySession retrieves all records of a session, ordered by timestamp ASC.
func (s *TickerRecordStore) GetBySession(_ context.Context, sessionID string) ([]*domain.LiveTickerRecord, error) {
	return s.filter(func(r *domain.LiveTickerRecord) bool {
		return r.SessionID == sessionID
	}), nil
}

// GetBySymbolTimeRange retrieves records for a symbol within [start, end] (inclusive).
func (s *TickerRecordStore) GetBySymbolTimeRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.LiveTickerRecord, error) {
	return s.filter(func(r *domain.LiveTickerRecord) bool {
		return r.Symbol == symbol && !r.Timestamp.Before(start) && !r.Timestamp.After(end)
	}), nil
}

// Len returns the total number of stored records.
func (s *TickerRecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// BulkWrites returns how many non-empty InsertBulk calls succeeded.
func (s *TickerRecordStore) BulkWrites() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bulks
}

func (s *TickerRecordStore) filter(keep func(*domain.LiveTickerRecord) bool) []*domain.LiveTickerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiveTickerRecord
	for _, r := range s.records {
		if keep(r) {
			copy := *r
			result = append(result, &copy)
		}
	}

	// Stable keeps arrival order for records sharing a message timestamp
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result
}

var _ storage.TickerRecordStore = (*TickerRecordStore)(nil)
