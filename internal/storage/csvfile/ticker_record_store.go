package csvfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/reporting"
	"kraken-tools/internal/storage"
)

const tickerFilePrefix = "ticker_"

// TickerRecordStore writes each session to <dir>/ticker_<session_id>.csv.
// Timestamps are kept at millisecond resolution.
type TickerRecordStore struct {
	dir string
}

// NewTickerRecordStore creates a ticker history store rooted at dir.
func NewTickerRecordStore(dir string) *TickerRecordStore {
	return &TickerRecordStore{dir: dir}
}

// Compile-time interface check.
var _ storage.TickerRecordStore = (*TickerRecordStore)(nil)

// Path returns the file a session is written to.
func (s *TickerRecordStore) Path(sessionID string) string {
	return filepath.Join(s.dir, tickerFilePrefix+sessionID+".csv")
}

// InsertBulk writes one file per session in the batch.
// Returns ErrDuplicateKey if a session file already exists.
func (s *TickerRecordStore) InsertBulk(_ context.Context, records []*domain.LiveTickerRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.ValidateTickerRecords(records); err != nil {
		return err
	}

	bySession := make(map[string][]*domain.LiveTickerRecord)
	var sessions []string
	for _, r := range records {
		if _, ok := bySession[r.SessionID]; !ok {
			if err := checkName("session id", r.SessionID); err != nil {
				return err
			}
			sessions = append(sessions, r.SessionID)
			if _, err := os.Stat(s.Path(r.SessionID)); err == nil {
				return fmt.Errorf("%w: session %s", storage.ErrDuplicateKey, r.SessionID)
			}
		}
		bySession[r.SessionID] = append(bySession[r.SessionID], r)
	}

	for _, id := range sessions {
		if err := writeOnce(s.Path(id), reporting.RenderTickerCSV(bySession[id])); err != nil {
			return err
		}
	}
	return nil
}

// GetBySession reads a session file back, ordered by timestamp ASC.
func (s *TickerRecordStore) GetBySession(_ context.Context, sessionID string) ([]*domain.LiveTickerRecord, error) {
	if err := checkName("session id", sessionID); err != nil {
		return nil, err
	}
	records, err := s.readSession(s.Path(sessionID), sessionID)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sortByTimestamp(records)
	return records, nil
}

// GetBySymbolTimeRange scans all session files for a symbol within [start, end] (inclusive).
func (s *TickerRecordStore) GetBySymbolTimeRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.LiveTickerRecord, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, tickerFilePrefix+"*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list session files: %w", err)
	}
	sort.Strings(paths)

	var result []*domain.LiveTickerRecord
	for _, path := range paths {
		sessionID := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), tickerFilePrefix), ".csv")
		records, err := s.readSession(path, sessionID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if r.Symbol == symbol && !r.Timestamp.Before(start) && !r.Timestamp.After(end) {
				result = append(result, r)
			}
		}
	}

	sortByTimestamp(result)
	return result, nil
}

func (s *TickerRecordStore) readSession(path, sessionID string) ([]*domain.LiveTickerRecord, error) {
	rows, err := readTable(path, reporting.TickerCSVHeader)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.LiveTickerRecord, 0, len(rows))
	for i, row := range rows {
		r, err := parseTickerRow(row)
		if err != nil {
			return nil, fmt.Errorf("read %s: row %d: %w", path, i+1, err)
		}
		r.SessionID = sessionID
		records = append(records, r)
	}
	return records, nil
}

func parseTickerRow(row []string) (*domain.LiveTickerRecord, error) {
	if len(row) != 14 {
		return nil, fmt.Errorf("expected 14 columns, got %d", len(row))
	}

	ts, err := time.ParseInLocation(reporting.TickerTimestampLayout, row[0], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}
	v, err := parseFloats(row[3:])
	if err != nil {
		return nil, err
	}

	return &domain.LiveTickerRecord{
		Timestamp:   ts,
		Symbol:      row[1],
		MessageType: domain.MessageType(row[2]),
		Bid:         v[0],
		BidQty:      v[1],
		Ask:         v[2],
		AskQty:      v[3],
		Last:        v[4],
		Volume:      v[5],
		VWAP:        v[6],
		Low:         v[7],
		High:        v[8],
		Change:      v[9],
		ChangePct:   v[10],
	}, nil
}

func sortByTimestamp(records []*domain.LiveTickerRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}
