package clickhouse

import (
	"context"
	"fmt"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

// TickerRecordStore implements storage.TickerRecordStore using ClickHouse.
type TickerRecordStore struct {
	conn *Conn
}

// NewTickerRecordStore creates a new TickerRecordStore.
func NewTickerRecordStore(conn *Conn) *TickerRecordStore {
	return &TickerRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TickerRecordStore = (*TickerRecordStore)(nil)

const tickerColumns = `
	session_id, ts, seq, symbol, message_type,
	bid, bid_qty, ask, ask_qty, last, volume, vwap, low, high, change, change_pct,
	missing_fields
`

// InsertBulk appends records in a single batch. seq keeps arrival order
// for records sharing a timestamp.
func (s *TickerRecordStore) InsertBulk(ctx context.Context, records []*domain.LiveTickerRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.ValidateTickerRecords(records); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO live_ticker_records (`+tickerColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i, r := range records {
		err = batch.Append(
			r.SessionID, r.Timestamp.UTC(), uint64(i), r.Symbol, string(r.MessageType),
			r.Bid, r.BidQty, r.Ask, r.AskQty, r.Last, r.Volume, r.VWAP,
			r.Low, r.High, r.Change, r.ChangePct,
			uint16(r.Missing),
		)
		if err != nil {
			batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySession retrieves all records of a session, ordered by timestamp ASC.
func (s *TickerRecordStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.LiveTickerRecord, error) {
	query := `SELECT ` + tickerColumns + `
		FROM live_ticker_records
		WHERE session_id = ?
		ORDER BY ts ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query by session: %w", err)
	}
	defer rows.Close()

	return scanTickerRecords(rows)
}

// GetBySymbolTimeRange retrieves records for a symbol within [start, end] (inclusive).
func (s *TickerRecordStore) GetBySymbolTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.LiveTickerRecord, error) {
	query := `SELECT ` + tickerColumns + `
		FROM live_ticker_records
		WHERE symbol = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC, seq ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTickerRecords(rows)
}

// scanTickerRecords scans multiple rows.
func scanTickerRecords(rows chRows) ([]*domain.LiveTickerRecord, error) {
	var records []*domain.LiveTickerRecord

	for rows.Next() {
		var r domain.LiveTickerRecord
		var seq uint64
		var messageType string
		var missing uint16

		err := rows.Scan(
			&r.SessionID, &r.Timestamp, &seq, &r.Symbol, &messageType,
			&r.Bid, &r.BidQty, &r.Ask, &r.AskQty, &r.Last, &r.Volume, &r.VWAP,
			&r.Low, &r.High, &r.Change, &r.ChangePct,
			&missing,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ticker record row: %w", err)
		}

		r.Timestamp = r.Timestamp.UTC()
		r.MessageType = domain.MessageType(messageType)
		r.Missing = domain.FieldSet(missing)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker record rows: %w", err)
	}

	return records, nil
}
