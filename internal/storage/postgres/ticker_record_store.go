package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

// TickerRecordStore implements storage.TickerRecordStore using PostgreSQL.
type TickerRecordStore struct {
	pool *Pool
}

// NewTickerRecordStore creates a new TickerRecordStore.
func NewTickerRecordStore(pool *Pool) *TickerRecordStore {
	return &TickerRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TickerRecordStore = (*TickerRecordStore)(nil)

var tickerColumns = []string{
	"session_id", "ts", "symbol", "message_type",
	"bid", "bid_qty", "ask", "ask_qty", "last", "volume", "vwap", "low", "high", "change", "change_pct",
	"missing_fields",
}

const selectTicker = `
	SELECT session_id, ts, symbol, message_type,
		bid, bid_qty, ask, ask_qty, last, volume, vwap, low, high, change, change_pct,
		missing_fields
	FROM live_ticker_records
`

// InsertBulk appends records with a single COPY, which is atomic.
func (s *TickerRecordStore) InsertBulk(ctx context.Context, records []*domain.LiveTickerRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.ValidateTickerRecords(records); err != nil {
		return err
	}

	src := pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
		r := records[i]
		return []any{
			r.SessionID, r.Timestamp.UTC(), r.Symbol, string(r.MessageType),
			r.Bid, r.BidQty, r.Ask, r.AskQty, r.Last, r.Volume, r.VWAP,
			r.Low, r.High, r.Change, r.ChangePct,
			int32(r.Missing),
		}, nil
	})

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"live_ticker_records"}, tickerColumns, src)
	if err != nil {
		return fmt.Errorf("copy ticker records: %w", err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copy ticker records: wrote %d of %d", n, len(records))
	}
	return nil
}

// GetBySession retrieves all records of a session, ordered by timestamp ASC.
func (s *TickerRecordStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.LiveTickerRecord, error) {
	rows, err := s.pool.Query(ctx, selectTicker+`
		WHERE session_id = $1
		ORDER BY ts ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query by session: %w", err)
	}
	return scanTickerRecords(rows)
}

// GetBySymbolTimeRange retrieves records for a symbol within [start, end] (inclusive).
func (s *TickerRecordStore) GetBySymbolTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.LiveTickerRecord, error) {
	rows, err := s.pool.Query(ctx, selectTicker+`
		WHERE symbol = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC, id ASC
	`, symbol, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	return scanTickerRecords(rows)
}

func scanTickerRecords(rows pgx.Rows) ([]*domain.LiveTickerRecord, error) {
	defer rows.Close()

	var records []*domain.LiveTickerRecord
	for rows.Next() {
		var r domain.LiveTickerRecord
		var messageType string
		var missing int32

		if err := rows.Scan(
			&r.SessionID, &r.Timestamp, &r.Symbol, &messageType,
			&r.Bid, &r.BidQty, &r.Ask, &r.AskQty, &r.Last, &r.Volume, &r.VWAP,
			&r.Low, &r.High, &r.Change, &r.ChangePct,
			&missing,
		); err != nil {
			return nil, fmt.Errorf("scan ticker record: %w", err)
		}

		r.Timestamp = r.Timestamp.UTC()
		r.MessageType = domain.MessageType(messageType)
		r.Missing = domain.FieldSet(missing)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticker records: %w", err)
	}

	return records, nil
}
