package storage

import (
	"context"
	"fmt"
	"time"

	"kraken-tools/internal/domain"
)

// VolumeRankingStore persists ranked volume tables.
type VolumeRankingStore interface {
	// SaveRanking stores a ranking. Returns ErrDuplicateKey if run_id exists.
	SaveRanking(ctx context.Context, r *domain.VolumeRanking) error

	// GetRanking retrieves a ranking by run ID with records ordered by rank.
	// Returns ErrNotFound if not exists.
	GetRanking(ctx context.Context, runID string) (*domain.VolumeRanking, error)
}

// TickerRecordStore persists live ticker records.
type TickerRecordStore interface {
	// InsertBulk appends records in one write. An empty slice is a no-op.
	InsertBulk(ctx context.Context, records []*domain.LiveTickerRecord) error

	// GetBySession retrieves all records of a session, ordered by timestamp ASC.
	GetBySession(ctx context.Context, sessionID string) ([]*domain.LiveTickerRecord, error)

	// GetBySymbolTimeRange retrieves records for a symbol within [start, end] (inclusive),
	// ordered by timestamp ASC.
	GetBySymbolTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.LiveTickerRecord, error)
}

// ValidateRanking checks a ranking before it is written.
func ValidateRanking(r *domain.VolumeRanking) error {
	if r == nil {
		return fmt.Errorf("%w: nil ranking", ErrInvalidInput)
	}
	if r.RunID == "" {
		return fmt.Errorf("%w: empty run_id", ErrInvalidInput)
	}
	return nil
}

// ValidateTickerRecords checks records before they are written.
func ValidateTickerRecords(records []*domain.LiveTickerRecord) error {
	for i, r := range records {
		if r == nil {
			return fmt.Errorf("%w: nil record at %d", ErrInvalidInput, i)
		}
		if r.Symbol == "" {
			return fmt.Errorf("%w: empty symbol at %d", ErrInvalidInput, i)
		}
		if !r.MessageType.IsValid() {
			return fmt.Errorf("%w: message type %q at %d", ErrInvalidInput, r.MessageType, i)
		}
	}
	return nil
}
