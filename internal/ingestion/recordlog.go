package ingestion

import (
	"context"
	"errors"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/observability"
	"kraken-tools/internal/storage"
)

// ErrAlreadyFlushed is returned by a second Flush on the same log.
var ErrAlreadyFlushed = errors.New("record log already flushed")

// RecordLog buffers the records of one session until they are persisted.
// It has a single writer and is not safe for concurrent use.
type RecordLog struct {
	records []*domain.LiveTickerRecord
	flushed bool
}

// NewRecordLog creates an empty record log.
func NewRecordLog() *RecordLog {
	return &RecordLog{}
}

// Append adds records in arrival order.
func (l *RecordLog) Append(records ...*domain.LiveTickerRecord) {
	l.records = append(l.records, records...)
}

// Len returns the number of buffered records.
func (l *RecordLog) Len() int {
	return len(l.records)
}

// Records returns the buffered records.
func (l *RecordLog) Records() []*domain.LiveTickerRecord {
	return l.records
}

// Flushed reports whether Flush has been called.
func (l *RecordLog) Flushed() bool {
	return l.flushed
}

// Flush writes all records in a single InsertBulk call. It may run only once,
// even if the write fails. An empty log skips the store.
func (l *RecordLog) Flush(ctx context.Context, store storage.TickerRecordStore) (int, error) {
	if l.flushed {
		return 0, ErrAlreadyFlushed
	}
	l.flushed = true

	if len(l.records) == 0 {
		return 0, nil
	}

	start := time.Now()
	err := store.InsertBulk(ctx, l.records)
	observability.RecordFlush(time.Since(start), len(l.records), err)
	if err != nil {
		return 0, err
	}
	return len(l.records), nil
}
