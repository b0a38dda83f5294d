package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
	"kraken-tools/internal/storage/postgres"
)

func tickerRecord(session, symbol string, ts time.Time, last float64) *domain.LiveTickerRecord {
	return &domain.LiveTickerRecord{
		SessionID:   session,
		Timestamp:   ts,
		Symbol:      symbol,
		MessageType: domain.MessageTypeUpdate,
		Bid:         last - 1,
		BidQty:      0.25,
		Ask:         last + 1,
		AskQty:      0.75,
		Last:        last,
		Volume:      42,
		VWAP:        last,
		Low:         last - 5,
		High:        last + 5,
		Change:      -2,
		ChangePct:   -0.1,
	}
}

func TestTickerRecordStore_InsertBulkAndGetBySession(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTickerRecordStore(pool)
	ctx := context.Background()

	assert.NoError(t, store.InsertBulk(ctx, nil))

	ts := time.Date(2026, 2, 1, 10, 0, 0, 123_000_000, time.UTC)
	partial := tickerRecord("s1", "ETH/USD", ts, 3000)
	partial.MessageType = domain.MessageTypeSnapshot
	partial.Missing = domain.FieldSet(0).Add(domain.FieldBidQty)

	require.NoError(t, store.InsertBulk(ctx, []*domain.LiveTickerRecord{
		tickerRecord("s1", "BTC/USD", ts, 65000),
		partial,
		tickerRecord("s2", "BTC/USD", ts, 65000),
	}))

	got, err := store.GetBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BTC/USD", got[0].Symbol)
	assert.Equal(t, "ETH/USD", got[1].Symbol)
	assert.True(t, got[0].Timestamp.Equal(ts))
	assert.Equal(t, -0.1, got[0].ChangePct)
	assert.Equal(t, domain.MessageTypeSnapshot, got[1].MessageType)
	assert.True(t, got[1].Missing.Has(domain.FieldBidQty))
}

func TestTickerRecordStore_GetBySymbolTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTickerRecordStore(pool)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	var records []*domain.LiveTickerRecord
	for i := 0; i < 5; i++ {
		records = append(records, tickerRecord("s1", "XBT/EUR", base.Add(time.Duration(i)*time.Second), 60000+float64(i)))
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetBySymbolTimeRange(ctx, "XBT/EUR", base.Add(time.Second), base.Add(3*time.Second))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 60001.0, got[0].Last)
	assert.Equal(t, 60003.0, got[2].Last)
}

func TestTickerRecordStore_InvalidBatchWritesNothing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTickerRecordStore(pool)
	ctx := context.Background()
	ts := time.Now().UTC()

	bad := tickerRecord("s1", "SOL/USD", ts, 1)
	bad.MessageType = "delta"
	err := store.InsertBulk(ctx, []*domain.LiveTickerRecord{tickerRecord("s1", "SOL/USD", ts, 1), bad})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	got, err := store.GetBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
