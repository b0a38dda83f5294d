package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

func testRecord(session, symbol string, ts time.Time) *domain.LiveTickerRecord {
	return &domain.LiveTickerRecord{
		SessionID:   session,
		Timestamp:   ts,
		Symbol:      symbol,
		MessageType: domain.MessageTypeUpdate,
		Bid:         100,
		Ask:         101,
		Last:        100.5,
	}
}

func TestTickerRecordStore_InsertBulkAndQuery(t *testing.T) {
	store := NewTickerRecordStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	records := []*domain.LiveTickerRecord{
		testRecord("s1", "BTC/USD", base.Add(2*time.Second)),
		testRecord("s1", "ETH/USD", base.Add(time.Second)),
		testRecord("s1", "BTC/USD", base),
		testRecord("s2", "BTC/USD", base.Add(3*time.Second)),
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	session, err := store.GetBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}
	if len(session) != 3 {
		t.Fatalf("expected 3 records, got %d", len(session))
	}
	for i := 1; i < len(session); i++ {
		if session[i].Timestamp.Before(session[i-1].Timestamp) {
			t.Error("records not ordered by timestamp")
		}
	}

	btc, err := store.GetBySymbolTimeRange(ctx, "BTC/USD", base, base.Add(2*time.Second))
	if err != nil {
		t.Fatalf("GetBySymbolTimeRange failed: %v", err)
	}
	if len(btc) != 2 {
		t.Errorf("expected 2 BTC records in range (inclusive), got %d", len(btc))
	}

	if store.BulkWrites() != 1 {
		t.Errorf("expected 1 bulk write, got %d", store.BulkWrites())
	}
}

func TestTickerRecordStore_EmptyIsNoop(t *testing.T) {
	store := NewTickerRecordStore()
	if err := store.InsertBulk(context.Background(), nil); err != nil {
		t.Fatalf("InsertBulk(nil) failed: %v", err)
	}
	if store.BulkWrites() != 0 || store.Len() != 0 {
		t.Error("empty insert should not write")
	}
}

func TestTickerRecordStore_InvalidFailsWholeBatch(t *testing.T) {
	store := NewTickerRecordStore()
	ts := time.Now().UTC()

	err := store.InsertBulk(context.Background(), []*domain.LiveTickerRecord{
		testRecord("s1", "BTC/USD", ts),
		testRecord("s1", "", ts),
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("batch should be rejected atomically, got %d records", store.Len())
	}
}

func TestTickerRecordStore_SameTimestampKeepsArrivalOrder(t *testing.T) {
	store := NewTickerRecordStore()
	ts := time.Now().UTC()

	err := store.InsertBulk(context.Background(), []*domain.LiveTickerRecord{
		testRecord("s1", "SOL/USD", ts),
		testRecord("s1", "ADA/USD", ts),
		testRecord("s1", "BTC/USD", ts),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, _ := store.GetBySession(context.Background(), "s1")
	if got[0].Symbol != "SOL/USD" || got[1].Symbol != "ADA/USD" || got[2].Symbol != "BTC/USD" {
		t.Errorf("unexpected order: %s %s %s", got[0].Symbol, got[1].Symbol, got[2].Symbol)
	}
}
