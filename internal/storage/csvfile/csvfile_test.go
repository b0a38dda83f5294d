package csvfile

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

func TestVolumeRankingStore_SaveAndGet(t *testing.T) {
	store := NewVolumeRankingStore(t.TempDir())
	ctx := context.Background()

	in := &domain.VolumeRanking{
		RunID: "run-1",
		Records: []domain.VolumeRecord{
			{Rank: 1, Pair: "XBT/USD", QuoteCurrency: "USD", BaseVolume24h: 10, QuoteVolume24h: 20, USDVolume24h: 20, Converted: true},
			{Rank: 2, Pair: "ETH/EUR", QuoteCurrency: "EUR", BaseVolume24h: 1.5, QuoteVolume24h: 4.5, USDVolume24h: 4.95, Converted: true},
		},
	}
	require.NoError(t, store.SaveRanking(ctx, in))

	data, err := os.ReadFile(store.Path("run-1"))
	require.NoError(t, err)
	assert.Equal(t, "pair,base_volume_24h,quote_volume_24h,usd_volume_24h\nXBT/USD,10,20,20\nETH/EUR,1.5,4.5,4.95\n", string(data))

	got, err := store.GetRanking(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, 2, got.Records[1].Rank)
	assert.Equal(t, "EUR", got.Records[1].QuoteCurrency)
	assert.Equal(t, 4.95, got.Records[1].USDVolume24h)
	assert.False(t, got.GeneratedAt.IsZero())
}

func TestVolumeRankingStore_WrittenOnce(t *testing.T) {
	store := NewVolumeRankingStore(t.TempDir())
	ctx := context.Background()

	r := &domain.VolumeRanking{RunID: "run-1"}
	require.NoError(t, store.SaveRanking(ctx, r))
	assert.ErrorIs(t, store.SaveRanking(ctx, r), storage.ErrDuplicateKey)
}

func TestVolumeRankingStore_Errors(t *testing.T) {
	dir := t.TempDir()
	store := NewVolumeRankingStore(dir)
	ctx := context.Background()

	_, err := store.GetRanking(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.SaveRanking(ctx, &domain.VolumeRanking{}), storage.ErrInvalidInput)

	require.NoError(t, os.WriteFile(store.Path("bad"), []byte("a,b\n1,2\n"), 0o644))
	_, err = store.GetRanking(ctx, "bad")
	assert.ErrorContains(t, err, "unexpected header")
}

func TestCheckName(t *testing.T) {
	assert.NoError(t, checkName("run id", "abc-DEF_09"))
	for _, id := range []string{"", "run/1", "a.b", "../x", "a b"} {
		assert.ErrorIs(t, checkName("run id", id), storage.ErrInvalidInput, "id %q", id)
	}
}

func TestVolumeRankingStore_RejectsUnsafeRunID(t *testing.T) {
	dir := t.TempDir()
	store := NewVolumeRankingStore(dir)
	ctx := context.Background()

	r := &domain.VolumeRanking{RunID: "a.b", GeneratedAt: time.Now()}
	assert.ErrorIs(t, store.SaveRanking(ctx, r), storage.ErrInvalidInput)

	_, err := store.GetRanking(ctx, "../a")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTickerRecordStore_DistinctSessionsNeverShareAFile(t *testing.T) {
	dir := t.TempDir()
	store := NewTickerRecordStore(dir)
	ctx := context.Background()
	now := time.Now().UTC()

	err := store.InsertBulk(ctx, []*domain.LiveTickerRecord{
		{SessionID: "a.b", Timestamp: now, Symbol: "A/B", MessageType: domain.MessageTypeUpdate},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	require.NoError(t, store.InsertBulk(ctx, []*domain.LiveTickerRecord{
		{SessionID: "a_b", Timestamp: now, Symbol: "A/B", MessageType: domain.MessageTypeUpdate},
	}))

	_, err = store.GetBySession(ctx, "a.b")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	got, err := store.GetBySession(ctx, "a_b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a_b", got[0].SessionID)
}

func TestTickerRecordStore_RoundTrip(t *testing.T) {
	store := NewTickerRecordStore(t.TempDir())
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 250_000_000, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, nil))

	records := []*domain.LiveTickerRecord{
		{SessionID: "s1", Timestamp: base.Add(time.Second), Symbol: "ETH/USD", MessageType: domain.MessageTypeUpdate, Last: 3000, ChangePct: -1.25},
		{SessionID: "s1", Timestamp: base, Symbol: "BTC/USD", MessageType: domain.MessageTypeSnapshot, Bid: 64999.5, Last: 65000},
		{SessionID: "s2", Timestamp: base, Symbol: "BTC/USD", MessageType: domain.MessageTypeSnapshot, Last: 65001},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BTC/USD", got[0].Symbol)
	assert.Equal(t, "s1", got[0].SessionID)
	assert.True(t, got[0].Timestamp.Equal(base))
	assert.Equal(t, 64999.5, got[0].Bid)
	assert.Equal(t, -1.25, got[1].ChangePct)

	got, err = store.GetBySymbolTimeRange(ctx, "BTC/USD", base, base)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].SessionID)
	assert.Equal(t, "s2", got[1].SessionID)

	got, err = store.GetBySession(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTickerRecordStore_WrittenOnce(t *testing.T) {
	store := NewTickerRecordStore(t.TempDir())
	ctx := context.Background()

	r := []*domain.LiveTickerRecord{{SessionID: "s1", Timestamp: time.Now(), Symbol: "A/B", MessageType: domain.MessageTypeUpdate}}
	require.NoError(t, store.InsertBulk(ctx, r))
	assert.ErrorIs(t, store.InsertBulk(ctx, r), storage.ErrDuplicateKey)
}

func TestTickerRecordStore_InvalidBatch(t *testing.T) {
	dir := t.TempDir()
	store := NewTickerRecordStore(dir)

	err := store.InsertBulk(context.Background(), []*domain.LiveTickerRecord{{SessionID: "s1", Symbol: "A/B", MessageType: "other"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
