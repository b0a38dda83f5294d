package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
	"kraken-tools/internal/storage/memory"
)

func testRanking() *domain.VolumeRanking {
	return &domain.VolumeRanking{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Records: []domain.VolumeRecord{
			{Rank: 1, Pair: "XBT/USD", QuoteCurrency: "USD", BaseVolume24h: 100, QuoteVolume24h: 6500000, USDVolume24h: 6500000, Converted: true},
			{Rank: 2, Pair: "ETH/EUR", QuoteCurrency: "EUR", BaseVolume24h: 10, QuoteVolume24h: 30000, USDVolume24h: 33000, Converted: true},
			{Rank: 3, Pair: "ABC/XYZ", QuoteCurrency: "XYZ", BaseVolume24h: 0.5, QuoteVolume24h: 20, USDVolume24h: 20, Converted: false},
		},
		Unconverted: []string{"XYZ"},
	}
}

func TestRenderRankingCSV(t *testing.T) {
	got := RenderRankingCSV([]domain.VolumeRecord{
		{Pair: "XBT/USD", BaseVolume24h: 10, QuoteVolume24h: 20, USDVolume24h: 60},
		{Pair: "ETH/EUR", BaseVolume24h: 1.5, QuoteVolume24h: 4500.25, USDVolume24h: 4950.275},
	})

	want := "pair,base_volume_24h,quote_volume_24h,usd_volume_24h\n" +
		"XBT/USD,10,20,60\n" +
		"ETH/EUR,1.5,4500.25,4950.275\n"
	if got != want {
		t.Errorf("RenderRankingCSV:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderRankingCSV_Empty(t *testing.T) {
	got := RenderRankingCSV(nil)
	if got != RankingCSVHeader+"\n" {
		t.Errorf("expected header only, got %q", got)
	}
}

func TestRenderTickerCSV(t *testing.T) {
	ts := time.Date(2026, 3, 1, 9, 30, 15, 42_000_000, time.FixedZone("CET", 3600))
	got := RenderTickerCSV([]*domain.LiveTickerRecord{
		{
			Timestamp: ts, Symbol: "BTC/USD", MessageType: domain.MessageTypeSnapshot,
			Bid: 65000.1, BidQty: 0.5, Ask: 65000.2, AskQty: 1.25, Last: 65000.1,
			Volume: 1234.5, VWAP: 64000, Low: 63000, High: 66000, Change: -100, ChangePct: -0.15,
		},
	})

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != TickerCSVHeader {
		t.Errorf("header = %q", lines[0])
	}
	want := "2026-03-01 08:30:15.042,BTC/USD,snapshot,65000.1,0.5,65000.2,1.25,65000.1,1234.5,64000,63000,66000,-100,-0.15"
	if lines[1] != want {
		t.Errorf("row:\ngot  %s\nwant %s", lines[1], want)
	}
}

func TestBuildRankingReport(t *testing.T) {
	conv := domain.NewConversionMap()
	conv.Set("USD", 1)
	conv.Set("EUR", 1.1)

	r := BuildRankingReport(testRanking(), conv, 2)

	if r.TotalPairs != 3 {
		t.Errorf("TotalPairs = %d, want 3", r.TotalPairs)
	}
	if len(r.Top) != 2 {
		t.Fatalf("Top has %d rows, want 2", len(r.Top))
	}
	if r.TotalUSDVolume != 6500000+33000+20 {
		t.Errorf("TotalUSDVolume = %v", r.TotalUSDVolume)
	}
	if len(r.Rates) != 2 || r.Rates[0].Currency != "EUR" || r.Rates[1].Currency != "USD" {
		t.Errorf("Rates = %+v, want EUR then USD", r.Rates)
	}
}

func TestBuildRankingReport_DefaultLimit(t *testing.T) {
	ranking := &domain.VolumeRanking{RunID: "big"}
	for i := 0; i < DefaultSummaryLimit+5; i++ {
		ranking.Records = append(ranking.Records, domain.VolumeRecord{Rank: i + 1, Pair: "A/USD"})
	}

	r := BuildRankingReport(ranking, nil, 0)
	if len(r.Top) != DefaultSummaryLimit {
		t.Errorf("Top has %d rows, want %d", len(r.Top), DefaultSummaryLimit)
	}
	if r.Rates != nil {
		t.Errorf("expected no rates without a conversion map")
	}
}

func TestRenderRankingMarkdown(t *testing.T) {
	conv := domain.NewConversionMap()
	conv.Set("EUR", 1.1)

	md := RenderRankingMarkdown(testRanking(), conv, 10)

	for _, want := range []string{
		"# USD Volume Ranking",
		"Run: run-1",
		"Generated: 2026-03-01T12:00:00Z",
		"Pairs: 3 | Total USD volume (24h): $6,533,020.00",
		"| 1 | XBT/USD | 100.0000 | 6500000.00 | $6,500,000.00 |",
		"| 3 | ABC/XYZ * |",
		"## Conversion Rates",
		"| EUR | 1.1 |",
		"## Unconverted Currencies",
		"- XYZ",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_EmptyRanking(t *testing.T) {
	md := RenderMarkdown(BuildRankingReport(&domain.VolumeRanking{}, nil, 5))

	if !strings.Contains(md, "No pairs ranked.") {
		t.Errorf("expected empty notice\n%s", md)
	}
	if strings.Contains(md, "Conversion Rates") || strings.Contains(md, "Unconverted") {
		t.Errorf("unexpected sections\n%s", md)
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.999, "$1,000.00"},
		{1234567.891, "$1,234,567.89"},
		{-42000, "-$42,000.00"},
	}
	for _, tt := range tests {
		if got := formatUSD(tt.in); got != tt.want {
			t.Errorf("formatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewVolumeRankingStore()
	if err := store.SaveRanking(ctx, testRanking()); err != nil {
		t.Fatalf("SaveRanking: %v", err)
	}

	r, err := NewGenerator(store).Generate(ctx, "run-1", 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(r.Top) != 1 || r.Top[0].Pair != "XBT/USD" {
		t.Errorf("Top = %+v", r.Top)
	}
	if len(r.Unconverted) != 1 {
		t.Errorf("Unconverted = %v", r.Unconverted)
	}
}

func TestGenerator_NotFound(t *testing.T) {
	_, err := NewGenerator(memory.NewVolumeRankingStore()).Generate(context.Background(), "nope", 5)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckRunQuality(t *testing.T) {
	checks := CheckRunQuality(RunStats{ChunksTotal: 4, ChunksFailed: 1, Candidates: 99, Dropped: 1}, testRanking())

	if len(checks) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(checks))
	}
	if checks[0].Pass || checks[0].Actual != "1 of 4" {
		t.Errorf("chunk check = %+v, want failing 1 of 4", checks[0])
	}
	if !checks[1].Pass || checks[1].Actual != "1 (1.0%)" {
		t.Errorf("dropped check = %+v, want passing 1 (1.0%%)", checks[1])
	}
	// 20 of 6533020 USD is unconverted
	if !checks[2].Pass || checks[2].Actual != "0.00%" {
		t.Errorf("unconverted check = %+v", checks[2])
	}
}

func TestCheckRunQuality_EmptyRun(t *testing.T) {
	for _, c := range CheckRunQuality(RunStats{}, &domain.VolumeRanking{}) {
		if !c.Pass {
			t.Errorf("%s should pass on an empty run: %+v", c.Name, c)
		}
	}
}

func TestRenderMarkdown_Quality(t *testing.T) {
	r := BuildRankingReport(testRanking(), nil, 5).
		WithQuality(CheckRunQuality(RunStats{ChunksTotal: 2, ChunksFailed: 1, Candidates: 3}, testRanking()))

	md := RenderMarkdown(r)
	for _, want := range []string{
		"## Data Quality",
		"| Failed ticker chunks | <= 0% | 1 of 2 | FAIL |",
		"**Some checks failed.**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}
}
