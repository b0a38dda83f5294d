package domain

import "time"

// VolumeRecord is one row of the USD volume ranking.
type VolumeRecord struct {
	Rank           int     // 1-based position in the ranking
	Pair           string  // display name BASE/QUOTE
	QuoteCurrency  string
	BaseVolume24h  float64
	QuoteVolume24h float64 // BaseVolume24h * last price
	USDVolume24h   float64 // QuoteVolume24h * USD rate of the quote currency
	Converted      bool    // false when the quote currency fell back to DefaultUSDRate
}

// VolumeRanking is the ranked output of one run.
type VolumeRanking struct {
	RunID       string
	GeneratedAt time.Time
	Records     []VolumeRecord
	Unconverted []string // quote currencies without a USD rate, sorted
}
