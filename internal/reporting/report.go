package reporting

import (
	"time"

	"kraken-tools/internal/domain"
)

// DefaultSummaryLimit is the number of ranking rows shown in the console summary.
const DefaultSummaryLimit = 20

// RankingReport is the console/markdown view of one volume ranking.
type RankingReport struct {
	RunID       string
	GeneratedAt time.Time

	TotalPairs     int
	TotalUSDVolume float64 // sum over all ranked pairs, not only Top

	// Top holds the first rows of the ranking in rank order.
	Top []domain.VolumeRecord

	// Rates is empty when the conversion map is not available,
	// e.g. for a ranking loaded back from storage.
	Rates []RateRow

	// Unconverted lists quote currencies whose USD figures used the 1.0 fallback.
	Unconverted []string

	// Quality is empty unless run stats were attached with WithQuality.
	Quality []QualityCheck
}

// WithQuality attaches run quality checks to the report.
func (r *RankingReport) WithQuality(checks []QualityCheck) *RankingReport {
	r.Quality = checks
	return r
}

// RateRow is one entry of the conversion map.
type RateRow struct {
	Currency string
	USDRate  float64
}

// BuildRankingReport assembles a report from a ranking and an optional conversion map.
// limit <= 0 uses DefaultSummaryLimit.
func BuildRankingReport(ranking *domain.VolumeRanking, conv *domain.ConversionMap, limit int) *RankingReport {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}

	r := &RankingReport{
		RunID:       ranking.RunID,
		GeneratedAt: ranking.GeneratedAt,
		TotalPairs:  len(ranking.Records),
		Unconverted: append([]string(nil), ranking.Unconverted...),
	}

	for _, rec := range ranking.Records {
		r.TotalUSDVolume += rec.USDVolume24h
	}

	n := len(ranking.Records)
	if n > limit {
		n = limit
	}
	r.Top = append([]domain.VolumeRecord(nil), ranking.Records[:n]...)

	if conv != nil {
		for _, c := range conv.Currencies() {
			rate, _ := conv.Rate(c)
			r.Rates = append(r.Rates, RateRow{Currency: c, USDRate: rate})
		}
	}

	return r
}
