package reporting

import (
	"fmt"

	"kraken-tools/internal/domain"
)

// Default quality thresholds.
const (
	MaxFailedChunkRatio   = 0.0
	MaxDroppedRatio       = 0.05
	MaxUnconvertedUSDRate = 0.01 // share of ranked USD volume priced at the 1.0 fallback
)

// QualityCheck represents one run quality criterion.
type QualityCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// RunStats are the per-run counts the checks are computed from.
type RunStats struct {
	ChunksTotal  int
	ChunksFailed int
	Candidates   int // snapshot records that produced a volume figure
	Dropped      int // snapshot records excluded from the ranking
}

// CheckRunQuality evaluates a ranking run. A failing check does not
// invalidate the ranking; it marks figures that need a second look.
func CheckRunQuality(stats RunStats, ranking *domain.VolumeRanking) []QualityCheck {
	checks := make([]QualityCheck, 0, 3)

	// Check 1: every ticker chunk succeeded
	failedRatio := ratio(stats.ChunksFailed, stats.ChunksTotal)
	checks = append(checks, QualityCheck{
		Name:      "Failed ticker chunks",
		Threshold: fmt.Sprintf("<= %.0f%%", MaxFailedChunkRatio*100),
		Actual:    fmt.Sprintf("%d of %d", stats.ChunksFailed, stats.ChunksTotal),
		Pass:      failedRatio <= MaxFailedChunkRatio,
	})

	// Check 2: few snapshot records dropped
	droppedRatio := ratio(stats.Dropped, stats.Candidates+stats.Dropped)
	checks = append(checks, QualityCheck{
		Name:      "Dropped snapshot records",
		Threshold: fmt.Sprintf("<= %.0f%%", MaxDroppedRatio*100),
		Actual:    fmt.Sprintf("%d (%.1f%%)", stats.Dropped, droppedRatio*100),
		Pass:      droppedRatio <= MaxDroppedRatio,
	})

	// Check 3: little ranked volume relies on the 1.0 fallback
	var total, unconverted float64
	for _, rec := range ranking.Records {
		total += rec.USDVolume24h
		if !rec.Converted {
			unconverted += rec.USDVolume24h
		}
	}
	share := 0.0
	if total > 0 {
		share = unconverted / total
	}
	checks = append(checks, QualityCheck{
		Name:      "Unconverted USD volume",
		Threshold: fmt.Sprintf("<= %.0f%%", MaxUnconvertedUSDRate*100),
		Actual:    fmt.Sprintf("%.2f%%", share*100),
		Pass:      share <= MaxUnconvertedUSDRate,
	})

	return checks
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
