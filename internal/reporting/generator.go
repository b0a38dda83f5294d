package reporting

import (
	"context"
	"fmt"

	"kraken-tools/internal/storage"
)

// Generator produces reports from stored rankings.
type Generator struct {
	rankingStore storage.VolumeRankingStore
}

// NewGenerator creates a new report generator.
func NewGenerator(rankingStore storage.VolumeRankingStore) *Generator {
	return &Generator{rankingStore: rankingStore}
}

// Generate loads a saved ranking and builds its report.
// Stored rankings carry no conversion map, so Rates stays empty.
func (g *Generator) Generate(ctx context.Context, runID string, limit int) (*RankingReport, error) {
	ranking, err := g.rankingStore.GetRanking(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load ranking %s: %w", runID, err)
	}
	return BuildRankingReport(ranking, nil, limit), nil
}
