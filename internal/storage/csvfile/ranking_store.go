package csvfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/reporting"
	"kraken-tools/internal/storage"
)

// VolumeRankingStore writes each ranking to <dir>/ranking_<run_id>.csv.
type VolumeRankingStore struct {
	dir string
}

// NewVolumeRankingStore creates a ranking store rooted at dir.
func NewVolumeRankingStore(dir string) *VolumeRankingStore {
	return &VolumeRankingStore{dir: dir}
}

// Compile-time interface check.
var _ storage.VolumeRankingStore = (*VolumeRankingStore)(nil)

// Path returns the file a run is written to.
func (s *VolumeRankingStore) Path(runID string) string {
	return filepath.Join(s.dir, "ranking_"+runID+".csv")
}

// SaveRanking writes the ranking table. Returns ErrDuplicateKey if the file exists.
func (s *VolumeRankingStore) SaveRanking(_ context.Context, r *domain.VolumeRanking) error {
	if err := storage.ValidateRanking(r); err != nil {
		return err
	}
	if err := checkName("run id", r.RunID); err != nil {
		return err
	}
	return writeOnce(s.Path(r.RunID), reporting.RenderRankingCSV(r.Records))
}

// GetRanking reads a ranking table back. Ranks follow row order, the quote
// currency comes from the pair name and GeneratedAt is the file time.
func (s *VolumeRankingStore) GetRanking(_ context.Context, runID string) (*domain.VolumeRanking, error) {
	if err := checkName("run id", runID); err != nil {
		return nil, err
	}
	path := s.Path(runID)
	rows, err := readTable(path, reporting.RankingCSVHeader)
	if err != nil {
		return nil, err
	}

	ranking := &domain.VolumeRanking{RunID: runID}
	if info, err := os.Stat(path); err == nil {
		ranking.GeneratedAt = info.ModTime().UTC().Truncate(time.Second)
	}

	for i, row := range rows {
		if len(row) != 4 {
			return nil, fmt.Errorf("read %s: row %d has %d columns", path, i+1, len(row))
		}
		vals, err := parseFloats(row[1:])
		if err != nil {
			return nil, fmt.Errorf("read %s: row %d: %w", path, i+1, err)
		}
		_, quote, _ := domain.SplitDisplayName(row[0])
		ranking.Records = append(ranking.Records, domain.VolumeRecord{
			Rank:           i + 1,
			Pair:           row[0],
			QuoteCurrency:  quote,
			BaseVolume24h:  vals[0],
			QuoteVolume24h: vals[1],
			USDVolume24h:   vals[2],
		})
	}

	return ranking, nil
}
