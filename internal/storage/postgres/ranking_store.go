package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

// VolumeRankingStore implements storage.VolumeRankingStore using PostgreSQL.
type VolumeRankingStore struct {
	pool *Pool
}

// NewVolumeRankingStore creates a new VolumeRankingStore.
func NewVolumeRankingStore(pool *Pool) *VolumeRankingStore {
	return &VolumeRankingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VolumeRankingStore = (*VolumeRankingStore)(nil)

var rankingEntryColumns = []string{
	"run_id", "rank", "pair", "quote_currency",
	"base_volume_24h", "quote_volume_24h", "usd_volume_24h", "converted",
}

// SaveRanking writes the header row and all entries in one transaction.
// Returns ErrDuplicateKey if run_id exists.
func (s *VolumeRankingStore) SaveRanking(ctx context.Context, r *domain.VolumeRanking) error {
	if err := storage.ValidateRanking(r); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	unconverted := r.Unconverted
	if unconverted == nil {
		unconverted = []string{}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO volume_rankings (run_id, generated_at, unconverted)
		VALUES ($1, $2, $3)
	`, r.RunID, r.GeneratedAt.UTC(), unconverted)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ranking: %w", err)
	}

	rows := make([][]any, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, []any{
			r.RunID, rec.Rank, rec.Pair, rec.QuoteCurrency,
			rec.BaseVolume24h, rec.QuoteVolume24h, rec.USDVolume24h, rec.Converted,
		})
	}

	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"volume_ranking_entries"}, rankingEntryColumns, pgx.CopyFromRows(rows))
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: repeated rank", storage.ErrInvalidInput)
			}
			return fmt.Errorf("copy ranking entries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetRanking retrieves a ranking by run ID. Returns ErrNotFound if not exists.
func (s *VolumeRankingStore) GetRanking(ctx context.Context, runID string) (*domain.VolumeRanking, error) {
	r := &domain.VolumeRanking{RunID: runID}

	err := s.pool.QueryRow(ctx, `
		SELECT generated_at, unconverted FROM volume_rankings WHERE run_id = $1
	`, runID).Scan(&r.GeneratedAt, &r.Unconverted)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get ranking: %w", err)
	}
	r.GeneratedAt = r.GeneratedAt.UTC()

	rows, err := s.pool.Query(ctx, `
		SELECT rank, pair, quote_currency, base_volume_24h, quote_volume_24h, usd_volume_24h, converted
		FROM volume_ranking_entries
		WHERE run_id = $1
		ORDER BY rank ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ranking entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.VolumeRecord
		if err := rows.Scan(
			&rec.Rank, &rec.Pair, &rec.QuoteCurrency,
			&rec.BaseVolume24h, &rec.QuoteVolume24h, &rec.USDVolume24h, &rec.Converted,
		); err != nil {
			return nil, fmt.Errorf("scan ranking entry: %w", err)
		}
		r.Records = append(r.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking entries: %w", err)
	}

	return r, nil
}
