package memory

import (
	"context"
	"sync"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

// VolumeRankingStore is an in-memory implementation of storage.VolumeRankingStore.
type VolumeRankingStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VolumeRanking // keyed by run_id
}

// NewVolumeRankingStore creates a new in-memory ranking store.
func NewVolumeRankingStore() *VolumeRankingStore {
	return &VolumeRankingStore{
		data: make(map[string]*domain.VolumeRanking),
	}
}

// SaveRanking stores a ranking. Returns ErrDuplicateKey if run_id exists.
func (s *VolumeRankingStore) SaveRanking(_ context.Context, r *domain.VolumeRanking) error {
	if err := storage.ValidateRanking(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.RunID] = cloneRanking(r)
	return nil
}

// GetRanking retrieves a ranking by run ID. Returns ErrNotFound if not exists.
func (s *VolumeRankingStore) GetRanking(_ context.Context, runID string) (*domain.VolumeRanking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneRanking(r), nil
}

func cloneRanking(r *domain.VolumeRanking) *domain.VolumeRanking {
	copy := *r
	copy.Records = append([]domain.VolumeRecord(nil), r.Records...)
	copy.Unconverted = append([]string(nil), r.Unconverted...)
	return &copy
}

var _ storage.VolumeRankingStore = (*VolumeRankingStore)(nil)
