// Package orchestrator runs one USD volume ranking end to end.
// It coordinates: catalog → ticker snapshot → conversion map → ranking → storage
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"kraken-tools/internal/catalog"
	"kraken-tools/internal/domain"
	"kraken-tools/internal/ingestion"
	"kraken-tools/internal/kraken"
	"kraken-tools/internal/normalization"
	"kraken-tools/internal/storage"
)

// ErrNoPairs is returned when the catalog resolves no tradeable pairs.
var ErrNoPairs = errors.New("catalog has no pairs with a display name")

// Orchestrator coordinates one ranking run.
// Flow: catalog → fetch → conversion → normalization → persist
type Orchestrator struct {
	catalog      *catalog.Loader
	fetcher      *ingestion.SnapshotFetcher
	rankingStore storage.VolumeRankingStore

	topN   int
	now    func() time.Time
	runID  string
	logger *log.Logger
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Client       kraken.RESTClient
	RankingStore storage.VolumeRankingStore

	// Fetch settings, see ingestion.SnapshotFetcherOptions
	ChunkSize int
	Pause     time.Duration

	TopN   int              // Default: 500
	Now    func() time.Time // Default: time.Now
	RunID  string           // Default: random UUID
	Logger *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Orchestrator{
		catalog: catalog.NewLoader(catalog.LoaderOptions{
			Client: opts.Client,
			Logger: logger,
		}),
		fetcher: ingestion.NewSnapshotFetcher(ingestion.SnapshotFetcherOptions{
			Client:    opts.Client,
			ChunkSize: opts.ChunkSize,
			Pause:     opts.Pause,
			Logger:    logger,
		}),
		rankingStore: opts.RankingStore,
		topN:         opts.TopN,
		now:          now,
		runID:        runID,
		logger:       logger,
	}
}

// RunID returns the identifier the ranking is saved under.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// RunResult contains results from one run.
type RunResult struct {
	Ranking    *domain.VolumeRanking
	Conversion *domain.ConversionMap

	CatalogPairs int
	Fetch        *ingestion.FetchResult
	Dropped      []normalization.DroppedRecord
	Candidates   int
}

// Run executes the full ranking run.
// Phases:
//  1. Load the pair catalog (fatal on FetchError)
//  2. Fetch ticker snapshots in chunks (chunk failures are partial)
//  3. Build the USD conversion map
//  4. Normalize and rank
//  5. Persist the ranking
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Catalog
	o.logger.Println("Phase 1: Loading pair catalog...")
	cat, err := o.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load catalog) failed: %w", err)
	}
	result.CatalogPairs = cat.Len()
	if cat.Len() == 0 {
		return nil, fmt.Errorf("phase 1 (load catalog) failed: %w", ErrNoPairs)
	}

	// Phase 2: Ticker snapshot
	o.logger.Printf("Phase 2: Fetching tickers for %d pairs...", cat.Len())
	fetch, err := o.fetcher.Fetch(ctx, cat.IDs)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (fetch tickers) failed: %w", err)
	}
	result.Fetch = fetch

	// Phase 3: Conversion map
	o.logger.Println("Phase 3: Building conversion map...")
	conv := normalization.BuildConversionMap(fetch.Snapshot, cat.DisplayNames, o.logger)
	result.Conversion = conv
	o.logger.Printf("  %d currencies with a USD rate", conv.Len())

	// Phase 4: Normalization
	o.logger.Println("Phase 4: Ranking by USD volume...")
	norm := normalization.Normalize(fetch.Snapshot, cat.DisplayNames, conv, o.topN, o.logger)
	result.Dropped = norm.Dropped
	result.Candidates = norm.Candidates

	result.Ranking = &domain.VolumeRanking{
		RunID:       o.runID,
		GeneratedAt: o.now().UTC(),
		Records:     norm.Records,
		Unconverted: norm.Unconverted,
	}

	// Phase 5: Persist
	if o.rankingStore != nil {
		o.logger.Printf("Phase 5: Saving ranking %s...", o.runID)
		if err := o.rankingStore.SaveRanking(ctx, result.Ranking); err != nil {
			return result, fmt.Errorf("phase 5 (save ranking) failed: %w", err)
		}
	}

	o.logger.Printf("Run completed: %d pairs ranked of %d candidates (%d dropped, %d chunks failed, %d unconverted currencies)",
		len(norm.Records), norm.Candidates, len(norm.Dropped), len(fetch.FailedChunks), len(norm.Unconverted))

	return result, nil
}
