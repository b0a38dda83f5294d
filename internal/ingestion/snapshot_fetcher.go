// Package ingestion fetches REST ticker snapshots and runs the live ticker stream.
package ingestion

import (
	"context"
	"log"
	"sort"
	"time"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/kraken"
	"kraken-tools/internal/observability"
)

const (
	// DefaultChunkSize is the number of pairs per Ticker request.
	DefaultChunkSize = 30

	// DefaultPause is the fixed delay after every chunk.
	DefaultPause = 200 * time.Millisecond
)

// ChunkFailure describes a Ticker request whose pairs are missing from the snapshot.
type ChunkFailure struct {
	Index   int
	PairIDs []string
	Err     error
}

// FetchResult is the merged output of a chunked fetch.
type FetchResult struct {
	Snapshot     *domain.TickerSnapshot
	ChunksTotal  int
	FailedChunks []ChunkFailure
}

// SnapshotFetcher retrieves ticker data for many pairs in sequential chunks.
type SnapshotFetcher struct {
	client    kraken.RESTClient
	chunkSize int
	pause     time.Duration
	logger    *log.Logger
}

// SnapshotFetcherOptions contains configuration for creating a SnapshotFetcher.
type SnapshotFetcherOptions struct {
	Client    kraken.RESTClient
	ChunkSize int           // Default: 30
	Pause     time.Duration // Default: 200ms, negative disables the pause
	Logger    *log.Logger
}

// NewSnapshotFetcher creates a new chunked ticker fetcher.
func NewSnapshotFetcher(opts SnapshotFetcherOptions) *SnapshotFetcher {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	pause := opts.Pause
	if pause == 0 {
		pause = DefaultPause
	}
	if pause < 0 {
		pause = 0
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &SnapshotFetcher{
		client:    opts.Client,
		chunkSize: chunkSize,
		pause:     pause,
		logger:    logger,
	}
}

// Fetch requests tickers chunk by chunk and merges the results.
// A failed chunk is logged and skipped. Only context cancellation aborts.
func (f *SnapshotFetcher) Fetch(ctx context.Context, pairIDs []string) (*FetchResult, error) {
	chunks := Chunk(pairIDs, f.chunkSize)
	result := &FetchResult{
		Snapshot:    domain.NewTickerSnapshot(),
		ChunksTotal: len(chunks),
	}

	for i, ids := range chunks {
		tickers, err := f.client.Ticker(ctx, ids)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Printf("WARN: chunk %d/%d (%d pairs) failed: %v", i+1, len(chunks), len(ids), err)
			result.FailedChunks = append(result.FailedChunks, ChunkFailure{Index: i, PairIDs: ids, Err: err})
			observability.RecordChunk("failed")
		} else {
			mergeChunk(result.Snapshot, ids, tickers)
			observability.RecordChunk("ok")
		}

		if err := sleep(ctx, f.pause); err != nil {
			return nil, err
		}
	}

	f.logger.Printf("Fetched %d tickers in %d chunks (%d failed)",
		result.Snapshot.Len(), result.ChunksTotal, len(result.FailedChunks))
	observability.RecordSnapshotPairs(result.Snapshot.Len())
	return result, nil
}

// mergeChunk adds tickers in request order, then any unrequested keys sorted.
func mergeChunk(snap *domain.TickerSnapshot, ids []string, tickers map[string]kraken.TickerInfo) {
	requested := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		requested[id] = struct{}{}
		if t, ok := tickers[id]; ok {
			snap.Add(toEntry(id, t))
		}
	}

	var extra []string
	for id := range tickers {
		if _, ok := requested[id]; !ok {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		snap.Add(toEntry(id, tickers[id]))
	}
}

func toEntry(id string, t kraken.TickerInfo) domain.TickerEntry {
	return domain.TickerEntry{
		PairID: id,
		Close:  t.Close,
		Volume: t.Volume,
	}
}

// Chunk splits ids into consecutive slices of at most size elements.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
