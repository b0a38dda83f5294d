// Package catalog loads the tradeable pair universe from the exchange.
package catalog

import (
	"context"
	"log"
	"sort"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/kraken"
)

// Catalog is the set of pairs eligible for ranking.
type Catalog struct {
	IDs          []string          // sorted lexicographically
	DisplayNames map[string]string // pair ID -> BASE/QUOTE
}

// Pairs returns the catalog as domain pairs in ID order.
func (c *Catalog) Pairs() []domain.Pair {
	out := make([]domain.Pair, 0, len(c.IDs))
	for _, id := range c.IDs {
		out = append(out, domain.Pair{ID: id, DisplayName: c.DisplayNames[id]})
	}
	return out
}

// DisplayName returns the display name for a pair ID.
func (c *Catalog) DisplayName(id string) (string, bool) {
	name, ok := c.DisplayNames[id]
	return name, ok
}

// Len returns the number of pairs.
func (c *Catalog) Len() int {
	return len(c.IDs)
}

// Loader fetches pair metadata.
type Loader struct {
	client kraken.RESTClient
	logger *log.Logger
}

// LoaderOptions contains configuration for creating a Loader.
type LoaderOptions struct {
	Client kraken.RESTClient
	Logger *log.Logger
}

// NewLoader creates a new catalog loader.
func NewLoader(opts LoaderOptions) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{client: opts.Client, logger: logger}
}

// Load fetches all pairs and keeps those exposing a websocket name.
// Any AssetPairs failure is returned as is; the caller treats it as fatal.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	pairs, err := l.client.AssetPairs(ctx)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		IDs:          make([]string, 0, len(pairs)),
		DisplayNames: make(map[string]string, len(pairs)),
	}

	skipped := 0
	for id, p := range pairs {
		if p.WSName == "" {
			skipped++
			continue
		}
		cat.IDs = append(cat.IDs, id)
		cat.DisplayNames[id] = p.WSName
	}
	sort.Strings(cat.IDs)

	l.logger.Printf("Loaded %d pairs (%d without wsname excluded)", len(cat.IDs), skipped)
	return cat, nil
}
