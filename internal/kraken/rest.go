package kraken

import "context"

// RESTClient defines the public Kraken REST endpoints used by this module.
type RESTClient interface {
	// AssetPairs retrieves metadata for every tradeable pair, keyed by pair ID.
	AssetPairs(ctx context.Context) (map[string]AssetPair, error)

	// Ticker retrieves ticker information for a batch of pair IDs.
	Ticker(ctx context.Context, pairIDs []string) (map[string]TickerInfo, error)
}
