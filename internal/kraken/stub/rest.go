package stub

import (
	"context"
	"errors"
	"strings"
	"sync"

	"kraken-tools/internal/kraken"
)

// ErrNoResponse is returned when no ticker response is scripted for a batch.
var ErrNoResponse = errors.New("no scripted response")

// RESTClient implements kraken.RESTClient for testing.
type RESTClient struct {
	mu sync.Mutex

	Pairs      map[string]kraken.AssetPair
	PairsErr   error
	Tickers    map[string]kraken.TickerInfo
	BatchErrs  map[string]error // keyed by comma-joined pair IDs
	TickerCall [][]string       // pair IDs of every Ticker call, in order
}

// NewRESTClient creates a new stub REST client.
func NewRESTClient() *RESTClient {
	return &RESTClient{
		Pairs:     make(map[string]kraken.AssetPair),
		Tickers:   make(map[string]kraken.TickerInfo),
		BatchErrs: make(map[string]error),
	}
}

// AssetPairs returns the scripted pair metadata.
func (c *RESTClient) AssetPairs(_ context.Context) (map[string]kraken.AssetPair, error) {
	if c.PairsErr != nil {
		return nil, c.PairsErr
	}
	out := make(map[string]kraken.AssetPair, len(c.Pairs))
	for k, v := range c.Pairs {
		out[k] = v
	}
	return out, nil
}

// Ticker returns scripted tickers for the requested IDs that exist in the stub.
func (c *RESTClient) Ticker(ctx context.Context, pairIDs []string) (map[string]kraken.TickerInfo, error) {
	c.mu.Lock()
	c.TickerCall = append(c.TickerCall, append([]string(nil), pairIDs...))
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err, ok := c.BatchErrs[strings.Join(pairIDs, ",")]; ok {
		return nil, err
	}

	out := make(map[string]kraken.TickerInfo)
	for _, id := range pairIDs {
		if t, ok := c.Tickers[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

// AddPair adds pair metadata to the stub.
func (c *RESTClient) AddPair(id, wsname string) {
	c.Pairs[id] = kraken.AssetPair{Altname: id, WSName: wsname}
}

// AddTicker adds a ticker with the given last price and 24h volume strings.
func (c *RESTClient) AddTicker(id, last, volume24h string) {
	c.Tickers[id] = kraken.TickerInfo{
		Close:  []string{last, "1"},
		Volume: []string{volume24h, volume24h},
	}
}

// Calls returns a copy of the recorded Ticker calls.
func (c *RESTClient) Calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]string(nil), c.TickerCall...)
}
