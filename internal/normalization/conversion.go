// Package normalization converts per-pair ticker volumes into a USD-comparable ranking.
package normalization

import (
	"log"
	"sort"

	"kraken-tools/internal/domain"
)

// USD is the reference currency.
const USD = "USD"

// Stablecoins are seeded at 1.0. A direct S/USD quote may refine a seed;
// an inverse USD/S quote never does.
var Stablecoins = []string{
	"USD", "USDT", "USDC", "DAI", "PYUSD", "RLUSD", "USD1", "USDD", "USDQ", "USDR",
}

// IsStablecoin reports whether ccy is one of the seeded USD-pegged currencies.
func IsStablecoin(ccy string) bool {
	for _, s := range Stablecoins {
		if s == ccy {
			return true
		}
	}
	return false
}

// BuildConversionMap derives currency -> USD rates from USD-quoted pairs.
//
// Pairs are visited in display name order, then pair ID, so when several
// pairs yield a rate for the same currency the last one in that order wins.
// A pair quoted in USD gives its base a rate of last price. A pair with USD
// as base gives its quote a rate of 1/last price.
func BuildConversionMap(snapshot *domain.TickerSnapshot, displayNames map[string]string, logger *log.Logger) *domain.ConversionMap {
	if logger == nil {
		logger = log.Default()
	}

	conv := domain.NewConversionMap()
	for _, s := range Stablecoins {
		conv.Set(s, domain.DefaultUSDRate)
	}

	for _, p := range orderedPairs(snapshot, displayNames) {
		base, quote, ok := p.Currencies()
		if !ok {
			continue
		}
		if quote != USD && base != USD {
			continue
		}

		entry, _ := snapshot.Get(p.ID)
		price, err := entry.LastPrice()
		if err != nil {
			logger.Printf("WARN: skip %s (%s) for conversion: %v", p.DisplayName, p.ID, err)
			continue
		}
		if price <= 0 {
			continue
		}

		switch {
		case quote == USD:
			conv.Set(base, price)
		case base == USD:
			// A seed is never replaced by an inverse quote.
			if !IsStablecoin(quote) {
				conv.Set(quote, 1/price)
			}
		}
	}

	return conv
}

// orderedPairs returns snapshot pairs sorted by display name, then ID.
func orderedPairs(snapshot *domain.TickerSnapshot, displayNames map[string]string) []domain.Pair {
	pairs := make([]domain.Pair, 0, snapshot.Len())
	for _, e := range snapshot.Entries() {
		pairs = append(pairs, domain.Pair{ID: e.PairID, DisplayName: displayNames[e.PairID]})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].DisplayName != pairs[j].DisplayName {
			return pairs[i].DisplayName < pairs[j].DisplayName
		}
		return pairs[i].ID < pairs[j].ID
	})
	return pairs
}
