package normalization

import (
	"errors"
	"log"
	"sort"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/observability"
)

// DefaultTopN is the ranking size used when none is given.
const DefaultTopN = 500

// Drop reasons.
const (
	ReasonMissingDisplayName     = "missing_display_name"
	ReasonUnparseableDisplayName = "unparseable_display_name"
	ReasonMissingField           = "missing_field"
	ReasonInvalidField           = "invalid_field"
)

// DroppedRecord is a snapshot entry excluded from the ranking.
type DroppedRecord struct {
	PairID string
	Reason string
	Err    error
}

// NormalizeResult contains the ranking and everything excluded from it.
type NormalizeResult struct {
	Records     []domain.VolumeRecord
	Dropped     []DroppedRecord
	Unconverted []string // quote currencies priced at the 1.0 fallback, sorted
	Candidates  int      // records that survived decode, before truncation
}

// Normalize computes USD volume for every snapshot entry and returns the top N.
// A bad entry is dropped and the batch continues. Ties on USD volume keep
// snapshot insertion order.
func Normalize(snapshot *domain.TickerSnapshot, displayNames map[string]string, conv *domain.ConversionMap, topN int, logger *log.Logger) *NormalizeResult {
	if logger == nil {
		logger = log.Default()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	result := &NormalizeResult{}
	records := make([]domain.VolumeRecord, 0, snapshot.Len())
	unconverted := make(map[string]struct{})

	drop := func(id, reason string, err error) {
		if err != nil {
			logger.Printf("WARN: drop %s: %s: %v", id, reason, err)
		} else {
			logger.Printf("WARN: drop %s: %s", id, reason)
		}
		result.Dropped = append(result.Dropped, DroppedRecord{PairID: id, Reason: reason, Err: err})
		observability.RecordRecordDropped(reason)
	}

	for _, e := range snapshot.Entries() {
		name, ok := displayNames[e.PairID]
		if !ok || name == "" {
			drop(e.PairID, ReasonMissingDisplayName, nil)
			continue
		}
		_, quote, ok := domain.SplitDisplayName(name)
		if !ok {
			drop(e.PairID, ReasonUnparseableDisplayName, nil)
			continue
		}

		baseVol, err := e.BaseVolume24h()
		if err != nil {
			drop(e.PairID, fieldReason(err), err)
			continue
		}
		price, err := e.LastPrice()
		if err != nil {
			drop(e.PairID, fieldReason(err), err)
			continue
		}

		rate, converted := conv.Rate(quote)
		if !converted {
			rate = domain.DefaultUSDRate
			unconverted[quote] = struct{}{}
		}

		quoteVol := baseVol * price
		records = append(records, domain.VolumeRecord{
			Pair:           name,
			QuoteCurrency:  quote,
			BaseVolume24h:  baseVol,
			QuoteVolume24h: quoteVol,
			USDVolume24h:   quoteVol * rate,
			Converted:      converted,
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].USDVolume24h > records[j].USDVolume24h
	})

	result.Candidates = len(records)
	if len(records) > topN {
		records = records[:topN]
	}
	for i := range records {
		records[i].Rank = i + 1
	}
	result.Records = records

	for ccy := range unconverted {
		result.Unconverted = append(result.Unconverted, ccy)
	}
	sort.Strings(result.Unconverted)
	for _, ccy := range result.Unconverted {
		logger.Printf("WARN: no USD rate for %s, volume left at rate %.1f", ccy, domain.DefaultUSDRate)
	}
	observability.RecordUnconverted(len(result.Unconverted))

	return result
}

func fieldReason(err error) string {
	if errors.Is(err, domain.ErrFieldMissing) {
		return ReasonMissingField
	}
	return ReasonInvalidField
}
