package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"kraken-tools/internal/domain"
)

// DecodePolicy controls how absent numeric fields are handled.
type DecodePolicy int

const (
	// Lenient defaults absent numeric fields to 0 and marks them in Missing.
	Lenient DecodePolicy = iota
	// Strict rejects any record with an absent numeric field.
	Strict
)

func (p DecodePolicy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// ParseDecodePolicy parses "lenient" or "strict".
func ParseDecodePolicy(s string) (DecodePolicy, error) {
	switch s {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("unknown decode policy %q", s)
	}
}

// Rejection reasons.
const (
	RejectMissingSymbol = "missing_symbol"
	RejectMissingFields = "missing_fields"
	RejectMalformed     = "malformed_entry"
)

// Rejection is a ticker entry that produced no record.
type Rejection struct {
	Index   int
	Symbol  string
	Reason  string
	Missing domain.FieldSet
	Err     error // set for RejectMalformed
}

// tickerDatum mirrors one element of a ticker message's data array.
// Pointers distinguish an absent field from a zero value.
type tickerDatum struct {
	Symbol    *string  `json:"symbol"`
	Bid       *float64 `json:"bid"`
	BidQty    *float64 `json:"bid_qty"`
	Ask       *float64 `json:"ask"`
	AskQty    *float64 `json:"ask_qty"`
	Last      *float64 `json:"last"`
	Volume    *float64 `json:"volume"`
	VWAP      *float64 `json:"vwap"`
	Low       *float64 `json:"low"`
	High      *float64 `json:"high"`
	Change    *float64 `json:"change"`
	ChangePct *float64 `json:"change_pct"`
}

// DecodeTickerBatch turns a validated ticker batch into records sharing one timestamp.
func DecodeTickerBatch(batch *TickerBatch, ts time.Time, sessionID string, policy DecodePolicy) ([]*domain.LiveTickerRecord, []Rejection, error) {
	if len(batch.Data) == 0 {
		return nil, nil, nil
	}

	// Entries are decoded one by one so a bad value only costs its own entry.
	var entries []json.RawMessage
	if err := json.Unmarshal(batch.Data, &entries); err != nil {
		return nil, nil, fmt.Errorf("decode ticker data: %w", err)
	}

	ts = ts.UTC()
	records := make([]*domain.LiveTickerRecord, 0, len(entries))
	var rejected []Rejection

	for i, raw := range entries {
		var d tickerDatum
		if err := json.Unmarshal(raw, &d); err != nil {
			rejected = append(rejected, Rejection{Index: i, Symbol: entrySymbol(raw), Reason: RejectMalformed, Err: err})
			continue
		}
		if d.Symbol == nil || *d.Symbol == "" {
			rejected = append(rejected, Rejection{Index: i, Reason: RejectMissingSymbol})
			continue
		}

		rec := &domain.LiveTickerRecord{
			SessionID:   sessionID,
			Timestamp:   ts,
			Symbol:      *d.Symbol,
			MessageType: batch.Type,
		}

		var missing domain.FieldSet
		set := func(dst *float64, src *float64, f domain.TickerField) {
			if src == nil {
				missing = missing.Add(f)
				return
			}
			*dst = *src
		}
		set(&rec.Bid, d.Bid, domain.FieldBid)
		set(&rec.BidQty, d.BidQty, domain.FieldBidQty)
		set(&rec.Ask, d.Ask, domain.FieldAsk)
		set(&rec.AskQty, d.AskQty, domain.FieldAskQty)
		set(&rec.Last, d.Last, domain.FieldLast)
		set(&rec.Volume, d.Volume, domain.FieldVolume)
		set(&rec.VWAP, d.VWAP, domain.FieldVWAP)
		set(&rec.Low, d.Low, domain.FieldLow)
		set(&rec.High, d.High, domain.FieldHigh)
		set(&rec.Change, d.Change, domain.FieldChange)
		set(&rec.ChangePct, d.ChangePct, domain.FieldChangePct)

		if !missing.Empty() && policy == Strict {
			rejected = append(rejected, Rejection{Index: i, Symbol: rec.Symbol, Reason: RejectMissingFields, Missing: missing})
			continue
		}
		rec.Missing = missing
		records = append(records, rec)
	}

	return records, rejected, nil
}

// entrySymbol extracts the symbol of an entry that failed to decode, for logging.
func entrySymbol(raw json.RawMessage) string {
	var v struct {
		Symbol string `json:"symbol"`
	}
	_ = json.Unmarshal(raw, &v)
	return v.Symbol
}
