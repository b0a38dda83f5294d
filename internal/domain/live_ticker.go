package domain

import (
	"strings"
	"time"
)

// MessageType distinguishes the initial ticker state from incremental changes.
type MessageType string

const (
	MessageTypeSnapshot MessageType = "snapshot"
	MessageTypeUpdate   MessageType = "update"
)

// IsValid checks if the message type is snapshot or update.
func (t MessageType) IsValid() bool {
	return t == MessageTypeSnapshot || t == MessageTypeUpdate
}

// TickerField identifies one numeric field of a live ticker record.
type TickerField uint16

const (
	FieldBid TickerField = 1 << iota
	FieldBidQty
	FieldAsk
	FieldAskQty
	FieldLast
	FieldVolume
	FieldVWAP
	FieldLow
	FieldHigh
	FieldChange
	FieldChangePct
)

// TickerFields lists the numeric fields in wire order.
var TickerFields = []TickerField{
	FieldBid, FieldBidQty, FieldAsk, FieldAskQty, FieldLast, FieldVolume,
	FieldVWAP, FieldLow, FieldHigh, FieldChange, FieldChangePct,
}

var tickerFieldNames = map[TickerField]string{
	FieldBid:       "bid",
	FieldBidQty:    "bid_qty",
	FieldAsk:       "ask",
	FieldAskQty:    "ask_qty",
	FieldLast:      "last",
	FieldVolume:    "volume",
	FieldVWAP:      "vwap",
	FieldLow:       "low",
	FieldHigh:      "high",
	FieldChange:    "change",
	FieldChangePct: "change_pct",
}

// String returns the wire name of the field.
func (f TickerField) String() string {
	return tickerFieldNames[f]
}

// FieldSet is a set of ticker fields.
type FieldSet uint16

// Add returns the set with f included.
func (s FieldSet) Add(f TickerField) FieldSet {
	return s | FieldSet(f)
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f TickerField) bool {
	return s&FieldSet(f) != 0
}

// Empty reports whether the set has no fields.
func (s FieldSet) Empty() bool {
	return s == 0
}

// String renders the set as a "|" separated list of wire names.
func (s FieldSet) String() string {
	var names []string
	for _, f := range TickerFields {
		if s.Has(f) {
			names = append(names, f.String())
		}
	}
	return strings.Join(names, "|")
}

// LiveTickerRecord is one normalized ticker row from the streaming feed.
// Numeric fields listed in Missing were absent in the source and hold 0.
type LiveTickerRecord struct {
	SessionID   string
	Timestamp   time.Time // receive time, UTC
	Symbol      string
	MessageType MessageType
	Bid         float64
	BidQty      float64
	Ask         float64
	AskQty      float64
	Last        float64
	Volume      float64
	VWAP        float64
	Low         float64
	High        float64
	Change      float64
	ChangePct   float64
	Missing     FieldSet
}
