package kraken

// AssetPair is the subset of AssetPairs metadata this module reads.
type AssetPair struct {
	Altname string `json:"altname"`
	WSName  string `json:"wsname"` // BASE/QUOTE, absent for some legacy pairs
	Base    string `json:"base"`
	Quote   string `json:"quote"`
	Status  string `json:"status"`
}

// TickerInfo is one pair entry of the Ticker endpoint.
// Kraken encodes all numbers as strings inside positional arrays.
type TickerInfo struct {
	Ask    []string `json:"a"` // [price, whole lot volume, lot volume]
	Bid    []string `json:"b"` // [price, whole lot volume, lot volume]
	Close  []string `json:"c"` // [price, lot volume]
	Volume []string `json:"v"` // [today, last 24 hours]
	VWAP   []string `json:"p"` // [today, last 24 hours]
	Trades []int64  `json:"t"` // [today, last 24 hours]
	Low    []string `json:"l"` // [today, last 24 hours]
	High   []string `json:"h"` // [today, last 24 hours]
	Open   string   `json:"o"`
}
