package domain

import "sort"

// DefaultUSDRate is applied to quote currencies with no known rate.
// The resulting USD figure is unconverted and should be treated as suspect.
const DefaultUSDRate = 1.0

// ConversionMap maps a currency code to its USD rate.
// Every stored rate is strictly positive.
type ConversionMap struct {
	rates map[string]float64
}

// NewConversionMap creates an empty conversion map.
func NewConversionMap() *ConversionMap {
	return &ConversionMap{rates: make(map[string]float64)}
}

// Set stores a rate. Non-positive rates are ignored and reported as false.
func (m *ConversionMap) Set(currency string, rate float64) bool {
	if !(rate > 0) {
		return false
	}
	m.rates[currency] = rate
	return true
}

// Rate returns the USD rate for a currency.
func (m *ConversionMap) Rate(currency string) (float64, bool) {
	r, ok := m.rates[currency]
	return r, ok
}

// RateOrDefault returns the USD rate, or DefaultUSDRate when unknown.
func (m *ConversionMap) RateOrDefault(currency string) float64 {
	if r, ok := m.rates[currency]; ok {
		return r
	}
	return DefaultUSDRate
}

// Currencies returns all currency codes in ascending order.
func (m *ConversionMap) Currencies() []string {
	out := make([]string, 0, len(m.rates))
	for c := range m.rates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of currencies with a rate.
func (m *ConversionMap) Len() int {
	return len(m.rates)
}
