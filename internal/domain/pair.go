package domain

import "strings"

// PairSeparator splits a display name into base and quote currency.
const PairSeparator = "/"

// Pair is a tradeable pair as exposed by the exchange catalog.
type Pair struct {
	ID          string // REST API identifier, e.g. XXBTZUSD
	DisplayName string // human-readable BASE/QUOTE, e.g. XBT/USD
}

// Currencies splits the display name into base and quote.
// Names with zero or more than one separator, or an empty side, are unparseable.
func (p Pair) Currencies() (base, quote string, ok bool) {
	return SplitDisplayName(p.DisplayName)
}

// SplitDisplayName splits "BASE/QUOTE" into its two tokens.
func SplitDisplayName(name string) (base, quote string, ok bool) {
	parts := strings.Split(name, PairSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
