package domain

import "strings"

// TradeDirection represents the side of a recorded trade (buy or sell).
type TradeDirection string

const (
	Buy  TradeDirection = "buy"
	Sell TradeDirection = "sell"
)

// Valid reports whether d is a known direction.
func (d TradeDirection) Valid() bool {
	return d == Buy || d == Sell
}

// QuoteSource records where a price quote came from.
type QuoteSource string

const (
	SourceLive      QuoteSource = "live"      // Fetched from an external price API
	SourceSynthetic QuoteSource = "synthetic" // Generated locally because the API was unavailable
)

// OversellPolicy decides what a sell larger than the current holdings does.
type OversellPolicy string

const (
	OversellClamp  OversellPolicy = "clamp"  // Holdings drop to zero and the position is closed
	OversellReject OversellPolicy = "reject" // The sell is refused and nothing changes
)

// NormalizeSymbol returns the canonical (trimmed, lower case) form of a coin symbol.
// Symbols follow the CoinGecko id convention, e.g. "bitcoin" or "ethereum".
func NormalizeSymbol(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}
