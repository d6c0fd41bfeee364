package ports

import (
	"context"

	"cryptoTracker/internal/domain"
)

// PriceSource defines the interface for fetching a market quote for a single coin.
// This abstraction allows decoupling the ledger from specific quote APIs.
type PriceSource interface {
	// Name identifies the source in logs and in Quote.Provider (e.g. "coingecko").
	Name() string

	// Fetch retrieves the current USD price and 24h change for symbol.
	// Any failure is returned wrapped with ErrUnavailable.
	Fetch(ctx context.Context, symbol string) (domain.Quote, error)
}

// QuoteProvider resolves quotes without failing, degrading to synthetic data
// when no live source answers. Implemented by quotes.Service.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) domain.Quote
	Quotes(ctx context.Context, symbols []string) map[string]domain.Quote
}
