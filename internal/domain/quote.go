package domain

import "time"

// Quote is a single market observation for one coin.
type Quote struct {
	Symbol           string      `json:"symbol"`
	Price            float64     `json:"price"`
	PercentChange24h float64     `json:"change24h"`
	Source           QuoteSource `json:"source"`
	Provider         string      `json:"provider"` // e.g. coingecko, binance, synthetic
	FetchedAt        time.Time   `json:"fetchedAt"`
}

// IsLive reports whether the quote came from an external price API.
func (q Quote) IsLive() bool {
	return q.Source == SourceLive
}
