package domain

import "time"

// WatchlistEntry tracks the price of a coin the user does not necessarily hold.
type WatchlistEntry struct {
	ID               string      `json:"id"`
	Symbol           string      `json:"symbol"`
	CurrentPrice     float64     `json:"currentPrice"`
	PercentChange24h float64     `json:"change24h"`
	QuoteSource      QuoteSource `json:"quoteSource"`
	CreatedAt        time.Time   `json:"dateAdded"`
	UpdatedAt        time.Time   `json:"lastUpdated"`
}

// ApplyQuote sets the market fields from q.
func (w *WatchlistEntry) ApplyQuote(q Quote, at time.Time) {
	w.CurrentPrice = q.Price
	w.PercentChange24h = q.PercentChange24h
	w.QuoteSource = q.Source
	w.UpdatedAt = at
}
