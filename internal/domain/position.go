package domain

import "time"

// Position represents the holdings of a single coin together with its cost basis.
type Position struct {
	ID               string      `json:"id"`            // Opaque identifier, immutable once assigned
	Symbol           string      `json:"symbol"`        // Normalised coin symbol, unique across positions
	Holdings         float64     `json:"holdings"`      // Quantity held, never negative
	AverageBuyPrice  float64     `json:"avgBuyPrice"`   // Weighted average of all contributing buy prices
	CurrentPrice     float64     `json:"currentPrice"`  // Last observed market price
	PercentChange24h float64     `json:"change24h"`     // Last observed 24h change in percent
	QuoteSource      QuoteSource `json:"quoteSource"`   // Provenance of CurrentPrice (empty until first refresh)
	MarketValue      float64     `json:"marketValue"`   // Holdings * CurrentPrice
	ProfitAndLoss    float64     `json:"pnl"`           // MarketValue - Holdings * AverageBuyPrice
	ProfitAndLossPct float64     `json:"pnlPercentage"` // (CurrentPrice - AverageBuyPrice) / AverageBuyPrice * 100
	CreatedAt        time.Time   `json:"dateAdded"`     // When the position was opened
	UpdatedAt        time.Time   `json:"lastUpdated"`   // Last holdings or price change
}

// Invested returns the amount of capital tied up in the position at cost.
func (p *Position) Invested() float64 {
	return p.Holdings * p.AverageBuyPrice
}

// Recompute refreshes the derived valuation fields from holdings, cost basis and price.
// It is idempotent: calling it twice yields the same values.
func (p *Position) Recompute() {
	p.MarketValue = p.Holdings * p.CurrentPrice
	p.ProfitAndLoss = p.MarketValue - p.Invested()
	if p.AverageBuyPrice == 0 {
		p.ProfitAndLossPct = 0
		return
	}
	p.ProfitAndLossPct = (p.CurrentPrice - p.AverageBuyPrice) / p.AverageBuyPrice * 100
}

// ApplyQuote sets the market fields from q and recomputes valuation.
func (p *Position) ApplyQuote(q Quote, at time.Time) {
	p.CurrentPrice = q.Price
	p.PercentChange24h = q.PercentChange24h
	p.QuoteSource = q.Source
	p.UpdatedAt = at
	p.Recompute()
}

// PortfolioSummary aggregates valuation over all positions.
type PortfolioSummary struct {
	TotalMarketValue          float64 `json:"totalValue"`
	TotalInvested             float64 `json:"totalInvested"`
	TotalProfitAndLoss        float64 `json:"totalPnl"`
	TotalProfitAndLossPercent float64 `json:"totalPnlPercentage"`
	PositionCount             int     `json:"totalCoins"`
}
