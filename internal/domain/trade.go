package domain

import "time"

// Trade is an entry in the append-only trade log.
type Trade struct {
	ID          string         `json:"id"`         // Opaque identifier
	PositionID  string         `json:"positionId"` // Position lifecycle the trade was folded into
	CoinSymbol  string         `json:"coin"`       // Normalised coin symbol
	Direction   TradeDirection `json:"type"`       // buy or sell
	Amount      float64        `json:"amount"`     // Quantity traded, strictly positive
	UnitPrice   float64        `json:"price"`      // Price per unit, strictly positive
	TotalValue  float64        `json:"totalValue"` // Amount * UnitPrice
	TradeDate   time.Time      `json:"date"`       // Date the user says the trade happened
	RealizedPnl float64        `json:"pnl"`        // Locked-in profit for sells, zero for buys
	Exchange    string         `json:"exchange,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"dateAdded"` // When the trade was recorded
}

// TradeInput carries a user-entered trade before it is applied to the ledger.
type TradeInput struct {
	Symbol    string
	Direction TradeDirection
	Amount    float64
	UnitPrice float64
	TradeDate time.Time // Zero means "now"
	Exchange  string
	Notes     string
}
