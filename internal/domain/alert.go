package domain

import "time"

// AlertCondition is the direction in which a price must cross the target.
type AlertCondition string

const (
	Above AlertCondition = "above"
	Below AlertCondition = "below"
)

// Valid reports whether c is a known condition.
func (c AlertCondition) Valid() bool {
	return c == Above || c == Below
}

// Alert is a price threshold on one coin.
type Alert struct {
	ID           string         `json:"id"`
	CoinSymbol   string         `json:"coin"`
	Condition    AlertCondition `json:"type"`
	TargetPrice  float64        `json:"targetPrice"`
	IsActive     bool           `json:"isActive"`
	TriggeredAt  *time.Time     `json:"triggeredAt,omitempty"`
	TriggerPrice float64        `json:"triggerPrice,omitempty"` // Quote price that fired the alert
	CreatedAt    time.Time      `json:"dateCreated"`
}

// Matches reports whether price satisfies the alert condition. Both boundaries are inclusive.
func (a *Alert) Matches(price float64) bool {
	switch a.Condition {
	case Above:
		return price >= a.TargetPrice
	case Below:
		return price <= a.TargetPrice
	default:
		return false
	}
}
