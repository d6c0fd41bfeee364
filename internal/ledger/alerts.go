package ledger

import (
	"sort"
	"time"

	"cryptoTracker/internal/domain"
)

// AlertBook owns active and triggered price alerts.
// It is not safe for concurrent use; the Ledger serialises access to it.
type AlertBook struct {
	active    []*domain.Alert
	triggered []*domain.Alert // append-only, oldest first

	acceptSynthetic bool // synthetic quotes may fire alerts
}

// NewAlertBook creates a book from previously persisted alerts.
func NewAlertBook(active, triggered []*domain.Alert) *AlertBook {
	b := &AlertBook{
		active:    make([]*domain.Alert, 0, len(active)),
		triggered: make([]*domain.Alert, 0, len(triggered)),
	}
	for _, a := range active {
		if a == nil {
			continue
		}
		a.CoinSymbol = domain.NormalizeSymbol(a.CoinSymbol)
		a.IsActive = true
		b.active = append(b.active, a)
	}
	for _, a := range triggered {
		if a == nil {
			continue
		}
		a.CoinSymbol = domain.NormalizeSymbol(a.CoinSymbol)
		a.IsActive = false
		b.triggered = append(b.triggered, a)
	}
	return b
}

// Add registers a new active alert.
func (b *AlertBook) Add(a *domain.Alert) {
	a.IsActive = true
	a.TriggeredAt = nil
	b.active = append(b.active, a)
}

// Remove deletes an active alert by id. It reports whether the alert existed.
func (b *AlertBook) Remove(id string) bool {
	for i, a := range b.active {
		if a.ID == id {
			b.active = append(b.active[:i], b.active[i+1:]...)
			return true
		}
	}
	return false
}

// Evaluate compares every active alert against quotes and moves the ones whose
// condition holds into the triggered log. Alerts without a quote are skipped, as are
// synthetic quotes unless the book accepts them (offline mode).
// The newly triggered alerts are returned in activation order.
func (b *AlertBook) Evaluate(quotes map[string]domain.Quote, now time.Time) []domain.Alert {
	fired := make([]domain.Alert, 0)
	remaining := b.active[:0]
	for _, a := range b.active {
		q, ok := quotes[a.CoinSymbol]
		if !ok || (!q.IsLive() && !b.acceptSynthetic) || !a.Matches(q.Price) {
			remaining = append(remaining, a)
			continue
		}
		at := now
		a.IsActive = false
		a.TriggeredAt = &at
		a.TriggerPrice = q.Price
		b.triggered = append(b.triggered, a)
		fired = append(fired, *a)
	}
	// Clear the tail so moved alerts are not retained by the backing array.
	for i := len(remaining); i < len(b.active); i++ {
		b.active[i] = nil
	}
	b.active = remaining
	return fired
}

// Active returns copies of the active alerts in creation order.
func (b *AlertBook) Active() []domain.Alert {
	out := make([]domain.Alert, 0, len(b.active))
	for _, a := range b.active {
		out = append(out, *a)
	}
	return out
}

// Triggered returns copies of triggered alerts, most recent first.
// A limit <= 0 returns all of them.
func (b *AlertBook) Triggered(limit int) []domain.Alert {
	out := make([]domain.Alert, 0, len(b.triggered))
	for i := len(b.triggered) - 1; i >= 0; i-- {
		out = append(out, *b.triggered[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return triggeredAt(out[i]).After(triggeredAt(out[j]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func triggeredAt(a domain.Alert) time.Time {
	if a.TriggeredAt == nil {
		return time.Time{}
	}
	return *a.TriggeredAt
}
