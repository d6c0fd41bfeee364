package ports

import "context"

// Persisted state keys. Each key holds one JSON-encoded array.
const (
	KeyPortfolio       = "crypto-portfolio"
	KeyTrades          = "crypto-trades"
	KeyWatchlist       = "crypto-watchlist"
	KeyAlerts          = "crypto-alerts"
	KeyTriggeredAlerts = "crypto-triggered-alerts"
)

// Store defines durable key-value blob storage.
type Store interface {
	// Load returns the blob stored under key.
	// Returns ErrNotFound (wrapped) if nothing has been saved under key yet.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save replaces the blob stored under key.
	Save(ctx context.Context, key string, value []byte) error
}
