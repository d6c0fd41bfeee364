package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

// Load restores all collections from the store, replacing in-memory state.
// Missing keys start empty. Undecodable blobs are logged and treated as empty.
func (l *Ledger) Load(ctx context.Context) error {
	positions, err := loadCollection[domain.Position](ctx, l, ports.KeyPortfolio)
	if err != nil {
		return err
	}
	trades, err := loadCollection[domain.Trade](ctx, l, ports.KeyTrades)
	if err != nil {
		return err
	}
	watchlist, err := loadCollection[domain.WatchlistEntry](ctx, l, ports.KeyWatchlist)
	if err != nil {
		return err
	}
	active, err := loadCollection[domain.Alert](ctx, l, ports.KeyAlerts)
	if err != nil {
		return err
	}
	triggered, err := loadCollection[domain.Alert](ctx, l, ports.KeyTriggeredAlerts)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = l.positions[:0]
	for _, p := range positions {
		if p == nil || !positiveFinite(p.Holdings) {
			continue
		}
		p.Symbol = domain.NormalizeSymbol(p.Symbol)
		p.Recompute()
		l.positions = append(l.positions, p)
	}
	if dropped := len(positions) - len(l.positions); dropped > 0 {
		l.logger.Warn(ctx, "Dropped stored positions without holdings", map[string]interface{}{"count": dropped})
	}
	l.trades = l.trades[:0]
	for _, t := range trades {
		if t == nil {
			continue
		}
		t.CoinSymbol = domain.NormalizeSymbol(t.CoinSymbol)
		l.trades = append(l.trades, t)
	}
	l.watchlist = l.watchlist[:0]
	for _, w := range watchlist {
		if w == nil {
			continue
		}
		w.Symbol = domain.NormalizeSymbol(w.Symbol)
		l.watchlist = append(l.watchlist, w)
	}
	l.alerts = l.newAlertBook(active, triggered)
	l.dirty = make(map[string]struct{})

	l.logger.Info(ctx, "Ledger loaded", map[string]interface{}{
		"positions":       len(l.positions),
		"trades":          len(l.trades),
		"watchlist":       len(l.watchlist),
		"activeAlerts":    len(active),
		"triggeredAlerts": len(triggered),
	})
	return nil
}

// loadCollection decodes the array stored under key. A blob that fails to
// decode is discarded as a whole; partially decoded records are never kept.
func loadCollection[T any](ctx context.Context, l *Ledger, key string) ([]*T, error) {
	blob, err := l.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}
	var items []*T
	if err := json.Unmarshal(blob, &items); err != nil {
		l.logger.Error(ctx, err, "Discarding undecodable stored collection", map[string]interface{}{"key": key})
		return nil, nil
	}
	return items, nil
}

// Flush saves every collection that has unsaved changes.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persist(ctx)
}

func (l *Ledger) markDirty(keys ...string) {
	for _, k := range keys {
		l.dirty[k] = struct{}{}
	}
}

// persist saves all dirty keys. Callers must hold the write lock.
// Keys that fail to save stay dirty; memory is never rolled back.
func (l *Ledger) persist(ctx context.Context) error {
	if len(l.dirty) == 0 {
		return nil
	}
	keys := make([]string, 0, len(l.dirty))
	for k := range l.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		blob, err := json.Marshal(l.snapshot(key))
		if err == nil {
			err = l.store.Save(ctx, key, blob)
		}
		if err != nil {
			l.logger.Error(ctx, err, "Failed to persist collection", map[string]interface{}{"key": key})
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		delete(l.dirty, key)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ports.ErrPersistence, errors.Join(errs...))
	}
	return nil
}

func (l *Ledger) snapshot(key string) interface{} {
	switch key {
	case ports.KeyPortfolio:
		return nonNil(l.positions)
	case ports.KeyTrades:
		return nonNil(l.trades)
	case ports.KeyWatchlist:
		return nonNil(l.watchlist)
	case ports.KeyAlerts:
		return nonNil(l.alerts.active)
	case ports.KeyTriggeredAlerts:
		return nonNil(l.alerts.triggered)
	default:
		return []struct{}{}
	}
}

// nonNil makes empty collections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
