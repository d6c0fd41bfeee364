package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

// Config holds the dependencies of a Ledger.
type Config struct {
	Store          ports.Store
	Logger         ports.Logger
	OversellPolicy domain.OversellPolicy // Defaults to OversellClamp
	Clock          func() time.Time      // Defaults to time.Now
	NewID          func() string         // Defaults to uuid.NewString
	// AlertOnSynthetic lets synthetic quotes fire alerts. Set it when no live
	// source is configured, otherwise alerts could never fire.
	AlertOnSynthetic bool
}

// Ledger is the single owner of positions, trades, the watchlist and alerts.
// All mutations are serialised; readers receive copies.
type Ledger struct {
	store  ports.Store
	logger ports.Logger
	policy domain.OversellPolicy
	now    func() time.Time
	newID  func() string

	alertOnSynthetic bool

	mu        sync.RWMutex
	positions []*domain.Position
	trades    []*domain.Trade // recorded order
	watchlist []*domain.WatchlistEntry
	alerts    *AlertBook
	dirty     map[string]struct{}
}

// New creates an empty ledger. Call Load to restore persisted state.
func New(cfg Config) (*Ledger, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("ledger store is required: %w", ports.ErrConfigurationError)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("ledger logger is required: %w", ports.ErrConfigurationError)
	}
	policy := cfg.OversellPolicy
	switch policy {
	case "":
		policy = domain.OversellClamp
	case domain.OversellClamp, domain.OversellReject:
	default:
		return nil, fmt.Errorf("unknown oversell policy %q: %w", policy, ports.ErrConfigurationError)
	}
	l := &Ledger{
		store:  cfg.Store,
		logger: cfg.Logger,
		policy: policy,
		now:    cfg.Clock,
		newID:  cfg.NewID,
		dirty:  make(map[string]struct{}),

		alertOnSynthetic: cfg.AlertOnSynthetic,
	}
	l.alerts = l.newAlertBook(nil, nil)
	if l.now == nil {
		l.now = time.Now
	}
	if l.newID == nil {
		l.newID = uuid.NewString
	}
	return l, nil
}

// --- Trades and positions ---

// ApplyBuy records a buy of amount at unitPrice, opening or averaging into a position.
func (l *Ledger) ApplyBuy(ctx context.Context, symbol string, amount, unitPrice float64) (domain.Position, error) {
	_, pos, err := l.apply(ctx, domain.TradeInput{Symbol: symbol, Direction: domain.Buy, Amount: amount, UnitPrice: unitPrice})
	return pos, err
}

// ApplySell records a sell of amount at unitPrice against an existing position.
// The returned position has zero holdings when the sell closed it.
func (l *Ledger) ApplySell(ctx context.Context, symbol string, amount, unitPrice float64) (domain.Position, error) {
	_, pos, err := l.apply(ctx, domain.TradeInput{Symbol: symbol, Direction: domain.Sell, Amount: amount, UnitPrice: unitPrice})
	return pos, err
}

// RecordTrade applies a fully described trade and returns the logged entry.
func (l *Ledger) RecordTrade(ctx context.Context, in domain.TradeInput) (domain.Trade, error) {
	trade, _, err := l.apply(ctx, in)
	return trade, err
}

func (l *Ledger) apply(ctx context.Context, in domain.TradeInput) (domain.Trade, domain.Position, error) {
	in.Symbol = domain.NormalizeSymbol(in.Symbol)
	if err := validateTrade(in); err != nil {
		return domain.Trade{}, domain.Position{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if in.TradeDate.IsZero() {
		in.TradeDate = now
	}

	trade := &domain.Trade{
		ID:         l.newID(),
		CoinSymbol: in.Symbol,
		Direction:  in.Direction,
		Amount:     in.Amount,
		UnitPrice:  in.UnitPrice,
		TotalValue: totalValue(in.Amount, in.UnitPrice),
		TradeDate:  in.TradeDate,
		Exchange:   in.Exchange,
		Notes:      in.Notes,
		CreatedAt:  now,
	}

	idx := l.positionIndex(in.Symbol)
	var pos *domain.Position
	switch in.Direction {
	case domain.Buy:
		if idx < 0 {
			pos = &domain.Position{
				ID:              l.newID(),
				Symbol:          in.Symbol,
				Holdings:        in.Amount,
				AverageBuyPrice: in.UnitPrice,
				CurrentPrice:    in.UnitPrice,
				CreatedAt:       now,
			}
			l.positions = append(l.positions, pos)
		} else {
			pos = l.positions[idx]
			pos.AverageBuyPrice = weightedAverage(pos.Holdings, pos.AverageBuyPrice, in.Amount, in.UnitPrice)
			pos.Holdings = addHoldings(pos.Holdings, in.Amount)
		}
	case domain.Sell:
		if idx < 0 {
			return domain.Trade{}, domain.Position{}, fmt.Errorf("no position for %s: %w", in.Symbol, ports.ErrNotFound)
		}
		pos = l.positions[idx]
		if in.Amount > pos.Holdings {
			if l.policy == domain.OversellReject {
				return domain.Trade{}, domain.Position{}, fmt.Errorf("sell %v %s exceeds holdings %v: %w",
					in.Amount, in.Symbol, pos.Holdings, ports.ErrInsufficientHoldings)
			}
			l.logger.Warn(ctx, "Sell exceeds holdings, clamping to zero", map[string]interface{}{
				"symbol":   in.Symbol,
				"amount":   in.Amount,
				"holdings": pos.Holdings,
			})
		}
		trade.RealizedPnl = realizedPnl(in.Amount, in.UnitPrice, pos.AverageBuyPrice)
		pos.Holdings = subtractHoldings(pos.Holdings, in.Amount)
		if pos.Holdings == 0 {
			l.positions = append(l.positions[:idx], l.positions[idx+1:]...)
		}
	}
	pos.UpdatedAt = now
	pos.Recompute()

	trade.PositionID = pos.ID
	l.trades = append(l.trades, trade)
	l.markDirty(ports.KeyPortfolio, ports.KeyTrades)

	l.logger.Info(ctx, "Trade recorded", map[string]interface{}{
		"tradeID":   trade.ID,
		"symbol":    trade.CoinSymbol,
		"direction": string(trade.Direction),
		"amount":    trade.Amount,
		"price":     trade.UnitPrice,
		"holdings":  pos.Holdings,
	})
	return *trade, *pos, l.persist(ctx)
}

func validateTrade(in domain.TradeInput) error {
	if in.Symbol == "" {
		return fmt.Errorf("symbol must not be empty: %w", ports.ErrInvalidRequest)
	}
	if !in.Direction.Valid() {
		return fmt.Errorf("unknown trade direction %q: %w", in.Direction, ports.ErrInvalidRequest)
	}
	if !positiveFinite(in.Amount) {
		return fmt.Errorf("amount must be positive, got %v: %w", in.Amount, ports.ErrInvalidRequest)
	}
	if !positiveFinite(in.UnitPrice) {
		return fmt.Errorf("unit price must be positive, got %v: %w", in.UnitPrice, ports.ErrInvalidRequest)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// RemovePosition deletes a position without touching the trade log.
func (l *Ledger) RemovePosition(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, p := range l.positions {
		if p.ID == id {
			l.positions = append(l.positions[:i], l.positions[i+1:]...)
			l.markDirty(ports.KeyPortfolio)
			l.logger.Info(ctx, "Position removed", map[string]interface{}{"positionID": id, "symbol": p.Symbol})
			return l.persist(ctx)
		}
	}
	return fmt.Errorf("position %s: %w", id, ports.ErrNotFound)
}

// DeleteTrade removes a trade from the log and rebuilds the position lifecycle it
// was folded into from the remaining trades. A closed position comes back when the
// rebuilt holdings are positive; if the coin has since been reopened under a new
// position the deletion is refused with ErrConflict. Realized P&L stored on other
// sells is left as recorded.
func (l *Ledger) DeleteTrade(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, t := range l.trades {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("trade %s: %w", id, ports.ErrNotFound)
	}
	removed := l.trades[idx]

	var rebuilt lifecycle
	pi := -1
	if removed.PositionID != "" {
		rebuilt = l.replay(removed.PositionID, removed.ID)
		pi = l.positionIndexByID(removed.PositionID)
		if pi < 0 && rebuilt.holdings > 0 && l.positionIndex(removed.CoinSymbol) >= 0 {
			return fmt.Errorf("trade %s belongs to a closed %s position that has since been reopened: %w",
				id, removed.CoinSymbol, ports.ErrConflict)
		}
	}

	l.trades = append(l.trades[:idx], l.trades[idx+1:]...)
	l.markDirty(ports.KeyTrades)

	switch {
	case pi >= 0 && rebuilt.holdings == 0:
		l.positions = append(l.positions[:pi], l.positions[pi+1:]...)
		l.markDirty(ports.KeyPortfolio)
	case pi >= 0:
		pos := l.positions[pi]
		pos.Holdings = rebuilt.holdings
		pos.AverageBuyPrice = rebuilt.avg
		pos.UpdatedAt = l.now()
		pos.Recompute()
		l.markDirty(ports.KeyPortfolio)
	case rebuilt.holdings > 0:
		pos := &domain.Position{
			ID:              removed.PositionID,
			Symbol:          removed.CoinSymbol,
			Holdings:        rebuilt.holdings,
			AverageBuyPrice: rebuilt.avg,
			CurrentPrice:    rebuilt.lastPrice,
			CreatedAt:       rebuilt.openedAt,
			UpdatedAt:       l.now(),
		}
		pos.Recompute()
		l.positions = append(l.positions, pos)
		l.markDirty(ports.KeyPortfolio)
		l.logger.Info(ctx, "Position reopened", map[string]interface{}{"positionID": pos.ID, "symbol": pos.Symbol, "holdings": pos.Holdings})
	}
	l.logger.Info(ctx, "Trade deleted", map[string]interface{}{"tradeID": id, "symbol": removed.CoinSymbol})
	return l.persist(ctx)
}

// lifecycle is the state of one position rebuilt from its trades.
type lifecycle struct {
	holdings  float64
	avg       float64
	lastPrice float64   // Unit price of the last trade
	openedAt  time.Time // CreatedAt of the first trade
}

// replay folds the trades of positionID in recorded order, skipping skipID.
// Historic sells larger than the replayed holdings clamp regardless of policy.
func (l *Ledger) replay(positionID, skipID string) lifecycle {
	var lc lifecycle
	for _, t := range l.trades {
		if t.PositionID != positionID || t.ID == skipID {
			continue
		}
		if lc.openedAt.IsZero() {
			lc.openedAt = t.CreatedAt
		}
		lc.lastPrice = t.UnitPrice
		switch t.Direction {
		case domain.Buy:
			lc.avg = weightedAverage(lc.holdings, lc.avg, t.Amount, t.UnitPrice)
			lc.holdings = addHoldings(lc.holdings, t.Amount)
		case domain.Sell:
			lc.holdings = subtractHoldings(lc.holdings, t.Amount)
		}
	}
	return lc
}

// RefreshPrices applies a batch of quotes to positions and the watchlist in one
// pass, then evaluates alerts against the same quotes. Symbols without a quote
// keep their previous market data. Newly triggered alerts are returned.
func (l *Ledger) RefreshPrices(ctx context.Context, quotes map[string]domain.Quote) ([]domain.Alert, error) {
	batch := make(map[string]domain.Quote, len(quotes))
	for sym, q := range quotes {
		if !positiveFinite(q.Price) {
			l.logger.Warn(ctx, "Ignoring quote with invalid price", map[string]interface{}{"symbol": sym, "price": q.Price})
			continue
		}
		batch[domain.NormalizeSymbol(sym)] = q
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, p := range l.positions {
		if q, ok := batch[p.Symbol]; ok {
			p.ApplyQuote(q, now)
			l.markDirty(ports.KeyPortfolio)
		}
	}
	for _, w := range l.watchlist {
		if q, ok := batch[w.Symbol]; ok {
			w.ApplyQuote(q, now)
			l.markDirty(ports.KeyWatchlist)
		}
	}

	fired := l.alerts.Evaluate(batch, now)
	if len(fired) > 0 {
		l.markDirty(ports.KeyAlerts, ports.KeyTriggeredAlerts)
		for _, a := range fired {
			l.logger.Info(ctx, "Price alert triggered", map[string]interface{}{
				"alertID":      a.ID,
				"symbol":       a.CoinSymbol,
				"condition":    string(a.Condition),
				"targetPrice":  a.TargetPrice,
				"triggerPrice": a.TriggerPrice,
			})
		}
	}
	return fired, l.persist(ctx)
}

// --- Queries ---

// PortfolioSummary aggregates valuation across all positions.
func (l *Ledger) PortfolioSummary() domain.PortfolioSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var s domain.PortfolioSummary
	for _, p := range l.positions {
		s.TotalMarketValue += p.MarketValue
		s.TotalInvested += p.Invested()
		s.TotalProfitAndLoss += p.ProfitAndLoss
	}
	s.PositionCount = len(l.positions)
	if s.TotalInvested > 0 {
		s.TotalProfitAndLossPercent = (s.TotalMarketValue - s.TotalInvested) / s.TotalInvested * 100
	}
	return s
}

// Positions returns all positions, largest market value first.
func (l *Ledger) Positions() []domain.Position {
	l.mu.RLock()
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MarketValue != out[j].MarketValue {
			return out[i].MarketValue > out[j].MarketValue
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// Position returns the live position for symbol.
func (l *Ledger) Position(symbol string) (domain.Position, error) {
	symbol = domain.NormalizeSymbol(symbol)
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.positionIndex(symbol); i >= 0 {
		return *l.positions[i], nil
	}
	return domain.Position{}, fmt.Errorf("no position for %s: %w", symbol, ports.ErrNotFound)
}

// Trades returns the trade log, most recent trade date first.
func (l *Ledger) Trades() []domain.Trade {
	l.mu.RLock()
	out := make([]domain.Trade, 0, len(l.trades))
	for _, t := range l.trades {
		out = append(out, *t)
	}
	l.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TradeDate.Equal(out[j].TradeDate) {
			return out[i].TradeDate.After(out[j].TradeDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Symbols returns every symbol that needs a price: held, watched or carrying an
// active alert.
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	seen := make(map[string]struct{}, len(l.positions)+len(l.watchlist))
	for _, p := range l.positions {
		seen[p.Symbol] = struct{}{}
	}
	for _, w := range l.watchlist {
		seen[w.Symbol] = struct{}{}
	}
	for _, a := range l.alerts.active {
		seen[a.CoinSymbol] = struct{}{}
	}
	l.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// --- Watchlist ---

// AddWatch starts tracking the price of symbol.
func (l *Ledger) AddWatch(ctx context.Context, symbol string) (domain.WatchlistEntry, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.WatchlistEntry{}, fmt.Errorf("symbol must not be empty: %w", ports.ErrInvalidRequest)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, w := range l.watchlist {
		if w.Symbol == symbol {
			return domain.WatchlistEntry{}, fmt.Errorf("%s already on watchlist: %w", symbol, ports.ErrDuplicateEntry)
		}
	}
	now := l.now()
	entry := &domain.WatchlistEntry{ID: l.newID(), Symbol: symbol, CreatedAt: now, UpdatedAt: now}
	l.watchlist = append(l.watchlist, entry)
	l.markDirty(ports.KeyWatchlist)
	l.logger.Info(ctx, "Symbol added to watchlist", map[string]interface{}{"symbol": symbol})
	return *entry, l.persist(ctx)
}

// RemoveWatch stops tracking a watchlist entry.
func (l *Ledger) RemoveWatch(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, w := range l.watchlist {
		if w.ID == id {
			l.watchlist = append(l.watchlist[:i], l.watchlist[i+1:]...)
			l.markDirty(ports.KeyWatchlist)
			return l.persist(ctx)
		}
	}
	return fmt.Errorf("watchlist entry %s: %w", id, ports.ErrNotFound)
}

// Watchlist returns the watched entries in the order they were added.
func (l *Ledger) Watchlist() []domain.WatchlistEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.WatchlistEntry, 0, len(l.watchlist))
	for _, w := range l.watchlist {
		out = append(out, *w)
	}
	return out
}

// --- Alerts ---

// CreateAlert registers a price alert on symbol.
func (l *Ledger) CreateAlert(ctx context.Context, symbol string, condition domain.AlertCondition, target float64) (domain.Alert, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.Alert{}, fmt.Errorf("symbol must not be empty: %w", ports.ErrInvalidRequest)
	}
	if !condition.Valid() {
		return domain.Alert{}, fmt.Errorf("unknown alert condition %q: %w", condition, ports.ErrInvalidRequest)
	}
	if !positiveFinite(target) {
		return domain.Alert{}, fmt.Errorf("target price must be positive, got %v: %w", target, ports.ErrInvalidRequest)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	a := &domain.Alert{
		ID:          l.newID(),
		CoinSymbol:  symbol,
		Condition:   condition,
		TargetPrice: target,
		CreatedAt:   l.now(),
	}
	l.alerts.Add(a)
	l.markDirty(ports.KeyAlerts)
	l.logger.Info(ctx, "Price alert created", map[string]interface{}{
		"alertID":     a.ID,
		"symbol":      symbol,
		"condition":   string(condition),
		"targetPrice": target,
	})
	return *a, l.persist(ctx)
}

// RemoveAlert deletes an active alert.
func (l *Ledger) RemoveAlert(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.alerts.Remove(id) {
		return fmt.Errorf("alert %s: %w", id, ports.ErrNotFound)
	}
	l.markDirty(ports.KeyAlerts)
	return l.persist(ctx)
}

// ActiveAlerts returns the alerts still waiting to fire.
func (l *Ledger) ActiveAlerts() []domain.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.alerts.Active()
}

// TriggeredAlerts returns up to limit fired alerts, most recent first.
func (l *Ledger) TriggeredAlerts(limit int) []domain.Alert {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.alerts.Triggered(limit)
}

func (l *Ledger) newAlertBook(active, triggered []*domain.Alert) *AlertBook {
	b := NewAlertBook(active, triggered)
	b.acceptSynthetic = l.alertOnSynthetic
	return b
}

func (l *Ledger) positionIndex(symbol string) int {
	for i, p := range l.positions {
		if p.Symbol == symbol {
			return i
		}
	}
	return -1
}

func (l *Ledger) positionIndexByID(id string) int {
	if id == "" {
		return -1
	}
	for i, p := range l.positions {
		if p.ID == id {
			return i
		}
	}
	return -1
}
