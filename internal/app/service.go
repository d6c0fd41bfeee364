package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"cryptoTracker/config"
	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ledger"
	"cryptoTracker/internal/ports"
)

const (
	shutdownTimeout = 5 * time.Second
	defaultInterval = 30 * time.Second
)

// Notifier receives alerts the moment a refresh triggers them.
type Notifier func(ctx context.Context, alerts []domain.Alert)

// TrackerService orchestrates the ledger and the quote provider.
type TrackerService struct {
	cfg      *config.Config
	logger   ports.Logger
	ledger   *ledger.Ledger
	quotes   ports.QuoteProvider
	notifier Notifier
}

// NewTrackerService creates a new application service instance.
// notifier may be nil.
func NewTrackerService(
	cfg *config.Config,
	logger ports.Logger,
	ldg *ledger.Ledger,
	quotes ports.QuoteProvider,
	notifier Notifier,
) (*TrackerService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || ldg == nil || quotes == nil {
		return nil, fmt.Errorf("missing required dependencies for TrackerService: %w", ports.ErrConfigurationError)
	}

	return &TrackerService{
		cfg:      cfg,
		logger:   logger,
		ledger:   ldg,
		quotes:   quotes,
		notifier: notifier,
	}, nil
}

// Ledger exposes the underlying ledger for read access.
func (s *TrackerService) Ledger() *ledger.Ledger {
	return s.ledger
}

// RefreshAll prices every held or watched symbol in one pass and returns the
// alerts that fired. A persistence failure is returned after the prices are applied.
func (s *TrackerService) RefreshAll(ctx context.Context) ([]domain.Alert, error) {
	return s.refresh(ctx, s.ledger.Symbols())
}

func (s *TrackerService) refresh(ctx context.Context, symbols []string) ([]domain.Alert, error) {
	if len(symbols) == 0 {
		s.logger.Debug(ctx, "Nothing to refresh")
		return []domain.Alert{}, nil
	}

	start := time.Now()
	quotes := s.quotes.Quotes(ctx, symbols)
	synthetic := 0
	for _, q := range quotes {
		if !q.IsLive() {
			synthetic++
		}
	}

	fired, err := s.ledger.RefreshPrices(ctx, quotes)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to persist refreshed prices")
	}
	s.logger.Info(ctx, "Prices refreshed", map[string]interface{}{
		"symbols":   len(symbols),
		"synthetic": synthetic,
		"triggered": len(fired),
		"elapsed":   time.Since(start).String(),
	})

	if len(fired) > 0 && s.notifier != nil {
		s.notifier(ctx, fired)
	}
	return fired, err
}

// refreshTracked refreshes symbol only if the ledger still tracks it.
func (s *TrackerService) refreshTracked(ctx context.Context, symbol string) error {
	symbol = domain.NormalizeSymbol(symbol)
	for _, tracked := range s.ledger.Symbols() {
		if tracked == symbol {
			_, err := s.refresh(ctx, []string{symbol})
			return err
		}
	}
	return nil
}

// AddCoin buys into a position and prices it immediately.
func (s *TrackerService) AddCoin(ctx context.Context, symbol string, amount, price float64) (domain.Position, error) {
	pos, err := s.ledger.ApplyBuy(ctx, symbol, amount, price)
	if err != nil && !errors.Is(err, ports.ErrPersistence) {
		return domain.Position{}, err
	}
	refreshErr := s.refreshTracked(ctx, pos.Symbol)
	if latest, lookupErr := s.ledger.Position(pos.Symbol); lookupErr == nil {
		pos = latest
	}
	return pos, firstErr(err, refreshErr)
}

// RecordTrade logs a buy or sell and reprices the coin if it is still held.
func (s *TrackerService) RecordTrade(ctx context.Context, in domain.TradeInput) (domain.Trade, error) {
	trade, err := s.ledger.RecordTrade(ctx, in)
	if err != nil && !errors.Is(err, ports.ErrPersistence) {
		return domain.Trade{}, err
	}
	return trade, firstErr(err, s.refreshTracked(ctx, trade.CoinSymbol))
}

// Watch adds symbol to the watchlist and prices it immediately.
func (s *TrackerService) Watch(ctx context.Context, symbol string) (domain.WatchlistEntry, error) {
	entry, err := s.ledger.AddWatch(ctx, symbol)
	if err != nil && !errors.Is(err, ports.ErrPersistence) {
		return domain.WatchlistEntry{}, err
	}
	refreshErr := s.refreshTracked(ctx, entry.Symbol)
	for _, w := range s.ledger.Watchlist() {
		if w.ID == entry.ID {
			entry = w
		}
	}
	return entry, firstErr(err, refreshErr)
}

// Start runs an initial refresh, then refreshes on a fixed interval until ctx is
// cancelled or the process receives SIGINT/SIGTERM. The ledger is flushed on exit.
func (s *TrackerService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Tracker Service...")

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel() // Cancel the main context
		case <-ctx.Done():
		}
	}()

	_, _ = s.RefreshAll(ctx) // failures are logged; memory stays authoritative

	interval := s.cfg.RefreshInterval
	if interval <= 0 {
		interval = defaultInterval
	}
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{ctx: ctx, logger: s.logger})))
	scheduler.Schedule(cron.Every(interval), cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		_, _ = s.RefreshAll(ctx)
	}))
	scheduler.Start()
	s.logger.Info(ctx, "Refresh scheduler started", map[string]interface{}{"interval": interval.String()})

	<-ctx.Done()
	s.logger.Info(ctx, "Main context cancelled, initiating shutdown...")

	// Wait briefly for a running refresh to finish
	select {
	case <-scheduler.Stop().Done():
		s.logger.Info(ctx, "Refresh scheduler stopped")
	case <-time.After(shutdownTimeout):
		s.logger.Warn(ctx, "Timeout waiting for refresh scheduler to stop")
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer flushCancel()
	if err := s.ledger.Flush(flushCtx); err != nil {
		s.logger.Error(flushCtx, err, "Failed to flush ledger on shutdown")
		return fmt.Errorf("failed to flush ledger: %w", err)
	}

	s.logger.Info(flushCtx, "Tracker Service stopped.")
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// cronLogger routes scheduler diagnostics into the application logger.
type cronLogger struct {
	ctx    context.Context
	logger ports.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(l.ctx, "cron: "+msg, kvFields(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(l.ctx, err, "cron: "+msg, kvFields(keysAndValues))
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
