package cmd

import (
	"context"
	"errors"
	"fmt"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"cryptoTracker/config"
	"cryptoTracker/internal/adapters/binanceclient"
	"cryptoTracker/internal/adapters/coingecko"
	"cryptoTracker/internal/adapters/logger"
	"cryptoTracker/internal/adapters/sqlite"
	"cryptoTracker/internal/app"
	"cryptoTracker/internal/ledger"
	"cryptoTracker/internal/ports"
	"cryptoTracker/internal/quotes"
)

type AppDependency struct {
	cfg       *config.Config
	log       *logger.ZapLogger
	repo      *sqlite.Repository
	ledger    *ledger.Ledger
	quotes    *quotes.Service
	service   *app.TrackerService
	echo      *echo.Echo
	validator *goValidator.Validate
}

// NewAppDependency wires configuration, storage, price sources and the tracker
// service, and loads the persisted ledger.
func NewAppDependency(ctx context.Context, notifier app.Notifier) (*AppDependency, error) {
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: log})
	if err != nil {
		return nil, err
	}

	source, err := newPriceSource(cfg, log)
	if err != nil {
		repo.Close()
		return nil, err
	}

	quoteService, err := quotes.NewService(quotes.Config{
		Source:      source,
		Synthesizer: quotes.NewSynthesizer(cfg.SyntheticSeed),
		Logger:      log,
		Freshness:   cfg.QuoteFreshness,
		Concurrency: cfg.FetchConcurrency,
	})
	if err != nil {
		repo.Close()
		return nil, err
	}

	ldg, err := ledger.New(ledger.Config{
		Store:            repo,
		Logger:           log,
		OversellPolicy:   cfg.OversellPolicy,
		AlertOnSynthetic: quoteService.Offline(),
	})
	if err != nil {
		repo.Close()
		return nil, err
	}
	if err := ldg.Load(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	service, err := app.NewTrackerService(cfg, log, ldg, quoteService, notifier)
	if err != nil {
		repo.Close()
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	return &AppDependency{
		cfg:       cfg,
		log:       log,
		repo:      repo,
		ledger:    ldg,
		quotes:    quoteService,
		service:   service,
		echo:      e,
		validator: goValidator.New(),
	}, nil
}

// newPriceSource returns the configured live source, or nil in synthetic mode.
func newPriceSource(cfg *config.Config, log ports.Logger) (ports.PriceSource, error) {
	switch cfg.PriceProvider {
	case config.ProviderBinance:
		client, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.BinanceTestnet,
			Timeout:    cfg.HTTPTimeout,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderCoinGecko:
		client, err := coingecko.New(coingecko.Config{
			BaseURL:              cfg.CoinGeckoBaseURL,
			APIKey:               cfg.CoinGeckoAPIKey,
			Timeout:              cfg.HTTPTimeout,
			MaxRequestsPerMinute: cfg.CoinGeckoMaxRequestsPerMinute,
			Logger:               log,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		log.Info(context.Background(), "No live price provider configured, serving synthetic quotes")
		return nil, nil
	}
}

// Close flushes pending ledger writes and releases the database.
func (a *AppDependency) Close() error {
	ctx := context.Background()
	flushErr := a.ledger.Flush(ctx)
	if flushErr != nil {
		a.log.Error(ctx, flushErr, "Failed to flush ledger")
	}
	closeErr := a.repo.Close()
	_ = a.log.Sync() // stderr sync errors are not actionable
	return errors.Join(flushErr, closeErr)
}

// withApp builds the dependencies for a single command invocation and
// releases them afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, appDep *AppDependency) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	appDep, err := NewAppDependency(ctx, printTriggered(cmd.OutOrStdout()))
	if err != nil {
		return err
	}
	runErr := fn(ctx, appDep)
	return errors.Join(runErr, appDep.Close())
}
