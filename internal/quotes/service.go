package quotes

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

const (
	defaultFreshness   = 30 * time.Second
	defaultConcurrency = 4
)

// Config holds the dependencies and tuning of a Service.
type Config struct {
	Source      ports.PriceSource // Live provider; nil serves synthetic quotes only
	Synthesizer *Synthesizer      // Fallback; defaults to a time-seeded synthesizer
	Logger      ports.Logger
	Freshness   time.Duration // How long a live quote is reused
	Concurrency int           // Parallel fetches in Quotes
}

// Service resolves quotes: fresh cache, then the live source, then the synthesizer.
// It never fails; degradation is logged.
type Service struct {
	source      ports.PriceSource
	synth       *Synthesizer
	logger      ports.Logger
	cache       *cache.Cache
	freshness   time.Duration
	concurrency int
	inflight    singleflight.Group
	now         func() time.Time
}

// NewService creates a quote service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("quote service logger is required: %w", ports.ErrConfigurationError)
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = defaultFreshness
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Synthesizer == nil {
		cfg.Synthesizer = NewSynthesizer(0)
	}
	return &Service{
		source:      cfg.Source,
		synth:       cfg.Synthesizer,
		logger:      cfg.Logger,
		cache:       cache.New(cfg.Freshness, 2*cfg.Freshness),
		freshness:   cfg.Freshness,
		concurrency: cfg.Concurrency,
		now:         time.Now,
	}, nil
}

// Offline reports whether the service has no live source and serves synthetic quotes only.
func (s *Service) Offline() bool {
	return s.source == nil
}

// Quote returns the best available quote for symbol.
func (s *Service) Quote(ctx context.Context, symbol string) domain.Quote {
	symbol = domain.NormalizeSymbol(symbol)
	if q, ok := s.cached(symbol); ok {
		return q
	}
	if s.source == nil {
		return s.synth.Quote(symbol)
	}

	v, err, _ := s.inflight.Do(symbol, func() (interface{}, error) {
		if q, ok := s.cached(symbol); ok {
			return q, nil
		}
		return s.fetch(ctx, symbol)
	})
	if err != nil {
		s.logger.Warn(ctx, "Live price unavailable, using synthetic quote", map[string]interface{}{
			"symbol":   symbol,
			"provider": s.source.Name(),
			"error":    err.Error(),
		})
		return s.synth.Quote(symbol)
	}
	return v.(domain.Quote)
}

// Quotes resolves many symbols with bounded concurrency.
func (s *Service) Quotes(ctx context.Context, symbols []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, sym := range symbols {
		sym := domain.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		g.Go(func() error {
			q := s.Quote(gctx, sym)
			mu.Lock()
			out[sym] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	s.logger.Debug(ctx, "Quotes resolved", map[string]interface{}{"count": len(out)})
	return out
}

func (s *Service) fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	q, err := s.source.Fetch(ctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	if q.Price <= 0 || math.IsInf(q.Price, 0) || math.IsNaN(q.Price) {
		return domain.Quote{}, fmt.Errorf("%s returned invalid price %v for %s: %w", s.source.Name(), q.Price, symbol, ports.ErrUnavailable)
	}
	q.Symbol = symbol
	q.Source = domain.SourceLive
	if q.Provider == "" {
		q.Provider = s.source.Name()
	}
	if q.FetchedAt.IsZero() {
		q.FetchedAt = s.now()
	}
	s.cache.Set(symbol, q, s.freshness)
	return q, nil
}

func (s *Service) cached(symbol string) (domain.Quote, bool) {
	v, found := s.cache.Get(symbol)
	if !found {
		return domain.Quote{}, false
	}
	q, ok := v.(domain.Quote)
	return q, ok
}
