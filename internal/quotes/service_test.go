package quotes

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	mu       sync.Mutex
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...ports.Fields) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...ports.Fields)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...ports.Fields) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...ports.Fields) {}

func (m *mockLogger) warnings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warnMsgs)
}

// mockSource implements ports.PriceSource for testing
type mockSource struct {
	prices map[string]float64
	err    error
	delay  time.Duration

	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	m.calls.Add(1)
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return domain.Quote{}, m.err
	}
	price, ok := m.prices[symbol]
	if !ok {
		return domain.Quote{}, fmt.Errorf("no price for %s: %w", symbol, ports.ErrUnavailable)
	}
	return domain.Quote{Symbol: symbol, Price: price, PercentChange24h: 1.1}, nil
}

func newTestService(t *testing.T, src ports.PriceSource, freshness time.Duration, concurrency int) (*Service, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	cfg := Config{
		Synthesizer: NewSynthesizer(42),
		Logger:      logger,
		Freshness:   freshness,
		Concurrency: concurrency,
	}
	if src != nil {
		cfg.Source = src
	}
	svc, err := NewService(cfg)
	require.NoError(t, err)
	return svc, logger
}

func TestNewService_RequiresLogger(t *testing.T) {
	_, err := NewService(Config{})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestService_LiveQuoteIsCached(t *testing.T) {
	src := &mockSource{prices: map[string]float64{"bitcoin": 43000}}
	svc, _ := newTestService(t, src, time.Minute, 0)
	ctx := context.Background()

	first := svc.Quote(ctx, "Bitcoin")
	second := svc.Quote(ctx, "bitcoin")

	assert.Equal(t, 43000.0, first.Price)
	assert.Equal(t, domain.SourceLive, first.Source)
	assert.Equal(t, "mock", first.Provider)
	assert.Equal(t, "bitcoin", first.Symbol)
	assert.False(t, first.FetchedAt.IsZero())
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.False(t, svc.Offline())
}

func TestService_StaleQuoteIsRefetched(t *testing.T) {
	src := &mockSource{prices: map[string]float64{"bitcoin": 43000}}
	svc, _ := newTestService(t, src, 30*time.Millisecond, 0)
	ctx := context.Background()

	svc.Quote(ctx, "bitcoin")
	time.Sleep(60 * time.Millisecond)
	svc.Quote(ctx, "bitcoin")

	assert.EqualValues(t, 2, src.calls.Load())
}

func TestService_FallsBackToSynthetic(t *testing.T) {
	tests := []struct {
		name string
		src  *mockSource
	}{
		{name: "source error", src: &mockSource{err: fmt.Errorf("boom: %w", ports.ErrUnavailable)}},
		{name: "unknown symbol", src: &mockSource{prices: map[string]float64{}}},
		{name: "invalid price", src: &mockSource{prices: map[string]float64{"ethereum": 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, logger := newTestService(t, tt.src, time.Minute, 0)
			ctx := context.Background()

			q := svc.Quote(ctx, "ethereum")
			assert.Equal(t, domain.SourceSynthetic, q.Source)
			assert.Equal(t, 2685.75, q.Price)
			assert.Equal(t, 1, logger.warnings())

			svc.Quote(ctx, "ethereum")
			assert.EqualValues(t, 2, tt.src.calls.Load(), "synthetic quotes are not cached")
		})
	}
}

func TestService_NoSourceIsSyntheticOnly(t *testing.T) {
	svc, logger := newTestService(t, nil, time.Minute, 0)

	q := svc.Quote(context.Background(), "solana")
	assert.Equal(t, domain.SourceSynthetic, q.Source)
	assert.Zero(t, logger.warnings())
	assert.True(t, svc.Offline())
}

func TestService_CoalescesConcurrentRequests(t *testing.T) {
	src := &mockSource{prices: map[string]float64{"bitcoin": 43000}, delay: 50 * time.Millisecond}
	svc, _ := newTestService(t, src, time.Minute, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := svc.Quote(context.Background(), "bitcoin")
			assert.Equal(t, 43000.0, q.Price)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
}

func TestService_QuotesBoundsConcurrency(t *testing.T) {
	prices := map[string]float64{}
	symbols := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		sym := fmt.Sprintf("coin%d", i)
		prices[sym] = float64(i + 1)
		symbols = append(symbols, sym)
	}
	symbols = append(symbols, "", "COIN0")
	src := &mockSource{prices: prices, delay: 10 * time.Millisecond}
	svc, _ := newTestService(t, src, time.Minute, 3)

	out := svc.Quotes(context.Background(), symbols)

	require.Len(t, out, 12)
	for sym, price := range prices {
		assert.Equal(t, price, out[sym].Price, sym)
	}
	assert.LessOrEqual(t, src.maxSeen.Load(), int32(3))
}

func TestService_QuotesSurvivesCancelledContext(t *testing.T) {
	src := &mockSource{err: context.Canceled}
	svc, _ := newTestService(t, src, time.Minute, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := svc.Quotes(ctx, []string{"bitcoin", "cardano"})
	require.Len(t, out, 2)
	assert.Equal(t, domain.SourceSynthetic, out["cardano"].Source)
}
