package binanceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...ports.Fields) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...ports.Fields)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...ports.Fields) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...ports.Fields) {}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *mockLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := &mockLogger{}
	c, err := New(Config{BaseURL: srv.URL, Timeout: time.Second, Logger: logger})
	require.NoError(t, err)
	return c, logger
}

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestPairFor(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{symbol: "bitcoin", want: "BTCUSDT"},
		{symbol: " Ethereum ", want: "ETHUSDT"},
		{symbol: "binancecoin", want: "BNBUSDT"},
		{symbol: "avalanche-2", want: "AVAXUSDT"},
		{symbol: "pepe", want: "PEPEUSDT"},
		{symbol: "shiba-inu", want: "SHIBAINUUSDT"},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, PairFor(tt.symbol))
		})
	}
}

func TestClient_Fetch(t *testing.T) {
	var gotPath, gotSymbol string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","priceChangePercent":"-1.250","lastPrice":"43125.50000000"}`))
	})

	q, err := c.Fetch(context.Background(), "bitcoin")
	require.NoError(t, err)

	assert.Equal(t, "/api/v3/ticker/24hr", gotPath)
	assert.Equal(t, "BTCUSDT", gotSymbol)
	assert.Equal(t, "bitcoin", q.Symbol)
	assert.Equal(t, 43125.5, q.Price)
	assert.Equal(t, -1.25, q.PercentChange24h)
	assert.Equal(t, domain.SourceLive, q.Source)
	assert.Equal(t, "binance", q.Provider)
	assert.Equal(t, "binance", c.Name())
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"code":-1003,"msg":"Too many requests"}`, wantErr: ports.ErrRateLimited},
		{name: "invalid symbol", status: http.StatusBadRequest, body: `{"code":-1121,"msg":"Invalid symbol."}`, wantErr: ports.ErrNotFound},
		{name: "bad key", status: http.StatusUnauthorized, body: `{"code":-2015,"msg":"Invalid API-key"}`, wantErr: ports.ErrAuthenticationFailed},
		{name: "unparseable price", status: http.StatusOK, body: `{"symbol":"BTCUSDT","priceChangePercent":"1","lastPrice":"n/a"}`, wantErr: ports.ErrUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, logger := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Fetch(context.Background(), "bitcoin")
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrUnavailable)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Len(t, logger.warnMsgs, 1)
		})
	}
}

func TestClient_FetchCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "bitcoin")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUnavailable)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}
