package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTracker/config"
	"cryptoTracker/internal/analytics"
	"cryptoTracker/internal/app"
	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ledger"
	"cryptoTracker/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...ports.Fields)            {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...ports.Fields)             {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...ports.Fields)             {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...ports.Fields) {}

type mockStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	saveErr error
}

func (m *mockStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ports.ErrNotFound)
	}
	return v, nil
}

func (m *mockStore) Save(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = value
	return nil
}

type fixedQuotes map[string]float64

func (q fixedQuotes) Quote(ctx context.Context, symbol string) domain.Quote {
	return q.Quotes(ctx, []string{symbol})[symbol]
}

func (q fixedQuotes) Quotes(ctx context.Context, symbols []string) map[string]domain.Quote {
	out := make(map[string]domain.Quote, len(symbols))
	for _, s := range symbols {
		if p, ok := q[s]; ok {
			out[s] = domain.Quote{Symbol: s, Price: p, Source: domain.SourceLive, Provider: "fixed"}
		}
	}
	return out
}

type testAPI struct {
	echo  *echo.Echo
	store *mockStore
	svc   *app.TrackerService
}

func newTestAPI(t *testing.T, policy domain.OversellPolicy) *testAPI {
	t.Helper()
	store := &mockStore{data: map[string][]byte{}}
	logger := &mockLogger{}
	ldg, err := ledger.New(ledger.Config{Store: store, Logger: logger, OversellPolicy: policy})
	require.NoError(t, err)
	svc, err := app.NewTrackerService(&config.Config{}, logger, ldg, fixedQuotes{"bitcoin": 30000, "ethereum": 2000}, nil)
	require.NoError(t, err)

	e := echo.New()
	NewHttpAPIHandler(context.Background(), e, goValidator.New(), svc, logger).SetupRoutes()
	return &testAPI{echo: e, store: store, svc: svc}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, BaseResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	var resp BaseResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

// decode re-encodes resp.Data into out.
func decode(t *testing.T, resp BaseResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestAPI_AddCoinAndSummary(t *testing.T) {
	api := newTestAPI(t, "")

	rec, resp := api.do(t, http.MethodPost, "/api/v1/portfolio/coins", `{"symbol":"Bitcoin","amount":2,"buyPrice":25000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var pos domain.Position
	decode(t, resp, &pos)
	assert.Equal(t, "bitcoin", pos.Symbol)
	assert.Equal(t, 30000.0, pos.CurrentPrice)
	assert.Equal(t, 10000.0, pos.ProfitAndLoss)

	rec, resp = api.do(t, http.MethodGet, "/api/v1/portfolio/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary domain.PortfolioSummary
	decode(t, resp, &summary)
	assert.Equal(t, 60000.0, summary.TotalMarketValue)
	assert.Equal(t, 50000.0, summary.TotalInvested)
	assert.Equal(t, 1, summary.PositionCount)

	rec, resp = api.do(t, http.MethodGet, "/api/v1/portfolio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var positions []domain.Position
	decode(t, resp, &positions)
	require.Len(t, positions, 1)

	rec, _ = api.do(t, http.MethodDelete, "/api/v1/portfolio/coins/"+positions[0].ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(t, http.MethodDelete, "/api/v1/portfolio/coins/"+positions[0].ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "malformed json", path: "/api/v1/portfolio/coins", body: `{"symbol":`},
		{name: "missing symbol", path: "/api/v1/portfolio/coins", body: `{"amount":1,"buyPrice":1}`},
		{name: "negative amount", path: "/api/v1/portfolio/coins", body: `{"symbol":"bitcoin","amount":-1,"buyPrice":1}`},
		{name: "unknown trade type", path: "/api/v1/trades", body: `{"coin":"bitcoin","type":"hold","amount":1,"price":1}`},
		{name: "bad trade date", path: "/api/v1/trades", body: `{"coin":"bitcoin","type":"buy","amount":1,"price":1,"date":"yesterday"}`},
		{name: "blank symbol", path: "/api/v1/watchlist", body: `{"symbol":"   "}`},
		{name: "unknown alert type", path: "/api/v1/alerts", body: `{"coin":"bitcoin","type":"sideways","targetPrice":5}`},
		{name: "zero alert target", path: "/api/v1/alerts", body: `{"coin":"bitcoin","type":"above","targetPrice":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, "")

			rec, resp := api.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.NotEmpty(t, resp.Message)
			assert.Empty(t, api.svc.Ledger().Trades())
		})
	}
}

func TestAPI_TradesLifecycle(t *testing.T) {
	api := newTestAPI(t, domain.OversellReject)

	rec, _ := api.do(t, http.MethodPost, "/api/v1/trades", `{"coin":"ethereum","type":"buy","amount":2,"price":1500,"date":"2024-01-10","exchange":"Kraken"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, resp := api.do(t, http.MethodPost, "/api/v1/trades", `{"coin":"ethereum","type":"sell","amount":1,"price":1800,"date":"2024-02-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sell domain.Trade
	decode(t, resp, &sell)
	assert.Equal(t, 300.0, sell.RealizedPnl)

	rec, resp = api.do(t, http.MethodPost, "/api/v1/trades", `{"coin":"ethereum","type":"sell","amount":5,"price":1800}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, resp.Message, ports.ErrInsufficientHoldings.Error())

	rec, _ = api.do(t, http.MethodPost, "/api/v1/trades", `{"coin":"cardano","type":"sell","amount":5,"price":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, resp = api.do(t, http.MethodGet, "/api/v1/trades", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []domain.Trade
	decode(t, resp, &trades)
	require.Len(t, trades, 2)
	assert.Equal(t, sell.ID, trades[0].ID)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/trades/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "date,coin,type"))
	assert.Contains(t, lines[2], "Kraken")

	rec, resp = api.do(t, http.MethodGet, "/api/v1/trades/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats analytics.TradeStats
	decode(t, resp, &stats)
	assert.Equal(t, 1, stats.ClosedTrades)
	assert.Equal(t, 300.0, stats.TotalRealized)
	assert.Equal(t, 3000.0, stats.BuyVolume)

	rec, _ = api.do(t, http.MethodDelete, "/api/v1/trades/"+sell.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(t, http.MethodDelete, "/api/v1/trades/"+sell.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	pos, err := api.svc.Ledger().Position("ethereum")
	require.NoError(t, err)
	assert.Equal(t, 2.0, pos.Holdings)
}

func TestAPI_WatchlistAndAlerts(t *testing.T) {
	api := newTestAPI(t, "")

	rec, resp := api.do(t, http.MethodPost, "/api/v1/watchlist", `{"symbol":"bitcoin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry domain.WatchlistEntry
	decode(t, resp, &entry)
	assert.Equal(t, 30000.0, entry.CurrentPrice)

	rec, _ = api.do(t, http.MethodPost, "/api/v1/watchlist", `{"symbol":"BITCOIN"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = api.do(t, http.MethodPost, "/api/v1/alerts", `{"coin":"bitcoin","type":"below","targetPrice":30000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var alert domain.Alert
	decode(t, resp, &alert)
	assert.True(t, alert.IsActive)

	rec, resp = api.do(t, http.MethodGet, "/api/v1/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var active []domain.Alert
	decode(t, resp, &active)
	assert.Len(t, active, 1)

	rec, resp = api.do(t, http.MethodPost, "/api/v1/prices/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fired []domain.Alert
	decode(t, resp, &fired)
	require.Len(t, fired, 1)
	assert.Equal(t, alert.ID, fired[0].ID)
	assert.Equal(t, 30000.0, fired[0].TriggerPrice)

	rec, resp = api.do(t, http.MethodGet, "/api/v1/alerts/triggered?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var triggered []domain.Alert
	decode(t, resp, &triggered)
	assert.Len(t, triggered, 1)

	rec, _ = api.do(t, http.MethodGet, "/api/v1/alerts/triggered?limit=many", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(t, http.MethodDelete, "/api/v1/alerts/"+alert.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "triggered alerts are no longer active")

	rec, _ = api.do(t, http.MethodDelete, "/api/v1/watchlist/"+entry.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_PersistenceFailureIsWarning(t *testing.T) {
	api := newTestAPI(t, "")
	api.store.saveErr = errors.New("disk full")

	rec, resp := api.do(t, http.MethodPost, "/api/v1/portfolio/coins", `{"symbol":"bitcoin","amount":1,"buyPrice":20000}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, resp.Message, "warning")
	assert.NotNil(t, resp.Data)
	assert.Len(t, api.svc.Ledger().Positions(), 1)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("x: %w", ports.ErrInvalidRequest), want: http.StatusBadRequest},
		{err: fmt.Errorf("x: %w", ports.ErrNotFound), want: http.StatusNotFound},
		{err: fmt.Errorf("x: %w", ports.ErrDuplicateEntry), want: http.StatusConflict},
		{err: fmt.Errorf("x: %w", ports.ErrInsufficientHoldings), want: http.StatusConflict},
		{err: fmt.Errorf("x: %w", ports.ErrConflict), want: http.StatusConflict},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
