package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"

	providerName = "binance"
	quoteAsset   = "USDT"
)

// tickers maps CoinGecko-style ids to Binance base assets.
var tickers = map[string]string{
	"bitcoin":       "BTC",
	"ethereum":      "ETH",
	"binancecoin":   "BNB",
	"cardano":       "ADA",
	"solana":        "SOL",
	"ripple":        "XRP",
	"dogecoin":      "DOGE",
	"polkadot":      "DOT",
	"litecoin":      "LTC",
	"chainlink":     "LINK",
	"avalanche-2":   "AVAX",
	"matic-network": "MATIC",
	"tron":          "TRX",
	"stellar":       "XLM",
	"cosmos":        "ATOM",
}

// Client implements ports.PriceSource on top of the Binance spot 24h ticker.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // Overrides the production/testnet URL when set
	Timeout    time.Duration
	Logger     ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// The 24h ticker is a public endpoint; keys only raise the rate limit.
		cfg.Logger.Debug(context.Background(), "Binance client running without API keys")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)

	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance price source configured", map[string]interface{}{"baseURL": client.BaseURL})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		spotClient: client,
		logger:     cfg.Logger,
	}, nil
}

// Name identifies the provider in quotes and logs.
func (c *Client) Name() string { return providerName }

// PairFor returns the USDT trading pair for a coin id, e.g. bitcoin -> BTCUSDT.
func PairFor(symbol string) string {
	symbol = domain.NormalizeSymbol(symbol)
	if base, ok := tickers[symbol]; ok {
		return base + quoteAsset
	}
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", "")) + quoteAsset
}

// Fetch retrieves the last price and 24h change for symbol.
func (c *Client) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	op := "Fetch"
	pair := PairFor(symbol)
	stats, err := c.spotClient.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
	if err != nil {
		return domain.Quote{}, c.handleError(ctx, err, op, pair)
	}
	if len(stats) == 0 || stats[0] == nil {
		return domain.Quote{}, c.handleError(ctx, fmt.Errorf("no ticker data returned for %s", pair), op, pair)
	}

	price, err := strconv.ParseFloat(stats[0].LastPrice, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s': %w", stats[0].LastPrice, err)
		return domain.Quote{}, c.handleError(ctx, parseErr, op, pair)
	}
	change, err := strconv.ParseFloat(stats[0].PriceChangePercent, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse change '%s': %w", stats[0].PriceChangePercent, err)
		return domain.Quote{}, c.handleError(ctx, parseErr, op, pair)
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"pair": pair, "price": price})
	return domain.Quote{
		Symbol:           domain.NormalizeSymbol(symbol),
		Price:            price,
		PercentChange24h: change,
		Source:           domain.SourceLive,
		Provider:         providerName,
		FetchedAt:        time.Now(),
	}, nil
}

// handleError translates Binance failures into ports errors. Every failure is
// also an ErrUnavailable so callers can fall back without inspecting the cause.
func (c *Client) handleError(ctx context.Context, err error, operation, pair string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "pair": pair, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Bad signature or API key
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Warn(ctx, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s %s failed: %w: %w: %w", operation, pair, ports.ErrUnavailable, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var mappedErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	case strings.Contains(err.Error(), "use of closed network connection") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer"):
		mappedErr = ports.ErrConnectionFailed
	default:
		mappedErr = ports.ErrUnknown
	}

	c.logger.Warn(ctx, fmt.Sprintf("%s failed", operation), fields)
	return fmt.Errorf("%s %s failed: %w: %w: %w", operation, pair, ports.ErrUnavailable, mappedErr, err)
}
