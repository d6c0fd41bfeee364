package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"cryptoTracker/internal/domain"
	"cryptoTracker/internal/ports"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	providerName     = "coingecko"
	simplePricePath  = "/simple/price"
	demoAPIKeyHeader = "x-cg-demo-api-key"
)

// Config holds configuration for the CoinGecko price source.
type Config struct {
	BaseURL              string
	APIKey               string // Optional demo API key
	Timeout              time.Duration
	MaxRequestsPerMinute int
	Logger               ports.Logger
}

// Client implements ports.PriceSource against the CoinGecko simple price API.
type Client struct {
	http           *resty.Client
	logger         ports.Logger
	requestLimiter *rate.Limiter
}

type simplePrice struct {
	USD       *float64 `json:"usd"`
	Change24h *float64 `json:"usd_24h_change"`
}

// New creates a CoinGecko client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for CoinGecko client")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRequestsPerMinute <= 0 {
		cfg.MaxRequestsPerMinute = 30
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader(demoAPIKeyHeader, cfg.APIKey)
	}

	perRequest := time.Minute / time.Duration(cfg.MaxRequestsPerMinute)
	return &Client{
		http:           client,
		logger:         cfg.Logger,
		requestLimiter: rate.NewLimiter(rate.Every(perRequest), 1),
	}, nil
}

// Name identifies the provider in quotes and logs.
func (c *Client) Name() string { return providerName }

// Fetch retrieves the USD price and 24h change of a coin id such as "bitcoin".
func (c *Client) Fetch(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if err := c.requestLimiter.Wait(ctx); err != nil {
		return domain.Quote{}, fmt.Errorf("coingecko rate limiter: %w: %w", ports.ErrUnavailable, err)
	}

	var body map[string]simplePrice
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 symbol,
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		SetResult(&body).
		Get(simplePricePath)
	if err != nil {
		return domain.Quote{}, c.fail(ctx, symbol, classify(err), err)
	}

	switch {
	case resp.StatusCode() == http.StatusTooManyRequests:
		return domain.Quote{}, c.fail(ctx, symbol, ports.ErrRateLimited, fmt.Errorf("status %d", resp.StatusCode()))
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return domain.Quote{}, c.fail(ctx, symbol, ports.ErrAuthenticationFailed, fmt.Errorf("status %d", resp.StatusCode()))
	case resp.IsError():
		return domain.Quote{}, c.fail(ctx, symbol, ports.ErrUnknown, fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	price, ok := body[symbol]
	if !ok || price.USD == nil {
		return domain.Quote{}, c.fail(ctx, symbol, ports.ErrNotFound, fmt.Errorf("no usd price in response"))
	}
	q := domain.Quote{
		Symbol:    symbol,
		Price:     *price.USD,
		Source:    domain.SourceLive,
		Provider:  providerName,
		FetchedAt: time.Now(),
	}
	if price.Change24h != nil {
		q.PercentChange24h = *price.Change24h
	}
	return q, nil
}

func (c *Client) fail(ctx context.Context, symbol string, kind, err error) error {
	c.logger.Warn(ctx, "CoinGecko price request failed", map[string]interface{}{
		"symbol": symbol,
		"error":  err.Error(),
	})
	return fmt.Errorf("coingecko %s: %w: %w: %w", symbol, ports.ErrUnavailable, kind, err)
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		return ports.ErrContextCanceled
	default:
		return ports.ErrConnectionFailed
	}
}
