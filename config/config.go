package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"cryptoTracker/internal/adapters/logger"
	"cryptoTracker/internal/domain"
)

// Price providers selectable with PRICE_PROVIDER.
const (
	ProviderCoinGecko = "coingecko"
	ProviderBinance   = "binance"
	ProviderSynthetic = "synthetic" // Offline mode: synthetic quotes only
)

// Config holds all application configuration.
type Config struct {
	// Storage
	DBPath string

	// Logging
	LogLevel    string
	LogEncoding string // json or console

	// Price sources
	PriceProvider                 string
	CoinGeckoBaseURL              string
	CoinGeckoAPIKey               string
	CoinGeckoMaxRequestsPerMinute int
	BinanceAPIKey                 string
	BinanceSecretKey              string
	BinanceTestnet                bool
	HTTPTimeout                   time.Duration

	// Quotes and refresh
	QuoteFreshness   time.Duration
	RefreshInterval  time.Duration
	FetchConcurrency int
	SyntheticSeed    int64

	// Ledger
	OversellPolicy domain.OversellPolicy

	// HTTP API
	APIPort int
}

// Defaults applied when a key is neither in the environment nor bound to a flag.
var defaults = map[string]interface{}{
	"DB_PATH":                           "./data/crypto_tracker.db",
	"LOG_LEVEL":                         "info",
	"LOG_ENCODING":                      "json",
	"PRICE_PROVIDER":                    ProviderCoinGecko,
	"COINGECKO_BASE_URL":                "https://api.coingecko.com/api/v3",
	"COINGECKO_API_KEY":                 "",
	"COINGECKO_MAX_REQUESTS_PER_MINUTE": 30,
	"BINANCE_API_KEY":                   "",
	"BINANCE_API_SECRET":                "",
	"BINANCE_TESTNET":                   false,
	"HTTP_TIMEOUT_SECONDS":              10,
	"QUOTE_FRESHNESS_SECONDS":           30,
	"REFRESH_INTERVAL_SECONDS":          30,
	"FETCH_CONCURRENCY":                 4,
	"OVERSELL_POLICY":                   string(domain.OversellClamp),
	"SYNTHETIC_SEED":                    0,
	"API_PORT":                          8080,
}

// NewViper returns a viper instance reading the environment with all defaults set.
// A .env file in the working directory is loaded first if present.
func NewViper() *viper.Viper {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// LoadConfig builds and validates the configuration from v.
// All validation problems are reported together.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Storage
	cfg.DBPath = strings.TrimSpace(v.GetString("DB_PATH"))
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = strings.ToLower(v.GetString("LOG_LEVEL"))
	if !logger.ValidLevel(cfg.LogLevel) {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL %q", cfg.LogLevel))
	}
	cfg.LogEncoding = strings.ToLower(v.GetString("LOG_ENCODING"))
	if cfg.LogEncoding != "json" && cfg.LogEncoding != "console" {
		errs = append(errs, "LOG_ENCODING must be json or console")
	}

	// Price sources
	cfg.PriceProvider = strings.ToLower(v.GetString("PRICE_PROVIDER"))
	switch cfg.PriceProvider {
	case ProviderCoinGecko, ProviderBinance, ProviderSynthetic:
	default:
		errs = append(errs, fmt.Sprintf("PRICE_PROVIDER must be one of %s, %s, %s", ProviderCoinGecko, ProviderBinance, ProviderSynthetic))
	}
	cfg.CoinGeckoBaseURL = v.GetString("COINGECKO_BASE_URL")
	if cfg.PriceProvider == ProviderCoinGecko && cfg.CoinGeckoBaseURL == "" {
		errs = append(errs, "COINGECKO_BASE_URL must be set")
	}
	cfg.CoinGeckoAPIKey = v.GetString("COINGECKO_API_KEY")
	cfg.CoinGeckoMaxRequestsPerMinute, err = getInt(v, "COINGECKO_MAX_REQUESTS_PER_MINUTE")
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.CoinGeckoMaxRequestsPerMinute <= 0 {
		errs = append(errs, "COINGECKO_MAX_REQUESTS_PER_MINUTE must be positive")
	}
	cfg.BinanceAPIKey = v.GetString("BINANCE_API_KEY")
	cfg.BinanceSecretKey = v.GetString("BINANCE_API_SECRET")
	cfg.BinanceTestnet = v.GetBool("BINANCE_TESTNET")

	cfg.HTTPTimeout, err = getSeconds(v, "HTTP_TIMEOUT_SECONDS")
	if err != nil {
		errs = append(errs, err.Error())
	}

	// Quotes and refresh
	cfg.QuoteFreshness, err = getSeconds(v, "QUOTE_FRESHNESS_SECONDS")
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.RefreshInterval, err = getSeconds(v, "REFRESH_INTERVAL_SECONDS")
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.FetchConcurrency, err = getInt(v, "FETCH_CONCURRENCY")
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.FetchConcurrency <= 0 {
		errs = append(errs, "FETCH_CONCURRENCY must be positive")
	}
	seed, err := getInt(v, "SYNTHETIC_SEED")
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.SyntheticSeed = int64(seed)

	// Ledger
	cfg.OversellPolicy = domain.OversellPolicy(strings.ToLower(v.GetString("OVERSELL_POLICY")))
	if cfg.OversellPolicy != domain.OversellClamp && cfg.OversellPolicy != domain.OversellReject {
		errs = append(errs, "OVERSELL_POLICY must be clamp or reject")
	}

	// HTTP API
	cfg.APIPort, err = getInt(v, "API_PORT")
	if err != nil {
		errs = append(errs, err.Error())
	} else if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		errs = append(errs, "API_PORT must be between 1 and 65535")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Viper Helpers ---

// getInt parses key strictly; malformed values are reported, not read as zero.
func getInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s", raw, key)
	}
	return value, nil
}

func getSeconds(v *viper.Viper, key string) (time.Duration, error) {
	n, err := getInt(v, key)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return time.Duration(n) * time.Second, nil
}
