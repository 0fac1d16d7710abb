package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     int
	DevMode  bool
	LogLevel string

	// Market data source
	MarketDataURL string
	FetchTimeout  time.Duration

	// Price history cache
	CacheMaxEntries int
	CacheStorePath  string // sqlite warm store; empty disables persistence
	RefreshSchedule string // cron spec for the cache refresh job
	HistoryDays     int    // lookback used by risk/allocation computations

	// Risk & allocation policy
	MonteCarloPaths    int
	RiskFreeRate       float64
	TransactionCost    float64 // cost rate per traded value, e.g. 0.001 = 0.1%
	MaxAssetWeight     float64 // per-asset cap in the optimizer
	AssumedCorrelation float64 // constant off-diagonal correlation
	MaxViewAdjustment  float64 // Black-Litterman per-view weight shift cap
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnvAsInt("PORT", 8080),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MarketDataURL: getEnv("MARKET_DATA_URL", "https://query1.finance.yahoo.com"),
		FetchTimeout:  time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 10)) * time.Second,

		CacheMaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 100),
		CacheStorePath:  getEnv("CACHE_STORE_PATH", "./data/prices.db"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 0 */6 * * *"),
		HistoryDays:     getEnvAsInt("HISTORY_DAYS", 180),

		MonteCarloPaths:    getEnvAsInt("MONTE_CARLO_PATHS", 10000),
		RiskFreeRate:       getEnvAsFloat("RISK_FREE_RATE", 0.03),
		TransactionCost:    getEnvAsFloat("TRANSACTION_COST_RATE", 0.001),
		MaxAssetWeight:     getEnvAsFloat("MAX_ASSET_WEIGHT", 0.4),
		AssumedCorrelation: getEnvAsFloat("ASSUMED_CORRELATION", 0.3),
		MaxViewAdjustment:  getEnvAsFloat("MAX_VIEW_ADJUSTMENT", 0.1),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that policy knobs are inside sane ranges
func (c *Config) Validate() error {
	if c.CacheMaxEntries < 2 {
		return fmt.Errorf("CACHE_MAX_ENTRIES must be at least 2")
	}
	if c.HistoryDays < 1 || c.HistoryDays > 365 {
		return fmt.Errorf("HISTORY_DAYS must be in [1, 365]")
	}
	if c.MaxAssetWeight <= 0 || c.MaxAssetWeight > 1 {
		return fmt.Errorf("MAX_ASSET_WEIGHT must be in (0, 1]")
	}
	if c.AssumedCorrelation < -1 || c.AssumedCorrelation > 1 {
		return fmt.Errorf("ASSUMED_CORRELATION must be in [-1, 1]")
	}
	if c.TransactionCost < 0 || c.TransactionCost >= 1 {
		return fmt.Errorf("TRANSACTION_COST_RATE must be in [0, 1)")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
